// Package crashes infers which tests crashed a previous run by replaying its progress log.
//
// The analysis is a pure function of the log text. It does not touch suites, the driver, or
// any hardware, so it can be exercised with literal log fixtures.
package crashes

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pgraph-tests/pgraph-harness/framework"
	"github.com/pgraph-tests/pgraph-harness/framework/progress"
)

// ErrNoHistory is wrapped by errors from AnalyzeFile when the log cannot be read at all.
// Callers should treat it as "no previous run", not as a failure.
var ErrNoHistory = errors.New("no progress log history")

// Analyze scans a progress log and returns the set of tests that started but never completed.
//
// A "Crash?" line carried over from an earlier analysis is taken as-is. A "Starting" line
// while another test is still pending marks the pending test as suspected. A "Completed" line
// for the pending test clears it, including any suspicion carried over for it. A pending test
// at the end of the log is suspected.
//
// Lines that do not match the log format, lines longer than maxLineLength, and "Completed"
// lines naming some other test, are reported to logger and otherwise ignored.
func Analyze(r io.Reader, logger framework.Logger) (Record, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	crashes := make(Record)
	var pending *progress.TestRef

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	scanner.Split(skipLongLines(logger))
	for scanner.Scan() {
		line := scanner.Text()
		entry, ok := progress.ParseLine(line)
		if !ok {
			if line != "" {
				logger.Printf("Unprocessed log line %q", line)
			}
			continue
		}

		switch entry.Kind {
		case progress.SuspectedCrash:
			crashes.Add(entry.Suite, entry.Test)

		case progress.TestStarted:
			if pending != nil {
				logger.Printf("Potential crash: %s", pending)
				crashes.Add(pending.Suite, pending.Test)
			}
			ref := entry.Ref()
			pending = &ref

		case progress.TestCompleted:
			if pending != nil && entry.Test == pending.Test {
				crashes.Remove(pending.Suite, pending.Test)
				pending = nil
				continue
			}
			if pending == nil {
				logger.Printf("Completed line with no test pending: %q", entry.Test)
			} else {
				logger.Printf("Completed line mismatch: %s but completed %q", pending, entry.Test)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading progress log: %w", err)
	}

	if pending != nil {
		logger.Printf("Potential crash: %s", pending)
		crashes.Add(pending.Suite, pending.Test)
	}
	return crashes, nil
}

// maxLineLength bounds the memory used per line. No line the Recorder writes comes close.
const maxLineLength = 1024 * 1024

// skipLongLines is bufio.ScanLines, except that a line that does not fit in the scanner's
// buffer is dropped up to and including its newline instead of ending the scan.
func skipLongLines(logger framework.Logger) bufio.SplitFunc {
	discarding := false
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if discarding {
			if i := bytes.IndexByte(data, '\n'); i >= 0 {
				discarding = false
				return i + 1, nil, nil
			}
			return len(data), nil, nil
		}
		advance, token, err := bufio.ScanLines(data, atEOF)
		if advance == 0 && token == nil && err == nil && len(data) >= maxLineLength {
			logger.Printf("Skipping log line longer than %d bytes", maxLineLength)
			discarding = true
			return len(data), nil, nil
		}
		return advance, token, err
	}
}

// AnalyzeFile runs Analyze on the file at path. If the file cannot be opened the returned
// error wraps ErrNoHistory.
func AnalyzeFile(path string, logger framework.Logger) (Record, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoHistory, err)
	}
	defer func() { _ = f.Close() }()
	return Analyze(f, logger)
}
