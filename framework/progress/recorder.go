// Package progress writes the append-only progress log of a test run.
//
// Every test produces a "Starting" line before it runs and a "Completed" line after it
// returns. Each line is flushed to stable storage before the test proceeds, so that if the
// process dies mid-test the log ends with an unmatched "Starting" line. Package crashes reads
// that back on the next run.
package progress

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Recorder appends progress lines to a log. A nil *Recorder is valid and discards everything,
// which is how a run with the progress log disabled behaves.
type Recorder struct {
	lock   sync.Mutex
	w      io.Writer
	closer io.Closer
	syncer interface{ Sync() error }
	err    error
}

// NewRecorder returns a Recorder that writes to w. If w has a Sync method it is called after
// every line.
func NewRecorder(w io.Writer) *Recorder {
	r := &Recorder{w: w}
	if s, ok := w.(interface{ Sync() error }); ok {
		r.syncer = s
	}
	return r
}

// Open creates a Recorder for the file at path. If truncate is true any existing contents are
// discarded; otherwise new lines are appended.
func Open(path string, truncate bool) (*Recorder, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("cannot open progress log: %w", err)
	}
	r := NewRecorder(f)
	r.closer = f
	return r, nil
}

// Err returns the first write error encountered, if any. Writes after an error are dropped.
func (r *Recorder) Err() error {
	if r == nil {
		return nil
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.err
}

// Close closes the underlying file, if the Recorder owns one.
func (r *Recorder) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// SuiteStarted records the start of a suite.
func (r *Recorder) SuiteStarted(suite string) {
	r.writeLine(formatSuiteStarted(suite))
}

// TestStarted records that a test is about to be invoked.
func (r *Recorder) TestStarted(ref TestRef) {
	r.writeLine(formatTestStarted(ref))
}

// TestCompleted records that the most recently started test returned.
func (r *Recorder) TestCompleted(test string, elapsed time.Duration) {
	r.writeLine(formatTestCompleted(test, elapsed))
}

// HistoricalCrashes records the tests suspected of crashing a previous run. Carrying them
// forward keeps them suspected if this run dies before they get a chance to complete.
func (r *Recorder) HistoricalCrashes(refs []TestRef) {
	if len(refs) == 0 {
		return
	}
	r.writeLine(historicalCrashesBegin)
	for _, ref := range refs {
		r.writeLine(formatSuspectedCrash(ref))
	}
	r.writeLine(historicalCrashesEnd)
}

func (r *Recorder) writeLine(line string) {
	if r == nil {
		return
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.err != nil {
		return
	}
	if _, err := io.WriteString(r.w, line+"\n"); err != nil {
		r.err = err
		return
	}
	if r.syncer != nil {
		if err := r.syncer.Sync(); err != nil {
			r.err = err
		}
	}
}

var (
	defaultLock     sync.Mutex
	defaultRecorder *Recorder //nolint:gochecknoglobals
)

// ErrAlreadyInitialized is returned by Initialize if the process-wide Recorder exists.
var ErrAlreadyInitialized = errors.New("progress log already initialized")

// Initialize creates the process-wide Recorder for path. It may be called once per process;
// until it is, Default returns nil.
func Initialize(path string, truncate bool) error {
	defaultLock.Lock()
	defer defaultLock.Unlock()
	if defaultRecorder != nil {
		return ErrAlreadyInitialized
	}
	r, err := Open(path, truncate)
	if err != nil {
		return err
	}
	defaultRecorder = r
	return nil
}

// Default returns the process-wide Recorder, or nil if Initialize has not succeeded.
func Default() *Recorder {
	defaultLock.Lock()
	defer defaultLock.Unlock()
	return defaultRecorder
}

// Shutdown closes the process-wide Recorder and forgets it.
func Shutdown() error {
	defaultLock.Lock()
	r := defaultRecorder
	defaultRecorder = nil
	defaultLock.Unlock()
	return r.Close()
}
