package harness

import (
	"io"
	"regexp"

	"github.com/pgraph-tests/pgraph-harness/framework"
)

// Diagnostics that are only interesting when debugging the harness itself.
var chattyDiagnostics = []*regexp.Regexp{ //nolint:gochecknoglobals
	regexp.MustCompile(`Unprocessed log line`),
	regexp.MustCompile(`No previous progress log`),
}

type filteredWriter struct {
	writer       io.Writer
	excludeRegex []*regexp.Regexp
}

func newFilteredWriter(writer io.Writer, excludeRegex []*regexp.Regexp) *filteredWriter {
	return &filteredWriter{writer, excludeRegex}
}

// Write drops any write matching one of the exclusions. Each log.Logger message arrives in a
// single Write, so messages are filtered whole.
func (f *filteredWriter) Write(data []byte) (int, error) {
	for _, r := range f.excludeRegex {
		if r.Match(data) {
			return len(data), nil
		}
	}
	return f.writer.Write(data)
}

// NewDiagnosticLogger returns the Logger used for run diagnostics. Unless verbose is set, routine
// messages from crash analysis are suppressed.
func NewDiagnosticLogger(w io.Writer, verbose bool) framework.Logger {
	if verbose {
		return framework.NewWriterLogger(w, "")
	}
	return framework.NewWriterLogger(newFilteredWriter(w, chattyDiagnostics), "")
}
