package pgtest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/pgraph-tests/pgraph-harness/framework"
	"github.com/pgraph-tests/pgraph-harness/framework/progress"
)

var consoleSuiteColor = color.New(color.Bold)                      //nolint:gochecknoglobals
var consoleTestErrorColor = color.New(color.FgYellow)              //nolint:gochecknoglobals
var consoleTestFailedColor = color.New(color.FgRed)                //nolint:gochecknoglobals
var consoleTestSkippedColor = color.New(color.Faint, color.FgBlue) //nolint:gochecknoglobals
var consoleDebugOutputColor = color.New(color.Faint)               //nolint:gochecknoglobals
var allTestsPassedColor = color.New(color.FgGreen)                 //nolint:gochecknoglobals

// TestLogger receives status information from the Driver.
//
// Every TestStarted is followed by exactly one TestFinished, even if the test skipped itself.
// TestSkipped is only called for tests that were never started.
type TestLogger interface {
	SuiteStarted(suite string)
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput)
	TestSkipped(id TestID, reason string)
	EndLog(results Results) error
}

type nullTestLogger struct{}

func (n nullTestLogger) SuiteStarted(string)                                       {}
func (n nullTestLogger) TestStarted(TestID)                                        {}
func (n nullTestLogger) TestError(TestID, error)                                   {}
func (n nullTestLogger) TestFinished(TestID, TestResult, framework.CapturedOutput) {}
func (n nullTestLogger) TestSkipped(TestID, string)                                {}
func (n nullTestLogger) EndLog(Results) error                                      { return nil }

// ConsoleTestLogger is the textual progress overlay.
type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c ConsoleTestLogger) SuiteStarted(suite string) {
	_, _ = consoleSuiteColor.Printf("Running suite %s\n", suite)
}

func (c ConsoleTestLogger) TestStarted(id TestID) {
	fmt.Printf("[%s]\n", id)
}

func (c ConsoleTestLogger) TestError(id TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		_, _ = consoleTestErrorColor.Printf("  %s\n", line)
	}
}

func (c ConsoleTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	failed := result.Failed()
	switch {
	case failed:
		_, _ = consoleTestFailedColor.Printf("  FAILED: %s\n", id)
	case result.Skipped:
		c.TestSkipped(id, result.SkipReason)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		_, _ = consoleDebugOutputColor.Println(debugOutput.ToString("    DEBUG "))
	}
}

func (c ConsoleTestLogger) TestSkipped(id TestID, reason string) {
	if reason == "" {
		_, _ = consoleTestSkippedColor.Printf("  SKIPPED: %s\n", id)
	} else {
		_, _ = consoleTestSkippedColor.Printf("  SKIPPED: %s (%s)\n", id, reason)
	}
}

func (c ConsoleTestLogger) EndLog(results Results) error {
	PrintResults(results)
	return nil
}

// ProgressTestLogger writes the crash-detection progress log. Completion lines carry the
// duration measured by the Driver.
type ProgressTestLogger struct {
	Recorder *progress.Recorder
}

func (p ProgressTestLogger) SuiteStarted(suite string) {
	p.Recorder.SuiteStarted(suite)
}

func (p ProgressTestLogger) TestStarted(id TestID) {
	p.Recorder.TestStarted(id.Ref())
}

func (p ProgressTestLogger) TestError(TestID, error) {}

func (p ProgressTestLogger) TestFinished(id TestID, result TestResult, _ framework.CapturedOutput) {
	p.Recorder.TestCompleted(id.Test, result.Duration)
}

func (p ProgressTestLogger) TestSkipped(TestID, string) {}

func (p ProgressTestLogger) EndLog(Results) error {
	return p.Recorder.Err()
}

// MultiTestLogger forwards every event to each logger in order.
type MultiTestLogger []TestLogger

func (m MultiTestLogger) SuiteStarted(suite string) {
	for _, l := range m {
		l.SuiteStarted(suite)
	}
}

func (m MultiTestLogger) TestStarted(id TestID) {
	for _, l := range m {
		l.TestStarted(id)
	}
}

func (m MultiTestLogger) TestError(id TestID, err error) {
	for _, l := range m {
		l.TestError(id, err)
	}
}

func (m MultiTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	for _, l := range m {
		l.TestFinished(id, result, debugOutput)
	}
}

func (m MultiTestLogger) TestSkipped(id TestID, reason string) {
	for _, l := range m {
		l.TestSkipped(id, reason)
	}
}

func (m MultiTestLogger) EndLog(results Results) error {
	var errs []error
	for _, l := range m {
		if err := l.EndLog(results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func PrintResults(results Results) {
	FprintResults(os.Stdout, os.Stderr, results)
}

// FprintResults is PrintResults with explicit destinations.
func FprintResults(out, errOut io.Writer, results Results) {
	if len(results.Skipped) != 0 {
		_, _ = consoleTestSkippedColor.Fprintf(out, "Skipped %d test(s)\n", len(results.Skipped))
	}
	if results.Aborted {
		_, _ = consoleTestFailedColor.Fprintln(errOut, "Run aborted by operator")
	}
	if results.OK() {
		_, _ = allTestsPassedColor.Fprintf(out, "All tests passed (%d)\n", len(results.Tests))
		return
	}
	if len(results.Failures) != 0 {
		_, _ = consoleTestFailedColor.Fprintf(errOut, "FAILED TESTS (%d):\n", len(results.Failures))
		for _, f := range results.Failures {
			_, _ = consoleTestFailedColor.Fprintf(errOut, "  * %s\n", f.TestID)
		}
	}
}

func totalDuration(results []TestResult) time.Duration {
	var d time.Duration
	for _, r := range results {
		d += r.Duration
	}
	return d
}
