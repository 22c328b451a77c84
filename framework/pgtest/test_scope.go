package pgtest

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/pgraph-tests/pgraph-harness/framework"
	"github.com/pgraph-tests/pgraph-harness/framework/host"
)

type environment struct {
	host        host.Host
	outputDir   string
	allowSaving bool
	logger      TestLogger
}

// T represents a test scope. It is very similar to Go's testing.T type.
//
// A T is handed to each test function by the Driver. It carries the Host the test draws with
// and the directory its frames are saved into.
type T struct {
	env         *environment
	id          TestID
	debugLogger framework.CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	cleanups    []func()
	errors      []error
	helperFns   []string
}

func newT(env *environment, id TestID) *T {
	return &T{env: env, id: id}
}

func (t *T) run(action TestFunc) (result TestResult) {
	result.TestID = t.id
	defer func() {
		if r := recover(); r != nil {
			if t.skipped {
				result.Skipped = true
				result.SkipReason = t.skipReason
			} else {
				t.recordPanic(r)
			}
		}
		t.runCleanups()
		if len(t.errors) != 0 {
			result.Skipped = false
			result.SkipReason = ""
		}
		result.Errors = t.errors
	}()

	action(t)
	return result
}

// recordPanic turns a value recovered from the test or one of its cleanups into a failure.
// FailNow panics with the T itself, which only needs a message if none was reported.
func (t *T) recordPanic(r interface{}) {
	t.failed = true
	var err error
	if _, ok := r.(*T); ok {
		if len(t.errors) != 0 {
			return
		}
		err = errors.New("test failed with no failure message")
	} else {
		err = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
	}
	t.errors = append(t.errors, err)
	t.env.logger.TestError(t.id, err)
}

// runCleanups calls the deferred functions in reverse order. Each one runs even if an earlier
// one panicked; a panic in a cleanup, including FailNow or Skip, fails the test.
func (t *T) runCleanups() {
	cleanups := t.cleanups
	t.cleanups = nil
	for i := len(cleanups) - 1; i >= 0; i-- {
		t.runCleanup(cleanups[i])
	}
}

func (t *T) runCleanup(fn func()) {
	wasSkipped := t.skipped
	defer func() {
		r := recover()
		switch {
		case r == nil:
		case r == t && t.skipped:
			if wasSkipped {
				return
			}
			t.failed = true
			err := errors.New("test skipped itself from a deferred function")
			t.errors = append(t.errors, err)
			t.env.logger.TestError(t.id, err)
		default:
			t.recordPanic(r)
		}
	}()
	fn()
}

// ID returns the full name of the current test.
func (t *T) ID() TestID {
	return t.id
}

// Host returns the rendering host for this run.
func (t *T) Host() host.Host {
	return t.env.host
}

// OutputDir returns the directory frames from this test's suite are saved into. Spaces in the
// suite name are replaced with underscores.
func (t *T) OutputDir() string {
	return suiteOutputDir(t.env.outputDir, t.id.Suite)
}

// AllowSaving returns false if frames should be rendered but not written out.
func (t *T) AllowSaving() bool {
	return t.env.allowSaving
}

// Framebuffer returns the width and height of the host's framebuffer.
func (t *T) Framebuffer() (int, int) {
	return t.env.host.FramebufferWidth(), t.env.host.FramebufferHeight()
}

// FinishDraw presents the current frame and, if saving is allowed, stores it as name in the
// suite's output directory. A save failure is reported as a test error but does not stop the
// test.
func (t *T) FinishDraw(name string) {
	t.Helper()
	if err := t.env.host.FinishDraw(t.AllowSaving(), t.OutputDir(), name); err != nil {
		t.Errorf("saving %q: %s", name, err)
	}
}

// Errorf reports a test failure. It is equivalent to Go's testing.T.Errorf. It does not cause the test
// to terminate, but adds the failure message to the output and marks the test as failed.
//
// You will rarely use this method directly; it is part of this type's implementation of the base
// interfaces testing.T and assert.TestingT, allowing it to be called from assertion helpers.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := fmt.Errorf(format, args...)

	stacktrace := getStacktrace(false, t.helperFns)
	err = transformError(err, stacktrace)

	t.errors = append(t.errors, err)
	t.env.logger.TestError(t.id, err)
}

// FailNow causes the test to immediately terminate and be marked as failed.
func (t *T) FailNow() {
	panic(t)
}

// Skip causes the test to immediately terminate and be marked as skipped.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is equivalent to Skip but provides a message.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Failed returns true if the test has reported an error so far.
func (t *T) Failed() bool {
	return t.failed
}

// Debug writes a message to the output for this test scope.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns a Logger instance for writing output for this test scope.
//
// The output that is captured for a test will be passed to TestLogger.TestFinished at the end of
// the test. The test runner can choose whether to display this or not based on command-line options.
func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}

// Defer schedules a cleanup function which is guaranteed to be called when this test scope
// exits for any reason. Unlike a Go defer statement, Defer can be used from within helper
// functions.
func (t *T) Defer(cleanupFn func()) {
	t.cleanups = append(t.cleanups, cleanupFn)
}

// Helper marks the function that calls it as a test helper that shouldn't appear in stacktraces.
// Equivalent to Go's testing.T.Helper().
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1) // 0 is Helper() itself, 1 is who called it
	if !ok {
		return
	}
	f := runtime.FuncForPC(pc)
	if f == nil {
		return
	}
	t.helperFns = append(t.helperFns, f.Name())
}

func suiteOutputDir(root, suite string) string {
	return filepath.Join(root, strings.ReplaceAll(suite, " ", "_"))
}
