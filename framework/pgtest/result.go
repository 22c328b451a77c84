package pgtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/pgraph-tests/pgraph-harness/framework/progress"
)

// TestID identifies a test. A TestID with an empty Test names a whole suite.
type TestID struct {
	Suite string
	Test  string
}

func (t TestID) String() string {
	if t.Test == "" {
		return t.Suite
	}
	return t.Suite + "::" + t.Test
}

// Ref converts the ID to the form used in the progress log.
func (t TestID) Ref() progress.TestRef {
	return progress.TestRef{Suite: t.Suite, Test: t.Test}
}

func (t TestID) parts() []string {
	if t.Test == "" {
		if t.Suite == "" {
			return nil
		}
		return []string{t.Suite}
	}
	return []string{t.Suite, t.Test}
}

type TestResult struct {
	TestID     TestID
	Errors     []error
	Duration   time.Duration
	Skipped    bool
	SkipReason string
}

// Failed returns true if the test reported at least one error.
func (r TestResult) Failed() bool {
	return len(r.Errors) != 0
}

type Results struct {
	// Tests contains every test that was invoked, in execution order.
	Tests []TestResult
	// Failures is the subset of Tests that failed.
	Failures []TestResult
	// Skipped contains tests that were not invoked, or that skipped themselves.
	Skipped []TestResult
	// Aborted is true if the operator stopped the run before every suite finished.
	Aborted bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0 && !r.Aborted
}

// Err joins every test error into one, each wrapped in a TestFailure. It returns nil if no
// test failed.
func (r Results) Err() error {
	var errs []error
	for _, f := range r.Failures {
		for _, e := range f.Errors {
			errs = append(errs, TestFailure{ID: f.TestID, Err: e})
		}
	}
	return errors.Join(errs...)
}

func (r *Results) add(result TestResult) {
	if result.Skipped {
		r.Skipped = append(r.Skipped, result)
		return
	}
	r.Tests = append(r.Tests, result)
	if result.Failed() {
		r.Failures = append(r.Failures, result)
	}
}

type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

func (f TestFailure) Unwrap() error {
	return f.Err
}
