// Package pgtest contains the test runner used by the harness. It is similar in spirit to Go's
// testing package, but runs as ordinary application code on the device under test: suites are
// registered at startup, a Driver walks them in order, and each test receives a *T that gives
// it the render host and a place to report failures.
//
// A failing test never stops the run. A test that brings the whole process down is caught on
// the next run by replaying the progress log (see package crashes).
package pgtest
