// Package framework contains the low-level implementation of the pgraph test harness that is
// independent of any particular GPU test. The base package contains shared types such as
// Logger; other components are in subpackages.
//
// The general model is:
//
// 1. A host (package host) owns the render context. Every test borrows it for the duration of
// one invocation; nothing else touches it.
//
// 2. Tests are grouped into named suites (package pgtest). A Driver runs the suites in order,
// catching per-test failures and reporting each test's start and completion.
//
// 3. Progress is written to an append-only log (package progress). If the process dies in the
// middle of a test, the next run reads that log back (package crashes) to find the test that
// never completed, so it can be skipped.
//
// 4. A hand-editable configuration file (package suiteconfig) selects which suites run and
// which of their tests are disabled.
//
// The domain-specific code that knows what is being rendered lives outside this package tree.
package framework
