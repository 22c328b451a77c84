// Package internal contains test helpers for pgtest.
package internal

// RunAction is used only in unit tests, but exported because it has to be in a separate package
// for stacktrace filtering to see it as foreign code.
func RunAction(action func()) {
	action()
}
