// Package suites contains the pgraph test suites and the registry that orders them.
package suites
