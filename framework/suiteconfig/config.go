// Package suiteconfig reads and writes the human-editable file that selects which suites and
// tests a run includes.
//
// The format is line based:
//
//	# comment
//	SuiteName
//	-DisabledTestName
//	OtherSuite
//
// A suite line adds the suite to the run. A line starting with '-' disables the named test in
// the suite named most recently above it.
package suiteconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNotFound is wrapped by Load when the file cannot be opened. Callers treat it as "no
// configuration".
var ErrNotFound = errors.New("configuration file not found")

// Entry is one suite named by the configuration with the tests to disable in it.
type Entry struct {
	Suite    string
	Disabled []string
}

// Config is a parsed configuration. Entries are in order of first appearance; a suite named
// more than once has its disabled tests merged into one Entry.
type Config struct {
	Entries []Entry
}

// IsEmpty returns true if the configuration names no suites.
func (c Config) IsEmpty() bool {
	return len(c.Entries) == 0
}

// Lookup returns the entry for a suite.
func (c Config) Lookup(suite string) (Entry, bool) {
	for _, e := range c.Entries {
		if e.Suite == suite {
			return e, true
		}
	}
	return Entry{}, false
}

// ParseError describes a line that cannot be interpreted.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d (%q): %s", e.Line, e.Text, e.Reason)
}

// Parse reads a configuration. Blank lines and lines starting with '#' are ignored, as is
// surrounding whitespace. A '-' line before any suite line is a *ParseError.
func Parse(r io.Reader) (Config, error) {
	var c Config
	index := make(map[string]int)
	current := -1

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "-"):
			name := strings.TrimSpace(line[1:])
			if current < 0 {
				return Config{}, &ParseError{Line: lineNum, Text: raw, Reason: "disabled test has no suite"}
			}
			if name == "" {
				return Config{}, &ParseError{Line: lineNum, Text: raw, Reason: "missing test name"}
			}
			c.Entries[current].Disabled = append(c.Entries[current].Disabled, name)
		case strings.HasPrefix(line, "#"):
			continue
		default:
			i, ok := index[line]
			if !ok {
				i = len(c.Entries)
				index[line] = i
				c.Entries = append(c.Entries, Entry{Suite: line})
			}
			current = i
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("reading configuration: %w", err)
	}
	return c, nil
}

// Load parses the file at path. If the file cannot be opened the error wraps ErrNotFound.
func Load(path string) (Config, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrNotFound, err)
	}
	defer f.Close() //nolint:errcheck

	c, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
