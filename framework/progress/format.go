package progress

import (
	"fmt"
	"strings"
	"time"
)

// Line prefixes of the progress log. The crash analyzer depends on these exact strings.
const (
	suitePrefix     = "Running suite "
	startPrefix     = "Starting "
	completedPrefix = "  Completed '"
	completedInfix  = "' in "
	crashPrefix     = "Crash? "
	idSeparator     = "::"

	historicalCrashesBegin = "<HistoricalCrashes>"
	historicalCrashesEnd   = "</HistoricalCrashes>"
)

// Kind identifies the type of a progress log line.
type Kind int

const (
	// Unknown is any line the log format does not define.
	Unknown Kind = iota
	SuiteStarted
	TestStarted
	TestCompleted
	SuspectedCrash
)

func (k Kind) String() string {
	switch k {
	case SuiteStarted:
		return "suite started"
	case TestStarted:
		return "test started"
	case TestCompleted:
		return "test completed"
	case SuspectedCrash:
		return "suspected crash"
	default:
		return "unknown"
	}
}

// TestRef names one test within one suite.
type TestRef struct {
	Suite string
	Test  string
}

func (r TestRef) String() string {
	return r.Suite + idSeparator + r.Test
}

// Entry is one parsed progress log line.
type Entry struct {
	Kind    Kind
	Suite   string
	Test    string
	Elapsed string
}

// Ref returns the suite/test pair of the entry.
func (e Entry) Ref() TestRef {
	return TestRef{Suite: e.Suite, Test: e.Test}
}

// ParseLine interprets a single log line. The second return value is false when the line is
// not one of the defined forms, including malformed variants of them; such lines carry no
// state.
func ParseLine(line string) (Entry, bool) {
	line = strings.TrimRight(line, "\r")
	switch {
	case strings.HasPrefix(line, crashPrefix):
		suite, test, ok := splitRef(line[len(crashPrefix):])
		if !ok {
			return Entry{}, false
		}
		return Entry{Kind: SuspectedCrash, Suite: suite, Test: test}, true

	case strings.HasPrefix(line, startPrefix):
		suite, test, ok := splitRef(line[len(startPrefix):])
		if !ok {
			return Entry{}, false
		}
		return Entry{Kind: TestStarted, Suite: suite, Test: test}, true

	case strings.HasPrefix(line, completedPrefix):
		rest := line[len(completedPrefix):]
		// Test names may themselves contain the infix, so split on the last one.
		i := strings.LastIndex(rest, completedInfix)
		if i < 0 {
			return Entry{}, false
		}
		return Entry{Kind: TestCompleted, Test: rest[:i], Elapsed: rest[i+len(completedInfix):]}, true

	case strings.HasPrefix(line, suitePrefix):
		name := line[len(suitePrefix):]
		if name == "" {
			return Entry{}, false
		}
		return Entry{Kind: SuiteStarted, Suite: name}, true
	}
	return Entry{}, false
}

func splitRef(s string) (string, string, bool) {
	suite, test, ok := strings.Cut(s, idSeparator)
	if !ok || suite == "" || test == "" {
		return "", "", false
	}
	return suite, test, true
}

func formatSuiteStarted(suite string) string {
	return suitePrefix + suite
}

func formatTestStarted(ref TestRef) string {
	return startPrefix + ref.String()
}

func formatTestCompleted(test string, elapsed time.Duration) string {
	return fmt.Sprintf("%s%s%s%dms", completedPrefix, test, completedInfix, elapsed.Milliseconds())
}

func formatSuspectedCrash(ref TestRef) string {
	return crashPrefix + ref.String()
}
