package pgtest

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// TestFunc is the body of a single test. Anything it needs beyond the *T should be captured
// when the test is registered.
type TestFunc func(t *T)

// Test pairs a test name with its body, for declarative suite construction.
type Test struct {
	Name string
	Fn   TestFunc
}

// Suite is a named, ordered collection of tests.
//
// The set of tests is fixed at registration. Before a run, tests may be disabled or marked as
// suspected crashes; neither changes TestNames. A Suite must not be modified while a Driver is
// running it.
type Suite struct {
	name      string
	order     []string
	tests     map[string]TestFunc
	disabled  map[string]struct{}
	suspected map[string]struct{}
}

// NewSuite creates a suite containing tests in the given order. It panics if two tests share a
// name.
func NewSuite(name string, tests ...Test) *Suite {
	s := &Suite{
		name:      name,
		tests:     make(map[string]TestFunc, len(tests)),
		disabled:  make(map[string]struct{}),
		suspected: make(map[string]struct{}),
	}
	for _, t := range tests {
		s.Add(t.Name, t.Fn)
	}
	return s
}

// Add appends a test. It panics if the name is empty, already registered, or fn is nil.
func (s *Suite) Add(name string, fn TestFunc) {
	if name == "" {
		panic(fmt.Sprintf("pgtest: empty test name in suite %q", s.name))
	}
	if fn == nil {
		panic(fmt.Sprintf("pgtest: nil test function for %s::%s", s.name, name))
	}
	if _, exists := s.tests[name]; exists {
		panic(fmt.Sprintf("pgtest: duplicate test %s::%s", s.name, name))
	}
	s.order = append(s.order, name)
	s.tests[name] = fn
}

// Name returns the suite's identifier. It is the key used by configuration files and crash
// records.
func (s *Suite) Name() string {
	return s.name
}

// TestNames returns every registered test name in declaration order, disabled ones included.
func (s *Suite) TestNames() []string {
	return slices.Clone(s.order)
}

// HasTest returns true if name is registered in the suite.
func (s *Suite) HasTest(name string) bool {
	_, ok := s.tests[name]
	return ok
}

// DisableTests prevents the named tests from running. Names that are not registered are
// ignored.
func (s *Suite) DisableTests(names ...string) {
	for _, n := range names {
		if s.HasTest(n) {
			s.disabled[n] = struct{}{}
		}
	}
}

// IsDisabled returns true if the named test has been disabled.
func (s *Suite) IsDisabled(name string) bool {
	_, ok := s.disabled[name]
	return ok
}

// EnabledTestNames returns the names of tests that are not disabled, in declaration order.
func (s *Suite) EnabledTestNames() []string {
	ret := make([]string, 0, len(s.order))
	for _, n := range s.order {
		if !s.IsDisabled(n) {
			ret = append(ret, n)
		}
	}
	return ret
}

// SetSuspectedCrashes replaces the set of tests believed to have crashed a previous run.
// Unregistered names are discarded. This does not disable anything; the Driver decides what
// to do with suspected tests.
func (s *Suite) SetSuspectedCrashes(names ...string) {
	s.suspected = make(map[string]struct{}, len(names))
	for _, n := range names {
		if s.HasTest(n) {
			s.suspected[n] = struct{}{}
		}
	}
}

// IsSuspectedCrash returns true if the named test is suspected of crashing a previous run.
func (s *Suite) IsSuspectedCrash(name string) bool {
	_, ok := s.suspected[name]
	return ok
}

// SuspectedCrashes returns the suspected test names in declaration order.
func (s *Suite) SuspectedCrashes() []string {
	var ret []string
	for _, n := range s.order {
		if s.IsSuspectedCrash(n) {
			ret = append(ret, n)
		}
	}
	return ret
}

// Run executes the suite on its own. Disabled tests and suspected crashes are skipped.
func (s *Suite) Run(config DriverConfig) Results {
	config.InteractiveCrashAvoidance = true
	config.CrashDecider = AlwaysSkip
	results, _ := NewDriver(config, []*Suite{s}).Run()
	return results
}

func (s *Suite) test(name string) TestFunc {
	return s.tests[name]
}
