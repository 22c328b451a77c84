package crashes

import (
	"io"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	yaml "gopkg.in/yaml.v3"

	"github.com/pgraph-tests/pgraph-harness/framework/progress"
)

// Record maps a suite name to the names of its tests suspected of crashing the process.
type Record map[string]map[string]struct{}

// Add marks suite::test as suspected.
func (r Record) Add(suite, test string) {
	tests, ok := r[suite]
	if !ok {
		tests = make(map[string]struct{})
		r[suite] = tests
	}
	tests[test] = struct{}{}
}

// Remove clears any suspicion of suite::test. Suites left with no tests are removed.
func (r Record) Remove(suite, test string) {
	tests, ok := r[suite]
	if !ok {
		return
	}
	delete(tests, test)
	if len(tests) == 0 {
		delete(r, suite)
	}
}

// Contains returns true if suite::test is suspected.
func (r Record) Contains(suite, test string) bool {
	_, ok := r[suite][test]
	return ok
}

// Len returns the total number of suspected tests.
func (r Record) Len() int {
	n := 0
	for _, tests := range r {
		n += len(tests)
	}
	return n
}

// Suites returns the suite names in sorted order.
func (r Record) Suites() []string {
	ret := maps.Keys(r)
	slices.Sort(ret)
	return ret
}

// Tests returns the suspected test names of suite in sorted order.
func (r Record) Tests(suite string) []string {
	ret := maps.Keys(r[suite])
	slices.Sort(ret)
	return ret
}

// Refs returns every suspected pair, ordered by suite then test.
func (r Record) Refs() []progress.TestRef {
	ret := make([]progress.TestRef, 0, r.Len())
	for _, suite := range r.Suites() {
		for _, test := range r.Tests(suite) {
			ret = append(ret, progress.TestRef{Suite: suite, Test: test})
		}
	}
	return ret
}

// WriteYAML writes the record as a mapping of suite name to a sorted list of test names.
func (r Record) WriteYAML(w io.Writer) error {
	out := make(map[string][]string, len(r))
	for _, suite := range r.Suites() {
		out[suite] = r.Tests(suite)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
