package suiteconfig

import (
	"github.com/pgraph-tests/pgraph-harness/framework"
)

// Suite is the part of a test suite that configuration acts on.
type Suite interface {
	Name() string
	TestNames() []string
	DisableTests(names ...string)
}

// Apply narrows registry to the suites named in c, in registry order, and disables the
// configured tests in each. Suites named in c that are not registered are dropped with a
// diagnostic. If c selects nothing from the registry, the registry is returned unchanged.
func Apply[S Suite](c Config, registry []S, logger framework.Logger) []S {
	if logger == nil {
		logger = framework.NullLogger()
	}
	known := make(map[string]bool, len(registry))
	for _, s := range registry {
		known[s.Name()] = true
	}
	for _, e := range c.Entries {
		if !known[e.Suite] {
			logger.Printf("Ignoring unknown suite %q", e.Suite)
		}
	}

	var selected []S
	for _, s := range registry {
		e, ok := c.Lookup(s.Name())
		if !ok {
			continue
		}
		if len(e.Disabled) != 0 {
			s.DisableTests(e.Disabled...)
		}
		selected = append(selected, s)
	}
	if len(selected) == 0 {
		return append([]S(nil), registry...)
	}
	return selected
}

// LoadFirst tries each path in order and returns the first configuration that loads. Paths
// that are missing or malformed are reported to logger and skipped. If none load, the error
// wraps ErrNotFound.
func LoadFirst(logger framework.Logger, paths ...string) (Config, string, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		c, err := Load(p)
		if err == nil {
			return c, p, nil
		}
		logger.Printf("Ignoring config at %s: %s", p, err)
	}
	return Config{}, "", ErrNotFound
}
