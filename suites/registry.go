package suites

import (
	"github.com/pgraph-tests/pgraph-harness/framework/pgtest"
)

// Params are values fixed for a whole run that suites capture when they are built.
type Params struct {
	TextureWidth  int
	TextureHeight int
}

// DefaultParams matches the default harness settings.
func DefaultParams() Params {
	return Params{TextureWidth: 256, TextureHeight: 256}
}

// Registry returns every suite in the order they run. Suite names are unique.
func Registry(p Params) []*pgtest.Suite {
	return []*pgtest.Suite{
		NewWindowClipSuite(p),
		NewDepthFormatSuite(p),
	}
}
