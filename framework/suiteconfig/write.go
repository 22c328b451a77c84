package suiteconfig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Enumerable is a suite whose tests can be listed.
type Enumerable interface {
	Name() string
	TestNames() []string
}

const separator = "#-------------------"

var header = []string{ //nolint:gochecknoglobals
	"# pgraph test suite configuration",
	"# Lines starting with '#' are ignored.",
	"# To enable a test suite, add its name on a single line with no leading #. E.g.,",
	"# Window clip",
	"# To disable a single test within a suite, add the name of the test prefixed with",
	"#  a '-' after the uncommented suite. E.g.,",
	"# -E_x0y0_w0h0-x0y0_w0h0",
}

// Write emits a configuration that enables every suite and lists each test, commented out,
// so that it can be edited and read back with Parse.
func Write[S Enumerable](w io.Writer, suites []S) error {
	bw := bufio.NewWriter(w)
	for _, line := range header {
		fmt.Fprintln(bw, line)
	}
	fmt.Fprintln(bw)
	for _, s := range suites {
		fmt.Fprintln(bw, s.Name())
		for _, name := range s.TestNames() {
			fmt.Fprintln(bw, "# "+name)
		}
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, separator)
	}
	return bw.Flush()
}

// WriteFile writes the configuration to path, creating its directory if necessary.
func WriteFile[S Enumerable](path string, suites []S) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return err
	}
	if err := Write(f, suites); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
