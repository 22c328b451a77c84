package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/pgraph-tests/pgraph-harness/framework/harness"
	"github.com/pgraph-tests/pgraph-harness/framework/pgtest"
	"github.com/pgraph-tests/pgraph-harness/suites"
)

// listCmd implements subcommands.Command to support listing tests.
type listCmd struct {
	settingsPath string
	filters      pgtest.RegexFilters
	stdout       io.Writer
}

var _ = subcommands.Command(&listCmd{})

func newListCmd(stdout io.Writer) *listCmd {
	return &listCmd{stdout: stdout}
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list tests" }
func (*listCmd) Usage() string {
	return `Usage: list [flag]...

Description:
    Prints the ID of every registered test matching the filters, one per line.

Flag:
`
}

func (lc *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&lc.settingsPath, "settings", "", "YAML settings file")
	f.Var(&lc.filters.MustMatch, "run", "regex pattern(s) to select tests to list")
	f.Var(&lc.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to list")
}

func (lc *listCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) != 0 {
		fmt.Fprint(os.Stderr, lc.Usage())
		return subcommands.ExitUsageError
	}
	registry, err := loadRegistry(lc.settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, s := range registry {
		for _, name := range s.TestNames() {
			id := pgtest.TestID{Suite: s.Name(), Test: name}
			if lc.filters.Match(id) {
				fmt.Fprintln(lc.stdout, id)
			}
		}
	}
	return subcommands.ExitSuccess
}

// loadRegistry builds the suites with the texture size from the settings.
func loadRegistry(settingsPath string) ([]*pgtest.Suite, error) {
	s, err := harness.LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	return suites.Registry(suites.Params{TextureWidth: s.Texture.Width, TextureHeight: s.Texture.Height}), nil
}
