package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/pgraph-tests/pgraph-harness/framework/crashes"
	"github.com/pgraph-tests/pgraph-harness/framework/harness"
)

// crashesCmd implements subcommands.Command to report the suspected crashes in a progress log.
type crashesCmd struct {
	verbose bool
	stdout  io.Writer
}

var _ = subcommands.Command(&crashesCmd{})

func newCrashesCmd(stdout io.Writer) *crashesCmd {
	return &crashesCmd{stdout: stdout}
}

func (*crashesCmd) Name() string     { return "crashes" }
func (*crashesCmd) Synopsis() string { return "list tests suspected of crashing" }
func (*crashesCmd) Usage() string {
	return `Usage: crashes [flag]... <progress log>

Description:
    Replays a progress log and prints the tests that started but never
    completed, as YAML keyed by suite.

Flag:
`
}

func (c *crashesCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.verbose, "verbose", false, "report unrecognized log lines")
}

func (c *crashesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	record, err := crashes.AnalyzeFile(f.Arg(0), harness.NewDiagnosticLogger(os.Stderr, c.verbose))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := record.WriteYAML(c.stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
