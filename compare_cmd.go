package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/pgraph-tests/pgraph-harness/framework/golden"
	"github.com/pgraph-tests/pgraph-harness/framework/harness"
)

// compareCmd implements subcommands.Command to compare saved frames with golden images.
type compareCmd struct {
	diffDir   string
	tolerance uint
	rescale   bool
	stdout    io.Writer
}

var _ = subcommands.Command(&compareCmd{})

func newCompareCmd(stdout io.Writer) *compareCmd {
	return &compareCmd{stdout: stdout}
}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "compare saved frames with golden images" }
func (*compareCmd) Usage() string {
	return `Usage: compare [flag]... <results dir> <golden dir>

Description:
    Compares every PNG under the results directory with the file at the same
    relative path under the golden directory.

Flag:
`
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.diffDir, "diff", "", "write diff images for mismatches to this directory")
	f.UintVar(&c.tolerance, "tolerance", 0, "maximum per-channel difference treated as equal")
	f.BoolVar(&c.rescale, "rescale", false, "scale results to the golden size instead of failing")
}

func (c *compareCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) != 2 || c.tolerance > 255 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	results, err := golden.CompareDirs(f.Arg(0), f.Arg(1), c.diffDir,
		golden.Options{Tolerance: uint8(c.tolerance), Rescale: c.rescale},
		harness.NewDiagnosticLogger(os.Stderr, true))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	status := subcommands.ExitSuccess
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(c.stdout, "ERROR     %s: %s\n", r.Path, r.Err)
		case r.MissingGolden:
			fmt.Fprintf(c.stdout, "MISSING   %s\n", r.Path)
		case !r.Match():
			fmt.Fprintf(c.stdout, "DIFFERENT %s (%d/%d pixels)\n", r.Path, r.DiffPixels, r.TotalPixels)
		default:
			fmt.Fprintf(c.stdout, "OK        %s\n", r.Path)
			continue
		}
		status = subcommands.ExitFailure
	}
	return status
}
