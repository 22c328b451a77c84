package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/pgraph-tests/pgraph-harness/framework/suiteconfig"
)

// dumpConfigCmd implements subcommands.Command to write a config file enumerating every test.
type dumpConfigCmd struct {
	settingsPath string
	stdout       io.Writer
}

var _ = subcommands.Command(&dumpConfigCmd{})

func newDumpConfigCmd(stdout io.Writer) *dumpConfigCmd {
	return &dumpConfigCmd{stdout: stdout}
}

func (*dumpConfigCmd) Name() string     { return "dumpconfig" }
func (*dumpConfigCmd) Synopsis() string { return "write a config file listing every test" }
func (*dumpConfigCmd) Usage() string {
	return `Usage: dumpconfig [flag]... [file]

Description:
    Writes a suite configuration that selects every suite, with each test listed
    in a comment. Writes to stdout if no file is given.

Flag:
`
}

func (d *dumpConfigCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&d.settingsPath, "settings", "", "YAML settings file")
}

func (d *dumpConfigCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) > 1 {
		fmt.Fprint(os.Stderr, d.Usage())
		return subcommands.ExitUsageError
	}
	registry, err := loadRegistry(d.settingsPath)
	if err == nil {
		if len(f.Args()) == 1 {
			err = suiteconfig.WriteFile(f.Arg(0), registry)
		} else {
			err = suiteconfig.Write(d.stdout, registry)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
