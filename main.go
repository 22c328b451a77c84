// Package main implements pgraph-harness, which runs the PGRAPH rendering suites and keeps a
// progress log that lets the next run avoid tests that crashed this one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// Version is the version info of this command. It is filled in by the release build.
var Version = "<unknown>"

// doMain implements the main body of the program. It's a separate function so
// that its deferred functions will run before os.Exit makes the program exit
// immediately.
func doMain() int {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(newRunCmd(os.Stdin, os.Stdout), "")
	subcommands.Register(newListCmd(os.Stdout), "")
	subcommands.Register(newDumpConfigCmd(os.Stdout), "")
	subcommands.Register(newCrashesCmd(os.Stdout), "tools")
	subcommands.Register(newCompareCmd(os.Stdout), "tools")

	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("pgraph-harness version %s\n", Version)
		return 0
	}
	return int(subcommands.Execute(context.Background()))
}

func main() {
	os.Exit(doMain())
}
