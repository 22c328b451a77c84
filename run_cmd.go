package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"code.cloudfoundry.org/clock"
	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/pgraph-tests/pgraph-harness/framework/harness"
	"github.com/pgraph-tests/pgraph-harness/framework/host"
	"github.com/pgraph-tests/pgraph-harness/framework/pgtest"
	"github.com/pgraph-tests/pgraph-harness/suites"
)

// runCmd implements subcommands.Command to run the suites.
type runCmd struct {
	settingsPath   string
	filters        pgtest.RegexFilters
	skipFile       string
	recordFailures string
	debug          bool
	debugAll       bool
	jUnitFile      string
	noSave         bool
	unattended     bool

	stdin  io.Reader
	stdout io.Writer
	clock  clock.Clock
}

var _ = subcommands.Command(&runCmd{})

func newRunCmd(stdin io.Reader, stdout io.Writer) *runCmd {
	return &runCmd{stdin: stdin, stdout: stdout, clock: clock.NewClock()}
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run the test suites" }
func (*runCmd) Usage() string {
	return `Usage: run [flag]...

Description:
    Runs every enabled test of every selected suite and saves the rendered frames.

    Tests that crashed the previous run are found in its progress log. Unless
    -unattended is given, the operator is asked whether to run each of them again.

    Settings are read from the -settings file and from PGRAPH_* environment
    variables, e.g. PGRAPH_OUTPUT_ROOT=/mnt/results.

Flag:
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.settingsPath, "settings", "", "YAML settings file")
	f.Var(&r.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	f.Var(&r.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	f.StringVar(&r.skipFile, "skip-from", "", "file of test IDs to skip, one per line")
	f.StringVar(&r.recordFailures, "record-failures", "", "write the IDs of failed tests to this file")
	f.BoolVar(&r.debug, "debug", false, "enable debug logging for failed tests")
	f.BoolVar(&r.debugAll, "debug-all", false, "enable debug logging for all tests")
	f.StringVar(&r.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	f.BoolVar(&r.noSave, "nosave", false, "render without saving frames")
	f.BoolVar(&r.unattended, "unattended", false, "skip suspected crashes without asking")
}

func (r *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if len(f.Args()) != 0 {
		fmt.Fprint(os.Stderr, r.Usage())
		return subcommands.ExitUsageError
	}

	outcome, err := r.run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if !outcome.Results.OK() {
		return subcommands.ExitFailure
	}
	for _, g := range outcome.Golden {
		if !g.OK() {
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

func (r *runCmd) run() (harness.Outcome, error) {
	s, err := harness.LoadSettings(r.settingsPath)
	if err != nil {
		return harness.Outcome{}, err
	}
	if r.noSave {
		s.AllowSaving = false
	}
	if r.skipFile != "" {
		if err := loadSuppressions(r.skipFile, &r.filters); err != nil {
			return harness.Outcome{}, err
		}
	}
	if r.filters.IsDefined() {
		r.filters.Describe(r.stdout)
	}

	runID := uuid.New()
	var testLogger pgtest.TestLogger = pgtest.ConsoleTestLogger{
		DebugOutputOnFailure: r.debug || r.debugAll,
		DebugOutputOnSuccess: r.debugAll,
	}
	if r.jUnitFile != "" {
		testLogger = pgtest.MultiTestLogger{
			testLogger,
			pgtest.NewJUnitTestLogger(r.jUnitFile, runID, r.filters),
		}
	}

	var decider pgtest.CrashDecider = pgtest.AlwaysSkip
	if !r.unattended {
		decider = harness.PromptCrashDecider(r.stdin, r.stdout)
	}

	outcome, err := harness.Run(harness.RunOptions{
		Settings: s,
		Host:     host.NewSoftware(s.Framebuffer.Width, s.Framebuffer.Height),
		Registry: suites.Registry(suites.Params{
			TextureWidth:  s.Texture.Width,
			TextureHeight: s.Texture.Height,
		}),
		Filter:       r.filters,
		TestLogger:   testLogger,
		CrashDecider: decider,
		DebugLogger:  harness.NewDiagnosticLogger(r.stdout, r.debugAll),
		RunID:        runID,
		Clock:        r.clock,
	})
	if err != nil {
		return outcome, err
	}

	for _, g := range outcome.Golden {
		switch {
		case g.Err != nil:
			fmt.Fprintf(r.stdout, "Golden %s: %s\n", g.Path, g.Err)
		case g.MissingGolden:
			fmt.Fprintf(r.stdout, "Golden %s: no golden image\n", g.Path)
		case !g.Match():
			fmt.Fprintf(r.stdout, "Golden %s: %d of %d pixels differ\n", g.Path, g.DiffPixels, g.TotalPixels)
		}
	}

	if r.recordFailures != "" {
		if err := writeFailures(r.recordFailures, outcome.Results); err != nil {
			return outcome, err
		}
	}

	shutdown := func() error {
		fmt.Fprintln(r.stdout, "Shutting down")
		return nil
	}
	return outcome, harness.Finish(r.stdout, s, outcome.OutputDir, r.clock, shutdown)
}

func writeFailures(path string, results pgtest.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create suppression file: %w", err)
	}
	for _, test := range results.Failures {
		fmt.Fprintf(f, "%s/%s\n", test.TestID.Suite, test.TestID.Test)
	}
	return f.Close()
}

// loadSuppressions adds each non-blank "Suite/Test" line of path to filters as an exact
// exclusion.
func loadSuppressions(path string, filters *pgtest.RegexFilters) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %w", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := filters.MustNotMatch.Set(literalPattern(line)); err != nil {
			return fmt.Errorf("cannot parse suppression: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %w", err)
	}
	return nil
}

func literalPattern(id string) string {
	parts := strings.SplitN(id, "/", 2)
	for i, p := range parts {
		parts[i] = "^" + regexp.QuoteMeta(p) + "$"
	}
	return strings.Join(parts, "/")
}
