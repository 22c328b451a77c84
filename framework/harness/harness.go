// Package harness ties the pieces of a test run together: crash history, the progress log,
// suite configuration, the Driver, and the post-run report.
package harness

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"code.cloudfoundry.org/clock"
	"github.com/google/uuid"

	"github.com/pgraph-tests/pgraph-harness/framework"
	"github.com/pgraph-tests/pgraph-harness/framework/crashes"
	"github.com/pgraph-tests/pgraph-harness/framework/golden"
	"github.com/pgraph-tests/pgraph-harness/framework/host"
	"github.com/pgraph-tests/pgraph-harness/framework/pgtest"
	"github.com/pgraph-tests/pgraph-harness/framework/progress"
	"github.com/pgraph-tests/pgraph-harness/framework/suiteconfig"
)

const (
	configDumpFileName = "config.cnf"
	summaryFileName    = "summary.yaml"
)

// RunOptions contains everything a run needs besides its Settings.
type RunOptions struct {
	Settings Settings
	Host     host.Host

	// Registry is every known suite in run order.
	Registry []*pgtest.Suite

	// Filter narrows the run further after configuration is applied. Optional.
	Filter pgtest.Filter

	// TestLogger receives test events in addition to the progress log. Optional.
	TestLogger pgtest.TestLogger

	// CrashDecider is asked about tests suspected of crashing the previous run. Defaults to
	// pgtest.AlwaysSkip.
	CrashDecider pgtest.CrashDecider

	// DebugLogger receives diagnostics. Optional.
	DebugLogger framework.Logger

	// RunID identifies the run in the summary. A random one is generated if it is zero.
	RunID uuid.UUID

	Clock clock.Clock
}

// Outcome describes a completed run.
type Outcome struct {
	RunID      uuid.UUID
	OutputDir  string
	ConfigPath string
	Suites     []string
	Results    pgtest.Results

	// SuspectedCrashes is what the previous run's progress log implicated.
	SuspectedCrashes crashes.Record

	// Plan is what each selected suite was set up to run, in run order.
	Plan []SuitePlan

	// Golden is set if a golden comparison was run.
	Golden []golden.FileResult
}

// SuitePlan is a selected suite after configuration and crash history were applied.
type SuitePlan struct {
	Name    string
	Enabled []string
	// Suspected are the enabled or disabled tests of the suite that crashed a previous run.
	Suspected []string
}

// Run performs a whole test run:
//
//  1. analyze the previous progress log, if crash avoidance is on
//  2. start a fresh progress log carrying the suspected crashes forward
//  3. optionally dump the full configuration
//  4. apply the configuration file and mark suspected crashes
//  5. run the Driver
//  6. write the summary and optionally compare against golden images
//
// Problems with the configuration or the old log are logged and otherwise ignored.
func Run(opts RunOptions) (Outcome, error) {
	s := opts.Settings
	logger := opts.DebugLogger
	if logger == nil {
		logger = framework.NullLogger()
	}
	if opts.RunID == uuid.Nil {
		opts.RunID = uuid.New()
	}

	outcome := Outcome{
		RunID:            opts.RunID,
		OutputDir:        s.OutputDirectory(),
		SuspectedCrashes: make(crashes.Record),
	}
	if err := os.MkdirAll(outcome.OutputDir, 0o755); err != nil {
		return outcome, fmt.Errorf("cannot create output directory: %w", err)
	}

	var recorder *progress.Recorder
	if s.ProgressLog {
		logPath := s.LogFilePath()
		if s.InteractiveCrashAvoidance {
			record, err := crashes.AnalyzeFile(logPath, framework.LoggerWithPrefix(logger, "[crashes] "))
			switch {
			case err == nil:
				outcome.SuspectedCrashes = record
			case errors.Is(err, crashes.ErrNoHistory):
				logger.Printf("No previous progress log at %s", logPath)
			default:
				logger.Printf("Ignoring unreadable progress log: %s", err)
			}
		}
		if err := os.Remove(logPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Printf("Could not delete old progress log: %s", err)
		}
		if err := progress.Initialize(logPath, true); err != nil {
			return outcome, err
		}
		defer func() { _ = progress.Shutdown() }()
		recorder = progress.Default()
		recorder.HistoricalCrashes(outcome.SuspectedCrashes.Refs())
	}

	if s.DumpConfig {
		path := filepath.Join(outcome.OutputDir, configDumpFileName)
		logger.Printf("Writing config file to %s", path)
		if err := suiteconfig.WriteFile(path, opts.Registry); err != nil {
			logger.Printf("Could not write config file: %s", err)
		}
	}

	working := opts.Registry
	cfgLogger := framework.LoggerWithPrefix(logger, "[config] ")
	cfg, cfgPath, err := suiteconfig.LoadFirst(cfgLogger, s.RuntimeConfigPath, s.FallbackConfigPath)
	if err == nil {
		outcome.ConfigPath = cfgPath
		working = suiteconfig.Apply(cfg, opts.Registry, cfgLogger)
	}

	for _, suite := range working {
		if tests := outcome.SuspectedCrashes.Tests(suite.Name()); len(tests) != 0 {
			suite.SetSuspectedCrashes(tests...)
		}
		plan := SuitePlan{
			Name:      suite.Name(),
			Enabled:   suite.EnabledTestNames(),
			Suspected: suite.SuspectedCrashes(),
		}
		logger.Printf("Suite %s: %d of %d tests enabled", plan.Name, len(plan.Enabled), len(suite.TestNames()))
		outcome.Suites = append(outcome.Suites, suite.Name())
		outcome.Plan = append(outcome.Plan, plan)
	}

	testLogger := pgtest.MultiTestLogger{pgtest.ProgressTestLogger{Recorder: recorder}}
	if opts.TestLogger != nil {
		testLogger = append(testLogger, opts.TestLogger)
	}
	driver := pgtest.NewDriver(pgtest.DriverConfig{
		Host:                      opts.Host,
		OutputDir:                 outcome.OutputDir,
		AllowSaving:               s.AllowSaving,
		InteractiveCrashAvoidance: s.InteractiveCrashAvoidance && outcome.SuspectedCrashes.Len() != 0,
		CrashDecider:              opts.CrashDecider,
		Filter:                    opts.Filter,
		TestLogger:                testLogger,
		Clock:                     opts.Clock,
	}, working)
	outcome.Results, err = driver.Run()
	if err != nil {
		logger.Printf("Error writing test log: %s", err)
	}

	if s.GoldenDir != "" && s.AllowSaving {
		outcome.Golden, err = golden.CompareDirs(outcome.OutputDir, s.GoldenDir, outcome.OutputDir+"_diff",
			golden.Options{Tolerance: s.GoldenTolerance}, framework.LoggerWithPrefix(logger, "[golden] "))
		if err != nil {
			logger.Printf("Golden comparison failed: %s", err)
		}
	}

	if err := outcome.WriteSummaryFile(filepath.Join(outcome.OutputDir, summaryFileName)); err != nil {
		logger.Printf("Could not write summary: %s", err)
	}
	return outcome, nil
}

// Finish ends the run the way the device expects: either it requests a shutdown, or it tells the
// operator where the results are and waits RebootDelay before returning so that the message can
// be read.
func Finish(w io.Writer, s Settings, outputDir string, c clock.Clock, shutdown func() error) error {
	if c == nil {
		c = clock.NewClock()
	}
	if s.Shutdown && shutdown != nil {
		return shutdown()
	}
	fmt.Fprintf(w, "Results written to %s\n\nRebooting in %s...\n", outputDir, s.RebootDelay)
	c.Sleep(s.RebootDelay)
	return nil
}
