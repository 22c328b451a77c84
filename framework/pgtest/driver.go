package pgtest

import (
	"errors"

	"code.cloudfoundry.org/clock"

	"github.com/pgraph-tests/pgraph-harness/framework/host"
)

type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Decision is the answer to "run this suspected crash?".
type Decision int

const (
	RunTest Decision = iota
	SkipTest
	AbortRun
)

// CrashDecider is consulted before each test suspected of crashing a previous run. It may
// block, for example to prompt an operator.
type CrashDecider func(id TestID) Decision

// AlwaysSkip is a CrashDecider for unattended runs.
func AlwaysSkip(TestID) Decision { return SkipTest }

// AlwaysRun is a CrashDecider that retries every suspected crash.
func AlwaysRun(TestID) Decision { return RunTest }

var (
	ErrAlreadyRun = errors.New("driver has already run")
	ErrNoHost     = errors.New("no host configured")
)

// DriverConfig contains options for the entire test run.
type DriverConfig struct {
	// Host is passed to every test through T.Host. Required.
	Host host.Host

	// OutputDir is the root directory for saved frames. Each suite saves into its own
	// subdirectory.
	OutputDir string

	// AllowSaving is reported to tests by T.AllowSaving and passed on to Host.FinishDraw.
	AllowSaving bool

	// InteractiveCrashAvoidance makes the Driver consult CrashDecider before running a test
	// suspected of crashing. When false, suspected tests run like any other.
	InteractiveCrashAvoidance bool

	// CrashDecider defaults to AlwaysSkip.
	CrashDecider CrashDecider

	// Filter is an optional function for determining which tests to run based on their names.
	Filter Filter

	// TestLogger receives status information about each test.
	TestLogger TestLogger

	// Clock measures test durations. Defaults to the real clock.
	Clock clock.Clock
}

// Driver runs an ordered list of suites once. Its state moves from StateNotStarted to
// StateRunning to StateFinished and never back.
type Driver struct {
	config DriverConfig
	suites []*Suite
	state  State
}

func NewDriver(config DriverConfig, suites []*Suite) *Driver {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	if config.CrashDecider == nil {
		config.CrashDecider = AlwaysSkip
	}
	if config.Clock == nil {
		config.Clock = clock.NewClock()
	}
	return &Driver{
		config: config,
		suites: append([]*Suite(nil), suites...),
	}
}

func (d *Driver) State() State {
	return d.state
}

// Run executes every enabled test of every suite in order. A failing test never stops the run;
// only an AbortRun decision does. The returned error is from TestLogger.EndLog, or
// ErrAlreadyRun/ErrNoHost if nothing was run.
func (d *Driver) Run() (Results, error) {
	if d.state != StateNotStarted {
		return Results{}, ErrAlreadyRun
	}
	if d.config.Host == nil {
		return Results{}, ErrNoHost
	}
	d.state = StateRunning
	defer func() { d.state = StateFinished }()

	logger := d.config.TestLogger
	env := &environment{
		host:        d.config.Host,
		outputDir:   d.config.OutputDir,
		allowSaving: d.config.AllowSaving,
		logger:      logger,
	}

	var results Results
	for _, s := range d.suites {
		if !d.runSuite(env, s, &results) {
			results.Aborted = true
			break
		}
	}
	return results, logger.EndLog(results)
}

func (d *Driver) runSuite(env *environment, s *Suite, results *Results) bool {
	logger := d.config.TestLogger
	filter := d.config.Filter
	skip := func(id TestID, reason string) {
		logger.TestSkipped(id, reason)
		results.add(TestResult{TestID: id, Skipped: true, SkipReason: reason})
	}

	if filter != nil && !filter.Match(TestID{Suite: s.Name()}) {
		return true
	}
	logger.SuiteStarted(s.Name())

	for _, name := range s.TestNames() {
		id := TestID{Suite: s.Name(), Test: name}
		if s.IsDisabled(name) {
			results.add(TestResult{TestID: id, Skipped: true, SkipReason: "disabled"})
			continue
		}
		if filter != nil && !filter.Match(id) {
			skip(id, "excluded by filter parameters")
			continue
		}
		if d.config.InteractiveCrashAvoidance && s.IsSuspectedCrash(name) {
			switch d.config.CrashDecider(id) {
			case RunTest:
			case AbortRun:
				return false
			default:
				skip(id, "suspected crash")
				continue
			}
		}

		logger.TestStarted(id)
		t := newT(env, id)
		start := d.config.Clock.Now()
		result := t.run(s.test(name))
		result.Duration = d.config.Clock.Since(start)
		logger.TestFinished(id, result, t.debugLogger.Output())
		results.add(result)
	}
	return true
}
