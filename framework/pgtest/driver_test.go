package pgtest

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgraph-tests/pgraph-harness/framework"
	"github.com/pgraph-tests/pgraph-harness/framework/host"
	"github.com/pgraph-tests/pgraph-harness/framework/progress"
)

type spyTestLogger struct {
	events []string
	output []framework.CapturedOutput
	endErr error
}

func (s *spyTestLogger) SuiteStarted(suite string) {
	s.events = append(s.events, "suite "+suite)
}

func (s *spyTestLogger) TestStarted(id TestID) {
	s.events = append(s.events, "start "+id.String())
}

func (s *spyTestLogger) TestError(id TestID, err error) {
	s.events = append(s.events, "error "+id.String())
}

func (s *spyTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	s.events = append(s.events, "finish "+id.String())
	s.output = append(s.output, debugOutput)
}

func (s *spyTestLogger) TestSkipped(id TestID, reason string) {
	s.events = append(s.events, fmt.Sprintf("skip %s (%s)", id, reason))
}

func (s *spyTestLogger) EndLog(Results) error {
	s.events = append(s.events, "end")
	return s.endErr
}

func recordingSuite(name string, invoked *[]string, tests ...string) *Suite {
	s := NewSuite(name)
	for _, tn := range tests {
		id := name + "::" + tn
		s.Add(tn, func(*T) { *invoked = append(*invoked, id) })
	}
	return s
}

func TestDriverRunsSuitesAndTestsInOrder(t *testing.T) {
	var invoked []string
	spy := &spyTestLogger{}
	d := NewDriver(DriverConfig{Host: host.NewRecorder(640, 480), TestLogger: spy}, []*Suite{
		recordingSuite("A", &invoked, "t1", "t2"),
		recordingSuite("B", &invoked, "t1"),
	})
	assert.Equal(t, StateNotStarted, d.State())

	results, err := d.Run()
	require.NoError(t, err)
	assert.Equal(t, StateFinished, d.State())
	assert.True(t, results.OK())
	assert.Equal(t, []string{"A::t1", "A::t2", "B::t1"}, invoked)
	assert.Equal(t, []string{
		"suite A",
		"start A::t1", "finish A::t1",
		"start A::t2", "finish A::t2",
		"suite B",
		"start B::t1", "finish B::t1",
		"end",
	}, spy.events)
}

func TestDriverStateIsRunningDuringTests(t *testing.T) {
	var d *Driver
	var seen State
	d = NewDriver(DriverConfig{Host: host.NewRecorder(1, 1)}, []*Suite{
		NewSuite("A", Test{"t", func(*T) { seen = d.State() }}),
	})
	_, err := d.Run()
	require.NoError(t, err)
	assert.Equal(t, StateRunning, seen)
}

func TestDriverCannotRunTwice(t *testing.T) {
	d := NewDriver(DriverConfig{Host: host.NewRecorder(1, 1)}, nil)
	_, err := d.Run()
	require.NoError(t, err)
	_, err = d.Run()
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestDriverRequiresHost(t *testing.T) {
	d := NewDriver(DriverConfig{}, nil)
	_, err := d.Run()
	assert.ErrorIs(t, err, ErrNoHost)
	assert.Equal(t, StateNotStarted, d.State())
}

func TestDriverContinuesAfterFailure(t *testing.T) {
	var invoked []string
	s := NewSuite("A",
		Test{"t1", func(pt *T) { invoked = append(invoked, "t1"); pt.Errorf("bad") }},
		Test{"t2", func(pt *T) { invoked = append(invoked, "t2"); panic(errors.New("worse")) }},
		Test{"t3", func(pt *T) { invoked = append(invoked, "t3") }},
	)
	results, err := NewDriver(DriverConfig{Host: host.NewRecorder(1, 1)}, []*Suite{s}).Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2", "t3"}, invoked)
	assert.Len(t, results.Tests, 3)
	m.In(t).Assert(results.Failures, m.ItemsInAnyOrder(
		resultTestName().Should(m.Equal("t1")),
		resultTestName().Should(m.Equal("t2")),
	))
}

func resultTestName() m.MatcherTransform {
	return m.Transform("test name", func(value interface{}) (interface{}, error) {
		return value.(TestResult).TestID.Test, nil
	}).EnsureInputValueType(TestResult{})
}

func TestDriverNeverInvokesDisabledTests(t *testing.T) {
	var invoked []string
	s := recordingSuite("A", &invoked, "t1", "t2", "t3")
	s.DisableTests("t2", "unknown")
	spy := &spyTestLogger{}
	results, err := NewDriver(DriverConfig{Host: host.NewRecorder(1, 1), TestLogger: spy}, []*Suite{s}).Run()
	require.NoError(t, err)

	assert.Equal(t, []string{"A::t1", "A::t3"}, invoked)
	assert.Equal(t, []string{"t1", "t2", "t3"}, s.TestNames())
	assert.NotContains(t, spy.events, "start A::t2")
	require.Len(t, results.Skipped, 1)
	assert.Equal(t, "disabled", results.Skipped[0].SkipReason)
}

func TestDriverSuspectedCrashDecisions(t *testing.T) {
	for _, p := range []struct {
		name        string
		interactive bool
		decision    Decision
		invoked     []string
		asked       bool
		aborted     bool
	}{
		{"not interactive", false, SkipTest, []string{"A::t1", "A::t2", "B::t1"}, false, false},
		{"skip", true, SkipTest, []string{"A::t1", "B::t1"}, true, false},
		{"run", true, RunTest, []string{"A::t1", "A::t2", "B::t1"}, true, false},
		{"abort", true, AbortRun, []string{"A::t1"}, true, true},
	} {
		t.Run(p.name, func(t *testing.T) {
			var invoked []string
			a := recordingSuite("A", &invoked, "t1", "t2")
			a.SetSuspectedCrashes("t2")
			b := recordingSuite("B", &invoked, "t1")
			asked := false
			results, err := NewDriver(DriverConfig{
				Host:                      host.NewRecorder(1, 1),
				InteractiveCrashAvoidance: p.interactive,
				CrashDecider: func(id TestID) Decision {
					assert.Equal(t, TestID{Suite: "A", Test: "t2"}, id)
					asked = true
					return p.decision
				},
			}, []*Suite{a, b}).Run()
			require.NoError(t, err)
			assert.Equal(t, p.invoked, invoked)
			assert.Equal(t, p.asked, asked)
			assert.Equal(t, p.aborted, results.Aborted)
			assert.Equal(t, !p.aborted, results.OK())
		})
	}
}

func TestDriverFilter(t *testing.T) {
	var invoked []string
	var filters RegexFilters
	require.NoError(t, filters.MustMatch.Set("B"))
	require.NoError(t, filters.MustNotMatch.Set("B/t2"))
	spy := &spyTestLogger{}
	_, err := NewDriver(DriverConfig{Host: host.NewRecorder(1, 1), Filter: filters, TestLogger: spy}, []*Suite{
		recordingSuite("A", &invoked, "t1"),
		recordingSuite("B", &invoked, "t1", "t2"),
	}).Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"B::t1"}, invoked)
	assert.NotContains(t, spy.events, "suite A")
	assert.Contains(t, spy.events, "skip B::t2 (excluded by filter parameters)")
}

func TestDriverReturnsEndLogError(t *testing.T) {
	spy := &spyTestLogger{endErr: errors.New("write failed")}
	_, err := NewDriver(DriverConfig{Host: host.NewRecorder(1, 1), TestLogger: spy}, nil).Run()
	assert.EqualError(t, err, "write failed")
}

func TestDriverWritesProgressLog(t *testing.T) {
	clock := fakeclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var buf bytes.Buffer
	rec := progress.NewRecorder(&buf)
	s := NewSuite("Depth format",
		Test{"Z24S8", func(*T) { clock.Increment(12 * time.Millisecond) }},
		Test{"Z16", func(pt *T) { clock.Increment(3 * time.Millisecond); pt.SkipWithReason("n/a") }},
	)
	_, err := NewDriver(DriverConfig{
		Host:       host.NewRecorder(1, 1),
		TestLogger: ProgressTestLogger{Recorder: rec},
		Clock:      clock,
	}, []*Suite{s}).Run()
	require.NoError(t, err)

	assert.Equal(t, "Running suite Depth format\n"+
		"Starting Depth format::Z24S8\n"+
		"  Completed 'Z24S8' in 12ms\n"+
		"Starting Depth format::Z16\n"+
		"  Completed 'Z16' in 3ms\n", buf.String())
}

func TestSuiteRunSkipsSuspectedCrashes(t *testing.T) {
	var invoked []string
	s := recordingSuite("A", &invoked, "t1", "t2", "t3")
	s.DisableTests("t1")
	s.SetSuspectedCrashes("t3")
	results := s.Run(DriverConfig{Host: host.NewRecorder(1, 1)})
	assert.Equal(t, []string{"A::t2"}, invoked)
	assert.Len(t, results.Skipped, 2)
}

func TestMultiTestLoggerForwardsToAll(t *testing.T) {
	spy1, spy2 := &spyTestLogger{}, &spyTestLogger{endErr: errors.New("x")}
	_, err := NewDriver(DriverConfig{Host: host.NewRecorder(1, 1), TestLogger: MultiTestLogger{spy1, spy2}},
		[]*Suite{NewSuite("A", Test{"t", func(*T) {}})}).Run()
	assert.EqualError(t, err, "x")
	assert.Equal(t, spy1.events, spy2.events)
	assert.Equal(t, []string{"suite A", "start A::t", "finish A::t", "end"}, spy1.events)
}

func TestDriverContinuesAfterPanickingCleanup(t *testing.T) {
	var ran []string
	clock := fakeclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	var buf bytes.Buffer
	s := NewSuite("A",
		Test{"t1", func(pt *T) {
			pt.Defer(func() { ran = append(ran, "cleanup 1") })
			pt.Defer(func() { panic("cleanup boom") })
		}},
		Test{"t2", func(*T) { ran = append(ran, "t2") }},
	)
	results, err := NewDriver(DriverConfig{
		Host:       host.NewRecorder(1, 1),
		TestLogger: ProgressTestLogger{Recorder: progress.NewRecorder(&buf)},
		Clock:      clock,
	}, []*Suite{s}).Run()
	require.NoError(t, err)

	assert.Equal(t, []string{"cleanup 1", "t2"}, ran)
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "t1", results.Failures[0].TestID.Test)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "unexpected panic in test: cleanup boom")
	assert.Contains(t, buf.String(), "  Completed 't1' in 0ms\n")
}
