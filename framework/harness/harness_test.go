package harness

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"

	"github.com/pgraph-tests/pgraph-harness/framework/crashes"
	"github.com/pgraph-tests/pgraph-harness/framework/golden"
	"github.com/pgraph-tests/pgraph-harness/framework/host"
	"github.com/pgraph-tests/pgraph-harness/framework/pgtest"
)

type runFixture struct {
	settings Settings
	invoked  []string
}

func newRunFixture(t *testing.T) *runFixture {
	s := DefaultSettings()
	s.OutputRoot = t.TempDir()
	s.FallbackConfigPath = ""
	return &runFixture{settings: s}
}

func (f *runFixture) registry() []*pgtest.Suite {
	mk := func(suite string, tests ...string) *pgtest.Suite {
		s := pgtest.NewSuite(suite)
		for _, name := range tests {
			id := suite + "::" + name
			s.Add(name, func(t *pgtest.T) {
				f.invoked = append(f.invoked, id)
				t.FinishDraw(t.ID().Test)
			})
		}
		return s
	}
	return []*pgtest.Suite{mk("A", "t1", "t2"), mk("B", "t1")}
}

func (f *runFixture) run(t *testing.T, decider pgtest.CrashDecider) Outcome {
	t.Helper()
	f.invoked = nil
	outcome, err := Run(RunOptions{
		Settings:     f.settings,
		Host:         host.NewRecorder(640, 480),
		Registry:     f.registry(),
		CrashDecider: decider,
		Clock:        fakeclock.NewFakeClock(time.Unix(0, 0)),
	})
	require.NoError(t, err)
	return outcome
}

func (f *runFixture) readLog(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.settings.LogFilePath())
	require.NoError(t, err)
	return string(data)
}

func TestRunWritesProgressLog(t *testing.T) {
	f := newRunFixture(t)
	outcome := f.run(t, nil)

	assert.True(t, outcome.Results.OK())
	assert.Equal(t, []string{"A", "B"}, outcome.Suites)
	assert.Equal(t, []string{"A::t1", "A::t2", "B::t1"}, f.invoked)
	assert.Equal(t, filepath.Join(f.settings.OutputRoot, "nxdk_pgraph_tests"), outcome.OutputDir)
	assert.Equal(t, "Running suite A\n"+
		"Starting A::t1\n  Completed 't1' in 0ms\n"+
		"Starting A::t2\n  Completed 't2' in 0ms\n"+
		"Running suite B\n"+
		"Starting B::t1\n  Completed 't1' in 0ms\n", f.readLog(t))
}

func TestRunCarriesSuspectedCrashForward(t *testing.T) {
	f := newRunFixture(t)
	require.NoError(t, os.MkdirAll(f.settings.OutputDirectory(), 0o755))
	require.NoError(t, os.WriteFile(f.settings.LogFilePath(),
		[]byte("Running suite A\nStarting A::t1\n  Completed 't1' in 3ms\nStarting A::t2\n"), 0o600))

	outcome := f.run(t, pgtest.AlwaysSkip)
	assert.Equal(t, crashes.Record{"A": {"t2": {}}}, outcome.SuspectedCrashes)
	assert.Equal(t, []string{"A::t1", "B::t1"}, f.invoked)
	assert.Equal(t, []SuitePlan{
		{Name: "A", Enabled: []string{"t1", "t2"}, Suspected: []string{"t2"}},
		{Name: "B", Enabled: []string{"t1"}},
	}, outcome.Plan)
	assert.True(t, strings.HasPrefix(f.readLog(t), "<HistoricalCrashes>\nCrash? A::t2\n</HistoricalCrashes>\n"))

	// t2 never got to complete, so it is still suspected after another restart.
	outcome = f.run(t, pgtest.AlwaysRun)
	assert.Equal(t, crashes.Record{"A": {"t2": {}}}, outcome.SuspectedCrashes)
	assert.Equal(t, []string{"A::t1", "A::t2", "B::t1"}, f.invoked)

	// Once it completes, it is cleared.
	outcome = f.run(t, pgtest.AlwaysSkip)
	assert.Equal(t, crashes.Record{}, outcome.SuspectedCrashes)
	assert.Len(t, f.invoked, 3)
}

func TestRunWithoutCrashAvoidanceIgnoresHistory(t *testing.T) {
	f := newRunFixture(t)
	f.settings.InteractiveCrashAvoidance = false
	require.NoError(t, os.MkdirAll(f.settings.OutputDirectory(), 0o755))
	require.NoError(t, os.WriteFile(f.settings.LogFilePath(), []byte("Starting A::t2\n"), 0o600))

	outcome := f.run(t, pgtest.AlwaysSkip)
	assert.Equal(t, 0, outcome.SuspectedCrashes.Len())
	assert.Len(t, f.invoked, 3)
	assert.NotContains(t, f.readLog(t), "HistoricalCrashes")
}

func TestRunAppliesConfigurationWithFallback(t *testing.T) {
	f := newRunFixture(t)
	dir := t.TempDir()
	f.settings.RuntimeConfigPath = filepath.Join(dir, "missing.cnf")
	f.settings.FallbackConfigPath = filepath.Join(dir, "bundled.cnf")
	require.NoError(t, os.WriteFile(f.settings.FallbackConfigPath, []byte("B\nA\n-t1\n"), 0o600))

	outcome := f.run(t, nil)
	assert.Equal(t, f.settings.FallbackConfigPath, outcome.ConfigPath)
	assert.Equal(t, []string{"A", "B"}, outcome.Suites)
	assert.Equal(t, []string{"A::t2", "B::t1"}, f.invoked)
	assert.Equal(t, []SuitePlan{
		{Name: "A", Enabled: []string{"t2"}},
		{Name: "B", Enabled: []string{"t1"}},
	}, outcome.Plan)
}

func TestRunMalformedConfigKeepsRegistry(t *testing.T) {
	f := newRunFixture(t)
	f.settings.RuntimeConfigPath = filepath.Join(t.TempDir(), "bad.cnf")
	require.NoError(t, os.WriteFile(f.settings.RuntimeConfigPath, []byte("-t1\nB\n"), 0o600))

	outcome := f.run(t, nil)
	assert.Equal(t, "", outcome.ConfigPath)
	assert.Len(t, f.invoked, 3)
}

func TestRunDumpsConfig(t *testing.T) {
	f := newRunFixture(t)
	f.settings.DumpConfig = true
	outcome := f.run(t, nil)

	data, err := os.ReadFile(filepath.Join(outcome.OutputDir, "config.cnf"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "A\n# t1\n# t2\n\n#-------------------\nB\n# t1\n")
}

func TestRunWritesSummary(t *testing.T) {
	f := newRunFixture(t)
	runID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	outcome, err := Run(RunOptions{
		Settings: f.settings,
		Host:     host.NewRecorder(1, 1),
		Registry: []*pgtest.Suite{pgtest.NewSuite("A",
			pgtest.Test{Name: "ok", Fn: func(*pgtest.T) {}},
			pgtest.Test{Name: "bad", Fn: func(t *pgtest.T) { t.Errorf("nope") }},
		)},
		RunID: runID,
	})
	require.NoError(t, err)
	assert.Equal(t, runID, outcome.RunID)

	data, err := os.ReadFile(filepath.Join(outcome.OutputDir, "summary.yaml"))
	require.NoError(t, err)
	var doc summaryDoc
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, runID.String(), doc.RunID)
	assert.Equal(t, 1, doc.Passed)
	assert.Equal(t, []string{"A::bad"}, doc.Failed)
	assert.Equal(t, []planSummary{{Suite: "A", Enabled: 2}}, doc.Plan)
	assert.False(t, doc.Aborted)
	assert.Nil(t, doc.Golden)
}

func TestRunGoldenComparison(t *testing.T) {
	f := newRunFixture(t)
	f.settings.GoldenDir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(f.settings.GoldenDir, "A"), 0o755))

	sw := host.NewSoftware(4, 4)
	draw := func(t *pgtest.T) {
		t.Host().PrepareDraw(0xFF0000FF)
		t.FinishDraw(t.ID().Test)
	}
	outcome, err := Run(RunOptions{
		Settings: f.settings,
		Host:     sw,
		Registry: []*pgtest.Suite{pgtest.NewSuite("A", pgtest.Test{Name: "frame", Fn: draw})},
	})
	require.NoError(t, err)
	require.Len(t, outcome.Golden, 1)
	assert.True(t, outcome.Golden[0].MissingGolden)

	// Use this run's frame as the golden image; the next run then matches.
	saved := filepath.Join(outcome.OutputDir, "A", "frame.png")
	img, err := golden.ReadPNG(saved)
	require.NoError(t, err)
	require.NoError(t, golden.WritePNG(filepath.Join(f.settings.GoldenDir, "A", "frame.png"), img))

	outcome, err = Run(RunOptions{
		Settings: f.settings,
		Host:     host.NewSoftware(4, 4),
		Registry: []*pgtest.Suite{pgtest.NewSuite("A", pgtest.Test{Name: "frame", Fn: draw})},
	})
	require.NoError(t, err)
	require.Len(t, outcome.Golden, 1)
	assert.True(t, outcome.Golden[0].OK())
}

func TestFinishShutdown(t *testing.T) {
	s := DefaultSettings()
	s.Shutdown = true
	called := false
	var buf bytes.Buffer
	require.NoError(t, Finish(&buf, s, "out", nil, func() error { called = true; return nil }))
	assert.True(t, called)
	assert.Empty(t, buf.String())
}

func TestFinishPausesBeforeReboot(t *testing.T) {
	s := DefaultSettings()
	clock := fakeclock.NewFakeClock(time.Unix(0, 0))
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_ = Finish(&buf, s, "/results/nxdk_pgraph_tests", clock, nil)
		close(done)
	}()
	clock.WaitForWatcherAndIncrement(4 * time.Second)
	<-done
	assert.Equal(t, "Results written to /results/nxdk_pgraph_tests\n\nRebooting in 4s...\n", buf.String())
}
