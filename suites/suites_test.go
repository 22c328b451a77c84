package suites

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgraph-tests/pgraph-harness/framework/golden"
	"github.com/pgraph-tests/pgraph-harness/framework/host"
	"github.com/pgraph-tests/pgraph-harness/framework/pgtest"
)

func TestRegistryNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	var names []string
	for _, s := range Registry(DefaultParams()) {
		assert.False(t, seen[s.Name()], s.Name())
		seen[s.Name()] = true
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"Window clip", "Depth format"}, names)
}

func TestWindowClipTestNames(t *testing.T) {
	s := NewWindowClipSuite(DefaultParams())
	names := s.TestNames()
	assert.Len(t, names, 2*2*9)
	assert.Equal(t, "I_x0y0_w0h0-x0y0_w0h0", names[0])
	assert.Equal(t, "I_x0y0_w256h256-x0y0_w0h0", names[1])
	assert.Equal(t, "I_x96y96_w64h64-x0y0_w0h0", names[8])
	assert.Equal(t, "I_x0y0_w0h0-x16y16_w8h8", names[9])
	assert.Equal(t, "E_x0y0_w0h0-x0y0_w0h0", names[18])
	assert.Equal(t, "E_x255y255_w1h1-x16y16_w8h8", names[len(names)-2])
	for _, n := range names {
		assert.True(t, strings.HasPrefix(n, "I_") || strings.HasPrefix(n, "E_"), n)
	}
}

func TestDepthFormatTestNames(t *testing.T) {
	m.In(t).Assert(NewDepthFormatSuite(DefaultParams()).TestNames(),
		m.ItemsInAnyOrder(m.Equal("Z24S8"), m.Equal("Z16")))
}

func runSuite(t *testing.T, h host.Host, dir string, s *pgtest.Suite) pgtest.Results {
	t.Helper()
	results, err := pgtest.NewDriver(pgtest.DriverConfig{Host: h, OutputDir: dir, AllowSaving: true},
		[]*pgtest.Suite{s}).Run()
	require.NoError(t, err)
	return results
}

func TestWindowClipCallSequence(t *testing.T) {
	rec := host.NewRecorder(640, 480)
	only := pgtest.FilterFunc(func(id pgtest.TestID) bool {
		return id.Test == "" || id.Test == "E_x1y1_w254h254-x16y16_w8h8"
	})
	results, err := pgtest.NewDriver(pgtest.DriverConfig{Host: rec, OutputDir: "out", AllowSaving: true, Filter: only},
		[]*pgtest.Suite{NewWindowClipSuite(DefaultParams())}).Run()
	require.NoError(t, err)
	assert.True(t, results.OK())
	assert.Len(t, results.Tests, 1)

	calls := rec.Calls()
	assert.Contains(t, calls, "SetWindowClipExclusive(true)")
	assert.Contains(t, calls, "SetWindowClip(0, (193,113)-(447,367))")
	assert.Contains(t, calls, "SetWindowClip(1, (208,128)-(216,136))")
	assert.Equal(t, "ClearWindowClip(1)", calls[len(calls)-2])
	assert.Equal(t, []host.Frame{{Saved: true, Dir: filepath.Join("out", "Window_clip"),
		Name: "E_x1y1_w254h254-x16y16_w8h8"}}, rec.Frames())
	assert.Equal(t, image.Rectangle{}, rec.WindowClip(1))
}

func TestWindowClipRendersThroughClip(t *testing.T) {
	dir := t.TempDir()
	sw := host.NewSoftware(640, 480)
	only := pgtest.FilterFunc(func(id pgtest.TestID) bool {
		return id.Test == "" || id.Test == "I_x96y96_w64h64-x0y0_w0h0"
	})
	_, err := pgtest.NewDriver(pgtest.DriverConfig{Host: sw, OutputDir: dir, AllowSaving: true, Filter: only},
		[]*pgtest.Suite{NewWindowClipSuite(DefaultParams())}).Run()
	require.NoError(t, err)

	img, err := golden.ReadPNG(filepath.Join(dir, "Window_clip", "I_x96y96_w64h64-x0y0_w0h0.png"))
	require.NoError(t, err)
	inner := color.RGBAModel.Convert(img.At(320, 240)).(color.RGBA)
	outer := color.RGBAModel.Convert(img.At(200, 120)).(color.RGBA)
	assert.Equal(t, color.RGBA{R: 0x33, G: 0x77, B: 0xFF, A: 0xFF}, inner)
	assert.Equal(t, color.RGBA{R: 0x88, G: 0x77, B: 0x33, A: 0xFF}, outer)
}

func TestDepthFormatRuns(t *testing.T) {
	rec := host.NewRecorder(640, 480)
	results := runSuite(t, rec, "out", NewDepthFormatSuite(DefaultParams()))
	assert.True(t, results.OK())
	assert.Contains(t, rec.Calls(), "SetDepthFormat(Z16)")
	require.Len(t, rec.Frames(), 2)
	assert.Equal(t, "DepthFmt_Z24S8", rec.Frames()[0].Name)
	assert.Equal(t, "DepthFmt_Z16", rec.Frames()[1].Name)
}

func TestDepthFormatSmallFramebuffer(t *testing.T) {
	results := runSuite(t, host.NewRecorder(64, 64), "out", NewDepthFormatSuite(DefaultParams()))
	assert.True(t, results.OK())
}

func TestWindowClipSmallTextures(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {2, 2}, {3, 7}, {64, 64}, {66, 66}, {65, 200}} {
		t.Run(fmt.Sprintf("%dx%d", size[0], size[1]), func(t *testing.T) {
			var s *pgtest.Suite
			require.NotPanics(t, func() {
				s = NewWindowClipSuite(Params{TextureWidth: size[0], TextureHeight: size[1]})
			})
			assert.NotEmpty(t, s.TestNames())
			for _, c := range clipOne(size[0], size[1]) {
				assert.True(t, c.fits(size[0], size[1]), "%+v", c)
			}
		})
	}
}

func TestClipOneDropsRepeats(t *testing.T) {
	assert.Equal(t, []clipRect{
		{0, 0, 0, 0},
		{0, 0, 64, 64},
		{0, 0, 63, 63},
		{1, 1, 62, 62},
		{1, 1, 61, 61},
		{0, 0, 32, 32},
		{0, 0, 1, 1},
		{63, 63, 1, 1},
	}, clipOne(64, 64))
	assert.Len(t, clipOne(256, 256), 9)
}

func TestGrey(t *testing.T) {
	assert.Equal(t, uint32(0xFF000000), grey(-1))
	assert.Equal(t, uint32(0xFFFFFFFF), grey(2))
	assert.Equal(t, uint32(0xFF7F7F7F), grey(0.5))
}
