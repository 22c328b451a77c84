package suites

import (
	"fmt"
	"image"

	"golang.org/x/exp/slices"

	"github.com/pgraph-tests/pgraph-harness/framework/host"
	"github.com/pgraph-tests/pgraph-harness/framework/pgtest"
)

const windowClipSuiteName = "Window clip"

type clipRect struct {
	x, y, width, height int
}

func (c clipRect) at(left, top int) image.Rectangle {
	return image.Rect(left+c.x, top+c.y, left+c.x+c.width, top+c.y+c.height)
}

// First clip rectangles, relative to the top left of the test image. Rectangles that do not
// fit inside a w by h image are dropped, and so are repeats, which small textures produce.
func clipOne(w, h int) []clipRect {
	candidates := []clipRect{
		{0, 0, 0, 0},
		{0, 0, w, h},
		{0, 0, w - 1, h - 1},
		{1, 1, w - 2, h - 2},
		{1, 1, w - 3, h - 3},
		{0, 0, w >> 1, h >> 1},
		{0, 0, 1, 1},
		{w - 1, h - 1, 1, 1},
		{(w - 64) >> 1, (h - 64) >> 1, 64, 64},
	}
	ret := make([]clipRect, 0, len(candidates))
	for _, c := range candidates {
		if c.fits(w, h) && !slices.Contains(ret, c) {
			ret = append(ret, c)
		}
	}
	return ret
}

func (c clipRect) fits(w, h int) bool {
	return c.x >= 0 && c.y >= 0 && c.width >= 0 && c.height >= 0 &&
		c.x+c.width <= w && c.y+c.height <= h
}

var clipTwo = []clipRect{ //nolint:gochecknoglobals
	{0, 0, 0, 0},
	{16, 16, 8, 8},
}

func windowClipTestName(exclusive bool, c1, c2 clipRect) string {
	mode := 'I'
	if exclusive {
		mode = 'E'
	}
	return fmt.Sprintf("%c_x%dy%d_w%dh%d-x%dy%d_w%dh%d", mode,
		c1.x, c1.y, c1.width, c1.height, c2.x, c2.y, c2.width, c2.height)
}

// NewWindowClipSuite draws a quad through two window clip rectangles, in inclusive and
// exclusive mode, for every combination of the clip tables.
func NewWindowClipSuite(p Params) *pgtest.Suite {
	s := pgtest.NewSuite(windowClipSuiteName)
	for _, exclusive := range []bool{false, true} {
		for _, c2 := range clipTwo {
			for _, c1 := range clipOne(p.TextureWidth, p.TextureHeight) {
				s.Add(windowClipTestName(exclusive, c1, c2), func(t *pgtest.T) {
					windowClip(t, p, exclusive, c1, c2)
				})
			}
		}
	}
	return s
}

func windowClip(t *pgtest.T, p Params, exclusive bool, c1, c2 clipRect) {
	h := t.Host()
	h.SetVertexShader(host.PrecalculatedVertexShader)

	left, top, right, bottom := centered(h, p.TextureWidth, p.TextureHeight)
	r1 := c1.at(int(left), int(top))
	r2 := c2.at(int(left), int(top))

	h.SetWindowClipExclusive(false)
	h.SetWindowClip(0, host.Bounds(h))
	h.PrepareDraw(0xFE111213)
	drawQuad(h, 0xFF887733, left, top, right, bottom, 0.1)

	h.SetWindowClipExclusive(exclusive)
	h.SetWindowClip(0, r1)
	h.SetWindowClip(1, r2)
	drawQuad(h, 0xFF3377FF, left, top, right, bottom, 0.1)

	h.SetWindowClipExclusive(false)
	h.SetWindowClip(0, host.Bounds(h))
	h.ClearWindowClip(1)

	name := t.ID().Test
	t.Debug("%s", name)
	t.Debug("%d,%d - %d,%d", r1.Min.X, r1.Min.Y, r1.Max.X, r1.Max.Y)
	t.Debug("%d,%d - %d,%d", r2.Min.X, r2.Min.Y, r2.Max.X, r2.Max.Y)

	t.FinishDraw(name)
}
