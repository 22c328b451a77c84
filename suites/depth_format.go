package suites

import (
	"github.com/pgraph-tests/pgraph-harness/framework/host"
	"github.com/pgraph-tests/pgraph-harness/framework/pgtest"
)

const depthFormatSuiteName = "Depth format"

var depthFormats = []host.DepthFormat{ //nolint:gochecknoglobals
	host.DepthFormatZ24S8,
	host.DepthFormatZ16,
}

const (
	depthSmallQuadSize    = 30
	depthSmallQuadSpacing = 15
	depthStep             = depthSmallQuadSize + depthSmallQuadSpacing
	depthMax              = float32(0x00FFFFFF)
)

// NewDepthFormatSuite renders a field of small quads at increasing depth over a large
// background quad, once per depth surface format.
func NewDepthFormatSuite(Params) *pgtest.Suite {
	s := pgtest.NewSuite(depthFormatSuiteName)
	for _, f := range depthFormats {
		s.Add(f.String(), func(t *pgtest.T) { depthFormat(t, f) })
	}
	return s
}

func depthFormat(t *pgtest.T, f host.DepthFormat) {
	h := t.Host()
	h.SetVertexShader(host.PrecalculatedVertexShader)
	h.SetDepthFormat(f)
	h.PrepareDraw(0xFF000000)

	fbWidth, fbHeight := t.Framebuffer()
	left, top := float32(120), float32(40)
	right := float32(fbWidth) - left
	bottom := float32(fbHeight) - top
	bigWidth, bigHeight := int(right-left), int(bottom-top)

	perRow := max((bigWidth-depthSmallQuadSize)/depthStep, 0)
	perCol := max((bigHeight-depthSmallQuadSize)/depthStep, 0)
	rowSize := depthSmallQuadSize + perRow*depthStep
	colSize := depthSmallQuadSize + perCol*depthStep
	xOffset := left + depthSmallQuadSpacing + float32(bigWidth-rowSize)/2
	yOffset := top + depthSmallQuadSpacing + float32(bigHeight-colSize)/2

	// Quads go front to back so that the depth test decides what is visible.
	zStep := depthMax / float32(perRow*perCol+2)
	z := float32(0)
	for row := 0; row < perCol; row++ {
		y := yOffset + float32(row*depthStep)
		for col := 0; col < perRow; col++ {
			x := xOffset + float32(col*depthStep)
			drawQuad(h, grey(0.25+z/depthMax*0.75), x, y, x+depthSmallQuadSize, y+depthSmallQuadSize, z)
			z += zStep
		}
	}

	backDepth := depthMax - 2
	drawQuad(h, 0xFF4D4D4D, left, top, right, bottom, backDepth-backDepth/3)

	t.Debug("DF: %s", f)
	t.FinishDraw("DepthFmt_" + f.String())
}

// grey returns an opaque grey ARGB color for an intensity in [0, 1].
func grey(v float32) uint32 {
	c := uint32(min(max(v, 0), 1) * 255)
	return 0xFF000000 | c<<16 | c<<8 | c
}
