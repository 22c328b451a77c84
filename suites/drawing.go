package suites

import (
	"github.com/pgraph-tests/pgraph-harness/framework/host"
)

// drawQuad submits one flat-colored screen-space quad.
func drawQuad(h host.Host, argb uint32, left, top, right, bottom, z float32) {
	h.Begin(host.PrimitiveQuads)
	h.SetDiffuse(argb)
	h.SetVertex(left, top, z, 1)
	h.SetVertex(right, top, z, 1)
	h.SetVertex(right, bottom, z, 1)
	h.SetVertex(left, bottom, z, 1)
	h.End()
}

// centered returns the rectangle of a w x h image centered in the framebuffer.
func centered(hst host.Host, w, h int) (left, top, right, bottom float32) {
	left = float32(hst.FramebufferWidth()-w) * 0.5
	top = float32(hst.FramebufferHeight()-h) * 0.5
	return left, top, left + float32(w), top + float32(h)
}
