// Package host defines the render-context boundary that every test draws through.
//
// A Host is stateful: clip rectangles, shader selection, and surface formats persist between
// draws until a test changes them. Exactly one Host exists per run, and it is handed to each
// test in turn; tests must never retain it after they return.
package host

import (
	"fmt"
	"image"
)

// Primitive selects how vertices submitted between Begin and End are assembled.
type Primitive int

const (
	PrimitivePoints Primitive = iota
	PrimitiveLines
	PrimitiveTriangles
	PrimitiveQuads
)

func (p Primitive) String() string {
	switch p {
	case PrimitivePoints:
		return "points"
	case PrimitiveLines:
		return "lines"
	case PrimitiveTriangles:
		return "triangles"
	case PrimitiveQuads:
		return "quads"
	default:
		return fmt.Sprintf("primitive(%d)", int(p))
	}
}

// DepthFormat is the zeta surface format.
type DepthFormat int

const (
	DepthFormatZ24S8 DepthFormat = iota
	DepthFormatZ16
)

func (f DepthFormat) String() string {
	switch f {
	case DepthFormatZ24S8:
		return "Z24S8"
	case DepthFormatZ16:
		return "Z16"
	default:
		return fmt.Sprintf("depth(%d)", int(f))
	}
}

// VertexShader names the vertex program a test binds.
type VertexShader string

const (
	// FixedFunction disables the programmable vertex stage.
	FixedFunction VertexShader = ""
	// PrecalculatedVertexShader passes screen-space vertices through unmodified.
	PrecalculatedVertexShader VertexShader = "precalculated"
)

// MaxWindowClips is the number of window clip rectangles the pipeline supports.
const MaxWindowClips = 8

// Host is the render context consumed by tests.
type Host interface {
	FramebufferWidth() int
	FramebufferHeight() int

	// PrepareDraw resets per-frame state and clears the color surface to the given ARGB value.
	PrepareDraw(clearColor uint32)
	Begin(p Primitive)
	End()
	SetDiffuse(argb uint32)
	SetVertex(x, y, z, w float32)

	SetVertexShader(s VertexShader)
	SetDepthFormat(f DepthFormat)

	// SetWindowClip sets clip rectangle index. Index 0 is normally the full framebuffer.
	SetWindowClip(index int, r image.Rectangle)
	ClearWindowClip(index int)
	SetWindowClipExclusive(exclusive bool)

	// FinishDraw presents the frame. If save is true the frame is written to dir as
	// name.png.
	FinishDraw(save bool, dir, name string) error
}

// Bounds returns the framebuffer rectangle of h.
func Bounds(h Host) image.Rectangle {
	return image.Rect(0, 0, h.FramebufferWidth(), h.FramebufferHeight())
}
