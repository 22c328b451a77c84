package host

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

type vertex struct {
	x, y  float32
	color uint32
}

// Software is a Host that rasterizes flat-shaded triangles and quads into an in-memory RGBA
// surface. It honors window clip rectangles. Vertices are taken as already transformed to
// screen space, and depth is neither stored nor tested, so the shader and depth format
// settings have no effect. Saved frames are PNG files.
type Software struct {
	fb        *image.RGBA
	prim      Primitive
	inPrim    bool
	diffuse   uint32
	pending   []vertex
	clips     [MaxWindowClips]image.Rectangle
	exclusive bool
}

var _ Host = (*Software)(nil)

// NewSoftware returns a Software host with a width x height framebuffer.
func NewSoftware(width, height int) *Software {
	s := &Software{fb: image.NewRGBA(image.Rect(0, 0, width, height))}
	s.clips[0] = s.fb.Rect
	return s
}

// Image returns the current framebuffer contents.
func (s *Software) Image() *image.RGBA {
	return s.fb
}

func (s *Software) FramebufferWidth() int  { return s.fb.Rect.Dx() }
func (s *Software) FramebufferHeight() int { return s.fb.Rect.Dy() }

func (s *Software) PrepareDraw(clearColor uint32) {
	c := argbToRGBA(clearColor)
	for i := 0; i < len(s.fb.Pix); i += 4 {
		s.fb.Pix[i+0] = c.R
		s.fb.Pix[i+1] = c.G
		s.fb.Pix[i+2] = c.B
		s.fb.Pix[i+3] = c.A
	}
}

func (s *Software) Begin(p Primitive) {
	if s.inPrim {
		panic("host: Begin called twice without End")
	}
	s.inPrim = true
	s.prim = p
	s.pending = s.pending[:0]
}

func (s *Software) End() {
	if !s.inPrim {
		panic("host: End called without Begin")
	}
	s.inPrim = false
	switch s.prim {
	case PrimitiveQuads:
		for i := 0; i+3 < len(s.pending); i += 4 {
			v := s.pending[i : i+4]
			s.fillTriangle(v[0], v[1], v[2], v[0].color)
			s.fillTriangle(v[0], v[2], v[3], v[0].color)
		}
	case PrimitiveTriangles:
		for i := 0; i+2 < len(s.pending); i += 3 {
			v := s.pending[i : i+3]
			s.fillTriangle(v[0], v[1], v[2], v[0].color)
		}
	case PrimitivePoints:
		for _, v := range s.pending {
			s.plot(int(v.x), int(v.y), v.color)
		}
	}
}

func (s *Software) SetDiffuse(argb uint32) { s.diffuse = argb }

func (s *Software) SetVertex(x, y, _, _ float32) {
	s.pending = append(s.pending, vertex{x: x, y: y, color: s.diffuse})
}

// SetVertexShader and SetDepthFormat are no-ops; see the type comment.
func (s *Software) SetVertexShader(VertexShader) {}
func (s *Software) SetDepthFormat(DepthFormat)   {}

func (s *Software) SetWindowClip(index int, r image.Rectangle) {
	checkClipIndex(index)
	s.clips[index] = r.Canon()
}

func (s *Software) ClearWindowClip(index int) {
	checkClipIndex(index)
	s.clips[index] = image.Rectangle{}
}

func (s *Software) SetWindowClipExclusive(exclusive bool) { s.exclusive = exclusive }

func (s *Software) FinishDraw(save bool, dir, name string) error {
	if !save {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create output directory: %w", err)
	}
	path := filepath.Join(dir, name+".png")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", path, err)
	}
	if err := png.Encode(f, s.fb); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot encode %s: %w", path, err)
	}
	return f.Close()
}

func (s *Software) visible(x, y int) bool {
	p := image.Pt(x, y)
	haveClip := false
	inside := false
	for _, c := range s.clips {
		if c.Empty() {
			continue
		}
		haveClip = true
		if p.In(c) {
			inside = true
			break
		}
	}
	if !haveClip {
		return !s.exclusive
	}
	if s.exclusive {
		return !inside
	}
	return inside
}

func (s *Software) plot(x, y int, argb uint32) {
	if !image.Pt(x, y).In(s.fb.Rect) || !s.visible(x, y) {
		return
	}
	s.fb.SetRGBA(x, y, argbToRGBA(argb))
}

func (s *Software) fillTriangle(a, b, c vertex, argb uint32) {
	minX, maxX := min(a.x, b.x, c.x), max(a.x, b.x, c.x)
	minY, maxY := min(a.y, b.y, c.y), max(a.y, b.y, c.y)
	area := edge(a, b, c.x, c.y)
	if area == 0 {
		return
	}
	x0, x1 := max(int(minX), s.fb.Rect.Min.X), min(int(maxX), s.fb.Rect.Max.X-1)
	y0, y1 := max(int(minY), s.fb.Rect.Min.Y), min(int(maxY), s.fb.Rect.Max.Y-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5
			w0 := edge(b, c, px, py)
			w1 := edge(c, a, px, py)
			w2 := edge(a, b, px, py)
			if area < 0 {
				w0, w1, w2 = -w0, -w1, -w2
			}
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				s.plot(x, y, argb)
			}
		}
	}
}

func edge(a, b vertex, x, y float32) float32 {
	return (b.x-a.x)*(y-a.y) - (b.y-a.y)*(x-a.x)
}

func argbToRGBA(argb uint32) color.RGBA {
	return color.RGBA{
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
		A: uint8(argb >> 24),
	}
}
