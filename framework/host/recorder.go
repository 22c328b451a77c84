package host

import (
	"fmt"
	"image"
	"path/filepath"
	"sync"
)

// Frame describes one FinishDraw call seen by a Recorder.
type Frame struct {
	Saved bool
	Dir   string
	Name  string
}

// Path returns the file a real host would have written for this frame.
func (f Frame) Path() string {
	return filepath.Join(f.Dir, f.Name+".png")
}

// Recorder is a Host that renders nothing and remembers every call made to it. It lets the
// engine run without hardware.
type Recorder struct {
	Width, Height int

	// FinishErr, if set, is returned by every FinishDraw call.
	FinishErr error

	lock     sync.Mutex
	calls    []string
	frames   []Frame
	clips    [MaxWindowClips]image.Rectangle
	inPrim   bool
	vertices int
}

var _ Host = (*Recorder)(nil)

// NewRecorder returns a Recorder with the given framebuffer size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{Width: width, Height: height}
}

func (r *Recorder) record(format string, args ...interface{}) {
	r.lock.Lock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	r.lock.Unlock()
}

// Calls returns a copy of every call made so far, formatted as text.
func (r *Recorder) Calls() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string(nil), r.calls...)
}

// Frames returns every frame finished so far.
func (r *Recorder) Frames() []Frame {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Frame(nil), r.frames...)
}

// WindowClip returns the current rectangle at index.
func (r *Recorder) WindowClip(index int) image.Rectangle {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.clips[index]
}

// Reset forgets all recorded calls and frames.
func (r *Recorder) Reset() {
	r.lock.Lock()
	r.calls = nil
	r.frames = nil
	r.lock.Unlock()
}

func (r *Recorder) FramebufferWidth() int  { return r.Width }
func (r *Recorder) FramebufferHeight() int { return r.Height }

func (r *Recorder) PrepareDraw(clearColor uint32) {
	r.record("PrepareDraw(%08X)", clearColor)
}

func (r *Recorder) Begin(p Primitive) {
	r.lock.Lock()
	if r.inPrim {
		r.lock.Unlock()
		panic("host: Begin called twice without End")
	}
	r.inPrim = true
	r.vertices = 0
	r.lock.Unlock()
	r.record("Begin(%s)", p)
}

func (r *Recorder) End() {
	r.lock.Lock()
	if !r.inPrim {
		r.lock.Unlock()
		panic("host: End called without Begin")
	}
	r.inPrim = false
	n := r.vertices
	r.lock.Unlock()
	r.record("End(%d vertices)", n)
}

func (r *Recorder) SetDiffuse(argb uint32) {
	r.record("SetDiffuse(%08X)", argb)
}

func (r *Recorder) SetVertex(x, y, z, w float32) {
	r.lock.Lock()
	r.vertices++
	r.lock.Unlock()
	r.record("SetVertex(%g, %g, %g, %g)", x, y, z, w)
}

func (r *Recorder) SetVertexShader(s VertexShader) {
	r.record("SetVertexShader(%q)", string(s))
}

func (r *Recorder) SetDepthFormat(f DepthFormat) {
	r.record("SetDepthFormat(%s)", f)
}

func (r *Recorder) SetWindowClip(index int, rect image.Rectangle) {
	checkClipIndex(index)
	r.lock.Lock()
	r.clips[index] = rect
	r.lock.Unlock()
	r.record("SetWindowClip(%d, %v)", index, rect)
}

func (r *Recorder) ClearWindowClip(index int) {
	checkClipIndex(index)
	r.lock.Lock()
	r.clips[index] = image.Rectangle{}
	r.lock.Unlock()
	r.record("ClearWindowClip(%d)", index)
}

func (r *Recorder) SetWindowClipExclusive(exclusive bool) {
	r.record("SetWindowClipExclusive(%t)", exclusive)
}

func (r *Recorder) FinishDraw(save bool, dir, name string) error {
	r.lock.Lock()
	r.frames = append(r.frames, Frame{Saved: save, Dir: dir, Name: name})
	err := r.FinishErr
	r.lock.Unlock()
	r.record("FinishDraw(%t, %q)", save, name)
	return err
}

func checkClipIndex(index int) {
	if index < 0 || index >= MaxWindowClips {
		panic(fmt.Sprintf("host: window clip index %d out of range", index))
	}
}
