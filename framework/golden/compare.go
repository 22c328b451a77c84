// Package golden compares rendered frames against reference images.
package golden

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// ErrSizeMismatch is returned when the images differ in size and Options.Rescale is off.
var ErrSizeMismatch = errors.New("image sizes differ")

// Options controls how strict a comparison is.
type Options struct {
	// Tolerance is the largest per-channel difference, 0-255, that still counts as equal.
	Tolerance uint8
	// Rescale scales the actual image to the golden image's size instead of failing.
	Rescale bool
}

var (
	diffColor = color.RGBA{R: 0xFF, A: 0xFF}                   //nolint:gochecknoglobals
	sameColor = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF} //nolint:gochecknoglobals
)

// Result describes the outcome of comparing two images.
type Result struct {
	DiffPixels  int
	TotalPixels int
	// Diff marks differing pixels in red on a dark background. It is nil if nothing differs.
	Diff *image.RGBA
}

func (r Result) Match() bool {
	return r.DiffPixels == 0
}

// Compare reports how many pixels of actual differ from golden.
func Compare(actual, golden image.Image, opts Options) (Result, error) {
	bounds := golden.Bounds()
	want := toRGBA(golden, bounds.Size())
	if actual.Bounds().Size() != bounds.Size() && !opts.Rescale {
		return Result{}, fmt.Errorf("%w: got %v, want %v", ErrSizeMismatch, actual.Bounds().Size(), bounds.Size())
	}
	got := toRGBA(actual, bounds.Size())

	result := Result{TotalPixels: bounds.Dx() * bounds.Dy()}
	diff := image.NewRGBA(want.Bounds())
	for y := 0; y < want.Bounds().Dy(); y++ {
		for x := 0; x < want.Bounds().Dx(); x++ {
			if pixelsEqual(got.RGBAAt(x, y), want.RGBAAt(x, y), opts.Tolerance) {
				diff.SetRGBA(x, y, sameColor)
				continue
			}
			result.DiffPixels++
			diff.SetRGBA(x, y, diffColor)
		}
	}
	if result.DiffPixels != 0 {
		result.Diff = diff
	}
	return result, nil
}

// toRGBA converts img to an RGBA image of the given size with origin (0, 0), scaling if needed.
func toRGBA(img image.Image, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	if img.Bounds().Size() == size {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	} else {
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	}
	return dst
}

func pixelsEqual(a, b color.RGBA, tolerance uint8) bool {
	return channelDiff(a.R, b.R) <= tolerance &&
		channelDiff(a.G, b.G) <= tolerance &&
		channelDiff(a.B, b.B) <= tolerance &&
		channelDiff(a.A, b.A) <= tolerance
}

func channelDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// ReadPNG decodes the PNG file at path.
func ReadPNG(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
