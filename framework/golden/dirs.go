package golden

import (
	"errors"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgraph-tests/pgraph-harness/framework"
)

// FileResult is the comparison of one saved frame with its golden counterpart.
type FileResult struct {
	// Path is relative to the directory of actual results.
	Path string
	Result
	// MissingGolden is true if there is no golden image for Path.
	MissingGolden bool
	Err           error
}

func (f FileResult) OK() bool {
	return !f.MissingGolden && f.Err == nil && f.Match()
}

// CompareDirs compares every PNG under actualDir with the file at the same relative path under
// goldenDir. If diffDir is not empty, a diff image is written there for each mismatch. Per-file
// problems are reported in the results; the error is only for failures to walk actualDir.
func CompareDirs(actualDir, goldenDir, diffDir string, opts Options, logger framework.Logger) ([]FileResult, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	var results []FileResult
	err := filepath.WalkDir(actualDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".png") {
			return nil
		}
		rel, err := filepath.Rel(actualDir, path)
		if err != nil {
			return err
		}
		fr := compareFile(path, filepath.Join(goldenDir, rel), opts)
		fr.Path = rel
		switch {
		case fr.MissingGolden:
			logger.Printf("No golden image for %s", rel)
		case fr.Err != nil:
			logger.Printf("Comparing %s: %s", rel, fr.Err)
		case !fr.Match():
			logger.Printf("%s differs in %d of %d pixels", rel, fr.DiffPixels, fr.TotalPixels)
			if diffDir != "" {
				fr.Err = writeDiff(filepath.Join(diffDir, rel), fr.Diff)
			}
		}
		results = append(results, fr)
		return nil
	})
	return results, err
}

func compareFile(actualPath, goldenPath string, opts Options) FileResult {
	want, err := ReadPNG(goldenPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return FileResult{MissingGolden: true}
		}
		return FileResult{Err: err}
	}
	got, err := ReadPNG(actualPath)
	if err != nil {
		return FileResult{Err: err}
	}
	r, err := Compare(got, want, opts)
	return FileResult{Result: r, Err: err}
}

func writeDiff(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return WritePNG(path, img)
}
