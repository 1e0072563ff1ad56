// Package preview writes grayscale PNG snapshots of intermediate fields
// for visual inspection.
package preview

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/Faultbox/clipmap-tools/pkg/formats"
	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
)

// Writer saves fields as 16-bit PNG files under one directory.
type Writer struct {
	outputDir string
	prefix    string
}

// NewWriter creates a preview writer. Files are named <prefix>_<name>.png.
func NewWriter(outputDir, prefix string) *Writer {
	return &Writer{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// SetOutputDir sets the output directory for previews.
func (w *Writer) SetOutputDir(dir string) {
	w.outputDir = dir
}

// Path returns the file a preview called name is written to.
func (w *Writer) Path(name string) string {
	filename := fmt.Sprintf("%s_%s.png", w.prefix, name)
	if w.outputDir != "" {
		filename = filepath.Join(w.outputDir, filename)
	}
	return filename
}

// WriteField stretches f to the full 16-bit range and saves it.
// A constant field is written black.
func (w *Writer) WriteField(name string, f *heightfield.Field) (string, error) {
	if w.outputDir != "" {
		if err := os.MkdirAll(w.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := w.Path(name)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, formats.FieldToGray16(Normalize(f))); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}

	return filename, nil
}

// WriteVolume saves every depth slice of v as <name>_<index>.
func (w *Writer) WriteVolume(name string, v *heightfield.Volume) ([]string, error) {
	paths := make([]string, 0, v.Depth)
	for d := range v.Depth {
		p, err := w.WriteField(fmt.Sprintf("%s_%02d", name, d), v.Layer(d))
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Normalize returns a copy of f rescaled to [0, 1].
func Normalize(f *heightfield.Field) *heightfield.Field {
	out := heightfield.New(f.Width, f.Height)
	min, max := f.MinMax()
	span := max - min
	if span <= 0 {
		return out
	}
	for i, v := range f.Data {
		out.Data[i] = (v - min) / span
	}
	return out
}
