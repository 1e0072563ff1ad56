// Package heightfield provides dense 2-D and 3-D float32 grids and the
// resampling operations applied to them: stacking, cropping and rotation.
package heightfield

import (
	"errors"
	"fmt"
)

// Grid shape errors.
var (
	ErrEmpty         = errors.New("heightfield: no input")
	ErrShapeMismatch = errors.New("heightfield: shape mismatch")
	ErrCropBounds    = errors.New("heightfield: crop outside field")
)

// Field is a row-major grid of Height rows by Width columns.
type Field struct {
	Width  int
	Height int
	Data   []float32
}

// New allocates a zeroed width x height field.
func New(width, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}
}

// Filled allocates a field with every sample set to v.
func Filled(width, height int, v float32) *Field {
	f := New(width, height)
	for i := range f.Data {
		f.Data[i] = v
	}
	return f
}

// Row returns row y as a view into the field's storage.
func (f *Field) Row(y int) []float32 {
	return f.Data[y*f.Width : (y+1)*f.Width]
}

// At returns the sample at column x, row y.
func (f *Field) At(x, y int) float32 {
	return f.Data[y*f.Width+x]
}

// Set stores v at column x, row y.
func (f *Field) Set(x, y int, v float32) {
	f.Data[y*f.Width+x] = v
}

// Shape returns (height, width).
func (f *Field) Shape() (int, int) {
	return f.Height, f.Width
}

// ReadRow copies row y into dst, which must hold Width samples.
func (f *Field) ReadRow(y int, dst []float32) error {
	if y < 0 || y >= f.Height {
		return fmt.Errorf("row %d outside %d rows", y, f.Height)
	}
	if len(dst) != f.Width {
		return fmt.Errorf("%w: row buffer %d, width %d", ErrShapeMismatch, len(dst), f.Width)
	}
	copy(dst, f.Row(y))
	return nil
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := New(f.Width, f.Height)
	copy(c.Data, f.Data)
	return c
}

// MinMax returns the smallest and largest sample.
func (f *Field) MinMax() (min, max float32) {
	if len(f.Data) == 0 {
		return 0, 0
	}
	min, max = f.Data[0], f.Data[0]
	for _, v := range f.Data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Volume is a Height x Width grid with Depth values per cell, laid out
// so that the Depth values of one cell are contiguous.
type Volume struct {
	Height int
	Width  int
	Depth  int
	Data   []float32
}

// NewVolume allocates a zeroed volume.
func NewVolume(height, width, depth int) *Volume {
	return &Volume{
		Height: height,
		Width:  width,
		Depth:  depth,
		Data:   make([]float32, height*width*depth),
	}
}

// Texel returns the Depth values stored for cell (x, y) as a view.
func (v *Volume) Texel(x, y int) []float32 {
	i := (y*v.Width + x) * v.Depth
	return v.Data[i : i+v.Depth]
}

// Layer copies slice d of every cell into a new row-major field.
func (v *Volume) Layer(d int) *Field {
	f := New(v.Width, v.Height)
	for i := range f.Data {
		f.Data[i] = v.Data[i*v.Depth+d]
	}
	return f
}
