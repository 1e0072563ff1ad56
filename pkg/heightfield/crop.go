package heightfield

import "fmt"

// Crop copies the width x height window whose top-left corner is (x0, y0).
func Crop(f *Field, x0, y0, width, height int) (*Field, error) {
	if x0 < 0 || y0 < 0 || width < 0 || height < 0 || x0+width > f.Width || y0+height > f.Height {
		return nil, fmt.Errorf("%w: %dx%d at (%d,%d) in %dx%d",
			ErrCropBounds, width, height, x0, y0, f.Width, f.Height)
	}
	out := New(width, height)
	for y := range height {
		copy(out.Row(y), f.Row(y0 + y)[x0:x0+width])
	}
	return out, nil
}

// CropCenter removes equal margins from both sides of each axis.
// The size difference on each axis must be even.
func CropCenter(f *Field, width, height int) (*Field, error) {
	dx, dy := f.Width-width, f.Height-height
	if dx%2 != 0 || dy%2 != 0 {
		return nil, fmt.Errorf("%w: asymmetric crop %dx%d from %dx%d",
			ErrShapeMismatch, width, height, f.Width, f.Height)
	}
	return Crop(f, dx/2, dy/2, width, height)
}
