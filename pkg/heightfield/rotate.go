package heightfield

import (
	"math"

	hmath "github.com/Faultbox/clipmap-tools/pkg/math"
)

// Interpolation selects how Rotate samples between source pixels.
type Interpolation uint8

const (
	// Nearest picks the closest source sample. Used for derived fields
	// that must not be blended across discontinuities.
	Nearest Interpolation = iota

	// Linear blends the four surrounding samples.
	Linear
)

// String returns the interpolation name.
func (i Interpolation) String() string {
	switch i {
	case Nearest:
		return "Nearest"
	case Linear:
		return "Linear"
	default:
		return "Unknown"
	}
}

// RotatedSize returns the canvas that holds a width x height field rotated
// by deg degrees without clipping. Each dimension grows by an even amount
// so the original can later be cropped back out symmetrically.
func RotatedSize(width, height int, deg float64) (int, int) {
	sin, cos := hmath.SinCosDeg(deg)
	sin, cos = math.Abs(sin), math.Abs(cos)

	const eps = 1e-9
	w := int(math.Ceil(float64(height)*sin + float64(width)*cos - eps))
	h := int(math.Ceil(float64(height)*cos + float64(width)*sin - eps))

	// Thin fields can have a bounding box narrower than themselves; the
	// back-rotation reuses this canvas, so it must also contain the original.
	w = max(w, width)
	h = max(h, height)

	if (w-width)%2 != 0 {
		w++
	}
	if (h-height)%2 != 0 {
		h++
	}
	return w, h
}

// Rotate turns src by deg degrees about its centre. With expand the
// output canvas is RotatedSize, otherwise it matches src. Reads outside
// src replicate the nearest edge sample.
func Rotate(src *Field, deg float64, interp Interpolation, expand bool) *Field {
	w, h := src.Width, src.Height
	if expand {
		w, h = RotatedSize(src.Width, src.Height, deg)
	}
	dst := New(w, h)
	if len(src.Data) == 0 || len(dst.Data) == 0 {
		return dst
	}

	fwd := hmath.RotationAbout(deg, hmath.Center(src.Width, src.Height), hmath.Center(w, h))
	inv, _ := fwd.Invert() // rotations are never singular

	for y := range h {
		row := dst.Row(y)
		p := inv.Apply(hmath.Vec2{X: 0, Y: float64(y)})
		for x := range row {
			sx := p.X + float64(x)*inv.A
			sy := p.Y + float64(x)*inv.D
			if interp == Nearest {
				row[x] = sampleNearest(src, sx, sy)
			} else {
				row[x] = sampleLinear(src, sx, sy)
			}
		}
	}
	return dst
}

func sampleNearest(f *Field, x, y float64) float32 {
	xi := clampi(int(math.Floor(x+0.5)), 0, f.Width-1)
	yi := clampi(int(math.Floor(y+0.5)), 0, f.Height-1)
	return f.At(xi, yi)
}

func sampleLinear(f *Field, x, y float64) float32 {
	fx, fy := math.Floor(x), math.Floor(y)
	tx, ty := x-fx, y-fy

	x0 := clampi(int(fx), 0, f.Width-1)
	x1 := clampi(int(fx)+1, 0, f.Width-1)
	y0 := clampi(int(fy), 0, f.Height-1)
	y1 := clampi(int(fy)+1, 0, f.Height-1)

	top := float64(f.At(x0, y0))*(1-tx) + float64(f.At(x1, y0))*tx
	bottom := float64(f.At(x0, y1))*(1-tx) + float64(f.At(x1, y1))*tx
	return float32(top*(1-ty) + bottom*ty)
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
