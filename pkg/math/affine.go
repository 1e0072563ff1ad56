package math

import "math"

// Affine2 is a 2x3 affine matrix in row-major order.
// Layout: [A B C]
//
//	[D E F]
//
// so that x' = A*x + B*y + C and y' = D*x + E*y + F.
type Affine2 struct {
	A, B, C float64
	D, E, F float64
}

// Identity2 returns the identity transform.
func Identity2() Affine2 {
	return Affine2{A: 1, E: 1}
}

// Translation2 returns a transform that shifts points by t.
func Translation2(t Vec2) Affine2 {
	return Affine2{A: 1, C: t.X, E: 1, F: t.Y}
}

// Rotation2 returns a rotation by deg degrees about the origin.
// Image rows grow downward, so a positive angle turns the picture
// counter-clockwise as displayed.
func Rotation2(deg float64) Affine2 {
	sin, cos := SinCosDeg(deg)
	return Affine2{
		A: cos, B: sin,
		D: -sin, E: cos,
	}
}

// RotationAbout rotates by deg degrees around src and places src at dst.
// Passing different points lets the result land on a larger canvas.
func RotationAbout(deg float64, src, dst Vec2) Affine2 {
	return Translation2(dst).Mul(Rotation2(deg)).Mul(Translation2(src.Scale(-1)))
}

// Mul returns m * other: other is applied first, then m.
func (m Affine2) Mul(other Affine2) Affine2 {
	return Affine2{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// Invert returns the inverse transform.
// Returns false if the matrix is singular.
func (m Affine2) Invert() (Affine2, bool) {
	det := m.A*m.E - m.B*m.D
	if math.Abs(det) < 1e-12 {
		return Affine2{}, false
	}
	inv := 1 / det
	return Affine2{
		A: m.E * inv,
		B: -m.B * inv,
		C: (m.B*m.F - m.C*m.E) * inv,
		D: -m.D * inv,
		E: m.A * inv,
		F: (m.C*m.D - m.A*m.F) * inv,
	}, true
}

// Apply transforms point p.
func (m Affine2) Apply(p Vec2) Vec2 {
	return Vec2{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// SinCosDeg returns sin and cos of deg degrees.
// Quarter turns are exact so axis-aligned rotations map pixels onto pixels.
func SinCosDeg(deg float64) (sin, cos float64) {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(d * math.Pi / 180)
}
