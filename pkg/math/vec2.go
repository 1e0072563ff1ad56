// Package math provides the small amount of planar geometry used to resample heightfields.
package math

// Vec2 is a 2D point or vector in pixel space.
type Vec2 struct {
	X, Y float64
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Center returns the pixel-centre midpoint of a width x height grid.
// Pixel i covers [i-0.5, i+0.5], so the midpoint is ((w-1)/2, (h-1)/2).
func Center(width, height int) Vec2 {
	return Vec2{float64(width-1) / 2, float64(height-1) / 2}
}
