package horizon

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
)

// Azimuths returns n compass angles in whole degrees, evenly spaced from 0.
// n must divide 360 so every angle is an integer.
func Azimuths(n int) ([]int, error) {
	if n <= 0 || 360%n != 0 {
		return nil, fmt.Errorf("azimuth count %d does not divide 360", n)
	}
	return lo.RangeWithSteps(0, 360, 360/n), nil
}

// SampleAzimuth computes the horizon tangent field of hm looking along
// azimuth deg. Angles are measured from +x toward +y in image space, so
// 0 looks along the rows and 90 looks down the columns.
//
// The heightmap is rotated onto an enlarged canvas with linear filtering,
// solved row by row, rotated back with nearest sampling (tangents are not
// blended) and cropped to the original shape.
func SampleAzimuth(hm *heightfield.Field, deg float64, rowWorkers int) (*heightfield.Field, error) {
	rotated := heightfield.Rotate(hm, deg, heightfield.Linear, true)

	tangents, err := FieldTangents(rotated, rowWorkers)
	if err != nil {
		return nil, fmt.Errorf("azimuth %v: %w", deg, err)
	}

	back := heightfield.Rotate(tangents, -deg, heightfield.Nearest, false)
	out, err := heightfield.CropCenter(back, hm.Width, hm.Height)
	if err != nil {
		return nil, fmt.Errorf("azimuth %v: %w", deg, err)
	}
	return out, nil
}
