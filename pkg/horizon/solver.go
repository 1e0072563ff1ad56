// Package horizon computes horizon-angle fields over heightmaps.
//
// The basic operation works on a single elevation profile and looks
// toward increasing indices. Arbitrary compass directions are handled by
// rotating the heightmap so the direction lines up with the rows.
package horizon

import "math"

// RowHorizons returns, for every position j of row, the index of the
// point that bounds the sky when looking toward higher indices.
// horizons[j] >= j always holds; horizons[j] == j means nothing rises
// above position j in that direction.
//
// The sweep runs right to left. For each j it follows the chain of
// already-resolved horizons starting at j+1, stopping at the first
// candidate whose slope from j beats the slope of the candidate's own
// horizon. Only points above j are considered, so slopes clamp at 0.
func RowHorizons(row []float32) []int {
	width := len(row)
	horizons := make([]int, width)
	for i := range horizons {
		horizons[i] = i
	}

	for j := width - 2; j >= 0; j-- {
		hj := float64(row[j])
		k := j + 1
		for {
			nk := horizons[k]
			slopeK := max(0, (float64(row[k])-hj)/float64(k-j))
			slopeNK := 0.0
			if nk != k {
				slopeNK = max(0, (float64(row[nk])-hj)/float64(nk-j))
			}
			if slopeK > slopeNK {
				horizons[j] = k
				break
			}
			if nk == k {
				break
			}
			k = nk
		}
	}
	return horizons
}

// RowTangents returns the tangent of the horizon elevation angle at every
// position of row, looking toward higher indices. Positions without a
// horizon, including the last one, get 0.
func RowTangents(row []float32) []float32 {
	horizons := RowHorizons(row)
	tangents := make([]float32, len(row))
	for i, h := range horizons {
		dx := float64(h - i)
		dy := float64(row[h]) - float64(row[i])
		t := dy / dx
		if math.IsNaN(t) || math.IsInf(t, 0) {
			t = 0
		}
		tangents[i] = float32(t)
	}
	return tangents
}
