// Package fourier compresses per-texel periodic functions, sampled over a
// set of azimuths, into their lowest Fourier coefficients.
//
// A budget of K (even) stores K+1 values per texel: the real parts of
// bins 0..K/2 followed by the imaginary parts of bins 1..K/2. Bin 0 of a
// real signal has no imaginary part, so it is not stored.
package fourier

import (
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
)

// Compression errors.
var (
	ErrNoSources           = errors.New("fourier: no azimuth fields")
	ErrCoefficientCount    = errors.New("fourier: coefficient budget must be even and non-negative")
	ErrTooManyCoefficients = errors.New("fourier: coefficient budget exceeds available frequencies")
)

// RowSource gives row access to one stored field. Sources may be backed
// by memory-mapped files, so rows are copied out rather than shared.
type RowSource interface {
	Shape() (height, width int)
	ReadRow(y int, dst []float32) error
}

// Compress reduces the azimuth-indexed sequence at every texel of sources
// to k+1 Fourier values. sources[i] holds the field for the i-th azimuth
// in angular order and all must share one shape. Rows are processed on
// up to workers goroutines (GOMAXPROCS when workers <= 0).
func Compress(sources []RowSource, k, workers int) (*heightfield.Volume, error) {
	n := len(sources)
	if n == 0 {
		return nil, ErrNoSources
	}
	if err := CheckBudget(k, n); err != nil {
		return nil, err
	}

	height, width := sources[0].Shape()
	for i, src := range sources[1:] {
		h, w := src.Shape()
		if h != height || w != width {
			return nil, fmt.Errorf("%w: field %d is %dx%d, field 0 is %dx%d",
				heightfield.ErrShapeMismatch, i+1, w, h, width, height)
		}
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := heightfield.NewVolume(height, width, k+1)
	var g errgroup.Group
	g.SetLimit(workers)
	for y := range height {
		g.Go(func() error {
			return compressRow(sources, y, width, k, out)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func compressRow(sources []RowSource, y, width, k int, out *heightfield.Volume) error {
	n := len(sources)
	parts := make([][]float32, n)
	for i, src := range sources {
		parts[i] = make([]float32, width)
		if err := src.ReadRow(y, parts[i]); err != nil {
			return fmt.Errorf("reading row %d of field %d: %w", y, i, err)
		}
	}
	// Row i of the stack is azimuth i; column x is one texel's sequence.
	stacked, err := heightfield.StackRows(parts)
	if err != nil {
		return err
	}

	fft := fourier.NewFFT(n)
	seq := make([]float64, n)
	coeffs := make([]complex128, n/2+1)
	for x := range width {
		for i := range n {
			seq[i] = float64(stacked.At(x, i))
		}
		coeffs = fft.Coefficients(coeffs, seq)
		pack(coeffs, k/2, out.Texel(x, y))
	}
	return nil
}

// pack writes the kept bins into dst using the layer order described in
// the package comment.
func pack(coeffs []complex128, half int, dst []float32) {
	for i := 0; i <= half; i++ {
		dst[i] = float32(real(coeffs[i]))
	}
	for i := 1; i <= half; i++ {
		dst[half+i] = float32(imag(coeffs[i]))
	}
}

// CheckBudget reports whether k coefficients can be kept from n samples.
func CheckBudget(k, n int) error {
	if k < 0 || k%2 != 0 {
		return fmt.Errorf("%w: got %d", ErrCoefficientCount, k)
	}
	if k/2 > n/2 {
		return fmt.Errorf("%w: %d coefficients from %d azimuths", ErrTooManyCoefficients, k, n)
	}
	return nil
}

// CompressSequence compresses a single periodic sequence with budget k.
func CompressSequence(seq []float64, k int) ([]float32, error) {
	if len(seq) == 0 {
		return nil, ErrNoSources
	}
	if err := CheckBudget(k, len(seq)); err != nil {
		return nil, err
	}
	coeffs := fourier.NewFFT(len(seq)).Coefficients(nil, seq)
	dst := make([]float32, k+1)
	pack(coeffs, k/2, dst)
	return dst, nil
}

// Reconstruct evaluates the truncated Fourier series stored in texel
// (k+1 values as produced by Compress) at n evenly spaced azimuths.
func Reconstruct(texel []float32, n int) []float64 {
	half := (len(texel) - 1) / 2
	out := make([]float64, n)
	for t := range n {
		sum := float64(texel[0])
		for m := 1; m <= half; m++ {
			// Bins m and n-m are conjugate pairs except at Nyquist.
			w := 2.0
			if 2*m == n {
				w = 1
			}
			theta := 2 * math.Pi * float64(m*t) / float64(n)
			re, im := float64(texel[m]), float64(texel[half+m])
			sum += w * (re*math.Cos(theta) - im*math.Sin(theta))
		}
		out[t] = sum / float64(n)
	}
	return out
}
