package formats

import (
	"errors"
	"fmt"
	"image"
	_ "image/png" // register PNG decoder
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp" // register BMP decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder

	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
)

// ErrInvalidDimensions is returned for zero, negative or oversized grids.
var ErrInvalidDimensions = errors.New("invalid dimensions")

// maxUnorm16 is the full-scale value of a 16-bit normalized sample.
const maxUnorm16 = 65535.0

// DecodeHeightmap decodes an image and converts it to 16-bit grayscale.
// 8-bit and color images are widened through the standard color model.
func DecodeHeightmap(r io.Reader) (*image.Gray16, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding heightmap: %w", err)
	}
	if g, ok := img.(*image.Gray16); ok && g.Bounds().Min == (image.Point{}) {
		return g, nil
	}

	b := img.Bounds()
	g := image.NewGray16(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(g, g.Bounds(), img, b.Min, xdraw.Src)
	return g, nil
}

// LoadGray16 reads a heightmap from disk and resamples it to width x height.
// A zero width or height keeps the source size. Files with a .gat
// extension are read as altitude tables.
func LoadGray16(path string, width, height int) (*image.Gray16, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	var src *image.Gray16
	if strings.EqualFold(filepath.Ext(path), ".gat") {
		gat, err := ParseGATFile(path)
		if err != nil {
			return nil, err
		}
		src = FieldToGray16(gat.Heightmap())
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening heightmap: %w", err)
		}
		defer f.Close()
		if src, err = DecodeHeightmap(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	return Resize(src, width, height), nil
}

// LoadHeightmap reads a heightmap and returns it normalized to [0, 1].
func LoadHeightmap(path string, width, height int) (*heightfield.Field, error) {
	g, err := LoadGray16(path, width, height)
	if err != nil {
		return nil, err
	}
	return ToField(g), nil
}

// Resize resamples img with a Catmull-Rom filter. Zero dimensions and
// an unchanged size return img as is.
func Resize(img *image.Gray16, width, height int) *image.Gray16 {
	b := img.Bounds()
	if width == 0 || height == 0 || (width == b.Dx() && height == b.Dy()) {
		return img
	}
	dst := image.NewGray16(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// ToField converts 16-bit samples to floats in [0, 1].
func ToField(img *image.Gray16) *heightfield.Field {
	b := img.Bounds()
	f := heightfield.New(b.Dx(), b.Dy())
	for y := range f.Height {
		for x := range f.Width {
			f.Set(x, y, float32(img.Gray16At(b.Min.X+x, b.Min.Y+y).Y)/maxUnorm16)
		}
	}
	return f
}

// FieldToGray16 quantizes a [0, 1] field to 16 bits, clamping outliers.
func FieldToGray16(f *heightfield.Field) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, f.Width, f.Height))
	for y := range f.Height {
		for x := range f.Width {
			v := f.At(x, y)
			switch {
			case math.IsNaN(float64(v)) || v < 0:
				v = 0
			case v > 1:
				v = 1
			}
			i := img.PixOffset(x, y)
			u := uint16(v*maxUnorm16 + 0.5)
			img.Pix[i] = uint8(u >> 8)
			img.Pix[i+1] = uint8(u)
		}
	}
	return img
}
