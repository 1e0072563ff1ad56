package formats

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
)

func gradient16(w, h int) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16((x + y*w) * 1000)})
		}
	}
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "height.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecodeHeightmap_Gray16(t *testing.T) {
	src := gradient16(4, 3)
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	got, err := DecodeHeightmap(&buf)
	if err != nil {
		t.Fatalf("DecodeHeightmap failed: %v", err)
	}
	if !bytes.Equal(got.Pix, src.Pix) {
		t.Error("decoded pixels differ from source")
	}
}

func TestDecodeHeightmap_Gray8IsWidened(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.SetGray(0, 0, color.Gray{Y: 0})
	src.SetGray(1, 0, color.Gray{Y: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	got, err := DecodeHeightmap(&buf)
	if err != nil {
		t.Fatalf("DecodeHeightmap failed: %v", err)
	}
	if v := got.Gray16At(1, 0).Y; v != 0xFFFF {
		t.Errorf("white sample = %#x, want 0xffff", v)
	}
	if v := got.Gray16At(0, 0).Y; v != 0 {
		t.Errorf("black sample = %#x, want 0", v)
	}
}

func TestDecodeHeightmap_Garbage(t *testing.T) {
	if _, err := DecodeHeightmap(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestLoadHeightmap_KeepsSize(t *testing.T) {
	path := writePNG(t, gradient16(5, 4))

	hm, err := LoadHeightmap(path, 0, 0)
	if err != nil {
		t.Fatalf("LoadHeightmap failed: %v", err)
	}
	if hm.Width != 5 || hm.Height != 4 {
		t.Fatalf("got %dx%d, want 5x4", hm.Width, hm.Height)
	}
	if want := float32(3000) / 65535; hm.At(3, 0) != want {
		t.Errorf("At(3,0) = %v, want %v", hm.At(3, 0), want)
	}
}

func TestLoadHeightmap_Resizes(t *testing.T) {
	flat := image.NewGray16(image.Rect(0, 0, 8, 8))
	for i := range flat.Pix {
		flat.Pix[i] = 0x80
	}
	path := writePNG(t, flat)

	hm, err := LoadHeightmap(path, 3, 5)
	if err != nil {
		t.Fatalf("LoadHeightmap failed: %v", err)
	}
	if hm.Width != 3 || hm.Height != 5 {
		t.Fatalf("got %dx%d, want 3x5", hm.Width, hm.Height)
	}
	want := float32(0x8080) / 65535
	for i, v := range hm.Data {
		if math.Abs(float64(v-want)) > 2.0/65535 {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestLoadHeightmap_Errors(t *testing.T) {
	if _, err := LoadHeightmap("missing.png", 0, 0); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadHeightmap("x.png", -1, 4); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("expected ErrInvalidDimensions, got %v", err)
	}
}

func TestLoadHeightmap_GAT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.gat")
	if err := os.WriteFile(path, createTestGAT(2, 1, []float32{0, -4}), 0o644); err != nil {
		t.Fatal(err)
	}

	hm, err := LoadHeightmap(path, 0, 0)
	if err != nil {
		t.Fatalf("LoadHeightmap failed: %v", err)
	}
	if hm.At(0, 0) != 0 || hm.At(1, 0) != 1 {
		t.Errorf("got %v, want [0 1]", hm.Data)
	}
}

func TestFieldToGray16_Clamps(t *testing.T) {
	f := heightfield.New(4, 1)
	copy(f.Data, []float32{-0.5, 0, 1, 2})

	img := FieldToGray16(f)
	want := []uint16{0, 0, 0xFFFF, 0xFFFF}
	for x, w := range want {
		if got := img.Gray16At(x, 0).Y; got != w {
			t.Errorf("x=%d: got %#x, want %#x", x, got, w)
		}
	}

	back := ToField(img)
	if back.At(2, 0) != 1 {
		t.Errorf("round trip of 1.0 = %v", back.At(2, 0))
	}
}
