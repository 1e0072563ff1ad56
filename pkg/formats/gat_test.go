package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// createTestGAT creates a minimal valid GAT file. heights[i] is applied
// to all four corners of cell i; missing entries are 0.
func createTestGAT(width, height uint32, heights []float32) []byte {
	buf := new(bytes.Buffer)

	buf.WriteString("GRAT")

	// Version 1.2 (stored as minor, major)
	buf.WriteByte(2)
	buf.WriteByte(1)

	binary.Write(buf, binary.LittleEndian, width)
	binary.Write(buf, binary.LittleEndian, height)

	cellCount := int(width * height)
	for i := 0; i < cellCount; i++ {
		var h float32
		if i < len(heights) {
			h = heights[i]
		}
		for j := 0; j < 4; j++ {
			binary.Write(buf, binary.LittleEndian, h)
		}
		binary.Write(buf, binary.LittleEndian, uint32(0))
	}

	return buf.Bytes()
}

func TestParseGAT_ValidFile(t *testing.T) {
	data := createTestGAT(4, 4, nil)

	gat, err := ParseGAT(data)
	if err != nil {
		t.Fatalf("ParseGAT failed: %v", err)
	}

	if gat.Version.Major != 1 || gat.Version.Minor != 2 {
		t.Errorf("expected version 1.2, got %s", gat.Version)
	}
	if gat.Width != 4 || gat.Height != 4 {
		t.Errorf("expected 4x4, got %dx%d", gat.Width, gat.Height)
	}
	if len(gat.Cells) != 16 {
		t.Errorf("expected 16 cells, got %d", len(gat.Cells))
	}
}

func TestParseGAT_InvalidMagic(t *testing.T) {
	data := []byte("XXXX\x02\x01\x04\x00\x00\x00\x04\x00\x00\x00")

	if _, err := ParseGAT(data); !errors.Is(err, ErrInvalidGATMagic) {
		t.Errorf("expected ErrInvalidGATMagic, got %v", err)
	}
}

func TestParseGAT_TruncatedData(t *testing.T) {
	if _, err := ParseGAT([]byte("GRAT")); !errors.Is(err, ErrTruncatedGATData) {
		t.Errorf("expected ErrTruncatedGATData, got %v", err)
	}

	data := createTestGAT(2, 2, nil)
	if _, err := ParseGAT(data[:len(data)-3]); !errors.Is(err, ErrTruncatedGATData) {
		t.Errorf("expected ErrTruncatedGATData for short cells, got %v", err)
	}
}

func TestParseGAT_BadDimensions(t *testing.T) {
	data := createTestGAT(0, 4, nil)
	if _, err := ParseGAT(data); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("expected ErrInvalidDimensions, got %v", err)
	}
}

func TestParseGAT_UnsupportedVersion(t *testing.T) {
	data := createTestGAT(2, 2, nil)
	data[5] = 9
	if _, err := ParseGAT(data); !errors.Is(err, ErrUnsupportedGATVersion) {
		t.Errorf("expected ErrUnsupportedGATVersion, got %v", err)
	}
}

func TestGAT_GetCell(t *testing.T) {
	gat, _ := ParseGAT(createTestGAT(4, 4, nil))

	if gat.GetCell(2, 3) == nil {
		t.Error("GetCell(2, 3) returned nil for valid coordinates")
	}
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}} {
		if gat.GetCell(c[0], c[1]) != nil {
			t.Errorf("GetCell(%d, %d) should return nil", c[0], c[1])
		}
	}
}

func TestGATCell_AverageHeight(t *testing.T) {
	cell := GATCell{
		Heights: [4]float32{10.0, 20.0, 30.0, 40.0},
	}
	if avg := cell.AverageHeight(); avg != 25.0 {
		t.Errorf("expected average 25.0, got %f", avg)
	}
}

func TestGAT_Heightmap(t *testing.T) {
	// Cell (0,0) is lowest (largest positive altitude), cell (1,1) highest.
	gat, err := ParseGAT(createTestGAT(2, 2, []float32{10, 0, 0, -10}))
	if err != nil {
		t.Fatalf("ParseGAT failed: %v", err)
	}
	hm := gat.Heightmap()
	if hm.Width != 2 || hm.Height != 2 {
		t.Fatalf("expected 2x2 heightmap, got %dx%d", hm.Width, hm.Height)
	}

	// GAT row 0 is the southern edge, so it lands on the last field row.
	if got := hm.At(0, 1); got != 0 {
		t.Errorf("lowest cell = %v, want 0", got)
	}
	if got := hm.At(1, 0); got != 1 {
		t.Errorf("highest cell = %v, want 1", got)
	}
	if got := hm.At(1, 1); got != 0.5 {
		t.Errorf("middle cell = %v, want 0.5", got)
	}
}

func TestGAT_HeightmapFlat(t *testing.T) {
	gat, _ := ParseGAT(createTestGAT(3, 2, []float32{5, 5, 5, 5, 5, 5}))
	for i, v := range gat.Heightmap().Data {
		if v != 0 {
			t.Errorf("sample %d = %v, want 0", i, v)
		}
	}
}
