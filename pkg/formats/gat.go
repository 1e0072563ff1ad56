package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
)

// GAT format errors.
var (
	ErrInvalidGATMagic       = errors.New("invalid GAT magic: expected 'GRAT'")
	ErrUnsupportedGATVersion = errors.New("unsupported GAT version")
	ErrTruncatedGATData      = errors.New("truncated GAT data")
)

// GATVersion represents the GAT file version.
type GATVersion struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v GATVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// GATCell represents a single cell in the GAT grid.
type GATCell struct {
	// Heights contains the altitude of each corner:
	// [0] = bottom-left, [1] = bottom-right, [2] = top-left, [3] = top-right
	Heights [4]float32
	Type    uint32
}

// AverageHeight returns the average altitude of all four corners.
func (c *GATCell) AverageHeight() float32 {
	return (c.Heights[0] + c.Heights[1] + c.Heights[2] + c.Heights[3]) / 4.0
}

// GAT is a parsed Ground Altitude Table: a per-cell altitude grid.
type GAT struct {
	Version GATVersion
	Width   uint32
	Height  uint32
	Cells   []GATCell
}

// GetCell returns the cell at the given coordinates.
// Returns nil if coordinates are out of bounds.
func (g *GAT) GetCell(x, y int) *GATCell {
	if x < 0 || y < 0 || x >= int(g.Width) || y >= int(g.Height) {
		return nil
	}
	return &g.Cells[y*int(g.Width)+x]
}

// Heightmap converts cell altitudes to a field normalized to [0, 1].
// GAT altitudes grow downward, so they are negated first. Rows are
// flipped so that row 0 is the northern edge, matching image order.
// A flat table maps to all zeros.
func (g *GAT) Heightmap() *heightfield.Field {
	w, h := int(g.Width), int(g.Height)
	f := heightfield.New(w, h)
	for y := range h {
		for x := range w {
			f.Set(x, h-1-y, -g.GetCell(x, y).AverageHeight())
		}
	}

	lo, hi := f.MinMax()
	span := hi - lo
	for i, v := range f.Data {
		if span > 0 {
			f.Data[i] = (v - lo) / span
		} else {
			f.Data[i] = 0
		}
	}
	return f
}

// ParseGAT parses a GAT file from raw bytes.
func ParseGAT(data []byte) (*GAT, error) {
	if len(data) < 14 {
		return nil, ErrTruncatedGATData
	}

	if string(data[0:4]) != "GRAT" {
		return nil, ErrInvalidGATMagic
	}

	// Version is stored as [minor, major]
	version := GATVersion{
		Major: data[5],
		Minor: data[4],
	}

	// Cell layout is identical across 1.x to 3.x
	if version.Major < 1 || version.Major > 3 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGATVersion, version)
	}

	r := bytes.NewReader(data[6:])

	var width, height uint32
	if err := binary.Read(r, binary.LittleEndian, &width); err != nil {
		return nil, fmt.Errorf("%w: reading width", ErrTruncatedGATData)
	}
	if err := binary.Read(r, binary.LittleEndian, &height); err != nil {
		return nil, fmt.Errorf("%w: reading height", ErrTruncatedGATData)
	}

	if width == 0 || height == 0 || width > 4096 || height > 4096 {
		return nil, fmt.Errorf("%w: GAT %dx%d", ErrInvalidDimensions, width, height)
	}

	cellCount := int(width * height)
	gat := &GAT{
		Version: version,
		Width:   width,
		Height:  height,
		Cells:   make([]GATCell, cellCount),
	}

	for i := 0; i < cellCount; i++ {
		cell, err := parseGATCell(r)
		if err != nil {
			return nil, fmt.Errorf("parsing cell %d: %w", i, err)
		}
		gat.Cells[i] = cell
	}

	return gat, nil
}

// parseGATCell parses a single GAT cell: four corner heights and a type.
func parseGATCell(r *bytes.Reader) (GATCell, error) {
	var cell GATCell
	if err := binary.Read(r, binary.LittleEndian, &cell.Heights); err != nil {
		return GATCell{}, fmt.Errorf("%w: reading heights", ErrTruncatedGATData)
	}
	if err := binary.Read(r, binary.LittleEndian, &cell.Type); err != nil {
		return GATCell{}, fmt.Errorf("%w: reading cell type", ErrTruncatedGATData)
	}
	return cell, nil
}

// ParseGATFile parses a GAT file from disk.
func ParseGATFile(path string) (*GAT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GAT file: %w", err)
	}
	return ParseGAT(data)
}
