package scratch

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
)

const (
	npyMagic = "\x93NUMPY"
	// Headers are padded so the payload starts on this boundary.
	npyAlign = 64
)

var shapeRe = regexp.MustCompile(`'shape':\s*\((\d+),\s*(\d+),?\s*\)`)

// writeNPY encodes f as a version 1.0 .npy array of little-endian float32.
func writeNPY(w io.Writer, f *heightfield.Field) error {
	dict := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", f.Height, f.Width)

	// magic(6) + version(2) + length(2) + dict + padding + '\n'
	total := 10 + len(dict) + 1
	pad := (npyAlign - total%npyAlign) % npyAlign
	header := dict + strings.Repeat(" ", pad) + "\n"

	buf := bytes.NewBuffer(make([]byte, 0, 10+len(header)+4*len(f.Data)))
	buf.WriteString(npyMagic)
	buf.WriteByte(1)
	buf.WriteByte(0)
	binary.Write(buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)

	var b [4]byte
	for _, v := range f.Data {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf.Write(b[:])
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// parseNPYHeader validates a float32 C-order 2-D header and returns the
// shape and the offset of the payload.
func parseNPYHeader(data []byte) (height, width, offset int, err error) {
	if len(data) < 10 || string(data[:6]) != npyMagic {
		return 0, 0, 0, fmt.Errorf("%w: bad magic", ErrBadHeader)
	}

	var hlen int
	switch data[6] {
	case 1:
		hlen = int(binary.LittleEndian.Uint16(data[8:10]))
		offset = 10
	case 2, 3:
		if len(data) < 12 {
			return 0, 0, 0, fmt.Errorf("%w: truncated", ErrBadHeader)
		}
		hlen = int(binary.LittleEndian.Uint32(data[8:12]))
		offset = 12
	default:
		return 0, 0, 0, fmt.Errorf("%w: version %d.%d", ErrBadHeader, data[6], data[7])
	}
	if offset+hlen > len(data) {
		return 0, 0, 0, fmt.Errorf("%w: truncated", ErrBadHeader)
	}
	header := string(data[offset : offset+hlen])
	offset += hlen

	if !strings.Contains(header, "'descr': '<f4'") {
		return 0, 0, 0, fmt.Errorf("%w: dtype is not <f4", ErrBadHeader)
	}
	if !strings.Contains(header, "'fortran_order': False") {
		return 0, 0, 0, fmt.Errorf("%w: fortran order", ErrBadHeader)
	}
	m := shapeRe.FindStringSubmatch(header)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("%w: shape is not 2-D", ErrBadHeader)
	}
	height, _ = strconv.Atoi(m[1])
	width, _ = strconv.Atoi(m[2])

	if want := offset + 4*height*width; len(data) < want {
		return 0, 0, 0, fmt.Errorf("%w: payload %d bytes, want %d", ErrBadHeader, len(data)-offset, want-offset)
	}
	return height, width, offset, nil
}
