package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sort"

	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
)

// KTX2 format errors.
var (
	ErrInvalidKTX2Magic  = errors.New("invalid KTX2 identifier")
	ErrTruncatedKTX2Data = errors.New("truncated KTX2 data")
	ErrUnsupportedKTX2   = errors.New("unsupported KTX2 feature")
	ErrLayerOutOfRange   = errors.New("KTX2 layer out of range")
	ErrLayerDataSize     = errors.New("KTX2 layer data size mismatch")
)

// ktx2Identifier is the 12-byte file signature «KTX 20»\r\n\x1A\n.
var ktx2Identifier = [12]byte{0xAB, 'K', 'T', 'X', ' ', '2', '0', 0xBB, '\r', '\n', 0x1A, '\n'}

// VkFormat is a Vulkan pixel format enumerant.
type VkFormat uint32

// Formats produced by this package.
const (
	VkFormatUndefined VkFormat = 0
	VkFormatR16Unorm  VkFormat = 70
	VkFormatR32Sfloat VkFormat = 100
)

// String returns the Vulkan name of the format.
func (f VkFormat) String() string {
	switch f {
	case VkFormatR16Unorm:
		return "VK_FORMAT_R16_UNORM"
	case VkFormatR32Sfloat:
		return "VK_FORMAT_R32_SFLOAT"
	default:
		return fmt.Sprintf("VkFormat(%d)", uint32(f))
	}
}

// TypeSize returns the size in bytes of one texel, or 0 if unknown.
func (f VkFormat) TypeSize() int {
	switch f {
	case VkFormatR16Unorm:
		return 2
	case VkFormatR32Sfloat:
		return 4
	default:
		return 0
	}
}

// Fixed layout offsets for a single-level, single-sample file.
const (
	ktx2HeaderSize     = 12 + 9*4
	ktx2IndexSize      = 4*4 + 2*8
	ktx2LevelEntrySize = 3 * 8
	ktx2DFDBlockSize   = 24 + 16
	ktx2DFDSize        = 4 + ktx2DFDBlockSize
)

// KTX2 is a single-level, uncompressed, 2-D KTX 2.0 texture.
// Layers is 0 for a non-array texture.
type KTX2 struct {
	Format    VkFormat
	Width     uint32
	Height    uint32
	Layers    uint32
	KeyValues map[string]string
	// Data holds every layer of mip level 0 back to back.
	Data []byte
}

// LayerCount returns the number of images stored, treating a
// non-array texture as one layer.
func (k *KTX2) LayerCount() int {
	return max(int(k.Layers), 1)
}

// layerSize returns the byte size of one layer.
func (k *KTX2) layerSize() int {
	return int(k.Width) * int(k.Height) * k.Format.TypeSize()
}

// Layer returns the raw bytes of one layer as a view.
func (k *KTX2) Layer(i int) ([]byte, error) {
	if i < 0 || i >= k.LayerCount() {
		return nil, fmt.Errorf("%w: %d of %d", ErrLayerOutOfRange, i, k.LayerCount())
	}
	n := k.layerSize()
	return k.Data[i*n : (i+1)*n], nil
}

// LayerField decodes one layer into a field. R16 samples are scaled to
// [0, 1]; R32 samples are returned as stored.
func (k *KTX2) LayerField(i int) (*heightfield.Field, error) {
	raw, err := k.Layer(i)
	if err != nil {
		return nil, err
	}
	f := heightfield.New(int(k.Width), int(k.Height))
	switch k.Format {
	case VkFormatR16Unorm:
		for j := range f.Data {
			f.Data[j] = float32(binary.LittleEndian.Uint16(raw[2*j:])) / maxUnorm16
		}
	case VkFormatR32Sfloat:
		for j := range f.Data {
			f.Data[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*j:]))
		}
	default:
		return nil, fmt.Errorf("%w: format %s", ErrUnsupportedKTX2, k.Format)
	}
	return f, nil
}

// NewR16Texture wraps a 16-bit heightmap as a non-array R16_UNORM texture.
func NewR16Texture(img *image.Gray16) *KTX2 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]byte, 0, w*h*2)
	for y := range h {
		for x := range w {
			data = binary.LittleEndian.AppendUint16(data, img.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
		}
	}
	return &KTX2{
		Format: VkFormatR16Unorm,
		Width:  uint32(w),
		Height: uint32(h),
		Data:   data,
	}
}

// NewR32ArrayTexture stores each depth slice of v as one layer of an
// R32_SFLOAT array texture.
func NewR32ArrayTexture(v *heightfield.Volume) *KTX2 {
	data := make([]byte, 0, len(v.Data)*4)
	for d := range v.Depth {
		for _, s := range v.Layer(d).Data {
			data = binary.LittleEndian.AppendUint32(data, math.Float32bits(s))
		}
	}
	return &KTX2{
		Format: VkFormatR32Sfloat,
		Width:  uint32(v.Width),
		Height: uint32(v.Height),
		Layers: uint32(v.Depth),
		Data:   data,
	}
}

// Encode serializes the texture. A KTXwriter entry is added unless
// one is already present.
func (k *KTX2) Encode() ([]byte, error) {
	typeSize := k.Format.TypeSize()
	if typeSize == 0 {
		return nil, fmt.Errorf("%w: format %s", ErrUnsupportedKTX2, k.Format)
	}
	if k.Width == 0 || k.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, k.Width, k.Height)
	}
	if want := k.LayerCount() * k.layerSize(); len(k.Data) != want {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", ErrLayerDataSize, len(k.Data), want)
	}

	kvd := encodeKeyValues(k.KeyValues)

	dfdOffset := ktx2HeaderSize + ktx2IndexSize + ktx2LevelEntrySize
	kvdOffset := dfdOffset + ktx2DFDSize
	levelOffset := align(kvdOffset+len(kvd), 4)

	buf := bytes.NewBuffer(make([]byte, 0, levelOffset+len(k.Data)))
	le := binary.LittleEndian

	buf.Write(ktx2Identifier[:])
	binary.Write(buf, le, [9]uint32{
		uint32(k.Format),
		uint32(typeSize),
		k.Width,
		k.Height,
		0, // pixelDepth
		k.Layers,
		1, // faceCount
		1, // levelCount
		0, // supercompressionScheme
	})

	binary.Write(buf, le, [4]uint32{
		uint32(dfdOffset), ktx2DFDSize,
		uint32(kvdOffset), uint32(len(kvd)),
	})
	binary.Write(buf, le, [2]uint64{0, 0}) // no supercompression global data

	binary.Write(buf, le, [3]uint64{
		uint64(levelOffset),
		uint64(len(k.Data)),
		uint64(len(k.Data)),
	})

	buf.Write(encodeDFD(k.Format))
	buf.Write(kvd)
	buf.Write(make([]byte, levelOffset-buf.Len()))
	buf.Write(k.Data)

	return buf.Bytes(), nil
}

// WriteFile encodes the texture and writes it to path.
func (k *KTX2) WriteFile(path string) error {
	data, err := k.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing KTX2 file: %w", err)
	}
	return nil
}

// encodeDFD builds a basic data format descriptor with one red sample.
func encodeDFD(format VkFormat) []byte {
	typeSize := format.TypeSize()
	le := binary.LittleEndian

	var channelType uint8
	var lower, upper uint32
	switch format {
	case VkFormatR32Sfloat:
		channelType = 0x80 | 0x40 // float, signed
		lower = math.Float32bits(-1)
		upper = math.Float32bits(1)
	default:
		lower = 0
		upper = uint32(1)<<(8*typeSize) - 1
	}

	b := make([]byte, 0, ktx2DFDSize)
	b = le.AppendUint32(b, ktx2DFDSize)
	b = le.AppendUint32(b, 0) // vendorId 0 (Khronos), descriptorType 0 (basic)
	b = le.AppendUint16(b, 2) // versionNumber
	b = le.AppendUint16(b, ktx2DFDBlockSize)
	b = append(b,
		1, // KHR_DF_MODEL_RGBSDA
		1, // KHR_DF_PRIMARIES_BT709
		1, // KHR_DF_TRANSFER_LINEAR
		0, // straight alpha
	)
	// texelBlockDimension, then bytesPlane0..7
	b = append(b, 0, 0, 0, 0)
	b = append(b, uint8(typeSize), 0, 0, 0, 0, 0, 0, 0)

	b = le.AppendUint16(b, 0) // bitOffset
	b = append(b, uint8(8*typeSize-1), channelType)
	b = append(b, 0, 0, 0, 0) // samplePosition
	b = le.AppendUint32(b, lower)
	b = le.AppendUint32(b, upper)
	return b
}

// encodeKeyValues writes sorted, NUL-terminated entries padded to 4 bytes.
func encodeKeyValues(kv map[string]string) []byte {
	entries := make(map[string]string, len(kv)+1)
	for k, v := range kv {
		entries[k] = v
	}
	if _, ok := entries["KTXwriter"]; !ok {
		entries["KTXwriter"] = "clipmaptool"
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b []byte
	for _, k := range keys {
		n := len(k) + 1 + len(entries[k]) + 1
		b = binary.LittleEndian.AppendUint32(b, uint32(n))
		b = append(b, k...)
		b = append(b, 0)
		b = append(b, entries[k]...)
		b = append(b, 0)
		b = append(b, make([]byte, align(n, 4)-n)...)
	}
	return b
}

func align(n, a int) int {
	return (n + a - 1) / a * a
}

// ParseKTX2 parses a single-level, uncompressed KTX2 file.
func ParseKTX2(data []byte) (*KTX2, error) {
	if len(data) < ktx2HeaderSize+ktx2IndexSize+ktx2LevelEntrySize {
		return nil, ErrTruncatedKTX2Data
	}
	if !bytes.Equal(data[:12], ktx2Identifier[:]) {
		return nil, ErrInvalidKTX2Magic
	}

	r := bytes.NewReader(data[12:])
	le := binary.LittleEndian

	var hdr [9]uint32
	if err := binary.Read(r, le, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedKTX2Data)
	}
	k := &KTX2{
		Format: VkFormat(hdr[0]),
		Width:  hdr[2],
		Height: hdr[3],
		Layers: hdr[5],
	}
	depth, faces, scheme := hdr[4], hdr[6], hdr[8]

	switch {
	case k.Format.TypeSize() == 0:
		return nil, fmt.Errorf("%w: format %s", ErrUnsupportedKTX2, k.Format)
	case depth > 1:
		return nil, fmt.Errorf("%w: depth %d", ErrUnsupportedKTX2, depth)
	case faces != 1:
		return nil, fmt.Errorf("%w: %d faces", ErrUnsupportedKTX2, faces)
	case scheme != 0:
		return nil, fmt.Errorf("%w: supercompression scheme %d", ErrUnsupportedKTX2, scheme)
	case k.Width == 0 || k.Height == 0:
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, k.Width, k.Height)
	}

	var index [4]uint32
	var sgd [2]uint64
	if err := binary.Read(r, le, &index); err != nil {
		return nil, fmt.Errorf("%w: reading index", ErrTruncatedKTX2Data)
	}
	if err := binary.Read(r, le, &sgd); err != nil {
		return nil, fmt.Errorf("%w: reading index", ErrTruncatedKTX2Data)
	}

	// Only level 0 is loaded; further levels are skipped.
	var level [3]uint64
	if err := binary.Read(r, le, &level); err != nil {
		return nil, fmt.Errorf("%w: reading level index", ErrTruncatedKTX2Data)
	}

	start, length := level[0], level[1]
	if start+length > uint64(len(data)) {
		return nil, fmt.Errorf("%w: level 0 at %d+%d of %d", ErrTruncatedKTX2Data, start, length, len(data))
	}
	k.Data = data[start : start+length]
	if want := k.LayerCount() * k.layerSize(); len(k.Data) != want {
		return nil, fmt.Errorf("%w: have %d bytes, want %d", ErrLayerDataSize, len(k.Data), want)
	}

	kvdOffset, kvdLength := uint64(index[2]), uint64(index[3])
	if kvdOffset+kvdLength > uint64(len(data)) {
		return nil, fmt.Errorf("%w: key/value data", ErrTruncatedKTX2Data)
	}
	kv, err := parseKeyValues(data[kvdOffset : kvdOffset+kvdLength])
	if err != nil {
		return nil, err
	}
	k.KeyValues = kv

	return k, nil
}

func parseKeyValues(b []byte) (map[string]string, error) {
	kv := make(map[string]string)
	for len(b) >= 4 {
		n := int(binary.LittleEndian.Uint32(b))
		b = b[4:]
		if n > len(b) {
			return nil, fmt.Errorf("%w: key/value entry", ErrTruncatedKTX2Data)
		}
		entry := b[:n]
		if sep := bytes.IndexByte(entry, 0); sep >= 0 {
			kv[string(entry[:sep])] = string(bytes.TrimSuffix(entry[sep+1:], []byte{0}))
		}
		b = b[min(align(n, 4), len(b)):]
	}
	return kv, nil
}

// ParseKTX2File parses a KTX2 file from disk.
func ParseKTX2File(path string) (*KTX2, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading KTX2 file: %w", err)
	}
	return ParseKTX2(data)
}
