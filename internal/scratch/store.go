// Package scratch persists per-azimuth horizon fields between the
// horizon and compression stages.
//
// Fields are written as .npy files named horizon_<azimuth>.npy and read
// back through memory maps, so compression only touches the rows it is
// working on.
package scratch

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
)

// Scratch errors.
var (
	ErrMissingAzimuth = errors.New("scratch: missing azimuth field")
	ErrBadHeader      = errors.New("scratch: malformed npy file")
)

// Store is a directory of horizon fields keyed by azimuth.
type Store struct {
	Dir string
}

// New creates dir if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Path returns the file that holds the field for azimuth.
func (s *Store) Path(azimuth int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("horizon_%d.npy", azimuth))
}

// Save writes f for azimuth. The file is synced and renamed into place,
// so a present file is always complete.
func (s *Store) Save(azimuth int, f *heightfield.Field) error {
	path := s.Path(azimuth)
	tmp, err := os.CreateTemp(s.Dir, fmt.Sprintf(".horizon_%d_*.tmp", azimuth))
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	err = writeNPY(tmp, f)
	if err == nil {
		err = tmp.Sync()
	}
	err = multierr.Append(err, tmp.Close())
	if err == nil {
		err = os.Rename(tmp.Name(), path)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Open maps the field stored for azimuth.
func (s *Store) Open(azimuth int) (*Mapped, error) {
	path := s.Path(azimuth)
	data, release, err := mapFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: azimuth %d (%s)", ErrMissingAzimuth, azimuth, path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	height, width, offset, err := parseNPYHeader(data)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("%s: %w", path, err), release())
	}
	return &Mapped{
		Path:    path,
		height:  height,
		width:   width,
		payload: data[offset : offset+4*height*width],
		release: release,
	}, nil
}

// OpenAll opens every azimuth in order. Any missing field fails the whole
// call and already opened fields are closed again.
func (s *Store) OpenAll(azimuths []int) ([]*Mapped, error) {
	out := make([]*Mapped, 0, len(azimuths))
	for _, a := range azimuths {
		m, err := s.Open(a)
		if err != nil {
			return nil, multierr.Append(err, CloseAll(out))
		}
		out = append(out, m)
	}
	return out, nil
}

// Remove deletes the files for the given azimuths. Files that are
// already gone are ignored.
func (s *Store) Remove(azimuths []int) error {
	var err error
	for _, a := range azimuths {
		if rmErr := os.Remove(s.Path(a)); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = multierr.Append(err, rmErr)
		}
	}
	return err
}

// Mapped is a read-only view of one stored field.
type Mapped struct {
	Path    string
	height  int
	width   int
	payload []byte
	release func() error
}

// Shape returns (height, width).
func (m *Mapped) Shape() (int, int) {
	return m.height, m.width
}

// ReadRow decodes row y into dst.
func (m *Mapped) ReadRow(y int, dst []float32) error {
	if y < 0 || y >= m.height {
		return fmt.Errorf("%s: row %d outside %d rows", m.Path, y, m.height)
	}
	if len(dst) != m.width {
		return fmt.Errorf("%s: %w: row buffer %d, width %d", m.Path, heightfield.ErrShapeMismatch, len(dst), m.width)
	}
	row := m.payload[y*m.width*4 : (y+1)*m.width*4]
	for x := range dst {
		dst[x] = math.Float32frombits(binary.LittleEndian.Uint32(row[x*4:]))
	}
	return nil
}

// Field copies the whole mapping into memory.
func (m *Mapped) Field() *heightfield.Field {
	f := heightfield.New(m.width, m.height)
	for y := range m.height {
		m.ReadRow(y, f.Row(y))
	}
	return f
}

// Close releases the mapping. It is safe to call more than once.
func (m *Mapped) Close() error {
	if m.release == nil {
		return nil
	}
	err := m.release()
	m.release = nil
	m.payload = nil
	return err
}

// CloseAll closes every mapping and combines the errors.
func CloseAll(ms []*Mapped) error {
	var err error
	for _, m := range ms {
		err = multierr.Append(err, m.Close())
	}
	return err
}
