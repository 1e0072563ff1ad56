//go:build !unix

package scratch

import (
	"fmt"
	"os"
)

// mapFile reads path into memory where mmap is unavailable.
func mapFile(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: empty file", ErrBadHeader)
	}
	return data, func() error { return nil }, nil
}
