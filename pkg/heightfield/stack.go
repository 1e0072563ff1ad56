package heightfield

import "fmt"

// Stack lays equally sized parts end to end in input order, producing a
// buffer whose leading axis indexes the parts. Values are copied unchanged.
func Stack[T any](parts [][]T) ([]T, error) {
	if len(parts) == 0 {
		return nil, ErrEmpty
	}
	n := len(parts[0])
	out := make([]T, len(parts)*n)
	for i, p := range parts {
		if len(p) != n {
			return nil, fmt.Errorf("%w: part %d has %d elements, want %d", ErrShapeMismatch, i, len(p), n)
		}
		copy(out[i*n:], p)
	}
	return out, nil
}

// StackRows builds a field whose row i is rows[i].
func StackRows(rows [][]float32) (*Field, error) {
	data, err := Stack(rows)
	if err != nil {
		return nil, err
	}
	return &Field{Width: len(rows[0]), Height: len(rows), Data: data}, nil
}
