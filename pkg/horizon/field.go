package horizon

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
)

// FieldTangents runs RowTangents over every row of f, looking toward
// increasing x. Rows are solved concurrently on up to workers goroutines
// (GOMAXPROCS when workers <= 0) and gathered back in order.
func FieldTangents(f *heightfield.Field, workers int) (*heightfield.Field, error) {
	if f.Height == 0 {
		return heightfield.New(f.Width, 0), nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rows := make([][]float32, f.Height)
	var g errgroup.Group
	g.SetLimit(workers)
	for y := range f.Height {
		g.Go(func() error {
			rows[y] = RowTangents(f.Row(y))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return heightfield.StackRows(rows)
}
