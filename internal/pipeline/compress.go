package pipeline

import (
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/Faultbox/clipmap-tools/internal/scratch"
	"github.com/Faultbox/clipmap-tools/pkg/fourier"
	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
)

// CompressStored maps the stored field of every azimuth and compresses
// them to k+1 coefficients per texel. A missing azimuth is an error.
func CompressStored(store *scratch.Store, azimuths []int, k, workers int) (vol *heightfield.Volume, err error) {
	if err := fourier.CheckBudget(k, len(azimuths)); err != nil {
		return nil, err
	}

	mapped, err := store.OpenAll(azimuths)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, scratch.CloseAll(mapped))
		if err != nil {
			vol = nil
		}
	}()

	sources := lo.Map(mapped, func(m *scratch.Mapped, _ int) fourier.RowSource {
		return m
	})
	return fourier.Compress(sources, k, workers)
}
