package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/clipmap-tools/internal/config"
	"github.com/Faultbox/clipmap-tools/internal/logger"
	"github.com/Faultbox/clipmap-tools/internal/preview"
	"github.com/Faultbox/clipmap-tools/internal/scratch"
	"github.com/Faultbox/clipmap-tools/pkg/fourier"
	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
	"github.com/Faultbox/clipmap-tools/pkg/horizon"
)

// Options controls one bake.
type Options struct {
	Azimuths     int
	Coefficients int
	Workers      int
	RowWorkers   int
	ScratchDir   string
	KeepScratch  bool
	// PreviewDir enables PNG previews of every coefficient layer.
	PreviewDir    string
	PreviewPrefix string
}

// OptionsFromConfig builds bake options for a coefficient budget k.
func OptionsFromConfig(cfg *config.Config, k int) Options {
	return Options{
		Azimuths:     cfg.Horizon.Azimuths,
		Coefficients: k,
		Workers:      cfg.Horizon.Workers,
		RowWorkers:   cfg.EffectiveRowWorkers(),
		ScratchDir:   cfg.Horizon.ScratchDir,
		KeepScratch:  cfg.Horizon.KeepScratch,
		PreviewDir:   cfg.Output.PreviewDir,
	}
}

// Bake computes the compressed horizon volume of hm. Scratch fields are
// removed when Bake returns unless KeepScratch is set.
func Bake(ctx context.Context, hm *heightfield.Field, opts Options) (vol *heightfield.Volume, err error) {
	azimuths, err := horizon.Azimuths(opts.Azimuths)
	if err != nil {
		return nil, err
	}
	if err := fourier.CheckBudget(opts.Coefficients, len(azimuths)); err != nil {
		return nil, err
	}

	store, err := scratch.New(opts.ScratchDir)
	if err != nil {
		return nil, err
	}
	if !opts.KeepScratch {
		defer func() {
			if rmErr := store.Remove(azimuths); rmErr != nil {
				err = multierr.Append(err, fmt.Errorf("cleaning scratch: %w", rmErr))
				vol = nil
			}
		}()
	}

	done := logger.Stage("Computing horizon maps",
		zap.Int("width", hm.Width),
		zap.Int("height", hm.Height),
		zap.Int("azimuths", len(azimuths)),
		zap.String("path", opts.ScratchDir),
	)
	orch := &Orchestrator{
		Store:      store,
		Workers:    opts.Workers,
		RowWorkers: opts.RowWorkers,
	}
	if err := orch.Run(ctx, hm, azimuths); err != nil {
		return nil, err
	}
	done()

	done = logger.Stage("Compressing", zap.Int("coeffs", opts.Coefficients))
	vol, err = CompressStored(store, azimuths, opts.Coefficients, opts.RowWorkers)
	if err != nil {
		return nil, err
	}
	done()

	if opts.PreviewDir != "" {
		prefix := opts.PreviewPrefix
		if prefix == "" {
			prefix = "horizon"
		}
		paths, err := preview.NewWriter(opts.PreviewDir, prefix).WriteVolume("coeff", vol)
		if err != nil {
			return nil, fmt.Errorf("writing previews: %w", err)
		}
		logger.Info("Previews written", zap.Int("count", len(paths)), zap.String("path", opts.PreviewDir))
	}

	return vol, nil
}
