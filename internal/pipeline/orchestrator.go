// Package pipeline runs the horizon bake: one horizon pass per azimuth
// persisted to scratch, then Fourier compression of the full set.
package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/clipmap-tools/internal/logger"
	"github.com/Faultbox/clipmap-tools/pkg/heightfield"
	"github.com/Faultbox/clipmap-tools/pkg/horizon"
)

// FieldSaver persists one horizon field under its azimuth.
type FieldSaver interface {
	Save(azimuth int, f *heightfield.Field) error
}

// Orchestrator fans horizon passes out over a bounded worker pool.
type Orchestrator struct {
	Store FieldSaver
	// Workers bounds concurrent azimuth passes.
	Workers int
	// RowWorkers bounds concurrent rows inside one pass.
	RowWorkers int
}

// Run computes and saves the horizon field of hm for every azimuth.
// It returns only after every pass has been saved, or with the first
// failure, in which case remaining passes are not started.
func (o *Orchestrator) Run(ctx context.Context, hm *heightfield.Field, azimuths []int) error {
	workers := max(o.Workers, 1)
	total := len(azimuths)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, az := range azimuths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			logger.Debug("Azimuth started", zap.Int("azimuth", az))

			field, err := horizon.SampleAzimuth(hm, float64(az), o.RowWorkers)
			if err != nil {
				logger.Error("Azimuth failed", zap.Int("azimuth", az), zap.Error(err))
				return err
			}
			if err := o.Store.Save(az, field); err != nil {
				logger.Error("Saving azimuth failed", zap.Int("azimuth", az), zap.Error(err))
				return fmt.Errorf("azimuth %d: %w", az, err)
			}

			n := done.Add(1)
			logger.Debug("Azimuth finished",
				zap.Int("azimuth", az),
				zap.Int64("done", n),
				zap.Int("total", total),
				zap.Duration("elapsed", time.Since(start)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// A parent cancellation can stop the loop without failing any task.
	return ctx.Err()
}
