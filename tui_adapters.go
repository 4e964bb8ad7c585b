// ABOUTME: Adapter implementations for TUI interfaces
// ABOUTME: Bridges the builder, catalog scanner and playlist writer to the TUI contracts

package main

import (
	"context"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"playlist-builder/builder"
	"playlist-builder/config"
	"playlist-builder/playlist"
	"playlist-builder/tui"
)

// buildRunner adapts builder.Optimizer to tui.BuildRunner
type buildRunner struct {
	optimizer *builder.Optimizer
	seed      uint64
	runID     string
}

// Run seeds and refines a playlist, reporting after seeding, after every sweep and at the end
func (b *buildRunner) Run(ctx context.Context, tracks []playlist.Track, cfg config.BuildConfig, updates chan<- tui.Update, epoch int) {
	tracker := newProgressTracker(ctx, updates, epoch, cfg.Passes)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("stack", string(debug.Stack())).Msg("build runner panic")
			tracker.fail(errors.Newf("build panicked: %v", r))
		}
	}()

	logger := log.With().Str("run", b.runID).Int("epoch", epoch).Logger()

	h, err := heuristic(cfg)
	if err != nil {
		tracker.fail(err)

		return
	}

	for i := range tracks {
		tracker.catalog += tracks[i].Duration
	}

	p := builder.Seed(tracks, cfg.Target(), newRand(b.seed, epoch))
	tracker.seeded(p)

	logger.Debug().
		Int("tracks", p.UsedLen()).
		Dur("total", p.Total()).
		Dur("target", p.Target()).
		Msg("seeded")

	opts := refineOptions(cfg)
	opts.Progress = func(s builder.SweepStats) {
		tracker.sweep(p, s)
	}

	stats, err := b.optimizer.Refine(ctx, p, opts, h)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug().Int("passes", stats.Passes).Msg("build cancelled")

			return
		}

		tracker.fail(err)

		return
	}

	logger.Debug().
		Int("passes", stats.Passes).
		Int("changed", stats.Changed).
		Dur("distance", stats.FinalDistance).
		Msg("build finished")

	tracker.finish(p, stats.Passes)
}

// catalogLoader adapts the catalog scanner to tui.CatalogLoader
type catalogLoader struct {
	root   string
	config tui.ConfigProvider
}

// Load rescans the music directory with the current config
func (c *catalogLoader) Load(ctx context.Context) ([]playlist.Track, error) {
	cat, err := loadCatalog(ctx, c.root, c.config.Get(), nil)
	if err != nil {
		return nil, err
	}

	return cat.Tracks, nil
}
