// ABOUTME: Shared setup code for the build modes (CLI and TUI)
// ABOUTME: Provides catalog loading, target parsing and config-to-builder conversion

package main

import (
	"context"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"playlist-builder/builder"
	"playlist-builder/catalog"
	"playlist-builder/config"
	"playlist-builder/playlist"
)

// RunOptions contains command-line options for the build command
type RunOptions struct {
	MusicDir   string
	Target     time.Duration // Zero uses the configured target
	OutputPath string
	DryRun     bool
	Seed       uint64 // Zero draws a random seed
	RunID      string
}

// loadCatalog scans root for playable tracks using the configured prober
// progress may be nil.
func loadCatalog(ctx context.Context, root string, cfg config.BuildConfig, progress func(done, total int)) (*catalog.Catalog, error) {
	prober, err := playlist.NewProber(cfg.DurationProbe, cfg.FFprobePath)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Scan(ctx, root, catalog.Options{
		Extensions: cfg.Extensions,
		Workers:    cfg.Workers,
		Prober:     prober,
		ReadTags:   cfg.ReadTags,
		Progress:   progress,
	})
	if err != nil {
		return cat, errors.Wrapf(err, "failed to scan %s", root)
	}

	return cat, nil
}

// refineOptions converts config values into builder options
func refineOptions(cfg config.BuildConfig) builder.RefineOptions {
	return builder.RefineOptions{
		DepthFraction: cfg.DepthFraction,
		StepsFraction: cfg.StepsFraction,
		Passes:        cfg.Passes,
		Adaptive:      cfg.Adaptive,
	}
}

// heuristic resolves the configured acceptance policy
func heuristic(cfg config.BuildConfig) (builder.Heuristic, error) {
	return builder.HeuristicByName(cfg.Heuristic, cfg.Temperature())
}

// newRand returns a seeded source when seed is set, otherwise a random one.
// offset varies the draw between rebuilds that share a seed.
func newRand(seed uint64, offset int) *rand.Rand {
	if seed == 0 {
		return builder.NewRand()
	}

	return builder.NewSeededRand(seed + uint64(offset))
}

// maxTargetSeconds is the longest target a time.Duration can hold
const maxTargetSeconds = float64(math.MaxInt64) / float64(time.Second)

// parseTarget accepts a Go duration ("90m", "1h30m") or plain seconds ("5400")
func parseTarget(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		switch {
		case math.IsNaN(secs) || math.IsInf(secs, 0):
			return 0, errors.Newf("target %q is not a finite number", s)
		case secs < 0:
			return 0, errors.Newf("target %q is negative", s)
		case secs >= maxTargetSeconds:
			return 0, errors.Newf("target %q is too long", s)
		}

		return time.Duration(secs * float64(time.Second)), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid target %q", s)
	}

	if d < 0 {
		return 0, errors.Newf("target %q is negative", s)
	}

	return d, nil
}

// musicDir picks the catalog root: argument, then config (which the environment overrides)
func musicDir(arg string, cfg config.BuildConfig) (string, error) {
	if arg != "" {
		return arg, nil
	}

	if cfg.MusicDir != "" {
		return cfg.MusicDir, nil
	}

	return "", errors.New("no music directory given: pass one or set " + config.EnvMusicDir)
}

// isTTY checks if the given file is a terminal
func isTTY(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}

	return (stat.Mode() & os.ModeCharDevice) != 0
}

// truncate shortens string to maxLen, adding "..." if needed
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return s[:maxLen]
	}

	return s[:maxLen-3] + "..."
}
