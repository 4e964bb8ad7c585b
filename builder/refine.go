// ABOUTME: Refinement driver running fixed sweeps of swap attempts over a playlist
// ABOUTME: Derives depth and steps from fractions of the pool sizes at refinement start

package builder

import (
	"context"
	"math"
	"time"
)

// fractionEpsilon absorbs float error so 0.29 * 100 floors to 29
const fractionEpsilon = 1e-9

// RefineOptions controls how much work a refinement performs
type RefineOptions struct {
	DepthFraction float64 // Share of the unused pool sampled per swap
	StepsFraction float64 // Share of playlist positions attempted per sweep
	Passes        int     // Number of sweeps

	// Adaptive recomputes depth and steps before every sweep instead of once at start
	Adaptive bool

	// Progress, if set, is called after every completed sweep
	Progress func(SweepStats)
}

// SweepStats describes one completed sweep
type SweepStats struct {
	Pass     int // 1-based
	Depth    int
	Steps    int
	Changed  int // Positions whose track was replaced
	Total    time.Duration
	Distance time.Duration
}

// RefineStats summarizes a refinement run
type RefineStats struct {
	Passes          int // Sweeps completed
	Attempts        int // Swap calls made
	Changed         int // Swap calls that replaced a track
	Depth           int // Depth of the last sweep
	Steps           int // Steps of the last sweep
	InitialDistance time.Duration
	FinalDistance   time.Duration
}

// DefaultRefineOptions samples the whole pool at every position for two sweeps
func DefaultRefineOptions() RefineOptions {
	return RefineOptions{
		DepthFraction: 1.0,
		StepsFraction: 1.0,
		Passes:        2,
	}
}

// Sizes returns depth = floor(unused * DepthFraction) and steps = floor(used * StepsFraction)
// for the current playlist state. Steps never exceeds the playlist length.
func (opts RefineOptions) Sizes(p *Playlist) (depth, steps int) {
	depth = scaled(p.UnusedLen(), opts.DepthFraction)
	steps = min(scaled(p.UsedLen(), opts.StepsFraction), p.UsedLen())

	return depth, steps
}

func scaled(n int, fraction float64) int {
	if fraction <= 0 || n == 0 {
		return 0
	}

	return int(math.Floor(float64(n)*fraction + fractionEpsilon))
}

// Refine runs opts.Passes sweeps; each sweep attempts a swap at positions 0..steps-1
// left to right. Depth and steps are taken from the playlist at start unless
// opts.Adaptive is set. There is no convergence check.
//
// ctx is checked between swaps. On cancellation the playlist is left consistent and
// ctx.Err() is returned together with the stats gathered so far.
func (o *Optimizer) Refine(ctx context.Context, p *Playlist, opts RefineOptions, h Heuristic) (RefineStats, error) {
	stats := RefineStats{
		InitialDistance: p.Distance(),
		FinalDistance:   p.Distance(),
	}

	depth, steps := opts.Sizes(p)

	for pass := range opts.Passes {
		if opts.Adaptive && pass > 0 {
			depth, steps = opts.Sizes(p)
		}

		stats.Depth, stats.Steps = depth, steps

		sweep := SweepStats{Pass: pass + 1, Depth: depth, Steps: steps}

		for i := range steps {
			if err := ctx.Err(); err != nil {
				stats.FinalDistance = p.Distance()

				return stats, err
			}

			changed, err := o.Swap(p, i, depth, h)
			if err != nil {
				stats.FinalDistance = p.Distance()

				return stats, err
			}

			stats.Attempts++

			if changed {
				sweep.Changed++
				stats.Changed++
			}
		}

		stats.Passes++
		stats.FinalDistance = p.Distance()

		sweep.Total = p.Total()
		sweep.Distance = stats.FinalDistance

		if opts.Progress != nil {
			opts.Progress(sweep)
		}
	}

	return stats, nil
}
