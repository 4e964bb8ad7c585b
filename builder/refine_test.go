// ABOUTME: Tests for the refinement driver
// ABOUTME: Verifies sizing from fractions, sweep progress, adaptive resizing and cancellation

package builder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedCatalog(n int) []int {
	seconds := make([]int, n)
	for i := range seconds {
		seconds[i] = 90 + (i*131)%360
	}

	return seconds
}

func TestRefineOptionsSizes(t *testing.T) {
	p := Seed(tracksOf(mixedCatalog(200)...), time.Hour, NewSeededRand(1))
	used, unused := p.UsedLen(), p.UnusedLen()

	tests := []struct {
		name      string
		opts      RefineOptions
		wantDepth int
		wantSteps int
	}{
		{"defaults", DefaultRefineOptions(), unused, used},
		{"zero", RefineOptions{}, 0, 0},
		{"negative", RefineOptions{DepthFraction: -1, StepsFraction: -0.5}, 0, 0},
		{"half", RefineOptions{DepthFraction: 0.5, StepsFraction: 0.5}, unused / 2, used / 2},
		{"steps clamped", RefineOptions{DepthFraction: 2, StepsFraction: 3}, unused * 2, used},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			depth, steps := tt.opts.Sizes(p)
			assert.Equal(t, tt.wantDepth, depth)
			assert.Equal(t, tt.wantSteps, steps)
		})
	}
}

func TestScaledAbsorbsFloatError(t *testing.T) {
	assert.Equal(t, 29, scaled(100, 0.29))
	assert.Equal(t, 3, scaled(10, 0.3))
	assert.Equal(t, 0, scaled(0, 1))
}

func TestDefaultRefineOptions(t *testing.T) {
	opts := DefaultRefineOptions()

	assert.InDelta(t, 1.0, opts.DepthFraction, 1e-9)
	assert.InDelta(t, 1.0, opts.StepsFraction, 1e-9)
	assert.Equal(t, 2, opts.Passes)
	assert.False(t, opts.Adaptive)
}

func TestRefineImprovesDistance(t *testing.T) {
	o := newTestOptimizer(t, 4)
	p := Seed(tracksOf(mixedCatalog(500)...), 2*time.Hour, NewSeededRand(3))
	initial := p.Distance()
	usedLen, unusedLen := p.UsedLen(), p.UnusedLen()

	var sweeps []SweepStats

	opts := DefaultRefineOptions()
	opts.Progress = func(s SweepStats) { sweeps = append(sweeps, s) }

	stats, err := o.Refine(context.Background(), p, opts, Greedy{})
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, 2, stats.Passes)
	assert.Equal(t, 2*usedLen, stats.Attempts)
	assert.Equal(t, initial, stats.InitialDistance)
	assert.Equal(t, p.Distance(), stats.FinalDistance)
	assert.LessOrEqual(t, stats.FinalDistance, initial)

	assert.Equal(t, usedLen, p.UsedLen())
	assert.Equal(t, unusedLen, p.UnusedLen())

	require.Len(t, sweeps, 2)
	assert.Equal(t, 1, sweeps[0].Pass)
	assert.Equal(t, 2, sweeps[1].Pass)
	assert.LessOrEqual(t, sweeps[1].Distance, sweeps[0].Distance)
	assert.Equal(t, stats.Changed, sweeps[0].Changed+sweeps[1].Changed)
	assert.Equal(t, p.Total(), sweeps[1].Total)
}

func TestRefineSnapshotsSizes(t *testing.T) {
	o := newTestOptimizer(t, 2)
	p := Seed(tracksOf(mixedCatalog(100)...), 30*time.Minute, NewSeededRand(8))

	opts := RefineOptions{DepthFraction: 0.5, StepsFraction: 0.5, Passes: 3}
	wantDepth, wantSteps := opts.Sizes(p)

	var sweeps []SweepStats
	opts.Progress = func(s SweepStats) { sweeps = append(sweeps, s) }

	stats, err := o.Refine(context.Background(), p, opts, Greedy{})
	require.NoError(t, err)

	require.Len(t, sweeps, 3)

	for _, s := range sweeps {
		assert.Equal(t, wantDepth, s.Depth)
		assert.Equal(t, wantSteps, s.Steps)
	}

	assert.Equal(t, 3*wantSteps, stats.Attempts)
}

func TestRefineAdaptiveResizes(t *testing.T) {
	o := newTestOptimizer(t, 2)
	p := Seed(tracksOf(mixedCatalog(100)...), 30*time.Minute, NewSeededRand(8))

	opts := RefineOptions{DepthFraction: 0.5, StepsFraction: 1, Passes: 2, Adaptive: true}

	var sweeps []SweepStats
	opts.Progress = func(s SweepStats) { sweeps = append(sweeps, s) }

	_, err := o.Refine(context.Background(), p, opts, Greedy{})
	require.NoError(t, err)

	// Swaps preserve pool sizes, so adaptive sizing recomputes the same numbers
	depth, steps := opts.Sizes(p)

	require.Len(t, sweeps, 2)
	assert.Equal(t, depth, sweeps[1].Depth)
	assert.Equal(t, steps, sweeps[1].Steps)
}

func TestRefineZeroPasses(t *testing.T) {
	o := newTestOptimizer(t, 2)
	p := Seed(tracksOf(mixedCatalog(50)...), 20*time.Minute, NewSeededRand(4))
	before := p.Tracks()

	stats, err := o.Refine(context.Background(), p, RefineOptions{DepthFraction: 1, StepsFraction: 1}, Greedy{})
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Passes)
	assert.Equal(t, 0, stats.Attempts)
	assert.Equal(t, before, p.Tracks())
}

func TestRefineEmptyPlaylist(t *testing.T) {
	o := newTestOptimizer(t, 2)
	p := Seed(tracksOf(10, 20, 30), 0, NewSeededRand(1))

	stats, err := o.Refine(context.Background(), p, DefaultRefineOptions(), Greedy{})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Passes)
	assert.Equal(t, 0, stats.Attempts)
	assert.Equal(t, 0, p.UsedLen())
}

func TestRefineCancelled(t *testing.T) {
	o := newTestOptimizer(t, 2)
	p := Seed(tracksOf(mixedCatalog(200)...), time.Hour, NewSeededRand(6))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := o.Refine(ctx, p, DefaultRefineOptions(), Greedy{})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 0, stats.Attempts)
	assert.Equal(t, 0, stats.Passes)
	require.NoError(t, p.Validate())
}

func TestRefineCancelledMidway(t *testing.T) {
	o := newTestOptimizer(t, 2)
	p := Seed(tracksOf(mixedCatalog(200)...), time.Hour, NewSeededRand(6))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := DefaultRefineOptions()
	opts.Passes = 5
	opts.Progress = func(s SweepStats) {
		if s.Pass == 1 {
			cancel()
		}
	}

	stats, err := o.Refine(ctx, p, opts, Greedy{})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1, stats.Passes)
	assert.Equal(t, p.Distance(), stats.FinalDistance)
	require.NoError(t, p.Validate())
}
