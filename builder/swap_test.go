// ABOUTME: Tests for the swap operation and the parallel candidate fold
// ABOUTME: Checks invariants after swaps, greedy monotonicity, edge cases and deterministic folding

package builder

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlist-builder/playlist"
)

func newTestOptimizer(t *testing.T, workers int) *Optimizer {
	t.Helper()

	o := NewOptimizer(workers)
	t.Cleanup(o.Close)

	return o
}

func TestSwapInvalidIndex(t *testing.T) {
	o := newTestOptimizer(t, 2)
	p := Seed(tracksOf(10, 20, 30, 40), 25*time.Second, NewSeededRand(1))

	for _, pos := range []int{-1, p.UsedLen(), p.UsedLen() + 5} {
		changed, err := o.Swap(p, pos, 10, Greedy{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidIndex))
		assert.False(t, changed)
	}

	require.NoError(t, p.Validate())
}

func TestSwapOnEmptyPlaylist(t *testing.T) {
	o := newTestOptimizer(t, 2)
	p := Seed(tracksOf(10, 20), 0, NewSeededRand(1))

	_, err := o.Swap(p, 0, 1, Greedy{})
	assert.True(t, errors.Is(err, ErrInvalidIndex))
}

func TestSwapZeroSampleLeavesPlaylistUnchanged(t *testing.T) {
	o := newTestOptimizer(t, 2)
	p := Seed(tracksOf(10, 20, 30, 40, 50), 90*time.Second, NewSeededRand(7))

	before := p.Tracks()
	beforeUnused := p.Unused()
	total := p.Total()

	changed, err := o.Swap(p, 0, 0, Greedy{})
	require.NoError(t, err)

	assert.False(t, changed)
	assert.Equal(t, before, p.Tracks())
	assert.Equal(t, beforeUnused, p.Unused())
	assert.Equal(t, total, p.Total())
}

func TestSwapEmptyPoolIsNoop(t *testing.T) {
	o := newTestOptimizer(t, 2)
	p := Seed(tracksOf(10, 20, 30), time.Hour, NewSeededRand(1))
	require.Equal(t, 0, p.UnusedLen())

	before := p.Tracks()

	for pos := range p.UsedLen() {
		changed, err := o.Swap(p, pos, 100, Greedy{})
		require.NoError(t, err)
		assert.False(t, changed)
	}

	assert.Equal(t, before, p.Tracks())
}

func TestSwapPicksClosestCandidate(t *testing.T) {
	o := newTestOptimizer(t, 2)

	// used: the 100s track alone; target 60s. Best replacement is 55s (distance 5)
	catalog := []playlist.Track{
		{Path: "long.mp3", Duration: 100 * time.Second},
		{Path: "a.mp3", Duration: 10 * time.Second},
		{Path: "b.mp3", Duration: 55 * time.Second},
		{Path: "c.mp3", Duration: 70 * time.Second},
	}

	p := Seed(catalog, 0, NewSeededRand(1))
	p.target = 60 * time.Second
	p.removeUnused(0)
	p.used = append(p.used, 0)
	p.usedDuration = 100 * time.Second
	require.NoError(t, p.Validate())

	changed, err := o.Swap(p, 0, p.UnusedLen(), Greedy{})
	require.NoError(t, err)
	require.True(t, changed)

	assert.Equal(t, "b.mp3", p.Tracks()[0].Path)
	assert.Equal(t, 55*time.Second, p.Total())
	assert.Equal(t, 3, p.UnusedLen())
	assert.Contains(t, p.Unused(), catalog[0])
	require.NoError(t, p.Validate())
}

func TestSwapKeepsIncumbentOnTie(t *testing.T) {
	o := newTestOptimizer(t, 2)

	// Incumbent 50s and candidate 70s are both 10s from the 60s target
	catalog := []playlist.Track{
		{Path: "incumbent.mp3", Duration: 50 * time.Second},
		{Path: "other.mp3", Duration: 70 * time.Second},
	}

	p := Seed(catalog, 0, NewSeededRand(1))
	p.target = 60 * time.Second
	p.removeUnused(0)
	p.used = append(p.used, 0)
	p.usedDuration = 50 * time.Second

	changed, err := o.Swap(p, 0, 1, Greedy{})
	require.NoError(t, err)

	assert.False(t, changed)
	assert.Equal(t, "incumbent.mp3", p.Tracks()[0].Path)
}

func TestGreedySwapNeverWorsens(t *testing.T) {
	o := newTestOptimizer(t, 4)

	seconds := make([]int, 300)
	for i := range seconds {
		seconds[i] = 60 + (i*37)%240
	}

	p := Seed(tracksOf(seconds...), 2*time.Hour, NewSeededRand(11))
	require.NoError(t, p.Validate())

	usedLen, unusedLen := p.UsedLen(), p.UnusedLen()

	for i := range 200 {
		before := p.Distance()

		_, err := o.Swap(p, i%p.UsedLen(), 1+i%50, Greedy{})
		require.NoError(t, err)

		assert.LessOrEqual(t, p.Distance(), before)
		assert.Equal(t, usedLen, p.UsedLen())
		assert.Equal(t, unusedLen, p.UnusedLen())
	}

	require.NoError(t, p.Validate())
	assert.Equal(t, sumDurations(p.Tracks()), p.Total())
}

func TestSwapRejectingHeuristic(t *testing.T) {
	o := newTestOptimizer(t, 2)
	p := Seed(tracksOf(10, 20, 30, 40, 50), 60*time.Second, NewSeededRand(5))
	before := p.Tracks()

	never := HeuristicFunc(func(_, _, _ time.Duration) bool { return false })

	for pos := range p.UsedLen() {
		changed, err := o.Swap(p, pos, p.UnusedLen(), never)
		require.NoError(t, err)
		assert.False(t, changed)
	}

	assert.Equal(t, before, p.Tracks())
}

func TestParallelFoldMatchesSequential(t *testing.T) {
	seconds := make([]int, 5000)
	for i := range seconds {
		seconds[i] = 1 + (i*7919)%600
	}

	catalog := tracksOf(seconds...)

	run := func(o *Optimizer) []string {
		p := Seed(catalog, 3*time.Hour, NewSeededRand(99))
		for pos := range p.UsedLen() {
			_, err := o.Swap(p, pos, p.UnusedLen()/2, Greedy{})
			require.NoError(t, err)
		}

		require.NoError(t, p.Validate())

		paths, _ := p.Paths()

		return paths
	}

	sequential := newTestOptimizer(t, 1)
	parallel := newTestOptimizer(t, 8)
	parallel.minChunk = 16

	assert.Equal(t, run(sequential), run(parallel))
}

func TestSampleDistinctAndBounded(t *testing.T) {
	p := Seed(tracksOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), 5*time.Second, NewSeededRand(2))
	n := p.UnusedLen()

	assert.Empty(t, p.sample(0))
	assert.Empty(t, p.sample(-3))
	assert.Len(t, p.sample(n+10), n)

	got := p.sample(n - 1)
	assert.Len(t, got, n-1)

	seen := map[int]bool{}
	for _, id := range got {
		assert.False(t, seen[id], "id %d sampled twice", id)
		assert.NotEqual(t, -1, p.unusedPos[id])
		seen[id] = true
	}
}
