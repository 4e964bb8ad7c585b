// ABOUTME: Swap optimizer replacing one selected track with a better fitting unused track
// ABOUTME: Samples candidates sequentially, then folds them in parallel over a pond worker pool

package builder

import (
	"runtime"
	"time"

	"github.com/alitto/pond"
	"github.com/cockroachdb/errors"

	"playlist-builder/playlist"
)

// minChunkSize is the smallest candidate slice worth handing to a worker.
// Samples under two chunks are folded on the calling goroutine.
const minChunkSize = 256

// Optimizer runs swap refinement, evaluating candidates on a bounded worker pool.
// It is safe to share between goroutines working on different playlists;
// Close releases its workers.
type Optimizer struct {
	pool     *pond.WorkerPool
	workers  int
	minChunk int
}

// NewOptimizer creates an optimizer with the given number of evaluation workers
// Zero or a negative count uses one worker per CPU
func NewOptimizer(workers int) *Optimizer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Optimizer{
		pool:     pond.New(workers, workers*4),
		workers:  workers,
		minChunk: minChunkSize,
	}
}

// Close stops the worker pool after pending evaluations finish
func (o *Optimizer) Close() {
	o.pool.StopAndWait()
}

// Swap tries to replace the track at position with one of sampleSize candidates
// drawn from the unused pool, keeping the incumbent unless h accepts a candidate.
//
// sampleSize is clamped to the pool size; an empty sample leaves the playlist untouched.
// Returns true when the track at position changed. The lengths of the used and unused
// lists never change. An out-of-range position returns ErrInvalidIndex.
func (o *Optimizer) Swap(p *Playlist, position, sampleSize int, h Heuristic) (bool, error) {
	if position < 0 || position >= len(p.used) {
		return false, errors.Wrapf(ErrInvalidIndex, "position %d, playlist has %d tracks", position, len(p.used))
	}

	candidates := p.sample(sampleSize)
	if len(candidates) == 0 {
		return false, nil
	}

	original := p.used[position]
	rest := p.usedDuration - p.arena[original].Duration

	winner := o.fold(p.arena, candidates, original, rest, p.target, h)
	if winner == original {
		return false, nil
	}

	// The original takes the winner's slot in the unused pool
	slot := p.unusedPos[winner]
	p.unused[slot] = original
	p.unusedPos[original] = slot
	p.unusedPos[winner] = -1

	p.used[position] = winner
	p.usedDuration = rest + p.arena[winner].Duration

	return true, nil
}

// sample draws k distinct unused ids with a partial Fisher-Yates shuffle.
// A sample covering the whole pool is returned without consuming randomness.
// The returned slice aliases the scratch buffer and is valid until the next call.
func (p *Playlist) sample(k int) []int {
	n := len(p.unused)
	if k > n {
		k = n
	}

	if k <= 0 {
		return nil
	}

	p.scratch = append(p.scratch[:0], p.unused...)
	if k == n {
		return p.scratch
	}

	for i := range k {
		j := i + p.rng.IntN(n-i)
		p.scratch[i], p.scratch[j] = p.scratch[j], p.scratch[i]
	}

	return p.scratch[:k]
}

// fold picks the winner among candidates, starting from the incumbent.
//
// Candidates are split into contiguous chunks folded concurrently; the chunk winners
// are then folded in chunk order. For a fixed sample and a deterministic heuristic the
// result does not depend on scheduling. Workers only read the arena and write their
// own result slot.
func (o *Optimizer) fold(arena []playlist.Track, candidates []int, incumbent int, rest, target time.Duration, h Heuristic) int {
	chunks := len(candidates) / o.minChunk
	if chunks > o.workers {
		chunks = o.workers
	}

	if chunks < 2 {
		return foldChunk(arena, candidates, incumbent, rest, target, h)
	}

	size := (len(candidates) + chunks - 1) / chunks

	winners := make([]int, chunks)

	group := o.pool.Group()

	for c := range chunks {
		lo := c * size
		hi := min(lo+size, len(candidates))

		if lo >= hi {
			winners[c] = incumbent

			continue
		}

		group.Submit(func() {
			winners[c] = foldChunk(arena, candidates[lo:hi], incumbent, rest, target, h)
		})
	}

	group.Wait()

	return foldChunk(arena, winners, incumbent, rest, target, h)
}

// foldChunk sequentially folds ids into the best id according to h
func foldChunk(arena []playlist.Track, ids []int, best int, rest, target time.Duration, h Heuristic) int {
	for _, id := range ids {
		oldTotal := rest + arena[best].Duration
		newTotal := rest + arena[id].Duration

		if h.Accept(oldTotal, newTotal, target) {
			best = id
		}
	}

	return best
}
