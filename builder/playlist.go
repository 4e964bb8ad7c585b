// ABOUTME: Playlist state for duration-targeted track selection
// ABOUTME: Keeps the used/unused partition of a catalog, the running total and the owned random source

// Package builder selects tracks whose combined duration approximates a target.
//
// A Playlist is seeded by random draws from a catalog until the target is reached,
// then refined by swapping selected tracks for better fitting ones from the unused pool.
// Track identity inside a Playlist is the track's slot in an internal arena copied
// from the catalog, so tracks with identical paths or durations never alias.
package builder

import (
	"math/rand/v2"
	"time"

	"github.com/cockroachdb/errors"

	"playlist-builder/playlist"
)

// ErrInvalidIndex is returned when a position does not address the used list
var ErrInvalidIndex = errors.New("position out of range")

// Playlist is a partition of a catalog into used (ordered) and unused tracks.
// It is not safe for concurrent use.
type Playlist struct {
	arena        []playlist.Track
	used         []int // arena ids in playback order
	unused       []int // arena ids, order irrelevant
	unusedPos    []int // arena id -> slot in unused, -1 when used
	usedDuration time.Duration
	target       time.Duration
	rng          *rand.Rand

	scratch []int // reusable sampling buffer
}

// NewRand returns a random source seeded from the global generator
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewSeededRand returns a reproducible random source
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Seed builds a playlist by drawing tracks uniformly at random, without replacement,
// until the used duration reaches target or the catalog is exhausted.
//
// The comparison happens before every draw, so a zero target selects nothing.
// A catalog shorter than target is consumed entirely. The tracks slice is copied;
// rng becomes owned by the playlist and must not be shared. A nil rng is replaced
// by a freshly seeded one.
func Seed(tracks []playlist.Track, target time.Duration, rng *rand.Rand) *Playlist {
	if rng == nil {
		rng = NewRand()
	}

	n := len(tracks)
	p := &Playlist{
		arena:     make([]playlist.Track, n),
		used:      make([]int, 0, n),
		unused:    make([]int, n),
		unusedPos: make([]int, n),
		target:    target,
		rng:       rng,
	}

	copy(p.arena, tracks)

	for id := range p.unused {
		p.unused[id] = id
		p.unusedPos[id] = id
	}

	for p.usedDuration < target && len(p.unused) > 0 {
		id := p.unused[rng.IntN(len(p.unused))]
		p.removeUnused(id)
		p.used = append(p.used, id)
		p.usedDuration += p.arena[id].Duration
	}

	return p
}

// removeUnused drops id from the unused pool in O(1) by moving the last entry into its slot
func (p *Playlist) removeUnused(id int) {
	slot := p.unusedPos[id]
	last := len(p.unused) - 1
	moved := p.unused[last]

	p.unused[slot] = moved
	p.unusedPos[moved] = slot
	p.unused = p.unused[:last]
	p.unusedPos[id] = -1
}

// Total returns the summed duration of the used tracks
func (p *Playlist) Total() time.Duration {
	return p.usedDuration
}

// Target returns the duration the playlist was built for
func (p *Playlist) Target() time.Duration {
	return p.target
}

// Distance returns |target - total|
func (p *Playlist) Distance() time.Duration {
	return distance(p.usedDuration, p.target)
}

// UsedLen returns the number of tracks in the playlist
func (p *Playlist) UsedLen() int {
	return len(p.used)
}

// UnusedLen returns the number of catalog tracks not in the playlist
func (p *Playlist) UnusedLen() int {
	return len(p.unused)
}

// Tracks returns a copy of the used tracks in playback order
func (p *Playlist) Tracks() []playlist.Track {
	out := make([]playlist.Track, len(p.used))
	for i, id := range p.used {
		out[i] = p.arena[id]
	}

	return out
}

// Unused returns a copy of the unused tracks in unspecified order
func (p *Playlist) Unused() []playlist.Track {
	out := make([]playlist.Track, len(p.unused))
	for i, id := range p.unused {
		out[i] = p.arena[id]
	}

	return out
}

// Paths returns the used track paths in playback order and the total in whole seconds
func (p *Playlist) Paths() ([]string, int64) {
	paths := make([]string, len(p.used))
	for i, id := range p.used {
		paths[i] = p.arena[id].Path
	}

	return paths, int64(p.usedDuration / time.Second)
}

// Validate checks the partition and running total invariants
func (p *Playlist) Validate() error {
	seen := make([]bool, len(p.arena))

	var sum time.Duration

	for i, id := range p.used {
		if id < 0 || id >= len(p.arena) {
			return errors.Newf("used[%d] holds unknown track id %d", i, id)
		}

		if seen[id] {
			return errors.Newf("track %d appears more than once", id)
		}

		seen[id] = true
		sum += p.arena[id].Duration

		if p.unusedPos[id] != -1 {
			return errors.Newf("used track %d still has an unused slot", id)
		}
	}

	for slot, id := range p.unused {
		if id < 0 || id >= len(p.arena) {
			return errors.Newf("unused[%d] holds unknown track id %d", slot, id)
		}

		if seen[id] {
			return errors.Newf("track %d appears more than once", id)
		}

		seen[id] = true

		if p.unusedPos[id] != slot {
			return errors.Newf("track %d is at unused slot %d but indexed at %d", id, slot, p.unusedPos[id])
		}
	}

	if n := len(p.used) + len(p.unused); n != len(p.arena) {
		return errors.Newf("partition holds %d tracks, catalog has %d", n, len(p.arena))
	}

	if sum != p.usedDuration {
		return errors.Newf("running total %s differs from sum %s", p.usedDuration, sum)
	}

	return nil
}

func distance(total, target time.Duration) time.Duration {
	if total > target {
		return total - target
	}

	return target - total
}
