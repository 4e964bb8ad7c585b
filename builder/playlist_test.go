// ABOUTME: Tests for playlist seeding and partition bookkeeping
// ABOUTME: Covers target edge cases, exhaustion, identity of duplicate tracks and reproducible seeds

package builder

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlist-builder/playlist"
)

func tracksOf(seconds ...int) []playlist.Track {
	tracks := make([]playlist.Track, len(seconds))
	for i, s := range seconds {
		tracks[i] = playlist.Track{
			Path:     fmt.Sprintf("track%04d.mp3", i),
			Duration: time.Duration(s) * time.Second,
			Index:    i,
		}
	}

	return tracks
}

func sumDurations(tracks []playlist.Track) time.Duration {
	var total time.Duration
	for _, t := range tracks {
		total += t.Duration
	}

	return total
}

func TestSeedReachesTarget(t *testing.T) {
	catalog := tracksOf(10, 20, 30, 40, 50)

	for seed := range uint64(50) {
		p := Seed(catalog, 90*time.Second, NewSeededRand(seed))
		require.NoError(t, p.Validate())

		assert.GreaterOrEqual(t, p.Total(), 90*time.Second)
		assert.Equal(t, sumDurations(p.Tracks()), p.Total())
		assert.Equal(t, len(catalog), p.UsedLen()+p.UnusedLen())

		// Seeding stops as soon as the target is reached
		used := p.Tracks()
		last := used[len(used)-1]
		assert.Less(t, p.Total()-last.Duration, 90*time.Second, "seed %d drew past the target", seed)
	}
}

func TestSeedExhaustsShortCatalog(t *testing.T) {
	catalog := tracksOf(10, 20, 30, 40, 50)

	p := Seed(catalog, 1000*time.Second, NewSeededRand(1))
	require.NoError(t, p.Validate())

	assert.Equal(t, 5, p.UsedLen())
	assert.Equal(t, 0, p.UnusedLen())
	assert.Equal(t, 150*time.Second, p.Total())
	assert.Equal(t, 850*time.Second, p.Distance())
}

func TestSeedZeroTarget(t *testing.T) {
	p := Seed(tracksOf(10, 20, 30), 0, NewSeededRand(1))
	require.NoError(t, p.Validate())

	assert.Equal(t, 0, p.UsedLen())
	assert.Equal(t, 3, p.UnusedLen())
	assert.Equal(t, time.Duration(0), p.Total())
}

func TestSeedEmptyCatalog(t *testing.T) {
	p := Seed(nil, time.Hour, nil)
	require.NoError(t, p.Validate())

	assert.Equal(t, 0, p.UsedLen())
	assert.Equal(t, 0, p.UnusedLen())
	assert.Equal(t, time.Hour, p.Distance())
}

func TestSeedIsReproducible(t *testing.T) {
	catalog := tracksOf(10, 20, 30, 40, 50, 60, 70, 80, 90, 100)

	a, _ := Seed(catalog, 200*time.Second, NewSeededRand(42)).Paths()
	b, _ := Seed(catalog, 200*time.Second, NewSeededRand(42)).Paths()

	assert.Equal(t, a, b)
}

func TestSeedCopiesCatalog(t *testing.T) {
	catalog := tracksOf(10, 20, 30)
	p := Seed(catalog, time.Hour, NewSeededRand(1))

	catalog[0].Duration = time.Hour

	assert.Equal(t, 60*time.Second, p.Total())
	require.NoError(t, p.Validate())
}

func TestDuplicateTracksKeepIdentity(t *testing.T) {
	// Identical path and duration must still be two distinct tracks
	catalog := []playlist.Track{
		{Path: "same.mp3", Duration: 30 * time.Second},
		{Path: "same.mp3", Duration: 30 * time.Second},
		{Path: "same.mp3", Duration: 30 * time.Second},
	}

	p := Seed(catalog, 45*time.Second, NewSeededRand(3))
	require.NoError(t, p.Validate())

	assert.Equal(t, 2, p.UsedLen())
	assert.Equal(t, 1, p.UnusedLen())
	assert.Equal(t, 60*time.Second, p.Total())
}

func TestPaths(t *testing.T) {
	catalog := []playlist.Track{
		{Path: "a.mp3", Duration: 90*time.Second + 700*time.Millisecond},
		{Path: "b.mp3", Duration: 30 * time.Second},
	}

	p := Seed(catalog, time.Hour, NewSeededRand(1))

	paths, total := p.Paths()
	assert.ElementsMatch(t, []string{"a.mp3", "b.mp3"}, paths)
	assert.Equal(t, int64(120), total)
}

func TestValidateDetectsCorruption(t *testing.T) {
	p := Seed(tracksOf(10, 20, 30), 25*time.Second, NewSeededRand(1))
	require.NoError(t, p.Validate())

	p.usedDuration += time.Second
	assert.Error(t, p.Validate())
	p.usedDuration -= time.Second

	p.unusedPos[p.unused[0]] = 99
	assert.Error(t, p.Validate())
}
