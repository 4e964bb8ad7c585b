// ABOUTME: Tests for the TUI adapters
// ABOUTME: Runs the build runner against a real optimizer and checks the update sequence

package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playlist-builder/builder"
	"playlist-builder/config"
	"playlist-builder/playlist"
	"playlist-builder/tui"
)

func catalogOf(seconds ...int) []playlist.Track {
	tracks := make([]playlist.Track, len(seconds))
	for i, s := range seconds {
		tracks[i] = playlist.Track{
			Path:     fmt.Sprintf("/music/%02d.mp3", i),
			Duration: time.Duration(s) * time.Second,
			Index:    i,
		}
	}

	return tracks
}

func newTestRunner(t *testing.T, seed uint64) *buildRunner {
	t.Helper()

	optimizer := builder.NewOptimizer(2)
	t.Cleanup(optimizer.Close)

	return &buildRunner{optimizer: optimizer, seed: seed, runID: "test"}
}

func collectUpdates(updates <-chan tui.Update) []tui.Update {
	var out []tui.Update

	for {
		select {
		case u := <-updates:
			out = append(out, u)
		default:
			return out
		}
	}
}

func TestBuildRunnerReportsSeedSweepsAndDone(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TargetMinutes = 1
	cfg.Passes = 3

	updates := make(chan tui.Update, 16)
	runner := newTestRunner(t, 42)

	runner.Run(context.Background(), catalogOf(20, 25, 30, 15, 10, 35, 5), cfg, updates, 4)

	got := collectUpdates(updates)
	require.Len(t, got, 1+3+1, "seed, one per sweep, final")

	assert.Equal(t, 0, got[0].Pass)
	assert.False(t, got[0].Done)

	for i, u := range got[1:4] {
		assert.Equal(t, i+1, u.Pass)
		assert.Equal(t, 3, u.Passes)
	}

	final := got[len(got)-1]
	assert.True(t, final.Done)
	require.NoError(t, final.Err)
	assert.Equal(t, 4, final.Epoch)
	assert.Equal(t, time.Minute, final.Target)
	assert.LessOrEqual(t, final.Distance, got[0].Distance, "greedy refinement never worsens the seed")

	var sum time.Duration
	for _, tr := range final.Tracks {
		sum += tr.Duration
	}

	assert.Equal(t, final.Total, sum)
	assert.Equal(t, 7, len(final.Tracks)+final.Unused)
}

func TestBuildRunnerUnknownHeuristic(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Heuristic = "tabu"

	updates := make(chan tui.Update, 4)
	newTestRunner(t, 1).Run(context.Background(), catalogOf(10, 20), cfg, updates, 0)

	got := collectUpdates(updates)
	require.Len(t, got, 1)
	require.ErrorIs(t, got[0].Err, builder.ErrUnknownHeuristic)
	assert.True(t, got[0].Done)
}

func TestBuildRunnerCancelledDoesNotBlock(t *testing.T) {
	cfg := config.DefaultConfig()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Unbuffered and never read: a cancelled run must still return
	updates := make(chan tui.Update)

	done := make(chan struct{})
	go func() {
		newTestRunner(t, 1).Run(ctx, catalogOf(10, 20, 30), cfg, updates, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner blocked after cancellation")
	}
}

func TestBuildRunnerSeededRebuildsDiffer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TargetMinutes = 0.5
	cfg.Passes = 0

	tracks := catalogOf(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20)
	runner := newTestRunner(t, 99)

	paths := func(epoch int) []string {
		updates := make(chan tui.Update, 4)
		runner.Run(context.Background(), tracks, cfg, updates, epoch)

		got := collectUpdates(updates)
		require.NotEmpty(t, got)

		var out []string
		for _, tr := range got[len(got)-1].Tracks {
			out = append(out, tr.Path)
		}

		return out
	}

	assert.Equal(t, paths(3), paths(3), "same seed and epoch repeat the draw")
	assert.NotEqual(t, paths(1), paths(2), "each rebuild draws anew")
}

func TestBuildRunnerFlagsShortCatalog(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TargetMinutes = 1
	cfg.Passes = 2

	final := func(seconds ...int) tui.Update {
		updates := make(chan tui.Update, 8)
		newTestRunner(t, 5).Run(context.Background(), catalogOf(seconds...), cfg, updates, 0)

		got := collectUpdates(updates)
		require.NotEmpty(t, got)

		return got[len(got)-1]
	}

	short := final(10, 20)
	assert.True(t, short.Done)
	assert.True(t, short.Underfilled)

	long := final(35, 35, 20, 10)
	assert.True(t, long.Done)
	assert.False(t, long.Underfilled, "the flag follows the catalog, not the playlist total")
}
