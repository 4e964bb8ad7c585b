// ABOUTME: Progress reporting for running builds
// ABOUTME: Turns playlist snapshots into TUI updates and delivers them without blocking cancelled runs

package main

import (
	"context"
	"sync"
	"time"

	"playlist-builder/builder"
	"playlist-builder/tui"
)

// progressTracker delivers build progress for one epoch to the TUI
type progressTracker struct {
	ctx        context.Context //nolint:containedctx // Bound to a single build run
	updateChan chan<- tui.Update
	epoch      int
	passes     int
	catalog    time.Duration // Summed duration of every candidate track
	doneOnce   sync.Once
}

// newProgressTracker creates a tracker for one build run
func newProgressTracker(ctx context.Context, updates chan<- tui.Update, epoch, passes int) *progressTracker {
	return &progressTracker{
		ctx:        ctx,
		updateChan: updates,
		epoch:      epoch,
		passes:     passes,
	}
}

// snapshot converts the playlist state into an update
func (pt *progressTracker) snapshot(p *builder.Playlist, pass, changed int) tui.Update {
	return tui.Update{
		Tracks:   p.Tracks(),
		Total:    p.Total(),
		Target:   p.Target(),
		Distance: p.Distance(),
		Unused:   p.UnusedLen(),
		Pass:     pass,
		Passes:   pt.passes,
		Changed:  changed,
		Epoch:    pt.epoch,

		Underfilled: pt.catalog < p.Target(),
	}
}

// seeded reports the freshly seeded playlist
func (pt *progressTracker) seeded(p *builder.Playlist) {
	pt.send(pt.snapshot(p, 0, 0))
}

// sweep reports a completed sweep
func (pt *progressTracker) sweep(p *builder.Playlist, s builder.SweepStats) {
	pt.send(pt.snapshot(p, s.Pass, s.Changed))
}

// finish reports the final playlist exactly once
func (pt *progressTracker) finish(p *builder.Playlist, pass int) {
	pt.doneOnce.Do(func() {
		u := pt.snapshot(p, pass, 0)
		u.Done = true
		pt.send(u)
	})
}

// fail reports a build error
func (pt *progressTracker) fail(err error) {
	pt.doneOnce.Do(func() {
		pt.send(tui.Update{Err: err, Done: true, Epoch: pt.epoch})
	})
}

// send blocks until the update is taken or the run is cancelled
func (pt *progressTracker) send(u tui.Update) {
	select {
	case pt.updateChan <- u:
	case <-pt.ctx.Done():
		// Superseded run, the TUI ignores its epoch anyway
	}
}
