// ABOUTME: Interfaces defining dependencies for the TUI package
// ABOUTME: Allows clean separation and easy testing with mocks

package tui

import (
	"context"
	"time"

	"playlist-builder/config"
	"playlist-builder/playlist"
)

// ConfigProvider provides thread-safe access to the build configuration
type ConfigProvider interface {
	Get() config.BuildConfig
	Update(cfg config.BuildConfig)
}

// BuildRunner seeds and refines a playlist from tracks, reporting progress on updates.
// Run blocks until the build finishes or ctx is cancelled.
type BuildRunner interface {
	Run(ctx context.Context, tracks []playlist.Track, cfg config.BuildConfig, updates chan<- Update, epoch int)
}

// CatalogLoader rescans the music library
type CatalogLoader interface {
	Load(ctx context.Context) ([]playlist.Track, error)
}

// PlaylistWriter saves playlists to disk
type PlaylistWriter interface {
	Write(path string, tracks []playlist.Track) error
}

// RunnerFunc adapts a function to BuildRunner
type RunnerFunc func(ctx context.Context, tracks []playlist.Track, cfg config.BuildConfig, updates chan<- Update, epoch int)

// Run calls f
func (f RunnerFunc) Run(ctx context.Context, tracks []playlist.Track, cfg config.BuildConfig, updates chan<- Update, epoch int) {
	f(ctx, tracks, cfg, updates, epoch)
}

// LoaderFunc adapts a function to CatalogLoader
type LoaderFunc func(ctx context.Context) ([]playlist.Track, error)

// Load calls f
func (f LoaderFunc) Load(ctx context.Context) ([]playlist.Track, error) {
	return f(ctx)
}

// WriterFunc adapts a function to PlaylistWriter
type WriterFunc func(path string, tracks []playlist.Track) error

// Write calls f
func (f WriterFunc) Write(path string, tracks []playlist.Track) error {
	return f(path, tracks)
}

// Update represents a progress report from a build
type Update struct {
	Tracks      []playlist.Track // Current playlist in playback order
	Total       time.Duration
	Target      time.Duration
	Distance    time.Duration
	Unused      int  // Tracks left in the pool
	Pass        int  // 0 right after seeding
	Passes      int
	Changed     int  // Tracks replaced during the last sweep
	Underfilled bool // The whole catalog is shorter than Target
	Done        bool
	Err         error
	Epoch       int
}
