// ABOUTME: TUI mode configuration and command-line options
// ABOUTME: Defines input parameters and injected dependencies for running the TUI

package tui

// Options contains configuration for running the TUI
type Options struct {
	MusicDir   string // Catalog root, watched for changes
	OutputPath string // Where the playlist is saved
	DryRun     bool   // If true, don't save the playlist to disk
	Watch      bool   // Rescan the catalog when files under MusicDir change
}

// Dependencies holds all external dependencies for the TUI
type Dependencies struct {
	Config     ConfigProvider
	Runner     BuildRunner
	Catalog    CatalogLoader
	Writer     PlaylistWriter
	ConfigPath string
}
