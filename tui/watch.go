// ABOUTME: Music directory watcher for live catalog reloads
// ABOUTME: Wraps fsnotify, watching every subdirectory and debouncing bursts of audio file events

package tui

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// watchDebounce is how long to wait for a burst of file events to settle
const watchDebounce = 300 * time.Millisecond

// catalogWatcher reports changes to audio files below a music directory
type catalogWatcher struct {
	fs         *fsnotify.Watcher
	extensions map[string]bool
}

// newCatalogWatcher watches root and all of its subdirectories
func newCatalogWatcher(root string, extensions []string) (*catalogWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return watcher.Add(path)
		}

		return nil
	})
	if err != nil {
		_ = watcher.Close()

		return nil, errors.Wrapf(err, "failed to watch %s", root)
	}

	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}

	return &catalogWatcher{fs: watcher, extensions: exts}, nil
}

// relevant reports whether an event can change the catalog
func (w *catalogWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	if ext == "" {
		// New or removed directories
		return event.Has(fsnotify.Create) || event.Has(fsnotify.Remove)
	}

	return w.extensions[ext]
}

// watchNewDir adds watches for a created directory and everything already inside it.
// It reports whether event created a directory.
func (w *catalogWatcher) watchNewDir(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) {
		return false
	}

	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return false
	}

	err = filepath.WalkDir(event.Name, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return w.fs.Add(path)
		}

		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("dir", event.Name).Msg("failed to watch new directory")
	}

	return true
}

// Close stops watching
func (w *catalogWatcher) Close() error {
	return w.fs.Close()
}

// waitForCatalogChange blocks until an audio file changes, then emits catalogChangedMsg
func waitForCatalogChange(w *catalogWatcher) tea.Cmd {
	if w == nil {
		return nil
	}

	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.fs.Events:
				if !ok {
					return nil
				}

				if !w.watchNewDir(event) && !w.relevant(event) {
					continue
				}

				w.drain(watchDebounce)

				return catalogChangedMsg{}
			case err, ok := <-w.fs.Errors:
				if !ok {
					return nil
				}

				log.Warn().Err(err).Msg("catalog watcher error")
			}
		}
	}
}

// drain swallows events until none arrive for the debounce interval.
// Directories created during the burst still get watched.
func (w *catalogWatcher) drain(quiet time.Duration) {
	timer := time.NewTimer(quiet)
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}

			w.watchNewDir(event)
			timer.Reset(quiet)
		case <-timer.C:
			return
		}
	}
}
