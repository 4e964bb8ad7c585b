// ABOUTME: Tests for the music directory watcher
// ABOUTME: Uses real fsnotify watches on temp directories

package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, root string) *catalogWatcher {
	t.Helper()

	w, err := newCatalogWatcher(root, []string{".mp3", ".FLAC"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	return w
}

// awaitChange runs one waitForCatalogChange command with a deadline
func awaitChange(t *testing.T, w *catalogWatcher) tea.Msg {
	t.Helper()

	msgs := make(chan tea.Msg, 1)
	go func() { msgs <- waitForCatalogChange(w)() }()

	select {
	case msg := <-msgs:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("no catalog change reported")

		return nil
	}
}

func TestWatcherRelevantEvents(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"audio created", fsnotify.Event{Name: "/m/a.mp3", Op: fsnotify.Create}, true},
		{"extension case folded", fsnotify.Event{Name: "/m/a.flac", Op: fsnotify.Write}, true},
		{"playlist output ignored", fsnotify.Event{Name: "/m/playlist.m3u8", Op: fsnotify.Create}, false},
		{"chmod ignored", fsnotify.Event{Name: "/m/a.mp3", Op: fsnotify.Chmod}, false},
		{"directory removed", fsnotify.Event{Name: "/m/album", Op: fsnotify.Remove}, true},
		{"extensionless write ignored", fsnotify.Event{Name: "/m/README", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(tt.event))
		})
	}
}

func TestWatcherReportsAudioChanges(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.mp3"), []byte("x"), 0o600))

	assert.Equal(t, catalogChangedMsg{}, awaitChange(t, w))
}

func TestWatcherFollowsDirectoriesCreatedDuringDebounce(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	// Both creations land inside a single debounce window
	require.NoError(t, os.Mkdir(filepath.Join(root, "first"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Live.2020", "cd1"), 0o755))
	w.drain(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "Live.2020", "cd1", "track.mp3"), []byte("x"), 0o600))
	assert.Equal(t, catalogChangedMsg{}, awaitChange(t, w), "files in nested new directories are seen")

	require.NoError(t, os.WriteFile(filepath.Join(root, "first", "track.mp3"), []byte("x"), 0o600))
	assert.Equal(t, catalogChangedMsg{}, awaitChange(t, w))
}

func TestWaitForCatalogChangeWithoutWatcher(t *testing.T) {
	assert.Nil(t, waitForCatalogChange(nil))
}
