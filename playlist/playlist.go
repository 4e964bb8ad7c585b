// ABOUTME: Handles reading and writing M3U8 playlist files
// ABOUTME: Writes #EXTINF entries with durations so built playlists can be played by any player

// Package playlist handles tracks, M3U8 playlist files and music metadata.
// It reads tags directly from audio files (ID3, Vorbis comments, MP4 atoms),
// probes play durations and writes ordered track lists back to disk.
package playlist

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	m3uHeader = "#EXTM3U"
	extInf    = "#EXTINF:"
)

// ReadPlaylist reads an M3U8 playlist file.
// Durations and titles are restored from #EXTINF lines when present.
func ReadPlaylist(path string) ([]Track, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open playlist")
	}

	defer func() {
		_ = file.Close() // Explicitly ignore error for read-only file
	}()

	var (
		tracks  []Track
		pending *Track
	)

	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		if strings.HasPrefix(line, extInf) {
			pending = parseExtInf(strings.TrimPrefix(line, extInf))

			continue
		}

		// Skip other comments and directives
		if strings.HasPrefix(line, "#") {
			continue
		}

		t := Track{Path: line}
		if pending != nil {
			t.Duration = pending.Duration
			t.Artist = pending.Artist
			t.Title = pending.Title
			pending = nil
		}

		tracks = append(tracks, t)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading playlist")
	}

	return tracks, nil
}

// parseExtInf parses "<seconds>,<artist> - <title>"
func parseExtInf(s string) *Track {
	secs, label, _ := strings.Cut(s, ",")

	t := &Track{}

	if n, err := strconv.ParseInt(strings.TrimSpace(secs), 10, 64); err == nil && n > 0 {
		t.Duration = time.Duration(n) * time.Second
	}

	if artist, title, ok := strings.Cut(label, " - "); ok {
		t.Artist = strings.TrimSpace(artist)
		t.Title = strings.TrimSpace(title)
	} else {
		t.Title = strings.TrimSpace(label)
	}

	return t
}

// WritePlaylist writes tracks to an M3U8 playlist file in the given order
// Creates a backup (.bak) of the existing file before overwriting
func WritePlaylist(path string, tracks []Track) (err error) {
	// Create backup if file exists
	if _, statErr := os.Stat(path); statErr == nil {
		backupPath := path + ".bak"
		if err := os.Rename(path, backupPath); err != nil {
			return errors.Wrap(err, "failed to create backup")
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create playlist")
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "failed to close playlist file")
		}
	}()

	writer := bufio.NewWriter(file)

	if _, err := writer.WriteString(m3uHeader + "\n"); err != nil {
		return errors.Wrap(err, "failed to write header")
	}

	for i := range tracks {
		if _, err := writer.WriteString(formatExtInf(&tracks[i]) + "\n" + tracks[i].Path + "\n"); err != nil {
			return errors.Wrap(err, "failed to write track")
		}
	}

	if err := writer.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush writer")
	}

	return nil
}

// formatExtInf renders the #EXTINF line for a track.
// The artist is always present so a title containing " - " reads back intact.
func formatExtInf(t *Track) string {
	artist := t.Artist
	if artist == "" {
		artist = Unknown
	}

	return fmt.Sprintf("%s%d,%s - %s", extInf, t.Seconds(), artist, t.Title)
}
