// ABOUTME: Defines Track struct and metadata reading directly from audio file tags
// ABOUTME: Provides title/artist/album/genre and embedded picture extraction with filename fallbacks

package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
)

// Unknown is shown for tag fields that are missing from a file
const Unknown = "Unknown"

// Track represents an audio file with the duration needed for building playlists
type Track struct {
	Path     string        // File path, used as the track reference
	Duration time.Duration // Play duration (never negative)
	Title    string        // Track title (file name without extension if untagged)
	Artist   string        // Artist name
	Album    string        // Album name
	Genre    string        // Genre from tags (empty if not available)
	Index    int           // Index in the catalog slice
}

// Metadata holds display information read from an audio file
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Genre    string
	Picture  []byte // Embedded cover art, nil if the file has none
	MIMEType string // MIME type of Picture, Unknown if there is no picture
	Duration time.Duration
}

// ReadMetadata reads tags from the audio file at path.
// Missing fields fall back to Unknown, the title falls back to the file name without extension.
// Files without any readable tags are not an error: only the fallbacks are returned.
func ReadMetadata(path string) (*Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = file.Close() }()

	md := &Metadata{
		Title:    TitleFromPath(path),
		Artist:   Unknown,
		Album:    Unknown,
		MIMEType: Unknown,
	}

	tags, err := tag.ReadFrom(file)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return md, nil
		}

		return nil, errors.Wrap(err, "failed to read metadata")
	}

	if v := strings.TrimSpace(tags.Title()); v != "" {
		md.Title = v
	}

	if v := strings.TrimSpace(tags.Artist()); v != "" {
		md.Artist = v
	}

	if v := strings.TrimSpace(tags.Album()); v != "" {
		md.Album = v
	}

	md.Genre = strings.TrimSpace(tags.Genre())

	if pic := tags.Picture(); pic != nil && len(pic.Data) > 0 {
		md.Picture = pic.Data
		if pic.MIMEType != "" {
			md.MIMEType = pic.MIMEType
		}
	}

	return md, nil
}

// Apply copies display fields of the metadata onto the track
func (m *Metadata) Apply(t *Track) {
	t.Title = m.Title
	t.Artist = m.Artist
	t.Album = m.Album
	t.Genre = m.Genre
}

// TitleFromPath returns the file name without its extension, the title of untagged files
// Example: "Artist/Album/01 Song.flac" -> "01 Song"
func TitleFromPath(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Seconds returns the duration in whole seconds, rounded down
func (t *Track) Seconds() int64 {
	return int64(t.Duration / time.Second)
}

// String returns a formatted string representation of the track
func (t *Track) String() string {
	return fmt.Sprintf("%-30s - %s (%s)", t.Artist, t.Title, t.Duration.Round(time.Second))
}
