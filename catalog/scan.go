// ABOUTME: Builds a track catalog by walking a music directory and probing each audio file
// ABOUTME: Probes run on a worker pool; unreadable files are skipped and reported instead of failing the scan

// Package catalog produces the (path, duration) pairs playlists are built from.
package catalog

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"playlist-builder/playlist"
	"playlist-builder/pool"
)

// ErrNoTracks is returned when a scan finds no usable audio file
var ErrNoTracks = errors.New("no playable tracks found")

// DefaultExtensions are the audio formats scanned when none are configured
var DefaultExtensions = []string{".mp3", ".wav", ".ogg", ".flac"}

// Options controls a catalog scan
type Options struct {
	Extensions []string                // Lower-case extensions with leading dot, DefaultExtensions if empty
	Workers    int                     // Probe workers, 0 for one per CPU
	Prober     playlist.DurationProber // NativeProber if nil
	ReadTags   bool                    // Read title/artist/album/genre from tags

	// Progress, if set, is called from worker goroutines after each probed file
	Progress func(done, total int)
}

// Skipped records a file left out of the catalog
type Skipped struct {
	Path string
	Err  error
}

// Catalog is the result of a scan
type Catalog struct {
	Root    string
	Tracks  []playlist.Track // Sorted by path, Index set to the slice position
	Skipped []Skipped
}

// Duration returns the summed duration of all tracks
func (c *Catalog) Duration() time.Duration {
	var total time.Duration
	for i := range c.Tracks {
		total += c.Tracks[i].Duration
	}

	return total
}

// Scan walks root recursively and probes every file with a matching extension.
// Only a failure to walk root itself aborts the scan. Cancelling ctx stops probing
// and returns ctx.Err().
func Scan(ctx context.Context, root string, opts Options) (*Catalog, error) {
	paths, err := findAudioFiles(root, opts.Extensions)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("root", root).Int("files", len(paths)).Msg("catalog walk complete")

	if len(paths) == 0 {
		return nil, errors.Wrapf(ErrNoTracks, "%s", root)
	}

	prober := opts.Prober
	if prober == nil {
		prober = playlist.NativeProber{}
	}

	type result struct {
		track playlist.Track
		err   error
	}

	results := make([]result, len(paths))
	workers := pool.NewWorkerPool(opts.Workers, len(paths))

	defer workers.Close()

	var done atomic.Int64

	for i, path := range paths {
		workers.Submit(func() {
			if ctx.Err() != nil {
				results[i].err = ctx.Err()

				return
			}

			results[i].track, results[i].err = probeTrack(ctx, prober, path, opts.ReadTags)

			if opts.Progress != nil {
				opts.Progress(int(done.Add(1)), len(paths))
			}
		})
	}

	workers.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cat := &Catalog{Root: root, Tracks: make([]playlist.Track, 0, len(paths))}

	for i, r := range results {
		if r.err != nil {
			log.Warn().Err(r.err).Str("path", paths[i]).Msg("skipping track")
			cat.Skipped = append(cat.Skipped, Skipped{Path: paths[i], Err: r.err})

			continue
		}

		r.track.Index = len(cat.Tracks)
		cat.Tracks = append(cat.Tracks, r.track)
	}

	if len(cat.Tracks) == 0 {
		return cat, errors.Wrapf(ErrNoTracks, "%s: all %d files were skipped", root, len(paths))
	}

	log.Info().
		Str("root", root).
		Int("tracks", len(cat.Tracks)).
		Int("skipped", len(cat.Skipped)).
		Dur("duration", cat.Duration()).
		Msg("catalog scanned")

	return cat, nil
}

// probeTrack reads the duration and, optionally, the tags of one file
func probeTrack(ctx context.Context, prober playlist.DurationProber, path string, readTags bool) (playlist.Track, error) {
	d, err := prober.Probe(ctx, path)
	if err != nil {
		return playlist.Track{}, err
	}

	track := playlist.Track{
		Path:     path,
		Duration: d,
		Title:    playlist.TitleFromPath(path),
		Artist:   playlist.Unknown,
		Album:    playlist.Unknown,
	}

	if readTags {
		md, err := playlist.ReadMetadata(path)
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("tags unreadable, using file name")
		} else {
			md.Apply(&track)
		}
	}

	return track, nil
}

// findAudioFiles returns the matching files under root in lexical order
func findAudioFiles(root string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	wanted := make([]string, len(extensions))
	for i, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}

		wanted[i] = ext
	}

	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}

			log.Warn().Err(err).Str("path", path).Msg("skipping unreadable directory entry")

			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() {
			return nil
		}

		if slices.Contains(wanted, strings.ToLower(filepath.Ext(path))) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", root)
	}

	return paths, nil
}
