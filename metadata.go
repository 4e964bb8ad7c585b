// ABOUTME: Metadata command printing the tags, cover art and duration of one audio file
// ABOUTME: Uses the same tag reader and duration prober as the catalog scanner

package main

import (
	"context"
	"fmt"
	"io"

	"playlist-builder/config"
	"playlist-builder/playlist"
)

// RunMetadata prints metadata for the audio file at path
func RunMetadata(ctx context.Context, w io.Writer, path string, cfg config.BuildConfig) error {
	md, err := playlist.ReadMetadata(path)
	if err != nil {
		return err
	}

	prober, err := playlist.NewProber(cfg.DurationProbe, cfg.FFprobePath)
	if err != nil {
		return err
	}

	d, err := prober.Probe(ctx, path)
	if err != nil {
		return err
	}

	md.Duration = d

	printMetadata(w, path, md)

	return nil
}

// printMetadata writes md as aligned key/value lines
func printMetadata(w io.Writer, path string, md *playlist.Metadata) {
	genre := md.Genre
	if genre == "" {
		genre = playlist.Unknown
	}

	picture := "none"
	if len(md.Picture) > 0 {
		picture = fmt.Sprintf("%s, %d bytes", md.MIMEType, len(md.Picture))
	}

	_, _ = fmt.Fprintf(w, "File:     %s\n", path)
	_, _ = fmt.Fprintf(w, "Title:    %s\n", md.Title)
	_, _ = fmt.Fprintf(w, "Artist:   %s\n", md.Artist)
	_, _ = fmt.Fprintf(w, "Album:    %s\n", md.Album)
	_, _ = fmt.Fprintf(w, "Genre:    %s\n", genre)
	_, _ = fmt.Fprintf(w, "Picture:  %s\n", picture)
	_, _ = fmt.Fprintf(w, "Duration: %s (%d s)\n", formatDuration(md.Duration), int64(md.Duration.Seconds()))
}
