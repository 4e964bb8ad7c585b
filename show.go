// ABOUTME: Show command listing a written M3U8 playlist with its total duration
// ABOUTME: Reads #EXTINF lengths and falls back to the file name for untagged entries

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"playlist-builder/playlist"
)

// RunShow prints the playlist at path as a table followed by its total duration
func RunShow(w io.Writer, path string) error {
	tracks, err := playlist.ReadPlaylist(path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tArtist\tTitle\tLength")

	var total time.Duration

	for i, t := range tracks {
		title := t.Title
		if title == "" {
			title = playlist.TitleFromPath(t.Path)
		}

		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, truncate(t.Artist, 20), truncate(title, 40), formatDuration(t.Duration))
		total += t.Duration
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "\n%d tracks, %s\n", len(tracks), formatDuration(total))

	return err
}
