// ABOUTME: CLI mode implementation for non-interactive playlist building
// ABOUTME: Scans the catalog, seeds and refines a playlist, prints the result and writes it as M3U8

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"playlist-builder/builder"
	"playlist-builder/catalog"
	"playlist-builder/config"
)

// RunCLI executes CLI mode building
func RunCLI(ctx context.Context, opts RunOptions, cfg config.BuildConfig) error {
	logger := log.With().Str("run", opts.RunID).Logger()

	h, err := heuristic(cfg)
	if err != nil {
		return err
	}

	cat, err := scanWithSpinner(ctx, opts.MusicDir, cfg)
	if err != nil {
		return err
	}

	for _, s := range cat.Skipped {
		fmt.Printf("Skipped %s: %v\n", s.Path, s.Err)
	}

	target := opts.Target
	if target == 0 {
		target = cfg.Target()
	}

	fmt.Printf("Catalog: %d tracks, %s total\n", len(cat.Tracks), formatDuration(cat.Duration()))
	fmt.Printf("Target:  %s\n\n", formatDuration(target))

	optimizer := builder.NewOptimizer(cfg.Workers)
	defer optimizer.Close()

	startTime := time.Now()

	p := builder.Seed(cat.Tracks, target, newRand(opts.Seed, 0))
	fmt.Printf("Seeded   %3d tracks  %9s  (%s)\n", p.UsedLen(), formatDuration(p.Total()), formatOffset(p.Total(), target))

	refine := refineOptions(cfg)
	refine.Progress = func(s builder.SweepStats) {
		fmt.Printf("Pass %-3d %3d changed %9s  (%s)  depth %d, steps %d\n",
			s.Pass, s.Changed, formatDuration(s.Total), formatOffset(s.Total, target), s.Depth, s.Steps)
	}

	stats, err := optimizer.Refine(ctx, p, refine, h)
	if err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "refinement failed")
	}

	if err != nil {
		fmt.Println("\nInterrupted, keeping the playlist refined so far")
	}

	logger.Info().
		Int("tracks", p.UsedLen()).
		Int("passes", stats.Passes).
		Int("attempts", stats.Attempts).
		Int("changed", stats.Changed).
		Dur("initial_distance", stats.InitialDistance).
		Dur("final_distance", stats.FinalDistance).
		Dur("elapsed", time.Since(startTime)).
		Msg("build finished")

	printPlaylist(p)

	// Refinement may settle below target on its own; only a short catalog warrants a warning
	if catalogTotal := cat.Duration(); catalogTotal < target {
		logger.Warn().Dur("catalog", catalogTotal).Dur("target", target).Msg("catalog shorter than target")
		fmt.Printf("\nWarning: the whole catalog (%s) is shorter than the target (%s)\n", formatDuration(catalogTotal), formatDuration(target))
	}

	if opts.DryRun {
		fmt.Println("\n--dry-run mode: playlist not written")

		return nil
	}

	fmt.Printf("\nWriting playlist to: %s\n", opts.OutputPath)

	if err := writePlaylist(opts.OutputPath, p.Tracks()); err != nil {
		return err
	}

	fmt.Println("Done!")

	return nil
}

// scanWithSpinner scans the catalog, showing a spinner when stdout is a terminal
func scanWithSpinner(ctx context.Context, root string, cfg config.BuildConfig) (*catalog.Catalog, error) {
	var cat *catalog.Catalog

	scan := func(ctx context.Context) error {
		var err error
		cat, err = loadCatalog(ctx, root, cfg, nil)

		return err
	}

	if !isTTY(os.Stdout) {
		fmt.Printf("Scanning %s\n", root)

		return cat, scan(ctx)
	}

	err := spinner.New().Title("Scanning " + root + "...").Context(ctx).ActionWithErr(scan).Run()

	return cat, err
}

// printPlaylist prints the playlist as a table
func printPlaylist(p *builder.Playlist) {
	fmt.Println("\nPlaylist:")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tArtist\tTitle\tAlbum\tLength")
	_, _ = fmt.Fprintln(w, "---\t------\t-----\t-----\t------")

	for i, track := range p.Tracks() {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			i+1,
			truncate(track.Artist, 20),
			truncate(track.Title, 30),
			truncate(track.Album, 20),
			formatDuration(track.Duration),
		)
	}

	_, _ = fmt.Fprintf(w, "\t\t\tTotal\t%s\n", formatDuration(p.Total()))

	if err := w.Flush(); err != nil {
		log.Warn().Err(err).Msg("failed to flush output")
	}

	paths, seconds := p.Paths()
	fmt.Printf("\n%d tracks, %d seconds, %s of target, off by %s\n",
		len(paths), seconds, formatPercent(p.Total(), p.Target()), formatOffset(p.Total(), p.Target()))
}
