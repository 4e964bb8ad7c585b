// ABOUTME: Entry point for playlist-builder application
// ABOUTME: Handles command-line parsing, logging, profiling, and routing to CLI, TUI or metadata modes

// Package main provides the entry point for playlist-builder, which picks tracks from a music
// library whose combined duration approximates a target length.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"playlist-builder/builder"
	"playlist-builder/config"
	"playlist-builder/logger"
	"playlist-builder/playlist"
	"playlist-builder/tui"
)

const debugLogFile = "playlist-builder-debug.log"

var (
	app        = kingpin.New("playlist-builder", "Build playlists that fill a target duration from a music library")
	configPath = app.Flag("config", "Config file (TOML, or YAML by extension)").Envar(config.EnvConfigPath).String()
	debugFlag  = app.Flag("debug", "Enable debug logging (to "+debugLogFile+" in visual mode)").Bool()
	cpuprofile = app.Flag("cpuprofile", "Write cpu profile to file").String()
	memprofile = app.Flag("memprofile", "Write memory profile to file").String()

	buildCmd    = app.Command("build", "Build a playlist from a music directory").Default()
	buildRoot   = buildCmd.Arg("music-dir", "Music directory to scan (default: config or "+config.EnvMusicDir+")").String()
	buildTarget = buildCmd.Flag("target", `Target duration, e.g. "90m" or seconds (default: config)`).Short('t').String()
	buildOutput = buildCmd.Flag("output", "Write the playlist to this M3U8 file").Short('o').Default("playlist.m3u8").String()
	buildDryRun = buildCmd.Flag("dry-run", "Preview the playlist without writing it").Bool()
	buildVisual = buildCmd.Flag("visual", "Run in visual/interactive mode with live parameter tuning").Bool()
	buildWatch  = buildCmd.Flag("watch", "Rebuild in visual mode when the music directory changes").Default("true").Bool()
	buildSeed   = buildCmd.Flag("seed", "Seed for reproducible draws (0 picks a random seed)").Uint64()

	metadataCmd  = app.Command("metadata", "Show tags, cover art and duration of an audio file")
	metadataFile = metadataCmd.Arg("file", "Audio file").Required().ExistingFile()

	showCmd      = app.Command("show", "List a written M3U8 playlist with its total duration")
	showPlaylist = showCmd.Arg("playlist", "M3U8 playlist").Required().ExistingFile()
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *cpuprofile != "" {
		stopCPUProfile, err := setupCPUProfile(*cpuprofile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)

			return 1
		}
		defer stopCPUProfile()
	}

	if *memprofile != "" {
		defer writeMemoryProfile(*memprofile)
	}

	visual := command == buildCmd.FullCommand() && *buildVisual
	if err := setupLogging(visual, *debugFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)

		return 1
	}
	defer logger.Close()

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("using default config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case metadataCmd.FullCommand():
		err = RunMetadata(ctx, os.Stdout, *metadataFile, cfg)
	case showCmd.FullCommand():
		err = RunShow(os.Stdout, *showPlaylist)
	case buildCmd.FullCommand():
		err = runBuild(ctx, cfg, path, visual)
	}

	if err != nil {
		log.Error().Err(err).Msg(command + " failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	return 0
}

// setupLogging routes logs to stderr in CLI mode and away from the screen in visual mode
func setupLogging(visual, debug bool) error {
	level := "info"
	if debug {
		level = "debug"
	}

	if !visual {
		return logger.Init(logger.Config{Output: "stderr", Level: level})
	}

	if !debug {
		logger.Discard()

		return nil
	}

	if err := logger.Init(logger.Config{Output: "file", Level: level, File: debugLogFile}); err != nil {
		return errors.Wrap(err, "failed to setup debug log")
	}

	if isTTY(os.Stdout) {
		fmt.Printf("Debug logging enabled: %s\n", debugLogFile)
	}

	return nil
}

// runBuild resolves the build options and runs the CLI or the TUI
func runBuild(ctx context.Context, cfg config.BuildConfig, cfgPath string, visual bool) error {
	root, err := musicDir(*buildRoot, cfg)
	if err != nil {
		return err
	}

	target, err := parseTarget(*buildTarget)
	if err != nil {
		return err
	}

	if target > 0 {
		cfg.TargetMinutes = target.Minutes()
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := RunOptions{
		MusicDir:   root,
		Target:     target,
		OutputPath: *buildOutput,
		DryRun:     *buildDryRun,
		Seed:       *buildSeed,
		RunID:      uuid.NewString(),
	}

	log.Debug().
		Str("run", opts.RunID).
		Str("root", root).
		Str("config", cfgPath).
		Dur("target", cfg.Target()).
		Bool("visual", visual).
		Msg("starting build")

	if !visual {
		return RunCLI(ctx, opts, cfg)
	}

	return runVisual(ctx, opts, cfg, cfgPath)
}

// runVisual wires the TUI to the builder, the catalog scanner and the playlist writer
func runVisual(ctx context.Context, opts RunOptions, cfg config.BuildConfig, cfgPath string) error {
	shared := config.NewSharedConfig(cfg)

	optimizer := builder.NewOptimizer(cfg.Workers)
	defer optimizer.Close()

	deps := tui.Dependencies{
		Config:     shared,
		Runner:     &buildRunner{optimizer: optimizer, seed: opts.Seed, runID: opts.RunID},
		Catalog:    &catalogLoader{root: opts.MusicDir, config: shared},
		Writer:     tui.WriterFunc(writePlaylist),
		ConfigPath: cfgPath,
	}

	return tui.Run(ctx, tui.Options{
		MusicDir:   opts.MusicDir,
		OutputPath: opts.OutputPath,
		DryRun:     opts.DryRun,
		Watch:      *buildWatch,
	}, deps)
}

// writePlaylist writes tracks as M3U8, creating the parent directory if needed
func writePlaylist(path string, tracks []playlist.Track) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create output directory")
		}
	}

	if err := playlist.WritePlaylist(path, tracks); err != nil {
		return errors.Wrapf(err, "failed to write playlist %s", path)
	}

	return nil
}

// setupCPUProfile starts CPU profiling, returns cleanup function
func setupCPUProfile(filename string) (func(), error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, errors.Wrap(err, "could not create CPU profile")
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()

		return nil, errors.Wrap(err, "could not start CPU profile")
	}

	return func() {
		pprof.StopCPUProfile()

		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close CPU profile")
		}
	}, nil
}

// writeMemoryProfile writes memory profile to file
func writeMemoryProfile(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		log.Error().Err(err).Msg("could not create memory profile")

		return
	}

	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close memory profile")
		}
	}()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Error().Err(err).Msg("could not write memory profile")
	}
}
