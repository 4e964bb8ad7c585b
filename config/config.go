// ABOUTME: Configuration management for playlist building parameters
// ABOUTME: Handles loading/saving TOML or YAML config files with struct-tag defaults and validation

package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by the loader
const (
	EnvConfigPath = "PLAYLIST_BUILDER_CONFIG"
	EnvMusicDir   = "PLAYLIST_BUILDER_MUSIC_DIR"
)

// Heuristic names accepted in BuildConfig.Heuristic
const (
	HeuristicGreedy    = "greedy"
	HeuristicAnnealing = "annealing"
)

// BuildConfig holds all tunable playlist building parameters
type BuildConfig struct {
	// Catalog
	MusicDir      string   `toml:"music_dir" yaml:"music_dir"`
	Extensions    []string `toml:"extensions" yaml:"extensions" default:"[\".mp3\",\".wav\",\".ogg\",\".flac\"]" validate:"min=1,dive,required"`
	DurationProbe string   `toml:"duration_probe" yaml:"duration_probe" default:"native" validate:"oneof=native ffprobe"`
	FFprobePath   string   `toml:"ffprobe_path" yaml:"ffprobe_path" default:"ffprobe"`
	ReadTags      bool     `toml:"read_tags" yaml:"read_tags" default:"true"`

	// Target duration used when none is given on the command line
	TargetMinutes float64 `toml:"target_minutes" yaml:"target_minutes" default:"60" validate:"gt=0"`

	// Refinement
	DepthFraction float64 `toml:"depth_fraction" yaml:"depth_fraction" default:"1.0" validate:"gte=0,lte=1"`
	StepsFraction float64 `toml:"steps_fraction" yaml:"steps_fraction" default:"1.0" validate:"gte=0,lte=1"`
	Passes        int     `toml:"passes" yaml:"passes" default:"2" validate:"gte=0,lte=100"`
	Adaptive      bool    `toml:"adaptive" yaml:"adaptive"`

	// Candidate acceptance
	Heuristic          string  `toml:"heuristic" yaml:"heuristic" default:"greedy" validate:"oneof=greedy annealing"`
	TemperatureSeconds float64 `toml:"temperature_seconds" yaml:"temperature_seconds" default:"30" validate:"gte=0"`

	// Worker goroutines, 0 for one per CPU
	Workers int `toml:"workers" yaml:"workers" validate:"gte=0"`
}

// Target returns TargetMinutes as a duration
func (c BuildConfig) Target() time.Duration {
	return time.Duration(c.TargetMinutes * float64(time.Minute))
}

// Temperature returns TemperatureSeconds as a duration
func (c BuildConfig) Temperature() time.Duration {
	return time.Duration(c.TemperatureSeconds * float64(time.Second))
}

// Validate checks value ranges
func (c BuildConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	return nil
}

// LoadEnv loads variables from .env files that exist, without overriding the environment
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}

		if err := godotenv.Load(f); err != nil {
			return errors.Wrapf(err, "failed to load %s", f)
		}
	}

	return nil
}

// GetConfigPath returns the config file path
// PLAYLIST_BUILDER_CONFIG wins, then the current directory, then ~/.config/playlist-builder/config.toml
func GetConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}

	if _, err := os.Stat("./playlist-builder.toml"); err == nil {
		return "./playlist-builder.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./playlist-builder.toml"
	}

	return filepath.Join(home, ".config", "playlist-builder", "config.toml")
}

// LoadConfig loads configuration from a TOML or YAML file
// Fields missing from the file keep their defaults. A missing file yields the defaults.
// On any error the defaults, with environment overrides applied, are returned together with the error.
func LoadConfig(path string) (BuildConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()

			return cfg, nil
		}

		return fallbackConfig(), errors.Wrap(err, "failed to read config file")
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = toml.Unmarshal(data, &cfg)
	}

	if err != nil {
		return fallbackConfig(), errors.Wrapf(err, "failed to parse config file %s", path)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return fallbackConfig(), err
	}

	return cfg, nil
}

// fallbackConfig is what LoadConfig returns when the file cannot be used
func fallbackConfig() BuildConfig {
	cfg := DefaultConfig()
	cfg.applyEnv()

	return cfg
}

func (c *BuildConfig) applyEnv() {
	if v := os.Getenv(EnvMusicDir); v != "" {
		c.MusicDir = v
	}
}

// SaveConfig saves configuration to a TOML file, or YAML when the extension says so
func SaveConfig(path string, cfg BuildConfig) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	// Match UI precision so values do not drift across saves
	cfg = roundConfigPrecision(cfg)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "failed to close config file")
		}
	}()

	if isYAML(path) {
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)

		if err := enc.Encode(cfg); err != nil {
			return errors.Wrap(err, "failed to write config")
		}

		return enc.Close()
	}

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to write config")
	}

	return nil
}

// DefaultConfig returns the configuration described by the struct tags
func DefaultConfig() BuildConfig {
	var cfg BuildConfig
	if err := defaults.Set(&cfg); err != nil {
		panic(errors.Wrap(err, "invalid config defaults"))
	}

	return cfg
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// roundConfigPrecision rounds all float64 fields to 2 decimal places
func roundConfigPrecision(cfg BuildConfig) BuildConfig {
	round := func(x float64) float64 {
		return math.Round(x*100) / 100
	}

	cfg.TargetMinutes = round(cfg.TargetMinutes)
	cfg.DepthFraction = round(cfg.DepthFraction)
	cfg.StepsFraction = round(cfg.StepsFraction)
	cfg.TemperatureSeconds = round(cfg.TemperatureSeconds)

	return cfg
}

// SharedConfig wraps BuildConfig with a mutex for access from the TUI and the build runner
type SharedConfig struct {
	mu     sync.RWMutex
	config BuildConfig
}

// NewSharedConfig returns a SharedConfig holding cfg
func NewSharedConfig(cfg BuildConfig) *SharedConfig {
	return &SharedConfig{config: cfg}
}

// Get returns a copy of the current config
func (sc *SharedConfig) Get() BuildConfig {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	cfg := sc.config
	cfg.Extensions = append([]string(nil), sc.config.Extensions...)

	return cfg
}

// Update replaces the config
func (sc *SharedConfig) Update(cfg BuildConfig) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.config = cfg
}
