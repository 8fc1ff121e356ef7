package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// EnvPrefix prefixes every environment override, e.g. FRAMESIEVE_DEDUP_THRESHOLD.
const EnvPrefix = "FRAMESIEVE_"

// Config holds all application configuration
type Config struct {
	Dedup    DedupConfig    `yaml:"dedup" envPrefix:"DEDUP_"`
	FFmpeg   FFmpegConfig   `yaml:"ffmpeg" envPrefix:"FFMPEG_"`
	Output   OutputConfig   `yaml:"output" envPrefix:"OUTPUT_"`
	Progress ProgressConfig `yaml:"progress" envPrefix:"PROGRESS_"`
}

// DedupConfig controls the keep/drop decision and output rate.
type DedupConfig struct {
	Threshold     float64 `yaml:"threshold" env:"THRESHOLD"`
	SkipFrames    int     `yaml:"skip_frames" env:"SKIP_FRAMES"`
	NewFPS        bool    `yaml:"new_fps" env:"NEW_FPS"`
	AnalysisWidth int     `yaml:"analysis_width" env:"ANALYSIS_WIDTH"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path" env:"BINARY_PATH"`
	ProbePath  string `yaml:"probe_path" env:"PROBE_PATH"`
	Threads    int    `yaml:"threads" env:"THREADS"`
	Preset     string `yaml:"preset" env:"PRESET"`
}

type OutputConfig struct {
	Codec       string `yaml:"codec" env:"CODEC"`
	Streaming   bool   `yaml:"streaming" env:"STREAMING"`
	Report      string `yaml:"report" env:"REPORT"`
	MetricsFile string `yaml:"metrics_file" env:"METRICS_FILE"`
}

type ProgressConfig struct {
	Bar      bool `yaml:"bar" env:"BAR"`
	LogEvery int  `yaml:"log_every" env:"LOG_EVERY"`
}

// Load reads configuration from file, then applies environment overrides.
// A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges. It does not touch the filesystem.
func (c *Config) Validate() error {
	d := c.Dedup
	if d.Threshold < 0 || math.IsNaN(d.Threshold) || math.IsInf(d.Threshold, 0) {
		return errors.New("threshold must be a non-negative number")
	}
	if d.SkipFrames < 1 {
		return errors.New("skip frames must be at least 1")
	}
	if d.AnalysisWidth < 0 {
		return errors.New("analysis width must not be negative")
	}
	if c.FFmpeg.Threads < 0 {
		return errors.New("ffmpeg threads must not be negative")
	}
	if !KnownCodec(c.Output.Codec) {
		return fmt.Errorf("unknown output codec %q (use one of: %s)", c.Output.Codec, strings.Join(CodecTags(), ", "))
	}
	if c.Progress.LogEvery < 1 {
		return errors.New("progress log interval must be at least 1")
	}
	return nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dedup: DedupConfig{
			Threshold:     1000.0,
			SkipFrames:    1,
			NewFPS:        false,
			AnalysisWidth: 0,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
			Preset:     "medium",
		},
		Output: OutputConfig{
			Codec: "mp4v",
		},
		Progress: ProgressConfig{
			Bar:      true,
			LogEvery: 100,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./framesieve.yaml",
		"./framesieve.yml",
		filepath.Join(os.Getenv("HOME"), ".framesieve", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
