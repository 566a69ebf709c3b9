package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills in defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Audio.Device == "" {
		cfg.Audio.Device = DeviceMicrophone
	}
	if cfg.Audio.SampleRate == 0 {
		cfg.Audio.SampleRate = 44100
	}
	if cfg.Audio.FrameSize == 0 {
		cfg.Audio.FrameSize = 4096
	}
	if cfg.Analysis.MinPitchHz == 0 {
		cfg.Analysis.MinPitchHz = 85
	}
	if cfg.Analysis.MaxPitchHz == 0 {
		cfg.Analysis.MaxPitchHz = 500
	}
	if cfg.Score.SilenceRunFrames == 0 {
		cfg.Score.SilenceRunFrames = 15
	}
	if cfg.Score.MinSegmentFrames == 0 {
		cfg.Score.MinSegmentFrames = 10
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = StoreMemory
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "voxscore.db"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if !cfg.Audio.Device.IsValid() {
		errs = append(errs, fmt.Errorf("audio.device %q is invalid; valid values: microphone, synth", cfg.Audio.Device))
	}
	if cfg.Audio.SampleRate < 8000 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d is too low; need at least 8000", cfg.Audio.SampleRate))
	}
	if cfg.Audio.FrameSize < 256 {
		errs = append(errs, fmt.Errorf("audio.frame_size %d is too small; need at least 256", cfg.Audio.FrameSize))
	}

	if cfg.Analysis.NoiseFloor < 0 {
		errs = append(errs, fmt.Errorf("analysis.noise_floor %.4f must not be negative", cfg.Analysis.NoiseFloor))
	}
	if cfg.Analysis.MinPitchHz <= 0 || cfg.Analysis.MaxPitchHz <= cfg.Analysis.MinPitchHz {
		errs = append(errs, fmt.Errorf("analysis pitch band [%.1f, %.1f] is invalid; need 0 < min < max",
			cfg.Analysis.MinPitchHz, cfg.Analysis.MaxPitchHz))
	}
	// The estimator needs at least two full periods of the lowest pitch in
	// one window for the autocorrelation peak to exist.
	if cfg.Analysis.MinPitchHz > 0 && float64(cfg.Audio.FrameSize) < 2*float64(cfg.Audio.SampleRate)/cfg.Analysis.MinPitchHz {
		errs = append(errs, fmt.Errorf("audio.frame_size %d is too small to detect %.1fHz at %dHz sample rate",
			cfg.Audio.FrameSize, cfg.Analysis.MinPitchHz, cfg.Audio.SampleRate))
	}

	if cfg.Score.SilenceRunFrames < 1 {
		errs = append(errs, fmt.Errorf("score.silence_run_frames %d must be at least 1", cfg.Score.SilenceRunFrames))
	}
	if cfg.Score.MinSegmentFrames < 1 {
		errs = append(errs, fmt.Errorf("score.min_segment_frames %d must be at least 1", cfg.Score.MinSegmentFrames))
	}

	if !cfg.Store.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("store.backend %q is invalid; valid values: memory, sqlite, postgres", cfg.Store.Backend))
	}
	if cfg.Store.Backend == StorePostgres && cfg.Store.PostgresDSN == "" {
		errs = append(errs, errors.New("store.postgres_dsn is required when store.backend is postgres"))
	}
	if cfg.Store.LocalFallback && cfg.Store.Backend != StorePostgres {
		errs = append(errs, fmt.Errorf("store.local_fallback only applies to the postgres backend, not %q", cfg.Store.Backend))
	}

	return errors.Join(errs...)
}
