package config

import (
	"strings"
	"testing"
)

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != LogInfo {
		t.Errorf("LogLevel = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Audio.Device != DeviceMicrophone {
		t.Errorf("Device = %q, want microphone", cfg.Audio.Device)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.FrameSize != 4096 {
		t.Errorf("audio defaults = %d/%d, want 44100/4096", cfg.Audio.SampleRate, cfg.Audio.FrameSize)
	}
	if cfg.Analysis.MinPitchHz != 85 || cfg.Analysis.MaxPitchHz != 500 {
		t.Errorf("pitch band = [%v, %v], want [85, 500]", cfg.Analysis.MinPitchHz, cfg.Analysis.MaxPitchHz)
	}
	if cfg.Score.SilenceRunFrames != 15 || cfg.Score.MinSegmentFrames != 10 {
		t.Errorf("score defaults = %d/%d, want 15/10", cfg.Score.SilenceRunFrames, cfg.Score.MinSegmentFrames)
	}
	if cfg.Store.Backend != StoreMemory {
		t.Errorf("Backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()

	const doc = `
server:
  listen_addr: ":9090"
  log_level: debug
audio:
  device: synth
  sample_rate: 48000
  frame_size: 4096
analysis:
  noise_floor: 0.02
  min_pitch_hz: 90
  max_pitch_hz: 450
score:
  silence_run_frames: 20
  min_segment_frames: 12
store:
  backend: postgres
  postgres_dsn: "postgres://vox@localhost/voxscore"
  local_fallback: true
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" || cfg.Server.LogLevel != LogDebug {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Audio.Device != DeviceSynth || cfg.Audio.SampleRate != 48000 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Analysis.NoiseFloor != 0.02 {
		t.Errorf("NoiseFloor = %v, want 0.02", cfg.Analysis.NoiseFloor)
	}
	if cfg.Store.Backend != StorePostgres || !cfg.Store.LocalFallback {
		t.Errorf("store = %+v", cfg.Store)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := LoadFromReader(strings.NewReader("server:\n  listne_addr: \":8080\"\n"))
	if err == nil {
		t.Fatal("expected error for misspelled field, got nil")
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "verbose" },
			wantSub: "log_level",
		},
		{
			name:    "bad device",
			mutate:  func(c *Config) { c.Audio.Device = "tape" },
			wantSub: "audio.device",
		},
		{
			name:    "sample rate too low",
			mutate:  func(c *Config) { c.Audio.SampleRate = 4000 },
			wantSub: "sample_rate",
		},
		{
			name:    "inverted pitch band",
			mutate:  func(c *Config) { c.Analysis.MinPitchHz = 500; c.Analysis.MaxPitchHz = 85 },
			wantSub: "pitch band",
		},
		{
			name:    "window too small for band",
			mutate:  func(c *Config) { c.Audio.FrameSize = 512 },
			wantSub: "too small to detect",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Store.Backend = StorePostgres },
			wantSub: "postgres_dsn",
		},
		{
			name:    "fallback without postgres",
			mutate:  func(c *Config) { c.Store.LocalFallback = true },
			wantSub: "local_fallback",
		},
		{
			name:    "negative noise floor",
			mutate:  func(c *Config) { c.Analysis.NoiseFloor = -0.1 },
			wantSub: "noise_floor",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{}
			applyDefaults(cfg)
			tc.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestValidate_JoinsMultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Server.LogLevel = "loud"
	cfg.Audio.Device = "tape"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "log_level") || !strings.Contains(msg, "audio.device") {
		t.Errorf("joined error %q missing one of the failures", msg)
	}
}
