// Package config provides the configuration schema, loader, and file watcher
// for the Voxscore engine.
package config

// LogLevel controls log verbosity for the Voxscore process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// DeviceKind selects the audio capture backend.
type DeviceKind string

const (
	// DeviceMicrophone captures from the default system microphone.
	DeviceMicrophone DeviceKind = "microphone"

	// DeviceSynth generates audio from a built-in test program. Used by the
	// demo mode and integration tests; no hardware required.
	DeviceSynth DeviceKind = "synth"
)

// IsValid reports whether d is a recognised device kind.
func (d DeviceKind) IsValid() bool {
	return d == DeviceMicrophone || d == DeviceSynth
}

// StoreBackend selects where the last session score is persisted.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StoreSQLite   StoreBackend = "sqlite"
	StorePostgres StoreBackend = "postgres"
)

// IsValid reports whether b is a recognised store backend.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreMemory, StoreSQLite, StorePostgres:
		return true
	}
	return false
}

// Config is the root configuration structure for Voxscore.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Audio    AudioConfig    `yaml:"audio"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Score    ScoreConfig    `yaml:"score"`
	Store    StoreConfig    `yaml:"store"`
}

// ServerConfig holds network and logging settings for the HTTP surface
// (health, status, and metrics endpoints).
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	// Device selects the capture backend.
	Device DeviceKind `yaml:"device"`

	// SampleRate in Hz. Default 44100.
	SampleRate int `yaml:"sample_rate"`

	// FrameSize is the analysis window length in samples. Default 4096.
	FrameSize int `yaml:"frame_size"`
}

// AnalysisConfig tunes the pitch estimator.
type AnalysisConfig struct {
	// NoiseFloor is the RMS level below which a frame counts as silence.
	// Values below the built-in floor are ignored; calibration can only
	// raise the gate.
	NoiseFloor float64 `yaml:"noise_floor"`

	// MinPitchHz and MaxPitchHz bound the vocal band. Defaults 85 and 500.
	MinPitchHz float64 `yaml:"min_pitch_hz"`
	MaxPitchHz float64 `yaml:"max_pitch_hz"`
}

// ScoreConfig tunes segmentation.
type ScoreConfig struct {
	// SilenceRunFrames is how many consecutive silent frames end a phrase.
	// Default 15 (~250ms at the 60Hz frame cadence).
	SilenceRunFrames int `yaml:"silence_run_frames"`

	// MinSegmentFrames is the minimum voiced length for a phrase to count.
	// Default 10.
	MinSegmentFrames int `yaml:"min_segment_frames"`
}

// StoreConfig selects and configures score persistence.
type StoreConfig struct {
	// Backend selects the store implementation.
	Backend StoreBackend `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `yaml:"postgres_dsn"`

	// LocalFallback keeps scoring against a local SQLite file when the
	// postgres backend is unreachable. Ignored by other backends.
	LocalFallback bool `yaml:"local_fallback"`
}
