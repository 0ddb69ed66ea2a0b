package config

import (
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"ecgrisk/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	NATS      NATSConfig
	Predictor PredictorConfig
	Signal    SignalConfig
	Render    RenderConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	OpsPort         string
	GinMode         string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings. An empty URL selects the
// in-memory repositories. PatientsFile, an xlsx or csv catalog, replaces the
// built-in cases when set.
type DatabaseConfig struct {
	URL          string
	PatientsFile string
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// NATSConfig holds message bus settings. An empty URL disables publishing.
type NATSConfig struct {
	URL            string
	Name           string
	WaveSubject    string
	ParamsSubject  string
	PredictSubject string
}

// Enabled reports whether a NATS server is configured.
func (n NATSConfig) Enabled() bool { return n.URL != "" }

// PredictorConfig selects the prediction backend
type PredictorConfig struct {
	Mode     string // mock | nats | http
	URL      string
	Interval time.Duration
	Timeout  time.Duration
}

// SignalConfig holds synthesizer and playback settings
type SignalConfig struct {
	Length       int
	WindowLength int
	TickInterval time.Duration
	TickStep     int
	Seed         int64
}

// RenderConfig holds waveform surface settings
type RenderConfig struct {
	Width       int
	Height      int
	StrokeColor string
}

// Predictor modes
const (
	PredictorMock = "mock"
	PredictorNATS = "nats"
	PredictorHTTP = "http"
)

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server:    loadServerConfig(),
		Database:  DatabaseConfig{URL: os.Getenv("DATABASE_URL"), PatientsFile: os.Getenv("PATIENTS_FILE")},
		NATS:      loadNATSConfig(),
		Predictor: loadPredictorConfig(),
		Signal:    loadSignalConfig(),
		Render:    loadRenderConfig(),
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Default returns the configuration Load produces with an empty environment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", OpsPort: "8081", GinMode: "release", ShutdownTimeout: 5 * time.Second},
		NATS: NATSConfig{
			Name:           "ecgrisk",
			WaveSubject:    "ecg.wave",
			ParamsSubject:  "ecg.params",
			PredictSubject: "ecg.predict",
		},
		Predictor: PredictorConfig{Mode: PredictorMock, Interval: 2 * time.Second, Timeout: time.Second},
		Signal: SignalConfig{
			Length:       500,
			WindowLength: 200,
			TickInterval: 50 * time.Millisecond,
			TickStep:     2,
			Seed:         1,
		},
		Render: RenderConfig{Width: 600, Height: 200, StrokeColor: "#3b82f6"},
	}
}

func loadServerConfig() ServerConfig {
	d := Default().Server
	return ServerConfig{
		Port:            getEnvOrDefault("PORT", d.Port),
		OpsPort:         getEnvOrDefault("OPS_PORT", d.OpsPort),
		GinMode:         getEnvOrDefault("GIN_MODE", d.GinMode),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", d.ShutdownTimeout),
	}
}

func loadNATSConfig() NATSConfig {
	d := Default().NATS
	return NATSConfig{
		URL:            os.Getenv("NATS_URL"),
		Name:           getEnvOrDefault("NATS_NAME", d.Name),
		WaveSubject:    getEnvOrDefault("NATS_WAVE_SUBJECT", d.WaveSubject),
		ParamsSubject:  getEnvOrDefault("NATS_PARAMS_SUBJECT", d.ParamsSubject),
		PredictSubject: getEnvOrDefault("NATS_PREDICT_SUBJECT", d.PredictSubject),
	}
}

func loadPredictorConfig() PredictorConfig {
	d := Default().Predictor
	return PredictorConfig{
		Mode:     strings.ToLower(getEnvOrDefault("PREDICTOR", d.Mode)),
		URL:      os.Getenv("PREDICTOR_URL"),
		Interval: getEnvDurationOrDefault("PREDICT_INTERVAL", d.Interval),
		Timeout:  getEnvDurationOrDefault("PREDICT_TIMEOUT", d.Timeout),
	}
}

func loadSignalConfig() SignalConfig {
	d := Default().Signal
	return SignalConfig{
		Length:       getEnvIntOrDefault("SIGNAL_LENGTH", d.Length),
		WindowLength: getEnvIntOrDefault("WINDOW_LENGTH", d.WindowLength),
		TickInterval: getEnvDurationOrDefault("TICK_INTERVAL", d.TickInterval),
		TickStep:     getEnvIntOrDefault("TICK_STEP", d.TickStep),
		Seed:         int64(getEnvIntOrDefault("SEED", int(d.Seed))),
	}
}

func loadRenderConfig() RenderConfig {
	d := Default().Render
	return RenderConfig{
		Width:       getEnvIntOrDefault("SURFACE_WIDTH", d.Width),
		Height:      getEnvIntOrDefault("SURFACE_HEIGHT", d.Height),
		StrokeColor: getEnvOrDefault("STROKE_COLOR", d.StrokeColor),
	}
}

// Validate checks cross-field constraints
func Validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if cfg.Signal.Length < 0 {
		return errors.ConfigInvalid("SIGNAL_LENGTH must be >= 0")
	}
	if cfg.Signal.WindowLength <= 0 {
		return errors.ConfigInvalid("WINDOW_LENGTH must be > 0")
	}
	if cfg.Signal.TickInterval <= 0 {
		return errors.ConfigInvalid("TICK_INTERVAL must be > 0")
	}
	if cfg.Predictor.Interval <= 0 {
		return errors.ConfigInvalid("PREDICT_INTERVAL must be > 0")
	}
	if cfg.Render.Width <= 0 || cfg.Render.Height <= 0 {
		return errors.ConfigInvalid("SURFACE_WIDTH and SURFACE_HEIGHT must be > 0")
	}
	if _, err := ParseHexColor(cfg.Render.StrokeColor); err != nil {
		return errors.Wrap(errors.ConfigInvalid(err.Error()), "STROKE_COLOR")
	}

	switch cfg.Predictor.Mode {
	case PredictorMock:
	case PredictorNATS:
		if !cfg.NATS.Enabled() {
			return errors.ConfigInvalid("PREDICTOR=nats requires NATS_URL")
		}
	case PredictorHTTP:
		if cfg.Predictor.URL == "" {
			return errors.ConfigInvalid("PREDICTOR=http requires PREDICTOR_URL")
		}
	default:
		return errors.ConfigInvalid("unknown PREDICTOR mode: " + cfg.Predictor.Mode)
	}
	return nil
}

// ParseHexColor parses #rgb or #rrggbb.
func ParseHexColor(s string) (color.RGBA, error) {
	c := color.RGBA{A: 0xff}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return c, errors.InvalidInput("color must be #rgb or #rrggbb: " + s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return c, errors.InvalidInput("invalid hex color: " + s)
	}
	c.R = uint8(v >> 16)
	c.G = uint8(v >> 8)
	c.B = uint8(v)
	return c, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
