// Package config loads mudra settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ayusman/mudra/internal/predict"
)

// Environment variable names.
const (
	EnvEndpoint = "MUDRA_ENDPOINT"
	EnvTimeout  = "MUDRA_TIMEOUT"
	EnvEncoders = "MUDRA_ENCODERS"
	EnvLogLevel = "MUDRA_LOG_LEVEL"
	EnvLogFile  = "MUDRA_LOG_FILE"
	EnvDBPath   = "MUDRA_DB_PATH"
	EnvCameraID = "MUDRA_CAMERA_ID"
	EnvRate     = "MUDRA_RATE"
	EnvAddr     = "MUDRA_ADDR"
	EnvPlugins  = "MUDRA_PLUGIN_DIR"
	EnvBindings = "MUDRA_BINDINGS"
)

// HistoryOff disables the prediction history when used as DBPath.
const HistoryOff = "off"

// Config holds all runtime settings.
type Config struct {
	Endpoint string        `validate:"required,url,startswith=http"`
	Timeout  time.Duration `validate:"gte=0"`
	Encoders []string      `validate:"min=1,unique,dive,oneof=normalized relative absolute"`
	LogLevel string        `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFile  string
	DBPath   string
	CameraID int     `validate:"gte=0"`
	Rate     float64 `validate:"gt=0"`
	Addr     string  `validate:"required"`

	// PluginDir holds one subdirectory per action plugin.
	PluginDir string
	// Bindings is a JSON file mapping labels to plugin actions. A missing
	// file means no bindings.
	Bindings string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Endpoint: predict.DefaultEndpoint,
		Encoders: []string{predict.Normalized.Name},
		LogLevel: "info",
		DBPath:   dataPath("history.db"),
		Rate:     5,
		Addr:     ":8080",

		PluginDir: dataPath("plugins"),
		Bindings:  dataPath("bindings.json"),
	}
}

var validate = validator.New()

// Load reads envFile into the process environment without overriding
// variables already set, then builds and validates a Config. A missing
// envFile is only an error when required is true. An empty envFile means
// ".env".
func Load(envFile string, required bool) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if required || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// FromEnv builds a Config from defaults overridden by lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvEndpoint); ok && v != "" {
		cfg.Endpoint = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	if v, ok := lookup(EnvEncoders); ok && v != "" {
		cfg.Encoders = SplitList(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFile); ok {
		cfg.LogFile = v
	}
	if v, ok := lookup(EnvDBPath); ok && v != "" {
		cfg.DBPath = v
	}
	if v, ok := lookup(EnvCameraID); ok && v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvCameraID, err)
		}
		cfg.CameraID = id
	}
	if v, ok := lookup(EnvRate); ok && v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvRate, err)
		}
		cfg.Rate = r
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Addr = v
	}
	if v, ok := lookup(EnvPlugins); ok && v != "" {
		cfg.PluginDir = v
	}
	if v, ok := lookup(EnvBindings); ok && v != "" {
		cfg.Bindings = v
	}

	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// HistoryEnabled reports whether predictions should be recorded.
func (c Config) HistoryEnabled() bool {
	return c.DBPath != "" && c.DBPath != HistoryOff
}

// ClientConfig returns the predictor settings.
func (c Config) ClientConfig() (predict.Config, error) {
	encs, err := predict.ParseEncoders(c.Encoders)
	if err != nil {
		return predict.Config{}, err
	}
	return predict.Config{
		Endpoint: c.Endpoint,
		Timeout:  c.Timeout,
		Encoders: encs,
	}, nil
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

// dataPath returns name inside ~/.mudra, or ./.mudra without a home directory.
func dataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mudra", name)
	}
	return filepath.Join(home, ".mudra", name)
}
