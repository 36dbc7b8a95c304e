// Package config loads the settings shared by the commands: built-in
// defaults, then an optional YAML file, then KINDECS_* environment variables.
package config

import (
	"errors"
	"io"
	"os"
	"time"

	jlconfig "github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/plus3/kindecs/internal/logging"
)

var ErrInvalidConfig = eris.New("invalid config")

type Config struct {
	TickIntervalMs int    `yaml:"tick_interval_ms" config:"KINDECS_TICK_INTERVAL_MS"`
	LogLevel       string `yaml:"log_level" config:"KINDECS_LOG_LEVEL"`
	LogFormat      string `yaml:"log_format" config:"KINDECS_LOG_FORMAT"`
	ListenAddr     string `yaml:"listen_addr" config:"KINDECS_LISTEN_ADDR"`
	Entities       int    `yaml:"entities" config:"KINDECS_ENTITIES"`

	// AllowedOrigins are the browser origins the websocket endpoint accepts.
	// Empty means same-origin only; "*" accepts any.
	AllowedOrigins []string `yaml:"allowed_origins" config:"KINDECS_ALLOWED_ORIGINS"`
}

func Default() Config {
	return Config{
		TickIntervalMs: 500,
		LogLevel:       "info",
		LogFormat:      logging.FormatConsole,
		ListenAddr:     ":8080",
		Entities:       100,
	}
}

// Load applies the YAML file at path (skipped when path is empty) and the
// environment on top of Default, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, eris.Wrapf(err, "failed to open config file %s", path)
		}
		defer f.Close()

		if err := decodeYAML(f, &cfg); err != nil {
			return Config{}, eris.Wrapf(err, "failed to parse config file %s", path)
		}
	}

	if err := jlconfig.FromEnv().To(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "failed to read config from environment")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c Config) Validate() error {
	if c.TickIntervalMs <= 0 {
		return eris.Wrapf(ErrInvalidConfig, "tick_interval_ms must be positive, got %d", c.TickIntervalMs)
	}
	if c.Entities < 0 {
		return eris.Wrapf(ErrInvalidConfig, "entities must not be negative, got %d", c.Entities)
	}
	if c.ListenAddr == "" {
		return eris.Wrap(ErrInvalidConfig, "listen_addr is required")
	}
	if _, err := logging.New(c.LogOptions(io.Discard)); err != nil {
		return errors.Join(eris.Wrap(ErrInvalidConfig, "log settings"), err)
	}
	return nil
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// LogOptions returns the logging options described by the log settings.
func (c Config) LogOptions(w io.Writer) logging.Options {
	return logging.Options{Level: c.LogLevel, Format: c.LogFormat, Writer: w}
}
