// Package config loads the settings of the wirebus command.
//
// Settings come from a single YAML file named by the --config flag or the
// WIREBUS_CONFIG environment variable. Every field has a default, so the
// file only needs to name what differs. Command line flags are applied on
// top of the loaded file by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/RobertWHurst/wirebus/encoders"
)

// EnvVar names the environment variable consulted when no path is given.
const EnvVar = "WIREBUS_CONFIG"

type Config struct {
	// NatsURL is the server the pub and sub commands connect to.
	// Default: nats://127.0.0.1:4222
	NatsURL string `yaml:"nats_url"`

	// ServiceName is the name messages are sent as.
	// Default: wirebus-cli
	ServiceName string `yaml:"service_name"`

	// Encoder selects the payload encoder by name.
	// Default: codec
	Encoder string `yaml:"encoder"`

	// LogLevel is a zap level name (debug, info, warn, error).
	// Default: info
	LogLevel string `yaml:"log_level"`

	// RequestTimeout bounds how long a request waits for its reply.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxDecodeSize caps the payload bytes read from a message.
	// Default: 5 MiB
	MaxDecodeSize int64 `yaml:"max_decode_size"`
}

func Default() *Config {
	return &Config{
		NatsURL:        "nats://127.0.0.1:4222",
		ServiceName:    "wirebus-cli",
		Encoder:        "codec",
		LogLevel:       "info",
		RequestTimeout: 30 * time.Second,
		MaxDecodeSize:  5 * 1024 * 1024,
	}
}

// Load reads the file at path, or the file named by WIREBUS_CONFIG when
// path is empty. With neither set it returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// Level returns the parsed log level.
func (c *Config) Level() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.LogLevel)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.NatsURL == "" {
		errs = append(errs, errors.New("nats_url is required"))
	}
	if c.ServiceName == "" {
		errs = append(errs, errors.New("service_name is required"))
	}
	if names := encoders.Names(); !slices.Contains(names, c.Encoder) {
		errs = append(errs, fmt.Errorf("encoder must be one of: %v", names))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.MaxDecodeSize <= 0 {
		errs = append(errs, errors.New("max_decode_size must be positive"))
	}

	return errors.Join(errs...)
}
