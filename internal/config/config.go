package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/san-kum/forcegraph/internal/control"
	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/forces"
	"github.com/san-kum/forcegraph/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth  = 960
	DefaultHeight = 600
	DefaultAddr   = ":8080"
)

// Format is a configuration file encoding.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

var ErrUnknownFormat = errors.New("forcegraph: unknown config format")

var validate = validator.New()

type Config struct {
	Viewport    dynamo.Viewport `json:"viewport" yaml:"viewport" toml:"viewport"`
	Simulation  sim.Options     `json:"simulation" yaml:"simulation" toml:"simulation"`
	Forces      forces.Config   `json:"forces" yaml:"forces" toml:"forces"`
	Interaction control.Options `json:"interaction" yaml:"interaction" toml:"interaction"`
	Server      ServerConfig    `json:"server" yaml:"server" toml:"server"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr" validate:"required"`
}

func DefaultConfig() *Config {
	return &Config{
		Viewport:    dynamo.Viewport{Width: DefaultWidth, Height: DefaultHeight},
		Simulation:  sim.DefaultOptions(),
		Forces:      forces.DefaultConfig(),
		Interaction: control.DefaultOptions(),
		Server:      ServerConfig{Addr: DefaultAddr},
	}
}

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// Load reads a YAML or TOML file over the defaults and validates it.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses data over the defaults and validates the result.
func Decode(data []byte, format Format) (*Config, error) {
	cfg := DefaultConfig()
	switch format {
	case YAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	case TOML:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, cfg, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func Encode(w io.Writer, cfg *Config, format Format) error {
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	case TOML:
		return toml.NewEncoder(w).Encode(cfg)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Validate checks every section and reports the first failure.
func (c *Config) Validate() error {
	if err := validate.Struct(c.Viewport); err != nil {
		return &dynamo.ConfigError{Force: "viewport", Err: err}
	}
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if err := c.Forces.Validate(); err != nil {
		return err
	}
	if err := c.Interaction.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(c.Server); err != nil {
		return &dynamo.ConfigError{Force: "server", Err: err}
	}
	return nil
}
