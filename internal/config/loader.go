package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Supported file formats.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// Loader reads configuration files.
type Loader struct {
	readFile  func(path string) ([]byte, error)
	lookupEnv func(key string) (string, bool)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithReadFile replaces the function used to read files.
func WithReadFile(fn func(path string) ([]byte, error)) LoaderOption {
	return func(l *Loader) {
		l.readFile = fn
	}
}

// WithLookupEnv replaces the function used to read environment variables.
func WithLookupEnv(fn func(key string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		l.lookupEnv = fn
	}
}

// NewLoader creates a loader reading from the OS.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		readFile:  os.ReadFile,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the config at path with the default loader.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Load reads, decodes, overrides and validates the config at path.
func (l *Loader) Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := l.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Default()
	if err := Decode(data, format, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if cfg.Script.Path != "" && !filepath.IsAbs(cfg.Script.Path) {
		cfg.Script.Path = filepath.Join(filepath.Dir(path), cfg.Script.Path)
	}

	ApplyEnv(&cfg, l.lookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// FormatOf returns the format implied by the file extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Decode decodes data in the given format over cfg. Settings absent from
// data keep their current values.
func Decode(data []byte, format string, cfg *Config) error {
	switch format {
	case FormatTOML:
		return toml.Unmarshal(data, cfg)
	case FormatYAML:
		return yaml.Unmarshal(data, cfg)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}
