// Package config loads the settings of the chordgrid command from a YAML
// file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vsariola/chordgrid"
	"github.com/vsariola/chordgrid/chordtext"
	"github.com/vsariola/chordgrid/metadata"
	"github.com/vsariola/chordgrid/recognize"
)

const (
	AppName     = "chordgrid"
	DefaultFile = "config.yaml"
)

// APIKeyEnv is read when the configuration has no OpenAI key.
const APIKeyEnv = "OPENAI_API_KEY"

type (
	Config struct {
		BarsPerLine   int                     `yaml:"bars_per_line,omitempty"`
		Tempo         int                     `yaml:"tempo,omitempty"`
		TimeSignature chordgrid.TimeSignature `yaml:"time_signature,omitempty"`
		LogLevel      string                  `yaml:"log_level,omitempty"`
		Store         Store                   `yaml:"store,omitempty"`
		OpenAI        OpenAI                  `yaml:"openai,omitempty"`
		Metadata      Metadata                `yaml:"metadata,omitempty"`

		path string
	}

	Store struct {
		// Driver is one of memory, sqlite or badger.
		Driver string `yaml:"driver,omitempty"`
		Path   string `yaml:"path,omitempty"`
	}

	OpenAI struct {
		APIKey  string `yaml:"api_key,omitempty"`
		BaseURL string `yaml:"base_url,omitempty"`
		Model   string `yaml:"model,omitempty"`
	}

	Metadata struct {
		Endpoint   string `yaml:"endpoint,omitempty"`
		TitleQuery string `yaml:"title_query,omitempty"`
	}
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.fill()
	return c
}

// DefaultPath returns $XDG_CONFIG_HOME/chordgrid/config.yaml or its platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	return filepath.Join(dir, AppName, DefaultFile), nil
}

// Load reads the configuration at path, or at DefaultPath if path is empty.
// A missing file is not an error; the defaults are returned instead.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	c := &Config{path: path}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	c.fill()
	return c, nil
}

func (c *Config) fill() {
	if c.BarsPerLine < 1 {
		c.BarsPerLine = chordtext.DefaultBarsPerLine
	}
	if c.Tempo <= 0 {
		c.Tempo = chordgrid.DefaultTempo
	}
	if c.TimeSignature.IsZero() {
		c.TimeSignature = chordgrid.CommonTime
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.Path == "" && c.Store.Driver != "memory" {
		c.Store.Path = filepath.Join(c.dataDir(), "songs."+c.Store.Driver)
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = recognize.DefaultModel
	}
	if c.Metadata.Endpoint == "" {
		c.Metadata.Endpoint = metadata.DefaultEndpoint
	}
	if c.Metadata.TitleQuery == "" {
		c.Metadata.TitleQuery = metadata.DefaultTitleQuery
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// dataDir is the directory of the config file, or the working directory for
// a config that was not loaded from a file.
func (c *Config) dataDir() string {
	if c.path != "" {
		return filepath.Dir(c.path)
	}
	if p, err := DefaultPath(); err == nil {
		return filepath.Dir(p)
	}
	return "."
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// APIKey returns the OpenAI key of the configuration, falling back to the
// environment.
func (c *Config) APIKey() string {
	if c.OpenAI.APIKey != "" {
		return c.OpenAI.APIKey
	}
	return os.Getenv(APIKeyEnv)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}

// Validate checks the values that Load cannot default.
func (c *Config) Validate() error {
	if err := c.TimeSignature.Validate(); err != nil {
		return fmt.Errorf("config: time_signature: %w", err)
	}
	switch c.Store.Driver {
	case "memory", "sqlite", "badger":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	_, err := c.Level()
	return err
}

// Save writes the configuration to its path, creating the directory.
func (c *Config) Save() error {
	if c.path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		c.path = p
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
