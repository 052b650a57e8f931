// Package config loads the sejmtrans configuration from a YAML file, .env
// files and SEJMTRANS_* environment variables, in increasing precedence.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the configuration file looked up in the working directory
// when none is given.
const DefaultFile = "sejmtrans.yaml"

// DefaultEnvFiles are loaded, if present, before reading the environment.
var DefaultEnvFiles = []string{".env", ".env.local"}

// ErrInvalidConfig is returned when a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

var (
	logLevels     = []string{"debug", "info", "warn", "error"}
	outputFormats = []string{"text", "json", "tsv", "xlsx"}
)

// Config is the complete configuration.
type Config struct {
	// Registry is the path of the JSON affiliation registry.
	Registry string `yaml:"registry" env:"SEJMTRANS_REGISTRY"`

	// Transcripts is the directory of transcript XML files.
	Transcripts string `yaml:"transcripts" env:"SEJMTRANS_TRANSCRIPTS"`

	// PhraseLists are named phrase lists usable with count --list.
	PhraseLists map[string][]string `yaml:"phrase_lists,omitempty"`

	Log    LogConfig    `yaml:"log"`
	Output OutputConfig `yaml:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" env:"SEJMTRANS_LOG_LEVEL"`
	File  string `yaml:"file,omitempty" env:"SEJMTRANS_LOG_FILE"`
}

// OutputConfig configures command output.
type OutputConfig struct {
	Format string `yaml:"format" env:"SEJMTRANS_OUTPUT_FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Registry:    filepath.Join("resources", "political-affiliation", "sejm.json"),
		Transcripts: filepath.Join("resources", "transcripts", "sejm"),
		Log:         LogConfig{Level: "info"},
		Output:      OutputConfig{Format: "text"},
	}
}

// Load builds the configuration. path names a YAML file; an empty path uses
// DefaultFile if it exists. Values from envFiles and the environment override
// the file.
func Load(path string, envFiles []string) (*Config, error) {
	c := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}

	if _, err := LoadEnv(envFiles); err != nil {
		return nil, errors.Wrap(err, "load env files")
	}
	if err := env.Parse(c); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadEnv loads the env files that exist and returns how many were loaded.
// Variables already set in the environment are not overridden.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open config")
	}
	defer f.Close()

	if err := c.Decode(f); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}

// Decode overlays YAML from reader onto c. Keys absent from the document
// keep their current values.
func (c *Config) Decode(reader io.Reader) error {
	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Encode writes c as YAML.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Registry) == "" {
		return errors.Wrap(ErrInvalidConfig, "registry path is empty")
	}
	if strings.TrimSpace(c.Transcripts) == "" {
		return errors.Wrap(ErrInvalidConfig, "transcripts directory is empty")
	}
	if !contains(logLevels, c.Log.Level) {
		return errors.Wrapf(ErrInvalidConfig, "log level must be one of %s, got %q", strings.Join(logLevels, "|"), c.Log.Level)
	}
	if !contains(outputFormats, c.Output.Format) {
		return errors.Wrapf(ErrInvalidConfig, "output format must be one of %s, got %q", strings.Join(outputFormats, "|"), c.Output.Format)
	}
	for name, phrases := range c.PhraseLists {
		if len(phrases) == 0 {
			return errors.Wrapf(ErrInvalidConfig, "phrase list %q is empty", name)
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
