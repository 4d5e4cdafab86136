package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate for out-of-range settings
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the configuration for the game
type Config struct {
	Delay     Duration `json:"delay" yaml:"delay"`
	Input     string   `json:"input" yaml:"input"`
	LogLevel  string   `json:"log_level" yaml:"log_level"`
	LogFormat string   `json:"log_format" yaml:"log_format"`
	Workers   int      `json:"workers" yaml:"workers"`

	// MaxGenerations ends the session after that many ticks; 0 runs until quit
	MaxGenerations int `json:"max_generations" yaml:"max_generations"`
}

// Duration is a time.Duration that decodes from "250ms"-style strings or a
// bare number of milliseconds
type Duration time.Duration

// Std converts back to a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) set(s string) error {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(ms * float64(time.Millisecond))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "[Duration] cannot parse %q", s)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalJSON accepts either a JSON string or a JSON number of milliseconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.set(s)
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return errors.Wrapf(err, "[Duration] cannot decode %s", data)
	}
	*d = Duration(ms * float64(time.Millisecond))
	return nil
}

// MarshalJSON writes the duration in its string form
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML accepts the same forms as UnmarshalJSON
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.set(node.Value)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Delay:     Duration(500 * time.Millisecond),
		LogLevel:  "info",
		LogFormat: "text",
		Workers:   runtime.NumCPU(),
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] failed to read file: %+v", filename)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(data, &config); err != nil {
			return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal yaml from file: %+v", filename)
		}
	default:
		if err = json.Unmarshal(data, &config); err != nil {
			return config, errors.Wrapf(err, "[LoadConfig] failed to unmarshal data from file: %+v", filename)
		}
	}

	if err = config.Validate(); err != nil {
		return config, errors.Wrapf(err, "[LoadConfig] %+v", filename)
	}
	return config, nil
}

// Validate rejects settings the driver cannot run with
func (c Config) Validate() error {
	if c.Delay < 0 {
		return errors.Wrapf(ErrInvalidConfig, "delay must not be negative, got %s", c.Delay.Std())
	}
	if c.MaxGenerations < 0 {
		return errors.Wrapf(ErrInvalidConfig, "max_generations must not be negative, got %d", c.MaxGenerations)
	}
	if c.Workers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "workers must not be negative, got %d", c.Workers)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return errors.Wrapf(ErrInvalidConfig, "log_format must be 'text' or 'json', got %q", c.LogFormat)
	}
	return nil
}
