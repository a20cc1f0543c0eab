// Package config loads command line settings from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/kep/pkg/logging"
)

// Prefix of every environment variable read by Load.
const Prefix = "KEP"

// Config is the complete tool configuration.
type Config struct {
	Logging logging.Config `yaml:"logging" envconfig:"LOG"`
	Reader  ReaderConfig   `yaml:"reader" envconfig:"READER"`
	Spec    SpecConfig     `yaml:"spec" envconfig:"SPEC"`
	Workers int            `yaml:"workers" envconfig:"WORKERS" default:"4" validate:"min=1,max=64"`
	Metrics MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
}

// ReaderConfig controls how bulletin files are decoded.
type ReaderConfig struct {
	Encoding  string `yaml:"encoding" envconfig:"ENCODING" default:"utf-8"`
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER" default:"\t"`
	Sheet     string `yaml:"sheet" envconfig:"SHEET"`
}

// SpecConfig selects the parsing specification.
type SpecConfig struct {
	// Dir holds YAML specifications; empty uses the built-in one.
	Dir  string `yaml:"dir" envconfig:"DIR"`
	Name string `yaml:"name" envconfig:"NAME" default:"kep"`
}

// MetricsConfig controls the Prometheus endpoint of the watch command.
type MetricsConfig struct {
	Addr     string `yaml:"addr" envconfig:"ADDR" default:":9102"`
	Endpoint string `yaml:"endpoint" envconfig:"ENDPOINT" default:"/metrics" validate:"omitempty,startswith=/"`
}

// Load reads KEP_* environment variables and then, when path is set, the
// YAML file at path. Values present in the file win.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config from env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		messages := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			messages = append(messages, fmt.Sprintf("%s fails %q (got %v)", fe.Namespace(), strings.TrimSpace(fe.Tag()+" "+fe.Param()), fe.Value()))
		}
		return fmt.Errorf("invalid settings: %s", strings.Join(messages, "; "))
	}
	if len([]rune(c.Reader.Delimiter)) != 1 {
		return fmt.Errorf("reader delimiter must be a single character, got %q", c.Reader.Delimiter)
	}
	return nil
}

// Usage prints the recognised environment variables.
func Usage() error {
	var cfg Config
	return envconfig.Usage(Prefix, &cfg)
}
