// Package logging builds the zap loggers used by the command line tool.
// Library packages take a *zap.Logger option and default to zap.NewNop.
package logging

import (
	"go.uber.org/zap"
)

// Config holds logging configuration.
type Config struct {
	Level       string            `yaml:"level" envconfig:"LEVEL" default:"info" validate:"omitempty,oneof=debug info warn error"`
	Format      string            `yaml:"format" envconfig:"FORMAT" default:"console" validate:"oneof=json console"`
	OutputPath  string            `yaml:"output_path" envconfig:"OUTPUT_PATH"`
	Fields      map[string]string `yaml:"fields" envconfig:"FIELDS"`
	Development bool              `yaml:"development" envconfig:"DEVELOPMENT"`
}

// NewLogger creates a logger from config. An unknown level falls back to
// info.
func NewLogger(config Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(config.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	if config.Format == "json" {
		zapConfig.Encoding = "json"
	} else {
		zapConfig.Encoding = "console"
	}

	// diagnostics go to stderr so extracted data can be piped from stdout
	zapConfig.OutputPaths = []string{"stderr"}
	if config.OutputPath != "" {
		zapConfig.OutputPaths = []string{config.OutputPath}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	fields := make([]zap.Field, 0, len(config.Fields))
	for k, v := range config.Fields {
		fields = append(fields, zap.String(k, v))
	}
	return logger.With(fields...), nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
