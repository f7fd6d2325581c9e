// Package logging configures the zap loggers used by the daemon.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats for log records.
const (
	CONSOLE = "console"
	JSON    = "json"
)

// Config defines the logging section of the daemon configuration.
type Config struct {
	// Level is the minimum level to log, one of zap's level names.
	Level string `yaml:"level" default:"info"`
	// Output selects the record format, CONSOLE or JSON.
	Output string `yaml:"output" default:"console"`
}

// Validate implements part of the config validation on daemon startup.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Level)
	}
	if c.Output != CONSOLE && c.Output != JSON {
		return fmt.Errorf("invalid log output %q, must be %q or %q", c.Output, CONSOLE, JSON)
	}

	return nil
}

// Logging holds the root logger and hands out named child loggers per component.
type Logging struct {
	logger *zap.SugaredLogger
}

// NewLogging builds the root logger for the daemon from its logging config.
func NewLogging(name string, c Config) (*Logging, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = c.Output
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	if c.Output == CONSOLE {
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &Logging{logger: logger.Named(name).Sugar()}, nil
}

// GetLogger returns the root logger.
func (l *Logging) GetLogger() *zap.SugaredLogger {
	return l.logger
}

// GetChildLogger returns a named child logger for one component.
func (l *Logging) GetChildLogger(name string) *zap.SugaredLogger {
	return l.logger.Named(name)
}
