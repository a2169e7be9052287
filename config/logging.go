package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogEncoder defines a log encoder kind.
type LogEncoder = string

const (
	defaultLoggingLevel = zapcore.InfoLevel
	// ConsoleLogEncoder represents logging with plain text.
	ConsoleLogEncoder LogEncoder = "console"
	// JSONLogEncoder represents logging with JSON.
	JSONLogEncoder LogEncoder = "json"
)

// LoggerConfig holds the logging level for each module.
type LoggerConfig struct {
	Encoder             LogEncoder `mapstructure:"log-encoder"`
	AppLoggerLevel      string     `mapstructure:"app"`
	VMLoggerLevel       string     `mapstructure:"vm"`
	ExecutorLoggerLevel string     `mapstructure:"executor"`
	APILoggerLevel      string     `mapstructure:"api"`
	DBLoggerLevel       string     `mapstructure:"db"`
	MetricsLoggerLevel  string     `mapstructure:"metrics"`
	PruneLoggerLevel    string     `mapstructure:"prune"`
}

func defaultLoggingConfig() LoggerConfig {
	return LoggerConfig{
		Encoder:             ConsoleLogEncoder,
		AppLoggerLevel:      defaultLoggingLevel.String(),
		VMLoggerLevel:       defaultLoggingLevel.String(),
		ExecutorLoggerLevel: defaultLoggingLevel.String(),
		APILoggerLevel:      defaultLoggingLevel.String(),
		DBLoggerLevel:       zapcore.WarnLevel.String(),
		MetricsLoggerLevel:  defaultLoggingLevel.String(),
		PruneLoggerLevel:    defaultLoggingLevel.String(),
	}
}

// LoggerLevel decodes the level of the named module logger.
// Modules without an entry use the default level.
func (cfg LoggerConfig) LoggerLevel(name string) (zap.AtomicLevel, error) {
	lvl := zap.NewAtomicLevelAt(defaultLoggingLevel)
	loggers := map[string]any{}
	if err := mapstructure.Decode(cfg, &loggers); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("error decoding mapstructure: %w", err)
	}
	level, ok := loggers[name].(string)
	if !ok || level == "" {
		return lvl, nil
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("cannot parse logging for %v: %w", name, err)
	}
	return lvl, nil
}
