// Package logging builds the zap loggers used by gitmigrate.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a supported log level name.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format is a supported log encoding.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

var levels = map[Level]zapcore.Level{
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty means warn.
func (l *Level) UnmarshalText(text []byte) error {
	candidate := Level(strings.ToLower(string(text)))
	if candidate == "" {
		*l = LevelWarn
		return nil
	}
	if _, ok := levels[candidate]; !ok {
		return fmt.Errorf("unsupported log level: %s", text)
	}
	*l = candidate
	return nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty means console.
func (f *Format) UnmarshalText(text []byte) error {
	switch candidate := Format(strings.ToLower(string(text))); candidate {
	case "":
		*f = FormatConsole
	case FormatConsole, FormatJSON:
		*f = candidate
	default:
		return fmt.Errorf("unsupported log format: %s", text)
	}
	return nil
}

// Factory builds loggers with consistent configuration.
type Factory struct {
	sink zapcore.WriteSyncer
}

// NewFactory returns a factory writing to w, or to stderr when w is nil.
func NewFactory(w io.Writer) *Factory {
	if w == nil {
		return &Factory{}
	}
	return &Factory{sink: zapcore.AddSync(w)}
}

// CreateLogger produces a logger honoring the requested level and format.
func (f *Factory) CreateLogger(level Level, format Format) (*zap.Logger, error) {
	zapLevel, ok := levels[level]
	if !ok {
		return nil, fmt.Errorf("unsupported log level: %s", level)
	}
	if format != FormatConsole && format != FormatJSON {
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.Encoding = string(format)
	config.Sampling = nil
	if format == FormatConsole {
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if f.sink == nil {
		return config.Build()
	}

	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoder = zapcore.NewJSONEncoder(config.EncoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(config.EncoderConfig)
	}
	return zap.New(zapcore.NewCore(encoder, f.sink, config.Level)), nil
}

// Sync flushes logger, ignoring the errors stderr returns when it is a
// terminal or pipe.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	err := logger.Sync()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, syscall.ENOTSUP), errors.Is(err, syscall.EINVAL), errors.Is(err, syscall.ENOTTY):
		return nil
	default:
		return err
	}
}
