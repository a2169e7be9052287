// Package log holds zap helpers shared by the node components.
package log

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// JSONEncoder writes one json object per entry.
	JSONEncoder = "json"
	// ConsoleEncoder writes human readable entries.
	ConsoleEncoder = "console"
)

// ShortString is implemented by identifiers that have a compact form for logs.
type ShortString interface {
	ShortString() string
}

// NewEncoder returns zap encoder by its name.
func NewEncoder(name string) (zapcore.Encoder, error) {
	switch name {
	case JSONEncoder:
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg), nil
	case ConsoleEncoder, "":
		cfg := zap.NewDevelopmentEncoderConfig()
		return zapcore.NewConsoleEncoder(cfg), nil
	}
	return nil, fmt.Errorf("unknown log encoder %q", name)
}

// New creates a root logger that writes to w with the level controlled by lvl.
func New(w io.Writer, lvl zap.AtomicLevel, encoder zapcore.Encoder, hooks ...func(zapcore.Entry) error) *zap.Logger {
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), lvl)
	return zap.New(zapcore.RegisterHooks(core, hooks...))
}

// NewNop creates silent logger.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// ZShortStringer returns a field with the short form of the value.
func ZShortStringer(key string, val ShortString) zap.Field {
	return zap.String(key, val.ShortString())
}

// ZObjects logs a slice of object marshalers as an array.
func ZObjects[T zapcore.ObjectMarshaler](key string, values []T) zap.Field {
	return zap.Array(key, zapcore.ArrayMarshalerFunc(func(enc zapcore.ArrayEncoder) error {
		for _, value := range values {
			if err := enc.AppendObject(value); err != nil {
				return err
			}
		}
		return nil
	}))
}
