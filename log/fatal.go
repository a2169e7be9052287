package log

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Common errors that can happen on node startup.
var (
	ErrMalformedConfig = newFatalError("ERR_MALFORMED_CONFIG", "config file is malformed: %v")
	ErrBadFlags        = newFatalError("ERR_BAD_FLAGS", "bad CLI flags: %v")
	ErrEnsureDataDir   = newFatalError("ERR_ENSURE_DATA_DIR", "could not open/create data dir %v: %v")
	ErrOpenDatabase    = newFatalError("ERR_OPEN_DATABASE", "could not open database %v: %v")
)

// FatalError describes an error that stops the node.
type FatalError struct {
	Code string
	Text string
	Args []any
}

func newFatalError(code, text string) func(args ...any) *FatalError {
	return func(args ...any) *FatalError {
		return &FatalError{
			Code: code,
			Text: text,
			Args: args,
		}
	}
}

func (fe *FatalError) Error() string {
	return fmt.Sprintf(fe.Text, fe.Args...)
}

// MarshalLogObject implements logging encoder for FatalError.
func (fe *FatalError) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("code", fe.Code)
	encoder.AddString("error", fe.Error())
	if err := encoder.AddArray("args", arrayMarshaler(fe.Args)); err != nil {
		return fmt.Errorf("add array: %w", err)
	}
	return nil
}

type arrayMarshaler []any

func (args arrayMarshaler) MarshalLogArray(encoder zapcore.ArrayEncoder) error {
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			encoder.AppendString(err.Error())
			continue
		}
		if err := encoder.AppendReflected(arg); err != nil {
			return fmt.Errorf("append reflected: %w", err)
		}
	}
	return nil
}
