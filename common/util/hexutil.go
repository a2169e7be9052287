package util

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingPrefix is returned when a hex string doesn't start with 0x.
	ErrMissingPrefix = errors.New("hex string without 0x prefix")
	// ErrLength is returned when decoded bytes don't match the expected length.
	ErrLength = errors.New("hex string has wrong length")
)

// Encode encodes b as a hex string with 0x prefix.
func Encode(b []byte) string {
	enc := make([]byte, len(b)*2+2)
	copy(enc, "0x")
	hex.Encode(enc[2:], b)
	return string(enc)
}

// Decode decodes a hex string with 0x prefix.
func Decode(input string) ([]byte, error) {
	if !strings.HasPrefix(input, "0x") && !strings.HasPrefix(input, "0X") {
		return nil, ErrMissingPrefix
	}
	b, err := hex.DecodeString(input[2:])
	if err != nil {
		return nil, fmt.Errorf("decode hex %q: %w", input, err)
	}
	return b, nil
}

// DecodeFixed decodes a hex string with 0x prefix into dst. Decoded length must match len(dst).
func DecodeFixed(input string, dst []byte) error {
	b, err := Decode(input)
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrLength, len(dst), len(b))
	}
	copy(dst, b)
	return nil
}
