package types

import (
	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-pollvm/common/util"
	"github.com/spacemeshos/go-pollvm/hash"
)

const (
	// Hash32Length is 32, the expected length of the hash.
	Hash32Length = 32
	// Hash20Length is 20.
	Hash20Length = 20
)

// Hash32 represents the 32-byte blake3 hash of arbitrary data.
type Hash32 [Hash32Length]byte

// Hash20 represents the first 20 bytes of a blake3 hash.
type Hash20 [Hash20Length]byte

// CalcHash32 returns the 32-byte blake3 sum of the given data.
func CalcHash32(data []byte) Hash32 {
	return hash.Sum(data)
}

// Bytes gets the byte representation of the underlying hash.
func (h Hash32) Bytes() []byte { return h[:] }

// Hex converts a hash to a hex string.
func (h Hash32) Hex() string { return util.Encode(h[:]) }

// String implements the stringer interface.
func (h Hash32) String() string { return h.Hex() }

// ShortString returns the first 10 hex characters of the hash, for logging purposes.
func (h Hash32) ShortString() string { return h.Hex()[2:12] }

// MarshalText implements encoding.TextMarshaler.
func (h Hash32) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash32) UnmarshalText(buf []byte) error {
	return util.DecodeFixed(string(buf), h[:])
}

// EncodeScale implements scale codec interface.
func (h *Hash32) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, h[:])
}

// DecodeScale implements scale codec interface.
func (h *Hash32) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, h[:])
}

// Bytes gets the byte representation of the underlying hash.
func (h Hash20) Bytes() []byte { return h[:] }

// String implements the stringer interface.
func (h Hash20) String() string { return util.Encode(h[:]) }

// MarshalText implements encoding.TextMarshaler.
func (h Hash20) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash20) UnmarshalText(buf []byte) error {
	return util.DecodeFixed(string(buf), h[:])
}

// Set implements pflag.Value.
func (h *Hash20) Set(value string) error {
	return h.UnmarshalText([]byte(value))
}

// Type implements pflag.Value.
func (h *Hash20) Type() string {
	return "hash20"
}
