package types

import (
	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-pollvm/common/util"
)

// EdSignatureSize is the size of an ed25519 signature.
const EdSignatureSize = 64

// EdSignature is an ed25519 signature.
type EdSignature [EdSignatureSize]byte

// String returns hex representation of the signature.
func (s EdSignature) String() string {
	return util.Encode(s[:])
}

// EncodeScale implements scale codec interface.
func (s *EdSignature) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, s[:])
}

// DecodeScale implements scale codec interface.
func (s *EdSignature) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, s[:])
}
