package signing

import (
	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/hash"
)

// Verify checks the signature of blake3(prefix || m).
func Verify(prefix, pub, m []byte, sig types.EdSignature) bool {
	if len(pub) != PublicKeySize {
		return false
	}
	digest := hash.Sum(prefix, m)
	return ed25519.Verify(pub, digest[:], sig[:])
}
