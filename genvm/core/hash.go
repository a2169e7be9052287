package core

import (
	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/hash"
)

// SigningBody returns the digest that is signed by the principal of the transaction.
func SigningBody(genesis Hash20, tx []byte) Hash32 {
	return hash.Sum(genesis[:], tx)
}

// ComputePrincipal address as the last 20 bytes from blake3(scale(template || args)).
func ComputePrincipal(template Address, args scale.Encodable) Address {
	hasher := hash.GetHasher()
	defer hash.PutHasher(hasher)
	encoder := scale.NewEncoder(hasher)
	template.EncodeScale(encoder)
	args.EncodeScale(encoder)
	sum := hasher.Sum(nil)
	return types.GenerateAddress(sum[12:])
}
