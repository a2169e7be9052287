package wallet

import (
	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/genvm/core"
	"github.com/spacemeshos/go-pollvm/genvm/sdk"
	"github.com/spacemeshos/go-pollvm/genvm/templates/wallet"
	"github.com/spacemeshos/go-pollvm/signing"
)

// Address of the wallet owned by the public key.
func Address(pub core.PublicKey) types.Address {
	return core.ComputePrincipal(wallet.TemplateAddress, &wallet.SpawnArguments{PublicKey: pub})
}

// SelfSpawn creates spawn transaction.
func SelfSpawn(pk signing.PrivateKey, nonce uint64, opts ...sdk.Opt) []byte {
	args := wallet.SpawnArguments{PublicKey: sdk.Public(pk)}
	principal := Address(args.PublicKey)
	return sdk.Spawn(pk, principal, wallet.TemplateAddress, nonce, &args, opts...)
}
