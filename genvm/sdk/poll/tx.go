package poll

import (
	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/genvm/sdk"
	"github.com/spacemeshos/go-pollvm/genvm/sdk/wallet"
	"github.com/spacemeshos/go-pollvm/genvm/templates/poll"
	"github.com/spacemeshos/go-pollvm/signing"
)

// Address of the poll created by the wallet with the index.
func Address(creator types.Address, index uint64) types.Address {
	return poll.Address(creator, index)
}

// Create a poll on behalf of the wallet owned by pk.
func Create(pk signing.PrivateKey, nonce uint64, args *poll.SpawnArguments, opts ...sdk.Opt) []byte {
	principal := wallet.Address(sdk.Public(pk))
	return sdk.Spawn(pk, principal, poll.TemplateAddress, nonce, args, opts...)
}

// Vote on the poll on behalf of the wallet owned by pk.
func Vote(pk signing.PrivateKey, nonce uint64, target types.Address, choice bool, opts ...sdk.Opt) []byte {
	principal := wallet.Address(sdk.Public(pk))
	return sdk.Call(pk, principal, target, poll.MethodVote, nonce, &poll.VoteArguments{Choice: choice}, opts...)
}
