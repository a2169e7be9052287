package wallet

import (
	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-pollvm/genvm/core"
	"github.com/spacemeshos/go-pollvm/signing"
)

// New returns Wallet instance with SpawnArguments.
func New(args *SpawnArguments) *Wallet {
	return &Wallet{PublicKey: args.PublicKey}
}

// Wallet is a single-key account that signs transactions.
type Wallet struct {
	PublicKey core.PublicKey
}

// Verify that transaction is signed by the owner of the PublicKey using ed25519.
func (s *Wallet) Verify(host core.Host, raw []byte, dec *scale.Decoder) bool {
	var sig core.Signature
	n, err := scale.DecodeByteArray(dec, sig[:])
	if err != nil || n != len(sig) {
		return false
	}
	if len(raw) < len(sig) {
		return false
	}
	genesis := host.GetGenesisID()
	return signing.Verify(genesis[:], s.PublicKey[:], raw[:len(raw)-len(sig)], sig)
}

// EncodeScale implements scale codec interface.
func (s *Wallet) EncodeScale(enc *scale.Encoder) (total int, err error) {
	n, err := scale.EncodeByteArray(enc, s.PublicKey[:])
	if err != nil {
		return total, err
	}
	return total + n, nil
}

// DecodeScale implements scale codec interface.
func (s *Wallet) DecodeScale(dec *scale.Decoder) (total int, err error) {
	n, err := scale.DecodeByteArray(dec, s.PublicKey[:])
	if err != nil {
		return total, err
	}
	return total + n, nil
}
