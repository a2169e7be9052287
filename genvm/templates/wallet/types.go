package wallet

import (
	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-pollvm/genvm/core"
)

// SpawnArguments of the wallet.
type SpawnArguments struct {
	PublicKey core.PublicKey
}

// EncodeScale implements scale codec interface.
func (t *SpawnArguments) EncodeScale(enc *scale.Encoder) (total int, err error) {
	n, err := scale.EncodeByteArray(enc, t.PublicKey[:])
	if err != nil {
		return total, err
	}
	return total + n, nil
}

// DecodeScale implements scale codec interface.
func (t *SpawnArguments) DecodeScale(dec *scale.Decoder) (total int, err error) {
	n, err := scale.DecodeByteArray(dec, t.PublicKey[:])
	if err != nil {
		return total, err
	}
	return total + n, nil
}
