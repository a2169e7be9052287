package poll

import (
	"fmt"

	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/genvm/core"
)

// SpawnArguments create a poll.
type SpawnArguments struct {
	Question  string
	PollIndex uint64
	// Threshold is the maximal number of votes, 0 for unlimited.
	Threshold uint64
	// ExpiryTime in unix seconds.
	ExpiryTime uint64
}

// EncodeScale implements scale codec interface.
func (t *SpawnArguments) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeStringWithLimit(enc, t.Question, types.MaxRawTxSize)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, t.PollIndex)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, t.Threshold)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, t.ExpiryTime)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *SpawnArguments) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeStringWithLimit(dec, types.MaxRawTxSize)
		if err != nil {
			return total, err
		}
		total += n
		t.Question = field
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.PollIndex = field
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.Threshold = field
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		t.ExpiryTime = field
	}
	return total, nil
}

// VoteArguments cast a vote.
type VoteArguments struct {
	Choice bool
}

// EncodeScale implements scale codec interface.
func (t *VoteArguments) EncodeScale(enc *scale.Encoder) (int, error) {
	var choice byte
	if t.Choice {
		choice = 1
	}
	return scale.EncodeByte(enc, choice)
}

// DecodeScale implements scale codec interface.
func (t *VoteArguments) DecodeScale(dec *scale.Decoder) (int, error) {
	field, n, err := scale.DecodeByte(dec)
	if err != nil {
		return n, err
	}
	if field > 1 {
		return n, fmt.Errorf("invalid vote choice %d", field)
	}
	t.Choice = field == 1
	return n, nil
}

// addressKey is hashed together with the template address to derive the poll address.
type addressKey struct {
	Creator   core.Address
	PollIndex uint64
}

func (k *addressKey) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeByteArray(enc, k.Creator[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, k.PollIndex)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Address of the poll created by creator with index.
func Address(creator core.Address, index uint64) core.Address {
	return core.ComputePrincipal(TemplateAddress, &addressKey{Creator: creator, PollIndex: index})
}
