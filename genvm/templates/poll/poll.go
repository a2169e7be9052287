package poll

import (
	"fmt"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-pollvm/codec"
	"github.com/spacemeshos/go-pollvm/genvm/core"
)

const (
	// MaxQuestionLength in bytes.
	MaxQuestionLength = 300
	// MaxRegisterSize is the maximal number of voters of a single poll.
	MaxRegisterSize = 1 << 16
)

// Poll is a single votable question with the register of voters.
type Poll struct {
	Question  string
	YesVotes  uint64
	NoVotes   uint64
	Creator   core.Address
	PollIndex uint64
	// Register of voters in the order of votes.
	Register  []core.Address
	Threshold uint64
	// CreatedTime and ExpiryTime are unix seconds.
	CreatedTime uint64
	ExpiryTime  uint64
}

// Create poll from the spawn arguments. Creator is the principal of the transaction.
func Create(host core.Host, args *SpawnArguments) (*Poll, error) {
	if len(args.Question) > MaxQuestionLength {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrQuestionTooLong, len(args.Question), MaxQuestionLength)
	}
	now := unix(host)
	if args.ExpiryTime <= now {
		return nil, fmt.Errorf("%w: expiry %d is not after %d", ErrInvalidExpiry, args.ExpiryTime, now)
	}
	return &Poll{
		Question:    args.Question,
		Creator:     host.Principal(),
		PollIndex:   args.PollIndex,
		Register:    []core.Address{},
		Threshold:   args.Threshold,
		CreatedTime: now,
		ExpiryTime:  args.ExpiryTime,
	}, nil
}

func unix(host core.Host) uint64 {
	now := host.Now().Unix()
	if now < 0 {
		return 0
	}
	return uint64(now)
}

// Total number of votes.
func (p *Poll) Total() uint64 {
	return p.YesVotes + p.NoVotes
}

// Voted returns true if the voter is in the register.
func (p *Poll) Voted(voter core.Address) bool {
	for i := range p.Register {
		if p.Register[i] == voter {
			return true
		}
	}
	return false
}

// Expired returns true if votes are no longer accepted at now (unix seconds).
func (p *Poll) Expired(now uint64) bool {
	return now >= p.ExpiryTime
}

// Vote for the poll on behalf of the principal. The poll is not modified if an error is returned.
func (p *Poll) Vote(host core.Host, choice bool) error {
	if now := unix(host); p.Expired(now) {
		return fmt.Errorf("%w: now %d, expiry %d", ErrPollExpired, now, p.ExpiryTime)
	}
	voter := host.Principal()
	if p.Voted(voter) {
		return fmt.Errorf("%w: %s", ErrDuplicateVote, voter)
	}
	if p.Threshold != 0 && p.Total() >= p.Threshold {
		return fmt.Errorf("%w: %d votes", ErrThresholdExceeded, p.Threshold)
	}
	if len(p.Register) >= MaxRegisterSize {
		return ErrRegisterFull
	}
	p.Register = append(p.Register, voter)
	if choice {
		p.YesVotes++
	} else {
		p.NoVotes++
	}
	return nil
}

// Verify always fails. Poll can't sign transactions.
func (p *Poll) Verify(core.Host, []byte, *scale.Decoder) bool {
	return false
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (p *Poll) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("creator", p.Creator.String())
	encoder.AddUint64("index", p.PollIndex)
	encoder.AddUint64("yes", p.YesVotes)
	encoder.AddUint64("no", p.NoVotes)
	encoder.AddUint64("threshold", p.Threshold)
	encoder.AddUint64("expiry", p.ExpiryTime)
	return nil
}

// Decode poll from the state of the account.
func Decode(state []byte) (*Poll, error) {
	var poll Poll
	if err := codec.Decode(state, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// EncodeScale implements scale codec interface.
func (p *Poll) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeStringWithLimit(enc, p.Question, MaxQuestionLength)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, p.YesVotes)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, p.NoVotes)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeByteArray(enc, p.Creator[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, p.PollIndex)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := encodeRegister(enc, p.Register)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, p.Threshold)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, p.CreatedTime)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact64(enc, p.ExpiryTime)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (p *Poll) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeStringWithLimit(dec, MaxQuestionLength)
		if err != nil {
			return total, err
		}
		total += n
		p.Question = field
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		p.YesVotes = field
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		p.NoVotes = field
	}
	{
		n, err := scale.DecodeByteArray(dec, p.Creator[:])
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		p.PollIndex = field
	}
	{
		field, n, err := decodeRegister(dec)
		if err != nil {
			return total, err
		}
		total += n
		p.Register = field
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		p.Threshold = field
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		p.CreatedTime = field
	}
	{
		field, n, err := scale.DecodeCompact64(dec)
		if err != nil {
			return total, err
		}
		total += n
		p.ExpiryTime = field
	}
	return total, nil
}

func encodeRegister(enc *scale.Encoder, register []core.Address) (total int, err error) {
	if len(register) > MaxRegisterSize {
		return 0, fmt.Errorf("register size %d exceeds %d", len(register), MaxRegisterSize)
	}
	n, err := scale.EncodeCompact32(enc, uint32(len(register)))
	if err != nil {
		return total, err
	}
	total += n
	for i := range register {
		n, err := scale.EncodeByteArray(enc, register[i][:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func decodeRegister(dec *scale.Decoder) ([]core.Address, int, error) {
	size, total, err := scale.DecodeCompact32(dec)
	if err != nil {
		return nil, total, err
	}
	if size > MaxRegisterSize {
		return nil, total, fmt.Errorf("register size %d exceeds %d", size, MaxRegisterSize)
	}
	register := make([]core.Address, size)
	for i := range register {
		n, err := scale.DecodeByteArray(dec, register[i][:])
		if err != nil {
			return nil, total, err
		}
		total += n
	}
	return register, total, nil
}
