package poll

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-pollvm/genvm/core"
	"github.com/spacemeshos/go-pollvm/genvm/registry"
)

// MethodVote casts a vote on the poll.
const MethodVote = 1

func init() {
	TemplateAddress[len(TemplateAddress)-1] = 2
}

// Register Poll template.
func Register(registry *registry.Registry) {
	registry.Register(TemplateAddress, &handler{})
}

var (
	_ (core.Handler) = (*handler)(nil)
	// TemplateAddress is an address of the Poll template.
	TemplateAddress core.Address
)

type handler struct{}

// Args for the spawn and vote methods.
func (*handler) Args(method uint8) core.Arguments {
	switch method {
	case core.MethodSpawn:
		return &SpawnArguments{}
	case MethodVote:
		return &VoteArguments{}
	}
	return nil
}

// New validates arguments and creates a poll.
func (*handler) New(host core.Host, args any) (core.Template, error) {
	return Create(host, args.(*SpawnArguments))
}

// Load poll from the account state.
func (*handler) Load(state []byte) (core.Template, error) {
	poll, err := Decode(state)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed poll state %w", core.ErrInternal, err)
	}
	return poll, nil
}

// Exec create or vote.
func (*handler) Exec(host core.Host, method uint8, args core.Arguments) error {
	switch method {
	case core.MethodSpawn:
		address, err := host.Spawn(args)
		if err != nil {
			return err
		}
		host.Logger().Info("initialized poll",
			zap.Stringer("poll", address),
			zap.Stringer("creator", host.Principal()),
			zap.Uint64("index", args.(*SpawnArguments).PollIndex),
		)
	case MethodVote:
		poll := host.Template().(*Poll)
		choice := args.(*VoteArguments).Choice
		if err := poll.Vote(host, choice); err != nil {
			return err
		}
		host.Logger().Info("vote executed",
			zap.Stringer("voter", host.Principal()),
			zap.Bool("choice", choice),
			zap.Object("poll", poll),
		)
	default:
		return fmt.Errorf("%w: unknown method %d", core.ErrMalformed, method)
	}
	return nil
}

// SpawnAddress of the poll is derived from the creator and poll index.
func (*handler) SpawnAddress(principal core.Address, args core.Arguments) core.Address {
	return Address(principal, args.(*SpawnArguments).PollIndex)
}
