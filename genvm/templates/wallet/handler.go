package wallet

import (
	"fmt"

	"github.com/spacemeshos/go-pollvm/codec"
	"github.com/spacemeshos/go-pollvm/genvm/core"
	"github.com/spacemeshos/go-pollvm/genvm/registry"
)

func init() {
	TemplateAddress[len(TemplateAddress)-1] = 1
}

// Register Wallet template.
func Register(registry *registry.Registry) {
	registry.Register(TemplateAddress, &handler{})
}

var (
	_ (core.Handler) = (*handler)(nil)
	// TemplateAddress is an address of the Wallet template.
	TemplateAddress core.Address
)

type handler struct{}

// Args returns spawn arguments. Wallet has no other methods.
func (*handler) Args(method uint8) core.Arguments {
	if method == core.MethodSpawn {
		return &SpawnArguments{}
	}
	return nil
}

// New instance of the Wallet template.
func (*handler) New(_ core.Host, args any) (core.Template, error) {
	return New(args.(*SpawnArguments)), nil
}

// Load Wallet template from stored state.
func (*handler) Load(state []byte) (core.Template, error) {
	var wallet Wallet
	if err := codec.Decode(state, &wallet); err != nil {
		return nil, fmt.Errorf("%w: malformed state %w", core.ErrInternal, err)
	}
	return &wallet, nil
}

// Exec spawn method.
func (*handler) Exec(host core.Host, method uint8, args core.Arguments) error {
	switch method {
	case core.MethodSpawn:
		if _, err := host.Spawn(args); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown method %d", core.ErrMalformed, method)
	}
	return nil
}

// SpawnAddress of the wallet depends only on the public key.
func (*handler) SpawnAddress(_ core.Address, args core.Arguments) core.Address {
	return core.ComputePrincipal(TemplateAddress, args)
}
