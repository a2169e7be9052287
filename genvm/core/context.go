package core

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spacemeshos/go-pollvm/codec"
	"github.com/spacemeshos/go-pollvm/common/types"
)

// Context serves 2 purposes:
// - maintains changes to the system state, that will be applied only after successful execution
// - accumulates set of reusable objects and data.
type Context struct {
	Loader AccountLoader

	// LayerID of the block.
	LayerID   types.LayerID
	Time      time.Time
	GenesisID Hash20
	Log       *zap.Logger

	// PrincipalTemplate verifies the transaction. For a self spawn it is
	// created from the spawn arguments.
	PrincipalTemplate Template
	PrincipalAccount  Account

	// Handler of the executed method. For a spawn it belongs to the spawned
	// template, for a call to the template of the target account.
	Handler Handler
	Method  uint8
	Args    Arguments

	Header Header

	template Template
	target   *Account
	spawned  *Account
	updated  []Address
}

// Principal returns address of the account that signed transaction.
func (c *Context) Principal() Address {
	return c.PrincipalAccount.Address
}

// Template of the account the method is executed on.
func (c *Context) Template() Template {
	return c.template
}

// Layer returns block layer id.
func (c *Context) Layer() types.LayerID {
	return c.LayerID
}

// Now returns the time of the applied layer.
func (c *Context) Now() time.Time {
	return c.Time
}

// GetGenesisID returns genesis id.
func (c *Context) GetGenesisID() Hash20 {
	return c.GenesisID
}

// Logger for templates.
func (c *Context) Logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// SetTarget binds the context to the account that is the target of the call.
func (c *Context) SetTarget(account Account, template Template) {
	c.target = &account
	c.template = template
}

// Target returns the account the method is called on. Nil for spawn transactions.
func (c *Context) Target() *Account {
	return c.target
}

// Spawn account from the arguments of the executed template.
//
// If the principal is not spawned, the computed address must match the principal.
// Otherwise a new account is created at the computed address.
func (c *Context) Spawn(args Arguments) (Address, error) {
	if c.spawned != nil {
		return Address{}, fmt.Errorf("%w: account %s already spawned by this transaction", ErrInternal, c.spawned.Address)
	}
	template, err := c.Handler.New(c, args)
	if err != nil {
		return Address{}, err
	}
	address := c.Handler.SpawnAddress(c.Principal(), args)
	state, err := codec.Encode(template)
	if err != nil {
		return Address{}, fmt.Errorf("%w: encode spawned state: %w", ErrInternal, err)
	}
	var account Account
	if !c.PrincipalAccount.Spawned() {
		if address != c.Principal() {
			return Address{}, fmt.Errorf("%w: spawn address %s doesn't match principal %s",
				ErrMalformed, address, c.Principal())
		}
		account = c.PrincipalAccount
	} else {
		account, err = c.Loader.Get(address)
		if err != nil {
			return Address{}, err
		}
		if account.Spawned() {
			return Address{}, fmt.Errorf("%w: %s", ErrSpawned, address)
		}
	}
	templateAddress := c.Header.TemplateAddress
	account.TemplateAddress = &templateAddress
	account.State = state
	c.spawned = &account
	return address, nil
}

// Spawned returns the account created by the transaction, nil if nothing was spawned.
func (c *Context) Spawned() *Account {
	return c.spawned
}

// Updated returns list of addresses that were updated by the applied transaction.
func (c *Context) Updated() []Address {
	return c.updated
}

// Apply nonce and state changes to the updater. If execution failed only the principal
// nonce is incremented.
func (c *Context) Apply(updater AccountUpdater, failure error) error {
	var changed []*Account
	if failure != nil {
		c.spawned = nil
	} else {
		if c.spawned != nil {
			if c.spawned.Address == c.Principal() {
				c.PrincipalAccount.TemplateAddress = c.spawned.TemplateAddress
				c.PrincipalAccount.State = c.spawned.State
			} else {
				changed = append(changed, c.spawned)
			}
		}
		if c.target != nil {
			state, err := codec.Encode(c.template)
			if err != nil {
				return fmt.Errorf("%w: encode state of %s: %w", ErrInternal, c.target.Address, err)
			}
			c.target.State = state
			changed = append(changed, c.target)
		}
	}
	c.PrincipalAccount.NextNonce = c.Header.Nonce + 1
	if err := updater.Update(c.PrincipalAccount); err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	c.updated = append(c.updated[:0], c.Principal())
	for _, account := range changed {
		if err := updater.Update(*account); err != nil {
			return fmt.Errorf("%w: %w", ErrInternal, err)
		}
		c.updated = append(c.updated, account.Address)
	}
	return nil
}
