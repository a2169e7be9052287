package sdk

import "github.com/spacemeshos/go-pollvm/common/types"

// Opt modifies Options.
type Opt func(*Options)

// Defaults returns default Options.
func Defaults() *Options {
	return &Options{}
}

// Options to modify common transaction fields.
type Options struct {
	GenesisID types.Hash20
}

// WithGenesisID sets the genesis id that prefixes the signed body.
func WithGenesisID(id types.Hash20) Opt {
	return func(opts *Options) {
		opts.GenesisID = id
	}
}
