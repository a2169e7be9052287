package types

import (
	"go.uber.org/zap/zapcore"
)

// Account represents account state at a certain layer.
type Account struct {
	Layer           LayerID
	Address         Address
	NextNonce       uint64
	TemplateAddress *Address
	State           []byte
}

// Spawned returns true if the account is bound to a template.
func (a *Account) Spawned() bool {
	return a.TemplateAddress != nil
}

// MarshalLogObject implements encoding for the account state.
func (a *Account) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("address", a.Address.String())
	encoder.AddUint64("nonce", a.NextNonce)
	encoder.AddUint32("layer", a.Layer.Uint32())
	if a.TemplateAddress != nil {
		encoder.AddString("template", a.TemplateAddress.String())
		encoder.AddInt("state", len(a.State))
	}
	return nil
}
