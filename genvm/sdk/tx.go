package sdk

import (
	"bytes"

	"github.com/oasisprotocol/curve25519-voi/primitives/ed25519"
	"github.com/spacemeshos/go-scale"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/genvm/core"
	"github.com/spacemeshos/go-pollvm/signing"
)

var (
	version     = scale.U8(0)
	methodSpawn = scale.U8(core.MethodSpawn)
	methodCall  = scale.U8(core.MethodCall)
)

// Encode fields one after another. Panics if any of them can't be encoded.
func Encode(fields ...scale.Encodable) []byte {
	buf := bytes.NewBuffer(nil)
	encoder := scale.NewEncoder(buf)
	for _, field := range fields {
		_, err := field.EncodeScale(encoder)
		if err != nil {
			panic(err)
		}
	}
	return buf.Bytes()
}

// Sign appends signature of the body bound to the genesis id.
func Sign(pk signing.PrivateKey, body []byte, opts ...Opt) []byte {
	options := Defaults()
	for _, opt := range opts {
		opt(options)
	}
	digest := core.SigningBody(options.GenesisID, body)
	sig := ed25519.Sign(ed25519.PrivateKey(pk), digest[:])
	return append(body, sig...)
}

// Public returns the public key of the private key.
func Public(pk signing.PrivateKey) core.PublicKey {
	var pub core.PublicKey
	copy(pub[:], ed25519.PrivateKey(pk).Public().(ed25519.PublicKey))
	return pub
}

// Spawn creates a signed transaction that spawns an account of the template.
func Spawn(
	pk signing.PrivateKey,
	principal, template types.Address,
	nonce uint64,
	args scale.Encodable,
	opts ...Opt,
) []byte {
	payload := core.Payload{Nonce: nonce}
	body := Encode(&version, &principal, &methodSpawn, &template, &payload, args)
	return Sign(pk, body, opts...)
}

// Call creates a signed transaction that executes method of the target account.
func Call(
	pk signing.PrivateKey,
	principal, target types.Address,
	method uint8,
	nonce uint64,
	args scale.Encodable,
	opts ...Opt,
) []byte {
	payload := core.Payload{Nonce: nonce}
	targetMethod := scale.U8(method)
	body := Encode(&version, &principal, &methodCall, &payload, &target, &targetMethod, args)
	return Sign(pk, body, opts...)
}
