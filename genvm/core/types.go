package core

import (
	"time"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-pollvm/common/types"
)

const (
	// MethodSpawn is the method selector of a spawn transaction.
	MethodSpawn = 0
	// MethodCall is the method selector of a transaction that invokes a method of another account.
	MethodCall = 16
)

type (
	// PublicKey is an ed25519 public key.
	PublicKey = types.Hash32
	// Hash32 is an alias to types.Hash32.
	Hash32 = types.Hash32
	// Hash20 is an alias to types.Hash20.
	Hash20 = types.Hash20
	// Address is an alias to types.Address.
	Address = types.Address
	// Signature is an alias to types.EdSignature.
	Signature = types.EdSignature

	// Account is an alias to types.Account.
	Account = types.Account
	// Header is an alias to types.TxHeader.
	Header = types.TxHeader
)

// Arguments of a template method. Decoded from the transaction and encoded
// when the address of the spawned account is computed.
type Arguments interface {
	scale.Encodable
	scale.Decodable
}

//go:generate mockgen -package=mocks -destination=./mocks/handler.go github.com/spacemeshos/go-pollvm/genvm/core Handler

// Handler provides set of static templates method that are not directly attached to the state.
type Handler interface {
	// Args returns a value that the arguments of the method are decoded into.
	// Returns nil if the method is not supported by the template.
	Args(method uint8) Arguments
	// New instance of the template from spawn arguments.
	New(Host, any) (Template, error)
	// Load template with stored state.
	Load([]byte) (Template, error)
	// Exec dispatches execution request based on the method selector.
	Exec(Host, uint8, Arguments) error
	// SpawnAddress computes the address of the account spawned by principal with args.
	SpawnAddress(principal Address, args Arguments) Address
}

//go:generate mockgen -package=mocks -destination=./mocks/template.go github.com/spacemeshos/go-pollvm/genvm/core Template

// Template is a concrete Template type initialized with mutable and immutable state.
type Template interface {
	// Template needs to implement scale.Encodable as mutable and immutable state will be stored as a blob of bytes.
	scale.Encodable
	// Verify security of the transaction. Decoder is positioned after the method arguments.
	Verify(Host, []byte, *scale.Decoder) bool
}

// AccountLoader is an interface for loading accounts.
type AccountLoader interface {
	Get(Address) (Account, error)
}

//go:generate mockgen -package=mocks -destination=./mocks/updater.go github.com/spacemeshos/go-pollvm/genvm/core AccountUpdater

// AccountUpdater is an interface for updating accounts.
type AccountUpdater interface {
	Update(Account) error
}

//go:generate mockgen -package=mocks -destination=./mocks/host.go github.com/spacemeshos/go-pollvm/genvm/core Host

// Host API with methods and data that are required by templates.
type Host interface {
	// Principal is the account that signed the transaction.
	Principal() Address
	// Template is the state of the account the method is executed on.
	Template() Template
	// Layer of the applied transaction.
	Layer() types.LayerID
	// Now is the time of the applied layer.
	Now() time.Time
	GetGenesisID() Hash20
	Logger() *zap.Logger
	// Spawn creates an account from spawn arguments of the executed template.
	Spawn(Arguments) (Address, error)
}

// Payload contains common fields of every transaction.
type Payload struct {
	Nonce uint64
}

// EncodeScale implements scale codec interface.
func (p *Payload) EncodeScale(enc *scale.Encoder) (total int, err error) {
	n, err := scale.EncodeCompact64(enc, p.Nonce)
	if err != nil {
		return total, err
	}
	return total + n, nil
}

// DecodeScale implements scale codec interface.
func (p *Payload) DecodeScale(dec *scale.Decoder) (total int, err error) {
	field, n, err := scale.DecodeCompact64(dec)
	if err != nil {
		return total, err
	}
	p.Nonce = field
	return total + n, nil
}
