package types

import (
	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-pollvm/hash"
)

// MaxRawTxSize is the upper bound on the size of an encoded transaction.
const MaxRawTxSize = 4096

// TransactionID is a 32-byte blake3 sum of the transaction, used as an identifier.
type TransactionID Hash32

// Hash32 returns the TransactionID as a Hash32.
func (id TransactionID) Hash32() Hash32 {
	return Hash32(id)
}

// ShortString returns a the first 10 characters of the ID, for logging purposes.
func (id TransactionID) ShortString() string {
	return id.Hash32().ShortString()
}

// String returns a hexadecimal representation of the TransactionID with "0x" prepended.
func (id TransactionID) String() string {
	return id.Hash32().String()
}

// Bytes returns the TransactionID as a byte slice.
func (id TransactionID) Bytes() []byte {
	return id[:]
}

// MarshalText implements encoding.TextMarshaler.
func (id TransactionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *TransactionID) UnmarshalText(buf []byte) error {
	return (*Hash32)(id).UnmarshalText(buf)
}

// EncodeScale implements scale codec interface.
func (id *TransactionID) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, id[:])
}

// DecodeScale implements scale codec interface.
func (id *TransactionID) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, id[:])
}

// RawTx stores an identity and raw bytes of the transaction.
type RawTx struct {
	ID  TransactionID
	Raw []byte
}

// NewRawTx computes id from raw bytes and returns the object.
func NewRawTx(raw []byte) RawTx {
	return RawTx{
		ID:  hash.Sum(raw),
		Raw: raw,
	}
}

// TxHeader is the part of the transaction that is decoded by the vm during parsing.
type TxHeader struct {
	Principal       Address
	TemplateAddress Address
	Method          uint8
	Nonce           uint64
	// Target and TargetMethod are set only for calls.
	Target       Address
	TargetMethod uint8
}

// MarshalLogObject implements encoding for the tx header.
func (h *TxHeader) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("principal", h.Principal.String())
	encoder.AddUint8("method", h.Method)
	encoder.AddUint64("nonce", h.Nonce)
	if !h.TemplateAddress.IsEmpty() {
		encoder.AddString("template", h.TemplateAddress.String())
	}
	if !h.Target.IsEmpty() {
		encoder.AddString("target", h.Target.String())
		encoder.AddUint8("target_method", h.TargetMethod)
	}
	return nil
}

// Transaction is a raw transaction with an optional parsed header.
type Transaction struct {
	RawTx
	*TxHeader
}

// Verified returns true if header is set.
func (t Transaction) Verified() bool {
	return t.TxHeader != nil
}

// ToTransactionIDs returns a slice of TransactionID corresponding to the given transactions.
func ToTransactionIDs(txs []*Transaction) []TransactionID {
	ids := make([]TransactionID, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	return ids
}
