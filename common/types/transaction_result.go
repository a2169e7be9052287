package types

import (
	"fmt"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap/zapcore"
)

const (
	// MaxResultMessage is the maximal length of the message stored in the result.
	MaxResultMessage = 1024
	// MaxResultAddresses is the maximal number of addresses updated by a single transaction.
	MaxResultAddresses = 10
)

// TransactionStatus of the consumed transaction.
type TransactionStatus uint8

const (
	// TransactionSuccess is a status for successfully applied transaction.
	TransactionSuccess TransactionStatus = iota
	// TransactionFailure is a status for failed but consumed transaction.
	TransactionFailure
)

// String implements human readable representation of the status.
func (t TransactionStatus) String() string {
	switch t {
	case TransactionSuccess:
		return "success"
	case TransactionFailure:
		return "failure"
	}
	panic(fmt.Sprintf("unknown status %d", t))
}

// TransactionResult is created after consuming transaction.
type TransactionResult struct {
	Status  TransactionStatus
	Message string
	Layer   LayerID
	// Addresses contains all updated addresses.
	Addresses []Address
}

// EncodeScale implements scale codec interface.
func (h *TransactionResult) EncodeScale(enc *scale.Encoder) (total int, err error) {
	{
		n, err := scale.EncodeCompact8(enc, uint8(h.Status))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStringWithLimit(enc, h.Message, MaxResultMessage)
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeCompact32(enc, uint32(h.Layer))
		if err != nil {
			return total, err
		}
		total += n
	}
	{
		n, err := scale.EncodeStructSliceWithLimit(enc, h.Addresses, MaxResultAddresses)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (h *TransactionResult) DecodeScale(dec *scale.Decoder) (total int, err error) {
	{
		field, n, err := scale.DecodeCompact8(dec)
		if err != nil {
			return total, err
		}
		total += n
		h.Status = TransactionStatus(field)
	}
	{
		field, n, err := scale.DecodeStringWithLimit(dec, MaxResultMessage)
		if err != nil {
			return total, err
		}
		total += n
		h.Message = field
	}
	{
		field, n, err := scale.DecodeCompact32(dec)
		if err != nil {
			return total, err
		}
		total += n
		h.Layer = LayerID(field)
	}
	{
		field, n, err := scale.DecodeStructSliceWithLimit[Address](dec, MaxResultAddresses)
		if err != nil {
			return total, err
		}
		total += n
		h.Addresses = field
	}
	return total, nil
}

// MarshalLogObject implements encoding for the tx result.
func (h *TransactionResult) MarshalLogObject(encoder zapcore.ObjectEncoder) error {
	encoder.AddString("status", h.Status.String())
	if h.Status > 0 {
		encoder.AddString("message", h.Message)
	}
	encoder.AddUint32("layer", h.Layer.Uint32())
	encoder.AddArray("addresses", zapcore.ArrayMarshalerFunc(func(encoder zapcore.ArrayEncoder) error {
		for i := range h.Addresses {
			encoder.AppendString(h.Addresses[i].String())
		}
		return nil
	}))
	return nil
}

// TransactionWithResult is a transaction with attached result.
type TransactionWithResult struct {
	Transaction
	TransactionResult
}
