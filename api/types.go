package api

import (
	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/genvm/templates/poll"
	"github.com/spacemeshos/go-pollvm/sql/polls"
)

// SubmitRequest carries a hex encoded signed transaction.
type SubmitRequest struct {
	Tx string `json:"tx"`
}

// ErrorResponse is returned with every non 200 status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TransactionResponse is the result of the applied transaction.
type TransactionResponse struct {
	ID        types.TransactionID `json:"id"`
	Principal types.Address       `json:"principal"`
	Nonce     uint64              `json:"nonce"`
	Status    string              `json:"status"`
	Message   string              `json:"message,omitempty"`
	Layer     types.LayerID       `json:"layer"`
	Addresses []types.Address     `json:"addresses"`
}

func toTransactionResponse(tx *types.TransactionWithResult) *TransactionResponse {
	rst := &TransactionResponse{
		ID:        tx.ID,
		Status:    tx.Status.String(),
		Message:   tx.Message,
		Layer:     tx.Layer,
		Addresses: tx.Addresses,
	}
	if tx.TxHeader != nil {
		rst.Principal = tx.Principal
		rst.Nonce = tx.Nonce
	}
	if rst.Addresses == nil {
		rst.Addresses = []types.Address{}
	}
	return rst
}

// AccountResponse is the latest state header of the account.
type AccountResponse struct {
	Address   types.Address  `json:"address"`
	Layer     types.LayerID  `json:"layer"`
	NextNonce uint64         `json:"next_nonce"`
	Template  *types.Address `json:"template,omitempty"`
	Kind      string         `json:"kind,omitempty"`
}

// PollResponse is a decoded poll.
type PollResponse struct {
	Address     types.Address   `json:"address"`
	Question    string          `json:"question"`
	Creator     types.Address   `json:"creator"`
	Index       uint64          `json:"index"`
	YesVotes    uint64          `json:"yes_votes"`
	NoVotes     uint64          `json:"no_votes"`
	Total       uint64          `json:"total"`
	Threshold   uint64          `json:"threshold"`
	CreatedTime uint64          `json:"created_time"`
	ExpiryTime  uint64          `json:"expiry_time"`
	Expired     bool            `json:"expired"`
	Voters      []types.Address `json:"voters"`
}

func toPollResponse(address types.Address, p *poll.Poll, now uint64) *PollResponse {
	voters := p.Register
	if voters == nil {
		voters = []types.Address{}
	}
	return &PollResponse{
		Address:     address,
		Question:    p.Question,
		Creator:     p.Creator,
		Index:       p.PollIndex,
		YesVotes:    p.YesVotes,
		NoVotes:     p.NoVotes,
		Total:       p.Total(),
		Threshold:   p.Threshold,
		CreatedTime: p.CreatedTime,
		ExpiryTime:  p.ExpiryTime,
		Expired:     p.Expired(now),
		Voters:      voters,
	}
}

// PollRecord references a poll created by the creator.
type PollRecord struct {
	Address types.Address `json:"address"`
	Creator types.Address `json:"creator"`
	Index   uint64        `json:"index"`
	Layer   types.LayerID `json:"layer"`
}

func toPollRecords(records []*polls.Record) []PollRecord {
	rst := make([]PollRecord, 0, len(records))
	for _, record := range records {
		rst = append(rst, PollRecord{
			Address: record.Address,
			Creator: record.Creator,
			Index:   record.Index,
			Layer:   record.Layer,
		})
	}
	return rst
}
