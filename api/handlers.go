package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/common/util"
	"github.com/spacemeshos/go-pollvm/executor"
	"github.com/spacemeshos/go-pollvm/genvm/core"
	"github.com/spacemeshos/go-pollvm/genvm/templates/poll"
	"github.com/spacemeshos/go-pollvm/genvm/templates/wallet"
	"github.com/spacemeshos/go-pollvm/sql"
	"github.com/spacemeshos/go-pollvm/sql/polls"
	"github.com/spacemeshos/go-pollvm/sql/transactions"
)

var (
	// ErrNotPoll is returned when the requested account is not a spawned poll.
	ErrNotPoll = errors.New("account is not a poll")
	// ErrAlreadyApplied is returned when the submitted transaction is already in the state.
	ErrAlreadyApplied = errors.New("transaction already applied")
)

// hex encoding doubles the size, plus the prefix and json framing.
const maxRequestBody = 2*types.MaxRawTxSize + 64

func (s *Server) submitTransaction(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	buf, err := util.Decode(req.Tx)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	raw := types.NewRawTx(buf)
	applied, err := transactions.Has(s.db, raw.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if applied {
		writeError(w, http.StatusConflict, fmt.Errorf("%w: %s", ErrAlreadyApplied, raw.ID))
		return
	}
	validation := s.validator.Validation(raw)
	header, err := validation.Parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !validation.Verify() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: signature verification failed", core.ErrAuth))
		return
	}
	rst, err := s.submitter.Submit(r.Context(), raw)
	switch {
	case errors.Is(err, executor.ErrRejected):
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: expected nonce may differ from %d", err, header.Nonce))
		return
	case err != nil:
		s.logger.Error("failed to submit transaction", zap.Stringer("tx", raw.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(rst))
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	var id types.TransactionID
	if err := id.UnmarshalText([]byte(mux.Vars(r)["id"])); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid transaction id: %w", err))
		return
	}
	tx, err := transactions.Get(s.db, id)
	switch {
	case errors.Is(err, sql.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	address, err := types.StringToAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	txs, err := transactions.ByPrincipal(s.db, address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	rst := make([]*TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		rst = append(rst, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, rst)
}

func templateKind(template *types.Address) string {
	switch {
	case template == nil:
		return ""
	case *template == wallet.TemplateAddress:
		return "wallet"
	case *template == poll.TemplateAddress:
		return "poll"
	}
	return "unknown"
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	address, err := types.StringToAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := s.state.Account(address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, &AccountResponse{
		Address:   address,
		Layer:     account.Layer,
		NextNonce: account.NextNonce,
		Template:  account.TemplateAddress,
		Kind:      templateKind(account.TemplateAddress),
	})
}

func (s *Server) loadPoll(address types.Address) (*poll.Poll, error) {
	account, err := s.state.Account(address)
	if err != nil {
		return nil, err
	}
	if !account.Spawned() || *account.TemplateAddress != poll.TemplateAddress {
		return nil, fmt.Errorf("%w: %s", ErrNotPoll, address)
	}
	key := types.CalcHash32(account.State)
	if p, ok := s.polls.Get(key); ok {
		return p, nil
	}
	p, err := poll.Decode(account.State)
	if err != nil {
		return nil, fmt.Errorf("decode poll %s: %w", address, err)
	}
	s.polls.Add(key, p)
	return p, nil
}

func (s *Server) getPoll(w http.ResponseWriter, r *http.Request) {
	address, err := types.StringToAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := s.loadPoll(address)
	switch {
	case errors.Is(err, ErrNotPoll):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toPollResponse(address, p, uint64(s.clock.Now().Unix())))
}

func (s *Server) listPolls(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Query().Get("creator")
	if param == "" {
		writeError(w, http.StatusBadRequest, errors.New("creator is required"))
		return
	}
	creator, err := types.StringToAddress(param)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	records, err := polls.ByCreator(s.db, creator)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toPollRecords(records))
}
