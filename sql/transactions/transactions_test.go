package transactions

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/sql"
)

func createTX(principal types.Address, nonce uint64) *types.Transaction {
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(rand.Intn(256))
	}
	return &types.Transaction{
		RawTx:    types.NewRawTx(raw),
		TxHeader: &types.TxHeader{Principal: principal, Nonce: nonce},
	}
}

func TestAddGet(t *testing.T) {
	db := sql.InMemory()
	principal := types.Address{1, 2}
	tx := createTX(principal, 7)
	rst := &types.TransactionResult{
		Status:    types.TransactionFailure,
		Message:   "threshold exceeded",
		Layer:     4,
		Addresses: []types.Address{principal},
	}
	require.NoError(t, Add(db, tx, rst))

	got, err := Get(db, tx.ID)
	require.NoError(t, err)
	require.Equal(t, tx.RawTx, got.RawTx)
	require.Equal(t, principal, got.Principal)
	require.EqualValues(t, 7, got.Nonce)
	require.Equal(t, *rst, got.TransactionResult)

	has, err := Has(db, tx.ID)
	require.NoError(t, err)
	require.True(t, has)

	require.ErrorIs(t, Add(db, tx, rst), sql.ErrObjectExists)
}

func TestGetMissing(t *testing.T) {
	db := sql.InMemory()
	_, err := Get(db, types.TransactionID{1})
	require.ErrorIs(t, err, sql.ErrNotFound)

	has, err := Has(db, types.TransactionID{1})
	require.NoError(t, err)
	require.False(t, has)
}

func TestByPrincipal(t *testing.T) {
	db := sql.InMemory()
	principal := types.Address{1}
	other := types.Address{2}
	for _, nonce := range []uint64{3, 1, 2} {
		require.NoError(t, Add(db, createTX(principal, nonce), &types.TransactionResult{Layer: types.LayerID(nonce)}))
	}
	require.NoError(t, Add(db, createTX(other, 1), &types.TransactionResult{Layer: 1}))

	txs, err := ByPrincipal(db, principal)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	for i, tx := range txs {
		require.EqualValues(t, i+1, tx.Nonce)
	}
}

func TestRevert(t *testing.T) {
	db := sql.InMemory()
	principal := types.Address{1}
	var txs []*types.Transaction
	for i := 1; i <= 5; i++ {
		tx := createTX(principal, uint64(i))
		txs = append(txs, tx)
		require.NoError(t, Add(db, tx, &types.TransactionResult{Layer: types.LayerID(i)}))
	}
	require.NoError(t, Revert(db, 3))
	for i, tx := range txs {
		has, err := Has(db, tx.ID)
		require.NoError(t, err)
		require.Equal(t, i < 3, has)
	}
}

func TestLatestLayer(t *testing.T) {
	db := sql.InMemory()
	lid, err := LatestLayer(db)
	require.NoError(t, err)
	require.Zero(t, lid)

	for _, layer := range []types.LayerID{3, 9, 5} {
		require.NoError(t, Add(db, createTX(types.Address{1}, uint64(layer)), &types.TransactionResult{Layer: layer}))
	}
	lid, err = LatestLayer(db)
	require.NoError(t, err)
	require.EqualValues(t, 9, lid)
}
