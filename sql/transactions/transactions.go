package transactions

import (
	"fmt"

	"github.com/spacemeshos/go-pollvm/codec"
	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/sql"
)

// Add applied transaction together with its result.
func Add(db sql.Executor, tx *types.Transaction, rst *types.TransactionResult) error {
	buf, err := codec.Encode(rst)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", tx.ID, err)
	}
	if _, err := db.Exec(`insert into transactions
	(id, tx, principal, nonce, layer, result)
	values (?1, ?2, ?3, ?4, ?5, ?6)`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, tx.ID.Bytes())
			stmt.BindBytes(2, tx.Raw)
			stmt.BindBytes(3, tx.Principal.Bytes())
			stmt.BindInt64(4, int64(tx.Nonce))
			stmt.BindInt64(5, int64(rst.Layer))
			stmt.BindBytes(6, buf)
		}, nil); err != nil {
		return fmt.Errorf("insert %s: %w", tx.ID, err)
	}
	return nil
}

const fullQuery = "select id, tx, principal, nonce, result from transactions"

func decodeTransaction(stmt *sql.Statement) (*types.TransactionWithResult, error) {
	var rst types.TransactionWithResult
	stmt.ColumnBytes(0, rst.ID[:])
	rst.Raw = make([]byte, stmt.ColumnLen(1))
	stmt.ColumnBytes(1, rst.Raw)
	rst.TxHeader = &types.TxHeader{}
	stmt.ColumnBytes(2, rst.Principal[:])
	rst.Nonce = uint64(stmt.ColumnInt64(3))
	if _, err := codec.DecodeFrom(stmt.ColumnReader(4), &rst.TransactionResult); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", rst.ID, err)
	}
	return &rst, nil
}

// Get transaction with result from database.
func Get(db sql.Executor, id types.TransactionID) (*types.TransactionWithResult, error) {
	var (
		rst  *types.TransactionWithResult
		derr error
	)
	rows, err := db.Exec(fullQuery+" where id = ?1",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
		}, func(stmt *sql.Statement) bool {
			rst, derr = decodeTransaction(stmt)
			return false
		})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	} else if rows == 0 {
		return nil, fmt.Errorf("%w: tx %s", sql.ErrNotFound, id)
	}
	return rst, derr
}

// Has returns true if transaction is stored in the database.
func Has(db sql.Executor, id types.TransactionID) (bool, error) {
	rows, err := db.Exec("select 1 from transactions where id = ?1",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, id.Bytes())
		}, nil)
	if err != nil {
		return false, fmt.Errorf("has %s: %w", id, err)
	}
	return rows > 0, nil
}

// ByPrincipal returns transactions of the principal ordered by nonce.
func ByPrincipal(db sql.Executor, principal types.Address) ([]*types.TransactionWithResult, error) {
	var (
		rst  []*types.TransactionWithResult
		derr error
	)
	_, err := db.Exec(fullQuery+" where principal = ?1 order by nonce",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, principal.Bytes())
		}, func(stmt *sql.Statement) bool {
			var tx *types.TransactionWithResult
			tx, derr = decodeTransaction(stmt)
			if derr != nil {
				return false
			}
			rst = append(rst, tx)
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("by principal %s: %w", principal, err)
	}
	if derr != nil {
		return nil, derr
	}
	return rst, nil
}

// Revert removes transactions applied after the layer.
func Revert(db sql.Executor, after types.LayerID) error {
	if _, err := db.Exec("delete from transactions where layer > ?1",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(after))
		}, nil); err != nil {
		return fmt.Errorf("revert transactions after %v: %w", after, err)
	}
	return nil
}

// LatestLayer returns the highest layer with applied transactions, 0 if there are none.
func LatestLayer(db sql.Executor) (types.LayerID, error) {
	var lid types.LayerID
	if _, err := db.Exec("select max(layer) from transactions;", nil, func(stmt *sql.Statement) bool {
		if !sql.IsNull(stmt, 0) {
			lid = types.LayerID(stmt.ColumnInt64(0))
		}
		return false
	}); err != nil {
		return 0, fmt.Errorf("latest layer: %w", err)
	}
	return lid, nil
}
