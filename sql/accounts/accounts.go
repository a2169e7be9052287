package accounts

import (
	"fmt"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/sql"
)

const columns = "next_nonce, layer_updated, template, state"

func decodeState(stmt *sql.Statement, col int, account *types.Account) {
	if stmt.ColumnLen(col) > 0 {
		account.TemplateAddress = &types.Address{}
		stmt.ColumnBytes(col, account.TemplateAddress[:])
		account.State = make([]byte, stmt.ColumnLen(col+1))
		stmt.ColumnBytes(col+1, account.State)
	}
}

func load(db sql.Executor, address types.Address, query string, enc sql.Encoder) (types.Account, error) {
	var account types.Account
	_, err := db.Exec(query, enc, func(stmt *sql.Statement) bool {
		account.NextNonce = uint64(stmt.ColumnInt64(0))
		account.Layer = types.LayerID(uint32(stmt.ColumnInt64(1)))
		decodeState(stmt, 2, &account)
		return false
	})
	if err != nil {
		return types.Account{}, err
	}
	account.Address = address
	return account, nil
}

// Latest account data for an address.
// Account that was never updated is returned with zero nonce and without template.
func Latest(db sql.Executor, address types.Address) (types.Account, error) {
	account, err := load(db, address,
		"select "+columns+" from accounts where address = ?1 order by layer_updated desc;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
		},
	)
	if err != nil {
		return types.Account{}, fmt.Errorf("failed to load %v: %w", address, err)
	}
	return account, nil
}

// Get account data that was valid at the specified layer.
func Get(db sql.Executor, address types.Address, layer types.LayerID) (types.Account, error) {
	account, err := load(db, address,
		"select "+columns+" from accounts where address = ?1 and layer_updated <= ?2 order by layer_updated desc;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
			stmt.BindInt64(2, int64(layer))
		},
	)
	if err != nil {
		return types.Account{}, fmt.Errorf("failed to load %v for layer %v: %w", address, layer, err)
	}
	return account, nil
}

// Update account state at a certain layer.
func Update(db sql.Executor, to *types.Account) error {
	_, err := db.Exec(`insert into
	accounts (address, next_nonce, layer_updated, template, state)
	values (?1, ?2, ?3, ?4, ?5)
	on conflict (address, layer_updated) do update set
	next_nonce = ?2, template = ?4, state = ?5;`, func(stmt *sql.Statement) {
		stmt.BindBytes(1, to.Address.Bytes())
		stmt.BindInt64(2, int64(to.NextNonce))
		stmt.BindInt64(3, int64(to.Layer))
		if to.TemplateAddress == nil {
			stmt.BindNull(4)
			stmt.BindNull(5)
		} else {
			stmt.BindBytes(4, to.TemplateAddress[:])
			stmt.BindBytes(5, to.State)
		}
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to insert account %v for layer %v: %w", to.Address.String(), to.Layer, err)
	}
	return nil
}

// Revert state after the layer.
func Revert(db sql.Executor, after types.LayerID) error {
	_, err := db.Exec(`delete from accounts where layer_updated > ?1;`,
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(after))
		}, nil)
	if err != nil {
		return fmt.Errorf("failed to revert up to %v: %w", after, err)
	}
	return nil
}

// PruneHistory deletes account versions that are superseded by a version
// updated at or before the layer. The state at the layer and after it is preserved.
func PruneHistory(db sql.Executor, layer types.LayerID) (int, error) {
	n, err := db.Exec(`delete from accounts as a
	where a.layer_updated < ?1 and exists (
		select 1 from accounts as b
		where b.address = a.address and b.layer_updated > a.layer_updated and b.layer_updated <= ?1
	) returning address;`,
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(layer))
		}, nil)
	if err != nil {
		return 0, fmt.Errorf("prune accounts before %v: %w", layer, err)
	}
	return n, nil
}
