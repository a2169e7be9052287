package polls

import (
	"fmt"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/sql"
)

// Record is an index entry for a spawned poll.
type Record struct {
	Address types.Address
	Creator types.Address
	Index   uint64
	Layer   types.LayerID
}

// Add indexes a poll created in the layer.
func Add(db sql.Executor, record *Record) error {
	if _, err := db.Exec(`insert into polls (address, creator, poll_index, layer)
	values (?1, ?2, ?3, ?4);`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, record.Address.Bytes())
			stmt.BindBytes(2, record.Creator.Bytes())
			stmt.BindInt64(3, int64(record.Index))
			stmt.BindInt64(4, int64(record.Layer))
		}, nil); err != nil {
		return fmt.Errorf("insert poll %s: %w", record.Address, err)
	}
	return nil
}

func decodeRecord(stmt *sql.Statement) *Record {
	var record Record
	stmt.ColumnBytes(0, record.Address[:])
	stmt.ColumnBytes(1, record.Creator[:])
	record.Index = uint64(stmt.ColumnInt64(2))
	record.Layer = types.LayerID(uint32(stmt.ColumnInt64(3)))
	return &record
}

// Get poll index entry by address.
func Get(db sql.Executor, address types.Address) (*Record, error) {
	var record *Record
	rows, err := db.Exec("select address, creator, poll_index, layer from polls where address = ?1;",
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, address.Bytes())
		}, func(stmt *sql.Statement) bool {
			record = decodeRecord(stmt)
			return false
		})
	if err != nil {
		return nil, fmt.Errorf("get poll %s: %w", address, err)
	} else if rows == 0 {
		return nil, fmt.Errorf("%w: poll %s", sql.ErrNotFound, address)
	}
	return record, nil
}

// ByCreator returns polls created by the principal ordered by poll index.
func ByCreator(db sql.Executor, creator types.Address) ([]*Record, error) {
	var rst []*Record
	if _, err := db.Exec(`select address, creator, poll_index, layer from polls
	where creator = ?1 order by poll_index;`,
		func(stmt *sql.Statement) {
			stmt.BindBytes(1, creator.Bytes())
		}, func(stmt *sql.Statement) bool {
			rst = append(rst, decodeRecord(stmt))
			return true
		}); err != nil {
		return nil, fmt.Errorf("polls by creator %s: %w", creator, err)
	}
	return rst, nil
}

// Count returns the number of indexed polls.
func Count(db sql.Executor) (int, error) {
	var count int
	if _, err := db.Exec("select count(*) from polls;", nil, func(stmt *sql.Statement) bool {
		count = stmt.ColumnInt(0)
		return false
	}); err != nil {
		return 0, fmt.Errorf("count polls: %w", err)
	}
	return count, nil
}

// Revert removes polls created after the layer.
func Revert(db sql.Executor, after types.LayerID) error {
	if _, err := db.Exec("delete from polls where layer > ?1;",
		func(stmt *sql.Statement) {
			stmt.BindInt64(1, int64(after))
		}, nil); err != nil {
		return fmt.Errorf("revert polls after %v: %w", after, err)
	}
	return nil
}
