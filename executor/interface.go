package executor

import (
	"github.com/spacemeshos/go-pollvm/common/types"
	vm "github.com/spacemeshos/go-pollvm/genvm"
)

type vmState interface {
	Apply(vm.ApplyContext, []types.RawTx) ([]types.TransactionID, []types.TransactionWithResult, error)
	Revert(types.LayerID) error
}
