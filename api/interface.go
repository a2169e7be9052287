package api

import (
	"context"

	"github.com/spacemeshos/go-pollvm/common/types"
	vm "github.com/spacemeshos/go-pollvm/genvm"
)

type validator interface {
	Validation(types.RawTx) *vm.Request
}

type submitter interface {
	Submit(context.Context, types.RawTx) (*types.TransactionWithResult, error)
}

type accountState interface {
	Account(types.Address) (types.Account, error)
}
