// Package executor orders submitted transactions and applies each of them in its own layer.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-pollvm/common/types"
	vm "github.com/spacemeshos/go-pollvm/genvm"
)

var (
	// ErrRejected is returned if the vm skipped the transaction, e.g. because of a wrong nonce.
	ErrRejected = errors.New("transaction rejected")
	// ErrLayerNotApplied is returned when reverting to a layer that is ahead of the executor.
	ErrLayerNotApplied = errors.New("layer not applied")
)

// Opt modifies Executor.
type Opt func(*Executor)

// WithLogger sets logger for the executor.
func WithLogger(logger *zap.Logger) Opt {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithClock sets the clock that timestamps applied layers.
func WithClock(clock clockwork.Clock) Opt {
	return func(e *Executor) {
		e.clock = clock
	}
}

// Executor serializes application of transactions.
type Executor struct {
	logger *zap.Logger
	clock  clockwork.Clock
	vm     vmState

	mu    sync.Mutex
	layer types.LayerID
}

// New creates executor that continues after the last applied layer.
func New(vm vmState, last types.LayerID, opts ...Opt) *Executor {
	e := &Executor{
		logger: zap.NewNop(),
		clock:  clockwork.NewRealClock(),
		vm:     vm,
		layer:  last,
	}
	for _, opt := range opts {
		opt(e)
	}
	currentLayer.Set(float64(last))
	return e
}

// Layer returns the last applied layer.
func (e *Executor) Layer() types.LayerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layer
}

// Submit applies the transaction in the next layer and returns its result.
func (e *Executor) Submit(ctx context.Context, tx types.RawTx) (*types.TransactionWithResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	lctx := vm.ApplyContext{Layer: e.layer.Add(1), Time: e.clock.Now()}
	skipped, results, err := e.vm.Apply(lctx, []types.RawTx{tx})
	if err != nil {
		return nil, fmt.Errorf("apply %s: %w", tx.ID, err)
	}
	if len(skipped) > 0 || len(results) == 0 {
		rejectedCount.Inc()
		return nil, fmt.Errorf("%w: %s", ErrRejected, tx.ID)
	}
	e.layer = lctx.Layer
	currentLayer.Set(float64(e.layer))

	rst := &results[0]
	switch rst.Status {
	case types.TransactionSuccess:
		successCount.Inc()
	default:
		failureCount.Inc()
	}
	e.logger.Info("executed transaction",
		zap.Stringer("tx", tx.ID),
		zap.Stringer("layer", lctx.Layer),
		zap.Object("result", &rst.TransactionResult),
		zap.Duration("duration", time.Since(start)),
	)
	return rst, nil
}

// Revert the state to the layer.
func (e *Executor) Revert(ctx context.Context, to types.LayerID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if to.After(e.layer) {
		return fmt.Errorf("%w: %s > %s", ErrLayerNotApplied, to, e.layer)
	}
	if err := e.vm.Revert(to); err != nil {
		return fmt.Errorf("revert state: %w", err)
	}
	e.layer = to
	currentLayer.Set(float64(to))
	e.logger.Info("reverted state", zap.Stringer("revert_to", to))
	return nil
}
