// Package prune deletes account history that can no longer be reverted to.
package prune

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/sql"
	"github.com/spacemeshos/go-pollvm/sql/accounts"
)

// Config for the pruner.
type Config struct {
	Enabled bool `mapstructure:"enabled"`
	// SafeDist is the number of layers below the current one that remain revertible.
	SafeDist uint32        `mapstructure:"safe-dist"`
	Interval time.Duration `mapstructure:"interval"`
}

// DefaultConfig returns the default pruner config.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		SafeDist: 1000,
		Interval: 10 * time.Minute,
	}
}

type Opt func(*Pruner)

func WithLogger(logger *zap.Logger) Opt {
	return func(p *Pruner) {
		p.logger = logger
	}
}

type layerState interface {
	Layer() types.LayerID
}

func New(db sql.Executor, safeDist uint32, opts ...Opt) *Pruner {
	p := &Pruner{
		logger:   zap.NewNop(),
		db:       db,
		safeDist: safeDist,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type Pruner struct {
	logger   *zap.Logger
	db       sql.Executor
	safeDist uint32
}

// Run prunes history every interval until ctx is canceled.
func Run(ctx context.Context, p *Pruner, state layerState, clock clockwork.Clock, interval time.Duration) {
	p.logger.Info("db pruning launched",
		zap.Uint32("dist", p.safeDist),
		zap.Duration("interval", interval),
	)
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			current := state.Layer()
			if err := p.Prune(current); err != nil {
				p.logger.Error("failed to prune",
					zap.Stringer("lid", current),
					zap.Uint32("dist", p.safeDist),
					zap.Error(err),
				)
			}
		}
	}
}

// Prune deletes account versions that are not needed to revert to any
// layer within safe distance from the current one.
func (p *Pruner) Prune(current types.LayerID) error {
	if uint32(current) <= p.safeDist {
		return nil
	}
	oldest := current - types.LayerID(p.safeDist)
	start := time.Now()
	n, err := accounts.PruneHistory(p.db, oldest)
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	accountsLatency.Observe(time.Since(start).Seconds())
	prunedAccounts.Add(float64(n))
	if n > 0 {
		p.logger.Debug("pruned account history",
			zap.Stringer("before", oldest),
			zap.Int("versions", n),
		)
	}
	return nil
}
