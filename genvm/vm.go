package vm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/spacemeshos/go-scale"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/genvm/core"
	"github.com/spacemeshos/go-pollvm/genvm/registry"
	"github.com/spacemeshos/go-pollvm/genvm/templates/poll"
	"github.com/spacemeshos/go-pollvm/genvm/templates/wallet"
	"github.com/spacemeshos/go-pollvm/sql"
	"github.com/spacemeshos/go-pollvm/sql/accounts"
	"github.com/spacemeshos/go-pollvm/sql/polls"
	"github.com/spacemeshos/go-pollvm/sql/transactions"
)

// Opt is for changing VM during initialization.
type Opt func(*VM)

// WithLogger sets logger for VM.
func WithLogger(logger *zap.Logger) Opt {
	return func(vm *VM) {
		vm.logger = logger
	}
}

// Config defines the configuration options for vm.
type Config struct {
	GenesisID types.Hash20 `mapstructure:"genesis-id"`
}

// DefaultConfig returns the default vm config.
func DefaultConfig() Config {
	return Config{}
}

// WithConfig updates config on the vm.
func WithConfig(cfg Config) Opt {
	return func(vm *VM) {
		vm.cfg = cfg
	}
}

// New returns VM instance.
func New(db *sql.Database, opts ...Opt) *VM {
	vm := &VM{
		logger:   zap.NewNop(),
		db:       db,
		cfg:      DefaultConfig(),
		registry: registry.New(),
	}
	wallet.Register(vm.registry)
	poll.Register(vm.registry)
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// VM handles modifications to the account state.
type VM struct {
	logger   *zap.Logger
	db       *sql.Database
	cfg      Config
	registry *registry.Registry
}

// Validation initializes validation request.
func (v *VM) Validation(raw types.RawTx) *Request {
	return &Request{
		vm:      v,
		decoder: scale.NewDecoder(bytes.NewReader(raw.Raw)),
		raw:     raw,
	}
}

// Account returns the latest account state.
func (v *VM) Account(address core.Address) (types.Account, error) {
	return accounts.Latest(v.db, address)
}

// Revert state after the layer.
func (v *VM) Revert(lid types.LayerID) error {
	if err := v.db.WithTx(context.Background(), func(tx *sql.Tx) error {
		if err := accounts.Revert(tx, lid); err != nil {
			return err
		}
		if err := transactions.Revert(tx, lid); err != nil {
			return err
		}
		return polls.Revert(tx, lid)
	}); err != nil {
		return fmt.Errorf("revert to %s: %w", lid, err)
	}
	v.logger.Info("vm reverted to layer", zap.Stringer("layer", lid))
	return nil
}

// ApplyContext has information on layer that is applied.
type ApplyContext struct {
	Layer types.LayerID
	// Time is observed by templates through core.Host.
	Time time.Time
}

// Apply transactions atomically. Transactions that can't be parsed or verified
// are returned as skipped and are not recorded.
func (v *VM) Apply(
	lctx ApplyContext,
	txs []types.RawTx,
) ([]types.TransactionID, []types.TransactionWithResult, error) {
	t1 := time.Now()
	tx, err := v.db.TxImmediate(context.Background())
	if err != nil {
		return nil, nil, err
	}
	defer tx.Release()

	t2 := time.Now()
	blockDurationWait.Observe(t2.Sub(t1).Seconds())

	ss := core.NewStagedCache(core.DBLoader{Executor: tx})
	results, skipped, err := v.execute(lctx, ss, tx, txs)
	if err != nil {
		return nil, nil, err
	}
	t3 := time.Now()
	blockDurationTxs.Observe(t3.Sub(t2).Seconds())

	writes := 0
	ss.IterateChanged(func(account *core.Account) bool {
		writes++
		account.Layer = lctx.Layer
		v.logger.Debug("update account state", zap.Object("account", account))
		err = accounts.Update(tx, account)
		return err == nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", core.ErrInternal, err)
	}
	writesPerBlock.Observe(float64(writes))

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", core.ErrInternal, err)
	}
	blockDurationPersist.Observe(time.Since(t3).Seconds())
	transactionsPerBlock.Observe(float64(len(txs)))

	v.logger.Debug("applied layer",
		zap.Stringer("layer", lctx.Layer),
		zap.Int("count", len(txs)-len(skipped)),
		zap.Duration("duration", time.Since(t1)),
	)
	return skipped, results, nil
}

func (v *VM) execute(
	lctx ApplyContext,
	ss *core.StagedCache,
	dbtx *sql.Tx,
	txs []types.RawTx,
) ([]types.TransactionWithResult, []types.TransactionID, error) {
	var (
		rd      bytes.Reader
		decoder = scale.NewDecoder(&rd)
		results = make([]types.TransactionWithResult, 0, len(txs))
		skipped []types.TransactionID
	)
	for i := range txs {
		rd.Reset(txs[i].Raw)
		ctx, err := parse(v.logger, lctx, v.registry, ss, v.cfg.GenesisID, decoder)
		if err != nil {
			if errors.Is(err, core.ErrInternal) {
				return nil, nil, err
			}
			v.logger.Debug("skipping transaction. failed to parse",
				zap.Stringer("tx", txs[i].ID),
				zap.Error(err),
			)
			skipped = append(skipped, txs[i].ID)
			skippedTxs.Inc()
			continue
		}
		if ctx.PrincipalAccount.NextNonce != ctx.Header.Nonce {
			v.logger.Debug("skipping transaction. failed nonce check",
				zap.Stringer("tx", txs[i].ID),
				zap.Object("header", &ctx.Header),
				zap.Object("account", &ctx.PrincipalAccount),
				zap.Error(core.ErrNonce),
			)
			skipped = append(skipped, txs[i].ID)
			skippedTxs.Inc()
			continue
		}
		if !ctx.PrincipalTemplate.Verify(ctx, txs[i].Raw, decoder) {
			v.logger.Debug("skipping transaction. failed verification",
				zap.Stringer("tx", txs[i].ID),
				zap.Object("header", &ctx.Header),
				zap.Error(core.ErrAuth),
			)
			skipped = append(skipped, txs[i].ID)
			skippedTxs.Inc()
			continue
		}

		rst := types.TransactionWithResult{}
		rst.RawTx = txs[i]
		rst.TxHeader = &ctx.Header
		rst.Layer = lctx.Layer

		err = ctx.Handler.Exec(ctx, ctx.Method, ctx.Args)
		if err != nil {
			if errors.Is(err, core.ErrInternal) {
				return nil, nil, err
			}
			v.logger.Debug("transaction failed",
				zap.Stringer("tx", txs[i].ID),
				zap.Object("header", &ctx.Header),
				zap.Error(err),
			)
		}
		if err := ctx.Apply(ss, err); err != nil {
			return nil, nil, err
		}
		if err != nil {
			rst.Status = types.TransactionFailure
			rst.Message = truncate(err.Error(), types.MaxResultMessage)
			failedTxs.Inc()
		} else {
			rst.Status = types.TransactionSuccess
			successfulTxs.Inc()
		}
		rst.Addresses = ctx.Updated()
		if err := transactions.Add(dbtx, &rst.Transaction, &rst.TransactionResult); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", core.ErrInternal, err)
		}
		if err := indexPoll(dbtx, lctx.Layer, ctx); err != nil {
			return nil, nil, err
		}
		results = append(results, rst)
	}
	return results, skipped, nil
}

func indexPoll(db sql.Executor, lid types.LayerID, ctx *core.Context) error {
	spawned := ctx.Spawned()
	if spawned == nil || *spawned.TemplateAddress != poll.TemplateAddress {
		return nil
	}
	record := &polls.Record{
		Address: spawned.Address,
		Creator: ctx.Principal(),
		Index:   ctx.Args.(*poll.SpawnArguments).PollIndex,
		Layer:   lid,
	}
	if err := polls.Add(db, record); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInternal, err)
	}
	return nil
}

func truncate(msg string, limit int) string {
	if len(msg) <= limit {
		return msg
	}
	for limit > 0 && !utf8.RuneStart(msg[limit]) {
		limit--
	}
	return msg[:limit]
}

// Request used to implement 2-step validation flow.
// After Parse is executed the caller may do validation and skip Verify
// if transaction can't be executed.
type Request struct {
	vm *VM

	raw     types.RawTx
	ctx     *core.Context
	decoder *scale.Decoder
}

// Parse header from the raw transaction.
func (r *Request) Parse() (*core.Header, error) {
	if len(r.raw.Raw) > types.MaxRawTxSize {
		return nil, fmt.Errorf("%w: tx size (%d) > limit (%d)", core.ErrMalformed, len(r.raw.Raw), types.MaxRawTxSize)
	}
	ctx, err := parse(
		r.vm.logger,
		ApplyContext{Time: time.Now()},
		r.vm.registry,
		core.NewStagedCache(core.DBLoader{Executor: r.vm.db}),
		r.vm.cfg.GenesisID,
		r.decoder,
	)
	if err != nil {
		return nil, err
	}
	r.ctx = ctx
	return &ctx.Header, nil
}

// Verify transaction. Will panic if called without Parse completing successfully.
func (r *Request) Verify() bool {
	if r.ctx == nil {
		panic("Verify should be called after successful Parse")
	}
	return r.ctx.PrincipalTemplate.Verify(r.ctx, r.raw.Raw, r.decoder)
}

func parse(
	logger *zap.Logger,
	lctx ApplyContext,
	reg *registry.Registry,
	loader core.AccountLoader,
	genesisID types.Hash20,
	decoder *scale.Decoder,
) (*core.Context, error) {
	version, _, err := scale.DecodeCompact8(decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode version %w", core.ErrMalformed, err)
	}
	// v1 transactions are not supported
	if version != 0 {
		return nil, fmt.Errorf("%w: unsupported version %d", core.ErrMalformed, version)
	}

	var principal core.Address
	if _, err := principal.DecodeScale(decoder); err != nil {
		return nil, fmt.Errorf("%w failed to decode principal: %w", core.ErrMalformed, err)
	}
	method, _, err := scale.DecodeCompact8(decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode method selector %w", core.ErrMalformed, err)
	}
	account, err := loader.Get(principal)
	if err != nil {
		return nil, fmt.Errorf("%w: failed load state for principal %s: %w", core.ErrInternal, principal, err)
	}
	logger.Debug("loaded principal account state", zap.Object("account", &account))

	ctx := &core.Context{
		Loader:           loader,
		LayerID:          lctx.Layer,
		Time:             lctx.Time,
		GenesisID:        genesisID,
		Log:              logger,
		PrincipalAccount: account,
	}
	ctx.Header.Principal = principal
	ctx.Header.Method = method

	var payload core.Payload
	switch method {
	case core.MethodSpawn:
		var template core.Address
		if _, err := template.DecodeScale(decoder); err != nil {
			return nil, fmt.Errorf("%w failed to decode template address %w", core.ErrMalformed, err)
		}
		handler := reg.Get(template)
		if handler == nil {
			return nil, fmt.Errorf("%w: unknown template %s", core.ErrMalformed, template)
		}
		if _, err := payload.DecodeScale(decoder); err != nil {
			return nil, fmt.Errorf("%w: failed to decode payload %w", core.ErrMalformed, err)
		}
		args := handler.Args(core.MethodSpawn)
		if args == nil {
			return nil, fmt.Errorf("%w: template %s can't be spawned", core.ErrMalformed, template)
		}
		if _, err := args.DecodeScale(decoder); err != nil {
			return nil, fmt.Errorf("%w: failed to decode spawn arguments %w", core.ErrMalformed, err)
		}
		ctx.Handler = handler
		ctx.Method = core.MethodSpawn
		ctx.Args = args
		ctx.Header.TemplateAddress = template
		if account.Spawned() {
			ctx.PrincipalTemplate, err = load(reg, &account)
			if err != nil {
				return nil, err
			}
		} else {
			// self spawn is verified by the template that is being spawned
			ctx.PrincipalTemplate, err = handler.New(ctx, args)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", core.ErrMalformed, err)
			}
		}
	case core.MethodCall:
		if !account.Spawned() {
			return nil, fmt.Errorf("%w: %s", core.ErrNotSpawned, principal)
		}
		ctx.PrincipalTemplate, err = load(reg, &account)
		if err != nil {
			return nil, err
		}
		if _, err := payload.DecodeScale(decoder); err != nil {
			return nil, fmt.Errorf("%w: failed to decode payload %w", core.ErrMalformed, err)
		}
		var target core.Address
		if _, err := target.DecodeScale(decoder); err != nil {
			return nil, fmt.Errorf("%w: failed to decode target %w", core.ErrMalformed, err)
		}
		if target == principal {
			return nil, fmt.Errorf("%w: principal %s can't call itself", core.ErrMalformed, principal)
		}
		targetMethod, _, err := scale.DecodeCompact8(decoder)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decode target method %w", core.ErrMalformed, err)
		}
		targetAccount, err := loader.Get(target)
		if err != nil {
			return nil, fmt.Errorf("%w: failed load state for target %s: %w", core.ErrInternal, target, err)
		}
		if !targetAccount.Spawned() {
			return nil, fmt.Errorf("%w: target %s", core.ErrNotSpawned, target)
		}
		handler := reg.Get(*targetAccount.TemplateAddress)
		if handler == nil {
			return nil, fmt.Errorf("%w: unknown template %s", core.ErrInternal, *targetAccount.TemplateAddress)
		}
		args := handler.Args(targetMethod)
		if args == nil || targetMethod == core.MethodSpawn {
			return nil, fmt.Errorf("%w: unknown method %d of %s", core.ErrMalformed, targetMethod, target)
		}
		if _, err := args.DecodeScale(decoder); err != nil {
			return nil, fmt.Errorf("%w: failed to decode method arguments %w", core.ErrMalformed, err)
		}
		template, err := handler.Load(targetAccount.State)
		if err != nil {
			return nil, err
		}
		ctx.SetTarget(targetAccount, template)
		ctx.Handler = handler
		ctx.Method = targetMethod
		ctx.Args = args
		ctx.Header.TemplateAddress = *account.TemplateAddress
		ctx.Header.Target = target
		ctx.Header.TargetMethod = targetMethod
	default:
		return nil, fmt.Errorf("%w: unsupported method %d", core.ErrMalformed, method)
	}
	ctx.Header.Nonce = payload.Nonce
	return ctx, nil
}

func load(reg *registry.Registry, account *core.Account) (core.Template, error) {
	handler := reg.Get(*account.TemplateAddress)
	if handler == nil {
		return nil, fmt.Errorf("%w: unknown template %s", core.ErrInternal, *account.TemplateAddress)
	}
	return handler.Load(account.State)
}
