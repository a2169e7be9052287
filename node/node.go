// Package node contains the main executable for the pollvm node.
package node

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/spacemeshos/go-pollvm/api"
	"github.com/spacemeshos/go-pollvm/cmd"
	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/config"
	"github.com/spacemeshos/go-pollvm/executor"
	vm "github.com/spacemeshos/go-pollvm/genvm"
	"github.com/spacemeshos/go-pollvm/log"
	"github.com/spacemeshos/go-pollvm/metrics"
	"github.com/spacemeshos/go-pollvm/prune"
	"github.com/spacemeshos/go-pollvm/sql"
	"github.com/spacemeshos/go-pollvm/sql/transactions"
)

// Logger names.
const (
	AppLogger      = "app"
	VMLogger       = "vm"
	ExecutorLogger = "executor"
	APILogger      = "api"
	DBLogger       = "db"
	MetricsLogger  = "metrics"
	PruneLogger    = "prune"
)

// ErrRevertPruned is returned when the requested layer is below the pruned history.
var ErrRevertPruned = errors.New("state was pruned")

// GetCommand returns the command that starts the node.
func GetCommand() *cobra.Command {
	conf := config.DefaultConfig()
	var configPath *string
	c := &cobra.Command{
		Use:   "node",
		Short: "start node",
		RunE: func(c *cobra.Command, args []string) error {
			app, err := prepare(c, *configPath, &conf)
			if err != nil {
				return err
			}

			// os.Interrupt for all systems, especially windows, syscall.SIGTERM is mainly for docker.
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := app.Lock(); err != nil {
				return fmt.Errorf("getting exclusive file lock: %w", err)
			}
			defer app.Unlock()

			// Don't print usage on error from this point forward
			c.SilenceUsage = true

			if err := app.Start(ctx); err != nil {
				app.logger.Error("app failed", zap.Error(err))
				return err
			}
			return nil
		},
	}
	configPath = cmd.AddFlags(c.PersistentFlags(), &conf)

	var layer uint32
	revert := &cobra.Command{
		Use:   "revert",
		Short: "revert state to the layer, the node must be stopped",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			app, err := prepare(c, *configPath, &conf)
			if err != nil {
				return err
			}
			if err := app.Lock(); err != nil {
				return fmt.Errorf("getting exclusive file lock: %w", err)
			}
			defer app.Unlock()
			c.SilenceUsage = true
			return app.Revert(c.Context(), types.LayerID(layer))
		},
	}
	revert.Flags().Uint32Var(&layer, "layer", 0, "last layer that remains applied")
	c.AddCommand(revert)
	return c
}

func prepare(c *cobra.Command, configPath string, conf *config.Config) (*App, error) {
	if err := configure(c, configPath, conf); err != nil {
		return nil, err
	}
	encoder, err := log.NewEncoder(conf.LOGGING.Encoder)
	if err != nil {
		return nil, err
	}
	return New(
		WithConfig(conf),
		// root logger must be at the lowest level, module loggers can only increase it
		WithLog(log.New(os.Stdout, zap.NewAtomicLevelAt(zap.DebugLevel), encoder)),
	), nil
}

func configure(c *cobra.Command, configPath string, conf *config.Config) error {
	if err := loadConfig(conf, configPath); err != nil {
		return log.ErrMalformedConfig(err)
	}
	// apply CLI args to config
	if err := c.ParseFlags(os.Args[1:]); err != nil {
		return log.ErrBadFlags(err)
	}
	return nil
}

// loadConfig overrides defaults in cfg with values from the config file.
func loadConfig(cfg *config.Config, path string) error {
	v := viper.New()
	if err := config.LoadConfig(path, v); err != nil {
		return err
	}
	hook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)
	opts := []viper.DecoderConfigOption{
		viper.DecodeHook(hook),
		WithIgnoreUntagged(),
		WithErrorUnused(),
	}
	if err := v.Unmarshal(cfg, opts...); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func WithIgnoreUntagged() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.IgnoreUntaggedFields = true
	}
}

func WithErrorUnused() viper.DecoderConfigOption {
	return func(cfg *mapstructure.DecoderConfig) {
		cfg.ErrorUnused = true
	}
}

// Option to modify an App instance.
type Option func(app *App)

// WithLog enables logger for an App.
func WithLog(logger *zap.Logger) Option {
	return func(app *App) {
		app.root = logger
	}
}

// WithConfig overwrites default App config.
func WithConfig(conf *config.Config) Option {
	return func(app *App) {
		app.Config = conf
	}
}

// New creates an instance of the pollvm app.
func New(opts ...Option) *App {
	defaultConfig := config.DefaultConfig()
	app := &App{
		Config:  &defaultConfig,
		root:    log.NewNop(),
		loggers: make(map[string]*zap.AtomicLevel),
		started: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(app)
	}
	app.logger = app.addLogger(AppLogger, app.root)
	types.SetNetworkHRP(app.Config.NetworkHRP)
	return app
}

// App is the cli app singleton.
type App struct {
	Config *config.Config

	root     *zap.Logger
	logger   *zap.Logger
	loggers  map[string]*zap.AtomicLevel
	fileLock *flock.Flock

	db       *sql.Database
	vm       *vm.VM
	executor *executor.Executor
	api      *api.Server
	metrics  *metrics.Server
	pruner   *prune.Pruner

	apiListener net.Listener
	started     chan struct{}
}

// Started returns a channel that is closed when the app is serving requests.
func (app *App) Started() <-chan struct{} {
	return app.started
}

// APIAddress returns the address the api server is listening on.
// Valid only after Started is closed.
func (app *App) APIAddress() net.Addr {
	return app.apiListener.Addr()
}

// Lock locks the app for exclusive use. It returns an error if the app is already locked.
func (app *App) Lock() error {
	lockDir := filepath.Dir(app.Config.FileLock)
	if _, err := os.Stat(lockDir); errors.Is(err, fs.ErrNotExist) {
		err := os.Mkdir(lockDir, os.ModePerm)
		if err != nil {
			return fmt.Errorf("creating dir %s for lock %s: %w", lockDir, app.Config.FileLock, err)
		}
	}
	fl := flock.New(app.Config.FileLock)
	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("flock %s: %w", app.Config.FileLock, err)
	} else if !locked {
		return fmt.Errorf("only one pollvm instance should be running (locking file %s)", fl.Path())
	}
	app.fileLock = fl
	return nil
}

// Unlock unlocks the app. It is a no-op if the app is not locked.
func (app *App) Unlock() {
	if app.fileLock == nil {
		return
	}
	if err := app.fileLock.Unlock(); err != nil {
		app.logger.Error("failed to unlock file",
			zap.String("path", app.fileLock.Path()),
			zap.Error(err),
		)
	}
}

// Wrap the root logger and set the level for a specific module.
//
// This method is not safe to be called concurrently.
func (app *App) addLogger(name string, logger *zap.Logger) *zap.Logger {
	lvl, err := app.Config.LOGGING.LoggerLevel(name)
	if err != nil {
		app.root.Panic("unable to decode logger level", zap.String("module", name), zap.Error(err))
	}
	app.loggers[name] = &lvl
	if logger.Core().Enabled(lvl.Level()) {
		logger = logger.WithOptions(zap.IncreaseLevel(lvl))
	}
	return logger.Named(name)
}

// SetLogLevel updates the log level of an existing logger.
func (app *App) SetLogLevel(name, loglevel string) error {
	lvl, ok := app.loggers[name]
	if !ok {
		return fmt.Errorf("cannot find logger %v", name)
	}
	if err := lvl.UnmarshalText([]byte(loglevel)); err != nil {
		return fmt.Errorf("parse level %s: %w", loglevel, err)
	}
	return nil
}

// LogLevel returns the current level of the named logger.
func (app *App) LogLevel(name string) zapcore.Level {
	lvl, ok := app.loggers[name]
	if !ok {
		return zapcore.InvalidLevel
	}
	return lvl.Level()
}

func (app *App) setupDB() error {
	if err := os.MkdirAll(app.Config.DataDir(), 0o700); err != nil {
		return log.ErrEnsureDataDir(app.Config.DataDir(), err)
	}
	db, err := sql.Open("file:"+app.Config.DatabasePath(),
		sql.WithLogger(app.addLogger(DBLogger, app.root)),
		sql.WithConnections(app.Config.DatabaseConnections),
		sql.WithLatencyMetering(app.Config.DatabaseLatencyMetering),
	)
	if err != nil {
		return log.ErrOpenDatabase(app.Config.DatabasePath(), err)
	}
	app.db = db
	return nil
}

func (app *App) initState() error {
	app.vm = vm.New(app.db,
		vm.WithConfig(app.Config.VM),
		vm.WithLogger(app.addLogger(VMLogger, app.root)),
	)
	last, err := transactions.LatestLayer(app.db)
	if err != nil {
		return fmt.Errorf("load latest layer: %w", err)
	}
	app.executor = executor.New(app.vm, last,
		executor.WithLogger(app.addLogger(ExecutorLogger, app.root)),
	)
	return nil
}

func (app *App) initServices() error {
	if err := app.initState(); err != nil {
		return err
	}
	var err error
	app.api, err = api.New(app.Config.API, app.db, app.vm, app.executor, app.vm,
		api.WithLogger(app.addLogger(APILogger, app.root)),
	)
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	if app.Config.Prune.Enabled && app.Config.Prune.Interval > 0 {
		app.pruner = prune.New(app.db, app.Config.Prune.SafeDist,
			prune.WithLogger(app.addLogger(PruneLogger, app.root)),
		)
	}
	if app.Config.Metrics.Enabled {
		app.metrics = metrics.NewServer(app.Config.Metrics.Listen, app.addLogger(MetricsLogger, app.root))
	}
	return nil
}

// Start opens the state database, starts all services and blocks
// until ctx is canceled or one of the services fails.
func (app *App) Start(ctx context.Context) error {
	app.logger.Info("starting pollvm",
		zap.String("data-dir", app.Config.DataDir()),
		zap.String("network-hrp", app.Config.NetworkHRP),
		zap.Stringer("genesis-id", app.Config.VM.GenesisID),
	)
	if err := app.setupDB(); err != nil {
		return err
	}
	defer app.closeDB()
	if err := app.initServices(); err != nil {
		return err
	}
	lis, err := net.Listen("tcp", app.Config.API.Listen)
	if err != nil {
		return fmt.Errorf("listen api on %s: %w", app.Config.API.Listen, err)
	}
	app.apiListener = lis

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return app.api.Serve(ctx, lis)
	})
	if app.pruner != nil {
		eg.Go(func() error {
			prune.Run(ctx, app.pruner, app.executor, clockwork.NewRealClock(), app.Config.Prune.Interval)
			return nil
		})
	}
	if app.metrics != nil {
		eg.Go(func() error {
			return app.metrics.Run(ctx)
		})
		if app.Config.Metrics.Push.URL != "" {
			metrics.StartPushingMetrics(ctx, app.logger, app.Config.Metrics.Push, app.Config.NetworkHRP)
		}
	}
	app.logger.Info("app started",
		zap.Stringer("api", lis.Addr()),
		zap.Stringer("layer", app.executor.Layer()),
	)
	close(app.started)
	err = eg.Wait()
	app.logger.Info("app stopped", zap.Error(err))
	return err
}

// Revert opens the state database and drops every layer applied after the given one.
// Layers below the prune safe distance can't be restored.
func (app *App) Revert(ctx context.Context, to types.LayerID) error {
	if err := app.setupDB(); err != nil {
		return err
	}
	defer app.closeDB()
	if err := app.initState(); err != nil {
		return err
	}
	current := app.executor.Layer()
	if app.Config.Prune.Enabled && to.Add(app.Config.Prune.SafeDist).Before(current) {
		return fmt.Errorf("%w: %s is more than %d layers below %s",
			ErrRevertPruned, to, app.Config.Prune.SafeDist, current)
	}
	return app.executor.Revert(ctx, to)
}

func (app *App) closeDB() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", zap.Error(err))
	}
}
