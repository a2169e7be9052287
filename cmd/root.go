package cmd

import (
	"github.com/spf13/pflag"

	"github.com/spacemeshos/go-pollvm/config"
)

// AddFlags adds node flags to the flag set and binds them to cfg.
// It returns the pointer to the config file path.
func AddFlags(flagSet *pflag.FlagSet, cfg *config.Config) (configPath *string) {
	configPath = flagSet.StringP("config", "c", "", "load configuration from file")

	/** ======================== BaseConfig Flags ========================== **/
	flagSet.StringVarP(&cfg.BaseConfig.DataDirParent, "data-folder", "d",
		cfg.BaseConfig.DataDirParent, "specify data directory for pollvm")
	flagSet.StringVar(&cfg.FileLock, "filelock",
		cfg.FileLock, "filesystem lock to prevent running more than one instance")
	flagSet.StringVar(&cfg.NetworkHRP, "network-hrp",
		cfg.NetworkHRP, "human readable prefix of the addresses")
	flagSet.IntVar(&cfg.DatabaseConnections, "db-connections",
		cfg.DatabaseConnections, "database connection pool size")
	flagSet.BoolVar(&cfg.DatabaseLatencyMetering, "db-latency-metering",
		cfg.DatabaseLatencyMetering, "if enabled collect latency histogram for every database query")
	flagSet.Var(&cfg.VM.GenesisID, "genesis-id",
		"genesis id (hex) that prefixes every signed transaction")

	/** ======================== API Flags ========================== **/
	flagSet.StringVar(&cfg.API.Listen, "api-listen",
		cfg.API.Listen, "address for the json api server")
	flagSet.StringSliceVar(&cfg.API.CorsAllowedOrigins, "api-cors-origins",
		cfg.API.CorsAllowedOrigins, "origins allowed to make cross-origin requests")
	flagSet.Float64Var(&cfg.API.RateLimit, "api-rate-limit",
		cfg.API.RateLimit, "requests per second allowed for a single host, 0 disables rate limiting")
	flagSet.IntVar(&cfg.API.RateBurst, "api-rate-burst",
		cfg.API.RateBurst, "number of requests a single host can make in a burst")

	/** ======================== Metrics Flags ========================== **/
	flagSet.BoolVar(&cfg.Metrics.Enabled, "metrics",
		cfg.Metrics.Enabled, "collect node metrics")
	flagSet.StringVar(&cfg.Metrics.Listen, "metrics-listen",
		cfg.Metrics.Listen, "address for the prometheus metrics server")
	flagSet.StringVar(&cfg.Metrics.Push.URL, "metrics-push",
		cfg.Metrics.Push.URL, "push metrics to url")
	flagSet.DurationVar(&cfg.Metrics.Push.Period, "metrics-push-period",
		cfg.Metrics.Push.Period, "push period")

	/** ======================== Prune Flags ========================== **/
	flagSet.BoolVar(&cfg.Prune.Enabled, "prune",
		cfg.Prune.Enabled, "prune account history that is older than safe distance")
	flagSet.Uint32Var(&cfg.Prune.SafeDist, "prune-safe-dist",
		cfg.Prune.SafeDist, "number of recent layers that keep full account history")
	flagSet.DurationVar(&cfg.Prune.Interval, "prune-interval",
		cfg.Prune.Interval, "interval between pruning runs")

	/** ======================== Logging Flags ========================== **/
	flagSet.StringVar(&cfg.LOGGING.Encoder, "log-encoder",
		cfg.LOGGING.Encoder, "log as JSON instead of plain text")
	return configPath
}
