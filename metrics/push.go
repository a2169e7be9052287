package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

// PushConfig describes a prometheus push gateway.
type PushConfig struct {
	URL      string            `mapstructure:"url"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	Headers  map[string]string `mapstructure:"headers"`
	Period   time.Duration     `mapstructure:"period"`
}

// StartPushingMetrics pushes metrics to the gateway until ctx is canceled.
func StartPushingMetrics(ctx context.Context, logger *zap.Logger, cfg PushConfig, network string) {
	header := http.Header{}
	for k, v := range cfg.Headers {
		header.Add(k, v)
	}
	pusher := push.New(cfg.URL, "go-pollvm").Gatherer(prometheus.DefaultGatherer).
		Grouping("network", network).
		Header(header)
	if cfg.Username != "" && cfg.Password != "" {
		pusher = pusher.BasicAuth(cfg.Username, cfg.Password)
	}
	go func() {
		ticker := time.NewTicker(cfg.Period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := pusher.PushContext(ctx); err != nil {
					logger.Warn("failed to push metrics", zap.Error(err))
				}
			}
		}
	}()
}
