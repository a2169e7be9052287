// Package api implements JSON HTTP API for submitting transactions and reading polls.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	metricsProm "github.com/slok/go-http-metrics/metrics/prometheus"
	"github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spacemeshos/go-pollvm/common/types"
	"github.com/spacemeshos/go-pollvm/genvm/templates/poll"
	"github.com/spacemeshos/go-pollvm/metrics"
	"github.com/spacemeshos/go-pollvm/sql"
)

const limitersCacheSize = 4096

// registered once per process, recorder fails on duplicate registration.
var httpMetrics = middleware.New(middleware.Config{
	Recorder: metricsProm.NewRecorder(metricsProm.Config{Prefix: metrics.Namespace + "_api"}),
})

// Opt modifies Server.
type Opt func(*Server)

// WithLogger sets logger for the server.
func WithLogger(logger *zap.Logger) Opt {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithClock sets the clock that is used to report if poll expired.
func WithClock(clock clockwork.Clock) Opt {
	return func(s *Server) {
		s.clock = clock
	}
}

// Server is a JSON HTTP API server.
type Server struct {
	logger *zap.Logger
	clock  clockwork.Clock
	cfg    Config

	db        sql.Executor
	validator validator
	submitter submitter
	state     accountState

	polls    *lru.Cache[types.Hash32, *poll.Poll]
	limiters *lru.Cache[string, *rate.Limiter]

	srv *http.Server
}

// New creates API server.
func New(
	cfg Config,
	db sql.Executor,
	validator validator,
	submitter submitter,
	state accountState,
	opts ...Opt,
) (*Server, error) {
	s := &Server{
		logger:    zap.NewNop(),
		clock:     clockwork.NewRealClock(),
		cfg:       cfg,
		db:        db,
		validator: validator,
		submitter: submitter,
		state:     state,
	}
	for _, opt := range opts {
		opt(s)
	}
	var err error
	s.polls, err = lru.New[types.Hash32, *poll.Poll](max(cfg.CacheSize, 1))
	if err != nil {
		return nil, fmt.Errorf("create polls cache: %w", err)
	}
	s.limiters, err = lru.New[string, *rate.Limiter](limitersCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create limiters cache: %w", err)
	}
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Route patterns, path variables are read with mux.Vars.
const (
	TransactionsPattern = "/v1/transactions"
	TransactionPattern  = "/v1/transactions/{id}"
	AccountPattern      = "/v1/accounts/{address}"
	HistoryPattern      = "/v1/accounts/{address}/transactions"
	PollPattern         = "/v1/polls/{address}"
	PollsPattern        = "/v1/polls"
)

// Handler returns the http handler with all routes and middlewares.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.route(router, TransactionsPattern, s.submitTransaction).Methods(http.MethodPost)
	s.route(router, TransactionPattern, s.getTransaction).Methods(http.MethodGet)
	s.route(router, AccountPattern, s.getAccount).Methods(http.MethodGet)
	s.route(router, HistoryPattern, s.listTransactions).Methods(http.MethodGet)
	s.route(router, PollPattern, s.getPoll).Methods(http.MethodGet)
	s.route(router, PollsPattern, s.listPolls).Methods(http.MethodGet)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown path %s", r.URL.Path))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s is not allowed", r.Method))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CorsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.rateLimit(router))
}

func (s *Server) route(router *mux.Router, pattern string, handler http.HandlerFunc) *mux.Route {
	return router.Handle(pattern, std.Handler(pattern, httpMetrics, handler))
}

// Serve requests on the listener until ctx is canceled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info("api server started", zap.Stringer("address", lis.Addr()))
	errc := make(chan error, 1)
	go func() {
		errc <- s.srv.Serve(lis)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown api server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("api server stopped")
	return nil
}

func (s *Server) limiter(host string) *rate.Limiter {
	if limiter, ok := s.limiters.Get(host); ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst)
	s.limiters.Add(host, limiter)
	return limiter
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.cfg.RateLimit == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !s.limiter(host).Allow() {
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, &ErrorResponse{Error: err.Error()})
}
