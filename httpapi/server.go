// Package httpapi exposes the seat cache to UIs over HTTP: a JSON snapshot
// endpoint and a Server-Sent Events stream of snapshots.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/dailyyoga/seatsync/cache"
	"github.com/dailyyoga/seatsync/clock"
	"github.com/dailyyoga/seatsync/logger"
	"github.com/dailyyoga/seatsync/routine"
	"github.com/dailyyoga/seatsync/seat"
	"go.uber.org/zap"
)

// SeatReader is the part of cache.SeatCache served over HTTP
type SeatReader interface {
	Read(key string) cache.Snapshot
	Known(key string) bool
	Refresh(ctx context.Context, key string, opts ...cache.RefreshOption) ([]seat.Record, error)
	Watch(ctx context.Context, key string, opts ...cache.SubscribeOption) <-chan cache.Snapshot
}

// Server serves seat snapshots
type Server struct {
	config *Config
	logger logger.Logger
	cache  SeatReader
	clock  clock.Clock
	runner routine.Runner

	srv    *http.Server
	base   context.Context
	cancel context.CancelFunc
}

// NewServer creates the HTTP server, nothing listens until Run
func NewServer(log logger.Logger, cfg *Config, c SeatReader, clk clock.Clock) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.Real()
	}

	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		config: cfg,
		logger: log,
		cache:  c,
		clock:  clk,
		runner: routine.New(log),
		base:   base,
		cancel: cancel,
	}
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	return s, nil
}

// Handler returns the routed handler wrapped with request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /events/{id}/seats", s.handleSeats)
	mux.HandleFunc("GET /events/{id}/seats/stream", s.handleStream)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
	return RequestLogger(mux, s.logger)
}

// Run serves until ctx is done, then shuts down gracefully. Open streams
// are ended before the shutdown waits for handlers.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	s.runner.Go("http-server", func() {
		s.logger.Info("http server listening", zap.String("addr", s.config.Addr))
		errCh <- s.srv.ListenAndServe()
	})

	select {
	case err := <-errCh:
		s.cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return ErrServe(err)
	case <-ctx.Done():
	}

	s.cancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	err := s.srv.Shutdown(shutdownCtx)
	s.runner.Wait()
	if err != nil {
		return ErrServe(err)
	}
	s.logger.Info("http server stopped")
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
