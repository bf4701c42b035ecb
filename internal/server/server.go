// Package server assembles the reference record store: routing, middleware and the HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/possync/internal/server/handlers"
	"github.com/iudanet/possync/internal/server/middleware"
	"github.com/iudanet/possync/internal/server/storage"
)

const (
	// HealthPath проверяется клиентами для определения доступности
	HealthPath = "/api/v1/health"

	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Options configures the server
type Options struct {
	Addr      string
	Version   string
	RateLimit float64
	RateBurst int
}

// Server is the reference backend for the sync client
type Server struct {
	store    storage.RecordStorage
	tokens   middleware.TokenValidator
	limiter  *middleware.RateLimiter
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	logger   *slog.Logger
	opts     Options
}

// New creates a server. Call Close to release the rate limiter
func New(store storage.RecordStorage, tokens middleware.TokenValidator, opts Options, logger *slog.Logger) *Server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "possync_server",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})
	reg.MustRegister(requests)

	return &Server{
		store:    store,
		tokens:   tokens,
		limiter:  middleware.NewRateLimiter(opts.RateLimit, opts.RateBurst, logger),
		registry: reg,
		requests: requests,
		logger:   logger,
		opts:     opts,
	}
}

// Handler builds the HTTP routes
func (s *Server) Handler() http.Handler {
	health := handlers.NewHealthHandler(s.logger, s.store, s.opts.Version)
	records := handlers.NewRecordsHandler(s.logger, s.store)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.LoggingMiddleware(s.logger, HealthPath))
	r.Use(middleware.RecoveryMiddleware(s.logger))
	r.Use(s.countRequests)

	r.Get(HealthPath, health.Health)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1/records/{entity}", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(s.logger, s.tokens))
		r.Use(s.limiter.Middleware)

		r.Post("/", records.Create)
		r.Put("/{id}", records.Update)
		r.Delete("/{id}", records.Delete)
		r.Get("/{id}", records.Get)
	})

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", s.opts.Addr, "version", s.opts.Version)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errC; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Close stops background work of the server
func (s *Server) Close() {
	s.limiter.Stop()
}

// countRequests считает запросы по шаблону маршрута, а не по сырому пути
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
