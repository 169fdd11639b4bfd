// Package server exposes the HTTP API: on-demand price discovery, batch
// refresh triggers, and subscription/notification CRUD.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/subtrack-labs/pricewatch/internal/config"
	"github.com/subtrack-labs/pricewatch/internal/model"
	"github.com/subtrack-labs/pricewatch/internal/pricing"
	"github.com/subtrack-labs/pricewatch/internal/store"
)

// Discoverer runs on-demand price discovery.
type Discoverer interface {
	Discover(ctx context.Context, q model.PriceQuery) pricing.Outcome
}

// Refresher triggers a batch refresh over the plan catalog.
type Refresher interface {
	RefreshAll(ctx context.Context) (model.RefreshSummary, error)
}

// Server wires the HTTP routes to the store and the discovery pipeline.
type Server struct {
	store           store.Store
	pipeline        Discoverer
	refresher       Refresher
	cfg             config.ServerConfig
	defaultCurrency string
	router          chi.Router
}

// New builds a Server with its routes registered.
func New(st store.Store, pipeline Discoverer, refresher Refresher, cfg config.ServerConfig, defaultCurrency string) *Server {
	if defaultCurrency == "" {
		defaultCurrency = "TRY"
	}
	s := &Server{
		store:           st,
		pipeline:        pipeline,
		refresher:       refresher,
		cfg:             cfg,
		defaultCurrency: defaultCurrency,
	}
	s.router = s.routes()
	return s
}

// Router returns the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/prices/discover", s.handleDiscover)
		r.Post("/prices/refresh", s.handleRefresh)

		r.Post("/subscriptions", s.handleCreateSubscription)
		r.Get("/subscriptions/{id}", s.handleGetSubscription)
		r.Delete("/subscriptions/{id}", s.handleDeleteSubscription)
		r.Get("/users/{id}/subscriptions", s.handleListSubscriptions)

		r.Post("/notifications", s.handleCreateNotification)
		r.Get("/users/{id}/notifications", s.handleListNotifications)
		r.Post("/notifications/{id}/read", s.handleMarkNotificationRead)
	})

	return r
}

// Start runs the HTTP server until the context is canceled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server: listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		zap.L().Info("server: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request with method, path, status, and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
