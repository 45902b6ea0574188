// Package server exposes a feed Store over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/example/capstayson/internal/feed"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Config tunes a Server.
type Config struct {
	// SiteURL is the public origin used in share links.
	SiteURL string
	// MaxUploadBytes bounds POST /api/posts bodies.
	MaxUploadBytes int64
	// RatePerSecond and Burst size the per-client bucket for mutating
	// routes. A zero rate disables limiting.
	RatePerSecond float64
	Burst         int
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		SiteURL:        "http://localhost:8080",
		MaxUploadBytes: 10 << 20,
		RatePerSecond:  2,
		Burst:          10,
	}
}

// Server serves the feed API.
type Server struct {
	store   *feed.Store
	cfg     Config
	log     *zap.Logger
	router  *mux.Router
	metrics *metrics
	limiter *rateLimiter
}

// New builds a Server over store.
func New(store *feed.Store, cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = def.SiteURL
	}
	s := &Server{
		store:   store,
		cfg:     cfg,
		log:     log,
		metrics: newMetrics(),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = newRateLimiter(cfg.RatePerSecond, burst)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)
	r.HandleFunc("/blobs/{key}", s.handleBlob).Methods(http.MethodGet)
	r.HandleFunc("/assets/cap.png", s.handleCapAsset).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/posts", s.handleRecent).Methods(http.MethodGet)
	api.HandleFunc("/posts/all", s.handleAll).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", s.handlePost).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}/share", s.handleShare).Methods(http.MethodGet)
	api.HandleFunc("/profiles/{handle}", s.handleProfile).Methods(http.MethodGet)
	api.HandleFunc("/users", s.handleUsers).Methods(http.MethodGet)

	api.Handle("/posts", s.limit(http.HandlerFunc(s.handlePublish))).Methods(http.MethodPost)
	api.Handle("/posts/{id}/like", s.limit(http.HandlerFunc(s.handleLike))).Methods(http.MethodPost)
	api.Handle("/posts/{id}/comments", s.limit(http.HandlerFunc(s.handleComment))).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("feed server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("feed server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
