// Package server exposes grid layouts over a JSON HTTP API.
//
// Every layout is a [grid.Engine] kept in memory behind its own mutex, loaded
// lazily from a [store.Layouts] repository and written back after each
// committed mutation. Change-sets are sent to a [broadcast.Publisher] once
// they are saved. Requests placing an item below the row limit (see
// [WithMaxRows]) are rejected.
//
// # Routes
//
//	GET    /healthz
//	GET    /layouts                        list layout names
//	POST   /layouts/{name}                 create {"rows":R,"cols":C}
//	GET    /layouts/{name}                 snapshot document
//	DELETE /layouts/{name}
//	GET    /layouts/{name}/nodes           placed items
//	GET    /layouts/{name}/check           consistency check
//	GET    /layouts/{name}/text            text rendering
//	GET    /layouts/{name}/svg             SVG diagram
//	POST   /layouts/{name}/items           add {"id","x","y","w","h"}
//	PATCH  /layouts/{name}/items/{id}      move {"x","y"}
//	DELETE /layouts/{name}/items/{id}      remove
//	GET    /metrics                        when enabled with [WithMetrics]
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/gridengine/pkg/broadcast"
	"github.com/matzehuels/gridengine/pkg/store"
)

// Timeouts applied by [Server.ListenAndServe].
const (
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 10 * time.Second
	maxBodyBytes      = 1 << 20
)

// DefaultMaxRows is the row limit used when [WithMaxRows] is not given.
const DefaultMaxRows = 10_000

// Server serves the layout API.
type Server struct {
	layouts   *store.Layouts
	pub       broadcast.Publisher
	logger    *log.Logger
	gatherer  prometheus.Gatherer
	cellSpace int
	maxRows   int

	open   *openLayouts
	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithPublisher sends committed change-sets to pub.
func WithPublisher(pub broadcast.Publisher) Option {
	return func(s *Server) {
		if pub != nil {
			s.pub = pub
		}
	}
}

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics mounts /metrics serving g.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithCellSpace sets the empty-cell width of the text rendering.
func WithCellSpace(n int) Option {
	return func(s *Server) { s.cellSpace = n }
}

// WithMaxRows limits how far down requests may place items: an add or move
// whose bottom edge passes n rows, or a new layout taller than n, fails with
// INVALID_INPUT. Values below 1 keep the default.
func WithMaxRows(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// New creates a server on top of layouts.
// If layouts is nil, layouts live in memory only.
func New(layouts *store.Layouts, opts ...Option) *Server {
	s := &Server{
		layouts:   layouts,
		pub:       broadcast.NopPublisher{},
		logger:    log.Default(),
		cellSpace: 1,
		maxRows:   DefaultMaxRows,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.layouts == nil {
		s.layouts = store.NewLayouts(nil, nil, 0, s.logger)
	}
	s.open = newOpenLayouts()
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: ReadHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/layouts", func(r chi.Router) {
		r.Get("/", s.handleListLayouts)
		r.Route("/{name}", func(r chi.Router) {
			r.Post("/", s.handleCreateLayout)
			r.Get("/", s.handleGetLayout)
			r.Delete("/", s.handleDeleteLayout)
			r.Get("/nodes", s.handleNodes)
			r.Get("/check", s.handleCheck)
			r.Get("/text", s.handleText)
			r.Get("/svg", s.handleSVG)
			r.Post("/items", s.handleAddItem)
			r.Patch("/items/{id}", s.handleMoveItem)
			r.Delete("/items/{id}", s.handleRemoveItem)
		})
	})
	return r
}
