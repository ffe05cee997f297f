// Package server exposes a graph store over an HTTP JSON API.
//
// The API is the surface a diagram or form UI talks to. Reads return the
// store's current state; writes go through [store.Command] values, so the
// HTTP layer holds no edit logic of its own.
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/graph              full graph, or ?visible=true for the shown subset
//	GET    /api/nodes/{id}
//	GET    /api/tree?q=
//	GET    /api/diagnostics
//	GET    /api/search?q=
//	GET    /api/state              visibility, selection, history flags
//	GET    /api/events             server-sent change notifications
//	POST   /api/commands           one command or an array
//	POST   /api/undo
//	POST   /api/redo
//	POST   /api/layout             recompute positions of the visible graph
//	POST   /api/load               replace the graph with AST models
//	GET    /api/export             synthetic AST models
//	GET    /api/dot                DOT source, or ?format=svg
//
// With a [storage.Store] configured, documents are available as well:
//
//	GET    /api/documents
//	POST   /api/documents          save the current graph
//	POST   /api/documents/{id}/open
//	DELETE /api/documents/{id}
//
// Errors are JSON objects {"code": ..., "message": ...} whose HTTP status
// follows the error code.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/typegraph/pkg/importer"
	"github.com/matzehuels/typegraph/pkg/observability"
	"github.com/matzehuels/typegraph/pkg/storage"
	"github.com/matzehuels/typegraph/pkg/store"
)

// Options configures a Server. All fields are optional.
type Options struct {
	Logger *log.Logger

	// Storage enables the document endpoints.
	Storage storage.Store

	// Gatherer backs /metrics. Nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer

	// Filters are applied to models posted to /api/load.
	Filters *importer.Filters

	// Hooks receives request metrics. Nil uses the registered HTTP hooks.
	Hooks observability.HTTPHooks
}

// Server serves the HTTP API for one store.
type Server struct {
	store  *store.Store
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New builds the router for s.
func New(s *store.Store, opts Options) *Server {
	srv := &Server{store: s, opts: opts, logger: opts.Logger}
	if srv.logger == nil {
		srv.logger = log.New(io.Discard)
	}
	srv.router = srv.routes()
	return srv
}

func (s *Server) hooks() observability.HTTPHooks {
	if s.opts.Hooks != nil {
		return s.opts.Hooks
	}
	return observability.HTTP()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)

	gatherer := s.opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGraph)
		r.Get("/nodes/{id}", s.handleNode)
		r.Get("/tree", s.handleTree)
		r.Get("/diagnostics", s.handleDiagnostics)
		r.Get("/search", s.handleSearch)
		r.Get("/state", s.handleState)
		r.Get("/events", s.handleEvents)

		r.Post("/commands", s.handleCommands)
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)
		r.Post("/layout", s.handleLayout)
		r.Post("/load", s.handleLoad)

		r.Get("/export", s.handleExport)
		r.Get("/dot", s.handleDOT)

		if s.opts.Storage != nil {
			r.Get("/documents", s.handleListDocuments)
			r.Post("/documents", s.handleSaveDocument)
			r.Post("/documents/{id}/open", s.handleOpenDocument)
			r.Delete("/documents/{id}", s.handleDeleteDocument)
		}
	})
	return r
}

// instrument reports each request to the HTTP hooks under its route
// pattern and logs it at debug level.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.hooks().OnRequest(r.Method, route, status, elapsed)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "elapsed", elapsed)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- hs.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
