// Package server exposes workspaces and their editor sessions as a JSON
// HTTP API.
//
// Every open workspace gets one [editor.Session] over a memory canvas that
// sizes nodes from the [layout] config. Mutations go through the session,
// so they get the same history, layout and port rules as the desktop
// editor, and the resulting graph is saved after each one.
//
// Routes:
//
//	GET    /healthz
//	GET    /version
//	POST   /api/pipeline                        headless import and render
//	GET    /api/workspaces                      list
//	POST   /api/workspaces                      import into a new workspace
//	GET    /api/workspaces/{id}                 current state
//	DELETE /api/workspaces/{id}
//	POST   /api/workspaces/{id}/layout          relayout
//	POST   /api/workspaces/{id}/undo
//	POST   /api/workspaces/{id}/redo
//	POST   /api/workspaces/{id}/retry           retry a held import
//	POST   /api/workspaces/{id}/abort           drop a held import
//	POST   /api/workspaces/{id}/nodes/{node}/move
//	DELETE /api/workspaces/{id}/nodes/{node}
//	POST   /api/workspaces/{id}/edges
//	DELETE /api/workspaces/{id}/edges/{edge}
//	POST   /api/workspaces/{id}/modules
//	GET    /api/workspaces/{id}/render?format=svg&detailed=true
//	GET    /api/workspaces/{id}/export          vessel table as CSV
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/matzehuels/vesselflow/pkg/buildinfo"
	"github.com/matzehuels/vesselflow/pkg/config"
	"github.com/matzehuels/vesselflow/pkg/editor"
	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/history"
	"github.com/matzehuels/vesselflow/pkg/observability"
	"github.com/matzehuels/vesselflow/pkg/pipeline"
	"github.com/matzehuels/vesselflow/pkg/workspace"
)

// Options configures a Server. Store is required.
type Options struct {
	Config config.Config
	Store  workspace.Store
	Runner *pipeline.Runner
	Logger *log.Logger
}

// Server serves the HTTP API. Create it with New.
type Server struct {
	cfg    config.Config
	store  workspace.Store
	runner *pipeline.Runner
	logger *log.Logger

	mu   sync.Mutex
	open map[string]*entry
}

// entry is one open workspace. Its lock serializes a mutation with the save
// that follows it.
type entry struct {
	mu   sync.Mutex
	ws   *workspace.Workspace
	sess *editor.Session
}

// New returns a server. A nil runner gets an uncached one.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "server: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	return &Server{
		cfg:    opts.Config,
		store:  opts.Store,
		runner: opts.Runner,
		logger: opts.Logger,
		open:   make(map[string]*entry),
	}, nil
}

// Handler returns the router with CORS and request hooks applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, buildinfo.Get())
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/pipeline", s.handlePipeline)

		r.Route("/workspaces", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleCreate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Delete("/", s.handleDelete)
				r.Get("/render", s.handleRender)
				r.Get("/export", s.handleExport)

				r.Post("/layout", s.mutate(relayout))
				r.Post("/undo", s.mutate(undo))
				r.Post("/redo", s.mutate(redo))
				r.Post("/retry", s.mutate(retry))
				r.Post("/abort", s.mutate(abort))
				r.Post("/nodes/{node}/move", s.mutate(moveNode))
				r.Delete("/nodes/{node}", s.mutate(removeNode))
				r.Post("/edges", s.mutate(connect))
				r.Delete("/edges/{edge}", s.mutate(removeEdge))
				r.Post("/modules", s.mutate(addModule))
			})
		})
	})

	return newCORS(s.cfg.Server.AllowedOrigins).Handler(r)
}

// Close closes every open session. The store is left to the caller.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.open {
		_ = e.sess.Close()
		delete(s.open, id)
	}
	return nil
}

func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
		MaxAge:         int((10 * time.Minute).Seconds()),
	})
}

// observe reports every request to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", status, "duration", time.Since(start))
	})
}

// =============================================================================
// Sessions
// =============================================================================

// entry returns the open workspace, loading it from the store on first use.
func (s *Server) entry(ctx context.Context, id string) (*entry, error) {
	if err := workspace.ValidateID(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.open[id]; ok {
		return e, nil
	}

	ws, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess, err := s.newSession(ws.ID)
	if err != nil {
		return nil, err
	}
	if err := sess.Open(ctx, ws.Graph); err != nil {
		_ = sess.Close()
		return nil, err
	}
	e := &entry{ws: ws, sess: sess}
	s.open[id] = e
	s.logger.Debug("workspace opened", "id", id, "nodes", len(ws.Graph.Nodes))
	return e, nil
}

func (s *Server) newSession(id string) (*editor.Session, error) {
	logger := s.logger.With("workspace", id)
	opts := pipeline.OptionsFromConfig(s.cfg)
	opts.Logger = logger
	return editor.New(editor.Options{
		Canvas: editor.NewMemoryCanvas(graph.Dimensions{
			Width:  s.cfg.Layout.DefaultWidth,
			Height: s.cfg.Layout.DefaultHeight,
		}),
		Notifier: editor.NotifierFunc(func(_ context.Context, err error) {
			logger.Warn("editor", "err", err)
		}),
		Layout: opts.LayoutEngine(),
		History: history.New(
			history.WithDebounce(s.cfg.History.Debounce.Duration),
			history.WithLimit(s.cfg.History.Limit),
			history.WithLogger(logger),
		),
		Logger: logger,
	})
}

// saveLocked writes the session graph back to the store. e.mu must be held.
func (s *Server) saveLocked(ctx context.Context, e *entry) error {
	e.ws.Graph = e.sess.Snapshot()
	if err := s.store.Save(ctx, e.ws); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save workspace %s", e.ws.ID)
	}
	return nil
}

func (s *Server) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.open[id]; ok {
		_ = e.sess.Close()
		delete(s.open, id)
	}
}
