package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/vesselflow/pkg/editor"
	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	pkgio "github.com/matzehuels/vesselflow/pkg/io"
	"github.com/matzehuels/vesselflow/pkg/pipeline"
	"github.com/matzehuels/vesselflow/pkg/render"
	"github.com/matzehuels/vesselflow/pkg/workflow"
	"github.com/matzehuels/vesselflow/pkg/workspace"
)

// State is the body returned for a workspace after every change.
type State struct {
	ID      string               `json:"id"`
	Name    string               `json:"name"`
	Graph   graph.Snapshot       `json:"graph"`
	CanUndo bool                 `json:"can_undo"`
	CanRedo bool                 `json:"can_redo"`
	Held    bool                 `json:"held"`
	Import  *editor.ImportResult `json:"import,omitempty"`
	Error   string               `json:"error,omitempty"`
}

func stateOf(e *entry) State {
	return State{
		ID:      e.ws.ID,
		Name:    e.ws.Name,
		Graph:   e.sess.Snapshot(),
		CanUndo: e.sess.History().CanUndo(),
		CanRedo: e.sess.History().CanRedo(),
		Held:    e.sess.Held(),
	}
}

// CreateRequest is the body of POST /api/workspaces.
type CreateRequest struct {
	Name  string         `json:"name"`
	Input workflow.Input `json:"input"`
}

// PipelineRequest is the body of POST /api/pipeline. Options left out fall
// back to the [layout] config.
type PipelineRequest struct {
	Input   workflow.Input   `json:"input"`
	Options pipeline.Options `json:"options"`
}

// PipelineResponse carries a headless run. Artifacts are base64 in JSON.
type PipelineResponse struct {
	Graph     graph.Snapshot     `json:"graph"`
	GraphHash string             `json:"graph_hash"`
	Dropped   int                `json:"dropped"`
	Artifacts map[string][]byte  `json:"artifacts,omitempty"`
	Stats     pipeline.Stats     `json:"stats"`
	Cache     pipeline.CacheInfo `json:"cache"`
}

// =============================================================================
// Workspaces
// =============================================================================

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []workspace.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreate imports into a fresh workspace. A failed layout still creates
// the workspace with the import held, answered with 202 so the client can
// retry or abort it.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Name == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "name is required"))
		return
	}

	ctx := r.Context()
	ws := workspace.New(req.Name, req.Input)
	sess, err := s.newSession(ws.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, importErr := sess.Import(ctx, req.Input)
	if importErr != nil && !sess.Held() {
		_ = sess.Close()
		s.writeError(w, r, importErr)
		return
	}

	e := &entry{ws: ws, sess: sess}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.saveLocked(ctx, e); err != nil {
		_ = sess.Close()
		s.writeError(w, r, err)
		return
	}
	s.mu.Lock()
	s.open[ws.ID] = e
	s.mu.Unlock()

	st := stateOf(e)
	status := http.StatusCreated
	if importErr != nil {
		status = http.StatusAccepted
		st.Error = errors.UserMessage(importErr)
	} else {
		st.Import = &res
	}
	s.logger.Info("workspace created", "id", ws.ID, "name", ws.Name,
		"nodes", len(st.Graph.Nodes), "held", st.Held)
	writeJSON(w, status, st)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	e, err := s.entry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	writeJSON(w, http.StatusOK, stateOf(e))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := workspace.ValidateID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.forget(id)
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Outputs
// =============================================================================

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	e, err := s.entry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	opts := pipeline.OptionsFromConfig(s.cfg)
	opts.Formats = []string{format}
	opts.Detailed, _ = strconv.ParseBool(r.URL.Query().Get("detailed"))
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}

	artifacts, err := s.runner.Render(r.Context(), e.sess.Snapshot(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format = opts.Formats[0]
	w.Header().Set("Content-Type", render.ContentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	e, err := s.entry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="vessels.csv"`)
	if err := pkgio.WriteVesselsCSV(w, pkgio.VesselsFromGraph(e.sess.Snapshot())); err != nil {
		s.logger.Error("export failed", "id", e.ws.ID, "err", err)
	}
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	req := PipelineRequest{Options: pipeline.OptionsFromConfig(s.cfg)}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), req.Input, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PipelineResponse{
		Graph:     res.Graph,
		GraphHash: res.GraphHash,
		Dropped:   res.Dropped,
		Artifacts: res.Artifacts,
		Stats:     res.Stats,
		Cache:     res.CacheInfo,
	})
}

// =============================================================================
// Mutations
// =============================================================================

// action changes a session. A nil body means "answer with the state".
type action func(ctx context.Context, r *http.Request, sess *editor.Session) (status int, body any, err error)

// mutate runs fn on the workspace session and saves the graph afterwards.
func (s *Server) mutate(fn action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		e, err := s.entry(ctx, chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()

		status, body, err := fn(ctx, r, e.sess)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.saveLocked(ctx, e); err != nil {
			s.writeError(w, r, err)
			return
		}
		if body == nil {
			body = stateOf(e)
		}
		writeJSON(w, status, body)
	}
}

func relayout(ctx context.Context, _ *http.Request, sess *editor.Session) (int, any, error) {
	return http.StatusOK, nil, sess.Relayout(ctx)
}

func undo(ctx context.Context, _ *http.Request, sess *editor.Session) (int, any, error) {
	return http.StatusOK, nil, sess.Undo(ctx)
}

func redo(ctx context.Context, _ *http.Request, sess *editor.Session) (int, any, error) {
	return http.StatusOK, nil, sess.Redo(ctx)
}

func retry(ctx context.Context, _ *http.Request, sess *editor.Session) (int, any, error) {
	_, err := sess.RetryLayout(ctx)
	return http.StatusOK, nil, err
}

func abort(ctx context.Context, _ *http.Request, sess *editor.Session) (int, any, error) {
	return http.StatusOK, nil, sess.AbortImport(ctx)
}

func moveNode(ctx context.Context, r *http.Request, sess *editor.Session) (int, any, error) {
	var pos graph.Position
	if err := decodeJSON(r, &pos); err != nil {
		return 0, nil, err
	}
	return http.StatusOK, nil, sess.MoveNode(ctx, chi.URLParam(r, "node"), pos)
}

func removeNode(ctx context.Context, r *http.Request, sess *editor.Session) (int, any, error) {
	return http.StatusOK, nil, sess.RemoveNode(ctx, chi.URLParam(r, "node"))
}

func connect(ctx context.Context, r *http.Request, sess *editor.Session) (int, any, error) {
	var req editor.ConnectRequest
	if err := decodeJSON(r, &req); err != nil {
		return 0, nil, err
	}
	e, err := sess.Connect(ctx, req)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, e, nil
}

func removeEdge(ctx context.Context, r *http.Request, sess *editor.Session) (int, any, error) {
	return http.StatusOK, nil, sess.RemoveEdge(ctx, chi.URLParam(r, "edge"))
}

func addModule(ctx context.Context, r *http.Request, sess *editor.Session) (int, any, error) {
	var req editor.AddModuleRequest
	if err := decodeJSON(r, &req); err != nil {
		return 0, nil, err
	}
	n, err := sess.AddModule(ctx, req)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, n, nil
}
