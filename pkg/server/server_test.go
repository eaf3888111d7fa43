package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vesselflow/pkg/buildinfo"
	"github.com/matzehuels/vesselflow/pkg/config"
	"github.com/matzehuels/vesselflow/pkg/editor"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/workflow"
	"github.com/matzehuels/vesselflow/pkg/workspace"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Layout.Engine = config.EngineLayered
	return cfg
}

func newTestServer(t *testing.T, store workspace.Store) http.Handler {
	t.Helper()
	srv, err := New(Options{
		Config: testConfig(),
		Store:  store,
		Logger: log.New(io.Discard),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv.Handler()
}

func newStore(t *testing.T) *workspace.FileStore {
	t.Helper()
	store, err := workspace.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func plant() workflow.Input {
	return workflow.Input{
		Catalog: workflow.Catalog{{
			Filename: "plant.mo",
			Modules: []workflow.Module{
				{ComponentName: "Tank", SourceFile: "plant.mo"},
				{ComponentName: "Pump", SourceFile: "plant.mo"},
			},
		}},
		Config: workflow.Config{
			{VesselType: "tank", ModuleFile: "plant.mo", ModuleType: "Tank"},
			{VesselType: "pump", ModuleFile: "plant.mo", ModuleType: "Pump"},
		},
		Vessels: []workflow.Vessel{
			{Name: "A", VesselType: "tank", Outputs: "B C"},
			{Name: "B", VesselType: "pump", Inputs: "A A2"},
		},
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func create(t *testing.T, h http.Handler) State {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/workspaces", CreateRequest{Name: "plant", Input: plant()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	return decode[State](t, rec)
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error without a store")
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, newStore(t))
	rec := do(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestVersion(t *testing.T) {
	h := newTestServer(t, newStore(t))
	info := decode[buildinfo.Info](t, do(t, h, http.MethodGet, "/version", nil))
	if info.Version != buildinfo.Version || info.Go == "" {
		t.Errorf("version = %+v", info)
	}
}

func TestCreateAndReopen(t *testing.T) {
	store := newStore(t)
	h := newTestServer(t, store)

	st := create(t, h)
	if len(st.Graph.Nodes) != 2 || len(st.Graph.Edges) != 1 {
		t.Errorf("graph nodes=%d edges=%d", len(st.Graph.Nodes), len(st.Graph.Edges))
	}
	if st.Import == nil || st.Import.Nodes != 2 || !st.CanUndo || st.Held {
		t.Errorf("state = %+v", st)
	}

	list := decode[[]workspace.Summary](t, do(t, h, http.MethodGet, "/api/workspaces", nil))
	if len(list) != 1 || list[0].ID != st.ID {
		t.Errorf("list = %+v", list)
	}

	// a second server over the same store opens the saved graph fresh
	h2 := newTestServer(t, store)
	rec := do(t, h2, http.MethodGet, "/api/workspaces/"+st.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[State](t, rec)
	if len(got.Graph.Nodes) != 2 || got.CanUndo {
		t.Errorf("reopened nodes=%d can_undo=%v", len(got.Graph.Nodes), got.CanUndo)
	}
}

func TestCreate_Errors(t *testing.T) {
	h := newTestServer(t, newStore(t))

	bad := plant()
	bad.Vessels[0].VesselType = "compressor"
	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"unmapped vessel", CreateRequest{Name: "x", Input: bad}, http.StatusBadRequest, "MODULE_NOT_FOUND"},
		{"missing name", CreateRequest{Input: plant()}, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", map[string]any{"name": "x", "extra": 1}, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/workspaces", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if body := decode[ErrorBody](t, rec); body.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}

	list := decode[[]workspace.Summary](t, do(t, h, http.MethodGet, "/api/workspaces", nil))
	if len(list) != 0 {
		t.Errorf("failed imports created workspaces: %+v", list)
	}
}

func TestGet_Errors(t *testing.T) {
	h := newTestServer(t, newStore(t))
	tests := []struct {
		path   string
		status int
	}{
		{"/api/workspaces/not-a-uuid", http.StatusBadRequest},
		{"/api/workspaces/6f1c2a9e-8f3b-4c52-9d7e-2b1a0c3d4e5f", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := do(t, h, http.MethodGet, tt.path, nil); rec.Code != tt.status {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.status)
		}
	}
}

func TestMutations(t *testing.T) {
	store := newStore(t)
	h := newTestServer(t, store)
	st := create(t, h)
	base := "/api/workspaces/" + st.ID
	orig := st.Graph.Node("A").Position

	// move then undo
	rec := do(t, h, http.MethodPost, base+"/nodes/A/move", graph.Position{X: 900, Y: 900})
	if rec.Code != http.StatusOK {
		t.Fatalf("move = %d: %s", rec.Code, rec.Body.String())
	}
	moved := decode[State](t, rec)
	if got := moved.Graph.Node("A").Position; got != (graph.Position{X: 900, Y: 900}) {
		t.Errorf("moved to %+v", got)
	}
	rec = do(t, h, http.MethodPost, base+"/undo", nil)
	if got := decode[State](t, rec); got.Graph.Node("A").Position != orig || !got.CanRedo {
		t.Errorf("after undo A at %+v can_redo=%v", got.Graph.Node("A").Position, got.CanRedo)
	}

	// the saved workspace follows the session
	ws, err := store.Get(t.Context(), st.ID)
	if err != nil {
		t.Fatal(err)
	}
	if ws.Graph.Node("A").Position != orig {
		t.Errorf("saved A at %+v", ws.Graph.Node("A").Position)
	}

	rec = do(t, h, http.MethodPost, base+"/nodes/ghost/move", graph.Position{})
	if rec.Code != http.StatusNotFound {
		t.Errorf("move ghost = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, base+"/edges", editor.ConnectRequest{Source: "A", Target: "B"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("connect = %d: %s", rec.Code, rec.Body.String())
	}
	e := decode[graph.Edge](t, rec)
	if e.Source != "A" || e.Target != "B" {
		t.Errorf("edge = %+v", e)
	}

	// both ports on each side are bound now
	rec = do(t, h, http.MethodPost, base+"/edges", editor.ConnectRequest{Source: "A", Target: "B"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("connect without free ports = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodDelete, base+"/edges/"+e.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("remove edge = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodDelete, base+"/edges/"+e.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("remove edge twice = %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, base+"/nodes/B", nil)
	if got := decode[State](t, rec); len(got.Graph.Nodes) != 1 || len(got.Graph.Edges) != 0 {
		t.Errorf("after remove nodes=%d edges=%d", len(got.Graph.Nodes), len(got.Graph.Edges))
	}

	rec = do(t, h, http.MethodPost, base+"/modules", editor.AddModuleRequest{
		Name:       "A",
		Module:     workflow.Module{ComponentName: "Tank", SourceFile: "plant.mo"},
		ModuleFile: "plant.mo",
		Inputs:     "B",
		At:         graph.Position{X: 300, Y: 300},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add module = %d: %s", rec.Code, rec.Body.String())
	}
	if n := decode[graph.Node](t, rec); n.ID != "A_1" {
		t.Errorf("added %s, want A_1", n.ID)
	}

	if rec := do(t, h, http.MethodPost, base+"/layout", nil); rec.Code != http.StatusOK {
		t.Errorf("layout = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodPost, base+"/retry", nil); rec.Code != http.StatusConflict {
		t.Errorf("retry without held import = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, base+"/abort", nil); rec.Code != http.StatusConflict {
		t.Errorf("abort without held import = %d", rec.Code)
	}
}

func TestRenderAndExport(t *testing.T) {
	h := newTestServer(t, newStore(t))
	st := create(t, h)
	base := "/api/workspaces/" + st.ID

	rec := do(t, h, http.MethodGet, base+"/render?format=dot", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "digraph") {
		t.Errorf("dot = %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, base+"/render?format=json", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("json = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}

	if rec := do(t, h, http.MethodGet, base+"/render?format=pdf", nil); rec.Code != http.StatusNotImplemented {
		t.Errorf("pdf = %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, base+"/export", nil)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if rec.Code != http.StatusOK || len(lines) != 3 || !strings.HasPrefix(lines[0], "name,BC_type") {
		t.Errorf("export = %d %q", rec.Code, rec.Body.String())
	}
}

func TestDelete(t *testing.T) {
	h := newTestServer(t, newStore(t))
	st := create(t, h)
	path := "/api/workspaces/" + st.ID

	if rec := do(t, h, http.MethodDelete, path, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, path, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rec.Code)
	}
}

func TestPipeline(t *testing.T) {
	h := newTestServer(t, newStore(t))
	rec := do(t, h, http.MethodPost, "/api/pipeline", PipelineRequest{
		Input: plant(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("pipeline = %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[PipelineResponse](t, rec)
	if len(res.Graph.Nodes) != 2 || res.GraphHash == "" {
		t.Errorf("result nodes=%d hash=%q", len(res.Graph.Nodes), res.GraphHash)
	}
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, newStore(t))
	req := httptest.NewRequest(http.MethodOptions, "/api/workspaces", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing Access-Control-Allow-Origin on preflight")
	}
}
