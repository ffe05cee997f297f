package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/typegraph/pkg/ast"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/observability"
	"github.com/matzehuels/typegraph/pkg/storage"
	"github.com/matzehuels/typegraph/pkg/store"
)

type request struct {
	method string
	path   string
	body   string
}

type recordingHooks struct {
	mu     sync.Mutex
	routes []string
}

func (h *recordingHooks) OnRequest(method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
}

func newTestServer(t *testing.T, opts Options) (*Server, *store.Store) {
	t.Helper()
	models, err := ast.ReadModelsFile("../importer/testdata/trade.json")
	require.NoError(t, err)
	s := store.New()
	s.LoadModels(models, nil)
	if opts.Hooks == nil {
		opts.Hooks = observability.NoopHTTPHooks{}
	}
	return New(s, opts), s
}

func do(t *testing.T, h http.Handler, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.body != "" {
		body = strings.NewReader(req.body)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	w := do(t, srv, request{http.MethodGet, "/healthz", ""})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(10), body["nodes"])
}

func TestGraph(t *testing.T) {
	srv, s := newTestServer(t, Options{})

	w := do(t, srv, request{http.MethodGet, "/api/graph", ""})
	require.Equal(t, http.StatusOK, w.Code)
	g := decode[graphResponse](t, w)
	assert.Len(t, g.Nodes, 10)
	assert.Len(t, g.Edges, 8)
	assert.Equal(t, s.Version(), g.Version)

	require.NoError(t, s.ToggleNamespace("cdm.product"))
	w = do(t, srv, request{http.MethodGet, "/api/graph?visible=true", ""})
	g = decode[graphResponse](t, w)
	for _, n := range g.Nodes {
		assert.Equal(t, "cdm.base", n.Namespace)
	}
}

func TestNode(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	w := do(t, srv, request{http.MethodGet, "/api/nodes/cdm.base::Party", ""})
	require.Equal(t, http.StatusOK, w.Code)
	n := decode[graph.Node](t, w)
	assert.Equal(t, "Party", n.Name)
	assert.Equal(t, "Identified", n.ParentName)

	w = do(t, srv, request{http.MethodGet, "/api/nodes/cdm.base::Nope", ""})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorBody](t, w).Code)
}

func TestCommands(t *testing.T) {
	srv, s := newTestServer(t, Options{})

	w := do(t, srv, request{http.MethodPost, "/api/commands",
		`{"op": "renameType", "id": "cdm.base::Party", "name": "Counterparty"}`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[commandResponse](t, w).Applied)
	_, ok := s.Node("cdm.base::Counterparty")
	assert.True(t, ok)

	w = do(t, srv, request{http.MethodPost, "/api/commands", `[
		{"op": "createType", "kind": "data", "name": "Trade", "namespace": "cdm.event"},
		{"op": "addAttribute", "id": "cdm.event::Trade", "member": {"name": "party", "typeName": "Counterparty"}}
	]`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[commandResponse](t, w)
	assert.Equal(t, 2, resp.Applied)
	assert.Equal(t, []string{"cdm.event::Trade"}, resp.CreatedIDs)
	assert.Equal(t, s.Version(), resp.Version)
}

func TestCommands_Errors(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"malformed", `{"op":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"empty", ``, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown op", `{"op": "explode"}`, http.StatusBadRequest, "UNSUPPORTED"},
		{"missing node", `{"op": "deleteType", "id": "x::Y"}`, http.StatusNotFound, "NOT_FOUND"},
		{"duplicate", `{"op": "createType", "kind": "data", "name": "Party", "namespace": "cdm.base"}`, http.StatusConflict, "DUPLICATE"},
		{"bad kind", `{"op": "createType", "kind": "class", "name": "X", "namespace": "ns"}`, http.StatusBadRequest, "INVALID_KIND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, request{http.MethodPost, "/api/commands", tt.body})
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, string(decode[errorBody](t, w).Code))
		})
	}
}

func TestCommands_StopAtFirstError(t *testing.T) {
	srv, s := newTestServer(t, Options{})
	w := do(t, srv, request{http.MethodPost, "/api/commands", `[
		{"op": "updateDefinition", "id": "cdm.base::Party", "text": "A party."},
		{"op": "deleteType", "id": "x::Y"},
		{"op": "updateDefinition", "id": "cdm.base::Account", "text": "never"}
	]`})
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Message, "command 1 (deleteType)")

	party, _ := s.Node("cdm.base::Party")
	assert.Equal(t, "A party.", party.Definition)
	account, _ := s.Node("cdm.base::Account")
	assert.Empty(t, account.Definition)
}

func TestUndoRedo(t *testing.T) {
	srv, s := newTestServer(t, Options{})

	w := do(t, srv, request{http.MethodPost, "/api/undo", ""})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NOTHING_TO_UNDO", string(decode[errorBody](t, w).Code))

	require.NoError(t, s.DeleteType("cdm.base::Account"))

	w = do(t, srv, request{http.MethodPost, "/api/undo", ""})
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[stateResponse](t, w)
	assert.False(t, state.CanUndo)
	assert.True(t, state.CanRedo)
	_, ok := s.Node("cdm.base::Account")
	assert.True(t, ok)

	w = do(t, srv, request{http.MethodPost, "/api/redo", ""})
	require.Equal(t, http.StatusOK, w.Code)
	_, ok = s.Node("cdm.base::Account")
	assert.False(t, ok)
}

func TestReadEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	w := do(t, srv, request{http.MethodGet, "/api/search?q=role", ""})
	require.Equal(t, http.StatusOK, w.Code)
	var names []string
	for _, n := range decode[[]graph.Node](t, w) {
		names = append(names, n.Name)
	}
	assert.ElementsMatch(t, []string{"BaseRoleEnum", "PartyRoleEnum"}, names)

	w = do(t, srv, request{http.MethodGet, "/api/search", ""})
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, srv, request{http.MethodGet, "/api/tree?q=cash", ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cdm.product")
	assert.NotContains(t, w.Body.String(), "cdm.base")

	w = do(t, srv, request{http.MethodGet, "/api/diagnostics", ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(w.Body.String()), "["))

	w = do(t, srv, request{http.MethodGet, "/api/state", ""})
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[stateResponse](t, w)
	assert.Equal(t, []string{"cdm.base", "cdm.product"}, state.ExpandedNamespaces)
	assert.Empty(t, state.HiddenNodeIDs)
}

func TestExportAndDOT(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	w := do(t, srv, request{http.MethodGet, "/api/export", ""})
	require.Equal(t, http.StatusOK, w.Code)
	models, err := ast.ReadModels(w.Body)
	require.NoError(t, err)
	assert.Len(t, models, 2)

	w = do(t, srv, request{http.MethodGet, "/api/dot?members=true", ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/vnd.graphviz", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "digraph G {")
	assert.Contains(t, w.Body.String(), `"cdm.base::Party"`)

	w = do(t, srv, request{http.MethodGet, "/api/dot?format=png", ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLayout(t *testing.T) {
	srv, s := newTestServer(t, Options{})

	w := do(t, srv, request{http.MethodPost, "/api/layout", `{"direction": "LR"}`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Positions map[string]graph.Position `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Positions, 10)
	assert.Equal(t, "LR", string(s.LayoutOptions().Direction))

	w = do(t, srv, request{http.MethodPost, "/api/layout", `{"direction":`})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLayout_EmptyChunkedBody(t *testing.T) {
	srv, s := newTestServer(t, Options{})
	before := s.LayoutOptions()

	r := httptest.NewRequest(http.MethodPost, "/api/layout", strings.NewReader(""))
	r.ContentLength = -1
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, before, s.LayoutOptions())
}

func TestLoad(t *testing.T) {
	srv, s := newTestServer(t, Options{})
	w := do(t, srv, request{http.MethodPost, "/api/load", `[
		{"$type": "Model", "name": "ns", "elements": [
			{"$type": "Data", "name": "A", "attributes": [
				{"$type": "Attribute", "name": "b", "typeCall": {"type": {"$refText": "B"}}}
			]},
			{"$type": "Data", "name": "B"}
		]}
	]`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, float64(2), body["nodes"])
	assert.Equal(t, float64(1), body["edges"])
	assert.Len(t, s.Nodes(), 2)

	w = do(t, srv, request{http.MethodPost, "/api/load", `not json`})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInstrument(t *testing.T) {
	hooks := &recordingHooks{}
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	srv, _ := newTestServer(t, Options{Hooks: hooks, Gatherer: reg})

	do(t, srv, request{http.MethodGet, "/api/nodes/cdm.base::Party", ""})
	do(t, srv, request{http.MethodGet, "/missing", ""})
	assert.Equal(t, []string{"GET /api/nodes/{id}", "GET /missing"}, hooks.routes)

	metrics.OnRequest(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)
	w := do(t, srv, request{http.MethodGet, "/metrics", ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "typegraph_http_requests_total")
}

func TestDocuments(t *testing.T) {
	st, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	srv, s := newTestServer(t, Options{Storage: st})

	w := do(t, srv, request{http.MethodGet, "/api/documents", ""})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, srv, request{http.MethodPost, "/api/documents", `{"name": "trade"}`})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	saved := decode[storage.Summary](t, w)
	assert.Equal(t, 10, saved.Nodes)

	require.NoError(t, s.DeleteType("cdm.base::Account"))

	w = do(t, srv, request{http.MethodPost, "/api/documents/trade/open", ""})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, s.Nodes(), 10, "opened by name")

	w = do(t, srv, request{http.MethodGet, "/api/documents", ""})
	list := decode[[]storage.Summary](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)

	w = do(t, srv, request{http.MethodDelete, "/api/documents/" + saved.ID, ""})
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, srv, request{http.MethodDelete, "/api/documents/" + saved.ID, ""})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocuments_DisabledWithoutStorage(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	w := do(t, srv, request{http.MethodGet, "/api/documents", ""})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvents(t *testing.T) {
	srv, s := newTestServer(t, Options{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.NoError(t, s.UpdateDefinition("cdm.base::Party", "changed"))

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" && len(lines) > 0 {
			break
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "event: change", lines[0])
	assert.Contains(t, lines[1], `"command":"updateDefinition"`)
}

func TestServe_Shutdown(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
