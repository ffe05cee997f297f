package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/typegraph/pkg/ast"
	"github.com/matzehuels/typegraph/pkg/buildinfo"
	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/exporter"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/layout"
	"github.com/matzehuels/typegraph/pkg/render/dot"
	"github.com/matzehuels/typegraph/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
		"nodes":  len(s.store.Nodes()),
	})
}

type graphResponse struct {
	Nodes   []*graph.Node `json:"nodes"`
	Edges   []graph.Edge  `json:"edges"`
	Version uint64        `json:"version"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if visible, _ := strconv.ParseBool(r.URL.Query().Get("visible")); visible {
		writeJSON(w, http.StatusOK, graphResponse{
			Nodes:   nonNil(s.store.VisibleNodes()),
			Edges:   nonNilEdges(s.store.VisibleEdges()),
			Version: s.store.Version(),
		})
		return
	}
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, graphResponse{
		Nodes:   nonNil(snap.Nodes),
		Edges:   nonNilEdges(snap.Edges),
		Version: snap.Version,
	})
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, badRequest(err, "node id"))
		return
	}
	n, ok := s.store.Node(id)
	if !ok {
		s.writeError(w, errors.NotFound(id))
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.NamespaceTree(r.URL.Query().Get("q")))
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	diags := s.store.Diagnostics()
	if diags == nil {
		diags = []graph.ValidationError{}
	}
	writeJSON(w, http.StatusOK, diags)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNil(store.Search(s.store.Nodes(), r.URL.Query().Get("q"))))
}

type stateResponse struct {
	Version            uint64         `json:"version"`
	ExpandedNamespaces []string       `json:"expandedNamespaces"`
	HiddenNodeIDs      []string       `json:"hiddenNodeIds"`
	ExplorerOpen       bool           `json:"explorerOpen"`
	SelectedNodeID     string         `json:"selectedNodeId,omitempty"`
	SearchQuery        string         `json:"searchQuery,omitempty"`
	CanUndo            bool           `json:"canUndo"`
	CanRedo            bool           `json:"canRedo"`
	UndoLabels         []string       `json:"undoLabels"`
	Layout             layout.Options `json:"layout"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	v := s.store.Visibility()
	labels := s.store.UndoLabels()
	if labels == nil {
		labels = []string{}
	}
	writeJSON(w, http.StatusOK, stateResponse{
		Version:            s.store.Version(),
		ExpandedNamespaces: sortedKeys(v.ExpandedNamespaces),
		HiddenNodeIDs:      sortedKeys(v.HiddenNodeIDs),
		ExplorerOpen:       v.ExplorerOpen,
		SelectedNodeID:     s.store.SelectedNodeID(),
		SearchQuery:        s.store.SearchQuery(),
		CanUndo:            s.store.CanUndo(),
		CanRedo:            s.store.CanRedo(),
		UndoLabels:         labels,
		Layout:             s.store.LayoutOptions(),
	})
}

type commandResponse struct {
	Applied int    `json:"applied"`
	Version uint64 `json:"version"`
	// CreatedIDs lists ids of types created by createType commands, in
	// command order.
	CreatedIDs []string `json:"createdIds,omitempty"`
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	cmds, err := store.ReadCommands(r.Body)
	if err != nil {
		s.writeError(w, badRequest(err, "decode commands"))
		return
	}
	if len(cmds) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "no commands"))
		return
	}
	var created []string
	for i, cmd := range cmds {
		if err := s.store.Apply(cmd); err != nil {
			s.writeError(w, errors.Wrap(errors.GetCode(err), err, "command %d (%s): %s", i, cmd.Op, errors.UserMessage(err)))
			return
		}
		if cmd.Op == store.OpCreateType {
			created = append(created, graph.NodeID(cmd.Namespace, cmd.Name))
		}
	}
	writeJSON(w, http.StatusOK, commandResponse{Applied: len(cmds), Version: s.store.Version(), CreatedIDs: created})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Undo(); err != nil {
		s.writeError(w, err)
		return
	}
	s.handleState(w, r)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Redo(); err != nil {
		s.writeError(w, err)
		return
	}
	s.handleState(w, r)
}

// handleLayout optionally takes layout options as the body, then lays out
// the visible graph and returns the new positions.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength != 0 {
		opts := s.store.LayoutOptions()
		switch err := json.NewDecoder(r.Body).Decode(&opts); err {
		case nil:
			if err := s.store.SetLayoutOptions(opts); err != nil {
				s.writeError(w, err)
				return
			}
		case io.EOF:
			// Empty body of unknown length: keep the current options.
		default:
			s.writeError(w, badRequest(err, "decode layout options"))
			return
		}
	}
	if err := s.store.Relayout(r.Context()); err != nil {
		if r.Context().Err() != nil {
			return
		}
		s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "layout failed"))
		return
	}
	nodes := s.store.VisibleNodes()
	pos := make(map[string]graph.Position, len(nodes))
	for _, n := range nodes {
		pos[n.ID] = n.Position
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": pos, "version": s.store.Version()})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	models, err := ast.ReadModels(r.Body)
	if err != nil {
		s.writeError(w, badRequest(err, "decode models"))
		return
	}
	res := s.store.LoadModels(models, s.opts.Filters)
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes":   len(res.Nodes),
		"edges":   len(res.Edges),
		"version": s.store.Version(),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	models := exporter.ToModels(s.store.Nodes(), s.store.Edges())
	w.Header().Set("Content-Type", "application/json")
	if err := exporter.Write(w, models); err != nil {
		s.logger.Warn("export write failed", "err", err)
	}
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := dot.Options{Direction: s.store.LayoutOptions().Direction}
	opts.Members, _ = strconv.ParseBool(q.Get("members"))
	opts.Flat, _ = strconv.ParseBool(q.Get("flat"))

	nodes, edges := s.store.VisibleNodes(), s.store.VisibleEdges()
	if all, _ := strconv.ParseBool(q.Get("all")); all {
		nodes, edges = s.store.Nodes(), s.store.Edges()
	}
	src := dot.ToDOT(nodes, edges, opts)

	switch q.Get("format") {
	case "", "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(src))
	case "svg":
		svg, err := dot.RenderSVG(r.Context(), src)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render svg"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		s.writeError(w, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", q.Get("format")))
	}
}

// handleEvents streams a server-sent event for every state change until
// the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := make(chan store.Event, 16)
	cancel := s.store.Subscribe(func(ev store.Event) {
		select {
		case events <- ev:
		default:
			// Slow client; it will catch up from the next event's version.
		}
	})
	defer cancel()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := w.Write([]byte(": keep-alive\n\n")); err != nil {
				return
			}
		case ev := <-events:
			data, _ := json.Marshal(map[string]any{
				"command": ev.Command,
				"version": ev.Snapshot.Version,
				"nodes":   len(ev.Snapshot.Nodes),
				"edges":   len(ev.Snapshot.Edges),
			})
			if _, err := w.Write([]byte("event: change\ndata: " + string(data) + "\n\n")); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
