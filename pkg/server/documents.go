package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/typegraph/pkg/storage"
	"github.com/matzehuels/typegraph/pkg/store"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	list, err := s.opts.Storage.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []storage.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

type saveRequest struct {
	// ID overwrites an existing document when set.
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, badRequest(err, "decode document request"))
			return
		}
	}
	doc := &storage.Document{ID: req.ID, Name: req.Name, Graph: s.store.Document()}
	if req.ID != "" {
		if existing, err := s.opts.Storage.Get(r.Context(), req.ID); err == nil {
			doc.CreatedAt = existing.CreatedAt
			if doc.Name == "" {
				doc.Name = existing.Name
			}
		}
	}
	if err := s.opts.Storage.Save(r.Context(), doc); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, storage.Summary{
		ID:        doc.ID,
		Name:      doc.Name,
		Nodes:     len(doc.Graph.Nodes),
		Edges:     len(doc.Graph.Edges),
		UpdatedAt: doc.UpdatedAt,
	})
}

func (s *Server) handleOpenDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := storage.Resolve(r.Context(), s.opts.Storage, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.store.LoadDocument(doc.Graph)
	writeJSON(w, http.StatusOK, store.Snapshot{
		Nodes:   nonNil(s.store.Nodes()),
		Edges:   nonNilEdges(s.store.Edges()),
		Version: s.store.Version(),
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Storage.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
