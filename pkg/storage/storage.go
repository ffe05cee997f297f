// Package storage persists graph documents.
//
// A [Document] is a named snapshot of a store's model. Two backends
// implement [Store]: a local SQLite file ([OpenSQLite]) and a MongoDB
// collection ([OpenMongo]). [Open] picks one from a [Config].
//
//	st, err := storage.OpenSQLite(filepath.Join(dir, "typegraph.db"))
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//	doc := storage.NewDocument("trade model", s.Document())
//	err = st.Save(ctx, doc)
package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/graph"
)

// Document is a saved model.
type Document struct {
	ID        string         `json:"id" bson:"_id"`
	Name      string         `json:"name" bson:"name"`
	Graph     graph.Document `json:"graph" bson:"graph"`
	CreatedAt time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time      `json:"updatedAt" bson:"updated_at"`
}

// NewDocument creates a document with a fresh id.
func NewDocument(name string, g graph.Document) *Document {
	return &Document{ID: uuid.NewString(), Name: name, Graph: g}
}

// Summary describes a document without its graph.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Nodes     int       `json:"nodes" bson:"node_count"`
	Edges     int       `json:"edges" bson:"edge_count"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

// Store persists documents.
type Store interface {
	// Save inserts or replaces d. An empty id is assigned, a zero
	// CreatedAt is set and UpdatedAt is set to now. The stored creation
	// time of an existing document is never overwritten.
	Save(ctx context.Context, d *Document) error

	// Get returns the document with id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Document, error)

	// List returns every document, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a document. Deleting a missing id is a NOT_FOUND error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Resolve finds a document by id, falling back to the most recently
// updated document with that name.
func Resolve(ctx context.Context, s Store, ref string) (*Document, error) {
	d, err := s.Get(ctx, ref)
	if err == nil || !errors.Is(err, errors.ErrCodeNotFound) {
		return d, err
	}
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sum := range list {
		if sum.Name == ref {
			return s.Get(ctx, sum.ID)
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "document %q not found", ref)
}

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// DefaultPath returns the SQLite database location under the user's config
// directory, falling back to the working directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "typegraph.db"
	}
	return filepath.Join(dir, "typegraph", "typegraph.db")
}

// Open opens the backend named by cfg. An empty backend means SQLite.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendSQLite:
		path := cfg.Path
		if path == "" {
			path = DefaultPath()
		}
		st, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case BackendMongo:
		st, err := OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unknown storage backend %q", cfg.Backend)
}

// prepare fills in the id and timestamps before a save.
func prepare(d *Document, now time.Time) error {
	if d == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil document")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	} else if _, err := uuid.Parse(d.ID); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid document id %q", d.ID)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	return nil
}

func storageErr(op string, err error) error {
	return errors.Wrap(errors.ErrCodeStorage, err, "%s", op)
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "document %q not found", id)
}
