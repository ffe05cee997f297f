package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/typegraph/pkg/graph"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5

	// timeLayout is fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLiteStore keeps documents in a local SQLite database.
type SQLiteStore struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
	now  func() time.Time
}

// OpenSQLite opens or creates the database at path and applies pending
// migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("storage path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("storage path %q is a directory, expected file", cleanPath)
	}
	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", cleanPath, err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &SQLiteStore{path: cleanPath, db: db, now: time.Now}, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, d *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := prepare(d, s.now().UTC()); err != nil {
		return err
	}
	data, err := json.Marshal(d.Graph)
	if err != nil {
		return storageErr("encode graph", err)
	}

	const query = `
INSERT INTO documents (id, name, graph, node_count, edge_count, created_at_utc, updated_at_utc)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  graph=excluded.graph,
  node_count=excluded.node_count,
  edge_count=excluded.edge_count,
  updated_at_utc=excluded.updated_at_utc
`
	return s.withRetry("save document", func() error {
		_, err := s.db.ExecContext(ctx, query,
			d.ID,
			d.Name,
			string(data),
			len(d.Graph.Nodes),
			len(d.Graph.Edges),
			formatTime(d.CreatedAt),
			formatTime(d.UpdatedAt),
		)
		return err
	})
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		d                Document
		data             string
		created, updated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, graph, created_at_utc, updated_at_utc FROM documents WHERE id = ?`, id,
	).Scan(&d.ID, &d.Name, &data, &created, &updated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storageErr("get document", err)
	}

	g, err := graph.ReadDocument(strings.NewReader(data))
	if err != nil {
		return nil, storageErr("decode graph of "+id, err)
	}
	d.Graph = g
	if d.CreatedAt, err = parseTime(created); err != nil {
		return nil, storageErr("parse created_at", err)
	}
	if d.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, storageErr("parse updated_at", err)
	}
	return &d, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, node_count, edge_count, updated_at_utc
FROM documents
ORDER BY updated_at_utc DESC, id ASC
`)
	if err != nil {
		return nil, storageErr("list documents", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Nodes, &sum.Edges, &updated); err != nil {
			return nil, storageErr("scan document", err)
		}
		if sum.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, storageErr("parse updated_at", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list documents", err)
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	err := s.withRetry("delete document", func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

// withRetry retries fn while the database reports lock contention.
func (s *SQLiteStore) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return storageErr(op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
