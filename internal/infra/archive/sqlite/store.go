// Package sqlite persists scene snapshots to a single SQLite table as JSON
// blobs, one row per entity sequence. Every save overwrites the previous
// snapshot wholesale.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"diagramcore/pkg/scene"
)

// Store is a file-backed archive.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database file and ensures the state table.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "diagramcore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

var sqliteBuckets = []string{"icons", "nodes", "connectors", "textBoxes", "rectangles"}

// Save upserts every entity sequence in one transaction.
func (s *Store) Save(ctx context.Context, sc scene.Scene) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range sqliteBuckets {
		data, err := marshalBucket(sc, bucket)
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads every bucket row back into a scene. A database without rows
// reports no snapshot.
func (s *Store) Load(ctx context.Context) (scene.Scene, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return scene.Scene{}, false, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sc scene.Scene
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return scene.Scene{}, false, fmt.Errorf("scan state: %w", err)
		}
		if len(payload) == 0 {
			continue
		}
		if err := unmarshalBucket(&sc, bucket, payload); err != nil {
			return scene.Scene{}, false, err
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return scene.Scene{}, false, fmt.Errorf("iterate state: %w", err)
	}
	return sc, found, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func marshalBucket(sc scene.Scene, bucket string) ([]byte, error) {
	switch bucket {
	case "icons":
		return json.Marshal(sc.Icons)
	case "nodes":
		return json.Marshal(sc.Nodes)
	case "connectors":
		return json.Marshal(sc.Connectors)
	case "textBoxes":
		return json.Marshal(sc.TextBoxes)
	case "rectangles":
		return json.Marshal(sc.Rectangles)
	}
	return nil, fmt.Errorf("unknown bucket %s", bucket)
}

func unmarshalBucket(sc *scene.Scene, bucket string, payload []byte) error {
	var err error
	switch bucket {
	case "icons":
		err = json.Unmarshal(payload, &sc.Icons)
	case "nodes":
		err = json.Unmarshal(payload, &sc.Nodes)
	case "connectors":
		err = json.Unmarshal(payload, &sc.Connectors)
	case "textBoxes":
		err = json.Unmarshal(payload, &sc.TextBoxes)
	case "rectangles":
		err = json.Unmarshal(payload, &sc.Rectangles)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}
