// Package postgres persists scene snapshots to a PostgreSQL state table as
// JSONB buckets, one row per entity sequence.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"diagramcore/pkg/scene"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/diagramcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is a PostgreSQL-backed archive.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a connection using the provided DSN (falls back to
// defaultDSN), verifies it with a ping, and ensures the state table exists.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

var postgresBuckets = []string{"icons", "nodes", "connectors", "textBoxes", "rectangles"}

// Save upserts every entity sequence in one transaction.
func (s *Store) Save(ctx context.Context, sc scene.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range postgresBuckets {
		data, err := marshalBucket(sc, bucket)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Load reads every bucket row back into a scene. A table without rows
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

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
