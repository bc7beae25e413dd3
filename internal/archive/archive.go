// Package archive persists published scene snapshots so a session can be
// restored after a restart. An archive holds exactly one scene, the latest
// saved; history is out of scope.
package archive

import (
	"context"
	"fmt"
	"os"

	"diagramcore/internal/infra/archive/memory"
	"diagramcore/internal/infra/archive/postgres"
	"diagramcore/internal/infra/archive/sqlite"
	"diagramcore/pkg/scene"
)

// Driver identifies a concrete archive implementation.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-memory only (tests / ephemeral)
	DriverSQLite   Driver = "sqlite"   // embedded sqlite file
	DriverPostgres Driver = "postgres" // PostgreSQL server
)

// Archive stores the latest published scene. Load reports false when nothing
// has been saved yet.
type Archive interface {
	Save(ctx context.Context, sc scene.Scene) error
	Load(ctx context.Context) (scene.Scene, bool, error)
	Close() error
}

var (
	_ Archive = (*memory.Store)(nil)
	_ Archive = (*sqlite.Store)(nil)
	_ Archive = (*postgres.Store)(nil)
)

// Open selects a backend using environment variables. Defaults to sqlite
// when unset.
//
//	DIAGRAMCORE_ARCHIVE_DRIVER: memory|sqlite|postgres (default sqlite)
//	DIAGRAMCORE_SQLITE_PATH: path to sqlite file (default ./diagramcore.db)
//	DIAGRAMCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func Open() (Archive, error) {
	driver := os.Getenv("DIAGRAMCORE_ARCHIVE_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(os.Getenv("DIAGRAMCORE_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.NewStore(os.Getenv("DIAGRAMCORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown archive driver %s", driver)
	}
}
