// Package sqlite implements the SQLite storage backend for svakisto.
//
// The backend owns a single database file in the data directory. The schema
// is versioned with golang-migrate; every historical layout of the store has
// its own migration so older databases upgrade in place on Attach.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// DatabaseFile is the name of the database inside DataDir.
const DatabaseFile = "svakisto.db"

// dsnPragmas are applied to every connection opened by the driver.
const dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Compile-time interface check: Backend must implement Store.
var _ types.Store = (*Backend)(nil)

// Backend implements the Store interface on top of SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database in config.DataDir, creating the directory if
// needed, and applies pending migrations.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DatabaseFile)+dsnPragmas)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("applying migrations: %w", err)
	}

	// One connection: the store serializes all reads and writes.
	db.SetMaxOpenConns(1)

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the database. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	return nil
}

// Path returns the database file path, or "" when detached.
func (b *Backend) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return ""
	}
	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, DatabaseFile)
}

// WithTx runs fn in one transaction. fn receives table accessors bound to the
// transaction; returning an error rolls everything back.
func (b *Backend) WithTx(ctx context.Context, fn func(tx types.Tx) error) error {
	b.mu.RLock()
	db := b.db
	attached := b.attached
	b.mu.RUnlock()

	if !attached {
		return types.ErrStoreDetached
	}

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = sqlTx.Rollback() // safe to call even after commit
	}()

	if err := fn(newTxStore(sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// querier returns the database handle, or nil when detached.
func (b *Backend) querier() querier {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil
	}
	return b.db
}

func (b *Backend) Groups() types.GroupTable     { return &groupsTable{q: b.querier()} }
func (b *Backend) Clients() types.ClientTable   { return &clientsTable{q: b.querier()} }
func (b *Backend) Objects() types.ObjectTable   { return &objectsTable{q: b.querier()} }
func (b *Backend) Stations() types.StationTable { return &stationsTable{q: b.querier()} }
func (b *Backend) Backups() types.BackupTable   { return &backupsTable{q: b.querier()} }

// SchemaVersion returns the applied migration version.
func (b *Backend) SchemaVersion() (uint, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrStoreDetached
	}
	version, dirty, err := schemaVersion(b.db)
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
