package sqlite

import (
	"context"
	"database/sql"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txStore exposes the tables bound to a single transaction.
type txStore struct {
	tx *sql.Tx
}

func newTxStore(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Groups() types.GroupTable     { return &groupsTable{q: t.tx} }
func (t *txStore) Clients() types.ClientTable   { return &clientsTable{q: t.tx} }
func (t *txStore) Objects() types.ObjectTable   { return &objectsTable{q: t.tx} }
func (t *txStore) Stations() types.StationTable { return &stationsTable{q: t.tx} }
func (t *txStore) Backups() types.BackupTable   { return &backupsTable{q: t.tx} }
