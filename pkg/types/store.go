package types

import (
	"context"
	"errors"
)

// Tx exposes the tables of a Store. Both the Store itself and the scope
// passed to WithTx implement it, so repository code is written once.
type Tx interface {
	Groups() GroupTable
	Clients() ClientTable
	Objects() ObjectTable
	Stations() StationTable
	Backups() BackupTable
}

// Store defines backend-agnostic access to the entity tables.
// Callers attach to a backend, use the tables, and detach when done.
type Store interface {
	Tx

	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist and applies pending schema
	// migrations. Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	// After Detach, table operations return ErrStoreDetached.
	Detach() error

	// WithTx runs fn inside one read/write transaction. If fn returns an
	// error the transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrNestedTx        = errors.New("nested transactions are not supported")
)
