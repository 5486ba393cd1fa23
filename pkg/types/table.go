package types

import (
	"context"
	"errors"
	"time"
)

// GroupTable provides CRUD for groups.
type GroupTable interface {
	Get(ctx context.Context, id int64) (*Group, error)
	List(ctx context.Context) ([]Group, error)

	// Insert stores a new group and returns its id. A non-zero g.ID is
	// preserved (used by restore); otherwise the store assigns one.
	Insert(ctx context.Context, g *Group) (int64, error)
	Update(ctx context.Context, g *Group) error
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
}

// ClientTable provides CRUD for clients.
type ClientTable interface {
	Get(ctx context.Context, id int64) (*Client, error)
	List(ctx context.Context) ([]Client, error)
	Insert(ctx context.Context, c *Client) (int64, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id int64) error

	// DetachGroup clears group_id on every client tagged with groupID and
	// returns the number of clients touched.
	DetachGroup(ctx context.Context, groupID int64) (int64, error)
	Clear(ctx context.Context) error
}

// ObjectTable provides CRUD for client objects.
type ObjectTable interface {
	Get(ctx context.Context, id int64) (*ClientObject, error)
	List(ctx context.Context) ([]ClientObject, error)
	ListByClient(ctx context.Context, clientID int64) ([]ClientObject, error)
	Insert(ctx context.Context, o *ClientObject) (int64, error)
	Update(ctx context.Context, o *ClientObject) error
	Delete(ctx context.Context, id int64) error
	DeleteByClient(ctx context.Context, clientID int64) (int64, error)
	Clear(ctx context.Context) error
}

// StationTable provides CRUD for stations.
type StationTable interface {
	Get(ctx context.Context, id int64) (*Station, error)
	List(ctx context.Context) ([]Station, error)
	ListByObject(ctx context.Context, objectID int64) ([]Station, error)
	Insert(ctx context.Context, s *Station) (int64, error)
	Update(ctx context.Context, s *Station) error
	Delete(ctx context.Context, id int64) error
	DeleteByObject(ctx context.Context, objectID int64) (int64, error)

	// RecordLaunch increments usage_count and sets last_used to at.
	RecordLaunch(ctx context.Context, id int64, at time.Time) error
	Clear(ctx context.Context) error
}

// BackupTable stores internal backups.
type BackupTable interface {
	Get(ctx context.Context, id int64) (*InternalBackup, error)

	// List returns backups newest first.
	List(ctx context.Context) ([]InternalBackup, error)
	Insert(ctx context.Context, b *InternalBackup) (int64, error)
	Count(ctx context.Context) (int64, error)

	// Prune deletes the oldest backups until at most keep remain and returns
	// the number deleted.
	Prune(ctx context.Context, keep int) (int64, error)
}

// Table operation errors.
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidData = errors.New("invalid entity data")
)

// Mutation errors.
var (
	ErrValidation  = errors.New("validation failed")
	ErrInvalidMove = errors.New("invalid move selection")
	ErrInvalidKind = errors.New("invalid item kind")
)
