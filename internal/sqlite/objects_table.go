package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

var _ types.ObjectTable = (*objectsTable)(nil)

// objectsTable implements ObjectTable.
type objectsTable struct {
	q querier
}

const selectObject = "SELECT id, client_id, name, created_at FROM objects"

func (t *objectsTable) Get(ctx context.Context, id int64) (*types.ClientObject, error) {
	if err := detached(t.q); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	o, err := scanObject(t.q.QueryRowContext(ctx, selectObject+" WHERE id = ?", id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return o, nil
}

func (t *objectsTable) List(ctx context.Context) ([]types.ClientObject, error) {
	return t.list(ctx, selectObject+" ORDER BY id")
}

func (t *objectsTable) ListByClient(ctx context.Context, clientID int64) ([]types.ClientObject, error) {
	return t.list(ctx, selectObject+" WHERE client_id = ? ORDER BY id", clientID)
}

func (t *objectsTable) list(ctx context.Context, query string, args ...any) ([]types.ClientObject, error) {
	if err := detached(t.q); err != nil {
		return nil, err
	}
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	defer rows.Close()

	objects := []types.ClientObject{}
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning object: %w", err)
		}
		objects = append(objects, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating objects: %w", err)
	}
	return objects, nil
}

func (t *objectsTable) Insert(ctx context.Context, o *types.ClientObject) (int64, error) {
	if err := detached(t.q); err != nil {
		return 0, err
	}
	if o.Name == "" || o.ClientID <= 0 {
		return 0, types.ErrInvalidData
	}
	o.CreatedAt = createdAtOrNow(o.CreatedAt)
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO objects (id, client_id, name, created_at) VALUES (?, ?, ?, ?)",
		insertID(o.ID), o.ClientID, o.Name, formatTime(o.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting object: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading object id: %w", err)
	}
	o.ID = id
	return id, nil
}

func (t *objectsTable) Update(ctx context.Context, o *types.ClientObject) error {
	if err := detached(t.q); err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx,
		"UPDATE objects SET client_id = ?, name = ? WHERE id = ?",
		o.ClientID, o.Name, o.ID,
	)
	if err != nil {
		return fmt.Errorf("updating object %d: %w", o.ID, err)
	}
	return affectedOrNotFound(res, "object", o.ID)
}

func (t *objectsTable) Delete(ctx context.Context, id int64) error {
	if err := detached(t.q); err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx, "DELETE FROM objects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting object %d: %w", id, err)
	}
	return affectedOrNotFound(res, "object", id)
}

func (t *objectsTable) DeleteByClient(ctx context.Context, clientID int64) (int64, error) {
	if err := detached(t.q); err != nil {
		return 0, err
	}
	res, err := t.q.ExecContext(ctx, "DELETE FROM objects WHERE client_id = ?", clientID)
	if err != nil {
		return 0, fmt.Errorf("deleting objects of client %d: %w", clientID, err)
	}
	return res.RowsAffected()
}

func (t *objectsTable) Clear(ctx context.Context) error {
	if err := detached(t.q); err != nil {
		return err
	}
	if _, err := t.q.ExecContext(ctx, "DELETE FROM objects"); err != nil {
		return fmt.Errorf("clearing objects: %w", err)
	}
	return nil
}

func scanObject(row rowScanner) (*types.ClientObject, error) {
	var o types.ClientObject
	var createdAt string
	if err := row.Scan(&o.ID, &o.ClientID, &o.Name, &createdAt); err != nil {
		return nil, err
	}
	var err error
	o.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &o, nil
}
