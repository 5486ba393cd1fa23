package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

var _ types.ClientTable = (*clientsTable)(nil)

// clientsTable implements ClientTable.
type clientsTable struct {
	q querier
}

const selectClient = "SELECT id, group_id, name, created_at FROM clients"

func (t *clientsTable) Get(ctx context.Context, id int64) (*types.Client, error) {
	if err := detached(t.q); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	c, err := scanClient(t.q.QueryRowContext(ctx, selectClient+" WHERE id = ?", id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return c, nil
}

func (t *clientsTable) List(ctx context.Context) ([]types.Client, error) {
	if err := detached(t.q); err != nil {
		return nil, err
	}
	rows, err := t.q.QueryContext(ctx, selectClient+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	clients := []types.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating clients: %w", err)
	}
	return clients, nil
}

func (t *clientsTable) Insert(ctx context.Context, c *types.Client) (int64, error) {
	if err := detached(t.q); err != nil {
		return 0, err
	}
	if c.Name == "" {
		return 0, types.ErrInvalidData
	}
	c.CreatedAt = createdAtOrNow(c.CreatedAt)
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO clients (id, group_id, name, created_at) VALUES (?, ?, ?, ?)",
		insertID(c.ID), mapOptionalInt64(c.GroupID), c.Name, formatTime(c.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting client: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading client id: %w", err)
	}
	c.ID = id
	return id, nil
}

func (t *clientsTable) Update(ctx context.Context, c *types.Client) error {
	if err := detached(t.q); err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx,
		"UPDATE clients SET group_id = ?, name = ? WHERE id = ?",
		mapOptionalInt64(c.GroupID), c.Name, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating client %d: %w", c.ID, err)
	}
	return affectedOrNotFound(res, "client", c.ID)
}

func (t *clientsTable) Delete(ctx context.Context, id int64) error {
	if err := detached(t.q); err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting client %d: %w", id, err)
	}
	return affectedOrNotFound(res, "client", id)
}

func (t *clientsTable) DetachGroup(ctx context.Context, groupID int64) (int64, error) {
	if err := detached(t.q); err != nil {
		return 0, err
	}
	res, err := t.q.ExecContext(ctx, "UPDATE clients SET group_id = NULL WHERE group_id = ?", groupID)
	if err != nil {
		return 0, fmt.Errorf("detaching group %d: %w", groupID, err)
	}
	return res.RowsAffected()
}

func (t *clientsTable) Clear(ctx context.Context) error {
	if err := detached(t.q); err != nil {
		return err
	}
	if _, err := t.q.ExecContext(ctx, "DELETE FROM clients"); err != nil {
		return fmt.Errorf("clearing clients: %w", err)
	}
	return nil
}

func scanClient(row rowScanner) (*types.Client, error) {
	var c types.Client
	var groupID sql.NullInt64
	var createdAt string
	if err := row.Scan(&c.ID, &groupID, &c.Name, &createdAt); err != nil {
		return nil, err
	}
	var err error
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	c.GroupID = mapNullInt64Ptr(groupID)
	return &c, nil
}
