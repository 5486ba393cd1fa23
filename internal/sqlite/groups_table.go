package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

var _ types.GroupTable = (*groupsTable)(nil)

// groupsTable implements GroupTable.
type groupsTable struct {
	q querier
}

const selectGroup = `SELECT id, name, color FROM "groups"`

func (t *groupsTable) Get(ctx context.Context, id int64) (*types.Group, error) {
	if err := detached(t.q); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	g, err := scanGroup(t.q.QueryRowContext(ctx, selectGroup+" WHERE id = ?", id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return g, nil
}

func (t *groupsTable) List(ctx context.Context) ([]types.Group, error) {
	if err := detached(t.q); err != nil {
		return nil, err
	}
	rows, err := t.q.QueryContext(ctx, selectGroup+" ORDER BY name COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	groups := []types.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}
	return groups, nil
}

func (t *groupsTable) Insert(ctx context.Context, g *types.Group) (int64, error) {
	if err := detached(t.q); err != nil {
		return 0, err
	}
	if g.Name == "" {
		return 0, types.ErrInvalidData
	}
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO "groups" (id, name, color) VALUES (?, ?, ?)`,
		insertID(g.ID), g.Name, g.Color,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading group id: %w", err)
	}
	g.ID = id
	return id, nil
}

func (t *groupsTable) Update(ctx context.Context, g *types.Group) error {
	if err := detached(t.q); err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx,
		`UPDATE "groups" SET name = ?, color = ? WHERE id = ?`,
		g.Name, g.Color, g.ID,
	)
	if err != nil {
		return fmt.Errorf("updating group %d: %w", g.ID, err)
	}
	return affectedOrNotFound(res, "group", g.ID)
}

func (t *groupsTable) Delete(ctx context.Context, id int64) error {
	if err := detached(t.q); err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx, `DELETE FROM "groups" WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting group %d: %w", id, err)
	}
	return affectedOrNotFound(res, "group", id)
}

func (t *groupsTable) Clear(ctx context.Context) error {
	if err := detached(t.q); err != nil {
		return err
	}
	if _, err := t.q.ExecContext(ctx, `DELETE FROM "groups"`); err != nil {
		return fmt.Errorf("clearing groups: %w", err)
	}
	return nil
}

func scanGroup(row rowScanner) (*types.Group, error) {
	var g types.Group
	if err := row.Scan(&g.ID, &g.Name, &g.Color); err != nil {
		return nil, err
	}
	return &g, nil
}
