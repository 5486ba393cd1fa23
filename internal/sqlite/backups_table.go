package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

var _ types.BackupTable = (*backupsTable)(nil)

// backupsTable implements BackupTable.
type backupsTable struct {
	q querier
}

const selectBackup = "SELECT id, data, reason, created_at FROM backups"

func (t *backupsTable) Get(ctx context.Context, id int64) (*types.InternalBackup, error) {
	if err := detached(t.q); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	b, err := scanBackup(t.q.QueryRowContext(ctx, selectBackup+" WHERE id = ?", id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return b, nil
}

// List returns backups newest first. Ids come from AUTOINCREMENT, so they
// follow insertion order even when timestamps collide.
func (t *backupsTable) List(ctx context.Context) ([]types.InternalBackup, error) {
	if err := detached(t.q); err != nil {
		return nil, err
	}
	rows, err := t.q.QueryContext(ctx, selectBackup+" ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	defer rows.Close()

	backups := []types.InternalBackup{}
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning backup: %w", err)
		}
		backups = append(backups, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating backups: %w", err)
	}
	return backups, nil
}

func (t *backupsTable) Insert(ctx context.Context, b *types.InternalBackup) (int64, error) {
	if err := detached(t.q); err != nil {
		return 0, err
	}
	if len(b.Data) == 0 || b.Reason == "" {
		return 0, types.ErrInvalidData
	}
	b.CreatedAt = createdAtOrNow(b.CreatedAt)
	res, err := t.q.ExecContext(ctx,
		"INSERT INTO backups (id, data, reason, created_at) VALUES (?, ?, ?, ?)",
		insertID(b.ID), string(b.Data), b.Reason, formatTime(b.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting backup: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading backup id: %w", err)
	}
	b.ID = id
	return id, nil
}

func (t *backupsTable) Count(ctx context.Context) (int64, error) {
	if err := detached(t.q); err != nil {
		return 0, err
	}
	var n int64
	if err := t.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM backups").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting backups: %w", err)
	}
	return n, nil
}

func (t *backupsTable) Prune(ctx context.Context, keep int) (int64, error) {
	if err := detached(t.q); err != nil {
		return 0, err
	}
	if keep < 0 {
		keep = 0
	}
	res, err := t.q.ExecContext(ctx,
		`DELETE FROM backups WHERE id NOT IN (
			SELECT id FROM backups ORDER BY id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning backups: %w", err)
	}
	return res.RowsAffected()
}

func scanBackup(row rowScanner) (*types.InternalBackup, error) {
	var b types.InternalBackup
	var data, createdAt string
	if err := row.Scan(&b.ID, &data, &b.Reason, &createdAt); err != nil {
		return nil, err
	}
	var err error
	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	b.Data = []byte(data)
	return &b, nil
}
