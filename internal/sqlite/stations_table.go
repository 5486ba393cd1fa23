package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

var _ types.StationTable = (*stationsTable)(nil)

// stationsTable implements StationTable.
type stationsTable struct {
	q querier
}

const selectStation = `SELECT id, object_id, name, anydesk_id, password, last_used, usage_count, created_at
	FROM stations`

func (t *stationsTable) Get(ctx context.Context, id int64) (*types.Station, error) {
	if err := detached(t.q); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	s, err := scanStation(t.q.QueryRowContext(ctx, selectStation+" WHERE id = ?", id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return s, nil
}

func (t *stationsTable) List(ctx context.Context) ([]types.Station, error) {
	return t.list(ctx, selectStation+" ORDER BY id")
}

func (t *stationsTable) ListByObject(ctx context.Context, objectID int64) ([]types.Station, error) {
	return t.list(ctx, selectStation+" WHERE object_id = ? ORDER BY id", objectID)
}

func (t *stationsTable) list(ctx context.Context, query string, args ...any) ([]types.Station, error) {
	if err := detached(t.q); err != nil {
		return nil, err
	}
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing stations: %w", err)
	}
	defer rows.Close()

	stations := []types.Station{}
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning station: %w", err)
		}
		stations = append(stations, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stations: %w", err)
	}
	return stations, nil
}

func (t *stationsTable) Insert(ctx context.Context, s *types.Station) (int64, error) {
	if err := detached(t.q); err != nil {
		return 0, err
	}
	if s.Name == "" || s.ObjectID <= 0 {
		return 0, types.ErrInvalidData
	}
	s.CreatedAt = createdAtOrNow(s.CreatedAt)
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO stations (id, object_id, name, anydesk_id, password, last_used, usage_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		insertID(s.ID), s.ObjectID, s.Name, s.AnydeskID, mapStringNull(s.Password),
		mapOptionalTime(s.LastUsed), s.UsageCount, formatTime(s.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting station: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading station id: %w", err)
	}
	s.ID = id
	return id, nil
}

// Update rewrites the editable columns. Usage statistics are only changed
// through RecordLaunch.
func (t *stationsTable) Update(ctx context.Context, s *types.Station) error {
	if err := detached(t.q); err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx,
		"UPDATE stations SET object_id = ?, name = ?, anydesk_id = ?, password = ? WHERE id = ?",
		s.ObjectID, s.Name, s.AnydeskID, mapStringNull(s.Password), s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating station %d: %w", s.ID, err)
	}
	return affectedOrNotFound(res, "station", s.ID)
}

func (t *stationsTable) Delete(ctx context.Context, id int64) error {
	if err := detached(t.q); err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx, "DELETE FROM stations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting station %d: %w", id, err)
	}
	return affectedOrNotFound(res, "station", id)
}

func (t *stationsTable) DeleteByObject(ctx context.Context, objectID int64) (int64, error) {
	if err := detached(t.q); err != nil {
		return 0, err
	}
	res, err := t.q.ExecContext(ctx, "DELETE FROM stations WHERE object_id = ?", objectID)
	if err != nil {
		return 0, fmt.Errorf("deleting stations of object %d: %w", objectID, err)
	}
	return res.RowsAffected()
}

func (t *stationsTable) RecordLaunch(ctx context.Context, id int64, at time.Time) error {
	if err := detached(t.q); err != nil {
		return err
	}
	res, err := t.q.ExecContext(ctx,
		"UPDATE stations SET usage_count = usage_count + 1, last_used = ? WHERE id = ?",
		formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("recording launch of station %d: %w", id, err)
	}
	return affectedOrNotFound(res, "station", id)
}

func (t *stationsTable) Clear(ctx context.Context) error {
	if err := detached(t.q); err != nil {
		return err
	}
	if _, err := t.q.ExecContext(ctx, "DELETE FROM stations"); err != nil {
		return fmt.Errorf("clearing stations: %w", err)
	}
	return nil
}

func scanStation(row rowScanner) (*types.Station, error) {
	var s types.Station
	var password, lastUsed sql.NullString
	var createdAt string
	if err := row.Scan(&s.ID, &s.ObjectID, &s.Name, &s.AnydeskID, &password,
		&lastUsed, &s.UsageCount, &createdAt); err != nil {
		return nil, err
	}
	var err error
	s.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	s.LastUsed, err = mapNullTimePtr(lastUsed)
	if err != nil {
		return nil, fmt.Errorf("parsing last_used: %w", err)
	}
	s.Password = mapNullString(password)
	return &s, nil
}
