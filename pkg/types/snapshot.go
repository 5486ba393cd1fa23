package types

import (
	"context"
	"fmt"
)

// Snapshot is the full content of the four primary tables.
type Snapshot struct {
	Groups   []Group        `json:"groups"`
	Clients  []Client       `json:"clients"`
	Objects  []ClientObject `json:"objects"`
	Stations []Station      `json:"stations"`
}

// ReadSnapshot loads every primary table through tx. Call it inside WithTx
// to get a consistent view.
func ReadSnapshot(ctx context.Context, tx Tx) (*Snapshot, error) {
	groups, err := tx.Groups().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	clients, err := tx.Clients().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	objects, err := tx.Objects().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	stations, err := tx.Stations().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stations: %w", err)
	}
	return &Snapshot{
		Groups:   groups,
		Clients:  clients,
		Objects:  objects,
		Stations: stations,
	}, nil
}

// Counts returns the number of groups, clients, objects and stations.
func (s *Snapshot) Counts() (groups, clients, objects, stations int) {
	return len(s.Groups), len(s.Clients), len(s.Objects), len(s.Stations)
}

// ClearAll empties the four primary tables through tx, children first.
// Internal backups are kept.
func ClearAll(ctx context.Context, tx Tx) error {
	if err := tx.Stations().Clear(ctx); err != nil {
		return fmt.Errorf("clearing stations: %w", err)
	}
	if err := tx.Objects().Clear(ctx); err != nil {
		return fmt.Errorf("clearing objects: %w", err)
	}
	if err := tx.Clients().Clear(ctx); err != nil {
		return fmt.Errorf("clearing clients: %w", err)
	}
	if err := tx.Groups().Clear(ctx); err != nil {
		return fmt.Errorf("clearing groups: %w", err)
	}
	return nil
}
