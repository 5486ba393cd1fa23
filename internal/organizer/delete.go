package organizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// DeleteResult counts the rows removed by a delete, cascades included.
type DeleteResult struct {
	Clients  int64
	Objects  int64
	Stations int64
}

// Total is the number of rows removed across all kinds.
func (r DeleteResult) Total() int64 {
	return r.Clients + r.Objects + r.Stations
}

// Delete removes one node and everything below it.
func (s *Service) Delete(ctx context.Context, ref types.ItemRef) (DeleteResult, error) {
	return s.BulkDelete(ctx, []types.ItemRef{ref})
}

// BulkDelete removes a heterogeneous set of nodes in one transaction. A
// Client takes its Objects and their Stations with it; an Object takes its
// Stations. Refs that overlap (a Station whose Object is also selected) or
// that name rows already gone are skipped. Any other failure rolls the
// whole call back.
func (s *Service) BulkDelete(ctx context.Context, refs []types.ItemRef) (DeleteResult, error) {
	parsed := make([]types.ItemRef, len(refs))
	for i, ref := range refs {
		kind, err := types.ParseKind(string(ref.Kind))
		if err != nil {
			return DeleteResult{}, err
		}
		parsed[i] = types.ItemRef{Kind: kind, ID: ref.ID}
	}

	var res DeleteResult
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		res = DeleteResult{}
		for _, ref := range parsed {
			var err error
			switch ref.Kind {
			case types.KindClient:
				err = deleteClient(ctx, tx, ref.ID, &res)
			case types.KindObject:
				err = deleteObject(ctx, tx, ref.ID, &res)
			case types.KindStation:
				err = deleteStation(ctx, tx, ref.ID, &res)
			default:
				err = types.ErrInvalidKind
			}
			if err != nil {
				return fmt.Errorf("deleting %s: %w", ref, err)
			}
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	s.log.Info("deleted", "refs", len(refs),
		"clients", res.Clients, "objects", res.Objects, "stations", res.Stations)
	return res, nil
}

func deleteClient(ctx context.Context, tx types.Tx, id int64, res *DeleteResult) error {
	objects, err := tx.Objects().ListByClient(ctx, id)
	if err != nil {
		return err
	}
	for _, o := range objects {
		n, err := tx.Stations().DeleteByObject(ctx, o.ID)
		if err != nil {
			return err
		}
		res.Stations += n
	}
	n, err := tx.Objects().DeleteByClient(ctx, id)
	if err != nil {
		return err
	}
	res.Objects += n
	return removeRow(tx.Clients().Delete(ctx, id), &res.Clients)
}

func deleteObject(ctx context.Context, tx types.Tx, id int64, res *DeleteResult) error {
	n, err := tx.Stations().DeleteByObject(ctx, id)
	if err != nil {
		return err
	}
	res.Stations += n
	return removeRow(tx.Objects().Delete(ctx, id), &res.Objects)
}

func deleteStation(ctx context.Context, tx types.Tx, id int64, res *DeleteResult) error {
	return removeRow(tx.Stations().Delete(ctx, id), &res.Stations)
}

// removeRow counts a successful single-row delete; a missing row is not an
// error.
func removeRow(err error, counter *int64) error {
	switch {
	case err == nil:
		*counter++
		return nil
	case errors.Is(err, types.ErrNotFound):
		return nil
	default:
		return err
	}
}

// Wipe clears every primary table. When a Snapshotter is configured a
// wipe-auto-backup is captured first, inside the same transaction.
func (s *Service) Wipe(ctx context.Context) error {
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		if s.snapshots != nil {
			if _, err := s.snapshots.CaptureTx(ctx, tx, types.ReasonWipe); err != nil {
				return fmt.Errorf("auto-backup before wipe: %w", err)
			}
		}
		return types.ClearAll(ctx, tx)
	})
	if err != nil {
		return err
	}
	s.log.Warn("all data wiped")
	return nil
}
