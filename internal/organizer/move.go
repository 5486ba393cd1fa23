package organizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// Move re-parents one Object or Station.
func (s *Service) Move(ctx context.Context, ref types.ItemRef, parentID int64) (int64, error) {
	return s.BulkMove(ctx, []types.ItemRef{ref}, parentID)
}

// BulkMove re-parents a homogeneous selection: all Objects (into the Client
// parentID) or all Stations (into the Object parentID). Empty or mixed
// selections and selections containing a Client fail with ErrInvalidMove
// before anything is written. Items that no longer exist are skipped.
// Returns the number of rows moved.
func (s *Service) BulkMove(ctx context.Context, refs []types.ItemRef, parentID int64) (int64, error) {
	kind, err := selectionKind(refs)
	if err != nil {
		return 0, err
	}

	var moved int64
	err = s.store.WithTx(ctx, func(tx types.Tx) error {
		moved = 0
		switch kind {
		case types.KindObject:
			if _, err := tx.Clients().Get(ctx, parentID); err != nil {
				return destinationError(types.KindClient, parentID, err)
			}
			for _, ref := range refs {
				o, err := tx.Objects().Get(ctx, ref.ID)
				if errors.Is(err, types.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				if o.ClientID == parentID {
					continue
				}
				o.ClientID = parentID
				if err := tx.Objects().Update(ctx, o); err != nil {
					return fmt.Errorf("moving %s: %w", ref, err)
				}
				moved++
			}
		case types.KindStation:
			if _, err := tx.Objects().Get(ctx, parentID); err != nil {
				return destinationError(types.KindObject, parentID, err)
			}
			for _, ref := range refs {
				st, err := tx.Stations().Get(ctx, ref.ID)
				if errors.Is(err, types.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				if st.ObjectID == parentID {
					continue
				}
				st.ObjectID = parentID
				if err := tx.Stations().Update(ctx, st); err != nil {
					return fmt.Errorf("moving %s: %w", ref, err)
				}
				moved++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("moved", "kind", kind, "count", moved, "parent_id", parentID)
	return moved, nil
}

// selectionKind returns the single kind shared by refs.
func selectionKind(refs []types.ItemRef) (types.Kind, error) {
	if len(refs) == 0 {
		return "", fmt.Errorf("%w: nothing selected", types.ErrInvalidMove)
	}
	kind := refs[0].Kind
	for _, ref := range refs {
		switch ref.Kind {
		case types.KindClient:
			return "", fmt.Errorf("%w: clients cannot be moved", types.ErrInvalidMove)
		case types.KindObject, types.KindStation:
		default:
			return "", fmt.Errorf("%w: %q", types.ErrInvalidKind, ref.Kind)
		}
		if ref.Kind != kind {
			return "", fmt.Errorf("%w: selection mixes objects and stations", types.ErrInvalidMove)
		}
	}
	return kind, nil
}

func destinationError(kind types.Kind, id int64, err error) error {
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidID) {
		return fmt.Errorf("%w: destination %s %d does not exist", types.ErrInvalidMove, kind, id)
	}
	return err
}
