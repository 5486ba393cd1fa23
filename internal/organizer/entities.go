package organizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// StationInput carries the editable fields of a Station.
type StationInput struct {
	Name      string
	AnydeskID string
	Password  string
}

// AddGroup creates a group.
func (s *Service) AddGroup(ctx context.Context, name, color string) (*types.Group, error) {
	g := &types.Group{Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
	if err := s.check(g); err != nil {
		return nil, err
	}
	if _, err := s.store.Groups().Insert(ctx, g); err != nil {
		return nil, err
	}
	s.log.Info("group added", "id", g.ID, "name", g.Name)
	return g, nil
}

// EditGroup renames and recolours a group. It reports false when the group
// no longer exists.
func (s *Service) EditGroup(ctx context.Context, id int64, name, color string) (bool, error) {
	g := &types.Group{ID: id, Name: strings.TrimSpace(name), Color: strings.TrimSpace(color)}
	if err := s.check(g); err != nil {
		return false, err
	}
	return s.tolerateMissing("group", id, s.store.Groups().Update(ctx, g))
}

// DeleteGroup removes a group and clears the group of every client tagged
// with it. Clients are never deleted. Returns the number of clients
// detached.
func (s *Service) DeleteGroup(ctx context.Context, id int64) (int64, error) {
	var detached int64
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		n, err := tx.Clients().DetachGroup(ctx, id)
		if err != nil {
			return err
		}
		detached = n
		if err := tx.Groups().Delete(ctx, id); err != nil && !errors.Is(err, types.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting group %d: %w", id, err)
	}
	s.log.Info("group deleted", "id", id, "clients_detached", detached)
	return detached, nil
}

// ListGroups returns all groups sorted by name.
func (s *Service) ListGroups(ctx context.Context) ([]types.Group, error) {
	return s.store.Groups().List(ctx)
}

// AddClient creates a client, optionally tagged with a group.
func (s *Service) AddClient(ctx context.Context, name string, groupID *int64) (*types.Client, error) {
	c := &types.Client{Name: strings.TrimSpace(name), GroupID: normalizeGroup(groupID)}
	if err := s.check(c); err != nil {
		return nil, err
	}
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		if err := requireGroup(ctx, tx, c.GroupID); err != nil {
			return err
		}
		_, err := tx.Clients().Insert(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("client added", "id", c.ID, "name", c.Name)
	return c, nil
}

// EditClient replaces the name and group of a client. A nil groupID
// removes the tag. It reports false when the client no longer exists.
func (s *Service) EditClient(ctx context.Context, id int64, name string, groupID *int64) (bool, error) {
	c := &types.Client{ID: id, Name: strings.TrimSpace(name), GroupID: normalizeGroup(groupID)}
	if err := s.check(c); err != nil {
		return false, err
	}
	var found bool
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		if err := requireGroup(ctx, tx, c.GroupID); err != nil {
			return err
		}
		var err error
		found, err = s.tolerateMissing("client", id, tx.Clients().Update(ctx, c))
		return err
	})
	return found, err
}

// AddObject creates an object under an existing client.
func (s *Service) AddObject(ctx context.Context, clientID int64, name string) (*types.ClientObject, error) {
	o := &types.ClientObject{ClientID: clientID, Name: strings.TrimSpace(name)}
	if err := s.check(o); err != nil {
		return nil, err
	}
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		if _, err := tx.Clients().Get(ctx, clientID); err != nil {
			return parentError("clientId", "client", clientID, err)
		}
		_, err := tx.Objects().Insert(ctx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("object added", "id", o.ID, "client_id", clientID, "name", o.Name)
	return o, nil
}

// EditObject renames an object. It reports false when the object no longer
// exists.
func (s *Service) EditObject(ctx context.Context, id int64, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, invalid("name", "is required")
	}
	var found bool
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		o, err := tx.Objects().Get(ctx, id)
		if err != nil {
			found, err = s.tolerateMissing("object", id, err)
			return err
		}
		o.Name = name
		found = true
		return tx.Objects().Update(ctx, o)
	})
	return found, err
}

// AddStation creates a station under an existing object. Name and
// connection id are required; the password is optional.
func (s *Service) AddStation(ctx context.Context, objectID int64, in StationInput) (*types.Station, error) {
	st := &types.Station{
		ObjectID:  objectID,
		Name:      strings.TrimSpace(in.Name),
		AnydeskID: strings.TrimSpace(in.AnydeskID),
		Password:  in.Password,
	}
	if err := s.check(st); err != nil {
		return nil, err
	}
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		if _, err := tx.Objects().Get(ctx, objectID); err != nil {
			return parentError("objectId", "object", objectID, err)
		}
		_, err := tx.Stations().Insert(ctx, st)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("station added", "id", st.ID, "object_id", objectID, "name", st.Name)
	return st, nil
}

// EditStation updates name, connection id and password. Usage statistics
// are kept. It reports false when the station no longer exists.
func (s *Service) EditStation(ctx context.Context, id int64, in StationInput) (bool, error) {
	var found bool
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		st, err := tx.Stations().Get(ctx, id)
		if err != nil {
			found, err = s.tolerateMissing("station", id, err)
			return err
		}
		st.Name = strings.TrimSpace(in.Name)
		st.AnydeskID = strings.TrimSpace(in.AnydeskID)
		st.Password = in.Password
		if err := s.check(st); err != nil {
			return err
		}
		found = true
		return tx.Stations().Update(ctx, st)
	})
	return found, err
}

// tolerateMissing turns ErrNotFound into a logged no-op.
func (s *Service) tolerateMissing(what string, id int64, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, types.ErrNotFound) {
		s.log.Warn("ignoring operation on missing entity", "kind", what, "id", id)
		return false, nil
	}
	return false, err
}

func parentError(field, what string, id int64, err error) error {
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidID) {
		return invalid(field, fmt.Sprintf("refers to missing %s %d", what, id))
	}
	return err
}

func requireGroup(ctx context.Context, tx types.Tx, groupID *int64) error {
	if groupID == nil {
		return nil
	}
	if _, err := tx.Groups().Get(ctx, *groupID); err != nil {
		return parentError("groupId", "group", *groupID, err)
	}
	return nil
}

// normalizeGroup maps a zero group id to no group.
func normalizeGroup(groupID *int64) *int64 {
	if groupID == nil || *groupID == 0 {
		return nil
	}
	v := *groupID
	return &v
}
