package organizer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/svakisto/internal/sqlite"
	"github.com/mesh-intelligence/svakisto/internal/tree"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// recorder captures the order of launch side effects.
type recorder struct {
	calls        []string
	clipboard    string
	opened       string
	clipboardErr error
	store        types.Store
	usageAtOpen  int64
}

func (r *recorder) WriteAll(text string) error {
	r.calls = append(r.calls, "clipboard")
	if r.clipboardErr != nil {
		return r.clipboardErr
	}
	r.clipboard = text
	return nil
}

func (r *recorder) Open(ctx context.Context, uri string) error {
	r.calls = append(r.calls, "open")
	r.opened = uri
	if r.store != nil {
		stations, _ := r.store.Stations().List(ctx)
		for _, s := range stations {
			r.usageAtOpen += s.UsageCount
		}
	}
	return nil
}

func newService(t *testing.T, opts ...Option) (*Service, types.Store, *recorder) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = b.Detach() })

	rec := &recorder{store: b}
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClipboard(rec),
		WithOpener(rec),
	}
	return New(b, append(base, opts...)...), b, rec
}

// seed creates client A -> object B -> station C and returns their ids.
func seed(t *testing.T, svc *Service) (int64, int64, int64) {
	t.Helper()
	ctx := context.Background()
	c, err := svc.AddClient(ctx, "A", nil)
	require.NoError(t, err)
	o, err := svc.AddObject(ctx, c.ID, "B")
	require.NoError(t, err)
	s, err := svc.AddStation(ctx, o.ID, StationInput{Name: "C", AnydeskID: "123 456 789", Password: "pw"})
	require.NoError(t, err)
	return c.ID, o.ID, s.ID
}

func TestAdd_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	c, err := svc.AddClient(ctx, "Acme", nil)
	require.NoError(t, err)
	o, err := svc.AddObject(ctx, c.ID, "Lobby")
	require.NoError(t, err)

	tests := []struct {
		name  string
		call  func() error
		field string
	}{
		{"blank client name", func() error { _, err := svc.AddClient(ctx, "   ", nil); return err }, "name"},
		{"unknown group", func() error { g := int64(9); _, err := svc.AddClient(ctx, "X", &g); return err }, "groupId"},
		{"missing object parent", func() error { _, err := svc.AddObject(ctx, 999, "X"); return err }, "clientId"},
		{"zero object parent", func() error { _, err := svc.AddObject(ctx, 0, "X"); return err }, "clientId"},
		{"station without name", func() error {
			_, err := svc.AddStation(ctx, o.ID, StationInput{AnydeskID: "1"})
			return err
		}, "name"},
		{"station without connection id", func() error {
			_, err := svc.AddStation(ctx, o.ID, StationInput{Name: "PC"})
			return err
		}, "anydeskId"},
		{"station under missing object", func() error {
			_, err := svc.AddStation(ctx, 999, StationInput{Name: "PC", AnydeskID: "1"})
			return err
		}, "objectId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.ErrorIs(t, err, types.ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	_, clients, objects, stations := snap.Counts()
	assert.Equal(t, 1, clients)
	assert.Equal(t, 1, objects)
	assert.Zero(t, stations)
}

func TestEdit_MissingIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	found, err := svc.EditClient(ctx, 42, "Nobody", nil)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = svc.EditObject(ctx, 42, "Nothing")
	require.NoError(t, err)
	assert.False(t, found)

	found, err = svc.EditStation(ctx, 42, StationInput{Name: "x", AnydeskID: "1"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEditStation_KeepsUsage(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	_, _, sid := seed(t, svc)

	_, err := svc.Launch(ctx, sid)
	require.NoError(t, err)

	found, err := svc.EditStation(ctx, sid, StationInput{Name: "C2", AnydeskID: "987", Password: ""})
	require.NoError(t, err)
	assert.True(t, found)

	st, err := store.Stations().Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "C2", st.Name)
	assert.Equal(t, "987", st.AnydeskID)
	assert.False(t, st.HasPassword())
	assert.Equal(t, int64(1), st.UsageCount)

	_, err = svc.EditStation(ctx, sid, StationInput{Name: "C2"})
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestDeleteGroup_DetachesClients(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)

	g, err := svc.AddGroup(ctx, "IT Dept", "#00f")
	require.NoError(t, err)
	c1, err := svc.AddClient(ctx, "One", &g.ID)
	require.NoError(t, err)
	c2, err := svc.AddClient(ctx, "Two", &g.ID)
	require.NoError(t, err)

	n, err := svc.DeleteGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, id := range []int64{c1.ID, c2.ID} {
		c, err := store.Clients().Get(ctx, id)
		require.NoError(t, err, "client must survive group delete")
		assert.Nil(t, c.GroupID)
	}
	groups, err := svc.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestDelete_ClientCascades(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	cid, oid, sid := seed(t, svc)

	// An unrelated branch must survive.
	other, err := svc.AddClient(ctx, "Other", nil)
	require.NoError(t, err)
	otherObj, err := svc.AddObject(ctx, other.ID, "Other room")
	require.NoError(t, err)

	res, err := svc.Delete(ctx, types.ItemRef{Kind: types.KindClient, ID: cid})
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{Clients: 1, Objects: 1, Stations: 1}, res)

	_, err = store.Clients().Get(ctx, cid)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = store.Objects().Get(ctx, oid)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = store.Stations().Get(ctx, sid)
	assert.ErrorIs(t, err, types.ErrNotFound)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	for _, o := range snap.Objects {
		assert.NotEqual(t, cid, o.ClientID)
	}
	for _, s := range snap.Stations {
		assert.NotEqual(t, oid, s.ObjectID)
	}
	assert.Len(t, snap.Objects, 1)
	assert.Equal(t, otherObj.ID, snap.Objects[0].ID)
}

func TestBulkDelete_OverlappingRefs(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	cid, oid, sid := seed(t, svc)

	res, err := svc.BulkDelete(ctx, []types.ItemRef{
		{Kind: types.KindStation, ID: sid},
		{Kind: types.KindClient, ID: cid},
		{Kind: types.KindObject, ID: oid},
		{Kind: types.KindStation, ID: sid},
		{Kind: types.KindClient, ID: 12345},
	})
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{Clients: 1, Objects: 1, Stations: 1}, res)
	assert.Equal(t, int64(3), res.Total())
}

func TestBulkDelete_RejectsUnknownKind(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	cid, _, _ := seed(t, svc)

	_, err := svc.BulkDelete(ctx, []types.ItemRef{
		{Kind: types.KindClient, ID: cid},
		{Kind: "group", ID: 1},
	})
	require.ErrorIs(t, err, types.ErrInvalidKind)

	_, err = store.Clients().Get(ctx, cid)
	assert.NoError(t, err, "nothing deleted when the selection is invalid")
}

func TestBulkDelete_NormalizesKind(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	cid, oid, sid := seed(t, svc)

	res, err := svc.BulkDelete(ctx, []types.ItemRef{{Kind: " Client ", ID: cid}})
	require.NoError(t, err)
	assert.Equal(t, DeleteResult{Clients: 1, Objects: 1, Stations: 1}, res)

	_, err = store.Objects().Get(ctx, oid)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = store.Stations().Get(ctx, sid)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBulkMove_RejectsInvalidSelections(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	cid, oid, sid := seed(t, svc)
	dest, err := svc.AddClient(ctx, "Dest", nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		refs []types.ItemRef
	}{
		{"empty", nil},
		{"contains client", []types.ItemRef{{Kind: types.KindObject, ID: oid}, {Kind: types.KindClient, ID: cid}}},
		{"mixed", []types.ItemRef{{Kind: types.KindObject, ID: oid}, {Kind: types.KindStation, ID: sid}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BulkMove(ctx, tt.refs, dest.ID)
			assert.ErrorIs(t, err, types.ErrInvalidMove)
		})
	}

	o, err := store.Objects().Get(ctx, oid)
	require.NoError(t, err)
	assert.Equal(t, cid, o.ClientID)
	st, err := store.Stations().Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, oid, st.ObjectID)
}

func TestBulkMove_Objects(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newService(t)
	cid, oid, sid := seed(t, svc)
	o2, err := svc.AddObject(ctx, cid, "B2")
	require.NoError(t, err)
	dest, err := svc.AddClient(ctx, "Dest", nil)
	require.NoError(t, err)

	moved, err := svc.BulkMove(ctx, []types.ItemRef{
		{Kind: types.KindObject, ID: oid},
		{Kind: types.KindObject, ID: o2.ID},
		{Kind: types.KindObject, ID: 999},
	}, dest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	objects, err := store.Objects().ListByClient(ctx, dest.ID)
	require.NoError(t, err)
	assert.Len(t, objects, 2)

	st, err := store.Stations().Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, oid, st.ObjectID, "stations travel with their object")
}

func TestMove_StationToMissingObject(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	_, _, sid := seed(t, svc)

	_, err := svc.Move(ctx, types.ItemRef{Kind: types.KindStation, ID: sid}, 999)
	assert.ErrorIs(t, err, types.ErrInvalidMove)
}

func TestLaunch_OrderAndCounters(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	svc, store, rec := newService(t, WithClock(func() time.Time { return at }))
	_, _, sid := seed(t, svc)

	res, err := svc.Launch(ctx, sid)
	require.NoError(t, err)

	assert.Equal(t, []string{"clipboard", "open"}, rec.calls)
	assert.Equal(t, "pw", rec.clipboard)
	assert.Equal(t, "anydesk:123456789", rec.opened)
	assert.Equal(t, int64(1), rec.usageAtOpen, "usage recorded before the handoff")
	assert.True(t, res.PasswordCopied)

	st, err := store.Stations().Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.UsageCount)
	require.NotNil(t, st.LastUsed)
	assert.True(t, st.LastUsed.Equal(at))
}

func TestLaunch_ClipboardFailureDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	svc, store, rec := newService(t, WithScheme("rustdesk"))
	rec.clipboardErr = errors.New("no display")
	_, _, sid := seed(t, svc)

	res, err := svc.Launch(ctx, sid)
	require.NoError(t, err)
	assert.False(t, res.PasswordCopied)
	assert.Equal(t, "rustdesk:123456789", res.URI)

	st, err := store.Stations().Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.UsageCount)
}

func TestLaunch_NoPasswordSkipsClipboard(t *testing.T) {
	ctx := context.Background()
	svc, _, rec := newService(t)
	c, err := svc.AddClient(ctx, "A", nil)
	require.NoError(t, err)
	o, err := svc.AddObject(ctx, c.ID, "B")
	require.NoError(t, err)
	s, err := svc.AddStation(ctx, o.ID, StationInput{Name: "C", AnydeskID: "1"})
	require.NoError(t, err)

	_, err = svc.Launch(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"open"}, rec.calls)

	assert.ErrorIs(t, svc.CopyPassword(ctx, s.ID), ErrNoPassword)
	_, err = svc.Launch(ctx, 999)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

type fakeSnapshotter struct{ reasons []string }

func (f *fakeSnapshotter) CaptureTx(ctx context.Context, tx types.Tx, reason string) (*types.InternalBackup, error) {
	f.reasons = append(f.reasons, reason)
	return &types.InternalBackup{Reason: reason}, nil
}

func TestWipe(t *testing.T) {
	ctx := context.Background()
	snaps := &fakeSnapshotter{}
	svc, _, _ := newService(t, WithSnapshotter(snaps))
	seed(t, svc)
	_, err := svc.AddGroup(ctx, "G", "")
	require.NoError(t, err)

	require.NoError(t, svc.Wipe(ctx))
	assert.Equal(t, []string{types.ReasonWipe}, snaps.reasons)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	g, c, o, s := snap.Counts()
	assert.Zero(t, g+c+o+s)
}

func TestTreeAndDestinations(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)
	seed(t, svc)

	view, err := svc.Tree(ctx, tree.Query{Text: "c"})
	require.NoError(t, err)
	require.Len(t, view.Stations, 1)
	assert.True(t, view.ExpandedObjects[view.Stations[0].ObjectID])

	dests, err := svc.Destinations(ctx, types.KindStation, "b")
	require.NoError(t, err)
	require.Len(t, dests, 1)
	assert.Equal(t, "A", dests[0].Subtitle)
}
