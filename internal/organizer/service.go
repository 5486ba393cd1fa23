// Package organizer implements the operations that change the tree: add,
// edit, delete with cascade, move, launch and wipe.
//
// Every operation that touches more than one row runs inside a single store
// transaction. Input is validated before the transaction begins, so a
// rejected call never writes.
package organizer

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mesh-intelligence/svakisto/internal/launch"
	"github.com/mesh-intelligence/svakisto/internal/tree"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// Snapshotter captures an internal backup inside an open transaction.
type Snapshotter interface {
	CaptureTx(ctx context.Context, tx types.Tx, reason string) (*types.InternalBackup, error)
}

// Service runs tree mutations against a Store.
type Service struct {
	store     types.Store
	log       *slog.Logger
	validate  *validator.Validate
	clipboard launch.Clipboard
	opener    launch.Opener
	scheme    string
	snapshots Snapshotter
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClipboard replaces the system clipboard.
func WithClipboard(c launch.Clipboard) Option {
	return func(s *Service) { s.clipboard = c }
}

// WithOpener replaces the system URI opener.
func WithOpener(o launch.Opener) Option {
	return func(s *Service) { s.opener = o }
}

// WithScheme sets the launch URI scheme.
func WithScheme(scheme string) Option {
	return func(s *Service) { s.scheme = scheme }
}

// WithSnapshotter enables the automatic backup taken before Wipe.
func WithSnapshotter(sn Snapshotter) Option {
	return func(s *Service) { s.snapshots = sn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service over store.
func New(store types.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		log:       slog.Default(),
		validate:  newValidator(),
		clipboard: launch.SystemClipboard{},
		opener:    launch.SystemOpener{},
		scheme:    launch.DefaultScheme,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot reads all primary tables in one transaction.
func (s *Service) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	var snap *types.Snapshot
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		var err error
		snap, err = types.ReadSnapshot(ctx, tx)
		return err
	})
	return snap, err
}

// Tree returns the filtered view for q.
func (s *Service) Tree(ctx context.Context, q tree.Query) (*tree.View, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Filter(snap, q), nil
}

// Destinations lists move targets for nodes of kind moving.
func (s *Service) Destinations(ctx context.Context, moving types.Kind, text string) ([]tree.Destination, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Destinations(snap, moving, text)
}
