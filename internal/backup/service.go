package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/svakisto/internal/atomicfile"
	"github.com/mesh-intelligence/svakisto/pkg/svakisto"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// Service exports, restores and auto-backs-up a Store.
type Service struct {
	store   types.Store
	log     *slog.Logger
	version string
	keep    int
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithVersion overrides the version written into document headers.
func WithVersion(v string) Option {
	return func(s *Service) { s.version = v }
}

// WithKeep sets how many internal backups are retained. Values outside
// 1..types.MaxInternalBackups are clamped.
func WithKeep(n int) Option {
	return func(s *Service) { s.keep = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service over store.
func New(store types.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		log:     slog.Default(),
		version: svakisto.Version,
		keep:    types.MaxInternalBackups,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.keep = min(max(s.keep, 1), types.MaxInternalBackups)
	return s
}

// Document snapshots the store into a new backup document.
func (s *Service) Document(ctx context.Context) (*Document, error) {
	var doc *Document
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		var err error
		doc, err = s.documentTx(ctx, tx)
		return err
	})
	return doc, err
}

func (s *Service) documentTx(ctx context.Context, tx types.Tx) (*Document, error) {
	snap, err := types.ReadSnapshot(ctx, tx)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating backup id: %w", err)
	}
	return &Document{
		Meta: Meta{
			Date:       s.now().UTC(),
			Version:    s.version,
			ExportedBy: svakisto.ExportedBy,
			BackupID:   id.String(),
		},
		Clients:  snap.Clients,
		Objects:  snap.Objects,
		Stations: snap.Stations,
		Groups:   snap.Groups,
	}, nil
}

// Export returns the encoded document, encrypted when password is set.
func (s *Service) Export(ctx context.Context, password string) ([]byte, *Document, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reading store: %w", err)
	}
	data, err := doc.Marshal(password)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("export built", "backup_id", doc.Meta.BackupID, "encrypted", password != "",
		"clients", len(doc.Clients), "objects", len(doc.Objects), "stations", len(doc.Stations))
	return data, doc, nil
}

// ExportFile writes an export to path atomically.
func (s *Service) ExportFile(ctx context.Context, path, password string) (*Document, error) {
	data, doc, err := s.Export(ctx, password)
	if err != nil {
		return nil, err
	}
	if err := atomicfile.WriteFile(path, data, 0o600); err != nil {
		return nil, err
	}
	return doc, nil
}

// ReadFile loads and parses a backup file.
func ReadFile(path, password string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(raw, password)
}

// Restore replaces the store contents with doc. A restore-auto-backup of the
// current data is captured first. Everything runs in one transaction; on
// error the store is unchanged.
func (s *Service) Restore(ctx context.Context, doc *Document) error {
	return s.replace(ctx, doc, types.ReasonRestore)
}

func (s *Service) replace(ctx context.Context, doc *Document, reason string) error {
	if err := s.checkReferences(doc); err != nil {
		return err
	}
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		if reason != "" {
			if _, err := s.CaptureTx(ctx, tx, reason); err != nil {
				return fmt.Errorf("auto-backup before restore: %w", err)
			}
		}
		return restoreTx(ctx, tx, doc)
	})
	if err != nil {
		return err
	}
	s.log.Info("store restored", "backup_id", doc.Meta.BackupID, "source_date", doc.Meta.Date,
		"clients", len(doc.Clients), "objects", len(doc.Objects), "stations", len(doc.Stations))
	return nil
}

// checkReferences rejects documents with invalid or duplicate entities, and
// objects or stations that point at parents the document does not contain.
// Group tags to unknown groups are dropped.
func (s *Service) checkReferences(doc *Document) error {
	groups := map[int64]bool{}
	for i := range doc.Groups {
		if err := checkEntity("group", doc.Groups[i].ID, &doc.Groups[i], groups); err != nil {
			return err
		}
	}
	clients := map[int64]bool{}
	for i := range doc.Clients {
		c := &doc.Clients[i]
		if err := checkEntity("client", c.ID, c, clients); err != nil {
			return err
		}
		if c.GroupID != nil && !groups[*c.GroupID] {
			s.log.Warn("dropping unknown group tag", "client_id", c.ID, "group_id", *c.GroupID)
			c.GroupID = nil
		}
	}
	objects := map[int64]bool{}
	for i := range doc.Objects {
		o := &doc.Objects[i]
		if err := checkEntity("object", o.ID, o, objects); err != nil {
			return err
		}
		if !clients[o.ClientID] {
			return fmt.Errorf("%w: object %d refers to missing client %d", ErrInvalidFormat, o.ID, o.ClientID)
		}
	}
	stations := map[int64]bool{}
	for i := range doc.Stations {
		st := &doc.Stations[i]
		if err := checkEntity("station", st.ID, st, stations); err != nil {
			return err
		}
		if !objects[st.ObjectID] {
			return fmt.Errorf("%w: station %d refers to missing object %d", ErrInvalidFormat, st.ID, st.ObjectID)
		}
	}
	return nil
}

// restoreTx clears the primary tables and inserts doc with ids preserved.
func restoreTx(ctx context.Context, tx types.Tx, doc *Document) error {
	if err := types.ClearAll(ctx, tx); err != nil {
		return err
	}
	for i := range doc.Groups {
		g := doc.Groups[i]
		if _, err := tx.Groups().Insert(ctx, &g); err != nil {
			return fmt.Errorf("restoring group %d: %w", doc.Groups[i].ID, err)
		}
	}
	for i := range doc.Clients {
		c := doc.Clients[i]
		if _, err := tx.Clients().Insert(ctx, &c); err != nil {
			return fmt.Errorf("restoring client %d: %w", doc.Clients[i].ID, err)
		}
	}
	for i := range doc.Objects {
		o := doc.Objects[i]
		if _, err := tx.Objects().Insert(ctx, &o); err != nil {
			return fmt.Errorf("restoring object %d: %w", doc.Objects[i].ID, err)
		}
	}
	for i := range doc.Stations {
		st := doc.Stations[i]
		if _, err := tx.Stations().Insert(ctx, &st); err != nil {
			return fmt.Errorf("restoring station %d: %w", doc.Stations[i].ID, err)
		}
	}
	return nil
}

// CaptureTx stores a snapshot of the current data as an internal backup and
// prunes the ring, inside tx.
func (s *Service) CaptureTx(ctx context.Context, tx types.Tx, reason string) (*types.InternalBackup, error) {
	doc, err := s.documentTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	b := &types.InternalBackup{Data: data, Reason: reason, CreatedAt: doc.Meta.Date}
	if _, err := tx.Backups().Insert(ctx, b); err != nil {
		return nil, err
	}
	pruned, err := tx.Backups().Prune(ctx, s.keep)
	if err != nil {
		return nil, err
	}
	s.log.Info("internal backup captured", "id", b.ID, "reason", reason,
		"backup_id", doc.Meta.BackupID, "pruned", pruned)
	return b, nil
}

// AutoBackup captures an internal backup in its own transaction.
func (s *Service) AutoBackup(ctx context.Context, reason string) (*types.InternalBackup, error) {
	var b *types.InternalBackup
	err := s.store.WithTx(ctx, func(tx types.Tx) error {
		var err error
		b, err = s.CaptureTx(ctx, tx, reason)
		return err
	})
	return b, err
}

// ListInternal returns the internal backups, newest first.
func (s *Service) ListInternal(ctx context.Context) ([]types.InternalBackup, error) {
	return s.store.Backups().List(ctx)
}

// Internal decodes the document held by internal backup id.
func (s *Service) Internal(ctx context.Context, id int64) (*Document, error) {
	b, err := s.store.Backups().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("internal backup %d: %w", id, err)
	}
	doc, err := decodeDocument(b.Data)
	if err != nil {
		return nil, fmt.Errorf("internal backup %d: %w", id, err)
	}
	return doc, nil
}

// RestoreInternal restores the store from internal backup id.
func (s *Service) RestoreInternal(ctx context.Context, id int64) error {
	doc, err := s.Internal(ctx, id)
	if err != nil {
		return err
	}
	return s.Restore(ctx, doc)
}

// IsImportError reports whether err is one of the user-facing import errors.
func IsImportError(err error) bool {
	return errors.Is(err, ErrInvalidFormat) || errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrWrongPassword)
}
