package update

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/svakisto/internal/settings"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// Status is the outcome of a check. Release is nil when the manifest could
// not be read.
type Status struct {
	Release *Release
	Unseen  bool
}

// RemoteVersion returns the newest manifest version, or "".
func (s Status) RemoteVersion() string {
	if s.Release == nil {
		return ""
	}
	return s.Release.Version
}

// Checker compares the manifest against the persisted markers.
type Checker struct {
	source     Source
	appVersion string
	log        *slog.Logger
}

// NewChecker returns a Checker reading from source.
func NewChecker(source Source, appVersion string, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{source: source, appVersion: appVersion, log: log}
}

// Check fetches the manifest and reports whether its newest release is
// unseen: its version differs from LastSeenChangelog and it is not silent.
// Fetch failures are logged and reported as "nothing new".
func (c *Checker) Check(ctx context.Context, s settings.Settings) Status {
	m, err := c.source.Fetch(ctx)
	if err != nil {
		c.log.Warn("update check failed", "error", err)
		return Status{}
	}
	newest, err := m.Newest()
	if err != nil {
		c.log.Warn("update check failed", "error", err)
		return Status{}
	}
	st := Status{
		Release: newest,
		Unseen:  newest.Version != s.LastSeenChangelog && !newest.Silent,
	}
	c.log.Debug("update checked", "remote", newest.Version, "app", c.appVersion,
		"last_seen", s.LastSeenChangelog, "unseen", st.Unseen)
	return st
}

// Manifest fetches the manifest without comparing it.
func (c *Checker) Manifest(ctx context.Context) (*Manifest, error) {
	return c.source.Fetch(ctx)
}

// Acknowledge marks the changelog as seen. The remote version is recorded
// when known, otherwise the running version. Returns the recorded version.
func (c *Checker) Acknowledge(s *settings.Settings, st Status) string {
	v := st.RemoteVersion()
	if v == "" {
		v = c.appVersion
	}
	s.LastSeenChangelog = v
	return v
}

// ShouldAutoPopup reports whether the one-time popup should be shown for
// the newest release.
func ShouldAutoPopup(s settings.Settings, st Status) bool {
	return st.Release != nil && !st.Release.Silent && st.Release.Version != s.LastSeenAutoPopup
}

// AcknowledgePopup records that the popup for version was shown.
func AcknowledgePopup(s *settings.Settings, version string) {
	s.LastSeenAutoPopup = version
}

// Backuper captures an internal backup.
type Backuper interface {
	AutoBackup(ctx context.Context, reason string) (*types.InternalBackup, error)
}

// PrepareUpdate captures the update-auto-backup that must exist before a
// new version is installed.
func PrepareUpdate(ctx context.Context, b Backuper) (*types.InternalBackup, error) {
	ib, err := b.AutoBackup(ctx, types.ReasonUpdate)
	if err != nil {
		return nil, fmt.Errorf("backing up before update: %w", err)
	}
	return ib, nil
}
