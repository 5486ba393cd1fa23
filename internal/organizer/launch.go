package organizer

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/svakisto/internal/launch"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// LaunchResult describes a completed launch.
type LaunchResult struct {
	Station        *types.Station
	URI            string
	PasswordCopied bool
}

// Launch opens a station: the password, if any, is copied to the clipboard,
// then the usage counter and last-used time are recorded, then the
// connection URI is handed to the opener. A clipboard failure is logged and
// does not stop the launch.
func (s *Service) Launch(ctx context.Context, stationID int64) (*LaunchResult, error) {
	st, err := s.store.Stations().Get(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("launching station %d: %w", stationID, err)
	}
	uri, err := launch.URI(s.scheme, st.AnydeskID)
	if err != nil {
		return nil, fmt.Errorf("launching station %d: %w", stationID, err)
	}

	res := &LaunchResult{Station: st, URI: uri}
	if st.HasPassword() {
		if err := s.clipboard.WriteAll(st.Password); err != nil {
			s.log.Warn("clipboard copy failed", "station_id", st.ID, "error", err)
		} else {
			res.PasswordCopied = true
		}
	}

	at := s.now().UTC()
	if err := s.store.Stations().RecordLaunch(ctx, st.ID, at); err != nil {
		return nil, fmt.Errorf("recording launch of station %d: %w", st.ID, err)
	}
	st.UsageCount++
	st.LastUsed = &at

	if err := s.opener.Open(ctx, uri); err != nil {
		return res, fmt.Errorf("opening %s: %w", uri, err)
	}
	s.log.Info("station launched", "station_id", st.ID, "uri", uri, "usage_count", st.UsageCount)
	return res, nil
}

// CopyPassword puts a station's password on the clipboard.
func (s *Service) CopyPassword(ctx context.Context, stationID int64) error {
	st, err := s.store.Stations().Get(ctx, stationID)
	if err != nil {
		return fmt.Errorf("station %d: %w", stationID, err)
	}
	if !st.HasPassword() {
		return ErrNoPassword
	}
	if err := s.clipboard.WriteAll(st.Password); err != nil {
		return fmt.Errorf("copying password: %w", err)
	}
	return nil
}
