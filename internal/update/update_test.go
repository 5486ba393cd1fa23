package update

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/svakisto/internal/settings"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

const manifestJSON = `{
  "latest": "1.5.0",
  "history": [
    {"version": "1.5.0", "date": "2026-10-01", "notes": {"en": ["Groups"], "sr": ["Grupe"]}},
    {"version": "1.4.0", "notes": {"en": ["Tutorial"]}}
  ]
}`

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type staticSource struct {
	m   *Manifest
	err error
}

func (s staticSource) Fetch(context.Context) (*Manifest, error) { return s.m, s.err }

func TestHTTPSource(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("t")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, manifestJSON)
	}))
	defer srv.Close()

	src := NewSource(srv.URL+"/version.json", time.Second)
	require.IsType(t, &HTTPSource{}, src)

	m, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.5.0", m.Latest)
	assert.Len(t, m.History, 2)
	assert.NotEmpty(t, gotQuery, "cache-busting parameter is sent")
}

func TestHTTPSource_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewSource(srv.URL, time.Second).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "version.json")
	require.NoError(t, os.WriteFile(path, []byte(manifestJSON), 0o644))

	src := NewSource("file://"+path, time.Second)
	m, err := src.Fetch(context.Background())
	require.NoError(t, err)
	newest, err := m.Newest()
	require.NoError(t, err)
	assert.Equal(t, "1.5.0", newest.Version)
}

func TestChecker_Check(t *testing.T) {
	m := &Manifest{History: []Release{{Version: "1.5.0"}, {Version: "1.4.0"}}}
	silent := &Manifest{History: []Release{{Version: "1.5.1", Silent: true}}}

	tests := []struct {
		name     string
		source   Source
		lastSeen string
		unseen   bool
		remote   string
	}{
		{"never seen", staticSource{m: m}, "", true, "1.5.0"},
		{"older seen", staticSource{m: m}, "1.4.0", true, "1.5.0"},
		{"already seen", staticSource{m: m}, "1.5.0", false, "1.5.0"},
		{"silent release", staticSource{m: silent}, "1.5.0", false, "1.5.1"},
		{"empty manifest", staticSource{m: &Manifest{}}, "", false, ""},
		{"fetch failure", staticSource{err: errors.New("offline")}, "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings.Default()
			s.LastSeenChangelog = tt.lastSeen
			st := NewChecker(tt.source, "1.4.0", quiet()).Check(context.Background(), s)
			assert.Equal(t, tt.unseen, st.Unseen)
			assert.Equal(t, tt.remote, st.RemoteVersion())
		})
	}
}

func TestChecker_Acknowledge(t *testing.T) {
	c := NewChecker(staticSource{err: errors.New("offline")}, "1.4.0", quiet())
	s := settings.Default()

	st := c.Check(context.Background(), s)
	assert.Equal(t, "1.4.0", c.Acknowledge(&s, st), "falls back to the running version")

	c = NewChecker(staticSource{m: &Manifest{History: []Release{{Version: "2.0.0"}}}}, "1.4.0", quiet())
	st = c.Check(context.Background(), s)
	require.True(t, st.Unseen)
	assert.Equal(t, "2.0.0", c.Acknowledge(&s, st))
	assert.False(t, c.Check(context.Background(), s).Unseen)
}

func TestAutoPopup(t *testing.T) {
	s := settings.Default()
	st := Status{Release: &Release{Version: "1.5.0"}}

	assert.True(t, ShouldAutoPopup(s, st))
	AcknowledgePopup(&s, "1.5.0")
	assert.False(t, ShouldAutoPopup(s, st))
	assert.Empty(t, s.LastSeenChangelog, "popup marker is independent of the changelog marker")
	assert.False(t, ShouldAutoPopup(s, Status{}))
}

func TestRelease_NotesFor(t *testing.T) {
	r := Release{Notes: map[string][]string{"en": {"Groups"}, "sr": {"Grupe"}}}
	assert.Equal(t, []string{"Grupe"}, r.NotesFor("sr"))
	assert.Equal(t, []string{"Grupe"}, r.NotesFor("sr-Latn"))
	assert.Equal(t, []string{"Groups"}, r.NotesFor("de"))
}

type countingBackuper struct{ reasons []string }

func (c *countingBackuper) AutoBackup(_ context.Context, reason string) (*types.InternalBackup, error) {
	c.reasons = append(c.reasons, reason)
	return &types.InternalBackup{ID: 1, Reason: reason}, nil
}

func TestPrepareUpdate(t *testing.T) {
	b := &countingBackuper{}
	ib, err := PrepareUpdate(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, types.ReasonUpdate, ib.Reason)
	assert.Equal(t, []string{types.ReasonUpdate}, b.reasons)
}
