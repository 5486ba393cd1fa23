// Package update decides whether a newer release has release notes the user
// has not acknowledged yet, from a static version manifest.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultLocale is the fallback for release notes.
const DefaultLocale = "en"

// ErrEmptyManifest is returned when the manifest has no history.
var ErrEmptyManifest = errors.New("manifest has no releases")

// Release is one entry of the manifest history.
type Release struct {
	Version string              `json:"version"`
	Date    string              `json:"date,omitempty"`
	Notes   map[string][]string `json:"notes"`
	Silent  bool                `json:"silent,omitempty"`
}

// NotesFor returns the notes for locale. "sr-Latn" falls back to "sr", and
// anything missing falls back to English.
func (r *Release) NotesFor(locale string) []string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if notes, ok := r.Notes[locale]; ok {
		return notes
	}
	if base, _, found := strings.Cut(locale, "-"); found {
		if notes, ok := r.Notes[base]; ok {
			return notes
		}
	}
	return r.Notes[DefaultLocale]
}

// Manifest is the version document. History is sorted newest first.
type Manifest struct {
	Latest  string    `json:"latest"`
	History []Release `json:"history"`
}

// Newest returns the first history entry.
func (m *Manifest) Newest() (*Release, error) {
	if m == nil || len(m.History) == 0 {
		return nil, ErrEmptyManifest
	}
	return &m.History[0], nil
}

// Source fetches a manifest.
type Source interface {
	Fetch(ctx context.Context) (*Manifest, error)
}

// NewSource picks an HTTP source for http(s) URLs and a file source for
// anything else.
func NewSource(location string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{URL: location, Client: &http.Client{Timeout: timeout}}
	}
	return &FileSource{Path: strings.TrimPrefix(location, "file://")}
}

// HTTPSource fetches the manifest over HTTP. A timestamp query parameter
// defeats intermediate caches.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s *HTTPSource) Fetch(ctx context.Context) (*Manifest, error) {
	u, err := url.Parse(s.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest url: %w", err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(time.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching manifest: unexpected status %s", resp.Status)
	}
	return decodeManifest(io.LimitReader(resp.Body, 1<<20))
}

// FileSource reads the manifest from disk.
type FileSource struct {
	Path string
}

func (s *FileSource) Fetch(_ context.Context) (*Manifest, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()
	return decodeManifest(f)
}

func decodeManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &m, nil
}
