// Package backup exports the whole store to a JSON document, optionally
// password encrypted, and restores it by replacing every primary table in
// one transaction. It also keeps the ring of internal auto-backups and the
// tutorial dataset.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// Import errors. They are distinct so callers can tell a bad file from a bad
// password.
var (
	ErrInvalidFormat    = errors.New("invalid backup format")
	ErrPasswordRequired = errors.New("backup is encrypted, password required")
	ErrWrongPassword    = errors.New("wrong password or corrupted file")
)

// DefaultFilePrefix names export files when no prefix is given.
const DefaultFilePrefix = "svakisto_backup"

// Meta is the header of a backup document.
type Meta struct {
	Date       time.Time `json:"date"`
	Version    string    `json:"version"`
	ExportedBy string    `json:"exportedBy"`
	BackupID   string    `json:"backupId,omitempty"`
}

// Document is a full export of the four primary tables.
type Document struct {
	Meta     Meta                 `json:"meta"`
	Clients  []types.Client       `json:"clients"`
	Objects  []types.ClientObject `json:"objects"`
	Stations []types.Station      `json:"stations"`
	Groups   []types.Group        `json:"groups"`
}

// envelope wraps an encrypted document.
type envelope struct {
	Encrypted bool    `json:"encrypted"`
	Content   *string `json:"content,omitempty"`
}

// Preview summarizes a document before it is restored.
type Preview struct {
	Date     time.Time
	Version  string
	BackupID string
	Groups   int
	Clients  int
	Objects  int
	Stations int
}

// Preview returns entity counts and the source header. It does not touch
// the store.
func (d *Document) Preview() Preview {
	return Preview{
		Date:     d.Meta.Date,
		Version:  d.Meta.Version,
		BackupID: d.Meta.BackupID,
		Groups:   len(d.Groups),
		Clients:  len(d.Clients),
		Objects:  len(d.Objects),
		Stations: len(d.Stations),
	}
}

// Snapshot returns the document's tables.
func (d *Document) Snapshot() *types.Snapshot {
	return &types.Snapshot{
		Groups:   d.Groups,
		Clients:  d.Clients,
		Objects:  d.Objects,
		Stations: d.Stations,
	}
}

// Marshal renders the document as indented JSON, or as an encrypted
// envelope when password is not empty.
func (d *Document) Marshal(password string) ([]byte, error) {
	if password == "" {
		return json.MarshalIndent(d, "", "  ")
	}
	plain, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}
	content, err := Encrypt(plain, password)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(envelope{Encrypted: true, Content: &content}, "", "  ")
}

// IsEncrypted reports whether raw is an encrypted envelope. It returns
// ErrInvalidFormat when raw is not a JSON object.
func IsEncrypted(raw []byte) (bool, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return env.Encrypted, nil
}

// Parse decodes a backup file. Encrypted files need password; a missing
// password yields ErrPasswordRequired and a wrong one ErrWrongPassword.
// Anything that is not a backup document yields ErrInvalidFormat.
func Parse(raw []byte, password string) (*Document, error) {
	encrypted, err := IsEncrypted(raw)
	if err != nil {
		return nil, err
	}
	if encrypted {
		var env envelope
		_ = json.Unmarshal(raw, &env)
		if env.Content == nil || *env.Content == "" {
			return nil, fmt.Errorf("%w: encrypted backup has no content", ErrInvalidFormat)
		}
		if password == "" {
			return nil, ErrPasswordRequired
		}
		plain, err := Decrypt(*env.Content, password)
		if err != nil {
			return nil, err
		}
		doc, err := decodeDocument(plain)
		if err != nil {
			// A decryption that yields garbage is a wrong key, not a bad file.
			return nil, ErrWrongPassword
		}
		return doc, nil
	}
	return decodeDocument(raw)
}

// decodeDocument requires the clients, objects and stations arrays. Groups
// are optional because early exports predate them.
func decodeDocument(raw []byte) (*Document, error) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	for _, key := range []string{"clients", "objects", "stations"} {
		v, ok := shape[key]
		if !ok || len(bytes.TrimSpace(v)) == 0 || bytes.TrimSpace(v)[0] != '[' {
			return nil, fmt.Errorf("%w: missing %s array", ErrInvalidFormat, key)
		}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if doc.Groups == nil {
		doc.Groups = []types.Group{}
	}
	return &doc, nil
}

// FileName returns the default export file name for t.
func FileName(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	return fmt.Sprintf("%s_%s.json", prefix, t.Format("2006-01-02"))
}
