package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/svakisto/internal/backup"
	"github.com/mesh-intelligence/svakisto/internal/lock"
	"github.com/mesh-intelligence/svakisto/internal/sqlite"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

type fakeClipboard struct{ text string }

func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

type fakeOpener struct{ uris []string }

func (o *fakeOpener) Open(_ context.Context, uri string) error {
	o.uris = append(o.uris, uri)
	return nil
}

// harness runs the CLI against isolated config and data directories.
type harness struct {
	t         *testing.T
	configDir string
	dataDir   string
	clipboard *fakeClipboard
	opener    *fakeOpener
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	return &harness{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
		clipboard: &fakeClipboard{},
		opener:    &fakeOpener{},
	}
}

type result struct {
	stdout string
	stderr string
	code   int
}

// run executes args with stdin fed from input.
func (h *harness) run(input string, args ...string) result {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	d := deps{
		clipboard: h.clipboard,
		opener:    h.opener,
		stdin:     strings.NewReader(input),
		auth:      lock.Passphrase{},
	}
	full := append([]string{"--config-dir", h.configDir, "--data-dir", h.dataDir}, args...)
	code := run(full, &stdout, &stderr, d)
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

// mustRun fails the test unless args exit with exitSuccess.
func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	res := h.run("", args...)
	require.Equal(h.t, exitSuccess, res.code, "args %v\nstdout: %s\nstderr: %s", args, res.stdout, res.stderr)
	return res.stdout
}

// seed builds Acme > HQ > Reception (id 1, password "pw").
func (h *harness) seed() {
	h.t.Helper()
	h.mustRun("group", "add", "Customers", "--color", "#3b82f6")
	h.mustRun("client", "add", "Acme", "--group", "1")
	h.mustRun("object", "add", "1", "HQ")
	h.mustRun("station", "add", "1", "Reception", "123 456 789", "--password", "pw")
}

func (h *harness) treeRefs(args ...string) []string {
	h.t.Helper()
	out := h.mustRun(append([]string{"tree", "--json"}, args...)...)
	var nodes []treeNode
	require.NoError(h.t, json.Unmarshal([]byte(out), &nodes))
	refs := make([]string, 0, len(nodes))
	for _, n := range nodes {
		refs = append(refs, n.Ref)
	}
	return refs
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	assert.Contains(t, out, "svakisto v")
	assert.NoDirExists(t, h.dataDir, "version does not open the store")
}

func TestInit(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("init")
	assert.Contains(t, out, "initialized successfully")
	assert.FileExists(t, filepath.Join(h.dataDir, sqlite.DatabaseFile))
	assert.FileExists(t, filepath.Join(h.configDir, configFileExt))
}

func TestTree_SearchAndGroups(t *testing.T) {
	h := newHarness(t)
	h.seed()
	h.mustRun("client", "add", "Globex")
	h.mustRun("object", "add", "2", "Plant")

	assert.Equal(t, []string{"client:1", "object:1", "station:1", "client:2", "object:2"}, h.treeRefs())
	assert.Equal(t, []string{"client:1", "object:1", "station:1"}, h.treeRefs("--search", "456"))
	assert.Equal(t, []string{"client:2", "object:2"}, h.treeRefs("--group", "none"))
	assert.Equal(t, []string{"client:1", "object:1", "station:1"}, h.treeRefs("--group", "1"))

	out := h.mustRun("tree", "--search", "nothing-like-this")
	assert.Contains(t, out, "nothing matches")

	out = h.mustRun("tree")
	assert.Contains(t, out, "[Customers]")
	assert.Contains(t, out, "(station:1)")
}

func TestLaunch(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out := h.mustRun("launch", "1")
	assert.Contains(t, out, "password copied")
	assert.Equal(t, "pw", h.clipboard.text)
	assert.Equal(t, []string{"anydesk:123456789"}, h.opener.uris)

	out = h.mustRun("station", "show", "1")
	assert.NotContains(t, out, "never")
	assert.NotContains(t, out, "pw ")
	assert.Contains(t, h.mustRun("station", "show", "1", "--reveal"), "pw")
}

func TestEditMissingIsNoop(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("client", "edit", "42", "--name", "Ghost")
	assert.Contains(t, out, "not found, nothing changed")
	out = h.mustRun("object", "edit", "42", "--name", "Ghost")
	assert.Contains(t, out, "not found, nothing changed")
}

func TestDeleteAndMove(t *testing.T) {
	h := newHarness(t)
	h.seed()
	h.mustRun("client", "add", "Globex")
	h.mustRun("object", "add", "2", "Plant")
	h.mustRun("station", "add", "1", "Server", "999")

	out := h.mustRun("move", "--to", "2", "station:1", "station:2")
	assert.Contains(t, out, "2 item(s) moved")
	assert.Equal(t, []string{"client:1", "object:1", "client:2", "object:2", "station:1", "station:2"}, h.treeRefs())

	out = h.mustRun("delete", "client:2")
	assert.Contains(t, out, "deleted 1 client(s), 1 object(s), 2 station(s)")
	assert.Equal(t, []string{"client:1", "object:1"}, h.treeRefs())
}

func TestExitCodes(t *testing.T) {
	h := newHarness(t)
	h.seed()

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"empty name", []string{"client", "add", " "}, exitUserError},
		{"missing parent", []string{"object", "add", "99", "Lobby"}, exitUserError},
		{"client move", []string{"move", "--to", "1", "client:1"}, exitUserError},
		{"mixed move", []string{"move", "--to", "1", "object:1", "station:1"}, exitUserError},
		{"bad ref", []string{"delete", "planet:1"}, exitUserError},
		{"bad id", []string{"launch", "abc"}, exitUserError},
		{"missing station", []string{"launch", "77"}, exitUserError},
		{"no args", []string{"object", "add"}, exitUserError},
		{"unknown command", []string{"frobnicate"}, exitUserError},
		{"unknown flag", []string{"tree", "--colour"}, exitUserError},
		{"missing --to", []string{"move", "station:1"}, exitUserError},
		{"bad sort", []string{"tree", "--sort", "size"}, exitUserError},
		{"unknown setting", []string{"settings", "set", "volume", "11"}, exitUserError},
		{"bad theme", []string{"settings", "set", "theme", "purple"}, exitUserError},
		{"import missing file", []string{"import", filepath.Join(t.TempDir(), "nope.json")}, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.run("", tt.args...)
			assert.Equal(t, tt.code, res.code, "stderr: %s", res.stderr)
			assert.Contains(t, res.stderr, "error:")
		})
	}
}

func TestExportImport_Encrypted(t *testing.T) {
	h := newHarness(t)
	h.seed()
	file := filepath.Join(t.TempDir(), "office.json")

	out := h.mustRun("export", "--password", "s3cret", "--out", file)
	assert.Contains(t, out, "exported 1 client(s), 1 object(s), 1 station(s), 1 group(s)")
	raw, err := os.ReadFile(file)
	require.NoError(t, err)
	encrypted, err := backup.IsEncrypted(raw)
	require.NoError(t, err)
	assert.True(t, encrypted)

	h.mustRun("wipe", "--yes")
	assert.Contains(t, h.mustRun("tree"), "no clients yet")

	res := h.run("wrong\n", "import", file)
	assert.Equal(t, exitUserError, res.code)
	assert.Empty(t, h.treeRefs(), "failed import leaves the store untouched")

	res = h.run("s3cret\nn\n", "import", file)
	assert.Equal(t, exitUserError, res.code, "declined confirmation aborts")
	assert.Empty(t, h.treeRefs())

	res = h.run("s3cret\ny\n", "import", file)
	require.Equal(t, exitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "CLIENTS")
	assert.Equal(t, []string{"client:1", "object:1", "station:1"}, h.treeRefs())

	h.mustRun("launch", "1")
	assert.Equal(t, "pw", h.clipboard.text, "passwords survive the round trip")
}

func TestBackups(t *testing.T) {
	h := newHarness(t)
	h.seed()
	h.mustRun("wipe", "--yes")

	out := h.mustRun("backups", "list")
	assert.Contains(t, out, types.ReasonWipe)

	h.mustRun("backups", "restore", "1", "--yes")
	assert.Equal(t, []string{"client:1", "object:1", "station:1"}, h.treeRefs())

	for range 4 {
		h.mustRun("backups", "create")
	}
	out = h.mustRun("backups", "list")
	assert.Equal(t, types.MaxInternalBackups, strings.Count(out, types.ReasonManual))
	assert.NotContains(t, out, types.ReasonWipe, "oldest backups are evicted")
}

func TestTutorial(t *testing.T) {
	h := newHarness(t)
	h.mustRun("tutorial", "load", "--yes")
	out := h.mustRun("tutorial", "check")
	assert.Equal(t, 3, strings.Count(out, "- "))

	h.mustRun("client", "edit", "1", "--group", "2")
	h.mustRun("client", "edit", "2", "--group", "3")
	h.mustRun("station", "move", "2", "--to", "2")
	assert.Contains(t, h.mustRun("tutorial", "check"), "all goals met")
	assert.Contains(t, h.mustRun("backups", "list"), types.ReasonTutorial)
}

func TestUpdate(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "version.json")
	require.NoError(t, os.WriteFile(manifest, []byte(`{
  "latest": "9.0.0",
  "history": [
    {"version": "9.0.0", "date": "2026-10-01", "notes": {"en": ["Faster search"], "sr": ["Brža pretraga"]}}
  ]
}`), 0o644))
	t.Setenv("SVAKISTO_UPDATE_MANIFEST_URL", manifest)

	h := newHarness(t)
	out := h.mustRun("update", "check")
	assert.Contains(t, out, "latest v9.0.0")
	assert.Contains(t, out, "Faster search")

	assert.Contains(t, h.mustRun("update", "ack"), "v9.0.0")
	assert.Contains(t, h.mustRun("update", "check"), "no new release notes")
	assert.Contains(t, h.mustRun("update", "notes", "--locale", "sr"), "Brža pretraga")

	out = h.mustRun("update", "prepare")
	assert.Contains(t, out, "safe to update")
	assert.Contains(t, h.mustRun("backups", "list"), types.ReasonUpdate)
}

func TestUpdate_UnreachableManifest(t *testing.T) {
	t.Setenv("SVAKISTO_UPDATE_MANIFEST_URL", filepath.Join(t.TempDir(), "missing.json"))
	h := newHarness(t)
	out := h.mustRun("update", "check")
	assert.Contains(t, out, "unreachable")
	assert.Contains(t, h.mustRun("update", "ack"), "marked as read")
}

func TestSettings(t *testing.T) {
	h := newHarness(t)
	h.mustRun("settings", "set", "theme", "dark")
	out := h.mustRun("settings", "show")
	assert.Contains(t, out, "dark")
}

func TestLock(t *testing.T) {
	h := newHarness(t)
	h.seed()

	h.mustRun("--unlock", "open sesame", "lock", "enroll")

	res := h.run("wrong\n", "tree")
	assert.Equal(t, exitUserError, res.code)

	h.mustRun("--unlock", "open sesame", "tree")
	res = h.run("open sesame\n", "launch", "1")
	assert.Equal(t, exitSuccess, res.code, res.stderr)

	h.mustRun("--unlock", "open sesame", "lock", "disable")
	h.mustRun("tree")
}

func TestLock_GuardsStoreCommands(t *testing.T) {
	h := newHarness(t)
	h.seed()
	h.mustRun("--unlock", "open sesame", "lock", "enroll")

	guarded := [][]string{
		{"group", "list"},
		{"object", "destinations", "1"},
		{"station", "destinations", "1"},
		{"backups", "list"},
		{"delete", "station:1"},
		{"wipe", "--yes"},
	}
	for _, args := range guarded {
		res := h.run("wrong\n", args...)
		assert.Equal(t, exitUserError, res.code, "%v: %s", args, res.stdout)
	}
	out := h.mustRun("--unlock", "open sesame", "tree")
	assert.Contains(t, out, "Reception", "rejected commands changed nothing")

	h.mustRun("init")
	h.mustRun("--unlock", "open sesame", "group", "list")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"validation", fmt.Errorf("add: %w", types.ErrValidation), exitUserError},
		{"wrong password", backup.ErrWrongPassword, exitUserError},
		{"usage", usageError{errors.New("bad flag")}, exitUserError},
		{"system", systemError{errors.New("disk full")}, exitSysError},
		{"unknown", errors.New("database is locked"), exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
