// Package launch hands a station off to the external remote-desktop client:
// the password goes to the system clipboard and the connection id is opened
// as a <scheme>:<id> URI.
package launch

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
)

// DefaultScheme is the URI scheme registered by the AnyDesk client.
const DefaultScheme = "anydesk"

// ErrEmptyTarget is returned when there is no connection id to hand off.
var ErrEmptyTarget = errors.New("connection id is empty")

// Clipboard writes text to a clipboard.
type Clipboard interface {
	WriteAll(text string) error
}

// Opener passes a URI to whatever the platform has registered for its scheme.
type Opener interface {
	Open(ctx context.Context, uri string) error
}

// URI builds the handoff URI for a connection id. Spaces inside the id are
// removed because AnyDesk ids are often written in groups.
func URI(scheme, id string) (string, error) {
	id = strings.Join(strings.Fields(id), "")
	if id == "" {
		return "", ErrEmptyTarget
	}
	if scheme == "" {
		scheme = DefaultScheme
	}
	return scheme + ":" + id, nil
}

// SystemClipboard is the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard not supported on this platform")
	}
	return clipboard.WriteAll(text)
}

// SystemOpener opens URIs with xdg-open, open or rundll32 depending on the OS.
// It starts the handler and does not wait for it.
type SystemOpener struct{}

func (SystemOpener) Open(ctx context.Context, uri string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", uri)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", uri)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", uri)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", cmd.Path, err)
	}
	return cmd.Process.Release()
}
