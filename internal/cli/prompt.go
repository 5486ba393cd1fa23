package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// errAborted is returned when the user declines a confirmation.
var errAborted = errors.New("aborted")

// promptSecret reads a secret without echo when stdin is a terminal, and a
// plain line otherwise.
func (a *app) promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := a.deps.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimRight(string(b), "\r\n"), nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	return a.readLine()
}

// confirm asks a yes/no question; anything but y or yes declines.
func (a *app) confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)
	line, err := a.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// stdinReader wraps deps.stdin once so consecutive prompts share a buffer.
func (a *app) stdinReader() *bufio.Reader {
	if r, ok := a.deps.stdin.(*bufio.Reader); ok {
		return r
	}
	r := bufio.NewReader(a.deps.stdin)
	a.deps.stdin = r
	return r
}

func (a *app) readLine() (string, error) {
	line, err := a.stdinReader().ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// newTable returns a table writer with the house style.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoWrapText(false)
	tw.SetBorder(false)
	return tw
}

// parseID parses a positive entity id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidID, s)
	}
	return id, nil
}

// parseRefs parses kind:id arguments.
func parseRefs(args []string) ([]types.ItemRef, error) {
	refs := make([]types.ItemRef, 0, len(args))
	for _, arg := range args {
		ref, err := types.ParseItemRef(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// parseGroupFlag turns a --group value into a group id; "" and "none" clear
// the tag.
func parseGroupFlag(s string) (*int64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return nil, nil
	}
	id, err := parseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// timeLayout is the display format for timestamps.
const timeLayout = "2006-01-02 15:04"

func formatLastUsed(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Local().Format(timeLayout)
}
