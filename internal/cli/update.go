package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/svakisto/internal/update"
	"github.com/mesh-intelligence/svakisto/pkg/svakisto"
)

func (a *app) checker() *update.Checker {
	src := update.NewSource(a.cfg.GetString(cfgKeyManifestURL), a.cfg.GetDuration(cfgKeyTimeout))
	return update.NewChecker(src, svakisto.Version, a.log)
}

func newUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for new releases and read their notes",
	}

	check := &cobra.Command{
		Use:         "check",
		Short:       "Check the release manifest for unseen notes",
		Args:        usageArgs(cobra.NoArgs),
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.checker()
			st := c.Check(cmd.Context(), a.settings)
			out := cmd.OutOrStdout()
			if st.Release == nil {
				fmt.Fprintf(out, "svakisto v%s (update server unreachable)\n", svakisto.Version)
				return nil
			}
			fmt.Fprintf(out, "installed v%s, latest v%s\n", svakisto.Version, st.RemoteVersion())
			if !st.Unseen {
				fmt.Fprintln(out, "no new release notes")
				return nil
			}
			printNotes(cmd, st.Release, a.settings.Locale)
			if update.ShouldAutoPopup(a.settings, st) {
				update.AcknowledgePopup(&a.settings, st.RemoteVersion())
				if err := a.saveSettings(); err != nil {
					return err
				}
			}
			fmt.Fprintln(out, `run "svakisto update ack" to mark these notes as read`)
			return nil
		},
	}

	ack := &cobra.Command{
		Use:         "ack",
		Short:       "Mark the newest release notes as read",
		Args:        usageArgs(cobra.NoArgs),
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.checker()
			st := c.Check(cmd.Context(), a.settings)
			v := c.Acknowledge(&a.settings, st)
			if err := a.saveSettings(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "release notes up to v%s marked as read\n", v)
			return nil
		},
	}

	var locale string
	var history bool
	notes := &cobra.Command{
		Use:         "notes",
		Short:       "Print release notes",
		Args:        usageArgs(cobra.NoArgs),
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.checker().Manifest(cmd.Context())
			if err != nil {
				return err
			}
			if locale == "" {
				locale = a.settings.Locale
			}
			releases := m.History
			if !history && len(releases) > 0 {
				releases = releases[:1]
			}
			for i := range releases {
				printNotes(cmd, &releases[i], locale)
			}
			return nil
		},
	}
	notes.Flags().StringVar(&locale, "locale", "", "notes language (default: settings locale)")
	notes.Flags().BoolVar(&history, "all", false, "print every release, not only the newest")

	prepare := &cobra.Command{
		Use:   "prepare",
		Short: "Capture an update-auto-backup before installing a new version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ib, err := update.PrepareUpdate(cmd.Context(), a.backups)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "internal backup %d created, safe to update\n", ib.ID)
			return nil
		},
	}

	cmd.AddCommand(check, ack, notes, prepare)
	return cmd
}

func printNotes(cmd *cobra.Command, r *update.Release, locale string) {
	out := cmd.OutOrStdout()
	header := "v" + r.Version
	if r.Date != "" {
		header += " (" + r.Date + ")"
	}
	fmt.Fprintln(out, header)
	for _, line := range r.NotesFor(locale) {
		fmt.Fprintf(out, "  - %s\n", strings.TrimSpace(line))
	}
}
