package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/svakisto/internal/settings"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change application settings",
	}

	show := &cobra.Command{
		Use:         "show",
		Short:       "Show the current settings",
		Args:        usageArgs(cobra.NoArgs),
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.settings
			tw := newTable(cmd.OutOrStdout(), "KEY", "VALUE")
			tw.AppendBulk([][]string{
				{"theme", s.Theme},
				{"locale", s.Locale},
				{"promo_shown", strconv.FormatBool(s.PromoShown)},
				{"lock", strconv.FormatBool(s.BiometricLock)},
				{"last_seen_changelog", s.LastSeenChangelog},
				{"last_seen_auto_popup", s.LastSeenAutoPopup},
				{"file", settings.Path(a.configDir)},
			})
			tw.Render()
			return nil
		},
	}

	set := &cobra.Command{
		Use:         "set <key> <value>",
		Short:       "Change a setting (theme, locale, promo_shown)",
		Args:        usageArgs(cobra.ExactArgs(2)),
		Annotations: map[string]string{skipStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.settings.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := a.saveSettings(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s set\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
