package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLaunchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "launch <stationId>",
		Short: "Open a station in the remote-desktop client",
		Long: `Open a station. Its password, if any, is copied to the clipboard first,
then the usage counter is recorded and the connection URI is handed to the
system.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := a.organizer.Launch(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.PasswordCopied {
				fmt.Fprintln(out, "password copied to clipboard")
			}
			fmt.Fprintf(out, "opening %s (%s)\n", res.Station.Name, res.URI)
			return nil
		},
	}
}

func newCopyPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy-password <stationId>",
		Short: "Copy a station's password to the clipboard",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.organizer.CopyPassword(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password copied to clipboard")
			return nil
		},
	}
}
