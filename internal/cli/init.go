package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize svakisto storage",
		Long:  "Create the configuration and data directories and bring the database schema up to date.",
		Annotations: map[string]string{skipLock: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := a.store.SchemaVersion()
			if err != nil {
				return systemError{err}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "svakisto initialized successfully")
			fmt.Fprintf(out, "config:   %s\n", a.configDir)
			fmt.Fprintf(out, "database: %s (schema v%d)\n", a.store.Path(), version)
			return nil
		},
	}
}
