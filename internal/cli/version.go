package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/svakisto/pkg/svakisto"
)

const modulePath = "github.com/mesh-intelligence/svakisto"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the svakisto version",
		// Runs before configuration is loaded.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "svakisto v%s\nmodule: %s\n", svakisto.Version, modulePath)
			return nil
		},
	}
}
