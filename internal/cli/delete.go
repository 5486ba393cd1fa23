package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/svakisto/internal/organizer"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind:id>...",
		Short: "Delete nodes and everything under them",
		Long: `Delete one or more nodes. Deleting a client removes its objects and their
stations; deleting an object removes its stations. All deletions run in one
transaction: if any fails, nothing is deleted.

Example:
  svakisto delete station:7
  svakisto delete client:1 object:4 station:9`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := parseRefs(args)
			if err != nil {
				return err
			}
			res, err := a.organizer.BulkDelete(cmd.Context(), refs)
			if err != nil {
				return err
			}
			printDeleteResult(cmd, res)
			return nil
		},
	}
}

func printDeleteResult(cmd *cobra.Command, res organizer.DeleteResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d client(s), %d object(s), %d station(s)\n",
		res.Clients, res.Objects, res.Stations)
}

func newMoveCmd(a *app) *cobra.Command {
	var to int64
	cmd := &cobra.Command{
		Use:   "move --to <parentId> <kind:id>...",
		Short: "Move objects into a client, or stations into an object",
		Long: `Move a selection under a new parent. The selection must be all objects
(the destination is a client id) or all stations (the destination is an
object id). Clients cannot be moved.

Example:
  svakisto move --to 3 station:7 station:8
  svakisto move --to 2 object:5`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := parseRefs(args)
			if err != nil {
				return err
			}
			moved, err := a.organizer.BulkMove(cmd.Context(), refs, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d item(s) moved\n", moved)
			return nil
		},
	}
	cmd.Flags().Int64Var(&to, "to", 0, "destination parent id")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
