package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

func newObjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "object",
		Short: "Manage objects (sites) under clients",
	}

	add := &cobra.Command{
		Use:   "add <clientId> <name>",
		Short: "Create an object under a client",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := parseID(args[0])
			if err != nil {
				return err
			}
			o, err := a.organizer.AddObject(cmd.Context(), clientID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "object %d created\n", o.ID)
			return nil
		},
	}

	var name string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rename an object",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			found, err := a.organizer.EditObject(cmd.Context(), id, name)
			if err != nil {
				return err
			}
			if !found {
				return reportMissing(cmd, "object", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "object %d updated\n", id)
			return nil
		},
	}
	edit.Flags().StringVar(&name, "name", "", "new name")
	_ = edit.MarkFlagRequired("name")

	cmd.AddCommand(add, edit,
		newDeleteKindCmd(a, types.KindObject),
		newMoveKindCmd(a, types.KindObject),
		newDestinationsCmd(a, types.KindObject),
	)
	return cmd
}

// newDestinationsCmd lists where a node of kind can be moved.
func newDestinationsCmd(a *app, kind types.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "destinations [filter]",
		Short: fmt.Sprintf("List the %ss a %s can be moved into", kind.ParentKind(), kind),
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			}
			dests, err := a.organizer.Destinations(cmd.Context(), kind, text)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "REF", "NAME", "CLIENT")
			for _, d := range dests {
				tw.Append([]string{d.Ref.String(), d.Name, d.Subtitle})
			}
			tw.Render()
			return nil
		},
	}
}
