package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/svakisto/pkg/types"
)

func newGroupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage client groups",
	}

	var color string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a group",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.organizer.AddGroup(cmd.Context(), args[0], color)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "group %d created\n", g.ID)
			return nil
		},
	}
	add.Flags().StringVar(&color, "color", "", "badge colour, e.g. #3b82f6")

	var editName, editColor string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rename or recolour a group",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			g, err := a.store.Groups().Get(cmd.Context(), id)
			if errors.Is(err, types.ErrNotFound) {
				return reportMissing(cmd, "group", id)
			}
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				g.Name = editName
			}
			if cmd.Flags().Changed("color") {
				g.Color = editColor
			}
			found, err := a.organizer.EditGroup(cmd.Context(), id, g.Name, g.Color)
			if err != nil {
				return err
			}
			if !found {
				return reportMissing(cmd, "group", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "group %d updated\n", id)
			return nil
		},
	}
	edit.Flags().StringVar(&editName, "name", "", "new name")
	edit.Flags().StringVar(&editColor, "color", "", "new colour")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a group; its clients become ungrouped",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			detached, err := a.organizer.DeleteGroup(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "group %d deleted, %d client(s) ungrouped\n", id, detached)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := a.organizer.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "COLOR")
			for _, g := range groups {
				tw.Append([]string{strconv.FormatInt(g.ID, 10), g.Name, g.Color})
			}
			tw.Render()
			return nil
		},
	}

	cmd.AddCommand(add, edit, del, list)
	return cmd
}

// reportMissing prints the no-op notice for edits of rows that are gone.
func reportMissing(cmd *cobra.Command, what string, id int64) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d not found, nothing changed\n", what, id)
	return nil
}
