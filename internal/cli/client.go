package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/svakisto/internal/tree"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

func newClientCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage clients",
	}

	var group string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a client",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseGroupFlag(group)
			if err != nil {
				return err
			}
			c, err := a.organizer.AddClient(cmd.Context(), args[0], groupID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "client %d created\n", c.ID)
			return nil
		},
	}
	add.Flags().StringVar(&group, "group", "", "group id to tag the client with")

	var editName, editGroup string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rename a client or change its group",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.store.Clients().Get(cmd.Context(), id)
			if errors.Is(err, types.ErrNotFound) {
				return reportMissing(cmd, "client", id)
			}
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				c.Name = editName
			}
			if cmd.Flags().Changed("group") {
				if c.GroupID, err = parseGroupFlag(editGroup); err != nil {
					return err
				}
			}
			found, err := a.organizer.EditClient(cmd.Context(), id, c.Name, c.GroupID)
			if err != nil {
				return err
			}
			if !found {
				return reportMissing(cmd, "client", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "client %d updated\n", id)
			return nil
		},
	}
	edit.Flags().StringVar(&editName, "name", "", "new name")
	edit.Flags().StringVar(&editGroup, "group", "", "group id, or none to clear")

	list := &cobra.Command{
		Use:   "list",
		Short: "List clients with their object and station counts",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := a.organizer.Tree(cmd.Context(), tree.Query{Sort: tree.SortName})
			if err != nil {
				return err
			}
			groups, err := a.organizer.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			groupNames := make(map[int64]string, len(groups))
			for _, g := range groups {
				groupNames[g.ID] = g.Name
			}
			objects := map[int64]int{}
			clientOf := map[int64]int64{}
			for _, o := range view.Objects {
				objects[o.ClientID]++
				clientOf[o.ID] = o.ClientID
			}
			stations := map[int64]int{}
			for _, s := range view.Stations {
				stations[clientOf[s.ObjectID]]++
			}

			tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "GROUP", "OBJECTS", "STATIONS")
			for _, c := range view.Clients {
				var groupName string
				if !c.Ungrouped() {
					groupName = groupNames[*c.GroupID]
				}
				tw.Append([]string{
					strconv.FormatInt(c.ID, 10), c.Name, groupName,
					strconv.Itoa(objects[c.ID]), strconv.Itoa(stations[c.ID]),
				})
			}
			tw.Render()
			return nil
		},
	}

	cmd.AddCommand(add, edit, newDeleteKindCmd(a, types.KindClient), list)
	return cmd
}

// newDeleteKindCmd returns "<kind> delete <id>", which cascades like the
// top-level delete command.
func newDeleteKindCmd(a *app, kind types.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: fmt.Sprintf("Delete a %s and everything under it", kind),
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := a.organizer.Delete(cmd.Context(), types.ItemRef{Kind: kind, ID: id})
			if err != nil {
				return err
			}
			printDeleteResult(cmd, res)
			return nil
		},
	}
}

// newMoveKindCmd returns "<kind> move <id> --to <parent>".
func newMoveKindCmd(a *app, kind types.Kind) *cobra.Command {
	var to int64
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: fmt.Sprintf("Move a %s under another %s", kind, kind.ParentKind()),
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			moved, err := a.organizer.Move(cmd.Context(), types.ItemRef{Kind: kind, ID: id}, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d item(s) moved to %s:%d\n", moved, kind.ParentKind(), to)
			return nil
		},
	}
	cmd.Flags().Int64Var(&to, "to", 0, fmt.Sprintf("destination %s id", kind.ParentKind()))
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
