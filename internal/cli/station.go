package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/svakisto/internal/organizer"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

func newStationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "station",
		Short: "Manage stations (remote-desktop targets)",
	}

	var (
		password       string
		promptPassword bool
	)
	add := &cobra.Command{
		Use:   "add <objectId> <name> <anydeskId>",
		Short: "Create a station under an object",
		Args:  usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			objectID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if promptPassword {
				if password, err = a.promptSecret(cmd, "Station password: "); err != nil {
					return err
				}
			}
			st, err := a.organizer.AddStation(cmd.Context(), objectID, organizer.StationInput{
				Name:      args[1],
				AnydeskID: args[2],
				Password:  password,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "station %d created\n", st.ID)
			return nil
		},
	}
	add.Flags().StringVar(&password, "password", "", "connection password")
	add.Flags().BoolVar(&promptPassword, "prompt-password", false, "read the password from the terminal")

	var (
		editName, editAnydesk, editPassword string
		clearPassword, editPrompt          bool
	)
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a station's name, AnyDesk id or password",
		Long:  "Change a station's name, AnyDesk id or password. Usage statistics are kept.",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := a.store.Stations().Get(cmd.Context(), id)
			if errors.Is(err, types.ErrNotFound) {
				return reportMissing(cmd, "station", id)
			}
			if err != nil {
				return err
			}
			in := organizer.StationInput{Name: st.Name, AnydeskID: st.AnydeskID, Password: st.Password}
			if cmd.Flags().Changed("name") {
				in.Name = editName
			}
			if cmd.Flags().Changed("anydesk-id") {
				in.AnydeskID = editAnydesk
			}
			switch {
			case clearPassword:
				in.Password = ""
			case editPrompt:
				if in.Password, err = a.promptSecret(cmd, "Station password: "); err != nil {
					return err
				}
			case cmd.Flags().Changed("password"):
				in.Password = editPassword
			}
			found, err := a.organizer.EditStation(cmd.Context(), id, in)
			if err != nil {
				return err
			}
			if !found {
				return reportMissing(cmd, "station", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "station %d updated\n", id)
			return nil
		},
	}
	edit.Flags().StringVar(&editName, "name", "", "new name")
	edit.Flags().StringVar(&editAnydesk, "anydesk-id", "", "new AnyDesk id")
	edit.Flags().StringVar(&editPassword, "password", "", "new password")
	edit.Flags().BoolVar(&editPrompt, "prompt-password", false, "read the new password from the terminal")
	edit.Flags().BoolVar(&clearPassword, "clear-password", false, "remove the stored password")
	edit.MarkFlagsMutuallyExclusive("password", "prompt-password", "clear-password")

	var reveal bool
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a station",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := a.store.Stations().Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("station %d: %w", id, err)
			}
			pw := "(none)"
			if st.HasPassword() {
				pw = "********"
				if reveal {
					pw = st.Password
				}
			}
			tw := newTable(cmd.OutOrStdout(), "FIELD", "VALUE")
			tw.AppendBulk([][]string{
				{"id", strconv.FormatInt(st.ID, 10)},
				{"object", strconv.FormatInt(st.ObjectID, 10)},
				{"name", st.Name},
				{"anydesk id", st.AnydeskID},
				{"password", pw},
				{"usage count", strconv.FormatInt(st.UsageCount, 10)},
				{"last used", formatLastUsed(st.LastUsed)},
				{"created", st.CreatedAt.Local().Format(timeLayout)},
			})
			tw.Render()
			return nil
		},
	}
	show.Flags().BoolVar(&reveal, "reveal", false, "print the password in clear text")

	cmd.AddCommand(add, edit, show,
		newDeleteKindCmd(a, types.KindStation),
		newMoveKindCmd(a, types.KindStation),
		newDestinationsCmd(a, types.KindStation),
	)
	return cmd
}
