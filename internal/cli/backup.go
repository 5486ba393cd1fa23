package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/svakisto/internal/backup"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		password       string
		promptPassword bool
		out            string
		prefix         string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every client, object, station and group to a backup file",
		Long: `Export the whole store to a JSON backup file. With a password the file is
encrypted; the password is needed again to import it.

Example:
  svakisto export
  svakisto export --prompt-password --out office.json`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if promptPassword {
				p, err := a.promptSecret(cmd, "Backup password: ")
				if err != nil {
					return err
				}
				again, err := a.promptSecret(cmd, "Repeat password: ")
				if err != nil {
					return err
				}
				if p != again {
					return usageError{errors.New("passwords do not match")}
				}
				password = p
			}
			if out == "" {
				out = backup.FileName(prefix, time.Now())
			}
			doc, err := a.backups.ExportFile(cmd.Context(), out, password)
			if err != nil {
				return err
			}
			abs, _ := filepath.Abs(out)
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d client(s), %d object(s), %d station(s), %d group(s) to %s\n",
				len(doc.Clients), len(doc.Objects), len(doc.Stations), len(doc.Groups), abs)
			if password != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "the file is encrypted; keep the password safe")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "encrypt with this password")
	cmd.Flags().BoolVar(&promptPassword, "prompt-password", false, "read the encryption password from the terminal")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: <prefix>_<date>.json)")
	cmd.Flags().StringVar(&prefix, "prefix", backup.DefaultFilePrefix, "file name prefix")
	cmd.MarkFlagsMutuallyExclusive("password", "prompt-password")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		password string
		yes      bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with the contents of a backup file",
		Long: `Import a backup file. The current data is replaced entirely; a
restore-auto-backup of it is kept and can be restored with "svakisto backups".
Encrypted files ask for their password.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := backup.ReadFile(args[0], password)
			if errors.Is(err, backup.ErrPasswordRequired) {
				if password, err = a.promptSecret(cmd, "Backup password: "); err != nil {
					return err
				}
				doc, err = backup.ReadFile(args[0], password)
			}
			if errors.Is(err, fs.ErrNotExist) {
				return usageError{err}
			}
			if err != nil {
				return err
			}

			printPreview(cmd.OutOrStdout(), doc.Preview())
			if !yes {
				ok, err := a.confirm(cmd, "Replace ALL current data with this backup?")
				if err != nil {
					return err
				}
				if !ok {
					return errAborted
				}
			}
			if err := a.backups.Restore(cmd.Context(), doc); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "import complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password of an encrypted backup")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// printPreview shows what a restore would bring in.
func printPreview(w io.Writer, p backup.Preview) {
	tw := newTable(w, "DATE", "VERSION", "GROUPS", "CLIENTS", "OBJECTS", "STATIONS")
	date := "unknown"
	if !p.Date.IsZero() {
		date = p.Date.Local().Format(timeLayout)
	}
	tw.Append([]string{
		date, p.Version,
		strconv.Itoa(p.Groups), strconv.Itoa(p.Clients),
		strconv.Itoa(p.Objects), strconv.Itoa(p.Stations),
	})
	tw.Render()
}

func newBackupsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List, create and restore internal auto-backups",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List internal backups, newest first",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.backups.ListInternal(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "ID", "CREATED", "REASON", "CLIENTS", "OBJECTS", "STATIONS")
			for _, ib := range items {
				row := []string{strconv.FormatInt(ib.ID, 10), ib.CreatedAt.Local().Format(timeLayout), ib.Reason, "?", "?", "?"}
				if doc, err := a.backups.Internal(cmd.Context(), ib.ID); err == nil {
					p := doc.Preview()
					row[3], row[4], row[5] = strconv.Itoa(p.Clients), strconv.Itoa(p.Objects), strconv.Itoa(p.Stations)
				}
				tw.Append(row)
			}
			tw.Render()
			return nil
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Capture an internal backup now",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ib, err := a.backups.AutoBackup(cmd.Context(), types.ReasonManual)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "internal backup %d created\n", ib.ID)
			return nil
		},
	}

	var yes bool
	restore := &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore an internal backup",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			doc, err := a.backups.Internal(cmd.Context(), id)
			if err != nil {
				return err
			}
			printPreview(cmd.OutOrStdout(), doc.Preview())
			if !yes {
				ok, err := a.confirm(cmd, "Replace ALL current data with this backup?")
				if err != nil {
					return err
				}
				if !ok {
					return errAborted
				}
			}
			if err := a.backups.Restore(cmd.Context(), doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "internal backup %d restored\n", id)
			return nil
		},
	}
	restore.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(list, create, restore)
	return cmd
}

func newWipeCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete all clients, objects, stations and groups",
		Long: `Delete everything. A wipe-auto-backup is captured first and can be
restored with "svakisto backups restore".`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := a.confirm(cmd, "Delete ALL data?")
				if err != nil {
					return err
				}
				if !ok {
					return errAborted
				}
			}
			if err := a.organizer.Wipe(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all data deleted; a wipe-auto-backup was kept")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newTutorialCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tutorial",
		Short: "Practice on a messy sample office",
	}

	var yes bool
	load := &cobra.Command{
		Use:   "load",
		Short: "Replace current data with the tutorial dataset",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := a.confirm(cmd, "Replace current data with the tutorial? A backup is kept.")
				if err != nil {
					return err
				}
				if !ok {
					return errAborted
				}
			}
			if err := a.backups.LoadTutorial(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "tutorial loaded; run \"svakisto tutorial check\" to see your goals")
			return nil
		},
	}
	load.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	check := &cobra.Command{
		Use:   "check",
		Short: "Show the tutorial goals that are not met yet",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			goals, err := a.backups.CheckTutorial(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(goals) == 0 {
				fmt.Fprintln(out, "all goals met, the office is tidy")
				return nil
			}
			for _, g := range goals {
				fmt.Fprintf(out, "- %s\n", g)
			}
			return nil
		},
	}

	cmd.AddCommand(load, check)
	return cmd
}
