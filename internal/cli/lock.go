package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/svakisto/internal/lock"
)

func newLockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Protect commands that reveal data with a passphrase",
	}
	noStore := map[string]string{skipStore: "true"}

	// secret reads the --unlock flag or prompts for it.
	secret := func(cmd *cobra.Command, prompt string) (string, error) {
		if a.flags.unlock != "" {
			return a.flags.unlock, nil
		}
		return a.promptSecret(cmd, prompt)
	}

	enroll := &cobra.Command{
		Use:         "enroll",
		Short:       "Turn the lock on",
		Args:        usageArgs(cobra.NoArgs),
		Annotations: noStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			guard := lock.NewGuard(a.deps.auth, &a.settings)
			if guard.Enabled() {
				return usageError{errors.New("lock is already enabled; disable it first")}
			}
			s, err := secret(cmd, "New passphrase: ")
			if err != nil {
				return err
			}
			if err := guard.Enroll(cmd.Context(), s); err != nil {
				return err
			}
			a.settings.PromoShown = true
			if err := a.saveSettings(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "lock enabled")
			return nil
		},
	}

	verify := &cobra.Command{
		Use:         "verify",
		Short:       "Check a passphrase",
		Args:        usageArgs(cobra.NoArgs),
		Annotations: noStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			guard := lock.NewGuard(a.deps.auth, &a.settings)
			if !guard.Enabled() {
				return lock.ErrNotEnrolled
			}
			s, err := secret(cmd, "Passphrase: ")
			if err != nil {
				return err
			}
			if err := guard.Unlock(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "unlocked")
			return nil
		},
	}

	disable := &cobra.Command{
		Use:         "disable",
		Short:       "Turn the lock off",
		Args:        usageArgs(cobra.NoArgs),
		Annotations: noStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := secret(cmd, "Passphrase: ")
			if err != nil {
				return err
			}
			if err := lock.NewGuard(a.deps.auth, &a.settings).Disable(cmd.Context(), s); err != nil {
				return err
			}
			if err := a.saveSettings(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "lock disabled")
			return nil
		},
	}

	cmd.AddCommand(enroll, verify, disable)
	return cmd
}
