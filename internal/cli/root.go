// Package cli implements the svakisto command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/svakisto/internal/backup"
	"github.com/mesh-intelligence/svakisto/internal/launch"
	"github.com/mesh-intelligence/svakisto/internal/lock"
	"github.com/mesh-intelligence/svakisto/internal/logging"
	"github.com/mesh-intelligence/svakisto/internal/organizer"
	"github.com/mesh-intelligence/svakisto/internal/paths"
	"github.com/mesh-intelligence/svakisto/internal/settings"
	"github.com/mesh-intelligence/svakisto/internal/sqlite"
	"github.com/mesh-intelligence/svakisto/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// skipStore marks commands that run without opening the database.
const skipStore = "skip-store"

// skipLock marks store-backed commands that reveal no data and run while
// the screen lock is enabled.
const skipLock = "skip-lock"

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	unlock    string
}

// deps are the process collaborators a test can replace.
type deps struct {
	clipboard launch.Clipboard
	opener    launch.Opener
	stdin     io.Reader
	auth      lock.Authenticator
}

func systemDeps() deps {
	return deps{
		clipboard: launch.SystemClipboard{},
		opener:    launch.SystemOpener{},
		stdin:     os.Stdin,
		auth:      lock.Passphrase{},
	}
}

// app is the state shared by one invocation.
type app struct {
	flags rootFlags
	deps  deps

	configDir string
	dataDir   string
	cfg       *viper.Viper
	log       *slog.Logger
	logCloser io.Closer
	settings  settings.Settings

	store     *sqlite.Backend
	organizer *organizer.Service
	backups   *backup.Service
}

// NewRootCmd creates the top-level "svakisto" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd(systemDeps())
	return cmd
}

func newRootCmd(d deps) (*cobra.Command, *app) {
	a := &app{deps: d, log: logging.Discard()}

	root := &cobra.Command{
		Use:   "svakisto",
		Short: "Organize remote-desktop shortcuts by client and site",
		Long: "svakisto keeps remote-desktop stations in a Client > Object > Station tree,\n" +
			"launches them, and backs the whole tree up to (optionally encrypted) files.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().StringVar(&a.flags.unlock, "unlock", "", "screen lock passphrase, when the lock is enabled")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newTreeCmd(a),
		newGroupCmd(a),
		newClientCmd(a),
		newObjectCmd(a),
		newStationCmd(a),
		newDeleteCmd(a),
		newMoveCmd(a),
		newLaunchCmd(a),
		newCopyPasswordCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newBackupsCmd(a),
		newWipeCmd(a),
		newTutorialCmd(a),
		newUpdateCmd(a),
		newSettingsCmd(a),
		newLockCmd(a),
	)
	return root, a
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, systemDeps()))
}

// run executes args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer, d deps) int {
	root, a := newRootCmd(d)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	code := exitCode(err)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		if code == exitSysError {
			a.printRecovery(stderr)
		}
	}
	a.close()
	return code
}

// setup loads configuration, the logger and settings, and opens the store.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	a.configDir = configDir
	a.cfg = cfg

	log, closer, err := logging.New(loggingConfig(cfg))
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	a.log, a.logCloser = log.With("run_id", ulid.Make().String(), "command", cmd.CommandPath()), closer

	if a.settings, err = settings.Load(configDir); err != nil {
		return err
	}

	if cmd.Annotations[skipStore] != "" {
		return nil
	}
	if err := a.open(); err != nil {
		return err
	}
	if cmd.Annotations[skipLock] != "" {
		return nil
	}
	return a.requireUnlocked(cmd)
}

// open attaches the store and builds the services over it.
func (a *app) open() error {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	a.dataDir = dataDir

	store := sqlite.NewBackend()
	if err := store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}); err != nil {
		return systemError{fmt.Errorf("attach store: %w", err)}
	}
	a.store = store

	a.backups = backup.New(store,
		backup.WithLogger(a.log),
		backup.WithKeep(a.cfg.GetInt(cfgKeyBackupKeep)),
	)
	a.organizer = organizer.New(store,
		organizer.WithLogger(a.log),
		organizer.WithClipboard(a.deps.clipboard),
		organizer.WithOpener(a.deps.opener),
		organizer.WithScheme(a.cfg.GetString(cfgKeyLaunchScheme)),
		organizer.WithSnapshotter(a.backups),
	)
	a.log.Debug("store attached", "data_dir", dataDir)
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Detach(); err != nil {
			a.log.Error("detach store", "error", err)
		}
		a.store = nil
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

// saveSettings persists the in-memory settings.
func (a *app) saveSettings() error {
	return a.settings.Save(a.configDir)
}

// requireUnlocked verifies the screen lock before any store-backed command.
func (a *app) requireUnlocked(cmd *cobra.Command) error {
	guard := lock.NewGuard(a.deps.auth, &a.settings)
	if !guard.Enabled() {
		return nil
	}
	secret := a.flags.unlock
	if secret == "" {
		s, err := a.promptSecret(cmd, "Passphrase: ")
		if err != nil {
			return err
		}
		secret = s
	}
	return guard.Unlock(cmd.Context(), secret)
}

// printRecovery lists the newest internal backups after a system error.
func (a *app) printRecovery(w io.Writer) {
	if a.backups == nil {
		return
	}
	list, err := a.backups.ListInternal(context.Background())
	if err != nil || len(list) == 0 {
		return
	}
	fmt.Fprintln(w, "recent internal backups (restore with: svakisto backups restore <id>):")
	for _, ib := range list {
		fmt.Fprintf(w, "  %d  %s  %s\n", ib.ID, ib.CreatedAt.Local().Format("2006-01-02 15:04:05"), ib.Reason)
	}
}

// usageError marks bad flags or arguments.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// systemError marks failures of the environment rather than the input.
type systemError struct{ err error }

func (e systemError) Error() string { return e.err.Error() }
func (e systemError) Unwrap() error { return e.err }

// userErrors are the sentinels reported with exitUserError.
var userErrors = []error{
	types.ErrValidation,
	types.ErrInvalidMove,
	types.ErrNotFound,
	types.ErrInvalidKind,
	types.ErrInvalidID,
	backup.ErrInvalidFormat,
	backup.ErrPasswordRequired,
	backup.ErrWrongPassword,
	organizer.ErrNoPassword,
	settings.ErrUnknownKey,
	lock.ErrVerifyFailed,
	lock.ErrNotEnrolled,
	lock.ErrNotSupported,
	lock.ErrInvalidSecret,
	errAborted,
}

// exitCode maps an error returned by the command tree to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var sysErr systemError
	if errors.As(err, &sysErr) {
		return exitSysError
	}
	var usage usageError
	if errors.As(err, &usage) {
		return exitUserError
	}
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		return exitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return exitUserError
		}
	}
	// cobra reports unknown commands and flag constraint violations as plain errors.
	msg := err.Error()
	if strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "required flag") ||
		strings.Contains(msg, "flags in the group") {
		return exitUserError
	}
	return exitSysError
}
