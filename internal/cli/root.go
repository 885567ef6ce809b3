package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/distype/distype/internal/config"
	"github.com/distype/distype/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	DBPath     string // overrides database.path
	Driver     string // overrides database.driver

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the distype CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distype",
		Short: "distype - chat, category and message store",
		Long: `Manage the distype store: chats, message categories, messages and settings.

The store is a SQLite database. Opening it bootstraps the defaults: at least
three chats and the uncategorized category, which always lists first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (.yaml, .yml or .toml; default $"+config.EnvPath+")")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "database path (overrides database.path)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "database driver: sqlite3 (cgo) or sqlite (pure Go)")

	// Add subcommands
	cmd.AddCommand(NewChatsCommand(opts))
	cmd.AddCommand(NewCategoriesCommand(opts))
	cmd.AddCommand(NewMessagesCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the CLI and returns the process exit code. Failures are
// rendered in the selected format: a JSON error envelope on stdout, or a
// colored message on stderr.
func Execute(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported {
		format := opts.Format
		if !isValidFormat(format) {
			format = "text"
		}
		f := &OutputFormatter{Format: format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
		f.Error(errorCodeFor(err), err.Error(), nil)
	}
	return exitCodeFor(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// resolve loads the configuration and sets up logging once per process.
// The config file comes from --config, then $DISTYPE_CONFIG; without
// either, defaults apply. --db and --driver override the file.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if o.cfg != nil {
		return nil
	}
	if o.Format == "" {
		o.Format = "text"
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	path := o.ConfigPath
	if path == "" {
		path = os.Getenv(config.EnvPath)
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "loading config", err)
		}
		cfg = loaded
	}

	if o.DBPath != "" {
		cfg.Database.Path = o.DBPath
	}
	if o.Driver != "" {
		cfg.Database.Driver = o.Driver
	}

	level := cfg.LogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}

	o.cfg = cfg
	o.logger = newLogger(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	return nil
}

// openStore opens the configured store. Callers must Close it.
func (o *RootOptions) openStore(cmd *cobra.Command) (*store.Store, error) {
	if err := o.resolve(cmd); err != nil {
		return nil, err
	}

	st, err := store.Open(o.cfg.Database.Path, o.cfg.StoreOptions(o.logger.With("component", "store")))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("opening database %s", o.cfg.Database.Path), err)
	}
	return st, nil
}

// formatter returns an OutputFormatter bound to the command's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// withStore opens the store, runs fn and closes the store.
func (o *RootOptions) withStore(cmd *cobra.Command, fn func(ctx context.Context, st *store.Store, out *OutputFormatter) error) error {
	st, err := o.openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := o.formatter(cmd)
	out.VerboseLog("using %s (driver %s, schema version %d)",
		o.cfg.Database.Path, o.cfg.Database.Driver, st.SchemaVersion())
	return fn(ctx, st, out)
}
