package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/augurlite/internal/chain"
	"github.com/roach88/augurlite/internal/fixture"
	"github.com/roach88/augurlite/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string

	// IDGenerator overrides snapshot ids (for testing).
	// If nil, defaults to chain.UUIDv7Generator.
	IDGenerator chain.IDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported on stderr in the selected format.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd, opts := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	code := ErrorCode(err)
	f := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
	if !isValidFormat(f.Format) {
		f.Format = "text"
	}
	_ = f.Error(code, err.Error(), nil)
	return GetExitCode(err)
}

// NewRootCommand creates the root command for the augurlite CLI.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *RootOptions) {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "augurlite",
		Short: "AugurLite - deploy and exercise prediction market contracts",
		Long: `Deploy the AugurLite contract suite to a simulated chain and
exercise it from the command line or from scenario files.

Chain state is kept in a SQLite database between invocations: deploy
saves a snapshot, call restores the latest one and saves a new one after
every committed transaction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "augurlite.db", "path to SQLite database")

	cmd.AddCommand(NewDeployCommand(opts))
	cmd.AddCommand(NewCallCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd, opts
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newLogger logs to w at debug level when verbose, warnings otherwise.
func (o *RootOptions) newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openFixture opens the database and creates a fixture persisting to it.
// The caller closes the returned store.
func (o *RootOptions) openFixture(cmd *cobra.Command) (*fixture.Fixture, *store.Store, error) {
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	fixtureOpts := []fixture.Option{
		fixture.WithStore(st),
		fixture.WithLogger(o.newLogger(cmd.ErrOrStderr())),
	}
	if o.IDGenerator != nil {
		fixtureOpts = append(fixtureOpts, fixture.WithIDGenerator(o.IDGenerator))
	}
	return fixture.New(fixtureOpts...), st, nil
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
