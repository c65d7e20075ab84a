package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/augurlite/internal/fixture"
	"github.com/roach88/augurlite/internal/store"
)

// SnapshotListResult is the output of snapshot list.
type SnapshotListResult struct {
	Snapshots []store.SnapshotInfo `json:"snapshots"`
	Latest    string               `json:"latest,omitempty"`
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and revert saved chain state",
	}

	cmd.AddCommand(newSnapshotListCommand(rootOpts))
	cmd.AddCommand(newSnapshotRevertCommand(rootOpts))

	return cmd
}

func newSnapshotListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots, oldest first",
		Long: `List saved snapshots, oldest first. The snapshot the next call
starts from is marked with *.

Example:
  augurlite snapshot list --db ./local.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotList(opts, cmd)
		},
	}
}

func runSnapshotList(opts *RootOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	infos, err := st.ListSnapshots(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list snapshots", err)
	}
	result := SnapshotListResult{Snapshots: infos}
	if d, err := st.LatestDeployment(ctx); err == nil {
		result.Latest = d.SnapshotID
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}

	w := cmd.OutOrStdout()
	if len(infos) == 0 {
		fmt.Fprintln(w, "No snapshots found.")
		return nil
	}
	for _, info := range infos {
		marker := " "
		if info.ID == result.Latest {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-40s block %-4d %s\n", marker, info.ID, info.BlockNumber, info.StateRoot)
	}
	return nil
}

func newSnapshotRevertCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revert <snapshot-id>",
		Short: "Make an earlier deployment snapshot the latest",
		Long: `Revert to the state saved with an earlier deploy or call --send.
The state is saved again as a new snapshot, so history is never
rewritten.

Example:
  augurlite snapshot revert 0192f8a1-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotRevert(opts, args[0], cmd)
		},
	}
}

func runSnapshotRevert(opts *RootOptions, id string, cmd *cobra.Command) error {
	f, st, err := opts.openFixture(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if err := f.RestoreDeployment(ctx, id); err != nil {
		if errors.Is(err, fixture.ErrNoDeployment) {
			return WrapExitError(ExitCommandError, "unknown snapshot", err)
		}
		return WrapExitError(ExitCommandError, "failed to restore snapshot", err)
	}
	snap, _, err := f.SaveDeployment(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to save state", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(map[string]string{
			"reverted_to": id,
			"snapshot_id": snap.ID,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reverted to %s as %s\n", id, snap.ID)
	return nil
}
