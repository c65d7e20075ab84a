package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/augurlite/internal/fixture"
	"github.com/roach88/augurlite/internal/harness"
)

// CallOptions holds flags for the call command.
type CallOptions struct {
	*RootOptions
	From string
	Send bool
}

// CallResult is the output of the call command.
type CallResult struct {
	harness.TraceEvent
	SnapshotID string `json:"snapshot_id,omitempty"`
}

// NewCallCommand creates the call command.
func NewCallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "call <contract> <method> [args...]",
		Short: "Call a deployed contract",
		Long: `Call a method on a deployed contract, starting from the latest saved
deployment.

The contract is a deployment name (AugurLite, Universe, Controller, ...)
or a hex address. Address arguments accept contract and test account
names; integer arguments accept "now" and "now+N".

Without --send the call is read-only. With --send it is committed as a
transaction and the new state is saved.

Exit codes:
  0 - Call succeeded
  1 - Call failed (reverted, bad arguments, ...)
  2 - Command error (no deployment, unknown contract, ...)

Examples:
  augurlite call Universe getNumberOfMarkets
  augurlite call AugurLite isKnownUniverse Universe
  augurlite call TestNetDenominationToken faucet 100 --from dave --send`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(opts, args[0], args[1], args[2:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "sending test account (default: the deployer)")
	cmd.Flags().BoolVar(&opts.Send, "send", false, "commit the call as a transaction")

	return cmd
}

func runCall(opts *CallOptions, contract, method string, rawArgs []string, cmd *cobra.Command) error {
	f, st, err := opts.openFixture(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	rec, err := f.RestoreLatest(ctx)
	if err != nil {
		if errors.Is(err, fixture.ErrNoDeployment) {
			return NewExitError(ExitCommandError, "no deployment found (run augurlite deploy first)")
		}
		return WrapExitError(ExitCommandError, "failed to restore deployment", err)
	}
	opts.formatter(cmd).VerboseLog("restored deployment %s on %s", rec.ID, rec.NetworkName)

	args := make([]any, len(rawArgs))
	for i, a := range rawArgs {
		args[i] = a
	}
	send := opts.Send
	event, err := harness.Execute(ctx, f, 1, harness.Step{
		Contract: contract,
		Method:   method,
		Args:     args,
		From:     opts.From,
		Send:     &send,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "call failed", err)
	}

	result := CallResult{TraceEvent: event}
	if event.Status == harness.StatusSuccess && opts.Send {
		snap, _, err := f.SaveDeployment(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to save state", err)
		}
		result.SnapshotID = snap.ID
	}

	var failed *ExitError
	if event.Failure != nil {
		failed = callFailedError(event.Contract, event.Method, event.Failure.Code)
	}

	if opts.Format == "json" {
		response := newResponse(result, failed, event.Failure)
		if err := json.NewEncoder(cmd.OutOrStdout()).Encode(response); err != nil {
			return err
		}
	} else {
		writeCallText(cmd.OutOrStdout(), result)
	}

	if failed != nil {
		return failed
	}
	return nil
}

func writeCallText(w io.Writer, r CallResult) {
	fmt.Fprintf(w, "%s.%s %v from %s\n", r.Contract, r.Method, r.Args, r.From)
	if r.Failure != nil {
		fmt.Fprintf(w, "✗ %s in %s.%s: %s\n", r.Failure.Code, r.Failure.Contract, r.Failure.Method, r.Failure.Reason)
		return
	}
	fmt.Fprintf(w, "✓ %v\n", r.Result)
	for _, l := range r.Logs {
		fmt.Fprintf(w, "  %s.%s %s\n", l.Contract, l.Event, formatFields(l.Fields))
	}
	if r.SnapshotID != "" {
		fmt.Fprintf(w, "Snapshot: %s\n", r.SnapshotID)
	}
}
