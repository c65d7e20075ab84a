package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/augurlite/internal/fixture"
	"github.com/roach88/augurlite/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Method string // optional - filter to one method
	Event  string // optional - filter to transactions emitting this event
}

// TraceResult holds the trace command output.
type TraceResult struct {
	Transactions []store.TransactionRecord `json:"transactions"`
	Stats        TraceStats                `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Transactions int `json:"transactions"`
	Failed       int `json:"failed"`
	Logs         int `json:"logs"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded transactions and their logs",
		Long: `Show every transaction recorded in the database, in order, with the
logs it emitted. Addresses of the latest deployment are shown by name.

Examples:
  augurlite trace
  augurlite trace --method createMarket
  augurlite trace --event MarketCreated --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Method, "method", "", "filter to a method name")
	cmd.Flags().StringVar(&opts.Event, "event", "", "filter to transactions emitting an event")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	f, st, err := opts.openFixture(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if _, err := f.RestoreLatest(ctx); err != nil && !errors.Is(err, fixture.ErrNoDeployment) {
		return WrapExitError(ExitCommandError, "failed to restore deployment", err)
	}

	txs, err := st.ReadTransactions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read transactions", err)
	}

	result := TraceResult{Transactions: []store.TransactionRecord{}}
	for _, tx := range txs {
		if !matchesTrace(tx, opts.Method, opts.Event) {
			continue
		}
		result.Transactions = append(result.Transactions, tx)
		result.Stats.Transactions++
		result.Stats.Logs += len(tx.Logs)
		if tx.Status != "success" {
			result.Stats.Failed++
		}
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}
	writeTraceText(cmd.OutOrStdout(), f, result, opts.Verbose)
	return nil
}

func matchesTrace(tx store.TransactionRecord, method, event string) bool {
	if method != "" && tx.Method != method {
		return false
	}
	if event == "" {
		return true
	}
	for _, l := range tx.Logs {
		if l.Event == event {
			return true
		}
	}
	return false
}

func writeTraceText(w io.Writer, f *fixture.Fixture, result TraceResult, verbose bool) {
	if len(result.Transactions) == 0 {
		fmt.Fprintln(w, "No transactions found.")
		return
	}

	for _, tx := range result.Transactions {
		status := "✓"
		if tx.Status != "success" {
			status = "✗"
		}
		target := f.DescribeText(tx.To) + "." + tx.Method
		if kind, ok := strings.CutPrefix(tx.Method, "constructor:"); ok {
			target = "new " + kind
			if tx.ContractAddress != "" {
				target += " at " + f.DescribeText(tx.ContractAddress)
			}
		}
		fmt.Fprintf(w, "[%d] %s %s from %s (block %d)\n", tx.Seq, status, target, f.DescribeText(tx.From), tx.BlockNumber)
		if verbose && len(tx.Args) > 0 {
			fmt.Fprintf(w, "     Args: %s\n", f.DescribeText(fmt.Sprint(tx.Args)))
		}
		if tx.Reason != "" {
			fmt.Fprintf(w, "     Reason: %s\n", f.DescribeText(tx.Reason))
		}
		for _, l := range tx.Logs {
			fmt.Fprintf(w, "     %s.%s %s\n", f.DescribeText(l.Address), l.Event, f.DescribeText(formatFields(l.Fields)))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Transactions: %d (%d failed), logs: %d\n",
		result.Stats.Transactions, result.Stats.Failed, result.Stats.Logs)
}

// formatFields formats a map of fields for display.
// Uses sorted keys to ensure deterministic output.
func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
