package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/augurlite/internal/deployer"
	"github.com/roach88/augurlite/internal/fixture"
)

// DeployOptions holds flags for the deploy command.
type DeployOptions struct {
	*RootOptions
	Config string
}

// DeployResult is the output of the deploy command.
type DeployResult struct {
	ID          string            `json:"id"`
	NetworkName string            `json:"network_name"`
	Deployer    string            `json:"deployer"`
	Controller  string            `json:"controller"`
	Universe    string            `json:"universe,omitempty"`
	Contracts   map[string]string `json:"contracts"`
	UploadBlock uint64            `json:"upload_block"`
	SnapshotID  string            `json:"snapshot_id"`
	StateRoot   string            `json:"state_root"`
}

// NewDeployCommand creates the deploy command.
func NewDeployCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeployOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the contract suite",
		Long: `Deploy the contract suite to a fresh simulated chain and save the
resulting state and deployment to the database. A configuration with
controller_address deploys on top of the latest saved deployment instead,
reusing its Controller and any contracts whose code is unchanged.

Without --config the default local configuration is used: controlled
time, a genesis universe, and funded test accounts alice, bob and charlie.

Examples:
  augurlite deploy
  augurlite deploy --config ./deploy.yaml --db ./local.db
  augurlite deploy --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "path to deployment configuration (YAML)")

	return cmd
}

func runDeploy(opts *DeployOptions, cmd *cobra.Command) error {
	cfg := deployer.DefaultConfiguration()
	if opts.Config != "" {
		var err error
		cfg, err = deployer.LoadConfiguration(opts.Config)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
	}

	f, st, err := opts.openFixture(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	if cfg.ControllerAddress != "" {
		// An existing Controller only lives in the saved chain state.
		rec, err := f.RestoreLatest(ctx)
		if errors.Is(err, fixture.ErrNoDeployment) {
			return NewExitError(ExitCommandError, "controller_address needs a saved deployment (run augurlite deploy first)")
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to restore deployment", err)
		}
		opts.formatter(cmd).VerboseLog("reusing controller of deployment %s", rec.ID)
	}
	if _, err := f.Deploy(ctx, cfg); err != nil {
		return WrapExitError(ExitFailure, "deployment failed", err)
	}
	snap, rec, err := f.SaveDeployment(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to save deployment", err)
	}

	result := DeployResult{
		ID:          rec.ID,
		NetworkName: rec.NetworkName,
		Deployer:    rec.Deployer,
		Controller:  rec.Controller,
		Universe:    rec.Universe,
		Contracts:   rec.Contracts,
		UploadBlock: rec.UploadBlock,
		SnapshotID:  snap.ID,
		StateRoot:   snap.StateRoot.Hex(),
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Deployed to %s as %s\n", result.NetworkName, f.Name(f.Deployment().Deployer))
	for _, name := range f.Deployment().Names() {
		fmt.Fprintf(w, "  %-26s %s\n", name, result.Contracts[name])
	}
	fmt.Fprintf(w, "Snapshot: %s (block %d)\n", snap.ID, snap.BlockNumber)
	return nil
}
