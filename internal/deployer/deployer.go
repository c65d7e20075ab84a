package deployer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/roach88/augurlite/internal/abi"
	"github.com/roach88/augurlite/internal/chain"
	"github.com/roach88/augurlite/internal/contracts"
)

// Deployer uploads and wires the contract family onto a chain.
type Deployer struct {
	chain  *chain.Chain
	cfg    Configuration
	from   common.Address
	commit [32]byte
	logger *slog.Logger

	deployment *Deployment
}

// Option configures a Deployer.
type Option func(*Deployer)

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deployer) {
		d.logger = logger
	}
}

// New validates cfg and prepares a deployer. The chain must have the
// contract codes registered (contracts.All).
func New(c *chain.Chain, cfg Configuration, opts ...Option) (*Deployer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	acct, err := chain.LookupAccount(cfg.Deployer)
	if err != nil {
		return nil, err
	}

	d := &Deployer{
		chain:  c,
		cfg:    cfg,
		from:   acct.Address,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if cfg.CommitHash != "" {
		raw, err := hexutil.Decode(cfg.CommitHash)
		if err != nil {
			return nil, fmt.Errorf("commit hash: %w", err)
		}
		copy(d.commit[:], raw)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Deploy runs the whole pipeline:
//
//  1. Record the upload block number
//  2. Upload (or reuse) the Controller and check its owner
//  3. Upload AugurLite, hand it to the Controller, register it
//  4. Upload the remaining contracts, skipping unchanged code when reusing a Controller
//  5. Hand Controlled contracts to the Controller
//  6. Whitelist the configured contracts
//  7. Reset controlled time to the current block time
//  8. Create the genesis universe and set its market creation fee
//  9. Fund (and optionally approve) the faucet accounts
//  10. Write the upload block and address mapping files
//
// Any failed transaction aborts the run with an error wrapping the
// *chain.TxFailedError.
func (d *Deployer) Deploy(ctx context.Context) (*Deployment, error) {
	d.deployment = newDeployment(d.cfg.NetworkName, d.from, d.chain.BlockNumber())
	d.logger.Info("deploying", "network", d.cfg.NetworkName, "deployer", d.from.Hex(), "block", d.deployment.UploadBlock)

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"upload controller", d.uploadController},
		{"upload AugurLite", d.uploadAugurLite},
		{"upload contracts", d.uploadAllContracts},
		{"initialize contracts", d.initializeAllContracts},
		{"whitelist contracts", d.whitelistContracts},
		{"reset time", d.resetTimeControlled},
		{"create genesis universe", d.createGenesisUniverse},
		{"run faucet", d.runFaucet},
		{"write output files", d.writeFiles},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step.run(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
	}

	d.logger.Info("deployed", "controller", d.deployment.Controller.Hex(), "contracts", len(d.deployment.addresses))
	return d.deployment, nil
}

func (d *Deployer) uploadController(ctx context.Context) error {
	var addr common.Address
	if d.cfg.ControllerAddress != "" {
		addr = common.HexToAddress(d.cfg.ControllerAddress)
		if kind := d.chain.CodeAt(addr); kind != contracts.ControllerName {
			return fmt.Errorf("no Controller at %s", addr.Hex())
		}
		d.logger.Info("using existing controller", "address", addr.Hex())
	} else {
		var err error
		if addr, err = d.construct(ctx, contracts.ControllerName); err != nil {
			return err
		}
	}

	out, err := d.chain.Call(ctx, d.from, addr, "owner")
	if err != nil {
		return err
	}
	if owner := out[0].(common.Address); owner != d.from {
		return fmt.Errorf("controller owner %s does not equal from address %s", owner.Hex(), d.from.Hex())
	}
	d.deployment.set(contracts.ControllerName, addr)
	return nil
}

func (d *Deployer) uploadAugurLite(ctx context.Context) error {
	addr, err := d.construct(ctx, contracts.AugurLiteName)
	if err != nil {
		return err
	}
	d.deployment.set(contracts.AugurLiteName, addr)

	if err := d.transact(ctx, addr, "setController", d.deployment.Controller); err != nil {
		return err
	}
	return d.register(ctx, contracts.AugurLiteName, contracts.AugurLiteName, addr)
}

// uploadAllContracts uploads everything except the Controller and
// AugurLite. Time is served by TimeControlled unless use_normal_time is set;
// either way it registers under the name "Time".
func (d *Deployer) uploadAllContracts(ctx context.Context) error {
	uploads := []struct {
		registerAs string
		kind       string
	}{
		{contracts.TestNetDenominationTokenName, contracts.TestNetDenominationTokenName},
		{contracts.TimeName, d.timeKind()},
	}

	for _, u := range uploads {
		if u.kind == contracts.TestNetDenominationTokenName && d.cfg.IsProduction {
			continue
		}

		if d.cfg.ControllerAddress != "" {
			existing, skip, err := d.existingUpload(ctx, u.registerAs, u.kind)
			if err != nil {
				return err
			}
			if skip {
				d.logger.Info("using existing contract", "contract", u.kind, "address", existing.Hex())
				d.deployment.set(u.kind, existing)
				continue
			}
		}

		d.logger.Info("uploading new version of contract", "contract", u.kind)
		addr, err := d.construct(ctx, u.kind)
		if err != nil {
			return err
		}
		if err := d.register(ctx, u.registerAs, u.kind, addr); err != nil {
			return err
		}
		d.deployment.set(u.kind, addr)
	}
	return nil
}

// existingUpload reports whether the Controller already has this version of
// the code registered under name.
func (d *Deployer) existingUpload(ctx context.Context, name, kind string) (common.Address, bool, error) {
	code, ok := d.chain.Code(kind)
	if !ok {
		return common.Address{}, false, fmt.Errorf("code kind %q is not registered", kind)
	}
	out, err := d.chain.Call(ctx, d.from, d.deployment.Controller, "getContractDetails", name)
	if err != nil {
		return common.Address{}, false, err
	}
	addr, bytecodeHash := out[0].(common.Address), out[2].([32]byte)
	return addr, common.Hash(bytecodeHash) == chain.CodeHash(code) && addr != (common.Address{}), nil
}

func (d *Deployer) initializeAllContracts(ctx context.Context) error {
	name := d.timeKind()
	addr, err := d.deployment.GetContract(name)
	if err != nil {
		return err
	}
	out, err := d.chain.Call(ctx, d.from, addr, "getController")
	if err != nil {
		return err
	}
	if out[0].(common.Address) == d.deployment.Controller {
		d.logger.Info("skipping already initialized contract", "contract", name)
		return nil
	}
	d.logger.Info("initializing contract", "contract", name)
	return d.transact(ctx, addr, "setController", d.deployment.Controller)
}

func (d *Deployer) whitelistContracts(ctx context.Context) error {
	for _, name := range d.cfg.Whitelist {
		addr, err := d.deployment.GetContract(name)
		if err != nil {
			return fmt.Errorf("attempted to whitelist %s: %w", name, err)
		}
		out, err := d.chain.Call(ctx, d.from, d.deployment.Controller, "whitelist", addr)
		if err != nil {
			return err
		}
		if out[0].(bool) {
			d.logger.Info("skipping already whitelisted contract", "contract", name)
			continue
		}
		d.logger.Info("whitelisting", "contract", name)
		if err := d.transact(ctx, d.deployment.Controller, "addToWhitelist", addr); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deployer) resetTimeControlled(ctx context.Context) error {
	if d.cfg.UseNormalTime {
		return nil
	}
	addr, err := d.deployment.GetContract(contracts.TimeControlledName)
	if err != nil {
		return err
	}
	now := new(big.Int).SetUint64(d.chain.Now())
	d.logger.Info("resetting controlled time", "timestamp", now.String())
	return d.transact(ctx, addr, "setTimestamp", now)
}

func (d *Deployer) createGenesisUniverse(ctx context.Context) error {
	if !d.cfg.CreateGenesisUniverse {
		return nil
	}

	var token common.Address
	if d.cfg.GenesisDenominationTokenAddress != "" {
		token = common.HexToAddress(d.cfg.GenesisDenominationTokenAddress)
	} else {
		var err error
		if token, err = d.deployment.GetContract(contracts.TestNetDenominationTokenName); err != nil {
			return err
		}
	}
	d.logger.Info("creating genesis universe", "denomination_token", token.Hex())

	augur, err := d.deployment.GetContract(contracts.AugurLiteName)
	if err != nil {
		return err
	}
	preview, err := d.chain.Call(ctx, d.from, augur, "createUniverse", token)
	if err != nil {
		return fmt.Errorf("unable to create genesis universe: %w", err)
	}
	receipt, err := d.chain.Transact(ctx, d.from, augur, "createUniverse", token)
	if err != nil {
		return err
	}
	universe := receipt.Return[0].(common.Address)
	if universe != preview[0].(common.Address) {
		return fmt.Errorf("unable to create genesis universe: expected %s, created %s", preview[0].(common.Address).Hex(), universe.Hex())
	}

	out, err := d.chain.Call(ctx, d.from, universe, "getTypeName")
	if err != nil {
		return err
	}
	if abi.Bytes32ToString(out[0].([32]byte)) != contracts.UniverseName {
		return fmt.Errorf("unable to create genesis universe: get type name failed")
	}
	d.deployment.set(contracts.UniverseName, universe)
	d.logger.Info("genesis universe created", "address", universe.Hex())

	if d.cfg.MarketCreationFee == "" {
		return nil
	}
	fee, err := TokenUnits(d.cfg.MarketCreationFee)
	if err != nil {
		return err
	}
	return d.transact(ctx, universe, "setMarketCreationFee", fee)
}

func (d *Deployer) runFaucet(ctx context.Context) error {
	if d.cfg.IsProduction || len(d.cfg.Faucet) == 0 {
		return nil
	}
	token, err := d.deployment.GetContract(contracts.TestNetDenominationTokenName)
	if err != nil {
		return err
	}
	augur, err := d.deployment.GetContract(contracts.AugurLiteName)
	if err != nil {
		return err
	}

	for _, name := range slices.Sorted(maps.Keys(d.cfg.Faucet)) {
		acct, err := chain.LookupAccount(name)
		if err != nil {
			return err
		}
		amount, err := TokenUnits(d.cfg.Faucet[name])
		if err != nil {
			return err
		}
		d.logger.Info("faucet", "account", name, "amount", d.cfg.Faucet[name])
		if _, err := d.chain.Transact(ctx, acct.Address, token, "faucet", amount); err != nil {
			return fmt.Errorf("faucet %s: %w", name, err)
		}
		if d.cfg.ApproveAugur {
			if _, err := d.chain.Transact(ctx, acct.Address, token, "approve", augur, math.MaxBig256); err != nil {
				return fmt.Errorf("approve %s: %w", name, err)
			}
		}
	}
	return nil
}

func (d *Deployer) writeFiles(_ context.Context) error {
	if path := d.cfg.UploadBlockNumbersOutputPath; path != "" {
		if err := writeUploadBlockNumbers(path, d.deployment); err != nil {
			return err
		}
	}
	if path := d.cfg.AddressMappingOutputPath; path != "" {
		if err := writeAddressMapping(path, d.deployment); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deployer) timeKind() string {
	if d.cfg.UseNormalTime {
		return contracts.TimeName
	}
	return contracts.TimeControlledName
}

func (d *Deployer) construct(ctx context.Context, kind string, args ...any) (common.Address, error) {
	receipt, err := d.chain.Deploy(ctx, d.from, kind, args...)
	if err != nil {
		return common.Address{}, fmt.Errorf("uploading %s: %w", kind, err)
	}
	d.logger.Info("uploaded contract", "contract", kind, "address", receipt.ContractAddress.Hex(), "block", receipt.BlockNumber)
	return receipt.ContractAddress, nil
}

// register records addr under name in the Controller, with the code hash of
// kind standing in for the bytecode hash.
func (d *Deployer) register(ctx context.Context, name, kind string, addr common.Address) error {
	code, ok := d.chain.Code(kind)
	if !ok {
		return fmt.Errorf("code kind %q is not registered", kind)
	}
	return d.transact(ctx, d.deployment.Controller, "registerContract", name, addr, d.commit, chain.CodeHash(code))
}

func (d *Deployer) transact(ctx context.Context, to common.Address, method string, args ...any) error {
	if _, err := d.chain.Transact(ctx, d.from, to, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}
