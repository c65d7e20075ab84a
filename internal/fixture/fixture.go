package fixture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/chain"
	"github.com/roach88/augurlite/internal/contracts"
	"github.com/roach88/augurlite/internal/deployer"
	"github.com/roach88/augurlite/internal/store"
	"github.com/roach88/augurlite/internal/testutil"
)

// Fixture owns a simulated chain, the deployment on it and a registry of
// contract handles. Resetting to a snapshot restores the chain and the
// deployment that existed when the snapshot was taken.
type Fixture struct {
	Chain     *chain.Chain
	Clock     *testutil.DeterministicClock
	Contracts *Registry

	mu          sync.Mutex
	deployment  *deployer.Deployment
	deployments map[string]*deployer.Deployment // by snapshot id
	store       *store.Store
	logger      *slog.Logger
}

type options struct {
	logger *slog.Logger
	store  *store.Store
	clock  *testutil.DeterministicClock
	ids    chain.IDGenerator
}

// Option configures a Fixture.
type Option func(*options)

// WithLogger sets the structured logger for the chain and deployer.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore persists receipts and snapshots.
func WithStore(s *store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithClock sets the block time source.
func WithClock(clock *testutil.DeterministicClock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithIDGenerator sets the snapshot id source.
func WithIDGenerator(ids chain.IDGenerator) Option {
	return func(o *options) {
		o.ids = ids
	}
}

// New creates a fixture on a fresh chain with every contract kind
// registered and nothing deployed.
func New(opts ...Option) *Fixture {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  testutil.NewDeterministicClock(0),
	}
	for _, opt := range opts {
		opt(&o)
	}

	chainOpts := []chain.Option{
		chain.WithLogger(o.logger),
		chain.WithTimeSource(o.clock),
		chain.WithCode(contracts.All()...),
	}
	if o.store != nil {
		chainOpts = append(chainOpts, chain.WithStore(o.store))
	}
	if o.ids != nil {
		chainOpts = append(chainOpts, chain.WithIDGenerator(o.ids))
	}

	return &Fixture{
		Chain:       chain.New(chainOpts...),
		Clock:       o.clock,
		Contracts:   newRegistry(),
		deployments: make(map[string]*deployer.Deployment),
		store:       o.store,
		logger:      o.logger,
	}
}

// Deploy runs the deployer and registers a handle for every uploaded
// contract.
func (f *Fixture) Deploy(ctx context.Context, cfg deployer.Configuration) (*deployer.Deployment, error) {
	d, err := deployer.New(f.Chain, cfg, deployer.WithLogger(f.logger))
	if err != nil {
		return nil, err
	}
	deployment, err := d.Deploy(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.setDeployment(deployment)
	return deployment, nil
}

// Deployment returns the current deployment, or nil.
func (f *Fixture) Deployment() *deployer.Deployment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deployment
}

// UseDeployment installs a deployment loaded from elsewhere (a store), so
// its contracts resolve through the registry.
func (f *Fixture) UseDeployment(d *deployer.Deployment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setDeployment(d)
}

// setDeployment rebuilds the registry. Caller must hold f.mu.
func (f *Fixture) setDeployment(d *deployer.Deployment) {
	f.deployment = d
	f.Contracts = newRegistry()
	if d == nil {
		return
	}
	for name, addr := range d.Contracts() {
		f.Contracts.set(newContract(f.Chain, name, addr, d.Deployer))
	}
}

// CreateSnapshot captures the chain state together with the current
// deployment.
func (f *Fixture) CreateSnapshot(ctx context.Context) (*chain.Snapshot, error) {
	snap, err := f.Chain.CreateSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deployments[snap.ID] = f.deployment
	return snap, nil
}

// ResetToSnapshot restores the chain state and the deployment captured with
// snap, and rewinds the clock to the snapshot's block time. Snapshots loaded
// from a store carry no deployment; the current one is kept for them.
func (f *Fixture) ResetToSnapshot(snap *chain.Snapshot) error {
	if err := f.Chain.ResetToSnapshot(snap); err != nil {
		return err
	}
	f.Clock.Set(f.Chain.Now())
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.deployments[snap.ID]; ok && d != f.deployment {
		f.setDeployment(d)
	}
	return nil
}

// AugurLite returns a typed handle to the deployed AugurLite.
func (f *Fixture) AugurLite() (*AugurLite, error) {
	c, err := f.Contracts.Get(contracts.AugurLiteName)
	if err != nil {
		return nil, err
	}
	return &AugurLite{c}, nil
}

// Universe returns a typed handle to the genesis universe.
func (f *Fixture) Universe() (*Universe, error) {
	c, err := f.Contracts.Get(contracts.UniverseName)
	if err != nil {
		return nil, err
	}
	return &Universe{c}, nil
}

// Token returns a typed handle to the denomination token.
func (f *Fixture) Token() (*Token, error) {
	c, err := f.Contracts.Get(contracts.TestNetDenominationTokenName)
	if err != nil {
		return nil, err
	}
	return &Token{c}, nil
}

// Controller returns a typed handle to the Controller.
func (f *Fixture) Controller() (*Controller, error) {
	c, err := f.Contracts.Get(contracts.ControllerName)
	if err != nil {
		return nil, err
	}
	return &Controller{c}, nil
}

// AdvanceTime moves block time forward. With a TimeControlled deployment
// the contract clock is moved by the deployer as well, so markets see the
// new time.
func (f *Fixture) AdvanceTime(ctx context.Context, seconds uint64) error {
	f.Clock.Advance(seconds)

	tc, err := f.Contracts.Get(contracts.TimeControlledName)
	if err != nil {
		return nil
	}
	if _, err := f.Chain.Transact(ctx, tc.Sender(), tc.Address, "incrementTimestamp", new(big.Int).SetUint64(seconds)); err != nil {
		f.Clock.Set(f.Chain.Now())
		return fmt.Errorf("advance time: %w", err)
	}
	return nil
}

// Resolve turns a scenario or CLI reference into an address: a contract
// name, a test account name, or a hex address.
func (f *Fixture) Resolve(ref string) (common.Address, error) {
	if c, err := f.Contracts.Get(ref); err == nil {
		return c.Address, nil
	}
	if acct, err := chain.LookupAccount(ref); err == nil {
		return acct.Address, nil
	}
	if common.IsHexAddress(ref) {
		return common.HexToAddress(ref), nil
	}
	return common.Address{}, fmt.Errorf("cannot resolve %q to an address", ref)
}
