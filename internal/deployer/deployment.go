package deployer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/contracts"
	"github.com/roach88/augurlite/internal/store"
)

// knownContracts is every name GetContract accepts.
var knownContracts = []string{
	contracts.ControllerName,
	contracts.AugurLiteName,
	contracts.UniverseName,
	contracts.TestNetDenominationTokenName,
	contracts.TimeName,
	contracts.TimeControlledName,
}

// Deployment is the outcome of a deployment run.
type Deployment struct {
	NetworkName string
	Deployer    common.Address
	Controller  common.Address
	Universe    common.Address
	UploadBlock uint64

	addresses map[string]common.Address
}

func newDeployment(networkName string, deployer common.Address, uploadBlock uint64) *Deployment {
	return &Deployment{
		NetworkName: networkName,
		Deployer:    deployer,
		UploadBlock: uploadBlock,
		addresses:   make(map[string]common.Address),
	}
}

func (d *Deployment) set(name string, addr common.Address) {
	d.addresses[name] = addr
	switch name {
	case contracts.ControllerName:
		d.Controller = addr
	case contracts.UniverseName:
		d.Universe = addr
	}
}

// GetContract returns the address of an uploaded contract.
func (d *Deployment) GetContract(name string) (common.Address, error) {
	if !slices.Contains(knownContracts, name) {
		return common.Address{}, fmt.Errorf("contract named %s does not exist", name)
	}
	addr, ok := d.addresses[name]
	if !ok {
		return common.Address{}, fmt.Errorf("contract named %s has not yet been uploaded", name)
	}
	return addr, nil
}

// Contracts returns a copy of the uploaded contract addresses by name.
func (d *Deployment) Contracts() map[string]common.Address {
	return maps.Clone(d.addresses)
}

// Names returns the uploaded contract names, sorted.
func (d *Deployment) Names() []string {
	return slices.Sorted(maps.Keys(d.addresses))
}

// AddressMapping renders the uploaded contracts as name -> hex address.
func (d *Deployment) AddressMapping() map[string]string {
	out := make(map[string]string, len(d.addresses))
	for name, addr := range d.addresses {
		out[name] = addr.Hex()
	}
	return out
}

// Record converts the deployment to its persisted form.
func (d *Deployment) Record(id, snapshotID string) store.DeploymentRecord {
	rec := store.DeploymentRecord{
		ID:          id,
		NetworkName: d.NetworkName,
		Deployer:    d.Deployer.Hex(),
		Controller:  d.Controller.Hex(),
		Contracts:   d.AddressMapping(),
		UploadBlock: d.UploadBlock,
		SnapshotID:  snapshotID,
	}
	if d.Universe != (common.Address{}) {
		rec.Universe = d.Universe.Hex()
	}
	return rec
}

// DeploymentFromRecord rebuilds a deployment loaded from the store.
func DeploymentFromRecord(rec store.DeploymentRecord) (*Deployment, error) {
	d := newDeployment(rec.NetworkName, common.HexToAddress(rec.Deployer), rec.UploadBlock)
	for name, hex := range rec.Contracts {
		if !common.IsHexAddress(hex) {
			return nil, fmt.Errorf("deployment %s: contract %s: invalid address %q", rec.ID, name, hex)
		}
		d.set(name, common.HexToAddress(hex))
	}
	return d, nil
}
