package fixture

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/augurlite/internal/chain"
	"github.com/roach88/augurlite/internal/deployer"
	"github.com/roach88/augurlite/internal/store"
)

// ErrNoStore is returned by persistence operations on a fixture created
// without WithStore.
var ErrNoStore = errors.New("fixture has no store")

// ErrNoDeployment is returned when there is nothing deployed to save, or
// nothing saved to restore.
var ErrNoDeployment = errors.New("no deployment")

// SaveDeployment snapshots the chain and records the current deployment
// against that snapshot. The deployment record shares the snapshot's id.
func (f *Fixture) SaveDeployment(ctx context.Context) (*chain.Snapshot, store.DeploymentRecord, error) {
	if f.store == nil {
		return nil, store.DeploymentRecord{}, ErrNoStore
	}
	d := f.Deployment()
	if d == nil {
		return nil, store.DeploymentRecord{}, ErrNoDeployment
	}

	snap, err := f.CreateSnapshot(ctx)
	if err != nil {
		return nil, store.DeploymentRecord{}, err
	}
	rec := d.Record(snap.ID, snap.ID)
	if err := f.store.WriteDeployment(ctx, rec); err != nil {
		return nil, store.DeploymentRecord{}, fmt.Errorf("save deployment: %w", err)
	}

	f.logger.Info("deployment saved",
		"id", rec.ID,
		"network", rec.NetworkName,
		"contracts", len(rec.Contracts),
	)
	return snap, rec, nil
}

// RestoreLatest loads the most recent saved deployment and resets the chain
// to the snapshot it was saved with.
func (f *Fixture) RestoreLatest(ctx context.Context) (store.DeploymentRecord, error) {
	if f.store == nil {
		return store.DeploymentRecord{}, ErrNoStore
	}
	rec, err := f.store.LatestDeployment(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return store.DeploymentRecord{}, ErrNoDeployment
	}
	if err != nil {
		return store.DeploymentRecord{}, err
	}
	return rec, f.restore(ctx, rec)
}

// RestoreDeployment is RestoreLatest for a specific deployment id.
func (f *Fixture) RestoreDeployment(ctx context.Context, id string) error {
	if f.store == nil {
		return ErrNoStore
	}
	rec, err := f.store.ReadDeployment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("deployment %s: %w", id, ErrNoDeployment)
	}
	if err != nil {
		return err
	}
	return f.restore(ctx, rec)
}

func (f *Fixture) restore(ctx context.Context, rec store.DeploymentRecord) error {
	d, err := deployer.DeploymentFromRecord(rec)
	if err != nil {
		return err
	}
	snapRec, err := f.store.ReadSnapshot(ctx, rec.SnapshotID)
	if err != nil {
		return fmt.Errorf("deployment %s: snapshot %s: %w", rec.ID, rec.SnapshotID, err)
	}
	snap, err := chain.SnapshotFromRecord(snapRec)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.deployments[snap.ID] = d
	f.mu.Unlock()
	return f.ResetToSnapshot(snap)
}
