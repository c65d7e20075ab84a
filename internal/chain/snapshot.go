package chain

import (
	"context"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/store"
)

// Snapshot is an immutable checkpoint of chain state.
//
// The encoded world is private and never handed out without copying, so a
// snapshot cannot be mutated after creation; resetting decodes a fresh copy
// every time.
type Snapshot struct {
	ID          string
	ParentID    string
	BlockNumber uint64
	StateRoot   common.Hash

	state    []byte
	receipts []*Receipt
}

// State returns a copy of the encoded world.
func (s *Snapshot) State() []byte {
	return slices.Clone(s.state)
}

// Record converts the snapshot to its persisted form.
func (s *Snapshot) Record() store.SnapshotRecord {
	return store.SnapshotRecord{
		ID:          s.ID,
		ParentID:    s.ParentID,
		BlockNumber: s.BlockNumber,
		StateRoot:   s.StateRoot.Hex(),
		State:       s.State(),
	}
}

// SnapshotFromRecord rebuilds a snapshot loaded from the store. The state
// root is recomputed and must match the recorded one. Receipt history is not
// persisted with snapshots, so a restored chain starts with no receipts.
func SnapshotFromRecord(rec store.SnapshotRecord) (*Snapshot, error) {
	w, err := decodeWorld(rec.State)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", rec.ID, err)
	}
	root, err := w.root()
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", rec.ID, err)
	}
	if root.Hex() != rec.StateRoot {
		return nil, fmt.Errorf("snapshot %s: state root mismatch: recorded %s, computed %s", rec.ID, rec.StateRoot, root.Hex())
	}
	return &Snapshot{
		ID:          rec.ID,
		ParentID:    rec.ParentID,
		BlockNumber: rec.BlockNumber,
		StateRoot:   root,
		state:       slices.Clone(rec.State),
	}, nil
}

// CreateSnapshot captures the current state. When a store is configured
// the snapshot is persisted as well.
func (c *Chain) CreateSnapshot(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.world.encode()
	if err != nil {
		return nil, err
	}
	root, err := c.world.root()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:          c.ids.Generate(),
		ParentID:    c.head,
		BlockNumber: c.world.Block,
		StateRoot:   root,
		state:       data,
		receipts:    slices.Clone(c.receipts),
	}
	c.head = snap.ID

	if c.store != nil {
		if err := c.store.WriteSnapshot(ctx, snap.Record()); err != nil {
			return nil, fmt.Errorf("persist snapshot: %w", err)
		}
	}

	c.logger.Debug("snapshot created", "id", snap.ID, "block", snap.BlockNumber, "root", root.Hex())
	return snap, nil
}

// ResetToSnapshot replaces the current state with the snapshot's state.
// Everything that happened after the snapshot is discarded.
func (c *Chain) ResetToSnapshot(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("reset to snapshot: nil snapshot")
	}

	w, err := decodeWorld(snap.state)
	if err != nil {
		return fmt.Errorf("reset to snapshot %s: %w", snap.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.world = w
	c.receipts = slices.Clone(snap.receipts)
	c.head = snap.ID

	c.logger.Debug("reset to snapshot", "id", snap.ID, "block", snap.BlockNumber)
	return nil
}
