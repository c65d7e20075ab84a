package store

import (
	"context"
	"fmt"
)

// WriteSnapshot inserts a snapshot. Uses ON CONFLICT(id) DO NOTHING for
// idempotency - writing the same snapshot twice is a no-op.
func (s *Store) WriteSnapshot(ctx context.Context, snap SnapshotRecord) error {
	if snap.ID == "" {
		return fmt.Errorf("write snapshot: id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, parent_id, block_number, state_root, state)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		snap.ID,
		snap.ParentID,
		snap.BlockNumber,
		snap.StateRoot,
		snap.State,
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// WriteTransaction inserts a transaction and its logs atomically.
func (s *Store) WriteTransaction(ctx context.Context, tx TransactionRecord) error {
	argsJSON, err := marshalValues(tx.Args)
	if err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}
	returnJSON, err := marshalValues(tx.Return)
	if err != nil {
		return fmt.Errorf("write transaction: %w", err)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write transaction: begin tx: %w", err)
	}
	defer dbTx.Rollback() // No-op if committed

	result, err := dbTx.ExecContext(ctx, `
		INSERT INTO transactions
		(hash, chain_seq, block_number, from_address, to_address, method, args, status, reason, return_values, contract_address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tx.Hash,
		tx.ChainSeq,
		tx.BlockNumber,
		tx.From,
		tx.To,
		tx.Method,
		argsJSON,
		tx.Status,
		tx.Reason,
		returnJSON,
		tx.ContractAddress,
	)
	if err != nil {
		return fmt.Errorf("write transaction: insert: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("write transaction: last insert id: %w", err)
	}

	for _, l := range tx.Logs {
		fieldsJSON, err := marshalJSON(l.Fields)
		if err != nil {
			return fmt.Errorf("write transaction: marshal log %d: %w", l.Index, err)
		}
		if _, err := dbTx.ExecContext(ctx, `
			INSERT INTO logs (tx_seq, log_index, address, event, fields)
			VALUES (?, ?, ?, ?, ?)
		`, seq, l.Index, l.Address, l.Event, fieldsJSON); err != nil {
			return fmt.Errorf("write transaction: insert log %d: %w", l.Index, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("write transaction: commit: %w", err)
	}
	return nil
}

// WriteDeployment inserts a deployment record.
func (s *Store) WriteDeployment(ctx context.Context, d DeploymentRecord) error {
	if d.ID == "" {
		return fmt.Errorf("write deployment: id is required")
	}
	contractsJSON, err := marshalJSON(d.Contracts)
	if err != nil {
		return fmt.Errorf("write deployment: marshal contracts: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO deployments
		(id, network_name, deployer, controller, universe, contracts, upload_block, snapshot_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		d.ID,
		d.NetworkName,
		d.Deployer,
		d.Controller,
		d.Universe,
		contractsJSON,
		d.UploadBlock,
		d.SnapshotID,
	)
	if err != nil {
		return fmt.Errorf("write deployment: %w", err)
	}
	return nil
}
