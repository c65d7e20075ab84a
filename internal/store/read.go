package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ReadSnapshot returns the snapshot with the given id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSnapshot(ctx context.Context, id string) (SnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, parent_id, block_number, state_root, state
		FROM snapshots
		WHERE id = ?
	`, id)
	return scanSnapshot(row)
}

// LatestSnapshot returns the most recently written snapshot.
// Returns sql.ErrNoRows if the store has no snapshots.
func (s *Store) LatestSnapshot(ctx context.Context) (SnapshotRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, parent_id, block_number, state_root, state
		FROM snapshots
		ORDER BY seq DESC
		LIMIT 1
	`)
	return scanSnapshot(row)
}

func scanSnapshot(row *sql.Row) (SnapshotRecord, error) {
	var rec SnapshotRecord
	err := row.Scan(&rec.Seq, &rec.ID, &rec.ParentID, &rec.BlockNumber, &rec.StateRoot, &rec.State)
	if err == sql.ErrNoRows {
		return SnapshotRecord{}, err
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("scan snapshot: %w", err)
	}
	return rec, nil
}

// ListSnapshots returns all snapshots without their encoded state, oldest
// first. Returns an empty slice (not nil) when there are none.
func (s *Store) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, parent_id, block_number, state_root
		FROM snapshots
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	infos := []SnapshotInfo{}
	for rows.Next() {
		var info SnapshotInfo
		if err := rows.Scan(&info.Seq, &info.ID, &info.ParentID, &info.BlockNumber, &info.StateRoot); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return infos, nil
}

// ReadTransactions returns every stored transaction with its logs, ordered
// by seq. Returns an empty slice (not nil) when there are none.
func (s *Store) ReadTransactions(ctx context.Context) ([]TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, hash, chain_seq, block_number, from_address, to_address, method,
		       args, status, reason, return_values, contract_address
		FROM transactions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	txs := []TransactionRecord{}
	for rows.Next() {
		var (
			tx         TransactionRecord
			argsJSON   string
			returnJSON string
		)
		if err := rows.Scan(
			&tx.Seq, &tx.Hash, &tx.ChainSeq, &tx.BlockNumber, &tx.From, &tx.To, &tx.Method,
			&argsJSON, &tx.Status, &tx.Reason, &returnJSON, &tx.ContractAddress,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if tx.Args, err = unmarshalValues(argsJSON); err != nil {
			rows.Close()
			return nil, fmt.Errorf("transaction %d: %w", tx.Seq, err)
		}
		if tx.Return, err = unmarshalValues(returnJSON); err != nil {
			rows.Close()
			return nil, fmt.Errorf("transaction %d: %w", tx.Seq, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	// Close before issuing log queries: the store holds a single connection.
	rows.Close()

	for i := range txs {
		logs, err := s.readLogs(ctx, txs[i].Seq)
		if err != nil {
			return nil, err
		}
		txs[i].Logs = logs
	}
	return txs, nil
}

func (s *Store) readLogs(ctx context.Context, txSeq int64) ([]LogRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT log_index, address, event, fields
		FROM logs
		WHERE tx_seq = ?
		ORDER BY log_index ASC
	`, txSeq)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var logs []LogRecord
	for rows.Next() {
		var (
			l          LogRecord
			fieldsJSON string
		)
		if err := rows.Scan(&l.Index, &l.Address, &l.Event, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		if l.Fields, err = unmarshalFields(fieldsJSON); err != nil {
			return nil, fmt.Errorf("log %d/%d: %w", txSeq, l.Index, err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return logs, nil
}

// ReadDeployment returns the deployment with the given id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadDeployment(ctx context.Context, id string) (DeploymentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, network_name, deployer, controller, universe, contracts, upload_block, snapshot_id
		FROM deployments
		WHERE id = ?
	`, id)
	return scanDeployment(row)
}

// LatestDeployment returns the most recent deployment.
// Returns sql.ErrNoRows if none exists.
func (s *Store) LatestDeployment(ctx context.Context) (DeploymentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, network_name, deployer, controller, universe, contracts, upload_block, snapshot_id
		FROM deployments
		ORDER BY seq DESC
		LIMIT 1
	`)
	return scanDeployment(row)
}

func scanDeployment(row *sql.Row) (DeploymentRecord, error) {
	var (
		d             DeploymentRecord
		contractsJSON string
	)
	err := row.Scan(&d.Seq, &d.ID, &d.NetworkName, &d.Deployer, &d.Controller, &d.Universe, &contractsJSON, &d.UploadBlock, &d.SnapshotID)
	if err == sql.ErrNoRows {
		return DeploymentRecord{}, err
	}
	if err != nil {
		return DeploymentRecord{}, fmt.Errorf("scan deployment: %w", err)
	}

	fields, err := unmarshalFields(contractsJSON)
	if err != nil {
		return DeploymentRecord{}, fmt.Errorf("deployment %s: %w", d.ID, err)
	}
	d.Contracts = make(map[string]string, len(fields))
	for name, v := range fields {
		addr, ok := v.(string)
		if !ok {
			return DeploymentRecord{}, fmt.Errorf("deployment %s: contract %s: expected address string, got %T", d.ID, name, v)
		}
		d.Contracts[name] = addr
	}
	return d, nil
}
