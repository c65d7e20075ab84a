package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"snapshots", "transactions", "logs", "deployments"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		if err := s.verifyPragma(tt.name, tt.expected); err != nil {
			t.Error(err)
		}
	}
}

func TestOpen_SchemaVersion(t *testing.T) {
	s := openTestStore(t)

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_transactions_hash'",
	).Scan(&name)
	if err != nil {
		t.Errorf("hash index missing: %v", err)
	}
}

func TestSnapshot_WriteRead(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := SnapshotRecord{
		ID:          "snap-1",
		BlockNumber: 7,
		StateRoot:   "0xabc",
		State:       []byte(`{"block":7}`),
	}
	if err := s.WriteSnapshot(ctx, rec); err != nil {
		t.Fatalf("WriteSnapshot() failed: %v", err)
	}

	got, err := s.ReadSnapshot(ctx, "snap-1")
	if err != nil {
		t.Fatalf("ReadSnapshot() failed: %v", err)
	}
	if got.BlockNumber != 7 || got.StateRoot != "0xabc" || string(got.State) != `{"block":7}` {
		t.Errorf("ReadSnapshot() = %+v", got)
	}
	if got.Seq == 0 {
		t.Error("expected seq to be assigned")
	}
}

func TestSnapshot_WriteIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := SnapshotRecord{ID: "snap-1", StateRoot: "0x1", State: []byte("{}")}
	for i := 0; i < 2; i++ {
		if err := s.WriteSnapshot(ctx, rec); err != nil {
			t.Fatalf("WriteSnapshot() #%d failed: %v", i, err)
		}
	}

	infos, err := s.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("ListSnapshots() failed: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("len(ListSnapshots()) = %d, want 1", len(infos))
	}
}

func TestSnapshot_RequiresID(t *testing.T) {
	s := openTestStore(t)
	if err := s.WriteSnapshot(context.Background(), SnapshotRecord{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestSnapshot_NotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.ReadSnapshot(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadSnapshot() err = %v, want sql.ErrNoRows", err)
	}
	if _, err := s.LatestSnapshot(ctx); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("LatestSnapshot() err = %v, want sql.ErrNoRows", err)
	}
}

func TestSnapshot_ListAndLatestOrderBySeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// IDs sort opposite to insertion order; seq must win.
	for _, id := range []string{"c", "b", "a"} {
		if err := s.WriteSnapshot(ctx, SnapshotRecord{ID: id, StateRoot: "0x" + id, State: []byte("{}")}); err != nil {
			t.Fatalf("WriteSnapshot(%s) failed: %v", id, err)
		}
	}

	infos, err := s.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("ListSnapshots() failed: %v", err)
	}
	var ids []string
	for _, info := range infos {
		ids = append(ids, info.ID)
	}
	if len(ids) != 3 || ids[0] != "c" || ids[1] != "b" || ids[2] != "a" {
		t.Errorf("ListSnapshots() ids = %v, want [c b a]", ids)
	}

	latest, err := s.LatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LatestSnapshot() failed: %v", err)
	}
	if latest.ID != "a" {
		t.Errorf("LatestSnapshot().ID = %q, want a", latest.ID)
	}
}

func TestListSnapshots_EmptyIsNotNil(t *testing.T) {
	s := openTestStore(t)
	infos, err := s.ListSnapshots(context.Background())
	if err != nil {
		t.Fatalf("ListSnapshots() failed: %v", err)
	}
	if infos == nil {
		t.Error("ListSnapshots() returned nil, want empty slice")
	}
}

func TestTransaction_WriteReadWithLogs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx := TransactionRecord{
		Hash:        "0xfeed",
		ChainSeq:    1,
		BlockNumber: 2,
		From:        "0xa",
		To:          "0xb",
		Method:      "createMarket",
		Args:        []any{"Will <it> rain & pour?", "1000000000000000000000"},
		Status:      "success",
		Return:      []any{true},
		Logs: []LogRecord{
			{Index: 0, Address: "0xb", Event: "MarketCreated", Fields: map[string]any{"numTicks": "10000"}},
			{Index: 1, Address: "0xc", Event: "Transfer", Fields: map[string]any{"value": "5"}},
		},
	}
	if err := s.WriteTransaction(ctx, tx); err != nil {
		t.Fatalf("WriteTransaction() failed: %v", err)
	}

	txs, err := s.ReadTransactions(ctx)
	if err != nil {
		t.Fatalf("ReadTransactions() failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("len(ReadTransactions()) = %d, want 1", len(txs))
	}
	got := txs[0]
	if got.Method != "createMarket" || got.Status != "success" || got.ChainSeq != 1 {
		t.Errorf("transaction = %+v", got)
	}
	if got.Args[0] != "Will <it> rain & pour?" {
		t.Errorf("Args[0] = %v, want unescaped text", got.Args[0])
	}
	if got.Args[1] != "1000000000000000000000" {
		t.Errorf("Args[1] = %v, want exact decimal string", got.Args[1])
	}
	if len(got.Logs) != 2 || got.Logs[0].Event != "MarketCreated" || got.Logs[1].Event != "Transfer" {
		t.Errorf("Logs = %+v", got.Logs)
	}
	if got.Logs[0].Fields["numTicks"] != "10000" {
		t.Errorf("Logs[0].Fields = %v", got.Logs[0].Fields)
	}
}

func TestTransaction_NumbersDecodeWithoutPrecisionLoss(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx := TransactionRecord{Hash: "0x1", Method: "m", Status: "success", Return: []any{json.Number("9007199254740993")}}
	if err := s.WriteTransaction(ctx, tx); err != nil {
		t.Fatalf("WriteTransaction() failed: %v", err)
	}
	txs, err := s.ReadTransactions(ctx)
	if err != nil {
		t.Fatalf("ReadTransactions() failed: %v", err)
	}
	if n, ok := txs[0].Return[0].(json.Number); !ok || n.String() != "9007199254740993" {
		t.Errorf("Return[0] = %#v", txs[0].Return[0])
	}
}

func TestTransaction_FailedStatusAndReason(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tx := TransactionRecord{Hash: "0x2", Method: "trustedTransfer", Status: "failed", Reason: "REVERTED: amount must be positive"}
	if err := s.WriteTransaction(ctx, tx); err != nil {
		t.Fatalf("WriteTransaction() failed: %v", err)
	}
	txs, err := s.ReadTransactions(ctx)
	if err != nil {
		t.Fatalf("ReadTransactions() failed: %v", err)
	}
	if txs[0].Status != "failed" || txs[0].Reason != tx.Reason {
		t.Errorf("transaction = %+v", txs[0])
	}
	if len(txs[0].Args) != 0 || txs[0].Args == nil {
		t.Errorf("Args = %#v, want empty non-nil slice", txs[0].Args)
	}
}

func TestTransaction_RejectsUnknownStatus(t *testing.T) {
	s := openTestStore(t)
	tx := TransactionRecord{Hash: "0x3", Method: "m", Status: "pending"}
	if err := s.WriteTransaction(context.Background(), tx); err == nil {
		t.Error("expected CHECK constraint failure for status")
	}
}

func TestTransaction_DuplicateHashAllowed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Replaying a snapshot re-issues the same transactions.
	tx := TransactionRecord{Hash: "0xdup", Method: "m", Status: "success"}
	for i := 0; i < 2; i++ {
		if err := s.WriteTransaction(ctx, tx); err != nil {
			t.Fatalf("WriteTransaction() #%d failed: %v", i, err)
		}
	}
	txs, err := s.ReadTransactions(ctx)
	if err != nil {
		t.Fatalf("ReadTransactions() failed: %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("len(ReadTransactions()) = %d, want 2", len(txs))
	}
}

func TestDeployment_WriteLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.LatestDeployment(ctx); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("LatestDeployment() on empty store err = %v, want sql.ErrNoRows", err)
	}

	for _, id := range []string{"d1", "d2"} {
		d := DeploymentRecord{
			ID:          id,
			NetworkName: "testrpc",
			Deployer:    "0xdep",
			Controller:  "0xctl-" + id,
			Contracts:   map[string]string{"Controller": "0xctl-" + id, "AugurLite": "0xaug"},
			UploadBlock: 1,
		}
		if err := s.WriteDeployment(ctx, d); err != nil {
			t.Fatalf("WriteDeployment(%s) failed: %v", id, err)
		}
	}

	got, err := s.LatestDeployment(ctx)
	if err != nil {
		t.Fatalf("LatestDeployment() failed: %v", err)
	}
	if got.ID != "d2" || got.Controller != "0xctl-d2" {
		t.Errorf("LatestDeployment() = %+v", got)
	}
	if got.Contracts["AugurLite"] != "0xaug" || len(got.Contracts) != 2 {
		t.Errorf("Contracts = %v", got.Contracts)
	}
}

func TestDeployment_ReadByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := DeploymentRecord{
		ID:          "deploy-0001",
		NetworkName: "testrpc",
		Deployer:    "0xdep",
		Controller:  "0xctl",
		Universe:    "0xuni",
		Contracts:   map[string]string{"Controller": "0xctl"},
		SnapshotID:  "snapshot-0001",
	}
	if err := s.WriteDeployment(ctx, d); err != nil {
		t.Fatalf("WriteDeployment() failed: %v", err)
	}

	got, err := s.ReadDeployment(ctx, "deploy-0001")
	if err != nil {
		t.Fatalf("ReadDeployment() failed: %v", err)
	}
	if got.Universe != "0xuni" || got.SnapshotID != "snapshot-0001" || got.Seq == 0 {
		t.Errorf("ReadDeployment() = %+v", got)
	}

	if _, err := s.ReadDeployment(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadDeployment(missing) err = %v, want sql.ErrNoRows", err)
	}
}
