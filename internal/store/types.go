package store

// SnapshotRecord is a persisted chain snapshot.
type SnapshotRecord struct {
	Seq         int64
	ID          string
	ParentID    string
	BlockNumber uint64
	StateRoot   string
	State       []byte
}

// SnapshotInfo is a snapshot without its encoded state, for listings.
type SnapshotInfo struct {
	Seq         int64  `json:"seq"`
	ID          string `json:"id"`
	ParentID    string `json:"parent_id,omitempty"`
	BlockNumber uint64 `json:"block_number"`
	StateRoot   string `json:"state_root"`
}

// TransactionRecord is a persisted receipt. Values are pre-formatted for
// JSON (addresses as hex, integers as decimal strings).
type TransactionRecord struct {
	Seq             int64       `json:"seq"`
	Hash            string      `json:"hash"`
	ChainSeq        int64       `json:"chain_seq"`
	BlockNumber     uint64      `json:"block_number"`
	From            string      `json:"from"`
	To              string      `json:"to"`
	Method          string      `json:"method"`
	Args            []any       `json:"args"`
	Status          string      `json:"status"`
	Reason          string      `json:"reason,omitempty"`
	Return          []any       `json:"return,omitempty"`
	ContractAddress string      `json:"contract_address,omitempty"`
	Logs            []LogRecord `json:"logs,omitempty"`
}

// LogRecord is a persisted event log.
type LogRecord struct {
	Index   int            `json:"index"`
	Address string         `json:"address"`
	Event   string         `json:"event"`
	Fields  map[string]any `json:"fields"`
}

// DeploymentRecord is a persisted deployment result.
type DeploymentRecord struct {
	Seq         int64             `json:"seq"`
	ID          string            `json:"id"`
	NetworkName string            `json:"network_name"`
	Deployer    string            `json:"deployer"`
	Controller  string            `json:"controller"`
	Universe    string            `json:"universe,omitempty"`
	Contracts   map[string]string `json:"contracts"`
	UploadBlock uint64            `json:"upload_block"`
	SnapshotID  string            `json:"snapshot_id,omitempty"`
}
