package chain

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/abi"
)

// Transaction status values.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Log is an event emitted by a contract during a successful transaction.
type Log struct {
	Address common.Address `json:"address"`
	Event   string         `json:"event"`
	Fields  []Field        `json:"fields"`
}

// Field is one named value of an event.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// F is a shorthand for Field.
func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// Get returns the value of the named field.
func (l Log) Get(name string) (any, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// FieldMap returns the fields rendered with abi.Format, keyed by name.
func (l Log) FieldMap() map[string]any {
	out := make(map[string]any, len(l.Fields))
	for _, f := range l.Fields {
		out[f.Name] = abi.Format(f.Value)
	}
	return out
}

// Receipt records the outcome of one transaction.
type Receipt struct {
	TxHash      common.Hash    `json:"tx_hash"`
	Seq         int            `json:"seq"`
	BlockNumber uint64         `json:"block_number"`
	From        common.Address `json:"from"`
	To          common.Address `json:"to"`
	Method      string         `json:"method"`
	Args        []any          `json:"args"`
	Status      string         `json:"status"`
	Return      []any          `json:"return,omitempty"`
	Logs        []Log          `json:"logs,omitempty"`

	// ContractAddress is set for deployments.
	ContractAddress common.Address `json:"contract_address,omitempty"`

	// Failure is set when Status is StatusFailed.
	Failure *TxFailedError `json:"-"`
}

// Succeeded reports whether the transaction succeeded.
func (r *Receipt) Succeeded() bool {
	return r.Status == StatusSuccess
}

// FailureReason returns the failure description, or "".
func (r *Receipt) FailureReason() string {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Error()
}
