package chain

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// account is an externally owned account (Code == "") or a contract.
type account struct {
	Nonce   uint64            `json:"nonce"`
	Code    string            `json:"code,omitempty"`
	Storage map[string]string `json:"storage,omitempty"`
}

// world is the complete chain state. It is what a snapshot captures.
//
// encoding/json sorts map keys (addresses by their hex text form), so the
// encoding is deterministic and suitable for the state root.
type world struct {
	Accounts  map[common.Address]*account `json:"accounts"`
	Block     uint64                      `json:"block"`
	Timestamp uint64                      `json:"timestamp"`
	TxCount   int                         `json:"tx_count"`
}

func newWorld() *world {
	return &world{Accounts: make(map[common.Address]*account)}
}

// account returns the account at addr, creating an empty one when create is
// true. Returns nil when the account does not exist and create is false.
func (w *world) account(addr common.Address, create bool) *account {
	acct, ok := w.Accounts[addr]
	if !ok && create {
		acct = &account{}
		w.Accounts[addr] = acct
	}
	return acct
}

func (w *world) codeAt(addr common.Address) string {
	if acct := w.Accounts[addr]; acct != nil {
		return acct.Code
	}
	return ""
}

func (w *world) clone() *world {
	out := &world{
		Accounts:  make(map[common.Address]*account, len(w.Accounts)),
		Block:     w.Block,
		Timestamp: w.Timestamp,
		TxCount:   w.TxCount,
	}
	for addr, acct := range w.Accounts {
		out.Accounts[addr] = &account{
			Nonce:   acct.Nonce,
			Code:    acct.Code,
			Storage: maps.Clone(acct.Storage),
		}
	}
	return out
}

func (w *world) encode() ([]byte, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode world: %w", err)
	}
	return data, nil
}

func decodeWorld(data []byte) (*world, error) {
	w := newWorld()
	if err := json.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("decode world: %w", err)
	}
	if w.Accounts == nil {
		w.Accounts = make(map[common.Address]*account)
	}
	return w, nil
}

func (w *world) root() (common.Hash, error) {
	data, err := w.encode()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(data), nil
}
