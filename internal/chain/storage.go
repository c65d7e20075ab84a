package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Storage is a contract's view of its own storage slots.
//
// Slots hold strings. Zero values (empty string, zero address, zero integer,
// false) are stored by deleting the slot, so two states that differ only in
// explicitly zeroed slots have the same state root.
type Storage struct {
	acct     *account
	readOnly bool
	contract common.Address
	method   string
}

// Key joins slot path segments with "/". Addresses are rendered as
// lowercase hex so mapping keys are case-insensitive.
//
// Example: chain.Key("balances", holder) -> "balances/0xabc..."
func Key(parts ...any) string {
	segs := make([]string, len(parts))
	for i, p := range parts {
		switch v := p.(type) {
		case common.Address:
			segs[i] = strings.ToLower(v.Hex())
		case *big.Int:
			segs[i] = v.String()
		case [32]byte:
			segs[i] = common.Hash(v).Hex()
		default:
			segs[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(segs, "/")
}

// Get returns the raw slot value, or "" when unset.
func (s *Storage) Get(key string) string {
	if s.acct.Storage == nil {
		return ""
	}
	return s.acct.Storage[key]
}

// Set writes a raw slot value. Fails with STATIC_WRITE inside a view call.
func (s *Storage) Set(key, value string) error {
	if s.readOnly {
		return newFailure(CodeStaticWrite, s.contract, s.method, "storage write to %q in view call", key)
	}
	if value == "" {
		delete(s.acct.Storage, key)
		return nil
	}
	if s.acct.Storage == nil {
		s.acct.Storage = make(map[string]string)
	}
	s.acct.Storage[key] = value
	return nil
}

// Address reads an address slot.
func (s *Storage) Address(key string) common.Address {
	return common.HexToAddress(s.Get(key))
}

// SetAddress writes an address slot.
func (s *Storage) SetAddress(key string, addr common.Address) error {
	if addr == (common.Address{}) {
		return s.Set(key, "")
	}
	return s.Set(key, addr.Hex())
}

// Big reads an integer slot. Unset slots read as zero.
func (s *Storage) Big(key string) *big.Int {
	n, ok := new(big.Int).SetString(s.Get(key), 10)
	if !ok {
		return new(big.Int)
	}
	return n
}

// SetBig writes an integer slot.
func (s *Storage) SetBig(key string, n *big.Int) error {
	if n == nil || n.Sign() == 0 {
		return s.Set(key, "")
	}
	return s.Set(key, n.String())
}

// Bool reads a boolean slot.
func (s *Storage) Bool(key string) bool {
	return s.Get(key) == "1"
}

// SetBool writes a boolean slot.
func (s *Storage) SetBool(key string, b bool) error {
	if !b {
		return s.Set(key, "")
	}
	return s.Set(key, "1")
}

// Bytes32 reads a bytes32 slot.
func (s *Storage) Bytes32(key string) [32]byte {
	return common.HexToHash(s.Get(key))
}

// SetBytes32 writes a bytes32 slot.
func (s *Storage) SetBytes32(key string, b [32]byte) error {
	if b == ([32]byte{}) {
		return s.Set(key, "")
	}
	return s.Set(key, common.Hash(b).Hex())
}
