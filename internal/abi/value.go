package abi

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

var (
	maxInt256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	minInt256 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
)

// Canonical Go representations:
//
//	address -> common.Address
//	string  -> string
//	uint256 -> *big.Int (0 <= v < 2^256)
//	int256  -> *big.Int (-2^255 <= v < 2^255)
//	bool    -> bool
//	bytes32 -> [32]byte
//
// Coerce accepts the canonical form plus the loose forms produced by YAML,
// JSON and CLI parsing: hex strings for addresses and bytes32, decimal or
// 0x-prefixed strings and any Go integer for numbers, "true"/"false" for bool.
// Floats are rejected; they cannot represent on-chain integers exactly.
func Coerce(typ Type, v any) (any, error) {
	switch typ {
	case Address:
		return coerceAddress(v)
	case String:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case Uint256:
		n, err := coerceInt(v)
		if err != nil {
			return nil, err
		}
		if n.Sign() < 0 {
			return nil, fmt.Errorf("uint256 cannot be negative: %s", n)
		}
		if n.Cmp(math.MaxBig256) > 0 {
			return nil, fmt.Errorf("uint256 overflow: %s", n)
		}
		return n, nil
	case Int256:
		n, err := coerceInt(v)
		if err != nil {
			return nil, err
		}
		if n.Cmp(maxInt256) > 0 || n.Cmp(minInt256) < 0 {
			return nil, fmt.Errorf("int256 overflow: %s", n)
		}
		return n, nil
	case Bool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, fmt.Errorf("invalid bool %q", b)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("expected bool, got %T", v)
	case Bytes32:
		return coerceBytes32(v)
	default:
		return nil, fmt.Errorf("unsupported type %q", typ)
	}
}

func coerceAddress(v any) (common.Address, error) {
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case *common.Address:
		if a == nil {
			return common.Address{}, fmt.Errorf("nil address")
		}
		return *a, nil
	case string:
		if !common.IsHexAddress(a) {
			return common.Address{}, fmt.Errorf("invalid address %q", a)
		}
		return common.HexToAddress(a), nil
	case interface{ Addr() common.Address }:
		return a.Addr(), nil
	}
	return common.Address{}, fmt.Errorf("expected address, got %T", v)
}

func coerceInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(n), nil
	case big.Int:
		return new(big.Int).Set(&n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	case string:
		parsed, ok := math.ParseBig256(strings.TrimSpace(n))
		if !ok {
			// ParseBig256 rejects negatives; fall back for int256.
			parsed, ok = new(big.Int).SetString(strings.TrimSpace(n), 0)
			if !ok {
				return nil, fmt.Errorf("invalid integer %q", n)
			}
		}
		return parsed, nil
	case float32, float64:
		return nil, fmt.Errorf("floats are not allowed for integers: %v", n)
	}
	return nil, fmt.Errorf("expected integer, got %T", v)
}

func coerceBytes32(v any) ([32]byte, error) {
	var out [32]byte
	switch b := v.(type) {
	case [32]byte:
		return b, nil
	case common.Hash:
		return b, nil
	case string:
		if strings.HasPrefix(b, "0x") && len(b) == 66 {
			raw, err := hexutil.Decode(b)
			if err != nil {
				return out, fmt.Errorf("invalid bytes32 %q: %w", b, err)
			}
			copy(out[:], raw)
			return out, nil
		}
		return StringToBytes32(b)
	}
	return out, fmt.Errorf("expected bytes32, got %T", v)
}

// StringToBytes32 left-aligns a short string in a zero-padded 32 byte word,
// the way contract registries key their entries by name.
func StringToBytes32(s string) ([32]byte, error) {
	var out [32]byte
	if len(s) > 32 {
		return out, fmt.Errorf("string %q longer than 32 bytes", s)
	}
	copy(out[:], s)
	return out, nil
}

// Bytes32ToString is the inverse of StringToBytes32. Trailing zero bytes
// are dropped.
func Bytes32ToString(b [32]byte) string {
	return strings.TrimRight(string(b[:]), "\x00")
}

// Format renders a canonical value for display and for JSON traces:
// addresses (and anything with an Addr method) as checksummed hex, integers
// in decimal, bytes32 as hex.
func Format(v any) any {
	switch x := v.(type) {
	case common.Address:
		return x.Hex()
	case *big.Int:
		if x == nil {
			return "0"
		}
		return x.String()
	case [32]byte:
		return hexutil.Encode(x[:])
	case interface{ Addr() common.Address }:
		return x.Addr().Hex()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Format(e)
		}
		return out
	default:
		return v
	}
}

// FormatAll applies Format to every element.
func FormatAll(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = Format(v)
	}
	return out
}
