package fixture

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/abi"
	"github.com/roach88/augurlite/internal/chain"
)

var hexAddress = regexp.MustCompile(`0x[0-9a-fA-F]{40}`)

// Name returns the contract or test account name of addr, or its hex form
// when it has neither.
func (f *Fixture) Name(addr common.Address) string {
	f.mu.Lock()
	contracts := f.Contracts
	f.mu.Unlock()

	for _, name := range contracts.Names() {
		if c, _ := contracts.Get(name); c.Address == addr {
			return name
		}
	}
	for _, name := range chain.AccountNames() {
		if chain.TestAccounts[name].Address == addr {
			return name
		}
	}
	return addr.Hex()
}

// Describe renders a value for traces and CLI output: abi.Format, with
// known addresses replaced by their names.
func (f *Fixture) Describe(v any) any {
	switch x := v.(type) {
	case common.Address:
		return f.Name(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = f.Describe(e)
		}
		return out
	default:
		return abi.Format(v)
	}
}

// DescribeAll applies Describe to every element.
func (f *Fixture) DescribeAll(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = f.Describe(v)
	}
	return out
}

// DescribeText replaces hex addresses inside free text (failure reasons)
// with their names.
func (f *Fixture) DescribeText(s string) string {
	return hexAddress.ReplaceAllStringFunc(s, func(hex string) string {
		return f.Name(common.HexToAddress(hex))
	})
}

// DescribeLog renders a log's fields keyed by name.
func (f *Fixture) DescribeLog(l chain.Log) map[string]any {
	out := make(map[string]any, len(l.Fields))
	for _, field := range l.Fields {
		out[field.Name] = f.Describe(field.Value)
	}
	return out
}

// ResolveArgs prepares loosely typed arguments from YAML or the command
// line for a call to method on the contract at to. Address parameters
// accept contract and account names; integer parameters accept "now" and
// "now+N" relative to the latest block time. The result is coerced to the
// method's canonical types; arguments that do not fit the method are passed
// through for the chain to reject.
func (f *Fixture) ResolveArgs(to common.Address, method string, args []any) ([]any, error) {
	code, ok := f.Chain.Code(f.Chain.CodeAt(to))
	if !ok {
		return args, nil
	}
	m, ok := code.ABI().Method(method)
	if !ok {
		return args, nil
	}

	out := make([]any, len(args))
	copy(out, args)
	for i, p := range m.Inputs {
		if i >= len(out) {
			break
		}
		s, isString := out[i].(string)
		if !isString {
			continue
		}
		switch p.Type {
		case abi.Address:
			if common.IsHexAddress(s) {
				continue
			}
			addr, err := f.Resolve(s)
			if err != nil {
				return nil, fmt.Errorf("argument %d (%s): %w", i, p.Name, err)
			}
			out[i] = addr
		case abi.Uint256, abi.Int256:
			t, ok, err := f.relativeTime(s)
			if err != nil {
				return nil, fmt.Errorf("argument %d (%s): %w", i, p.Name, err)
			}
			if ok {
				out[i] = t
			}
		}
	}
	if coerced, err := m.Coerce(out); err == nil {
		return coerced, nil
	}
	return out, nil
}

func (f *Fixture) relativeTime(s string) (*big.Int, bool, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "now")
	if !ok {
		return nil, false, nil
	}
	now := new(big.Int).SetUint64(f.Chain.Now())
	if rest == "" {
		return now, true, nil
	}
	sign := rest[0]
	if sign != '+' && sign != '-' {
		return nil, false, fmt.Errorf("invalid relative time %q", s)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(rest[1:]), 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("invalid relative time %q: %w", s, err)
	}
	offset := new(big.Int).SetUint64(n)
	if sign == '-' {
		return now.Sub(now, offset), true, nil
	}
	return now.Add(now, offset), true, nil
}
