package abi

import (
	"fmt"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Type is a Solidity-style parameter type. Only the subset needed by the
// contract family is supported.
type Type string

// Supported parameter types.
const (
	Address Type = "address"
	String  Type = "string"
	Uint256 Type = "uint256"
	Int256  Type = "int256"
	Bool    Type = "bool"
	Bytes32 Type = "bytes32"
)

// Param is a named, typed method parameter or return value.
type Param struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// P is a shorthand for Param.
// Example: abi.P("amount", abi.Uint256)
func P(name string, typ Type) Param {
	return Param{Name: name, Type: typ}
}

// Method describes one callable entry point of a contract.
type Method struct {
	Name    string  `json:"name"`
	Inputs  []Param `json:"inputs"`
	Outputs []Param `json:"outputs,omitempty"`

	// View methods run against a read-only view of storage. Any write or
	// emitted event inside a view call fails the transaction.
	View bool `json:"view,omitempty"`
}

// Signature returns the canonical signature, e.g. "transfer(address,uint256)".
func (m Method) Signature() string {
	types := make([]string, len(m.Inputs))
	for i, p := range m.Inputs {
		types[i] = string(p.Type)
	}
	return fmt.Sprintf("%s(%s)", m.Name, strings.Join(types, ","))
}

// Selector returns the first four bytes of keccak256(Signature()).
func (m Method) Selector() [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(m.Signature())))
	return sel
}

// Coerce converts loosely typed arguments (Go values, YAML or JSON scalars)
// into the canonical Go representation for each input type.
//
// Returns *ArgumentError for arity or type mismatches.
func (m Method) Coerce(args []any) ([]any, error) {
	return coerceAll(m.Name, m.Inputs, args)
}

// CoerceOutputs is like Coerce but applies to the return values.
func (m Method) CoerceOutputs(values []any) ([]any, error) {
	return coerceAll(m.Name, m.Outputs, values)
}

// Pack returns selector || ABI-encoded arguments. Arguments must already be
// coerced.
func (m Method) Pack(args []any) ([]byte, error) {
	packed, err := packParams(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", m.Signature(), err)
	}
	sel := m.Selector()
	return append(sel[:], packed...), nil
}

func coerceAll(method string, params []Param, args []any) ([]any, error) {
	if len(args) != len(params) {
		return nil, &ArgumentError{
			Method: method,
			Index:  -1,
			Err:    fmt.Errorf("expected %d arguments, got %d", len(params), len(args)),
		}
	}

	out := make([]any, len(args))
	for i, p := range params {
		v, err := Coerce(p.Type, args[i])
		if err != nil {
			return nil, &ArgumentError{Method: method, Index: i, Param: p.Name, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

func packParams(params []Param, args []any) ([]byte, error) {
	arguments := make(gethabi.Arguments, len(params))
	for i, p := range params {
		t, err := gethabi.NewType(string(p.Type), "", nil)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", p.Name, err)
		}
		arguments[i] = gethabi.Argument{Name: p.Name, Type: t}
	}
	return arguments.Pack(args...)
}

// ABI is an ordered set of methods for one contract kind.
type ABI struct {
	methods map[string]Method
	order   []string
}

// New builds an ABI from the given methods. Method names must be unique;
// overloading is not supported.
func New(methods ...Method) *ABI {
	a := &ABI{methods: make(map[string]Method, len(methods))}
	for _, m := range methods {
		if _, dup := a.methods[m.Name]; dup {
			panic(fmt.Sprintf("abi: duplicate method %q", m.Name))
		}
		a.methods[m.Name] = m
		a.order = append(a.order, m.Name)
	}
	return a
}

// Method looks up a method by name.
func (a *ABI) Method(name string) (Method, bool) {
	m, ok := a.methods[name]
	return m, ok
}

// Methods returns all methods in declaration order.
func (a *ABI) Methods() []Method {
	out := make([]Method, len(a.order))
	for i, name := range a.order {
		out[i] = a.methods[name]
	}
	return out
}

// Signatures returns the method signatures in declaration order.
func (a *ABI) Signatures() []string {
	out := make([]string, len(a.order))
	for i, name := range a.order {
		out[i] = a.methods[name].Signature()
	}
	return out
}

// ArgumentError reports an argument that does not fit the method's ABI.
type ArgumentError struct {
	Method string
	Index  int // -1 for arity errors
	Param  string
	Err    error
}

func (e *ArgumentError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", e.Method, e.Err)
	}
	return fmt.Sprintf("%s: argument %d (%s): %v", e.Method, e.Index, e.Param, e.Err)
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}
