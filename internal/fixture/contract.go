package fixture

import (
	"context"
	"fmt"
	"math/big"
	"maps"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/chain"
)

// Contract is a handle to a deployed contract. Calls are sent from a
// default sender and run under the handle's context.
type Contract struct {
	Name    string
	Address common.Address

	chain  *chain.Chain
	sender common.Address
	ctx    context.Context
}

func newContract(c *chain.Chain, name string, addr common.Address, sender common.Address) *Contract {
	return &Contract{
		Name:    name,
		Address: addr,
		chain:   c,
		sender:  sender,
		ctx:     context.Background(),
	}
}

// Addr returns the contract address. Handles can be passed directly as
// address arguments.
func (c *Contract) Addr() common.Address {
	return c.Address
}

// Sender returns the account calls are sent from.
func (c *Contract) Sender() common.Address {
	return c.sender
}

// WithSender returns a copy of the handle that sends from addr.
func (c *Contract) WithSender(addr common.Address) *Contract {
	cp := *c
	cp.sender = addr
	return &cp
}

// WithContext returns a copy of the handle bound to ctx.
func (c *Contract) WithContext(ctx context.Context) *Contract {
	cp := *c
	cp.ctx = ctx
	return &cp
}

// Call runs a read-only call and returns its outputs.
func (c *Contract) Call(method string, args ...any) ([]any, error) {
	return c.chain.Call(c.ctx, c.sender, c.Address, method, args...)
}

// Transact sends a state-changing transaction.
func (c *Contract) Transact(method string, args ...any) (*chain.Receipt, error) {
	return c.chain.Transact(c.ctx, c.sender, c.Address, method, args...)
}

func (c *Contract) callBool(method string, args ...any) (bool, error) {
	out, err := c.Call(method, args...)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

func (c *Contract) callBig(method string, args ...any) (*big.Int, error) {
	out, err := c.Call(method, args...)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

func (c *Contract) callAddress(method string, args ...any) (common.Address, error) {
	out, err := c.Call(method, args...)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

// transactBool sends a transaction whose method returns a bool. A failed
// transaction returns false and the *chain.TxFailedError.
func (c *Contract) transactBool(method string, args ...any) (bool, error) {
	r, err := c.Transact(method, args...)
	if err != nil {
		return false, err
	}
	return r.Return[0].(bool), nil
}

// Registry resolves contract handles by name.
type Registry struct {
	contracts map[string]*Contract
}

func newRegistry() *Registry {
	return &Registry{contracts: make(map[string]*Contract)}
}

// Get returns the handle registered under name.
func (r *Registry) Get(name string) (*Contract, error) {
	c, ok := r.contracts[name]
	if !ok {
		return nil, fmt.Errorf("unknown contract name %q", name)
	}
	return c, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.contracts[name]
	return ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.contracts))
}

func (r *Registry) set(c *Contract) {
	r.contracts[c.Name] = c
}
