package contracts

import (
	"github.com/roach88/augurlite/internal/abi"
	"github.com/roach88/augurlite/internal/chain"
)

// handler runs one method. Args are already coerced to the method's input
// types.
type handler func(env *chain.Env, args []any) ([]any, error)

// method pairs an ABI entry with its implementation.
type method struct {
	abi.Method
	run handler
}

// code is a chain.Code assembled from a method table.
type code struct {
	kind      string
	abi       *abi.ABI
	ctor      abi.Method
	construct func(env *chain.Env, args []any) error
	handlers  map[string]handler
}

func newCode(kind string, ctor abi.Method, construct func(*chain.Env, []any) error, methods ...method) *code {
	c := &code{
		kind:      kind,
		ctor:      ctor,
		construct: construct,
		handlers:  make(map[string]handler, len(methods)),
	}
	entries := make([]abi.Method, len(methods))
	for i, m := range methods {
		entries[i] = m.Method
		c.handlers[m.Name] = m.run
	}
	c.abi = abi.New(entries...)
	return c
}

func (c *code) Kind() string { return c.kind }
func (c *code) ABI() *abi.ABI { return c.abi }
func (c *code) Constructor() abi.Method { return c.ctor }

func (c *code) Construct(env *chain.Env, args []any) error {
	if c.construct == nil {
		return nil
	}
	return c.construct(env, args)
}

func (c *code) Invoke(env *chain.Env, m abi.Method, args []any) ([]any, error) {
	run, ok := c.handlers[m.Name]
	if !ok {
		return nil, chain.Revert("%s: method %s has no implementation", c.kind, m.Name)
	}
	return run(env, args)
}

// fn declares a state-changing method.
func fn(name string, inputs []abi.Param, outputs []abi.Param, run handler) method {
	return method{Method: abi.Method{Name: name, Inputs: inputs, Outputs: outputs}, run: run}
}

// view declares a read-only method.
func view(name string, inputs []abi.Param, outputs []abi.Param, run handler) method {
	return method{Method: abi.Method{Name: name, Inputs: inputs, Outputs: outputs, View: true}, run: run}
}

func params(ps ...abi.Param) []abi.Param { return ps }

func ctor(ps ...abi.Param) abi.Method {
	return abi.Method{Name: "constructor", Inputs: ps}
}

func success() ([]any, error) { return []any{true}, nil }

var returnsBool = params(abi.P("", abi.Bool))
