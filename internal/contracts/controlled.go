package contracts

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/abi"
	"github.com/roach88/augurlite/internal/chain"
)

const slotController = "controller"

// Controlled contracts remember which Controller governs them. The creator
// is the initial controller, so the deployer can hand control over with a
// single setController call.
func constructControlled(env *chain.Env) error {
	return env.Storage().SetAddress(slotController, env.Sender())
}

func controlledMethods() []method {
	return []method{
		fn("setController", params(abi.P("controller", abi.Address)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				if err := requireControllerCaller(env); err != nil {
					return nil, err
				}
				next := args[0].(common.Address)
				if err := chain.Require(next != (common.Address{}), "controller cannot be the zero address"); err != nil {
					return nil, err
				}
				if err := env.Storage().SetAddress(slotController, next); err != nil {
					return nil, err
				}
				return success()
			}),
		view("getController", nil, params(abi.P("", abi.Address)),
			func(env *chain.Env, _ []any) ([]any, error) {
				return []any{controllerOf(env)}, nil
			}),
	}
}

func controllerOf(env *chain.Env) common.Address {
	return env.Storage().Address(slotController)
}

func requireControllerCaller(env *chain.Env) error {
	return chain.Require(env.Sender() == controllerOf(env), "caller is not the controller")
}

// requireControllerOwner checks that the sender owns the governing
// Controller.
func requireControllerOwner(env *chain.Env) error {
	owner, err := callAddress(env, controllerOf(env), "owner")
	if err != nil {
		return err
	}
	return chain.Require(env.Sender() == owner, "caller is not the controller owner")
}

// callAddress calls a method returning a single address.
func callAddress(env *chain.Env, to common.Address, name string, args ...any) (common.Address, error) {
	out, err := env.Call(to, name, args...)
	if err != nil {
		return common.Address{}, err
	}
	return out[0].(common.Address), nil
}

func callBool(env *chain.Env, to common.Address, name string, args ...any) (bool, error) {
	out, err := env.Call(to, name, args...)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}
