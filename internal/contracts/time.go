package contracts

import (
	"math/big"

	"github.com/roach88/augurlite/internal/abi"
	"github.com/roach88/augurlite/internal/chain"
)

// Time reports the current block timestamp.
func Time() chain.Code {
	methods := append(controlledMethods(),
		view("getTimestamp", nil, params(abi.P("", abi.Uint256)),
			func(env *chain.Env, _ []any) ([]any, error) {
				return []any{new(big.Int).SetUint64(env.Now())}, nil
			}),
		typeName(TimeName),
	)
	return newCode(TimeName, ctor(),
		func(env *chain.Env, _ []any) error { return constructControlled(env) },
		methods...,
	)
}

// TimeControlled is a Time whose clock only moves when the owner of its
// Controller moves it.
// Local deployments use it so tests can place markets at fixed times.
func TimeControlled() chain.Code {
	methods := append(controlledMethods(),
		view("getTimestamp", nil, params(abi.P("", abi.Uint256)),
			func(env *chain.Env, _ []any) ([]any, error) {
				return []any{env.Storage().Big("timestamp")}, nil
			}),
		fn("setTimestamp", params(abi.P("timestamp", abi.Uint256)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				if err := requireControllerOwner(env); err != nil {
					return nil, err
				}
				if err := env.Storage().SetBig("timestamp", args[0].(*big.Int)); err != nil {
					return nil, err
				}
				return success()
			}),
		fn("incrementTimestamp", params(abi.P("seconds", abi.Uint256)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				if err := requireControllerOwner(env); err != nil {
					return nil, err
				}
				st := env.Storage()
				if err := st.SetBig("timestamp", new(big.Int).Add(st.Big("timestamp"), args[0].(*big.Int))); err != nil {
					return nil, err
				}
				return success()
			}),
		typeName(TimeControlledName),
	)
	return newCode(TimeControlledName, ctor(),
		func(env *chain.Env, _ []any) error {
			if err := constructControlled(env); err != nil {
				return err
			}
			return env.Storage().SetBig("timestamp", new(big.Int).SetUint64(env.Now()))
		},
		methods...,
	)
}

// typeName declares getTypeName() returning name as bytes32.
func typeName(name string) method {
	return view("getTypeName", nil, params(abi.P("", abi.Bytes32)),
		func(*chain.Env, []any) ([]any, error) {
			b, err := abi.StringToBytes32(name)
			if err != nil {
				return nil, err
			}
			return []any{b}, nil
		})
}
