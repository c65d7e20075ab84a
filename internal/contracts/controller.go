package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/abi"
	"github.com/roach88/augurlite/internal/chain"
)

// Controller is the registry and access root of a deployment: it maps
// contract names to addresses, records which code version was uploaded,
// and keeps the whitelist of contracts trusted to move funds.
func Controller() chain.Code {
	return newCode(ControllerName, ctor(),
		func(env *chain.Env, _ []any) error {
			return env.Storage().SetAddress("owner", env.Sender())
		},
		view("owner", nil, params(abi.P("", abi.Address)),
			func(env *chain.Env, _ []any) ([]any, error) {
				return []any{env.Storage().Address("owner")}, nil
			}),
		fn("transferOwnership", params(abi.P("newOwner", abi.Address)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				if err := requireOwner(env); err != nil {
					return nil, err
				}
				next := args[0].(common.Address)
				if err := chain.Require(next != (common.Address{}), "owner cannot be the zero address"); err != nil {
					return nil, err
				}
				if err := env.Storage().SetAddress("owner", next); err != nil {
					return nil, err
				}
				return success()
			}),
		fn("registerContract",
			params(
				abi.P("key", abi.Bytes32),
				abi.P("address", abi.Address),
				abi.P("commitHash", abi.Bytes32),
				abi.P("bytecodeHash", abi.Bytes32),
			),
			returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				if err := requireOwner(env); err != nil {
					return nil, err
				}
				key := args[0].([32]byte)
				if err := chain.Require(key != [32]byte{}, "contract key cannot be empty"); err != nil {
					return nil, err
				}
				st := env.Storage()
				if err := st.SetAddress(chain.Key("registry", key, "address"), args[1].(common.Address)); err != nil {
					return nil, err
				}
				if err := st.SetBytes32(chain.Key("registry", key, "commit"), args[2].([32]byte)); err != nil {
					return nil, err
				}
				if err := st.SetBytes32(chain.Key("registry", key, "bytecode"), args[3].([32]byte)); err != nil {
					return nil, err
				}
				return success()
			}),
		view("lookup", params(abi.P("key", abi.Bytes32)), params(abi.P("", abi.Address)),
			func(env *chain.Env, args []any) ([]any, error) {
				return []any{env.Storage().Address(chain.Key("registry", args[0], "address"))}, nil
			}),
		view("getContractDetails",
			params(abi.P("key", abi.Bytes32)),
			params(abi.P("address", abi.Address), abi.P("commitHash", abi.Bytes32), abi.P("bytecodeHash", abi.Bytes32)),
			func(env *chain.Env, args []any) ([]any, error) {
				st := env.Storage()
				key := args[0]
				return []any{
					st.Address(chain.Key("registry", key, "address")),
					st.Bytes32(chain.Key("registry", key, "commit")),
					st.Bytes32(chain.Key("registry", key, "bytecode")),
				}, nil
			}),
		fn("addToWhitelist", params(abi.P("target", abi.Address)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				return setWhitelisted(env, args[0].(common.Address), true)
			}),
		fn("removeFromWhitelist", params(abi.P("target", abi.Address)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				return setWhitelisted(env, args[0].(common.Address), false)
			}),
		view("whitelist", params(abi.P("target", abi.Address)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				return []any{env.Storage().Bool(chain.Key("whitelist", args[0]))}, nil
			}),
		view("assertIsWhitelisted", params(abi.P("target", abi.Address)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				target := args[0].(common.Address)
				if err := chain.Require(env.Storage().Bool(chain.Key("whitelist", target)), "%s is not whitelisted", target.Hex()); err != nil {
					return nil, err
				}
				return success()
			}),
		view("getTimestamp", nil, params(abi.P("", abi.Uint256)),
			func(env *chain.Env, _ []any) ([]any, error) {
				key, _ := abi.StringToBytes32(TimeName)
				timeAddr := env.Storage().Address(chain.Key("registry", key, "address"))
				if err := chain.Require(env.HasCode(timeAddr), "no Time contract registered"); err != nil {
					return nil, err
				}
				out, err := env.Call(timeAddr, "getTimestamp")
				if err != nil {
					return nil, err
				}
				return []any{out[0].(*big.Int)}, nil
			}),
	)
}

func requireOwner(env *chain.Env) error {
	return chain.Require(env.Sender() == env.Storage().Address("owner"), "caller is not the owner")
}

func setWhitelisted(env *chain.Env, target common.Address, on bool) ([]any, error) {
	if err := requireOwner(env); err != nil {
		return nil, err
	}
	if err := env.Storage().SetBool(chain.Key("whitelist", target), on); err != nil {
		return nil, err
	}
	return success()
}
