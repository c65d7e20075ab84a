package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/abi"
	"github.com/roach88/augurlite/internal/chain"
)

// Token metadata of the test denomination token.
const (
	TokenName     = "Cash"
	TokenSymbol   = "CASH"
	TokenDecimals = 18
)

// TestNetDenominationToken is an ERC20 with a public faucet. Markets are
// denominated in it on local and test networks.
func TestNetDenominationToken() chain.Code {
	return newCode(TestNetDenominationTokenName, ctor(), nil,
		view("name", nil, params(abi.P("", abi.String)),
			func(*chain.Env, []any) ([]any, error) { return []any{TokenName}, nil }),
		view("symbol", nil, params(abi.P("", abi.String)),
			func(*chain.Env, []any) ([]any, error) { return []any{TokenSymbol}, nil }),
		view("decimals", nil, params(abi.P("", abi.Uint256)),
			func(*chain.Env, []any) ([]any, error) { return []any{big.NewInt(TokenDecimals)}, nil }),
		view("totalSupply", nil, params(abi.P("", abi.Uint256)),
			func(env *chain.Env, _ []any) ([]any, error) {
				return []any{env.Storage().Big("supply")}, nil
			}),
		view("balanceOf", params(abi.P("owner", abi.Address)), params(abi.P("", abi.Uint256)),
			func(env *chain.Env, args []any) ([]any, error) {
				return []any{env.Storage().Big(chain.Key("balances", args[0]))}, nil
			}),
		view("allowance", params(abi.P("owner", abi.Address), abi.P("spender", abi.Address)), params(abi.P("", abi.Uint256)),
			func(env *chain.Env, args []any) ([]any, error) {
				return []any{env.Storage().Big(chain.Key("allowed", args[0], args[1]))}, nil
			}),
		fn("transfer", params(abi.P("to", abi.Address), abi.P("value", abi.Uint256)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				if err := transfer(env, env.Sender(), args[0].(common.Address), args[1].(*big.Int)); err != nil {
					return nil, err
				}
				return success()
			}),
		fn("transferFrom", params(abi.P("from", abi.Address), abi.P("to", abi.Address), abi.P("value", abi.Uint256)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				from, to, value := args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int)
				st := env.Storage()
				key := chain.Key("allowed", from, env.Sender())
				allowed := st.Big(key)
				if err := chain.Require(allowed.Cmp(value) >= 0, "allowance %s below %s", allowed, value); err != nil {
					return nil, err
				}
				if err := st.SetBig(key, new(big.Int).Sub(allowed, value)); err != nil {
					return nil, err
				}
				if err := transfer(env, from, to, value); err != nil {
					return nil, err
				}
				return success()
			}),
		fn("approve", params(abi.P("spender", abi.Address), abi.P("value", abi.Uint256)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				spender, value := args[0].(common.Address), args[1].(*big.Int)
				if err := env.Storage().SetBig(chain.Key("allowed", env.Sender(), spender), value); err != nil {
					return nil, err
				}
				if err := env.Emit("Approval", chain.F("owner", env.Sender()), chain.F("spender", spender), chain.F("value", value)); err != nil {
					return nil, err
				}
				return success()
			}),
		fn("faucet", params(abi.P("amount", abi.Uint256)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				amount := args[0].(*big.Int)
				if err := chain.Require(amount.Sign() > 0, "faucet amount must be positive"); err != nil {
					return nil, err
				}
				st := env.Storage()
				holder := chain.Key("balances", env.Sender())
				if err := st.SetBig(holder, new(big.Int).Add(st.Big(holder), amount)); err != nil {
					return nil, err
				}
				if err := st.SetBig("supply", new(big.Int).Add(st.Big("supply"), amount)); err != nil {
					return nil, err
				}
				if err := env.Emit("Transfer", chain.F("from", common.Address{}), chain.F("to", env.Sender()), chain.F("value", amount)); err != nil {
					return nil, err
				}
				return success()
			}),
	)
}

func transfer(env *chain.Env, from, to common.Address, value *big.Int) error {
	if err := chain.Require(to != (common.Address{}), "transfer to the zero address"); err != nil {
		return err
	}
	st := env.Storage()
	fromKey, toKey := chain.Key("balances", from), chain.Key("balances", to)
	balance := st.Big(fromKey)
	if err := chain.Require(balance.Cmp(value) >= 0, "balance %s below %s", balance, value); err != nil {
		return err
	}
	if err := st.SetBig(fromKey, new(big.Int).Sub(balance, value)); err != nil {
		return err
	}
	if err := st.SetBig(toKey, new(big.Int).Add(st.Big(toKey), value)); err != nil {
		return err
	}
	return env.Emit("Transfer", chain.F("from", from), chain.F("to", to), chain.F("value", value))
}
