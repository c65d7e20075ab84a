package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/augurlite/internal/abi"
	"github.com/roach88/augurlite/internal/chain"
)

// MaxFeePerEthInWei caps a market's creator fee at 50%.
var MaxFeePerEthInWei = new(big.Int).Div(big.NewInt(1e18), big.NewInt(2))

// Universe is the scope markets are created in. Every universe is created
// by AugurLite and is denominated in a single token.
func Universe() chain.Code {
	return newCode(UniverseName,
		ctor(abi.P("augur", abi.Address), abi.P("denominationToken", abi.Address)),
		func(env *chain.Env, args []any) error {
			augur := args[0].(common.Address)
			if err := chain.Require(env.Sender() == augur, "universes are created by AugurLite"); err != nil {
				return err
			}
			st := env.Storage()
			if err := st.SetAddress("augur", augur); err != nil {
				return err
			}
			return st.SetAddress("denominationToken", args[1].(common.Address))
		},
		typeName(UniverseName),
		view("getAugur", nil, params(abi.P("", abi.Address)),
			func(env *chain.Env, _ []any) ([]any, error) {
				return []any{env.Storage().Address("augur")}, nil
			}),
		view("getDenominationToken", nil, params(abi.P("", abi.Address)),
			func(env *chain.Env, _ []any) ([]any, error) {
				return []any{env.Storage().Address("denominationToken")}, nil
			}),
		view("getNumberOfMarkets", nil, params(abi.P("", abi.Uint256)),
			func(env *chain.Env, _ []any) ([]any, error) {
				return []any{env.Storage().Big("markets")}, nil
			}),
		view("getMarketCreator", params(abi.P("marketID", abi.Uint256)), params(abi.P("", abi.Address)),
			func(env *chain.Env, args []any) ([]any, error) {
				return []any{env.Storage().Address(chain.Key("market", args[0], "creator"))}, nil
			}),
		view("getMarketEndTime", params(abi.P("marketID", abi.Uint256)), params(abi.P("", abi.Uint256)),
			func(env *chain.Env, args []any) ([]any, error) {
				return []any{env.Storage().Big(chain.Key("market", args[0], "endTime"))}, nil
			}),
		view("getMarketCreationFee", nil, params(abi.P("", abi.Uint256)),
			func(env *chain.Env, _ []any) ([]any, error) {
				return []any{env.Storage().Big("marketCreationFee")}, nil
			}),
		fn("setMarketCreationFee", params(abi.P("fee", abi.Uint256)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				controller, err := callAddress(env, env.Storage().Address("augur"), "getController")
				if err != nil {
					return nil, err
				}
				owner, err := callAddress(env, controller, "owner")
				if err != nil {
					return nil, err
				}
				if err := chain.Require(env.Sender() == owner, "caller is not the controller owner"); err != nil {
					return nil, err
				}
				if err := env.Storage().SetBig("marketCreationFee", args[0].(*big.Int)); err != nil {
					return nil, err
				}
				return success()
			}),
		fn("createMarket",
			params(
				abi.P("description", abi.String),
				abi.P("extraInfo", abi.String),
				abi.P("tags", abi.String),
				abi.P("endTime", abi.Uint256),
				abi.P("numTicks", abi.Uint256),
				abi.P("feePerEthInWei", abi.Uint256),
				abi.P("designatedReporter", abi.Address),
			),
			params(abi.P("marketID", abi.Uint256)),
			createMarket),
	)
}

func createMarket(env *chain.Env, args []any) ([]any, error) {
	description, extraInfo, tags := args[0].(string), args[1].(string), args[2].(string)
	endTime, numTicks, feePerEth := args[3].(*big.Int), args[4].(*big.Int), args[5].(*big.Int)
	reporter := args[6].(common.Address)

	st := env.Storage()
	augur := st.Address("augur")

	out, err := env.Call(augur, "getTimestamp")
	if err != nil {
		return nil, err
	}
	now := out[0].(*big.Int)
	if err := chain.Require(endTime.Cmp(now) > 0, "end time %s is not after %s", endTime, now); err != nil {
		return nil, err
	}
	if err := chain.Require(feePerEth.Cmp(MaxFeePerEthInWei) <= 0, "fee %s exceeds %s", feePerEth, MaxFeePerEthInWei); err != nil {
		return nil, err
	}

	if fee := st.Big("marketCreationFee"); fee.Sign() > 0 {
		if _, err := env.Call(augur, "trustedTransfer", st.Address("denominationToken"), env.Sender(), env.Self(), fee); err != nil {
			return nil, err
		}
	}

	if _, err := env.Call(augur, "logMarketCreated",
		description, extraInfo, tags,
		env.Self(), env.Sender(), reporter,
		endTime, numTicks, feePerEth,
	); err != nil {
		return nil, err
	}

	id := new(big.Int).Add(st.Big("markets"), big.NewInt(1))
	if err := st.SetBig("markets", id); err != nil {
		return nil, err
	}
	if err := st.SetAddress(chain.Key("market", id, "creator"), env.Sender()); err != nil {
		return nil, err
	}
	if err := st.SetBig(chain.Key("market", id, "endTime"), endTime); err != nil {
		return nil, err
	}
	return []any{id}, nil
}
