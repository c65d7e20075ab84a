package contracts

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/augurlite/internal/abi"
	"github.com/roach88/augurlite/internal/chain"
)

// AugurLite is the hub of the system: it creates universes, remembers
// which ones it created, moves approved tokens on behalf of trusted callers
// and emits the market events indexers follow.
func AugurLite() chain.Code {
	methods := append(controlledMethods(),
		fn("createUniverse", params(abi.P("denominationToken", abi.Address)), params(abi.P("", abi.Address)),
			createUniverse),
		view("isKnownUniverse", params(abi.P("universe", abi.Address)), returnsBool,
			func(env *chain.Env, args []any) ([]any, error) {
				return []any{isKnownUniverse(env, args[0].(common.Address))}, nil
			}),
		fn("trustedTransfer",
			params(
				abi.P("token", abi.Address),
				abi.P("from", abi.Address),
				abi.P("to", abi.Address),
				abi.P("amount", abi.Uint256),
			),
			returnsBool,
			trustedTransfer),
		fn("logMarketCreated",
			params(
				abi.P("description", abi.String),
				abi.P("extraInfo", abi.String),
				abi.P("tags", abi.String),
				abi.P("universe", abi.Address),
				abi.P("marketCreator", abi.Address),
				abi.P("designatedReporter", abi.Address),
				abi.P("endTime", abi.Uint256),
				abi.P("numTicks", abi.Uint256),
				abi.P("feePerEthInWei", abi.Uint256),
			),
			returnsBool,
			logMarketCreated),
		view("getTimestamp", nil, params(abi.P("", abi.Uint256)),
			func(env *chain.Env, _ []any) ([]any, error) {
				return env.Call(controllerOf(env), "getTimestamp")
			}),
		typeName(AugurLiteName),
	)
	return newCode(AugurLiteName, ctor(),
		func(env *chain.Env, _ []any) error { return constructControlled(env) },
		methods...,
	)
}

func isKnownUniverse(env *chain.Env, addr common.Address) bool {
	return env.Storage().Bool(chain.Key("universes", addr))
}

func createUniverse(env *chain.Env, args []any) ([]any, error) {
	token := args[0].(common.Address)
	if err := chain.Require(env.HasCode(token), "denomination token %s has no code", token.Hex()); err != nil {
		return nil, err
	}

	universe, err := env.Deploy(UniverseName, env.Self(), token)
	if err != nil {
		return nil, err
	}
	if err := env.Storage().SetBool(chain.Key("universes", universe), true); err != nil {
		return nil, err
	}
	if err := env.Emit("UniverseCreated",
		chain.F("universe", universe),
		chain.F("denominationToken", token),
		chain.F("creator", env.Sender()),
	); err != nil {
		return nil, err
	}
	return []any{universe}, nil
}

// trustedTransfer moves tokens the owner approved AugurLite to spend. Only
// whitelisted contracts and known universes may ask for it.
func trustedTransfer(env *chain.Env, args []any) ([]any, error) {
	token, from, to, amount := args[0].(common.Address), args[1].(common.Address), args[2].(common.Address), args[3].(*big.Int)

	caller := env.Sender()
	if !isKnownUniverse(env, caller) {
		whitelisted, err := callBool(env, controllerOf(env), "whitelist", caller)
		if err != nil {
			return nil, err
		}
		if err := chain.Require(whitelisted, "caller %s is not trusted", caller.Hex()); err != nil {
			return nil, err
		}
	}
	if err := chain.Require(amount.Sign() > 0, "amount must be positive"); err != nil {
		return nil, err
	}
	if err := chain.Require(env.HasCode(token), "token %s has no code", token.Hex()); err != nil {
		return nil, err
	}

	moved, err := callBool(env, token, "transferFrom", from, to, amount)
	if err != nil {
		return nil, err
	}
	if err := chain.Require(moved, "token transfer refused"); err != nil {
		return nil, err
	}
	return success()
}

func logMarketCreated(env *chain.Env, args []any) ([]any, error) {
	description := norm.NFC.String(args[0].(string))
	extraInfo := norm.NFC.String(args[1].(string))
	tags := norm.NFC.String(args[2].(string))
	universe := args[3].(common.Address)
	creator := args[4].(common.Address)
	reporter := args[5].(common.Address)
	endTime, numTicks, fee := args[6].(*big.Int), args[7].(*big.Int), args[8].(*big.Int)

	if err := chain.Require(strings.TrimSpace(description) != "", "description is required"); err != nil {
		return nil, err
	}
	if err := chain.Require(isKnownUniverse(env, universe), "universe %s is not known", universe.Hex()); err != nil {
		return nil, err
	}
	if err := chain.Require(env.Sender() == universe, "only the universe may log its markets"); err != nil {
		return nil, err
	}
	if err := chain.Require(creator != (common.Address{}), "market creator is required"); err != nil {
		return nil, err
	}
	if err := chain.Require(reporter != (common.Address{}), "designated reporter is required"); err != nil {
		return nil, err
	}
	if err := chain.Require(numTicks.Sign() > 0, "numTicks must be positive"); err != nil {
		return nil, err
	}

	if err := env.Emit("MarketCreated",
		chain.F("universe", universe),
		chain.F("description", description),
		chain.F("extraInfo", extraInfo),
		chain.F("tags", tags),
		chain.F("marketCreator", creator),
		chain.F("designatedReporter", reporter),
		chain.F("endTime", endTime),
		chain.F("numTicks", numTicks),
		chain.F("feePerEthInWei", fee),
	); err != nil {
		return nil, err
	}
	return success()
}
