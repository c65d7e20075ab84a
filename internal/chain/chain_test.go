package chain

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/augurlite/internal/abi"
	"github.com/roach88/augurlite/internal/store"
	"github.com/roach88/augurlite/internal/testutil"
)

// counter is a minimal contract used to exercise the chain.
type counter struct{}

var counterABI = abi.New(
	abi.Method{Name: "add", Inputs: []abi.Param{abi.P("amount", abi.Uint256)}},
	abi.Method{Name: "get", Outputs: []abi.Param{abi.P("value", abi.Uint256)}, View: true},
	abi.Method{Name: "owner", Outputs: []abi.Param{abi.P("owner", abi.Address)}, View: true},
	abi.Method{Name: "addThenFail", Inputs: []abi.Param{abi.P("amount", abi.Uint256)}},
	abi.Method{Name: "forward", Inputs: []abi.Param{abi.P("target", abi.Address), abi.P("amount", abi.Uint256)}},
	abi.Method{Name: "recurse", Inputs: []abi.Param{abi.P("self", abi.Address)}},
	abi.Method{Name: "spawn", Outputs: []abi.Param{abi.P("child", abi.Address)}},
	abi.Method{Name: "sneakyWrite", View: true},
	abi.Method{Name: "sneakyEmit", View: true},
)

func (counter) Kind() string { return "Counter" }
func (counter) ABI() *abi.ABI { return counterABI }
func (counter) Constructor() abi.Method {
	return abi.Method{Name: "constructor", Inputs: []abi.Param{abi.P("start", abi.Uint256)}}
}

func (counter) Construct(env *Env, args []any) error {
	if err := env.Storage().SetAddress("owner", env.Sender()); err != nil {
		return err
	}
	return env.Storage().SetBig("value", args[0].(*big.Int))
}

func (counter) Invoke(env *Env, m abi.Method, args []any) ([]any, error) {
	st := env.Storage()
	switch m.Name {
	case "add":
		amount := args[0].(*big.Int)
		if err := Require(amount.Sign() > 0, "amount must be positive"); err != nil {
			return nil, err
		}
		if err := st.SetBig("value", new(big.Int).Add(st.Big("value"), amount)); err != nil {
			return nil, err
		}
		return nil, env.Emit("Added", F("by", env.Sender()), F("amount", amount))
	case "get":
		return []any{st.Big("value")}, nil
	case "owner":
		return []any{st.Address("owner")}, nil
	case "addThenFail":
		if err := st.SetBig("value", new(big.Int).Add(st.Big("value"), args[0].(*big.Int))); err != nil {
			return nil, err
		}
		if err := env.Emit("Added", F("amount", args[0])); err != nil {
			return nil, err
		}
		return nil, Revert("changed my mind")
	case "forward":
		_, err := env.Call(args[0].(common.Address), "add", args[1])
		return nil, err
	case "recurse":
		_, err := env.Call(args[0].(common.Address), "recurse", args[0])
		return nil, err
	case "spawn":
		child, err := env.Deploy("Counter", 0)
		if err != nil {
			return nil, err
		}
		return []any{child}, nil
	case "sneakyWrite":
		return nil, st.SetBig("value", big.NewInt(1))
	case "sneakyEmit":
		return nil, env.Emit("Sneaky")
	}
	return nil, Revert("unreachable")
}

func newTestChain(t *testing.T, opts ...Option) *Chain {
	t.Helper()
	opts = append([]Option{
		WithTimeSource(testutil.NewDeterministicClock(0)),
		WithIDGenerator(testutil.NewSequentialIDs("snap")),
		WithCode(counter{}),
	}, opts...)
	return New(opts...)
}

func deployCounter(t *testing.T, c *Chain, start int) common.Address {
	t.Helper()
	r, err := c.Deploy(context.Background(), Alice.Address, "Counter", start)
	require.NoError(t, err)
	return r.ContractAddress
}

func counterValue(t *testing.T, c *Chain, addr common.Address) *big.Int {
	t.Helper()
	out, err := c.Call(context.Background(), Alice.Address, addr, "get")
	require.NoError(t, err)
	return out[0].(*big.Int)
}

func TestDeploy_AddressFromSenderNonce(t *testing.T) {
	c := newTestChain(t)

	r, err := c.Deploy(context.Background(), Alice.Address, "Counter", 5)
	require.NoError(t, err)

	assert.Equal(t, crypto.CreateAddress(Alice.Address, 0), r.ContractAddress)
	assert.Equal(t, "Counter", c.CodeAt(r.ContractAddress))
	assert.Equal(t, uint64(1), c.Nonce(Alice.Address))
	assert.Equal(t, uint64(1), c.BlockNumber())
	assert.Equal(t, int64(5), counterValue(t, c, r.ContractAddress).Int64())

	out, err := c.Call(context.Background(), Bob.Address, r.ContractAddress, "owner")
	require.NoError(t, err)
	assert.Equal(t, Alice.Address, out[0])
}

func TestDeploy_UnknownKind(t *testing.T) {
	c := newTestChain(t)

	r, err := c.Deploy(context.Background(), Alice.Address, "Nope")
	require.Error(t, err)
	assert.Equal(t, CodeNoCode, FailureCode(err))
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, uint64(0), c.Nonce(Alice.Address))
}

func TestTransact_SuccessMinesBlockAndEmitsLog(t *testing.T) {
	c := newTestChain(t)
	addr := deployCounter(t, c, 0)

	r, err := c.Transact(context.Background(), Bob.Address, addr, "add", "7")
	require.NoError(t, err)

	assert.True(t, r.Succeeded())
	assert.Equal(t, uint64(2), r.BlockNumber)
	assert.Equal(t, 2, r.Seq)
	require.Len(t, r.Logs, 1)
	assert.Equal(t, "Added", r.Logs[0].Event)
	by, ok := r.Logs[0].Get("by")
	require.True(t, ok)
	assert.Equal(t, Bob.Address, by)
	assert.Equal(t, map[string]any{"by": Bob.Address.Hex(), "amount": "7"}, r.Logs[0].FieldMap())

	assert.Equal(t, int64(7), counterValue(t, c, addr).Int64())
	assert.Len(t, c.Logs(), 1)
	assert.Len(t, c.Receipts(), 2)
}

func TestTransact_FailureRevertsEverything(t *testing.T) {
	c := newTestChain(t)
	addr := deployCounter(t, c, 3)

	rootBefore, err := c.StateRoot()
	require.NoError(t, err)
	blockBefore := c.BlockNumber()
	nonceBefore := c.Nonce(Bob.Address)

	r, err := c.Transact(context.Background(), Bob.Address, addr, "addThenFail", 10)
	require.Error(t, err)

	var failure *TxFailedError
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, CodeReverted, failure.Code)
	assert.Equal(t, "changed my mind", failure.Reason)
	assert.Equal(t, addr, failure.Contract)
	assert.Equal(t, "addThenFail", failure.Method)

	assert.Equal(t, StatusFailed, r.Status)
	assert.Empty(t, r.Logs)
	assert.Equal(t, blockBefore, r.BlockNumber)

	rootAfter, err := c.StateRoot()
	require.NoError(t, err)
	assert.Equal(t, rootBefore, rootAfter)
	assert.Equal(t, blockBefore, c.BlockNumber())
	assert.Equal(t, nonceBefore, c.Nonce(Bob.Address))
	assert.Equal(t, int64(3), counterValue(t, c, addr).Int64())
	assert.Empty(t, c.Logs())
}

func TestTransact_RequireFailure(t *testing.T) {
	c := newTestChain(t)
	addr := deployCounter(t, c, 0)

	_, err := c.Transact(context.Background(), Bob.Address, addr, "add", 0)
	require.Error(t, err)
	assert.True(t, IsTxFailed(err))
	assert.Equal(t, CodeReverted, FailureCode(err))
	assert.Contains(t, err.Error(), "amount must be positive")
}

func TestTransact_DispatchFailures(t *testing.T) {
	c := newTestChain(t)
	addr := deployCounter(t, c, 0)
	ctx := context.Background()

	tests := []struct {
		name   string
		to     common.Address
		method string
		args   []any
		code   TxFailureCode
	}{
		{"no code", common.HexToAddress("0x1234"), "add", []any{1}, CodeNoCode},
		{"unknown method", addr, "subtract", []any{1}, CodeUnknownMethod},
		{"arity", addr, "add", nil, CodeBadArguments},
		{"type", addr, "add", []any{"lots"}, CodeBadArguments},
		{"negative uint", addr, "add", []any{-1}, CodeBadArguments},
		{"view write", addr, "sneakyWrite", nil, CodeStaticWrite},
		{"view emit", addr, "sneakyEmit", nil, CodeStaticWrite},
		{"call depth", addr, "recurse", []any{addr}, CodeCallDepth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Transact(ctx, Bob.Address, tt.to, tt.method, tt.args...)
			assert.Equal(t, tt.code, FailureCode(err), "err = %v", err)
		})
	}
	assert.Equal(t, uint64(1), c.BlockNumber())
}

func TestTransact_NestedCallSenderIsContract(t *testing.T) {
	c := newTestChain(t)
	target := deployCounter(t, c, 0)
	relay := deployCounter(t, c, 0)

	r, err := c.Transact(context.Background(), Bob.Address, relay, "forward", target, 4)
	require.NoError(t, err)

	require.Len(t, r.Logs, 1)
	assert.Equal(t, target, r.Logs[0].Address)
	by, _ := r.Logs[0].Get("by")
	assert.Equal(t, relay, by)
}

func TestTransact_NestedFailureAttributedToInnerContract(t *testing.T) {
	c := newTestChain(t)
	target := deployCounter(t, c, 0)
	relay := deployCounter(t, c, 0)

	_, err := c.Transact(context.Background(), Bob.Address, relay, "forward", target, 0)

	var failure *TxFailedError
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, target, failure.Contract)
	assert.Equal(t, "add", failure.Method)
}

func TestTransact_ContractDeploysContract(t *testing.T) {
	c := newTestChain(t)
	factory := deployCounter(t, c, 0)

	r, err := c.Transact(context.Background(), Bob.Address, factory, "spawn")
	require.NoError(t, err)

	child := r.Return[0].(common.Address)
	assert.Equal(t, crypto.CreateAddress(factory, 0), child)
	assert.Equal(t, "Counter", c.CodeAt(child))
	assert.Equal(t, uint64(1), c.Nonce(factory))

	out, err := c.Call(context.Background(), Bob.Address, child, "owner")
	require.NoError(t, err)
	assert.Equal(t, factory, out[0])
}

func TestCall_DiscardsWrites(t *testing.T) {
	c := newTestChain(t)
	addr := deployCounter(t, c, 1)

	_, err := c.Call(context.Background(), Bob.Address, addr, "add", 5)
	require.NoError(t, err)

	assert.Equal(t, int64(1), counterValue(t, c, addr).Int64())
	assert.Equal(t, uint64(1), c.BlockNumber())
	assert.Empty(t, c.Logs())
}

func TestTransact_CanceledContext(t *testing.T) {
	c := newTestChain(t)
	addr := deployCounter(t, c, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Transact(ctx, Bob.Address, addr, "add", 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTxFailed(err))
}

func TestTimestamps_FollowTimeSourceAndNeverDecrease(t *testing.T) {
	clock := testutil.NewDeterministicClock(1000)
	c := New(WithTimeSource(clock), WithCode(counter{}))
	assert.Equal(t, uint64(1000), c.Now())

	addr := deployCounter(t, c, 0)
	clock.Advance(30)
	_, err := c.Transact(context.Background(), Bob.Address, addr, "add", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1030), c.Now())

	clock.Set(10)
	_, err = c.Transact(context.Background(), Bob.Address, addr, "add", 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1030), c.Now())
}

func TestRegister_Duplicate(t *testing.T) {
	c := newTestChain(t)
	assert.Error(t, c.Register(counter{}))

	code, ok := c.Code("Counter")
	require.True(t, ok)
	assert.Equal(t, "Counter", code.Kind())
}

func TestTxHash_DiffersByNonce(t *testing.T) {
	c := newTestChain(t)
	addr := deployCounter(t, c, 0)

	r1, err := c.Transact(context.Background(), Bob.Address, addr, "add", 1)
	require.NoError(t, err)
	r2, err := c.Transact(context.Background(), Bob.Address, addr, "add", 1)
	require.NoError(t, err)

	assert.NotEqual(t, r1.TxHash, r2.TxHash)
}

func TestWithStore_PersistsReceipts(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "chain.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	c := newTestChain(t, WithStore(s))
	addr := deployCounter(t, c, 0)
	_, err = c.Transact(context.Background(), Bob.Address, addr, "add", 2)
	require.NoError(t, err)
	_, err = c.Transact(context.Background(), Bob.Address, addr, "add", 0)
	require.Error(t, err)

	txs, err := s.ReadTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "constructor:Counter", txs[0].Method)
	assert.Equal(t, addr.Hex(), txs[0].ContractAddress)

	assert.Equal(t, StatusSuccess, txs[1].Status)
	require.Len(t, txs[1].Logs, 1)
	assert.Equal(t, "2", txs[1].Logs[0].Fields["amount"])

	assert.Equal(t, StatusFailed, txs[2].Status)
	assert.Contains(t, txs[2].Reason, "amount must be positive")
}
