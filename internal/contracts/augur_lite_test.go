package contracts_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/augurlite/internal/chain"
	"github.com/roach88/augurlite/internal/fixture"
)

func TestIsKnownUniverse(t *testing.T) {
	augur := fixture.Augur(t)
	universe := fixture.GenesisUniverse(t)

	known, err := augur.IsKnownUniverse(universe.Address)
	require.NoError(t, err)
	assert.True(t, known)

	known, err = augur.IsKnownUniverse(augur.Address)
	require.NoError(t, err)
	assert.False(t, known)
}

func TestTrustedTransferAmountFailure(t *testing.T) {
	augur := fixture.Augur(t)

	_, err := augur.TrustedTransfer(augur.Address, augur.Address, augur.Address, big.NewInt(0))
	assert.True(t, chain.IsTxFailed(err), "expected transaction failure, got %v", err)
}

func TestLogRequires(t *testing.T) {
	augur := fixture.Augur(t)
	universe := fixture.GenesisUniverse(t)

	_, err := augur.LogMarketCreated("", "", "", universe.Address, universe.Address, universe.Address, 0, 100, 0)
	assert.True(t, chain.IsTxFailed(err), "expected transaction failure, got %v", err)

	_, err = augur.LogMarketCreated("", "", "", augur.Address, augur.Address, augur.Address, 0, 100, 0)
	assert.True(t, chain.IsTxFailed(err), "expected transaction failure, got %v", err)
}

func TestLocalSnapshotIsStableAcrossTests(t *testing.T) {
	first := fixture.Augur(t)
	f := fixture.SessionFixture(t)
	root, err := f.Chain.StateRoot()
	require.NoError(t, err)

	// Mutate, then resolve again: the reset must undo the mutation.
	token, err := f.Token()
	require.NoError(t, err)
	_, err = token.WithSender(chain.Dave.Address).Faucet(big.NewInt(5))
	require.NoError(t, err)
	mutated, err := f.Chain.StateRoot()
	require.NoError(t, err)
	require.NotEqual(t, root, mutated)

	second := fixture.Augur(t)
	assert.Equal(t, first.Address, second.Address)

	again, err := f.Chain.StateRoot()
	require.NoError(t, err)
	assert.Equal(t, root, again)

	known, err := second.IsKnownUniverse(fixture.GenesisUniverse(t).Address)
	require.NoError(t, err)
	assert.True(t, known)
}

func TestTrustedTransfer_WhitelistedCaller(t *testing.T) {
	augur := fixture.Augur(t)
	f := fixture.SessionFixture(t)
	token, err := f.Token()
	require.NoError(t, err)
	controller, err := f.Controller()
	require.NoError(t, err)

	_, err = controller.AddToWhitelist(chain.Erin.Address)
	require.NoError(t, err)

	before, err := token.BalanceOf(chain.Dave.Address)
	require.NoError(t, err)

	ok, err := augur.WithSender(chain.Erin.Address).TrustedTransfer(token.Address, chain.Alice.Address, chain.Dave.Address, big.NewInt(42))
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := token.BalanceOf(chain.Dave.Address)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Add(before, big.NewInt(42)), after)
}

func TestTrustedTransfer_Guards(t *testing.T) {
	augur := fixture.Augur(t)
	f := fixture.SessionFixture(t)
	token, err := f.Token()
	require.NoError(t, err)
	controller, err := f.Controller()
	require.NoError(t, err)
	_, err = controller.AddToWhitelist(chain.Erin.Address)
	require.NoError(t, err)

	tests := []struct {
		name   string
		sender common.Address
		token  common.Address
		from   common.Address
		amount int64
	}{
		{"untrusted caller", chain.Dave.Address, token.Address, chain.Alice.Address, 1},
		{"zero amount", chain.Erin.Address, token.Address, chain.Alice.Address, 0},
		{"token without code", chain.Erin.Address, chain.Bob.Address, chain.Alice.Address, 1},
		{"no allowance", chain.Erin.Address, token.Address, chain.Dave.Address, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := augur.WithSender(tt.sender).TrustedTransfer(tt.token, tt.from, chain.Charlie.Address, big.NewInt(tt.amount))
			assert.Equal(t, chain.CodeReverted, chain.FailureCode(err), "err = %v", err)
		})
	}
}

func TestLogMarketCreated_OnlyFromUniverse(t *testing.T) {
	augur := fixture.Augur(t)
	universe := fixture.GenesisUniverse(t)

	// Valid arguments, but the sender is an account, not the universe.
	_, err := augur.LogMarketCreated("Valid?", "", "", universe.Address, chain.Alice.Address, chain.Bob.Address, 0, 100, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only the universe")
}

func TestCreateUniverse_RequiresTokenCode(t *testing.T) {
	augur := fixture.Augur(t)

	_, _, err := augur.CreateUniverse(chain.Bob.Address)
	assert.Equal(t, chain.CodeReverted, chain.FailureCode(err))
}

func TestCreateUniverse_RegistersAndEmits(t *testing.T) {
	augur := fixture.Augur(t)
	token, err := fixture.SessionFixture(t).Token()
	require.NoError(t, err)

	addr, receipt, err := augur.WithSender(chain.Charlie.Address).CreateUniverse(token.Address)
	require.NoError(t, err)

	known, err := augur.IsKnownUniverse(addr)
	require.NoError(t, err)
	assert.True(t, known)

	require.Len(t, receipt.Logs, 1)
	assert.Equal(t, "UniverseCreated", receipt.Logs[0].Event)
	got, _ := receipt.Logs[0].Get("universe")
	assert.Equal(t, addr, got)
}

func TestLogMarketCreated_GuardsThroughCreateMarket(t *testing.T) {
	tests := []struct {
		name   string
		sender common.Address
		modify func(*fixture.MarketParams)
		reason string
	}{
		{
			name:   "blank description",
			sender: chain.Bob.Address,
			modify: func(m *fixture.MarketParams) { m.Description = " \t\n" },
			reason: "description is required",
		},
		{
			name:   "zero market creator",
			sender: common.Address{},
			modify: func(*fixture.MarketParams) {},
			reason: "market creator is required",
		},
		{
			name:   "zero designated reporter",
			sender: chain.Bob.Address,
			modify: func(m *fixture.MarketParams) { m.DesignatedReporter = common.Address{} },
			reason: "designated reporter is required",
		},
		{
			name:   "zero numTicks",
			sender: chain.Bob.Address,
			modify: func(m *fixture.MarketParams) { m.NumTicks = 0 },
			reason: "numTicks must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fixture.LocalFixture(t)
			universe := fixture.GenesisUniverse(t)
			// Without a fee the zero address reaches logMarketCreated.
			_, err := universe.Transact("setMarketCreationFee", 0)
			require.NoError(t, err)

			m := marketEndingIn(f, 3600)
			tt.modify(&m)
			_, _, err = universe.WithSender(tt.sender).CreateMarket(m)
			require.Error(t, err)
			assert.Equal(t, chain.CodeReverted, chain.FailureCode(err))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestLogMarketCreated_NormalizesText(t *testing.T) {
	f := fixture.LocalFixture(t)
	universe := fixture.GenesisUniverse(t).WithSender(chain.Bob.Address)

	m := marketEndingIn(f, 3600)
	m.Description = "Cafe\u0301 open?"
	m.ExtraInfo = "e\u0301"
	_, receipt, err := universe.CreateMarket(m)
	require.NoError(t, err)

	var fields map[string]any
	for _, l := range receipt.Logs {
		if l.Event == "MarketCreated" {
			fields = l.FieldMap()
		}
	}
	require.NotNil(t, fields)
	assert.Equal(t, "Caf\u00e9 open?", fields["description"])
	assert.Equal(t, "\u00e9", fields["extraInfo"])
}
