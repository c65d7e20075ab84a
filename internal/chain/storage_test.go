package chain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_LowercasesAddresses(t *testing.T) {
	addr := common.HexToAddress("0xABCDEF0000000000000000000000000000000001")
	assert.Equal(t, "balances/0xabcdef0000000000000000000000000000000001", Key("balances", addr))
	assert.Equal(t, "n/12", Key("n", big.NewInt(12)))
}

func TestStorage_TypedAccessors(t *testing.T) {
	s := &Storage{acct: &account{}}

	require.NoError(t, s.SetBig("n", big.NewInt(5)))
	assert.Equal(t, int64(5), s.Big("n").Int64())
	require.NoError(t, s.SetBig("n", new(big.Int)))
	assert.Empty(t, s.acct.Storage)

	require.NoError(t, s.SetBool("b", true))
	assert.True(t, s.Bool("b"))
	require.NoError(t, s.SetBool("b", false))
	assert.False(t, s.Bool("b"))

	require.NoError(t, s.SetAddress("a", Bob.Address))
	assert.Equal(t, Bob.Address, s.Address("a"))

	var word [32]byte
	word[0] = 1
	require.NoError(t, s.SetBytes32("w", word))
	assert.Equal(t, word, s.Bytes32("w"))

	assert.Equal(t, int64(0), s.Big("missing").Int64())
}

func TestStorage_ReadOnlyRejectsWrites(t *testing.T) {
	s := &Storage{acct: &account{}, readOnly: true, method: "get"}

	err := s.Set("k", "v")
	assert.Equal(t, CodeStaticWrite, FailureCode(err))
}

func TestLookupAccount(t *testing.T) {
	acct, err := LookupAccount("bob")
	require.NoError(t, err)
	assert.Equal(t, Bob.Address, acct.Addr())

	_, err = LookupAccount("mallory")
	assert.ErrorContains(t, err, "unknown test account")

	assert.Equal(t, []string{"alice", "bob", "charlie", "dave", "erin"}, AccountNames())
	assert.NotEqual(t, Alice.Address, Bob.Address)
}
