package chain

import (
	"crypto/ecdsa"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TestAccount is a deterministic externally owned account for tests and
// local deployments.
type TestAccount struct {
	Name       string
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

// Addr returns the account address.
func (a TestAccount) Addr() common.Address {
	return a.Address
}

func newTestAccount(name string) TestAccount {
	sk, err := crypto.ToECDSA(crypto.Keccak256([]byte("augurlite/test-keys: " + name)))
	if err != nil {
		panic(fmt.Sprintf("test key %s: %v", name, err))
	}
	return TestAccount{
		Name:       name,
		PrivateKey: sk,
		Address:    crypto.PubkeyToAddress(sk.PublicKey),
	}
}

var (
	// Alice is test account A and the default deployer.
	Alice = newTestAccount("alice")
	// Bob is test account B.
	Bob = newTestAccount("bob")
	// Charlie is test account C.
	Charlie = newTestAccount("charlie")
	// Dave is test account D.
	Dave = newTestAccount("dave")
	// Erin is test account E.
	Erin = newTestAccount("erin")

	// TestAccounts contains all test accounts by name.
	TestAccounts = map[string]TestAccount{
		"alice":   Alice,
		"bob":     Bob,
		"charlie": Charlie,
		"dave":    Dave,
		"erin":    Erin,
	}
)

// LookupAccount resolves a test account by name.
func LookupAccount(name string) (TestAccount, error) {
	acct, ok := TestAccounts[name]
	if !ok {
		return TestAccount{}, fmt.Errorf("unknown test account %q (known: %v)", name, AccountNames())
	}
	return acct, nil
}

// AccountNames returns the test account names, sorted.
func AccountNames() []string {
	names := make([]string, 0, len(TestAccounts))
	for name := range TestAccounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
