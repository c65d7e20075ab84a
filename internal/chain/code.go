package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/roach88/augurlite/internal/abi"
)

// Code is the behavior of one contract kind. Code is stateless: everything a
// contract remembers lives in its Storage, which is what makes snapshot and
// revert work for every contract without cooperation.
type Code interface {
	// Kind is the registry name of this code, e.g. "AugurLite".
	Kind() string

	// ABI lists the callable methods.
	ABI() *abi.ABI

	// Constructor describes the constructor arguments.
	Constructor() abi.Method

	// Construct initializes storage at deployment. Args are coerced.
	Construct(env *Env, args []any) error

	// Invoke runs one method. Args are coerced against m.Inputs; the
	// returned values are coerced against m.Outputs by the chain.
	Invoke(env *Env, m abi.Method, args []any) ([]any, error)
}

// CodeHash identifies a code version: keccak256 over its kind and method
// signatures. It stands in for a bytecode hash when deciding whether a
// contract needs re-uploading.
func CodeHash(code Code) common.Hash {
	var b strings.Builder
	b.WriteString(code.Kind())
	b.WriteString("\x00")
	b.WriteString(code.Constructor().Signature())
	for _, sig := range code.ABI().Signatures() {
		b.WriteString("\x00")
		b.WriteString(sig)
	}
	return crypto.Keccak256Hash([]byte(b.String()))
}
