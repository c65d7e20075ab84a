package chain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Env is the execution context handed to contract code for one call frame.
type Env struct {
	ex       *executor
	sender   common.Address
	self     common.Address
	method   string
	depth    int
	readOnly bool
	storage  *Storage
}

// Sender is the immediate caller (msg.sender): an account for top-level
// transactions, the calling contract for nested calls.
func (e *Env) Sender() common.Address { return e.sender }

// Self is the address of the executing contract.
func (e *Env) Self() common.Address { return e.self }

// Storage is the executing contract's storage.
func (e *Env) Storage() *Storage { return e.storage }

// Now is the timestamp of the block being executed.
func (e *Env) Now() uint64 { return e.ex.world.Timestamp }

// BlockNumber is the number of the block being executed.
func (e *Env) BlockNumber() uint64 { return e.ex.world.Block }

// HasCode reports whether a contract is deployed at addr.
func (e *Env) HasCode(addr common.Address) bool {
	return e.ex.world.codeAt(addr) != ""
}

// Call invokes a method on another contract with Self as the sender.
// A failure aborts the whole transaction; callers should return it as is.
func (e *Env) Call(to common.Address, method string, args ...any) ([]any, error) {
	return e.ex.call(e.self, to, method, args, e.depth+1, e.readOnly)
}

// Deploy creates a new contract with Self as the creator. The address is
// derived from Self and Self's nonce.
func (e *Env) Deploy(kind string, args ...any) (common.Address, error) {
	if e.readOnly {
		return common.Address{}, newFailure(CodeStaticWrite, e.self, e.method, "contract creation in view call")
	}
	return e.ex.deploy(e.self, kind, args, e.depth+1)
}

// Emit records an event. Events are kept only if the transaction succeeds.
func (e *Env) Emit(event string, fields ...Field) error {
	if e.readOnly {
		return newFailure(CodeStaticWrite, e.self, e.method, "event %s emitted in view call", event)
	}
	e.ex.logs = append(e.ex.logs, Log{Address: e.self, Event: event, Fields: fields})
	return nil
}
