package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// TxFailedError is the transaction-failure signal: a contract call whose
// guard conditions were not met. The whole transaction has been reverted
// when this error is returned.
//
// Failure causes include:
//   - Reverted: a contract Require() did not hold
//   - Unknown method: the target code has no such method
//   - Bad arguments: arity or type mismatch against the method ABI
//   - No code: the target address has no contract deployed
//   - Static write: a view call attempted to write storage or emit a log
//   - Call depth: nested calls exceeded MaxCallDepth
type TxFailedError struct {
	// Code identifies the failure category.
	Code TxFailureCode

	// Reason is a human-readable description.
	Reason string

	// Contract is the address whose code raised the failure.
	Contract common.Address

	// Method is the method that raised the failure.
	Method string
}

// TxFailureCode categorizes transaction failures.
type TxFailureCode string

const (
	// CodeReverted indicates a Require() guard failed.
	CodeReverted TxFailureCode = "REVERTED"

	// CodeUnknownMethod indicates the target has no method with that name.
	CodeUnknownMethod TxFailureCode = "UNKNOWN_METHOD"

	// CodeBadArguments indicates the arguments do not fit the method ABI.
	CodeBadArguments TxFailureCode = "BAD_ARGUMENTS"

	// CodeNoCode indicates the target address has no deployed code.
	CodeNoCode TxFailureCode = "NO_CODE"

	// CodeStaticWrite indicates a mutation inside a view call.
	CodeStaticWrite TxFailureCode = "STATIC_WRITE"

	// CodeCallDepth indicates nested calls exceeded MaxCallDepth.
	CodeCallDepth TxFailureCode = "CALL_DEPTH"
)

// Error implements the error interface.
func (e *TxFailedError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("transaction failed: %s: %s (contract=%s, method=%s)", e.Code, e.Reason, e.Contract.Hex(), e.Method)
	}
	return fmt.Sprintf("transaction failed: %s: %s", e.Code, e.Reason)
}

// IsTxFailed reports whether err is (or wraps) a transaction failure.
func IsTxFailed(err error) bool {
	var tf *TxFailedError
	return errors.As(err, &tf)
}

// FailureCode returns the failure code of a wrapped TxFailedError, or ""
// if err is not a transaction failure.
func FailureCode(err error) TxFailureCode {
	var tf *TxFailedError
	if errors.As(err, &tf) {
		return tf.Code
	}
	return ""
}

// Require returns a REVERTED failure when cond is false, nil otherwise.
// Contracts use it the way Solidity uses require():
//
//	if err := chain.Require(amount.Sign() > 0, "amount must be positive"); err != nil {
//	    return nil, err
//	}
func Require(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return &TxFailedError{Code: CodeReverted, Reason: fmt.Sprintf(format, args...)}
}

// Revert returns an unconditional REVERTED failure.
func Revert(format string, args ...any) error {
	return &TxFailedError{Code: CodeReverted, Reason: fmt.Sprintf(format, args...)}
}

func newFailure(code TxFailureCode, contract common.Address, method, format string, args ...any) *TxFailedError {
	return &TxFailedError{
		Code:     code,
		Reason:   fmt.Sprintf(format, args...),
		Contract: contract,
		Method:   method,
	}
}
