// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"errors"
	"fmt"

	"github.com/ava-labs/starkexec/felt"
)

// Failures of contract code. Any of these aborts the running entry point and
// surfaces as an EntryPointExecutionError.
var (
	ErrOutOfGas               = errors.New("out of gas")
	ErrStepLimitExceeded      = errors.New("RunResources has no remaining steps")
	ErrRecursionDepthExceeded = errors.New("recursion depth exceeded")
	ErrStackUnderflow         = errors.New("stack underflow")
	ErrStackOverflow          = errors.New("stack overflow")
	ErrIndexOutOfRange        = errors.New("index out of range")
	ErrContractNotDeployed    = errors.New("requested contract address is not deployed")
	ErrEntryPointNotFound     = errors.New("entry point not found in contract")
	ErrUndeclaredClassHash    = errors.New("class with hash is not declared")
)

// Transaction level failures.
var (
	ErrInvalidNonce              = errors.New("invalid transaction nonce")
	ErrMaxFeeTooLow              = errors.New("max fee is lower than the minimal transaction cost")
	ErrInsufficientBalance       = errors.New("account balance is smaller than the transaction's max fee")
	ErrInsufficientL1Fee         = errors.New("paid fee on L1 is lower than the actual fee")
	ErrMaxFeeExceeded            = errors.New("actual fee exceeded max fee")
	ErrFeeOverflow               = errors.New("fee does not fit in 128 bits")
	ErrUnknownResource           = errors.New("resource is not contained in the fee costs")
	ErrClassAlreadyDeclared      = errors.New("class is already declared")
	ErrCompiledClassHashMismatch = errors.New("compiled class hash does not match the declared class")
	ErrContractAlreadyDeployed   = errors.New("contract address is already deployed")
	ErrMissingConstructor        = errors.New("constructor calldata given to a class without constructor")
)

// Class loading failures.
var (
	ErrInvalidClass         = errors.New("invalid contract class")
	ErrClassVersionMismatch = errors.New("declare version does not match the class version")
)

// AssertionError is raised by a failing ASSERT instruction.
type AssertionError struct {
	Reason string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: '%s'", e.Reason)
}

// EntryPointExecutionError reports a failure inside an entry point.
type EntryPointExecutionError struct {
	ContractAddress felt.Felt
	Selector        felt.Felt
	Err             error
}

func (e *EntryPointExecutionError) Error() string {
	return fmt.Sprintf("error in contract %s, entry point %s: %s", e.ContractAddress, e.Selector, e.Err)
}

func (e *EntryPointExecutionError) Unwrap() error { return e.Err }

// TransactionExecutionError reports a failure that prevents a transaction
// from being included at all.
type TransactionExecutionError struct {
	Phase string
	Err   error
}

func (e *TransactionExecutionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Phase, e.Err)
}

func (e *TransactionExecutionError) Unwrap() error { return e.Err }

// TransactionFeeError reports a failure to compute or charge a fee.
type TransactionFeeError struct {
	Err error
}

func (e *TransactionFeeError) Error() string {
	return fmt.Sprintf("fee error: %s", e.Err)
}

func (e *TransactionFeeError) Unwrap() error { return e.Err }

var executionFailures = []error{
	ErrOutOfGas,
	ErrStepLimitExceeded,
	ErrRecursionDepthExceeded,
	ErrStackUnderflow,
	ErrStackOverflow,
	ErrIndexOutOfRange,
	ErrContractNotDeployed,
	ErrEntryPointNotFound,
	ErrUndeclaredClassHash,
}

// isExecutionFailure reports whether [err] was caused by the contract code
// rather than by the state backing it.
func isExecutionFailure(err error) bool {
	var (
		entryPointErr *EntryPointExecutionError
		assertionErr  *AssertionError
	)
	if errors.As(err, &entryPointErr) || errors.As(err, &assertionErr) {
		return true
	}
	for _, failure := range executionFailures {
		if errors.Is(err, failure) {
			return true
		}
	}
	return false
}
