// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package executor defines how blocks and transactions are handed to an
// execution backend. Backends live in sub packages.
package executor

import (
	"fmt"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
	"github.com/ava-labs/starkexec/provider"
)

// ExecutorFactory builds executors sharing one configuration.
type ExecutorFactory interface {
	// WithState returns an executor over [state] with a zero block
	// environment.
	WithState(state provider.StateProvider) BlockExecutor
	// WithStateAndBlockEnv returns an executor over [state] that executes
	// transactions as part of the block described by [env].
	WithStateAndBlockEnv(state provider.StateProvider, env core.BlockEnv) BlockExecutor
	// Cfg returns the configuration every executor is built with.
	Cfg() core.CfgEnv
}

// BlockExecutor executes whole blocks and accumulates their output until it
// is taken.
type BlockExecutor interface {
	TransactionExecutor

	// ExecuteBlock executes every transaction of [block] in order. Reverted
	// transactions are part of the output. The first error aborts the block
	// and none of its writes are kept.
	ExecuteBlock(block core.ExecutableBlock) error
	// TakeExecutionOutput returns the accumulated state updates and executed
	// transactions. The transaction list is emptied.
	TakeExecutionOutput() (*ExecutionOutput, error)
	// State returns a view of the state including every write executed so
	// far. The view follows later executions.
	State() provider.StateProvider
	// Transactions returns the transactions executed since the last
	// TakeExecutionOutput.
	Transactions() []ExecutedTx
	BlockEnv() core.BlockEnv
}

// TransactionExecutor executes single transactions and calls.
type TransactionExecutor interface {
	// Execute executes [tx] and keeps its writes.
	Execute(tx core.ExecutableTxWithHash) (TransactionExecutionOutput, error)
	// Simulate executes [tx] with [flags] without keeping anything.
	Simulate(tx core.ExecutableTxWithHash, flags SimulationFlags) (TransactionExecutionOutput, error)
	// Call runs a contract entry point outside of any transaction and returns
	// its return data.
	Call(call EntryPointCall, initialGas uint64) ([]felt.Felt, error)
}

// TransactionExecutionOutput is the backend's report of one transaction.
type TransactionExecutionOutput interface {
	// Receipt builds the receipt of [tx] from the execution report.
	Receipt(tx core.Tx) core.Receipt
	ActualFee() felt.Felt
	// GasUsed is the L1 gas the transaction is charged for.
	GasUsed() uint64
	// RevertError is empty unless the transaction reverted.
	RevertError() string
}

// SimulationFlags disable parts of the transaction flow.
type SimulationFlags struct {
	SkipValidate    bool `json:"skip_validate"`
	SkipFeeTransfer bool `json:"skip_fee_transfer"`
}

// Validate reports whether account validation runs.
func (f SimulationFlags) Validate() bool { return !f.SkipValidate }

// ChargeFee reports whether fees are checked and transferred.
func (f SimulationFlags) ChargeFee() bool { return !f.SkipFeeTransfer }

// EntryPointCall is a read only call into a deployed contract.
type EntryPointCall struct {
	ContractAddress    felt.Felt   `json:"contract_address"`
	EntryPointSelector felt.Felt   `json:"entry_point_selector"`
	Calldata           []felt.Felt `json:"calldata"`
}

// ExecutedTx is a transaction in its stored form along with its receipt.
type ExecutedTx struct {
	Tx      core.TxWithHash
	Receipt core.Receipt
}

// ExecutionOutput is everything a block execution produced.
type ExecutionOutput struct {
	States       core.StateUpdatesWithDeclaredClasses
	Transactions []ExecutedTx
}

// Error is an error reported by an execution backend. Err is the backend's
// own error.
type Error struct {
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s executor: %s", e.Backend, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
