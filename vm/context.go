// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"

	"github.com/ava-labs/starkexec/felt"
)

const (
	// DefaultInitialGas is the gas budget of a transaction's top level calls.
	DefaultInitialGas uint64 = 10_000_000_000

	// StepGasCost is charged for every executed instruction.
	StepGasCost uint64 = 100

	// CallGasCost is charged on top of the steps of a nested call.
	CallGasCost uint64 = 10 * StepGasCost

	// NStepsResource and the builtin names key VMResourceFeeCost.
	NStepsResource     = "n_steps"
	PedersenBuiltin    = "pedersen_builtin"
	L1GasUsageResource = "l1_gas_usage"
)

// ExecutionMode selects the step budget of a run.
type ExecutionMode uint8

const (
	ExecutionModeExecute ExecutionMode = iota
	ExecutionModeValidate
)

func (m ExecutionMode) String() string {
	if m == ExecutionModeValidate {
		return "validate"
	}
	return "execute"
}

// FeeTokenAddresses are the fee token contracts of the chain.
type FeeTokenAddresses struct {
	ETH  felt.Felt
	STRK felt.Felt
}

// GasPrices are the L1 gas prices of the block.
type GasPrices struct {
	ETHL1GasPrice  uint64
	STRKL1GasPrice uint64
}

// BlockContext holds the values that stay fixed during a block.
type BlockContext struct {
	ChainID           felt.Felt
	BlockNumber       uint64
	BlockTimestamp    uint64
	SequencerAddress  felt.Felt
	FeeTokenAddresses FeeTokenAddresses
	GasPrices         GasPrices
	MaxRecursionDepth uint64
	ValidateMaxNSteps uint32
	InvokeTxMaxNSteps uint32
	VMResourceFeeCost map[string]float64
}

// AccountTransactionContext describes the transaction on whose behalf code
// runs. The zero value is used for calls made outside a transaction.
type AccountTransactionContext struct {
	TransactionHash felt.Felt
	Version         felt.Felt
	MaxFee          felt.Felt
	Signature       []felt.Felt
	Nonce           felt.Felt
	SenderAddress   felt.Felt
}

// EntryPointExecutionContext tracks the resources shared by every call made
// during one run.
type EntryPointExecutionContext struct {
	BlockContext *BlockContext
	TxContext    *AccountTransactionContext
	Mode         ExecutionMode

	maxSteps     uint64
	nSteps       uint64
	depth        uint64
	eventOrder   uint64
	messageOrder uint64
}

// NewEntryPointExecutionContext creates a context for one run. With
// [limitStepsByResources] the step budget is further bounded by what the
// transaction's max fee can pay for.
func NewEntryPointExecutionContext(
	blockCtx *BlockContext,
	txCtx *AccountTransactionContext,
	mode ExecutionMode,
	limitStepsByResources bool,
) (*EntryPointExecutionContext, error) {
	maxSteps, err := maxStepsOf(blockCtx, txCtx, mode, limitStepsByResources)
	if err != nil {
		return nil, err
	}
	return &EntryPointExecutionContext{
		BlockContext: blockCtx,
		TxContext:    txCtx,
		Mode:         mode,
		maxSteps:     maxSteps,
	}, nil
}

func maxStepsOf(
	blockCtx *BlockContext,
	txCtx *AccountTransactionContext,
	mode ExecutionMode,
	limitStepsByResources bool,
) (uint64, error) {
	upperBound := uint64(blockCtx.InvokeTxMaxNSteps)
	if mode == ExecutionModeValidate {
		upperBound = uint64(blockCtx.ValidateMaxNSteps)
	}
	if !limitStepsByResources || txCtx.MaxFee.IsZero() {
		return upperBound, nil
	}

	stepCost := blockCtx.VMResourceFeeCost[NStepsResource]
	gasPrice := blockCtx.GasPrices.ETHL1GasPrice
	if stepCost <= 0 || gasPrice == 0 {
		return upperBound, nil
	}

	maxFee, overflow := uint256.FromBig(txCtx.MaxFee.BigInt())
	if overflow {
		return 0, fmt.Errorf("%w: max fee %s", ErrFeeOverflow, txCtx.MaxFee)
	}
	gas := new(uint256.Int).Div(maxFee, uint256.NewInt(gasPrice))
	if !gas.IsUint64() {
		return upperBound, nil
	}
	steps := math.Floor(float64(gas.Uint64()) / stepCost)
	if steps >= float64(upperBound) {
		return upperBound, nil
	}
	return uint64(steps), nil
}

// MaxSteps is the step budget of the run.
func (c *EntryPointExecutionContext) MaxSteps() uint64 { return c.maxSteps }

// NSteps is the number of steps taken so far.
func (c *EntryPointExecutionContext) NSteps() uint64 { return c.nSteps }

func (c *EntryPointExecutionContext) consumeStep() error {
	if c.nSteps >= c.maxSteps {
		return ErrStepLimitExceeded
	}
	c.nSteps++
	return nil
}

func (c *EntryPointExecutionContext) enter() error {
	if c.depth >= c.BlockContext.MaxRecursionDepth {
		return ErrRecursionDepthExceeded
	}
	c.depth++
	return nil
}

func (c *EntryPointExecutionContext) exit() { c.depth-- }

func (c *EntryPointExecutionContext) nextEventOrder() uint64 {
	order := c.eventOrder
	c.eventOrder++
	return order
}

func (c *EntryPointExecutionContext) nextMessageOrder() uint64 {
	order := c.messageOrder
	c.messageOrder++
	return order
}
