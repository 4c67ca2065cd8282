// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"fmt"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
)

var (
	ExecuteEntryPointSelector         = felt.Selector("__execute__")
	ValidateEntryPointSelector        = felt.Selector("__validate__")
	ValidateDeclareEntryPointSelector = felt.Selector("__validate_declare__")
	ValidateDeployEntryPointSelector  = felt.Selector("__validate_deploy__")
	ConstructorEntryPointSelector     = felt.Selector("constructor")
	TransferEntryPointSelector        = felt.Selector("transfer")
)

// accountRun holds what the phases of one account transaction share.
type accountRun struct {
	blockCtx  *BlockContext
	txCtx     *AccountTransactionContext
	chargeFee bool
	validate  bool
	// steps and builtins of every phase but the fee transfer
	resources *ExecutionResources
}

func newAccountRun(blockCtx *BlockContext, txCtx *AccountTransactionContext, chargeFee, validate bool) *accountRun {
	return &accountRun{
		blockCtx:  blockCtx,
		txCtx:     txCtx,
		chargeFee: chargeFee,
		validate:  validate,
		resources: NewExecutionResources(),
	}
}

// preValidate checks and bumps the nonce of the sender, then makes sure the
// sender can pay for the transaction.
func (r *accountRun) preValidate(state State) error {
	sender := r.txCtx.SenderAddress
	current, err := state.GetNonceAt(sender)
	if err != nil {
		return err
	}
	if !current.Equal(r.txCtx.Nonce) {
		return &TransactionExecutionError{
			Phase: "pre-validation",
			Err:   fmt.Errorf("%w: account %s expected %s, got %s", ErrInvalidNonce, sender, current, r.txCtx.Nonce),
		}
	}
	if err := state.IncrementNonce(sender); err != nil {
		return err
	}
	return r.checkFeeBalance(state)
}

func (r *accountRun) checkFeeBalance(state State) error {
	if !r.chargeFee {
		return nil
	}
	minimalGas := CalculateL1GasUsage(StateChangesCount{NModifiedContracts: 1, NStorageUpdates: 1}, nil, nil)
	minimalFee, err := feeOf(minimalGas, r.blockCtx.GasPrices.ETHL1GasPrice)
	if err != nil {
		return err
	}
	if r.txCtx.MaxFee.Cmp(minimalFee) < 0 {
		return &TransactionFeeError{Err: fmt.Errorf("%w: max fee %s, minimal fee %s", ErrMaxFeeTooLow, r.txCtx.MaxFee, minimalFee)}
	}

	balance, err := state.GetStorageAt(r.blockCtx.FeeTokenAddresses.ETH, FeeTokenBalanceKey(r.txCtx.SenderAddress))
	if err != nil {
		return err
	}
	if balance.Cmp(r.txCtx.MaxFee) < 0 {
		return &TransactionFeeError{Err: fmt.Errorf("%w: balance %s, max fee %s", ErrInsufficientBalance, balance, r.txCtx.MaxFee)}
	}
	return nil
}

// runValidate calls the validation entry point of the sender account.
func (r *accountRun) runValidate(state State, selector felt.Felt, calldata []felt.Felt) (*CallInfo, error) {
	if !r.validate {
		return nil, nil
	}
	call := CallEntryPoint{
		EntryPointType:     core.EntryPointExternal,
		EntryPointSelector: selector,
		Calldata:           calldata,
		StorageAddress:     r.txCtx.SenderAddress,
		InitialGas:         DefaultInitialGas,
	}
	info, err := r.run(state, call, ExecutionModeValidate)
	if err != nil {
		return nil, &TransactionExecutionError{Phase: "validation", Err: err}
	}
	return info, nil
}

func (r *accountRun) run(state State, call CallEntryPoint, mode ExecutionMode) (*CallInfo, error) {
	ctx, err := NewEntryPointExecutionContext(r.blockCtx, r.txCtx, mode, r.chargeFee)
	if err != nil {
		return nil, err
	}
	return call.Execute(state, r.resources, ctx)
}

// actualResources computes the charged resources given the layers holding
// the writes of the transaction.
func (r *accountRun) actualResources(
	messages []L2ToL1Message,
	layers ...*CachedState,
) (ResourcesMapping, felt.Felt, error) {
	var feeToken *felt.Felt
	if r.chargeFee {
		feeToken = &r.blockCtx.FeeTokenAddresses.ETH
	}
	changes := countStateChanges(feeToken, r.txCtx.SenderAddress, layers...)
	resources := CalculateTxResources(r.resources, changes, messages, nil)
	fee, err := CalculateTxFee(resources, r.blockCtx)
	if err != nil {
		return nil, felt.Zero, err
	}
	return resources, fee, nil
}

// transferFee moves [fee] from the sender to the sequencer.
func (r *accountRun) transferFee(state State, fee felt.Felt) (*CallInfo, error) {
	if !r.chargeFee || fee.IsZero() {
		return nil, nil
	}
	call := CallEntryPoint{
		EntryPointType:     core.EntryPointExternal,
		EntryPointSelector: TransferEntryPointSelector,
		Calldata:           []felt.Felt{r.blockCtx.SequencerAddress, fee},
		StorageAddress:     r.blockCtx.FeeTokenAddresses.ETH,
		CallerAddress:      r.txCtx.SenderAddress,
		InitialGas:         DefaultInitialGas,
	}
	ctx, err := NewEntryPointExecutionContext(r.blockCtx, r.txCtx, ExecutionModeExecute, false)
	if err != nil {
		return nil, err
	}
	info, err := call.Execute(state, NewExecutionResources(), ctx)
	if err != nil {
		return nil, &TransactionFeeError{Err: err}
	}
	return info, nil
}

// checkMaxFee fails transactions that cannot be reverted when they cost more
// than they allow.
func (r *accountRun) checkMaxFee(fee felt.Felt) error {
	if r.chargeFee && fee.Cmp(r.txCtx.MaxFee) > 0 {
		return &TransactionFeeError{Err: fmt.Errorf("%w: %s > %s", ErrMaxFeeExceeded, fee, r.txCtx.MaxFee)}
	}
	return nil
}

func collectMessages(infos ...*CallInfo) []L2ToL1Message {
	var messages []L2ToL1Message
	for _, info := range infos {
		if info != nil {
			messages = append(messages, info.L2ToL1Messages()...)
		}
	}
	return messages
}
