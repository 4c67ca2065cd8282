// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"errors"
	"fmt"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
)

const (
	InvokeVersion        uint64 = 1
	DeployAccountVersion uint64 = 1
	L1HandlerVersion     uint64 = 0
)

var (
	logger = log.New("module", "vm")

	_ Transaction = &InvokeTransaction{}
	_ Transaction = &DeployAccountTransaction{}
	_ Transaction = &DeclareTransaction{}
	_ Transaction = &L1HandlerTransaction{}
)

// Transaction is a transaction the VM can execute.
type Transaction interface {
	// Execute runs the transaction on top of [state]. On success the writes
	// of the transaction are committed into [state]. On error [state] is
	// left untouched.
	Execute(state *CachedState, blockCtx *BlockContext, chargeFee, validate bool) (*TransactionExecutionInfo, error)
}

// TransactionExecutionInfo is the outcome of an included transaction.
type TransactionExecutionInfo struct {
	ValidateCallInfo    *CallInfo
	ExecuteCallInfo     *CallInfo
	FeeTransferCallInfo *CallInfo
	ActualFee           felt.Felt
	ActualResources     ResourcesMapping
	// RevertError is set when the execution phase was rolled back.
	RevertError string
}

func (i *TransactionExecutionInfo) IsReverted() bool { return i.RevertError != "" }

// Events returns the events of every phase in execution order.
func (i *TransactionExecutionInfo) Events() []Event {
	var events []Event
	for _, info := range i.callInfos() {
		events = append(events, info.Events()...)
	}
	return events
}

// L2ToL1Messages returns the messages of every phase in execution order.
func (i *TransactionExecutionInfo) L2ToL1Messages() []L2ToL1Message {
	return collectMessages(i.callInfos()...)
}

func (i *TransactionExecutionInfo) callInfos() []*CallInfo {
	var infos []*CallInfo
	for _, info := range []*CallInfo{i.ValidateCallInfo, i.ExecuteCallInfo, i.FeeTransferCallInfo} {
		if info != nil {
			infos = append(infos, info)
		}
	}
	return infos
}

// execute commits the writes [f] makes to a child of [state] when it
// succeeds.
func execute(
	state *CachedState,
	hash felt.Felt,
	f func(txState *CachedState) (*TransactionExecutionInfo, error),
) (*TransactionExecutionInfo, error) {
	txState := state.Child()
	info, err := f(txState)
	if err != nil {
		txState.Abort()
		logger.Debug("transaction failed", "hash", hash, "err", err)
		return nil, err
	}
	if err := txState.Commit(); err != nil {
		return nil, err
	}
	if info.IsReverted() {
		logger.Debug("transaction reverted", "hash", hash, "reason", info.RevertError, "fee", info.ActualFee)
	}
	return info, nil
}

type InvokeTransaction struct {
	TxHash        felt.Felt
	SenderAddress felt.Felt
	Nonce         felt.Felt
	MaxFee        felt.Felt
	Signature     []felt.Felt
	Calldata      []felt.Felt
}

func (tx *InvokeTransaction) Execute(
	state *CachedState,
	blockCtx *BlockContext,
	chargeFee bool,
	validate bool,
) (*TransactionExecutionInfo, error) {
	r := newAccountRun(blockCtx, &AccountTransactionContext{
		TransactionHash: tx.TxHash,
		Version:         felt.FromUint64(InvokeVersion),
		MaxFee:          tx.MaxFee,
		Signature:       tx.Signature,
		Nonce:           tx.Nonce,
		SenderAddress:   tx.SenderAddress,
	}, chargeFee, validate)

	return execute(state, tx.TxHash, func(txState *CachedState) (*TransactionExecutionInfo, error) {
		if err := r.preValidate(txState); err != nil {
			return nil, err
		}
		validateInfo, err := r.runValidate(txState, ValidateEntryPointSelector, tx.Calldata)
		if err != nil {
			return nil, err
		}

		// The execution phase runs in its own layer so that a failure only
		// rolls back its writes. Nonce and fee are still charged.
		execState := txState.Child()
		executeInfo, err := r.run(execState, CallEntryPoint{
			EntryPointType:     core.EntryPointExternal,
			EntryPointSelector: ExecuteEntryPointSelector,
			Calldata:           tx.Calldata,
			StorageAddress:     tx.SenderAddress,
			InitialGas:         DefaultInitialGas,
		}, ExecutionModeExecute)

		var revertError string
		if err != nil {
			var executionErr *EntryPointExecutionError
			if !errors.As(err, &executionErr) {
				execState.Abort()
				return nil, err
			}
			execState.Abort()
			executeInfo = nil
			revertError = err.Error()
		}

		resources, fee, err := r.actualResources(collectMessages(validateInfo, executeInfo), txState, execState)
		if err != nil {
			execState.Abort()
			return nil, err
		}
		// A reverted transaction is never charged more than its max fee.
		if revertError != "" && chargeFee && fee.Cmp(tx.MaxFee) > 0 {
			fee = tx.MaxFee
		}
		if revertError == "" && chargeFee && fee.Cmp(tx.MaxFee) > 0 {
			execState.Abort()
			executeInfo = nil
			revertError = fmt.Sprintf("%s: %s > %s", ErrMaxFeeExceeded, fee, tx.MaxFee)

			resources, _, err = r.actualResources(collectMessages(validateInfo), txState)
			if err != nil {
				return nil, err
			}
			fee = tx.MaxFee
		}
		if revertError == "" {
			if err := execState.Commit(); err != nil {
				return nil, err
			}
		}

		feeTransferInfo, err := r.transferFee(txState, fee)
		if err != nil {
			return nil, err
		}
		return &TransactionExecutionInfo{
			ValidateCallInfo:    validateInfo,
			ExecuteCallInfo:     executeInfo,
			FeeTransferCallInfo: feeTransferInfo,
			ActualFee:           fee,
			ActualResources:     resources,
			RevertError:         revertError,
		}, nil
	})
}

type DeployAccountTransaction struct {
	TxHash              felt.Felt
	ContractAddress     felt.Felt
	Nonce               felt.Felt
	MaxFee              felt.Felt
	Signature           []felt.Felt
	ClassHash           felt.Felt
	ContractAddressSalt felt.Felt
	ConstructorCalldata []felt.Felt
}

func (tx *DeployAccountTransaction) Execute(
	state *CachedState,
	blockCtx *BlockContext,
	chargeFee bool,
	validate bool,
) (*TransactionExecutionInfo, error) {
	r := newAccountRun(blockCtx, &AccountTransactionContext{
		TransactionHash: tx.TxHash,
		Version:         felt.FromUint64(DeployAccountVersion),
		MaxFee:          tx.MaxFee,
		Signature:       tx.Signature,
		Nonce:           tx.Nonce,
		SenderAddress:   tx.ContractAddress,
	}, chargeFee, validate)

	return execute(state, tx.TxHash, func(txState *CachedState) (*TransactionExecutionInfo, error) {
		if err := r.preValidate(txState); err != nil {
			return nil, err
		}
		constructorInfo, err := tx.deploy(txState, r)
		if err != nil {
			return nil, err
		}

		calldata := append([]felt.Felt{tx.ClassHash, tx.ContractAddressSalt}, tx.ConstructorCalldata...)
		validateInfo, err := r.runValidate(txState, ValidateDeployEntryPointSelector, calldata)
		if err != nil {
			return nil, err
		}

		resources, fee, err := r.actualResources(collectMessages(validateInfo, constructorInfo), txState)
		if err != nil {
			return nil, err
		}
		if err := r.checkMaxFee(fee); err != nil {
			return nil, err
		}
		feeTransferInfo, err := r.transferFee(txState, fee)
		if err != nil {
			return nil, err
		}
		return &TransactionExecutionInfo{
			ValidateCallInfo:    validateInfo,
			ExecuteCallInfo:     constructorInfo,
			FeeTransferCallInfo: feeTransferInfo,
			ActualFee:           fee,
			ActualResources:     resources,
		}, nil
	})
}

func (tx *DeployAccountTransaction) deploy(state *CachedState, r *accountRun) (*CallInfo, error) {
	deployed, err := state.GetClassHashAt(tx.ContractAddress)
	if err != nil {
		return nil, err
	}
	if !deployed.IsZero() {
		return nil, &TransactionExecutionError{
			Phase: "deploy",
			Err:   fmt.Errorf("%w: %s", ErrContractAlreadyDeployed, tx.ContractAddress),
		}
	}
	class, err := state.GetCompiledContractClass(tx.ClassHash)
	if err != nil {
		return nil, &TransactionExecutionError{Phase: "deploy", Err: err}
	}
	if err := state.SetClassHashAt(tx.ContractAddress, tx.ClassHash); err != nil {
		return nil, err
	}

	if _, ok := class.Constructor(); !ok {
		if len(tx.ConstructorCalldata) > 0 {
			return nil, &TransactionExecutionError{Phase: "constructor", Err: ErrMissingConstructor}
		}
		return nil, nil
	}
	classHash := tx.ClassHash
	info, err := r.run(state, CallEntryPoint{
		ClassHash:          &classHash,
		EntryPointType:     core.EntryPointConstructor,
		EntryPointSelector: ConstructorEntryPointSelector,
		Calldata:           tx.ConstructorCalldata,
		StorageAddress:     tx.ContractAddress,
		InitialGas:         DefaultInitialGas,
	}, ExecutionModeExecute)
	if err != nil {
		return nil, &TransactionExecutionError{Phase: "constructor", Err: err}
	}
	return info, nil
}

// DeclareTransaction declares [class] under ClassHash. Version 1 declares
// legacy classes and version 2 sierra classes.
type DeclareTransaction struct {
	TxHash            felt.Felt
	Version           uint8
	SenderAddress     felt.Felt
	Nonce             felt.Felt
	MaxFee            felt.Felt
	Signature         []felt.Felt
	ClassHash         felt.Felt
	CompiledClassHash felt.Felt

	class *ContractClass
}

// NewDeclareTransaction pairs [tx] with the class it declares.
func NewDeclareTransaction(tx DeclareTransaction, class *ContractClass) (*DeclareTransaction, error) {
	switch tx.Version {
	case 1:
		if class.Version != core.LegacyClassVersion {
			return nil, fmt.Errorf("%w: declare v1 of a version %d class", ErrClassVersionMismatch, class.Version)
		}
	case 2:
		if class.Version != core.SierraClassVersion {
			return nil, fmt.Errorf("%w: declare v2 of a version %d class", ErrClassVersionMismatch, class.Version)
		}
	default:
		return nil, fmt.Errorf("unsupported declare version %d", tx.Version)
	}
	tx.class = class
	return &tx, nil
}

func (tx *DeclareTransaction) Class() *ContractClass { return tx.class }

func (tx *DeclareTransaction) Execute(
	state *CachedState,
	blockCtx *BlockContext,
	chargeFee bool,
	validate bool,
) (*TransactionExecutionInfo, error) {
	r := newAccountRun(blockCtx, &AccountTransactionContext{
		TransactionHash: tx.TxHash,
		Version:         felt.FromUint64(uint64(tx.Version)),
		MaxFee:          tx.MaxFee,
		Signature:       tx.Signature,
		Nonce:           tx.Nonce,
		SenderAddress:   tx.SenderAddress,
	}, chargeFee, validate)

	return execute(state, tx.TxHash, func(txState *CachedState) (*TransactionExecutionInfo, error) {
		if err := r.preValidate(txState); err != nil {
			return nil, err
		}
		validateInfo, err := r.runValidate(txState, ValidateDeclareEntryPointSelector, []felt.Felt{tx.ClassHash})
		if err != nil {
			return nil, err
		}
		if err := tx.declare(txState); err != nil {
			return nil, err
		}

		resources, fee, err := r.actualResources(collectMessages(validateInfo), txState)
		if err != nil {
			return nil, err
		}
		if err := r.checkMaxFee(fee); err != nil {
			return nil, err
		}
		feeTransferInfo, err := r.transferFee(txState, fee)
		if err != nil {
			return nil, err
		}
		return &TransactionExecutionInfo{
			ValidateCallInfo:    validateInfo,
			FeeTransferCallInfo: feeTransferInfo,
			ActualFee:           fee,
			ActualResources:     resources,
		}, nil
	})
}

func (tx *DeclareTransaction) declare(state *CachedState) error {
	switch tx.Version {
	case 1:
		_, err := state.GetCompiledContractClass(tx.ClassHash)
		switch {
		case err == nil:
			return &TransactionExecutionError{
				Phase: "declare",
				Err:   fmt.Errorf("%w: %s", ErrClassAlreadyDeclared, tx.ClassHash),
			}
		case !errors.Is(err, ErrUndeclaredClassHash):
			return err
		}
	default:
		compiledClassHash, err := state.GetCompiledClassHash(tx.ClassHash)
		if err != nil {
			return err
		}
		if !compiledClassHash.IsZero() {
			return &TransactionExecutionError{
				Phase: "declare",
				Err:   fmt.Errorf("%w: %s", ErrClassAlreadyDeclared, tx.ClassHash),
			}
		}
		if err := state.SetCompiledClassHash(tx.ClassHash, tx.CompiledClassHash); err != nil {
			return err
		}
	}
	return state.SetContractClass(tx.ClassHash, tx.class)
}

// L1HandlerTransaction runs a message sent from L1. It has no signature and
// is paid for on L1.
type L1HandlerTransaction struct {
	TxHash             felt.Felt
	ContractAddress    felt.Felt
	EntryPointSelector felt.Felt
	Nonce              felt.Felt
	Calldata           []felt.Felt
	PaidFeeOnL1        felt.Felt
}

func (tx *L1HandlerTransaction) Execute(
	state *CachedState,
	blockCtx *BlockContext,
	chargeFee bool,
	_ bool,
) (*TransactionExecutionInfo, error) {
	txCtx := &AccountTransactionContext{
		TransactionHash: tx.TxHash,
		Version:         felt.FromUint64(L1HandlerVersion),
		Nonce:           tx.Nonce,
	}
	return execute(state, tx.TxHash, func(txState *CachedState) (*TransactionExecutionInfo, error) {
		ctx, err := NewEntryPointExecutionContext(blockCtx, txCtx, ExecutionModeExecute, false)
		if err != nil {
			return nil, err
		}
		resources := NewExecutionResources()
		info, err := CallEntryPoint{
			EntryPointType:     core.EntryPointL1Handler,
			EntryPointSelector: tx.EntryPointSelector,
			Calldata:           tx.Calldata,
			StorageAddress:     tx.ContractAddress,
			InitialGas:         DefaultInitialGas,
		}.Execute(txState, resources, ctx)
		if err != nil {
			return nil, &TransactionExecutionError{Phase: "execution", Err: err}
		}

		payloadSize := len(tx.Calldata)
		changes := countStateChanges(nil, felt.Zero, txState)
		actualResources := CalculateTxResources(resources, changes, info.L2ToL1Messages(), &payloadSize)
		fee, err := CalculateTxFee(actualResources, blockCtx)
		if err != nil {
			return nil, err
		}
		if chargeFee && tx.PaidFeeOnL1.Cmp(fee) < 0 {
			return nil, &TransactionFeeError{
				Err: fmt.Errorf("%w: paid %s, actual %s", ErrInsufficientL1Fee, tx.PaidFeeOnL1, fee),
			}
		}
		return &TransactionExecutionInfo{
			ExecuteCallInfo: info,
			ActualFee:       fee,
			ActualResources: actualResources,
		}, nil
	})
}
