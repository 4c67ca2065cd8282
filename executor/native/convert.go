// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package native

import (
	"errors"
	"fmt"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
	"github.com/ava-labs/starkexec/vm"
)

var (
	errMissingCompiledClassHash = errors.New("declare v2 requires a compiled class hash")
	errUnsupportedVersion       = errors.New("unsupported declare version")
	errUnknownTransaction       = errors.New("unknown transaction type")
)

// ConversionError is returned for transactions, and classes, that have no
// vm representation.
type ConversionError struct {
	Hash felt.Felt
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to convert %s: %s", e.Hash, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// toExecutorTx converts [tx] into the transaction the vm runs.
func toExecutorTx(tx core.ExecutableTxWithHash) (vm.Transaction, error) {
	switch t := tx.Tx.(type) {
	case *core.InvokeTx:
		return &vm.InvokeTransaction{
			TxHash:        tx.Hash,
			SenderAddress: t.SenderAddress,
			Nonce:         t.Nonce,
			MaxFee:        t.MaxFee,
			Signature:     t.Signature,
			Calldata:      t.Calldata,
		}, nil

	case *core.DeployAccountTx:
		return &vm.DeployAccountTransaction{
			TxHash:              tx.Hash,
			ContractAddress:     t.ContractAddress,
			Nonce:               t.Nonce,
			MaxFee:              t.MaxFee,
			Signature:           t.Signature,
			ClassHash:           t.ClassHash,
			ContractAddressSalt: t.ContractAddressSalt,
			ConstructorCalldata: t.ConstructorCalldata,
		}, nil

	case *core.DeclareTxWithClass:
		declare, err := toDeclareTransaction(tx.Hash, t)
		if err != nil {
			return nil, &ConversionError{Hash: tx.Hash, Err: err}
		}
		return declare, nil

	case *core.L1HandlerTx:
		return &vm.L1HandlerTransaction{
			TxHash:             tx.Hash,
			ContractAddress:    t.ContractAddress,
			EntryPointSelector: t.EntryPointSelector,
			Nonce:              t.Nonce,
			Calldata:           t.Calldata,
			PaidFeeOnL1:        t.PaidFeeOnL1,
		}, nil

	default:
		return nil, &ConversionError{Hash: tx.Hash, Err: fmt.Errorf("%w: %T", errUnknownTransaction, tx.Tx)}
	}
}

func toDeclareTransaction(hash felt.Felt, tx *core.DeclareTxWithClass) (*vm.DeclareTransaction, error) {
	declare := vm.DeclareTransaction{
		TxHash:        hash,
		Version:       tx.Transaction.Version,
		SenderAddress: tx.Transaction.SenderAddress,
		Nonce:         tx.Transaction.Nonce,
		MaxFee:        tx.Transaction.MaxFee,
		Signature:     tx.Transaction.Signature,
		ClassHash:     tx.Transaction.ClassHash,
	}

	switch tx.Transaction.Version {
	case 1:
	case 2:
		if tx.Transaction.CompiledClassHash == nil {
			return nil, errMissingCompiledClassHash
		}
		compiledClassHash := core.ComputeCompiledClassHash(&tx.CompiledClass)
		if !compiledClassHash.Equal(*tx.Transaction.CompiledClassHash) {
			return nil, fmt.Errorf("%w: expected %s, got %s",
				vm.ErrCompiledClassHashMismatch,
				compiledClassHash,
				tx.Transaction.CompiledClassHash,
			)
		}
		declare.CompiledClassHash = compiledClassHash
	default:
		return nil, fmt.Errorf("%w: %d", errUnsupportedVersion, tx.Transaction.Version)
	}

	class, err := vm.NewContractClass(&tx.CompiledClass)
	if err != nil {
		return nil, err
	}
	return vm.NewDeclareTransaction(declare, class)
}
