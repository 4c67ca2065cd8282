// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"fmt"

	"github.com/ava-labs/starkexec/felt"
)

// TxKind discriminates the transaction variants.
type TxKind uint8

const (
	TxInvoke TxKind = iota
	TxDeployAccount
	TxDeclare
	TxL1Handler
)

func (k TxKind) String() string {
	switch k {
	case TxInvoke:
		return "INVOKE"
	case TxDeployAccount:
		return "DEPLOY_ACCOUNT"
	case TxDeclare:
		return "DECLARE"
	case TxL1Handler:
		return "L1_HANDLER"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
	}
}

var (
	_ Tx = (*InvokeTx)(nil)
	_ Tx = (*DeployAccountTx)(nil)
	_ Tx = (*DeclareTx)(nil)
	_ Tx = (*L1HandlerTx)(nil)

	_ ExecutableTx = (*InvokeTx)(nil)
	_ ExecutableTx = (*DeployAccountTx)(nil)
	_ ExecutableTx = (*DeclareTxWithClass)(nil)
	_ ExecutableTx = (*L1HandlerTx)(nil)
)

// Tx is a transaction in its stored form.
type Tx interface {
	Kind() TxKind
}

// ExecutableTx is a transaction carrying everything needed to execute it.
// It differs from Tx only for declarations, which carry their classes.
type ExecutableTx interface {
	Kind() TxKind
	// Stored strips the execution-only payload.
	Stored() Tx
}

type InvokeTx struct {
	SenderAddress felt.Felt   `json:"sender_address"`
	Nonce         felt.Felt   `json:"nonce"`
	MaxFee        felt.Felt   `json:"max_fee"`
	Signature     []felt.Felt `json:"signature"`
	Calldata      []felt.Felt `json:"calldata"`
}

func (*InvokeTx) Kind() TxKind  { return TxInvoke }
func (tx *InvokeTx) Stored() Tx { return tx }

type DeployAccountTx struct {
	ContractAddress     felt.Felt   `json:"contract_address"`
	Nonce               felt.Felt   `json:"nonce"`
	MaxFee              felt.Felt   `json:"max_fee"`
	Signature           []felt.Felt `json:"signature"`
	ClassHash           felt.Felt   `json:"class_hash"`
	ContractAddressSalt felt.Felt   `json:"contract_address_salt"`
	ConstructorCalldata []felt.Felt `json:"constructor_calldata"`
}

func (*DeployAccountTx) Kind() TxKind  { return TxDeployAccount }
func (tx *DeployAccountTx) Stored() Tx { return tx }

// DeclareTx declares a class. Version 1 declares legacy classes, version 2
// declares sierra classes and must commit to the compiled class hash.
type DeclareTx struct {
	Version           uint8       `json:"version"`
	SenderAddress     felt.Felt   `json:"sender_address"`
	Nonce             felt.Felt   `json:"nonce"`
	MaxFee            felt.Felt   `json:"max_fee"`
	Signature         []felt.Felt `json:"signature"`
	ClassHash         felt.Felt   `json:"class_hash"`
	CompiledClassHash *felt.Felt  `json:"compiled_class_hash,omitempty"`
}

func (*DeclareTx) Kind() TxKind { return TxDeclare }

// DeclareTxWithClass is the executable form of a declaration.
type DeclareTxWithClass struct {
	Transaction   DeclareTx     `json:"transaction"`
	CompiledClass CompiledClass `json:"compiled_class"`
	SierraClass   *SierraClass  `json:"sierra_class,omitempty"`
}

func (*DeclareTxWithClass) Kind() TxKind { return TxDeclare }

func (tx *DeclareTxWithClass) Stored() Tx {
	declare := tx.Transaction
	return &declare
}

func (tx *DeclareTxWithClass) ClassHash() felt.Felt { return tx.Transaction.ClassHash }

type L1HandlerTx struct {
	ContractAddress    felt.Felt   `json:"contract_address"`
	EntryPointSelector felt.Felt   `json:"entry_point_selector"`
	Nonce              felt.Felt   `json:"nonce"`
	Calldata           []felt.Felt `json:"calldata"`
	PaidFeeOnL1        felt.Felt   `json:"paid_fee_on_l1"`
}

func (*L1HandlerTx) Kind() TxKind  { return TxL1Handler }
func (tx *L1HandlerTx) Stored() Tx { return tx }

// TxWithHash is a stored transaction paired with its hash.
type TxWithHash struct {
	Hash felt.Felt
	Tx   Tx
}

// ExecutableTxWithHash is an executable transaction paired with its hash.
type ExecutableTxWithHash struct {
	Hash felt.Felt
	Tx   ExecutableTx
}

func (tx ExecutableTxWithHash) TxWithHash() TxWithHash {
	return TxWithHash{Hash: tx.Hash, Tx: tx.Tx.Stored()}
}
