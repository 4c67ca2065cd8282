// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"github.com/ava-labs/starkexec/felt"
)

type Event struct {
	FromAddress felt.Felt   `json:"from_address"`
	Keys        []felt.Felt `json:"keys"`
	Data        []felt.Felt `json:"data"`
}

type MessageToL1 struct {
	FromAddress felt.Felt   `json:"from_address"`
	ToAddress   felt.Felt   `json:"to_address"`
	Payload     []felt.Felt `json:"payload"`
}

// ExecutionResources are the VM resources consumed by a transaction.
type ExecutionResources struct {
	Steps       uint64            `json:"steps"`
	MemoryHoles uint64            `json:"memory_holes"`
	Builtins    map[string]uint64 `json:"builtins"`
}

// Receipt is the outcome of a transaction as stored alongside it.
type Receipt struct {
	Type               TxKind             `json:"type"`
	ActualFee          felt.Felt          `json:"actual_fee"`
	RevertError        string             `json:"revert_error,omitempty"`
	Events             []Event            `json:"events"`
	MessagesSent       []MessageToL1      `json:"messages_sent"`
	ExecutionResources ExecutionResources `json:"execution_resources"`
	// ContractAddress is set for account deployments.
	ContractAddress *felt.Felt `json:"contract_address,omitempty"`
}

func (r *Receipt) IsReverted() bool { return r.RevertError != "" }
