// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"github.com/ava-labs/starkexec/felt"
)

// PartialHeader is the part of a block header known before execution.
type PartialHeader struct {
	ParentHash       felt.Felt `json:"parent_hash"`
	Number           uint64    `json:"number"`
	Timestamp        uint64    `json:"timestamp"`
	GasPrices        GasPrices `json:"gas_prices"`
	SequencerAddress felt.Felt `json:"sequencer_address"`
}

// ExecutableBlock is a block whose transactions are ready to be executed.
type ExecutableBlock struct {
	Header PartialHeader
	Body   []ExecutableTxWithHash
}

// BlockEnv returns the execution environment described by the header.
func (h PartialHeader) BlockEnv() BlockEnv {
	return BlockEnv{
		Number:           h.Number,
		Timestamp:        h.Timestamp,
		L1GasPrices:      h.GasPrices,
		SequencerAddress: h.SequencerAddress,
	}
}
