// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"github.com/ava-labs/starkexec/felt"
)

// GasPrices are the L1 gas prices of a block, denominated in the smallest
// unit of each fee token.
type GasPrices struct {
	ETH  uint64 `json:"eth"`
	STRK uint64 `json:"strk"`
}

// FeeTokenAddresses are the addresses of the fee token contracts.
type FeeTokenAddresses struct {
	ETH  felt.Felt `json:"eth"`
	STRK felt.Felt `json:"strk"`
}

// BlockEnv holds the values of the block currently being executed.
type BlockEnv struct {
	Number           uint64    `json:"number"`
	Timestamp        uint64    `json:"timestamp"`
	L1GasPrices      GasPrices `json:"l1_gas_prices"`
	SequencerAddress felt.Felt `json:"sequencer_address"`
}

// CfgEnv holds the chain wide execution parameters. It is fixed once an
// executor factory is built.
type CfgEnv struct {
	ChainID           felt.Felt         `json:"chain_id"`
	FeeTokenAddresses FeeTokenAddresses `json:"fee_token_addresses"`
	MaxRecursionDepth uint64            `json:"max_recursion_depth"`
	ValidateMaxNSteps uint32            `json:"validate_max_n_steps"`
	InvokeTxMaxNSteps uint32            `json:"invoke_tx_max_n_steps"`
	// VMResourceFeeCost maps a resource name to the L1 gas charged per unit.
	VMResourceFeeCost map[string]float64 `json:"vm_resource_fee_cost"`
}

// Clone returns a deep copy of [c].
func (c CfgEnv) Clone() CfgEnv {
	costs := make(map[string]float64, len(c.VMResourceFeeCost))
	for k, v := range c.VMResourceFeeCost {
		costs[k] = v
	}
	c.VMResourceFeeCost = costs
	return c
}
