// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"fmt"
	"math"
	"sort"

	"github.com/holiman/uint256"

	"github.com/ava-labs/starkexec/felt"
)

// L1 gas constants of data availability.
const (
	GasPerMemoryWord                = 512
	SharpAdditionalGasPerMemoryWord = 100
	SharpGasPerMemoryWord           = GasPerMemoryWord + SharpAdditionalGasPerMemoryWord
	GasPerLogDataWord               = 256
	GasPerZeroToNonzeroStorageSet   = 20000
	L2ToL1MsgHeaderSize             = 3
	L1ToL2MsgHeaderSize             = 5
	ConsumedMsgToL2EncodedDataSize  = L1ToL2MsgHeaderSize - 1
	LogMsgToL1EncodedDataSize       = L2ToL1MsgHeaderSize + 1
)

var maxFee128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// ResourcesMapping maps resource names to the amount used.
type ResourcesMapping map[string]uint64

// CalculateL1GasUsage returns the L1 gas needed to publish the state changes
// and messages of a transaction. [l1HandlerPayloadSize] is set for L1
// handler transactions.
func CalculateL1GasUsage(
	changes StateChangesCount,
	messages []L2ToL1Message,
	l1HandlerPayloadSize *int,
) uint64 {
	dataWords := 2*changes.NModifiedContracts +
		2*changes.NStorageUpdates +
		changes.NClassHashUpdates +
		2*changes.NCompiledClassHashUpdates

	var messageWords, logWords int
	for _, m := range messages {
		messageWords += L2ToL1MsgHeaderSize + len(m.Payload)
		logWords += LogMsgToL1EncodedDataSize + len(m.Payload)
	}
	gas := uint64(dataWords+messageWords) * SharpGasPerMemoryWord
	gas += uint64(logWords) * GasPerLogDataWord
	if len(messages) > 0 {
		gas += GasPerZeroToNonzeroStorageSet
	}

	if l1HandlerPayloadSize != nil {
		words := ConsumedMsgToL2EncodedDataSize + *l1HandlerPayloadSize
		gas += uint64(words) * (SharpGasPerMemoryWord + GasPerLogDataWord)
	}
	return gas
}

// CalculateTxResources assembles the resources charged for a transaction.
func CalculateTxResources(
	resources *ExecutionResources,
	changes StateChangesCount,
	messages []L2ToL1Message,
	l1HandlerPayloadSize *int,
) ResourcesMapping {
	mapping := ResourcesMapping{
		L1GasUsageResource: CalculateL1GasUsage(changes, messages, l1HandlerPayloadSize),
		NStepsResource:     resources.NSteps + resources.NMemoryHoles,
	}
	for name, count := range resources.BuiltinInstanceCounter {
		if count > 0 {
			mapping[name] = count
		}
	}
	return mapping
}

// CalculateTxL1GasUsages converts [resources] into L1 gas. The VM resources
// are charged by the most expensive one.
func CalculateTxL1GasUsages(resources ResourcesMapping, blockCtx *BlockContext) (uint64, error) {
	names := make([]string, 0, len(resources))
	for name := range resources {
		if name != L1GasUsageResource {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var vmGas float64
	for _, name := range names {
		cost, ok := blockCtx.VMResourceFeeCost[name]
		if !ok {
			return 0, &TransactionFeeError{Err: fmt.Errorf("%w: %s", ErrUnknownResource, name)}
		}
		vmGas = math.Max(vmGas, cost*float64(resources[name]))
	}
	return resources[L1GasUsageResource] + uint64(math.Ceil(vmGas)), nil
}

// CalculateTxFee returns the fee of [resources] in the ETH fee token.
func CalculateTxFee(resources ResourcesMapping, blockCtx *BlockContext) (felt.Felt, error) {
	gas, err := CalculateTxL1GasUsages(resources, blockCtx)
	if err != nil {
		return felt.Zero, err
	}
	return feeOf(gas, blockCtx.GasPrices.ETHL1GasPrice)
}

func feeOf(gas, gasPrice uint64) (felt.Felt, error) {
	fee, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(gas), uint256.NewInt(gasPrice))
	if overflow || fee.Gt(maxFee128) {
		return felt.Zero, &TransactionFeeError{Err: ErrFeeOverflow}
	}
	return felt.FromBigInt(fee.ToBig()), nil
}
