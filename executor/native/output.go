// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package native

import (
	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/executor"
	"github.com/ava-labs/starkexec/felt"
	"github.com/ava-labs/starkexec/vm"
)

var _ executor.TransactionExecutionOutput = &executionOutput{}

type executionOutput struct {
	info    *vm.TransactionExecutionInfo
	gasUsed uint64
}

func (o *executionOutput) Receipt(tx core.Tx) core.Receipt {
	receipt := core.Receipt{
		Type:               tx.Kind(),
		ActualFee:          o.info.ActualFee,
		RevertError:        o.info.RevertError,
		Events:             events(o.info.Events()),
		MessagesSent:       messages(o.info.L2ToL1Messages()),
		ExecutionResources: executionResources(o.info.ActualResources),
	}
	if deploy, ok := tx.(*core.DeployAccountTx); ok {
		address := deploy.ContractAddress
		receipt.ContractAddress = &address
	}
	return receipt
}

func (o *executionOutput) ActualFee() felt.Felt { return o.info.ActualFee }

func (o *executionOutput) GasUsed() uint64 { return o.gasUsed }

func (o *executionOutput) RevertError() string { return o.info.RevertError }

func events(ordered []vm.Event) []core.Event {
	res := make([]core.Event, len(ordered))
	for i, event := range ordered {
		res[i] = core.Event{
			FromAddress: event.FromAddress,
			Keys:        event.Keys,
			Data:        event.Data,
		}
	}
	return res
}

func messages(ordered []vm.L2ToL1Message) []core.MessageToL1 {
	res := make([]core.MessageToL1, len(ordered))
	for i, message := range ordered {
		res[i] = core.MessageToL1{
			FromAddress: message.FromAddress,
			ToAddress:   message.ToAddress,
			Payload:     message.Payload,
		}
	}
	return res
}

// executionResources splits the charged resources into steps and builtins.
// L1 gas is not a vm resource.
func executionResources(resources vm.ResourcesMapping) core.ExecutionResources {
	res := core.ExecutionResources{
		Steps:    resources[vm.NStepsResource],
		Builtins: make(map[string]uint64),
	}
	for name, count := range resources {
		if name == vm.NStepsResource || name == vm.L1GasUsageResource {
			continue
		}
		res.Builtins[name] = count
	}
	return res
}
