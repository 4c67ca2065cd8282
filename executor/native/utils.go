// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package native

import (
	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/executor"
	"github.com/ava-labs/starkexec/felt"
	"github.com/ava-labs/starkexec/vm"
)

func blockContextFromEnvs(cfg core.CfgEnv, env core.BlockEnv) *vm.BlockContext {
	return &vm.BlockContext{
		ChainID:          cfg.ChainID,
		BlockNumber:      env.Number,
		BlockTimestamp:   env.Timestamp,
		SequencerAddress: env.SequencerAddress,
		FeeTokenAddresses: vm.FeeTokenAddresses{
			ETH:  cfg.FeeTokenAddresses.ETH,
			STRK: cfg.FeeTokenAddresses.STRK,
		},
		GasPrices: vm.GasPrices{
			ETHL1GasPrice:  env.L1GasPrices.ETH,
			STRKL1GasPrice: env.L1GasPrices.STRK,
		},
		MaxRecursionDepth: cfg.MaxRecursionDepth,
		ValidateMaxNSteps: cfg.ValidateMaxNSteps,
		InvokeTxMaxNSteps: cfg.InvokeTxMaxNSteps,
		VMResourceFeeCost: cfg.Clone().VMResourceFeeCost,
	}
}

// transact executes [tx] on [state] and measures the L1 gas it is charged
// for.
func transact(
	state *vm.CachedState,
	blockCtx *vm.BlockContext,
	tx vm.Transaction,
	flags executor.SimulationFlags,
) (*executionOutput, error) {
	info, err := tx.Execute(state, blockCtx, flags.ChargeFee(), flags.Validate())
	if err != nil {
		return nil, err
	}
	gasUsed, err := vm.CalculateTxL1GasUsages(info.ActualResources, blockCtx)
	if err != nil {
		return nil, err
	}
	return &executionOutput{info: info, gasUsed: gasUsed}, nil
}

// call runs [request] outside of any transaction. Steps are bounded by the
// invoke step limit of [blockCtx].
func call(
	state *vm.CachedState,
	blockCtx *vm.BlockContext,
	request executor.EntryPointCall,
	initialGas uint64,
) ([]felt.Felt, error) {
	ctx, err := vm.NewEntryPointExecutionContext(
		blockCtx,
		&vm.AccountTransactionContext{},
		vm.ExecutionModeExecute,
		true,
	)
	if err != nil {
		return nil, err
	}
	info, err := vm.CallEntryPoint{
		EntryPointType:     core.EntryPointExternal,
		EntryPointSelector: request.EntryPointSelector,
		Calldata:           request.Calldata,
		StorageAddress:     request.ContractAddress,
		InitialGas:         initialGas,
	}.Execute(state, vm.NewExecutionResources(), ctx)
	if err != nil {
		return nil, err
	}
	return info.Execution.Retdata, nil
}
