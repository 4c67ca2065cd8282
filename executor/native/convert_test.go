// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package native

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
	"github.com/ava-labs/starkexec/mocks"
	"github.com/ava-labs/starkexec/provider"
	"github.com/ava-labs/starkexec/vm"
)

// unknownTx is an executable transaction the vm has no counterpart for.
type unknownTx struct{}

func (unknownTx) Kind() core.TxKind { return core.TxKind(0xff) }
func (tx unknownTx) Stored() core.Tx { return tx }

func TestToExecutorTx(t *testing.T) {
	require := require.New(t)
	hash := felt.FromUint64(1)

	invoke := &core.InvokeTx{
		SenderAddress: felt.FromUint64(2),
		Nonce:         felt.FromUint64(3),
		MaxFee:        felt.FromUint64(4),
		Signature:     felt.Slice(5),
		Calldata:      felt.Slice(6, 7),
	}
	tx, err := toExecutorTx(core.ExecutableTxWithHash{Hash: hash, Tx: invoke})
	require.NoError(err)
	require.Equal(&vm.InvokeTransaction{
		TxHash:        hash,
		SenderAddress: invoke.SenderAddress,
		Nonce:         invoke.Nonce,
		MaxFee:        invoke.MaxFee,
		Signature:     invoke.Signature,
		Calldata:      invoke.Calldata,
	}, tx)

	deploy := &core.DeployAccountTx{
		ContractAddress:     felt.FromUint64(8),
		ClassHash:           felt.FromUint64(9),
		ContractAddressSalt: felt.FromUint64(10),
		ConstructorCalldata: felt.Slice(11),
	}
	tx, err = toExecutorTx(core.ExecutableTxWithHash{Hash: hash, Tx: deploy})
	require.NoError(err)
	deployTx, ok := tx.(*vm.DeployAccountTransaction)
	require.True(ok)
	require.Equal(deploy.ContractAddress, deployTx.ContractAddress)
	require.Equal(deploy.ContractAddressSalt, deployTx.ContractAddressSalt)

	l1Handler := &core.L1HandlerTx{
		ContractAddress:    felt.FromUint64(12),
		EntryPointSelector: felt.Selector("handle"),
		Calldata:           felt.Slice(13),
		PaidFeeOnL1:        felt.FromUint64(14),
	}
	tx, err = toExecutorTx(core.ExecutableTxWithHash{Hash: hash, Tx: l1Handler})
	require.NoError(err)
	l1HandlerTx, ok := tx.(*vm.L1HandlerTransaction)
	require.True(ok)
	require.Equal(l1Handler.PaidFeeOnL1, l1HandlerTx.PaidFeeOnL1)

	_, err = toExecutorTx(core.ExecutableTxWithHash{Hash: hash, Tx: unknownTx{}})
	var conversionErr *ConversionError
	require.ErrorAs(err, &conversionErr)
	require.ErrorIs(err, errUnknownTransaction)
}

func TestToDeclareTransaction(t *testing.T) {
	require := require.New(t)

	legacy := vm.NewAssembler(core.LegacyClassVersion).
		EntryPoint(core.EntryPointExternal, "f").
		Return(0).
		MustBuild()
	declare := &core.DeclareTxWithClass{
		Transaction:   core.DeclareTx{Version: 1, ClassHash: core.ComputeCompiledClassHash(legacy)},
		CompiledClass: *legacy,
	}
	tx, err := toDeclareTransaction(felt.One, declare)
	require.NoError(err)
	require.Equal(uint8(1), tx.Version)
	require.True(tx.CompiledClassHash.IsZero())
	require.Len(tx.Class().Program, 1)

	// the compiled class hash of a v1 declaration is ignored
	ignored := felt.One
	declare.Transaction.CompiledClassHash = &ignored
	_, err = toDeclareTransaction(felt.One, declare)
	require.NoError(err)
}

func TestStateProviderDb(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	state := mocks.NewMockStateProvider(ctrl)
	db := &stateProviderDb{provider: state}

	missing, broken := felt.FromUint64(1), felt.FromUint64(2)
	state.EXPECT().Class(missing).Return(nil, provider.ErrNotFound)
	state.EXPECT().Class(broken).Return(&core.CompiledClass{Bytecode: []felt.Felt{felt.Zero}}, nil)
	state.EXPECT().CompiledClassHashOfClassHash(missing).Return(felt.Zero, provider.ErrNotFound)
	state.EXPECT().CompiledClassHashOfClassHash(broken).Return(felt.Zero, provider.ErrUnimplemented)

	_, err := db.GetCompiledContractClass(missing)
	require.ErrorIs(err, vm.ErrUndeclaredClassHash)

	_, err = db.GetCompiledContractClass(broken)
	var conversionErr *ConversionError
	require.ErrorAs(err, &conversionErr)
	require.ErrorIs(err, vm.ErrInvalidClass)

	compiledClassHash, err := db.GetCompiledClassHash(missing)
	require.NoError(err)
	require.True(compiledClassHash.IsZero())

	_, err = db.GetCompiledClassHash(broken)
	require.ErrorIs(err, provider.ErrUnimplemented)
}

func TestBlockContextFromEnvs(t *testing.T) {
	cfg := core.CfgEnv{
		ChainID:           felt.MustShortString("SN_TEST"),
		FeeTokenAddresses: core.FeeTokenAddresses{ETH: felt.FromUint64(1), STRK: felt.FromUint64(2)},
		MaxRecursionDepth: 3,
		ValidateMaxNSteps: 4,
		InvokeTxMaxNSteps: 5,
		VMResourceFeeCost: map[string]float64{vm.NStepsResource: 0.5},
	}
	env := core.BlockEnv{
		Number:           6,
		Timestamp:        7,
		L1GasPrices:      core.GasPrices{ETH: 8, STRK: 9},
		SequencerAddress: felt.FromUint64(10),
	}

	blockCtx := blockContextFromEnvs(cfg, env)
	require.Equal(t, &vm.BlockContext{
		ChainID:           cfg.ChainID,
		BlockNumber:       6,
		BlockTimestamp:    7,
		SequencerAddress:  env.SequencerAddress,
		FeeTokenAddresses: vm.FeeTokenAddresses{ETH: felt.FromUint64(1), STRK: felt.FromUint64(2)},
		GasPrices:         vm.GasPrices{ETHL1GasPrice: 8, STRKL1GasPrice: 9},
		MaxRecursionDepth: 3,
		ValidateMaxNSteps: 4,
		InvokeTxMaxNSteps: 5,
		VMResourceFeeCost: map[string]float64{vm.NStepsResource: 0.5},
	}, blockCtx)

	// the block context owns its costs
	blockCtx.VMResourceFeeCost[vm.NStepsResource] = 1
	require.Equal(t, 0.5, cfg.VMResourceFeeCost[vm.NStepsResource])
}
