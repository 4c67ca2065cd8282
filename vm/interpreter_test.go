// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
)

var testContract = felt.FromUint64(0x1234)

func testBlockContext() *BlockContext {
	return &BlockContext{
		ChainID:           felt.MustShortString("TEST"),
		MaxRecursionDepth: 8,
		ValidateMaxNSteps: 1_000,
		InvokeTxMaxNSteps: 10_000,
		GasPrices:         GasPrices{ETHL1GasPrice: 1},
		VMResourceFeeCost: map[string]float64{
			NStepsResource:  0.01,
			PedersenBuiltin: 0.32,
		},
	}
}

// deploy declares [class] and deploys it at [testContract].
func deploy(t *testing.T, class *core.CompiledClass) *CachedState {
	t.Helper()

	loaded, err := NewContractClass(class)
	require.NoError(t, err)

	state := NewCachedState(newMapStateReader(), nil)
	classHash := core.ComputeCompiledClassHash(class)
	require.NoError(t, state.SetContractClass(classHash, loaded))
	require.NoError(t, state.SetClassHashAt(testContract, classHash))
	return state
}

func callTest(state State, name string, calldata ...felt.Felt) (*CallInfo, *EntryPointExecutionContext, error) {
	ctx, err := NewEntryPointExecutionContext(testBlockContext(), &AccountTransactionContext{}, ExecutionModeExecute, false)
	if err != nil {
		return nil, nil, err
	}
	info, err := CallEntryPoint{
		EntryPointType:     core.EntryPointExternal,
		EntryPointSelector: felt.Selector(name),
		Calldata:           calldata,
		StorageAddress:     testContract,
		InitialGas:         DefaultInitialGas,
	}.Execute(state, NewExecutionResources(), ctx)
	return info, ctx, err
}

func TestArithmetic(t *testing.T) {
	require := require.New(t)

	class := NewAssembler(core.SierraClassVersion).
		EntryPoint(core.EntryPointExternal, "calc").
		// (cd[0] + cd[1]) * 3, cd[0] - cd[1], cd[0] < cd[1], cd[0] == cd[1]
		PushUint(0).Op(OpCalldata).PushUint(1).Op(OpCalldata, OpAdd).PushUint(3).Op(OpMul).
		PushUint(0).Op(OpCalldata).PushUint(1).Op(OpCalldata, OpSub).
		PushUint(0).Op(OpCalldata).PushUint(1).Op(OpCalldata, OpLt).
		PushUint(0).Op(OpCalldata).PushUint(1).Op(OpCalldata, OpEq).
		Op(OpReturnAll).
		MustBuild()

	info, ctx, err := callTest(deploy(t, class), "calc", felt.FromUint64(2), felt.FromUint64(5))
	require.NoError(err)
	require.Equal([]felt.Felt{
		felt.FromUint64(21),
		felt.FromUint64(2).Sub(felt.FromUint64(5)),
		felt.One,
		felt.Zero,
	}, info.Execution.Retdata)
	require.Equal(uint64(23), info.Resources.NSteps)
	require.Equal(ctx.NSteps(), info.Resources.NSteps)
	require.Equal(23*StepGasCost, info.Execution.GasConsumed)
}

func TestStackManipulation(t *testing.T) {
	class := NewAssembler(core.SierraClassVersion).
		EntryPoint(core.EntryPointExternal, "stack").
		PushUint(1).PushUint(2).PushUint(3).
		Swap(2).Dup(1).Op(OpPop).
		Op(OpReturnAll).
		MustBuild()

	info, _, err := callTest(deploy(t, class), "stack")
	require.NoError(t, err)
	require.Equal(t, felt.Slice(3, 2, 1), info.Execution.Retdata)
}

func TestLoopAndJumps(t *testing.T) {
	// sum of 1..cd[0]
	class := NewAssembler(core.SierraClassVersion).
		EntryPoint(core.EntryPointExternal, "sum").
		PushUint(0).PushUint(0).Op(OpCalldata).
		Label("loop").
		Dup(0).Op(OpNot).JumpIf("done").
		Dup(0).Swap(2).Op(OpAdd).Swap(1).
		PushUint(1).Op(OpSub).
		Jump("loop").
		Label("done").
		Op(OpPop).Return(1).
		MustBuild()

	info, _, err := callTest(deploy(t, class), "sum", felt.FromUint64(10))
	require.NoError(t, err)
	require.Equal(t, felt.Slice(55), info.Execution.Retdata)
}

func TestStorageEventsAndMessages(t *testing.T) {
	require := require.New(t)

	key := felt.Selector("value")
	class := NewAssembler(core.SierraClassVersion).
		EntryPoint(core.EntryPointExternal, "set").
		Push(key).PushUint(0).Op(OpCalldata, OpSstore).
		PushUint(0).Op(OpCalldata).PushUint(1).Emit(felt.Selector("Set")).
		PushUint(9).PushUint(0).Op(OpCalldata).PushUint(1).Op(OpSendMessage).
		Push(key).Op(OpSload).Return(1).
		MustBuild()

	state := deploy(t, class)
	info, _, err := callTest(state, "set", felt.FromUint64(42))
	require.NoError(err)
	require.Equal(felt.Slice(42), info.Execution.Retdata)

	value, err := state.GetStorageAt(testContract, key)
	require.NoError(err)
	require.Equal(felt.FromUint64(42), value)

	require.Equal([]Event{{
		FromAddress: testContract,
		Keys:        []felt.Felt{felt.Selector("Set")},
		Data:        felt.Slice(42),
	}}, info.Events())
	require.Equal([]L2ToL1Message{{
		FromAddress: testContract,
		ToAddress:   felt.FromUint64(9),
		Payload:     felt.Slice(42),
	}}, info.L2ToL1Messages())
}

func TestNestedCall(t *testing.T) {
	require := require.New(t)

	// forward calls itself through "double"
	class := NewAssembler(core.SierraClassVersion).
		EntryPoint(core.EntryPointExternal, "double").
		PushUint(0).Op(OpCalldata).PushUint(2).Op(OpMul).Return(1).
		EntryPoint(core.EntryPointExternal, "forward").
		PushUint(0).Op(OpForward).PushUint(1).Op(OpAdd).Return(1).
		MustBuild()

	info, _, err := callTest(deploy(t, class), "forward", testContract, felt.Selector("double"), felt.FromUint64(4))
	require.NoError(err)
	require.Equal(felt.Slice(9), info.Execution.Retdata)
	require.Len(info.InnerCalls, 1)

	inner := info.InnerCalls[0]
	require.Equal(testContract, inner.Call.CallerAddress)
	require.Equal(felt.Slice(8), inner.Execution.Retdata)
	require.Equal(info.Resources.NSteps, inner.Resources.NSteps+5)
	require.Equal(inner.Execution.GasConsumed+5*StepGasCost+CallGasCost, info.Execution.GasConsumed)
}

func TestExecutionFailures(t *testing.T) {
	class := NewAssembler(core.SierraClassVersion).
		EntryPoint(core.EntryPointExternal, "assert").
		PushUint(0).Assert("boom").
		EntryPoint(core.EntryPointExternal, "underflow").
		Op(OpAdd).
		EntryPoint(core.EntryPointExternal, "calldata").
		PushUint(3).Op(OpCalldata).
		EntryPoint(core.EntryPointExternal, "recurse").
		Op(OpAddress).Push(felt.Selector("recurse")).PushUint(0).Op(OpCall).
		EntryPoint(core.EntryPointExternal, "spin").
		Label("spin").Jump("spin").
		EntryPoint(core.EntryPointExternal, "undeployed").
		PushUint(77).Push(felt.Selector("x")).PushUint(0).Op(OpCall).
		EntryPoint(core.EntryPointExternal, "forward").
		PushUint(math.MaxUint64).Op(OpForward).
		MustBuild()

	tests := []struct {
		name        string
		calldata    []felt.Felt
		expectedErr error
	}{
		{name: "underflow", expectedErr: ErrStackUnderflow},
		{name: "calldata", expectedErr: ErrIndexOutOfRange},
		{name: "forward", calldata: felt.Slice(1), expectedErr: ErrIndexOutOfRange},
		{name: "recurse", expectedErr: ErrRecursionDepthExceeded},
		{name: "spin", expectedErr: ErrStepLimitExceeded},
		{name: "undeployed", expectedErr: ErrContractNotDeployed},
		{name: "missing", expectedErr: ErrEntryPointNotFound},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, _, err = callTest(deploy(t, class), test.name, test.calldata...)
			})
			require.ErrorIs(t, err, test.expectedErr)

			var executionErr *EntryPointExecutionError
			require.ErrorAs(t, err, &executionErr)
			require.Equal(t, felt.Selector(test.name), executionErr.Selector)
		})
	}

	_, _, err := callTest(deploy(t, class), "assert")
	var assertionErr *AssertionError
	require.ErrorAs(t, err, &assertionErr)
	require.Equal(t, "boom", assertionErr.Reason)
	require.Contains(t, err.Error(), "assertion failed: 'boom'")
}

func TestOutOfGas(t *testing.T) {
	class := NewAssembler(core.SierraClassVersion).
		EntryPoint(core.EntryPointExternal, "run").
		PushUint(1).PushUint(2).Op(OpAdd).Return(1).
		MustBuild()

	ctx, err := NewEntryPointExecutionContext(testBlockContext(), &AccountTransactionContext{}, ExecutionModeExecute, false)
	require.NoError(t, err)
	_, err = CallEntryPoint{
		EntryPointType:     core.EntryPointExternal,
		EntryPointSelector: felt.Selector("run"),
		StorageAddress:     testContract,
		InitialGas:         3 * StepGasCost,
	}.Execute(deploy(t, class), NewExecutionResources(), ctx)
	require.ErrorIs(t, err, ErrOutOfGas)
}

func TestStateErrorsAreNotExecutionFailures(t *testing.T) {
	errBroken := errors.New("broken")
	reader := newMapStateReader()
	reader.err = errBroken

	_, _, err := callTest(NewCachedState(reader, nil), "anything")
	require.ErrorIs(t, err, errBroken)

	var executionErr *EntryPointExecutionError
	require.False(t, errors.As(err, &executionErr))
}

func TestMaxStepsByResources(t *testing.T) {
	blockCtx := testBlockContext()
	txCtx := &AccountTransactionContext{MaxFee: felt.FromUint64(50)}

	// 50 wei at 1 wei/gas buys 50 gas, or 5000 steps at 0.01 gas/step
	ctx, err := NewEntryPointExecutionContext(blockCtx, txCtx, ExecutionModeExecute, true)
	require.NoError(t, err)
	require.Equal(t, uint64(5000), ctx.MaxSteps())

	ctx, err = NewEntryPointExecutionContext(blockCtx, txCtx, ExecutionModeValidate, true)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), ctx.MaxSteps())

	ctx, err = NewEntryPointExecutionContext(blockCtx, txCtx, ExecutionModeExecute, false)
	require.NoError(t, err)
	require.Equal(t, uint64(10_000), ctx.MaxSteps())
}
