// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
	"github.com/ava-labs/starkexec/vm"
)

var (
	// SignerKeyVar is the account storage variable holding the signer key.
	SignerKeyVar = felt.Selector("Account_signer_key")
	// CounterVar is the storage variable of the counter contract.
	CounterVar = felt.Selector("counter")
	// TransferEvent is the key of ERC20 transfer events.
	TransferEvent = felt.Selector("Transfer")

	accountClass = vm.NewAssembler(core.LegacyClassVersion).
		EntryPoint(core.EntryPointConstructor, "constructor").
		Push(SignerKeyVar).PushUint(0).Op(vm.OpCalldata, vm.OpSstore).Return(0).
		// The signature is the hash of the signer key and the transaction hash.
		EntryPoint(core.EntryPointExternal, "__validate__").
		EntryPoint(core.EntryPointExternal, "__validate_declare__").
		EntryPoint(core.EntryPointExternal, "__validate_deploy__").
		Op(vm.OpSignatureSize).PushUint(1).Op(vm.OpEq).Assert("invalid signature length").
		Push(SignerKeyVar).Op(vm.OpSload).TxInfo(vm.TxInfoTransactionHash).Op(vm.OpHash).
		PushUint(0).Op(vm.OpSignature, vm.OpEq).Assert("invalid signature").
		Return(0).
		// __execute__ only runs on behalf of the protocol and forwards its
		// calldata: target, selector, arguments.
		EntryPoint(core.EntryPointExternal, "__execute__").
		Op(vm.OpCaller, vm.OpNot).Assert("invalid caller").
		PushUint(0).Op(vm.OpForward, vm.OpReturnAll).
		MustBuild()

	erc20Class = vm.NewAssembler(core.LegacyClassVersion).
		EntryPoint(core.EntryPointExternal, "transfer").
		// debit the caller
		Push(vm.BalancesVar).Op(vm.OpCaller, vm.OpHash).
		Dup(0).Op(vm.OpSload).
		Dup(0).PushUint(1).Op(vm.OpCalldata, vm.OpLt, vm.OpNot).Assert("ERC20: insufficient balance").
		PushUint(1).Op(vm.OpCalldata, vm.OpSub, vm.OpSstore).
		// credit the recipient
		Push(vm.BalancesVar).PushUint(0).Op(vm.OpCalldata, vm.OpHash).
		Dup(0).Op(vm.OpSload).
		PushUint(1).Op(vm.OpCalldata, vm.OpAdd, vm.OpSstore).
		// Transfer(from, to, amount)
		Op(vm.OpCaller).PushUint(0).Op(vm.OpCalldata).PushUint(1).Op(vm.OpCalldata).
		PushUint(3).Emit(TransferEvent).
		PushUint(1).Return(1).
		EntryPoint(core.EntryPointExternal, "balanceOf").
		Push(vm.BalancesVar).PushUint(0).Op(vm.OpCalldata, vm.OpHash, vm.OpSload).Return(1).
		MustBuild()

	counterClass = vm.NewAssembler(core.SierraClassVersion).
		EntryPoint(core.EntryPointExternal, "increment").
		Push(CounterVar).Dup(0).Op(vm.OpSload).PushUint(0).Op(vm.OpCalldata, vm.OpAdd, vm.OpSstore).
		Return(0).
		EntryPoint(core.EntryPointExternal, "get").
		Push(CounterVar).Op(vm.OpSload).Return(1).
		EntryPoint(core.EntryPointExternal, "fail").
		PushUint(0).Assert("counter: failure").
		EntryPoint(core.EntryPointExternal, "spin").
		Label("spin").PushUint(1).JumpIf("spin").
		// send_message(to) sends the current value to [to] on L1.
		EntryPoint(core.EntryPointExternal, "send_message").
		PushUint(0).Op(vm.OpCalldata).Push(CounterVar).Op(vm.OpSload).PushUint(1).Op(vm.OpSendMessage).
		Return(0).
		// handle_deposit(from_address, amount)
		EntryPoint(core.EntryPointL1Handler, "handle_deposit").
		Push(CounterVar).Dup(0).Op(vm.OpSload).PushUint(1).Op(vm.OpCalldata, vm.OpAdd, vm.OpSstore).
		Return(0).
		MustBuild()
)

// AccountClass returns the class of genesis accounts.
func AccountClass() *core.CompiledClass { return accountClass }

// ERC20Class returns the class of the fee token.
func ERC20Class() *core.CompiledClass { return erc20Class }

// CounterClass returns the compiled form of the example counter contract.
func CounterClass() *core.CompiledClass { return counterClass }

// CounterSierraClass returns the sierra form of the counter contract.
func CounterSierraClass() *core.SierraClass {
	return &core.SierraClass{
		SierraProgram:        counterClass.Bytecode,
		ContractClassVersion: "0.1.0",
		EntryPoints:          counterClass.EntryPoints,
		ABI:                  `[{"name":"increment"},{"name":"get"},{"name":"fail"},{"name":"spin"},{"name":"send_message"},{"name":"handle_deposit"}]`,
	}
}

var (
	AccountClassHash         = core.ComputeCompiledClassHash(accountClass)
	ERC20ClassHash           = core.ComputeCompiledClassHash(erc20Class)
	CounterClassHash         = core.ComputeSierraClassHash(CounterSierraClass())
	CounterCompiledClassHash = core.ComputeCompiledClassHash(counterClass)
)

// Sign signs [txHash] for an account holding [signerKey].
func Sign(signerKey, txHash felt.Felt) []felt.Felt {
	return []felt.Felt{vm.Hash(signerKey, txHash)}
}

// ExecuteCalldata encodes a call for an account's __execute__.
func ExecuteCalldata(to felt.Felt, selector string, args ...felt.Felt) []felt.Felt {
	calldata := make([]felt.Felt, 0, len(args)+2)
	calldata = append(calldata, to, felt.Selector(selector))
	return append(calldata, args...)
}
