// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"sort"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
)

// ExecutionResources counts what a run consumed.
type ExecutionResources struct {
	NSteps                 uint64
	NMemoryHoles           uint64
	BuiltinInstanceCounter map[string]uint64
}

func NewExecutionResources() *ExecutionResources {
	return &ExecutionResources{BuiltinInstanceCounter: make(map[string]uint64)}
}

func (r *ExecutionResources) Add(other *ExecutionResources) {
	r.NSteps += other.NSteps
	r.NMemoryHoles += other.NMemoryHoles
	if r.BuiltinInstanceCounter == nil {
		r.BuiltinInstanceCounter = make(map[string]uint64, len(other.BuiltinInstanceCounter))
	}
	for name, count := range other.BuiltinInstanceCounter {
		r.BuiltinInstanceCounter[name] += count
	}
}

func (r *ExecutionResources) addBuiltin(name string) {
	if r.BuiltinInstanceCounter == nil {
		r.BuiltinInstanceCounter = make(map[string]uint64)
	}
	r.BuiltinInstanceCounter[name]++
}

type OrderedEvent struct {
	Order uint64
	Keys  []felt.Felt
	Data  []felt.Felt
}

type OrderedL2ToL1Message struct {
	Order     uint64
	ToAddress felt.Felt
	Payload   []felt.Felt
}

// CallEntryPoint describes one contract call.
type CallEntryPoint struct {
	// ClassHash overrides the class deployed at StorageAddress.
	ClassHash          *felt.Felt
	EntryPointType     core.EntryPointType
	EntryPointSelector felt.Felt
	Calldata           []felt.Felt
	StorageAddress     felt.Felt
	CallerAddress      felt.Felt
	InitialGas         uint64
}

type CallExecution struct {
	Retdata        []felt.Felt
	Events         []OrderedEvent
	L2ToL1Messages []OrderedL2ToL1Message
	GasConsumed    uint64
}

// CallInfo is the trace of a successful call. Resources include those of
// the inner calls.
type CallInfo struct {
	Call       CallEntryPoint
	ClassHash  felt.Felt
	Execution  CallExecution
	Resources  ExecutionResources
	InnerCalls []*CallInfo
}

// Event is an event attributed to the contract that emitted it.
type Event struct {
	Order       uint64
	FromAddress felt.Felt
	Keys        []felt.Felt
	Data        []felt.Felt
}

// L2ToL1Message is a message attributed to the contract that sent it.
type L2ToL1Message struct {
	Order       uint64
	FromAddress felt.Felt
	ToAddress   felt.Felt
	Payload     []felt.Felt
}

// Walk visits [c] and its inner calls in pre-order.
func (c *CallInfo) Walk(f func(*CallInfo)) {
	if c == nil {
		return
	}
	f(c)
	for _, inner := range c.InnerCalls {
		inner.Walk(f)
	}
}

// Events returns the events of the call tree in emission order.
func (c *CallInfo) Events() []Event {
	var events []Event
	c.Walk(func(info *CallInfo) {
		for _, e := range info.Execution.Events {
			events = append(events, Event{
				Order:       e.Order,
				FromAddress: info.Call.StorageAddress,
				Keys:        e.Keys,
				Data:        e.Data,
			})
		}
	})
	sort.SliceStable(events, func(i, j int) bool { return events[i].Order < events[j].Order })
	return events
}

// L2ToL1Messages returns the messages of the call tree in sending order.
func (c *CallInfo) L2ToL1Messages() []L2ToL1Message {
	var messages []L2ToL1Message
	c.Walk(func(info *CallInfo) {
		for _, m := range info.Execution.L2ToL1Messages {
			messages = append(messages, L2ToL1Message{
				Order:       m.Order,
				FromAddress: info.Call.StorageAddress,
				ToAddress:   m.ToAddress,
				Payload:     m.Payload,
			})
		}
	})
	sort.SliceStable(messages, func(i, j int) bool { return messages[i].Order < messages[j].Order })
	return messages
}

// Execute runs the call against [state]. Steps and builtins are also added
// to [resources], including those of calls that fail.
//
// Failures of the called code are returned as *EntryPointExecutionError.
// Errors of [state] are returned as is.
func (call CallEntryPoint) Execute(
	state State,
	resources *ExecutionResources,
	ctx *EntryPointExecutionContext,
) (*CallInfo, error) {
	if err := ctx.enter(); err != nil {
		return nil, call.wrap(err)
	}
	defer ctx.exit()

	var classHash felt.Felt
	if call.ClassHash != nil {
		classHash = *call.ClassHash
	} else {
		deployed, err := state.GetClassHashAt(call.StorageAddress)
		if err != nil {
			return nil, call.wrap(err)
		}
		if deployed.IsZero() {
			return nil, call.wrap(ErrContractNotDeployed)
		}
		classHash = deployed
	}

	class, err := state.GetCompiledContractClass(classHash)
	if err != nil {
		return nil, call.wrap(err)
	}
	pc, ok := class.EntryPoint(call.EntryPointType, call.EntryPointSelector)
	if !ok {
		return nil, call.wrap(ErrEntryPointNotFound)
	}

	m := &machine{
		call:      &call,
		class:     class,
		state:     state,
		ctx:       ctx,
		resources: resources,
		gas:       call.InitialGas,
		info: &CallInfo{
			Call:      call,
			ClassHash: classHash,
			Resources: *NewExecutionResources(),
		},
	}
	retdata, err := m.run(pc)
	if err != nil {
		return nil, call.wrap(err)
	}

	m.info.Execution.Retdata = retdata
	m.info.Execution.GasConsumed = call.InitialGas - m.gas
	return m.info, nil
}

func (call CallEntryPoint) wrap(err error) error {
	if !isExecutionFailure(err) {
		return err
	}
	return &EntryPointExecutionError{
		ContractAddress: call.StorageAddress,
		Selector:        call.EntryPointSelector,
		Err:             err,
	}
}
