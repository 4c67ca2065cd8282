// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
)

const maxStackSize = 1024

// machine runs the instructions of a single call frame.
type machine struct {
	call      *CallEntryPoint
	class     *ContractClass
	state     State
	ctx       *EntryPointExecutionContext
	resources *ExecutionResources
	info      *CallInfo

	gas   uint64
	stack []felt.Felt
}

func (m *machine) run(pc int) ([]felt.Felt, error) {
	program := m.class.Program
	for pc < len(program) {
		if err := m.step(); err != nil {
			return nil, err
		}
		inst := &program[pc]
		pc++

		switch inst.Op {
		case OpPush:
			if err := m.push(inst.Arg); err != nil {
				return nil, err
			}
		case OpPop:
			if _, err := m.pop(); err != nil {
				return nil, err
			}
		case OpDup:
			if inst.n >= len(m.stack) {
				return nil, ErrStackUnderflow
			}
			if err := m.push(m.stack[len(m.stack)-1-inst.n]); err != nil {
				return nil, err
			}
		case OpSwap:
			top := len(m.stack) - 1
			if inst.n > top {
				return nil, ErrStackUnderflow
			}
			m.stack[top], m.stack[top-inst.n] = m.stack[top-inst.n], m.stack[top]
		case OpAdd, OpSub, OpMul, OpEq, OpLt:
			b, err := m.pop()
			if err != nil {
				return nil, err
			}
			a, err := m.pop()
			if err != nil {
				return nil, err
			}
			if err := m.push(binary(inst.Op, a, b)); err != nil {
				return nil, err
			}
		case OpNot:
			a, err := m.pop()
			if err != nil {
				return nil, err
			}
			if err := m.push(boolFelt(a.IsZero())); err != nil {
				return nil, err
			}
		case OpJump:
			pc = inst.n
		case OpJumpIf:
			cond, err := m.pop()
			if err != nil {
				return nil, err
			}
			if !cond.IsZero() {
				pc = inst.n
			}
		case OpCalldata:
			if err := m.index(m.call.Calldata); err != nil {
				return nil, err
			}
		case OpCalldataSize:
			if err := m.push(felt.FromUint64(uint64(len(m.call.Calldata)))); err != nil {
				return nil, err
			}
		case OpCaller:
			if err := m.push(m.call.CallerAddress); err != nil {
				return nil, err
			}
		case OpAddress:
			if err := m.push(m.call.StorageAddress); err != nil {
				return nil, err
			}
		case OpTxInfo:
			if err := m.push(m.txInfo(uint64(inst.n))); err != nil {
				return nil, err
			}
		case OpSignature:
			if err := m.index(m.ctx.TxContext.Signature); err != nil {
				return nil, err
			}
		case OpSignatureSize:
			if err := m.push(felt.FromUint64(uint64(len(m.ctx.TxContext.Signature)))); err != nil {
				return nil, err
			}
		case OpHash:
			b, err := m.pop()
			if err != nil {
				return nil, err
			}
			a, err := m.pop()
			if err != nil {
				return nil, err
			}
			m.resources.addBuiltin(PedersenBuiltin)
			m.info.Resources.addBuiltin(PedersenBuiltin)
			if err := m.push(Hash(a, b)); err != nil {
				return nil, err
			}
		case OpSload:
			key, err := m.pop()
			if err != nil {
				return nil, err
			}
			value, err := m.state.GetStorageAt(m.call.StorageAddress, key)
			if err != nil {
				return nil, err
			}
			if err := m.push(value); err != nil {
				return nil, err
			}
		case OpSstore:
			value, err := m.pop()
			if err != nil {
				return nil, err
			}
			key, err := m.pop()
			if err != nil {
				return nil, err
			}
			if err := m.state.SetStorageAt(m.call.StorageAddress, key, value); err != nil {
				return nil, err
			}
		case OpCall:
			args, err := m.popCounted()
			if err != nil {
				return nil, err
			}
			selector, err := m.pop()
			if err != nil {
				return nil, err
			}
			address, err := m.pop()
			if err != nil {
				return nil, err
			}
			if err := m.callContract(address, selector, args); err != nil {
				return nil, err
			}
		case OpForward:
			start, err := m.pop()
			if err != nil {
				return nil, err
			}
			calldata := m.call.Calldata
			if !start.IsUint64() || start.Uint64() >= uint64(len(calldata)) || uint64(len(calldata))-start.Uint64() < 2 {
				return nil, ErrIndexOutOfRange
			}
			i := int(start.Uint64())
			if err := m.callContract(calldata[i], calldata[i+1], calldata[i+2:]); err != nil {
				return nil, err
			}
		case OpEmit:
			data, err := m.popCounted()
			if err != nil {
				return nil, err
			}
			m.info.Execution.Events = append(m.info.Execution.Events, OrderedEvent{
				Order: m.ctx.nextEventOrder(),
				Keys:  []felt.Felt{inst.Arg},
				Data:  data,
			})
		case OpSendMessage:
			payload, err := m.popCounted()
			if err != nil {
				return nil, err
			}
			to, err := m.pop()
			if err != nil {
				return nil, err
			}
			m.info.Execution.L2ToL1Messages = append(m.info.Execution.L2ToL1Messages, OrderedL2ToL1Message{
				Order:     m.ctx.nextMessageOrder(),
				ToAddress: to,
				Payload:   payload,
			})
		case OpAssert:
			cond, err := m.pop()
			if err != nil {
				return nil, err
			}
			if cond.IsZero() {
				return nil, &AssertionError{Reason: inst.Arg.ShortString()}
			}
		case OpReturn:
			return m.popN(inst.n)
		case OpReturnAll:
			retdata := make([]felt.Felt, len(m.stack))
			copy(retdata, m.stack)
			return retdata, nil
		}
	}
	return []felt.Felt{}, nil
}

func (m *machine) step() error {
	if err := m.ctx.consumeStep(); err != nil {
		return err
	}
	if m.gas < StepGasCost {
		return ErrOutOfGas
	}
	m.gas -= StepGasCost
	m.resources.NSteps++
	m.info.Resources.NSteps++
	return nil
}

func (m *machine) callContract(address, selector felt.Felt, calldata []felt.Felt) error {
	if m.gas < CallGasCost {
		return ErrOutOfGas
	}
	m.gas -= CallGasCost

	inner := CallEntryPoint{
		EntryPointType:     core.EntryPointExternal,
		EntryPointSelector: selector,
		Calldata:           append([]felt.Felt(nil), calldata...),
		StorageAddress:     address,
		CallerAddress:      m.call.StorageAddress,
		InitialGas:         m.gas,
	}
	info, err := inner.Execute(m.state, m.resources, m.ctx)
	if err != nil {
		return err
	}
	m.gas -= info.Execution.GasConsumed
	m.info.InnerCalls = append(m.info.InnerCalls, info)
	m.info.Resources.Add(&info.Resources)

	for _, word := range info.Execution.Retdata {
		if err := m.push(word); err != nil {
			return err
		}
	}
	return nil
}

func (m *machine) txInfo(field uint64) felt.Felt {
	tx := m.ctx.TxContext
	switch field {
	case TxInfoVersion:
		return tx.Version
	case TxInfoAccountAddress:
		return tx.SenderAddress
	case TxInfoMaxFee:
		return tx.MaxFee
	case TxInfoTransactionHash:
		return tx.TransactionHash
	case TxInfoNonce:
		return tx.Nonce
	default:
		return m.ctx.BlockContext.ChainID
	}
}

// index pops an index and pushes the element of [values] it points at.
func (m *machine) index(values []felt.Felt) error {
	i, err := m.pop()
	if err != nil {
		return err
	}
	if !i.IsUint64() || i.Uint64() >= uint64(len(values)) {
		return ErrIndexOutOfRange
	}
	return m.push(values[i.Uint64()])
}

func (m *machine) push(v felt.Felt) error {
	if len(m.stack) >= maxStackSize {
		return ErrStackOverflow
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *machine) pop() (felt.Felt, error) {
	if len(m.stack) == 0 {
		return felt.Zero, ErrStackUnderflow
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

// popN pops [n] values and returns them in push order.
func (m *machine) popN(n int) ([]felt.Felt, error) {
	if n > len(m.stack) {
		return nil, ErrStackUnderflow
	}
	values := make([]felt.Felt, n)
	copy(values, m.stack[len(m.stack)-n:])
	m.stack = m.stack[:len(m.stack)-n]
	return values, nil
}

// popCounted pops a count followed by that many values.
func (m *machine) popCounted() ([]felt.Felt, error) {
	n, err := m.pop()
	if err != nil {
		return nil, err
	}
	if !n.IsUint64() || n.Uint64() > uint64(len(m.stack)) {
		return nil, ErrStackUnderflow
	}
	return m.popN(int(n.Uint64()))
}

func binary(op OpCode, a, b felt.Felt) felt.Felt {
	switch op {
	case OpAdd:
		return a.Add(b)
	case OpSub:
		return a.Sub(b)
	case OpMul:
		return a.Mul(b)
	case OpEq:
		return boolFelt(a.Equal(b))
	default:
		return boolFelt(a.Cmp(b) < 0)
	}
}

func boolFelt(b bool) felt.Felt {
	if b {
		return felt.One
	}
	return felt.Zero
}
