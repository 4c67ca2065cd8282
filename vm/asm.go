// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"fmt"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
)

// Assembler builds a core.CompiledClass from instructions and labels.
//
//	class, err := NewAssembler(core.SierraClassVersion).
//		EntryPoint(core.EntryPointExternal, "get").
//		PushUint(0).Op(OpSload).Return(1).
//		Build()
type Assembler struct {
	version     uint8
	words       []felt.Felt
	labels      map[string]uint64
	fixups      map[int]string
	entryPoints []core.EntryPoint
	err         error
}

func NewAssembler(version uint8) *Assembler {
	return &Assembler{
		version: version,
		labels:  make(map[string]uint64),
		fixups:  make(map[int]string),
	}
}

// EntryPoint starts the entry point [name] at the current offset.
func (a *Assembler) EntryPoint(typ core.EntryPointType, name string) *Assembler {
	a.entryPoints = append(a.entryPoints, core.EntryPoint{
		Type:     typ,
		Selector: felt.Selector(name),
		Offset:   uint64(len(a.words)),
	})
	return a
}

// Label names the current offset as a jump target.
func (a *Assembler) Label(name string) *Assembler {
	if _, ok := a.labels[name]; ok {
		a.fail(fmt.Errorf("duplicate label %q", name))
	}
	a.labels[name] = uint64(len(a.words))
	return a
}

// Op appends an instruction without immediate.
func (a *Assembler) Op(ops ...OpCode) *Assembler {
	for _, op := range ops {
		if !op.valid() || op.Size() != 1 {
			a.fail(fmt.Errorf("%s needs an immediate", op))
			continue
		}
		a.words = append(a.words, felt.FromUint64(uint64(op)))
	}
	return a
}

func (a *Assembler) Push(v felt.Felt) *Assembler    { return a.imm(OpPush, v) }
func (a *Assembler) PushUint(v uint64) *Assembler   { return a.imm(OpPush, felt.FromUint64(v)) }
func (a *Assembler) Dup(depth int) *Assembler       { return a.imm(OpDup, felt.FromUint64(uint64(depth))) }
func (a *Assembler) Swap(depth int) *Assembler      { return a.imm(OpSwap, felt.FromUint64(uint64(depth))) }
func (a *Assembler) TxInfo(field uint64) *Assembler { return a.imm(OpTxInfo, felt.FromUint64(field)) }
func (a *Assembler) Return(n int) *Assembler        { return a.imm(OpReturn, felt.FromUint64(uint64(n))) }
func (a *Assembler) Emit(key felt.Felt) *Assembler  { return a.imm(OpEmit, key) }

// Assert fails the call with [reason] when the top of the stack is zero.
func (a *Assembler) Assert(reason string) *Assembler {
	r, err := felt.FromShortString(reason)
	if err != nil {
		a.fail(err)
	}
	return a.imm(OpAssert, r)
}

func (a *Assembler) Jump(label string) *Assembler   { return a.jump(OpJump, label) }
func (a *Assembler) JumpIf(label string) *Assembler { return a.jump(OpJumpIf, label) }

func (a *Assembler) jump(op OpCode, label string) *Assembler {
	a.fixups[len(a.words)+1] = label
	return a.imm(op, felt.Zero)
}

func (a *Assembler) imm(op OpCode, v felt.Felt) *Assembler {
	a.words = append(a.words, felt.FromUint64(uint64(op)), v)
	return a
}

func (a *Assembler) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

// Build resolves labels and returns the class.
func (a *Assembler) Build() (*core.CompiledClass, error) {
	if a.err != nil {
		return nil, a.err
	}
	bytecode := make([]felt.Felt, len(a.words))
	copy(bytecode, a.words)
	for pos, label := range a.fixups {
		offset, ok := a.labels[label]
		if !ok {
			return nil, fmt.Errorf("undefined label %q", label)
		}
		bytecode[pos] = felt.FromUint64(offset)
	}
	entryPoints := make([]core.EntryPoint, len(a.entryPoints))
	copy(entryPoints, a.entryPoints)
	return &core.CompiledClass{
		Version:     a.version,
		Bytecode:    bytecode,
		EntryPoints: entryPoints,
	}, nil
}

// MustBuild is Build for programs known to be well formed.
func (a *Assembler) MustBuild() *core.CompiledClass {
	class, err := a.Build()
	if err != nil {
		panic(err)
	}
	return class
}
