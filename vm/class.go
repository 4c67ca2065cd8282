// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"fmt"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
)

// maxSmallImmediate bounds DUP, SWAP and RETURN immediates.
const maxSmallImmediate = maxStackSize

// Instruction is a decoded bytecode instruction.
type Instruction struct {
	Op  OpCode
	Arg felt.Felt
	// n is the decoded small immediate or the resolved jump index.
	n int
}

// ContractClass is a class loaded into the VM. Jump targets and entry point
// offsets are resolved to instruction indexes.
type ContractClass struct {
	Version     uint8
	Program     []Instruction
	entryPoints map[core.EntryPointType]map[felt.Felt]int
}

// NewContractClass decodes and validates [class].
func NewContractClass(class *core.CompiledClass) (*ContractClass, error) {
	if class.Version != core.LegacyClassVersion && class.Version != core.SierraClassVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrInvalidClass, class.Version)
	}

	var (
		program []Instruction
		// word offset -> instruction index
		starts = make(map[uint64]int, len(class.Bytecode))
	)
	for offset := 0; offset < len(class.Bytecode); {
		word := class.Bytecode[offset]
		if !word.IsUint64() || word.Uint64() >= uint64(opCount) || !OpCode(word.Uint64()).valid() {
			return nil, fmt.Errorf("%w: invalid opcode %s at offset %d", ErrInvalidClass, word, offset)
		}
		op := OpCode(word.Uint64())
		starts[uint64(offset)] = len(program)

		inst := Instruction{Op: op}
		if op.Size() == 2 {
			if offset+1 >= len(class.Bytecode) {
				return nil, fmt.Errorf("%w: missing immediate of %s at offset %d", ErrInvalidClass, op, offset)
			}
			inst.Arg = class.Bytecode[offset+1]
		}
		program = append(program, inst)
		offset += op.Size()
	}

	for i := range program {
		inst := &program[i]
		switch opInfos[inst.Op].immediate {
		case immSmall:
			limit := uint64(maxSmallImmediate)
			if inst.Op == OpTxInfo {
				limit = txInfoCount - 1
			}
			if !inst.Arg.IsUint64() || inst.Arg.Uint64() > limit {
				return nil, fmt.Errorf("%w: immediate %s of %s is out of range", ErrInvalidClass, inst.Arg, inst.Op)
			}
			inst.n = int(inst.Arg.Uint64())
		case immJumpTarget:
			target, ok := resolveOffset(starts, inst.Arg)
			if !ok {
				return nil, fmt.Errorf("%w: jump to %s does not land on an instruction", ErrInvalidClass, inst.Arg)
			}
			inst.n = target
		}
	}

	entryPoints := make(map[core.EntryPointType]map[felt.Felt]int)
	for _, ep := range class.EntryPoints {
		index, ok := starts[ep.Offset]
		if !ok {
			return nil, fmt.Errorf("%w: entry point %s at offset %d does not land on an instruction", ErrInvalidClass, ep.Selector, ep.Offset)
		}
		byType, ok := entryPoints[ep.Type]
		if !ok {
			byType = make(map[felt.Felt]int)
			entryPoints[ep.Type] = byType
		}
		if _, exists := byType[ep.Selector]; exists {
			return nil, fmt.Errorf("%w: duplicate %s entry point %s", ErrInvalidClass, ep.Type, ep.Selector)
		}
		byType[ep.Selector] = index
	}
	if constructors := entryPoints[core.EntryPointConstructor]; len(constructors) > 1 {
		return nil, fmt.Errorf("%w: more than one constructor", ErrInvalidClass)
	}

	return &ContractClass{
		Version:     class.Version,
		Program:     program,
		entryPoints: entryPoints,
	}, nil
}

func resolveOffset(starts map[uint64]int, offset felt.Felt) (int, bool) {
	if !offset.IsUint64() {
		return 0, false
	}
	index, ok := starts[offset.Uint64()]
	return index, ok
}

// EntryPoint returns the instruction index where [selector] starts.
func (c *ContractClass) EntryPoint(typ core.EntryPointType, selector felt.Felt) (int, bool) {
	index, ok := c.entryPoints[typ][selector]
	return index, ok
}

// Constructor returns the instruction index of the constructor, if any.
func (c *ContractClass) Constructor() (int, bool) {
	for _, index := range c.entryPoints[core.EntryPointConstructor] {
		return index, true
	}
	return 0, false
}
