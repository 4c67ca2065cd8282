// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/ava-labs/starkexec/felt"
)

// EntryPointType distinguishes the three kinds of contract entry points.
type EntryPointType uint8

const (
	EntryPointExternal EntryPointType = iota
	EntryPointL1Handler
	EntryPointConstructor
)

func (t EntryPointType) String() string {
	switch t {
	case EntryPointExternal:
		return "EXTERNAL"
	case EntryPointL1Handler:
		return "L1_HANDLER"
	case EntryPointConstructor:
		return "CONSTRUCTOR"
	default:
		return "UNKNOWN"
	}
}

const (
	// LegacyClassVersion marks classes that are declared with a v1 declare
	// transaction.
	LegacyClassVersion uint8 = 0
	// SierraClassVersion marks classes compiled from a sierra program and
	// declared with a v2 declare transaction.
	SierraClassVersion uint8 = 1
)

// EntryPoint points at the bytecode offset where a function starts.
type EntryPoint struct {
	Type     EntryPointType `serialize:"true" json:"type"`
	Selector felt.Felt      `serialize:"true" json:"selector"`
	Offset   uint64         `serialize:"true" json:"offset"`
}

// CompiledClass is the executable form of a contract class.
type CompiledClass struct {
	Version     uint8        `serialize:"true" json:"version"`
	Bytecode    []felt.Felt  `serialize:"true" json:"bytecode"`
	EntryPoints []EntryPoint `serialize:"true" json:"entry_points"`
}

// SierraClass is the human readable form of a class, kept next to its
// compiled form so it can be served back to users.
type SierraClass struct {
	SierraProgram        []felt.Felt  `serialize:"true" json:"sierra_program"`
	ContractClassVersion string       `serialize:"true" json:"contract_class_version"`
	EntryPoints          []EntryPoint `serialize:"true" json:"entry_points"`
	ABI                  string       `serialize:"true" json:"abi"`
}

// ComputeCompiledClassHash hashes the canonical encoding of [class].
func ComputeCompiledClassHash(class *CompiledClass) felt.Felt {
	size := 1 + wrappers.IntLen*2 + len(class.Bytecode)*felt.Bytes +
		len(class.EntryPoints)*(1+felt.Bytes+wrappers.LongLen)
	p := wrappers.Packer{MaxSize: size}
	p.PackByte(class.Version)
	p.PackInt(uint32(len(class.Bytecode)))
	for _, word := range class.Bytecode {
		b := word.Bytes()
		p.PackFixedBytes(b[:])
	}
	p.PackInt(uint32(len(class.EntryPoints)))
	for _, ep := range class.EntryPoints {
		p.PackByte(byte(ep.Type))
		b := ep.Selector.Bytes()
		p.PackFixedBytes(b[:])
		p.PackLong(ep.Offset)
	}

	digest := hashing.ComputeHash256(p.Bytes)
	digest[0] &= 0x03
	return felt.FromBytes(digest)
}

// ComputeSierraClassHash hashes the canonical encoding of [class].
func ComputeSierraClassHash(class *SierraClass) felt.Felt {
	size := wrappers.IntLen*2 + len(class.SierraProgram)*felt.Bytes +
		wrappers.ShortLen + len(class.ContractClassVersion) +
		len(class.EntryPoints)*(1+felt.Bytes+wrappers.LongLen) +
		wrappers.ShortLen + len(class.ABI)
	p := wrappers.Packer{MaxSize: size}
	p.PackInt(uint32(len(class.SierraProgram)))
	for _, word := range class.SierraProgram {
		b := word.Bytes()
		p.PackFixedBytes(b[:])
	}
	p.PackStr(class.ContractClassVersion)
	p.PackInt(uint32(len(class.EntryPoints)))
	for _, ep := range class.EntryPoints {
		p.PackByte(byte(ep.Type))
		b := ep.Selector.Bytes()
		p.PackFixedBytes(b[:])
		p.PackLong(ep.Offset)
	}
	p.PackStr(class.ABI)

	digest := hashing.ComputeHash256(p.Bytes)
	digest[0] &= 0x03
	return felt.FromBytes(digest)
}
