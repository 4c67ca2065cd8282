// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import "fmt"

// OpCode is a single VM instruction. Bytecode is a sequence of felt words,
// each holding an opcode optionally followed by one immediate word.
type OpCode uint8

const (
	OpPush OpCode = iota + 1
	OpPop
	OpDup
	OpSwap
	OpAdd
	OpSub
	OpMul
	OpEq
	OpLt
	OpNot
	OpJump
	OpJumpIf
	OpCalldata
	OpCalldataSize
	OpCaller
	OpAddress
	OpTxInfo
	OpSignature
	OpSignatureSize
	OpHash
	OpSload
	OpSstore
	OpCall
	OpForward
	OpEmit
	OpSendMessage
	OpAssert
	OpReturn
	OpReturnAll

	opCount
)

// TXINFO fields.
const (
	TxInfoVersion uint64 = iota
	TxInfoAccountAddress
	TxInfoMaxFee
	TxInfoTransactionHash
	TxInfoNonce
	TxInfoChainID

	txInfoCount
)

type immediateKind uint8

const (
	immNone immediateKind = iota
	// a full felt value
	immFelt
	// a small unsigned integer
	immSmall
	// a bytecode word offset that must land on an instruction
	immJumpTarget
)

type opInfo struct {
	name      string
	immediate immediateKind
}

var opInfos = [opCount]opInfo{
	OpPush:          {"PUSH", immFelt},
	OpPop:           {"POP", immNone},
	OpDup:           {"DUP", immSmall},
	OpSwap:          {"SWAP", immSmall},
	OpAdd:           {"ADD", immNone},
	OpSub:           {"SUB", immNone},
	OpMul:           {"MUL", immNone},
	OpEq:            {"EQ", immNone},
	OpLt:            {"LT", immNone},
	OpNot:           {"NOT", immNone},
	OpJump:          {"JUMP", immJumpTarget},
	OpJumpIf:        {"JUMPI", immJumpTarget},
	OpCalldata:      {"CALLDATA", immNone},
	OpCalldataSize:  {"CALLDATASIZE", immNone},
	OpCaller:        {"CALLER", immNone},
	OpAddress:       {"ADDRESS", immNone},
	OpTxInfo:        {"TXINFO", immSmall},
	OpSignature:     {"SIGNATURE", immNone},
	OpSignatureSize: {"SIGNATURESIZE", immNone},
	OpHash:          {"HASH", immNone},
	OpSload:         {"SLOAD", immNone},
	OpSstore:        {"SSTORE", immNone},
	OpCall:          {"CALL", immNone},
	OpForward:       {"FORWARD", immNone},
	OpEmit:          {"EMIT", immFelt},
	OpSendMessage:   {"SEND_MESSAGE", immNone},
	OpAssert:        {"ASSERT", immFelt},
	OpReturn:        {"RETURN", immSmall},
	OpReturnAll:     {"RETURNALL", immNone},
}

func (op OpCode) valid() bool { return op > 0 && op < opCount }

func (op OpCode) String() string {
	if !op.valid() {
		return fmt.Sprintf("INVALID(%d)", uint8(op))
	}
	return opInfos[op].name
}

// Size is the number of bytecode words taken by the instruction.
func (op OpCode) Size() int {
	if opInfos[op].immediate == immNone {
		return 1
	}
	return 2
}
