// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/executor"
	"github.com/ava-labs/starkexec/felt"
)

// blockFile is the JSON form of a core.ExecutableBlock. Transactions are
// tagged with their type since core.ExecutableTx is an interface.
type blockFile struct {
	Header       core.PartialHeader `json:"header"`
	Transactions []txFile           `json:"transactions"`
}

type txFile struct {
	Type        string          `json:"type"`
	Hash        felt.Felt       `json:"hash"`
	Transaction json.RawMessage `json:"transaction"`
}

func parseBlock(bytes []byte) (core.ExecutableBlock, error) {
	var file blockFile
	if err := json.Unmarshal(bytes, &file); err != nil {
		return core.ExecutableBlock{}, fmt.Errorf("failed to parse block: %w", err)
	}

	block := core.ExecutableBlock{
		Header: file.Header,
		Body:   make([]core.ExecutableTxWithHash, 0, len(file.Transactions)),
	}
	for i, tx := range file.Transactions {
		parsed, err := parseTx(tx)
		if err != nil {
			return core.ExecutableBlock{}, fmt.Errorf("failed to parse transaction %d: %w", i, err)
		}
		block.Body = append(block.Body, core.ExecutableTxWithHash{Hash: tx.Hash, Tx: parsed})
	}
	return block, nil
}

func parseTx(tx txFile) (core.ExecutableTx, error) {
	var parsed core.ExecutableTx
	switch tx.Type {
	case core.TxInvoke.String():
		parsed = &core.InvokeTx{}
	case core.TxDeployAccount.String():
		parsed = &core.DeployAccountTx{}
	case core.TxDeclare.String():
		parsed = &core.DeclareTxWithClass{}
	case core.TxL1Handler.String():
		parsed = &core.L1HandlerTx{}
	default:
		return nil, fmt.Errorf("unknown transaction type %q", tx.Type)
	}
	if err := json.Unmarshal(tx.Transaction, parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// outputFile is the JSON form of an executor.ExecutionOutput.
type outputFile struct {
	States       core.StateUpdatesWithDeclaredClasses `json:"states"`
	Transactions []executedTxFile                     `json:"transactions"`
}

type executedTxFile struct {
	Type        string       `json:"type"`
	Hash        felt.Felt    `json:"hash"`
	Transaction core.Tx      `json:"transaction"`
	Receipt     core.Receipt `json:"receipt"`
}

func newOutputFile(output *executor.ExecutionOutput) outputFile {
	file := outputFile{
		States:       output.States,
		Transactions: make([]executedTxFile, len(output.Transactions)),
	}
	for i, tx := range output.Transactions {
		file.Transactions[i] = executedTxFile{
			Type:        tx.Tx.Tx.Kind().String(),
			Hash:        tx.Tx.Hash,
			Transaction: tx.Tx.Tx,
			Receipt:     tx.Receipt,
		}
	}
	return file
}
