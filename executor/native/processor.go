// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package native

import (
	"time"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/executor"
	"github.com/ava-labs/starkexec/felt"
	"github.com/ava-labs/starkexec/metrics"
	"github.com/ava-labs/starkexec/provider"
	"github.com/ava-labs/starkexec/vm"
)

var _ executor.BlockExecutor = &Processor{}

// Processor executes transactions on top of one CachedState and collects
// their receipts. A Processor is driven by one goroutine. The state it
// returns may be read concurrently.
type Processor struct {
	cfg      core.CfgEnv
	flags    executor.SimulationFlags
	blockEnv core.BlockEnv
	blockCtx *vm.BlockContext

	state        *CachedState
	transactions []executor.ExecutedTx

	metrics metrics.ExecutionCollector
	log     log.Logger
}

func newProcessor(
	cfg core.CfgEnv,
	flags executor.SimulationFlags,
	state *CachedState,
	env core.BlockEnv,
	collector metrics.ExecutionCollector,
) *Processor {
	return &Processor{
		cfg:      cfg,
		flags:    flags,
		blockEnv: env,
		blockCtx: blockContextFromEnvs(cfg, env),
		state:    state,
		metrics:  collector,
		log:      log.New("executor", Backend),
	}
}

func (p *Processor) ExecuteBlock(block core.ExecutableBlock) error {
	start := time.Now()
	if err := p.state.beginBlock(); err != nil {
		return &executor.Error{Backend: Backend, Err: err}
	}

	prevEnv, prevCtx := p.blockEnv, p.blockCtx
	p.blockEnv = block.Header.BlockEnv()
	p.blockCtx = blockContextFromEnvs(p.cfg, p.blockEnv)

	executed := len(p.transactions)
	for _, tx := range block.Body {
		if _, err := p.Execute(tx); err != nil {
			p.state.abortBlock()
			p.transactions = p.transactions[:executed]
			p.blockEnv, p.blockCtx = prevEnv, prevCtx
			p.log.Warn("aborted block execution",
				"number", block.Header.Number,
				"tx", tx.Hash,
				"err", err,
			)
			return err
		}
	}
	if err := p.state.commitBlock(); err != nil {
		return &executor.Error{Backend: Backend, Err: err}
	}

	elapsed := time.Since(start)
	p.metrics.BlockExecuted(elapsed, len(block.Body))
	p.log.Info("executed block",
		"number", p.blockEnv.Number,
		"txs", len(block.Body),
		"duration", elapsed,
	)
	return nil
}

func (p *Processor) TakeExecutionOutput() (*executor.ExecutionOutput, error) {
	states, err := p.state.stateUpdates()
	if err != nil {
		return nil, &executor.Error{Backend: Backend, Err: err}
	}
	transactions := p.transactions
	p.transactions = nil
	if transactions == nil {
		transactions = []executor.ExecutedTx{}
	}
	return &executor.ExecutionOutput{
		States:       states,
		Transactions: transactions,
	}, nil
}

func (p *Processor) State() provider.StateProvider {
	return &CachedState{inner: p.state.inner}
}

func (p *Processor) Transactions() []executor.ExecutedTx {
	transactions := make([]executor.ExecutedTx, len(p.transactions))
	copy(transactions, p.transactions)
	return transactions
}

func (p *Processor) BlockEnv() core.BlockEnv { return p.blockEnv }

func (p *Processor) Execute(tx core.ExecutableTxWithHash) (executor.TransactionExecutionOutput, error) {
	kind := tx.Tx.Kind()

	// Declarations hand their classes to the vm transaction, so they are
	// captured first.
	var class *declaredClass
	if declare, ok := tx.Tx.(*core.DeclareTxWithClass); ok {
		class = newDeclaredClass(declare)
	}

	vmTx, err := toExecutorTx(tx)
	if err != nil {
		p.metrics.TransactionFailed(kind.String())
		return nil, &executor.Error{Backend: Backend, Err: err}
	}

	var output *executionOutput
	err = p.state.apply(func(state *vm.CachedState) error {
		var err error
		output, err = transact(state, p.blockCtx, vmTx, p.flags)
		return err
	}, class)
	if err != nil {
		p.metrics.TransactionFailed(kind.String())
		p.log.Debug("transaction failed", "hash", tx.Hash, "type", kind, "err", err)
		return nil, &executor.Error{Backend: Backend, Err: err}
	}

	receipt := output.Receipt(tx.Tx.Stored())
	p.transactions = append(p.transactions, executor.ExecutedTx{
		Tx:      tx.TxWithHash(),
		Receipt: receipt,
	})

	p.metrics.TransactionExecuted(kind.String(), receipt.IsReverted(), output.GasUsed())
	if class != nil {
		p.metrics.ClassDeclared()
	}
	p.log.Debug("executed transaction",
		"hash", tx.Hash,
		"type", kind,
		"fee", output.ActualFee(),
		"gasUsed", output.GasUsed(),
		"reverted", receipt.IsReverted(),
	)
	return output, nil
}

func (p *Processor) Simulate(tx core.ExecutableTxWithHash, flags executor.SimulationFlags) (executor.TransactionExecutionOutput, error) {
	vmTx, err := toExecutorTx(tx)
	if err != nil {
		return nil, &executor.Error{Backend: Backend, Err: err}
	}

	var output *executionOutput
	err = p.state.view(func(state *vm.CachedState) error {
		var err error
		output, err = transact(state, p.blockCtx, vmTx, flags)
		return err
	})
	if err != nil {
		return nil, &executor.Error{Backend: Backend, Err: err}
	}
	return output, nil
}

func (p *Processor) Call(request executor.EntryPointCall, initialGas uint64) ([]felt.Felt, error) {
	var retdata []felt.Felt
	err := p.state.view(func(state *vm.CachedState) error {
		var err error
		retdata, err = call(state, p.blockCtx, request, initialGas)
		return err
	})
	if err != nil {
		return nil, &executor.Error{Backend: Backend, Err: err}
	}
	return retdata, nil
}
