// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package native executes transactions with the vm package.
package native

import (
	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/executor"
	"github.com/ava-labs/starkexec/metrics"
	"github.com/ava-labs/starkexec/provider"
	"github.com/ava-labs/starkexec/vm"
)

const (
	// Backend names this executor in errors.
	Backend = "native"

	// ClassCacheSize is the number of loaded classes shared by the
	// executors of a factory.
	ClassCacheSize = 128
)

var _ executor.ExecutorFactory = &ExecutorFactory{}

// ExecutorFactory creates Processors.
type ExecutorFactory struct {
	cfg        core.CfgEnv
	flags      executor.SimulationFlags
	classCache *vm.ContractClassCache
	metrics    metrics.ExecutionCollector
}

// NewExecutorFactory returns a factory whose executors run with [cfg] and
// [flags]. [collector] may be nil.
func NewExecutorFactory(
	cfg core.CfgEnv,
	flags executor.SimulationFlags,
	collector metrics.ExecutionCollector,
) (*ExecutorFactory, error) {
	classCache, err := vm.NewContractClassCache(ClassCacheSize)
	if err != nil {
		return nil, err
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &ExecutorFactory{
		cfg:        cfg.Clone(),
		flags:      flags,
		classCache: classCache,
		metrics:    collector,
	}, nil
}

func (f *ExecutorFactory) WithState(state provider.StateProvider) executor.BlockExecutor {
	return f.WithStateAndBlockEnv(state, core.BlockEnv{})
}

func (f *ExecutorFactory) WithStateAndBlockEnv(state provider.StateProvider, env core.BlockEnv) executor.BlockExecutor {
	return newProcessor(f.cfg.Clone(), f.flags, NewCachedState(state, f.classCache), env, f.metrics)
}

func (f *ExecutorFactory) Cfg() core.CfgEnv { return f.cfg.Clone() }
