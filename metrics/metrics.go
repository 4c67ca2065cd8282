// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics reports what the executor does.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const namespace = "starkexec"

var (
	_ ExecutionCollector = &Collector{}
	_ ExecutionCollector = NoopCollector{}
)

// ExecutionCollector is notified about executed transactions and blocks.
type ExecutionCollector interface {
	// TransactionExecuted records a transaction that was included, reverted
	// or not.
	TransactionExecuted(kind string, reverted bool, gasUsed uint64)
	// TransactionFailed records a transaction that could not be included.
	TransactionFailed(kind string)
	ClassDeclared()
	BlockExecuted(duration time.Duration, txs int)
}

// Collector is an ExecutionCollector backed by prometheus.
type Collector struct {
	executed      *prometheus.CounterVec
	reverted      *prometheus.CounterVec
	failed        *prometheus.CounterVec
	gasUsed       prometheus.Counter
	declared      prometheus.Counter
	blockDuration prometheus.Histogram
	blockSize     prometheus.Histogram
}

// NewCollector creates a Collector and registers it with [registerer].
func NewCollector(registerer prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_executed",
			Help:      "number of transactions included, by type",
		}, []string{"type"}),
		reverted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_reverted",
			Help:      "number of included transactions whose execution reverted, by type",
		}, []string{"type"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_failed",
			Help:      "number of transactions rejected by the executor, by type",
		}, []string{"type"}),
		gasUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "l1_gas_used",
			Help:      "total L1 gas charged to included transactions",
		}),
		declared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classes_declared",
			Help:      "number of classes declared",
		}),
		blockDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "block_execution_seconds",
			Help:      "time spent executing a block",
			Buckets:   prometheus.DefBuckets,
		}),
		blockSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "block_transactions",
			Help:      "number of transactions per executed block",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(c.executed),
		registerer.Register(c.reverted),
		registerer.Register(c.failed),
		registerer.Register(c.gasUsed),
		registerer.Register(c.declared),
		registerer.Register(c.blockDuration),
		registerer.Register(c.blockSize),
	)
	return c, errs.Err
}

func (c *Collector) TransactionExecuted(kind string, reverted bool, gasUsed uint64) {
	c.executed.WithLabelValues(kind).Inc()
	if reverted {
		c.reverted.WithLabelValues(kind).Inc()
	}
	c.gasUsed.Add(float64(gasUsed))
}

func (c *Collector) TransactionFailed(kind string) {
	c.failed.WithLabelValues(kind).Inc()
}

func (c *Collector) ClassDeclared() { c.declared.Inc() }

func (c *Collector) BlockExecuted(duration time.Duration, txs int) {
	c.blockDuration.Observe(duration.Seconds())
	c.blockSize.Observe(float64(txs))
}

// NoopCollector drops everything.
type NoopCollector struct{}

func (NoopCollector) TransactionExecuted(string, bool, uint64) {}
func (NoopCollector) TransactionFailed(string)                 {}
func (NoopCollector) ClassDeclared()                           {}
func (NoopCollector) BlockExecuted(time.Duration, int)         {}
