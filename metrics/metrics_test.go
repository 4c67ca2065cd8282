// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	require := require.New(t)

	registry := prometheus.NewRegistry()
	c, err := NewCollector(registry)
	require.NoError(err)

	c.TransactionExecuted("INVOKE", false, 10)
	c.TransactionExecuted("INVOKE", true, 5)
	c.TransactionExecuted("DECLARE", false, 1)
	c.TransactionFailed("L1_HANDLER")
	c.ClassDeclared()
	c.BlockExecuted(time.Second, 3)

	require.Equal(2.0, testutil.ToFloat64(c.executed.WithLabelValues("INVOKE")))
	require.Equal(1.0, testutil.ToFloat64(c.reverted.WithLabelValues("INVOKE")))
	require.Equal(0.0, testutil.ToFloat64(c.reverted.WithLabelValues("DECLARE")))
	require.Equal(1.0, testutil.ToFloat64(c.failed.WithLabelValues("L1_HANDLER")))
	require.Equal(16.0, testutil.ToFloat64(c.gasUsed))
	require.Equal(1.0, testutil.ToFloat64(c.declared))

	families, err := registry.Gather()
	require.NoError(err)
	names := make(map[string]struct{}, len(families))
	for _, family := range families {
		names[family.GetName()] = struct{}{}
	}
	require.Contains(names, "starkexec_block_execution_seconds")
	require.Contains(names, "starkexec_block_transactions")
}

func TestCollectorRegistersOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewCollector(registry)
	require.NoError(t, err)

	_, err = NewCollector(registry)
	require.Error(t, err)
}
