// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/starkexec/felt"
)

func diff(address, key, value, nonce uint64) StateUpdates {
	updates := NewStateUpdates()
	a := felt.FromUint64(address)
	updates.NonceUpdates[a] = felt.FromUint64(nonce)
	updates.StorageUpdates[a] = map[felt.Felt]felt.Felt{
		felt.FromUint64(key): felt.FromUint64(value),
	}
	return updates
}

func TestMergeLaterWins(t *testing.T) {
	require := require.New(t)

	var merged StateUpdates
	merged.Merge(diff(1, 1, 10, 1))
	merged.Merge(diff(1, 2, 20, 2))
	merged.Merge(diff(1, 1, 30, 3))

	address := felt.FromUint64(1)
	require.Equal(felt.FromUint64(3), merged.NonceUpdates[address])
	require.Equal(map[felt.Felt]felt.Felt{
		felt.FromUint64(1): felt.FromUint64(30),
		felt.FromUint64(2): felt.FromUint64(20),
	}, merged.StorageUpdates[address])
}

func TestMergeAssociative(t *testing.T) {
	a, b, c := diff(1, 1, 10, 1), diff(2, 1, 20, 1), diff(1, 1, 30, 2)
	c.ContractUpdates[felt.FromUint64(3)] = felt.FromUint64(4)
	c.DeclaredClasses[felt.FromUint64(4)] = felt.FromUint64(5)

	// (a + b) + c
	left := NewStateUpdates()
	left.Merge(a)
	left.Merge(b)
	left.Merge(c)

	// a + (b + c)
	bc := NewStateUpdates()
	bc.Merge(b)
	bc.Merge(c)
	right := NewStateUpdates()
	right.Merge(a)
	right.Merge(bc)

	require.Equal(t, left, right)
}

func TestMergeDoesNotAlias(t *testing.T) {
	next := diff(1, 1, 10, 1)
	merged := NewStateUpdates()
	merged.Merge(next)

	next.StorageUpdates[felt.FromUint64(1)][felt.FromUint64(1)] = felt.FromUint64(99)
	require.Equal(t, felt.FromUint64(10), merged.StorageUpdates[felt.FromUint64(1)][felt.FromUint64(1)])
}
