// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package provider

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/avalanchego/database/memdb"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
)

func newTestStore(t *testing.T) *Store {
	store, err := NewStore(memdb.New(), prometheus.NewRegistry())
	require.NoError(t, err)
	return store
}

func TestStoreInitialized(t *testing.T) {
	require := require.New(t)
	store := newTestStore(t)

	initialized, err := store.IsInitialized()
	require.NoError(err)
	require.False(initialized)

	require.NoError(store.SetInitialized())
	initialized, err = store.IsInitialized()
	require.NoError(err)
	require.True(initialized)
}

func TestStoreDefaults(t *testing.T) {
	require := require.New(t)
	store := newTestStore(t)
	address := felt.FromUint64(1)

	classHash, err := store.ClassHashOfContract(address)
	require.NoError(err)
	require.True(classHash.IsZero())

	nonce, err := store.Nonce(address)
	require.NoError(err)
	require.True(nonce.IsZero())

	value, err := store.Storage(address, felt.FromUint64(2))
	require.NoError(err)
	require.True(value.IsZero())

	_, err = store.Class(address)
	require.ErrorIs(err, ErrNotFound)
	_, err = store.SierraClass(address)
	require.ErrorIs(err, ErrNotFound)
	_, err = store.CompiledClassHashOfClassHash(address)
	require.ErrorIs(err, ErrNotFound)
}

func TestApplyStateUpdates(t *testing.T) {
	require := require.New(t)
	store := newTestStore(t)

	address, classHash := felt.FromUint64(1), felt.FromUint64(2)
	compiledClassHash := felt.FromUint64(3)
	compiled := core.CompiledClass{
		Version:  core.SierraClassVersion,
		Bytecode: felt.Slice(4, 5, 6),
		EntryPoints: []core.EntryPoint{
			{Type: core.EntryPointExternal, Selector: felt.Selector("get"), Offset: 1},
		},
	}
	sierra := core.SierraClass{
		SierraProgram:        felt.Slice(7),
		ContractClassVersion: "0.1.0",
		EntryPoints:          compiled.EntryPoints,
		ABI:                  "[]",
	}

	updates := core.NewStateUpdatesWithDeclaredClasses()
	diff := &updates.StateUpdates
	diff.ContractUpdates[address] = classHash
	diff.NonceUpdates[address] = felt.FromUint64(8)
	diff.StorageUpdates[address] = map[felt.Felt]felt.Felt{
		felt.FromUint64(9): felt.FromUint64(10),
	}
	diff.DeclaredClasses[classHash] = compiledClassHash
	updates.DeclaredCompiledClasses[classHash] = compiled
	updates.DeclaredSierraClasses[classHash] = sierra
	require.NoError(store.ApplyStateUpdates(updates))

	gotClassHash, err := store.ClassHashOfContract(address)
	require.NoError(err)
	require.Equal(classHash, gotClassHash)

	nonce, err := store.Nonce(address)
	require.NoError(err)
	require.Equal(felt.FromUint64(8), nonce)

	value, err := store.Storage(address, felt.FromUint64(9))
	require.NoError(err)
	require.Equal(felt.FromUint64(10), value)

	gotCompiledClassHash, err := store.CompiledClassHashOfClassHash(classHash)
	require.NoError(err)
	require.Equal(compiledClassHash, gotCompiledClassHash)

	gotClass, err := store.Class(classHash)
	require.NoError(err)
	require.Equal(&compiled, gotClass)
	require.Equal(core.ComputeCompiledClassHash(&compiled), core.ComputeCompiledClassHash(gotClass))

	// second read is served from the cache
	cached, err := store.Class(classHash)
	require.NoError(err)
	require.Same(gotClass, cached)

	gotSierra, err := store.SierraClass(classHash)
	require.NoError(err)
	require.Equal(&sierra, gotSierra)
}

func TestApplyStateUpdatesEvictsClass(t *testing.T) {
	require := require.New(t)
	store := newTestStore(t)
	classHash := felt.FromUint64(1)

	updates := core.NewStateUpdatesWithDeclaredClasses()
	updates.DeclaredCompiledClasses[classHash] = core.CompiledClass{Bytecode: felt.Slice(1)}
	require.NoError(store.ApplyStateUpdates(updates))
	_, err := store.Class(classHash)
	require.NoError(err)

	updates.DeclaredCompiledClasses[classHash] = core.CompiledClass{Bytecode: felt.Slice(2)}
	require.NoError(store.ApplyStateUpdates(updates))
	class, err := store.Class(classHash)
	require.NoError(err)
	require.Equal(felt.Slice(2), class.Bytecode)
}

func TestStorageKey(t *testing.T) {
	a, b := felt.FromUint64(1), felt.FromUint64(2)
	require.Len(t, StorageKey(a, b), 2*felt.Bytes)
	require.NotEqual(t, StorageKey(a, b), StorageKey(b, a))
}
