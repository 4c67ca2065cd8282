// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package native

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
	"github.com/ava-labs/starkexec/provider"
	"github.com/ava-labs/starkexec/vm"
)

var (
	errBlockInProgress = errors.New("a block is already being executed")
	errNoBlock         = errors.New("no block is being executed")

	_ provider.StateProvider = &CachedState{}
	_ vm.StateReader         = &stateProviderDb{}
)

// stateProviderDb lets the vm read a StateProvider.
type stateProviderDb struct {
	provider provider.StateProvider
}

func (db *stateProviderDb) GetClassHashAt(address felt.Felt) (felt.Felt, error) {
	return db.provider.ClassHashOfContract(address)
}

func (db *stateProviderDb) GetNonceAt(address felt.Felt) (felt.Felt, error) {
	return db.provider.Nonce(address)
}

func (db *stateProviderDb) GetStorageAt(address, key felt.Felt) (felt.Felt, error) {
	return db.provider.Storage(address, key)
}

func (db *stateProviderDb) GetCompiledContractClass(classHash felt.Felt) (*vm.ContractClass, error) {
	class, err := db.provider.Class(classHash)
	if errors.Is(err, provider.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", vm.ErrUndeclaredClassHash, classHash)
	}
	if err != nil {
		return nil, err
	}
	loaded, err := vm.NewContractClass(class)
	if err != nil {
		return nil, &ConversionError{Hash: classHash, Err: err}
	}
	return loaded, nil
}

// GetCompiledClassHash reads zero for classes that were not declared by a
// v2 declaration.
func (db *stateProviderDb) GetCompiledClassHash(classHash felt.Felt) (felt.Felt, error) {
	compiledClassHash, err := db.provider.CompiledClassHashOfClassHash(classHash)
	if errors.Is(err, provider.ErrNotFound) {
		return felt.Zero, nil
	}
	return compiledClassHash, err
}

// declaredClass is a class declared on top of the provider.
type declaredClass struct {
	hash              felt.Felt
	compiledClassHash *felt.Felt
	compiled          core.CompiledClass
	sierra            *core.SierraClass
}

func newDeclaredClass(tx *core.DeclareTxWithClass) *declaredClass {
	return &declaredClass{
		hash:              tx.ClassHash(),
		compiledClassHash: tx.Transaction.CompiledClassHash,
		compiled:          tx.CompiledClass,
		sierra:            tx.SierraClass,
	}
}

type cachedStateInner struct {
	mu sync.RWMutex

	provider provider.StateProvider
	root     *vm.CachedState
	// block is the layer of the block being executed, if any.
	block *vm.CachedState

	declaredClasses map[felt.Felt]*declaredClass
	// blockClasses are the classes declared by the current block.
	blockClasses []felt.Felt
}

func (s *cachedStateInner) top() *vm.CachedState {
	if s.block != nil {
		return s.block
	}
	return s.root
}

// CachedState buffers executed writes on top of a StateProvider. Copies of
// a CachedState share the same writes.
type CachedState struct {
	inner *cachedStateInner
}

// NewCachedState creates an empty overlay over [state]. [classCache] may be
// nil.
func NewCachedState(state provider.StateProvider, classCache *vm.ContractClassCache) *CachedState {
	return &CachedState{
		inner: &cachedStateInner{
			provider:        state,
			root:            vm.NewCachedState(&stateProviderDb{provider: state}, classCache),
			declaredClasses: make(map[felt.Felt]*declaredClass),
		},
	}
}

func (s *CachedState) Class(classHash felt.Felt) (*core.CompiledClass, error) {
	s.inner.mu.RLock()
	defer s.inner.mu.RUnlock()

	if class, ok := s.inner.declaredClasses[classHash]; ok {
		compiled := class.compiled
		return &compiled, nil
	}
	return s.inner.provider.Class(classHash)
}

func (s *CachedState) SierraClass(classHash felt.Felt) (*core.SierraClass, error) {
	s.inner.mu.RLock()
	defer s.inner.mu.RUnlock()

	if class, ok := s.inner.declaredClasses[classHash]; ok {
		if class.sierra == nil {
			return nil, fmt.Errorf("%w: legacy class %s has no sierra class", provider.ErrNotFound, classHash)
		}
		sierra := *class.sierra
		return &sierra, nil
	}
	return s.inner.provider.SierraClass(classHash)
}

func (s *CachedState) CompiledClassHashOfClassHash(classHash felt.Felt) (felt.Felt, error) {
	s.inner.mu.RLock()
	defer s.inner.mu.RUnlock()

	if class, ok := s.inner.declaredClasses[classHash]; ok && class.compiledClassHash != nil {
		return *class.compiledClassHash, nil
	}
	return s.inner.provider.CompiledClassHashOfClassHash(classHash)
}

func (s *CachedState) ClassHashOfContract(address felt.Felt) (felt.Felt, error) {
	s.inner.mu.RLock()
	defer s.inner.mu.RUnlock()

	return s.inner.top().GetClassHashAt(address)
}

func (s *CachedState) Nonce(address felt.Felt) (felt.Felt, error) {
	s.inner.mu.RLock()
	defer s.inner.mu.RUnlock()

	return s.inner.top().GetNonceAt(address)
}

func (s *CachedState) Storage(address, key felt.Felt) (felt.Felt, error) {
	s.inner.mu.RLock()
	defer s.inner.mu.RUnlock()

	return s.inner.top().GetStorageAt(address, key)
}

// apply runs [f] on a new layer under the write lock. The writes of [f] and
// [class] are kept only if [f] succeeds.
func (s *CachedState) apply(f func(state *vm.CachedState) error, class *declaredClass) error {
	s.inner.mu.Lock()
	defer s.inner.mu.Unlock()

	state := s.inner.top().Child()
	if err := f(state); err != nil {
		state.Abort()
		return err
	}
	if err := state.Commit(); err != nil {
		return err
	}
	if class != nil {
		s.inner.declaredClasses[class.hash] = class
		if s.inner.block != nil {
			s.inner.blockClasses = append(s.inner.blockClasses, class.hash)
		}
	}
	return nil
}

// view runs [f] on a layer that is always dropped. [f] may run concurrently
// with other views.
func (s *CachedState) view(f func(state *vm.CachedState) error) error {
	s.inner.mu.RLock()
	defer s.inner.mu.RUnlock()

	state := s.inner.top().Child()
	defer state.Abort()
	return f(state)
}

// beginBlock opens a layer that holds the writes of one block.
func (s *CachedState) beginBlock() error {
	s.inner.mu.Lock()
	defer s.inner.mu.Unlock()

	if s.inner.block != nil {
		return errBlockInProgress
	}
	s.inner.block = s.inner.root.Child()
	return nil
}

// commitBlock keeps the writes of the current block.
func (s *CachedState) commitBlock() error {
	s.inner.mu.Lock()
	defer s.inner.mu.Unlock()

	if s.inner.block == nil {
		return errNoBlock
	}
	if err := s.inner.block.Commit(); err != nil {
		return err
	}
	s.inner.block = nil
	s.inner.blockClasses = nil
	return nil
}

// abortBlock drops the writes and the classes of the current block.
func (s *CachedState) abortBlock() {
	s.inner.mu.Lock()
	defer s.inner.mu.Unlock()

	if s.inner.block == nil {
		return
	}
	s.inner.block.Abort()
	for _, classHash := range s.inner.blockClasses {
		delete(s.inner.declaredClasses, classHash)
	}
	s.inner.block = nil
	s.inner.blockClasses = nil
}

// stateUpdates returns the net writes kept so far and the classes they
// declare.
func (s *CachedState) stateUpdates() (core.StateUpdatesWithDeclaredClasses, error) {
	s.inner.mu.RLock()
	defer s.inner.mu.RUnlock()

	updates := core.NewStateUpdatesWithDeclaredClasses()
	diff, err := s.inner.root.StateDiff()
	if err != nil {
		return updates, err
	}

	states := &updates.StateUpdates
	states.NonceUpdates = diff.AddressToNonce
	states.StorageUpdates = diff.StorageUpdates
	states.ContractUpdates = diff.AddressToClassHash
	states.DeclaredClasses = diff.ClassHashToCompiledClassHash

	for classHash, class := range s.inner.declaredClasses {
		updates.DeclaredCompiledClasses[classHash] = class.compiled
		if class.sierra != nil {
			updates.DeclaredSierraClasses[classHash] = *class.sierra
		}
	}
	return updates, nil
}
