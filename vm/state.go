// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"errors"

	lru "github.com/hashicorp/golang-lru"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"

	"github.com/ava-labs/starkexec/felt"
)

var (
	storagePrefix           = []byte("storage")
	noncePrefix             = []byte("nonce")
	classHashPrefix         = []byte("class_hash")
	compiledClassHashPrefix = []byte("compiled_class_hash")

	errCommitRoot = errors.New("cannot commit the root state")

	_ State = &CachedState{}
)

// StateReader reads the state a CachedState is layered on. Missing values
// read as zero. GetCompiledContractClass returns ErrUndeclaredClassHash for
// unknown classes.
type StateReader interface {
	GetClassHashAt(address felt.Felt) (felt.Felt, error)
	GetNonceAt(address felt.Felt) (felt.Felt, error)
	GetStorageAt(address, key felt.Felt) (felt.Felt, error)
	GetCompiledContractClass(classHash felt.Felt) (*ContractClass, error)
	GetCompiledClassHash(classHash felt.Felt) (felt.Felt, error)
}

// State is a StateReader that can also be written.
type State interface {
	StateReader

	SetClassHashAt(address, classHash felt.Felt) error
	SetStorageAt(address, key, value felt.Felt) error
	IncrementNonce(address felt.Felt) error
	SetContractClass(classHash felt.Felt, class *ContractClass) error
	SetCompiledClassHash(classHash, compiledClassHash felt.Felt) error
}

// ContractClassCache holds classes loaded from a StateReader. Classes are
// immutable and keyed by hash, so one cache can serve many states.
type ContractClassCache struct {
	cache *lru.Cache
}

func NewContractClassCache(size int) (*ContractClassCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &ContractClassCache{cache: cache}, nil
}

func (c *ContractClassCache) Get(classHash felt.Felt) (*ContractClass, bool) {
	class, ok := c.cache.Get(classHash)
	if !ok {
		return nil, false
	}
	return class.(*ContractClass), true
}

func (c *ContractClassCache) Add(classHash felt.Felt, class *ContractClass) {
	c.cache.Add(classHash, class)
}

func (c *ContractClassCache) Len() int { return c.cache.Len() }

// StateDiff is the net effect of a CachedState on its reader. Writes that
// leave a value equal to the reader's are omitted.
type StateDiff struct {
	AddressToClassHash           map[felt.Felt]felt.Felt
	AddressToNonce               map[felt.Felt]felt.Felt
	StorageUpdates               map[felt.Felt]map[felt.Felt]felt.Felt
	ClassHashToCompiledClassHash map[felt.Felt]felt.Felt
}

// CachedState buffers writes on top of a StateReader. A state can open child
// layers that are either committed into it or aborted.
type CachedState struct {
	reader     StateReader
	classCache *ContractClassCache

	parent    *CachedState
	db        database.Database
	versionDB *versiondb.Database

	storageDB           database.Database
	nonceDB             database.Database
	classHashDB         database.Database
	compiledClassHashDB database.Database

	// classes declared in this layer
	classes map[felt.Felt]*ContractClass
	writes  stateWrites
}

// NewCachedState creates a root state over [reader]. [classCache] may be nil.
func NewCachedState(reader StateReader, classCache *ContractClassCache) *CachedState {
	return newCachedState(reader, classCache, nil, memdb.New(), nil)
}

func newCachedState(
	reader StateReader,
	classCache *ContractClassCache,
	parent *CachedState,
	db database.Database,
	versionDB *versiondb.Database,
) *CachedState {
	return &CachedState{
		reader:              reader,
		classCache:          classCache,
		parent:              parent,
		db:                  db,
		versionDB:           versionDB,
		storageDB:           prefixdb.New(storagePrefix, db),
		nonceDB:             prefixdb.New(noncePrefix, db),
		classHashDB:         prefixdb.New(classHashPrefix, db),
		compiledClassHashDB: prefixdb.New(compiledClassHashPrefix, db),
		classes:             make(map[felt.Felt]*ContractClass),
		writes:              newStateWrites(),
	}
}

// Child opens a layer over [s]. [s] must not be written while the child is
// open.
func (s *CachedState) Child() *CachedState {
	versionDB := versiondb.New(s.db)
	return newCachedState(s.reader, s.classCache, s, versionDB, versionDB)
}

// Commit folds the writes of [s] into its parent and empties [s].
func (s *CachedState) Commit() error {
	if s.parent == nil {
		return errCommitRoot
	}
	if err := s.versionDB.Commit(); err != nil {
		return err
	}
	for classHash, class := range s.classes {
		s.parent.classes[classHash] = class
	}
	s.parent.writes.merge(s.writes)
	s.classes = make(map[felt.Felt]*ContractClass)
	s.writes = newStateWrites()
	return nil
}

// Abort drops the writes of [s].
func (s *CachedState) Abort() {
	if s.versionDB != nil {
		s.versionDB.Abort()
	}
	s.classes = make(map[felt.Felt]*ContractClass)
	s.writes = newStateWrites()
}

func (s *CachedState) GetClassHashAt(address felt.Felt) (felt.Felt, error) {
	value, err := s.classHashDB.Get(feltBytes(address))
	if err == database.ErrNotFound {
		return s.reader.GetClassHashAt(address)
	}
	if err != nil {
		return felt.Zero, err
	}
	return felt.FromBytes(value), nil
}

func (s *CachedState) GetNonceAt(address felt.Felt) (felt.Felt, error) {
	value, err := s.nonceDB.Get(feltBytes(address))
	if err == database.ErrNotFound {
		return s.reader.GetNonceAt(address)
	}
	if err != nil {
		return felt.Zero, err
	}
	return felt.FromBytes(value), nil
}

func (s *CachedState) GetStorageAt(address, key felt.Felt) (felt.Felt, error) {
	value, err := s.storageDB.Get(storageKeyBytes(address, key))
	if err == database.ErrNotFound {
		return s.reader.GetStorageAt(address, key)
	}
	if err != nil {
		return felt.Zero, err
	}
	return felt.FromBytes(value), nil
}

func (s *CachedState) GetCompiledClassHash(classHash felt.Felt) (felt.Felt, error) {
	value, err := s.compiledClassHashDB.Get(feltBytes(classHash))
	if err == database.ErrNotFound {
		return s.reader.GetCompiledClassHash(classHash)
	}
	if err != nil {
		return felt.Zero, err
	}
	return felt.FromBytes(value), nil
}

func (s *CachedState) GetCompiledContractClass(classHash felt.Felt) (*ContractClass, error) {
	for layer := s; layer != nil; layer = layer.parent {
		if class, ok := layer.classes[classHash]; ok {
			return class, nil
		}
	}
	if s.classCache != nil {
		if class, ok := s.classCache.Get(classHash); ok {
			return class, nil
		}
	}
	class, err := s.reader.GetCompiledContractClass(classHash)
	if err != nil {
		return nil, err
	}
	if s.classCache != nil {
		s.classCache.Add(classHash, class)
	}
	return class, nil
}

func (s *CachedState) SetClassHashAt(address, classHash felt.Felt) error {
	if err := putFelt(s.classHashDB, feltBytes(address), classHash); err != nil {
		return err
	}
	s.writes.classHashes[address] = struct{}{}
	return nil
}

func (s *CachedState) SetStorageAt(address, key, value felt.Felt) error {
	if err := putFelt(s.storageDB, storageKeyBytes(address, key), value); err != nil {
		return err
	}
	s.writes.storage[storageSlot{address: address, key: key}] = struct{}{}
	return nil
}

func (s *CachedState) IncrementNonce(address felt.Felt) error {
	nonce, err := s.GetNonceAt(address)
	if err != nil {
		return err
	}
	if err := putFelt(s.nonceDB, feltBytes(address), nonce.Add(felt.One)); err != nil {
		return err
	}
	s.writes.nonces[address] = struct{}{}
	return nil
}

func (s *CachedState) SetContractClass(classHash felt.Felt, class *ContractClass) error {
	s.classes[classHash] = class
	return nil
}

func (s *CachedState) SetCompiledClassHash(classHash, compiledClassHash felt.Felt) error {
	if err := putFelt(s.compiledClassHashDB, feltBytes(classHash), compiledClassHash); err != nil {
		return err
	}
	s.writes.compiledClassHashes[classHash] = struct{}{}
	return nil
}

// StateDiff returns every write visible through [s] that differs from the
// reader.
func (s *CachedState) StateDiff() (*StateDiff, error) {
	diff := &StateDiff{
		AddressToClassHash:           make(map[felt.Felt]felt.Felt),
		AddressToNonce:               make(map[felt.Felt]felt.Felt),
		StorageUpdates:               make(map[felt.Felt]map[felt.Felt]felt.Felt),
		ClassHashToCompiledClassHash: make(map[felt.Felt]felt.Felt),
	}

	err := iterateFelts(s.classHashDB, func(key []byte, classHash felt.Felt) error {
		address := felt.FromBytes(key)
		prev, err := s.reader.GetClassHashAt(address)
		if err != nil {
			return err
		}
		if !prev.Equal(classHash) {
			diff.AddressToClassHash[address] = classHash
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = iterateFelts(s.nonceDB, func(key []byte, nonce felt.Felt) error {
		address := felt.FromBytes(key)
		prev, err := s.reader.GetNonceAt(address)
		if err != nil {
			return err
		}
		if !prev.Equal(nonce) {
			diff.AddressToNonce[address] = nonce
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = iterateFelts(s.storageDB, func(key []byte, value felt.Felt) error {
		address := felt.FromBytes(key[:felt.Bytes])
		slot := felt.FromBytes(key[felt.Bytes:])
		prev, err := s.reader.GetStorageAt(address, slot)
		if err != nil {
			return err
		}
		if prev.Equal(value) {
			return nil
		}
		storage, ok := diff.StorageUpdates[address]
		if !ok {
			storage = make(map[felt.Felt]felt.Felt)
			diff.StorageUpdates[address] = storage
		}
		storage[slot] = value
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = iterateFelts(s.compiledClassHashDB, func(key []byte, compiledClassHash felt.Felt) error {
		diff.ClassHashToCompiledClassHash[felt.FromBytes(key)] = compiledClassHash
		return nil
	})
	if err != nil {
		return nil, err
	}
	return diff, nil
}

// StateChangesCount summarizes the writes that must be published on L1.
type StateChangesCount struct {
	NModifiedContracts        int
	NStorageUpdates           int
	NClassHashUpdates         int
	NCompiledClassHashUpdates int
}

type storageSlot struct {
	address felt.Felt
	key     felt.Felt
}

type stateWrites struct {
	storage             map[storageSlot]struct{}
	nonces              map[felt.Felt]struct{}
	classHashes         map[felt.Felt]struct{}
	compiledClassHashes map[felt.Felt]struct{}
}

func newStateWrites() stateWrites {
	return stateWrites{
		storage:             make(map[storageSlot]struct{}),
		nonces:              make(map[felt.Felt]struct{}),
		classHashes:         make(map[felt.Felt]struct{}),
		compiledClassHashes: make(map[felt.Felt]struct{}),
	}
}

func (w stateWrites) merge(other stateWrites) {
	for slot := range other.storage {
		w.storage[slot] = struct{}{}
	}
	for address := range other.nonces {
		w.nonces[address] = struct{}{}
	}
	for address := range other.classHashes {
		w.classHashes[address] = struct{}{}
	}
	for classHash := range other.compiledClassHashes {
		w.compiledClassHashes[classHash] = struct{}{}
	}
}

func (w stateWrites) count() StateChangesCount {
	contracts := make(map[felt.Felt]struct{})
	for slot := range w.storage {
		contracts[slot.address] = struct{}{}
	}
	for address := range w.nonces {
		contracts[address] = struct{}{}
	}
	for address := range w.classHashes {
		contracts[address] = struct{}{}
	}
	return StateChangesCount{
		NModifiedContracts:        len(contracts),
		NStorageUpdates:           len(w.storage),
		NClassHashUpdates:         len(w.classHashes),
		NCompiledClassHashUpdates: len(w.compiledClassHashes),
	}
}

// countStateChanges counts the writes of [layers] together with the fee
// token balance slot of [feePayer], which the fee transfer writes later.
func countStateChanges(feeToken *felt.Felt, feePayer felt.Felt, layers ...*CachedState) StateChangesCount {
	writes := newStateWrites()
	for _, layer := range layers {
		writes.merge(layer.writes)
	}
	if feeToken != nil {
		writes.storage[storageSlot{address: *feeToken, key: FeeTokenBalanceKey(feePayer)}] = struct{}{}
	}
	return writes.count()
}

func feltBytes(f felt.Felt) []byte {
	b := f.Bytes()
	return b[:]
}

func storageKeyBytes(address, key felt.Felt) []byte {
	res := make([]byte, 0, 2*felt.Bytes)
	res = append(res, feltBytes(address)...)
	return append(res, feltBytes(key)...)
}

func putFelt(db database.KeyValueWriter, key []byte, value felt.Felt) error {
	return db.Put(key, feltBytes(value))
}

func iterateFelts(db database.Iteratee, f func(key []byte, value felt.Felt) error) error {
	it := db.NewIterator()
	defer it.Release()

	for it.Next() {
		if err := f(it.Key(), felt.FromBytes(it.Value())); err != nil {
			return err
		}
	}
	return it.Error()
}
