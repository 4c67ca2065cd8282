// (c) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package provider

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
)

const (
	classCacheSize = 1024
)

const (
	IsInitializedKey byte = iota
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonStatePrefix    = []byte("singleton")
	contractPrefix          = []byte("contract")
	noncePrefix             = []byte("nonce")
	storagePrefix           = []byte("storage")
	classPrefix             = []byte("class")
	sierraClassPrefix       = []byte("sierra")
	compiledClassHashPrefix = []byte("compiled_class_hash")

	isInitializedKey = []byte{IsInitializedKey}

	errClassWrongVersion = errors.New("wrong class codec version")

	_ StateProvider = &Store{}
)

// Store is a StateProvider persisted in a database. It always answers at the
// height of the last applied state update.
type Store struct {
	// serializes ApplyStateUpdates
	lock sync.Mutex

	baseDB *versiondb.Database

	singletonDB         database.Database
	contractDB          database.Database
	nonceDB             database.Database
	storageDB           database.Database
	classDB             database.Database
	sierraClassDB       database.Database
	compiledClassHashDB database.Database

	classCache cache.Cacher
}

// NewStore creates a store over [db]. Class cache metrics are registered on
// [registerer] when it is not nil.
func NewStore(db database.Database, registerer prometheus.Registerer) (*Store, error) {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	classCache, err := metercacher.New(
		"class_cache",
		registerer,
		&cache.LRU{Size: classCacheSize},
	)
	if err != nil {
		return nil, err
	}

	baseDB := versiondb.New(db)
	return &Store{
		baseDB:              baseDB,
		singletonDB:         prefixdb.New(singletonStatePrefix, baseDB),
		contractDB:          prefixdb.New(contractPrefix, baseDB),
		nonceDB:             prefixdb.New(noncePrefix, baseDB),
		storageDB:           prefixdb.New(storagePrefix, baseDB),
		classDB:             prefixdb.New(classPrefix, baseDB),
		sierraClassDB:       prefixdb.New(sierraClassPrefix, baseDB),
		compiledClassHashDB: prefixdb.New(compiledClassHashPrefix, baseDB),
		classCache:          classCache,
	}, nil
}

func (s *Store) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *Store) SetInitialized() error {
	if err := s.singletonDB.Put(isInitializedKey, nil); err != nil {
		return err
	}
	return s.baseDB.Commit()
}

func (s *Store) ClassHashOfContract(address felt.Felt) (felt.Felt, error) {
	return getFelt(s.contractDB, feltKey(address))
}

func (s *Store) Nonce(address felt.Felt) (felt.Felt, error) {
	return getFelt(s.nonceDB, feltKey(address))
}

func (s *Store) Storage(address, key felt.Felt) (felt.Felt, error) {
	return getFelt(s.storageDB, StorageKey(address, key))
}

func (s *Store) Class(classHash felt.Felt) (*core.CompiledClass, error) {
	if class, ok := s.classCache.Get(classHash); ok {
		return class.(*core.CompiledClass), nil
	}

	classBytes, err := s.classDB.Get(feltKey(classHash))
	if err == database.ErrNotFound {
		return nil, fmt.Errorf("class %s: %w", classHash, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	class := &core.CompiledClass{}
	parsedVersion, err := Codec.Unmarshal(classBytes, class)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errClassWrongVersion
	}

	s.classCache.Put(classHash, class)
	return class, nil
}

func (s *Store) SierraClass(classHash felt.Felt) (*core.SierraClass, error) {
	classBytes, err := s.sierraClassDB.Get(feltKey(classHash))
	if err == database.ErrNotFound {
		return nil, fmt.Errorf("sierra class %s: %w", classHash, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	class := &core.SierraClass{}
	parsedVersion, err := Codec.Unmarshal(classBytes, class)
	if err != nil {
		return nil, err
	}
	if parsedVersion != CodecVersion {
		return nil, errClassWrongVersion
	}
	return class, nil
}

func (s *Store) CompiledClassHashOfClassHash(classHash felt.Felt) (felt.Felt, error) {
	value, err := s.compiledClassHashDB.Get(feltKey(classHash))
	if err == database.ErrNotFound {
		return felt.Zero, fmt.Errorf("compiled class hash of %s: %w", classHash, ErrNotFound)
	}
	if err != nil {
		return felt.Zero, err
	}
	return felt.FromBytes(value), nil
}

// ApplyStateUpdates atomically persists [updates]. Either every entry is
// written or none is.
func (s *Store) ApplyStateUpdates(updates core.StateUpdatesWithDeclaredClasses) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.applyStateUpdates(updates); err != nil {
		s.baseDB.Abort()
		return err
	}
	return s.baseDB.Commit()
}

func (s *Store) applyStateUpdates(updates core.StateUpdatesWithDeclaredClasses) error {
	diff := updates.StateUpdates
	for address, classHash := range diff.ContractUpdates {
		if err := putFelt(s.contractDB, feltKey(address), classHash); err != nil {
			return err
		}
	}
	for address, nonce := range diff.NonceUpdates {
		if err := putFelt(s.nonceDB, feltKey(address), nonce); err != nil {
			return err
		}
	}
	for address, entries := range diff.StorageUpdates {
		for key, value := range entries {
			if err := putFelt(s.storageDB, StorageKey(address, key), value); err != nil {
				return err
			}
		}
	}
	for classHash, compiledClassHash := range diff.DeclaredClasses {
		if err := putFelt(s.compiledClassHashDB, feltKey(classHash), compiledClassHash); err != nil {
			return err
		}
	}
	for classHash, class := range updates.DeclaredCompiledClasses {
		class := class
		bytes, err := Codec.Marshal(CodecVersion, &class)
		if err != nil {
			return fmt.Errorf("couldn't marshal class %s: %w", classHash, err)
		}
		if err := s.classDB.Put(feltKey(classHash), bytes); err != nil {
			return err
		}
		s.classCache.Evict(classHash)
	}
	for classHash, class := range updates.DeclaredSierraClasses {
		class := class
		bytes, err := Codec.Marshal(CodecVersion, &class)
		if err != nil {
			return fmt.Errorf("couldn't marshal sierra class %s: %w", classHash, err)
		}
		if err := s.sierraClassDB.Put(feltKey(classHash), bytes); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying base database
func (s *Store) Close() error {
	return s.baseDB.Close()
}

// StorageKey is the key of a storage slot: the contract address followed by
// the slot key.
func StorageKey(address, key felt.Felt) []byte {
	res := make([]byte, 0, 2*felt.Bytes)
	res = append(res, feltKey(address)...)
	return append(res, feltKey(key)...)
}

func feltKey(f felt.Felt) []byte {
	b := f.Bytes()
	return b[:]
}

func getFelt(db database.KeyValueReader, key []byte) (felt.Felt, error) {
	value, err := db.Get(key)
	if err == database.ErrNotFound {
		return felt.Zero, nil
	}
	if err != nil {
		return felt.Zero, err
	}
	return felt.FromBytes(value), nil
}

func putFelt(db database.KeyValueWriter, key []byte, value felt.Felt) error {
	b := value.Bytes()
	return db.Put(key, b[:])
}
