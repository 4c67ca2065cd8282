// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package core

import (
	"github.com/ava-labs/starkexec/felt"
)

// StateUpdates is the net state diff of one or more transactions.
type StateUpdates struct {
	NonceUpdates   map[felt.Felt]felt.Felt               `json:"nonce_updates"`
	StorageUpdates map[felt.Felt]map[felt.Felt]felt.Felt `json:"storage_updates"`
	// ContractUpdates maps a contract address to its (new) class hash.
	ContractUpdates map[felt.Felt]felt.Felt `json:"contract_updates"`
	// DeclaredClasses maps a sierra class hash to its compiled class hash.
	DeclaredClasses map[felt.Felt]felt.Felt `json:"declared_classes"`
}

func NewStateUpdates() StateUpdates {
	return StateUpdates{
		NonceUpdates:    make(map[felt.Felt]felt.Felt),
		StorageUpdates:  make(map[felt.Felt]map[felt.Felt]felt.Felt),
		ContractUpdates: make(map[felt.Felt]felt.Felt),
		DeclaredClasses: make(map[felt.Felt]felt.Felt),
	}
}

// Merge folds [next] into [s]. Entries of [next] overwrite entries of [s],
// so merging diffs in commit order yields the cumulative diff.
func (s *StateUpdates) Merge(next StateUpdates) {
	if s.NonceUpdates == nil {
		*s = NewStateUpdates()
	}
	for addr, nonce := range next.NonceUpdates {
		s.NonceUpdates[addr] = nonce
	}
	for addr, entries := range next.StorageUpdates {
		storage, ok := s.StorageUpdates[addr]
		if !ok {
			storage = make(map[felt.Felt]felt.Felt, len(entries))
			s.StorageUpdates[addr] = storage
		}
		for key, value := range entries {
			storage[key] = value
		}
	}
	for addr, classHash := range next.ContractUpdates {
		s.ContractUpdates[addr] = classHash
	}
	for classHash, compiledClassHash := range next.DeclaredClasses {
		s.DeclaredClasses[classHash] = compiledClassHash
	}
}

// StateUpdatesWithDeclaredClasses carries a diff together with the classes
// it declares.
type StateUpdatesWithDeclaredClasses struct {
	StateUpdates            StateUpdates                `json:"state_updates"`
	DeclaredCompiledClasses map[felt.Felt]CompiledClass `json:"declared_compiled_classes"`
	DeclaredSierraClasses   map[felt.Felt]SierraClass   `json:"declared_sierra_classes"`
}

func NewStateUpdatesWithDeclaredClasses() StateUpdatesWithDeclaredClasses {
	return StateUpdatesWithDeclaredClasses{
		StateUpdates:            NewStateUpdates(),
		DeclaredCompiledClasses: make(map[felt.Felt]CompiledClass),
		DeclaredSierraClasses:   make(map[felt.Felt]SierraClass),
	}
}
