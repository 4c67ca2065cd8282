// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/starkexec/core"
)

// SetLogHandler replaces the handler of the package logger.
func SetLogHandler(h log.Handler) { logger.SetHandler(h) }

// NewMapStateReader returns a StateReader holding [updates].
func NewMapStateReader(updates core.StateUpdatesWithDeclaredClasses) (StateReader, error) {
	reader := newMapStateReader()
	diff := updates.StateUpdates
	for address, classHash := range diff.ContractUpdates {
		reader.classHashes[address] = classHash
	}
	for address, nonce := range diff.NonceUpdates {
		reader.nonces[address] = nonce
	}
	for address, entries := range diff.StorageUpdates {
		for key, value := range entries {
			reader.setStorage(address, key, value)
		}
	}
	for classHash, compiledClassHash := range diff.DeclaredClasses {
		reader.compiledClassHashes[classHash] = compiledClassHash
	}
	for classHash, class := range updates.DeclaredCompiledClasses {
		class := class
		loaded, err := NewContractClass(&class)
		if err != nil {
			return nil, err
		}
		reader.classes[classHash] = loaded
	}
	return reader, nil
}
