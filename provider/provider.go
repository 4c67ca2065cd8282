// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package provider

import (
	"errors"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
)

var (
	// ErrNotFound is returned when a class is not known to the provider.
	ErrNotFound = errors.New("not found")
	// ErrUnimplemented is returned by providers that cannot answer a query.
	// Callers must surface it instead of substituting a default value.
	ErrUnimplemented = errors.New("unimplemented")
)

//go:generate mockgen -destination=../mocks/mock_state_provider.go -package=mocks github.com/ava-labs/starkexec/provider StateProvider

// ContractClassProvider answers class queries at a fixed block height.
type ContractClassProvider interface {
	// Class returns the compiled class of [classHash] or ErrNotFound.
	Class(classHash felt.Felt) (*core.CompiledClass, error)
	// CompiledClassHashOfClassHash returns the compiled class hash committed
	// by a v2 declaration, or ErrNotFound.
	CompiledClassHashOfClassHash(classHash felt.Felt) (felt.Felt, error)
	// SierraClass returns the sierra class of [classHash] or ErrNotFound.
	SierraClass(classHash felt.Felt) (*core.SierraClass, error)
}

// StateProvider answers contract state queries at a fixed block height.
// Contracts that were never deployed or written report zero values.
type StateProvider interface {
	ContractClassProvider

	ClassHashOfContract(address felt.Felt) (felt.Felt, error)
	Nonce(address felt.Felt) (felt.Felt, error)
	Storage(address, key felt.Felt) (felt.Felt, error)
}
