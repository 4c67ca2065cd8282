// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package genesis

import (
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/starkexec/core"
	"github.com/ava-labs/starkexec/felt"
	"github.com/ava-labs/starkexec/provider"
	"github.com/ava-labs/starkexec/vm"
)

var (
	// DefaultFeeTokenAddress is the address of the ETH fee token.
	DefaultFeeTokenAddress = mustHex("0x49d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7")
	// DefaultAccountAddress is the address of the prefunded dev account.
	DefaultAccountAddress = mustHex("0x6162896d1d7ab204c7ccac6dd5f8e9e7c25ecd5ae4fcb4ad32e57786bb46e03")
	// DefaultSignerKey is the signer key of the prefunded dev account.
	DefaultSignerKey = mustHex("0x1800000000300000180000000000030000000000003006001800006600")
	// DefaultCounterAddress is the address of the example counter.
	DefaultCounterAddress = mustHex("0xc0ffee")
	// DefaultAccountBalance is 1000 ETH.
	DefaultAccountBalance = mustHex("0x3635c9adc5dea00000")

	errDuplicateAddress = errors.New("duplicate genesis address")
)

// Account is a prefunded account deployed at genesis.
type Account struct {
	Address   felt.Felt `json:"address"`
	SignerKey felt.Felt `json:"signerKey"`
	Balance   felt.Felt `json:"balance"`
}

// Genesis describes the initial state of the chain.
type Genesis struct {
	FeeTokenAddress felt.Felt   `json:"feeTokenAddress"`
	Accounts        []Account   `json:"accounts"`
	Counters        []felt.Felt `json:"counters"`
}

// Default returns a genesis with a single dev account and a counter.
func Default() *Genesis {
	return &Genesis{
		FeeTokenAddress: DefaultFeeTokenAddress,
		Accounts: []Account{{
			Address:   DefaultAccountAddress,
			SignerKey: DefaultSignerKey,
			Balance:   DefaultAccountBalance,
		}},
		Counters: []felt.Felt{DefaultCounterAddress},
	}
}

// Parse decodes a JSON genesis.
func Parse(bytes []byte) (*Genesis, error) {
	g := &Genesis{}
	if err := json.Unmarshal(bytes, g); err != nil {
		return nil, fmt.Errorf("failed to parse genesis: %w", err)
	}
	return g, nil
}

// StateUpdates returns the state of [g] as a diff over an empty state.
func (g *Genesis) StateUpdates() (core.StateUpdatesWithDeclaredClasses, error) {
	updates := core.NewStateUpdatesWithDeclaredClasses()
	updates.DeclaredCompiledClasses[AccountClassHash] = *accountClass
	updates.DeclaredCompiledClasses[ERC20ClassHash] = *erc20Class
	updates.DeclaredCompiledClasses[CounterClassHash] = *counterClass
	updates.DeclaredSierraClasses[CounterClassHash] = *CounterSierraClass()
	updates.StateUpdates.DeclaredClasses[CounterClassHash] = CounterCompiledClassHash

	diff := &updates.StateUpdates
	deploy := func(address, classHash felt.Felt) error {
		if _, ok := diff.ContractUpdates[address]; ok {
			return fmt.Errorf("%w: %s", errDuplicateAddress, address)
		}
		diff.ContractUpdates[address] = classHash
		return nil
	}

	if err := deploy(g.FeeTokenAddress, ERC20ClassHash); err != nil {
		return updates, err
	}
	balances := make(map[felt.Felt]felt.Felt, len(g.Accounts))
	for _, account := range g.Accounts {
		if err := deploy(account.Address, AccountClassHash); err != nil {
			return updates, err
		}
		diff.StorageUpdates[account.Address] = map[felt.Felt]felt.Felt{
			SignerKeyVar: account.SignerKey,
		}
		balances[vm.FeeTokenBalanceKey(account.Address)] = account.Balance
	}
	diff.StorageUpdates[g.FeeTokenAddress] = balances

	for _, address := range g.Counters {
		if err := deploy(address, CounterClassHash); err != nil {
			return updates, err
		}
	}
	return updates, nil
}

// Initialize writes [g] into [store] unless the store already holds a
// state.
func Initialize(store *provider.Store, g *Genesis) error {
	initialized, err := store.IsInitialized()
	if err != nil {
		return err
	}
	if initialized {
		log.Debug("state already initialized, skipping genesis")
		return nil
	}

	updates, err := g.StateUpdates()
	if err != nil {
		return err
	}
	if err := store.ApplyStateUpdates(updates); err != nil {
		return fmt.Errorf("failed to apply genesis: %w", err)
	}
	log.Info("initialized genesis state",
		"accounts", len(g.Accounts),
		"counters", len(g.Counters),
		"feeToken", g.FeeTokenAddress,
	)
	return store.SetInitialized()
}

func mustHex(s string) felt.Felt {
	f, err := felt.FromHex(s)
	if err != nil {
		panic(err)
	}
	return f
}
