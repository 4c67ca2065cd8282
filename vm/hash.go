// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/starkexec/felt"
)

// BalancesVar is the storage variable of fee token balances.
var BalancesVar = felt.Selector("ERC20_balances")

// Hash combines two felts into one. It backs the HASH instruction and
// storage variable addressing.
func Hash(a, b felt.Felt) felt.Felt {
	ab, bb := a.Bytes(), b.Bytes()
	buf := make([]byte, 0, 2*felt.Bytes)
	buf = append(buf, ab[:]...)
	buf = append(buf, bb[:]...)

	digest := hashing.ComputeHash256(buf)
	digest[0] &= 0x03
	return felt.FromBytes(digest)
}

// FeeTokenBalanceKey is the storage key holding the balance of [account] in a
// fee token contract.
func FeeTokenBalanceKey(account felt.Felt) felt.Felt {
	return Hash(BalancesVar, account)
}
