// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package felt

import (
	"golang.org/x/crypto/sha3"
)

// Selector returns the starknet keccak of [name]: keccak256 truncated to its
// 250 least significant bits.
func Selector(name string) Felt {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(name))
	digest := h.Sum(nil)
	digest[0] &= 0x03
	return FromBytes(digest)
}
