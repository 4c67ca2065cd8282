// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package felt

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

const (
	// Bytes is the length of the canonical big-endian encoding of a Felt.
	Bytes = fp.Bytes

	// maxShortStringLen is the number of ASCII characters a felt can carry.
	maxShortStringLen = 31
)

var (
	Zero = Felt{}
	One  = FromUint64(1)

	errInvalidHex       = errors.New("invalid hex felt")
	errShortStringLen   = errors.New("short string exceeds 31 characters")
	errShortStringASCII = errors.New("short string must be ASCII")
)

// Felt is an element of the Stark prime field.
type Felt fp.Element

func (z *Felt) impl() *fp.Element { return (*fp.Element)(z) }

func FromUint64(v uint64) Felt {
	var f Felt
	f.impl().SetUint64(v)
	return f
}

// FromBytes interprets [b] as a big-endian integer reduced modulo the field
// prime.
func FromBytes(b []byte) Felt {
	var f Felt
	f.impl().SetBytes(b)
	return f
}

func FromBigInt(v *big.Int) Felt {
	var f Felt
	f.impl().SetBigInt(v)
	return f
}

// FromHex parses a 0x-prefixed (or bare) hexadecimal string.
func FromHex(s string) (Felt, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) == 0 || len(s) > 2*Bytes {
		return Zero, fmt.Errorf("%w: %q", errInvalidHex, s)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %s", errInvalidHex, err)
	}
	return FromBytes(raw), nil
}

// FromShortString encodes an ASCII string of at most 31 characters the way
// Cairo short strings are encoded.
func FromShortString(s string) (Felt, error) {
	if len(s) > maxShortStringLen {
		return Zero, errShortStringLen
	}
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return Zero, errShortStringASCII
		}
	}
	return FromBytes([]byte(s)), nil
}

// MustShortString is FromShortString for constants known at compile time.
func MustShortString(s string) Felt {
	f, err := FromShortString(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (z Felt) Bytes() [Bytes]byte {
	return z.impl().Bytes()
}

// ShortString decodes the felt as a Cairo short string, skipping leading
// zero bytes.
func (z Felt) ShortString() string {
	b := z.Bytes()
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return string(b[i:])
}

func (z Felt) String() string {
	return "0x" + z.impl().Text(16)
}

func (z Felt) Uint64() uint64    { return z.impl().Uint64() }
func (z Felt) IsUint64() bool    { return z.impl().IsUint64() }
func (z Felt) IsZero() bool      { return z.impl().IsZero() }
func (z Felt) Equal(x Felt) bool { return z.impl().Equal(x.impl()) }

// Cmp compares the canonical integer representatives of [z] and [x].
func (z Felt) Cmp(x Felt) int { return z.impl().Cmp(x.impl()) }

func (z Felt) BigInt() *big.Int {
	return z.impl().BigInt(new(big.Int))
}

func (z Felt) Add(x Felt) Felt {
	var res Felt
	res.impl().Add(z.impl(), x.impl())
	return res
}

func (z Felt) Sub(x Felt) Felt {
	var res Felt
	res.impl().Sub(z.impl(), x.impl())
	return res
}

func (z Felt) Mul(x Felt) Felt {
	var res Felt
	res.impl().Mul(z.impl(), x.impl())
	return res
}

func (z Felt) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

func (z *Felt) UnmarshalText(text []byte) error {
	f, err := FromHex(string(text))
	if err != nil {
		return err
	}
	*z = f
	return nil
}

// Slice converts a list of uint64 into felts.
func Slice(values ...uint64) []Felt {
	res := make([]Felt, len(values))
	for i, v := range values {
		res[i] = FromUint64(v)
	}
	return res
}
