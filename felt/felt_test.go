// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package felt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexRoundTrip(t *testing.T) {
	require := require.New(t)

	f, err := FromHex("0x49d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7")
	require.NoError(err)
	require.Equal("0x49d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7", f.String())

	odd, err := FromHex("0xabc")
	require.NoError(err)
	require.Equal(uint64(0xabc), odd.Uint64())

	_, err = FromHex("0x")
	require.Error(err)
	_, err = FromHex("0xzz")
	require.Error(err)
}

func TestShortString(t *testing.T) {
	assert := assert.New(t)

	f, err := FromShortString("ERC20: insufficient balance")
	assert.NoError(err)
	assert.Equal("ERC20: insufficient balance", f.ShortString())

	_, err = FromShortString("this string is definitely longer than 31")
	assert.ErrorIs(err, errShortStringLen)

	assert.Equal("", Zero.ShortString())
}

func TestArithmetic(t *testing.T) {
	assert := assert.New(t)

	a := FromUint64(10)
	b := FromUint64(3)
	assert.Equal(FromUint64(13), a.Add(b))
	assert.Equal(FromUint64(7), a.Sub(b))
	assert.Equal(FromUint64(30), a.Mul(b))
	assert.Equal(1, a.Cmp(b))
	assert.Equal(-1, b.Cmp(a))
	assert.True(Zero.IsZero())
	assert.True(a.Sub(a).IsZero())
}

func TestSelector(t *testing.T) {
	// well known selector of `transfer`
	expected, err := FromHex("0x83afd3f4caedc6eebf44246fe54e38c95e3179a5ec9ea81740eca5b482d12e")
	require.NoError(t, err)
	assert.Equal(t, expected, Selector("transfer"))
}

func TestJSON(t *testing.T) {
	require := require.New(t)

	type wrapper struct {
		Value Felt   `json:"value"`
		List  []Felt `json:"list"`
	}
	in := wrapper{Value: FromUint64(255), List: Slice(1, 2)}
	raw, err := json.Marshal(in)
	require.NoError(err)
	require.JSONEq(`{"value":"0xff","list":["0x1","0x2"]}`, string(raw))

	var out wrapper
	require.NoError(json.Unmarshal(raw, &out))
	require.Equal(in, out)
}
