// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package calldata_test

import (
	"context"
	"encoding/hex"
	"math/big"
	"testing"

	"code.vegaprotocol.io/marketupdates/libs/calldata"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var comet = common.HexToAddress("0x00000000000000000000000000000000000000e1")

func TestSignatures(t *testing.T) {
	t.Run("selector matches the keccak of the signature", func(t *testing.T) {
		id := calldata.Selector("transfer(address,uint256)")
		assert.Equal(t, "a9059cbb", hex.EncodeToString(id[:]))
	})

	t.Run("malformed signatures are rejected", func(t *testing.T) {
		for _, sig := range []string{"", "noParens", "(address)", "f(address", "f(address,)", "f((address,uint256))", "f(notatype)"} {
			_, err := calldata.ParseSignature(sig)
			assert.Error(t, err, sig)
		}
	})

	t.Run("join prepends the selector only with a signature", func(t *testing.T) {
		data := []byte{1, 2, 3}
		assert.Equal(t, data, calldata.Join("", data))

		joined := calldata.Join("setSupplyKink(address,uint64)", data)
		id, rest, err := calldata.Split(joined)
		require.NoError(t, err)
		assert.Equal(t, calldata.Selector("setSupplyKink(address,uint64)"), id)
		assert.Equal(t, data, rest)

		_, _, err = calldata.Split([]byte{1, 2})
		assert.ErrorIs(t, err, calldata.ErrShortCallData)
	})
}

func TestParseArgs(t *testing.T) {
	t.Run("values get the types the encoder expects", func(t *testing.T) {
		m := calldata.MustParseSignature("f(address,uint64,uint104,bool,bytes,string)")
		vals, err := m.ParseArgs([]string{comet.Hex(), "100", "0x10", "true", "0xdead", "hello"})
		require.NoError(t, err)
		assert.Equal(t, comet, vals[0])
		assert.Equal(t, uint64(100), vals[1])
		assert.Zero(t, big.NewInt(16).Cmp(vals[2].(*big.Int)))
		assert.Equal(t, true, vals[3])
		assert.Equal(t, []byte{0xde, 0xad}, vals[4])
		assert.Equal(t, "hello", vals[5])

		_, err = m.EncodeArgs(vals...)
		assert.NoError(t, err)
	})

	t.Run("out of range and malformed values are rejected", func(t *testing.T) {
		m := calldata.MustParseSignature("f(uint8)")
		for _, arg := range []string{"256", "-1", "abc"} {
			_, err := m.ParseArgs([]string{arg})
			assert.ErrorIs(t, err, calldata.ErrInvalidArgument, arg)
		}
		_, err := calldata.MustParseSignature("f(address)").ParseArgs([]string{"0x1234"})
		assert.ErrorIs(t, err, calldata.ErrInvalidArgument)
		_, err = m.ParseArgs(nil)
		assert.ErrorIs(t, err, calldata.ErrInvalidArgument)
	})
}

func TestDispatcher(t *testing.T) {
	d := calldata.NewDispatcher()
	var got uint64
	d.Handle("setSupplyKink(address,uint64)", func(_ context.Context, _ types.Message, args calldata.Args) ([]interface{}, error) {
		addr, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		assert.Equal(t, comet, addr)
		got, err = args.Uint64(1)
		return nil, err
	})
	d.Handle("supplyKink()", func(context.Context, types.Message, calldata.Args) ([]interface{}, error) {
		return []interface{}{got}, nil
	}, "uint64")

	ctx := context.Background()
	data, err := calldata.MustParseSignature("setSupplyKink(address,uint64)").EncodeCall(comet, uint64(42))
	require.NoError(t, err)
	_, err = d.Dispatch(ctx, types.Message{Data: data})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got)

	getter := calldata.MustParseSignature("supplyKink()", "uint64")
	out, err := d.Dispatch(ctx, types.Message{Data: getter.ID[:]})
	require.NoError(t, err)
	vals, err := getter.DecodeOutputs(out)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), vals[0])

	_, err = d.Dispatch(ctx, types.Message{Data: []byte{0, 0, 0, 0}})
	assert.ErrorIs(t, err, calldata.ErrUnknownSelector)

	assert.Equal(t, []string{"setSupplyKink(address,uint64)", "supplyKink()"}, d.Signatures())
	assert.Panics(t, func() { d.Handle("supplyKink()", nil) })
}
