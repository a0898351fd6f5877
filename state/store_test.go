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

package state_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/state"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	contract = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	errBoom  = errors.New("boom")
)

func getTestStore(t *testing.T, path string) *state.Store {
	t.Helper()
	cfg := state.NewDefaultConfig()
	cfg.Path = path
	s, err := state.New(logging.NewTestLogger(), cfg)
	require.NoError(t, err)
	return s
}

func TestAtomic(t *testing.T) {
	t.Run("writes are visible inside the frame and committed after", testReadYourWrites)
	t.Run("a failing frame leaves no write behind", testRollback)
	t.Run("a failing child frame keeps the parent writes", testChildRollback)
	t.Run("hooks only run once the root frame commits", testAfterCommit)
	t.Run("deleted keys are gone", testDelete)
}

func testReadYourWrites(t *testing.T) {
	s := getTestStore(t, "")
	defer s.Close()
	ctx := context.Background()
	key := state.Key(contract, "kink")

	err := s.Atomic(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Put(ctx, key, uint64(800)))
		n, err := s.GetUint64(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, uint64(800), n)
		return nil
	})
	require.NoError(t, err)

	n, err := s.GetUint64(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint64(800), n)
}

func testRollback(t *testing.T) {
	s := getTestStore(t, "")
	defer s.Close()
	ctx := context.Background()
	key := state.Key(contract, "kink")

	err := s.Atomic(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Put(ctx, key, uint64(100)))
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	ok, err := s.Has(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testChildRollback(t *testing.T) {
	s := getTestStore(t, "")
	defer s.Close()
	ctx := context.Background()
	parent := state.Key(contract, "parent")
	child := state.Key(contract, "child")

	err := s.Atomic(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Put(ctx, parent, true))
		err := s.Atomic(ctx, func(ctx context.Context) error {
			require.NoError(t, s.Put(ctx, child, true))
			require.NoError(t, s.Put(ctx, parent, false))
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)
		return nil
	})
	require.NoError(t, err)

	b, err := s.GetBool(ctx, parent)
	require.NoError(t, err)
	assert.True(t, b)
	ok, err := s.Has(ctx, child)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testAfterCommit(t *testing.T) {
	s := getTestStore(t, "")
	defer s.Close()
	ctx := context.Background()
	var ran []string

	err := s.Atomic(ctx, func(ctx context.Context) error {
		s.AfterCommit(ctx, func() { ran = append(ran, "root") })
		_ = s.Atomic(ctx, func(ctx context.Context) error {
			s.AfterCommit(ctx, func() { ran = append(ran, "failed child") })
			return errBoom
		})
		err := s.Atomic(ctx, func(ctx context.Context) error {
			s.AfterCommit(ctx, func() { ran = append(ran, "child") })
			return nil
		})
		assert.Empty(t, ran)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "child"}, ran)

	s.AfterCommit(ctx, func() { ran = append(ran, "no frame") })
	assert.Equal(t, "no frame", ran[len(ran)-1])
}

func testDelete(t *testing.T) {
	s := getTestStore(t, "")
	defer s.Close()
	ctx := context.Background()
	key := state.Key(contract, "admin")

	require.NoError(t, s.Put(ctx, key, contract))
	addr, err := s.GetAddress(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, contract, addr)

	require.NoError(t, s.Delete(ctx, key))
	addr, err = s.GetAddress(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, addr)
}

func TestInitOnce(t *testing.T) {
	path := t.TempDir()
	ctx := context.Background()
	key := state.Key(contract, "owner")

	s := getTestStore(t, path)
	done, err := s.InitOnce(ctx, contract, func(ctx context.Context) error {
		return s.Put(ctx, key, contract)
	})
	require.NoError(t, err)
	assert.True(t, done)
	require.NoError(t, s.Close())

	// reopening the database keeps the first initialisation
	s = getTestStore(t, path)
	defer s.Close()
	done, err = s.InitOnce(ctx, contract, func(ctx context.Context) error {
		return s.Put(ctx, key, common.Address{})
	})
	require.NoError(t, err)
	assert.False(t, done)

	addr, err := s.GetAddress(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, contract, addr)
}

func TestClosedStore(t *testing.T) {
	s := getTestStore(t, "")
	require.NoError(t, s.Close())

	_, _, err := s.GetRaw(context.Background(), state.Key(contract, "kink"))
	assert.ErrorIs(t, err, state.ErrStoreClosed)
}

func TestKeys(t *testing.T) {
	assert.True(t, bytes.HasPrefix(state.Key(contract, "proposals", state.Uint64Key(1)), contract.Bytes()))
	assert.Equal(t, -1, bytes.Compare(state.Uint64Key(9), state.Uint64Key(10)))
	assert.NotEqual(t, state.Key(contract, "a", []byte("b")), state.Key(contract, "ab"))
}
