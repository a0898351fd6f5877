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

package ledger_test

import (
	"context"
	"errors"
	"testing"

	"code.vegaprotocol.io/marketupdates/ledger"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/state"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRevert = errors.New("revert")

// counter stores the number of calls it received and fails when asked to.
type counter struct {
	addr  common.Address
	store *state.Store
}

func (c *counter) Address() common.Address { return c.addr }

func (c *counter) Call(ctx context.Context, msg types.Message) ([]byte, error) {
	if err := ledger.RequireNonPayable(msg); err != nil {
		return nil, err
	}
	key := state.Key(c.addr, "count")
	n, err := c.store.GetUint64(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, key, n+1); err != nil {
		return nil, err
	}
	if len(msg.Data) > 0 && msg.Data[0] == 0xff {
		return nil, errRevert
	}
	return []byte{byte(n + 1)}, nil
}

type testRouter struct {
	*ledger.Router
	store   *state.Store
	counter *counter
}

func getTestRouter(t *testing.T) *testRouter {
	t.Helper()
	log := logging.NewTestLogger()
	store, err := state.New(log, state.NewDefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := &counter{addr: common.HexToAddress("0x00000000000000000000000000000000000000c0"), store: store}
	r := ledger.New(log, store)
	require.NoError(t, r.Register(c))
	return &testRouter{Router: r, store: store, counter: c}
}

func (tr *testRouter) count(t *testing.T) uint64 {
	t.Helper()
	n, err := tr.store.GetUint64(context.Background(), state.Key(tr.counter.addr, "count"))
	require.NoError(t, err)
	return n
}

func TestRegister(t *testing.T) {
	tr := getTestRouter(t)

	assert.True(t, tr.IsContract(tr.counter.addr))
	assert.False(t, tr.IsContract(common.HexToAddress("0x01")))
	assert.ErrorIs(t, tr.Register(tr.counter), ledger.ErrContractExists)
	assert.ErrorIs(t, tr.Register(&counter{}), types.ErrInvalidAddress)
}

func TestCall(t *testing.T) {
	t.Run("a successful call commits its writes", testCallCommits)
	t.Run("a reverted call leaves no write behind", testCallReverts)
	t.Run("a reverted call doesn't revert its caller", testCallInFrame)
	t.Run("calls to unknown targets fail", testNoContract)
	t.Run("value is rejected by non payable contracts", testNonPayable)
}

func testCallCommits(t *testing.T) {
	tr := getTestRouter(t)
	out, err := tr.Call(context.Background(), types.Message{Target: tr.counter.addr})
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, out)
	assert.Equal(t, uint64(1), tr.count(t))
}

func testCallReverts(t *testing.T) {
	tr := getTestRouter(t)
	_, err := tr.Call(context.Background(), types.Message{Target: tr.counter.addr, Data: []byte{0xff}})
	assert.ErrorIs(t, err, errRevert)
	assert.Equal(t, uint64(0), tr.count(t))
}

func testCallInFrame(t *testing.T) {
	tr := getTestRouter(t)
	err := tr.store.Atomic(context.Background(), func(ctx context.Context) error {
		if _, err := tr.Call(ctx, types.Message{Target: tr.counter.addr}); err != nil {
			return err
		}
		_, err := tr.Call(ctx, types.Message{Target: tr.counter.addr, Data: []byte{0xff}})
		assert.ErrorIs(t, err, errRevert)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tr.count(t))
}

func testNoContract(t *testing.T) {
	tr := getTestRouter(t)
	_, err := tr.Call(context.Background(), types.Message{Target: common.HexToAddress("0x01")})
	assert.ErrorIs(t, err, ledger.ErrNoContract)
}

func testNonPayable(t *testing.T) {
	tr := getTestRouter(t)
	_, err := tr.Call(context.Background(), types.Message{Target: tr.counter.addr, Value: uint256.NewInt(1)})
	assert.ErrorIs(t, err, ledger.ErrNonPayable)
	assert.Equal(t, uint64(0), tr.count(t))
}
