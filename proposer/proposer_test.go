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

package proposer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.vegaprotocol.io/marketupdates/blocktime"
	"code.vegaprotocol.io/marketupdates/events"
	"code.vegaprotocol.io/marketupdates/libs/crypto"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/proposer"
	"code.vegaprotocol.io/marketupdates/proposer/mocks"
	"code.vegaprotocol.io/marketupdates/state"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	delay       = 2 * 24 * time.Hour
	gracePeriod = 14 * 24 * time.Hour
)

var (
	proposerAddr  = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	timelockAddr  = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	governor      = common.HexToAddress("0x0000000000000000000000000000000000000001")
	marketAdmin   = common.HexToAddress("0x0000000000000000000000000000000000000002")
	pauseGuardian = common.HexToAddress("0x0000000000000000000000000000000000000003")
	stranger      = common.HexToAddress("0x0000000000000000000000000000000000000004")
	configurator  = common.HexToAddress("0x00000000000000000000000000000000000000e2")

	start = time.Unix(1_700_000_000, 0).UTC()
)

type testProposer struct {
	*proposer.Proposer
	ctrl     *gomock.Controller
	broker   *mocks.MockBroker
	timelock *mocks.MockTimelock
	time     *blocktime.Svc
	store    *state.Store
	// hashes the mocked timelock reports as queued
	queued map[common.Hash]bool
}

func getTestProposer(t *testing.T) *testProposer {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := mocks.NewMockBroker(ctrl)
	tl := mocks.NewMockTimelock(ctrl)
	timeSvc := blocktime.NewService(start)
	log := logging.NewTestLogger()

	tl.EXPECT().Address().Return(timelockAddr).AnyTimes()
	tl.EXPECT().Delay().Return(delay).AnyTimes()
	tl.EXPECT().GracePeriod().Return(gracePeriod).AnyTimes()

	store, err := state.New(log, state.NewDefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	p, err := proposer.New(context.Background(), log, proposer.NewDefaultConfig(), store, broker, tl, timeSvc,
		proposerAddr, governor, marketAdmin, pauseGuardian)
	require.NoError(t, err)

	tp := &testProposer{
		Proposer: p,
		ctrl:     ctrl,
		broker:   broker,
		timelock: tl,
		time:     timeSvc,
		store:    store,
		queued:   map[common.Hash]bool{},
	}
	tl.EXPECT().IsQueued(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, h common.Hash) (bool, error) {
			return tp.queued[h], nil
		}).AnyTimes()
	return tp
}

type actions struct {
	targets    []common.Address
	values     []*uint256.Int
	signatures []string
	calldatas  [][]byte
}

func newActions(n int) actions {
	a := actions{}
	for i := 0; i < n; i++ {
		a.targets = append(a.targets, configurator)
		a.values = append(a.values, uint256.NewInt(0))
		a.signatures = append(a.signatures, "setSupplyKink(address,uint64)")
		a.calldatas = append(a.calldatas, []byte{byte(i + 1)})
	}
	return a
}

func (tp *testProposer) propose(t *testing.T, n int) uint64 {
	t.Helper()
	a := newActions(n)
	tp.timelock.EXPECT().QueueTransaction(gomock.Any(), proposerAddr, gomock.Any(), gomock.Any()).Return(common.Hash{}, nil).Times(n)
	tp.broker.EXPECT().Send(gomock.Any()).Times(1)
	id, err := tp.Propose(context.Background(), marketAdmin, a.targets, a.values, a.signatures, a.calldatas, "test proposal")
	require.NoError(t, err)
	return id
}

func TestPropose(t *testing.T) {
	t.Run("only the market admin can propose", testOnlyMarketAdminCanPropose)
	t.Run("every action is queued with the same eta", testProposeQueuesEveryAction)
	t.Run("ids are increasing", testProposalIDsIncrease)
	t.Run("a failed queue aborts the proposal", testFailedQueueAbortsProposal)
	t.Run("actions are validated", testActionsAreValidated)
	t.Run("an action already queued at the same eta is rejected", testActionAlreadyQueuedIsRejected)
}

func testOnlyMarketAdminCanPropose(t *testing.T) {
	tp := getTestProposer(t)
	a := newActions(1)

	for _, sender := range []common.Address{governor, pauseGuardian, stranger, timelockAddr} {
		_, err := tp.Propose(context.Background(), sender, a.targets, a.values, a.signatures, a.calldatas, "")
		require.ErrorIs(t, err, types.ErrUnauthorized)
		assert.Contains(t, err.Error(), "propose: call must come from the market admin")
	}
	count, err := tp.ProposalCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func testProposeQueuesEveryAction(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()
	a := newActions(3)
	eta := types.Unix(start.Add(delay))

	var queued []types.Call
	tp.timelock.EXPECT().QueueTransaction(gomock.Any(), proposerAddr, gomock.Any(), eta).DoAndReturn(
		func(_ context.Context, _ common.Address, call types.Call, _ uint64) (common.Hash, error) {
			queued = append(queued, call)
			return common.Hash{}, nil
		}).Times(3)
	tp.broker.EXPECT().Send(gomock.Any()).Do(func(e events.Event) {
		evt, ok := e.(*events.ProposalCreated)
		require.True(t, ok)
		assert.Equal(t, uint64(1), evt.ProposalID())
		assert.Equal(t, marketAdmin, evt.Proposer())
	}).Times(1)

	id, err := tp.Propose(ctx, marketAdmin, a.targets, a.values, a.signatures, a.calldatas, "three kinks")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	proposal, err := tp.GetProposal(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, eta, proposal.ETA)
	assert.Equal(t, "three kinks", proposal.Description)
	assert.Equal(t, marketAdmin, proposal.Proposer)
	assert.Equal(t, proposal.Calls(), queued)

	st, err := tp.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalStateQueued, st)
}

func testProposalIDsIncrease(t *testing.T) {
	tp := getTestProposer(t)
	assert.Equal(t, uint64(1), tp.propose(t, 1))
	assert.Equal(t, uint64(2), tp.propose(t, 2))
	count, err := tp.ProposalCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	_, err = tp.GetProposal(context.Background(), 3)
	assert.ErrorIs(t, err, proposer.ErrInvalidProposalID)
}

func testFailedQueueAbortsProposal(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()
	a := newActions(2)
	queueErr := errors.New("queue failed")

	gomock.InOrder(
		tp.timelock.EXPECT().QueueTransaction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(common.Hash{}, nil),
		tp.timelock.EXPECT().QueueTransaction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(common.Hash{}, queueErr),
	)

	_, err := tp.Propose(ctx, marketAdmin, a.targets, a.values, a.signatures, a.calldatas, "")
	assert.ErrorIs(t, err, queueErr)

	count, err := tp.ProposalCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	_, err = tp.GetProposal(ctx, 1)
	assert.ErrorIs(t, err, proposer.ErrInvalidProposalID)
}

func testActionAlreadyQueuedIsRejected(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()
	a := newActions(2)
	eta := types.Unix(start.Add(delay))
	tp.queued[crypto.TransactionHash(a.targets[1], a.values[1], a.signatures[1], a.calldatas[1], eta)] = true

	// the first action is queued before the collision is found, and rolled back with the proposal
	tp.timelock.EXPECT().QueueTransaction(gomock.Any(), proposerAddr, gomock.Any(), eta).Return(common.Hash{}, nil).Times(1)

	_, err := tp.Propose(ctx, marketAdmin, a.targets, a.values, a.signatures, a.calldatas, "")
	assert.ErrorIs(t, err, proposer.ErrActionAlreadyQueued)

	count, err := tp.ProposalCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	// a later eta produces a different hash
	tp.time.SetTimeNow(ctx, start.Add(time.Second))
	tp.propose(t, 2)
}

func testActionsAreValidated(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()

	cases := []struct {
		name string
		a    actions
		err  error
	}{
		{
			name: "no actions",
			a:    newActions(0),
			err:  proposer.ErrNoActions,
		},
		{
			name: "too many actions",
			a:    newActions(21),
			err:  proposer.ErrTooManyActions,
		},
		{
			name: "missing value",
			a: func() actions {
				a := newActions(2)
				a.values = a.values[:1]
				return a
			}(),
			err: proposer.ErrArityMismatch,
		},
		{
			name: "missing signature",
			a: func() actions {
				a := newActions(2)
				a.signatures = a.signatures[:1]
				return a
			}(),
			err: proposer.ErrArityMismatch,
		},
		{
			name: "duplicate action",
			a: func() actions {
				a := newActions(2)
				a.calldatas[1] = a.calldatas[0]
				return a
			}(),
			err: proposer.ErrDuplicateAction,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := tp.Propose(ctx, marketAdmin, c.a.targets, c.a.values, c.a.signatures, c.a.calldatas, "")
			assert.ErrorIs(t, err, c.err)
		})
	}

	// exactly the maximum is fine
	assert.Equal(t, uint64(1), tp.propose(t, 20))
}

func TestExecute(t *testing.T) {
	t.Run("only the market admin can execute", testOnlyMarketAdminCanExecute)
	t.Run("actions are executed in order", testActionsExecutedInOrder)
	t.Run("an executed proposal cannot be executed again", testExecuteTwiceFails)
	t.Run("a failed action aborts the batch", testFailedActionAbortsBatch)
	t.Run("an expired proposal cannot be executed", testExpiredProposalCannotBeExecuted)
	t.Run("an unknown proposal cannot be executed", testUnknownProposalCannotBeExecuted)
}

func testOnlyMarketAdminCanExecute(t *testing.T) {
	tp := getTestProposer(t)
	id := tp.propose(t, 1)
	tp.time.Advance(context.Background(), delay)

	for _, sender := range []common.Address{governor, pauseGuardian, stranger} {
		err := tp.Execute(context.Background(), sender, id)
		require.ErrorIs(t, err, types.ErrUnauthorized)
		assert.Contains(t, err.Error(), "execute: call must come from the market admin")
	}
}

func testActionsExecutedInOrder(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()
	id := tp.propose(t, 3)
	tp.time.Advance(ctx, delay)

	var executed []byte
	tp.timelock.EXPECT().ExecuteTransaction(gomock.Any(), proposerAddr, gomock.Any(), types.Unix(start.Add(delay))).DoAndReturn(
		func(_ context.Context, _ common.Address, call types.Call, _ uint64) ([]byte, error) {
			executed = append(executed, call.Data...)
			return nil, nil
		}).Times(3)
	tp.broker.EXPECT().Send(gomock.Any()).Do(func(e events.Event) {
		assert.Equal(t, events.ProposalExecutedEvent, e.Type())
	}).Times(1)

	require.NoError(t, tp.Execute(ctx, marketAdmin, id))
	assert.Equal(t, []byte{1, 2, 3}, executed)

	st, err := tp.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalStateExecuted, st)
}

func testExecuteTwiceFails(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()
	id := tp.propose(t, 1)
	tp.time.Advance(ctx, delay)

	tp.timelock.EXPECT().ExecuteTransaction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)
	tp.broker.EXPECT().Send(gomock.Any()).Times(1)
	require.NoError(t, tp.Execute(ctx, marketAdmin, id))

	assert.ErrorIs(t, tp.Execute(ctx, marketAdmin, id), proposer.ErrProposalNotQueued)
}

func testFailedActionAbortsBatch(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()
	id := tp.propose(t, 2)
	tp.time.Advance(ctx, delay)
	execErr := errors.New("reverted")

	gomock.InOrder(
		tp.timelock.EXPECT().ExecuteTransaction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil),
		tp.timelock.EXPECT().ExecuteTransaction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, execErr),
	)

	err := tp.Execute(ctx, marketAdmin, id)
	require.ErrorIs(t, err, execErr)
	assert.Contains(t, err.Error(), "action 1 of proposal 1")

	proposal, err := tp.GetProposal(ctx, id)
	require.NoError(t, err)
	assert.False(t, proposal.Executed)
	st, err := tp.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalStateQueued, st)
}

func testExpiredProposalCannotBeExecuted(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()
	id := tp.propose(t, 1)
	tp.time.Advance(ctx, delay+gracePeriod+time.Second)

	st, err := tp.State(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalStateExpired, st)
	assert.ErrorIs(t, tp.Execute(ctx, marketAdmin, id), proposer.ErrProposalNotQueued)
}

func testUnknownProposalCannotBeExecuted(t *testing.T) {
	tp := getTestProposer(t)
	assert.ErrorIs(t, tp.Execute(context.Background(), marketAdmin, 42), proposer.ErrInvalidProposalID)
}

func TestCancel(t *testing.T) {
	t.Run("market admin, pause guardian and governor can cancel", testCancelers)
	t.Run("others cannot cancel", testOthersCannotCancel)
	t.Run("a canceled proposal cannot be executed", testCanceledCannotBeExecuted)
	t.Run("terminal proposals cannot be canceled", testTerminalCannotBeCanceled)
}

func testCancelers(t *testing.T) {
	for _, sender := range []common.Address{marketAdmin, pauseGuardian, governor} {
		tp := getTestProposer(t)
		ctx := context.Background()
		id := tp.propose(t, 2)

		tp.timelock.EXPECT().CancelTransaction(gomock.Any(), proposerAddr, gomock.Any(), gomock.Any()).Return(common.Hash{}, nil).Times(2)
		tp.broker.EXPECT().Send(gomock.Any()).Do(func(e events.Event) {
			evt, ok := e.(*events.ProposalStateChanged)
			require.True(t, ok)
			assert.Equal(t, types.ProposalStateCanceled, evt.State())
			assert.Equal(t, sender, evt.Sender())
		}).Times(1)

		require.NoError(t, tp.Cancel(ctx, sender, id))
		st, err := tp.State(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, types.ProposalStateCanceled, st)
	}
}

func testOthersCannotCancel(t *testing.T) {
	tp := getTestProposer(t)
	id := tp.propose(t, 1)

	for _, sender := range []common.Address{stranger, timelockAddr, proposerAddr} {
		assert.ErrorIs(t, tp.Cancel(context.Background(), sender, id), types.ErrUnauthorized)
	}
}

func testCanceledCannotBeExecuted(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()
	id := tp.propose(t, 1)

	tp.timelock.EXPECT().CancelTransaction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(common.Hash{}, nil).Times(1)
	tp.broker.EXPECT().Send(gomock.Any()).Times(1)
	require.NoError(t, tp.Cancel(ctx, governor, id))

	for _, d := range []time.Duration{0, delay, delay + gracePeriod} {
		tp.time.SetTimeNow(ctx, start.Add(d))
		assert.ErrorIs(t, tp.Execute(ctx, marketAdmin, id), proposer.ErrProposalNotQueued)
	}
}

func testTerminalCannotBeCanceled(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()

	canceled := tp.propose(t, 1)
	executed := tp.propose(t, 1)
	expired := tp.propose(t, 1)

	tp.timelock.EXPECT().CancelTransaction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(common.Hash{}, nil).Times(1)
	tp.timelock.EXPECT().ExecuteTransaction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)
	tp.broker.EXPECT().Send(gomock.Any()).Times(2)

	require.NoError(t, tp.Cancel(ctx, governor, canceled))
	tp.time.Advance(ctx, delay)
	require.NoError(t, tp.Execute(ctx, marketAdmin, executed))
	tp.time.Advance(ctx, gracePeriod+time.Second)

	for _, id := range []uint64{canceled, executed, expired} {
		assert.ErrorIs(t, tp.Cancel(ctx, governor, id), proposer.ErrProposalTerminal)
	}
}

func TestProposerRoles(t *testing.T) {
	t.Run("roles are governor only", testProposerRolesAreGovernorOnly)
	t.Run("a new market admin takes over", testNewMarketAdminTakesOver)
	t.Run("constructor rejects zero addresses", testConstructorRejectsZeroAddresses)
}

func testProposerRolesAreGovernorOnly(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()

	for _, sender := range []common.Address{marketAdmin, pauseGuardian, stranger} {
		assert.ErrorIs(t, tp.SetGovernor(ctx, sender, stranger), types.ErrUnauthorized)
		assert.ErrorIs(t, tp.SetMarketAdmin(ctx, sender, stranger), types.ErrUnauthorized)
		assert.ErrorIs(t, tp.SetPauseGuardian(ctx, sender, stranger), types.ErrUnauthorized)
	}
	assert.ErrorIs(t, tp.SetPauseGuardian(ctx, governor, common.Address{}), types.ErrInvalidAddress)

	tp.broker.EXPECT().Send(gomock.Any()).Times(1)
	require.NoError(t, tp.SetPauseGuardian(ctx, governor, stranger))
	guardian, err := tp.PauseGuardian(ctx)
	require.NoError(t, err)
	assert.Equal(t, stranger, guardian)
}

func testNewMarketAdminTakesOver(t *testing.T) {
	tp := getTestProposer(t)
	ctx := context.Background()
	a := newActions(1)

	tp.broker.EXPECT().Send(gomock.Any()).Times(1)
	require.NoError(t, tp.SetMarketAdmin(ctx, governor, stranger))

	_, err := tp.Propose(ctx, marketAdmin, a.targets, a.values, a.signatures, a.calldatas, "")
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	tp.timelock.EXPECT().QueueTransaction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(common.Hash{}, nil).Times(1)
	tp.broker.EXPECT().Send(gomock.Any()).Times(1)
	_, err = tp.Propose(ctx, stranger, a.targets, a.values, a.signatures, a.calldatas, "")
	assert.NoError(t, err)
}

func testConstructorRejectsZeroAddresses(t *testing.T) {
	log := logging.NewTestLogger()
	store, err := state.New(log, state.NewDefaultConfig())
	require.NoError(t, err)
	defer store.Close()
	ctrl := gomock.NewController(t)

	newProposer := func(tlAddr, gov, admin, guardian common.Address) error {
		tl := mocks.NewMockTimelock(ctrl)
		tl.EXPECT().Address().Return(tlAddr).AnyTimes()
		_, err := proposer.New(context.Background(), log, proposer.NewDefaultConfig(), store,
			mocks.NewMockBroker(ctrl), tl, blocktime.NewService(start), proposerAddr, gov, admin, guardian)
		return err
	}

	zero := common.Address{}
	assert.ErrorIs(t, newProposer(zero, governor, marketAdmin, pauseGuardian), types.ErrInvalidAddress)
	assert.ErrorIs(t, newProposer(timelockAddr, zero, marketAdmin, pauseGuardian), types.ErrInvalidAddress)
	assert.ErrorIs(t, newProposer(timelockAddr, governor, zero, pauseGuardian), types.ErrInvalidAddress)
	assert.ErrorIs(t, newProposer(timelockAddr, governor, marketAdmin, zero), types.ErrInvalidAddress)
}
