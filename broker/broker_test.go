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

package broker_test

import (
	"context"
	"testing"

	"code.vegaprotocol.io/marketupdates/broker"
	"code.vegaprotocol.io/marketupdates/broker/mocks"
	"code.vegaprotocol.io/marketupdates/events"
	"code.vegaprotocol.io/marketupdates/logging"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

var sender = common.HexToAddress("0x0000000000000000000000000000000000000002")

type brokerTst struct {
	*broker.Broker
	ctx  context.Context
	ctrl *gomock.Controller
}

func getBroker(t *testing.T) *brokerTst {
	t.Helper()
	ctrl := gomock.NewController(t)
	return &brokerTst{
		Broker: broker.New(logging.NewTestLogger(), broker.NewDefaultConfig()),
		ctx:    context.Background(),
		ctrl:   ctrl,
	}
}

func (b *brokerTst) executed() events.Event {
	return events.NewProposalExecutedEvent(b.ctx, 1, sender)
}

func (b *brokerTst) configUpdated() events.Event {
	return events.NewConfigurationUpdatedEvent(b.ctx, sender, sender, "supplyKink", "800", "100")
}

func TestSubscribe(t *testing.T) {
	t.Run("Subscribe and unsubscribe - success", testSubUnsubSuccess)
	t.Run("Subscribe reuses keys", testSubReuseKey)
}

func TestSendEvent(t *testing.T) {
	t.Run("Send only to typed subscriber", testEventTypeSubscription)
	t.Run("Subscribers to all get everything", testAllSubscriber)
	t.Run("Events are numbered in sending order", testSequenceNumbers)
}

func testSubUnsubSuccess(t *testing.T) {
	b := getBroker(t)
	sub := mocks.NewMockSubscriber(b.ctrl)
	other := mocks.NewMockSubscriber(b.ctrl)
	// subscribe + unsubscribe -> 2 calls
	sub.EXPECT().Types().Times(2).Return(nil)
	sub.EXPECT().SetID(gomock.Any()).Times(1)
	other.EXPECT().Types().Times(2).Return(nil)
	other.EXPECT().SetID(gomock.Any()).Times(1)

	k1 := b.Subscribe(sub)
	k2 := b.Subscribe(other)
	assert.NotZero(t, k1)
	assert.NotZero(t, k2)
	assert.NotEqual(t, k1, k2)
	b.Unsubscribe(k1)
	b.Unsubscribe(k2)
	// no calls to subs expected once they are unsubscribed
	b.Send(b.executed())
}

func testSubReuseKey(t *testing.T) {
	b := getBroker(t)
	sub := mocks.NewMockSubscriber(b.ctrl)
	sub.EXPECT().Types().Times(4).Return(nil)
	sub.EXPECT().SetID(gomock.Any()).Times(2)

	k1 := b.Subscribe(sub)
	assert.NotZero(t, k1)
	b.Unsubscribe(k1)
	k2 := b.Subscribe(sub)
	assert.Equal(t, k1, k2)
	b.Unsubscribe(k2)
	// second unsubscribe is a no-op
	b.Unsubscribe(k1)
}

func testEventTypeSubscription(t *testing.T) {
	b := getBroker(t)
	sub := mocks.NewMockSubscriber(b.ctrl)
	sub.EXPECT().Types().AnyTimes().Return([]events.Type{events.ConfigurationUpdatedEvent})
	sub.EXPECT().SetID(gomock.Any()).Times(1)
	b.Subscribe(sub)

	evt := b.configUpdated()
	sub.EXPECT().Push(evt).Times(1)
	b.Send(b.executed())
	b.Send(evt)
}

func testAllSubscriber(t *testing.T) {
	b := getBroker(t)
	typed := mocks.NewMockSubscriber(b.ctrl)
	all := mocks.NewMockSubscriber(b.ctrl)
	typed.EXPECT().Types().AnyTimes().Return([]events.Type{events.ProposalExecutedEvent})
	typed.EXPECT().SetID(gomock.Any()).Times(1)
	all.EXPECT().Types().AnyTimes().Return([]events.Type{events.All})
	all.EXPECT().SetID(gomock.Any()).Times(1)
	b.Subscribe(typed)
	b.Subscribe(all)

	executed, updated := b.executed(), b.configUpdated()
	typed.EXPECT().Push(executed).Times(1)
	all.EXPECT().Push(executed).Times(1)
	all.EXPECT().Push(updated).Times(1)
	b.SendBatch([]events.Event{executed, updated})
}

func testSequenceNumbers(t *testing.T) {
	b := getBroker(t)
	evts := []events.Event{b.executed(), b.configUpdated(), b.executed()}
	b.SendBatch(evts)
	b.Send(b.configUpdated())
	for i := 1; i < len(evts); i++ {
		assert.Equal(t, evts[i-1].Sequence()+1, evts[i].Sequence())
	}
	assert.NotZero(t, evts[0].Sequence())
}
