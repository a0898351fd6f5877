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

package subscribers

import (
	"context"

	"code.vegaprotocol.io/marketupdates/events"
	"code.vegaprotocol.io/marketupdates/metrics"
)

// MetricsSub keeps the prometheus instruments in line with the events.
type MetricsSub struct {
	*Base
}

func NewMetricsSub(ctx context.Context) *MetricsSub {
	return &MetricsSub{
		Base: NewBase(ctx,
			events.ProposalCreatedEvent,
			events.ProposalExecutedEvent,
			events.ProposalCanceledEvent,
			events.TransactionQueuedEvent,
			events.TransactionExecutedEvent,
			events.TransactionCanceledEvent,
			events.RoleUpdatedEvent,
			events.MarketAdminPausedEvent,
			events.ConfigurationUpdatedEvent,
		),
	}
}

func (m *MetricsSub) Push(evts ...events.Event) {
	if m.isClosed() {
		return
	}
	for _, e := range evts {
		switch evt := e.(type) {
		case *events.ProposalCreated:
			metrics.ProposalCounterInc("created")
		case *events.ProposalStateChanged:
			metrics.ProposalCounterInc(evt.State().String())
		case *events.Transaction:
			switch evt.Type() {
			case events.TransactionQueuedEvent:
				metrics.TransactionCounterInc("queued")
			case events.TransactionExecutedEvent:
				metrics.TransactionCounterInc("executed")
			case events.TransactionCanceledEvent:
				metrics.TransactionCounterInc("canceled")
			}
		case *events.RoleUpdated:
			metrics.RoleUpdateInc(evt.Role())
		case *events.MarketAdminPaused:
			metrics.MarketAdminPausedSet(evt.Component().Hex(), evt.IsPaused())
		case *events.ConfigurationUpdated:
			metrics.ConfigurationUpdateInc(evt.Parameter())
		}
	}
}
