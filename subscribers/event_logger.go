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
	"code.vegaprotocol.io/marketupdates/logging"

	"go.uber.org/zap"
)

// EventLogger writes every event it receives to the log.
type EventLogger struct {
	*Base
	log *logging.Logger
}

func NewEventLogger(ctx context.Context, log *logging.Logger, cfg Config) *EventLogger {
	log = log.Named(namedLogger).Named("events")
	log.SetLevel(cfg.Level.Get())
	return &EventLogger{
		Base: NewBase(ctx),
		log:  log,
	}
}

func (l *EventLogger) Push(evts ...events.Event) {
	if l.isClosed() {
		return
	}
	for _, e := range evts {
		l.log.Info(e.Type().String(), EventFields(e)...)
	}
}

// EventFields returns the log fields describing the event.
func EventFields(e events.Event) []zap.Field {
	fields := []zap.Field{
		logging.Uint64("sequence", e.Sequence()),
		logging.TraceID(e.TraceID()),
	}
	switch evt := e.(type) {
	case *events.ProposalCreated:
		p := evt.Proposal()
		fields = append(fields,
			logging.ProposalID(p.ID),
			logging.Address("proposer", p.Proposer),
			logging.Int("actions", len(p.Targets)),
			logging.Time("eta", p.ETATime()),
			logging.String("description", p.Description),
		)
	case *events.ProposalStateChanged:
		fields = append(fields,
			logging.ProposalID(evt.ProposalID()),
			logging.Address("sender", evt.Sender()),
			logging.String("state", evt.State().String()),
		)
	case *events.Transaction:
		fields = append(fields,
			logging.Hash("hash", evt.Hash()),
			logging.String("call", evt.Call().String()),
			logging.Uint64("eta", evt.ETA()),
		)
	case *events.RoleUpdated:
		fields = append(fields,
			logging.Address("component", evt.Component()),
			logging.String("role", evt.Role()),
			logging.Address("old", evt.Old()),
			logging.Address("new", evt.New()),
		)
	case *events.MarketAdminPaused:
		fields = append(fields,
			logging.Address("component", evt.Component()),
			logging.Address("sender", evt.Sender()),
			logging.Bool("paused", evt.IsPaused()),
		)
	case *events.ConfigurationUpdated:
		fields = append(fields,
			logging.Address("comet-proxy", evt.CometProxy()),
			logging.Address("sender", evt.Sender()),
			logging.String("parameter", evt.Parameter()),
			logging.String("old", evt.Old()),
			logging.String("new", evt.New()),
		)
	case *events.CometDeployed:
		fields = append(fields,
			logging.Address("comet-proxy", evt.CometProxy()),
			logging.Address("implementation", evt.Implementation()),
		)
	case *events.ProxyUpgraded:
		fields = append(fields,
			logging.Address("proxy", evt.Proxy()),
			logging.Address("implementation", evt.Implementation()),
			logging.Address("sender", evt.Sender()),
		)
	}
	return fields
}
