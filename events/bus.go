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

package events

import (
	"context"

	vgcontext "code.vegaprotocol.io/marketupdates/libs/context"
)

type Type int

// Base common denominator all event-bus events share.
type Base struct {
	ctx     context.Context
	traceID string
	seq     uint64
	et      Type
}

// Event - the base event interface type.
type Event interface {
	Type() Type
	Context() context.Context
	TraceID() string
	Sequence() uint64
	SetSequenceID(s uint64)
	Replace(context.Context)
}

const (
	// All event type -> used by subscribers to just receive all events, has no actual corresponding event payload.
	All Type = iota
	ProposalCreatedEvent
	ProposalExecutedEvent
	ProposalCanceledEvent
	TransactionQueuedEvent
	TransactionExecutedEvent
	TransactionCanceledEvent
	RoleUpdatedEvent
	MarketAdminPausedEvent
	ConfigurationUpdatedEvent
	CometDeployedEvent
	ProxyUpgradedEvent
)

var typeNames = map[Type]string{
	All:                       "ALL",
	ProposalCreatedEvent:      "ProposalCreatedEvent",
	ProposalExecutedEvent:     "ProposalExecutedEvent",
	ProposalCanceledEvent:     "ProposalCanceledEvent",
	TransactionQueuedEvent:    "TransactionQueuedEvent",
	TransactionExecutedEvent:  "TransactionExecutedEvent",
	TransactionCanceledEvent:  "TransactionCanceledEvent",
	RoleUpdatedEvent:          "RoleUpdatedEvent",
	MarketAdminPausedEvent:    "MarketAdminPausedEvent",
	ConfigurationUpdatedEvent: "ConfigurationUpdatedEvent",
	CometDeployedEvent:        "CometDeployedEvent",
	ProxyUpgradedEvent:        "ProxyUpgradedEvent",
}

func (t Type) String() string {
	s, ok := typeNames[t]
	if !ok {
		return "UNKNOWN EVENT"
	}
	return s
}

// AllTypes returns every event type but All itself.
func AllTypes() []Type {
	ts := make([]Type, 0, len(typeNames)-1)
	for t := range typeNames {
		if t != All {
			ts = append(ts, t)
		}
	}
	return ts
}

func newBase(ctx context.Context, t Type) *Base {
	tID, _ := vgcontext.TraceIDFromContext(ctx)
	return &Base{
		ctx:     ctx,
		traceID: tID,
		et:      t,
	}
}

// Replace updates the context and the trace id the event was created with.
func (b *Base) Replace(ctx context.Context) {
	b.ctx = ctx
	b.traceID, _ = vgcontext.TraceIDFromContext(ctx)
}

func (b Base) TraceID() string {
	return b.traceID
}

// SetSequenceID sets the sequence ID once, later calls are ignored.
func (b *Base) SetSequenceID(s uint64) {
	if b.seq != 0 {
		return
	}
	b.seq = s
}

func (b Base) Sequence() uint64 {
	return b.seq
}

func (b Base) Context() context.Context {
	return b.ctx
}

func (b Base) Type() Type {
	return b.et
}
