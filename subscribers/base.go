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
)

// Base holds what every subscriber shares: the id the broker assigned, the
// event types it listens to and the context that closes it.
type Base struct {
	ctx   context.Context
	cfunc context.CancelFunc
	types []events.Type
	id    int
}

// NewBase returns a base listening to the given types, or to every event if
// none are given.
func NewBase(ctx context.Context, types ...events.Type) *Base {
	ctx, cfunc := context.WithCancel(ctx)
	return &Base{
		ctx:   ctx,
		cfunc: cfunc,
		types: types,
	}
}

// Types returns the event types the subscriber wants.
func (b *Base) Types() []events.Type {
	return b.types
}

// Closed indicates the subscriber is closed for business.
func (b *Base) Closed() <-chan struct{} {
	return b.ctx.Done()
}

func (b *Base) isClosed() bool {
	select {
	case <-b.ctx.Done():
		return true
	default:
		return false
	}
}

// Halt stops the subscriber, later events are dropped.
func (b *Base) Halt() {
	b.cfunc()
}

// SetID set the ID (exposed only to broker).
func (b *Base) SetID(id int) {
	b.id = id
}

// ID returns the subscriber ID.
func (b *Base) ID() int {
	return b.id
}
