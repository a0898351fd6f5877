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

	"github.com/ethereum/go-ethereum/common"
)

// RoleUpdated is sent whenever a principal of a component is rotated, e.g.
// the governor of the timelock or the market admin of the permission checker.
type RoleUpdated struct {
	*Base
	component common.Address
	role      string
	old       common.Address
	new       common.Address
}

func NewRoleUpdatedEvent(ctx context.Context, component common.Address, role string, old, new common.Address) *RoleUpdated {
	return &RoleUpdated{
		Base:      newBase(ctx, RoleUpdatedEvent),
		component: component,
		role:      role,
		old:       old,
		new:       new,
	}
}

func (r RoleUpdated) Component() common.Address {
	return r.component
}

func (r RoleUpdated) Role() string {
	return r.role
}

func (r RoleUpdated) Old() common.Address {
	return r.old
}

func (r RoleUpdated) New() common.Address {
	return r.new
}

type MarketAdminPaused struct {
	*Base
	component common.Address
	sender    common.Address
	paused    bool
}

func NewMarketAdminPausedEvent(ctx context.Context, component, sender common.Address, paused bool) *MarketAdminPaused {
	return &MarketAdminPaused{
		Base:      newBase(ctx, MarketAdminPausedEvent),
		component: component,
		sender:    sender,
		paused:    paused,
	}
}

func (m MarketAdminPaused) Component() common.Address {
	return m.component
}

func (m MarketAdminPaused) Sender() common.Address {
	return m.sender
}

func (m MarketAdminPaused) IsPaused() bool {
	return m.paused
}
