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

	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
)

type ProposalCreated struct {
	*Base
	p types.Proposal
}

func NewProposalCreatedEvent(ctx context.Context, p types.Proposal) *ProposalCreated {
	return &ProposalCreated{
		Base: newBase(ctx, ProposalCreatedEvent),
		p:    p,
	}
}

func (p ProposalCreated) Proposal() types.Proposal {
	return p.p
}

func (p ProposalCreated) ProposalID() uint64 {
	return p.p.ID
}

func (p ProposalCreated) Proposer() common.Address {
	return p.p.Proposer
}

// ProposalStateChanged is sent when a proposal is executed or canceled.
type ProposalStateChanged struct {
	*Base
	id     uint64
	sender common.Address
	state  types.ProposalState
}

func NewProposalExecutedEvent(ctx context.Context, id uint64, sender common.Address) *ProposalStateChanged {
	return &ProposalStateChanged{
		Base:   newBase(ctx, ProposalExecutedEvent),
		id:     id,
		sender: sender,
		state:  types.ProposalStateExecuted,
	}
}

func NewProposalCanceledEvent(ctx context.Context, id uint64, sender common.Address) *ProposalStateChanged {
	return &ProposalStateChanged{
		Base:   newBase(ctx, ProposalCanceledEvent),
		id:     id,
		sender: sender,
		state:  types.ProposalStateCanceled,
	}
}

func (p ProposalStateChanged) ProposalID() uint64 {
	return p.id
}

func (p ProposalStateChanged) Sender() common.Address {
	return p.sender
}

func (p ProposalStateChanged) State() types.ProposalState {
	return p.state
}
