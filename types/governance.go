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

package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type ProposalState uint8

const (
	// ProposalStateQueued is the state of every proposal until it is executed,
	// canceled or its grace period runs out.
	ProposalStateQueued ProposalState = iota
	ProposalStateExecuted
	ProposalStateCanceled
	// ProposalStateExpired is never stored, a proposal is expired once
	// now > eta + grace period and it was neither executed nor canceled.
	ProposalStateExpired
)

func (s ProposalState) String() string {
	switch s {
	case ProposalStateQueued:
		return "Queued"
	case ProposalStateExecuted:
		return "Executed"
	case ProposalStateCanceled:
		return "Canceled"
	case ProposalStateExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// IsTerminal returns true for every state but Queued.
func (s ProposalState) IsTerminal() bool {
	return s != ProposalStateQueued
}

// Proposal is a batch of calls authored by the market admin multisig and
// queued in the timelock at creation.
type Proposal struct {
	ID          uint64
	Proposer    common.Address
	Targets     []common.Address
	Values      []*uint256.Int
	Signatures  []string
	Calldatas   [][]byte
	Description string
	// ETA is a unix timestamp in seconds.
	ETA      uint64
	Executed bool
	Canceled bool
}

// ETATime returns the ETA as a time.
func (p *Proposal) ETATime() time.Time {
	return time.Unix(int64(p.ETA), 0).UTC()
}

// Calls returns the actions of the proposal, in order.
func (p *Proposal) Calls() []Call {
	calls := make([]Call, 0, len(p.Targets))
	for i := range p.Targets {
		calls = append(calls, Call{
			Target:    p.Targets[i],
			Value:     p.Values[i],
			Signature: p.Signatures[i],
			Data:      p.Calldatas[i],
		})
	}
	return calls
}

// StateAt is the state of the proposal observed at the given time.
func (p *Proposal) StateAt(now time.Time, gracePeriod time.Duration) ProposalState {
	return ProposalStateAt(p.Executed, p.Canceled, p.ETATime(), now, gracePeriod)
}

// ProposalStateAt derives a proposal state from its stored flags and its ETA.
// Canceled wins over executed, they are never both set. Times are compared
// at a one second resolution, like block timestamps.
func ProposalStateAt(executed, canceled bool, eta, now time.Time, gracePeriod time.Duration) ProposalState {
	switch {
	case canceled:
		return ProposalStateCanceled
	case executed:
		return ProposalStateExecuted
	case Unix(now) > Unix(eta.Add(gracePeriod)):
		return ProposalStateExpired
	default:
		return ProposalStateQueued
	}
}

// Unix converts a block time to the seconds used for ETAs.
func Unix(t time.Time) uint64 {
	if t.Unix() < 0 {
		return 0
	}
	return uint64(t.Unix())
}
