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

package proposer

import (
	"context"
	"time"

	"code.vegaprotocol.io/marketupdates/events"
	"code.vegaprotocol.io/marketupdates/libs/crypto"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/state"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var (
	ErrArityMismatch     = errors.New("targets, values, signatures and calldatas must have the same length")
	ErrNoActions         = errors.New("proposal must contain at least one action")
	ErrTooManyActions    = errors.New("too many actions in proposal")
	ErrDuplicateAction   = errors.New("proposal contains the same action twice")
	ErrInvalidProposalID = errors.New("invalid proposal id")
	ErrProposalNotQueued = errors.New("proposal can only be executed if it is queued")
	ErrProposalTerminal  = errors.New("proposal is already executed, canceled or expired")

	// ErrActionAlreadyQueued is returned when another proposal queued the same
	// action for the same eta, both would share a single timelock entry.
	ErrActionAlreadyQueued = errors.New("identical proposal action already queued at eta")
)

const (
	roleGovernor      = "governor"
	roleMarketAdmin   = "marketAdmin"
	rolePauseGuardian = "pauseGuardian"
)

// Broker - event bus.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.vegaprotocol.io/marketupdates/proposer Broker,Timelock
type Broker interface {
	Send(event events.Event)
}

// Timelock queues the actions of the proposals and executes them once the
// delay has passed.
type Timelock interface {
	Address() common.Address
	Delay() time.Duration
	GracePeriod() time.Duration
	IsQueued(ctx context.Context, hash common.Hash) (bool, error)
	QueueTransaction(ctx context.Context, sender common.Address, call types.Call, eta uint64) (common.Hash, error)
	ExecuteTransaction(ctx context.Context, sender common.Address, call types.Call, eta uint64) ([]byte, error)
	CancelTransaction(ctx context.Context, sender common.Address, call types.Call, eta uint64) (common.Hash, error)
}

// TimeService provides the current block time.
type TimeService interface {
	GetTimeNow() time.Time
}

// Proposer is the surface of the market admin multisig. It turns batches
// of calls into proposals, queues all of them in the timelock at once, and
// executes or cancels them as a whole.
type Proposer struct {
	Config
	log         *logging.Logger
	store       *state.Store
	broker      Broker
	timelock    Timelock
	timeService TimeService

	address common.Address
}

func New(
	ctx context.Context,
	log *logging.Logger,
	config Config,
	store *state.Store,
	broker Broker,
	timelock Timelock,
	timeService TimeService,
	address, governor, marketAdmin, pauseGuardian common.Address,
) (*Proposer, error) {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	for field, addr := range map[string]common.Address{
		roleGovernor:      governor,
		roleMarketAdmin:   marketAdmin,
		rolePauseGuardian: pauseGuardian,
		"timelock":        timelock.Address(),
	} {
		if err := types.RequireAddress(field, addr); err != nil {
			return nil, err
		}
	}

	p := &Proposer{
		Config:      config,
		log:         log,
		store:       store,
		broker:      broker,
		timelock:    timelock,
		timeService: timeService,
		address:     address,
	}

	_, err := store.InitOnce(ctx, address, func(ctx context.Context) error {
		for role, addr := range map[string]common.Address{
			roleGovernor:      governor,
			roleMarketAdmin:   marketAdmin,
			rolePauseGuardian: pauseGuardian,
		} {
			if err := store.Put(ctx, p.key(role), addr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ReloadConf updates the internal configuration.
func (p *Proposer) ReloadConf(cfg Config) {
	p.log.Info("reloading configuration")
	if p.log.GetLevel() != cfg.Level.Get() {
		p.log.Info("updating log level",
			logging.String("old", p.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		p.log.SetLevel(cfg.Level.Get())
	}
	p.Config = cfg
}

func (p *Proposer) key(field string, sub ...[]byte) []byte {
	return state.Key(p.address, field, sub...)
}

func (p *Proposer) send(ctx context.Context, evt events.Event) {
	p.store.AfterCommit(ctx, func() { p.broker.Send(evt) })
}

func (p *Proposer) Address() common.Address {
	return p.address
}

func (p *Proposer) Timelock() common.Address {
	return p.timelock.Address()
}

func (p *Proposer) Governor(ctx context.Context) (common.Address, error) {
	return p.store.GetAddress(ctx, p.key(roleGovernor))
}

func (p *Proposer) MarketAdmin(ctx context.Context) (common.Address, error) {
	return p.store.GetAddress(ctx, p.key(roleMarketAdmin))
}

func (p *Proposer) PauseGuardian(ctx context.Context) (common.Address, error) {
	return p.store.GetAddress(ctx, p.key(rolePauseGuardian))
}

// ProposalCount returns the id of the last proposal, 0 if none.
func (p *Proposer) ProposalCount(ctx context.Context) (uint64, error) {
	return p.store.GetUint64(ctx, p.key("proposalCount"))
}

func (p *Proposer) GetProposal(ctx context.Context, id uint64) (types.Proposal, error) {
	var proposal types.Proposal
	ok, err := p.store.Get(ctx, p.key("proposals", state.Uint64Key(id)), &proposal)
	if err != nil {
		return types.Proposal{}, err
	}
	if !ok {
		return types.Proposal{}, errors.Wrapf(ErrInvalidProposalID, "%d", id)
	}
	return proposal, nil
}

// State derives the state of the proposal at the current block time.
func (p *Proposer) State(ctx context.Context, id uint64) (types.ProposalState, error) {
	proposal, err := p.GetProposal(ctx, id)
	if err != nil {
		return 0, err
	}
	return proposal.StateAt(p.timeService.GetTimeNow(), p.timelock.GracePeriod()), nil
}

// Propose creates a proposal and queues every one of its actions in the
// timelock. Either all the actions are queued or the proposal isn't
// created.
func (p *Proposer) Propose(
	ctx context.Context,
	sender common.Address,
	targets []common.Address,
	values []*uint256.Int,
	signatures []string,
	calldatas [][]byte,
	description string,
) (uint64, error) {
	var id uint64
	err := p.store.Atomic(ctx, func(ctx context.Context) error {
		admin, err := p.MarketAdmin(ctx)
		if err != nil {
			return err
		}
		if sender != admin {
			return types.Unauthorized("propose", "market admin")
		}

		if err := p.validateActions(targets, values, signatures, calldatas); err != nil {
			return err
		}

		count, err := p.ProposalCount(ctx)
		if err != nil {
			return err
		}
		id = count + 1

		proposal := types.Proposal{
			ID:          id,
			Proposer:    sender,
			Targets:     append([]common.Address{}, targets...),
			Values:      make([]*uint256.Int, 0, len(values)),
			Signatures:  append([]string{}, signatures...),
			Calldatas:   make([][]byte, 0, len(calldatas)),
			Description: description,
			ETA:         types.Unix(p.timeService.GetTimeNow().Add(p.timelock.Delay())),
		}
		for i := range targets {
			proposal.Values = append(proposal.Values, types.Call{Value: values[i]}.ValueOrZero().Clone())
			proposal.Calldatas = append(proposal.Calldatas, common.CopyBytes(calldatas[i]))
		}

		for i, call := range proposal.Calls() {
			hash := crypto.TransactionHash(call.Target, call.Value, call.Signature, call.Data, proposal.ETA)
			queued, err := p.timelock.IsQueued(ctx, hash)
			if err != nil {
				return err
			}
			if queued {
				return errors.Wrapf(ErrActionAlreadyQueued, "action %d: %s", i, hash.Hex())
			}
			if _, err := p.timelock.QueueTransaction(ctx, p.address, call, proposal.ETA); err != nil {
				return err
			}
		}

		if err := p.store.Put(ctx, p.key("proposals", state.Uint64Key(id)), &proposal); err != nil {
			return err
		}
		if err := p.store.Put(ctx, p.key("proposalCount"), id); err != nil {
			return err
		}

		p.log.Info("proposal created",
			logging.ProposalID(id),
			logging.Address("proposer", sender),
			logging.Int("actions", len(targets)),
			logging.Uint64("eta", proposal.ETA),
		)
		p.send(ctx, events.NewProposalCreatedEvent(ctx, proposal))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (p *Proposer) validateActions(targets []common.Address, values []*uint256.Int, signatures []string, calldatas [][]byte) error {
	n := len(targets)
	if len(values) != n || len(signatures) != n || len(calldatas) != n {
		return errors.Wrapf(ErrArityMismatch, "%d targets, %d values, %d signatures, %d calldatas",
			n, len(values), len(signatures), len(calldatas))
	}
	if n == 0 {
		return ErrNoActions
	}
	if p.MaxOperations > 0 && n > p.MaxOperations {
		return errors.Wrapf(ErrTooManyActions, "got %d, maximum is %d", n, p.MaxOperations)
	}

	// two identical actions would share the same timelock entry
	seen := make(map[common.Hash]int, n)
	for i := range targets {
		h := crypto.TransactionHash(targets[i], values[i], signatures[i], calldatas[i], 0)
		if j, ok := seen[h]; ok {
			return errors.Wrapf(ErrDuplicateAction, "actions %d and %d", j, i)
		}
		seen[h] = i
	}
	return nil
}

// Execute runs every action of the proposal through the timelock, in
// order. If any of them fails, none of them is applied.
func (p *Proposer) Execute(ctx context.Context, sender common.Address, id uint64) error {
	return p.store.Atomic(ctx, func(ctx context.Context) error {
		admin, err := p.MarketAdmin(ctx)
		if err != nil {
			return err
		}
		if sender != admin {
			return types.Unauthorized("execute", "market admin")
		}

		proposal, err := p.GetProposal(ctx, id)
		if err != nil {
			return err
		}
		if st := proposal.StateAt(p.timeService.GetTimeNow(), p.timelock.GracePeriod()); st != types.ProposalStateQueued {
			return errors.Wrapf(ErrProposalNotQueued, "proposal %d is %s", id, st)
		}

		for i, call := range proposal.Calls() {
			if _, err := p.timelock.ExecuteTransaction(ctx, p.address, call, proposal.ETA); err != nil {
				return errors.Wrapf(err, "action %d of proposal %d", i, id)
			}
		}

		proposal.Executed = true
		if err := p.store.Put(ctx, p.key("proposals", state.Uint64Key(id)), &proposal); err != nil {
			return err
		}

		p.log.Info("proposal executed", logging.ProposalID(id))
		p.send(ctx, events.NewProposalExecutedEvent(ctx, id, sender))
		return nil
	})
}

// Cancel drops every action of the proposal from the timelock. The market
// admin, the pause guardian and the governor can all cancel.
func (p *Proposer) Cancel(ctx context.Context, sender common.Address, id uint64) error {
	return p.store.Atomic(ctx, func(ctx context.Context) error {
		if err := p.onlyCancelers(ctx, sender); err != nil {
			return err
		}

		proposal, err := p.GetProposal(ctx, id)
		if err != nil {
			return err
		}
		if st := proposal.StateAt(p.timeService.GetTimeNow(), p.timelock.GracePeriod()); st.IsTerminal() {
			return errors.Wrapf(ErrProposalTerminal, "proposal %d is %s", id, st)
		}

		for _, call := range proposal.Calls() {
			if _, err := p.timelock.CancelTransaction(ctx, p.address, call, proposal.ETA); err != nil {
				return err
			}
		}

		proposal.Canceled = true
		if err := p.store.Put(ctx, p.key("proposals", state.Uint64Key(id)), &proposal); err != nil {
			return err
		}

		p.log.Info("proposal canceled",
			logging.ProposalID(id),
			logging.Address("sender", sender),
		)
		p.send(ctx, events.NewProposalCanceledEvent(ctx, id, sender))
		return nil
	})
}

func (p *Proposer) onlyCancelers(ctx context.Context, sender common.Address) error {
	for _, role := range []string{roleMarketAdmin, rolePauseGuardian, roleGovernor} {
		addr, err := p.store.GetAddress(ctx, p.key(role))
		if err != nil {
			return err
		}
		if sender == addr {
			return nil
		}
	}
	return types.Unauthorized("cancel", "market admin, pause guardian or governor")
}

func (p *Proposer) SetGovernor(ctx context.Context, sender, governor common.Address) error {
	return p.setRole(ctx, "setGovernor", roleGovernor, sender, governor)
}

func (p *Proposer) SetMarketAdmin(ctx context.Context, sender, marketAdmin common.Address) error {
	return p.setRole(ctx, "setMarketAdmin", roleMarketAdmin, sender, marketAdmin)
}

func (p *Proposer) SetPauseGuardian(ctx context.Context, sender, pauseGuardian common.Address) error {
	return p.setRole(ctx, "setPauseGuardian", rolePauseGuardian, sender, pauseGuardian)
}

func (p *Proposer) setRole(ctx context.Context, operation, role string, sender, addr common.Address) error {
	return p.store.Atomic(ctx, func(ctx context.Context) error {
		governor, err := p.Governor(ctx)
		if err != nil {
			return err
		}
		if sender != governor {
			return types.Unauthorized(operation, "governor")
		}
		if err := types.RequireAddress(role, addr); err != nil {
			return err
		}
		old, err := p.store.GetAddress(ctx, p.key(role))
		if err != nil {
			return err
		}
		if err := p.store.Put(ctx, p.key(role), addr); err != nil {
			return err
		}
		p.log.Info("role updated",
			logging.String("role", role),
			logging.Address("old", old),
			logging.Address("new", addr),
		)
		p.send(ctx, events.NewRoleUpdatedEvent(ctx, p.address, role, old, addr))
		return nil
	})
}
