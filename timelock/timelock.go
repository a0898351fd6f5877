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

package timelock

import (
	"context"
	"fmt"
	"time"

	"code.vegaprotocol.io/marketupdates/events"
	"code.vegaprotocol.io/marketupdates/libs/calldata"
	"code.vegaprotocol.io/marketupdates/libs/crypto"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/state"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	ErrTransactionNotQueued = errors.New("transaction hasn't been queued")
	ErrTimelockNotSurpassed = errors.New("transaction hasn't surpassed time lock")
	ErrTransactionStale     = errors.New("transaction is stale")
	ErrETABeforeDelay       = errors.New("estimated execution block must satisfy delay")
	ErrDelayOutOfRange      = errors.New("delay must be within the minimum and maximum delay")
	ErrExecutionReverted    = errors.New("transaction execution reverted")
)

// ExecutionError is returned when the target of an executed transaction
// fails. It matches ErrExecutionReverted and unwraps to the target error.
type ExecutionError struct {
	Call types.Call
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExecutionReverted.Error(), e.Call.String(), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecutionReverted
}

// Broker - event bus.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.vegaprotocol.io/marketupdates/timelock Broker,Ledger
type Broker interface {
	Send(event events.Event)
}

// Ledger delivers the executed transactions to their target.
type Ledger interface {
	Call(ctx context.Context, msg types.Message) ([]byte, error)
}

// TimeService provides the current block time.
type TimeService interface {
	GetTimeNow() time.Time
}

// Timelock queues calls and executes them once their ETA is reached, within
// the grace period. It only takes orders from the market update proposer,
// and its own address is the one the downstream contracts see as market
// admin.
type Timelock struct {
	Config
	log         *logging.Logger
	store       *state.Store
	broker      Broker
	ledger      Ledger
	timeService TimeService

	address common.Address
	delay   time.Duration
}

func New(
	ctx context.Context,
	log *logging.Logger,
	config Config,
	store *state.Store,
	broker Broker,
	ledger Ledger,
	timeService TimeService,
	address, governor, marketUpdateProposer common.Address,
	delay time.Duration,
) (*Timelock, error) {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	if delay < MinimumDelay || delay > MaximumDelay {
		return nil, errors.Wrapf(ErrDelayOutOfRange, "got %s, expected [%s, %s]", delay, MinimumDelay, MaximumDelay)
	}
	if delay%time.Second != 0 {
		return nil, errors.Wrapf(ErrDelayOutOfRange, "%s is not a whole number of seconds", delay)
	}
	if err := types.RequireAddress("governor", governor); err != nil {
		return nil, err
	}

	t := &Timelock{
		Config:      config,
		log:         log,
		store:       store,
		broker:      broker,
		ledger:      ledger,
		timeService: timeService,
		address:     address,
		delay:       delay,
	}

	_, err := store.InitOnce(ctx, address, func(ctx context.Context) error {
		if err := store.Put(ctx, t.key(roleGovernor), governor); err != nil {
			return err
		}
		return store.Put(ctx, t.key(roleMarketUpdateProposer), marketUpdateProposer)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

const (
	roleGovernor             = "governor"
	roleMarketUpdateProposer = "marketUpdateProposer"
)

// ReloadConf updates the internal configuration.
func (t *Timelock) ReloadConf(cfg Config) {
	t.log.Info("reloading configuration")
	if t.log.GetLevel() != cfg.Level.Get() {
		t.log.Info("updating log level",
			logging.String("old", t.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		t.log.SetLevel(cfg.Level.Get())
	}
	t.Config = cfg
}

func (t *Timelock) key(field string, sub ...[]byte) []byte {
	return state.Key(t.address, field, sub...)
}

func (t *Timelock) Address() common.Address {
	return t.address
}

func (t *Timelock) Delay() time.Duration {
	return t.delay
}

func (t *Timelock) GracePeriod() time.Duration {
	return GracePeriod
}

func (t *Timelock) Governor(ctx context.Context) (common.Address, error) {
	return t.store.GetAddress(ctx, t.key(roleGovernor))
}

func (t *Timelock) MarketUpdateProposer(ctx context.Context) (common.Address, error) {
	return t.store.GetAddress(ctx, t.key(roleMarketUpdateProposer))
}

// IsQueued tells whether the transaction with the given hash is pending.
func (t *Timelock) IsQueued(ctx context.Context, hash common.Hash) (bool, error) {
	return t.store.Has(ctx, t.key("queued", hash.Bytes()))
}

func (t *Timelock) SetGovernor(ctx context.Context, sender, governor common.Address) error {
	return t.setRole(ctx, "setGovernor", roleGovernor, sender, governor)
}

// SetMarketUpdateProposer rotates the only caller the timelock accepts
// transactions from.
func (t *Timelock) SetMarketUpdateProposer(ctx context.Context, sender, proposer common.Address) error {
	return t.setRole(ctx, "setMarketUpdateProposer", roleMarketUpdateProposer, sender, proposer)
}

func (t *Timelock) setRole(ctx context.Context, operation, role string, sender, addr common.Address) error {
	return t.store.Atomic(ctx, func(ctx context.Context) error {
		governor, err := t.Governor(ctx)
		if err != nil {
			return err
		}
		if sender != governor {
			return types.Unauthorized(operation, "governor")
		}
		if err := types.RequireAddress(role, addr); err != nil {
			return err
		}
		old, err := t.store.GetAddress(ctx, t.key(role))
		if err != nil {
			return err
		}
		if err := t.store.Put(ctx, t.key(role), addr); err != nil {
			return err
		}
		t.log.Info("role updated",
			logging.String("role", role),
			logging.Address("old", old),
			logging.Address("new", addr),
		)
		t.send(ctx, events.NewRoleUpdatedEvent(ctx, t.address, role, old, addr))
		return nil
	})
}

func (t *Timelock) onlyProposer(ctx context.Context, operation string, sender common.Address) error {
	proposer, err := t.MarketUpdateProposer(ctx)
	if err != nil {
		return err
	}
	if proposer == (common.Address{}) || sender != proposer {
		return types.Unauthorized(operation, "market update proposer")
	}
	return nil
}

func (t *Timelock) send(ctx context.Context, evt events.Event) {
	t.store.AfterCommit(ctx, func() { t.broker.Send(evt) })
}

// QueueTransaction marks the call as pending until eta. Queueing the same
// transaction twice is a no-op.
func (t *Timelock) QueueTransaction(ctx context.Context, sender common.Address, call types.Call, eta uint64) (common.Hash, error) {
	var hash common.Hash
	err := t.store.Atomic(ctx, func(ctx context.Context) error {
		if err := t.onlyProposer(ctx, "queueTransaction", sender); err != nil {
			return err
		}
		earliest := types.Unix(t.timeService.GetTimeNow().Add(t.delay))
		if eta < earliest {
			return errors.Wrapf(ErrETABeforeDelay, "eta %d is before %d", eta, earliest)
		}

		hash = crypto.TransactionHash(call.Target, call.Value, call.Signature, call.Data, eta)
		key := t.key("queued", hash.Bytes())
		queued, err := t.store.Has(ctx, key)
		if err != nil || queued {
			return err
		}
		if err := t.store.Put(ctx, key, true); err != nil {
			return err
		}
		t.log.Debug("transaction queued",
			logging.Hash("hash", hash),
			logging.String("call", call.String()),
			logging.Uint64("eta", eta),
		)
		t.send(ctx, events.NewTransactionQueuedEvent(ctx, hash, call, eta))
		return nil
	})
	return hash, err
}

// CancelTransaction drops the transaction if it is still pending, whatever
// the time.
func (t *Timelock) CancelTransaction(ctx context.Context, sender common.Address, call types.Call, eta uint64) (common.Hash, error) {
	var hash common.Hash
	err := t.store.Atomic(ctx, func(ctx context.Context) error {
		if err := t.onlyProposer(ctx, "cancelTransaction", sender); err != nil {
			return err
		}
		hash = crypto.TransactionHash(call.Target, call.Value, call.Signature, call.Data, eta)
		key := t.key("queued", hash.Bytes())
		queued, err := t.store.Has(ctx, key)
		if err != nil || !queued {
			return err
		}
		if err := t.store.Delete(ctx, key); err != nil {
			return err
		}
		t.log.Debug("transaction canceled", logging.Hash("hash", hash))
		t.send(ctx, events.NewTransactionCanceledEvent(ctx, hash, call, eta))
		return nil
	})
	return hash, err
}

// ExecuteTransaction consumes a pending transaction and calls its target
// with the timelock as sender. It fails before eta and after the grace
// period, and if the target fails, in which case the transaction stays
// queued.
func (t *Timelock) ExecuteTransaction(ctx context.Context, sender common.Address, call types.Call, eta uint64) ([]byte, error) {
	var ret []byte
	err := t.store.Atomic(ctx, func(ctx context.Context) error {
		if err := t.onlyProposer(ctx, "executeTransaction", sender); err != nil {
			return err
		}
		hash := crypto.TransactionHash(call.Target, call.Value, call.Signature, call.Data, eta)
		key := t.key("queued", hash.Bytes())
		queued, err := t.store.Has(ctx, key)
		if err != nil {
			return err
		}
		if !queued {
			return errors.Wrap(ErrTransactionNotQueued, hash.Hex())
		}

		now := types.Unix(t.timeService.GetTimeNow())
		if now < eta {
			return errors.Wrapf(ErrTimelockNotSurpassed, "now %d, eta %d", now, eta)
		}
		if now > eta+uint64(GracePeriod/time.Second) {
			return errors.Wrapf(ErrTransactionStale, "now %d, eta %d", now, eta)
		}

		if err := t.store.Delete(ctx, key); err != nil {
			return err
		}
		ret, err = t.ledger.Call(ctx, types.Message{
			Sender: t.address,
			Target: call.Target,
			Value:  call.ValueOrZero(),
			Data:   calldata.Join(call.Signature, call.Data),
		})
		if err != nil {
			return &ExecutionError{Call: call, Err: err}
		}

		t.log.Debug("transaction executed",
			logging.Hash("hash", hash),
			logging.String("call", call.String()),
		)
		t.send(ctx, events.NewTransactionExecutedEvent(ctx, hash, call, eta))
		return nil
	})
	return ret, err
}
