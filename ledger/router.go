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

// Package ledger routes calls between contracts. Every call runs in its own
// state frame, so a failing call leaves no trace while its caller may still
// decide to fail or not.
package ledger

import (
	"context"
	"encoding/hex"
	"sync"

	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/metrics"
	"code.vegaprotocol.io/marketupdates/state"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	ErrNoContract     = errors.New("no contract at target address")
	ErrContractExists = errors.New("a contract is already registered at this address")
	ErrNonPayable     = errors.New("contract does not accept value")
)

// Callable is a contract reachable through the router.
type Callable interface {
	Address() common.Address
	Call(ctx context.Context, msg types.Message) ([]byte, error)
}

type Router struct {
	log   *logging.Logger
	store *state.Store

	mu        sync.RWMutex
	contracts map[common.Address]Callable
}

func New(log *logging.Logger, store *state.Store) *Router {
	return &Router{
		log:       log.Named("ledger"),
		store:     store,
		contracts: map[common.Address]Callable{},
	}
}

func (r *Router) Register(c Callable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	addr := c.Address()
	if err := types.RequireAddress("contract", addr); err != nil {
		return err
	}
	if _, ok := r.contracts[addr]; ok {
		return errors.Wrap(ErrContractExists, addr.Hex())
	}
	r.contracts[addr] = c
	r.log.Debug("contract registered", logging.Address("address", addr))
	return nil
}

func (r *Router) IsContract(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.contracts[addr]
	return ok
}

// Call invokes the target contract of the message in a child frame of ctx.
func (r *Router) Call(ctx context.Context, msg types.Message) ([]byte, error) {
	r.mu.RLock()
	c, ok := r.contracts[msg.Target]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrNoContract, msg.Target.Hex())
	}

	fn := "fallback"
	if len(msg.Data) >= 4 {
		fn = hex.EncodeToString(msg.Data[:4])
	}
	defer metrics.StartCallTimer(msg.Target.Hex(), fn)()

	var out []byte
	err := r.store.Atomic(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.Call(ctx, msg)
		return err
	})
	if err != nil {
		if r.log.GetLevel() == logging.DebugLevel {
			r.log.Debug("call reverted",
				logging.Address("sender", msg.Sender),
				logging.Address("target", msg.Target),
				logging.Error(err),
			)
		}
		return nil, err
	}
	return out, nil
}

// RequireNonPayable rejects messages carrying value.
func RequireNonPayable(msg types.Message) error {
	if msg.HasValue() {
		return errors.Wrapf(ErrNonPayable, "%s received %s", msg.Target.Hex(), msg.Value.Dec())
	}
	return nil
}
