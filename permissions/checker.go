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

package permissions

import (
	"context"

	"code.vegaprotocol.io/marketupdates/events"
	"code.vegaprotocol.io/marketupdates/libs/calldata"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/metrics"
	"code.vegaprotocol.io/marketupdates/state"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
)

const (
	roleOwner                    = "owner"
	roleMarketAdmin              = "marketAdmin"
	roleMarketAdminPauseGuardian = "marketAdminPauseGuardian"
)

// Broker - event bus.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.vegaprotocol.io/marketupdates/permissions Broker
type Broker interface {
	Send(event events.Event)
}

// Checker is the capability gate of the market admin. It knows exactly one
// market admin and can halt it with a pause flag. The owner is the root
// governor, it is not itself granted the market admin capability.
type Checker struct {
	Config
	log     *logging.Logger
	store   *state.Store
	broker  Broker
	address common.Address

	dispatcher *calldata.Dispatcher
}

func New(
	ctx context.Context,
	log *logging.Logger,
	config Config,
	store *state.Store,
	broker Broker,
	address common.Address,
	owner, marketAdmin, marketAdminPauseGuardian common.Address,
) (*Checker, error) {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	if err := types.RequireAddress(roleOwner, owner); err != nil {
		return nil, err
	}

	c := &Checker{
		Config:  config,
		log:     log,
		store:   store,
		broker:  broker,
		address: address,
	}
	c.dispatcher = c.newDispatcher()

	_, err := store.InitOnce(ctx, address, func(ctx context.Context) error {
		if err := c.store.Put(ctx, c.key(roleOwner), owner); err != nil {
			return err
		}
		if err := c.store.Put(ctx, c.key(roleMarketAdmin), marketAdmin); err != nil {
			return err
		}
		return c.store.Put(ctx, c.key(roleMarketAdminPauseGuardian), marketAdminPauseGuardian)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ReloadConf updates the internal configuration.
func (c *Checker) ReloadConf(cfg Config) {
	c.log.Info("reloading configuration")
	if c.log.GetLevel() != cfg.Level.Get() {
		c.log.Info("updating log level",
			logging.String("old", c.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		c.log.SetLevel(cfg.Level.Get())
	}
	c.Config = cfg
}

func (c *Checker) Address() common.Address {
	return c.address
}

func (c *Checker) key(field string) []byte {
	return state.Key(c.address, field)
}

func (c *Checker) Owner(ctx context.Context) (common.Address, error) {
	return c.store.GetAddress(ctx, c.key(roleOwner))
}

func (c *Checker) MarketAdmin(ctx context.Context) (common.Address, error) {
	return c.store.GetAddress(ctx, c.key(roleMarketAdmin))
}

func (c *Checker) MarketAdminPauseGuardian(ctx context.Context) (common.Address, error) {
	return c.store.GetAddress(ctx, c.key(roleMarketAdminPauseGuardian))
}

func (c *Checker) MarketAdminPaused(ctx context.Context) (bool, error) {
	return c.store.GetBool(ctx, c.key("marketAdminPaused"))
}

// CheckUpdatePermission fails unless caller is the market admin and the
// market admin is not paused. The owner gets no pass here.
func (c *Checker) CheckUpdatePermission(ctx context.Context, caller common.Address) error {
	admin, err := c.MarketAdmin(ctx)
	if err != nil {
		return err
	}
	if admin == (common.Address{}) || caller != admin {
		c.log.Debug("update permission denied",
			logging.Address("caller", caller),
			logging.Address("market-admin", admin),
		)
		metrics.PermissionCheckInc("unauthorized")
		return types.Unauthorized("checkUpdatePermission", "market admin")
	}
	paused, err := c.MarketAdminPaused(ctx)
	if err != nil {
		return err
	}
	if paused {
		metrics.PermissionCheckInc("paused")
		return types.ErrMarketAdminIsPaused
	}
	c.store.AfterCommit(ctx, func() { metrics.PermissionCheckInc("granted") })
	return nil
}

func (c *Checker) onlyOwner(ctx context.Context, operation string, sender common.Address) error {
	owner, err := c.Owner(ctx)
	if err != nil {
		return err
	}
	if owner == (common.Address{}) || sender != owner {
		return types.Unauthorized(operation, "owner")
	}
	return nil
}

func (c *Checker) TransferOwnership(ctx context.Context, sender, newOwner common.Address) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		if err := c.onlyOwner(ctx, "transferOwnership", sender); err != nil {
			return err
		}
		if err := types.RequireAddress(roleOwner, newOwner); err != nil {
			return err
		}
		return c.setRole(ctx, roleOwner, newOwner)
	})
}

// RenounceOwnership leaves the checker without owner, nobody can change the
// market admin or unpause it afterwards.
func (c *Checker) RenounceOwnership(ctx context.Context, sender common.Address) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		if err := c.onlyOwner(ctx, "renounceOwnership", sender); err != nil {
			return err
		}
		return c.setRole(ctx, roleOwner, common.Address{})
	})
}

func (c *Checker) SetMarketAdmin(ctx context.Context, sender, admin common.Address) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		if err := c.onlyOwner(ctx, "setMarketAdmin", sender); err != nil {
			return err
		}
		if err := types.RequireAddress(roleMarketAdmin, admin); err != nil {
			return err
		}
		return c.setRole(ctx, roleMarketAdmin, admin)
	})
}

func (c *Checker) SetMarketAdminPauseGuardian(ctx context.Context, sender, guardian common.Address) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		if err := c.onlyOwner(ctx, "setMarketAdminPauseGuardian", sender); err != nil {
			return err
		}
		if err := types.RequireAddress(roleMarketAdminPauseGuardian, guardian); err != nil {
			return err
		}
		return c.setRole(ctx, roleMarketAdminPauseGuardian, guardian)
	})
}

// PauseMarketAdmin can be called by the owner or the pause guardian.
func (c *Checker) PauseMarketAdmin(ctx context.Context, sender common.Address) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		owner, err := c.Owner(ctx)
		if err != nil {
			return err
		}
		guardian, err := c.MarketAdminPauseGuardian(ctx)
		if err != nil {
			return err
		}
		zero := common.Address{}
		if !(sender != zero && (sender == owner || sender == guardian)) {
			return types.Unauthorized("pauseMarketAdmin", "owner or market admin pause guardian")
		}
		return c.setPaused(ctx, sender, true)
	})
}

// UnpauseMarketAdmin can only be called by the owner.
func (c *Checker) UnpauseMarketAdmin(ctx context.Context, sender common.Address) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		if err := c.onlyOwner(ctx, "unpauseMarketAdmin", sender); err != nil {
			return err
		}
		return c.setPaused(ctx, sender, false)
	})
}

func (c *Checker) setRole(ctx context.Context, role string, addr common.Address) error {
	old, err := c.store.GetAddress(ctx, c.key(role))
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, c.key(role), addr); err != nil {
		return err
	}
	c.log.Info("role updated",
		logging.String("role", role),
		logging.Address("old", old),
		logging.Address("new", addr),
	)
	evt := events.NewRoleUpdatedEvent(ctx, c.address, role, old, addr)
	c.store.AfterCommit(ctx, func() { c.broker.Send(evt) })
	return nil
}

func (c *Checker) setPaused(ctx context.Context, sender common.Address, paused bool) error {
	if err := c.store.Put(ctx, c.key("marketAdminPaused"), paused); err != nil {
		return err
	}
	c.log.Info("market admin pause updated",
		logging.Address("sender", sender),
		logging.Bool("paused", paused),
	)
	evt := events.NewMarketAdminPausedEvent(ctx, c.address, sender, paused)
	c.store.AfterCommit(ctx, func() { c.broker.Send(evt) })
	return nil
}
