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

package configurator

import (
	"context"

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
	ErrAssetDoesNotExist          = errors.New("asset does not exist")
	ErrAssetAlreadyExists         = errors.New("asset already exists")
	ErrConfigurationAlreadyExists = errors.New("configuration already exists")
	ErrConfigurationNotSet        = errors.New("configuration not set")
	ErrFactoryNotSet              = errors.New("factory not set")
)

const (
	roleGovernor                 = "governor"
	roleMarketAdmin              = "marketAdmin"
	roleMarketAdminPauseGuardian = "marketAdminPauseGuardian"
)

// Broker - event bus.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.vegaprotocol.io/marketupdates/configurator Broker
type Broker interface {
	Send(event events.Event)
}

// Configurator keeps the configuration every market implementation is
// deployed from. The governor can change everything, the market admin only
// the market parameters, and only while not paused. The market admin and
// its pause flag are kept here, apart from the permission checker.
type Configurator struct {
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
	address, governor, marketAdmin, marketAdminPauseGuardian common.Address,
) (*Configurator, error) {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	if err := types.RequireAddress(roleGovernor, governor); err != nil {
		return nil, err
	}

	c := &Configurator{
		Config:  config,
		log:     log,
		store:   store,
		broker:  broker,
		address: address,
	}
	c.dispatcher = c.newDispatcher()

	_, err := store.InitOnce(ctx, address, func(ctx context.Context) error {
		for role, addr := range map[string]common.Address{
			roleGovernor:                 governor,
			roleMarketAdmin:              marketAdmin,
			roleMarketAdminPauseGuardian: marketAdminPauseGuardian,
		} {
			if err := store.Put(ctx, c.key(role), addr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ReloadConf updates the internal configuration.
func (c *Configurator) ReloadConf(cfg Config) {
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

func (c *Configurator) Address() common.Address {
	return c.address
}

func (c *Configurator) key(field string, sub ...[]byte) []byte {
	return state.Key(c.address, field, sub...)
}

func (c *Configurator) send(ctx context.Context, evt events.Event) {
	c.store.AfterCommit(ctx, func() { c.broker.Send(evt) })
}

func (c *Configurator) Governor(ctx context.Context) (common.Address, error) {
	return c.store.GetAddress(ctx, c.key(roleGovernor))
}

func (c *Configurator) MarketAdmin(ctx context.Context) (common.Address, error) {
	return c.store.GetAddress(ctx, c.key(roleMarketAdmin))
}

func (c *Configurator) MarketAdminPauseGuardian(ctx context.Context) (common.Address, error) {
	return c.store.GetAddress(ctx, c.key(roleMarketAdminPauseGuardian))
}

func (c *Configurator) MarketAdminPaused(ctx context.Context) (bool, error) {
	return c.store.GetBool(ctx, c.key("marketAdminPaused"))
}

func (c *Configurator) onlyGovernor(ctx context.Context, operation string, sender common.Address) error {
	governor, err := c.Governor(ctx)
	if err != nil {
		return err
	}
	if sender != governor {
		return types.Unauthorized(operation, "governor")
	}
	return nil
}

// governorOrMarketAdmin lets the governor through unconditionally, and the
// local market admin as long as it is not paused here.
func (c *Configurator) governorOrMarketAdmin(ctx context.Context, operation string, sender common.Address) error {
	governor, err := c.Governor(ctx)
	if err != nil {
		return err
	}
	if sender == governor {
		return nil
	}
	admin, err := c.MarketAdmin(ctx)
	if err != nil {
		return err
	}
	if admin == (common.Address{}) || sender != admin {
		return types.Unauthorized(operation, "governor or market admin")
	}
	paused, err := c.MarketAdminPaused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return errors.Wrap(types.ErrMarketAdminIsPaused, operation)
	}
	return nil
}

// TransferGovernor hands the configurator over to a new governor.
func (c *Configurator) TransferGovernor(ctx context.Context, sender, governor common.Address) error {
	return c.setRole(ctx, "transferGovernor", roleGovernor, sender, governor)
}

func (c *Configurator) SetMarketAdmin(ctx context.Context, sender, admin common.Address) error {
	return c.setRole(ctx, "setMarketAdmin", roleMarketAdmin, sender, admin)
}

func (c *Configurator) SetMarketAdminPauseGuardian(ctx context.Context, sender, guardian common.Address) error {
	return c.setRole(ctx, "setMarketAdminPauseGuardian", roleMarketAdminPauseGuardian, sender, guardian)
}

func (c *Configurator) setRole(ctx context.Context, operation, role string, sender, addr common.Address) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		if err := c.onlyGovernor(ctx, operation, sender); err != nil {
			return err
		}
		if err := types.RequireAddress(role, addr); err != nil {
			return err
		}
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
		c.send(ctx, events.NewRoleUpdatedEvent(ctx, c.address, role, old, addr))
		return nil
	})
}

// PauseMarketAdmin halts the market admin on this configurator only. It
// can be called by the governor or the local pause guardian.
func (c *Configurator) PauseMarketAdmin(ctx context.Context, sender common.Address) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		governor, err := c.Governor(ctx)
		if err != nil {
			return err
		}
		guardian, err := c.MarketAdminPauseGuardian(ctx)
		if err != nil {
			return err
		}
		if sender != governor && (guardian == (common.Address{}) || sender != guardian) {
			return types.Unauthorized("pauseMarketAdmin", "governor or market admin pause guardian")
		}
		return c.setPaused(ctx, sender, true)
	})
}

func (c *Configurator) UnpauseMarketAdmin(ctx context.Context, sender common.Address) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		if err := c.onlyGovernor(ctx, "unpauseMarketAdmin", sender); err != nil {
			return err
		}
		return c.setPaused(ctx, sender, false)
	})
}

func (c *Configurator) setPaused(ctx context.Context, sender common.Address, paused bool) error {
	if err := c.store.Put(ctx, c.key("marketAdminPaused"), paused); err != nil {
		return err
	}
	c.log.Info("market admin pause updated",
		logging.Address("sender", sender),
		logging.Bool("paused", paused),
	)
	c.send(ctx, events.NewMarketAdminPausedEvent(ctx, c.address, sender, paused))
	return nil
}

func (c *Configurator) Factory(ctx context.Context, cometProxy common.Address) (common.Address, error) {
	return c.store.GetAddress(ctx, c.key("factory", cometProxy.Bytes()))
}

func (c *Configurator) SetFactory(ctx context.Context, sender, cometProxy, factory common.Address) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		if err := c.onlyGovernor(ctx, "setFactory", sender); err != nil {
			return err
		}
		if err := types.RequireAddress("factory", factory); err != nil {
			return err
		}
		old, err := c.Factory(ctx, cometProxy)
		if err != nil {
			return err
		}
		if err := c.store.Put(ctx, c.key("factory", cometProxy.Bytes()), factory); err != nil {
			return err
		}
		c.updated(ctx, cometProxy, sender, "factory", old.Hex(), factory.Hex())
		return nil
	})
}

// GetConfiguration returns the configuration of the market, which is empty
// if it was never set.
func (c *Configurator) GetConfiguration(ctx context.Context, cometProxy common.Address) (types.Configuration, error) {
	var cfg types.Configuration
	if _, err := c.store.Get(ctx, c.key("configuration", cometProxy.Bytes()), &cfg); err != nil {
		return types.Configuration{}, err
	}
	return cfg, nil
}

// SetConfiguration sets the whole configuration of a market. Once set, the
// base token and the tracking index scale of a market can't be changed.
func (c *Configurator) SetConfiguration(ctx context.Context, sender, cometProxy common.Address, cfg types.Configuration) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		if err := c.onlyGovernor(ctx, "setConfiguration", sender); err != nil {
			return err
		}
		if err := types.RequireAddress("baseToken", cfg.BaseToken); err != nil {
			return err
		}
		old, err := c.GetConfiguration(ctx, cometProxy)
		if err != nil {
			return err
		}
		if old.IsSet() && (old.BaseToken != cfg.BaseToken || old.TrackingIndexScale != cfg.TrackingIndexScale) {
			return errors.Wrap(ErrConfigurationAlreadyExists, cometProxy.Hex())
		}
		if err := c.putConfiguration(ctx, cometProxy, cfg.Clone()); err != nil {
			return err
		}
		c.updated(ctx, cometProxy, sender, "configuration", old.BaseToken.Hex(), cfg.BaseToken.Hex())
		return nil
	})
}

func (c *Configurator) putConfiguration(ctx context.Context, cometProxy common.Address, cfg types.Configuration) error {
	return c.store.Put(ctx, c.key("configuration", cometProxy.Bytes()), &cfg)
}

// update loads the configuration of the market, applies fn to it and
// stores it back. fn returns the rendered old and new values.
func (c *Configurator) update(
	ctx context.Context,
	operation, parameter string,
	gate func(context.Context, string, common.Address) error,
	sender, cometProxy common.Address,
	fn func(cfg *types.Configuration) (string, string, error),
) error {
	return c.store.Atomic(ctx, func(ctx context.Context) error {
		if err := gate(ctx, operation, sender); err != nil {
			return err
		}
		cfg, err := c.GetConfiguration(ctx, cometProxy)
		if err != nil {
			return err
		}
		if !cfg.IsSet() {
			return errors.Wrap(ErrConfigurationNotSet, cometProxy.Hex())
		}
		old, updated, err := fn(&cfg)
		if err != nil {
			return err
		}
		if err := c.putConfiguration(ctx, cometProxy, cfg); err != nil {
			return err
		}
		c.updated(ctx, cometProxy, sender, parameter, old, updated)
		return nil
	})
}

func (c *Configurator) updated(ctx context.Context, cometProxy, sender common.Address, parameter, old, updated string) {
	c.log.Info("configuration updated",
		logging.Address("comet-proxy", cometProxy),
		logging.Address("sender", sender),
		logging.String("parameter", parameter),
		logging.String("old", old),
		logging.String("new", updated),
	)
	c.send(ctx, events.NewConfigurationUpdatedEvent(ctx, cometProxy, sender, parameter, old, updated))
}

// Deploy builds a new market implementation from the current configuration
// of the market and returns its address. Anyone can deploy.
func (c *Configurator) Deploy(ctx context.Context, sender, cometProxy common.Address) (common.Address, error) {
	var impl common.Address
	err := c.store.Atomic(ctx, func(ctx context.Context) error {
		cfg, err := c.GetConfiguration(ctx, cometProxy)
		if err != nil {
			return err
		}
		if !cfg.IsSet() {
			return errors.Wrap(ErrConfigurationNotSet, cometProxy.Hex())
		}
		factory, err := c.Factory(ctx, cometProxy)
		if err != nil {
			return err
		}
		if factory == (common.Address{}) {
			return errors.Wrap(ErrFactoryNotSet, cometProxy.Hex())
		}

		nonceKey := c.key("nonce", factory.Bytes())
		nonce, err := c.store.GetUint64(ctx, nonceKey)
		if err != nil {
			return err
		}
		impl = crypto.ContractAddress(factory, nonce)
		if err := c.store.Put(ctx, nonceKey, nonce+1); err != nil {
			return err
		}
		if err := c.store.Put(ctx, c.key("deployed", impl.Bytes()), &cfg); err != nil {
			return err
		}

		c.log.Info("market implementation deployed",
			logging.Address("comet-proxy", cometProxy),
			logging.Address("implementation", impl),
			logging.Address("sender", sender),
		)
		c.send(ctx, events.NewCometDeployedEvent(ctx, cometProxy, impl))
		return nil
	})
	if err != nil {
		return common.Address{}, err
	}
	return impl, nil
}

// DeployedConfiguration returns the configuration an implementation was
// deployed with.
func (c *Configurator) DeployedConfiguration(ctx context.Context, impl common.Address) (types.Configuration, bool, error) {
	var cfg types.Configuration
	ok, err := c.store.Get(ctx, c.key("deployed", impl.Bytes()), &cfg)
	return cfg, ok, err
}
