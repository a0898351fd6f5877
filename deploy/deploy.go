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

// Package deploy wires the market updates governance track in process: the
// permission checker, the configurator, the timelock, the proposer and the
// proxy admin, with the timelock registered as market admin downstream.
package deploy

import (
	"context"
	"time"

	"code.vegaprotocol.io/marketupdates/configurator"
	"code.vegaprotocol.io/marketupdates/events"
	"code.vegaprotocol.io/marketupdates/ledger"
	"code.vegaprotocol.io/marketupdates/libs/crypto"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/permissions"
	"code.vegaprotocol.io/marketupdates/proposer"
	"code.vegaprotocol.io/marketupdates/proxyadmin"
	"code.vegaprotocol.io/marketupdates/state"
	"code.vegaprotocol.io/marketupdates/timelock"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Deployment order, the nonce each contract address is derived from.
const (
	nonceChecker uint64 = iota
	nonceConfigurator
	nonceTimelock
	nonceProposer
	nonceProxyAdmin
)

// Broker - event bus.
type Broker interface {
	Send(event events.Event)
}

// TimeService provides the block time to the timelock and the proposer.
type TimeService interface {
	GetTimeNow() time.Time
}

// Addresses of the deployed contracts.
type Addresses struct {
	PermissionChecker common.Address
	Configurator      common.Address
	Timelock          common.Address
	Proposer          common.Address
	ProxyAdmin        common.Address
}

// AddressesFor derives the contract addresses of a deployment.
func AddressesFor(deployer common.Address) Addresses {
	return Addresses{
		PermissionChecker: crypto.ContractAddress(deployer, nonceChecker),
		Configurator:      crypto.ContractAddress(deployer, nonceConfigurator),
		Timelock:          crypto.ContractAddress(deployer, nonceTimelock),
		Proposer:          crypto.ContractAddress(deployer, nonceProposer),
		ProxyAdmin:        crypto.ContractAddress(deployer, nonceProxyAdmin),
	}
}

type Deployment struct {
	Addresses
	Ledger       *ledger.Router
	Checker      *permissions.Checker
	Configurator *configurator.Configurator
	Timelock     *timelock.Timelock
	Proposer     *proposer.Proposer
	ProxyAdmin   *proxyadmin.ProxyAdmin

	log *logging.Logger
}

// New deploys every contract against the store. Deploying twice against the
// same store picks up the existing state.
func New(ctx context.Context, log *logging.Logger, cfg Config, store *state.Store, broker Broker, timeService TimeService) (*Deployment, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	var (
		addrs    = AddressesFor(cfg.Deployer.Get())
		governor = cfg.Governor.Get()
		router   = ledger.New(log, store)
		d        = &Deployment{Addresses: addrs, Ledger: router, log: log}
		err      error
	)

	d.Checker, err = permissions.New(ctx, log, cfg.Permissions, store, broker, addrs.PermissionChecker,
		governor, addrs.Timelock, cfg.MarketAdminPauseGuardian.Get())
	if err != nil {
		return nil, errors.Wrap(err, "couldn't deploy the permission checker")
	}

	d.Configurator, err = configurator.New(ctx, log, cfg.Configurator, store, broker, addrs.Configurator,
		governor, addrs.Timelock, cfg.MarketAdminPauseGuardian.Get())
	if err != nil {
		return nil, errors.Wrap(err, "couldn't deploy the configurator")
	}

	d.Timelock, err = timelock.New(ctx, log, cfg.Timelock, store, broker, router, timeService, addrs.Timelock,
		governor, addrs.Proposer, cfg.Delay.Get())
	if err != nil {
		return nil, errors.Wrap(err, "couldn't deploy the timelock")
	}

	d.Proposer, err = proposer.New(ctx, log, cfg.Proposer, store, broker, d.Timelock, timeService, addrs.Proposer,
		governor, cfg.MarketAdmin.Get(), cfg.ProposalPauseGuardian.Get())
	if err != nil {
		return nil, errors.Wrap(err, "couldn't deploy the proposer")
	}

	d.ProxyAdmin, err = proxyadmin.New(ctx, log, cfg.ProxyAdmin, store, broker, router, addrs.ProxyAdmin,
		governor, addrs.PermissionChecker)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't deploy the proxy admin")
	}

	for _, c := range []ledger.Callable{d.Checker, d.Configurator, d.ProxyAdmin} {
		if err := router.Register(c); err != nil {
			return nil, err
		}
	}

	log.Info("market updates track deployed",
		logging.Address("permission-checker", addrs.PermissionChecker),
		logging.Address("configurator", addrs.Configurator),
		logging.Address("timelock", addrs.Timelock),
		logging.Address("proposer", addrs.Proposer),
		logging.Address("proxy-admin", addrs.ProxyAdmin),
		logging.Duration("delay", cfg.Delay.Get()),
	)
	return d, nil
}

// ReloadConf dispatches the configuration to every component.
func (d *Deployment) ReloadConf(cfg Config) {
	if d.log.GetLevel() != cfg.Level.Get() {
		d.log.Info("updating log level",
			logging.String("old", d.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		d.log.SetLevel(cfg.Level.Get())
	}
	d.Checker.ReloadConf(cfg.Permissions)
	d.Configurator.ReloadConf(cfg.Configurator)
	d.Timelock.ReloadConf(cfg.Timelock)
	d.Proposer.ReloadConf(cfg.Proposer)
	d.ProxyAdmin.ReloadConf(cfg.ProxyAdmin)
}
