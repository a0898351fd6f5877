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

package proxyadmin

import (
	"context"

	"code.vegaprotocol.io/marketupdates/configurator"
	"code.vegaprotocol.io/marketupdates/events"
	"code.vegaprotocol.io/marketupdates/libs/calldata"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/permissions"
	"code.vegaprotocol.io/marketupdates/state"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	ErrUnknownProxy    = errors.New("unknown proxy")
	ErrNotProxyAdmin   = errors.New("proxy is administered by another address")
	ErrInvalidDeployed = errors.New("deploy returned an invalid implementation")
)

var (
	deployMethod          = calldata.MustParseSignature(configurator.DeploySignature, "address")
	checkPermissionMethod = calldata.MustParseSignature(permissions.CheckUpdatePermissionSignature)
)

// Broker - event bus.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.vegaprotocol.io/marketupdates/proxyadmin Broker,Ledger
type Broker interface {
	Send(event events.Event)
}

// Ledger is used to reach the configurator, the permission checker and the
// proxies.
type Ledger interface {
	Call(ctx context.Context, msg types.Message) ([]byte, error)
}

// Proxy is what the proxy admin knows of a proxy it tracks.
type Proxy struct {
	Admin          common.Address
	Implementation common.Address
}

// ProxyAdmin upgrades the market proxies. The owner can do anything; the
// market admin, as vetted by the permission checker, can only deploy a new
// implementation from the configurator and upgrade to it.
type ProxyAdmin struct {
	Config
	log     *logging.Logger
	store   *state.Store
	broker  Broker
	ledger  Ledger
	address common.Address

	dispatcher *calldata.Dispatcher
}

func New(
	ctx context.Context,
	log *logging.Logger,
	config Config,
	store *state.Store,
	broker Broker,
	ledger Ledger,
	address, owner, permissionChecker common.Address,
) (*ProxyAdmin, error) {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	if err := types.RequireAddress("owner", owner); err != nil {
		return nil, err
	}

	p := &ProxyAdmin{
		Config:  config,
		log:     log,
		store:   store,
		broker:  broker,
		ledger:  ledger,
		address: address,
	}
	p.dispatcher = p.newDispatcher()

	_, err := store.InitOnce(ctx, address, func(ctx context.Context) error {
		if err := store.Put(ctx, p.key("owner"), owner); err != nil {
			return err
		}
		return store.Put(ctx, p.key("marketAdminPermissionChecker"), permissionChecker)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ReloadConf updates the internal configuration.
func (p *ProxyAdmin) ReloadConf(cfg Config) {
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

func (p *ProxyAdmin) Address() common.Address {
	return p.address
}

func (p *ProxyAdmin) key(field string, sub ...[]byte) []byte {
	return state.Key(p.address, field, sub...)
}

func (p *ProxyAdmin) send(ctx context.Context, evt events.Event) {
	p.store.AfterCommit(ctx, func() { p.broker.Send(evt) })
}

func (p *ProxyAdmin) Owner(ctx context.Context) (common.Address, error) {
	return p.store.GetAddress(ctx, p.key("owner"))
}

func (p *ProxyAdmin) MarketAdminPermissionChecker(ctx context.Context) (common.Address, error) {
	return p.store.GetAddress(ctx, p.key("marketAdminPermissionChecker"))
}

func (p *ProxyAdmin) onlyOwner(ctx context.Context, operation string, sender common.Address) error {
	owner, err := p.Owner(ctx)
	if err != nil {
		return err
	}
	if sender != owner {
		return types.Unauthorized(operation, "owner")
	}
	return nil
}

// onlyOwnerOrMarketAdmin lets the owner through, and asks the permission
// checker about everyone else.
func (p *ProxyAdmin) onlyOwnerOrMarketAdmin(ctx context.Context, operation string, sender common.Address) error {
	owner, err := p.Owner(ctx)
	if err != nil {
		return err
	}
	if sender == owner {
		return nil
	}
	checker, err := p.MarketAdminPermissionChecker(ctx)
	if err != nil {
		return err
	}
	if checker == (common.Address{}) {
		return types.Unauthorized(operation, "owner or market admin")
	}
	data, err := checkPermissionMethod.EncodeCall(sender)
	if err != nil {
		return err
	}
	if _, err := p.ledger.Call(ctx, types.Message{Sender: p.address, Target: checker, Data: data}); err != nil {
		return errors.Wrap(err, operation)
	}
	return nil
}

func (p *ProxyAdmin) TransferOwnership(ctx context.Context, sender, owner common.Address) error {
	return p.setRole(ctx, "transferOwnership", "owner", sender, owner)
}

func (p *ProxyAdmin) SetMarketAdminPermissionChecker(ctx context.Context, sender, checker common.Address) error {
	return p.setRole(ctx, "setMarketAdminPermissionChecker", "marketAdminPermissionChecker", sender, checker)
}

func (p *ProxyAdmin) setRole(ctx context.Context, operation, role string, sender, addr common.Address) error {
	return p.store.Atomic(ctx, func(ctx context.Context) error {
		if err := p.onlyOwner(ctx, operation, sender); err != nil {
			return err
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

func (p *ProxyAdmin) getProxy(ctx context.Context, proxy common.Address) (Proxy, error) {
	var rec Proxy
	ok, err := p.store.Get(ctx, p.key("proxies", proxy.Bytes()), &rec)
	if err != nil {
		return Proxy{}, err
	}
	if !ok {
		return Proxy{}, errors.Wrap(ErrUnknownProxy, proxy.Hex())
	}
	return rec, nil
}

func (p *ProxyAdmin) GetProxyImplementation(ctx context.Context, proxy common.Address) (common.Address, error) {
	rec, err := p.getProxy(ctx, proxy)
	return rec.Implementation, err
}

func (p *ProxyAdmin) GetProxyAdmin(ctx context.Context, proxy common.Address) (common.Address, error) {
	rec, err := p.getProxy(ctx, proxy)
	return rec.Admin, err
}

// TrackProxy puts a proxy, deployed with this proxy admin as admin, under
// its management.
func (p *ProxyAdmin) TrackProxy(ctx context.Context, sender, proxy, implementation common.Address) error {
	return p.store.Atomic(ctx, func(ctx context.Context) error {
		if err := p.onlyOwner(ctx, "trackProxy", sender); err != nil {
			return err
		}
		if err := types.RequireAddress("proxy", proxy); err != nil {
			return err
		}
		if err := types.RequireAddress("implementation", implementation); err != nil {
			return err
		}
		p.log.Info("tracking proxy",
			logging.Address("proxy", proxy),
			logging.Address("implementation", implementation),
		)
		return p.store.Put(ctx, p.key("proxies", proxy.Bytes()), &Proxy{Admin: p.address, Implementation: implementation})
	})
}

func (p *ProxyAdmin) ChangeProxyAdmin(ctx context.Context, sender, proxy, admin common.Address) error {
	return p.store.Atomic(ctx, func(ctx context.Context) error {
		if err := p.onlyOwner(ctx, "changeProxyAdmin", sender); err != nil {
			return err
		}
		if err := types.RequireAddress("admin", admin); err != nil {
			return err
		}
		rec, err := p.administered(ctx, proxy)
		if err != nil {
			return err
		}
		old := rec.Admin
		rec.Admin = admin
		if err := p.store.Put(ctx, p.key("proxies", proxy.Bytes()), &rec); err != nil {
			return err
		}
		p.send(ctx, events.NewRoleUpdatedEvent(ctx, proxy, "admin", old, admin))
		return nil
	})
}

func (p *ProxyAdmin) administered(ctx context.Context, proxy common.Address) (Proxy, error) {
	rec, err := p.getProxy(ctx, proxy)
	if err != nil {
		return Proxy{}, err
	}
	if rec.Admin != p.address {
		return Proxy{}, errors.Wrapf(ErrNotProxyAdmin, "%s is administered by %s", proxy.Hex(), rec.Admin.Hex())
	}
	return rec, nil
}

func (p *ProxyAdmin) Upgrade(ctx context.Context, sender, proxy, implementation common.Address) error {
	return p.store.Atomic(ctx, func(ctx context.Context) error {
		if err := p.onlyOwner(ctx, "upgrade", sender); err != nil {
			return err
		}
		return p.upgrade(ctx, sender, proxy, implementation, nil)
	})
}

// UpgradeAndCall upgrades the proxy and calls it with data in the same
// transaction.
func (p *ProxyAdmin) UpgradeAndCall(ctx context.Context, sender, proxy, implementation common.Address, data []byte) error {
	return p.store.Atomic(ctx, func(ctx context.Context) error {
		if err := p.onlyOwner(ctx, "upgradeAndCall", sender); err != nil {
			return err
		}
		return p.upgrade(ctx, sender, proxy, implementation, data)
	})
}

// DeployAndUpgradeTo deploys a new implementation of the market from the
// configurator and upgrades the market proxy to it.
func (p *ProxyAdmin) DeployAndUpgradeTo(ctx context.Context, sender, configuratorProxy, cometProxy common.Address) (common.Address, error) {
	return p.deployAndUpgrade(ctx, "deployAndUpgradeTo", sender, configuratorProxy, cometProxy, nil)
}

func (p *ProxyAdmin) DeployUpgradeToAndCall(ctx context.Context, sender, configuratorProxy, cometProxy common.Address, data []byte) (common.Address, error) {
	return p.deployAndUpgrade(ctx, "deployUpgradeToAndCall", sender, configuratorProxy, cometProxy, data)
}

func (p *ProxyAdmin) deployAndUpgrade(ctx context.Context, operation string, sender, configuratorProxy, cometProxy common.Address, data []byte) (common.Address, error) {
	var impl common.Address
	err := p.store.Atomic(ctx, func(ctx context.Context) error {
		if err := p.onlyOwnerOrMarketAdmin(ctx, operation, sender); err != nil {
			return err
		}
		if _, err := p.administered(ctx, cometProxy); err != nil {
			return err
		}

		callData, err := deployMethod.EncodeCall(cometProxy)
		if err != nil {
			return err
		}
		out, err := p.ledger.Call(ctx, types.Message{Sender: p.address, Target: configuratorProxy, Data: callData})
		if err != nil {
			return err
		}
		vals, err := deployMethod.DecodeOutputs(out)
		if err != nil {
			return errors.Wrap(ErrInvalidDeployed, err.Error())
		}
		addr, ok := vals[0].(common.Address)
		if !ok || addr == (common.Address{}) {
			return ErrInvalidDeployed
		}
		impl = addr

		return p.upgrade(ctx, sender, cometProxy, impl, data)
	})
	if err != nil {
		return common.Address{}, err
	}
	return impl, nil
}

func (p *ProxyAdmin) upgrade(ctx context.Context, sender, proxy, implementation common.Address, data []byte) error {
	if err := types.RequireAddress("implementation", implementation); err != nil {
		return err
	}
	rec, err := p.administered(ctx, proxy)
	if err != nil {
		return err
	}
	rec.Implementation = implementation
	if err := p.store.Put(ctx, p.key("proxies", proxy.Bytes()), &rec); err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := p.ledger.Call(ctx, types.Message{Sender: p.address, Target: proxy, Data: data}); err != nil {
			return err
		}
	}

	p.log.Info("proxy upgraded",
		logging.Address("proxy", proxy),
		logging.Address("implementation", implementation),
		logging.Address("sender", sender),
	)
	p.send(ctx, events.NewProxyUpgradedEvent(ctx, proxy, implementation, sender))
	return nil
}
