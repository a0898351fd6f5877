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

	"code.vegaprotocol.io/marketupdates/ledger"
	"code.vegaprotocol.io/marketupdates/libs/calldata"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
)

const (
	DeployAndUpgradeToSignature     = "deployAndUpgradeTo(address,address)"
	DeployUpgradeToAndCallSignature = "deployUpgradeToAndCall(address,address,bytes)"
)

// Call makes the proxy admin reachable through the ledger.
func (p *ProxyAdmin) Call(ctx context.Context, msg types.Message) ([]byte, error) {
	if err := ledger.RequireNonPayable(msg); err != nil {
		return nil, err
	}
	return p.dispatcher.Dispatch(ctx, msg)
}

func (p *ProxyAdmin) Signatures() []string {
	return p.dispatcher.Signatures()
}

func (p *ProxyAdmin) newDispatcher() *calldata.Dispatcher {
	d := calldata.NewDispatcher()

	d.Handle(DeployAndUpgradeToSignature, func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
		configurator, proxy, err := twoAddresses(args)
		if err != nil {
			return nil, err
		}
		_, err = p.DeployAndUpgradeTo(ctx, msg.Sender, configurator, proxy)
		return nil, err
	})

	d.Handle(DeployUpgradeToAndCallSignature, func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
		configurator, proxy, err := twoAddresses(args)
		if err != nil {
			return nil, err
		}
		data, err := args.Bytes(2)
		if err != nil {
			return nil, err
		}
		_, err = p.DeployUpgradeToAndCall(ctx, msg.Sender, configurator, proxy, data)
		return nil, err
	})

	pairs := map[string]func(context.Context, common.Address, common.Address, common.Address) error{
		"upgrade(address,address)":          p.Upgrade,
		"changeProxyAdmin(address,address)": p.ChangeProxyAdmin,
		"trackProxy(address,address)":       p.TrackProxy,
	}
	for sig, fn := range pairs {
		fn := fn
		d.Handle(sig, func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
			a, b, err := twoAddresses(args)
			if err != nil {
				return nil, err
			}
			return nil, fn(ctx, msg.Sender, a, b)
		})
	}

	d.Handle("upgradeAndCall(address,address,bytes)", func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
		proxy, impl, err := twoAddresses(args)
		if err != nil {
			return nil, err
		}
		data, err := args.Bytes(2)
		if err != nil {
			return nil, err
		}
		return nil, p.UpgradeAndCall(ctx, msg.Sender, proxy, impl, data)
	})

	setters := map[string]func(context.Context, common.Address, common.Address) error{
		"transferOwnership(address)":               p.TransferOwnership,
		"setMarketAdminPermissionChecker(address)": p.SetMarketAdminPermissionChecker,
	}
	for sig, set := range setters {
		set := set
		d.Handle(sig, func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
			addr, err := args.Address(0)
			if err != nil {
				return nil, err
			}
			return nil, set(ctx, msg.Sender, addr)
		})
	}

	proxyGetters := map[string]func(context.Context, common.Address) (common.Address, error){
		"getProxyImplementation(address)": p.GetProxyImplementation,
		"getProxyAdmin(address)":          p.GetProxyAdmin,
	}
	for sig, get := range proxyGetters {
		get := get
		d.Handle(sig, func(ctx context.Context, _ types.Message, args calldata.Args) ([]interface{}, error) {
			proxy, err := args.Address(0)
			if err != nil {
				return nil, err
			}
			addr, err := get(ctx, proxy)
			return []interface{}{addr}, err
		}, "address")
	}

	getters := map[string]func(context.Context) (common.Address, error){
		"owner()":                        p.Owner,
		"marketAdminPermissionChecker()": p.MarketAdminPermissionChecker,
	}
	for sig, get := range getters {
		get := get
		d.Handle(sig, func(ctx context.Context, _ types.Message, _ calldata.Args) ([]interface{}, error) {
			addr, err := get(ctx)
			return []interface{}{addr}, err
		}, "address")
	}

	return d
}

func twoAddresses(args calldata.Args) (common.Address, common.Address, error) {
	a, err := args.Address(0)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	b, err := args.Address(1)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return a, b, nil
}
