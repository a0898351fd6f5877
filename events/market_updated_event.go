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

	"github.com/ethereum/go-ethereum/common"
)

// ConfigurationUpdated is sent by the configurator for every parameter change.
// Values are rendered as strings, e.g. "100" or an address.
type ConfigurationUpdated struct {
	*Base
	cometProxy common.Address
	sender     common.Address
	parameter  string
	old        string
	new        string
}

func NewConfigurationUpdatedEvent(ctx context.Context, cometProxy, sender common.Address, parameter, old, new string) *ConfigurationUpdated {
	return &ConfigurationUpdated{
		Base:       newBase(ctx, ConfigurationUpdatedEvent),
		cometProxy: cometProxy,
		sender:     sender,
		parameter:  parameter,
		old:        old,
		new:        new,
	}
}

func (c ConfigurationUpdated) CometProxy() common.Address {
	return c.cometProxy
}

func (c ConfigurationUpdated) Sender() common.Address {
	return c.sender
}

func (c ConfigurationUpdated) Parameter() string {
	return c.parameter
}

func (c ConfigurationUpdated) Old() string {
	return c.old
}

func (c ConfigurationUpdated) New() string {
	return c.new
}

type CometDeployed struct {
	*Base
	cometProxy     common.Address
	implementation common.Address
}

func NewCometDeployedEvent(ctx context.Context, cometProxy, implementation common.Address) *CometDeployed {
	return &CometDeployed{
		Base:           newBase(ctx, CometDeployedEvent),
		cometProxy:     cometProxy,
		implementation: implementation,
	}
}

func (c CometDeployed) CometProxy() common.Address {
	return c.cometProxy
}

func (c CometDeployed) Implementation() common.Address {
	return c.implementation
}

type ProxyUpgraded struct {
	*Base
	proxy          common.Address
	implementation common.Address
	sender         common.Address
}

func NewProxyUpgradedEvent(ctx context.Context, proxy, implementation, sender common.Address) *ProxyUpgraded {
	return &ProxyUpgraded{
		Base:           newBase(ctx, ProxyUpgradedEvent),
		proxy:          proxy,
		implementation: implementation,
		sender:         sender,
	}
}

func (p ProxyUpgraded) Proxy() common.Address {
	return p.proxy
}

func (p ProxyUpgraded) Implementation() common.Address {
	return p.implementation
}

func (p ProxyUpgraded) Sender() common.Address {
	return p.sender
}
