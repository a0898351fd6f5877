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

package deploy

import (
	"time"

	"code.vegaprotocol.io/marketupdates/config/encoding"
	"code.vegaprotocol.io/marketupdates/configurator"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/permissions"
	"code.vegaprotocol.io/marketupdates/proposer"
	"code.vegaprotocol.io/marketupdates/proxyadmin"
	"code.vegaprotocol.io/marketupdates/timelock"

	"github.com/ethereum/go-ethereum/common"
)

const namedLogger = "deploy"

// Config holds the principals and the delay of a deployment. The contracts
// get their addresses from the deployer address and their deployment order.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	Deployer                 encoding.Address  `long:"deployer" description:"address the contract addresses are derived from"`
	Governor                 encoding.Address  `long:"governor" description:"root governor, owner of every component"`
	MarketAdmin              encoding.Address  `long:"market-admin" description:"multisig authoring market update proposals"`
	ProposalPauseGuardian    encoding.Address  `long:"proposal-pause-guardian" description:"can cancel market update proposals"`
	MarketAdminPauseGuardian encoding.Address  `long:"market-admin-pause-guardian" description:"can pause the market admin"`
	Delay                    encoding.Duration `long:"delay" description:"timelock delay"`

	Permissions  permissions.Config  `group:"Permissions" namespace:"permissions"`
	Timelock     timelock.Config     `group:"Timelock" namespace:"timelock"`
	Proposer     proposer.Config     `group:"Proposer" namespace:"proposer"`
	Configurator configurator.Config `group:"Configurator" namespace:"configurator"`
	ProxyAdmin   proxyadmin.Config   `group:"ProxyAdmin" namespace:"proxyadmin"`
}

// NewDefaultConfig returns a deployment with the well known test principals
// and a two days delay.
func NewDefaultConfig() Config {
	return Config{
		Level:                    encoding.LogLevel{Level: logging.InfoLevel},
		Deployer:                 encoding.Address{Address: common.HexToAddress("0x00000000000000000000000000000000000000de")},
		Governor:                 encoding.Address{Address: common.HexToAddress("0x0000000000000000000000000000000000000001")},
		MarketAdmin:              encoding.Address{Address: common.HexToAddress("0x0000000000000000000000000000000000000002")},
		ProposalPauseGuardian:    encoding.Address{Address: common.HexToAddress("0x0000000000000000000000000000000000000003")},
		MarketAdminPauseGuardian: encoding.Address{Address: common.HexToAddress("0x0000000000000000000000000000000000000005")},
		Delay:                    encoding.Duration{Duration: 2 * 24 * time.Hour},
		Permissions:              permissions.NewDefaultConfig(),
		Timelock:                 timelock.NewDefaultConfig(),
		Proposer:                 proposer.NewDefaultConfig(),
		Configurator:             configurator.NewDefaultConfig(),
		ProxyAdmin:               proxyadmin.NewDefaultConfig(),
	}
}
