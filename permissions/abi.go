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

	"code.vegaprotocol.io/marketupdates/ledger"
	"code.vegaprotocol.io/marketupdates/libs/calldata"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
)

const CheckUpdatePermissionSignature = "checkUpdatePermission(address)"

// Call makes the checker reachable through the ledger.
func (c *Checker) Call(ctx context.Context, msg types.Message) ([]byte, error) {
	if err := ledger.RequireNonPayable(msg); err != nil {
		return nil, err
	}
	return c.dispatcher.Dispatch(ctx, msg)
}

// Signatures lists the functions exposed to the ledger.
func (c *Checker) Signatures() []string {
	return c.dispatcher.Signatures()
}

func (c *Checker) newDispatcher() *calldata.Dispatcher {
	d := calldata.NewDispatcher()

	d.Handle(CheckUpdatePermissionSignature, func(ctx context.Context, _ types.Message, args calldata.Args) ([]interface{}, error) {
		caller, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		return nil, c.CheckUpdatePermission(ctx, caller)
	})

	setters := map[string]func(context.Context, common.Address, common.Address) error{
		"setMarketAdmin(address)":              c.SetMarketAdmin,
		"setMarketAdminPauseGuardian(address)": c.SetMarketAdminPauseGuardian,
		"transferOwnership(address)":           c.TransferOwnership,
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

	actions := map[string]func(context.Context, common.Address) error{
		"pauseMarketAdmin()":   c.PauseMarketAdmin,
		"unpauseMarketAdmin()": c.UnpauseMarketAdmin,
		"renounceOwnership()":  c.RenounceOwnership,
	}
	for sig, act := range actions {
		act := act
		d.Handle(sig, func(ctx context.Context, msg types.Message, _ calldata.Args) ([]interface{}, error) {
			return nil, act(ctx, msg.Sender)
		})
	}

	getters := map[string]func(context.Context) (common.Address, error){
		"owner()":                    c.Owner,
		"marketAdmin()":              c.MarketAdmin,
		"marketAdminPauseGuardian()": c.MarketAdminPauseGuardian,
	}
	for sig, get := range getters {
		get := get
		d.Handle(sig, func(ctx context.Context, _ types.Message, _ calldata.Args) ([]interface{}, error) {
			addr, err := get(ctx)
			return []interface{}{addr}, err
		}, "address")
	}

	d.Handle("marketAdminPaused()", func(ctx context.Context, _ types.Message, _ calldata.Args) ([]interface{}, error) {
		paused, err := c.MarketAdminPaused(ctx)
		return []interface{}{paused}, err
	}, "bool")

	return d
}
