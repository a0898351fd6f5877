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
	"math/big"

	"code.vegaprotocol.io/marketupdates/ledger"
	"code.vegaprotocol.io/marketupdates/libs/calldata"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
)

const DeploySignature = "deploy(address)"

// Call makes the configurator reachable through the ledger.
func (c *Configurator) Call(ctx context.Context, msg types.Message) ([]byte, error) {
	if err := ledger.RequireNonPayable(msg); err != nil {
		return nil, err
	}
	return c.dispatcher.Dispatch(ctx, msg)
}

// Signatures lists the functions exposed to the ledger.
func (c *Configurator) Signatures() []string {
	return c.dispatcher.Signatures()
}

func (c *Configurator) newDispatcher() *calldata.Dispatcher {
	d := calldata.NewDispatcher()

	uintSetters := map[string]func(context.Context, common.Address, common.Address, uint64) error{
		"setSupplyKink(address,uint64)":                         c.SetSupplyKink,
		"setSupplyPerYearInterestRateSlopeLow(address,uint64)":  c.SetSupplyPerYearInterestRateSlopeLow,
		"setSupplyPerYearInterestRateSlopeHigh(address,uint64)": c.SetSupplyPerYearInterestRateSlopeHigh,
		"setSupplyPerYearInterestRateBase(address,uint64)":      c.SetSupplyPerYearInterestRateBase,
		"setBorrowKink(address,uint64)":                         c.SetBorrowKink,
		"setBorrowPerYearInterestRateSlopeLow(address,uint64)":  c.SetBorrowPerYearInterestRateSlopeLow,
		"setBorrowPerYearInterestRateSlopeHigh(address,uint64)": c.SetBorrowPerYearInterestRateSlopeHigh,
		"setBorrowPerYearInterestRateBase(address,uint64)":      c.SetBorrowPerYearInterestRateBase,
		"setBaseTrackingSupplySpeed(address,uint64)":            c.SetBaseTrackingSupplySpeed,
		"setBaseTrackingBorrowSpeed(address,uint64)":            c.SetBaseTrackingBorrowSpeed,
		"setStoreFrontPriceFactor(address,uint64)":              c.SetStoreFrontPriceFactor,
	}
	for sig, set := range uintSetters {
		set := set
		d.Handle(sig, func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
			cometProxy, err := args.Address(0)
			if err != nil {
				return nil, err
			}
			v, err := args.Uint64(1)
			if err != nil {
				return nil, err
			}
			return nil, set(ctx, msg.Sender, cometProxy, v)
		})
	}

	bigSetters := map[string]func(context.Context, common.Address, common.Address, *big.Int) error{
		"setBaseMinForRewards(address,uint104)": c.SetBaseMinForRewards,
		"setBaseBorrowMin(address,uint104)":     c.SetBaseBorrowMin,
		"setTargetReserves(address,uint104)":    c.SetTargetReserves,
	}
	for sig, set := range bigSetters {
		set := set
		d.Handle(sig, func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
			cometProxy, err := args.Address(0)
			if err != nil {
				return nil, err
			}
			v, err := args.Big(1)
			if err != nil {
				return nil, err
			}
			return nil, set(ctx, msg.Sender, cometProxy, v)
		})
	}

	addressSetters := map[string]func(context.Context, common.Address, common.Address, common.Address) error{
		"setGovernor(address,address)":           c.SetGovernor,
		"setPauseGuardian(address,address)":      c.SetPauseGuardian,
		"setBaseTokenPriceFeed(address,address)": c.SetBaseTokenPriceFeed,
		"setExtensionDelegate(address,address)":  c.SetExtensionDelegate,
		"setFactory(address,address)":            c.SetFactory,
	}
	for sig, set := range addressSetters {
		set := set
		d.Handle(sig, func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
			cometProxy, err := args.Address(0)
			if err != nil {
				return nil, err
			}
			v, err := args.Address(1)
			if err != nil {
				return nil, err
			}
			return nil, set(ctx, msg.Sender, cometProxy, v)
		})
	}

	assetUintSetters := map[string]func(context.Context, common.Address, common.Address, common.Address, uint64) error{
		"updateAssetBorrowCollateralFactor(address,address,uint64)":    c.UpdateAssetBorrowCollateralFactor,
		"updateAssetLiquidateCollateralFactor(address,address,uint64)": c.UpdateAssetLiquidateCollateralFactor,
		"updateAssetLiquidationFactor(address,address,uint64)":         c.UpdateAssetLiquidationFactor,
	}
	for sig, set := range assetUintSetters {
		set := set
		d.Handle(sig, func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
			cometProxy, asset, err := proxyAndAsset(args)
			if err != nil {
				return nil, err
			}
			v, err := args.Uint64(2)
			if err != nil {
				return nil, err
			}
			return nil, set(ctx, msg.Sender, cometProxy, asset, v)
		})
	}

	d.Handle("updateAssetPriceFeed(address,address,address)", func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
		cometProxy, asset, err := proxyAndAsset(args)
		if err != nil {
			return nil, err
		}
		priceFeed, err := args.Address(2)
		if err != nil {
			return nil, err
		}
		return nil, c.UpdateAssetPriceFeed(ctx, msg.Sender, cometProxy, asset, priceFeed)
	})

	d.Handle("updateAssetSupplyCap(address,address,uint128)", func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
		cometProxy, asset, err := proxyAndAsset(args)
		if err != nil {
			return nil, err
		}
		v, err := args.Big(2)
		if err != nil {
			return nil, err
		}
		return nil, c.UpdateAssetSupplyCap(ctx, msg.Sender, cometProxy, asset, v)
	})

	roleSetters := map[string]func(context.Context, common.Address, common.Address) error{
		"transferGovernor(address)":            c.TransferGovernor,
		"setMarketAdmin(address)":              c.SetMarketAdmin,
		"setMarketAdminPauseGuardian(address)": c.SetMarketAdminPauseGuardian,
	}
	for sig, set := range roleSetters {
		set := set
		d.Handle(sig, func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
			addr, err := args.Address(0)
			if err != nil {
				return nil, err
			}
			return nil, set(ctx, msg.Sender, addr)
		})
	}

	d.Handle("pauseMarketAdmin()", func(ctx context.Context, msg types.Message, _ calldata.Args) ([]interface{}, error) {
		return nil, c.PauseMarketAdmin(ctx, msg.Sender)
	})
	d.Handle("unpauseMarketAdmin()", func(ctx context.Context, msg types.Message, _ calldata.Args) ([]interface{}, error) {
		return nil, c.UnpauseMarketAdmin(ctx, msg.Sender)
	})

	d.Handle(DeploySignature, func(ctx context.Context, msg types.Message, args calldata.Args) ([]interface{}, error) {
		cometProxy, err := args.Address(0)
		if err != nil {
			return nil, err
		}
		impl, err := c.Deploy(ctx, msg.Sender, cometProxy)
		return []interface{}{impl}, err
	}, "address")

	getters := map[string]func(context.Context) (common.Address, error){
		"governor()":                 c.Governor,
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

func proxyAndAsset(args calldata.Args) (common.Address, common.Address, error) {
	cometProxy, err := args.Address(0)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	asset, err := args.Address(1)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return cometProxy, asset, nil
}
