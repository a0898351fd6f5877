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
	"strconv"

	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

func (c *Configurator) setUint(
	ctx context.Context,
	operation, parameter string,
	gate func(context.Context, string, common.Address) error,
	sender, cometProxy common.Address,
	field func(*types.Configuration) *uint64,
	v uint64,
) error {
	return c.update(ctx, operation, parameter, gate, sender, cometProxy, func(cfg *types.Configuration) (string, string, error) {
		f := field(cfg)
		old := *f
		*f = v
		return strconv.FormatUint(old, 10), strconv.FormatUint(v, 10), nil
	})
}

func (c *Configurator) setBig(
	ctx context.Context,
	operation, parameter string,
	sender, cometProxy common.Address,
	field func(*types.Configuration) **big.Int,
	v *big.Int,
) error {
	if v == nil || v.Sign() < 0 {
		return errors.Errorf("%s: invalid value %v", operation, v)
	}
	return c.update(ctx, operation, parameter, c.governorOrMarketAdmin, sender, cometProxy, func(cfg *types.Configuration) (string, string, error) {
		f := field(cfg)
		old := "0"
		if *f != nil {
			old = (*f).String()
		}
		*f = new(big.Int).Set(v)
		return old, v.String(), nil
	})
}

func (c *Configurator) setAddress(
	ctx context.Context,
	operation, parameter string,
	sender, cometProxy common.Address,
	field func(*types.Configuration) *common.Address,
	v common.Address,
) error {
	if err := types.RequireAddress(parameter, v); err != nil {
		return err
	}
	return c.update(ctx, operation, parameter, c.onlyGovernor, sender, cometProxy, func(cfg *types.Configuration) (string, string, error) {
		f := field(cfg)
		old := *f
		*f = v
		return old.Hex(), v.Hex(), nil
	})
}

func (c *Configurator) updateAsset(
	ctx context.Context,
	operation, parameter string,
	gate func(context.Context, string, common.Address) error,
	sender, cometProxy, asset common.Address,
	fn func(a *types.AssetConfig) (string, string),
) error {
	return c.update(ctx, operation, parameter, gate, sender, cometProxy, func(cfg *types.Configuration) (string, string, error) {
		i := cfg.AssetIndex(asset)
		if i < 0 {
			return "", "", errors.Wrap(ErrAssetDoesNotExist, asset.Hex())
		}
		old, updated := fn(&cfg.AssetConfigs[i])
		return old, updated, nil
	})
}

// Market parameters, open to the governor and the market admin.

func (c *Configurator) SetSupplyKink(ctx context.Context, sender, cometProxy common.Address, v uint64) error {
	return c.setUint(ctx, "setSupplyKink", "supplyKink", c.governorOrMarketAdmin, sender, cometProxy,
		func(cfg *types.Configuration) *uint64 { return &cfg.SupplyKink }, v)
}

func (c *Configurator) SetSupplyPerYearInterestRateSlopeLow(ctx context.Context, sender, cometProxy common.Address, v uint64) error {
	return c.setUint(ctx, "setSupplyPerYearInterestRateSlopeLow", "supplyPerYearInterestRateSlopeLow", c.governorOrMarketAdmin, sender, cometProxy,
		func(cfg *types.Configuration) *uint64 { return &cfg.SupplyPerYearInterestRateSlopeLow }, v)
}

func (c *Configurator) SetSupplyPerYearInterestRateSlopeHigh(ctx context.Context, sender, cometProxy common.Address, v uint64) error {
	return c.setUint(ctx, "setSupplyPerYearInterestRateSlopeHigh", "supplyPerYearInterestRateSlopeHigh", c.governorOrMarketAdmin, sender, cometProxy,
		func(cfg *types.Configuration) *uint64 { return &cfg.SupplyPerYearInterestRateSlopeHigh }, v)
}

func (c *Configurator) SetSupplyPerYearInterestRateBase(ctx context.Context, sender, cometProxy common.Address, v uint64) error {
	return c.setUint(ctx, "setSupplyPerYearInterestRateBase", "supplyPerYearInterestRateBase", c.governorOrMarketAdmin, sender, cometProxy,
		func(cfg *types.Configuration) *uint64 { return &cfg.SupplyPerYearInterestRateBase }, v)
}

func (c *Configurator) SetBorrowKink(ctx context.Context, sender, cometProxy common.Address, v uint64) error {
	return c.setUint(ctx, "setBorrowKink", "borrowKink", c.governorOrMarketAdmin, sender, cometProxy,
		func(cfg *types.Configuration) *uint64 { return &cfg.BorrowKink }, v)
}

func (c *Configurator) SetBorrowPerYearInterestRateSlopeLow(ctx context.Context, sender, cometProxy common.Address, v uint64) error {
	return c.setUint(ctx, "setBorrowPerYearInterestRateSlopeLow", "borrowPerYearInterestRateSlopeLow", c.governorOrMarketAdmin, sender, cometProxy,
		func(cfg *types.Configuration) *uint64 { return &cfg.BorrowPerYearInterestRateSlopeLow }, v)
}

func (c *Configurator) SetBorrowPerYearInterestRateSlopeHigh(ctx context.Context, sender, cometProxy common.Address, v uint64) error {
	return c.setUint(ctx, "setBorrowPerYearInterestRateSlopeHigh", "borrowPerYearInterestRateSlopeHigh", c.governorOrMarketAdmin, sender, cometProxy,
		func(cfg *types.Configuration) *uint64 { return &cfg.BorrowPerYearInterestRateSlopeHigh }, v)
}

func (c *Configurator) SetBorrowPerYearInterestRateBase(ctx context.Context, sender, cometProxy common.Address, v uint64) error {
	return c.setUint(ctx, "setBorrowPerYearInterestRateBase", "borrowPerYearInterestRateBase", c.governorOrMarketAdmin, sender, cometProxy,
		func(cfg *types.Configuration) *uint64 { return &cfg.BorrowPerYearInterestRateBase }, v)
}

func (c *Configurator) SetBaseTrackingSupplySpeed(ctx context.Context, sender, cometProxy common.Address, v uint64) error {
	return c.setUint(ctx, "setBaseTrackingSupplySpeed", "baseTrackingSupplySpeed", c.governorOrMarketAdmin, sender, cometProxy,
		func(cfg *types.Configuration) *uint64 { return &cfg.BaseTrackingSupplySpeed }, v)
}

func (c *Configurator) SetBaseTrackingBorrowSpeed(ctx context.Context, sender, cometProxy common.Address, v uint64) error {
	return c.setUint(ctx, "setBaseTrackingBorrowSpeed", "baseTrackingBorrowSpeed", c.governorOrMarketAdmin, sender, cometProxy,
		func(cfg *types.Configuration) *uint64 { return &cfg.BaseTrackingBorrowSpeed }, v)
}

func (c *Configurator) SetBaseMinForRewards(ctx context.Context, sender, cometProxy common.Address, v *big.Int) error {
	return c.setBig(ctx, "setBaseMinForRewards", "baseMinForRewards", sender, cometProxy,
		func(cfg *types.Configuration) **big.Int { return &cfg.BaseMinForRewards }, v)
}

func (c *Configurator) SetBaseBorrowMin(ctx context.Context, sender, cometProxy common.Address, v *big.Int) error {
	return c.setBig(ctx, "setBaseBorrowMin", "baseBorrowMin", sender, cometProxy,
		func(cfg *types.Configuration) **big.Int { return &cfg.BaseBorrowMin }, v)
}

func (c *Configurator) SetTargetReserves(ctx context.Context, sender, cometProxy common.Address, v *big.Int) error {
	return c.setBig(ctx, "setTargetReserves", "targetReserves", sender, cometProxy,
		func(cfg *types.Configuration) **big.Int { return &cfg.TargetReserves }, v)
}

func (c *Configurator) UpdateAssetPriceFeed(ctx context.Context, sender, cometProxy, asset, priceFeed common.Address) error {
	if err := types.RequireAddress("priceFeed", priceFeed); err != nil {
		return err
	}
	return c.updateAsset(ctx, "updateAssetPriceFeed", "assetPriceFeed", c.governorOrMarketAdmin, sender, cometProxy, asset,
		func(a *types.AssetConfig) (string, string) {
			old := a.PriceFeed
			a.PriceFeed = priceFeed
			return old.Hex(), priceFeed.Hex()
		})
}

func (c *Configurator) UpdateAssetBorrowCollateralFactor(ctx context.Context, sender, cometProxy, asset common.Address, v uint64) error {
	return c.updateAsset(ctx, "updateAssetBorrowCollateralFactor", "assetBorrowCollateralFactor", c.governorOrMarketAdmin, sender, cometProxy, asset,
		func(a *types.AssetConfig) (string, string) {
			old := a.BorrowCollateralFactor
			a.BorrowCollateralFactor = v
			return strconv.FormatUint(old, 10), strconv.FormatUint(v, 10)
		})
}

func (c *Configurator) UpdateAssetLiquidateCollateralFactor(ctx context.Context, sender, cometProxy, asset common.Address, v uint64) error {
	return c.updateAsset(ctx, "updateAssetLiquidateCollateralFactor", "assetLiquidateCollateralFactor", c.governorOrMarketAdmin, sender, cometProxy, asset,
		func(a *types.AssetConfig) (string, string) {
			old := a.LiquidateCollateralFactor
			a.LiquidateCollateralFactor = v
			return strconv.FormatUint(old, 10), strconv.FormatUint(v, 10)
		})
}

func (c *Configurator) UpdateAssetLiquidationFactor(ctx context.Context, sender, cometProxy, asset common.Address, v uint64) error {
	return c.updateAsset(ctx, "updateAssetLiquidationFactor", "assetLiquidationFactor", c.governorOrMarketAdmin, sender, cometProxy, asset,
		func(a *types.AssetConfig) (string, string) {
			old := a.LiquidationFactor
			a.LiquidationFactor = v
			return strconv.FormatUint(old, 10), strconv.FormatUint(v, 10)
		})
}

func (c *Configurator) UpdateAssetSupplyCap(ctx context.Context, sender, cometProxy, asset common.Address, v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return errors.Errorf("updateAssetSupplyCap: invalid value %v", v)
	}
	return c.updateAsset(ctx, "updateAssetSupplyCap", "assetSupplyCap", c.governorOrMarketAdmin, sender, cometProxy, asset,
		func(a *types.AssetConfig) (string, string) {
			old := "0"
			if a.SupplyCap != nil {
				old = a.SupplyCap.String()
			}
			a.SupplyCap = new(big.Int).Set(v)
			return old, v.String()
		})
}

// Governor only parameters.

func (c *Configurator) SetGovernor(ctx context.Context, sender, cometProxy, v common.Address) error {
	return c.setAddress(ctx, "setGovernor", "governor", sender, cometProxy,
		func(cfg *types.Configuration) *common.Address { return &cfg.Governor }, v)
}

func (c *Configurator) SetPauseGuardian(ctx context.Context, sender, cometProxy, v common.Address) error {
	return c.setAddress(ctx, "setPauseGuardian", "pauseGuardian", sender, cometProxy,
		func(cfg *types.Configuration) *common.Address { return &cfg.PauseGuardian }, v)
}

func (c *Configurator) SetBaseTokenPriceFeed(ctx context.Context, sender, cometProxy, v common.Address) error {
	return c.setAddress(ctx, "setBaseTokenPriceFeed", "baseTokenPriceFeed", sender, cometProxy,
		func(cfg *types.Configuration) *common.Address { return &cfg.BaseTokenPriceFeed }, v)
}

func (c *Configurator) SetExtensionDelegate(ctx context.Context, sender, cometProxy, v common.Address) error {
	return c.setAddress(ctx, "setExtensionDelegate", "extensionDelegate", sender, cometProxy,
		func(cfg *types.Configuration) *common.Address { return &cfg.ExtensionDelegate }, v)
}

func (c *Configurator) SetStoreFrontPriceFactor(ctx context.Context, sender, cometProxy common.Address, v uint64) error {
	return c.setUint(ctx, "setStoreFrontPriceFactor", "storeFrontPriceFactor", c.onlyGovernor, sender, cometProxy,
		func(cfg *types.Configuration) *uint64 { return &cfg.StoreFrontPriceFactor }, v)
}

func (c *Configurator) AddAsset(ctx context.Context, sender, cometProxy common.Address, asset types.AssetConfig) error {
	if err := types.RequireAddress("asset", asset.Asset); err != nil {
		return err
	}
	return c.update(ctx, "addAsset", "assetConfigs", c.onlyGovernor, sender, cometProxy, func(cfg *types.Configuration) (string, string, error) {
		if cfg.AssetIndex(asset.Asset) >= 0 {
			return "", "", errors.Wrap(ErrAssetAlreadyExists, asset.Asset.Hex())
		}
		cfg.AssetConfigs = append(cfg.AssetConfigs, asset.Clone())
		return "", asset.Asset.Hex(), nil
	})
}

// UpdateAsset replaces the whole configuration of an existing asset.
func (c *Configurator) UpdateAsset(ctx context.Context, sender, cometProxy common.Address, asset types.AssetConfig) error {
	return c.updateAsset(ctx, "updateAsset", "assetConfigs", c.onlyGovernor, sender, cometProxy, asset.Asset,
		func(a *types.AssetConfig) (string, string) {
			*a = asset.Clone()
			return asset.Asset.Hex(), asset.Asset.Hex()
		})
}
