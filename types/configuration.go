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

package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AssetConfig holds the collateral parameters of one asset of a market.
type AssetConfig struct {
	Asset                     common.Address
	PriceFeed                 common.Address
	Decimals                  uint8
	BorrowCollateralFactor    uint64
	LiquidateCollateralFactor uint64
	LiquidationFactor         uint64
	SupplyCap                 *big.Int
}

func (a AssetConfig) Clone() AssetConfig {
	cpy := a
	if a.SupplyCap != nil {
		cpy.SupplyCap = new(big.Int).Set(a.SupplyCap)
	}
	return cpy
}

// Configuration is the full set of parameters a market implementation is
// deployed from.
type Configuration struct {
	Governor           common.Address
	PauseGuardian      common.Address
	BaseToken          common.Address
	BaseTokenPriceFeed common.Address
	ExtensionDelegate  common.Address

	SupplyKink                         uint64
	SupplyPerYearInterestRateSlopeLow  uint64
	SupplyPerYearInterestRateSlopeHigh uint64
	SupplyPerYearInterestRateBase      uint64
	BorrowKink                         uint64
	BorrowPerYearInterestRateSlopeLow  uint64
	BorrowPerYearInterestRateSlopeHigh uint64
	BorrowPerYearInterestRateBase      uint64
	StoreFrontPriceFactor              uint64
	TrackingIndexScale                 uint64
	BaseTrackingSupplySpeed            uint64
	BaseTrackingBorrowSpeed            uint64

	BaseMinForRewards *big.Int
	BaseBorrowMin     *big.Int
	TargetReserves    *big.Int

	AssetConfigs []AssetConfig
}

// IsSet returns true once a base token was configured.
func (c *Configuration) IsSet() bool {
	return c.BaseToken != (common.Address{})
}

// AssetIndex returns the position of the asset in the asset configs, or -1.
func (c *Configuration) AssetIndex(asset common.Address) int {
	for i, a := range c.AssetConfigs {
		if a.Asset == asset {
			return i
		}
	}
	return -1
}

func (c Configuration) Clone() Configuration {
	cpy := c
	cpy.BaseMinForRewards = cloneBig(c.BaseMinForRewards)
	cpy.BaseBorrowMin = cloneBig(c.BaseBorrowMin)
	cpy.TargetReserves = cloneBig(c.TargetReserves)
	cpy.AssetConfigs = make([]AssetConfig, 0, len(c.AssetConfigs))
	for _, a := range c.AssetConfigs {
		cpy.AssetConfigs = append(cpy.AssetConfigs, a.Clone())
	}
	return cpy
}

func cloneBig(b *big.Int) *big.Int {
	if b == nil {
		return nil
	}
	return new(big.Int).Set(b)
}
