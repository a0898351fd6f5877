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

package configurator_test

import (
	"context"
	"math/big"
	"testing"

	"code.vegaprotocol.io/marketupdates/configurator"
	"code.vegaprotocol.io/marketupdates/configurator/mocks"
	"code.vegaprotocol.io/marketupdates/events"
	"code.vegaprotocol.io/marketupdates/ledger"
	"code.vegaprotocol.io/marketupdates/libs/calldata"
	"code.vegaprotocol.io/marketupdates/libs/crypto"
	"code.vegaprotocol.io/marketupdates/logging"
	"code.vegaprotocol.io/marketupdates/state"
	"code.vegaprotocol.io/marketupdates/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	configuratorAddr = common.HexToAddress("0x00000000000000000000000000000000000000e2")
	governor         = common.HexToAddress("0x0000000000000000000000000000000000000001")
	marketAdmin      = common.HexToAddress("0x0000000000000000000000000000000000000002")
	guardian         = common.HexToAddress("0x0000000000000000000000000000000000000003")
	stranger         = common.HexToAddress("0x0000000000000000000000000000000000000004")
	comet            = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	factory          = common.HexToAddress("0x00000000000000000000000000000000000000fa")
	baseToken        = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	weth             = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

type testConfigurator struct {
	*configurator.Configurator
	ctrl   *gomock.Controller
	broker *mocks.MockBroker
	store  *state.Store
}

func getTestConfigurator(t *testing.T) *testConfigurator {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := mocks.NewMockBroker(ctrl)
	log := logging.NewTestLogger()

	store, err := state.New(log, state.NewDefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c, err := configurator.New(context.Background(), log, configurator.NewDefaultConfig(), store, broker,
		configuratorAddr, governor, marketAdmin, guardian)
	require.NoError(t, err)

	return &testConfigurator{
		Configurator: c,
		ctrl:         ctrl,
		broker:       broker,
		store:        store,
	}
}

func getConfiguredConfigurator(t *testing.T) *testConfigurator {
	t.Helper()
	tc := getTestConfigurator(t)
	ctx := context.Background()
	tc.broker.EXPECT().Send(gomock.Any()).Times(3)

	require.NoError(t, tc.SetConfiguration(ctx, governor, comet, types.Configuration{
		Governor:           governor,
		PauseGuardian:      guardian,
		BaseToken:          baseToken,
		SupplyKink:         800,
		BorrowKink:         800,
		TrackingIndexScale: 1e15,
		BaseBorrowMin:      big.NewInt(100),
	}))
	require.NoError(t, tc.AddAsset(ctx, governor, comet, types.AssetConfig{
		Asset:                  weth,
		Decimals:               18,
		BorrowCollateralFactor: 800,
		SupplyCap:              big.NewInt(1_000),
	}))
	require.NoError(t, tc.SetFactory(ctx, governor, comet, factory))
	return tc
}

func TestMarketAdminAllowList(t *testing.T) {
	t.Run("market admin can update market parameters", testMarketAdminUpdatesParameters)
	t.Run("market admin cannot call governor only setters", testMarketAdminCannotCallGovernorSetters)
	t.Run("governor can update market parameters", testGovernorUpdatesParameters)
	t.Run("others cannot update anything", testOthersCannotUpdate)
	t.Run("a paused market admin cannot update", testPausedMarketAdminCannotUpdate)
}

func testMarketAdminUpdatesParameters(t *testing.T) {
	tc := getConfiguredConfigurator(t)
	ctx := context.Background()

	tc.broker.EXPECT().Send(gomock.Any()).Do(func(e events.Event) {
		evt, ok := e.(*events.ConfigurationUpdated)
		require.True(t, ok)
		assert.Equal(t, "supplyKink", evt.Parameter())
		assert.Equal(t, "800", evt.Old())
		assert.Equal(t, "100", evt.New())
		assert.Equal(t, marketAdmin, evt.Sender())
	}).Times(1)
	require.NoError(t, tc.SetSupplyKink(ctx, marketAdmin, comet, 100))

	tc.broker.EXPECT().Send(gomock.Any()).Times(5)
	require.NoError(t, tc.SetBorrowPerYearInterestRateSlopeHigh(ctx, marketAdmin, comet, 3_000))
	require.NoError(t, tc.SetTargetReserves(ctx, marketAdmin, comet, big.NewInt(5_000_000)))
	require.NoError(t, tc.UpdateAssetBorrowCollateralFactor(ctx, marketAdmin, comet, weth, 750))
	require.NoError(t, tc.UpdateAssetSupplyCap(ctx, marketAdmin, comet, weth, big.NewInt(2_000)))
	require.NoError(t, tc.UpdateAssetPriceFeed(ctx, marketAdmin, comet, weth, stranger))

	cfg, err := tc.GetConfiguration(ctx, comet)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), cfg.SupplyKink)
	assert.Equal(t, uint64(3_000), cfg.BorrowPerYearInterestRateSlopeHigh)
	assert.Equal(t, 0, cfg.TargetReserves.Cmp(big.NewInt(5_000_000)))
	require.Len(t, cfg.AssetConfigs, 1)
	assert.Equal(t, uint64(750), cfg.AssetConfigs[0].BorrowCollateralFactor)
	assert.Equal(t, 0, cfg.AssetConfigs[0].SupplyCap.Cmp(big.NewInt(2_000)))
	assert.Equal(t, stranger, cfg.AssetConfigs[0].PriceFeed)
}

func testMarketAdminCannotCallGovernorSetters(t *testing.T) {
	tc := getConfiguredConfigurator(t)
	ctx := context.Background()

	assert.ErrorIs(t, tc.SetGovernor(ctx, marketAdmin, comet, stranger), types.ErrUnauthorized)
	assert.ErrorIs(t, tc.SetPauseGuardian(ctx, marketAdmin, comet, stranger), types.ErrUnauthorized)
	assert.ErrorIs(t, tc.SetBaseTokenPriceFeed(ctx, marketAdmin, comet, stranger), types.ErrUnauthorized)
	assert.ErrorIs(t, tc.SetExtensionDelegate(ctx, marketAdmin, comet, stranger), types.ErrUnauthorized)
	assert.ErrorIs(t, tc.SetStoreFrontPriceFactor(ctx, marketAdmin, comet, 1), types.ErrUnauthorized)
	assert.ErrorIs(t, tc.SetFactory(ctx, marketAdmin, comet, stranger), types.ErrUnauthorized)
	assert.ErrorIs(t, tc.AddAsset(ctx, marketAdmin, comet, types.AssetConfig{Asset: stranger}), types.ErrUnauthorized)
	assert.ErrorIs(t, tc.UpdateAsset(ctx, marketAdmin, comet, types.AssetConfig{Asset: weth}), types.ErrUnauthorized)
	assert.ErrorIs(t, tc.SetConfiguration(ctx, marketAdmin, comet, types.Configuration{BaseToken: baseToken}), types.ErrUnauthorized)
	assert.ErrorIs(t, tc.SetMarketAdmin(ctx, marketAdmin, stranger), types.ErrUnauthorized)
	assert.ErrorIs(t, tc.TransferGovernor(ctx, marketAdmin, marketAdmin), types.ErrUnauthorized)
	assert.ErrorIs(t, tc.UnpauseMarketAdmin(ctx, marketAdmin), types.ErrUnauthorized)
}

func testGovernorUpdatesParameters(t *testing.T) {
	tc := getConfiguredConfigurator(t)
	ctx := context.Background()
	tc.broker.EXPECT().Send(gomock.Any()).Times(3)

	require.NoError(t, tc.SetSupplyKink(ctx, governor, comet, 900))
	require.NoError(t, tc.SetStoreFrontPriceFactor(ctx, governor, comet, 500))
	require.NoError(t, tc.SetBaseTokenPriceFeed(ctx, governor, comet, stranger))

	cfg, err := tc.GetConfiguration(ctx, comet)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), cfg.SupplyKink)
	assert.Equal(t, uint64(500), cfg.StoreFrontPriceFactor)
	assert.Equal(t, stranger, cfg.BaseTokenPriceFeed)
}

func testOthersCannotUpdate(t *testing.T) {
	tc := getConfiguredConfigurator(t)
	ctx := context.Background()

	for _, sender := range []common.Address{guardian, stranger, {}} {
		err := tc.SetSupplyKink(ctx, sender, comet, 1)
		require.ErrorIs(t, err, types.ErrUnauthorized)
		assert.Contains(t, err.Error(), "setSupplyKink: call must come from the governor or market admin")
		assert.ErrorIs(t, tc.UpdateAssetLiquidationFactor(ctx, sender, comet, weth, 1), types.ErrUnauthorized)
	}
}

func testPausedMarketAdminCannotUpdate(t *testing.T) {
	tc := getConfiguredConfigurator(t)
	ctx := context.Background()
	// pause, the governor update, unpause and the market admin update
	tc.broker.EXPECT().Send(gomock.Any()).Times(4)

	require.NoError(t, tc.PauseMarketAdmin(ctx, guardian))
	assert.ErrorIs(t, tc.SetSupplyKink(ctx, marketAdmin, comet, 1), types.ErrMarketAdminIsPaused)
	// the governor is not affected
	require.NoError(t, tc.SetSupplyKink(ctx, governor, comet, 1))

	assert.ErrorIs(t, tc.UnpauseMarketAdmin(ctx, guardian), types.ErrUnauthorized)
	require.NoError(t, tc.UnpauseMarketAdmin(ctx, governor))
	assert.NoError(t, tc.SetSupplyKink(ctx, marketAdmin, comet, 2))
}

func TestConfiguration(t *testing.T) {
	t.Run("base token cannot change once set", testBaseTokenCannotChange)
	t.Run("parameters need a configuration", testParametersNeedConfiguration)
	t.Run("assets must exist to be updated", testAssetsMustExist)
	t.Run("assets cannot be added twice", testAssetsCannotBeAddedTwice)
	t.Run("zero addresses are rejected", testZeroAddressesRejected)
}

func testBaseTokenCannotChange(t *testing.T) {
	tc := getConfiguredConfigurator(t)
	ctx := context.Background()

	err := tc.SetConfiguration(ctx, governor, comet, types.Configuration{BaseToken: stranger, TrackingIndexScale: 1e15})
	assert.ErrorIs(t, err, configurator.ErrConfigurationAlreadyExists)
	err = tc.SetConfiguration(ctx, governor, comet, types.Configuration{BaseToken: baseToken, TrackingIndexScale: 1})
	assert.ErrorIs(t, err, configurator.ErrConfigurationAlreadyExists)

	tc.broker.EXPECT().Send(gomock.Any()).Times(1)
	require.NoError(t, tc.SetConfiguration(ctx, governor, comet, types.Configuration{BaseToken: baseToken, TrackingIndexScale: 1e15, SupplyKink: 1}))
	cfg, err := tc.GetConfiguration(ctx, comet)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cfg.SupplyKink)
	assert.Empty(t, cfg.AssetConfigs)
}

func testParametersNeedConfiguration(t *testing.T) {
	tc := getTestConfigurator(t)
	ctx := context.Background()

	assert.ErrorIs(t, tc.SetSupplyKink(ctx, marketAdmin, comet, 1), configurator.ErrConfigurationNotSet)
	_, err := tc.Deploy(ctx, stranger, comet)
	assert.ErrorIs(t, err, configurator.ErrConfigurationNotSet)
}

func testAssetsMustExist(t *testing.T) {
	tc := getConfiguredConfigurator(t)
	ctx := context.Background()

	assert.ErrorIs(t, tc.UpdateAssetSupplyCap(ctx, marketAdmin, comet, stranger, big.NewInt(1)), configurator.ErrAssetDoesNotExist)
	assert.ErrorIs(t, tc.UpdateAsset(ctx, governor, comet, types.AssetConfig{Asset: stranger}), configurator.ErrAssetDoesNotExist)
}

func testAssetsCannotBeAddedTwice(t *testing.T) {
	tc := getConfiguredConfigurator(t)
	err := tc.AddAsset(context.Background(), governor, comet, types.AssetConfig{Asset: weth})
	assert.ErrorIs(t, err, configurator.ErrAssetAlreadyExists)
}

func testZeroAddressesRejected(t *testing.T) {
	tc := getConfiguredConfigurator(t)
	ctx := context.Background()
	zero := common.Address{}

	assert.ErrorIs(t, tc.SetPauseGuardian(ctx, governor, comet, zero), types.ErrInvalidAddress)
	assert.ErrorIs(t, tc.UpdateAssetPriceFeed(ctx, marketAdmin, comet, weth, zero), types.ErrInvalidAddress)
	assert.ErrorIs(t, tc.SetMarketAdmin(ctx, governor, zero), types.ErrInvalidAddress)
	assert.ErrorIs(t, tc.SetFactory(ctx, governor, comet, zero), types.ErrInvalidAddress)
}

func TestDeploy(t *testing.T) {
	t.Run("deploy snapshots the configuration", testDeploySnapshotsConfiguration)
	t.Run("deploy needs a factory", testDeployNeedsFactory)
}

func testDeploySnapshotsConfiguration(t *testing.T) {
	tc := getConfiguredConfigurator(t)
	ctx := context.Background()

	var deployed []common.Address
	tc.broker.EXPECT().Send(gomock.Any()).Do(func(e events.Event) {
		if evt, ok := e.(*events.CometDeployed); ok {
			assert.Equal(t, comet, evt.CometProxy())
			deployed = append(deployed, evt.Implementation())
		}
	}).Times(3)

	impl1, err := tc.Deploy(ctx, stranger, comet)
	require.NoError(t, err)
	assert.Equal(t, crypto.ContractAddress(factory, 0), impl1)

	require.NoError(t, tc.SetSupplyKink(ctx, marketAdmin, comet, 100))
	impl2, err := tc.Deploy(ctx, stranger, comet)
	require.NoError(t, err)
	assert.Equal(t, crypto.ContractAddress(factory, 1), impl2)
	assert.Equal(t, []common.Address{impl1, impl2}, deployed)

	cfg1, ok, err := tc.DeployedConfiguration(ctx, impl1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(800), cfg1.SupplyKink)
	cfg2, ok, err := tc.DeployedConfiguration(ctx, impl2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(100), cfg2.SupplyKink)
}

func testDeployNeedsFactory(t *testing.T) {
	tc := getTestConfigurator(t)
	ctx := context.Background()
	tc.broker.EXPECT().Send(gomock.Any()).Times(1)

	require.NoError(t, tc.SetConfiguration(ctx, governor, comet, types.Configuration{BaseToken: baseToken}))
	_, err := tc.Deploy(ctx, stranger, comet)
	assert.ErrorIs(t, err, configurator.ErrFactoryNotSet)
}

func TestConfiguratorThroughLedger(t *testing.T) {
	tc := getConfiguredConfigurator(t)
	ctx := context.Background()
	router := ledger.New(logging.NewTestLogger(), tc.store)
	require.NoError(t, router.Register(tc.Configurator))

	setKink := calldata.MustParseSignature("setSupplyKink(address,uint64)")
	data, err := setKink.EncodeCall(comet, uint64(100))
	require.NoError(t, err)

	t.Run("value is rejected", func(t *testing.T) {
		_, err := router.Call(ctx, types.Message{Sender: marketAdmin, Target: configuratorAddr, Value: uint256.NewInt(1), Data: data})
		assert.ErrorIs(t, err, ledger.ErrNonPayable)
	})

	t.Run("unknown selectors are rejected", func(t *testing.T) {
		_, err := router.Call(ctx, types.Message{Sender: marketAdmin, Target: configuratorAddr, Data: []byte{0xde, 0xad, 0xbe, 0xef}})
		assert.ErrorIs(t, err, calldata.ErrUnknownSelector)
	})

	t.Run("setters are dispatched", func(t *testing.T) {
		tc.broker.EXPECT().Send(gomock.Any()).Times(1)
		_, err := router.Call(ctx, types.Message{Sender: marketAdmin, Target: configuratorAddr, Data: data})
		require.NoError(t, err)
		cfg, err := tc.GetConfiguration(ctx, comet)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), cfg.SupplyKink)
	})

	t.Run("big setters are dispatched", func(t *testing.T) {
		m := calldata.MustParseSignature("updateAssetSupplyCap(address,address,uint128)")
		data, err := m.EncodeCall(comet, weth, big.NewInt(42))
		require.NoError(t, err)
		tc.broker.EXPECT().Send(gomock.Any()).Times(1)
		_, err = router.Call(ctx, types.Message{Sender: marketAdmin, Target: configuratorAddr, Data: data})
		require.NoError(t, err)
		cfg, err := tc.GetConfiguration(ctx, comet)
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.AssetConfigs[0].SupplyCap.Cmp(big.NewInt(42)))
	})

	t.Run("deploy returns the implementation", func(t *testing.T) {
		m := calldata.MustParseSignature(configurator.DeploySignature, "address")
		data, err := m.EncodeCall(comet)
		require.NoError(t, err)
		tc.broker.EXPECT().Send(gomock.Any()).Times(1)
		out, err := router.Call(ctx, types.Message{Sender: stranger, Target: configuratorAddr, Data: data})
		require.NoError(t, err)
		vals, err := m.DecodeOutputs(out)
		require.NoError(t, err)
		assert.Equal(t, crypto.ContractAddress(factory, 0), vals[0])
	})

	t.Run("every market parameter is exposed", func(t *testing.T) {
		sigs := tc.Signatures()
		for _, sig := range []string{
			"setSupplyKink(address,uint64)",
			"setBorrowKink(address,uint64)",
			"setBaseMinForRewards(address,uint104)",
			"setBaseBorrowMin(address,uint104)",
			"setTargetReserves(address,uint104)",
			"updateAssetPriceFeed(address,address,address)",
			"updateAssetLiquidationFactor(address,address,uint64)",
			"deploy(address)",
		} {
			assert.Contains(t, sigs, sig)
		}
	})
}
