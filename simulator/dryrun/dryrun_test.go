package dryrun_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/dryrun"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

type fakeCatalog struct {
	native  map[string]xcm.Asset
	foreign map[string]xcm.Asset
}

func (c fakeCatalog) NativeAsset(chain string) (xcm.Asset, error) {
	a, ok := c.native[chain]
	if !ok {
		return xcm.Asset{}, &xcm.ResolutionError{Kind: xcm.ResolveChain, Chain: chain, Subject: "registry"}
	}
	return a, nil
}

func (c fakeCatalog) ForeignAssetByIndex(chain string, index string) (xcm.Asset, bool) {
	a, ok := c.foreign[chain+"/"+index]
	return a, ok
}

type fakePallets map[uint8]string

func (p fakePallets) PalletAt(_ string, index uint8) (string, bool) {
	name, ok := p[index]
	return name, ok
}

func u8(v uint8) *uint8    { return &v }
func str(v string) *string { return &v }

func assetsLocation(index string) xcm.Location {
	return xcm.Location{Parents: 0, Interior: []xcm.Junction{
		{PalletInstance: u8(50)},
		{GeneralIndex: str(index)},
	}}
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		native: map[string]xcm.Asset{
			"AssetHubPolkadot": {Symbol: "DOT", Decimals: 10, IsNative: true},
		},
		foreign: map[string]xcm.Asset{
			"AssetHubPolkadot/1984": {Symbol: "USDT", Decimals: 6, AssetID: "1984"},
			"AssetHubPolkadot/30":   {Symbol: "DED", Decimals: 10, AssetID: "30"},
		},
	}
}

func feesPaid(pallet string, fees ...xcm.FeeAsset) xcm.Event {
	return xcm.Event{Pallet: pallet, Method: "FeesPaid", Fees: fees}
}

func TestComputeFee(t *testing.T) {
	catalog := testCatalog()
	events := []xcm.Event{
		feesPaid("PolkadotXcm", xcm.FeeAsset{ID: xcm.Location{Parents: 1}, Fungible: big.NewInt(300)}),
		feesPaid("XcmPallet", xcm.FeeAsset{ID: xcm.Location{}, Fungible: big.NewInt(20)}),
		// not a native fee
		feesPaid("PolkadotXcm", xcm.FeeAsset{ID: assetsLocation("1984"), Fungible: big.NewInt(5000)}),
		// not an xcm pallet
		feesPaid("Balances", xcm.FeeAsset{ID: xcm.Location{}, Fungible: big.NewInt(7)}),
		// wrong method
		{Pallet: "PolkadotXcm", Method: "Sent", Fees: []xcm.FeeAsset{{ID: xcm.Location{}, Fungible: big.NewInt(9)}}},
		// non fungible entry
		feesPaid("CumulusXcm", xcm.FeeAsset{ID: xcm.Location{}}),
	}

	executionFee := big.NewInt(1000)
	fee, err := dryrun.ComputeFee("AssetHubPolkadot", events, catalog, executionFee)
	assert.NoError(t, err)
	assert.Equal(t, fee.String(), "1320")
	assert.Equal(t, executionFee.String(), "1000")
}

func TestComputeFeeNoEvents(t *testing.T) {
	fee, err := dryrun.ComputeFee("AssetHubPolkadot", nil, testCatalog(), nil)
	assert.NoError(t, err)
	assert.Equal(t, fee.Sign(), 0)

	_, err = dryrun.ComputeFee("Unknown", nil, testCatalog(), big.NewInt(1))
	var resolution *xcm.ResolutionError
	assert.True(t, errors.As(err, &resolution))
}

func TestResolveSymbol(t *testing.T) {
	catalog := testCatalog()
	native := xcm.Asset{Symbol: "DOT", Decimals: 10, IsNative: true}

	tests := []struct {
		name   string
		loc    xcm.Location
		symbol string
		ok     bool
	}{
		{name: "here", loc: xcm.Location{}, symbol: "DOT", ok: true},
		{name: "relay root", loc: xcm.Location{Parents: 1}, symbol: "DOT", ok: true},
		{name: "assets pallet", loc: assetsLocation("1984"), symbol: "USDT", ok: true},
		{name: "unknown index", loc: assetsLocation("77"), ok: false},
		{name: "non numeric index", loc: assetsLocation("abc"), ok: false},
		{name: "other pallet", loc: xcm.Location{Interior: []xcm.Junction{
			{PalletInstance: u8(51)}, {GeneralIndex: str("1984")},
		}}, ok: false},
		{name: "single junction", loc: xcm.Location{Interior: []xcm.Junction{{PalletInstance: u8(50)}}}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbol, ok := dryrun.ResolveSymbol("AssetHubPolkadot", tt.loc, catalog, native)
			assert.Equal(t, ok, tt.ok)
			assert.Equal(t, symbol, tt.symbol)
		})
	}
}

func TestResolveModuleError(t *testing.T) {
	pallets := fakePallets{31: "PolkadotXcm", 99: "XcmPallet", 54: "XTokens", 10: "Balances"}

	tests := []struct {
		name   string
		err    xcm.ModuleError
		reason dryrun.Reason
		text   string
	}{
		{
			name:   "polkadot xcm",
			err:    xcm.ModuleError{Index: 31, Error: "0x02000000"},
			reason: dryrun.Reason{Pallet: "PolkadotXcm", Error: "Filtered"},
			text:   "Filtered",
		},
		{
			name:   "without hex prefix",
			err:    xcm.ModuleError{Index: 99, Error: "11000000"},
			reason: dryrun.Reason{Pallet: "XcmPallet", Error: "FeesNotMet"},
			text:   "FeesNotMet",
		},
		{
			name:   "local execution incomplete",
			err:    xcm.ModuleError{Index: 31, Error: "0x18140000"},
			reason: dryrun.Reason{Pallet: "PolkadotXcm", Error: "LocalExecutionIncomplete", SubError: "TooExpensive"},
			text:   "LocalExecutionIncomplete: TooExpensive",
		},
		{
			name:   "local execution incomplete without detail",
			err:    xcm.ModuleError{Index: 31, Error: "0x18"},
			reason: dryrun.Reason{Pallet: "PolkadotXcm", Error: "LocalExecutionIncomplete"},
			text:   "LocalExecutionIncomplete",
		},
		{
			name:   "xtokens",
			err:    xcm.ModuleError{Index: 54, Error: "0x10000000"},
			reason: dryrun.Reason{Pallet: "XTokens", Error: "FeeNotEnough"},
			text:   "FeeNotEnough",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, err := dryrun.ResolveModuleError("AssetHubPolkadot", tt.err, pallets)
			assert.NoError(t, err)
			assert.Equal(t, reason, tt.reason)
			assert.Equal(t, reason.String(), tt.text)
		})
	}
}

func TestResolveModuleErrorFailures(t *testing.T) {
	pallets := fakePallets{31: "PolkadotXcm", 10: "Balances"}

	tests := []struct {
		name string
		err  xcm.ModuleError
		kind xcm.ResolutionKind
	}{
		{name: "unknown pallet index", err: xcm.ModuleError{Index: 7, Error: "0x00"}, kind: xcm.ResolvePallet},
		{name: "not an xcm pallet", err: xcm.ModuleError{Index: 10, Error: "0x00"}, kind: xcm.ResolvePallet},
		{name: "bad hex", err: xcm.ModuleError{Index: 31, Error: "0xzz"}, kind: xcm.ResolveErrorCode},
		{name: "empty code", err: xcm.ModuleError{Index: 31, Error: ""}, kind: xcm.ResolveErrorCode},
		{name: "index out of range", err: xcm.ModuleError{Index: 31, Error: "0xff000000"}, kind: xcm.ResolveErrorCode},
		{name: "execution error out of range", err: xcm.ModuleError{Index: 31, Error: "0x18ff0000"}, kind: xcm.ResolveErrorCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dryrun.ResolveModuleError("AssetHubPolkadot", tt.err, pallets)
			var resolution *xcm.ResolutionError
			assert.True(t, errors.As(err, &resolution))
			assert.Equal(t, resolution.Kind, tt.kind)
			assert.Equal(t, resolution.Chain, "AssetHubPolkadot")
		})
	}
}
