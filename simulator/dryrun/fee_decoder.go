// Package dryrun turns raw dry run output into fees and typed failure reasons
package dryrun

import (
	"math/big"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

// xcm pallets that emit FeesPaid
var feePallets = map[string]bool{
	"XcmPallet":   true,
	"PolkadotXcm": true,
	"CumulusXcm":  true,
}

const feesPaidEvent = "FeesPaid"

// assets pallet instance of asset hub style chains
const assetsPalletInstance = 50

// Catalog resolves asset identities on one chain
type Catalog interface {
	NativeAsset(chain string) (xcm.Asset, error)
	ForeignAssetByIndex(chain string, index string) (xcm.Asset, bool)
}

// ComputeFee adds the delivery fees paid in the native token to the execution fee
func ComputeFee(chain string, events []xcm.Event, catalog Catalog, executionFee *big.Int) (*big.Int, error) {
	native, err := catalog.NativeAsset(chain)
	if err != nil {
		return nil, err
	}

	total := new(big.Int)
	if executionFee != nil {
		total.Set(executionFee)
	}

	for _, event := range events {
		if !feePallets[event.Pallet] || event.Method != feesPaidEvent {
			continue
		}
		for _, fee := range event.Fees {
			if fee.Fungible == nil {
				continue
			}
			symbol, ok := ResolveSymbol(chain, fee.ID, catalog, native)
			if !ok || !xcm.SymbolsEqual(symbol, native.Symbol) {
				continue
			}
			total.Add(total, fee.Fungible)
		}
	}
	return total, nil
}

// ResolveSymbol maps a fee location to a token symbol. Only the chain root and
// [PalletInstance(50), GeneralIndex(n)] are recognised.
func ResolveSymbol(chain string, loc xcm.Location, catalog Catalog, native xcm.Asset) (string, bool) {
	if loc.IsHere() {
		return native.Symbol, true
	}
	if len(loc.Interior) != 2 {
		return "", false
	}
	pallet, index := loc.Interior[0].PalletInstance, loc.Interior[1].GeneralIndex
	if pallet == nil || *pallet != assetsPalletInstance || index == nil {
		return "", false
	}
	if _, ok := new(big.Int).SetString(*index, 10); !ok {
		return "", false
	}
	asset, ok := catalog.ForeignAssetByIndex(chain, *index)
	if !ok {
		return "", false
	}
	return asset.Symbol, true
}
