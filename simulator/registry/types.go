// Package registry holds the chains and assets the simulator knows about
package registry

import (
	"math/big"
	"strings"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

// Chain is one registry entry
type Chain struct {
	ID             string
	Family         string // relay family, e.g. "polkadot"
	Role           xcm.ChainRole
	NativeSymbol   string
	NativeDecimals uint8
	NativeED       *big.Int // existential deposit of the native token, nil when unknown
	NativeLocation *xcm.Location
	EVM            bool
	DryRun         bool // runtime exposes the dry run api
	SS58Prefix     *uint16
	Pallets        map[uint8]string // runtime index -> pallet name, xcm pallets only
	Assets         []xcm.Asset      // non-native assets
}

// RoleFromID derives a role for registry entries that do not declare one
func RoleFromID(id, family string) xcm.ChainRole {
	switch {
	case strings.HasPrefix(id, "BridgeHub"):
		return xcm.RoleBridgeHub
	case strings.HasPrefix(id, "AssetHub"):
		return xcm.RoleAssetHub
	case id == "Ethereum":
		return xcm.RoleEthereum
	case family != "" && strings.EqualFold(id, family):
		return xcm.RoleRelay
	}
	return xcm.RoleParachain
}
