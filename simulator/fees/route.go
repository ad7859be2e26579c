package fees

import "github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"

// path lists the intermediate chains a transfer crosses
type path struct {
	assetHub  string   // reserve asset hub of the origin family
	bridgeHub string   // bridge hub of the origin family
	extra     []string // chains beyond the bridge
}

// route derives the intermediate chains from chain roles and relay families.
// Cross family transfers leave through the origin family's asset hub and bridge
// hub and enter through the remote asset hub. Inside one family a transfer of an
// asset foreign to both ends is routed through the asset hub reserve.
func (e *Estimator) route(origin, destination xcm.ChainInfo, asset xcm.Asset) (path, error) {
	var p path

	if origin.Family != destination.Family {
		if origin.Role != xcm.RoleAssetHub {
			ah, err := e.registry.SystemChain(origin.Family, xcm.RoleAssetHub)
			if err != nil {
				return p, err
			}
			p.assetHub = ah
		}
		bh, err := e.registry.SystemChain(origin.Family, xcm.RoleBridgeHub)
		if err != nil {
			return p, err
		}
		p.bridgeHub = bh
		if destination.Role != xcm.RoleAssetHub && destination.Role != xcm.RoleEthereum {
			remote, err := e.registry.SystemChain(destination.Family, xcm.RoleAssetHub)
			if err != nil {
				return p, err
			}
			p.extra = append(p.extra, remote)
		}
		return p, nil
	}

	if isSystem(origin.Role) || isSystem(destination.Role) || asset.IsNative {
		return p, nil
	}
	destNative, err := e.registry.NativeAsset(destination.ID)
	if err != nil {
		return p, err
	}
	if e.registry.AssetsEqual(asset, destNative) {
		return p, nil
	}
	ah, err := e.registry.SystemChain(origin.Family, xcm.RoleAssetHub)
	if err != nil {
		return p, err
	}
	p.assetHub = ah
	return p, nil
}

func isSystem(role xcm.ChainRole) bool {
	return role == xcm.RoleAssetHub || role == xcm.RoleRelay || role == xcm.RoleBridgeHub
}
