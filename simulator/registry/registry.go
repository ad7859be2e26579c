package registry

import (
	"fmt"
	"math/big"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

var registryLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	registryLog = zerolog.New(out).With().Timestamp().Str("component", "registry").Logger()
}

// Registry is an immutable in-memory view of the configured chains
type Registry struct {
	chains  map[string]*Chain                   // chain id -> chain
	system  map[string]map[xcm.ChainRole]string // family -> role -> chain id
	indexed map[string]map[string]xcm.Asset     // chain id -> asset id -> asset
}

// New indexes the chains. Chain ids must be unique.
func New(chains []Chain) (*Registry, error) {
	r := &Registry{
		chains:  make(map[string]*Chain, len(chains)),
		system:  make(map[string]map[xcm.ChainRole]string),
		indexed: make(map[string]map[string]xcm.Asset),
	}
	for i := range chains {
		c := chains[i]
		if c.ID == "" {
			return nil, fmt.Errorf("chain at position %d has no id", i)
		}
		if _, exists := r.chains[c.ID]; exists {
			return nil, fmt.Errorf("duplicate chain id %s", c.ID)
		}
		if c.Role == "" {
			c.Role = RoleFromID(c.ID, c.Family)
		}
		r.chains[c.ID] = &c

		if c.Role != xcm.RoleParachain && c.Family != "" {
			if r.system[c.Family] == nil {
				r.system[c.Family] = make(map[xcm.ChainRole]string)
			}
			if _, taken := r.system[c.Family][c.Role]; !taken {
				r.system[c.Family][c.Role] = c.ID
			}
		}

		byID := make(map[string]xcm.Asset)
		for _, asset := range c.Assets {
			if asset.AssetID != "" {
				byID[asset.AssetID] = asset
			}
		}
		r.indexed[c.ID] = byID
	}
	registryLog.Debug().Int("chains", len(r.chains)).Msg("Registry indexed")
	return r, nil
}

// Chain returns the registry view of a chain
func (r *Registry) Chain(id string) (xcm.ChainInfo, error) {
	c, err := r.chain(id)
	if err != nil {
		return xcm.ChainInfo{}, err
	}
	return xcm.ChainInfo{
		ID:             c.ID,
		Family:         c.Family,
		Role:           c.Role,
		NativeSymbol:   c.NativeSymbol,
		NativeDecimals: c.NativeDecimals,
		EVM:            c.EVM,
		DryRun:         c.DryRun,
		SS58Prefix:     c.SS58Prefix,
	}, nil
}

// Chains lists every chain ordered by id
func (r *Registry) Chains() []xcm.ChainInfo {
	ids := make([]string, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]xcm.ChainInfo, 0, len(ids))
	for _, id := range ids {
		info, _ := r.Chain(id)
		out = append(out, info)
	}
	return out
}

// Assets lists the native asset followed by the configured assets of a chain
func (r *Registry) Assets(chain string) ([]xcm.Asset, error) {
	c, err := r.chain(chain)
	if err != nil {
		return nil, err
	}
	return append([]xcm.Asset{nativeOf(c)}, c.Assets...), nil
}

func (r *Registry) chain(id string) (*Chain, error) {
	c, ok := r.chains[id]
	if !ok {
		return nil, &xcm.ResolutionError{Kind: xcm.ResolveChain, Chain: id, Subject: "registry"}
	}
	return c, nil
}

func nativeOf(c *Chain) xcm.Asset {
	return xcm.Asset{
		Symbol:             c.NativeSymbol,
		Decimals:           c.NativeDecimals,
		Location:           c.NativeLocation,
		ExistentialDeposit: c.NativeED,
		IsNative:           true,
	}
}

// NativeAsset returns the native token of a chain
func (r *Registry) NativeAsset(chain string) (xcm.Asset, error) {
	c, err := r.chain(chain)
	if err != nil {
		return xcm.Asset{}, err
	}
	return nativeOf(c), nil
}

// FindAsset resolves a currency on a chain: by location, then id, then symbol.
// An exact symbol match wins over a normalized one.
func (r *Registry) FindAsset(chain string, currency xcm.Currency, destination string) (xcm.Asset, error) {
	c, err := r.chain(chain)
	if err != nil {
		return xcm.Asset{}, err
	}
	candidates := append([]xcm.Asset{nativeOf(c)}, c.Assets...)

	if currency.Location != nil {
		for _, a := range candidates {
			if a.Location.Equal(currency.Location) {
				return a, nil
			}
		}
		return xcm.Asset{}, notFound(chain, currency, destination)
	}
	if currency.AssetID != "" {
		if a, ok := r.indexed[chain][currency.AssetID]; ok {
			return a, nil
		}
		return xcm.Asset{}, notFound(chain, currency, destination)
	}
	if currency.Symbol == "" {
		return xcm.Asset{}, &xcm.PreconditionError{Field: "currency", Message: "symbol, id or location is required"}
	}

	for _, a := range candidates {
		if a.Symbol == currency.Symbol {
			return a, nil
		}
	}
	var matches []xcm.Asset
	for _, a := range candidates {
		if xcm.SymbolsEqual(a.Symbol, currency.Symbol) {
			matches = append(matches, a)
		}
	}
	switch len(matches) {
	case 0:
		return xcm.Asset{}, notFound(chain, currency, destination)
	case 1:
		return matches[0], nil
	}
	return xcm.Asset{}, &xcm.ResolutionError{
		Kind:    xcm.ResolveAsset,
		Chain:   chain,
		Subject: currency.Describe(),
		Err:     fmt.Errorf("%d assets match, use an id or location", len(matches)),
	}
}

func notFound(chain string, currency xcm.Currency, destination string) error {
	subject := currency.Describe()
	if destination != "" {
		subject += " towards " + destination
	}
	return &xcm.ResolutionError{Kind: xcm.ResolveAsset, Chain: chain, Subject: subject}
}

// FindAssetOnDest finds the destination representation of the asset the
// currency names on origin: by location when it has one, else by symbol
func (r *Registry) FindAssetOnDest(origin, destination string, currency xcm.Currency) (xcm.Asset, error) {
	originAsset, err := r.FindAsset(origin, currency, destination)
	if err != nil {
		return xcm.Asset{}, err
	}
	if originAsset.Location != nil {
		if a, err := r.FindAsset(destination, xcm.Currency{Location: originAsset.Location}, ""); err == nil {
			return a, nil
		}
	}
	return r.FindAsset(destination, xcm.Currency{Symbol: originAsset.Symbol}, "")
}

// ExistentialDeposit resolves the deposit of a currency on a chain. A missing
// deposit is an error, never zero.
func (r *Registry) ExistentialDeposit(chain string, currency xcm.Currency) (*big.Int, error) {
	asset, err := r.FindAsset(chain, currency, "")
	if err != nil {
		return nil, err
	}
	if asset.ExistentialDeposit == nil {
		return nil, &xcm.ResolutionError{Kind: xcm.ResolveExistentialDeposit, Chain: chain, Subject: currency.Describe()}
	}
	return new(big.Int).Set(asset.ExistentialDeposit), nil
}

// AssetsEqual compares identities: locations when both have one, then ids,
// then normalized symbols
func (r *Registry) AssetsEqual(a, b xcm.Asset) bool {
	if a.Location != nil && b.Location != nil {
		return a.Location.Equal(b.Location)
	}
	if a.AssetID != "" && b.AssetID != "" {
		return a.AssetID == b.AssetID && xcm.SymbolsEqual(a.Symbol, b.Symbol)
	}
	return xcm.SymbolsEqual(a.Symbol, b.Symbol)
}

// IsEVM is false for unknown chains
func (r *Registry) IsEVM(chain string) bool {
	c, ok := r.chains[chain]
	return ok && c.EVM
}

// SystemChain names the chain holding a role inside a relay family
func (r *Registry) SystemChain(family string, role xcm.ChainRole) (string, error) {
	if id, ok := r.system[family][role]; ok {
		return id, nil
	}
	return "", &xcm.ResolutionError{Kind: xcm.ResolveChain, Chain: family, Subject: string(role)}
}

// PalletAt finds the xcm pallet registered at a runtime index
func (r *Registry) PalletAt(chain string, index uint8) (string, bool) {
	c, ok := r.chains[chain]
	if !ok {
		return "", false
	}
	name, ok := c.Pallets[index]
	return name, ok
}

// ForeignAssetByIndex finds an assets pallet entry by its general index
func (r *Registry) ForeignAssetByIndex(chain string, index string) (xcm.Asset, bool) {
	a, ok := r.indexed[chain][index]
	return a, ok
}
