package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/registry"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
	"github.com/pelletier/go-toml/v2"
)

// ChainConfigLoader loads the chain registry and converts it to the types the
// simulator works with
type ChainConfigLoader struct{}

// NewChainConfigLoader creates a new chain config loader.
func NewChainConfigLoader() *ChainConfigLoader {
	return &ChainConfigLoader{}
}

// LoadFromFile loads a single registry file
func (l *ChainConfigLoader) LoadFromFile(filePath string) ([]ChainEntry, error) {
	if !strings.HasSuffix(filePath, ".toml") {
		return nil, fmt.Errorf("registry file must be a .toml file: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", filePath, err)
	}

	var file RegistryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry file %s: %w", filePath, err)
	}
	return file.Chains, nil
}

// LoadFromPath loads a registry file, or every .toml file of a registry directory
func (l *ChainConfigLoader) LoadFromPath(path string) ([]ChainEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat registry %s: %w", path, err)
	}
	if !info.IsDir() {
		return l.LoadFromFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry directory %s: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var chains []ChainEntry
	for _, name := range names {
		loaded, err := l.LoadFromFile(filepath.Join(path, name))
		if err != nil {
			return nil, err
		}
		chains = append(chains, loaded...)
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("no chains in registry %s", path)
	}
	return chains, nil
}

// ConvertToRegistryTypes converts validated entries to registry chains
func (l *ChainConfigLoader) ConvertToRegistryTypes(entries []ChainEntry) ([]registry.Chain, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no chains in config")
	}

	chains := make([]registry.Chain, len(entries))
	for i, entry := range entries {
		nativeED, err := parseED(entry.NativeED)
		if err != nil {
			return nil, fmt.Errorf("%s native_ed: %w", entry.ID, err)
		}

		chains[i] = registry.Chain{
			ID:             entry.ID,
			Family:         entry.Family,
			Role:           xcm.ChainRole(entry.Role),
			NativeSymbol:   entry.NativeSymbol,
			NativeDecimals: entry.NativeDecimals,
			NativeED:       nativeED,
			NativeLocation: entry.NativeLocation.toLocation(),
			EVM:            entry.EVM,
			DryRun:         entry.DryRun,
			SS58Prefix:     entry.SS58Prefix,
			Pallets:        make(map[uint8]string, len(entry.Pallets)),
			Assets:         make([]xcm.Asset, len(entry.Assets)),
		}
		for _, pallet := range entry.Pallets {
			chains[i].Pallets[pallet.Index] = pallet.Name
		}
		for j, asset := range entry.Assets {
			ed, err := parseED(asset.ED)
			if err != nil {
				return nil, fmt.Errorf("%s asset %s ed: %w", entry.ID, asset.Symbol, err)
			}
			chains[i].Assets[j] = xcm.Asset{
				Symbol:             asset.Symbol,
				Decimals:           asset.Decimals,
				AssetID:            asset.AssetID,
				Location:           asset.Location.toLocation(),
				ExistentialDeposit: ed,
			}
		}
	}
	return chains, nil
}

// Endpoints collects the sidecar urls of every chain, primary first
func (l *ChainConfigLoader) Endpoints(entries []ChainEntry) map[string][]string {
	out := make(map[string][]string, len(entries))
	for _, entry := range entries {
		for _, e := range entry.Sidecars {
			out[entry.ID] = append(out[entry.ID], e.URL)
		}
	}
	return out
}

// InitializeRegistry loads, validates and indexes the registry at path
func (l *ChainConfigLoader) InitializeRegistry(path string) (*registry.Registry, []ChainEntry, error) {
	entries, err := l.LoadFromPath(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load chain registry: %w", err)
	}
	if err := NewValidator().ValidateAll(entries); err != nil {
		return nil, nil, err
	}
	chains, err := l.ConvertToRegistryTypes(entries)
	if err != nil {
		return nil, nil, err
	}
	reg, err := registry.New(chains)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build registry: %w", err)
	}
	return reg, entries, nil
}

func parseED(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return v, nil
}

func (e *LocationEntry) toLocation() *xcm.Location {
	if e == nil {
		return nil
	}
	loc := &xcm.Location{Parents: e.Parents, Interior: make([]xcm.Junction, len(e.Interior))}
	for i, j := range e.Interior {
		loc.Interior[i] = xcm.Junction{
			Parachain:       j.Parachain,
			PalletInstance:  j.PalletInstance,
			GeneralIndex:    j.GeneralIndex,
			GeneralKey:      j.GeneralKey,
			AccountKey20:    j.AccountKey20,
			GlobalConsensus: j.GlobalConsensus,
		}
	}
	return loc
}

func (j JunctionEntry) kinds() int {
	n := 0
	for _, set := range []bool{
		j.Parachain != nil, j.PalletInstance != nil, j.GeneralIndex != nil,
		j.GeneralKey != nil, j.AccountKey20 != nil, j.GlobalConsensus != nil,
	} {
		if set {
			n++
		}
	}
	return n
}
