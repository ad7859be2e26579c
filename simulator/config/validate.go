package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

// ValidationError contains details about a validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains the results of validating one chain entry.
type ValidationResult struct {
	ChainID string
	IsValid bool
	Errors  []error
}

// Validator validates registry entries
type Validator struct {
	requireSidecars bool
}

// ValidatorOption configures the validator.
type ValidatorOption func(*Validator)

// WithRequireSidecars makes a chain without gateway endpoints invalid. Ethereum
// entries are exempt since they are read over JSON-RPC.
func WithRequireSidecars(require bool) ValidatorOption {
	return func(v *Validator) {
		v.requireSidecars = require
	}
}

// NewValidator creates a new registry validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SupportedRoles lists the chain roles the registry accepts
var SupportedRoles = []xcm.ChainRole{
	xcm.RoleRelay, xcm.RoleAssetHub, xcm.RoleBridgeHub, xcm.RoleParachain, xcm.RoleEthereum,
}

// Validate validates a single chain entry.
func (v *Validator) Validate(entry *ChainEntry) *ValidationResult {
	result := &ValidationResult{ChainID: entry.ID}

	v.validateRequired(entry, result)
	v.validateEndpoints(entry, result)
	v.validateAssets(entry, result)

	result.IsValid = len(result.Errors) == 0
	return result
}

// ValidateAll validates every entry and joins the failures
func (v *Validator) ValidateAll(entries []ChainEntry) error {
	var errs []error
	seen := make(map[string]bool, len(entries))
	for i := range entries {
		entry := &entries[i]
		if seen[entry.ID] {
			errs = append(errs, &ValidationError{"chain.id", fmt.Sprintf("duplicate chain id %s", entry.ID)})
		}
		seen[entry.ID] = true

		result := v.Validate(entry)
		for _, err := range result.Errors {
			errs = append(errs, fmt.Errorf("%s: %w", label(entry, i), err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (v *Validator) validateRequired(entry *ChainEntry, result *ValidationResult) {
	if entry.ID == "" {
		result.Errors = append(result.Errors, &ValidationError{"chain.id", "is required"})
	}
	if entry.Family == "" {
		result.Errors = append(result.Errors, &ValidationError{"chain.family", "is required"})
	}
	if entry.NativeSymbol == "" {
		result.Errors = append(result.Errors, &ValidationError{"chain.native_symbol", "is required"})
	}
	if entry.Role != "" && !slices.Contains(SupportedRoles, xcm.ChainRole(entry.Role)) {
		result.Errors = append(result.Errors, &ValidationError{"chain.role", fmt.Sprintf("unsupported role %q", entry.Role)})
	}
	if entry.NativeED != "" {
		if _, err := parseED(entry.NativeED); err != nil {
			result.Errors = append(result.Errors, &ValidationError{"chain.native_ed", err.Error()})
		}
	}
	for _, p := range entry.Pallets {
		if p.Name == "" {
			result.Errors = append(result.Errors, &ValidationError{"chain.pallet.name", fmt.Sprintf("pallet %d has no name", p.Index)})
		}
	}
}

func (v *Validator) validateEndpoints(entry *ChainEntry, result *ValidationResult) {
	isEthereum := entry.Role == string(xcm.RoleEthereum) || entry.ID == "Ethereum"
	if v.requireSidecars && !isEthereum && len(entry.Sidecars) == 0 {
		result.Errors = append(result.Errors, &ValidationError{"chain.sidecars", "at least one sidecar endpoint is required"})
	}
	for _, e := range entry.Sidecars {
		if !validURL(e.URL) {
			result.Errors = append(result.Errors, &ValidationError{"chain.sidecars.url", fmt.Sprintf("invalid url %q", e.URL)})
		}
	}
	if entry.EthereumRPC != "" && !validURL(entry.EthereumRPC) {
		result.Errors = append(result.Errors, &ValidationError{"chain.ethereum_rpc", fmt.Sprintf("invalid url %q", entry.EthereumRPC)})
	}
}

func (v *Validator) validateAssets(entry *ChainEntry, result *ValidationResult) {
	for _, asset := range entry.Assets {
		if asset.Symbol == "" {
			result.Errors = append(result.Errors, &ValidationError{"chain.asset.symbol", "is required"})
		}
		if asset.AssetID == "" && asset.Location == nil {
			result.Errors = append(result.Errors, &ValidationError{"chain.asset", fmt.Sprintf("%s needs asset_id or location", asset.Symbol)})
		}
		if asset.ED != "" {
			if _, err := parseED(asset.ED); err != nil {
				result.Errors = append(result.Errors, &ValidationError{"chain.asset.ed", err.Error()})
			}
		}
		if asset.Location != nil {
			for _, j := range asset.Location.Interior {
				if j.kinds() != 1 {
					result.Errors = append(result.Errors, &ValidationError{"chain.asset.location", fmt.Sprintf("%s: every junction needs exactly one kind", asset.Symbol)})
					break
				}
			}
		}
	}
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https" || u.Scheme == "ws" || u.Scheme == "wss") && u.Host != ""
}

func label(entry *ChainEntry, i int) string {
	if strings.TrimSpace(entry.ID) != "" {
		return entry.ID
	}
	return fmt.Sprintf("chain[%d]", i)
}
