package xcm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
)

// ChainRole tags what a chain does inside a relay family
type ChainRole string

const (
	RoleRelay     ChainRole = "relay"
	RoleAssetHub  ChainRole = "asset-hub"
	RoleBridgeHub ChainRole = "bridge-hub" // pure message relay, never holds the transferred asset
	RoleParachain ChainRole = "parachain"
	RoleEthereum  ChainRole = "ethereum"
)

// FeeType tells how a fee was obtained
type FeeType string

const (
	FeeSimulated FeeType = "simulated" // full on-chain dry run
	FeeEstimated FeeType = "estimated" // payment info, native token only
)

// ChainInfo is the registry view of one chain
type ChainInfo struct {
	ID             string
	Family         string // relay family, e.g. "polkadot", "kusama"
	Role           ChainRole
	NativeSymbol   string
	NativeDecimals uint8
	EVM            bool
	DryRun         bool
	SS58Prefix     *uint16
}

// Junction is one step of an XCM location interior. Exactly one field is set.
type Junction struct {
	Parachain       *uint32 `json:"parachain,omitempty" toml:"parachain,omitempty"`
	PalletInstance  *uint8  `json:"palletInstance,omitempty" toml:"pallet_instance,omitempty"`
	GeneralIndex    *string `json:"generalIndex,omitempty" toml:"general_index,omitempty"`
	GeneralKey      *string `json:"generalKey,omitempty" toml:"general_key,omitempty"`
	AccountKey20    *string `json:"accountKey20,omitempty" toml:"account_key20,omitempty"`
	GlobalConsensus *string `json:"globalConsensus,omitempty" toml:"global_consensus,omitempty"`
}

func (j Junction) String() string {
	switch {
	case j.Parachain != nil:
		return fmt.Sprintf("Parachain(%d)", *j.Parachain)
	case j.PalletInstance != nil:
		return fmt.Sprintf("PalletInstance(%d)", *j.PalletInstance)
	case j.GeneralIndex != nil:
		return fmt.Sprintf("GeneralIndex(%s)", *j.GeneralIndex)
	case j.GeneralKey != nil:
		return fmt.Sprintf("GeneralKey(%s)", strings.ToLower(*j.GeneralKey))
	case j.AccountKey20 != nil:
		return fmt.Sprintf("AccountKey20(%s)", strings.ToLower(*j.AccountKey20))
	case j.GlobalConsensus != nil:
		return fmt.Sprintf("GlobalConsensus(%s)", *j.GlobalConsensus)
	}
	return "Unknown"
}

// Location is an XCM multi-location
type Location struct {
	Parents  uint8      `json:"parents" toml:"parents"`
	Interior []Junction `json:"interior" toml:"interior"`
}

// IsHere reports whether the location points at the chain itself or its relay root
func (l *Location) IsHere() bool {
	return l != nil && len(l.Interior) == 0
}

func (l *Location) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, 0, len(l.Interior)+1)
	parts = append(parts, fmt.Sprintf("parents=%d", l.Parents))
	for _, j := range l.Interior {
		parts = append(parts, j.String())
	}
	return strings.Join(parts, "/")
}

// Equal compares two locations junction by junction
func (l *Location) Equal(other *Location) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.String() == other.String()
}

// Clone returns a deep copy so callers never share junction pointers
func (l *Location) Clone() *Location {
	if l == nil {
		return nil
	}
	out := &Location{Parents: l.Parents, Interior: make([]Junction, len(l.Interior))}
	for i, j := range l.Interior {
		out.Interior[i] = Junction{
			Parachain:       clonePtr(j.Parachain),
			PalletInstance:  clonePtr(j.PalletInstance),
			GeneralIndex:    clonePtr(j.GeneralIndex),
			GeneralKey:      clonePtr(j.GeneralKey),
			AccountKey20:    clonePtr(j.AccountKey20),
			GlobalConsensus: clonePtr(j.GlobalConsensus),
		}
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Asset is a resolved asset descriptor on one chain
type Asset struct {
	Symbol             string    `json:"symbol"`
	Decimals           uint8     `json:"decimals"`
	AssetID            string    `json:"assetId,omitempty"`
	Location           *Location `json:"location,omitempty"`
	ExistentialDeposit *big.Int  `json:"existentialDeposit,omitempty"`
	IsNative           bool      `json:"isNative,omitempty"`
}

// Currency is the caller's description of what to move. Any of Symbol,
// AssetID or Location identifies the asset; Amount is decimal text.
type Currency struct {
	Symbol   string    `json:"symbol,omitempty"`
	AssetID  string    `json:"id,omitempty"`
	Location *Location `json:"location,omitempty"`
	Amount   string    `json:"amount,omitempty"`
}

// WithAmount returns a deep copy carrying the given amount
func (c Currency) WithAmount(amount *big.Int) Currency {
	out := c
	out.Location = c.Location.Clone()
	out.Amount = amount.String()
	return out
}

// Describe renders the currency for error messages
func (c Currency) Describe() string {
	switch {
	case c.Location != nil:
		return "location " + c.Location.String()
	case c.AssetID != "":
		return "id " + c.AssetID
	default:
		return "symbol " + c.Symbol
	}
}

// TransferIntent is one simulated transfer request
type TransferIntent struct {
	Origin           string
	Destination      string
	Sender           string
	Recipient        string
	Currency         Currency
	FeeAsset         *Currency // explicit fee asset, optional
	ProxyAddress     string    // asset hub address for EVM origins
	AbstractDecimals bool      // amount is human readable and scaled by the asset decimals
}

// FeeDetail is the fee charged at one leg
type FeeDetail struct {
	Fee             *big.Int
	Asset           Asset
	FeeType         FeeType
	SimulationError string
}

// Failed reports whether the leg simulation was rejected by the chain
func (f *FeeDetail) Failed() bool {
	return f != nil && f.SimulationError != ""
}

// HopFee is the fee of one additional intermediate chain
type HopFee struct {
	Chain  string
	Result FeeDetail
}

// FeeBreakdown is the per-leg fee result of a transfer
type FeeBreakdown struct {
	Origin      FeeDetail
	AssetHub    *FeeDetail
	BridgeHub   *FeeDetail
	Hops        []HopFee
	Destination FeeDetail
}

// FeeRequest carries the transfer inputs of a fee breakdown. Currency amount
// is already expressed in the smallest unit.
type FeeRequest struct {
	Origin          string
	Destination     string
	Sender          string
	Recipient       string
	Currency        Currency
	FeeAsset        *Currency
	ProxyAddress    string
	DisableFallback bool
}

// Tx is an encoded call ready for fee computation or simulation
type Tx struct {
	Chain  string `json:"chain"`
	Method string `json:"method,omitempty"`
	Call   string `json:"call"` // 0x-prefixed SCALE encoded call
}

// TxFactory builds the candidate transaction on demand
type TxFactory func(ctx context.Context) (Tx, error)

// FeeAsset is one entry of a FeesPaid event
type FeeAsset struct {
	ID       Location
	Fungible *big.Int // nil for non-fungible entries
}

// Event is a decoded runtime event emitted during a dry run
type Event struct {
	Pallet string
	Method string
	Fees   []FeeAsset
}

// ModuleError is the raw dispatch error of a failed dry run
type ModuleError struct {
	Index uint8
	Error string // hex encoded error bytes
}

// SimulationResult is what a chain returns for a dry run
type SimulationResult struct {
	Success      bool
	ExecutionFee *big.Int
	Events       []Event
	Failure      *ModuleError
	FailureText  string // set when the failure is not a module error
}
