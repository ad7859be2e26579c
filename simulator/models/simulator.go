package models

import (
	"fmt"
	"strings"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

// CurrencySpec selects an asset by symbol, id or location
type CurrencySpec struct {
	Symbol   string        `json:"symbol,omitempty"`   // e.g., "DOT"
	ID       string        `json:"id,omitempty"`       // assets pallet id, e.g., "1984"
	Location *xcm.Location `json:"location,omitempty"` // relay relative location
	Amount   string        `json:"amount,omitempty"`   // e.g., "10000000000" or "1.5" with abstract_decimals
}

// TransferRequest - POST body of every simulation endpoint
type TransferRequest struct {
	Origin           string        `json:"origin"`                     // e.g., "Hydration"
	Destination      string        `json:"destination"`                // e.g., "AssetHubPolkadot"
	Sender           string        `json:"sender"`                     // origin account
	Recipient        string        `json:"recipient"`                  // destination account
	Currency         CurrencySpec  `json:"currency"`                   // transferred asset and amount
	FeeAsset         *CurrencySpec `json:"feeAsset,omitempty"`         // explicit origin fee asset
	ProxyAddress     string        `json:"proxyAddress,omitempty"`     // asset hub account of an EVM sender
	AbstractDecimals bool          `json:"abstractDecimals,omitempty"` // amount is human readable
}

// OriginFeeRequest adds the fee margin to a transfer request
type OriginFeeRequest struct {
	TransferRequest
	FeeMarginPercentage *int64 `json:"feeMarginPercentage,omitempty"` // default 10
}

// Validate checks the fields every operation needs
func (r *TransferRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Origin) == "" {
		missing = append(missing, "origin")
	}
	if strings.TrimSpace(r.Destination) == "" {
		missing = append(missing, "destination")
	}
	if strings.TrimSpace(r.Sender) == "" {
		missing = append(missing, "sender")
	}
	if strings.TrimSpace(r.Recipient) == "" {
		missing = append(missing, "recipient")
	}
	if r.Currency.Symbol == "" && r.Currency.ID == "" && r.Currency.Location == nil {
		missing = append(missing, "currency")
	}
	if r.Currency.Amount == "" {
		missing = append(missing, "currency.amount")
	}
	if len(missing) > 0 {
		return &xcm.PreconditionError{Field: strings.Join(missing, ","), Message: "is required"}
	}
	if r.FeeAsset != nil && r.FeeAsset.Symbol == "" && r.FeeAsset.ID == "" && r.FeeAsset.Location == nil {
		return &xcm.PreconditionError{Field: "feeAsset", Message: "needs a symbol, id or location"}
	}
	return nil
}

// Validate also checks the margin
func (r *OriginFeeRequest) Validate() error {
	if err := r.TransferRequest.Validate(); err != nil {
		return err
	}
	if r.FeeMarginPercentage != nil && *r.FeeMarginPercentage < 0 {
		return &xcm.PreconditionError{Field: "feeMarginPercentage", Message: fmt.Sprintf("must not be negative, got %d", *r.FeeMarginPercentage)}
	}
	return nil
}

// ToIntent converts the request into the engine's input
func (r *TransferRequest) ToIntent() xcm.TransferIntent {
	intent := xcm.TransferIntent{
		Origin:           r.Origin,
		Destination:      r.Destination,
		Sender:           r.Sender,
		Recipient:        r.Recipient,
		Currency:         r.Currency.toCurrency(),
		ProxyAddress:     r.ProxyAddress,
		AbstractDecimals: r.AbstractDecimals,
	}
	if r.FeeAsset != nil {
		fee := r.FeeAsset.toCurrency()
		intent.FeeAsset = &fee
	}
	return intent
}

func (c CurrencySpec) toCurrency() xcm.Currency {
	return xcm.Currency{
		Symbol:   c.Symbol,
		AssetID:  c.ID,
		Location: c.Location.Clone(),
		Amount:   c.Amount,
	}
}

// OriginFeeResponse answers the origin fee details endpoint
type OriginFeeResponse struct {
	SufficientForXCM bool   `json:"sufficientForXCM"`
	XcmFee           string `json:"xcmFee"`          // smallest unit
	XcmFeeFormatted  string `json:"xcmFeeFormatted"` // e.g., "0.0161 DOT"
}

// VerifyEdResponse answers the existential deposit check
type VerifyEdResponse struct {
	Sufficient bool `json:"sufficient"`
}

// KeepAliveResponse answers the keep alive check. Violations are errors.
type KeepAliveResponse struct {
	Ok bool `json:"ok"`
}

// ChainSummary is one entry of the chains listing
type ChainSummary struct {
	ID             string `json:"id"`
	Family         string `json:"family"`
	Role           string `json:"role"`
	NativeSymbol   string `json:"nativeSymbol"`
	NativeDecimals uint8  `json:"nativeDecimals"`
	EVM            bool   `json:"evm"`
	DryRun         bool   `json:"dryRun"`
}

// ChainsResponse lists the registry
type ChainsResponse struct {
	Chains []ChainSummary `json:"chains"`
}

// ErrorResponse is the body of plain HTTP errors
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Leg   string `json:"leg,omitempty"`
}
