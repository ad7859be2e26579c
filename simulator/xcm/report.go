package xcm

import "math/big"

// FeeSnapshot is the fee part of an intermediate leg
type FeeSnapshot struct {
	Fee     *big.Int `json:"fee"`
	Asset   Asset    `json:"asset"`
	FeeType FeeType  `json:"feeType"`
}

// LegSnapshot is the balance and fee view of one intermediate chain.
// Message relay hubs only carry CurrencySymbol and XcmFee.
type LegSnapshot struct {
	CurrencySymbol     string      `json:"currencySymbol"`
	Asset              *Asset      `json:"asset,omitempty"`
	Balance            *big.Int    `json:"balance,omitempty"`
	ExistentialDeposit *big.Int    `json:"existentialDeposit,omitempty"`
	XcmFee             FeeSnapshot `json:"xcmFee"`
}

// HopResult is a snapshot of one additional hop
type HopResult struct {
	Chain  string      `json:"chain"`
	Result LegSnapshot `json:"result"`
}

// RouteInfo names the endpoints of a transfer
type RouteInfo struct {
	Origin      string     `json:"origin"`
	Destination string     `json:"destination"`
	RelayFamily string     `json:"relayFamily"`
	Shape       RouteShape `json:"shape"`
}

// OriginCurrency is the sender's view of the transferred asset
type OriginCurrency struct {
	Sufficient         Outcome[bool] `json:"sufficient"`
	Balance            *big.Int      `json:"balance"`
	BalanceAfter       AmountOutcome `json:"balanceAfter"`
	CurrencySymbol     string        `json:"currencySymbol"`
	Asset              Asset         `json:"asset"`
	ExistentialDeposit *big.Int      `json:"existentialDeposit"`
	Currency           Currency      `json:"currency"` // caller currency with the normalized amount
}

// OriginFee is the sender's view of the origin fee
type OriginFee struct {
	Sufficient      Outcome[bool] `json:"sufficient"`
	Fee             *big.Int      `json:"fee"`
	FeeType         FeeType       `json:"feeType"`
	SimulationError string        `json:"simulationError,omitempty"`
	Balance         *big.Int      `json:"balance"`
	BalanceAfter    AmountOutcome `json:"balanceAfter"`
	CurrencySymbol  string        `json:"currencySymbol"`
	Asset           Asset         `json:"asset"`
}

// OriginReport groups the origin side figures
type OriginReport struct {
	SelectedCurrency OriginCurrency `json:"selectedCurrency"`
	XcmFee           OriginFee      `json:"xcmFee"`
}

// ReceivedCurrency is the recipient's view of the transferred asset
type ReceivedCurrency struct {
	Sufficient         Outcome[bool] `json:"sufficient"`
	ReceivedAmount     AmountOutcome `json:"receivedAmount"`
	Balance            *big.Int      `json:"balance"`
	BalanceAfter       AmountOutcome `json:"balanceAfter"`
	CurrencySymbol     string        `json:"currencySymbol"`
	Asset              Asset         `json:"asset"`
	ExistentialDeposit *big.Int      `json:"existentialDeposit"`
}

// DestinationFee is the recipient's view of the destination fee
type DestinationFee struct {
	Fee            *big.Int      `json:"fee"`
	FeeType        FeeType       `json:"feeType"`
	Balance        *big.Int      `json:"balance"`
	BalanceAfter   AmountOutcome `json:"balanceAfter"`
	CurrencySymbol string        `json:"currencySymbol"`
	Asset          Asset         `json:"asset"`
}

// DestinationReport groups the destination side figures
type DestinationReport struct {
	ReceivedCurrency ReceivedCurrency `json:"receivedCurrency"`
	XcmFee           DestinationFee   `json:"xcmFee"`
}

// TransferReport is the full answer for one transfer intent
type TransferReport struct {
	Route       RouteInfo         `json:"route"`
	Origin      OriginReport      `json:"origin"`
	AssetHub    *LegSnapshot      `json:"assetHub,omitempty"`
	BridgeHub   *LegSnapshot      `json:"bridgeHub,omitempty"`
	Hops        []HopResult       `json:"hops"`
	Destination DestinationReport `json:"destination"`
}

// OriginFeeDetails is the quick origin fee sufficiency answer
type OriginFeeDetails struct {
	SufficientForXCM bool     `json:"sufficientForXCM"`
	XcmFee           *big.Int `json:"xcmFee"`
}
