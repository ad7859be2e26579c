package xcm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeAmount converts the caller's amount text into the asset's smallest unit.
// With abstractDecimals the text is a human amount scaled by decimals.
func NormalizeAmount(amount string, decimals uint8, abstractDecimals bool) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, &PreconditionError{Field: "currency.amount", Message: fmt.Sprintf("%q is not a number", amount)}
	}
	if d.IsNegative() {
		return nil, &PreconditionError{Field: "currency.amount", Message: "amount must not be negative"}
	}
	if abstractDecimals {
		d = d.Shift(int32(decimals))
	}
	if !d.IsInteger() {
		return nil, &PreconditionError{
			Field:   "currency.amount",
			Message: fmt.Sprintf("%s has more precision than %d decimals", amount, decimals),
		}
	}
	return d.BigInt(), nil
}

// FormatAmount renders a smallest unit amount as a human decimal
func FormatAmount(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return ""
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// NormalizeSymbol folds the symbol variants bridged assets carry
// ("xcDOT", "WETH.e") onto one comparable form
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.TrimSuffix(s, ".E")
	if len(s) > 2 && strings.HasPrefix(s, "XC") {
		s = s[2:]
	}
	return s
}

// SymbolsEqual compares two symbols after normalization
func SymbolsEqual(a, b string) bool {
	return NormalizeSymbol(a) == NormalizeSymbol(b)
}
