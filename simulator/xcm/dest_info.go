package xcm

import (
	"context"
	"fmt"
	"math/big"
)

// DestInfoParams carries what the destination reconciliation needs
type DestInfoParams struct {
	Client       ChainClient // any client, a destination scoped clone is derived from it
	Origin       string
	Destination  string
	Recipient    string
	Currency     Currency // amount in the smallest unit
	OriginFee    *big.Int
	IsFeeAssetAh bool
	DestFee      FeeDetail
	TotalHopFee  *big.Int
	BridgeFee    *big.Int // nil when the route reported no bridge fee
	// Unpriced names the fee that could not be priced in the transferred
	// asset. Every amount derived from the transfer is then indeterminate.
	Unpriced string
}

// balanceReader hides whether balances come from a substrate chain or Ethereum
type balanceReader struct {
	native func(ctx context.Context, address string) (*big.Int, error)
	asset  func(ctx context.Context, address string, asset Asset) (*big.Int, error)
}

// BuildDestInfo reconciles what the recipient ends up with on the destination
func (s *Simulator) BuildDestInfo(ctx context.Context, p DestInfoParams) (_ *DestinationReport, err error) {
	ctx, span := tracer.Start(ctx, "BuildDestInfo")
	defer span.End()

	if p.DestFee.Fee == nil {
		return nil, ErrMissingDestinationFee
	}
	amount, ok := new(big.Int).SetString(p.Currency.Amount, 10)
	if !ok {
		return nil, &PreconditionError{Field: "currency.amount", Message: fmt.Sprintf("%q is not an integer amount", p.Currency.Amount)}
	}
	originFee := orZero(p.OriginFee)
	totalHopFee := orZero(p.TotalHopFee)

	destInfo, err := s.registry.Chain(p.Destination)
	if err != nil {
		return nil, err
	}
	destAsset, err := s.registry.FindAssetOnDest(p.Origin, p.Destination, p.Currency)
	if err != nil {
		return nil, err
	}
	edDest, err := s.assetExistentialDeposit(p.Destination, destAsset)
	if err != nil {
		return nil, err
	}

	balances, release, err := s.destinationBalances(ctx, p.Client, destInfo)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := release(); err == nil && releaseErr != nil {
			err = fmt.Errorf("release %s: %w", p.Destination, releaseErr)
		}
	}()

	destBalance, err := balances.asset(ctx, p.Recipient, destAsset)
	if err != nil {
		return nil, fmt.Errorf("query %s balance on %s: %w", destAsset.Symbol, p.Destination, err)
	}

	destAmount := new(big.Int).Set(amount)
	if p.IsFeeAssetAh {
		destAmount.Sub(destAmount, originFee)
	}

	destFeeAssetEqual := SymbolsEqual(p.DestFee.Asset.Symbol, destAsset.Symbol)
	effectiveDestFee := new(big.Int)
	if destFeeAssetEqual {
		effectiveDestFee.Set(p.DestFee.Fee)
	}

	effectiveAmount := new(big.Int).Sub(destAmount, totalHopFee)

	// below the existential deposit the account must be lifted over it
	threshold := new(big.Int)
	if destBalance.Cmp(edDest) < 0 {
		threshold.Set(edDest)
	}
	net := new(big.Int).Sub(effectiveAmount, effectiveDestFee)
	sufficient := Known(net.Cmp(threshold) > 0)

	afterValue := new(big.Int).Sub(destBalance, effectiveDestFee)
	afterValue.Add(afterValue, effectiveAmount)
	balanceAfter := Known(afterValue)

	var mismatch string
	if p.DestFee.FeeType == FeeEstimated && !destFeeAssetEqual {
		mismatch = fmt.Sprintf(
			"destination fee is paid in %s while %s is transferred, payment info estimation cannot price it",
			p.DestFee.Asset.Symbol, destAsset.Symbol,
		)
		sufficient = Indeterminate[bool](mismatch)
		balanceAfter = Indeterminate[*big.Int](mismatch)
	}

	receivedAmount, err := s.receivedAmount(p, destAsset, amount, originFee, destBalance, balanceAfter)
	if err != nil {
		return nil, err
	}
	// an outcome that is already indeterminate keeps its more specific reason
	if p.Unpriced != "" {
		if mismatch == "" {
			mismatch = p.Unpriced
		}
		if sufficient.IsKnown() {
			sufficient = Indeterminate[bool](p.Unpriced)
		}
		if balanceAfter.IsKnown() {
			balanceAfter = Indeterminate[*big.Int](p.Unpriced)
		}
		if receivedAmount.IsKnown() {
			receivedAmount = Indeterminate[*big.Int](p.Unpriced)
		}
	}

	feeBalance := destBalance
	if SymbolsEqual(p.DestFee.Asset.Symbol, destInfo.NativeSymbol) {
		feeBalance, err = balances.native(ctx, p.Recipient)
		if err != nil {
			return nil, fmt.Errorf("query native balance on %s: %w", p.Destination, err)
		}
	}

	var feeBalanceAfter AmountOutcome
	if p.IsFeeAssetAh {
		feeBalanceAfter = balanceAfter
	} else {
		v := new(big.Int).Sub(feeBalance, p.DestFee.Fee)
		feeBalanceAfter = Known(v)
		if destFeeAssetEqual {
			v.Add(v, effectiveAmount)
			if p.Unpriced != "" {
				feeBalanceAfter = Indeterminate[*big.Int](p.Unpriced)
			}
		}
	}

	xcmLog.Debug().
		Str("destination", p.Destination).
		Str("asset", destAsset.Symbol).
		Str("balance", destBalance.String()).
		Bool("feeAssetEqual", destFeeAssetEqual).
		Bool("indeterminate", mismatch != "").
		Msg("Built destination info")

	return &DestinationReport{
		ReceivedCurrency: ReceivedCurrency{
			Sufficient:         sufficient,
			ReceivedAmount:     receivedAmount,
			Balance:            destBalance,
			BalanceAfter:       balanceAfter,
			CurrencySymbol:     destAsset.Symbol,
			Asset:              destAsset,
			ExistentialDeposit: edDest,
		},
		XcmFee: DestinationFee{
			Fee:            p.DestFee.Fee,
			FeeType:        p.DestFee.FeeType,
			Balance:        feeBalance,
			BalanceAfter:   feeBalanceAfter,
			CurrencySymbol: p.DestFee.Asset.Symbol,
			Asset:          p.DestFee.Asset,
		},
	}, nil
}

// receivedAmount handles the asset hub bridge pairing separately, every other
// route derives it from the balance change
func (s *Simulator) receivedAmount(
	p DestInfoParams,
	destAsset Asset,
	amount, originFee, destBalance *big.Int,
	balanceAfter AmountOutcome,
) (AmountOutcome, error) {
	bridged, err := s.isAssetHubBridge(p.Origin, p.Destination)
	if err != nil {
		return AmountOutcome{}, err
	}
	if !bridged {
		return MapOutcome(balanceAfter, func(after *big.Int) *big.Int {
			return new(big.Int).Sub(after, destBalance)
		}), nil
	}

	originNative, err := s.registry.NativeAsset(p.Origin)
	if err != nil {
		return AmountOutcome{}, err
	}
	if !SymbolsEqual(destAsset.Symbol, originNative.Symbol) {
		return Indeterminate[*big.Int](fmt.Sprintf(
			"received amount of %s cannot be computed for the %s -> %s bridge, only the origin native asset %s is modeled",
			destAsset.Symbol, p.Origin, p.Destination, originNative.Symbol,
		)), nil
	}
	if p.BridgeFee == nil {
		return Indeterminate[*big.Int](fmt.Sprintf(
			"bridge fee is required for native asset transfer from %s to %s but was not provided",
			p.Origin, p.Destination,
		)), nil
	}
	received := new(big.Int).Sub(amount, originFee)
	received.Sub(received, p.BridgeFee)
	return Known(received), nil
}

// isAssetHubBridge reports a transfer between asset hubs of two relay families
func (s *Simulator) isAssetHubBridge(origin, destination string) (bool, error) {
	o, err := s.registry.Chain(origin)
	if err != nil {
		return false, err
	}
	d, err := s.registry.Chain(destination)
	if err != nil {
		return false, err
	}
	return o.Role == RoleAssetHub && d.Role == RoleAssetHub && o.Family != d.Family, nil
}

// destinationBalances picks the balance source of the destination. The returned
// release func must always be called.
func (s *Simulator) destinationBalances(ctx context.Context, client ChainClient, dest ChainInfo) (balanceReader, func() error, error) {
	if dest.Role == RoleEthereum {
		if s.tokens == nil {
			return balanceReader{}, nil, fmt.Errorf("no token balance reader configured for %s", dest.ID)
		}
		return balanceReader{native: s.tokens.NativeBalance, asset: s.tokens.TokenBalance}, func() error { return nil }, nil
	}

	destClient := client.Clone()
	lease := Pin(destClient)
	release := func() error { return lease.Release(ctx) }
	if err := destClient.Init(ctx, dest.ID); err != nil {
		_ = release()
		return balanceReader{}, nil, fmt.Errorf("connect to destination %s: %w", dest.ID, err)
	}
	return balanceReader{native: destClient.NativeBalance, asset: destClient.AssetBalance}, release, nil
}

// assetExistentialDeposit prefers the deposit carried by the descriptor and
// falls back to a registry lookup by location, then symbol
func (s *Simulator) assetExistentialDeposit(chain string, asset Asset) (*big.Int, error) {
	if asset.ExistentialDeposit != nil {
		return new(big.Int).Set(asset.ExistentialDeposit), nil
	}
	lookup := Currency{Symbol: asset.Symbol}
	if asset.Location != nil {
		lookup = Currency{Location: asset.Location}
	}
	return s.registry.ExistentialDeposit(chain, lookup)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
