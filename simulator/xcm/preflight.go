package xcm

import (
	"context"
	"fmt"
	"math/big"
)

const dryRunUnsupportedReason = "The XCM fee could not be calculated because the origin or destination chain does not support DryRun. " +
	"As a result, fee estimation is only available through PaymentInfo, which provides the cost in the native asset. " +
	"This limitation restricts support to transfers involving the native asset of the Destination chain only."

// relay chain natives whose origin balance the keep alive check also protects
var relayNativeSymbols = map[string]bool{"DOT": true, "KSM": true}

// VerifyEdOnDestination reports whether the recipient ends above the destination
// existential deposit once the destination fee is paid
func (s *Simulator) VerifyEdOnDestination(ctx context.Context, intent TransferIntent) (_ bool, err error) {
	ctx, span := tracer.Start(ctx, "VerifyEdOnDestination")
	defer span.End()

	destInfo, err := s.registry.Chain(intent.Destination)
	if err != nil {
		return false, err
	}
	if err := ValidateAddress(intent.Recipient, destInfo); err != nil {
		return false, err
	}

	destAsset, err := s.registry.FindAssetOnDest(intent.Origin, intent.Destination, intent.Currency)
	if err != nil {
		return false, err
	}
	ed, err := s.assetExistentialDeposit(intent.Destination, destAsset)
	if err != nil {
		return false, err
	}

	originAsset, err := s.registry.FindAsset(intent.Origin, intent.Currency, intent.Destination)
	if err != nil {
		return false, err
	}
	amount, err := NormalizeAmount(intent.Currency.Amount, originAsset.Decimals, intent.AbstractDecimals)
	if err != nil {
		return false, err
	}

	client := s.clients.NewClient()
	lease := Pin(client)
	defer func() {
		if releaseErr := lease.Release(ctx); err == nil && releaseErr != nil {
			err = fmt.Errorf("release %s: %w", intent.Origin, releaseErr)
		}
	}()
	if err := client.Init(ctx, intent.Origin); err != nil {
		return false, fmt.Errorf("connect to origin %s: %w", intent.Origin, err)
	}

	balances, release, err := s.destinationBalances(ctx, client, destInfo)
	if err != nil {
		return false, err
	}
	defer func() {
		if releaseErr := release(); err == nil && releaseErr != nil {
			err = fmt.Errorf("release %s: %w", intent.Destination, releaseErr)
		}
	}()
	balance, err := balances.asset(ctx, intent.Recipient, destAsset)
	if err != nil {
		return false, fmt.Errorf("query %s balance on %s: %w", destAsset.Symbol, intent.Destination, err)
	}

	normalized := intent
	normalized.Currency = intent.Currency.WithAmount(amount)
	normalized.AbstractDecimals = false

	breakdown, err := s.fees.Breakdown(ctx, client, feeRequest(normalized), s.lazyTx(normalized))
	if err != nil {
		return false, err
	}
	if err := firstLegFailure(breakdown); err != nil {
		return false, err
	}

	destFee := breakdown.Destination
	if destFee.Fee == nil {
		return false, ErrMissingDestinationFee
	}
	if !SymbolsEqual(destFee.Asset.Symbol, destAsset.Symbol) {
		return false, &IndeterminateError{Reason: dryRunUnsupportedReason}
	}

	threshold := new(big.Int)
	if balance.Cmp(ed) < 0 {
		threshold.Set(ed)
	}
	net := new(big.Int).Sub(amount, destFee.Fee)
	return net.Cmp(threshold) > 0, nil
}

// firstLegFailure surfaces a rejected leg, asset hub first, then bridge hub,
// destination and origin
func firstLegFailure(b *FeeBreakdown) error {
	legs := []struct {
		leg    Leg
		detail *FeeDetail
	}{
		{LegAssetHub, b.AssetHub},
		{LegBridgeHub, b.BridgeHub},
		{LegDestination, &b.Destination},
		{LegOrigin, &b.Origin},
	}
	for _, l := range legs {
		if l.detail.Failed() {
			return &DryRunFailedError{Leg: l.leg, Reason: l.detail.SimulationError}
		}
	}
	return nil
}

// CheckKeepAlive verifies that a native transfer keeps both accounts alive.
// Only the destination native asset is supported and the fee gets a 50% margin.
func (s *Simulator) CheckKeepAlive(ctx context.Context, intent TransferIntent) (err error) {
	ctx, span := tracer.Start(ctx, "CheckKeepAlive")
	defer span.End()

	if intent.Currency.Symbol == "" {
		return &KeepAliveError{Message: "Currency symbol not found for this asset. Cannot check keep alive."}
	}
	destNative, err := s.registry.NativeAsset(intent.Destination)
	if err != nil {
		return err
	}
	if !SymbolsEqual(intent.Currency.Symbol, destNative.Symbol) {
		return &KeepAliveError{Message: "Keep alive check is only supported when sending native asset of destination chain."}
	}
	amount, err := NormalizeAmount(intent.Currency.Amount, destNative.Decimals, intent.AbstractDecimals)
	if err != nil {
		return err
	}

	destED, err := s.registry.ExistentialDeposit(intent.Destination, Currency{Symbol: destNative.Symbol})
	if err != nil {
		return err
	}
	originNative, err := s.registry.NativeAsset(intent.Origin)
	if err != nil {
		return err
	}
	originED, err := s.registry.ExistentialDeposit(intent.Origin, Currency{Symbol: originNative.Symbol})
	if err != nil {
		return err
	}

	originClient := s.clients.NewClient()
	originLease := Pin(originClient)
	defer func() {
		if releaseErr := originLease.Release(ctx); err == nil && releaseErr != nil {
			err = fmt.Errorf("release %s: %w", intent.Origin, releaseErr)
		}
	}()
	if err := originClient.Init(ctx, intent.Origin); err != nil {
		return fmt.Errorf("connect to origin %s: %w", intent.Origin, err)
	}

	destClient := originClient.Clone()
	destLease := Pin(destClient)
	defer func() {
		if releaseErr := destLease.Release(ctx); err == nil && releaseErr != nil {
			err = fmt.Errorf("release %s: %w", intent.Destination, releaseErr)
		}
	}()
	if err := destClient.Init(ctx, intent.Destination); err != nil {
		return fmt.Errorf("connect to destination %s: %w", intent.Destination, err)
	}

	destBalance, err := destClient.NativeBalance(ctx, intent.Recipient)
	if err != nil {
		return fmt.Errorf("query native balance on %s: %w", intent.Destination, err)
	}
	originBalance, err := originClient.NativeBalance(ctx, intent.Sender)
	if err != nil {
		return fmt.Errorf("query native balance on %s: %w", intent.Origin, err)
	}

	// the fee is priced on the reverse transfer, the way the destination would charge it
	reverse := TransferIntent{
		Origin:      intent.Destination,
		Destination: intent.Origin,
		Sender:      intent.Recipient,
		Recipient:   intent.Sender,
		Currency:    intent.Currency.WithAmount(amount),
	}
	tx, err := s.builder.Build(ctx, reverse)
	if err != nil {
		return &KeepAliveError{Message: fmt.Sprintf("Transaction for XCM fee calculation could not be created: %v", err)}
	}
	fee, err := destClient.TransactionFee(ctx, tx, intent.Recipient)
	if err != nil {
		return fmt.Errorf("compute transaction fee on %s: %w", intent.Destination, err)
	}

	margin := new(big.Int).Mul(fee, big.NewInt(3))
	margin.Quo(margin, big.NewInt(2))
	amountWithoutFee := new(big.Int).Sub(amount, margin)

	xcmLog.Debug().
		Str("fee", fee.String()).
		Str("destBalance", destBalance.String()).
		Str("originBalance", originBalance.String()).
		Str("amountWithoutFee", amountWithoutFee.String()).
		Msg("Keep alive figures")

	if new(big.Int).Add(destBalance, amountWithoutFee).Cmp(destED) < 0 {
		return &KeepAliveError{Message: fmt.Sprintf(
			"Keep alive check failed: Sending %s %s to %s would result in an account balance below the required existential deposit. "+
				"Please increase the amount to meet the minimum balance requirement of the destination chain.",
			intent.Currency.Amount, intent.Currency.Symbol, intent.Destination,
		)}
	}

	if relayNativeSymbols[NormalizeSymbol(intent.Currency.Symbol)] &&
		new(big.Int).Sub(originBalance, amountWithoutFee).Cmp(originED) < 0 {
		return &KeepAliveError{Message: fmt.Sprintf(
			"Keep alive check failed: Sending %s %s to %s would result in an account balance below the required existential deposit on origin. "+
				"Please decrease the amount to meet the minimum balance requirement of the origin chain.",
			intent.Currency.Amount, intent.Currency.Symbol, intent.Destination,
		)}
	}
	return nil
}
