package xcm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
)

// canonical Polkadot asset hub, the only origin where an explicit fee asset may
// be the transferred asset itself
const polkadotAssetHub = "AssetHubPolkadot"

// GetTransferInfo simulates a transfer end to end and reports fees, balances
// and sufficiency for every leg
func (s *Simulator) GetTransferInfo(ctx context.Context, intent TransferIntent) (_ *TransferReport, err error) {
	ctx, span := tracer.Start(ctx, "GetTransferInfo")
	defer span.End()

	xcmLog.Info().
		Str("origin", intent.Origin).
		Str("destination", intent.Destination).
		Str("currency", intent.Currency.Describe()).
		Str("amount", intent.Currency.Amount).
		Msg("Simulating transfer")

	if s.registry.IsEVM(intent.Origin) && intent.ProxyAddress == "" {
		return nil, &PreconditionError{
			Field:   "proxyAddress",
			Message: fmt.Sprintf("proxy address is required for EVM origin %s", intent.Origin),
		}
	}

	var feeAsset *Asset
	if intent.FeeAsset != nil {
		resolved, err := s.registry.FindAsset(intent.Origin, *intent.FeeAsset, intent.Destination)
		if err != nil {
			return nil, err
		}
		feeAsset = &resolved
	}

	client := s.clients.NewClient()
	lease := Pin(client)
	defer func() {
		if releaseErr := lease.Release(ctx); err == nil && releaseErr != nil {
			err = fmt.Errorf("release %s: %w", intent.Origin, releaseErr)
		}
	}()
	if err := client.Init(ctx, intent.Origin); err != nil {
		return nil, fmt.Errorf("connect to origin %s: %w", intent.Origin, err)
	}

	originInfo, err := s.registry.Chain(intent.Origin)
	if err != nil {
		return nil, err
	}
	originAsset, err := s.registry.FindAsset(intent.Origin, intent.Currency, intent.Destination)
	if err != nil {
		return nil, err
	}
	amount, err := NormalizeAmount(intent.Currency.Amount, originAsset.Decimals, intent.AbstractDecimals)
	if err != nil {
		return nil, err
	}

	var originFeeBalance *big.Int
	if feeAsset != nil {
		originFeeBalance, err = client.AssetBalance(ctx, intent.Sender, *feeAsset)
	} else {
		originFeeBalance, err = client.NativeBalance(ctx, intent.Sender)
	}
	if err != nil {
		return nil, fmt.Errorf("query fee balance on %s: %w", intent.Origin, err)
	}
	originBalance, err := client.AssetBalance(ctx, intent.Sender, originAsset)
	if err != nil {
		return nil, fmt.Errorf("query %s balance on %s: %w", originAsset.Symbol, intent.Origin, err)
	}
	edOrigin, err := s.registry.ExistentialDeposit(intent.Origin, intent.Currency)
	if err != nil {
		return nil, err
	}

	normalized := intent
	normalized.Currency = intent.Currency.WithAmount(amount)
	normalized.AbstractDecimals = false

	breakdown, err := s.fees.Breakdown(ctx, client, feeRequest(normalized), s.lazyTx(normalized))
	if err != nil {
		return nil, err
	}
	shape := ShapeOf(breakdown)
	originFee := orZero(breakdown.Origin.Fee)

	isFeeAssetAh := intent.Origin == polkadotAssetHub && feeAsset != nil && s.registry.AssetsEqual(*feeAsset, originAsset)

	// the fee is reported in the asset it was priced in, which may differ from
	// the asset the caller pays with
	var feeUnpriced string
	if feeAsset != nil && !s.registry.AssetsEqual(breakdown.Origin.Asset, *feeAsset) {
		feeUnpriced = fmt.Sprintf(
			"origin fee is priced in %s while it is paid in %s, no conversion between them is available",
			breakdown.Origin.Asset.Symbol, feeAsset.Symbol,
		)
	}

	originBalanceAfter := new(big.Int).Sub(originBalance, amount)
	originFeeBalanceAfter := new(big.Int).Set(originFeeBalance)
	if isFeeAssetAh {
		originFeeBalanceAfter.Sub(originFeeBalanceAfter, amount)
	} else {
		originFeeBalanceAfter.Sub(originFeeBalanceAfter, originFee)
	}

	feeSufficient := Known(originFeeBalance.Cmp(originFee) >= 0)
	feeBalanceAfter := Known(originFeeBalanceAfter)
	if feeUnpriced != "" {
		feeSufficient = Indeterminate[bool](feeUnpriced)
		feeBalanceAfter = Indeterminate[*big.Int](feeUnpriced)
	}

	report := &TransferReport{
		Route: RouteInfo{
			Origin:      intent.Origin,
			Destination: intent.Destination,
			RelayFamily: originInfo.Family,
			Shape:       shape,
		},
		Origin: OriginReport{
			SelectedCurrency: OriginCurrency{
				Sufficient:         Known(originBalanceAfter.Cmp(edOrigin) >= 0),
				Balance:            originBalance,
				BalanceAfter:       Known(originBalanceAfter),
				CurrencySymbol:     originAsset.Symbol,
				Asset:              originAsset,
				ExistentialDeposit: edOrigin,
				Currency:           normalized.Currency,
			},
			XcmFee: OriginFee{
				Sufficient:      feeSufficient,
				Fee:             originFee,
				FeeType:         breakdown.Origin.FeeType,
				SimulationError: breakdown.Origin.SimulationError,
				Balance:         originFeeBalance,
				BalanceAfter:    feeBalanceAfter,
				CurrencySymbol:  breakdown.Origin.Asset.Symbol,
				Asset:           breakdown.Origin.Asset,
			},
		},
		Hops: []HopResult{},
	}

	hop := HopInfoParams{
		Client:       client,
		Origin:       intent.Origin,
		Currency:     normalized.Currency,
		Sender:       intent.Sender,
		ProxyAddress: intent.ProxyAddress,
	}

	if shape.AssetHub {
		hop.Chain, err = s.registry.SystemChain(originInfo.Family, RoleAssetHub)
		if err != nil {
			return nil, err
		}
		hop.Fee = *breakdown.AssetHub
		if report.AssetHub, err = s.BuildHopInfo(ctx, hop); err != nil {
			return nil, err
		}
	}
	if shape.BridgeHub {
		hop.Chain, err = s.registry.SystemChain(originInfo.Family, RoleBridgeHub)
		if err != nil {
			return nil, err
		}
		hop.Fee = *breakdown.BridgeHub
		if report.BridgeHub, err = s.BuildHopInfo(ctx, hop); err != nil {
			return nil, err
		}
	}
	for _, entry := range breakdown.Hops {
		hop.Chain = entry.Chain
		hop.Fee = entry.Result
		snapshot, err := s.BuildHopInfo(ctx, hop)
		if err != nil {
			return nil, err
		}
		report.Hops = append(report.Hops, HopResult{Chain: entry.Chain, Result: *snapshot})
	}

	totalHopFee, bridgeFee, unpriced := s.intermediateFees(breakdown, originAsset, originInfo.Family)
	if isFeeAssetAh && feeUnpriced != "" {
		unpriced = feeUnpriced
	}

	destination, err := s.BuildDestInfo(ctx, DestInfoParams{
		Client:       client,
		Origin:       intent.Origin,
		Destination:  intent.Destination,
		Recipient:    intent.Recipient,
		Currency:     normalized.Currency,
		OriginFee:    originFee,
		IsFeeAssetAh: isFeeAssetAh,
		DestFee:      breakdown.Destination,
		TotalHopFee:  totalHopFee,
		BridgeFee:    bridgeFee,
		Unpriced:     unpriced,
	})
	if err != nil {
		return nil, err
	}
	report.Destination = *destination

	xcmLog.Info().
		Str("origin", intent.Origin).
		Str("destination", intent.Destination).
		Str("shape", shape.String()).
		Msg("Transfer simulated")

	return report, nil
}

// intermediateFees sums every intermediate fee paid in the transferred asset and
// picks the bridge fee, from the bridge hub leg or a bridge hub among extra hops.
// A leg that could not be priced and may be paid in the transferred asset is
// named in the returned reason.
func (s *Simulator) intermediateFees(b *FeeBreakdown, transferred Asset, family string) (*big.Int, *big.Int, string) {
	total := new(big.Int)
	var unpriced []string
	add := func(chain string, d *FeeDetail) {
		if d == nil {
			return
		}
		// an unresolved fee asset may be the transferred one
		matches := d.Asset.Symbol == "" || s.registry.AssetsEqual(d.Asset, transferred)
		switch {
		case !matches:
		case d.Fee == nil:
			unpriced = append(unpriced, chain)
		default:
			total.Add(total, d.Fee)
		}
	}
	if b.AssetHub != nil {
		add(s.systemChainName(family, RoleAssetHub), b.AssetHub)
	}
	if b.BridgeHub != nil {
		add(s.systemChainName(family, RoleBridgeHub), b.BridgeHub)
	}

	var bridgeFee *big.Int
	if b.BridgeHub != nil {
		bridgeFee = b.BridgeHub.Fee
	}
	for i := range b.Hops {
		add(b.Hops[i].Chain, &b.Hops[i].Result)
		if bridgeFee == nil {
			if info, err := s.registry.Chain(b.Hops[i].Chain); err == nil && info.Role == RoleBridgeHub {
				bridgeFee = b.Hops[i].Result.Fee
			}
		}
	}

	if len(unpriced) == 0 {
		return total, bridgeFee, ""
	}
	return total, bridgeFee, fmt.Sprintf(
		"intermediate fee on %s could not be priced, the %s reaching the destination is unknown",
		strings.Join(unpriced, ", "), transferred.Symbol,
	)
}

// systemChainName names a fixed leg for messages
func (s *Simulator) systemChainName(family string, role ChainRole) string {
	if id, err := s.registry.SystemChain(family, role); err == nil {
		return id
	}
	return string(role)
}

// lazyTx defers building the candidate transaction until a fee strategy asks for it
func (s *Simulator) lazyTx(intent TransferIntent) TxFactory {
	var (
		tx    Tx
		err   error
		built bool
	)
	return func(ctx context.Context) (Tx, error) {
		if !built {
			tx, err = s.builder.Build(ctx, intent)
			built = true
		}
		return tx, err
	}
}

func feeRequest(intent TransferIntent) FeeRequest {
	return FeeRequest{
		Origin:       intent.Origin,
		Destination:  intent.Destination,
		Sender:       intent.Sender,
		Recipient:    intent.Recipient,
		Currency:     intent.Currency,
		FeeAsset:     intent.FeeAsset,
		ProxyAddress: intent.ProxyAddress,
	}
}
