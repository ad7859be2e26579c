package xcm

import (
	"context"
	"fmt"
)

// HopInfoParams describes one intermediate chain to snapshot
type HopInfoParams struct {
	Client       ChainClient // any client, a hop scoped clone is derived from it
	Chain        string
	Fee          FeeDetail
	Origin       string
	Currency     Currency
	Sender       string
	ProxyAddress string
}

// BuildHopInfo snapshots balance, existential deposit and fee of an intermediate chain.
// The derived connection is released on every exit path.
func (s *Simulator) BuildHopInfo(ctx context.Context, p HopInfoParams) (_ *LegSnapshot, err error) {
	ctx, span := tracer.Start(ctx, "BuildHopInfo")
	defer span.End()

	hop := p.Client.Clone()
	lease := Pin(hop)
	defer func() {
		// a failed release must not mask the build error
		if releaseErr := lease.Release(ctx); err == nil && releaseErr != nil {
			err = fmt.Errorf("release %s: %w", p.Chain, releaseErr)
		}
	}()

	if err := hop.Init(ctx, p.Chain); err != nil {
		return nil, fmt.Errorf("connect to hop %s: %w", p.Chain, err)
	}

	info, err := s.registry.Chain(p.Chain)
	if err != nil {
		return nil, err
	}

	fee := FeeSnapshot{Fee: p.Fee.Fee, Asset: p.Fee.Asset, FeeType: p.Fee.FeeType}

	if info.Role == RoleBridgeHub {
		xcmLog.Debug().Str("chain", p.Chain).Msg("Hop is a message relay hub, skipping balance")
		return &LegSnapshot{CurrencySymbol: info.NativeSymbol, XcmFee: fee}, nil
	}

	queryAddress := p.Sender
	if s.registry.IsEVM(p.Origin) && p.ProxyAddress != "" {
		queryAddress = p.ProxyAddress
	}

	asset, err := s.registry.FindAssetOnDest(p.Origin, p.Chain, p.Currency)
	if err != nil {
		return nil, err
	}

	ed, err := s.assetExistentialDeposit(p.Chain, asset)
	if err != nil {
		return nil, err
	}

	balance, err := hop.AssetBalance(ctx, queryAddress, asset)
	if err != nil {
		return nil, fmt.Errorf("query %s balance on %s: %w", asset.Symbol, p.Chain, err)
	}

	xcmLog.Debug().
		Str("chain", p.Chain).
		Str("asset", asset.Symbol).
		Str("balance", balance.String()).
		Msg("Built hop snapshot")

	return &LegSnapshot{
		CurrencySymbol:     asset.Symbol,
		Asset:              &asset,
		Balance:            balance,
		ExistentialDeposit: ed,
		XcmFee:             fee,
	}, nil
}
