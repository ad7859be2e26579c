// Package fees computes the per-leg fee breakdown of a cross-chain transfer
package fees

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/dryrun"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

var feesLog zerolog.Logger

var tracer = otel.Tracer("github.com/Cogwheel-Validator/spectra-xcm/simulator/fees")

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	feesLog = zerolog.New(out).With().Timestamp().Str("component", "fees").Logger()
}

// Registry is everything the estimator resolves against
type Registry interface {
	xcm.AssetRegistry
	dryrun.Catalog
	dryrun.PalletLookup
}

// Estimator implements xcm.FeeCalculator. The origin leg is dry run when the
// chain supports it, every other leg is priced from payment info.
type Estimator struct {
	registry Registry
	builder  xcm.TxBuilder
}

// NewEstimator creates a fee estimator
func NewEstimator(registry Registry, builder xcm.TxBuilder) *Estimator {
	return &Estimator{registry: registry, builder: builder}
}

// Breakdown returns the fee of every leg of the transfer described by req
func (e *Estimator) Breakdown(ctx context.Context, client xcm.ChainClient, req xcm.FeeRequest, txf xcm.TxFactory) (*xcm.FeeBreakdown, error) {
	ctx, span := tracer.Start(ctx, "Breakdown")
	defer span.End()
	span.SetAttributes(
		attribute.String("origin", req.Origin),
		attribute.String("destination", req.Destination),
	)

	origin, err := e.registry.Chain(req.Origin)
	if err != nil {
		return nil, err
	}
	destination, err := e.registry.Chain(req.Destination)
	if err != nil {
		return nil, err
	}
	asset, err := e.registry.FindAsset(req.Origin, req.Currency, req.Destination)
	if err != nil {
		return nil, err
	}

	originFee, err := e.originFee(ctx, client, req, origin, txf)
	if err != nil {
		return nil, err
	}
	breakdown := &xcm.FeeBreakdown{Origin: originFee, Hops: []xcm.HopFee{}}

	path, err := e.route(origin, destination, asset)
	if err != nil {
		return nil, err
	}
	if path.assetHub != "" {
		fee := e.intermediateFee(ctx, client, path.assetHub, req)
		breakdown.AssetHub = &fee
	}
	if path.bridgeHub != "" {
		fee := e.intermediateFee(ctx, client, path.bridgeHub, req)
		breakdown.BridgeHub = &fee
	}
	for _, chain := range path.extra {
		breakdown.Hops = append(breakdown.Hops, xcm.HopFee{
			Chain:  chain,
			Result: e.intermediateFee(ctx, client, chain, req),
		})
	}

	breakdown.Destination, err = e.destinationFee(ctx, client, req, destination)
	if err != nil {
		return nil, err
	}

	feesLog.Debug().
		Str("origin", req.Origin).
		Str("destination", req.Destination).
		Str("originFee", fmtFee(breakdown.Origin.Fee)).
		Str("destinationFee", fmtFee(breakdown.Destination.Fee)).
		Int("hops", len(breakdown.Hops)).
		Msg("Fee breakdown computed")

	return breakdown, nil
}

// originFee dry runs the candidate call when the origin supports it. A rejected
// dry run keeps its reason and falls back to payment info unless disabled.
func (e *Estimator) originFee(ctx context.Context, client xcm.ChainClient, req xcm.FeeRequest, origin xcm.ChainInfo, txf xcm.TxFactory) (xcm.FeeDetail, error) {
	native, err := e.registry.NativeAsset(req.Origin)
	if err != nil {
		return xcm.FeeDetail{}, err
	}
	if req.FeeAsset != nil {
		// resolved so an unknown fee asset fails before any chain call
		if _, err = e.registry.FindAsset(req.Origin, *req.FeeAsset, req.Destination); err != nil {
			return xcm.FeeDetail{}, err
		}
	}

	tx, err := txf(ctx)
	if err != nil {
		return xcm.FeeDetail{}, fmt.Errorf("build transfer from %s: %w", req.Origin, err)
	}

	if !origin.DryRun {
		return e.paymentInfoFee(ctx, client, tx, req.Sender, native, "")
	}

	result, err := client.Simulate(ctx, tx, req.Sender)
	if err != nil {
		return xcm.FeeDetail{}, fmt.Errorf("dry run on %s: %w", req.Origin, err)
	}
	if result.Success {
		fee, err := dryrun.ComputeFee(req.Origin, result.Events, e.registry, result.ExecutionFee)
		if err != nil {
			return xcm.FeeDetail{}, err
		}
		// execution and delivery are charged in the native token
		return xcm.FeeDetail{Fee: fee, Asset: native, FeeType: xcm.FeeSimulated}, nil
	}

	reason, err := e.failureReason(req.Origin, result)
	if err != nil {
		return xcm.FeeDetail{}, err
	}
	feesLog.Warn().Str("chain", req.Origin).Str("reason", reason).Msg("Origin dry run failed")

	if req.DisableFallback {
		return xcm.FeeDetail{Asset: native, FeeType: xcm.FeeSimulated, SimulationError: reason}, nil
	}
	return e.paymentInfoFee(ctx, client, tx, req.Sender, native, reason)
}

func (e *Estimator) paymentInfoFee(ctx context.Context, client xcm.ChainClient, tx xcm.Tx, address string, native xcm.Asset, simErr string) (xcm.FeeDetail, error) {
	fee, err := client.TransactionFee(ctx, tx, address)
	if err != nil {
		return xcm.FeeDetail{}, fmt.Errorf("payment info on %s: %w", client.Chain(), err)
	}
	return xcm.FeeDetail{Fee: fee, Asset: native, FeeType: xcm.FeeEstimated, SimulationError: simErr}, nil
}

// failureReason names a rejected dry run
func (e *Estimator) failureReason(chain string, result *xcm.SimulationResult) (string, error) {
	if result.Failure == nil {
		if result.FailureText == "" {
			return "unknown dry run failure", nil
		}
		return result.FailureText, nil
	}
	reason, err := dryrun.ResolveModuleError(chain, *result.Failure, e.registry)
	if err != nil {
		return "", err
	}
	return reason.String(), nil
}

// intermediateFee prices an intermediate chain from the reverse transfer built
// there. A hop that cannot be priced keeps a nil fee.
func (e *Estimator) intermediateFee(ctx context.Context, client xcm.ChainClient, chain string, req xcm.FeeRequest) xcm.FeeDetail {
	native, err := e.registry.NativeAsset(chain)
	if err != nil {
		feesLog.Warn().Err(err).Str("chain", chain).Msg("Unknown intermediate chain")
		return xcm.FeeDetail{FeeType: xcm.FeeEstimated}
	}
	detail := xcm.FeeDetail{Asset: native, FeeType: xcm.FeeEstimated}

	fee, err := e.reverseFee(ctx, client, chain, req.Origin, req)
	if err != nil {
		feesLog.Warn().Err(err).Str("chain", chain).Msg("Intermediate fee not available")
		return detail
	}
	detail.Fee = fee
	return detail
}

// destinationFee prices the destination in its native token. Ethereum charges
// nothing on arrival.
func (e *Estimator) destinationFee(ctx context.Context, client xcm.ChainClient, req xcm.FeeRequest, destination xcm.ChainInfo) (xcm.FeeDetail, error) {
	if destination.Role == xcm.RoleEthereum {
		asset, err := e.registry.FindAssetOnDest(req.Origin, req.Destination, req.Currency)
		if err != nil {
			return xcm.FeeDetail{}, err
		}
		return xcm.FeeDetail{Fee: new(big.Int), Asset: asset, FeeType: xcm.FeeEstimated}, nil
	}

	native, err := e.registry.NativeAsset(req.Destination)
	if err != nil {
		return xcm.FeeDetail{}, err
	}
	detail := xcm.FeeDetail{Asset: native, FeeType: xcm.FeeEstimated}

	fee, err := e.reverseFee(ctx, client, req.Destination, req.Origin, req)
	var resolution *xcm.ResolutionError
	switch {
	case errors.As(err, &resolution):
		return xcm.FeeDetail{}, err
	case err != nil:
		feesLog.Warn().Err(err).Str("chain", req.Destination).Msg("Destination fee not available")
		return detail, nil
	}
	detail.Fee = fee
	return detail, nil
}

// reverseFee builds the transfer from chain back to target on a derived client
// and returns its payment info fee
func (e *Estimator) reverseFee(ctx context.Context, client xcm.ChainClient, chain, target string, req xcm.FeeRequest) (_ *big.Int, err error) {
	asset, err := e.reverseAsset(chain, req)
	if err != nil {
		return nil, err
	}
	currency := xcm.Currency{Symbol: asset.Symbol, Location: asset.Location.Clone(), Amount: req.Currency.Amount}

	tx, err := e.builder.Build(ctx, xcm.TransferIntent{
		Origin:      chain,
		Destination: target,
		Sender:      req.Recipient,
		Recipient:   req.Sender,
		Currency:    currency,
	})
	if err != nil {
		return nil, fmt.Errorf("build reverse transfer %s -> %s: %w", chain, target, err)
	}

	hop := client.Clone()
	lease := xcm.Pin(hop)
	defer func() {
		if releaseErr := lease.Release(ctx); err == nil && releaseErr != nil {
			err = releaseErr
		}
	}()
	if err := hop.Init(ctx, chain); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", chain, err)
	}
	return hop.TransactionFee(ctx, tx, req.Recipient)
}

// reverseAsset is the transferred asset as seen on chain. Bridge hubs never
// hold it, their reverse transfer moves the native token instead.
func (e *Estimator) reverseAsset(chain string, req xcm.FeeRequest) (xcm.Asset, error) {
	asset, err := e.registry.FindAssetOnDest(req.Origin, chain, req.Currency)
	if err == nil {
		return asset, nil
	}
	info, chainErr := e.registry.Chain(chain)
	if chainErr != nil || info.Role != xcm.RoleBridgeHub {
		return xcm.Asset{}, err
	}
	return e.registry.NativeAsset(chain)
}

func fmtFee(fee *big.Int) string {
	if fee == nil {
		return "n/a"
	}
	return fee.String()
}
