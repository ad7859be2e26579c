package rpc

import (
	"context"
	"errors"
	"sort"

	"connectrpc.com/connect"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/models"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/txbuilder"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

// Procedures of the simulator service. Requests are POSTed as JSON.
const (
	SimulatorServiceName           = "spectra.xcm.v1.SimulatorService"
	GetTransferInfoProcedure       = "/" + SimulatorServiceName + "/GetTransferInfo"
	GetOriginFeeDetailsProcedure   = "/" + SimulatorServiceName + "/GetOriginFeeDetails"
	VerifyEdOnDestinationProcedure = "/" + SimulatorServiceName + "/VerifyEdOnDestination"
	CheckKeepAliveProcedure        = "/" + SimulatorServiceName + "/CheckKeepAlive"
	ListChainsProcedure            = "/" + SimulatorServiceName + "/ListChains"
)

// Metadata keys carrying the error taxonomy next to the connect error code
const (
	errorKindHeader = "Xcm-Error-Kind"
	errorLegHeader  = "Xcm-Error-Leg"
)

// Engine is the simulation surface served over RPC
type Engine interface {
	GetTransferInfo(ctx context.Context, intent xcm.TransferIntent) (*xcm.TransferReport, error)
	GetOriginFeeDetails(ctx context.Context, intent xcm.TransferIntent, marginPercentage int64) (*xcm.OriginFeeDetails, error)
	VerifyEdOnDestination(ctx context.Context, intent xcm.TransferIntent) (bool, error)
	CheckKeepAlive(ctx context.Context, intent xcm.TransferIntent) error
}

// ChainLister lists the registry
type ChainLister interface {
	Chains() []xcm.ChainInfo
	NativeAsset(chain string) (xcm.Asset, error)
}

// SimulatorServer implements the simulator procedures
type SimulatorServer struct {
	engine        Engine
	chains        ChainLister
	defaultMargin int64
}

// NewSimulatorServer creates a new SimulatorServer
func NewSimulatorServer(engine Engine, chains ChainLister, defaultMargin int64) *SimulatorServer {
	if defaultMargin <= 0 {
		defaultMargin = xcm.DefaultFeeMarginPercentage
	}
	return &SimulatorServer{engine: engine, chains: chains, defaultMargin: defaultMargin}
}

// GetTransferInfo simulates the whole transfer and reports every leg
func (s *SimulatorServer) GetTransferInfo(
	ctx context.Context,
	req *connect.Request[models.TransferRequest],
) (*connect.Response[xcm.TransferReport], error) {
	report, err := s.engine.GetTransferInfo(ctx, req.Msg.ToIntent())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(report), nil
}

// GetOriginFeeDetails answers whether the sender can pay the origin fee with a margin
func (s *SimulatorServer) GetOriginFeeDetails(
	ctx context.Context,
	req *connect.Request[models.OriginFeeRequest],
) (*connect.Response[models.OriginFeeResponse], error) {
	margin := s.defaultMargin
	if req.Msg.FeeMarginPercentage != nil && *req.Msg.FeeMarginPercentage > 0 {
		margin = *req.Msg.FeeMarginPercentage
	}

	details, err := s.engine.GetOriginFeeDetails(ctx, req.Msg.ToIntent(), margin)
	if err != nil {
		return nil, toConnectError(err)
	}

	resp := &models.OriginFeeResponse{
		SufficientForXCM: details.SufficientForXCM,
		XcmFee:           details.XcmFee.String(),
		XcmFeeFormatted:  details.XcmFee.String(),
	}
	if native, err := s.chains.NativeAsset(req.Msg.Origin); err == nil {
		resp.XcmFeeFormatted = xcm.FormatAmount(details.XcmFee, native.Decimals) + " " + native.Symbol
	}
	return connect.NewResponse(resp), nil
}

// VerifyEdOnDestination checks the recipient ends above the existential deposit
func (s *SimulatorServer) VerifyEdOnDestination(
	ctx context.Context,
	req *connect.Request[models.TransferRequest],
) (*connect.Response[models.VerifyEdResponse], error) {
	ok, err := s.engine.VerifyEdOnDestination(ctx, req.Msg.ToIntent())
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&models.VerifyEdResponse{Sufficient: ok}), nil
}

// CheckKeepAlive checks neither side of the transfer gets reaped
func (s *SimulatorServer) CheckKeepAlive(
	ctx context.Context,
	req *connect.Request[models.TransferRequest],
) (*connect.Response[models.KeepAliveResponse], error) {
	if err := s.engine.CheckKeepAlive(ctx, req.Msg.ToIntent()); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&models.KeepAliveResponse{Ok: true}), nil
}

// ListChains returns every registry chain sorted by id
func (s *SimulatorServer) ListChains(
	ctx context.Context,
	req *connect.Request[struct{}],
) (*connect.Response[models.ChainsResponse], error) {
	chains := s.chains.Chains()
	out := make([]models.ChainSummary, 0, len(chains))
	for _, c := range chains {
		out = append(out, models.ChainSummary{
			ID:             c.ID,
			Family:         c.Family,
			Role:           string(c.Role),
			NativeSymbol:   c.NativeSymbol,
			NativeDecimals: c.NativeDecimals,
			EVM:            c.EVM,
			DryRun:         c.DryRun,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return connect.NewResponse(&models.ChainsResponse{Chains: out}), nil
}

// toConnectError maps the simulation error taxonomy onto connect codes. The
// kind and leg travel as response metadata.
func toConnectError(err error) *connect.Error {
	var (
		precondition  *xcm.PreconditionError
		address       *xcm.InvalidAddressError
		resolution    *xcm.ResolutionError
		dryRun        *xcm.DryRunFailedError
		indeterminate *xcm.IndeterminateError
		keepAlive     *xcm.KeepAliveError
		build         *txbuilder.BuildError
	)

	code := connect.CodeUnavailable
	kind := "upstream"
	leg := ""
	switch {
	case errors.As(err, &precondition):
		code, kind = connect.CodeInvalidArgument, "precondition"
	case errors.As(err, &address):
		code, kind = connect.CodeInvalidArgument, "invalid-address"
	case errors.As(err, &dryRun):
		code, kind, leg = connect.CodeAborted, "dry-run-failed", string(dryRun.Leg)
	case errors.As(err, &resolution):
		code, kind = connect.CodeNotFound, "resolution-"+string(resolution.Kind)
	case errors.As(err, &indeterminate):
		code, kind = connect.CodeFailedPrecondition, "indeterminate"
	case errors.As(err, &keepAlive):
		code, kind = connect.CodeFailedPrecondition, "keep-alive"
	case errors.Is(err, xcm.ErrMissingDestinationFee):
		code, kind, leg = connect.CodeFailedPrecondition, "missing-fee", string(xcm.LegDestination)
	case errors.As(err, &build):
		code, kind = connect.CodeInvalidArgument, "build"
	case errors.Is(err, context.DeadlineExceeded):
		code, kind = connect.CodeDeadlineExceeded, "timeout"
	case errors.Is(err, context.Canceled):
		code, kind = connect.CodeCanceled, "canceled"
	}

	simulationFailures.WithLabelValues(kind, leg).Inc()

	cerr := connect.NewError(code, err)
	cerr.Meta().Set(errorKindHeader, kind)
	if leg != "" {
		cerr.Meta().Set(errorLegHeader, leg)
	}
	return cerr
}
