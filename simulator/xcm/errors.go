package xcm

import (
	"errors"
	"fmt"
)

// Leg names a position in the transfer path
type Leg string

const (
	LegOrigin      Leg = "origin"
	LegAssetHub    Leg = "assetHub"
	LegBridgeHub   Leg = "bridgeHub"
	LegHop         Leg = "hop"
	LegDestination Leg = "destination"
)

// ErrMissingDestinationFee is returned when the fee breakdown has no destination amount
var ErrMissingDestinationFee = errors.New("destination xcm fee is missing")

// PreconditionError is a caller fixable input problem found before any network call
type PreconditionError struct {
	Field   string
	Message string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("missing or invalid parameter %s: %s", e.Field, e.Message)
}

// ResolutionKind is what a failed lookup was looking for
type ResolutionKind string

const (
	ResolveAsset              ResolutionKind = "asset"
	ResolveExistentialDeposit ResolutionKind = "existential-deposit"
	ResolveChain              ResolutionKind = "chain"
	ResolvePallet             ResolutionKind = "pallet"
	ResolveErrorCode          ResolutionKind = "error-code"
)

// ResolutionError means the registry or chain state did not match what the
// computation needs
type ResolutionError struct {
	Kind    ResolutionKind
	Chain   string
	Subject string
	Err     error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("%s not found on %s for %s", e.Kind, e.Chain, e.Subject)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// DryRunFailedError is a chain rejecting the simulated call on one leg
type DryRunFailedError struct {
	Leg    Leg
	Reason string
}

func (e *DryRunFailedError) Error() string {
	return fmt.Sprintf("dry run failed on %s: %s", e.Leg, e.Reason)
}

// IndeterminateError escalates an indeterminate value where a boolean answer is required
type IndeterminateError struct {
	Reason string
}

func (e *IndeterminateError) Error() string {
	return e.Reason
}

// KeepAliveError is a transfer that would reap an account
type KeepAliveError struct {
	Message string
}

func (e *KeepAliveError) Error() string {
	return e.Message
}

// InvalidAddressError is an address that does not fit the chain's format
type InvalidAddressError struct {
	Chain   string
	Address string
	Reason  string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q for %s: %s", e.Address, e.Chain, e.Reason)
}
