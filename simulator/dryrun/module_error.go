package dryrun

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

// PalletLookup finds the pallet registered at a runtime index
type PalletLookup interface {
	PalletAt(chain string, index uint8) (string, bool)
}

// Reason is a decoded dispatch failure
type Reason struct {
	Pallet   string `json:"pallet"`
	Error    string `json:"error"`
	SubError string `json:"subError,omitempty"` // set for LocalExecutionIncomplete
}

func (r Reason) String() string {
	if r.SubError != "" {
		return r.Error + ": " + r.SubError
	}
	return r.Error
}

const localExecutionIncomplete = "LocalExecutionIncomplete"

var polkadotXcmErrors = []string{
	"Unreachable",
	"SendFailure",
	"Filtered",
	"UnweighableMessage",
	"DestinationNotInvertible",
	"Empty",
	"CannotReanchor",
	"TooManyAssets",
	"InvalidOrigin",
	"BadVersion",
	"BadLocation",
	"NoSubscription",
	"AlreadySubscribed",
	"CannotCheckOutTeleport",
	"LowBalance",
	"TooManyLocks",
	"AccountNotSovereign",
	"FeesNotMet",
	"LockNotFound",
	"InUse",
	"REMOVED",
	"InvalidAssetUnknownReserve",
	"InvalidAssetUnsupportedReserve",
	"TooManyReserves",
	localExecutionIncomplete,
}

var xTokensErrors = []string{
	"AssetHasNoReserve",
	"NotCrossChainTransfer",
	"InvalidDest",
	"NotCrossChainTransferableCurrency",
	"UnweighableMessage",
	"XcmExecutionFailed",
	"CannotReanchor",
	"InvalidAncestry",
	"InvalidAsset",
	"DestinationNotInvertible",
	"BadVersion",
	"DistinctReserveForAssetAndFee",
	"ZeroFee",
	"ZeroAmount",
	"TooManyAssetsBeingSent",
	"AssetIndexNonExistent",
	"FeeNotEnough",
	"NotSupportedLocation",
	"MinXcmFeeNotDefined",
	"RateLimited",
}

// xcm executor errors carried by LocalExecutionIncomplete
var executionErrors = []string{
	"Overflow",
	"Unimplemented",
	"UntrustedReserveLocation",
	"UntrustedTeleportLocation",
	"LocationFull",
	"LocationNotInvertible",
	"BadOrigin",
	"InvalidLocation",
	"AssetNotFound",
	"FailedToTransactAsset",
	"NotWithdrawable",
	"LocationCannotHold",
	"ExceedsMaxMessageSize",
	"DestinationUnsupported",
	"Transport",
	"Unroutable",
	"UnknownClaim",
	"FailedToDecode",
	"MaxWeightInvalid",
	"NotHoldingFees",
	"TooExpensive",
	"Trap",
	"ExpectationFalse",
	"PalletNotFound",
	"NameMismatch",
	"VersionIncompatible",
	"HoldingWouldOverflow",
	"ExportError",
	"ReanchorFailed",
	"NoDeal",
	"FeesNotMet",
	"LockError",
	"NoPermission",
	"Unanchored",
	"NotDepositable",
	"UnhandledXcmVersion",
	"WeightLimitReached",
	"Barrier",
	"WeightNotComputable",
	"ExceedsStackLimit",
}

var palletErrors = map[string][]string{
	"XcmPallet":   polkadotXcmErrors,
	"PolkadotXcm": polkadotXcmErrors,
	"XTokens":     xTokensErrors,
}

// ResolveModuleError names the failure behind a module error of one of the
// cross chain messaging pallets
func ResolveModuleError(chain string, moduleErr xcm.ModuleError, pallets PalletLookup) (Reason, error) {
	pallet, ok := pallets.PalletAt(chain, moduleErr.Index)
	if !ok {
		return Reason{}, &xcm.ResolutionError{
			Kind:    xcm.ResolvePallet,
			Chain:   chain,
			Subject: fmt.Sprintf("index %d", moduleErr.Index),
		}
	}
	names, ok := palletErrors[pallet]
	if !ok {
		return Reason{}, &xcm.ResolutionError{
			Kind:    xcm.ResolvePallet,
			Chain:   chain,
			Subject: fmt.Sprintf("index %d", moduleErr.Index),
			Err:     fmt.Errorf("pallet %s is not an xcm pallet", pallet),
		}
	}

	raw := moduleErr.Error
	if !strings.HasPrefix(raw, "0x") {
		raw = "0x" + raw
	}
	code, err := hexutil.Decode(raw)
	if err != nil || len(code) == 0 {
		return Reason{}, &xcm.ResolutionError{
			Kind:    xcm.ResolveErrorCode,
			Chain:   chain,
			Subject: fmt.Sprintf("%s error %q", pallet, moduleErr.Error),
			Err:     err,
		}
	}

	if int(code[0]) >= len(names) {
		return Reason{}, &xcm.ResolutionError{
			Kind:    xcm.ResolveErrorCode,
			Chain:   chain,
			Subject: fmt.Sprintf("%s error index %d", pallet, code[0]),
		}
	}
	reason := Reason{Pallet: pallet, Error: names[code[0]]}

	if reason.Error == localExecutionIncomplete && len(code) > 1 {
		if int(code[1]) >= len(executionErrors) {
			return Reason{}, &xcm.ResolutionError{
				Kind:    xcm.ResolveErrorCode,
				Chain:   chain,
				Subject: fmt.Sprintf("%s execution error index %d", pallet, code[1]),
			}
		}
		reason.SubError = executionErrors[code[1]]
	}
	return reason, nil
}
