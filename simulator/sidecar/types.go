package sidecar

import (
	"encoding/json"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

// BalanceInfoResponse is the answer of /accounts/{address}/balance-info
type BalanceInfoResponse struct {
	TokenSymbol string `json:"tokenSymbol"`
	Free        string `json:"free"`
	Reserved    string `json:"reserved"`
}

// AssetBalancesResponse is the answer of /accounts/{address}/asset-balances
type AssetBalancesResponse struct {
	Assets []struct {
		AssetID string `json:"assetId"`
		Balance string `json:"balance"`
	} `json:"assets"`
}

// ForeignAssetBalancesResponse is the answer of /accounts/{address}/foreign-asset-balances
type ForeignAssetBalancesResponse struct {
	ForeignAssets []struct {
		MultiLocation xcm.Location `json:"multiLocation"`
		Balance       string       `json:"balance"`
	} `json:"foreignAssets"`
}

// TxRequest is the body of the transaction endpoints
type TxRequest struct {
	Tx            string `json:"tx"`
	SenderAddress string `json:"senderAddress,omitempty"`
}

// FeeEstimateResponse is the answer of /transaction/fee-estimate
type FeeEstimateResponse struct {
	PartialFee string `json:"partialFee"`
	Class      string `json:"class"`
}

// DryRunResponse is the answer of /transaction/dry-run
type DryRunResponse struct {
	Result struct {
		ExecutionResult struct {
			Ok  json.RawMessage `json:"ok,omitempty"`
			Err *DispatchError  `json:"err,omitempty"`
		} `json:"executionResult"`
		EmittedEvents []EventDTO `json:"emittedEvents"`
	} `json:"result"`
}

// DispatchError is a failed dry run
type DispatchError struct {
	Error struct {
		Module *struct {
			Index string `json:"index"`
			Error string `json:"error"`
		} `json:"module,omitempty"`
		Other string `json:"other,omitempty"`
	} `json:"error"`
}

// EventDTO is one emitted event
type EventDTO struct {
	Pallet string `json:"pallet"`
	Method string `json:"method"`
	Data   struct {
		Fees []struct {
			ID  xcm.Location `json:"id"`
			Fun struct {
				Fungible    *string         `json:"fungible,omitempty"`
				NonFungible json.RawMessage `json:"nonFungible,omitempty"`
			} `json:"fun"`
		} `json:"fees"`
	} `json:"data"`
}
