package models_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/models"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

const transferJSON = `{
	"origin": "Hydration",
	"destination": "AssetHubPolkadot",
	"sender": "7KqMfyEXGMAgR1eyjzxqsKXT5rTn1CQrnEtGMi3Uv7RbXLfs",
	"recipient": "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5",
	"currency": {"location": {"parents": 1, "interior": []}, "amount": "1.5"},
	"feeAsset": {"symbol": "HDX"},
	"abstractDecimals": true
}`

func TestTransferRequestToIntent(t *testing.T) {
	var req models.TransferRequest
	assert.NoError(t, json.Unmarshal([]byte(transferJSON), &req))
	assert.NoError(t, req.Validate())

	intent := req.ToIntent()
	assert.Equal(t, intent.Origin, "Hydration")
	assert.True(t, intent.Currency.Location.IsHere())
	assert.Equal(t, intent.Currency.Amount, "1.5")
	assert.True(t, intent.AbstractDecimals)
	assert.Equal(t, intent.FeeAsset.Symbol, "HDX")

	// the intent owns its location
	req.Currency.Location.Parents = 0
	assert.Equal(t, intent.Currency.Location.Parents, uint8(1))
}

func TestTransferRequestValidate(t *testing.T) {
	var precondition *xcm.PreconditionError

	err := (&models.TransferRequest{Origin: "Hydration"}).Validate()
	assert.True(t, errors.As(err, &precondition))
	assert.Equal(t, precondition.Field, "destination,sender,recipient,currency,currency.amount")

	req := models.TransferRequest{
		Origin:      "Hydration",
		Destination: "AssetHubPolkadot",
		Sender:      "a",
		Recipient:   "b",
		Currency:    models.CurrencySpec{ID: "1984", Amount: "1"},
		FeeAsset:    &models.CurrencySpec{Amount: "1"},
	}
	err = req.Validate()
	assert.True(t, errors.As(err, &precondition))
	assert.Equal(t, precondition.Field, "feeAsset")

	margin := int64(-5)
	feeReq := models.OriginFeeRequest{TransferRequest: req, FeeMarginPercentage: &margin}
	feeReq.FeeAsset = nil
	err = feeReq.Validate()
	assert.True(t, errors.As(err, &precondition))
	assert.Equal(t, precondition.Field, "feeMarginPercentage")

	margin = 0
	assert.NoError(t, feeReq.Validate())
}
