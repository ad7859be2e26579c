package xcm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

func TestGetOriginFeeDetails(t *testing.T) {
	sender := ss58(t, aliceID, 63)

	tests := []struct {
		name       string
		balance    string
		margin     int64
		sufficient bool
	}{
		// 1000 fee + 10% margin on top of the 1 HDX deposit
		{name: "exactly covered", balance: "1000000001100", margin: 10, sufficient: false},
		{name: "covered", balance: "1000000001101", margin: 10, sufficient: true},
		{name: "default margin", balance: "1000000001100", margin: 0, sufficient: false},
		{name: "smaller margin", balance: "1000000001100", margin: 25, sufficient: true},
		{name: "empty account", balance: "0", margin: 10, sufficient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.net.fees["Hydration"] = amount("1000")
			h.net.setBalance("Hydration", sender, "HDX", amount(tt.balance))

			details, err := h.simulator.GetOriginFeeDetails(context.Background(), xcm.TransferIntent{
				Origin:           "Hydration",
				Destination:      "AssetHubPolkadot",
				Sender:           sender,
				Recipient:        ss58(t, bobID, 0),
				Currency:         xcm.Currency{Symbol: "DOT", Amount: "1"},
				AbstractDecimals: true,
			}, tt.margin)
			assert.NoError(t, err)
			assert.Equal(t, details.SufficientForXCM, tt.sufficient)
			assert.Equal(t, details.XcmFee.String(), "1000")

			assert.Equal(t, len(h.builder.intents), 1)
			assert.Equal(t, h.builder.intents[0].Currency.Amount, "10000000000")
			assert.True(t, h.released())
		})
	}
}

func TestGetOriginFeeDetailsErrors(t *testing.T) {
	intent := xcm.TransferIntent{
		Origin:      "Hydration",
		Destination: "AssetHubPolkadot",
		Sender:      ss58(t, aliceID, 63),
		Recipient:   ss58(t, bobID, 0),
		Currency:    xcm.Currency{Symbol: "DOT", Amount: "1"},
	}

	t.Run("build failure", func(t *testing.T) {
		h := newHarness(t, nil)
		h.builder.err = errors.New("route not supported")
		_, err := h.simulator.GetOriginFeeDetails(context.Background(), intent, 10)
		assert.Error(t, err)
		assert.True(t, h.released())
	})

	t.Run("bad amount", func(t *testing.T) {
		h := newHarness(t, nil)
		bad := intent
		bad.Currency.Amount = "one"
		_, err := h.simulator.GetOriginFeeDetails(context.Background(), bad, 10)
		var precondition *xcm.PreconditionError
		assert.True(t, errors.As(err, &precondition))
		assert.Equal(t, h.net.created, 0)
	})
}

func verifyIntent(t *testing.T) xcm.TransferIntent {
	return xcm.TransferIntent{
		Origin:           "Hydration",
		Destination:      "AssetHubPolkadot",
		Sender:           ss58(t, aliceID, 63),
		Recipient:        ss58(t, bobID, 0),
		Currency:         xcm.Currency{Symbol: "DOT", Amount: "1"},
		AbstractDecimals: true,
	}
}

func TestVerifyEdOnDestination(t *testing.T) {
	h := newHarness(t, nil)
	h.fees.breakdown = &xcm.FeeBreakdown{
		Origin:      h.feeDetail(t, "Hydration", "HDX", amount("1000")),
		Hops:        []xcm.HopFee{},
		Destination: h.feeDetail(t, "AssetHubPolkadot", "DOT", amount("5000000")),
	}

	ok, err := h.simulator.VerifyEdOnDestination(context.Background(), verifyIntent(t))
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, h.fees.requests[0].Currency.Amount, "10000000000")
	assert.True(t, h.released())

	small := verifyIntent(t)
	small.Currency.Amount = "0.0105"
	ok, err = h.simulator.VerifyEdOnDestination(context.Background(), small)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyEdOnDestinationAcceptsGenericPrefix(t *testing.T) {
	h := newHarness(t, nil)
	h.fees.breakdown = &xcm.FeeBreakdown{
		Hops:        []xcm.HopFee{},
		Destination: h.feeDetail(t, "AssetHubPolkadot", "DOT", amount("5000000")),
	}
	intent := verifyIntent(t)
	intent.Recipient = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	_, err := h.simulator.VerifyEdOnDestination(context.Background(), intent)
	assert.NoError(t, err)
}

func TestVerifyEdOnDestinationFailures(t *testing.T) {
	failed := func(h *harness, chain, symbol, reason string) *xcm.FeeDetail {
		d := h.feeDetail(t, chain, symbol, nil)
		d.FeeType = xcm.FeeSimulated
		d.SimulationError = reason
		return &d
	}

	t.Run("asset hub failure reported first", func(t *testing.T) {
		h := newHarness(t, nil)
		h.fees.breakdown = &xcm.FeeBreakdown{
			Origin:      *failed(h, "Hydration", "HDX", "Filtered"),
			AssetHub:    failed(h, "AssetHubPolkadot", "DOT", "LocalExecutionIncomplete: TooExpensive"),
			BridgeHub:   failed(h, "BridgeHubPolkadot", "DOT", "Unroutable"),
			Hops:        []xcm.HopFee{},
			Destination: *failed(h, "AssetHubPolkadot", "DOT", "Barrier"),
		}
		_, err := h.simulator.VerifyEdOnDestination(context.Background(), verifyIntent(t))
		var dryRun *xcm.DryRunFailedError
		assert.True(t, errors.As(err, &dryRun))
		assert.Equal(t, dryRun.Leg, xcm.LegAssetHub)
		assert.Equal(t, dryRun.Reason, "LocalExecutionIncomplete: TooExpensive")
		assert.True(t, h.released())
	})

	t.Run("destination before origin", func(t *testing.T) {
		h := newHarness(t, nil)
		h.fees.breakdown = &xcm.FeeBreakdown{
			Origin:      *failed(h, "Hydration", "HDX", "Filtered"),
			Hops:        []xcm.HopFee{},
			Destination: *failed(h, "AssetHubPolkadot", "DOT", "Barrier"),
		}
		_, err := h.simulator.VerifyEdOnDestination(context.Background(), verifyIntent(t))
		var dryRun *xcm.DryRunFailedError
		assert.True(t, errors.As(err, &dryRun))
		assert.Equal(t, dryRun.Leg, xcm.LegDestination)
	})

	t.Run("origin", func(t *testing.T) {
		h := newHarness(t, nil)
		h.fees.breakdown = &xcm.FeeBreakdown{
			Origin:      *failed(h, "Hydration", "HDX", "Filtered"),
			Hops:        []xcm.HopFee{},
			Destination: h.feeDetail(t, "AssetHubPolkadot", "DOT", amount("1")),
		}
		_, err := h.simulator.VerifyEdOnDestination(context.Background(), verifyIntent(t))
		var dryRun *xcm.DryRunFailedError
		assert.True(t, errors.As(err, &dryRun))
		assert.Equal(t, dryRun.Leg, xcm.LegOrigin)
		assert.Equal(t, dryRun.Error(), "dry run failed on origin: Filtered")
	})

	t.Run("missing destination fee", func(t *testing.T) {
		h := newHarness(t, nil)
		h.fees.breakdown = &xcm.FeeBreakdown{
			Hops:        []xcm.HopFee{},
			Destination: h.feeDetail(t, "AssetHubPolkadot", "DOT", nil),
		}
		_, err := h.simulator.VerifyEdOnDestination(context.Background(), verifyIntent(t))
		assert.True(t, errors.Is(err, xcm.ErrMissingDestinationFee))
	})

	t.Run("fee in another asset", func(t *testing.T) {
		h := newHarness(t, nil)
		h.fees.breakdown = &xcm.FeeBreakdown{
			Hops:        []xcm.HopFee{},
			Destination: h.feeDetail(t, "AssetHubPolkadot", "USDT", amount("1")),
		}
		_, err := h.simulator.VerifyEdOnDestination(context.Background(), verifyIntent(t))
		var indeterminate *xcm.IndeterminateError
		assert.True(t, errors.As(err, &indeterminate))
		assert.True(t, strings.Contains(indeterminate.Error(), "DryRun"))
	})

	t.Run("recipient of the wrong format", func(t *testing.T) {
		h := newHarness(t, &xcm.FeeBreakdown{})
		intent := verifyIntent(t)
		intent.Recipient = evmSender
		_, err := h.simulator.VerifyEdOnDestination(context.Background(), intent)
		var invalid *xcm.InvalidAddressError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, h.net.created, 0)
	})

	t.Run("recipient of another network", func(t *testing.T) {
		h := newHarness(t, &xcm.FeeBreakdown{})
		intent := verifyIntent(t)
		intent.Recipient = ss58(t, bobID, 2)
		_, err := h.simulator.VerifyEdOnDestination(context.Background(), intent)
		var invalid *xcm.InvalidAddressError
		assert.True(t, errors.As(err, &invalid))
	})
}

func keepAliveIntent(t *testing.T, amount string) xcm.TransferIntent {
	return xcm.TransferIntent{
		Origin:      "AssetHubPolkadot",
		Destination: "Polkadot",
		Sender:      ss58(t, aliceID, 0),
		Recipient:   ss58(t, bobID, 0),
		Currency:    xcm.Currency{Symbol: "DOT", Amount: amount},
	}
}

func TestCheckKeepAlive(t *testing.T) {
	tests := []struct {
		name          string
		amount        string
		originBalance string
		message       string
	}{
		{name: "both accounts stay alive", amount: "20000000000", originBalance: "100000000000"},
		{name: "destination below deposit", amount: "10000000000", originBalance: "100000000000", message: "Please increase the amount"},
		{name: "origin below deposit", amount: "20000000000", originBalance: "19900000000", message: "existential deposit on origin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			intent := keepAliveIntent(t, tt.amount)
			h.net.fees["Polkadot"] = amount("100000000")
			h.net.setBalance("AssetHubPolkadot", intent.Sender, "DOT", amount(tt.originBalance))

			err := h.simulator.CheckKeepAlive(context.Background(), intent)
			if tt.message == "" {
				assert.NoError(t, err)
			} else {
				var keepAlive *xcm.KeepAliveError
				assert.True(t, errors.As(err, &keepAlive))
				assert.True(t, strings.Contains(keepAlive.Message, tt.message))
			}

			// the fee comes from the transfer back to the origin
			assert.Equal(t, len(h.builder.intents), 1)
			reverse := h.builder.intents[0]
			assert.Equal(t, reverse.Origin, "Polkadot")
			assert.Equal(t, reverse.Destination, "AssetHubPolkadot")
			assert.Equal(t, reverse.Sender, intent.Recipient)
			assert.True(t, h.released())
		})
	}
}

func TestCheckKeepAliveRejects(t *testing.T) {
	tests := []struct {
		name     string
		currency xcm.Currency
		message  string
	}{
		{name: "no symbol", currency: xcm.Currency{AssetID: "1984", Amount: "1"}, message: "Currency symbol not found"},
		{name: "not the destination native", currency: xcm.Currency{Symbol: "USDT", Amount: "1"}, message: "only supported when sending native asset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			intent := keepAliveIntent(t, "1")
			intent.Currency = tt.currency
			err := h.simulator.CheckKeepAlive(context.Background(), intent)
			var keepAlive *xcm.KeepAliveError
			assert.True(t, errors.As(err, &keepAlive))
			assert.True(t, strings.Contains(keepAlive.Message, tt.message))
			assert.Equal(t, h.net.created, 0)
		})
	}

	t.Run("fee transfer cannot be built", func(t *testing.T) {
		h := newHarness(t, nil)
		h.builder.err = errors.New("unsupported route")
		err := h.simulator.CheckKeepAlive(context.Background(), keepAliveIntent(t, "20000000000"))
		var keepAlive *xcm.KeepAliveError
		assert.True(t, errors.As(err, &keepAlive))
		assert.True(t, strings.Contains(keepAlive.Message, "could not be created"))
		assert.True(t, h.released())
	})
}
