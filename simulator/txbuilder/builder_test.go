package txbuilder_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/txbuilder"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
	"github.com/zeebo/assert"
)

func TestBuild(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/x-transfer")
		assert.Equal(t, r.Method, http.MethodPost)
		assert.True(t, r.Header.Get("X-Request-Id") != "")

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, body["from"], "Hydration")
		assert.Equal(t, body["to"], "AssetHubPolkadot")
		assert.Equal(t, body["senderAddress"], "sender")
		assert.Equal(t, body["address"], "recipient")
		currency := body["currency"].(map[string]any)
		assert.Equal(t, currency["symbol"], "DOT")
		assert.Equal(t, currency["amount"], "10000000000")

		_, _ = io.WriteString(w, `{"tx":"0x1f0b04","method":"polkadotXcm.transferAssets"}`)
	}))
	defer srv.Close()

	client := txbuilder.NewClient(srv.URL+"/", time.Second)
	tx, err := client.Build(context.Background(), xcm.TransferIntent{
		Origin:      "Hydration",
		Destination: "AssetHubPolkadot",
		Sender:      "sender",
		Recipient:   "recipient",
		Currency:    xcm.Currency{Symbol: "DOT", Amount: "10000000000"},
	})
	assert.NoError(t, err)
	assert.Equal(t, tx.Chain, "Hydration")
	assert.Equal(t, tx.Call, "0x1f0b04")
	assert.Equal(t, tx.Method, "polkadotXcm.transferAssets")
}

func TestBuildRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Route not supported"}`)
	}))
	defer srv.Close()

	_, err := txbuilder.NewClient(srv.URL, 0).Build(context.Background(), xcm.TransferIntent{Origin: "Astar", Destination: "Moonbeam"})
	var buildErr *txbuilder.BuildError
	assert.True(t, errors.As(err, &buildErr))
	assert.Equal(t, buildErr.Status, http.StatusBadRequest)
	assert.Equal(t, buildErr.Message, "Route not supported")
}

func TestBuildMalformedCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"tx":"not-hex"}`)
	}))
	defer srv.Close()

	_, err := txbuilder.NewClient(srv.URL, 0).Build(context.Background(), xcm.TransferIntent{Origin: "Astar"})
	assert.Error(t, err)
}
