// Package txbuilder asks an XCM builder API to encode transfer calls
package txbuilder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "txbuilder").Logger()
}

// BuildError is a transfer the builder refused to encode
type BuildError struct {
	Status  int
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("builder rejected transfer (HTTP %d): %s", e.Status, e.Message)
}

// Client calls POST {base}/x-transfer
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a builder client. A zero timeout falls back to 15s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type transferRequest struct {
	From          string        `json:"from"`
	To            string        `json:"to"`
	Currency      xcm.Currency  `json:"currency"`
	FeeAsset      *xcm.Currency `json:"feeAsset,omitempty"`
	Address       string        `json:"address"`
	SenderAddress string        `json:"senderAddress"`
	AhAddress     string        `json:"ahAddress,omitempty"`
}

type transferResponse struct {
	Tx     string `json:"tx"`
	Method string `json:"method"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Build encodes the transfer described by the intent. The currency amount is
// forwarded as is, callers normalize it first.
func (c *Client) Build(ctx context.Context, intent xcm.TransferIntent) (xcm.Tx, error) {
	payload, err := json.Marshal(transferRequest{
		From:          intent.Origin,
		To:            intent.Destination,
		Currency:      intent.Currency,
		FeeAsset:      intent.FeeAsset,
		Address:       intent.Recipient,
		SenderAddress: intent.Sender,
		AhAddress:     intent.ProxyAddress,
	})
	if err != nil {
		return xcm.Tx{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/x-transfer", bytes.NewReader(payload))
	if err != nil {
		return xcm.Tx{}, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return xcm.Tx{}, fmt.Errorf("builder request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return xcm.Tx{}, err
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &e) == nil {
			if e.Message != "" {
				msg = e.Message
			} else if e.Error != "" {
				msg = e.Error
			}
		}
		log.Debug().
			Str("request_id", requestID).
			Str("from", intent.Origin).
			Str("to", intent.Destination).
			Int("status", resp.StatusCode).
			Msg("Builder rejected transfer")
		return xcm.Tx{}, &BuildError{Status: resp.StatusCode, Message: msg}
	}

	var out transferResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return xcm.Tx{}, fmt.Errorf("failed to parse builder response: %w", err)
	}
	if _, err := hexutil.Decode(out.Tx); err != nil {
		return xcm.Tx{}, fmt.Errorf("builder returned a malformed call: %w", err)
	}
	return xcm.Tx{Chain: intent.Origin, Method: out.Method, Call: out.Tx}, nil
}
