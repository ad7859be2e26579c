package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

// ErrNotInitialized is returned by queries on a client not bound to a chain
var ErrNotInitialized = errors.New("chain client is not initialized")

// Client is a logical connection to one chain through the pool
type Client struct {
	pool              *Pool
	mu                sync.Mutex
	chain             string
	transport         *transport
	disconnectAllowed bool
}

func newClient(pool *Pool) *Client {
	return &Client{pool: pool, disconnectAllowed: true}
}

// Init binds the client to a chain, releasing any previous binding
func (c *Client) Init(ctx context.Context, chain string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport != nil {
		if c.chain == chain {
			return nil
		}
		c.pool.release(c.chain)
		c.transport = nil
	}
	t, err := c.pool.acquire(chain)
	if err != nil {
		return err
	}
	c.chain = chain
	c.transport = t
	return nil
}

// Clone derives an unbound client on the same pool
func (c *Client) Clone() xcm.ChainClient {
	return newClient(c.pool)
}

func (c *Client) Chain() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chain
}

// Disconnect gives the transport back to the pool when allowed
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.disconnectAllowed || c.transport == nil {
		return nil
	}
	c.pool.release(c.chain)
	c.transport = nil
	return nil
}

func (c *Client) SetDisconnectAllowed(allowed bool) {
	c.mu.Lock()
	c.disconnectAllowed = allowed
	c.mu.Unlock()
}

func (c *Client) DisconnectAllowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectAllowed
}

func (c *Client) bound() (*transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil {
		return nil, ErrNotInitialized
	}
	return c.transport, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	t, err := c.bound()
	if err != nil {
		return err
	}
	body, err := t.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	t, err := c.bound()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	body, err := t.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	return nil
}

// NativeBalance returns the free native balance of an account
func (c *Client) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	var resp BalanceInfoResponse
	if err := c.get(ctx, "/accounts/"+url.PathEscape(address)+"/balance-info", &resp); err != nil {
		return nil, err
	}
	return parseAmount(resp.Free)
}

// AssetBalance returns the balance of any asset: native, assets pallet or foreign asset
func (c *Client) AssetBalance(ctx context.Context, address string, asset xcm.Asset) (*big.Int, error) {
	switch {
	case asset.IsNative:
		return c.NativeBalance(ctx, address)
	case asset.AssetID != "":
		return c.assetsPalletBalance(ctx, address, asset.AssetID)
	case asset.Location != nil:
		return c.foreignAssetBalance(ctx, address, asset.Location)
	}
	return nil, fmt.Errorf("asset %s has neither id nor location", asset.Symbol)
}

func (c *Client) assetsPalletBalance(ctx context.Context, address, assetID string) (*big.Int, error) {
	var resp AssetBalancesResponse
	path := fmt.Sprintf("/accounts/%s/asset-balances?assets[]=%s", url.PathEscape(address), url.QueryEscape(assetID))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	for _, a := range resp.Assets {
		if a.AssetID == assetID {
			return parseAmount(a.Balance)
		}
	}
	// accounts that never held the asset have no entry
	return new(big.Int), nil
}

func (c *Client) foreignAssetBalance(ctx context.Context, address string, location *xcm.Location) (*big.Int, error) {
	encoded, err := json.Marshal(location)
	if err != nil {
		return nil, err
	}
	var resp ForeignAssetBalancesResponse
	path := fmt.Sprintf("/accounts/%s/foreign-asset-balances?foreignAssets[]=%s", url.PathEscape(address), url.QueryEscape(string(encoded)))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	for _, a := range resp.ForeignAssets {
		if a.MultiLocation.Equal(location) {
			return parseAmount(a.Balance)
		}
	}
	return new(big.Int), nil
}

// TransactionFee returns the payment info fee of a call
func (c *Client) TransactionFee(ctx context.Context, tx xcm.Tx, address string) (*big.Int, error) {
	var resp FeeEstimateResponse
	if err := c.post(ctx, "/transaction/fee-estimate", TxRequest{Tx: tx.Call, SenderAddress: address}, &resp); err != nil {
		return nil, err
	}
	return parseAmount(resp.PartialFee)
}

// Simulate dry runs a call. On success the execution fee is the payment info fee.
func (c *Client) Simulate(ctx context.Context, tx xcm.Tx, address string) (*xcm.SimulationResult, error) {
	var resp DryRunResponse
	if err := c.post(ctx, "/transaction/dry-run", TxRequest{Tx: tx.Call, SenderAddress: address}, &resp); err != nil {
		return nil, err
	}

	if failure := resp.Result.ExecutionResult.Err; failure != nil {
		result := &xcm.SimulationResult{Success: false, FailureText: failure.Error.Other}
		if m := failure.Error.Module; m != nil {
			index, err := strconv.ParseUint(m.Index, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid module index %q: %w", m.Index, err)
			}
			result.Failure = &xcm.ModuleError{Index: uint8(index), Error: m.Error}
		}
		return result, nil
	}

	events, err := convertEvents(resp.Result.EmittedEvents)
	if err != nil {
		return nil, err
	}
	fee, err := c.TransactionFee(ctx, tx, address)
	if err != nil {
		return nil, err
	}
	return &xcm.SimulationResult{Success: true, ExecutionFee: fee, Events: events}, nil
}

// convertEvents maps gateway events onto runtime names, "polkadotXcm" becomes "PolkadotXcm"
func convertEvents(in []EventDTO) ([]xcm.Event, error) {
	out := make([]xcm.Event, 0, len(in))
	for _, e := range in {
		event := xcm.Event{Pallet: upperFirst(e.Pallet), Method: upperFirst(e.Method)}
		for _, f := range e.Data.Fees {
			fee := xcm.FeeAsset{ID: f.ID}
			if f.Fun.Fungible != nil {
				amount, err := parseAmount(*f.Fun.Fungible)
				if err != nil {
					return nil, err
				}
				fee.Fungible = amount
			}
			event.Fees = append(event.Fees, fee)
		}
		out = append(out, event)
	}
	return out, nil
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}
