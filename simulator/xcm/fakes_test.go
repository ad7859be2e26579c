package xcm_test

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/registry"
	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
)

func u8(v uint8) *uint8    { return &v }
func u16(v uint16) *uint16 { return &v }
func u32(v uint32) *uint32 { return &v }
func str(v string) *string { return &v }

func amount(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad amount " + s)
	}
	return v
}

var (
	relayLocation = &xcm.Location{Parents: 1}
	usdtLocation  = &xcm.Location{Parents: 1, Interior: []xcm.Junction{
		{Parachain: u32(1000)}, {PalletInstance: u8(50)}, {GeneralIndex: str("1984")},
	}}
	wethLocation = &xcm.Location{Parents: 2, Interior: []xcm.Junction{
		{GlobalConsensus: str("Ethereum(1)")},
		{AccountKey20: str("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")},
	}}
	polkadotLocation = &xcm.Location{Parents: 2, Interior: []xcm.Junction{{GlobalConsensus: str("Polkadot")}}}
)

const (
	evmSender = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	ethHolder = "0x00000000219ab540356cBB839Cbe05303d7705Fa"
)

// account ids of the well known development keys
var (
	aliceID = []byte{
		0xd4, 0x35, 0x93, 0xc7, 0x15, 0xfd, 0xd3, 0x1c, 0x61, 0x14, 0x1a, 0xbd, 0x04, 0xa9, 0x9f, 0xd6,
		0x82, 0x2c, 0x85, 0x58, 0x85, 0x4c, 0xcd, 0xe3, 0x9a, 0x56, 0x84, 0xe7, 0xa5, 0x6d, 0xa2, 0x7d,
	}
	bobID = []byte{
		0x8e, 0xaf, 0x04, 0x15, 0x16, 0x87, 0x73, 0x63, 0x26, 0xc9, 0xfe, 0xa1, 0x7e, 0x25, 0xfc, 0x52,
		0x87, 0x61, 0x36, 0x93, 0xc9, 0x12, 0x90, 0x9c, 0xb2, 0x26, 0xaa, 0x47, 0x94, 0xf2, 0x6a, 0x48,
	}
)

func ss58(t *testing.T, id []byte, prefix uint16) string {
	t.Helper()
	address, err := xcm.EncodeSS58(id, prefix)
	assert.NoError(t, err)
	return address
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]registry.Chain{
		{
			ID: "Polkadot", Family: "polkadot", NativeSymbol: "DOT", NativeDecimals: 10,
			NativeED: amount("10000000000"), SS58Prefix: u16(0), DryRun: true,
		},
		{
			ID: "AssetHubPolkadot", Family: "polkadot", NativeSymbol: "DOT", NativeDecimals: 10,
			NativeED: amount("100000000"), NativeLocation: relayLocation, SS58Prefix: u16(0), DryRun: true,
			Assets: []xcm.Asset{
				{Symbol: "USDT", Decimals: 6, AssetID: "1984", Location: usdtLocation, ExistentialDeposit: big.NewInt(10_000)},
				{Symbol: "WETH", Decimals: 18, AssetID: "weth", Location: wethLocation, ExistentialDeposit: big.NewInt(15)},
			},
		},
		{
			ID: "BridgeHubPolkadot", Family: "polkadot", NativeSymbol: "DOT", NativeDecimals: 10,
			NativeED: amount("100000000"), NativeLocation: relayLocation,
		},
		{
			ID: "Hydration", Family: "polkadot", NativeSymbol: "HDX", NativeDecimals: 12,
			NativeED: amount("1000000000000"), SS58Prefix: u16(63), DryRun: true,
			Assets: []xcm.Asset{
				{Symbol: "DOT", Decimals: 10, AssetID: "5", Location: relayLocation, ExistentialDeposit: amount("17540000")},
				{Symbol: "USDT", Decimals: 6, AssetID: "10", Location: usdtLocation, ExistentialDeposit: big.NewInt(10_000)},
			},
		},
		{
			ID: "Moonbeam", Family: "polkadot", NativeSymbol: "GLMR", NativeDecimals: 18, EVM: true,
			NativeED: new(big.Int),
			Assets: []xcm.Asset{
				{Symbol: "xcUSDT", Decimals: 6, AssetID: "311091173110107856861649819128533077277", Location: usdtLocation, ExistentialDeposit: big.NewInt(1)},
			},
		},
		{
			ID: "AssetHubKusama", Family: "kusama", NativeSymbol: "KSM", NativeDecimals: 12,
			NativeED: amount("3333333"), SS58Prefix: u16(2),
			Assets: []xcm.Asset{{Symbol: "DOT", Decimals: 10, Location: polkadotLocation, ExistentialDeposit: amount("100000000")}},
		},
		{
			ID: "Ethereum", Family: "ethereum", NativeSymbol: "ETH", NativeDecimals: 18,
			Assets: []xcm.Asset{{Symbol: "WETH", Decimals: 18, Location: wethLocation, ExistentialDeposit: new(big.Int)}},
		},
	})
	assert.NoError(t, err)
	return reg
}

// network is the chain state shared by every client of one test
type network struct {
	balances    map[string]*big.Int // chain/address/symbol -> balance
	fees        map[string]*big.Int // chain -> payment info fee
	initErrs    map[string]error
	created     int
	inits       map[string]int
	disconnects map[string]int
}

func newNetwork() *network {
	return &network{
		balances:    map[string]*big.Int{},
		fees:        map[string]*big.Int{},
		initErrs:    map[string]error{},
		inits:       map[string]int{},
		disconnects: map[string]int{},
	}
}

func (n *network) setBalance(chain, address, symbol string, v *big.Int) {
	n.balances[chain+"/"+address+"/"+symbol] = v
}

func (n *network) balance(chain, address, symbol string) *big.Int {
	if v, ok := n.balances[chain+"/"+address+"/"+symbol]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// NewClient makes the network its own client factory
func (n *network) NewClient() xcm.ChainClient {
	n.created++
	return &fakeClient{net: n, allowed: true}
}

var errUnbound = errors.New("client is not initialized")

type fakeClient struct {
	net     *network
	chain   string
	allowed bool
}

func (c *fakeClient) Init(_ context.Context, chain string) error {
	if err := c.net.initErrs[chain]; err != nil {
		return err
	}
	c.chain = chain
	c.net.inits[chain]++
	return nil
}

func (c *fakeClient) Clone() xcm.ChainClient { return c.net.NewClient() }
func (c *fakeClient) Chain() string          { return c.chain }

func (c *fakeClient) Disconnect(context.Context) error {
	if c.allowed && c.chain != "" {
		c.net.disconnects[c.chain]++
		c.chain = ""
	}
	return nil
}

func (c *fakeClient) SetDisconnectAllowed(allowed bool) { c.allowed = allowed }
func (c *fakeClient) DisconnectAllowed() bool           { return c.allowed }

func (c *fakeClient) nativeSymbol() string {
	switch c.chain {
	case "Hydration":
		return "HDX"
	case "Moonbeam":
		return "GLMR"
	case "AssetHubKusama":
		return "KSM"
	}
	return "DOT"
}

func (c *fakeClient) NativeBalance(_ context.Context, address string) (*big.Int, error) {
	if c.chain == "" {
		return nil, errUnbound
	}
	return c.net.balance(c.chain, address, c.nativeSymbol()), nil
}

func (c *fakeClient) AssetBalance(ctx context.Context, address string, asset xcm.Asset) (*big.Int, error) {
	if c.chain == "" {
		return nil, errUnbound
	}
	if asset.IsNative {
		return c.NativeBalance(ctx, address)
	}
	return c.net.balance(c.chain, address, asset.Symbol), nil
}

func (c *fakeClient) TransactionFee(_ context.Context, tx xcm.Tx, _ string) (*big.Int, error) {
	if c.chain == "" {
		return nil, errUnbound
	}
	if tx.Chain != c.chain {
		return nil, fmt.Errorf("tx for %s sent to %s", tx.Chain, c.chain)
	}
	fee, ok := c.net.fees[c.chain]
	if !ok {
		return nil, fmt.Errorf("no fee for %s", c.chain)
	}
	return new(big.Int).Set(fee), nil
}

func (c *fakeClient) Simulate(context.Context, xcm.Tx, string) (*xcm.SimulationResult, error) {
	return nil, errors.New("not used")
}

type fakeBuilder struct {
	intents []xcm.TransferIntent
	err     error
}

func (b *fakeBuilder) Build(_ context.Context, intent xcm.TransferIntent) (xcm.Tx, error) {
	b.intents = append(b.intents, intent)
	if b.err != nil {
		return xcm.Tx{}, b.err
	}
	return xcm.Tx{Chain: intent.Origin, Call: "0x1f0b"}, nil
}

// fakeFees returns a canned breakdown and records what it was asked
type fakeFees struct {
	breakdown *xcm.FeeBreakdown
	err       error
	requests  []xcm.FeeRequest
	chains    []string
	buildTx   bool
}

func (f *fakeFees) Breakdown(ctx context.Context, client xcm.ChainClient, req xcm.FeeRequest, txf xcm.TxFactory) (*xcm.FeeBreakdown, error) {
	f.requests = append(f.requests, req)
	f.chains = append(f.chains, client.Chain())
	if f.buildTx {
		if _, err := txf(ctx); err != nil {
			return nil, err
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.breakdown, nil
}

type fakeTokens struct {
	balances map[string]*big.Int // address/symbol
	calls    int
}

func (f *fakeTokens) TokenBalance(_ context.Context, address string, asset xcm.Asset) (*big.Int, error) {
	f.calls++
	if v, ok := f.balances[address+"/"+asset.Symbol]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (f *fakeTokens) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	return f.TokenBalance(ctx, address, xcm.Asset{Symbol: "ETH"})
}

type harness struct {
	net       *network
	registry  *registry.Registry
	builder   *fakeBuilder
	fees      *fakeFees
	tokens    *fakeTokens
	simulator *xcm.Simulator
}

func newHarness(t *testing.T, breakdown *xcm.FeeBreakdown) *harness {
	t.Helper()
	h := &harness{
		net:      newNetwork(),
		registry: testRegistry(t),
		builder:  &fakeBuilder{},
		fees:     &fakeFees{breakdown: breakdown},
		tokens:   &fakeTokens{balances: map[string]*big.Int{}},
	}
	h.simulator = xcm.NewSimulator(h.net, h.registry, h.builder, h.fees, h.tokens)
	return h
}

func (h *harness) asset(t *testing.T, chain string, currency xcm.Currency) xcm.Asset {
	t.Helper()
	a, err := h.registry.FindAsset(chain, currency, "")
	assert.NoError(t, err)
	return a
}

func (h *harness) feeDetail(t *testing.T, chain, symbol string, fee *big.Int) xcm.FeeDetail {
	t.Helper()
	return xcm.FeeDetail{Fee: fee, Asset: h.asset(t, chain, xcm.Currency{Symbol: symbol}), FeeType: xcm.FeeEstimated}
}

// released reports whether every client bound during the test was disconnected
func (h *harness) released() bool {
	for chain, n := range h.net.inits {
		if h.net.disconnects[chain] != n {
			return false
		}
	}
	return true
}
