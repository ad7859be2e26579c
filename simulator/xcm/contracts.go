package xcm

import (
	"context"
	"math/big"
)

// ChainClient is a logical connection to one chain
type ChainClient interface {
	// Init binds the client to a chain. An unbound client only supports Clone.
	Init(ctx context.Context, chain string) error
	// Clone derives an unbound client sharing the same transport configuration
	Clone() ChainClient
	Chain() string
	// Disconnect releases the connection unless auto-disconnect is disallowed
	Disconnect(ctx context.Context) error
	SetDisconnectAllowed(allowed bool)
	DisconnectAllowed() bool

	NativeBalance(ctx context.Context, address string) (*big.Int, error)
	AssetBalance(ctx context.Context, address string, asset Asset) (*big.Int, error)
	TransactionFee(ctx context.Context, tx Tx, address string) (*big.Int, error)
	Simulate(ctx context.Context, tx Tx, address string) (*SimulationResult, error)
}

// ClientFactory hands out unbound chain clients
type ClientFactory interface {
	NewClient() ChainClient
}

// AssetRegistry resolves chains, assets and existential deposits
type AssetRegistry interface {
	Chain(id string) (ChainInfo, error)
	FindAsset(chain string, currency Currency, destination string) (Asset, error)
	FindAssetOnDest(origin, destination string, currency Currency) (Asset, error)
	NativeAsset(chain string) (Asset, error)
	ExistentialDeposit(chain string, currency Currency) (*big.Int, error)
	AssetsEqual(a, b Asset) bool
	IsEVM(chain string) bool
	// SystemChain names the chain with the given role in a relay family
	SystemChain(family string, role ChainRole) (string, error)
}

// TxBuilder turns a transfer intent into an encoded call
type TxBuilder interface {
	Build(ctx context.Context, intent TransferIntent) (Tx, error)
}

// FeeCalculator produces the per-leg fee breakdown of a transfer. The client
// is bound to the origin chain and pinned by the caller.
type FeeCalculator interface {
	Breakdown(ctx context.Context, client ChainClient, req FeeRequest, tx TxFactory) (*FeeBreakdown, error)
}

// TokenBalanceReader reads balances on Ethereum style chains
type TokenBalanceReader interface {
	TokenBalance(ctx context.Context, address string, asset Asset) (*big.Int, error)
	NativeBalance(ctx context.Context, address string) (*big.Int, error)
}
