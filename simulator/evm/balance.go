// Package evm reads Ethereum balances for transfers that land on Ethereum
package evm

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm/simulator/xcm"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "evm").Logger()
}

const erc20BalanceABI = `[{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

// Caller is the subset of ethclient.Client used here
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// BalanceReader answers ERC20 and ether balances through a JSON-RPC node
type BalanceReader struct {
	caller Caller
	parsed abi.ABI
}

// Dial connects to an Ethereum JSON-RPC endpoint
func Dial(ctx context.Context, rpcURL string) (*BalanceReader, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial ethereum rpc: %w", err)
	}
	reader, err := NewBalanceReader(client)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return reader, client, nil
}

// NewBalanceReader wraps any contract caller
func NewBalanceReader(caller Caller) (*BalanceReader, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20BalanceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}
	return &BalanceReader{caller: caller, parsed: parsed}, nil
}

// NativeBalance returns the ether balance of an account
func (r *BalanceReader) NativeBalance(ctx context.Context, address string) (*big.Int, error) {
	account, err := hexAddress(address)
	if err != nil {
		return nil, err
	}
	return r.caller.BalanceAt(ctx, account, nil)
}

// TokenBalance returns the ERC20 balance of an account for the token the asset points to
func (r *BalanceReader) TokenBalance(ctx context.Context, address string, asset xcm.Asset) (*big.Int, error) {
	if asset.IsNative {
		return r.NativeBalance(ctx, address)
	}
	token, err := TokenContract(asset)
	if err != nil {
		return nil, err
	}
	account, err := hexAddress(address)
	if err != nil {
		return nil, err
	}

	data, err := r.PackBalanceOf(account)
	if err != nil {
		return nil, err
	}
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		log.Debug().Err(err).Str("token", token.Hex()).Msg("balanceOf call failed")
		return nil, fmt.Errorf("balanceOf %s on %s: %w", account.Hex(), token.Hex(), err)
	}
	return r.UnpackBalance(out)
}

// PackBalanceOf encodes a balanceOf(account) call
func (r *BalanceReader) PackBalanceOf(account common.Address) ([]byte, error) {
	return r.parsed.Pack("balanceOf", account)
}

// UnpackBalance decodes the uint256 answer of balanceOf
func (r *BalanceReader) UnpackBalance(out []byte) (*big.Int, error) {
	values, err := r.parsed.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode balanceOf: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("balanceOf returned %d values", len(values))
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf returned %T", values[0])
	}
	return balance, nil
}

// TokenContract finds the ERC20 contract in the AccountKey20 junction of the asset location
func TokenContract(asset xcm.Asset) (common.Address, error) {
	if asset.Location != nil {
		for _, j := range asset.Location.Interior {
			if j.AccountKey20 != nil && common.IsHexAddress(*j.AccountKey20) {
				return common.HexToAddress(*j.AccountKey20), nil
			}
		}
	}
	if common.IsHexAddress(asset.AssetID) {
		return common.HexToAddress(asset.AssetID), nil
	}
	return common.Address{}, fmt.Errorf("asset %s has no erc20 contract address", asset.Symbol)
}

func hexAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, &xcm.InvalidAddressError{Chain: "Ethereum", Address: address, Reason: "not a hex address"}
	}
	return common.HexToAddress(address), nil
}
