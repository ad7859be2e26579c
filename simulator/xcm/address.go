package xcm

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/blake2b"
)

var ss58Preamble = []byte("SS58PRE")

// ValidateAddress checks the address format a chain expects: 20 byte hex for
// EVM chains and Ethereum, SS58 for everything else
func ValidateAddress(address string, chain ChainInfo) error {
	if chain.EVM || chain.Role == RoleEthereum {
		if !common.IsHexAddress(address) {
			return &InvalidAddressError{Chain: chain.ID, Address: address, Reason: "expected a 20 byte hex address"}
		}
		return nil
	}

	prefix, _, err := DecodeSS58(address)
	if err != nil {
		return &InvalidAddressError{Chain: chain.ID, Address: address, Reason: err.Error()}
	}
	// generic substrate prefix 42 is accepted everywhere
	if chain.SS58Prefix != nil && prefix != *chain.SS58Prefix && prefix != 42 {
		return &InvalidAddressError{
			Chain:   chain.ID,
			Address: address,
			Reason:  fmt.Sprintf("ss58 prefix %d does not match chain prefix %d", prefix, *chain.SS58Prefix),
		}
	}
	return nil
}

// DecodeSS58 returns the network prefix and the 32 byte account id of an SS58 address
func DecodeSS58(address string) (uint16, []byte, error) {
	raw := base58.Decode(address)
	if len(raw) == 0 {
		return 0, nil, errors.New("not a base58 string")
	}

	var prefix uint16
	var prefixLen int
	switch {
	case raw[0] < 64:
		prefix, prefixLen = uint16(raw[0]), 1
	case raw[0] < 128:
		if len(raw) < 2 {
			return 0, nil, errors.New("address too short")
		}
		lower := (raw[0]<<2)&0xfc | raw[1]>>6
		upper := raw[1] & 0x3f
		prefix, prefixLen = uint16(lower)|uint16(upper)<<8, 2
	default:
		return 0, nil, fmt.Errorf("reserved ss58 prefix byte %d", raw[0])
	}

	if len(raw) != prefixLen+32+2 {
		return 0, nil, fmt.Errorf("unexpected ss58 payload length %d", len(raw))
	}
	body := raw[:prefixLen+32]
	checksum := ss58Checksum(body)
	if !bytes.Equal(checksum[:2], raw[prefixLen+32:]) {
		return 0, nil, errors.New("invalid ss58 checksum")
	}
	return prefix, raw[prefixLen : prefixLen+32], nil
}

// EncodeSS58 renders a 32 byte account id with the given network prefix
func EncodeSS58(accountID []byte, prefix uint16) (string, error) {
	if len(accountID) != 32 {
		return "", fmt.Errorf("account id must be 32 bytes, got %d", len(accountID))
	}
	var body []byte
	switch {
	case prefix < 64:
		body = []byte{byte(prefix)}
	case prefix < 16384:
		first := byte((prefix&0xfc)>>2) | 0x40
		second := byte(prefix>>8) | byte(prefix&0x03)<<6
		body = []byte{first, second}
	default:
		return "", fmt.Errorf("ss58 prefix %d out of range", prefix)
	}
	body = append(body, accountID...)
	checksum := ss58Checksum(body)
	return base58.Encode(append(body, checksum[:2]...)), nil
}

func ss58Checksum(body []byte) [64]byte {
	data := make([]byte, 0, len(ss58Preamble)+len(body))
	data = append(data, ss58Preamble...)
	data = append(data, body...)
	return blake2b.Sum512(data)
}
