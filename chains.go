// Package x402 provides the protocol types, chain constants and amount arithmetic
// shared by every part of the x402 request gate. The gate itself lives in the
// http package; this package has no network dependencies.
package x402

import (
	"fmt"
	"strings"
)

// NetworkType represents the blockchain virtual machine type.
type NetworkType int

const (
	// NetworkTypeUnknown represents an unrecognized network.
	NetworkTypeUnknown NetworkType = iota
	// NetworkTypeEVM represents Ethereum Virtual Machine chains.
	NetworkTypeEVM
	// NetworkTypeSVM represents Solana Virtual Machine chains.
	NetworkTypeSVM
)

// DefaultNetwork is used when a route configures neither a network name nor a chain ID.
const DefaultNetwork = "base"

// ChainConfig contains chain-specific configuration for the default stablecoin (USDC).
// All USDC addresses and EIP-3009 parameters were verified on 2025-10-28.
type ChainConfig struct {
	// NetworkID is the x402 protocol network identifier (e.g., "base", "solana").
	NetworkID string

	// ChainID is the EIP-155 chain identifier. Zero for non-EVM chains.
	ChainID int64

	// Type is the virtual machine family of the chain.
	Type NetworkType

	// USDCAddress is the official Circle USDC contract address or mint address.
	USDCAddress string

	// Decimals is the number of decimal places for USDC (always 6).
	Decimals int

	// EIP3009Name is the EIP-3009 domain parameter "name" (empty for non-EVM chains).
	EIP3009Name string

	// EIP3009Version is the EIP-3009 domain parameter "version" (empty for non-EVM chains).
	EIP3009Version string
}

// Mainnet chain configurations
var (
	SolanaMainnet = ChainConfig{
		NetworkID:   "solana",
		Type:        NetworkTypeSVM,
		USDCAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Decimals:    6,
	}

	BaseMainnet = ChainConfig{
		NetworkID:      "base",
		ChainID:        8453,
		Type:           NetworkTypeEVM,
		USDCAddress:    "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}

	PolygonMainnet = ChainConfig{
		NetworkID:      "polygon",
		ChainID:        137,
		Type:           NetworkTypeEVM,
		USDCAddress:    "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}

	AvalancheMainnet = ChainConfig{
		NetworkID:      "avalanche",
		ChainID:        43114,
		Type:           NetworkTypeEVM,
		USDCAddress:    "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}
)

// Testnet chain configurations
var (
	SolanaDevnet = ChainConfig{
		NetworkID:   "solana-devnet",
		Type:        NetworkTypeSVM,
		USDCAddress: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
		Decimals:    6,
	}

	// BaseSepolia USDC address and EIP-3009 parameters verified 2025-10-30 via on-chain contract read.
	BaseSepolia = ChainConfig{
		NetworkID:      "base-sepolia",
		ChainID:        84532,
		Type:           NetworkTypeEVM,
		USDCAddress:    "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		Decimals:       6,
		EIP3009Name:    "USDC",
		EIP3009Version: "2",
	}

	PolygonAmoy = ChainConfig{
		NetworkID:      "polygon-amoy",
		ChainID:        80002,
		Type:           NetworkTypeEVM,
		USDCAddress:    "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
		Decimals:       6,
		EIP3009Name:    "USDC",
		EIP3009Version: "2",
	}

	AvalancheFuji = ChainConfig{
		NetworkID:      "avalanche-fuji",
		ChainID:        43113,
		Type:           NetworkTypeEVM,
		USDCAddress:    "0x5425890298aed601595a70AB815c96711a31Bc65",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	}
)

// Chains lists every supported chain.
var Chains = []ChainConfig{
	BaseMainnet,
	BaseSepolia,
	PolygonMainnet,
	PolygonAmoy,
	AvalancheMainnet,
	AvalancheFuji,
	SolanaMainnet,
	SolanaDevnet,
}

// ChainForNetwork looks up a chain by its canonical network name.
func ChainForNetwork(network string) (ChainConfig, bool) {
	for _, c := range Chains {
		if c.NetworkID == network {
			return c, true
		}
	}
	return ChainConfig{}, false
}

// NetworkForChainID translates an EIP-155 chain ID into its canonical network name.
func NetworkForChainID(chainID int64) (string, error) {
	if chainID <= 0 {
		return "", fmt.Errorf("%w: chain id %d", ErrUnsupportedNetwork, chainID)
	}
	for _, c := range Chains {
		if c.ChainID == chainID {
			return c.NetworkID, nil
		}
	}
	return "", fmt.Errorf("%w: chain id %d", ErrUnsupportedNetwork, chainID)
}

// SupportedNetworks returns the canonical names of all supported networks.
func SupportedNetworks() []string {
	names := make([]string, len(Chains))
	for i, c := range Chains {
		names[i] = c.NetworkID
	}
	return names
}

// ValidateNetwork validates a network identifier and returns its type.
// Returns NetworkTypeEVM for EVM chains, NetworkTypeSVM for Solana chains,
// or NetworkTypeUnknown with an error for unrecognized networks.
func ValidateNetwork(networkID string) (NetworkType, error) {
	if networkID == "" {
		return NetworkTypeUnknown, fmt.Errorf("%w: network cannot be empty", ErrUnsupportedNetwork)
	}

	chain, ok := ChainForNetwork(networkID)
	if !ok {
		return NetworkTypeUnknown, fmt.Errorf("%w: %s (supported: %s)",
			ErrUnsupportedNetwork, networkID, strings.Join(SupportedNetworks(), ", "))
	}
	return chain.Type, nil
}
