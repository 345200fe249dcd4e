// Package validation checks route configuration values and payment requirements
// before they are used to gate traffic.
package validation

import (
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	solana "github.com/gagliardetto/solana-go"

	"github.com/mark3labs/x402-gate"
)

// MaxResourceLength bounds configured and derived resource URLs.
const MaxResourceLength = 2048

// ValidateAmount validates that an atomic amount string is a non-negative integer.
func ValidateAmount(amount string) error {
	if amount == "" {
		return fmt.Errorf("amount cannot be empty")
	}

	// Parse as big.Int to handle large values
	amt, ok := new(big.Int).SetString(amount, 10)
	if !ok || strings.ContainsAny(amount, "+-") {
		return fmt.Errorf("invalid amount format: %s", amount)
	}

	if amt.Sign() < 0 {
		return fmt.Errorf("amount cannot be negative, got: %s", amount)
	}

	return nil
}

// ValidateAddress validates an address based on the network type.
// EVM addresses must be 0x-prefixed hex; Solana addresses must decode to a 32-byte public key.
func ValidateAddress(address string, network string) error {
	if address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	networkType, err := x402.ValidateNetwork(network)
	if err != nil {
		return fmt.Errorf("cannot validate address: %w", err)
	}

	switch networkType {
	case x402.NetworkTypeEVM:
		if !strings.HasPrefix(address, "0x") || !common.IsHexAddress(address) {
			return fmt.Errorf("invalid EVM address format: %s (expected 0x followed by 40 hex characters)", address)
		}
		return nil

	case x402.NetworkTypeSVM:
		if _, err := solana.PublicKeyFromBase58(address); err != nil {
			return fmt.Errorf("invalid Solana address format: %s: %w", address, err)
		}
		return nil

	default:
		return fmt.Errorf("unsupported network type for address validation: %d", networkType)
	}
}

// ValidateFacilitatorURL checks that u is an absolute http(s) URL with a host.
func ValidateFacilitatorURL(u string) error {
	if u == "" {
		return fmt.Errorf("facilitator URL cannot be empty")
	}
	if strings.ContainsFunc(u, unicode.IsSpace) {
		return fmt.Errorf("facilitator URL cannot contain whitespace")
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return fmt.Errorf("invalid facilitator URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("facilitator URL must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("facilitator URL must include a host")
	}
	return nil
}

// ValidateResource checks a configured or request-derived resource URL.
func ValidateResource(resource string) error {
	if resource == "" {
		return fmt.Errorf("resource cannot be empty")
	}
	if len(resource) > MaxResourceLength {
		return fmt.Errorf("resource exceeds %d bytes", MaxResourceLength)
	}
	if strings.Contains(resource, "..") {
		return fmt.Errorf("resource cannot contain '..'")
	}
	for _, r := range resource {
		if r == 0 {
			return fmt.Errorf("resource cannot contain NUL bytes")
		}
		if unicode.IsControl(r) {
			return fmt.Errorf("resource cannot contain control characters")
		}
	}
	return nil
}

// ValidatePaymentRequirement performs comprehensive validation of a payment requirement.
// The recipient is only checked for presence; its format is the facilitator's concern.
func ValidatePaymentRequirement(req x402.PaymentRequirement) error {
	if err := ValidateAmount(req.MaxAmountRequired); err != nil {
		return fmt.Errorf("invalid requirement: %w", err)
	}

	if req.Network == "" {
		return fmt.Errorf("invalid requirement: network cannot be empty")
	}

	networkType, err := x402.ValidateNetwork(req.Network)
	if err != nil {
		return fmt.Errorf("invalid requirement: %w", err)
	}

	if req.PayTo == "" {
		return fmt.Errorf("invalid requirement: payTo cannot be empty")
	}

	if req.Asset == "" {
		return fmt.Errorf("invalid requirement: asset address cannot be empty")
	}

	if err := ValidateAddress(req.Asset, req.Network); err != nil {
		return fmt.Errorf("invalid requirement: asset %w", err)
	}

	switch req.Scheme {
	case x402.SchemeExact:
	case "":
		return fmt.Errorf("invalid requirement: scheme cannot be empty")
	default:
		return fmt.Errorf("invalid requirement: unsupported scheme %s", req.Scheme)
	}

	if req.MaxTimeoutSeconds < 0 {
		return fmt.Errorf("invalid requirement: timeout cannot be negative: %d", req.MaxTimeoutSeconds)
	}

	// EIP-3009 domain parameters, when present, must be usable
	if networkType == x402.NetworkTypeEVM && req.Extra != nil {
		if name, ok := req.Extra["name"].(string); ok && name == "" {
			return fmt.Errorf("invalid requirement: EIP-3009 name cannot be empty")
		}
		if version, ok := req.Extra["version"].(string); ok && version == "" {
			return fmt.Errorf("invalid requirement: EIP-3009 version cannot be empty")
		}
	}

	return nil
}
