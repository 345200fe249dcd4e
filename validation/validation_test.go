package validation

import (
	"strings"
	"testing"

	"github.com/mark3labs/x402-gate"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"valid positive amount", "10000", false},
		{"valid large amount", "999999999999999999999", false},
		{"zero amount", "0", false},
		{"empty amount", "", true},
		{"negative amount", "-100", true},
		{"explicit plus", "+100", true},
		{"invalid format - letters", "abc", true},
		{"invalid format - mixed", "123abc", true},
		{"invalid format - decimal", "100.50", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAmount() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		network string
		wantErr bool
	}{
		{"valid EVM address", "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", "base", false},
		{"valid EVM address uppercase", "0x833589FCD6EDB6E08F4C7C32D4F71B54BDA02913", "base-sepolia", false},
		{"valid Solana address", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "solana", false},
		{"valid Solana address devnet", "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU", "solana-devnet", false},
		{"empty address", "", "base", true},
		{"invalid EVM address - missing 0x", "833589fcd6edb6e08f4c7c32d4f71b54bda02913", "base", true},
		{"invalid EVM address - wrong length", "0x833589fcd6edb6e08f4c7c32d4f71b54bda029", "base", true},
		{"invalid EVM address - non-hex chars", "0x833589fcd6edb6e08f4c7c32d4f71b54bda0291g", "base", true},
		{"invalid Solana address - too short", "ABC123", "solana", true},
		{"invalid Solana address - invalid chars", "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", "solana", true},
		{"invalid network", "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", "unknown-network", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address, tt.network)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddress() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFacilitatorURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://facilitator.x402.rs", false},
		{"http://localhost:8080", false},
		{"https://api.cdp.coinbase.com/platform/v2/x402", false},
		{"", true},
		{"facilitator.x402.rs", true},
		{"ftp://facilitator.x402.rs", true},
		{"https://", true},
		{"https://facilitator .x402.rs", true},
		{"https://facilitator.x402.rs\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateFacilitatorURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFacilitatorURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateResource(t *testing.T) {
	tests := []struct {
		name     string
		resource string
		wantErr  bool
	}{
		{"absolute url", "https://api.example.com/data", false},
		{"path only", "/api/weather", false},
		{"empty", "", true},
		{"parent traversal", "https://api.example.com/../secret", true},
		{"nul byte", "https://api.example.com/a\x00b", true},
		{"newline", "https://api.example.com/a\nb", true},
		{"tab", "https://api.example.com/a\tb", true},
		{"too long", "https://api.example.com/" + strings.Repeat("a", MaxResourceLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResource(tt.resource)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateResource() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePaymentRequirement(t *testing.T) {
	valid := func() x402.PaymentRequirement {
		return x402.PaymentRequirement{
			Scheme:            "exact",
			Network:           "base",
			MaxAmountRequired: "10000",
			Asset:             "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			PayTo:             "0x209693Bc6afc0C5328bA36FaF03C514EF312287C",
			MaxTimeoutSeconds: 60,
			Extra:             map[string]interface{}{"name": "USD Coin", "version": "2"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*x402.PaymentRequirement)
		wantErr bool
		errMsg  string
	}{
		{"valid requirement", func(r *x402.PaymentRequirement) {}, false, ""},
		{"valid solana requirement", func(r *x402.PaymentRequirement) {
			r.Network = "solana"
			r.Asset = x402.SolanaMainnet.USDCAddress
			r.PayTo = "DRpbCBMxVnDK7maPM5tGv6MvB3v1sRMC86PZ8okm21hy"
			r.Extra = nil
		}, false, ""},
		{"unvalidated payTo format", func(r *x402.PaymentRequirement) { r.PayTo = "merchant" }, false, ""},
		{"zero amount", func(r *x402.PaymentRequirement) { r.MaxAmountRequired = "0" }, false, ""},
		{"decimal amount", func(r *x402.PaymentRequirement) { r.MaxAmountRequired = "0.01" }, true, "amount"},
		{"empty network", func(r *x402.PaymentRequirement) { r.Network = "" }, true, "network"},
		{"unknown network", func(r *x402.PaymentRequirement) { r.Network = "ethereum" }, true, "unsupported network"},
		{"empty payTo", func(r *x402.PaymentRequirement) { r.PayTo = "" }, true, "payTo"},
		{"empty asset", func(r *x402.PaymentRequirement) { r.Asset = "" }, true, "asset"},
		{"solana asset on evm network", func(r *x402.PaymentRequirement) { r.Asset = x402.SolanaMainnet.USDCAddress }, true, "asset"},
		{"empty scheme", func(r *x402.PaymentRequirement) { r.Scheme = "" }, true, "scheme"},
		{"unsupported scheme", func(r *x402.PaymentRequirement) { r.Scheme = "subscription" }, true, "scheme"},
		{"negative timeout", func(r *x402.PaymentRequirement) { r.MaxTimeoutSeconds = -1 }, true, "timeout"},
		{"empty EIP-3009 name", func(r *x402.PaymentRequirement) { r.Extra["name"] = "" }, true, "EIP-3009 name"},
		{"empty EIP-3009 version", func(r *x402.PaymentRequirement) { r.Extra["version"] = "" }, true, "EIP-3009 version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)

			err := ValidatePaymentRequirement(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidatePaymentRequirement() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Expected error containing %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}
