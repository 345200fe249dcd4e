package x402

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorDefinitions(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"MalformedAmount", ErrMalformedAmount, "x402: malformed amount"},
		{"UnsupportedNetwork", ErrUnsupportedNetwork, "x402: unsupported network"},
		{"InvalidConfig", ErrInvalidConfig, "x402: invalid configuration"},
		{"UnresolvableResource", ErrUnresolvableResource, "x402: cannot derive resource from request"},
		{"FacilitatorUnavailable", ErrFacilitatorUnavailable, "x402: facilitator service unavailable"},
		{"FacilitatorTimeout", ErrFacilitatorTimeout, "x402: facilitator timeout"},
		{"InvalidFacilitatorResponse", ErrInvalidFacilitatorResponse, "x402: invalid facilitator response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("Error message mismatch: got %q, want %q", tt.err.Error(), tt.want)
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	t.Run("matches ErrInvalidConfig", func(t *testing.T) {
		err := NewConfigError("asset_decimals", "required when asset is set", nil)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Error("Expected ConfigError to match ErrInvalidConfig")
		}
		want := "x402: invalid configuration: asset_decimals: required when asset is set"
		if err.Error() != want {
			t.Errorf("Expected %q, got %q", want, err.Error())
		}
	})

	t.Run("unwraps cause", func(t *testing.T) {
		cause := fmt.Errorf("%w: \"abc\"", ErrMalformedAmount)
		err := NewConfigError("amount", "", cause)
		if !errors.Is(err, ErrMalformedAmount) {
			t.Error("Expected ConfigError to unwrap to its cause")
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Error("Expected ConfigError to still match ErrInvalidConfig")
		}
	})

	t.Run("errors.As through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("activating route: %w", NewConfigError("pay_to", "required", nil))
		var cfgErr *ConfigError
		if !errors.As(wrapped, &cfgErr) {
			t.Fatal("Expected errors.As to find ConfigError")
		}
		if cfgErr.Field != "pay_to" {
			t.Errorf("Expected field pay_to, got %s", cfgErr.Field)
		}
	})
}
