package x402

import (
	"errors"
	"strings"
	"testing"
)

// TestChainConfigConstants verifies that every ChainConfig carries usable values
func TestChainConfigConstants(t *testing.T) {
	tests := []struct {
		name   string
		config ChainConfig
		vm     NetworkType
	}{
		{"SolanaMainnet", SolanaMainnet, NetworkTypeSVM},
		{"SolanaDevnet", SolanaDevnet, NetworkTypeSVM},
		{"BaseMainnet", BaseMainnet, NetworkTypeEVM},
		{"BaseSepolia", BaseSepolia, NetworkTypeEVM},
		{"PolygonMainnet", PolygonMainnet, NetworkTypeEVM},
		{"PolygonAmoy", PolygonAmoy, NetworkTypeEVM},
		{"AvalancheMainnet", AvalancheMainnet, NetworkTypeEVM},
		{"AvalancheFuji", AvalancheFuji, NetworkTypeEVM},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.config.NetworkID == "" {
				t.Errorf("%s: NetworkID is empty", tt.name)
			}
			if tt.config.USDCAddress == "" {
				t.Errorf("%s: USDCAddress is empty", tt.name)
			}
			if tt.config.Decimals != 6 {
				t.Errorf("%s: Decimals = %d, want 6", tt.name, tt.config.Decimals)
			}
			if tt.config.Type != tt.vm {
				t.Errorf("%s: Type = %d, want %d", tt.name, tt.config.Type, tt.vm)
			}

			if tt.vm == NetworkTypeEVM {
				if tt.config.ChainID <= 0 {
					t.Errorf("%s: ChainID = %d, want positive", tt.name, tt.config.ChainID)
				}
				if !strings.HasPrefix(tt.config.USDCAddress, "0x") {
					t.Errorf("%s: USDCAddress should start with 0x", tt.name)
				}
				if tt.config.EIP3009Name == "" || tt.config.EIP3009Version == "" {
					t.Errorf("%s: EIP-3009 domain parameters missing", tt.name)
				}
			} else if tt.config.ChainID != 0 {
				t.Errorf("%s: ChainID = %d, want 0 for SVM", tt.name, tt.config.ChainID)
			}
		})
	}
}

func TestNetworkForChainID(t *testing.T) {
	tests := []struct {
		chainID int64
		want    string
		wantErr bool
	}{
		{8453, "base", false},
		{84532, "base-sepolia", false},
		{137, "polygon", false},
		{80002, "polygon-amoy", false},
		{43114, "avalanche", false},
		{43113, "avalanche-fuji", false},
		{1, "", true},
		{0, "", true},
		{-8453, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := NetworkForChainID(tt.chainID)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedNetwork) {
					t.Errorf("NetworkForChainID(%d) error = %v, want ErrUnsupportedNetwork", tt.chainID, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NetworkForChainID(%d) unexpected error: %v", tt.chainID, err)
			}
			if got != tt.want {
				t.Errorf("NetworkForChainID(%d) = %q, want %q", tt.chainID, got, tt.want)
			}
		})
	}
}

func TestChainForNetwork(t *testing.T) {
	chain, ok := ChainForNetwork("polygon-amoy")
	if !ok {
		t.Fatal("Expected polygon-amoy to be known")
	}
	if chain.USDCAddress != PolygonAmoy.USDCAddress {
		t.Errorf("Expected USDC %s, got %s", PolygonAmoy.USDCAddress, chain.USDCAddress)
	}

	if _, ok := ChainForNetwork("ethereum"); ok {
		t.Error("Expected ethereum to be unknown")
	}

	if _, ok := ChainForNetwork(DefaultNetwork); !ok {
		t.Errorf("Expected default network %q to be known", DefaultNetwork)
	}
}

func TestValidateNetwork(t *testing.T) {
	tests := []struct {
		network string
		want    NetworkType
		wantErr bool
	}{
		{"base", NetworkTypeEVM, false},
		{"avalanche-fuji", NetworkTypeEVM, false},
		{"solana", NetworkTypeSVM, false},
		{"solana-devnet", NetworkTypeSVM, false},
		{"", NetworkTypeUnknown, true},
		{"BASE", NetworkTypeUnknown, true},
		{"ethereum", NetworkTypeUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.network, func(t *testing.T) {
			got, err := ValidateNetwork(tt.network)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateNetwork(%q) error = %v, wantErr %v", tt.network, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateNetwork(%q) = %d, want %d", tt.network, got, tt.want)
			}
			if err != nil && !errors.Is(err, ErrUnsupportedNetwork) {
				t.Errorf("Expected ErrUnsupportedNetwork, got %v", err)
			}
		})
	}
}
