package http

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mark3labs/x402-gate"
	"github.com/mark3labs/x402-gate/facilitator"
	"github.com/mark3labs/x402-gate/retry"
	"github.com/mark3labs/x402-gate/validation"
)

const (
	// DefaultTimeout bounds a facilitator verification when timeout_seconds is unset.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxTimeoutSeconds is advertised when max_timeout_seconds is unset.
	DefaultMaxTimeoutSeconds = 300

	minTimeoutSeconds = 1
	maxTimeoutSeconds = 300
)

// maxAmount is the largest configurable price in token units.
var maxAmount = decimal.NewFromInt(1_000_000_000)

// FallbackMode decides what a facilitator fault resolves to.
type FallbackMode int

const (
	// FallbackError turns facilitator faults into 500 responses.
	FallbackError FallbackMode = iota
	// FallbackPass lets the request through unpaid when the facilitator is faulty.
	FallbackPass
)

func (m FallbackMode) String() string {
	if m == FallbackPass {
		return "pass"
	}
	return "error"
}

// ParseFallbackMode accepts "error" (or "500") and "pass" (or "bypass", "through").
// The empty string selects FallbackError.
func ParseFallbackMode(s string) (FallbackMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error", "500":
		return FallbackError, nil
	case "pass", "bypass", "through":
		return FallbackPass, nil
	default:
		return FallbackError, fmt.Errorf("unknown fallback mode %q (want error or pass)", s)
	}
}

// RouteConfig is the raw per-route configuration as read from a config file.
type RouteConfig struct {
	Name           string `yaml:"name" json:"name"`
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	Amount         string `yaml:"amount" json:"amount"`
	PayTo          string `yaml:"pay_to" json:"pay_to"`
	FacilitatorURL string `yaml:"facilitator_url" json:"facilitator_url"`
	Description    string `yaml:"description" json:"description"`

	// NetworkID is an EIP-155 chain id. It wins over Network when both are set.
	Network   string `yaml:"network" json:"network"`
	NetworkID int64  `yaml:"network_id" json:"network_id"`

	// Asset overrides the network's USDC. AssetDecimals is then mandatory.
	Asset         string `yaml:"asset" json:"asset"`
	AssetDecimals *int   `yaml:"asset_decimals" json:"asset_decimals"`
	AssetName     string `yaml:"asset_name" json:"asset_name"`
	AssetVersion  string `yaml:"asset_version" json:"asset_version"`

	Resource          string `yaml:"resource" json:"resource"`
	MimeType          string `yaml:"mime_type" json:"mime_type"`
	MaxTimeoutSeconds int    `yaml:"max_timeout_seconds" json:"max_timeout_seconds"`

	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	FallbackMode   string `yaml:"fallback_mode" json:"fallback_mode"`
	MetricsEnabled bool   `yaml:"metrics_enabled" json:"metrics_enabled"`
}

// Route is an activated, immutable route. It is shared read-only by all
// concurrent evaluations.
type Route struct {
	name     string
	enabled  bool
	template x402.PaymentRequirement
	decimals int
	endpoint facilitator.Endpoint
	fallback FallbackMode
	metrics  bool
}

// NewRoute validates cfg and precomputes the payment requirement template.
// Every configuration problem is reported here as a *x402.ConfigError.
func NewRoute(cfg RouteConfig) (*Route, error) {
	r := &Route{
		name:    cfg.Name,
		enabled: cfg.Enabled,
		metrics: cfg.MetricsEnabled,
	}
	if r.name == "" {
		r.name = "default"
	}
	if !cfg.Enabled {
		return r, nil
	}

	timeout := DefaultTimeout
	if cfg.TimeoutSeconds != 0 {
		if cfg.TimeoutSeconds < minTimeoutSeconds || cfg.TimeoutSeconds > maxTimeoutSeconds {
			return nil, x402.NewConfigError("timeout_seconds",
				fmt.Sprintf("must be between %d and %d, got %d", minTimeoutSeconds, maxTimeoutSeconds, cfg.TimeoutSeconds), nil)
		}
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	fallback, err := ParseFallbackMode(cfg.FallbackMode)
	if err != nil {
		return nil, x402.NewConfigError("fallback_mode", "", err)
	}
	r.fallback = fallback

	if strings.TrimSpace(cfg.Amount) == "" {
		return nil, x402.NewConfigError("amount", "required", nil)
	}
	payTo := strings.TrimSpace(cfg.PayTo)
	if payTo == "" {
		return nil, x402.NewConfigError("pay_to", "required", nil)
	}
	if err := validation.ValidateFacilitatorURL(cfg.FacilitatorURL); err != nil {
		return nil, x402.NewConfigError("facilitator_url", "", err)
	}
	r.endpoint = facilitator.Endpoint{URL: strings.TrimRight(cfg.FacilitatorURL, "/"), Timeout: timeout}

	network, err := resolveNetwork(cfg)
	if err != nil {
		return nil, err
	}
	chain, _ := x402.ChainForNetwork(network)

	asset, decimals, extra, err := resolveAsset(cfg, chain)
	if err != nil {
		return nil, err
	}
	r.decimals = decimals

	atomic, err := x402.ToAtomic(cfg.Amount, decimals)
	if err != nil {
		return nil, x402.NewConfigError("amount", "", err)
	}
	if d, _ := decimal.NewFromString(strings.TrimSpace(cfg.Amount)); d.GreaterThan(maxAmount) {
		return nil, x402.NewConfigError("amount", "must not exceed 1000000000", nil)
	}

	if cfg.Resource != "" {
		if err := validation.ValidateResource(cfg.Resource); err != nil {
			return nil, x402.NewConfigError("resource", "", err)
		}
	}

	maxTimeout := cfg.MaxTimeoutSeconds
	if maxTimeout == 0 {
		maxTimeout = DefaultMaxTimeoutSeconds
	}

	r.template = x402.PaymentRequirement{
		Scheme:            x402.SchemeExact,
		Network:           network,
		MaxAmountRequired: atomic,
		Asset:             asset,
		PayTo:             payTo,
		Resource:          cfg.Resource,
		Description:       cfg.Description,
		MimeType:          cfg.MimeType,
		MaxTimeoutSeconds: maxTimeout,
		Extra:             extra,
	}
	if err := validation.ValidatePaymentRequirement(r.template); err != nil {
		return nil, x402.NewConfigError("requirements", "", err)
	}
	return r, nil
}

// resolveNetwork applies network_id > network > default precedence.
func resolveNetwork(cfg RouteConfig) (string, error) {
	if cfg.NetworkID != 0 {
		network, err := x402.NetworkForChainID(cfg.NetworkID)
		if err != nil {
			return "", x402.NewConfigError("network_id", "", err)
		}
		return network, nil
	}
	if cfg.Network == "" {
		return x402.DefaultNetwork, nil
	}
	if _, err := x402.ValidateNetwork(cfg.Network); err != nil {
		return "", x402.NewConfigError("network", "", err)
	}
	return cfg.Network, nil
}

// resolveAsset returns the token address, its precision and scheme extra data.
func resolveAsset(cfg RouteConfig, chain x402.ChainConfig) (string, int, map[string]interface{}, error) {
	if cfg.Asset == "" {
		if cfg.AssetDecimals != nil && *cfg.AssetDecimals != chain.Decimals {
			return "", 0, nil, x402.NewConfigError("asset_decimals",
				fmt.Sprintf("default asset on %s has %d decimals, got %d", chain.NetworkID, chain.Decimals, *cfg.AssetDecimals), nil)
		}
		var extra map[string]interface{}
		if chain.Type == x402.NetworkTypeEVM {
			extra = map[string]interface{}{
				"name":    chain.EIP3009Name,
				"version": chain.EIP3009Version,
			}
		}
		return chain.USDCAddress, chain.Decimals, extra, nil
	}

	if cfg.AssetDecimals == nil {
		return "", 0, nil, x402.NewConfigError("asset_decimals", "required when asset is set", nil)
	}
	decimals := *cfg.AssetDecimals
	if decimals < 0 || decimals > x402.MaxDecimals {
		return "", 0, nil, x402.NewConfigError("asset_decimals",
			fmt.Sprintf("must be between 0 and %d, got %d", x402.MaxDecimals, decimals), nil)
	}
	if err := validation.ValidateAddress(cfg.Asset, chain.NetworkID); err != nil {
		return "", 0, nil, x402.NewConfigError("asset", "", err)
	}

	var extra map[string]interface{}
	if chain.Type == x402.NetworkTypeEVM && (cfg.AssetName != "" || cfg.AssetVersion != "") {
		extra = map[string]interface{}{
			"name":    cfg.AssetName,
			"version": cfg.AssetVersion,
		}
	}
	return cfg.Asset, decimals, extra, nil
}

// Name returns the route name used in logs and metrics.
func (r *Route) Name() string { return r.name }

// Enabled reports whether the route enforces payment.
func (r *Route) Enabled() bool { return r.enabled }

// Endpoint returns the facilitator the route verifies against.
func (r *Route) Endpoint() facilitator.Endpoint { return r.endpoint }

// Fallback returns the facilitator fault policy.
func (r *Route) Fallback() FallbackMode { return r.fallback }

// MetricsEnabled reports whether evaluations emit metrics events.
func (r *Route) MetricsEnabled() bool { return r.metrics }

// Decimals returns the precision of the route's asset.
func (r *Route) Decimals() int { return r.decimals }

// Template returns a copy of the precomputed requirement.
func (r *Route) Template() x402.PaymentRequirement { return r.template.Clone() }

// Requirements builds the requirement for a live request. The resource is
// derived from the request unless configured; a configured resource was
// validated by NewRoute. A request with no usable host yields an error
// matching x402.ErrUnresolvableResource.
func (r *Route) Requirements(req Request) (x402.PaymentRequirement, error) {
	if !r.enabled {
		return x402.PaymentRequirement{}, x402.NewConfigError("enabled", "route is disabled", nil)
	}

	out := r.template.Clone()
	if out.Resource == "" {
		resource, err := ResourceURL(req)
		if err != nil {
			return x402.PaymentRequirement{}, err
		}
		out.Resource = resource
	}

	if out.MimeType == "" {
		out.MimeType = InferMimeType(req.Header)
	}
	if out.Description == "" {
		path := req.Path
		if path == "" {
			path = "/"
		}
		out.Description = "Payment required for " + path
	}
	return out, nil
}

// SupportedFetcher queries a facilitator's /supported endpoint.
type SupportedFetcher interface {
	Supported(ctx context.Context, baseURL string) (*facilitator.SupportedResponse, error)
}

// Enrich returns a copy of the route whose template carries the extra data the
// facilitator advertises for its network, such as the Solana feePayer.
// Configured values take precedence. Only SVM routes need this; other routes
// are returned unchanged.
func (r *Route) Enrich(ctx context.Context, fetcher SupportedFetcher, cfg retry.Config, logger *slog.Logger) (*Route, error) {
	if !r.enabled {
		return r, nil
	}
	if chain, _ := x402.ChainForNetwork(r.template.Network); chain.Type != x402.NetworkTypeSVM {
		return r, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.OnRetry == nil {
		cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
			logger.Warn("facilitator /supported probe failed, retrying",
				"route", r.name, "attempt", attempt, "delay", delay, "error", err)
		}
	}

	supported, err := retry.WithRetry(ctx, cfg, retry.Always,
		func(ctx context.Context) (*facilitator.SupportedResponse, error) {
			return fetcher.Supported(ctx, r.endpoint.URL)
		})
	if err != nil {
		return r, fmt.Errorf("failed to fetch supported payment types: %w", err)
	}

	kind, ok := supported.Find(r.template.Scheme, r.template.Network)
	if !ok || len(kind.Extra) == 0 {
		return r, nil
	}

	enriched := *r
	enriched.template = r.template.Clone()
	if enriched.template.Extra == nil {
		enriched.template.Extra = make(map[string]interface{}, len(kind.Extra))
	}
	for k, v := range kind.Extra {
		if _, exists := enriched.template.Extra[k]; !exists {
			enriched.template.Extra[k] = v
		}
	}
	return &enriched, nil
}
