// Package http gates HTTP requests behind x402 payments. It classifies each
// request, verifies the X-PAYMENT proof against a facilitator and renders
// 402 responses for unpaid requests.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/x402-gate"
	"github.com/mark3labs/x402-gate/facilitator"
	"github.com/mark3labs/x402-gate/metrics"
	"github.com/mark3labs/x402-gate/retry"
)

// Config holds the configuration for one gated route.
type Config struct {
	// Route is the raw route configuration. It is validated by NewGate.
	Route RouteConfig

	// Facilitator is the shared facilitator client. If nil, a private client is created.
	Facilitator *FacilitatorClient

	// Verifier overrides Facilitator for verification, mainly in tests.
	Verifier facilitator.Interface

	// Metrics receives evaluation events when Route.MetricsEnabled is set.
	Metrics metrics.Sink

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// PaymentContextKey is the context key for storing verified payment information.
const PaymentContextKey = contextKey("x402_payment")

// PaymentInfo describes the payment that admitted a request.
type PaymentInfo struct {
	Payer       string
	Requirement x402.PaymentRequirement
	// FallbackApplied is set when the request was admitted unpaid because the facilitator was faulty.
	FallbackApplied bool
	RequestID       string
}

// GetPaymentInfo returns the payment stored by the gate, if any.
func GetPaymentInfo(ctx context.Context) (*PaymentInfo, bool) {
	info, ok := ctx.Value(PaymentContextKey).(*PaymentInfo)
	return info, ok
}

// Gate is an activated route together with the engine that enforces it.
type Gate struct {
	route  *Route
	engine *Engine
	logger *slog.Logger
}

// NewGate validates the route configuration and prepares the gate. SVM
// routes are enriched with facilitator data (such as feePayer) here; that
// probe is best effort.
func NewGate(config *Config) (*Gate, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	route, err := NewRoute(config.Route)
	if err != nil {
		return nil, err
	}

	client := config.Facilitator
	if client == nil {
		client = NewFacilitatorClient(WithLogger(logger))
	}

	verifier := config.Verifier
	if verifier == nil {
		verifier = client
	}

	if route.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*route.Endpoint().Timeout)
		enriched, err := route.Enrich(ctx, client, retry.DefaultConfig, logger)
		cancel()
		if err != nil {
			logger.Warn("failed to enrich payment requirements from facilitator", "route", route.Name(), "error", err)
		} else if enriched != route {
			logger.Info("payment requirements enriched from facilitator", "route", route.Name())
		}
		route = enriched
	}

	return &Gate{
		route: route,
		engine: &Engine{
			Verifier: verifier,
			Metrics:  config.Metrics,
			Logger:   logger,
		},
		logger: logger,
	}, nil
}

// Route returns the activated route.
func (g *Gate) Route() *Route { return g.route }

// Evaluate runs the engine for r without writing anything.
func (g *Gate) Evaluate(r *http.Request) Decision {
	return g.engine.Evaluate(r.Context(), g.route, RequestFrom(r))
}

// Check evaluates r. On Allow it returns the request to continue with, carrying
// PaymentInfo when a payment was verified or the fallback applied. Otherwise
// it writes the 402 or 500 response and returns false.
func (g *Gate) Check(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	d := g.Evaluate(r)
	if d.Kind != DecisionAllow {
		Compose(d).Write(w)
		return r, false
	}

	if d.Verified || d.FallbackApplied {
		info := &PaymentInfo{
			Payer:           d.Payer,
			Requirement:     d.Requirement,
			FallbackApplied: d.FallbackApplied,
			RequestID:       d.RequestID,
		}
		r = r.WithContext(context.WithValue(r.Context(), PaymentContextKey, info))
	}
	return r, true
}

// Handler wraps next with the gate.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r, ok := g.Check(w, r); ok {
			next.ServeHTTP(w, r)
		}
	})
}

// NewX402Middleware creates a new x402 payment middleware.
// A route that fails activation is logged once and then answers every request
// with 500: a broken configuration is never presented to clients as a payment problem.
func NewX402Middleware(config *Config) func(http.Handler) http.Handler {
	gate, err := NewGate(config)
	if err != nil {
		logger := config.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("x402 route activation failed", "route", config.Route.Name, "error", err)
		return misconfigured(logger, config.Route.Name)
	}
	return gate.Handler
}

func misconfigured(logger *slog.Logger, route string) func(http.Handler) http.Handler {
	return func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Error("rejecting request for misconfigured x402 route", "route", route, "path", r.URL.Path)
			MisconfiguredResponse(r).Write(w)
		})
	}
}

// MisconfiguredResponse is served for every request to a route that failed activation.
func MisconfiguredResponse(r *http.Request) Response {
	return Compose(Decision{
		Kind:      DecisionInternalError,
		Responder: Classify(RequestFrom(r)).Responder,
		Code:      CodeConfiguration,
	})
}
