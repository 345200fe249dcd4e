// Package pocketbase provides PocketBase-compatible middleware for x402 payment gating.
// This package is a thin adapter that translates core.RequestEvent to stdlib http patterns
// and delegates all payment verification logic to the http package.
package pocketbase

import (
	"log/slog"

	"github.com/pocketbase/pocketbase/core"

	httpx402 "github.com/mark3labs/x402-gate/http"
)

// PaymentKey is the request store key holding *httpx402.PaymentInfo for admitted requests.
const PaymentKey = "x402_payment"

// NewPocketBaseX402Middleware creates a new x402 payment middleware for PocketBase.
// Denied requests are answered directly and the handler chain stops without
// an error, so PocketBase does not render its own error page over the 402.
//
// Example usage:
//
//	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
//	    se.Router.GET("/api/premium", handler).BindFunc(NewPocketBaseX402Middleware(config))
//	    return se.Next()
//	})
func NewPocketBaseX402Middleware(config *httpx402.Config) func(*core.RequestEvent) error {
	gate, err := httpx402.NewGate(config)
	if err != nil {
		logger := config.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("x402 route activation failed", "route", config.Route.Name, "error", err)

		return func(e *core.RequestEvent) error {
			httpx402.MisconfiguredResponse(e.Request).Write(e.Response)
			return nil
		}
	}

	return func(e *core.RequestEvent) error {
		r, ok := gate.Check(e.Response, e.Request)
		if !ok {
			return nil
		}

		e.Request = r
		if info, ok := httpx402.GetPaymentInfo(r.Context()); ok {
			e.Set(PaymentKey, info)
		}
		return e.Next()
	}
}
