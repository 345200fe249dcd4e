// Package chi provides Chi-compatible middleware for x402 payment gating.
// This package is a thin adapter over the stdlib handler in the http package
// that carries Chi's request ID into logs and metrics events.
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	httpx402 "github.com/mark3labs/x402-gate/http"
)

// NewChiX402Middleware creates a new x402 payment middleware for Chi.
//
// Mount it after middleware.RequestID to correlate gate logs with the router's:
//
//	client := httpx402.NewFacilitatorClient()
//	defer client.Close()
//
//	r := chi.NewRouter()
//	r.Use(middleware.RequestID)
//	r.With(NewChiX402Middleware(&httpx402.Config{
//	    Facilitator: client,
//	    Route: httpx402.RouteConfig{
//	        Name:           "weather",
//	        Enabled:        true,
//	        Amount:         "0.01",
//	        PayTo:          "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0",
//	        Network:        "base-sepolia",
//	        FacilitatorURL: "https://x402.org/facilitator",
//	    },
//	})).Get("/weather", func(w http.ResponseWriter, r *http.Request) {
//	    info, _ := httpx402.GetPaymentInfo(r.Context())
//	    w.Write([]byte("Access granted! Payer: " + info.Payer))
//	})
func NewChiX402Middleware(config *httpx402.Config) func(http.Handler) http.Handler {
	gated := httpx402.NewX402Middleware(config)

	return func(next http.Handler) http.Handler {
		inner := gated(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := middleware.GetReqID(r.Context()); id != "" {
				r = r.WithContext(httpx402.WithRequestID(r.Context(), id))
			}
			inner.ServeHTTP(w, r)
		})
	}
}
