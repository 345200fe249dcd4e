// Package gin provides Gin-compatible middleware for x402 payment gating.
// This package is a thin adapter that translates gin.Context to stdlib http patterns
// and delegates all payment verification logic to the http package.
package gin

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	httpx402 "github.com/mark3labs/x402-gate/http"
)

// PaymentKey is the gin.Context key holding *httpx402.PaymentInfo for admitted requests.
const PaymentKey = "x402_payment"

// NewGinX402Middleware creates a new x402 payment middleware for Gin.
//
// The middleware:
//   - Calls c.Abort() after writing a 402 or 500 response
//   - Stores payment information via c.Set(PaymentKey, info) and in the request context
//   - Calls c.Next() when the request is admitted
//
// Example usage:
//
//	r := gin.Default()
//	r.GET("/protected", NewGinX402Middleware(config), func(c *gin.Context) {
//	    if payment, exists := c.Get(PaymentKey); exists {
//	        c.JSON(200, gin.H{"payer": payment.(*httpx402.PaymentInfo).Payer})
//	    }
//	})
func NewGinX402Middleware(config *httpx402.Config) gin.HandlerFunc {
	gate, err := httpx402.NewGate(config)
	if err != nil {
		logger := config.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("x402 route activation failed", "route", config.Route.Name, "error", err)

		return func(c *gin.Context) {
			httpx402.MisconfiguredResponse(c.Request).Write(c.Writer)
			c.Abort()
		}
	}

	return func(c *gin.Context) {
		r, ok := gate.Check(c.Writer, c.Request)
		if !ok {
			c.Abort()
			return
		}

		c.Request = r
		if info, ok := httpx402.GetPaymentInfo(r.Context()); ok {
			c.Set(PaymentKey, info)
		}
		c.Next()
	}
}
