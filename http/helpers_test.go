package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/mark3labs/x402-gate"
	"github.com/mark3labs/x402-gate/encoding"
	"github.com/mark3labs/x402-gate/facilitator"
	"github.com/mark3labs/x402-gate/metrics"
)

const (
	testPayTo      = "0x209693Bc6afc0C5328bA36FaF03C514EF312287C"
	testPayer      = "0x857b06519E91e3A54538791bDbb0E22373e36b66"
	chromeUA       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	testFacilitURL = "https://facilitator.example.com"
)

// fakeVerifier returns a fixed outcome and counts calls.
type fakeVerifier struct {
	mu      sync.Mutex
	outcome facilitator.Outcome
	calls   int
	last    facilitator.Endpoint
	payment x402.PaymentPayload
	req     x402.PaymentRequirement
}

func (f *fakeVerifier) Verify(_ context.Context, endpoint facilitator.Endpoint, payment x402.PaymentPayload, requirement x402.PaymentRequirement) facilitator.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = endpoint
	f.payment = payment
	f.req = requirement
	return f.outcome
}

func (f *fakeVerifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// eventRecorder collects metrics events.
type eventRecorder struct {
	mu     sync.Mutex
	events []metrics.Event
}

func (r *eventRecorder) Record(e metrics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) Events() []metrics.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]metrics.Event(nil), r.events...)
}

func testRouteConfig() RouteConfig {
	return RouteConfig{
		Name:           "weather",
		Enabled:        true,
		Amount:         "0.0001",
		PayTo:          testPayTo,
		FacilitatorURL: testFacilitURL,
		Network:        "base-sepolia",
		MetricsEnabled: true,
	}
}

func mustRoute(t *testing.T, cfg RouteConfig) *Route {
	t.Helper()
	route, err := NewRoute(cfg)
	if err != nil {
		t.Fatalf("NewRoute failed: %v", err)
	}
	return route
}

func paymentHeader(t *testing.T, scheme, network string) string {
	t.Helper()
	encoded, err := encoding.EncodePayment(x402.PaymentPayload{
		X402Version: 1,
		Scheme:      scheme,
		Network:     network,
		Payload:     json.RawMessage(`{"signature":"0xdeadbeef","authorization":{"from":"` + testPayer + `","value":"100"}}`),
	})
	if err != nil {
		t.Fatalf("EncodePayment failed: %v", err)
	}
	return encoded
}

func newRequest(method, path string, headers map[string]string) Request {
	h := make(http.Header)
	for k, v := range headers {
		h.Set(k, v)
	}
	return Request{
		Method: method,
		Header: h,
		Scheme: "http",
		Host:   "api.example.com",
		Path:   path,
	}
}

func intPtr(v int) *int { return &v }
