package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/mark3labs/x402-gate"
	"github.com/mark3labs/x402-gate/encoding"
)

// Response is a fully rendered gate response. PassThrough means the host
// should continue to the protected handler and nothing is written.
type Response struct {
	PassThrough bool
	Status      int
	Header      http.Header
	Body        []byte
}

// protocolReason matches facilitator reasons that are safe to echo, such as
// "insufficient_funds" or "invalid_exact_evm_payload_signature".
var protocolReason = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

// Compose renders a decision into a response.
func Compose(d Decision) Response {
	switch d.Kind {
	case DecisionAllow:
		return Response{PassThrough: true}
	case DecisionDeny:
		return composeDeny(d)
	default:
		return composeInternalError(d)
	}
}

func composeDeny(d Decision) Response {
	if d.Reason == ReasonUnresolvableResource {
		return composeBadRequest(d)
	}

	body := x402.PaymentRequirementsResponse{
		X402Version: x402.X402Version,
		Error:       denyMessage(d),
		Accepts:     []x402.PaymentRequirement{d.Requirement},
	}

	h := make(http.Header)
	h.Set("Cache-Control", "no-store")
	if encoded, err := encoding.EncodeRequirements(body); err == nil {
		h.Set(x402.PaymentRequiredHeader, encoded)
	}

	if d.Responder == ResponderHTML {
		page, err := renderPaywall(body, d.Decimals)
		if err == nil {
			h.Set("Content-Type", "text/html; charset=utf-8")
			return Response{Status: http.StatusPaymentRequired, Header: h, Body: page}
		}
		slog.Default().Error("failed to render paywall, falling back to JSON", "error", err)
	}

	data, err := json.Marshal(body)
	if err != nil {
		return composeInternalError(d)
	}
	h.Set("Content-Type", "application/json")
	return Response{Status: http.StatusPaymentRequired, Header: h, Body: data}
}

func denyMessage(d Decision) string {
	switch d.Reason {
	case ReasonPaymentMismatch:
		return "Payment does not match the accepted scheme and network"
	case ReasonInvalidPayment:
		if protocolReason.MatchString(d.InvalidReason) {
			return "Payment verification failed: " + d.InvalidReason
		}
		return "Payment verification failed"
	default:
		return "X-PAYMENT header is required"
	}
}

func composeInternalError(d Decision) Response {
	h := make(http.Header)
	h.Set("Cache-Control", "no-store")

	if d.Responder == ResponderJSON {
		h.Set("Content-Type", "application/json")
		return Response{Status: http.StatusInternalServerError, Header: h, Body: []byte(`{"error":"Internal server error"}`)}
	}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	return Response{Status: http.StatusInternalServerError, Header: h, Body: []byte("Internal Server Error\n")}
}

func composeBadRequest(d Decision) Response {
	h := make(http.Header)
	h.Set("Cache-Control", "no-store")

	if d.Responder == ResponderJSON {
		h.Set("Content-Type", "application/json")
		return Response{Status: http.StatusBadRequest, Header: h, Body: []byte(`{"error":"Bad request"}`)}
	}
	h.Set("Content-Type", "text/plain; charset=utf-8")
	return Response{Status: http.StatusBadRequest, Header: h, Body: []byte("Bad Request\n")}
}

// Write sends the response. It is a no-op for pass-through responses.
func (r Response) Write(w http.ResponseWriter) {
	if r.PassThrough {
		return
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(r.Status)
	// Ignore write errors - the status line is already sent
	_, _ = bytes.NewReader(r.Body).WriteTo(w)
}
