// Package encoding provides utilities for encoding and decoding x402 payment data.
// It handles base64 and JSON marshaling for payment payloads and requirements.
package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/x402-gate"
)

// MaxPaymentHeaderSize bounds the encoded X-PAYMENT header accepted by DecodePayment.
const MaxPaymentHeaderSize = 16 * 1024

// EncodePayment converts a PaymentPayload to base64-encoded JSON string.
// This is used for HTTP X-PAYMENT headers and other transport encoding needs.
//
// Returns an error if JSON marshaling fails.
func EncodePayment(payment x402.PaymentPayload) (string, error) {
	paymentJSON, err := json.Marshal(payment)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payment: %w", err)
	}
	return base64.StdEncoding.EncodeToString(paymentJSON), nil
}

// DecodePayment converts an X-PAYMENT header value into a PaymentPayload.
//
// It reports false for every kind of bad input: empty or oversized values,
// invalid base64, invalid JSON, and payloads that are structurally unusable.
// Callers must treat false exactly like a missing header.
func DecodePayment(header string) (x402.PaymentPayload, bool) {
	var payment x402.PaymentPayload

	header = strings.TrimSpace(header)
	if header == "" || len(header) > MaxPaymentHeaderSize {
		return payment, false
	}

	decoded, err := decodeBase64(header)
	if err != nil {
		return payment, false
	}

	if err := json.Unmarshal(decoded, &payment); err != nil {
		return x402.PaymentPayload{}, false
	}

	if !wellFormed(payment) {
		return x402.PaymentPayload{}, false
	}
	return payment, true
}

// EncodeRequirements converts PaymentRequirementsResponse to base64-encoded JSON.
//
// Returns an error if JSON marshaling fails.
func EncodeRequirements(requirements x402.PaymentRequirementsResponse) (string, error) {
	reqJSON, err := json.Marshal(requirements)
	if err != nil {
		return "", fmt.Errorf("failed to marshal requirements: %w", err)
	}
	return base64.StdEncoding.EncodeToString(reqJSON), nil
}

// DecodeRequirements converts base64-encoded JSON to PaymentRequirementsResponse.
//
// Returns an error if base64 decoding or JSON unmarshaling fails.
func DecodeRequirements(encoded string) (x402.PaymentRequirementsResponse, error) {
	var requirements x402.PaymentRequirementsResponse

	decoded, err := decodeBase64(encoded)
	if err != nil {
		return requirements, fmt.Errorf("failed to decode base64: %w", err)
	}

	if err := json.Unmarshal(decoded, &requirements); err != nil {
		return requirements, fmt.Errorf("failed to unmarshal requirements: %w", err)
	}

	return requirements, nil
}

// decodeBase64 accepts the standard alphabet with or without padding.
func decodeBase64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func wellFormed(p x402.PaymentPayload) bool {
	if p.X402Version != x402.X402Version {
		return false
	}
	if p.Scheme == "" || p.Network == "" {
		return false
	}
	body := bytes.TrimSpace(p.Payload)
	return len(body) > 0 && body[0] == '{'
}
