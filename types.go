package x402

import "encoding/json"

const (
	// X402Version is the protocol version spoken by this gate.
	X402Version = 1

	// SchemeExact is the only payment scheme the gate emits.
	SchemeExact = "exact"

	// PaymentHeader carries the base64-encoded payment proof.
	PaymentHeader = "X-PAYMENT"

	// PaymentRequiredHeader mirrors the 402 body as base64 JSON.
	PaymentRequiredHeader = "X-PAYMENT-REQUIRED"
)

// PaymentRequirement describes what payment satisfies a single request.
type PaymentRequirement struct {
	// Scheme is the payment scheme identifier (always "exact").
	Scheme string `json:"scheme"`

	// Network is the canonical network name (e.g., "base", "solana").
	Network string `json:"network"`

	// MaxAmountRequired is the payment amount in atomic units. It never contains a decimal point.
	MaxAmountRequired string `json:"maxAmountRequired"`

	// Asset is the token contract address (EVM) or mint address (Solana).
	Asset string `json:"asset"`

	// PayTo is the recipient address for the payment.
	PayTo string `json:"payTo"`

	// Resource is the absolute URL the payment authorizes.
	Resource string `json:"resource"`

	// Description is an optional human-readable payment description.
	Description string `json:"description"`

	// MimeType is the content type of the protected resource.
	MimeType string `json:"mimeType"`

	// MaxTimeoutSeconds is the validity period for the payment authorization.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds"`

	// Extra contains scheme-specific additional data (EIP-3009 domain, Solana feePayer).
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// PaymentRequirementsResponse is the JSON body of a 402 response.
type PaymentRequirementsResponse struct {
	// X402Version is the protocol version (currently 1).
	X402Version int `json:"x402Version"`

	// Error is a human-readable, client-safe message.
	Error string `json:"error"`

	// Accepts lists the payment options. The gate always populates exactly one.
	Accepts []PaymentRequirement `json:"accepts"`
}

// PaymentPayload is the caller-supplied payment proof decoded from the X-PAYMENT header.
type PaymentPayload struct {
	// X402Version is the protocol version (currently 1).
	X402Version int `json:"x402Version"`

	// Scheme is the payment scheme identifier (e.g., "exact").
	Scheme string `json:"scheme"`

	// Network is the network the payment was signed for.
	Network string `json:"network"`

	// Payload is the signed authorization. It is forwarded to the facilitator untouched.
	Payload json.RawMessage `json:"payload"`
}

// Clone returns a copy of the requirement whose Extra map can be mutated independently.
func (r PaymentRequirement) Clone() PaymentRequirement {
	if r.Extra != nil {
		extra := make(map[string]interface{}, len(r.Extra))
		for k, v := range r.Extra {
			extra[k] = v
		}
		r.Extra = extra
	}
	return r
}
