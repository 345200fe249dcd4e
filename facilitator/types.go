package facilitator

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/x402-gate"
)

// VerifyRequest is the body POSTed to {facilitator}/verify.
type VerifyRequest struct {
	X402Version         int                     `json:"x402Version"`
	PaymentPayload      x402.PaymentPayload     `json:"paymentPayload"`
	PaymentRequirements x402.PaymentRequirement `json:"paymentRequirements"`
}

// VerifyResponse contains the payment verification result from the facilitator.
// Facilitators spell the validity flag either "isValid" or "valid".
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer"`
}

// errMissingValidity is returned when neither spelling of the validity flag is present.
var errMissingValidity = errors.New("verify response has no validity flag")

// UnmarshalJSON requires a boolean validity flag under "isValid" or "valid".
func (v *VerifyResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		IsValid       *bool  `json:"isValid"`
		Valid         *bool  `json:"valid"`
		InvalidReason string `json:"invalidReason"`
		Payer         string `json:"payer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.IsValid != nil:
		v.IsValid = *raw.IsValid
	case raw.Valid != nil:
		v.IsValid = *raw.Valid
	default:
		return errMissingValidity
	}
	v.InvalidReason = raw.InvalidReason
	v.Payer = raw.Payer
	return nil
}

// SupportedKind describes a supported payment type with its configuration.
type SupportedKind struct {
	X402Version int                    `json:"x402Version"`
	Scheme      string                 `json:"scheme"`
	Network     string                 `json:"network"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// SupportedResponse lists all payment types supported by the facilitator.
type SupportedResponse struct {
	Kinds []SupportedKind `json:"kinds"`
}

// Find returns the kind matching scheme and network, if advertised.
func (s *SupportedResponse) Find(scheme, network string) (SupportedKind, bool) {
	for _, k := range s.Kinds {
		if k.Scheme == scheme && k.Network == network {
			return k, true
		}
	}
	return SupportedKind{}, false
}
