// Package facilitator defines the contract between the gate and a remote
// payment facilitator, together with the wire types of the facilitator API.
package facilitator

import (
	"context"
	"time"

	"github.com/mark3labs/x402-gate"
)

// Interface defines the facilitator contract used by the verification engine.
// Implementations never return Go errors for remote failures; every failure is
// classified into the returned Outcome.
type Interface interface {
	// Verify checks a payment authorization against a requirement without executing it.
	// It makes exactly one attempt and honors both ctx and endpoint.Timeout.
	Verify(ctx context.Context, endpoint Endpoint, payment x402.PaymentPayload, requirement x402.PaymentRequirement) Outcome
}

// Endpoint identifies the facilitator a route verifies against.
type Endpoint struct {
	// URL is the facilitator base URL; /verify is appended.
	URL string

	// Timeout bounds the whole verification including waiting for a pooled connection.
	Timeout time.Duration
}

// Status is the verdict of a verification attempt.
type Status int

const (
	// StatusValid means the facilitator accepted the payment.
	StatusValid Status = iota
	// StatusInvalid means the facilitator rejected the payment.
	StatusInvalid
	// StatusFault means no verdict was obtained.
	StatusFault
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	default:
		return "fault"
	}
}

// FaultKind classifies why a verification produced no verdict.
type FaultKind string

const (
	// FaultNetwork means the facilitator could not be reached.
	FaultNetwork FaultKind = "network"
	// FaultTimeout means the route timeout expired before an answer.
	FaultTimeout FaultKind = "timeout"
	// FaultInvalidResponse means a non-2xx status or an undecodable body.
	FaultInvalidResponse FaultKind = "invalid_response"
	// FaultCanceled means the caller gave up, e.g. the client disconnected.
	FaultCanceled FaultKind = "canceled"
)

// Outcome is the result of a single verification attempt.
type Outcome struct {
	Status        Status
	Payer         string
	InvalidReason string

	// Fault and Err are set only when Status is StatusFault. Err is for operators, never for clients.
	Fault FaultKind
	Err   error

	// Latency is the wall time spent in Verify, including pool acquisition.
	Latency time.Duration
}

// Valid builds a StatusValid outcome.
func Valid(payer string) Outcome {
	return Outcome{Status: StatusValid, Payer: payer}
}

// Invalid builds a StatusInvalid outcome.
func Invalid(reason string) Outcome {
	return Outcome{Status: StatusInvalid, InvalidReason: reason}
}

// Faulted builds a StatusFault outcome.
func Faulted(kind FaultKind, err error) Outcome {
	return Outcome{Status: StatusFault, Fault: kind, Err: err}
}
