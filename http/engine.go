package http

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mark3labs/x402-gate"
	"github.com/mark3labs/x402-gate/encoding"
	"github.com/mark3labs/x402-gate/facilitator"
	"github.com/mark3labs/x402-gate/http/internal/helpers"
	"github.com/mark3labs/x402-gate/metrics"
)

// DecisionKind is the terminal outcome of an evaluation.
type DecisionKind int

const (
	// DecisionAllow lets the request continue to the protected handler.
	DecisionAllow DecisionKind = iota
	// DecisionDeny refuses the request for a reason the client can fix.
	DecisionDeny
	// DecisionInternalError refuses the request because of a server-side problem.
	DecisionInternalError
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionAllow:
		return "allow"
	case DecisionDeny:
		return "deny"
	default:
		return "error"
	}
}

// DenyReason explains a denial to the client.
type DenyReason string

const (
	// ReasonMissingPayment covers absent and unusable X-PAYMENT headers alike.
	ReasonMissingPayment DenyReason = "missing_payment"
	// ReasonPaymentMismatch means the payment names another scheme or network.
	ReasonPaymentMismatch DenyReason = "payment_mismatch"
	// ReasonInvalidPayment means the facilitator rejected the payment.
	ReasonInvalidPayment DenyReason = "invalid_payment"
	// ReasonUnresolvableResource means no resource URL could be derived from
	// the request. It is answered with 400 rather than 402.
	ReasonUnresolvableResource DenyReason = "unresolvable_resource"
)

// ErrorCode classifies an internal error for operators. It is never sent to clients.
type ErrorCode string

const (
	// CodeConfiguration means the route cannot build requirements.
	CodeConfiguration ErrorCode = "configuration_error"
	// CodeFacilitator means a facilitator fault under FallbackError.
	CodeFacilitator ErrorCode = "facilitator_error"
)

// Decision is the result of evaluating one request.
type Decision struct {
	Kind      DecisionKind
	Responder Responder

	// Requirement is what the request must pay. Set on Deny and on verified Allow.
	Requirement x402.PaymentRequirement
	// Decimals is the precision of Requirement.Asset, for display.
	Decimals int

	Reason DenyReason
	// InvalidReason is the facilitator's rejection reason, if any.
	InvalidReason string

	Code ErrorCode

	// Payer is the verified payer address on Allow.
	Payer string
	// Verified is set when the facilitator accepted the payment.
	Verified bool
	// FallbackApplied is set when a facilitator fault was let through.
	FallbackApplied bool
	// Bypassed is set when the request was exempt from payment.
	Bypassed bool

	RequestID string
}

// Engine runs the verification state machine for gated requests. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	Verifier facilitator.Interface
	Metrics  metrics.Sink
	Logger   *slog.Logger
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Evaluate classifies req, checks its payment against route and returns the decision.
// It never calls the verifier for bypassed, disabled, unpaid or mismatched requests.
func (e *Engine) Evaluate(ctx context.Context, route *Route, req Request) Decision {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	logger := e.logger()
	cls := Classify(req)

	if route == nil {
		logger.Error("x402 route not configured", "request_id", req.ID, "path", req.Path)
		return Decision{Kind: DecisionInternalError, Responder: cls.Responder, Code: CodeConfiguration, RequestID: req.ID}
	}

	ev := metrics.Event{RequestID: req.ID, Route: route.Name(), Time: time.Now()}
	record := func(d Decision) Decision {
		d.RequestID = req.ID
		if e.Metrics != nil && route.MetricsEnabled() {
			e.Metrics.Record(ev)
		}
		return d
	}

	if cls.Bypass {
		logger.Debug("x402 bypass", "request_id", req.ID, "reason", cls.BypassReason, "method", req.Method)
		ev.Terminal = metrics.TerminalBypass
		ev.Reason = cls.BypassReason
		return record(Decision{Kind: DecisionAllow, Responder: cls.Responder, Bypassed: true})
	}

	if !route.Enabled() {
		ev.Terminal = metrics.TerminalDisabled
		return record(Decision{Kind: DecisionAllow, Responder: cls.Responder})
	}

	requirement, err := route.Requirements(req)
	if errors.Is(err, x402.ErrUnresolvableResource) {
		logger.Info("cannot derive payment resource", "request_id", req.ID, "route", route.Name(), "error", err)
		ev.Terminal, ev.Reason = metrics.TerminalDeny, string(ReasonUnresolvableResource)
		return record(Decision{Kind: DecisionDeny, Responder: cls.Responder, Reason: ReasonUnresolvableResource})
	}
	if err != nil {
		logger.Error("failed to build payment requirements", "request_id", req.ID, "route", route.Name(), "error", err)
		ev.Terminal, ev.Reason = metrics.TerminalError, string(CodeConfiguration)
		return record(Decision{Kind: DecisionInternalError, Responder: cls.Responder, Code: CodeConfiguration})
	}

	deny := func(reason DenyReason, invalidReason string) Decision {
		ev.Terminal, ev.Reason = metrics.TerminalDeny, string(reason)
		return record(Decision{
			Kind:          DecisionDeny,
			Responder:     cls.Responder,
			Requirement:   requirement,
			Decimals:      route.Decimals(),
			Reason:        reason,
			InvalidReason: invalidReason,
		})
	}

	header := strings.TrimSpace(req.Header.Get(x402.PaymentHeader))
	if header == "" {
		logger.Info("no payment header provided", "request_id", req.ID, "path", req.Path)
		return deny(ReasonMissingPayment, "")
	}

	payment, ok := encoding.DecodePayment(header)
	if !ok {
		// Logged without detail; malformed proofs are indistinguishable from missing ones.
		logger.Info("unusable payment header", "request_id", req.ID, "path", req.Path)
		return deny(ReasonMissingPayment, "")
	}

	if payment.Scheme != requirement.Scheme || payment.Network != requirement.Network {
		logger.Warn("payment does not match requirement",
			"request_id", req.ID, "scheme", payment.Scheme, "network", payment.Network,
			"want_network", requirement.Network)
		return deny(ReasonPaymentMismatch, "")
	}

	ev.Verified = true
	ev.Amount = requirement.MaxAmountRequired
	ev.Decimals = route.Decimals()
	ev.Network = requirement.Network
	ev.Asset = requirement.Asset

	logger.Info("verifying payment", "request_id", req.ID, "scheme", payment.Scheme, "network", payment.Network)
	start := time.Now()
	outcome := facilitator.Faulted(facilitator.FaultNetwork, x402.ErrFacilitatorUnavailable)
	if e.Verifier != nil {
		outcome = e.Verifier.Verify(ctx, route.Endpoint(), payment, requirement)
	}
	ev.Latency = time.Since(start)
	ev.Result = outcome.Status.String()

	switch outcome.Status {
	case facilitator.StatusValid:
		// Some facilitators omit the payer; the verified payload names it.
		if outcome.Payer == "" {
			outcome.Payer = helpers.GetPayer(payment)
		}
		logger.Info("payment verified", "request_id", req.ID, "payer", outcome.Payer, "latency", ev.Latency)
		ev.Terminal = metrics.TerminalAllow
		return record(Decision{
			Kind:        DecisionAllow,
			Responder:   cls.Responder,
			Requirement: requirement,
			Decimals:    route.Decimals(),
			Payer:       outcome.Payer,
			Verified:    true,
		})

	case facilitator.StatusInvalid:
		logger.Warn("payment verification failed", "request_id", req.ID, "reason", outcome.InvalidReason)
		return deny(ReasonInvalidPayment, outcome.InvalidReason)

	default:
		ev.Fault = string(outcome.Fault)
		if route.Fallback() == FallbackPass {
			logger.Warn("facilitator fault, passing request through",
				"request_id", req.ID, "route", route.Name(), "fault", outcome.Fault)
			ev.Terminal = metrics.TerminalAllow
			ev.FallbackApplied = true
			return record(Decision{Kind: DecisionAllow, Responder: cls.Responder, Requirement: requirement, FallbackApplied: true})
		}
		logger.Warn("facilitator fault, failing request",
			"request_id", req.ID, "route", route.Name(), "fault", outcome.Fault)
		ev.Terminal, ev.Reason = metrics.TerminalError, string(CodeFacilitator)
		return record(Decision{Kind: DecisionInternalError, Responder: cls.Responder, Code: CodeFacilitator})
	}
}
