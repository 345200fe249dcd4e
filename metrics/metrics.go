// Package metrics receives one structured event per gated request and fans it
// out to logs or Prometheus.
package metrics

import (
	"context"
	"log/slog"
	"time"
)

// Terminal is the kind of decision an evaluation ended in.
type Terminal string

const (
	// TerminalBypass is an exempt request (preflight, upgrade, sub-request).
	TerminalBypass Terminal = "bypass"
	// TerminalDisabled is a request to a route with enforcement turned off.
	TerminalDisabled Terminal = "disabled"
	// TerminalAllow is a verified payment or a fault let through by fallback.
	TerminalAllow Terminal = "allow"
	// TerminalDeny is a request refused for a client-side reason.
	TerminalDeny Terminal = "deny"
	// TerminalError is a request refused for a server-side reason.
	TerminalError Terminal = "error"
)

// Event describes how a single request evaluation ended.
type Event struct {
	// RequestID correlates the event with access logs.
	RequestID string

	// Route is the configured route name.
	Route string

	Terminal Terminal

	// Reason is the denial reason or internal error code, if any.
	Reason string

	// Fault is the facilitator fault kind when verification produced no verdict.
	Fault string

	// FallbackApplied is set when a facilitator fault was resolved by the fallback policy.
	FallbackApplied bool

	// Verified reports whether the facilitator was called. Result, Latency
	// and the amount fields are only meaningful when it is true.
	Verified bool
	Result   string
	Latency  time.Duration

	// Amount is the requested amount in atomic units of Asset.
	Amount   string
	Decimals int
	Network  string
	Asset    string

	Time time.Time
}

// Sink receives evaluation events. Implementations must be safe for concurrent use
// and must not block.
type Sink interface {
	Record(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Record calls f(e).
func (f SinkFunc) Record(e Event) { f(e) }

// Nop discards every event.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(Event) {}

// Multi forwards each event to every sink in order.
type Multi []Sink

// Record implements Sink.
func (m Multi) Record(e Event) {
	for _, s := range m {
		if s != nil {
			s.Record(e)
		}
	}
}

// LogSink writes each event as a structured log line.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogSink returns a sink logging at Info level. A nil logger uses slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger, level: slog.LevelInfo}
}

// Record implements Sink.
func (s *LogSink) Record(e Event) {
	attrs := []slog.Attr{
		slog.String("request_id", e.RequestID),
		slog.String("route", e.Route),
		slog.String("terminal", string(e.Terminal)),
	}
	if e.Reason != "" {
		attrs = append(attrs, slog.String("reason", e.Reason))
	}
	if e.Fault != "" {
		attrs = append(attrs, slog.String("fault", e.Fault), slog.Bool("fallback_applied", e.FallbackApplied))
	}
	if e.Verified {
		attrs = append(attrs,
			slog.String("result", e.Result),
			slog.Duration("latency", e.Latency),
			slog.String("amount", e.Amount),
			slog.String("network", e.Network),
			slog.String("asset", e.Asset),
		)
	}
	s.logger.LogAttrs(context.Background(), s.level, "x402 evaluation", attrs...)
}
