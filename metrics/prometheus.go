package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// PrometheusSink exports evaluation events as Prometheus metrics.
type PrometheusSink struct {
	requests      *prometheus.CounterVec
	decisions     *prometheus.CounterVec
	verifications *prometheus.CounterVec
	faults        *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	amount        *prometheus.HistogramVec
}

// NewPrometheusSink creates the gate collectors and registers them with reg.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	s := &PrometheusSink{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "x402_requests_total",
			Help: "Requests evaluated by the payment gate.",
		}, []string{"route"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "x402_decisions_total",
			Help: "Evaluations by terminal decision.",
		}, []string{"route", "terminal"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "x402_payment_verifications_total",
			Help: "Facilitator verifications by result.",
		}, []string{"route", "result"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "x402_facilitator_errors_total",
			Help: "Facilitator faults by kind.",
		}, []string{"route", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "x402_verification_duration_seconds",
			Help:    "Facilitator verification latency.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"route"}),
		amount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "x402_payment_amount",
			Help:    "Requested payment amount in token units.",
			Buckets: []float64{.0001, .001, .01, .1, 1, 10, 100, 1000},
		}, []string{"route"}),
	}

	for _, c := range []prometheus.Collector{s.requests, s.decisions, s.verifications, s.faults, s.duration, s.amount} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Record implements Sink.
func (s *PrometheusSink) Record(e Event) {
	s.requests.WithLabelValues(e.Route).Inc()
	s.decisions.WithLabelValues(e.Route, string(e.Terminal)).Inc()

	if !e.Verified {
		return
	}
	s.verifications.WithLabelValues(e.Route, e.Result).Inc()
	if e.Fault != "" {
		s.faults.WithLabelValues(e.Route, e.Fault).Inc()
	}
	s.duration.WithLabelValues(e.Route).Observe(e.Latency.Seconds())

	if units, ok := tokenUnits(e.Amount, e.Decimals); ok {
		s.amount.WithLabelValues(e.Route).Observe(units)
	}
}

// tokenUnits converts an atomic amount to an approximate token amount for observation.
func tokenUnits(atomic string, decimals int) (float64, bool) {
	if atomic == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(atomic)
	if err != nil {
		return 0, false
	}
	f, _ := d.Shift(-int32(decimals)).Float64()
	return f, true
}
