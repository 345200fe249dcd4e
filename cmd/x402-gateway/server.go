package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mark3labs/x402-gate/facilitator/cdp"
	httpx402 "github.com/mark3labs/x402-gate/http"
	chix402 "github.com/mark3labs/x402-gate/http/chi"
	"github.com/mark3labs/x402-gate/metrics"
)

// Gateway is a reverse proxy that gates configured paths behind x402 payments.
type Gateway struct {
	Handler     http.Handler
	Facilitator *httpx402.FacilitatorClient
}

// Close releases the facilitator connection pool.
func (g *Gateway) Close() {
	g.Facilitator.Close()
}

// NewGateway wires routes, metrics and the upstream proxy. Metrics are
// registered on reg, which is also served at cfg.MetricsPath.
func NewGateway(cfg *Config, logger *slog.Logger, reg *prometheus.Registry) (*Gateway, error) {
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream: %w", err)
	}

	opts := []httpx402.FacilitatorOption{
		httpx402.WithLogger(logger),
		httpx402.WithMaxConnsPerHost(cfg.Facilitator.MaxConnsPerHost),
	}
	if c := cfg.Facilitator.CDP; c != nil {
		auth, err := cdp.NewAuth(os.Getenv(c.KeyNameEnv), os.Getenv(c.KeySecretEnv))
		if err != nil {
			return nil, fmt.Errorf("failed to load CDP credentials from %s/%s: %w", c.KeyNameEnv, c.KeySecretEnv, err)
		}
		opts = append(opts, httpx402.WithAuthorizationProvider(auth.AuthorizationProvider()))
	}
	client := httpx402.NewFacilitatorClient(opts...)

	promSink, err := metrics.NewPrometheusSink(reg)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var sink metrics.Sink = promSink
	if cfg.Log.Evaluations {
		sink = metrics.Multi{promSink, metrics.NewLogSink(logger)}
	}

	proxy := httputil.NewSingleHostReverseProxy(upstream)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("upstream request failed",
			"request_id", middleware.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusBadGateway)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Handle(cfg.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	for _, route := range cfg.Routes {
		gate := chix402.NewChiX402Middleware(&httpx402.Config{
			Route:       route.RouteConfig,
			Facilitator: client,
			Metrics:     sink,
			Logger:      logger,
		})
		r.With(gate).Handle(route.Path, proxy)
		logger.Info("mounted x402 route", "path", route.Path, "route", route.Name, "enabled", route.Enabled)
	}
	r.Handle("/*", proxy)

	return &Gateway{Handler: r, Facilitator: client}, nil
}
