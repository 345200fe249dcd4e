package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/mark3labs/x402-gate"
	"github.com/mark3labs/x402-gate/facilitator"
)

const (
	// maxResponseSize bounds facilitator response bodies.
	maxResponseSize = 64 * 1024

	// maxDrain bounds how much of a successful body is discarded to keep the connection reusable.
	maxDrain = 4 * 1024
)

// AuthorizationProvider is a function that returns an Authorization header value.
// It is called for every outgoing facilitator request and must be safe for concurrent use.
type AuthorizationProvider func(*http.Request) string

// FacilitatorClient verifies payments against remote facilitators over pooled
// connections. One client is shared by all routes for the process lifetime;
// call Close at shutdown.
type FacilitatorClient struct {
	authorization         string
	authorizationProvider AuthorizationProvider
	logger                *slog.Logger
	pool                  *pool
}

// Verify that FacilitatorClient implements facilitator.Interface.
var _ facilitator.Interface = (*FacilitatorClient)(nil)

// FacilitatorOption configures a FacilitatorClient.
type FacilitatorOption func(*FacilitatorClient)

// WithMaxConnsPerHost bounds concurrent connections and in-flight verifications per host.
func WithMaxConnsPerHost(n int) FacilitatorOption {
	return func(c *FacilitatorClient) {
		c.pool = newPool(n)
	}
}

// WithAuthorization sets a static Authorization header value (e.g., "Bearer token").
func WithAuthorization(value string) FacilitatorOption {
	return func(c *FacilitatorClient) {
		c.authorization = value
	}
}

// WithAuthorizationProvider sets a per-request Authorization provider. It takes
// precedence over WithAuthorization.
func WithAuthorizationProvider(provider AuthorizationProvider) FacilitatorOption {
	return func(c *FacilitatorClient) {
		c.authorizationProvider = provider
	}
}

// WithLogger sets the logger used for facilitator faults.
func WithLogger(logger *slog.Logger) FacilitatorOption {
	return func(c *FacilitatorClient) {
		c.logger = logger
	}
}

// NewFacilitatorClient creates a client with a per-host connection pool.
func NewFacilitatorClient(opts ...FacilitatorOption) *FacilitatorClient {
	c := &FacilitatorClient{
		logger: slog.Default(),
		pool:   newPool(DefaultMaxConnsPerHost),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases pooled idle connections. Verify calls after Close report a network fault.
func (c *FacilitatorClient) Close() {
	c.pool.close()
}

// setAuthorizationHeader sets the Authorization header on the request if configured.
func (c *FacilitatorClient) setAuthorizationHeader(req *http.Request) {
	var authValue string
	if c.authorizationProvider != nil {
		authValue = c.authorizationProvider(req)
	} else {
		authValue = c.authorization
	}
	if authValue != "" {
		req.Header.Set("Authorization", authValue)
	}
}

// Verify posts the payment and requirement to {endpoint}/verify exactly once.
// The endpoint timeout covers waiting for a pooled connection, connecting,
// sending and reading the response.
func (c *FacilitatorClient) Verify(ctx context.Context, endpoint facilitator.Endpoint, payment x402.PaymentPayload, requirement x402.PaymentRequirement) facilitator.Outcome {
	start := time.Now()
	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	outcome := c.verify(ctx, timeout, endpoint.URL, payment, requirement)
	outcome.Latency = time.Since(start)

	if outcome.Status == facilitator.StatusFault {
		c.logger.Warn("facilitator verification fault",
			"facilitator", hostOf(endpoint.URL),
			"fault", outcome.Fault,
			"latency", outcome.Latency,
			"error", outcome.Err)
	}
	return outcome
}

func (c *FacilitatorClient) verify(parent context.Context, timeout time.Duration, baseURL string, payment x402.PaymentPayload, requirement x402.PaymentRequirement) facilitator.Outcome {
	target, err := url.Parse(baseURL + "/verify")
	if err != nil || target.Host == "" {
		return facilitator.Faulted(facilitator.FaultNetwork, fmt.Errorf("%w: bad facilitator url %q", x402.ErrFacilitatorUnavailable, baseURL))
	}

	body, err := json.Marshal(facilitator.VerifyRequest{
		X402Version:         x402.X402Version,
		PaymentPayload:      payment,
		PaymentRequirements: requirement,
	})
	if err != nil {
		return facilitator.Faulted(facilitator.FaultNetwork, fmt.Errorf("failed to marshal request: %w", err))
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	hp, ok := c.pool.get(target.Host)
	if !ok {
		return facilitator.Faulted(facilitator.FaultNetwork, fmt.Errorf("%w: client closed", x402.ErrFacilitatorUnavailable))
	}
	if err := hp.acquire(ctx); err != nil {
		return classifyFault(parent, ctx, fmt.Errorf("waiting for connection: %w", err))
	}
	defer hp.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return facilitator.Faulted(facilitator.FaultNetwork, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.setAuthorizationHeader(req)

	resp, err := hp.client.Do(req)
	if err != nil {
		return classifyFault(parent, ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Closing without draining discards the connection.
		resp.Body.Close()
		return facilitator.Faulted(facilitator.FaultInvalidResponse,
			fmt.Errorf("%w: status %d", x402.ErrInvalidFacilitatorResponse, resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		resp.Body.Close()
		return classifyFault(parent, ctx, err)
	}
	if len(data) > maxResponseSize {
		resp.Body.Close()
		return facilitator.Faulted(facilitator.FaultInvalidResponse,
			fmt.Errorf("%w: body exceeds %d bytes", x402.ErrInvalidFacilitatorResponse, maxResponseSize))
	}

	var verifyResp facilitator.VerifyResponse
	if err := json.Unmarshal(data, &verifyResp); err != nil {
		resp.Body.Close()
		return facilitator.Faulted(facilitator.FaultInvalidResponse,
			fmt.Errorf("%w: %v", x402.ErrInvalidFacilitatorResponse, err))
	}

	// Fully consumed bodies return their connection to the pool.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	resp.Body.Close()

	if verifyResp.IsValid {
		return facilitator.Valid(verifyResp.Payer)
	}
	return facilitator.Invalid(verifyResp.InvalidReason)
}

// classifyFault maps a transport error to a fault kind. parent is the caller's
// context and ctx the derived one carrying the verification deadline.
func classifyFault(parent, ctx context.Context, err error) facilitator.Outcome {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return facilitator.Faulted(facilitator.FaultCanceled, fmt.Errorf("%w: %v", x402.ErrFacilitatorUnavailable, err))
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return facilitator.Faulted(facilitator.FaultTimeout, fmt.Errorf("%w: %v", x402.ErrFacilitatorTimeout, err))
	default:
		return facilitator.Faulted(facilitator.FaultNetwork, fmt.Errorf("%w: %v", x402.ErrFacilitatorUnavailable, err))
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Supported queries {baseURL}/supported for the payment kinds a facilitator accepts.
func (c *FacilitatorClient) Supported(ctx context.Context, baseURL string) (*facilitator.SupportedResponse, error) {
	target, err := url.Parse(baseURL + "/supported")
	if err != nil || target.Host == "" {
		return nil, fmt.Errorf("%w: bad facilitator url %q", x402.ErrFacilitatorUnavailable, baseURL)
	}

	hp, ok := c.pool.get(target.Host)
	if !ok {
		return nil, fmt.Errorf("%w: client closed", x402.ErrFacilitatorUnavailable)
	}
	if err := hp.acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrFacilitatorUnavailable, err)
	}
	defer hp.release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.setAuthorizationHeader(req)

	resp, err := hp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrFacilitatorUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: supported endpoint status %d", x402.ErrInvalidFacilitatorResponse, resp.StatusCode)
	}

	var supportedResp facilitator.SupportedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&supportedResp); err != nil {
		return nil, fmt.Errorf("%w: %v", x402.ErrInvalidFacilitatorResponse, err)
	}
	return &supportedResp, nil
}

func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	return raw
}
