package http

import (
	"context"
	"net/http"
	"strings"
)

// Responder selects how a denial is rendered.
type Responder int

const (
	// ResponderHTML renders a browser paywall.
	ResponderHTML Responder = iota
	// ResponderJSON renders the protocol JSON body.
	ResponderJSON
)

func (r Responder) String() string {
	if r == ResponderJSON {
		return "json"
	}
	return "html"
}

// Request is the host-independent view of an inbound request the gate evaluates.
type Request struct {
	ID     string
	Method string
	Header http.Header

	// Scheme is the scheme the server received the request on ("http" or "https").
	Scheme string
	Host   string
	Path   string

	// Subrequest marks requests generated internally by the host.
	Subrequest bool
}

type subrequestKey struct{}

type requestIDKey struct{}

// WithSubrequest marks ctx as belonging to an internal sub-request, which is never charged.
func WithSubrequest(ctx context.Context) context.Context {
	return context.WithValue(ctx, subrequestKey{}, true)
}

// IsSubrequest reports whether ctx was marked with WithSubrequest.
func IsSubrequest(ctx context.Context) bool {
	v, _ := ctx.Value(subrequestKey{}).(bool)
	return v
}

// WithRequestID attaches a host-assigned request id used in logs and metrics.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestFrom builds a Request from a net/http request.
func RequestFrom(r *http.Request) Request {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	id, _ := r.Context().Value(requestIDKey{}).(string)
	if id == "" {
		id = r.Header.Get("X-Request-Id")
	}

	return Request{
		ID:         id,
		Method:     r.Method,
		Header:     r.Header,
		Scheme:     scheme,
		Host:       r.Host,
		Path:       r.URL.Path,
		Subrequest: IsSubrequest(r.Context()),
	}
}

// Classification is the result of Classify.
type Classification struct {
	// Bypass exempts the request from payment enforcement.
	Bypass bool
	// BypassReason is "method", "subrequest" or "upgrade" when Bypass is set.
	BypassReason string
	Responder    Responder
}

// Classify decides whether a request is exempt from payment and how a
// denial should be rendered. It only inspects the method and headers.
func Classify(req Request) Classification {
	c := Classification{Responder: responderFor(req.Header)}

	switch strings.ToUpper(req.Method) {
	case http.MethodOptions, http.MethodHead, http.MethodTrace:
		c.Bypass, c.BypassReason = true, "method"
	default:
		if req.Subrequest {
			c.Bypass, c.BypassReason = true, "subrequest"
		} else if isUpgrade(req.Header) {
			c.Bypass, c.BypassReason = true, "upgrade"
		}
	}
	return c
}

// isUpgrade detects protocol switches such as WebSocket handshakes.
func isUpgrade(h http.Header) bool {
	if strings.TrimSpace(h.Get("Upgrade")) == "" {
		return false
	}
	for _, v := range h.Values("Connection") {
		if strings.Contains(strings.ToLower(v), "upgrade") {
			return true
		}
	}
	return false
}

// responderFor applies, in order: an explicit Content-Type, Accept preferences,
// then User-Agent sniffing. With no signal at all the paywall wins.
func responderFor(h http.Header) Responder {
	if ct := mediaType(h.Get("Content-Type")); ct != "" {
		switch {
		case isJSONMediaType(ct):
			return ResponderJSON
		case ct == "multipart/form-data" || ct == "application/x-www-form-urlencoded":
			return ResponderHTML
		}
	}

	if accept := h.Values("Accept"); len(accept) > 0 {
		prefs := parseAccept(strings.Join(accept, ","))
		jsonQ, htmlQ := prefs.jsonQuality(), prefs.htmlQuality()
		switch {
		case jsonQ > htmlQ:
			return ResponderJSON
		case htmlQ > 0:
			return ResponderHTML
		}
	}

	ua := strings.ToLower(strings.TrimSpace(h.Get("User-Agent")))
	if ua == "" || isBrowserAgent(ua) {
		return ResponderHTML
	}
	return ResponderJSON
}

var browserEngines = []string{"chrome", "safari", "firefox", "edge", "opera", "brave", "webkit", "gecko"}

var apiClients = []string{
	"curl", "wget", "python-requests", "go-http-client", "java/", "okhttp",
	"httpie", "postman", "insomnia", "axios", "node-fetch",
}

// isBrowserAgent expects a lower-cased User-Agent.
func isBrowserAgent(ua string) bool {
	if !strings.Contains(ua, "mozilla") {
		return false
	}
	if strings.HasPrefix(ua, "rest-client") || strings.HasPrefix(ua, "http") {
		return false
	}
	for _, c := range apiClients {
		if strings.Contains(ua, c) {
			return false
		}
	}
	for _, e := range browserEngines {
		if strings.Contains(ua, e) {
			return true
		}
	}
	return false
}
