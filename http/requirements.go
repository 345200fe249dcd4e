package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mark3labs/x402-gate"
)

// ResourceURL derives scheme://host/path for a request, escaping the path.
// X-Forwarded-Proto overrides the scheme when it names http or https.
func ResourceURL(req Request) (string, error) {
	host := strings.TrimSpace(req.Host)
	if host == "" {
		return "", fmt.Errorf("%w: request has no host", x402.ErrUnresolvableResource)
	}

	scheme := req.Scheme
	if proto, _, _ := strings.Cut(req.Header.Get("X-Forwarded-Proto"), ","); proto != "" {
		switch p := strings.ToLower(strings.TrimSpace(proto)); p {
		case "http", "https":
			scheme = p
		}
	}
	if scheme == "" {
		scheme = "http"
	}

	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return (&url.URL{Scheme: scheme, Host: host, Path: path}).String(), nil
}

// InferMimeType guesses the protected resource's content type from the request.
func InferMimeType(h http.Header) string {
	if ct := mediaType(h.Get("Content-Type")); ct != "" {
		return ct
	}

	accept := strings.ToLower(h.Get("Accept"))
	switch {
	case accept == "":
		return "application/json"
	case strings.Contains(accept, "application/json"):
		return "application/json"
	case strings.Contains(accept, "text/html"):
		return "text/html"
	case strings.Contains(accept, "application/xml"), strings.Contains(accept, "text/xml"):
		return "application/xml"
	case strings.Contains(accept, "text/plain"):
		return "text/plain"
	}

	first, _, _ := strings.Cut(accept, ",")
	if mt := mediaType(first); mt != "" && mt != "*/*" {
		return mt
	}
	return "application/json"
}
