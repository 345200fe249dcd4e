// Package cdp authenticates facilitator calls against the Coinbase Developer
// Platform hosted facilitator using short-lived API-key JWTs.
package cdp

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// DefaultFacilitatorURL is the CDP hosted facilitator base URL.
const DefaultFacilitatorURL = "https://api.cdp.coinbase.com/platform/v2/x402"

// tokenLifetime is how long each bearer token stays valid.
const tokenLifetime = 2 * time.Minute

// Auth signs per-request bearer tokens with a CDP API key.
// It is immutable after construction and safe for concurrent use.
type Auth struct {
	keyName    string
	privateKey crypto.Signer
	alg        jose.SignatureAlgorithm
}

// Claims is the JWT claim set CDP expects.
type Claims struct {
	*jwt.Claims
	// URI is "{METHOD} {host}{path}" of the request being authorized.
	URI string `json:"uri"`
}

// NewAuth parses an API key secret. The secret may be PEM (SEC1 or PKCS8),
// base64 DER of an EC key, or a base64 64-byte Ed25519 key as issued by CDP.
func NewAuth(keyName, keySecret string) (*Auth, error) {
	if keyName == "" {
		return nil, fmt.Errorf("key name must not be empty")
	}

	key, err := parseKey(strings.TrimSpace(keySecret))
	if err != nil {
		return nil, err
	}

	a := &Auth{keyName: keyName, privateKey: key}
	switch key.(type) {
	case *ecdsa.PrivateKey:
		a.alg = jose.ES256
	case ed25519.PrivateKey:
		a.alg = jose.EdDSA
	default:
		return nil, fmt.Errorf("unsupported private key type %T: must be ECDSA or Ed25519", key)
	}
	return a, nil
}

func parseKey(secret string) (crypto.Signer, error) {
	var der []byte
	if block, _ := pem.Decode([]byte(secret)); block != nil {
		der = block.Bytes
	} else {
		raw, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return nil, fmt.Errorf("key secret is neither PEM nor base64")
		}
		if len(raw) == ed25519.PrivateKeySize {
			return ed25519.PrivateKey(raw), nil
		}
		der = raw
	}

	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	signer, ok := parsed.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("unsupported private key type %T", parsed)
	}
	return signer, nil
}

// BearerToken signs a token authorizing method on host+path.
func (a *Auth) BearerToken(method, host, path string) (string, error) {
	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: a.alg, Key: a.privateKey},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", a.keyName),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create JWT signer: %w", err)
	}

	now := time.Now()
	claims := &Claims{
		Claims: &jwt.Claims{
			Subject:   a.keyName,
			Issuer:    "cdp",
			NotBefore: jwt.NewNumericDate(now),
			Expiry:    jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
		URI: fmt.Sprintf("%s %s%s", method, host, path),
	}

	token, err := jwt.Signed(sig).Claims(claims).CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to serialize JWT: %w", err)
	}
	return token, nil
}

// AuthorizationProvider returns a function producing an Authorization header
// value for each outgoing facilitator request. Signing failures yield an empty
// value so the facilitator rejects the call instead of the gate panicking.
func (a *Auth) AuthorizationProvider() func(*http.Request) string {
	return func(r *http.Request) string {
		token, err := a.BearerToken(r.Method, r.URL.Host, r.URL.Path)
		if err != nil {
			return ""
		}
		return "Bearer " + token
	}
}
