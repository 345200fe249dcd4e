package x402

import "errors"

// Sentinel errors for gate operations.
var (
	// ErrMalformedAmount indicates a decimal or atomic amount that cannot be converted exactly.
	ErrMalformedAmount = errors.New("x402: malformed amount")

	// ErrUnsupportedNetwork indicates a network name or chain ID the gate does not know.
	ErrUnsupportedNetwork = errors.New("x402: unsupported network")

	// ErrInvalidConfig indicates a route configuration that cannot be activated.
	ErrInvalidConfig = errors.New("x402: invalid configuration")

	// ErrUnresolvableResource indicates a request from which no resource URL can be derived.
	ErrUnresolvableResource = errors.New("x402: cannot derive resource from request")

	// ErrFacilitatorUnavailable indicates the facilitator could not be reached.
	ErrFacilitatorUnavailable = errors.New("x402: facilitator service unavailable")

	// ErrFacilitatorTimeout indicates the facilitator did not answer within the route timeout.
	ErrFacilitatorTimeout = errors.New("x402: facilitator timeout")

	// ErrInvalidFacilitatorResponse indicates a non-2xx status or an undecodable body.
	ErrInvalidFacilitatorResponse = errors.New("x402: invalid facilitator response")
)

// ConfigError reports a route configuration problem. It always matches
// ErrInvalidConfig with errors.Is and also unwraps to its cause, if any.
type ConfigError struct {
	// Field is the configuration option at fault (e.g., "asset_decimals").
	Field string

	// Message is the human-readable description.
	Message string

	// Err is the underlying error.
	Err error
}

// NewConfigError creates a ConfigError for the given field.
func NewConfigError(field, message string, err error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Err: err}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "x402: invalid configuration"
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrInvalidConfig and the underlying error.
func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidConfig, e.Err}
	}
	return []error{ErrInvalidConfig}
}
