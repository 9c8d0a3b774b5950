package visionchat

import (
	"errors"
	"fmt"
)

// ErrEmptyRequest is returned when GenerateResponse is called with no messages
// to send. At least one message must be present after translation.
var ErrEmptyRequest = errors.New("empty request: at least one message required")

// ConfigurationErr is returned by Initialize when the supplied DriverConfig is
// missing a mandatory field or contains an out-of-range value. This can include:
//   - Missing API key
//   - Temperature outside [0, 2]
//   - Non-positive max tokens
//
// The string value contains details about the specific configuration problem.
type ConfigurationErr string

func (c ConfigurationErr) Error() string {
	return fmt.Sprintf("configuration error: %s", string(c))
}

// UnsupportedProviderErr is returned by Resolve when the requested provider
// name is not a registered driver. The string value is the requested name.
type UnsupportedProviderErr string

func (u UnsupportedProviderErr) Error() string {
	return fmt.Sprintf("unsupported provider: %s", string(u))
}

// UnsupportedCapabilityErr is returned when a driver is asked for a capability
// it does not implement, such as vision formatting on a text-only driver.
// Drivers fail with this error rather than silently degrading to text-only.
type UnsupportedCapabilityErr string

func (u UnsupportedCapabilityErr) Error() string {
	return fmt.Sprintf("unsupported capability: %s", string(u))
}

// ProviderErr wraps any transport-level failure surfaced by a driver: a
// non-2xx status, a malformed stream, or a network fault. The underlying
// cause, when present, is preserved and available through Unwrap.
type ProviderErr struct {
	// Provider is the registry name of the driver that failed
	Provider string
	// StatusCode is the HTTP status of the failed request, if one was received
	StatusCode int
	// Message carries vendor diagnostic detail, such as a response body excerpt
	Message string
	// Cause is the underlying transport error, if any
	Cause error
}

func (p *ProviderErr) Error() string {
	switch {
	case p.StatusCode != 0:
		return fmt.Sprintf("%s: request failed with status %d: %s", p.Provider, p.StatusCode, p.Message)
	case p.Cause != nil:
		return fmt.Sprintf("%s: %v", p.Provider, p.Cause)
	default:
		return fmt.Sprintf("%s: %s", p.Provider, p.Message)
	}
}

// Unwrap returns the underlying transport error
func (p *ProviderErr) Unwrap() error {
	return p.Cause
}
