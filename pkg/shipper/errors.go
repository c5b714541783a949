package shipper

import (
	"errors"
	"fmt"
)

// Error codes shared by all providers.
const (
	CodeConfiguration = "CONFIGURATION"
	CodeAuth          = "AUTH"
	CodeUpstream      = "UPSTREAM"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeNotFound      = "NOT_FOUND"
	CodeRateMismatch  = "RATE_MISMATCH"
)

// ShipperError represents an error from a shipping provider.
type ShipperError struct {
	Carrier    string
	Code       string
	Message    string
	StatusCode int
	Body       string // Raw upstream response body, when available
	Cause      error
}

// Error implements the error interface.
func (e *ShipperError) Error() string {
	carrier := e.Carrier
	if carrier == "" {
		carrier = "shipper"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ShipperError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for ShipperError. Errors match by code.
func (e *ShipperError) Is(target error) bool {
	t, ok := target.(*ShipperError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewShipperError creates a new ShipperError.
func NewShipperError(carrier, code, message string) *ShipperError {
	return &ShipperError{
		Carrier: carrier,
		Code:    code,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *ShipperError) WithCause(err error) *ShipperError {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *ShipperError) WithStatusCode(code int) *ShipperError {
	e.StatusCode = code
	return e
}

// WithBody attaches the raw upstream response body.
func (e *ShipperError) WithBody(body string) *ShipperError {
	e.Body = body
	return e
}

// Sentinel errors, one per code. Match with errors.Is.
var (
	// ErrConfiguration indicates missing credentials or a missing required address/contact field.
	ErrConfiguration = NewShipperError("", CodeConfiguration, "not configured")

	// ErrAuth indicates the carrier token exchange failed.
	ErrAuth = NewShipperError("", CodeAuth, "authentication failed")

	// ErrUpstream indicates the carrier API returned a non-success status.
	ErrUpstream = NewShipperError("", CodeUpstream, "carrier request failed")

	// ErrInvalidInput indicates the request itself was unusable (e.g., no items).
	ErrInvalidInput = NewShipperError("", CodeInvalidInput, "invalid input")

	// ErrNotFound indicates a referenced host record does not exist.
	ErrNotFound = NewShipperError("", CodeNotFound, "not found")

	// ErrRateMismatch indicates rates were returned but none matched the requested service.
	ErrRateMismatch = NewShipperError("", CodeRateMismatch, "no rate for requested service")
)

// CodeOf returns the code of a ShipperError in err's chain, or "" if there is none.
func CodeOf(err error) string {
	var shipperErr *ShipperError
	if errors.As(err, &shipperErr) {
		return shipperErr.Code
	}
	return ""
}
