package meteofrance

import (
	"errors"
	"fmt"
)

// ErrNoData reports that the API answered 404: the product exists but nothing
// is currently published for it.
var ErrNoData = errors.New("no data published")

// ConfigurationError is returned by constructors when the client settings are
// missing or malformed. No request is ever sent with an invalid configuration.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("meteofrance: invalid configuration: %s: %s", e.Field, e.Reason)
}

// AuthError is returned when the API rejects the credential (HTTP 401 or 403),
// either on a data request or on the application id token exchange.
type AuthError struct {
	StatusCode int
	Code       string // API error code, e.g. "900901" for an invalid JWT
	Message    string
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("meteofrance: authentication failed: status %d: code %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("meteofrance: authentication failed: status %d: %s", e.StatusCode, e.Message)
}

// UpstreamError covers every other failure of a request: non-2xx status,
// transport error or timeout, and payloads that do not have the expected shape.
// StatusCode is 0 when no response was received.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("meteofrance: %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("meteofrance: %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("meteofrance: %s: %v", e.Endpoint, e.Err)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is, or wraps, an *AuthError.
func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsUpstreamError reports whether err is, or wraps, an *UpstreamError.
func IsUpstreamError(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

// IsConfigurationError reports whether err is, or wraps, a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
