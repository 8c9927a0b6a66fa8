package client

import (
	"errors"
	"fmt"
)

const maxErrorBody = 512

var (
	ErrMissingCredentials = errors.New("missing_connector_credentials")
	ErrMissingUUID        = errors.New("missing_document_uuid")
	ErrMissingReason      = errors.New("missing_cancel_reason")
)

// HTTPError is a non-2xx answer from the authority.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Method     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d %s: %s", e.Method, e.URL, e.StatusCode, e.Status, truncate(e.Body))
}

// TransportError covers network failures, timeouts and undecodable bodies.
// The operation may be retried later; it is never a rejection.
type TransportError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("eta transport error: %s (status %d): %v: %s", e.URL, e.StatusCode, e.Err, truncate(e.Body))
	}
	return fmt.Sprintf("eta transport error: %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable is always true for transport failures.
func (e *TransportError) Retryable() bool { return true }

// AuthenticationError is raised when the identity service refuses the
// credentials or answers without an access token.
type AuthenticationError struct {
	Connector  string
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationError) Error() string {
	msg := fmt.Sprintf("eta authentication failed for connector %q", e.Connector)
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func (e *AuthenticationError) AuthenticationFailure() bool { return true }

// IsRetryable reports whether err is a transient failure worth another attempt.
func IsRetryable(err error) bool {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return true
	}
	var hErr *HTTPError
	if errors.As(err, &hErr) {
		return isRetryableStatus(hErr.StatusCode, DefaultRetryConfig().RetryableStatusCodes)
	}
	return false
}

func truncate(body string) string {
	if len(body) <= maxErrorBody {
		return body
	}
	return body[:maxErrorBody] + "..."
}
