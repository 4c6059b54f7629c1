package videogen

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("videogen: api key is required")

// ValidationError reports a request rejected locally before any remote call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("videogen: invalid %s: %s", e.Field, e.Reason)
}

// TransportError wraps a network-level failure while reaching the remote API.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("videogen: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError reports a failure produced by the remote service: a non-success
// HTTP reply or an error payload attached to the operation itself. StatusCode
// is zero for operation-level errors; Code carries the machine-readable
// status string when the service provides one.
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Code != "":
		return fmt.Sprintf("videogen: remote error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("videogen: remote error %d: %s", e.StatusCode, e.Message)
	case e.Code != "":
		return fmt.Sprintf("videogen: remote error (%s): %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("videogen: remote error: %s", e.Message)
	}
}

func (e *RemoteError) retryable() bool {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 {
		return true
	}
	switch e.Code {
	case "RESOURCE_EXHAUSTED", "UNAVAILABLE":
		return true
	}
	return false
}

// TimeoutError reports a polling budget exhausted before the operation
// reached a terminal state. The remote job may still finish later; only the
// local wait gave up.
type TimeoutError struct {
	OperationID string
	Elapsed     time.Duration
	Budget      time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("videogen: operation %s still pending after %s (budget %s)",
		e.OperationID, e.Elapsed.Round(time.Millisecond), e.Budget)
}

// CancelledError reports a wait abandoned because the caller's context ended.
type CancelledError struct {
	OperationID string
	Err         error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("videogen: wait for operation %s cancelled: %v", e.OperationID, e.Err)
}

func (e *CancelledError) Unwrap() error { return e.Err }

// IsRetryable reports whether a failed status poll may be retried. Transport
// failures and rate-limit or server-side remote replies recover on their own;
// everything else is terminal.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.retryable()
	}
	return false
}

// IsValidation reports whether err was raised locally, before any network
// traffic.
func IsValidation(err error) bool {
	if errors.Is(err, ErrMissingAPIKey) {
		return true
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}
