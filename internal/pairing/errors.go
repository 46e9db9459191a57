package pairing

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCapacity is returned by Start when every session slot is taken.
	ErrCapacity = errors.New("pairing: too many concurrent sessions")
	// ErrShuttingDown is returned by Start after Shutdown, and ends live sessions.
	ErrShuttingDown = errors.New("pairing: orchestrator shutting down")
	// ErrAbandoned ends a session whose caller went away before an answer.
	ErrAbandoned = errors.New("pairing: request abandoned by caller")
)

// ValidationError reports caller input rejected before any session exists.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field=%s, message=%s", e.Field, e.Message)
}

// TimeoutError reports a session that ran out of time. Phase is "code" when
// no QR or pairing code was produced in time, "link" when nobody completed
// the link afterwards.
type TimeoutError struct {
	Phase string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pairing timeout: phase=%s, after=%s", e.Phase, e.After)
}

// TransientConnectionError reports retryable disconnects that outlasted the
// attempt bound.
type TransientConnectionError struct {
	Reason   DisconnectReason
	Attempts int
}

func (e *TransientConnectionError) Error() string {
	return fmt.Sprintf("connection failed: attempts=%d, last=%s", e.Attempts, e.Reason)
}

// PermanentRejectionError reports a disconnect that must not be retried.
type PermanentRejectionError struct {
	Reason  DisconnectReason
	Attempt int
}

func (e *PermanentRejectionError) Error() string {
	return fmt.Sprintf("connection rejected: attempt=%d, reason=%s", e.Attempt, e.Reason)
}

// CredentialMissingError reports a link that completed without a readable
// credential file in the session directory.
type CredentialMissingError struct {
	Path  string
	Cause error
}

func (e *CredentialMissingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("credential file missing: path=%s, cause=%v", e.Path, e.Cause)
	}
	return fmt.Sprintf("credential file missing: path=%s", e.Path)
}

func (e *CredentialMissingError) Unwrap() error {
	return e.Cause
}
