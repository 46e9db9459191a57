package pairing

import (
	"fmt"
	"time"
)

// Disconnect reason codes. They follow the status codes WhatsApp Web uses on
// stream and connect failures, so client adapters can pass them through.
const (
	ReasonLoggedOut          = 401
	ReasonTempBanned         = 402
	ReasonForbidden          = 403
	ReasonClientOutdated     = 405
	ReasonUnknownLogout      = 406
	ReasonConnectionLost     = 408
	ReasonBadUserAgent       = 409
	ReasonConnectionClosed   = 428
	ReasonConnectionReplaced = 440
	ReasonBadSession         = 500
	ReasonServiceUnavailable = 503
	ReasonRestartRequired    = 515
)

// DisconnectReason describes why a connection attempt ended.
type DisconnectReason struct {
	Code    int
	Message string
}

func (r DisconnectReason) String() string {
	if r.Message == "" {
		return fmt.Sprintf("%d", r.Code)
	}
	return fmt.Sprintf("%d %s", r.Code, r.Message)
}

var permanentReasons = map[int]struct{}{
	ReasonLoggedOut:          {},
	ReasonTempBanned:         {},
	ReasonForbidden:          {},
	ReasonClientOutdated:     {},
	ReasonUnknownLogout:      {},
	ReasonBadUserAgent:       {},
	ReasonConnectionReplaced: {},
}

// IsPermanent reports whether reconnecting after r can never succeed.
func IsPermanent(r DisconnectReason) bool {
	_, ok := permanentReasons[r.Code]
	return ok
}

// Decision is the outcome of ReconnectPolicy.Decide.
type Decision struct {
	Retry bool
	Delay time.Duration
	// Err is set when Retry is false.
	Err error
}

// ReconnectPolicy bounds reconnect attempts and spaces them with capped
// exponential backoff.
type ReconnectPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Decide returns whether to retry after attempt (1-based) ended with reason.
// It never authorizes an attempt numbered above MaxAttempts.
func (p ReconnectPolicy) Decide(reason DisconnectReason, attempt int) Decision {
	if IsPermanent(reason) {
		return Decision{Err: &PermanentRejectionError{Reason: reason, Attempt: attempt}}
	}
	if attempt >= p.MaxAttempts {
		return Decision{Err: &TransientConnectionError{Reason: reason, Attempts: attempt}}
	}
	return Decision{Retry: true, Delay: p.Backoff(attempt)}
}

// Backoff returns the wait before the attempt following attempt:
// BackoffBase doubled per previous attempt, capped at BackoffMax.
func (p ReconnectPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.BackoffBase <= 0 {
		return 0
	}
	d := p.BackoffBase
	for i := 1; i < attempt; i++ {
		if d >= p.BackoffMax/2 {
			return p.BackoffMax
		}
		d *= 2
	}
	if p.BackoffMax > 0 && d > p.BackoffMax {
		return p.BackoffMax
	}
	return d
}
