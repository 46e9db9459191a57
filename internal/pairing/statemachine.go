package pairing

import "errors"

// State is the lifecycle state of one linking session.
type State string

const (
	StateInitiating        State = "INITIATING"          // building a connection attempt
	StateAwaitingCode      State = "AWAITING_CODE"       // attempt live, no QR or code yet
	StateQRIssued          State = "QR_ISSUED"           // QR payload produced
	StatePairingCodeIssued State = "PAIRING_CODE_ISSUED" // pairing code produced
	StateConnected         State = "CONNECTED"           // link open, waiting for credentials to settle
	StateFinalizing        State = "FINALIZING"          // reading and delivering the credential file
	StateClosed            State = "CLOSED"              // finished successfully (terminal)
	StateClosedError       State = "CLOSED_ERROR"        // finished with an error (terminal)
	StateTimedOut          State = "TIMED_OUT"           // deadline elapsed (terminal)
)

// EventKind identifies an entry of the session event queue. Some come from
// the messaging client, the rest from the session's own timers.
type EventKind string

const (
	EventAttemptStarted     EventKind = "ATTEMPT_STARTED"     // connection constructed
	EventQR                 EventKind = "QR"                  // client emitted a QR payload
	EventPairingCode        EventKind = "PAIRING_CODE"        // pairing code returned
	EventCredentialsUpdated EventKind = "CREDENTIALS_UPDATED" // client persisted new auth state
	EventOpen               EventKind = "OPEN"                // link confirmed
	EventClosed             EventKind = "CLOSED"              // connection closed with a reason
	EventDeadline           EventKind = "DEADLINE"            // no code/QR in time
	EventGraceElapsed       EventKind = "GRACE_ELAPSED"       // finalize grace interval over
	EventLinkTimeout        EventKind = "LINK_TIMEOUT"        // nobody scanned or typed the code
	EventDelivered          EventKind = "DELIVERED"           // credential outcome handed over
	EventFailed             EventKind = "FAILED"              // fatal error
	EventAbandoned          EventKind = "ABANDONED"           // caller went away before an answer
)

// ErrIllegalTransition is returned for an event the current state does not accept.
var ErrIllegalTransition = errors.New("pairing: illegal state transition")

var transitionTable = map[State]map[EventKind]State{
	StateInitiating: {
		EventAttemptStarted: StateAwaitingCode,
		EventDeadline:       StateTimedOut,
		EventLinkTimeout:    StateTimedOut,
		EventFailed:         StateClosedError,
		EventAbandoned:      StateClosedError,
	},
	StateAwaitingCode: {
		EventQR:                 StateQRIssued,
		EventPairingCode:        StatePairingCodeIssued,
		EventCredentialsUpdated: StateAwaitingCode,
		EventOpen:               StateConnected,
		EventClosed:             StateInitiating,
		EventDeadline:           StateTimedOut,
		EventLinkTimeout:        StateTimedOut,
		EventFailed:             StateClosedError,
		EventAbandoned:          StateClosedError,
	},
	StateQRIssued: {
		EventQR:                 StateQRIssued,
		EventCredentialsUpdated: StateQRIssued,
		EventOpen:               StateConnected,
		EventClosed:             StateInitiating,
		EventLinkTimeout:        StateTimedOut,
		EventFailed:             StateClosedError,
		EventAbandoned:          StateClosedError,
	},
	StatePairingCodeIssued: {
		EventCredentialsUpdated: StatePairingCodeIssued,
		EventOpen:               StateConnected,
		EventClosed:             StateInitiating,
		EventLinkTimeout:        StateTimedOut,
		EventFailed:             StateClosedError,
		EventAbandoned:          StateClosedError,
	},
	StateConnected: {
		EventCredentialsUpdated: StateConnected,
		EventGraceElapsed:       StateFinalizing,
		EventClosed:             StateInitiating,
		EventFailed:             StateClosedError,
	},
	StateFinalizing: {
		EventDelivered: StateClosed,
		EventFailed:    StateClosedError,
	},
}

// ValidateTransition returns the state reached from current on event, or
// ErrIllegalTransition when the pair is not in the table.
func ValidateTransition(current State, event EventKind) (State, error) {
	if IsTerminal(current) {
		return "", ErrIllegalTransition
	}
	events, ok := transitionTable[current]
	if !ok {
		return "", ErrIllegalTransition
	}
	next, ok := events[event]
	if !ok {
		return "", ErrIllegalTransition
	}
	return next, nil
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s State) bool {
	return s == StateClosed || s == StateClosedError || s == StateTimedOut
}
