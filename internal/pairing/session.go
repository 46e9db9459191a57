package pairing

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Mode selects the linking flow of a session.
type Mode string

const (
	ModeQR          Mode = "qr"
	ModePairingCode Mode = "pairing_code"
)

// OutcomeKind tells which of the possible answers a session produced.
type OutcomeKind string

const (
	OutcomeCode        OutcomeKind = "code"
	OutcomeQR          OutcomeKind = "qr"
	OutcomeCredentials OutcomeKind = "credentials"
	OutcomeError       OutcomeKind = "error"
)

// Artifact is a credential file ready to hand to the caller.
type Artifact struct {
	Body        []byte
	ContentType string
	FileName    string
}

// Outcome is the single answer of a session.
type Outcome struct {
	Kind     OutcomeKind
	Code     string
	QR       string
	Artifact *Artifact
	Err      error
}

// responseSlot holds at most one Outcome. The first Fill wins; later calls
// report false and change nothing.
type responseSlot struct {
	filled atomic.Bool
	ch     chan Outcome
}

func newResponseSlot() *responseSlot {
	return &responseSlot{ch: make(chan Outcome, 1)}
}

func (r *responseSlot) Fill(o Outcome) bool {
	if !r.filled.CompareAndSwap(false, true) {
		return false
	}
	r.ch <- o
	return true
}

func (r *responseSlot) Filled() bool {
	return r.filled.Load()
}

// Request starts a session. Phone must already be normalized in
// pairing-code mode.
type Request struct {
	Mode  Mode
	Phone string
}

// Snapshot is a point-in-time copy of a live session. Deadline is nil once
// a code or QR has been issued.
type Snapshot struct {
	ID           string     `json:"id"`
	Mode         Mode       `json:"mode"`
	State        State      `json:"state"`
	Attempts     int        `json:"attempts"`
	QR           string     `json:"qr,omitempty"`
	Code         string     `json:"code,omitempty"`
	ResponseSent bool       `json:"response_sent"`
	CreatedAt    time.Time  `json:"created_at"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

// Summary is published once a session reaches a terminal state.
type Summary struct {
	ID         string
	Mode       Mode
	State      State
	Attempts   int
	Outcome    OutcomeKind
	Delivery   string // response, self, discarded or empty
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Event is an entry of a session's queue. Attempt is zero for events raised
// by the session's own timers.
type Event struct {
	Kind    EventKind
	Attempt int
	QR      string
	Code    string
	Reason  DisconnectReason
	Err     error
}

// Session is one linking attempt tied to one HTTP request. All state
// changes happen on the session's own goroutine; other goroutines only
// read Snapshot, wait on Response or call Abandon.
type Session struct {
	id      string
	mode    Mode
	phone   string
	dir     string
	created time.Time

	orch   *Orchestrator
	slot   *responseSlot
	events chan Event
	done   chan struct{}

	mu         sync.RWMutex
	state      State
	attempt    int
	deadline   time.Time
	latestQR   string
	latestCode string

	// owned by the run goroutine
	conn          Conn
	cancelAttempt context.CancelFunc
	credsSeen     bool
	graceExtended bool
	delivery      string
	answered      OutcomeKind
	err           error
	timers        sessionTimers
	cleanupOnce   sync.Once
}

// ID returns the session identifier, which also names its directory.
func (s *Session) ID() string { return s.id }

// Mode returns the linking flow of the session.
func (s *Session) Mode() Mode { return s.mode }

// Response delivers the single Outcome of the session.
func (s *Session) Response() <-chan Outcome {
	return s.slot.ch
}

// Done is closed after cleanup has run.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Abandon tells the session nobody waits for its answer anymore. A session
// that already answered keeps running toward its credentials.
func (s *Session) Abandon() {
	if !s.slot.Fill(Outcome{Kind: OutcomeError, Err: ErrAbandoned}) {
		return
	}
	select {
	case s.events <- Event{Kind: EventAbandoned, Err: ErrAbandoned}:
	case <-s.done:
	}
}

// Snapshot returns the current public view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		ID:           s.id,
		Mode:         s.mode,
		State:        s.state,
		Attempts:     s.attempt,
		QR:           s.latestQR,
		Code:         s.latestCode,
		ResponseSent: s.slot.Filled(),
		CreatedAt:    s.created,
	}
	if !s.deadline.IsZero() {
		d := s.deadline
		snap.Deadline = &d
	}
	return snap
}

func (s *Session) currentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) currentAttempt() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempt
}
