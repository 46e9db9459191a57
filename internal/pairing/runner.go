package pairing

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type sessionTimers struct {
	deadline *time.Timer
	link     *time.Timer
	grace    *time.Timer
	backoff  *time.Timer
}

func arm(t **time.Timer, d time.Duration) {
	disarm(t)
	*t = time.NewTimer(d)
}

func disarm(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func (ts *sessionTimers) stopAll() {
	disarm(&ts.deadline)
	disarm(&ts.link)
	disarm(&ts.grace)
	disarm(&ts.backoff)
}

// run drives the session until it reaches a terminal state. Every exit,
// panics included, goes through finalize.
func (s *Session) run() {
	defer s.finalize()
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("pairing: session panic",
				zap.String("session", s.id),
				zap.Any("panic", rec),
				zap.Stack("stack"))
			s.fail(fmt.Errorf("pairing: session panic: %v", rec))
		}
	}()

	s.armDeadline(s.orch.opts.CodeTimeout)
	s.startAttempt()
	for !IsTerminal(s.currentState()) {
		select {
		case ev := <-s.events:
			s.handle(ev)
		case <-timerC(s.timers.deadline):
			s.timers.deadline = nil
			s.handle(Event{Kind: EventDeadline})
		case <-timerC(s.timers.link):
			s.timers.link = nil
			s.handle(Event{Kind: EventLinkTimeout})
		case <-timerC(s.timers.grace):
			s.timers.grace = nil
			s.handle(Event{Kind: EventGraceElapsed})
		case <-timerC(s.timers.backoff):
			s.timers.backoff = nil
			s.startAttempt()
		case <-s.orch.ctx.Done():
			s.handle(Event{Kind: EventFailed, Err: ErrShuttingDown})
		}
	}
}

// startAttempt closes the previous connection, if any, then dials a new one
// reusing the session directory.
func (s *Session) startAttempt() {
	s.closeConn()
	s.mu.Lock()
	s.attempt++
	attempt := s.attempt
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(s.orch.ctx)
	conn, err := s.orch.client.Dial(ctx, DialRequest{
		SessionID: s.id,
		Dir:       s.dir,
		WantQR:    s.mode == ModeQR,
		Sink: func(ce ClientEvent) {
			s.post(ctx, Event{Kind: ce.Kind, Attempt: attempt, QR: ce.QR, Reason: ce.Reason})
		},
	})
	if err != nil {
		cancel()
		zap.L().Error("pairing: dial failed", zap.String("session", s.id), zap.Int("attempt", attempt), zap.Error(err))
		s.handle(Event{Kind: EventFailed, Err: errors.Wrap(err, "dial")})
		return
	}
	s.conn, s.cancelAttempt = conn, cancel
	registered := conn.Registered()
	zap.L().Debug("pairing: attempt started",
		zap.String("session", s.id),
		zap.Int("attempt", attempt),
		zap.Bool("registered", registered))
	s.handle(Event{Kind: EventAttemptStarted, Attempt: attempt})
	go s.drive(ctx, attempt, conn, registered)
}

// drive connects and, in pairing-code mode on an unregistered store,
// requests the code. Results come back through the event queue.
func (s *Session) drive(ctx context.Context, attempt int, conn Conn, registered bool) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("pairing: attempt panic", zap.String("session", s.id), zap.Any("panic", rec))
			s.post(ctx, Event{Kind: EventClosed, Attempt: attempt,
				Reason: DisconnectReason{Code: ReasonBadSession, Message: fmt.Sprint(rec)}})
		}
	}()
	if err := conn.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.post(ctx, Event{Kind: EventClosed, Attempt: attempt,
			Reason: DisconnectReason{Code: ReasonConnectionClosed, Message: err.Error()}})
		return
	}
	if registered || s.mode != ModePairingCode {
		return
	}
	if d := s.orch.opts.PairCodeDelay; d > 0 {
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return
		}
	}
	code, err := conn.RequestPairingCode(ctx, s.phone)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.post(ctx, Event{Kind: EventClosed, Attempt: attempt,
			Reason: DisconnectReason{Code: ReasonBadSession, Message: "pairing code request: " + err.Error()}})
		return
	}
	s.post(ctx, Event{Kind: EventPairingCode, Attempt: attempt, Code: code})
}

// post queues ev unless its attempt or the session is already over.
func (s *Session) post(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	case <-s.done:
	}
}

func (s *Session) handle(ev Event) {
	if ev.Attempt != 0 && ev.Attempt != s.currentAttempt() {
		zap.L().Debug("pairing: stale event discarded",
			zap.String("session", s.id),
			zap.String("event", string(ev.Kind)),
			zap.Int("event_attempt", ev.Attempt))
		return
	}
	switch ev.Kind {
	case EventClosed:
		if _, err := ValidateTransition(s.currentState(), EventClosed); err != nil {
			s.discard(ev)
			return
		}
		attempt := s.currentAttempt()
		d := s.orch.opts.Policy.Decide(ev.Reason, attempt)
		if !d.Retry {
			zap.L().Warn("pairing: connection closed, not retrying",
				zap.String("session", s.id),
				zap.Int("attempt", attempt),
				zap.Stringer("reason", ev.Reason))
			s.apply(Event{Kind: EventFailed, Err: d.Err})
			return
		}
		zap.L().Info("pairing: connection closed, reconnecting",
			zap.String("session", s.id),
			zap.Int("attempt", attempt),
			zap.Stringer("reason", ev.Reason),
			zap.Duration("backoff", d.Delay))
		s.apply(ev)
		s.closeConn()
		arm(&s.timers.backoff, d.Delay)
		return
	case EventGraceElapsed:
		if !s.credsSeen && !s.graceExtended && s.currentState() == StateConnected {
			s.graceExtended = true
			zap.L().Debug("pairing: credentials not confirmed yet, extending grace", zap.String("session", s.id))
			arm(&s.timers.grace, s.orch.opts.FinalizeGrace)
			return
		}
	}
	s.apply(ev)
}

func (s *Session) discard(ev Event) {
	zap.L().Debug("pairing: event discarded",
		zap.String("session", s.id),
		zap.String("state", string(s.currentState())),
		zap.String("event", string(ev.Kind)))
}

// apply moves the machine along a legal transition and runs the entry
// actions of the target state. Illegal events are discarded.
func (s *Session) apply(ev Event) bool {
	from := s.currentState()
	to, err := ValidateTransition(from, ev.Kind)
	if err != nil {
		s.discard(ev)
		return false
	}
	s.mu.Lock()
	s.state = to
	s.mu.Unlock()
	if from != to {
		zap.L().Debug("pairing: transition",
			zap.String("session", s.id),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.String("event", string(ev.Kind)))
	}
	if ev.Kind == EventCredentialsUpdated {
		s.credsSeen = true
		return true
	}
	s.enter(from, to, ev)
	return true
}

func (s *Session) enter(from, to State, ev Event) {
	opts := s.orch.opts
	switch to {
	case StateInitiating:
		disarm(&s.timers.grace)
		s.graceExtended = false
		// a reconnect keeps the session bounded by whichever clock applies
		if s.slot.Filled() {
			if s.timers.link == nil {
				arm(&s.timers.link, opts.LinkTimeout)
			}
		} else if s.timers.deadline == nil {
			s.armDeadline(opts.CodeTimeout)
		}

	case StateQRIssued:
		s.mu.Lock()
		s.latestQR = ev.QR
		s.mu.Unlock()
		s.clearDeadline()
		if s.respond(Outcome{Kind: OutcomeQR, QR: ev.QR}) {
			zap.L().Info("pairing: qr issued", zap.String("session", s.id), zap.Int("attempt", ev.Attempt))
			arm(&s.timers.link, opts.LinkTimeout)
		} else {
			zap.L().Debug("pairing: qr refreshed", zap.String("session", s.id), zap.Bool("same_attempt", from == to))
		}
		s.orch.publish(TopicQRIssued, s.id, ev.QR)

	case StatePairingCodeIssued:
		s.mu.Lock()
		s.latestCode = ev.Code
		s.mu.Unlock()
		s.clearDeadline()
		if s.respond(Outcome{Kind: OutcomeCode, Code: ev.Code}) {
			zap.L().Info("pairing: pairing code issued", zap.String("session", s.id), zap.Int("attempt", ev.Attempt))
			arm(&s.timers.link, opts.LinkTimeout)
		} else {
			zap.L().Debug("pairing: pairing code refreshed", zap.String("session", s.id))
		}

	case StateConnected:
		s.clearDeadline()
		disarm(&s.timers.link)
		arm(&s.timers.grace, opts.FinalizeGrace)
		zap.L().Info("pairing: link open", zap.String("session", s.id), zap.Int("attempt", s.currentAttempt()))

	case StateFinalizing:
		if err := s.deliver(); err != nil {
			zap.L().Error("pairing: credential delivery failed", zap.String("session", s.id), zap.Error(err))
			s.apply(Event{Kind: EventFailed, Err: err})
			return
		}
		s.apply(Event{Kind: EventDelivered})

	case StateTimedOut:
		terr := &TimeoutError{Phase: "code", After: opts.CodeTimeout}
		if ev.Kind == EventLinkTimeout {
			terr = &TimeoutError{Phase: "link", After: opts.LinkTimeout}
		}
		s.err = terr
		s.respond(Outcome{Kind: OutcomeError, Err: terr})
		zap.L().Warn("pairing: session timed out", zap.String("session", s.id), zap.String("phase", terr.Phase))

	case StateClosedError:
		s.err = ev.Err
		if !s.respond(Outcome{Kind: OutcomeError, Err: ev.Err}) {
			zap.L().Warn("pairing: session failed after response", zap.String("session", s.id), zap.Error(ev.Err))
		} else {
			zap.L().Warn("pairing: session failed", zap.String("session", s.id), zap.Error(ev.Err))
		}

	case StateClosed:
		zap.L().Info("pairing: session complete",
			zap.String("session", s.id),
			zap.String("delivery", s.delivery),
			zap.Int("attempts", s.currentAttempt()))
	}
}

// fail forces the session into CLOSED_ERROR outside the transition table.
// Only used when the run loop itself broke.
func (s *Session) fail(err error) {
	s.mu.Lock()
	s.state = StateClosedError
	s.mu.Unlock()
	s.err = err
	s.respond(Outcome{Kind: OutcomeError, Err: err})
}

// respond fills the response slot and stops the issuance deadline.
func (s *Session) respond(o Outcome) bool {
	if !s.slot.Fill(o) {
		return false
	}
	s.answered = o.Kind
	s.clearDeadline()
	return true
}

func (s *Session) armDeadline(d time.Duration) {
	arm(&s.timers.deadline, d)
	s.mu.Lock()
	s.deadline = time.Now().Add(d)
	s.mu.Unlock()
}

func (s *Session) clearDeadline() {
	disarm(&s.timers.deadline)
	s.mu.Lock()
	s.deadline = time.Time{}
	s.mu.Unlock()
}
