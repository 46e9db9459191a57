package pairing

import (
	"time"

	"go.uber.org/zap"
)

// finalize releases everything the session holds. It runs exactly once,
// whatever path ended the session.
func (s *Session) finalize() {
	s.cleanupOnce.Do(func() {
		s.timers.stopAll()
		s.closeConn()
		if err := s.orch.dirs.Release(s.id); err != nil {
			zap.L().Error("pairing: release session dir failed", zap.String("session", s.id), zap.Error(err))
		}
		if !s.slot.Filled() {
			err := s.err
			if err == nil {
				err = ErrShuttingDown
			}
			s.respond(Outcome{Kind: OutcomeError, Err: err})
		}
		summary := s.summary()
		s.orch.unregister(s.id)
		close(s.done)
		s.orch.publish(TopicSessionFinished, summary)
		zap.L().Debug("pairing: session cleaned up",
			zap.String("session", s.id),
			zap.String("state", string(summary.State)),
			zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)))
	})
}

// closeConn ends the current attempt and closes its connection.
func (s *Session) closeConn() {
	if s.cancelAttempt != nil {
		s.cancelAttempt()
		s.cancelAttempt = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			zap.L().Warn("pairing: close connection failed", zap.String("session", s.id), zap.Error(err))
		}
		s.conn = nil
	}
}

func (s *Session) summary() Summary {
	sum := Summary{
		ID:         s.id,
		Mode:       s.mode,
		State:      s.currentState(),
		Attempts:   s.currentAttempt(),
		Outcome:    s.answered,
		Delivery:   s.delivery,
		StartedAt:  s.created,
		FinishedAt: time.Now(),
	}
	if sum.Outcome == "" {
		sum.Outcome = OutcomeError
	}
	if s.err != nil {
		sum.Error = s.err.Error()
	}
	return sum
}
