package pairing

import (
	"errors"
	"testing"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		event   EventKind
		want    State
		wantErr bool
	}{
		{"attempt started", StateInitiating, EventAttemptStarted, StateAwaitingCode, false},
		{"qr issued", StateAwaitingCode, EventQR, StateQRIssued, false},
		{"code issued", StateAwaitingCode, EventPairingCode, StatePairingCodeIssued, false},
		{"registered store opens directly", StateAwaitingCode, EventOpen, StateConnected, false},
		{"qr refresh", StateQRIssued, EventQR, StateQRIssued, false},
		{"qr after code ignored", StatePairingCodeIssued, EventQR, "", true},
		{"second open ignored", StateConnected, EventOpen, "", true},
		{"close retries", StateQRIssued, EventClosed, StateInitiating, false},
		{"deadline before code", StateAwaitingCode, EventDeadline, StateTimedOut, false},
		{"deadline after qr ignored", StateQRIssued, EventDeadline, "", true},
		{"deadline during backoff", StateInitiating, EventDeadline, StateTimedOut, false},
		{"grace to finalizing", StateConnected, EventGraceElapsed, StateFinalizing, false},
		{"delivered", StateFinalizing, EventDelivered, StateClosed, false},
		{"abandon while connected ignored", StateConnected, EventAbandoned, "", true},
		{"failure from finalizing", StateFinalizing, EventFailed, StateClosedError, false},
		{"stray event after close", StateClosed, EventOpen, "", true},
		{"no exit from timeout", StateTimedOut, EventAttemptStarted, "", true},
		{"no exit from error", StateClosedError, EventFailed, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateTransition(tt.from, tt.event)
			if tt.wantErr {
				if !errors.Is(err, ErrIllegalTransition) {
					t.Fatalf("expected ErrIllegalTransition, got %v (state %s)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, s := range []State{StateClosed, StateClosedError, StateTimedOut} {
		if !IsTerminal(s) {
			t.Errorf("%s should be terminal", s)
		}
		if _, ok := transitionTable[s]; ok {
			t.Errorf("%s must not have outgoing transitions", s)
		}
	}
	for from, events := range transitionTable {
		if IsTerminal(from) {
			continue
		}
		if _, ok := events[EventFailed]; !ok {
			t.Errorf("%s must accept %s", from, EventFailed)
		}
	}
}
