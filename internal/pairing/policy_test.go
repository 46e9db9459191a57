package pairing

import (
	"errors"
	"testing"
	"time"
)

func TestReconnectPolicyDecide(t *testing.T) {
	p := ReconnectPolicy{MaxAttempts: 3, BackoffBase: 2 * time.Second, BackoffMax: 10 * time.Second}

	tests := []struct {
		name      string
		reason    int
		attempt   int
		wantRetry bool
		wantDelay time.Duration
		wantErr   any
	}{
		{"transient first attempt", ReasonConnectionClosed, 1, true, 2 * time.Second, nil},
		{"transient second attempt", ReasonConnectionLost, 2, true, 4 * time.Second, nil},
		{"bound reached", ReasonConnectionClosed, 3, false, 0, &TransientConnectionError{}},
		{"logged out", ReasonLoggedOut, 1, false, 0, &PermanentRejectionError{}},
		{"replaced", ReasonConnectionReplaced, 1, false, 0, &PermanentRejectionError{}},
		{"banned", ReasonTempBanned, 2, false, 0, &PermanentRejectionError{}},
		{"restart required", ReasonRestartRequired, 1, true, 2 * time.Second, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := p.Decide(DisconnectReason{Code: tt.reason}, tt.attempt)
			if d.Retry != tt.wantRetry {
				t.Fatalf("Retry: got %v, want %v", d.Retry, tt.wantRetry)
			}
			if d.Delay != tt.wantDelay {
				t.Errorf("Delay: got %v, want %v", d.Delay, tt.wantDelay)
			}
			switch tt.wantErr.(type) {
			case nil:
				if d.Err != nil {
					t.Errorf("unexpected error: %v", d.Err)
				}
			case *TransientConnectionError:
				var te *TransientConnectionError
				if !errors.As(d.Err, &te) || te.Attempts != tt.attempt {
					t.Errorf("expected TransientConnectionError with attempts %d, got %v", tt.attempt, d.Err)
				}
			case *PermanentRejectionError:
				var pe *PermanentRejectionError
				if !errors.As(d.Err, &pe) || pe.Attempt != tt.attempt {
					t.Errorf("expected PermanentRejectionError at attempt %d, got %v", tt.attempt, d.Err)
				}
			}
		})
	}
}

func TestReconnectPolicyNeverExceedsBound(t *testing.T) {
	p := ReconnectPolicy{MaxAttempts: 4, BackoffBase: time.Millisecond, BackoffMax: time.Second}
	attempt := 1
	for {
		d := p.Decide(DisconnectReason{Code: ReasonConnectionClosed}, attempt)
		if !d.Retry {
			break
		}
		attempt++
		if attempt > p.MaxAttempts {
			t.Fatalf("policy authorized attempt %d beyond bound %d", attempt, p.MaxAttempts)
		}
	}
	if attempt != p.MaxAttempts {
		t.Errorf("stopped at attempt %d, want %d", attempt, p.MaxAttempts)
	}
}

func TestBackoffCapped(t *testing.T) {
	p := ReconnectPolicy{MaxAttempts: 100, BackoffBase: 2 * time.Second, BackoffMax: 10 * time.Second}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, w := range want {
		if got := p.Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d): got %v, want %v", i+1, got, w)
		}
	}
	if got := p.Backoff(90); got != 10*time.Second {
		t.Errorf("Backoff(90) must stay capped, got %v", got)
	}
	if got := (ReconnectPolicy{}).Backoff(3); got != 0 {
		t.Errorf("zero policy backoff: got %v", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"15551234567", "15551234567", false},
		{"+1 (555) 123-4567", "15551234567", false},
		{"234 801 234 5678", "2348012345678", false},
		{"abc", "", true},
		{"", "", true},
		{"5551234567", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.raw)
		if tt.wantErr {
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("NormalizePhone(%q): expected ValidationError, got %v", tt.raw, err)
				continue
			}
			if ve.Message != "Invalid phone number" {
				t.Errorf("message: got %q", ve.Message)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
		}
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewSessionID()
		if len(id) != 32 {
			t.Fatalf("unexpected id length %d: %s", len(id), id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestResponseSlotSingleAssignment(t *testing.T) {
	slot := newResponseSlot()
	if !slot.Fill(Outcome{Kind: OutcomeQR, QR: "first"}) {
		t.Fatal("first Fill must succeed")
	}
	if slot.Fill(Outcome{Kind: OutcomeQR, QR: "second"}) {
		t.Fatal("second Fill must be rejected")
	}
	got := <-slot.ch
	if got.QR != "first" {
		t.Errorf("slot kept %q, want first", got.QR)
	}
	select {
	case extra := <-slot.ch:
		t.Fatalf("slot produced a second outcome: %+v", extra)
	default:
	}
}
