package whatsapp

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/nomfundokagwe/Creds.json-session-id/internal/pairing"
)

func TestTranslateEvent(t *testing.T) {
	tests := []struct {
		name      string
		evt       any
		paired    bool
		wantOK    bool
		wantKind  pairing.EventKind
		wantCode  int
		permanent bool
	}{
		{"pair success", &events.PairSuccess{}, false, true, pairing.EventCredentialsUpdated, 0, false},
		{"connected", &events.Connected{}, true, true, pairing.EventOpen, 0, false},
		{"logged out", &events.LoggedOut{Reason: events.ConnectFailureLoggedOut}, false, true, pairing.EventClosed, 401, true},
		{"logged out without reason", &events.LoggedOut{}, false, true, pairing.EventClosed, 401, true},
		{"replaced", &events.StreamReplaced{}, false, true, pairing.EventClosed, 440, true},
		{"pair error", &events.PairError{Error: errors.New("bad signature")}, false, true, pairing.EventClosed, 403, true},
		{"service unavailable", &events.ConnectFailure{Reason: events.ConnectFailureServiceUnavailable}, false, true, pairing.EventClosed, 503, false},
		{"stream error", &events.StreamError{Code: "500"}, false, true, pairing.EventClosed, 500, false},
		{"disconnected", &events.Disconnected{}, false, true, pairing.EventClosed, 428, false},
		{"disconnected after pairing", &events.Disconnected{}, true, false, "", 0, false},
		{"unrelated", &events.KeepAliveTimeout{}, false, false, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := translateEvent(tt.evt, tt.paired)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if ev.Kind != tt.wantKind {
				t.Errorf("Kind: got %s, want %s", ev.Kind, tt.wantKind)
			}
			if tt.wantKind != pairing.EventClosed {
				return
			}
			if ev.Reason.Code != tt.wantCode {
				t.Errorf("Code: got %d, want %d", ev.Reason.Code, tt.wantCode)
			}
			if pairing.IsPermanent(ev.Reason) != tt.permanent {
				t.Errorf("IsPermanent(%s): got %v, want %v", ev.Reason, !tt.permanent, tt.permanent)
			}
		})
	}
}

func TestTranslateQRItem(t *testing.T) {
	ev, ok := translateQRItem(whatsmeow.QRChannelItem{Event: whatsmeow.QRChannelEventCode, Code: "2@abc,def"})
	if !ok || ev.Kind != pairing.EventQR || ev.QR != "2@abc,def" {
		t.Errorf("code item: got %+v, %v", ev, ok)
	}
	if _, ok := translateQRItem(whatsmeow.QRChannelSuccess); ok {
		t.Error("success item must not produce an event")
	}
	ev, ok = translateQRItem(whatsmeow.QRChannelTimeout)
	if !ok || ev.Kind != pairing.EventClosed || pairing.IsPermanent(ev.Reason) {
		t.Errorf("timeout item: got %+v, %v", ev, ok)
	}
	ev, ok = translateQRItem(whatsmeow.QRChannelItem{Event: whatsmeow.QRChannelEventError, Error: errors.New("boom")})
	if !ok || ev.Kind != pairing.EventClosed || !strings.Contains(ev.Reason.Message, "boom") {
		t.Errorf("error item: got %+v, %v", ev, ok)
	}
}

func TestBrowserIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	kind, name := browserIdentity("chrome", "Windows", rng)
	if kind != whatsmeow.PairClientChrome || name != "Chrome (Windows)" {
		t.Errorf("chrome: got %v %q", kind, name)
	}
	kind, name = browserIdentity("lynx", "", rng)
	if kind != whatsmeow.PairClientSafari || name != "Safari (Mac OS)" {
		t.Errorf("fallback: got %v %q", kind, name)
	}
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		_, name := browserIdentity("random", "Mac OS", rng)
		seen[name] = true
	}
	if len(seen) != len(browsers) {
		t.Errorf("random should cover all browsers, saw %v", seen)
	}
}
