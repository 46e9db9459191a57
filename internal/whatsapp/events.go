package whatsapp

import (
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/nomfundokagwe/Creds.json-session-id/internal/pairing"
)

// translateEvent maps a whatsmeow event onto the session event stream.
// paired is true once the pairing handshake succeeded; the server then
// drops the socket and the client reconnects by itself, so a disconnect in
// that window is not a failure.
func translateEvent(evt any, paired bool) (pairing.ClientEvent, bool) {
	switch e := evt.(type) {
	case *events.PairSuccess:
		return pairing.ClientEvent{Kind: pairing.EventCredentialsUpdated}, true
	case *events.Connected:
		return pairing.ClientEvent{Kind: pairing.EventOpen}, true
	case *events.PairError:
		return closed(pairing.ReasonForbidden, fmt.Sprintf("pair error: %v", e.Error)), true
	case *events.LoggedOut:
		code := int(e.Reason)
		if code == 0 {
			code = pairing.ReasonLoggedOut
		}
		return closed(code, "logged out"), true
	case *events.ConnectFailure:
		return closed(int(e.Reason), e.Message), true
	case *events.StreamReplaced:
		return closed(pairing.ReasonConnectionReplaced, "stream replaced"), true
	case *events.TemporaryBan:
		return closed(pairing.ReasonTempBanned, e.String()), true
	case *events.ClientOutdated:
		return closed(pairing.ReasonClientOutdated, "client outdated"), true
	case *events.StreamError:
		return closed(pairing.ReasonBadSession, "stream error "+e.Code), true
	case *events.Disconnected:
		if paired {
			return pairing.ClientEvent{}, false
		}
		return closed(pairing.ReasonConnectionClosed, "disconnected"), true
	}
	return pairing.ClientEvent{}, false
}

// translateQRItem maps an item of the whatsmeow QR channel.
func translateQRItem(item whatsmeow.QRChannelItem) (pairing.ClientEvent, bool) {
	switch item.Event {
	case whatsmeow.QRChannelEventCode:
		return pairing.ClientEvent{Kind: pairing.EventQR, QR: item.Code}, true
	case whatsmeow.QRChannelSuccess.Event:
		// PairSuccess arrives through the event handler
		return pairing.ClientEvent{}, false
	case whatsmeow.QRChannelTimeout.Event:
		return closed(pairing.ReasonConnectionLost, "qr codes expired"), true
	case whatsmeow.QRChannelClientOutdated.Event:
		return closed(pairing.ReasonClientOutdated, "client outdated"), true
	}
	msg := item.Event
	if item.Error != nil {
		msg = fmt.Sprintf("%s: %v", item.Event, item.Error)
	}
	return closed(pairing.ReasonBadSession, msg), true
}

func closed(code int, msg string) pairing.ClientEvent {
	return pairing.ClientEvent{
		Kind:   pairing.EventClosed,
		Reason: pairing.DisconnectReason{Code: code, Message: msg},
	}
}

func eventType(evt any) string {
	return fmt.Sprintf("%T", evt)
}
