package pairing

//go:generate mockgen -source=interfaces.go -destination=mock_interfaces.go -package=pairing

import (
	"context"
)

// ClientEvent is what a messaging client reports about one connection.
// Only Kind values EventQR, EventCredentialsUpdated, EventOpen and
// EventClosed are meaningful here.
type ClientEvent struct {
	Kind   EventKind
	QR     string
	Reason DisconnectReason
}

// DialRequest describes the connection a session wants.
type DialRequest struct {
	SessionID string
	// Dir is the session directory the client persists its auth state into.
	Dir string
	// WantQR is false in pairing-code mode; QR payloads are then not reported.
	WantQR bool
	// Sink receives the connection's events in delivery order.
	Sink func(ClientEvent)
}

// Client builds connections to the messaging network.
type Client interface {
	Dial(ctx context.Context, req DialRequest) (Conn, error)
}

// Conn is one connection attempt. Close must be idempotent.
type Conn interface {
	// Registered reports whether the auth state already belongs to a linked device.
	Registered() bool
	Connect(ctx context.Context) error
	RequestPairingCode(ctx context.Context, phone string) (string, error)
	Close() error
}

// SelfMessenger is implemented by connections that can message the linked
// account's own chat.
type SelfMessenger interface {
	MessageSelf(ctx context.Context, text string) error
	SendDocumentToSelf(ctx context.Context, fileName, mimeType string, data []byte) error
}

// DirectoryManager scopes a storage directory to a session id.
type DirectoryManager interface {
	Acquire(id string) (string, error)
	Release(id string) error
}
