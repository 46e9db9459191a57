package whatsapp

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.mau.fi/whatsmeow"
	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/nomfundokagwe/Creds.json-session-id/internal/pairing"
)

// conn is one whatsmeow client bound to one session store.
type conn struct {
	cli         *whatsmeow.Client
	db          *sql.DB
	sessionID   string
	credsPath   string
	wantQR      bool
	sink        func(pairing.ClientEvent)
	clientType  whatsmeow.PairClientType
	displayName string
	handlerID   uint32

	paired    atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
}

func (c *conn) Registered() bool {
	return c.cli.Store.ID != nil
}

// Connect opens the websocket. In QR mode on a fresh store the rotating QR
// codes are forwarded as they come.
func (c *conn) Connect(ctx context.Context) error {
	if c.wantQR && !c.Registered() {
		qrCh, err := c.cli.GetQRChannel(ctx)
		if err != nil {
			return errors.Wrap(err, "get qr channel")
		}
		go c.forwardQR(qrCh)
	}
	if err := c.cli.Connect(); err != nil {
		zap.L().Warn("whatsapp: client connect failed", zap.Error(err), zap.String("session", c.sessionID))
		return err
	}
	return nil
}

func (c *conn) forwardQR(qrCh <-chan whatsmeow.QRChannelItem) {
	for item := range qrCh {
		if ev, ok := translateQRItem(item); ok {
			c.emit(ev)
		}
	}
}

// RequestPairingCode asks the server for a code linking the phone number.
func (c *conn) RequestPairingCode(ctx context.Context, phone string) (string, error) {
	code, err := c.cli.PairPhone(ctx, phone, true, c.clientType, c.displayName)
	if err != nil {
		zap.L().Warn("whatsapp: pair phone failed", zap.Error(err), zap.String("session", c.sessionID))
		return "", err
	}
	zap.L().Info("whatsapp: pairing code received", zap.String("session", c.sessionID), zap.Int("code_len", len(code)))
	return code, nil
}

// MessageSelf sends a text to the linked account's own chat.
func (c *conn) MessageSelf(ctx context.Context, text string) error {
	if c.cli.Store.ID == nil {
		return errors.New("whatsapp: device not linked")
	}
	msg := &waE2E.Message{Conversation: proto.String(text)}
	if _, err := c.cli.SendMessage(ctx, c.cli.Store.ID.ToNonAD(), msg); err != nil {
		return errors.Wrap(err, "send self message")
	}
	return nil
}

// SendDocumentToSelf uploads data and sends it as a document to the linked
// account's own chat.
func (c *conn) SendDocumentToSelf(ctx context.Context, fileName, mimeType string, data []byte) error {
	if c.cli.Store.ID == nil {
		return errors.New("whatsapp: device not linked")
	}
	up, err := c.cli.Upload(ctx, data, whatsmeow.MediaDocument)
	if err != nil {
		return errors.Wrap(err, "upload document")
	}
	msg := &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(up.FileLength),
		Mimetype:      proto.String(mimeType),
		FileName:      proto.String(fileName),
		Title:         proto.String(fileName),
	}}
	if _, err := c.cli.SendMessage(ctx, c.cli.Store.ID.ToNonAD(), msg); err != nil {
		return errors.Wrap(err, "send document")
	}
	return nil
}

// Close disconnects and closes the store. Safe to call more than once.
func (c *conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cli.RemoveEventHandler(c.handlerID)
		c.cli.Disconnect()
		err = c.db.Close()
	})
	return err
}

func (c *conn) emit(ev pairing.ClientEvent) {
	if c.closed.Load() || c.sink == nil {
		return
	}
	c.sink(ev)
}

func (c *conn) handleEvent(evt any) {
	switch evt.(type) {
	case *events.PairSuccess:
		c.paired.Store(true)
		if err := c.persistCredentials(); err != nil {
			zap.L().Error("whatsapp: write credentials failed", zap.Error(err), zap.String("session", c.sessionID))
			return
		}
	case *events.Connected:
		if c.Registered() {
			if err := c.persistCredentials(); err != nil {
				zap.L().Error("whatsapp: write credentials failed", zap.Error(err), zap.String("session", c.sessionID))
			} else {
				c.emit(pairing.ClientEvent{Kind: pairing.EventCredentialsUpdated})
			}
		}
	}
	ev, ok := translateEvent(evt, c.paired.Load())
	if !ok {
		zap.L().Debug("whatsapp event", zap.String("type", eventType(evt)), zap.String("session", c.sessionID))
		return
	}
	c.emit(ev)
}

func (c *conn) persistCredentials() error {
	data, err := exportCredentials(c.cli.Store)
	if err != nil {
		return err
	}
	return writeFileAtomic(c.credsPath, data)
}
