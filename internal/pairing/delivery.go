package pairing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	credentialContentType = "application/json"
	selfSendTimeout       = 20 * time.Second
)

// Delivery targets recorded in Summary.Delivery.
const (
	DeliveryResponse  = "response"
	DeliverySelf      = "self"
	DeliveryDiscarded = "discarded"
)

// DeliveryOptions configures what happens to the credential file.
type DeliveryOptions struct {
	// CredentialFile is the file name the client writes inside the session dir.
	CredentialFile string
	// DownloadName is the suggested file name; {id} expands to the session id.
	DownloadName string
	// SelfDelivery sends the file to the linked account's own chat when the
	// HTTP response was already used for a code or QR.
	SelfDelivery   bool
	WelcomeMessage string
}

// CredentialDelivery reads the credential artifact of a linked session.
type CredentialDelivery struct {
	opts DeliveryOptions
}

func NewCredentialDelivery(opts DeliveryOptions) *CredentialDelivery {
	if opts.CredentialFile == "" {
		opts.CredentialFile = "creds.json"
	}
	if opts.DownloadName == "" {
		opts.DownloadName = opts.CredentialFile
	}
	return &CredentialDelivery{opts: opts}
}

// FileName returns the download name suggested for sessionID.
func (d *CredentialDelivery) FileName(sessionID string) string {
	return strings.ReplaceAll(d.opts.DownloadName, "{id}", sessionID)
}

// Load reads the credential file from dir. A missing or empty file is a
// CredentialMissingError.
func (d *CredentialDelivery) Load(sessionID, dir string) (*Artifact, error) {
	path := filepath.Join(dir, d.opts.CredentialFile)
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, &CredentialMissingError{Path: path, Cause: err}
	}
	if len(body) == 0 {
		return nil, &CredentialMissingError{Path: path}
	}
	return &Artifact{
		Body:        body,
		ContentType: credentialContentType,
		FileName:    d.FileName(sessionID),
	}, nil
}

// fallback handles an artifact whose response slot is already taken and
// returns where it went.
func (d *CredentialDelivery) fallback(ctx context.Context, sessionID string, conn Conn, art *Artifact) string {
	sm, ok := conn.(SelfMessenger)
	if !d.opts.SelfDelivery || !ok {
		zap.L().Info("pairing: response already sent, credentials not delivered", zap.String("session", sessionID))
		return DeliveryDiscarded
	}
	ctx, cancel := context.WithTimeout(ctx, selfSendTimeout)
	defer cancel()
	if err := sm.SendDocumentToSelf(ctx, art.FileName, art.ContentType, art.Body); err != nil {
		zap.L().Warn("pairing: self delivery failed", zap.String("session", sessionID), zap.Error(err))
		return DeliveryDiscarded
	}
	zap.L().Info("pairing: credentials sent to own chat", zap.String("session", sessionID))
	return DeliverySelf
}

func (d *CredentialDelivery) welcome(ctx context.Context, sessionID string, conn Conn) {
	sm, ok := conn.(SelfMessenger)
	if d.opts.WelcomeMessage == "" || !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, selfSendTimeout)
	defer cancel()
	if err := sm.MessageSelf(ctx, d.opts.WelcomeMessage); err != nil {
		zap.L().Warn("pairing: welcome message failed", zap.String("session", sessionID), zap.Error(err))
	}
}

// deliver runs in FINALIZING: the artifact goes into the response slot if
// it is still free, otherwise to the fallback.
func (s *Session) deliver() error {
	d := s.orch.delivery
	art, err := d.Load(s.id, s.dir)
	if err != nil {
		return err
	}
	if s.respond(Outcome{Kind: OutcomeCredentials, Artifact: art}) {
		s.delivery = DeliveryResponse
	} else {
		s.delivery = d.fallback(s.orch.ctx, s.id, s.conn, art)
	}
	d.welcome(s.orch.ctx, s.id, s.conn)
	return nil
}
