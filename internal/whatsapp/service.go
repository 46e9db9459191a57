package whatsapp

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.uber.org/zap"

	"github.com/nomfundokagwe/Creds.json-session-id/internal/pairing"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/sessiondir"
)

// storeFile is the whatsmeow sqlite database kept inside each session dir.
const storeFile = "session.db"

// Options configures the whatsmeow-backed client.
type Options struct {
	// Browser advertised with pairing codes: Safari, Chrome, Firefox, Edge or random.
	Browser string
	// OSName is reported in the companion device props, e.g. "Mac OS".
	OSName string
	// LogLevel filters whatsmeow's own log output (debug, info, warn, error).
	LogLevel string
	// CredentialFile is written next to the store whenever the device is paired.
	CredentialFile string
}

// Service dials one whatsmeow client per session. Each client gets its own
// sqlite store inside the session directory, so nothing outlives the session.
type Service struct {
	opts Options
	log  *zapLogger

	rngMu sync.Mutex
	rng   *rand.Rand
}

var osInfoOnce sync.Once

// New creates the service. Device props are process-global in whatsmeow
// and are set once.
func New(opts Options) *Service {
	if opts.CredentialFile == "" {
		opts.CredentialFile = "creds.json"
	}
	if opts.OSName != "" {
		osInfoOnce.Do(func() {
			store.SetOSInfo(opts.OSName, [3]uint32{0, 1, 0})
		})
	}
	zap.L().Info("whatsapp: service initialized",
		zap.String("browser", opts.Browser),
		zap.String("os", opts.OSName))
	return &Service{
		opts: opts,
		log:  newZapLogger(zap.L(), "whatsmeow", opts.LogLevel),
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Dial opens the session store and builds a client for it. The returned
// connection is not connected yet.
func (s *Service) Dial(ctx context.Context, req pairing.DialRequest) (pairing.Conn, error) {
	dbPath := filepath.Join(req.Dir, storeFile)
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath))
	if err != nil {
		return nil, &sessiondir.StorageError{Op: "open", Path: dbPath, Cause: err}
	}
	// sqlite in a per-session file: one writer is all whatsmeow needs
	db.SetMaxOpenConns(1)

	container := sqlstore.NewWithDB(db, "sqlite3", s.log.Sub("Database"))
	if err := container.Upgrade(ctx); err != nil {
		_ = db.Close()
		zap.L().Error("whatsapp: sqlstore.Upgrade failed", zap.Error(err), zap.String("session", req.SessionID))
		return nil, &sessiondir.StorageError{Op: "upgrade", Path: dbPath, Cause: err}
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		_ = db.Close()
		return nil, &sessiondir.StorageError{Op: "device", Path: dbPath, Cause: err}
	}

	cli := whatsmeow.NewClient(device, s.log.Sub("Client").Sub(shortID(req.SessionID)))
	// reconnects are the orchestrator's decision
	cli.EnableAutoReconnect = false

	clientType, displayName := s.browserIdentity()
	c := &conn{
		cli:         cli,
		db:          db,
		sessionID:   req.SessionID,
		credsPath:   filepath.Join(req.Dir, s.opts.CredentialFile),
		wantQR:      req.WantQR,
		sink:        req.Sink,
		clientType:  clientType,
		displayName: displayName,
	}
	c.handlerID = cli.AddEventHandler(c.handleEvent)
	zap.L().Debug("whatsapp: client dialed",
		zap.String("session", req.SessionID),
		zap.Bool("registered", c.Registered()),
		zap.String("browser", displayName))
	return c, nil
}

func (s *Service) browserIdentity() (whatsmeow.PairClientType, string) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return browserIdentity(s.opts.Browser, s.opts.OSName, s.rng)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
