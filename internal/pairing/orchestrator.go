package pairing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Bus topics published by the orchestrator.
const (
	// TopicSessionFinished carries a Summary once per session.
	TopicSessionFinished = "pairing:session:finished"
	// TopicQRIssued carries (session id, payload) for every QR a session sees.
	TopicQRIssued = "pairing:qr:issued"
)

// Options configures the orchestrator. Every timing the linking flow uses
// comes from here.
type Options struct {
	CodeTimeout    time.Duration
	LinkTimeout    time.Duration
	FinalizeGrace  time.Duration
	PairCodeDelay  time.Duration
	Policy         ReconnectPolicy
	MaxSessions    int
	EventQueueSize int
	Delivery       DeliveryOptions
}

// Orchestrator runs linking sessions, one goroutine each, bounded by an ants pool.
type Orchestrator struct {
	opts     Options
	client   Client
	dirs     DirectoryManager
	bus      EventBus.Bus
	delivery *CredentialDelivery
	pool     *ants.Pool

	ctx    context.Context
	cancel context.CancelFunc
	// startMu orders wg.Add in Start against the closing flip in Shutdown.
	startMu sync.Mutex
	closed  atomic.Bool
	wg      sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewOrchestrator builds an orchestrator. bus may be nil.
func NewOrchestrator(client Client, dirs DirectoryManager, bus EventBus.Bus, opts Options) (*Orchestrator, error) {
	if client == nil || dirs == nil {
		return nil, fmt.Errorf("pairing: client and directory manager are required")
	}
	if opts.MaxSessions < 1 {
		opts.MaxSessions = 1
	}
	if opts.EventQueueSize < 1 {
		opts.EventQueueSize = 1
	}
	if opts.Policy.MaxAttempts < 1 {
		opts.Policy.MaxAttempts = 1
	}
	pool, err := ants.NewPool(opts.MaxSessions,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			zap.L().Error("pairing: worker panic", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pairing: create session pool: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		opts:     opts,
		client:   client,
		dirs:     dirs,
		bus:      bus,
		delivery: NewCredentialDelivery(opts.Delivery),
		pool:     pool,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}, nil
}

// Start validates req, acquires a session directory and launches the
// session. The returned session answers exactly once on Response.
func (o *Orchestrator) Start(req Request) (*Session, error) {
	if o.closed.Load() {
		return nil, ErrShuttingDown
	}
	switch req.Mode {
	case ModePairingCode:
		phone, err := NormalizePhone(req.Phone)
		if err != nil {
			return nil, err
		}
		req.Phone = phone
	case ModeQR:
		req.Phone = ""
	default:
		return nil, &ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", req.Mode)}
	}
	if o.pool.Free() == 0 {
		return nil, ErrCapacity
	}

	id := NewSessionID()
	dir, err := o.dirs.Acquire(id)
	if err != nil {
		zap.L().Error("pairing: acquire session dir failed", zap.String("session", id), zap.Error(err))
		return nil, err
	}
	now := time.Now()
	s := &Session{
		id:       id,
		mode:     req.Mode,
		phone:    req.Phone,
		dir:      dir,
		created:  now,
		orch:     o,
		slot:     newResponseSlot(),
		events:   make(chan Event, o.opts.EventQueueSize),
		done:     make(chan struct{}),
		state:    StateInitiating,
		deadline: now.Add(o.opts.CodeTimeout),
	}
	o.register(s)
	o.startMu.Lock()
	if o.closed.Load() {
		o.startMu.Unlock()
		o.unregister(id)
		if rerr := o.dirs.Release(id); rerr != nil {
			zap.L().Warn("pairing: release after shutdown failed", zap.String("session", id), zap.Error(rerr))
		}
		return nil, ErrShuttingDown
	}
	o.wg.Add(1)
	o.startMu.Unlock()
	if err := o.pool.Submit(func() {
		defer o.wg.Done()
		s.run()
	}); err != nil {
		o.wg.Done()
		o.unregister(id)
		if rerr := o.dirs.Release(id); rerr != nil {
			zap.L().Warn("pairing: release after rejected submit failed", zap.String("session", id), zap.Error(rerr))
		}
		if errors.Is(err, ants.ErrPoolOverload) {
			return nil, ErrCapacity
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return nil, ErrShuttingDown
		}
		return nil, err
	}
	zap.L().Info("pairing: session started",
		zap.String("session", id),
		zap.String("mode", string(req.Mode)),
		zap.Int("active", o.Active()))
	return s, nil
}

// Get returns a snapshot of a live session.
func (o *Orchestrator) Get(id string) (Snapshot, bool) {
	o.mu.RLock()
	s, ok := o.sessions[id]
	o.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	return s.Snapshot(), true
}

// Has reports whether id belongs to a live session.
func (o *Orchestrator) Has(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.sessions[id]
	return ok
}

// Active returns the number of live sessions.
func (o *Orchestrator) Active() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.sessions)
}

// Shutdown stops accepting sessions, ends live ones and waits for their
// cleanup until ctx expires.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.startMu.Lock()
	swapped := o.closed.CompareAndSwap(false, true)
	o.startMu.Unlock()
	if !swapped {
		return nil
	}
	o.cancel()
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		zap.L().Warn("pairing: shutdown timed out", zap.Int("active", o.Active()))
		return ctx.Err()
	}
	o.pool.Release()
	zap.L().Info("pairing: orchestrator stopped")
	return nil
}

func (o *Orchestrator) register(s *Session) {
	o.mu.Lock()
	o.sessions[s.id] = s
	o.mu.Unlock()
}

func (o *Orchestrator) unregister(id string) {
	o.mu.Lock()
	delete(o.sessions, id)
	o.mu.Unlock()
}

func (o *Orchestrator) publish(topic string, args ...any) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(topic, args...)
}
