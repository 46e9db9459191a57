package app

import (
	"context"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/asaskevich/EventBus"
	"github.com/nomfundokagwe/Creds.json-session-id/config"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/journal"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/metrics"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/pairing"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/sessiondir"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/whatsapp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Application struct {
	appConfig *config.AppConfig
	sched     *cron.Cron
	bus       EventBus.Bus
	dirs      *sessiondir.Manager
	journal   *journal.Journal
	metrics   *metrics.Store
	client    pairing.Client
	orch      *pairing.Orchestrator
}

// Ensure Application implements all interfaces
var (
	_ ConfigProvider           = (*Application)(nil)
	_ SessionProvider          = (*Application)(nil)
	_ JournalProvider          = (*Application)(nil)
	_ MetricsProvider          = (*Application)(nil)
	_ SchedulerProvider        = (*Application)(nil)
	_ AppContext               = (*Application)(nil)
	_ pairing.Client           = (*whatsapp.Service)(nil)
	_ pairing.DirectoryManager = (*sessiondir.Manager)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) Orchestrator() *pairing.Orchestrator {
	return a.orch
}

func (a *Application) Journal() *journal.Journal {
	return a.journal
}

func (a *Application) Metrics() *metrics.Store {
	return a.metrics
}

func (a *Application) Bus() EventBus.Bus {
	return a.bus
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

// OverrideClient replaces the messaging client before Init (used in tests).
func (a *Application) OverrideClient(c pairing.Client) {
	a.client = c
}

// initLogger installs the global zap logger: console output, plus a rotated
// JSON file when enabled.
func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("logger level %q: %w", cfg.Level, err)
		}
		zapConfig.Level = level
	}
	zapConfig.OutputPaths = []string{"stdout"}

	if !cfg.FileEnable {
		return zapConfig.Build(zap.AddCaller())
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    64,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   false,
	}
	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(lumberJackLogger),
			zapConfig.Level,
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			zapConfig.Level,
		),
	)
	return zap.New(core, zap.AddCaller()), nil
}

// Init wires logging, stores, the messaging client and the session
// orchestrator, then starts the background jobs.
func (a *Application) Init() error {
	cfg := a.appConfig
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	logger, err := initLogger(cfg.Logger)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	if err := a.initStores(); err != nil {
		return err
	}

	a.dirs, err = sessiondir.New(cfg.GetTempDir())
	if err != nil {
		return err
	}

	a.bus = EventBus.New()
	a.subscribe()

	if a.client == nil {
		a.client = whatsapp.New(whatsapp.Options{
			Browser:        cfg.WhatsApp.Browser,
			OSName:         cfg.WhatsApp.OSName,
			LogLevel:       cfg.WhatsApp.LogLevel,
			CredentialFile: cfg.Pairing.CredentialFile,
		})
	}

	p := cfg.Pairing
	a.orch, err = pairing.NewOrchestrator(a.client, a.dirs, a.bus, pairing.Options{
		CodeTimeout:   p.CodeTimeout,
		LinkTimeout:   p.LinkTimeout,
		FinalizeGrace: p.FinalizeGrace,
		PairCodeDelay: p.PairCodeDelay,
		Policy: pairing.ReconnectPolicy{
			MaxAttempts: p.MaxAttempts,
			BackoffBase: p.BackoffBase,
			BackoffMax:  p.BackoffMax,
		},
		MaxSessions:    p.MaxSessions,
		EventQueueSize: p.EventQueueSize,
		Delivery: pairing.DeliveryOptions{
			CredentialFile: p.CredentialFile,
			DownloadName:   p.DownloadName,
			SelfDelivery:   p.SelfDelivery,
			WelcomeMessage: p.WelcomeMessage,
		},
	})
	if err != nil {
		return err
	}

	// leftovers of a previous run are never owned by a live session
	if n, err := a.dirs.Sweep(0, a.orch.Has); err != nil {
		zap.L().Warn("app: startup sweep failed", zap.Error(err))
	} else if n > 0 {
		zap.L().Info("app: removed leftover session dirs", zap.Int("count", n))
	}

	a.initJob()
	zap.L().Info("app: initialized",
		zap.String("appid", cfg.System.Appid),
		zap.String("temp_dir", a.dirs.Root()),
		zap.Int("max_sessions", p.MaxSessions))
	return nil
}

// Shutdown ends every live session, waits for them within ctx and flushes
// the subscribers.
func (a *Application) Shutdown(ctx context.Context) error {
	if a.orch == nil {
		return nil
	}
	err := a.orch.Shutdown(ctx)
	if a.bus != nil {
		a.bus.WaitAsync()
	}
	return err
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	a.closeStores()
	_ = zap.L().Sync()
}
