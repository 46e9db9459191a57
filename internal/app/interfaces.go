package app

import (
	"context"

	"github.com/asaskevich/EventBus"
	"github.com/nomfundokagwe/Creds.json-session-id/config"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/journal"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/metrics"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/pairing"
	"github.com/robfig/cron/v3"
)

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SessionProvider provides the linking session orchestrator and its bus
type SessionProvider interface {
	Orchestrator() *pairing.Orchestrator
	Bus() EventBus.Bus
}

// JournalProvider provides the finished-session journal
type JournalProvider interface {
	Journal() *journal.Journal
}

// MetricsProvider provides the time-series store
type MetricsProvider interface {
	Metrics() *metrics.Store
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// AppContext combines all provider interfaces for full application context
type AppContext interface {
	ConfigProvider
	SessionProvider
	JournalProvider
	MetricsProvider
	SchedulerProvider

	// Application lifecycle methods
	Init() error
	Shutdown(ctx context.Context) error
	Release()
	// RunJobNow runs a named background job immediately
	RunJobNow(name string) error
}
