package app

import (
	"go.uber.org/zap"

	"github.com/nomfundokagwe/Creds.json-session-id/internal/journal"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/metrics"
)

// initStores opens the session journal and the metrics store. The metrics
// store is optional: on failure the service keeps running with an
// in-memory store.
func (a *Application) initStores() error {
	cfg := a.appConfig
	j, err := journal.Open(cfg.GetJournalFile())
	if err != nil {
		return err
	}
	a.journal = j
	zap.L().Info("app: journal opened", zap.String("path", cfg.GetJournalFile()))

	m, err := metrics.Open(cfg.GetMetricsDir(), cfg.Pairing.JournalRetention)
	if err != nil {
		zap.L().Warn("app: metrics store unavailable, keeping metrics in memory",
			zap.String("dir", cfg.GetMetricsDir()), zap.Error(err))
		m, err = metrics.Open("", cfg.Pairing.JournalRetention)
		if err != nil {
			return err
		}
	}
	a.metrics = m
	return nil
}

func (a *Application) closeStores() {
	if a.metrics != nil {
		if err := a.metrics.Close(); err != nil {
			zap.L().Warn("app: close metrics store", zap.Error(err))
		}
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			zap.L().Warn("app: close journal", zap.Error(err))
		}
	}
}
