package app

import (
	"os"

	"github.com/nomfundokagwe/Creds.json-session-id/internal/journal"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/metrics"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/pairing"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/qrrender"
	"go.uber.org/zap"
)

func (a *Application) subscribe() {
	if err := a.bus.SubscribeAsync(pairing.TopicSessionFinished, a.onSessionFinished, false); err != nil {
		zap.L().Error("app: subscribe session finished", zap.Error(err))
	}
	if a.appConfig.Pairing.PrintQR {
		if err := a.bus.Subscribe(pairing.TopicQRIssued, a.onQRIssued); err != nil {
			zap.L().Error("app: subscribe qr issued", zap.Error(err))
		}
	}
}

// onSessionFinished records the session in the journal and the metrics store.
func (a *Application) onSessionFinished(s pairing.Summary) {
	rec := journal.Record{
		ID:         s.ID,
		Mode:       string(s.Mode),
		State:      string(s.State),
		Outcome:    string(s.Outcome),
		Delivery:   s.Delivery,
		Attempts:   s.Attempts,
		Error:      s.Error,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
	if err := a.journal.Put(rec); err != nil {
		zap.L().Error("app: journal put failed", zap.String("session", s.ID), zap.Error(err))
	}

	labels := map[string]string{"mode": string(s.Mode), "outcome": string(s.Outcome)}
	a.metrics.Inc(metrics.SessionFinished, labels)
	a.metrics.Observe(metrics.SessionSeconds, s.FinishedAt.Sub(s.StartedAt).Seconds(),
		map[string]string{"mode": string(s.Mode)})
}

func (a *Application) onQRIssued(id, payload string) {
	zap.L().Info("app: scan this QR to link", zap.String("session", id))
	qrrender.PrintTerminal(os.Stdout, payload)
}
