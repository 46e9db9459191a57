package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nomfundokagwe/Creds.json-session-id/config"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/metrics"
	"github.com/nomfundokagwe/Creds.json-session-id/internal/pairing"
	"go.uber.org/mock/gomock"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = t.TempDir()
	cfg.Logger.Level = "error"

	// a leftover from a previous run
	leftover := filepath.Join(cfg.GetTempDir(), "crashed")
	if err := os.MkdirAll(leftover, 0o700); err != nil {
		t.Fatal(err)
	}

	a := NewApplication(cfg)
	a.OverrideClient(pairing.NewMockClient(gomock.NewController(t)))
	if err := a.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
		a.Release()
	})
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Errorf("startup sweep kept %s", leftover)
	}
	return a
}

func TestSessionFinishedIsJournaled(t *testing.T) {
	a := newTestApp(t)
	start := time.Now().Add(-4 * time.Second)
	a.Bus().Publish(pairing.TopicSessionFinished, pairing.Summary{
		ID:         "abc",
		Mode:       pairing.ModePairingCode,
		State:      pairing.StateClosed,
		Attempts:   1,
		Outcome:    pairing.OutcomeCode,
		Delivery:   "self",
		StartedAt:  start,
		FinishedAt: start.Add(4 * time.Second),
	})
	a.Bus().WaitAsync()

	rec, err := a.Journal().Get("abc")
	if err != nil {
		t.Fatalf("journal Get failed: %v", err)
	}
	if rec.Outcome != "code" || rec.Delivery != "self" || rec.State != "CLOSED" {
		t.Errorf("record: got %+v", rec)
	}
	sum, err := a.Metrics().Sum(metrics.SessionFinished, map[string]string{"mode": "pairing_code", "outcome": "code"}, start.Add(-time.Minute))
	if err != nil || sum != 1 {
		t.Errorf("finished counter: got %v, %v", sum, err)
	}
}

func TestSweepJobRemovesStaleDirs(t *testing.T) {
	a := newTestApp(t)
	stale := filepath.Join(a.Config().GetTempDir(), "stale")
	fresh := filepath.Join(a.Config().GetTempDir(), "fresh")
	for _, dir := range []string{stale, fresh} {
		if err := os.Mkdir(dir, 0o700); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	if err := a.RunJobNow(JobSweepDirs); err != nil {
		t.Fatalf("RunJobNow failed: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale dir survived the sweep")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh dir removed: %v", err)
	}
}

func TestPruneAndMonitorJobs(t *testing.T) {
	a := newTestApp(t)
	a.Bus().Publish(pairing.TopicSessionFinished, pairing.Summary{
		ID:         "old",
		Outcome:    pairing.OutcomeError,
		StartedAt:  time.Now().Add(-100 * time.Hour),
		FinishedAt: time.Now().Add(-99 * time.Hour),
	})
	a.Bus().WaitAsync()

	if err := a.RunJobNow(JobPruneJournal); err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if _, err := a.Journal().Get("old"); err == nil {
		t.Error("record past retention survived the prune")
	}

	if err := a.RunJobNow(JobProcessMonitor); err != nil {
		t.Fatalf("process monitor failed: %v", err)
	}
	threads, ok, err := a.Metrics().Last(metrics.ProcessThreads, nil, time.Now().Add(-time.Minute))
	if err != nil || !ok || threads < 1 {
		t.Errorf("threads gauge: got %v, %v, %v", threads, ok, err)
	}
	active, ok, _ := a.Metrics().Last(metrics.ActiveSessions, nil, time.Now().Add(-time.Minute))
	if !ok || active != 0 {
		t.Errorf("active sessions gauge: got %v, %v", active, ok)
	}

	if err := a.RunJobNow("nope"); err == nil {
		t.Error("unknown job must fail")
	}
}
