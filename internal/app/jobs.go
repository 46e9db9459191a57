package app

import (
	"os"
	"time"

	"github.com/nomfundokagwe/Creds.json-session-id/internal/metrics"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// SchedSweepDirsTask removes session directories left behind by a crash.
func (a *Application) SchedSweepDirsTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	n, err := a.dirs.Sweep(a.appConfig.Pairing.StaleAfter, a.orch.Has)
	if err != nil {
		zap.L().Warn("app: sweep stale session dirs", zap.Error(err))
	}
	if n > 0 {
		zap.L().Info("app: removed stale session dirs", zap.Int("count", n))
		a.metrics.Observe(metrics.SweptDirs, float64(n), nil)
	}
}

// SchedPruneJournalTask drops journal records past the retention window.
func (a *Application) SchedPruneJournalTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	n, err := a.journal.Prune(time.Now().Add(-a.appConfig.Pairing.JournalRetention))
	if err != nil {
		zap.L().Error("app: prune journal", zap.Error(err))
		return
	}
	if n > 0 {
		zap.L().Info("app: pruned journal records", zap.Int("count", n))
	}
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		a.metrics.Observe(metrics.SystemCPU, _cpuuse[0], nil)
	}

	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		a.metrics.Observe(metrics.SystemMemUsedMB, float64(_meminfo.Used/1024/1024), nil)
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	a.metrics.Observe(metrics.ActiveSessions, float64(a.orch.Active()), nil)

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PID is always within int32 range
	if err != nil {
		return
	}

	cpuuse, err := p.CPUPercent()
	if err == nil {
		a.metrics.Observe(metrics.ProcessCPU, cpuuse, nil)
	}

	meminfo, err := p.MemoryInfo()
	if err == nil {
		a.metrics.Observe(metrics.ProcessRSSMB, float64(meminfo.RSS/1024/1024), nil)
	}

	threads, err := p.NumThreads()
	if err == nil {
		a.metrics.Observe(metrics.ProcessThreads, float64(threads), nil)
	}
}
