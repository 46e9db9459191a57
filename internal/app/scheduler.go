package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Background job names accepted by RunJobNow.
const (
	JobSweepDirs      = "sweep_dirs"
	JobPruneJournal   = "prune_journal"
	JobProcessMonitor = "process_monitor"
	JobSystemMonitor  = "system_monitor"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) jobs() map[string]func() {
	return map[string]func(){
		JobSweepDirs:      a.SchedSweepDirsTask,
		JobPruneJournal:   a.SchedPruneJournalTask,
		JobProcessMonitor: a.SchedProcessMonitorTask,
		JobSystemMonitor:  a.SchedSystemMonitorTask,
	}
}

func (a *Application) initJob() {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
		go a.SchedProcessMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc(a.appConfig.Pairing.SweepSchedule, a.SchedSweepDirsTask)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@hourly", a.SchedPruneJournalTask)
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	a.sched.Start()
}

// RunJobNow triggers a background job immediately by name
func (a *Application) RunJobNow(name string) error {
	job, ok := a.jobs()[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	job()
	return nil
}
