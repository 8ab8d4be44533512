package scheduler

import (
	"time"

	"go.uber.org/zap"
)

type jobRun struct {
	job       string
	runID     string
	startedAt time.Time
	processed int64
	errors    int
}

func (s *Scheduler) newRun(job string) *jobRun {
	return &jobRun{
		job:       job,
		runID:     s.genID.Generate().String(),
		startedAt: time.Now(),
	}
}

func (s *Scheduler) logJobStart(log *zap.Logger) {
	log.Info("scheduler.job.start")
}

func (s *Scheduler) logJobFinish(log *zap.Logger, run *jobRun) {
	fields := []zap.Field{
		zap.Int64("duration_ms", time.Since(run.startedAt).Milliseconds()),
		zap.Int64("processed_count", run.processed),
		zap.Int("error_count", run.errors),
	}
	if run.errors > 0 {
		log.Warn("scheduler.job.finish", fields...)
		return
	}
	log.Info("scheduler.job.finish", fields...)
}
