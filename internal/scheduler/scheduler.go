package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	accountdomain "github.com/voltixaudit/voltix/internal/account/domain"
	"github.com/voltixaudit/voltix/internal/clock"
	"github.com/voltixaudit/voltix/internal/config"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
	"github.com/voltixaudit/voltix/internal/lock"
	obsmetrics "github.com/voltixaudit/voltix/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JobResetMonthlyQuotas      = "reset_monthly_quotas"
	JobArchiveInactiveProjects = "archive_inactive_projects"

	jobTimeout    = 5 * time.Minute
	jobLockPrefix = "voltix:job:"
)

var (
	ErrInvalidConfig = errors.New("scheduler_invalid_config")
	ErrUnknownJob    = errors.New("scheduler_unknown_job")
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Config    config.Config
	Accounts  accountdomain.Service
	Inventory invdomain.Repository
	Locker    lock.Locker              `optional:"true"`
	Metrics   *obsmetrics.AuditMetrics `optional:"true"`
}

type job struct {
	name string
	spec string
	run  func(ctx context.Context) (int64, error)
}

type Scheduler struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	cfg       config.SchedulerConfig
	accounts  accountdomain.Service
	inventory invdomain.Repository
	locker    lock.Locker
	metrics   *obsmetrics.AuditMetrics
	cron      *cron.Cron
	jobs      map[string]job
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.Accounts == nil || p.Inventory == nil {
		return nil, ErrInvalidConfig
	}
	locker := p.Locker
	if locker == nil {
		locker = lock.NewLocalLocker(p.Clock)
	}

	s := &Scheduler{
		db:        p.DB,
		log:       p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		genID:     p.GenID,
		clock:     p.Clock,
		cfg:       p.Config.Scheduler,
		accounts:  p.Accounts,
		inventory: p.Inventory,
		locker:    locker,
		metrics:   p.Metrics,
		cron:      cron.New(cron.WithLocation(time.UTC)),
		jobs:      map[string]job{},
	}

	for _, j := range []job{
		{JobResetMonthlyQuotas, s.cfg.QuotaResetSpec, s.ResetMonthlyQuotasJob},
		{JobArchiveInactiveProjects, s.cfg.ArchiveSpec, s.ArchiveInactiveProjectsJob},
	} {
		if _, err := cron.ParseStandard(j.spec); err != nil {
			return nil, fmt.Errorf("%w: %s spec %q: %v", ErrInvalidConfig, j.name, j.spec, err)
		}
		s.jobs[j.name] = j
	}
	return s, nil
}

// Start registers every job on its cron spec and starts the cron runner.
func (s *Scheduler) Start() error {
	for _, j := range s.jobs {
		if _, err := s.cron.AddFunc(j.spec, func() {
			if err := s.runJob(context.Background(), j); err != nil {
				s.log.Error("scheduler.job.failed", zap.String("job", j.name), zap.Error(err))
			}
		}); err != nil {
			return err
		}
		s.log.Info("scheduler.job.registered", zap.String("job", j.name), zap.String("spec", j.spec))
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron runner and waits for running jobs or ctx expiry.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes one job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	j, ok := s.jobs[name]
	if !ok {
		return ErrUnknownJob
	}
	return s.runJob(ctx, j)
}

func (s *Scheduler) runJob(parent context.Context, j job) error {
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()

	run := s.newRun(j.name)
	log := s.log.With(zap.String("job", j.name), zap.String("run_id", run.runID))

	key := jobLockPrefix + j.name
	token, ok, err := s.locker.TryLock(ctx, key, jobTimeout)
	if err != nil {
		return fmt.Errorf("%s: acquire lock: %w", j.name, err)
	}
	if !ok {
		log.Info("scheduler.job.skipped", zap.String("reason", "locked"))
		return nil
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			log.Warn("scheduler.job.unlock_failed", zap.Error(err))
		}
	}()

	s.logJobStart(log)
	processed, err := j.run(ctx)
	run.processed = processed
	if err != nil {
		run.errors++
	}
	s.metrics.ObserveJob(j.name, processed, err, time.Since(run.startedAt))
	s.logJobFinish(log, run)
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out", zap.Duration("timeout", jobTimeout), zap.Error(err))
		return nil
	}
	return fmt.Errorf("%s: %w", j.name, err)
}

// ResetMonthlyQuotasJob zeroes every user's monthly audit counter.
func (s *Scheduler) ResetMonthlyQuotasJob(ctx context.Context) (int64, error) {
	return s.accounts.ResetMonthlyQuotas(ctx)
}

// ArchiveInactiveProjectsJob archives free-plan projects with no activity
// inside the inactivity window.
func (s *Scheduler) ArchiveInactiveProjectsJob(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	cutoff := now.Add(-s.inactivityWindow())
	return s.inventory.ArchiveInactiveProjects(ctx, s.db, string(accountdomain.PlanFree), cutoff, now)
}

func (s *Scheduler) inactivityWindow() time.Duration {
	if s.cfg.InactivityWindow <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.cfg.InactivityWindow
}
