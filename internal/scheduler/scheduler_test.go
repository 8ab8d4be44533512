package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	accountdomain "github.com/voltixaudit/voltix/internal/account/domain"
	accountrepo "github.com/voltixaudit/voltix/internal/account/repository"
	accountservice "github.com/voltixaudit/voltix/internal/account/service"
	"github.com/voltixaudit/voltix/internal/account/token"
	"github.com/voltixaudit/voltix/internal/clock"
	"github.com/voltixaudit/voltix/internal/config"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
	invrepo "github.com/voltixaudit/voltix/internal/inventory/repository"
	"github.com/voltixaudit/voltix/internal/lock"
	obsmetrics "github.com/voltixaudit/voltix/internal/observability/metrics"
	"github.com/voltixaudit/voltix/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	sched    *Scheduler
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	locker   *lock.LocalLocker
	registry *prometheus.Registry
}

func schedulerConfig() config.Config {
	return config.Config{Scheduler: config.SchedulerConfig{
		Enabled:          true,
		QuotaResetSpec:   "0 0 1 * *",
		ArchiveSpec:      "0 3 * * *",
		InactivityWindow: 30 * 24 * time.Hour,
	}}
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&accountdomain.User{}, &invdomain.Project{}))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	locker := lock.NewLocalLocker(fake)
	registry := prometheus.NewRegistry()

	accounts := accountservice.New(accountservice.Params{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Repo:   accountrepo.Provide(),
		Clock:  fake,
		Tokens: token.NewStaticIssuer([]byte("k"), time.Hour, fake),
	})
	sched, err := New(Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		Config:    schedulerConfig(),
		Accounts:  accounts,
		Inventory: invrepo.Provide(),
		Locker:    locker,
		Metrics:   obsmetrics.NewAuditMetrics(registry, obsmetrics.Config{}),
	})
	require.NoError(t, err)

	return &fixture{sched: sched, db: conn, node: node, clock: fake, locker: locker, registry: registry}
}

func (f *fixture) user(t *testing.T, plan accountdomain.Plan, auditsUsed int) snowflake.ID {
	t.Helper()
	now := f.clock.Now()
	user := accountdomain.User{
		ID:           f.node.Generate(),
		Email:        f.node.Generate().String() + "@example.com",
		PasswordHash: "x",
		FullName:     "Test",
		Plan:         plan,
		AuditsUsed:   auditsUsed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user.ID
}

func (f *fixture) project(t *testing.T, userID snowflake.ID, status invdomain.ProjectStatus, idle time.Duration) snowflake.ID {
	t.Helper()
	now := f.clock.Now()
	project := invdomain.Project{
		ID:             f.node.Generate(),
		UserID:         userID,
		Name:           "p",
		Status:         status,
		LastActivityAt: now.Add(-idle),
		CreatedAt:      now.Add(-idle),
		UpdatedAt:      now.Add(-idle),
	}
	require.NoError(t, invrepo.Provide().InsertProject(context.Background(), f.db, &project))
	return project.ID
}

func (f *fixture) status(t *testing.T, id snowflake.ID) invdomain.ProjectStatus {
	t.Helper()
	project, err := invrepo.Provide().FindProject(context.Background(), f.db, id)
	require.NoError(t, err)
	require.NotNil(t, project)
	return project.Status
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	cfg := schedulerConfig()
	cfg.Scheduler.ArchiveSpec = "every day"

	conn, err := db.NewTest()
	require.NoError(t, err)
	node, err := snowflake.NewNode(9)
	require.NoError(t, err)

	_, err = New(Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Now()),
		Config:    cfg,
		Accounts:  accountservice.New(accountservice.Params{DB: conn, Log: zap.NewNop(), GenID: node, Repo: accountrepo.Provide()}),
		Inventory: invrepo.Provide(),
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestArchiveInactiveProjects(t *testing.T) {
	f := setup(t)
	free := f.user(t, accountdomain.PlanFree, 0)
	pro := f.user(t, accountdomain.PlanPro, 0)

	stale := f.project(t, free, invdomain.ProjectStatusInProgress, 31*24*time.Hour)
	staleDone := f.project(t, free, invdomain.ProjectStatusDone, 45*24*time.Hour)
	recent := f.project(t, free, invdomain.ProjectStatusInProgress, 29*24*time.Hour)
	paid := f.project(t, pro, invdomain.ProjectStatusInProgress, 90*24*time.Hour)

	require.NoError(t, f.sched.RunNow(context.Background(), JobArchiveInactiveProjects))

	assert.Equal(t, invdomain.ProjectStatusArchived, f.status(t, stale))
	assert.Equal(t, invdomain.ProjectStatusArchived, f.status(t, staleDone))
	assert.Equal(t, invdomain.ProjectStatusInProgress, f.status(t, recent))
	assert.Equal(t, invdomain.ProjectStatusInProgress, f.status(t, paid))

	assert.Equal(t, 1, testutil.CollectAndCount(f.registry, "voltix_scheduler_job_runs_total"))
}

func TestArchiveFollowsClock(t *testing.T) {
	f := setup(t)
	free := f.user(t, accountdomain.PlanFree, 0)
	project := f.project(t, free, invdomain.ProjectStatusIncomplete, 20*24*time.Hour)

	require.NoError(t, f.sched.RunNow(context.Background(), JobArchiveInactiveProjects))
	assert.Equal(t, invdomain.ProjectStatusIncomplete, f.status(t, project))

	f.clock.Advance(11 * 24 * time.Hour)
	require.NoError(t, f.sched.RunNow(context.Background(), JobArchiveInactiveProjects))
	assert.Equal(t, invdomain.ProjectStatusArchived, f.status(t, project))
}

func TestResetMonthlyQuotas(t *testing.T) {
	f := setup(t)
	a := f.user(t, accountdomain.PlanFree, 3)
	b := f.user(t, accountdomain.PlanPro, 12)

	require.NoError(t, f.sched.RunNow(context.Background(), JobResetMonthlyQuotas))

	var used []int
	require.NoError(t, f.db.Model(&accountdomain.User{}).
		Where("id IN ?", []snowflake.ID{a, b}).
		Pluck("audits_used", &used).Error)
	assert.Equal(t, []int{0, 0}, used)
}

func TestLockedJobIsSkipped(t *testing.T) {
	f := setup(t)
	free := f.user(t, accountdomain.PlanFree, 0)
	stale := f.project(t, free, invdomain.ProjectStatusInProgress, 60*24*time.Hour)

	_, ok, err := f.locker.TryLock(context.Background(), jobLockPrefix+JobArchiveInactiveProjects, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, f.sched.RunNow(context.Background(), JobArchiveInactiveProjects))
	assert.Equal(t, invdomain.ProjectStatusInProgress, f.status(t, stale))
}

func TestRunNowUnknownJob(t *testing.T) {
	f := setup(t)
	assert.ErrorIs(t, f.sched.RunNow(context.Background(), "nope"), ErrUnknownJob)
}

func TestStartAndStop(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.sched.Start())
	assert.Len(t, f.sched.cron.Entries(), 2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, f.sched.Stop(ctx))
}
