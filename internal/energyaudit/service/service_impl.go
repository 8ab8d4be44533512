package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/voltixaudit/voltix/internal/account/domain"
	"github.com/voltixaudit/voltix/internal/cache"
	"github.com/voltixaudit/voltix/internal/classification"
	"github.com/voltixaudit/voltix/internal/clock"
	"github.com/voltixaudit/voltix/internal/config"
	"github.com/voltixaudit/voltix/internal/consumption"
	"github.com/voltixaudit/voltix/internal/energyaudit/domain"
	"github.com/voltixaudit/voltix/internal/events"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
	"github.com/voltixaudit/voltix/internal/lock"
	"github.com/voltixaudit/voltix/internal/observability/logger"
	obsmetrics "github.com/voltixaudit/voltix/internal/observability/metrics"
	recdomain "github.com/voltixaudit/voltix/internal/recommendation/domain"
	"github.com/voltixaudit/voltix/internal/tariff"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	lockTTL          = 2 * time.Minute
	lockPrefix       = "voltix:audit:"
	resultCacheSize  = 2048
	resultCacheTTL   = 10 * time.Minute
	defaultHistory   = 20
	maxHistory       = 100
	publishTimeout   = 5 * time.Second
	outcomeSucceeded = "success"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	Config          config.Config
	Repo            domain.Repository
	Inventory       invdomain.Repository
	Recommendations recdomain.Repository
	Translator      *tariff.Translator
	Accounts        accountdomain.Service    `optional:"true"`
	Locker          lock.Locker              `optional:"true"`
	Events          events.Publisher         `optional:"true"`
	Metrics         *obsmetrics.AuditMetrics `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	defaultCountry  string
	repo            domain.Repository
	inventory       invdomain.Repository
	recommendations recdomain.Repository
	translator      *tariff.Translator
	accounts        accountdomain.Service
	locker          lock.Locker
	events          events.Publisher
	metrics         *obsmetrics.AuditMetrics
	latest          cache.Cache[snowflake.ID, domain.AuditResult]
	tracer          trace.Tracer
}

func New(p Params) domain.Service {
	locker := p.Locker
	if locker == nil {
		locker = lock.NewLocalLocker(p.Clock)
	}
	publisher := p.Events
	if publisher == nil {
		publisher = events.Noop()
	}

	return &Service{
		db:              p.DB,
		log:             p.Log.Named("energyaudit.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		defaultCountry:  p.Config.DefaultCountry,
		repo:            p.Repo,
		inventory:       p.Inventory,
		recommendations: p.Recommendations,
		translator:      p.Translator,
		accounts:        p.Accounts,
		locker:          locker,
		events:          publisher,
		metrics:         p.Metrics,
		latest:          cache.NewLRU[snowflake.ID, domain.AuditResult]("audit_latest_result", resultCacheSize, resultCacheTTL),
		tracer:          otel.Tracer("voltix/energyaudit"),
	}
}

// run tracks one pass through the state machine.
type run struct {
	stage     domain.Stage
	startedAt time.Time
	stageAt   time.Time
}

// advance moves r to next, refusing any transition the state machine does
// not allow.
func (s *Service) advance(r *run, next domain.Stage) error {
	if !r.stage.CanAdvance(next) {
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, r.stage, next)
	}
	now := time.Now()
	if r.stage != domain.StageIdle {
		s.metrics.ObserveStage(string(r.stage), now.Sub(r.stageAt))
	}
	r.stage = next
	r.stageAt = now
	return nil
}

// abort marks r aborted and hands back err.
func (s *Service) abort(r *run, err error) error {
	if aerr := s.advance(r, domain.StageAborted); aerr != nil {
		return errors.Join(err, aerr)
	}
	return err
}

// step advances r along the success path, turning a refused transition into
// a failure of the run.
func (s *Service) step(r *run, next domain.Stage) error {
	if err := s.advance(r, next); err != nil {
		return domain.NewFailure(domain.ReasonPersistenceError, r.stage, err)
	}
	return nil
}

func (s *Service) RunAudit(ctx context.Context, req domain.RunRequest) (domain.Outcome, error) {
	if req.ProjectID == 0 {
		return domain.Outcome{FailureReason: domain.ReasonInvalidProjectID},
			domain.NewFailure(domain.ReasonInvalidProjectID, domain.StageIdle, nil)
	}
	country := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if country == "" {
		country = s.defaultCountry
	}

	ctx, span := s.tracer.Start(ctx, "energyaudit.RunAudit", trace.WithAttributes(
		attribute.String("project_id", req.ProjectID.String()),
		attribute.String("country", country),
	))
	defer span.End()

	log := logger.WithContext(ctx, s.log).With(
		zap.String("project_id", req.ProjectID.String()),
		zap.String("country", country),
	)
	r := &run{stage: domain.StageIdle, startedAt: time.Now()}

	outcome, err := s.execute(ctx, r, req, country)
	elapsed := time.Since(r.startedAt)
	if err != nil {
		reason, _ := domain.ReasonOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(reason))
		s.metrics.ObserveRun(string(reason), "", 0, elapsed)
		log.Warn("audit aborted",
			zap.String("stage", string(r.stage)),
			zap.String("reason", string(reason)),
			zap.Error(err),
		)
		return domain.Outcome{Success: false, FailureReason: reason}, err
	}

	span.SetAttributes(
		attribute.String("energy_class", outcome.Result.EnergyClass),
		attribute.Int("recommendations", len(outcome.Recommendations)),
	)
	s.metrics.ObserveRun(outcomeSucceeded, outcome.Result.EnergyClass, len(outcome.Recommendations), elapsed)
	log.Info("audit completed",
		zap.String("result_id", outcome.Result.ID.String()),
		zap.String("energy_class", outcome.Result.EnergyClass),
		zap.Float64("annual_kwh", outcome.Result.AnnualKWh),
		zap.Duration("elapsed", elapsed),
	)
	return outcome, nil
}

func (s *Service) execute(ctx context.Context, r *run, req domain.RunRequest, country string) (domain.Outcome, error) {
	key := lockPrefix + req.ProjectID.String()
	token, ok, err := s.locker.TryLock(ctx, key, lockTTL)
	if err != nil {
		return domain.Outcome{}, domain.NewFailure(domain.ReasonPersistenceError, r.stage, fmt.Errorf("acquire lock: %w", err))
	}
	if !ok {
		return domain.Outcome{}, domain.NewFailure(domain.ReasonAuditInProgress, r.stage, nil)
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("release audit lock", zap.String("project_id", req.ProjectID.String()), zap.Error(err))
		}
	}()

	project, err := s.inventory.FindProject(ctx, s.db, req.ProjectID)
	if err != nil {
		return domain.Outcome{}, domain.NewFailure(domain.ReasonPersistenceError, r.stage, err)
	}
	if project == nil || (req.UserID != 0 && project.UserID != req.UserID) {
		return domain.Outcome{}, domain.NewFailure(domain.ReasonProjectNotFound, r.stage, nil)
	}
	if project.Status == invdomain.ProjectStatusArchived {
		return domain.Outcome{}, domain.NewFailure(domain.ReasonProjectArchived, r.stage, invdomain.ErrProjectArchived)
	}

	if s.accounts != nil {
		quota, err := s.accounts.CheckQuota(ctx, project.UserID)
		if err != nil {
			return domain.Outcome{}, domain.NewFailure(domain.ReasonPersistenceError, r.stage, err)
		}
		if !quota.Allowed {
			return domain.Outcome{}, domain.NewFailure(domain.ReasonQuotaExceeded, r.stage, nil)
		}
	}

	// The factor table is fixed for the whole run even if energy.yml reloads.
	table := s.translator.Snapshot()

	if err := s.step(r, domain.StageAggregating); err != nil {
		return domain.Outcome{}, err
	}
	building, totals, err := s.aggregate(ctx, project.ID)
	if err != nil {
		return domain.Outcome{}, s.abort(r, err)
	}

	if err := s.step(r, domain.StageClassifying); err != nil {
		return domain.Outcome{}, err
	}
	grade := classification.Evaluate(totals.AnnualKWh, building.Area)

	if err := s.step(r, domain.StageTranslating); err != nil {
		return domain.Outcome{}, err
	}
	priced := s.translator.Translate(ctx, table, totals.AnnualKWh, country)

	if err := s.step(r, domain.StageSynthesizing); err != nil {
		return domain.Outcome{}, err
	}
	drafts := recdomain.Synthesize(recdomain.Input{
		Class:      grade.Class,
		AnnualCost: priced.AnnualCost,
		AnnualKWh:  totals.AnnualKWh,
	})

	now := s.clock.Now()
	result := domain.AuditResult{
		ID:                s.genID.Generate(),
		ProjectID:         project.ID,
		AnnualKWh:         totals.AnnualKWh,
		EnergyClass:       string(grade.Class),
		Score:             grade.Score,
		AnnualCO2Kg:       priced.AnnualCO2Kg,
		AnnualCost:        priced.AnnualCost,
		Currency:          table.Currency(),
		Density:           grade.Density,
		AreaUsed:          grade.AreaUsed,
		Country:           priced.Country,
		Tariff:            priced.Tariff,
		EmissionFactor:    priced.EmissionFactor,
		EquipmentCount:    totals.EquipmentCount,
		CategoryBreakdown: breakdown(totals.ByCategory),
		CalculatedAt:      now,
	}
	recs := make([]recdomain.Recommendation, 0, len(drafts))
	for i, d := range drafts {
		recs = append(recs, recdomain.Recommendation{
			ID:             s.genID.Generate(),
			ProjectID:      project.ID,
			AuditResultID:  result.ID,
			Position:       i,
			Category:       d.Category,
			Title:          d.Title,
			Description:    d.Description,
			Priority:       d.Priority,
			AnnualSaving:   d.AnnualSaving,
			Investment:     d.Investment,
			PaybackYears:   d.PaybackYears,
			CO2ReductionKg: d.CO2ReductionKg,
			CreatedAt:      now,
		})
	}

	if err := s.persist(ctx, project, &result, recs, now); err != nil {
		return domain.Outcome{}, s.abort(r, err)
	}
	if err := s.step(r, domain.StagePersisted); err != nil {
		return domain.Outcome{}, err
	}

	s.latest.Set(project.ID, result)
	s.publish(ctx, project, result, len(recs))

	return domain.Outcome{
		Success:         true,
		Result:          &result,
		Recommendations: recs,
	}, nil
}

func (s *Service) aggregate(ctx context.Context, projectID snowflake.ID) (*invdomain.Building, consumption.Result, error) {
	ctx, span := s.tracer.Start(ctx, "energyaudit.aggregate")
	defer span.End()

	building, err := s.inventory.FindBuildingByProject(ctx, s.db, projectID)
	if err != nil {
		return nil, consumption.Result{}, domain.NewFailure(domain.ReasonPersistenceError, domain.StageAggregating, err)
	}
	if building == nil {
		return nil, consumption.Result{}, domain.NewFailure(domain.ReasonMissingBuilding, domain.StageAggregating, nil)
	}

	totals, err := consumption.AggregateBuilding(ctx, equipmentSource{db: s.db, repo: s.inventory}, building.ID)
	if err != nil {
		if errors.Is(err, consumption.ErrNoEquipmentData) {
			return nil, consumption.Result{}, domain.NewFailure(domain.ReasonNoEquipmentData, domain.StageAggregating, err)
		}
		return nil, consumption.Result{}, domain.NewFailure(domain.ReasonPersistenceError, domain.StageAggregating, err)
	}
	span.SetAttributes(attribute.Int("equipment_count", totals.EquipmentCount))
	return building, totals, nil
}

// persist writes the result, the recommendation set, the project status and
// the quota usage in a single transaction.
func (s *Service) persist(ctx context.Context, project *invdomain.Project, result *domain.AuditResult, recs []recdomain.Recommendation, now time.Time) error {
	ctx, span := s.tracer.Start(ctx, "energyaudit.persist")
	defer span.End()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertResult(ctx, tx, result); err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
		if err := s.recommendations.Replace(ctx, tx, project.ID, recs); err != nil {
			return fmt.Errorf("replace recommendations: %w", err)
		}
		if err := s.inventory.UpdateProjectStatus(ctx, tx, project.ID, invdomain.ProjectStatusDone, 100, now); err != nil {
			return fmt.Errorf("update project status: %w", err)
		}
		if s.accounts != nil {
			if err := s.accounts.ConsumeAudit(ctx, tx, project.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}

	span.RecordError(err)
	if errors.Is(err, accountdomain.ErrQuotaExceeded) {
		return domain.NewFailure(domain.ReasonQuotaExceeded, domain.StageSynthesizing, err)
	}
	return domain.NewFailure(domain.ReasonPersistenceError, domain.StageSynthesizing, err)
}

func (s *Service) publish(ctx context.Context, project *invdomain.Project, result domain.AuditResult, recs int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := s.events.PublishAuditCompleted(ctx, events.AuditCompleted{
		ResultID:        result.ID.String(),
		ProjectID:       project.ID.String(),
		UserID:          project.UserID.String(),
		EnergyClass:     result.EnergyClass,
		Score:           result.Score,
		AnnualKWh:       result.AnnualKWh,
		AnnualCost:      result.AnnualCost,
		AnnualCO2Kg:     result.AnnualCO2Kg,
		Country:         result.Country,
		Recommendations: recs,
		CalculatedAt:    result.CalculatedAt,
	})
	if err != nil {
		s.log.Warn("publish audit.completed failed",
			zap.String("project_id", project.ID.String()),
			zap.String("result_id", result.ID.String()),
			zap.Error(err),
		)
	}
}

// LatestResult serves the cached row only while it is still the newest id in
// the store, so a run committed by another instance is never masked.
func (s *Service) LatestResult(ctx context.Context, projectID snowflake.ID) (*domain.AuditResult, error) {
	latestID, err := s.repo.LatestResultID(ctx, s.db, projectID)
	if err != nil {
		return nil, err
	}
	if latestID == 0 {
		s.latest.Delete(projectID)
		return nil, nil
	}
	if cached, ok := s.latest.Get(projectID); ok && cached.ID == latestID {
		return &cached, nil
	}
	result, err := s.repo.LatestResult(ctx, s.db, projectID)
	if err != nil {
		return nil, err
	}
	if result != nil {
		s.latest.Set(projectID, *result)
	}
	return result, nil
}

func (s *Service) History(ctx context.Context, projectID snowflake.ID, limit int) ([]domain.AuditResult, error) {
	if limit <= 0 {
		limit = defaultHistory
	}
	if limit > maxHistory {
		limit = maxHistory
	}
	return s.repo.ListResults(ctx, s.db, projectID, limit)
}

type equipmentSource struct {
	db   *gorm.DB
	repo invdomain.Repository
}

func (e equipmentSource) EquipmentForBuilding(ctx context.Context, buildingID snowflake.ID) ([]consumption.Item, error) {
	equipment, err := e.repo.ListEquipmentByBuilding(ctx, e.db, buildingID)
	if err != nil {
		return nil, err
	}
	items := make([]consumption.Item, 0, len(equipment))
	for _, eq := range equipment {
		items = append(items, consumption.Item{
			Category:   string(eq.Category),
			UnitWatts:  eq.UnitWatts,
			Quantity:   eq.Quantity,
			DailyHours: eq.DailyHours,
			WeeklyDays: eq.WeeklyDays,
		})
	}
	return items, nil
}

func breakdown(byCategory map[string]float64) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(byCategory))
	for category, kwh := range byCategory {
		out[category] = kwh
	}
	return out
}
