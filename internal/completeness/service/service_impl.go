package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/voltixaudit/voltix/internal/clock"
	"github.com/voltixaudit/voltix/internal/completeness/domain"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Inventory invdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	inventory invdomain.Repository
}

func New(p Params) *Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("completeness.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		inventory: p.Inventory,
	}
}

func (s *Service) Check(ctx context.Context, projectID snowflake.ID) (domain.Report, error) {
	var report domain.Report
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.inventory.FindProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if project == nil {
			return domain.ErrNotFound
		}

		snapshot, err := s.snapshot(ctx, tx, project)
		if err != nil {
			return err
		}
		eval := domain.Evaluate(snapshot)

		now := s.clock.Now()
		alerts := make([]domain.Alert, 0, len(eval.Findings))
		critical := 0
		for _, f := range eval.Findings {
			if f.Kind.Critical() {
				critical++
			}
			alerts = append(alerts, domain.Alert{
				ID:        s.genID.Generate(),
				ProjectID: project.ID,
				Kind:      f.Kind,
				SubjectID: f.SubjectID,
				Message:   f.Message,
				CreatedAt: now,
			})
		}
		if err := s.repo.ReplaceOpen(ctx, tx, project.ID, alerts); err != nil {
			return err
		}

		status := domain.NextStatus(project.Status, len(alerts))
		pct := eval.CompletionPct
		if status == invdomain.ProjectStatusDone || status == invdomain.ProjectStatusArchived {
			pct = project.CompletionPct
		}
		if status != project.Status || pct != project.CompletionPct {
			if err := s.inventory.UpdateProjectStatus(ctx, tx, project.ID, status, pct, now); err != nil {
				return err
			}
		}

		report = domain.Report{
			ProjectID:     project.ID,
			Complete:      critical == 0,
			Status:        string(status),
			CompletionPct: pct,
			OpenAlerts:    len(alerts),
			Critical:      critical,
			Alerts:        alerts,
		}
		return nil
	})
	if err != nil {
		return domain.Report{}, err
	}

	s.log.Debug("completeness checked",
		zap.String("project_id", projectID.String()),
		zap.Int("open_alerts", report.OpenAlerts),
		zap.Int("completion_pct", report.CompletionPct),
	)
	return report, nil
}

func (s *Service) snapshot(ctx context.Context, tx *gorm.DB, project *invdomain.Project) (domain.Snapshot, error) {
	snapshot := domain.Snapshot{Audited: project.Status == invdomain.ProjectStatusDone}
	building, err := s.inventory.FindBuildingByProject(ctx, tx, project.ID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if building == nil {
		return snapshot, nil
	}
	snapshot.Building = building

	if snapshot.Floors, err = s.inventory.ListFloors(ctx, tx, building.ID); err != nil {
		return domain.Snapshot{}, err
	}
	if snapshot.Rooms, err = s.inventory.ListRoomsByBuilding(ctx, tx, building.ID); err != nil {
		return domain.Snapshot{}, err
	}
	return snapshot, nil
}

func (s *Service) List(ctx context.Context, userID, projectID snowflake.ID, onlyOpen bool) ([]domain.Alert, error) {
	if err := s.authorize(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.db, projectID, onlyOpen)
}

func (s *Service) Resolve(ctx context.Context, userID, alertID snowflake.ID) error {
	alert, err := s.repo.FindAlert(ctx, s.db, alertID)
	if err != nil {
		return err
	}
	if alert == nil {
		return domain.ErrNotFound
	}
	if err := s.authorize(ctx, userID, alert.ProjectID); err != nil {
		return err
	}

	ok, err := s.repo.Resolve(ctx, s.db, alertID, s.clock.Now())
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAlreadyResolved
	}
	return nil
}

func (s *Service) InventoryChanged(ctx context.Context, projectID snowflake.ID) error {
	_, err := s.Check(ctx, projectID)
	return err
}

func (s *Service) authorize(ctx context.Context, userID, projectID snowflake.ID) error {
	project, err := s.inventory.FindProject(ctx, s.db, projectID)
	if err != nil {
		return err
	}
	if project == nil || project.UserID != userID {
		return domain.ErrNotFound
	}
	return nil
}
