package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/voltixaudit/voltix/internal/clock"
	"github.com/voltixaudit/voltix/internal/inventory/domain"
	obsmetrics "github.com/voltixaudit/voltix/internal/observability/metrics"
	"github.com/voltixaudit/voltix/pkg/db"
	"github.com/voltixaudit/voltix/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Clock    clock.Clock
	Metrics  *obsmetrics.Metrics   `optional:"true"`
	Listener domain.ChangeListener `optional:"true"`
	Limiter  domain.ProjectLimiter `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	clock    clock.Clock
	metrics  *obsmetrics.Metrics
	listener domain.ChangeListener
	limiter  domain.ProjectLimiter
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("inventory.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		clock:    p.Clock,
		metrics:  p.Metrics,
		listener: p.Listener,
		limiter:  p.Limiter,
	}
}

func (s *Service) CreateProject(ctx context.Context, req domain.CreateProjectRequest) (domain.Project, error) {
	if req.UserID == 0 {
		return domain.Project{}, domain.ErrInvalidUser
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Project{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	project := domain.Project{
		ID:             s.genID.Generate(),
		UserID:         req.UserID,
		Name:           name,
		ClientName:     strings.TrimSpace(req.ClientName),
		BuildingType:   strings.TrimSpace(req.BuildingType),
		Status:         domain.ProjectStatusInProgress,
		CompletionPct:  0,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkProjectLimit(ctx, tx, req.UserID); err != nil {
			return err
		}
		return s.repo.InsertProject(ctx, tx, &project)
	})
	if err != nil {
		return domain.Project{}, err
	}

	s.metrics.RecordInventoryMutation(ctx, "project", "add")
	return project, nil
}

func (s *Service) checkProjectLimit(ctx context.Context, tx *gorm.DB, userID snowflake.ID) error {
	if s.limiter == nil {
		return nil
	}
	limit, limited, err := s.limiter.ProjectLimit(ctx, userID)
	if err != nil || !limited {
		return err
	}
	active, err := s.repo.CountActiveProjects(ctx, tx, userID)
	if err != nil {
		return err
	}
	if active >= int64(limit) {
		s.log.Info("project limit reached",
			zap.String("user_id", userID.String()),
			zap.Int64("active", active),
			zap.Int("limit", limit),
		)
		return domain.ErrProjectLimit
	}
	return nil
}

func (s *Service) GetProject(ctx context.Context, userID, projectID snowflake.ID) (domain.Project, error) {
	project, err := s.ownedProject(ctx, s.db, userID, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	return *project, nil
}

func (s *Service) ListProjects(ctx context.Context, req domain.ListProjectsRequest) (domain.ListProjectsResponse, error) {
	if req.UserID == 0 {
		return domain.ListProjectsResponse{}, domain.ErrInvalidUser
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var afterID snowflake.ID
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListProjectsResponse{}, domain.ErrInvalidPageToken
		}
		afterID, err = snowflake.ParseString(cursor.ID)
		if err != nil {
			return domain.ListProjectsResponse{}, domain.ErrInvalidPageToken
		}
	}

	items, err := s.repo.ListProjects(ctx, s.db, req.UserID, afterID, pageSize+1)
	if err != nil {
		return domain.ListProjectsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(project *domain.Project) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: project.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	projects := make([]domain.Project, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		projects = append(projects, *item)
	}

	return domain.ListProjectsResponse{PageInfo: pageInfo, Projects: projects}, nil
}

func (s *Service) CreateBuilding(ctx context.Context, req domain.CreateBuildingRequest) (domain.Building, error) {
	if req.Area <= 0 || math.IsNaN(req.Area) || math.IsInf(req.Area, 0) {
		return domain.Building{}, domain.ErrInvalidArea
	}

	project, err := s.mutableProject(ctx, s.db, req.UserID, req.ProjectID)
	if err != nil {
		return domain.Building{}, err
	}

	existing, err := s.repo.FindBuildingByProject(ctx, s.db, project.ID)
	if err != nil {
		return domain.Building{}, err
	}
	if existing != nil {
		return domain.Building{}, domain.ErrBuildingExists
	}

	now := s.clock.Now()
	building := domain.Building{
		ID:               s.genID.Generate(),
		ProjectID:        project.ID,
		Area:             req.Area,
		ConstructionYear: req.ConstructionYear,
		SuppliedPowerKVA: req.SuppliedPowerKVA,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertBuilding(ctx, tx, &building); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrBuildingExists
			}
			return err
		}
		return s.repo.TouchProject(ctx, tx, project.ID, now)
	})
	if err != nil {
		return domain.Building{}, err
	}

	s.afterChange(ctx, project.ID, "building", "add")
	return building, nil
}

func (s *Service) GetBuilding(ctx context.Context, userID, projectID snowflake.ID) (domain.Building, error) {
	project, err := s.ownedProject(ctx, s.db, userID, projectID)
	if err != nil {
		return domain.Building{}, err
	}
	building, err := s.repo.FindBuildingByProject(ctx, s.db, project.ID)
	if err != nil {
		return domain.Building{}, err
	}
	if building == nil {
		return domain.Building{}, domain.ErrNotFound
	}
	return *building, nil
}

func (s *Service) AddFloor(ctx context.Context, req domain.AddFloorRequest) (domain.Floor, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Floor{}, domain.ErrInvalidName
	}
	if req.Area < 0 || req.CeilingHeight < 0 {
		return domain.Floor{}, domain.ErrInvalidArea
	}

	building, err := s.repo.FindBuilding(ctx, s.db, req.BuildingID)
	if err != nil {
		return domain.Floor{}, err
	}
	if building == nil {
		return domain.Floor{}, domain.ErrNotFound
	}
	if _, err := s.mutableProject(ctx, s.db, req.UserID, building.ProjectID); err != nil {
		return domain.Floor{}, err
	}

	now := s.clock.Now()
	floor := domain.Floor{
		ID:            s.genID.Generate(),
		BuildingID:    building.ID,
		Index:         req.Index,
		Name:          name,
		Area:          req.Area,
		CeilingHeight: req.CeilingHeight,
		CreatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertFloor(ctx, tx, &floor); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrFloorExists
			}
			return err
		}
		return s.repo.TouchProject(ctx, tx, building.ProjectID, now)
	})
	if err != nil {
		return domain.Floor{}, err
	}

	s.afterChange(ctx, building.ProjectID, "floor", "add")
	return floor, nil
}

func (s *Service) RemoveFloor(ctx context.Context, userID, floorID snowflake.ID) error {
	projectID, err := s.repo.ProjectIDForFloor(ctx, s.db, floorID)
	if err != nil {
		return err
	}
	if projectID == 0 {
		return domain.ErrNotFound
	}
	if _, err := s.mutableProject(ctx, s.db, userID, projectID); err != nil {
		return err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteFloorCascade(ctx, tx, floorID); err != nil {
			return err
		}
		return s.repo.TouchProject(ctx, tx, projectID, now)
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, projectID, "floor", "remove")
	return nil
}

func (s *Service) AddRoom(ctx context.Context, req domain.AddRoomRequest) (domain.Room, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Room{}, domain.ErrInvalidName
	}
	if req.Area < 0 {
		return domain.Room{}, domain.ErrInvalidArea
	}
	if req.Occupants < 0 {
		return domain.Room{}, domain.ErrInvalidOccupants
	}

	projectID, err := s.repo.ProjectIDForFloor(ctx, s.db, req.FloorID)
	if err != nil {
		return domain.Room{}, err
	}
	if projectID == 0 {
		return domain.Room{}, domain.ErrNotFound
	}
	if _, err := s.mutableProject(ctx, s.db, req.UserID, projectID); err != nil {
		return domain.Room{}, err
	}

	now := s.clock.Now()
	room := domain.Room{
		ID:        s.genID.Generate(),
		FloorID:   req.FloorID,
		Name:      name,
		RoomType:  strings.TrimSpace(req.RoomType),
		Area:      req.Area,
		Occupants: req.Occupants,
		CreatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertRoom(ctx, tx, &room); err != nil {
			return err
		}
		if err := s.repo.AdjustFloorCounters(ctx, tx, req.FloorID, 1, 0); err != nil {
			return err
		}
		return s.repo.TouchProject(ctx, tx, projectID, now)
	})
	if err != nil {
		return domain.Room{}, err
	}

	s.afterChange(ctx, projectID, "room", "add")
	return room, nil
}

func (s *Service) AddEquipment(ctx context.Context, req domain.AddEquipmentRequest) (domain.Equipment, error) {
	equipment, err := s.buildEquipment(req)
	if err != nil {
		return domain.Equipment{}, err
	}

	room, err := s.repo.FindRoom(ctx, s.db, req.RoomID)
	if err != nil {
		return domain.Equipment{}, err
	}
	if room == nil {
		return domain.Equipment{}, domain.ErrNotFound
	}
	projectID, err := s.repo.ProjectIDForRoom(ctx, s.db, room.ID)
	if err != nil {
		return domain.Equipment{}, err
	}
	if _, err := s.mutableProject(ctx, s.db, req.UserID, projectID); err != nil {
		return domain.Equipment{}, err
	}

	now := s.clock.Now()
	equipment.ID = s.genID.Generate()
	equipment.CreatedAt = now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertEquipment(ctx, tx, &equipment); err != nil {
			return err
		}
		if err := s.repo.AdjustRoomCounters(ctx, tx, room.ID, 1, equipment.Watts()); err != nil {
			return err
		}
		if err := s.repo.AdjustFloorCounters(ctx, tx, room.FloorID, 0, 1); err != nil {
			return err
		}
		return s.repo.TouchProject(ctx, tx, projectID, now)
	})
	if err != nil {
		return domain.Equipment{}, err
	}

	s.afterChange(ctx, projectID, "equipment", "add")
	return equipment, nil
}

func (s *Service) RemoveEquipment(ctx context.Context, userID, equipmentID snowflake.ID) error {
	equipment, err := s.repo.FindEquipment(ctx, s.db, equipmentID)
	if err != nil {
		return err
	}
	if equipment == nil {
		return domain.ErrNotFound
	}
	room, err := s.repo.FindRoom(ctx, s.db, equipment.RoomID)
	if err != nil {
		return err
	}
	if room == nil {
		return domain.ErrNotFound
	}
	projectID, err := s.repo.ProjectIDForRoom(ctx, s.db, room.ID)
	if err != nil {
		return err
	}
	if _, err := s.mutableProject(ctx, s.db, userID, projectID); err != nil {
		return err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteEquipment(ctx, tx, equipment.ID); err != nil {
			return err
		}
		if err := s.repo.AdjustRoomCounters(ctx, tx, room.ID, -1, -equipment.Watts()); err != nil {
			return err
		}
		if err := s.repo.AdjustFloorCounters(ctx, tx, room.FloorID, 0, -1); err != nil {
			return err
		}
		return s.repo.TouchProject(ctx, tx, projectID, now)
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, projectID, "equipment", "remove")
	return nil
}

func (s *Service) Stats(ctx context.Context, userID, projectID snowflake.ID) (domain.Stats, error) {
	project, err := s.ownedProject(ctx, s.db, userID, projectID)
	if err != nil {
		return domain.Stats{}, err
	}
	return s.repo.CountStats(ctx, s.db, project.ID)
}

func (s *Service) buildEquipment(req domain.AddEquipmentRequest) (domain.Equipment, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Equipment{}, domain.ErrInvalidName
	}
	if req.UnitWatts <= 0 || math.IsNaN(req.UnitWatts) || math.IsInf(req.UnitWatts, 0) {
		return domain.Equipment{}, domain.ErrInvalidWattage
	}
	if req.Quantity < 1 {
		return domain.Equipment{}, domain.ErrInvalidQuantity
	}
	if req.DailyHours < 0 || req.DailyHours > 24 || math.IsNaN(req.DailyHours) {
		return domain.Equipment{}, domain.ErrInvalidDailyHours
	}
	if req.WeeklyDays < 0 || req.WeeklyDays > 7 {
		return domain.Equipment{}, domain.ErrInvalidWeeklyDays
	}

	category := domain.InferCategory(name)
	if raw := strings.TrimSpace(req.Category); raw != "" {
		parsed, ok := domain.ParseCategory(raw)
		if !ok {
			return domain.Equipment{}, domain.ErrInvalidCategory
		}
		category = parsed
	}

	return domain.Equipment{
		RoomID:     req.RoomID,
		Name:       name,
		Category:   category,
		UnitWatts:  req.UnitWatts,
		Quantity:   req.Quantity,
		DailyHours: req.DailyHours,
		WeeklyDays: req.WeeklyDays,
	}, nil
}

// ownedProject hides projects of other users behind ErrNotFound.
func (s *Service) ownedProject(ctx context.Context, conn *gorm.DB, userID, projectID snowflake.ID) (*domain.Project, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	project, err := s.repo.FindProject(ctx, conn, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil || project.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return project, nil
}

func (s *Service) mutableProject(ctx context.Context, conn *gorm.DB, userID, projectID snowflake.ID) (*domain.Project, error) {
	project, err := s.ownedProject(ctx, conn, userID, projectID)
	if err != nil {
		return nil, err
	}
	if project.Status == domain.ProjectStatusArchived {
		return nil, domain.ErrProjectArchived
	}
	return project, nil
}

func (s *Service) afterChange(ctx context.Context, projectID snowflake.ID, entity, action string) {
	s.metrics.RecordInventoryMutation(ctx, entity, action)
	if s.listener == nil {
		return
	}
	if err := s.listener.InventoryChanged(ctx, projectID); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("inventory change listener failed",
			zap.String("project_id", projectID.String()),
			zap.String("entity", entity),
			zap.Error(err),
		)
	}
}
