package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	accountdomain "github.com/voltixaudit/voltix/internal/account/domain"
	"github.com/voltixaudit/voltix/internal/clock"
	"github.com/voltixaudit/voltix/internal/inventory/domain"
	"github.com/voltixaudit/voltix/internal/inventory/repository"
	"github.com/voltixaudit/voltix/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type listenerStub struct {
	mu       sync.Mutex
	projects []snowflake.ID
}

func (l *listenerStub) InventoryChanged(ctx context.Context, projectID snowflake.ID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.projects = append(l.projects, projectID)
	return nil
}

func (l *listenerStub) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.projects)
}

type fixture struct {
	svc      domain.Service
	db       *gorm.DB
	clock    *clock.FakeClock
	node     *snowflake.Node
	listener *listenerStub
	userID   snowflake.ID
}

func setupInventory(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&domain.Project{},
		&domain.Building{},
		&domain.Floor{},
		&domain.Room{},
		&domain.Equipment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	listener := &listenerStub{}

	svc := New(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Clock:    fake,
		Listener: listener,
	})

	return &fixture{
		svc:      svc,
		db:       conn,
		clock:    fake,
		node:     node,
		listener: listener,
		userID:   node.Generate(),
	}
}

func (f *fixture) project(t *testing.T) domain.Project {
	t.Helper()
	project, err := f.svc.CreateProject(context.Background(), domain.CreateProjectRequest{
		UserID:       f.userID,
		Name:         "Siège social",
		ClientName:   "SBEE",
		BuildingType: "office",
	})
	require.NoError(t, err)
	return project
}

func (f *fixture) room(t *testing.T) (domain.Project, domain.Floor, domain.Room) {
	t.Helper()
	ctx := context.Background()
	project := f.project(t)
	building, err := f.svc.CreateBuilding(ctx, domain.CreateBuildingRequest{
		UserID:    f.userID,
		ProjectID: project.ID,
		Area:      250,
	})
	require.NoError(t, err)
	floor, err := f.svc.AddFloor(ctx, domain.AddFloorRequest{
		UserID:     f.userID,
		BuildingID: building.ID,
		Index:      0,
		Name:       "Rez-de-chaussée",
		Area:       250,
	})
	require.NoError(t, err)
	room, err := f.svc.AddRoom(ctx, domain.AddRoomRequest{
		UserID:    f.userID,
		FloorID:   floor.ID,
		Name:      "Accueil",
		RoomType:  "office",
		Area:      40,
		Occupants: 3,
	})
	require.NoError(t, err)
	return project, floor, room
}

func TestCreateProjectValidatesInput(t *testing.T) {
	f := setupInventory(t)
	ctx := context.Background()

	_, err := f.svc.CreateProject(ctx, domain.CreateProjectRequest{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = f.svc.CreateProject(ctx, domain.CreateProjectRequest{UserID: f.userID, Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	project := f.project(t)
	assert.Equal(t, domain.ProjectStatusInProgress, project.Status)
	assert.Equal(t, f.clock.Now(), project.LastActivityAt)
}

func TestGetProjectHidesOtherUsers(t *testing.T) {
	f := setupInventory(t)
	project := f.project(t)

	_, err := f.svc.GetProject(context.Background(), f.node.Generate(), project.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.svc.GetProject(context.Background(), f.userID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.Name, got.Name)
}

func TestListProjectsPaginates(t *testing.T) {
	f := setupInventory(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		f.project(t)
	}

	first, err := f.svc.ListProjects(ctx, domain.ListProjectsRequest{UserID: f.userID, PageSize: 3})
	require.NoError(t, err)
	require.Len(t, first.Projects, 3)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := f.svc.ListProjects(ctx, domain.ListProjectsRequest{
		UserID:    f.userID,
		PageSize:  3,
		PageToken: first.NextPageToken,
	})
	require.NoError(t, err)
	require.Len(t, second.Projects, 2)
	assert.False(t, second.HasMore)

	seen := map[snowflake.ID]bool{}
	for _, p := range append(first.Projects, second.Projects...) {
		assert.False(t, seen[p.ID], "project %s listed twice", p.ID)
		seen[p.ID] = true
	}

	_, err = f.svc.ListProjects(ctx, domain.ListProjectsRequest{UserID: f.userID, PageToken: "%%%"})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestCreateBuildingOncePerProject(t *testing.T) {
	f := setupInventory(t)
	ctx := context.Background()
	project := f.project(t)

	_, err := f.svc.CreateBuilding(ctx, domain.CreateBuildingRequest{UserID: f.userID, ProjectID: project.ID, Area: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidArea)

	_, err = f.svc.CreateBuilding(ctx, domain.CreateBuildingRequest{UserID: f.userID, ProjectID: project.ID, Area: 120})
	require.NoError(t, err)

	_, err = f.svc.CreateBuilding(ctx, domain.CreateBuildingRequest{UserID: f.userID, ProjectID: project.ID, Area: 90})
	assert.ErrorIs(t, err, domain.ErrBuildingExists)
}

func TestAddFloorRejectsDuplicateIndex(t *testing.T) {
	f := setupInventory(t)
	ctx := context.Background()
	project := f.project(t)
	building, err := f.svc.CreateBuilding(ctx, domain.CreateBuildingRequest{UserID: f.userID, ProjectID: project.ID, Area: 120})
	require.NoError(t, err)

	_, err = f.svc.AddFloor(ctx, domain.AddFloorRequest{UserID: f.userID, BuildingID: building.ID, Index: 1, Name: "R+1"})
	require.NoError(t, err)
	_, err = f.svc.AddFloor(ctx, domain.AddFloorRequest{UserID: f.userID, BuildingID: building.ID, Index: 1, Name: "R+1 bis"})
	assert.ErrorIs(t, err, domain.ErrFloorExists)
}

func TestAddEquipmentMaintainsCounters(t *testing.T) {
	f := setupInventory(t)
	ctx := context.Background()
	project, floor, room := f.room(t)

	f.clock.Advance(time.Hour)
	equipment, err := f.svc.AddEquipment(ctx, domain.AddEquipmentRequest{
		UserID:     f.userID,
		RoomID:     room.ID,
		Name:       "Ampoules LED",
		UnitWatts:  10,
		Quantity:   4,
		DailyHours: 8,
		WeeklyDays: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryLighting, equipment.Category)

	_, err = f.svc.AddEquipment(ctx, domain.AddEquipmentRequest{
		UserID:     f.userID,
		RoomID:     room.ID,
		Name:       "Split salle",
		Category:   "cooling",
		UnitWatts:  1500,
		Quantity:   1,
		DailyHours: 6,
		WeeklyDays: 5,
	})
	require.NoError(t, err)

	var storedRoom domain.Room
	require.NoError(t, f.db.First(&storedRoom, "id = ?", room.ID).Error)
	assert.Equal(t, 2, storedRoom.EquipmentCount)
	assert.InDelta(t, 1540, storedRoom.TotalWatts, 1e-9)

	var storedFloor domain.Floor
	require.NoError(t, f.db.First(&storedFloor, "id = ?", floor.ID).Error)
	assert.Equal(t, 1, storedFloor.RoomCount)
	assert.Equal(t, 2, storedFloor.EquipmentCount)

	got, err := f.svc.GetProject(ctx, f.userID, project.ID)
	require.NoError(t, err)
	assert.True(t, got.LastActivityAt.Equal(f.clock.Now()))

	require.NoError(t, f.svc.RemoveEquipment(ctx, f.userID, equipment.ID))
	require.NoError(t, f.db.First(&storedRoom, "id = ?", room.ID).Error)
	assert.Equal(t, 1, storedRoom.EquipmentCount)
	assert.InDelta(t, 1500, storedRoom.TotalWatts, 1e-9)

	assert.Equal(t, 6, f.listener.Calls())
}

func TestAddEquipmentValidation(t *testing.T) {
	f := setupInventory(t)
	ctx := context.Background()
	_, _, room := f.room(t)

	base := domain.AddEquipmentRequest{
		UserID:     f.userID,
		RoomID:     room.ID,
		Name:       "Ordinateur",
		UnitWatts:  120,
		Quantity:   2,
		DailyHours: 8,
		WeeklyDays: 5,
	}

	cases := []struct {
		name   string
		mutate func(*domain.AddEquipmentRequest)
		want   error
	}{
		{"zero watts", func(r *domain.AddEquipmentRequest) { r.UnitWatts = 0 }, domain.ErrInvalidWattage},
		{"zero quantity", func(r *domain.AddEquipmentRequest) { r.Quantity = 0 }, domain.ErrInvalidQuantity},
		{"too many hours", func(r *domain.AddEquipmentRequest) { r.DailyHours = 25 }, domain.ErrInvalidDailyHours},
		{"too many days", func(r *domain.AddEquipmentRequest) { r.WeeklyDays = 8 }, domain.ErrInvalidWeeklyDays},
		{"unknown category", func(r *domain.AddEquipmentRequest) { r.Category = "garden" }, domain.ErrInvalidCategory},
		{"blank name", func(r *domain.AddEquipmentRequest) { r.Name = "" }, domain.ErrInvalidName},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := f.svc.AddEquipment(ctx, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRemoveFloorCascades(t *testing.T) {
	f := setupInventory(t)
	ctx := context.Background()
	project, floor, room := f.room(t)

	_, err := f.svc.AddEquipment(ctx, domain.AddEquipmentRequest{
		UserID:     f.userID,
		RoomID:     room.ID,
		Name:       "Réfrigérateur",
		UnitWatts:  150,
		Quantity:   1,
		DailyHours: 24,
		WeeklyDays: 7,
	})
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, f.userID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Floors: 1, Rooms: 1, Equipment: 1}, stats)

	require.NoError(t, f.svc.RemoveFloor(ctx, f.userID, floor.ID))

	stats, err = f.svc.Stats(ctx, f.userID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{}, stats)

	assert.ErrorIs(t, f.svc.RemoveFloor(ctx, f.userID, floor.ID), domain.ErrNotFound)
}

func TestArchivedProjectRejectsMutations(t *testing.T) {
	f := setupInventory(t)
	ctx := context.Background()
	project := f.project(t)

	require.NoError(t, repository.Provide().UpdateProjectStatus(ctx, f.db, project.ID, domain.ProjectStatusArchived, 0, f.clock.Now()))

	_, err := f.svc.CreateBuilding(ctx, domain.CreateBuildingRequest{UserID: f.userID, ProjectID: project.ID, Area: 80})
	assert.ErrorIs(t, err, domain.ErrProjectArchived)
}

type planLimiter struct {
	plans map[snowflake.ID]accountdomain.Plan
}

func (l *planLimiter) ProjectLimit(_ context.Context, userID snowflake.ID) (int, bool, error) {
	spec, ok := accountdomain.LookupPlan(l.plans[userID])
	if !ok {
		return 0, false, accountdomain.ErrUnknownPlan
	}
	if spec.MaxActiveProjects == accountdomain.Unlimited {
		return 0, false, nil
	}
	return spec.MaxActiveProjects, true, nil
}

func TestCreateProjectEnforcesActiveProjectCap(t *testing.T) {
	f := setupInventory(t)
	ctx := context.Background()
	proUser := f.node.Generate()
	limiter := &planLimiter{plans: map[snowflake.ID]accountdomain.Plan{
		f.userID: accountdomain.PlanFree,
		proUser:  accountdomain.PlanPro,
	}}
	svc := New(Params{
		DB:      f.db,
		Log:     zap.NewNop(),
		GenID:   f.node,
		Repo:    repository.Provide(),
		Clock:   f.clock,
		Limiter: limiter,
	})

	var created []domain.Project
	for i := 0; i < 3; i++ {
		project, err := svc.CreateProject(ctx, domain.CreateProjectRequest{UserID: f.userID, Name: "Agence"})
		require.NoError(t, err)
		created = append(created, project)
	}

	_, err := svc.CreateProject(ctx, domain.CreateProjectRequest{UserID: f.userID, Name: "Quatrième"})
	require.ErrorIs(t, err, domain.ErrProjectLimit)

	var stored int64
	require.NoError(t, f.db.Model(&domain.Project{}).Where("user_id = ?", f.userID).Count(&stored).Error)
	assert.Equal(t, int64(3), stored)

	require.NoError(t, repository.Provide().UpdateProjectStatus(ctx, f.db, created[0].ID, domain.ProjectStatusArchived, 0, f.clock.Now()))
	_, err = svc.CreateProject(ctx, domain.CreateProjectRequest{UserID: f.userID, Name: "Quatrième"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := svc.CreateProject(ctx, domain.CreateProjectRequest{UserID: proUser, Name: "Site"})
		require.NoError(t, err)
	}
}

func TestCreateProjectSurfacesLimiterErrors(t *testing.T) {
	f := setupInventory(t)
	svc := New(Params{
		DB:      f.db,
		Log:     zap.NewNop(),
		GenID:   f.node,
		Repo:    repository.Provide(),
		Clock:   f.clock,
		Limiter: &planLimiter{plans: map[snowflake.ID]accountdomain.Plan{}},
	})

	_, err := svc.CreateProject(context.Background(), domain.CreateProjectRequest{UserID: f.userID, Name: "Agence"})
	assert.ErrorIs(t, err, accountdomain.ErrUnknownPlan)
}
