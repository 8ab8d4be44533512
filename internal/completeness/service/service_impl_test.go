package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltixaudit/voltix/internal/clock"
	"github.com/voltixaudit/voltix/internal/completeness/domain"
	"github.com/voltixaudit/voltix/internal/completeness/repository"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
	invrepo "github.com/voltixaudit/voltix/internal/inventory/repository"
	invservice "github.com/voltixaudit/voltix/internal/inventory/service"
	"github.com/voltixaudit/voltix/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	checker   *Service
	inventory invdomain.Service
	userID    snowflake.ID
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&invdomain.Project{},
		&invdomain.Building{},
		&invdomain.Floor{},
		&invdomain.Room{},
		&invdomain.Equipment{},
		&domain.Alert{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2025, 5, 6, 8, 30, 0, 0, time.UTC))
	repo := invrepo.Provide()

	checker := New(Params{
		DB:        conn,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		Repo:      repository.Provide(),
		Inventory: repo,
	})
	inventory := invservice.New(invservice.Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repo,
		Clock:    fake,
		Listener: checker,
	})

	return &fixture{
		db:        conn,
		checker:   checker,
		inventory: inventory,
		userID:    node.Generate(),
	}
}

func kinds(alerts []domain.Alert) []domain.AlertKind {
	out := make([]domain.AlertKind, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Kind)
	}
	return out
}

func TestCheckFollowsInventoryProgress(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	project, err := f.inventory.CreateProject(ctx, invdomain.CreateProjectRequest{UserID: f.userID, Name: "Lycée technique"})
	require.NoError(t, err)

	report, err := f.checker.Check(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.AlertKind{domain.AlertMissingBuilding}, kinds(report.Alerts))
	assert.Equal(t, string(invdomain.ProjectStatusIncomplete), report.Status)
	assert.False(t, report.Complete)

	year := 2008
	power := 48.0
	building, err := f.inventory.CreateBuilding(ctx, invdomain.CreateBuildingRequest{
		UserID:           f.userID,
		ProjectID:        project.ID,
		Area:             320,
		ConstructionYear: &year,
		SuppliedPowerKVA: &power,
	})
	require.NoError(t, err)

	floor, err := f.inventory.AddFloor(ctx, invdomain.AddFloorRequest{UserID: f.userID, BuildingID: building.ID, Name: "RDC"})
	require.NoError(t, err)
	open, err := f.checker.List(ctx, f.userID, project.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []domain.AlertKind{domain.AlertEmptyFloor}, kinds(open))

	room, err := f.inventory.AddRoom(ctx, invdomain.AddRoomRequest{UserID: f.userID, FloorID: floor.ID, Name: "Atelier"})
	require.NoError(t, err)
	open, err = f.checker.List(ctx, f.userID, project.ID, true)
	require.NoError(t, err)
	assert.Equal(t, []domain.AlertKind{domain.AlertRoomWithoutEquipment}, kinds(open))

	_, err = f.inventory.AddEquipment(ctx, invdomain.AddEquipmentRequest{
		UserID:     f.userID,
		RoomID:     room.ID,
		Name:       "Tube LED",
		UnitWatts:  18,
		Quantity:   12,
		DailyHours: 9,
		WeeklyDays: 5,
	})
	require.NoError(t, err)

	open, err = f.checker.List(ctx, f.userID, project.ID, true)
	require.NoError(t, err)
	assert.Empty(t, open)

	stored, err := f.inventory.GetProject(ctx, f.userID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, invdomain.ProjectStatusInProgress, stored.Status)
	assert.Equal(t, 75, stored.CompletionPct)
}

func TestCheckLeavesDoneProjectsAlone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	project, err := f.inventory.CreateProject(ctx, invdomain.CreateProjectRequest{UserID: f.userID, Name: "Entrepôt"})
	require.NoError(t, err)
	require.NoError(t, invrepo.Provide().UpdateProjectStatus(ctx, f.db, project.ID, invdomain.ProjectStatusDone, 100, time.Now()))

	report, err := f.checker.Check(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, string(invdomain.ProjectStatusDone), report.Status)
	assert.Equal(t, 100, report.CompletionPct)
	assert.Equal(t, 1, report.OpenAlerts)
}

func TestResolveAlert(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	project, err := f.inventory.CreateProject(ctx, invdomain.CreateProjectRequest{UserID: f.userID, Name: "Mairie"})
	require.NoError(t, err)
	report, err := f.checker.Check(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, report.Alerts, 1)
	alertID := report.Alerts[0].ID

	assert.ErrorIs(t, f.checker.Resolve(ctx, snowflake.ID(999), alertID), domain.ErrNotFound)
	require.NoError(t, f.checker.Resolve(ctx, f.userID, alertID))
	assert.ErrorIs(t, f.checker.Resolve(ctx, f.userID, alertID), domain.ErrAlreadyResolved)

	open, err := f.checker.List(ctx, f.userID, project.ID, true)
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := f.checker.List(ctx, f.userID, project.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Resolved)
	assert.NotNil(t, all[0].ResolvedAt)

	// Resolved alerts survive a recheck; the still-missing building is reported again.
	_, err = f.checker.Check(ctx, project.ID)
	require.NoError(t, err)
	all, err = f.checker.List(ctx, f.userID, project.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
