package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/voltixaudit/voltix/internal/inventory/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const projectColumns = `id, user_id, name, client_name, building_type, status, completion_pct, last_activity_at, created_at, updated_at`

func (r *repo) InsertProject(ctx context.Context, db *gorm.DB, project *domain.Project) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO projects (`+projectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID,
		project.UserID,
		project.Name,
		project.ClientName,
		project.BuildingType,
		project.Status,
		project.CompletionPct,
		project.LastActivityAt,
		project.CreatedAt,
		project.UpdatedAt,
	).Error
}

func (r *repo) FindProject(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Project, error) {
	var project domain.Project
	err := db.WithContext(ctx).Raw(
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`,
		id,
	).Scan(&project).Error
	if err != nil {
		return nil, err
	}
	if project.ID == 0 {
		return nil, nil
	}
	return &project, nil
}

func (r *repo) ListProjects(ctx context.Context, db *gorm.DB, userID snowflake.ID, afterID snowflake.ID, limit int) ([]*domain.Project, error) {
	var projects []*domain.Project
	stmt := db.WithContext(ctx).
		Model(&domain.Project{}).
		Where("user_id = ?", userID)
	if afterID != 0 {
		stmt = stmt.Where("id < ?", afterID)
	}
	err := stmt.
		Order("id desc").
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *repo) UpdateProjectStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.ProjectStatus, completionPct int, now time.Time) error {
	result := db.WithContext(ctx).Exec(
		`UPDATE projects SET status = ?, completion_pct = ?, last_activity_at = ?, updated_at = ? WHERE id = ?`,
		status,
		completionPct,
		now,
		now,
		id,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) TouchProject(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE projects SET last_activity_at = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	).Error
}

func (r *repo) ArchiveInactiveProjects(ctx context.Context, db *gorm.DB, plan string, inactiveSince, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE projects SET status = ?, updated_at = ?
		 WHERE status <> ?
		   AND last_activity_at < ?
		   AND user_id IN (SELECT id FROM users WHERE plan = ?)`,
		domain.ProjectStatusArchived,
		now,
		domain.ProjectStatusArchived,
		inactiveSince,
		plan,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) CountActiveProjects(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM projects WHERE user_id = ? AND status <> ?`,
		userID,
		domain.ProjectStatusArchived,
	).Scan(&count).Error
	return count, err
}

func (r *repo) InsertBuilding(ctx context.Context, db *gorm.DB, building *domain.Building) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO buildings (id, project_id, area_m2, construction_year, supplied_power_kva, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		building.ID,
		building.ProjectID,
		building.Area,
		building.ConstructionYear,
		building.SuppliedPowerKVA,
		building.CreatedAt,
		building.UpdatedAt,
	).Error
}

func (r *repo) FindBuilding(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Building, error) {
	return r.findBuilding(ctx, db, "id = ?", id)
}

func (r *repo) FindBuildingByProject(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (*domain.Building, error) {
	return r.findBuilding(ctx, db, "project_id = ?", projectID)
}

func (r *repo) findBuilding(ctx context.Context, db *gorm.DB, where string, arg any) (*domain.Building, error) {
	var building domain.Building
	err := db.WithContext(ctx).Raw(
		`SELECT id, project_id, area_m2, construction_year, supplied_power_kva, created_at, updated_at
		 FROM buildings WHERE `+where,
		arg,
	).Scan(&building).Error
	if err != nil {
		return nil, err
	}
	if building.ID == 0 {
		return nil, nil
	}
	return &building, nil
}

func (r *repo) InsertFloor(ctx context.Context, db *gorm.DB, floor *domain.Floor) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO floors (id, building_id, floor_index, name, area_m2, ceiling_height_m, room_count, equipment_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		floor.ID,
		floor.BuildingID,
		floor.Index,
		floor.Name,
		floor.Area,
		floor.CeilingHeight,
		floor.RoomCount,
		floor.EquipmentCount,
		floor.CreatedAt,
	).Error
}

func (r *repo) FindFloor(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Floor, error) {
	var floor domain.Floor
	err := db.WithContext(ctx).Raw(
		`SELECT id, building_id, floor_index, name, area_m2, ceiling_height_m, room_count, equipment_count, created_at
		 FROM floors WHERE id = ?`,
		id,
	).Scan(&floor).Error
	if err != nil {
		return nil, err
	}
	if floor.ID == 0 {
		return nil, nil
	}
	return &floor, nil
}

func (r *repo) ListFloors(ctx context.Context, db *gorm.DB, buildingID snowflake.ID) ([]domain.Floor, error) {
	var floors []domain.Floor
	err := db.WithContext(ctx).Raw(
		`SELECT id, building_id, floor_index, name, area_m2, ceiling_height_m, room_count, equipment_count, created_at
		 FROM floors WHERE building_id = ? ORDER BY floor_index ASC`,
		buildingID,
	).Scan(&floors).Error
	return floors, err
}

// DeleteFloorCascade removes the floor with its rooms and equipment. Callers
// run it inside a transaction.
func (r *repo) DeleteFloorCascade(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	tx := db.WithContext(ctx)
	if err := tx.Exec(
		`DELETE FROM equipment WHERE room_id IN (SELECT id FROM rooms WHERE floor_id = ?)`,
		id,
	).Error; err != nil {
		return err
	}
	if err := tx.Exec(`DELETE FROM rooms WHERE floor_id = ?`, id).Error; err != nil {
		return err
	}
	result := tx.Exec(`DELETE FROM floors WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) AdjustFloorCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, roomDelta, equipmentDelta int) error {
	return db.WithContext(ctx).Exec(
		`UPDATE floors
		 SET room_count = CASE WHEN room_count + ? < 0 THEN 0 ELSE room_count + ? END,
		     equipment_count = CASE WHEN equipment_count + ? < 0 THEN 0 ELSE equipment_count + ? END
		 WHERE id = ?`,
		roomDelta, roomDelta,
		equipmentDelta, equipmentDelta,
		id,
	).Error
}

func (r *repo) InsertRoom(ctx context.Context, db *gorm.DB, room *domain.Room) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO rooms (id, floor_id, name, room_type, area_m2, occupants, equipment_count, total_watts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.FloorID,
		room.Name,
		room.RoomType,
		room.Area,
		room.Occupants,
		room.EquipmentCount,
		room.TotalWatts,
		room.CreatedAt,
	).Error
}

func (r *repo) FindRoom(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Room, error) {
	var room domain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT id, floor_id, name, room_type, area_m2, occupants, equipment_count, total_watts, created_at
		 FROM rooms WHERE id = ?`,
		id,
	).Scan(&room).Error
	if err != nil {
		return nil, err
	}
	if room.ID == 0 {
		return nil, nil
	}
	return &room, nil
}

func (r *repo) ListRoomsByBuilding(ctx context.Context, db *gorm.DB, buildingID snowflake.ID) ([]domain.Room, error) {
	var rooms []domain.Room
	err := db.WithContext(ctx).Raw(
		`SELECT r.id, r.floor_id, r.name, r.room_type, r.area_m2, r.occupants, r.equipment_count, r.total_watts, r.created_at
		 FROM rooms r
		 JOIN floors f ON f.id = r.floor_id
		 WHERE f.building_id = ?
		 ORDER BY f.floor_index ASC, r.id ASC`,
		buildingID,
	).Scan(&rooms).Error
	return rooms, err
}

func (r *repo) AdjustRoomCounters(ctx context.Context, db *gorm.DB, id snowflake.ID, equipmentDelta int, wattsDelta float64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE rooms
		 SET equipment_count = CASE WHEN equipment_count + ? < 0 THEN 0 ELSE equipment_count + ? END,
		     total_watts = CASE WHEN total_watts + ? < 0 THEN 0 ELSE total_watts + ? END
		 WHERE id = ?`,
		equipmentDelta, equipmentDelta,
		wattsDelta, wattsDelta,
		id,
	).Error
}

const equipmentColumns = `id, room_id, name, category, unit_watts, quantity, daily_hours, weekly_days, created_at`

func (r *repo) InsertEquipment(ctx context.Context, db *gorm.DB, equipment *domain.Equipment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO equipment (`+equipmentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		equipment.ID,
		equipment.RoomID,
		equipment.Name,
		equipment.Category,
		equipment.UnitWatts,
		equipment.Quantity,
		equipment.DailyHours,
		equipment.WeeklyDays,
		equipment.CreatedAt,
	).Error
}

func (r *repo) FindEquipment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Equipment, error) {
	var equipment domain.Equipment
	err := db.WithContext(ctx).Raw(
		`SELECT `+equipmentColumns+` FROM equipment WHERE id = ?`,
		id,
	).Scan(&equipment).Error
	if err != nil {
		return nil, err
	}
	if equipment.ID == 0 {
		return nil, nil
	}
	return &equipment, nil
}

func (r *repo) DeleteEquipment(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	result := db.WithContext(ctx).Exec(`DELETE FROM equipment WHERE id = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) ListEquipmentByBuilding(ctx context.Context, db *gorm.DB, buildingID snowflake.ID) ([]domain.Equipment, error) {
	var items []domain.Equipment
	err := db.WithContext(ctx).Raw(
		`SELECT e.id, e.room_id, e.name, e.category, e.unit_watts, e.quantity, e.daily_hours, e.weekly_days, e.created_at
		 FROM equipment e
		 JOIN rooms r ON r.id = e.room_id
		 JOIN floors f ON f.id = r.floor_id
		 WHERE f.building_id = ?
		 ORDER BY e.id ASC`,
		buildingID,
	).Scan(&items).Error
	return items, err
}

type projectRef struct {
	ProjectID snowflake.ID
}

func (r *repo) ProjectIDForFloor(ctx context.Context, db *gorm.DB, floorID snowflake.ID) (snowflake.ID, error) {
	var ref projectRef
	err := db.WithContext(ctx).Raw(
		`SELECT b.project_id AS project_id
		 FROM floors f
		 JOIN buildings b ON b.id = f.building_id
		 WHERE f.id = ?`,
		floorID,
	).Scan(&ref).Error
	return ref.ProjectID, err
}

func (r *repo) ProjectIDForRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID) (snowflake.ID, error) {
	var ref projectRef
	err := db.WithContext(ctx).Raw(
		`SELECT b.project_id AS project_id
		 FROM rooms r
		 JOIN floors f ON f.id = r.floor_id
		 JOIN buildings b ON b.id = f.building_id
		 WHERE r.id = ?`,
		roomID,
	).Scan(&ref).Error
	return ref.ProjectID, err
}

func (r *repo) CountStats(ctx context.Context, db *gorm.DB, projectID snowflake.ID) (domain.Stats, error) {
	var stats domain.Stats
	err := db.WithContext(ctx).Raw(
		`SELECT
		   (SELECT COUNT(*) FROM floors f JOIN buildings b ON b.id = f.building_id WHERE b.project_id = ?) AS floors,
		   (SELECT COUNT(*) FROM rooms r JOIN floors f ON f.id = r.floor_id JOIN buildings b ON b.id = f.building_id WHERE b.project_id = ?) AS rooms,
		   (SELECT COUNT(*) FROM equipment e JOIN rooms r ON r.id = e.room_id JOIN floors f ON f.id = r.floor_id JOIN buildings b ON b.id = f.building_id WHERE b.project_id = ?) AS equipment`,
		projectID, projectID, projectID,
	).Scan(&stats).Error
	return stats, err
}
