package domain

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
)

const completionStep = 25

// Snapshot is the slice of inventory a completeness check looks at.
type Snapshot struct {
	Building *invdomain.Building
	Floors   []invdomain.Floor
	Rooms    []invdomain.Room
	Audited  bool
}

// Finding is an alert that has not been persisted yet.
type Finding struct {
	Kind      AlertKind
	SubjectID *snowflake.ID
	Message   string
}

type Evaluation struct {
	Findings      []Finding
	CompletionPct int
}

// Evaluate derives open findings and the completion percentage from a
// snapshot. Findings are ordered building, floors, rooms.
func Evaluate(s Snapshot) Evaluation {
	var eval Evaluation
	if s.Audited {
		eval.CompletionPct += completionStep
	}
	if s.Building == nil {
		eval.Findings = append(eval.Findings, Finding{
			Kind:    AlertMissingBuilding,
			Message: "Aucun bâtiment n'est décrit pour ce projet. Renseignez le bâtiment pour continuer.",
		})
		return eval
	}
	eval.CompletionPct += completionStep

	if missing := missingBuildingData(s.Building); len(missing) > 0 {
		eval.Findings = append(eval.Findings, Finding{
			Kind:    AlertMissingBuildingData,
			Message: fmt.Sprintf("Données manquantes du bâtiment : %s.", strings.Join(missing, ", ")),
		})
	}

	floorNames := make(map[snowflake.ID]string, len(s.Floors))
	allFloorsFilled := len(s.Floors) > 0
	for _, floor := range s.Floors {
		floorNames[floor.ID] = floor.Name
		if floor.RoomCount > 0 {
			continue
		}
		allFloorsFilled = false
		id := floor.ID
		eval.Findings = append(eval.Findings, Finding{
			Kind:      AlertEmptyFloor,
			SubjectID: &id,
			Message:   fmt.Sprintf("L'étage '%s' ne contient aucune pièce. Ajoutez des pièces pour continuer.", floor.Name),
		})
	}
	if allFloorsFilled {
		eval.CompletionPct += completionStep
	}

	allRoomsEquipped := len(s.Rooms) > 0
	for _, room := range s.Rooms {
		if room.EquipmentCount > 0 {
			continue
		}
		allRoomsEquipped = false
		id := room.ID
		eval.Findings = append(eval.Findings, Finding{
			Kind:      AlertRoomWithoutEquipment,
			SubjectID: &id,
			Message:   fmt.Sprintf("La pièce '%s' (%s) n'a aucun équipement. Ajoutez des équipements.", room.Name, floorNames[room.FloorID]),
		})
	}
	if allRoomsEquipped {
		eval.CompletionPct += completionStep
	}

	return eval
}

func missingBuildingData(b *invdomain.Building) []string {
	var missing []string
	if b.Area <= 0 {
		missing = append(missing, "surface totale")
	}
	if b.ConstructionYear == nil {
		missing = append(missing, "année de construction")
	}
	if b.SuppliedPowerKVA == nil {
		missing = append(missing, "puissance souscrite")
	}
	return missing
}

// NextStatus returns the project status after a check. Done and archived
// projects keep their status.
func NextStatus(current invdomain.ProjectStatus, openAlerts int) invdomain.ProjectStatus {
	switch current {
	case invdomain.ProjectStatusDone, invdomain.ProjectStatusArchived:
		return current
	}
	if openAlerts > 0 {
		return invdomain.ProjectStatusIncomplete
	}
	return invdomain.ProjectStatusInProgress
}
