// Package consumption estimates the annual energy draw of a building from its
// equipment inventory.
package consumption

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// WeeksPerYear is a flat calendar: no leap weeks, no holidays.
const WeeksPerYear = 52

var ErrNoEquipmentData = errors.New("no_equipment_data")

// Item is the usage profile of one equipment line.
type Item struct {
	Category   string
	UnitWatts  float64
	Quantity   int
	DailyHours float64
	WeeklyDays int
}

// AnnualKWh returns the yearly energy of the line. Inputs are validated when
// the equipment is recorded, so no checks happen here.
func (i Item) AnnualKWh() float64 {
	daily := i.UnitWatts * float64(i.Quantity) * i.DailyHours / 1000
	return daily * float64(i.WeeklyDays) * WeeksPerYear
}

type Result struct {
	AnnualKWh      float64
	EquipmentCount int
	ByCategory     map[string]float64
}

// Source lists the equipment reachable from a building through its floors and rooms.
type Source interface {
	EquipmentForBuilding(ctx context.Context, buildingID snowflake.ID) ([]Item, error)
}

// Aggregate sums the annual energy of items. An empty inventory is reported as
// ErrNoEquipmentData rather than a zero total.
func Aggregate(items []Item) (Result, error) {
	if len(items) == 0 {
		return Result{}, ErrNoEquipmentData
	}

	result := Result{
		EquipmentCount: len(items),
		ByCategory:     make(map[string]float64),
	}
	for _, item := range items {
		kwh := item.AnnualKWh()
		result.AnnualKWh += kwh

		category := item.Category
		if category == "" {
			category = "other"
		}
		result.ByCategory[category] += kwh
	}
	return result, nil
}

func AggregateBuilding(ctx context.Context, src Source, buildingID snowflake.ID) (Result, error) {
	items, err := src.EquipmentForBuilding(ctx, buildingID)
	if err != nil {
		return Result{}, err
	}
	return Aggregate(items)
}
