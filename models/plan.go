package models

import (
	"time"

	"nutriplan/engine"
)

// Plan is a multi-day meal plan owned by a user. Everything except
// Completed is immutable after creation.
type Plan struct {
	ID              string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          uint       `gorm:"index;not null" json:"user_id"`
	Title           string     `gorm:"size:120" json:"title"`
	StartInstant    time.Time  `gorm:"not null" json:"start_instant"`
	CycleLengthDays int        `gorm:"not null" json:"cycle_length_days"`
	Completed       bool       `gorm:"not null;default:false" json:"completed"`
	Items           []PlanItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time  `json:"created_at"`
}

// PlanItem is one manifest entry, keyed by (day offset, slot) within a plan.
type PlanItem struct {
	ID        string  `gorm:"type:varchar(36);primaryKey" json:"id"`
	PlanID    string  `gorm:"type:varchar(36);not null;uniqueIndex:idx_plan_item_slot,priority:1" json:"plan_id"`
	DayOffset int     `gorm:"not null;uniqueIndex:idx_plan_item_slot,priority:2" json:"day_offset"`
	Slot      string  `gorm:"size:32;not null;uniqueIndex:idx_plan_item_slot,priority:3" json:"slot"` // breakfast|lunch|…
	Name      string  `gorm:"size:160;not null" json:"name"`
	Calories  float64 `json:"calories"`
	Protein   float64 `json:"protein"`
	Carbs     float64 `json:"carbs"`
	Fat       float64 `json:"fat"`
	Sodium    float64 `json:"sodium"`
	Sugar     float64 `json:"sugar"`
}

func (i PlanItem) Nutrients() engine.Nutrients {
	return engine.Nutrients{
		Calories: i.Calories,
		Protein:  i.Protein,
		Carbs:    i.Carbs,
		Fat:      i.Fat,
		Sodium:   i.Sodium,
		Sugar:    i.Sugar,
	}
}
