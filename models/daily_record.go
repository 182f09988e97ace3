package models

import (
	"time"

	"nutriplan/engine"

	"gorm.io/datatypes"
)

// DailyRecord holds at most one goal outcome per user per calendar date.
// Date is stored as UTC midnight of the user's local day.
type DailyRecord struct {
	ID            uint                                       `gorm:"primaryKey" json:"id"`
	UserID        uint                                       `gorm:"not null;uniqueIndex:idx_daily_record_user_date,priority:1" json:"user_id"`
	Date          time.Time                                  `gorm:"not null;uniqueIndex:idx_daily_record_user_date,priority:2" json:"date"`
	GoalSatisfied bool                                       `gorm:"not null" json:"goal_satisfied"`
	RawMetrics    datatypes.JSONType[[]engine.MetricReading] `json:"raw_metrics"`
	CreatedAt     time.Time                                  `json:"created_at"`
	UpdatedAt     time.Time                                  `json:"updated_at"`
}
