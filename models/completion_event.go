package models

import (
	"time"

	"nutriplan/engine"

	"gorm.io/datatypes"
)

// CompletionEvent is written once per plan, in the same transaction that
// sets Plan.Completed. The unique plan index backs that guarantee.
type CompletionEvent struct {
	ID      string                                       `gorm:"type:varchar(36);primaryKey" json:"id"`
	PlanID  string                                       `gorm:"type:varchar(36);uniqueIndex;not null" json:"plan_id"`
	UserID  uint                                         `gorm:"index;not null" json:"user_id"`
	FiredAt time.Time                                    `gorm:"not null" json:"fired_at"`
	Summary datatypes.JSONType[engine.CompletionSummary] `json:"summary"`
}
