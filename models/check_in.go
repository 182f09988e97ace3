package models

import (
	"time"

	"nutriplan/engine"
)

// CheckIn is an append-only record of eating a plan item. The item name and
// nutrients are snapshotted from the manifest at write time.
type CheckIn struct {
	ID                string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PlanID            string    `gorm:"type:varchar(36);index;not null" json:"plan_id"`
	UserID            uint      `gorm:"index;not null" json:"user_id"`
	ItemID            string    `gorm:"type:varchar(36);not null" json:"item_id"`
	ItemName          string    `gorm:"size:160" json:"item_name"`
	DayOffset         int       `json:"day_offset"`
	At                time.Time `gorm:"index;not null" json:"at"`
	VerificationScore float64   `json:"verification_score"`
	Notes             *string   `gorm:"type:text" json:"notes,omitempty"`

	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Sodium   float64 `json:"sodium"`
	Sugar    float64 `json:"sugar"`
}

func (c CheckIn) Fact() engine.CheckInFact {
	return engine.CheckInFact{
		ItemID:    c.ItemID,
		ItemName:  c.ItemName,
		DayOffset: c.DayOffset,
		At:        c.At,
		Score:     c.VerificationScore,
		Nutrients: engine.Nutrients{
			Calories: c.Calories,
			Protein:  c.Protein,
			Carbs:    c.Carbs,
			Fat:      c.Fat,
			Sodium:   c.Sodium,
			Sugar:    c.Sugar,
		},
	}
}

// Facts converts rows for the engine aggregations.
func Facts(rows []CheckIn) []engine.CheckInFact {
	out := make([]engine.CheckInFact, len(rows))
	for i, r := range rows {
		out[i] = r.Fact()
	}
	return out
}
