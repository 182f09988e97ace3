package models

import "time"

// QuotaCounter tracks consumption of one resource type by one user in the
// current monthly period. Version is bumped on every write.
type QuotaCounter struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_quota_user_resource,priority:1"`
	ResourceType string    `gorm:"size:32;not null;uniqueIndex:idx_quota_user_resource,priority:2"`
	Count        int64     `gorm:"not null;default:0"`
	Limit        int64     `gorm:"column:quota_limit;not null"`
	PeriodStart  time.Time `gorm:"not null"`
	Version      int64     `gorm:"not null;default:0"`
	UpdatedAt    time.Time
}
