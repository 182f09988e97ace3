package services

import (
	"context"
	"errors"

	"nutriplan/engine"
	"nutriplan/models"

	"gorm.io/gorm"
)

// QuotaKey identifies one counter.
type QuotaKey struct {
	UserID   uint
	Resource engine.ResourceType
}

// QuotaMutation receives the stored state (exists=false when there is no
// counter yet) and returns the state to persist. write=false leaves the
// store untouched.
type QuotaMutation func(state engine.QuotaCounterState, exists bool) (next engine.QuotaCounterState, write bool)

// QuotaStore applies a mutation as one atomic read-modify-write. A lost
// race is reported as engine.ErrConflict and the caller may retry; fn can
// therefore run more than once per logical request.
type QuotaStore interface {
	Mutate(ctx context.Context, key QuotaKey, fn QuotaMutation) error
}

// GormQuotaStore keeps counters in the quota_counters table and guards
// updates with a version compare-and-swap.
type GormQuotaStore struct{ db *gorm.DB }

func NewGormQuotaStore(db *gorm.DB) *GormQuotaStore { return &GormQuotaStore{db: db} }

func (s *GormQuotaStore) Mutate(ctx context.Context, key QuotaKey, fn QuotaMutation) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.QuotaCounter
		exists := true
		err := tx.Where("user_id = ? AND resource_type = ?", key.UserID, string(key.Resource)).Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			exists = false
		} else if err != nil {
			return err
		}

		cur := engine.QuotaCounterState{Count: row.Count, Limit: row.Limit, PeriodStart: row.PeriodStart}
		next, write := fn(cur, exists)
		if !write {
			return nil
		}

		if !exists {
			// a concurrent insert fails on the unique index and is retried
			return tx.Create(&models.QuotaCounter{
				UserID:       key.UserID,
				ResourceType: string(key.Resource),
				Count:        next.Count,
				Limit:        next.Limit,
				PeriodStart:  next.PeriodStart,
				Version:      1,
			}).Error
		}

		res := tx.Model(&models.QuotaCounter{}).
			Where("id = ? AND version = ?", row.ID, row.Version).
			Updates(map[string]any{
				"count":        next.Count,
				"quota_limit":  next.Limit,
				"period_start": next.PeriodStart,
				"version":      row.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return engine.ErrConflict
		}
		return nil
	})
	return classifyStoreError(err)
}
