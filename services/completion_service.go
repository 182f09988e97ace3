package services

import (
	"context"
	"time"

	"nutriplan/engine"
	"nutriplan/models"
	"nutriplan/observability"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CompletionService runs the completion state machine for plans and owns
// the single write of Plan.Completed.
type CompletionService struct {
	db         *gorm.DB
	bus        *EventBus
	log        *zap.Logger
	metrics    *observability.Metrics
	cutoffHour int
	minScore   float64
	now        func() time.Time
}

func NewCompletionService(db *gorm.DB, bus *EventBus, cutoffHour int, minScore float64, log *zap.Logger, m *observability.Metrics) *CompletionService {
	return &CompletionService{
		db:         db,
		bus:        bus,
		log:        log.Named("completion"),
		metrics:    m,
		cutoffHour: cutoffHour,
		minScore:   minScore,
		now:        time.Now,
	}
}

type Observation struct {
	Plan  *models.Plan            `json:"-"`
	Cycle engine.CycleState       `json:"cycle"`
	Phase engine.Phase            `json:"phase"`
	Fired bool                    `json:"fired"`
	Event *models.CompletionEvent `json:"event,omitempty"`
}

// Observe evaluates the plan at the current instant. When the cycle has
// been exceeded and the plan is not yet completed, the flag and the
// CompletionEvent are written in one transaction and the event is
// published after commit. Later observations are no-ops.
func (s *CompletionService) Observe(ctx context.Context, userID uint, planID string) (*Observation, error) {
	plan, err := loadPlan(s.db.WithContext(ctx), userID, planID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	cycle, err := engine.ComputeCycle(plan.StartInstant, plan.CycleLengthDays, s.cutoffHour, now)
	if err != nil {
		return nil, err
	}

	dec := engine.EvaluateCompletion(plan.Completed, cycle)
	obs := &Observation{Plan: plan, Cycle: cycle, Phase: dec.Phase}
	if !dec.Fire {
		return obs, nil
	}

	var ev *models.CompletionEvent
	err = withRetry(ctx, "completion", s.log, s.metrics, func() error {
		ev = nil
		return classifyStoreError(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Plan{}).
				Where("id = ? AND completed = ?", plan.ID, false).
				Update("completed", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return nil
			}

			var rows []models.CheckIn
			if err := tx.Where("plan_id = ?", plan.ID).Find(&rows).Error; err != nil {
				return err
			}
			summary := engine.SummarizeCompletion(len(plan.Items), models.Facts(rows), s.minScore, plan.CycleLengthDays)
			e := models.CompletionEvent{
				ID:      uuid.NewString(),
				PlanID:  plan.ID,
				UserID:  plan.UserID,
				FiredAt: now.UTC(),
				Summary: datatypes.NewJSONType(summary),
			}
			if err := tx.Create(&e).Error; err != nil {
				return err
			}
			ev = &e
			return nil
		}))
	})
	if err != nil {
		return nil, err
	}

	plan.Completed = true
	if ev == nil {
		// another observer set the flag between our read and the update
		s.metrics.DuplicateCompletion()
		s.log.Debug("completion already recorded, skipping", zap.String("plan_id", plan.ID))
		return obs, nil
	}

	obs.Fired = true
	obs.Event = ev
	s.metrics.CompletionFired()
	s.log.Info("plan completed",
		zap.String("plan_id", plan.ID), zap.Uint("user_id", plan.UserID),
		zap.String("event_id", ev.ID), zap.Int("elapsed_days", cycle.ElapsedDays))
	s.bus.Publish(ctx, *ev)
	return obs, nil
}

// Event returns the completion event of a plan, if it fired.
func (s *CompletionService) Event(ctx context.Context, userID uint, planID string) (*models.CompletionEvent, error) {
	var ev models.CompletionEvent
	err := s.db.WithContext(ctx).
		Where("plan_id = ? AND user_id = ?", planID, userID).
		Take(&ev).Error
	if err != nil {
		return nil, notFound("completion event", err)
	}
	return &ev, nil
}
