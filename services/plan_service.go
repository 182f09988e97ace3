package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"nutriplan/engine"
	"nutriplan/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PlanService struct {
	db         *gorm.DB
	cutoffHour int
	log        *zap.Logger
	now        func() time.Time
}

func NewPlanService(db *gorm.DB, cutoffHour int, log *zap.Logger) *PlanService {
	return &PlanService{db: db, cutoffHour: cutoffHour, log: log.Named("plans"), now: time.Now}
}

type PlanItemInput struct {
	DayOffset int     `json:"day_offset" validate:"gte=0"`
	Slot      string  `json:"slot" validate:"required,max=32"`
	Name      string  `json:"name" validate:"required,max=160"`
	Calories  float64 `json:"calories" validate:"gte=0"`
	Protein   float64 `json:"protein" validate:"gte=0"`
	Carbs     float64 `json:"carbs" validate:"gte=0"`
	Fat       float64 `json:"fat" validate:"gte=0"`
	Sodium    float64 `json:"sodium" validate:"gte=0"`
	Sugar     float64 `json:"sugar" validate:"gte=0"`
}

// PlanDescriptor is the input for a new plan. PlanID is optional; one is
// generated when empty.
type PlanDescriptor struct {
	PlanID          string          `json:"plan_id" validate:"omitempty,uuid"`
	UserID          uint            `json:"-"`
	Title           string          `json:"title" validate:"max=120"`
	StartInstant    time.Time       `json:"start_instant"`
	CycleLengthDays int             `json:"cycle_length_days"`
	Items           []PlanItemInput `json:"item_manifest" validate:"dive"`
}

func (d PlanDescriptor) validate() error {
	if d.UserID == 0 {
		return engine.ValidationError{Field: "user_id", Reason: "required"}
	}
	if d.StartInstant.IsZero() {
		return engine.ValidationError{Field: "start_instant", Reason: "missing"}
	}
	if d.CycleLengthDays < 1 {
		return engine.ValidationError{Field: "cycle_length_days", Reason: "must be at least 1"}
	}
	if err := validateStruct(d); err != nil {
		return err
	}
	seen := map[string]struct{}{}
	for i, it := range d.Items {
		if it.DayOffset >= d.CycleLengthDays {
			return engine.ValidationError{
				Field:  fmt.Sprintf("item_manifest[%d].day_offset", i),
				Reason: fmt.Sprintf("must be below cycle length %d", d.CycleLengthDays),
			}
		}
		k := fmt.Sprintf("%d/%s", it.DayOffset, it.Slot)
		if _, dup := seen[k]; dup {
			return engine.ValidationError{
				Field:  fmt.Sprintf("item_manifest[%d]", i),
				Reason: fmt.Sprintf("duplicate slot %q on day %d", it.Slot, it.DayOffset),
			}
		}
		seen[k] = struct{}{}
	}
	return nil
}

// CreatePlan persists a plan and its manifest. A new plan is the only way
// for a user to get back to an in-progress cycle after completion.
func (s *PlanService) CreatePlan(ctx context.Context, d PlanDescriptor) (*models.Plan, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	plan := models.Plan{
		ID:              d.PlanID,
		UserID:          d.UserID,
		Title:           d.Title,
		StartInstant:    d.StartInstant,
		CycleLengthDays: d.CycleLengthDays,
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	for _, it := range d.Items {
		plan.Items = append(plan.Items, models.PlanItem{
			ID:        uuid.NewString(),
			DayOffset: it.DayOffset,
			Slot:      it.Slot,
			Name:      it.Name,
			Calories:  it.Calories,
			Protein:   it.Protein,
			Carbs:     it.Carbs,
			Fat:       it.Fat,
			Sodium:    it.Sodium,
			Sugar:     it.Sugar,
		})
	}

	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, engine.ValidationError{Field: "plan_id", Reason: "already exists"}
		}
		return nil, err
	}
	sortItems(plan.Items)
	s.log.Info("plan created",
		zap.String("plan_id", plan.ID), zap.Uint("user_id", plan.UserID),
		zap.Int("cycle_length_days", plan.CycleLengthDays), zap.Int("items", len(plan.Items)))
	return &plan, nil
}

// GetPlan loads a plan owned by userID with its manifest.
func (s *PlanService) GetPlan(ctx context.Context, userID uint, planID string) (*models.Plan, error) {
	return loadPlan(s.db.WithContext(ctx), userID, planID)
}

func loadPlan(db *gorm.DB, userID uint, planID string) (*models.Plan, error) {
	var plan models.Plan
	err := db.Preload("Items").
		Where("id = ? AND user_id = ?", planID, userID).
		Take(&plan).Error
	if err != nil {
		return nil, notFound("plan "+planID, err)
	}
	sortItems(plan.Items)
	return &plan, nil
}

func sortItems(items []models.PlanItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DayOffset != items[j].DayOffset {
			return items[i].DayOffset < items[j].DayOffset
		}
		return items[i].Slot < items[j].Slot
	})
}

// ---------- State ----------

type PlanState struct {
	PlanID    string            `json:"plan_id"`
	Phase     engine.Phase      `json:"phase"`
	Completed bool              `json:"completed"`
	Cycle     engine.CycleState `json:"cycle"`
	Today     []models.PlanItem `json:"today"`
}

// State places the plan in its cycle as of now. It never writes; the
// completion transition belongs to CompletionService.
func (s *PlanService) State(ctx context.Context, userID uint, planID string) (*PlanState, error) {
	plan, err := s.GetPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	cycle, err := engine.ComputeCycle(plan.StartInstant, plan.CycleLengthDays, s.cutoffHour, s.now())
	if err != nil {
		return nil, err
	}
	dec := engine.EvaluateCompletion(plan.Completed, cycle)
	return &PlanState{
		PlanID:    plan.ID,
		Phase:     dec.Phase,
		Completed: plan.Completed,
		Cycle:     cycle,
		Today:     ScheduledItems(plan.Items, cycle),
	}, nil
}

// ScheduledItems returns the manifest entries for the current day of a
// running cycle. Nothing is scheduled before start or after the last day.
func ScheduledItems(items []models.PlanItem, cycle engine.CycleState) []models.PlanItem {
	out := []models.PlanItem{}
	if !cycle.Started || cycle.Exceeded {
		return out
	}
	for _, it := range items {
		if it.DayOffset == cycle.DayIndex {
			out = append(out, it)
		}
	}
	return out
}
