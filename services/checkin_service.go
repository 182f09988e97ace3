package services

import (
	"context"
	"fmt"
	"time"

	"nutriplan/engine"
	"nutriplan/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckInService appends check-ins. Rows are never updated or deleted.
type CheckInService struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewCheckInService(db *gorm.DB, log *zap.Logger) *CheckInService {
	return &CheckInService{db: db, log: log.Named("checkins"), now: time.Now}
}

// CheckInSubmission records eating one manifest item. VerificationScore is
// produced by an external scorer; At defaults to now.
type CheckInSubmission struct {
	PlanID            string    `json:"-"`
	UserID            uint      `json:"-"`
	ItemID            string    `json:"item_id" validate:"required"`
	DayOffset         int       `json:"day_offset" validate:"gte=0"`
	VerificationScore float64   `json:"verification_score" validate:"gte=0,lte=100"`
	Notes             *string   `json:"notes" validate:"omitempty,max=1000"`
	At                time.Time `json:"at"`
}

// Check validates a submission against its plan without writing and
// returns the manifest item it refers to.
func (s *CheckInService) Check(ctx context.Context, in CheckInSubmission) (*models.PlanItem, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	plan, err := loadPlan(s.db.WithContext(ctx), in.UserID, in.PlanID)
	if err != nil {
		return nil, err
	}
	if in.DayOffset >= plan.CycleLengthDays {
		return nil, engine.ValidationError{
			Field:  "day_offset",
			Reason: fmt.Sprintf("must be below cycle length %d", plan.CycleLengthDays),
		}
	}
	for i := range plan.Items {
		if plan.Items[i].ID == in.ItemID {
			return &plan.Items[i], nil
		}
	}
	return nil, fmt.Errorf("item %s: %w", in.ItemID, engine.ErrNotFound)
}

func (s *CheckInService) Record(ctx context.Context, in CheckInSubmission) (*models.CheckIn, error) {
	item, err := s.Check(ctx, in)
	if err != nil {
		return nil, err
	}

	at := in.At
	if at.IsZero() {
		at = s.now()
	}
	c := models.CheckIn{
		ID:                uuid.NewString(),
		PlanID:            item.PlanID,
		UserID:            in.UserID,
		ItemID:            item.ID,
		ItemName:          item.Name,
		DayOffset:         in.DayOffset,
		At:                at.UTC(),
		VerificationScore: in.VerificationScore,
		Notes:             in.Notes,
		Calories:          item.Calories,
		Protein:           item.Protein,
		Carbs:             item.Carbs,
		Fat:               item.Fat,
		Sodium:            item.Sodium,
		Sugar:             item.Sugar,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	s.log.Debug("check-in recorded",
		zap.String("plan_id", c.PlanID), zap.String("item_id", c.ItemID), zap.Float64("score", c.VerificationScore))
	return &c, nil
}

func (s *CheckInService) ListForPlan(ctx context.Context, userID uint, planID string) ([]models.CheckIn, error) {
	var rows []models.CheckIn
	err := s.db.WithContext(ctx).
		Where("plan_id = ? AND user_id = ?", planID, userID).
		Order("at ASC").
		Find(&rows).Error
	return rows, err
}

// ListForUser returns the user's check-ins with from <= at < to.
func (s *CheckInService) ListForUser(ctx context.Context, userID uint, from, to time.Time) ([]models.CheckIn, error) {
	var rows []models.CheckIn
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND at >= ? AND at < ?", userID, from.UTC(), to.UTC()).
		Order("at ASC").
		Find(&rows).Error
	return rows, err
}
