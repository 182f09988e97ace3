package services

import (
	"context"
	"time"

	"nutriplan/engine"
	"nutriplan/models"
	"nutriplan/observability"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DailyRecordService struct {
	db        *gorm.DB
	tolerance float64
	liveness  engine.StreakLiveness
	log       *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time
}

func NewDailyRecordService(db *gorm.DB, tolerancePct float64, liveness engine.StreakLiveness, log *zap.Logger, m *observability.Metrics) *DailyRecordService {
	return &DailyRecordService{
		db:        db,
		tolerance: tolerancePct,
		liveness:  liveness,
		log:       log.Named("daily_records"),
		metrics:   m,
		now:       time.Now,
	}
}

// DailyRecordUpsert reports one day's outcome. GoalSatisfied is derived
// from RawMetrics when omitted.
type DailyRecordUpsert struct {
	UserID        uint                   `json:"-"`
	Date          string                 `json:"date" validate:"required,datetime=2006-01-02"`
	GoalSatisfied *bool                  `json:"goal_satisfied"`
	RawMetrics    []engine.MetricReading `json:"raw_metrics" validate:"dive"`
}

// Upsert writes the record for (user, date), replacing any earlier one.
func (s *DailyRecordService) Upsert(ctx context.Context, in DailyRecordUpsert) (*models.DailyRecord, error) {
	if in.UserID == 0 {
		return nil, engine.ValidationError{Field: "user_id", Reason: "required"}
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	date, err := time.Parse(engine.DateLayout, in.Date)
	if err != nil {
		return nil, engine.ValidationError{Field: "date", Reason: err.Error()}
	}
	metrics := in.RawMetrics
	if metrics == nil {
		metrics = []engine.MetricReading{}
	}

	satisfied := engine.DeriveGoalSatisfied(metrics, s.tolerance)
	if in.GoalSatisfied != nil {
		satisfied = *in.GoalSatisfied
	}

	rec := models.DailyRecord{
		UserID:        in.UserID,
		Date:          engine.CivilDate(date),
		GoalSatisfied: satisfied,
		RawMetrics:    datatypes.NewJSONType(metrics),
	}
	err = withRetry(ctx, "daily_record", s.log, s.metrics, func() error {
		row := rec
		return classifyStoreError(s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"goal_satisfied", "raw_metrics", "updated_at"}),
		}).Create(&row).Error)
	})
	if err != nil {
		return nil, err
	}

	var out models.DailyRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", rec.UserID, rec.Date).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// History returns records in [from, to] by date, oldest first.
func (s *DailyRecordService) History(ctx context.Context, userID uint, from, to time.Time) ([]models.DailyRecord, error) {
	var rows []models.DailyRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, engine.CivilDate(from), engine.CivilDate(to)).
		Order("date ASC").
		Find(&rows).Error
	return rows, err
}

// Streak computes the goal streak over the user's whole history as of the
// calendar day of today.
func (s *DailyRecordService) Streak(ctx context.Context, userID uint, today time.Time) (engine.GoalStreak, error) {
	var rows []models.DailyRecord
	if err := s.db.WithContext(ctx).
		Select("date", "goal_satisfied").
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return engine.GoalStreak{}, err
	}
	outcomes := make([]engine.DayOutcome, len(rows))
	for i, r := range rows {
		outcomes[i] = engine.DayOutcome{Date: r.Date, GoalSatisfied: r.GoalSatisfied}
	}
	if today.IsZero() {
		today = s.now()
	}
	return engine.ComputeGoalStreak(outcomes, today, s.liveness), nil
}
