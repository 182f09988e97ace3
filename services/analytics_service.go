package services

import (
	"context"
	"time"

	"nutriplan/engine"
	"nutriplan/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// AnalyticsService derives adherence figures from check-ins and daily
// records. It owns no state.
type AnalyticsService struct {
	db         *gorm.DB
	checkIns   *CheckInService
	records    *DailyRecordService
	cutoffHour int
	minScore   float64
	now        func() time.Time
}

func NewAnalyticsService(db *gorm.DB, checkIns *CheckInService, records *DailyRecordService, cutoffHour int, minScore float64) *AnalyticsService {
	return &AnalyticsService{
		db:         db,
		checkIns:   checkIns,
		records:    records,
		cutoffHour: cutoffHour,
		minScore:   minScore,
		now:        time.Now,
	}
}

// ---------- Plan adherence ----------

type PlanAdherence struct {
	PlanID               string             `json:"plan_id"`
	Phase                engine.Phase       `json:"phase"`
	Cycle                engine.CycleState  `json:"cycle"`
	TotalItems           int                `json:"total_items"`
	CompletedItems       int                `json:"completed_items"`
	CompletionPercentage float64            `json:"completion_percentage"`
	CheckIns             int                `json:"check_ins"`
	CheckInStreak        int                `json:"checkin_streak"`
	PopularItems         []engine.ItemCount `json:"popular_items"`
}

func (s *AnalyticsService) PlanAdherence(ctx context.Context, userID uint, planID string) (*PlanAdherence, error) {
	var (
		plan *models.Plan
		rows []models.CheckIn
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plan, err = loadPlan(s.db.WithContext(gctx), userID, planID)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.checkIns.ListForPlan(gctx, userID, planID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cycle, err := engine.ComputeCycle(plan.StartInstant, plan.CycleLengthDays, s.cutoffHour, s.now())
	if err != nil {
		return nil, err
	}
	facts := models.Facts(rows)
	times := make([]time.Time, len(facts))
	for i, f := range facts {
		times[i] = f.At
	}

	completed := engine.CompletedItemCount(facts, s.minScore)
	return &PlanAdherence{
		PlanID:               plan.ID,
		Phase:                engine.EvaluateCompletion(plan.Completed, cycle).Phase,
		Cycle:                cycle,
		TotalItems:           len(plan.Items),
		CompletedItems:       completed,
		CompletionPercentage: engine.CompletionPercentage(completed, len(plan.Items)),
		CheckIns:             len(facts),
		CheckInStreak:        engine.CheckInStreak(times),
		PopularItems:         engine.PopularItems(facts, engine.PopularItemsLimit),
	}, nil
}

// ---------- Weekly ----------

// WeeklyReport pairs the check-in based weekly summary with the user's
// goal streak. The two streaks are independent.
type WeeklyReport struct {
	engine.WeeklySummary
	PopularItems []engine.ItemCount `json:"popular_items"`
	GoalStreak   engine.GoalStreak  `json:"goal_streak"`
}

func (s *AnalyticsService) Weekly(ctx context.Context, userID uint, weekStart time.Time) (*WeeklyReport, error) {
	from := engine.DayStart(weekStart)
	to := from.AddDate(0, 0, 7)

	var (
		rows   []models.CheckIn
		streak engine.GoalStreak
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.checkIns.ListForUser(gctx, userID, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		streak, err = s.records.Streak(gctx, userID, s.now().In(from.Location()))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	facts := models.Facts(rows)
	return &WeeklyReport{
		WeeklySummary: engine.BuildWeeklySummary(facts, from),
		PopularItems:  engine.PopularItems(facts, engine.PopularItemsLimit),
		GoalStreak:    streak,
	}, nil
}
