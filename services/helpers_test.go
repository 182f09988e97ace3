package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"nutriplan/config"
	"nutriplan/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.GormConfig()
	cfg.Logger = logger.Discard
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

var nopLog = zap.NewNop()

// recordingSink captures published events.
type recordingSink struct {
	mu     sync.Mutex
	name   string
	err    error
	events []models.CompletionEvent
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) PublishCompletion(_ context.Context, ev models.CompletionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func samplePlan(userID uint, start time.Time, days int) PlanDescriptor {
	d := PlanDescriptor{
		UserID:          userID,
		Title:           "Reset week",
		StartInstant:    start,
		CycleLengthDays: days,
	}
	for day := 0; day < days; day++ {
		d.Items = append(d.Items,
			PlanItemInput{DayOffset: day, Slot: "breakfast", Name: "Oat porridge", Calories: 320, Protein: 12, Carbs: 54, Fat: 6},
			PlanItemInput{DayOffset: day, Slot: "lunch", Name: "Chicken salad", Calories: 450, Protein: 38, Fat: 18, Sodium: 600},
		)
	}
	return d
}
