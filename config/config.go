package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"nutriplan/engine"
	"nutriplan/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type QuotaBackend string

const (
	BackendPostgres QuotaBackend = "postgres"
	BackendBadger   QuotaBackend = "badger"
)

type Config struct {
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	JWTSecret string

	CutoffHour           int
	StreakGrace          engine.StreakLiveness
	GoalTolerancePct     float64
	MinVerificationScore float64

	QuotaBackend QuotaBackend
	BadgerPath   string
	TiersFile    string

	AWSRegion             string
	SNSCompletionTopicARN string
	VerifyTimeout         time.Duration

	LogLevel string
	LogDev   bool
}

// Load reads .env if present, then the process environment. Malformed
// values are errors, never silently replaced by defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:                  env("PORT", "8080"),
		DBHost:                env("DB_HOST", "localhost"),
		DBUser:                os.Getenv("DB_USER"),
		DBPassword:            os.Getenv("DB_PASSWORD"),
		DBName:                os.Getenv("DB_NAME"),
		DBPort:                env("DB_PORT", "5432"),
		DBSSLMode:             env("DB_SSLMODE", "disable"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		QuotaBackend:          QuotaBackend(strings.ToLower(env("QUOTA_BACKEND", string(BackendPostgres)))),
		BadgerPath:            env("BADGER_PATH", "./data/quota"),
		TiersFile:             os.Getenv("TIERS_FILE"),
		AWSRegion:             env("AWS_REGION", "ap-south-1"),
		SNSCompletionTopicARN: os.Getenv("SNS_COMPLETION_TOPIC_ARN"),
		LogLevel:              env("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.CutoffHour, err = envInt("CUTOFF_HOUR", engine.DefaultCutoffHour); err != nil {
		return nil, err
	}
	if cfg.CutoffHour < 0 || cfg.CutoffHour > 24 {
		return nil, fmt.Errorf("CUTOFF_HOUR must be between 0 and 24, got %d", cfg.CutoffHour)
	}
	if cfg.StreakGrace, err = engine.ParseStreakLiveness(os.Getenv("STREAK_GRACE")); err != nil {
		return nil, fmt.Errorf("STREAK_GRACE: %w", err)
	}
	if cfg.GoalTolerancePct, err = envFloat("GOAL_TOLERANCE_PCT", engine.DefaultGoalTolerancePct); err != nil {
		return nil, err
	}
	if cfg.MinVerificationScore, err = envFloat("MIN_VERIFICATION_SCORE", 50); err != nil {
		return nil, err
	}
	if cfg.VerifyTimeout, err = envDuration("VERIFY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.LogDev, err = envBool("LOG_DEV", false); err != nil {
		return nil, err
	}

	switch cfg.QuotaBackend {
	case BackendPostgres, BackendBadger:
	default:
		return nil, fmt.Errorf("QUOTA_BACKEND must be postgres or badger, got %q", cfg.QuotaBackend)
	}
	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// GormConfig is shared by the postgres bootstrap and the sqlite tests.
// TranslateError maps unique violations to gorm.ErrDuplicatedKey.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Plan{},
		&models.PlanItem{},
		&models.DailyRecord{},
		&models.CompletionEvent{},
		&models.QuotaCounter{},
		&models.CheckIn{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
