package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/estagioplus/benefits/config"
	"github.com/estagioplus/benefits/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDatabase(config.AppConfig{DBDriver: "sqlite", DatabaseURI: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db, models.All()...))
	return db
}

func testSettings() Settings {
	return Settings{
		DefaultDailyRate:   2800,
		GoalPoints:         1_000_000,
		MonthlyBonusPoints: 10_000,
		Location:           time.UTC,
	}
}

func newTestService(t *testing.T, db *gorm.DB, now time.Time) *LoyaltyService {
	t.Helper()
	return NewLoyaltyService(db, testSettings(), nil).WithClock(func() time.Time { return now })
}

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := day(s)
	return &t
}

func createMember(t *testing.T, db *gorm.DB, m models.User) models.User {
	t.Helper()
	if m.Email == "" {
		m.Email = "member@example.com"
	}
	if m.Name == "" {
		m.Name = "Member"
	}
	m.PasswordHash = "x"
	require.NoError(t, db.Create(&m).Error)
	return m
}

func reload(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var m models.User
	require.NoError(t, db.First(&m, id).Error)
	return m
}
