package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estagioplus/benefits/models"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "3333", c.AppPort)
	assert.Equal(t, 24, c.JWTExpiresHours)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, 2800, c.DailyPointsRate)
	assert.Equal(t, 1_000_000, c.GoalPoints)
	assert.Equal(t, 10_000, c.MonthlyBonusPoints)
	assert.Empty(t, c.RedisHost)
}

func TestApplyJSONSections(t *testing.T) {
	raw := map[string]any{
		"app": map[string]any{
			"AppPort":        "8080",
			"JWTSecret":      "from-file",
			"AllowedOrigins": []any{"https://a.example", "https://b.example"},
		},
		"database": map[string]any{"Driver": "sqlite", "DatabaseURI": "benefits.db"},
		"loyalty":  map[string]any{"DailyPointsRate": float64(3000), "Timezone": "America/Fortaleza"},
		"log":      map[string]any{"Level": "debug", "Compress": true},
	}
	var c AppConfig
	applyJSONSections(raw, &c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "from-file", c.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 3000, c.DailyPointsRate)
	assert.Equal(t, "America/Fortaleza", c.Timezone)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogCompress)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DAILY_POINTS_RATE", "1500")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://x.example , ,https://y.example")
	t.Setenv("REDIS_HOST", "")

	c := AppConfig{AppPort: "3333", RedisHost: "cache.internal"}
	applyEnvOverrides(&c)

	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 1500, c.DailyPointsRate)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, c.AllowedOrigins)
	assert.Empty(t, c.RedisHost, "an explicitly empty REDIS_HOST disables redis")
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.Local, AppConfig{}.Location())
	assert.Equal(t, time.UTC, AppConfig{Timezone: "UTC"}.Location())
	assert.Equal(t, time.Local, AppConfig{Timezone: "Not/AZone"}.Location())
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	_, err := OpenDatabase(AppConfig{DBDriver: "oracle"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported"))
}

func TestMigrateAddsLoyaltyColumnsToLegacyUsers(t *testing.T) {
	conn, err := OpenDatabase(AppConfig{DBDriver: "sqlite", DatabaseURI: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// users table as it existed before the loyalty program
	require.NoError(t, conn.Exec(`CREATE TABLE users (
		id integer PRIMARY KEY AUTOINCREMENT,
		name text NOT NULL,
		cpf text,
		email text NOT NULL UNIQUE,
		password_hash text NOT NULL,
		avatar_url text,
		created_at datetime,
		updated_at datetime
	)`).Error)

	require.NoError(t, Migrate(conn, models.All()...))

	for _, col := range loyaltyColumns {
		assert.True(t, conn.Migrator().HasColumn(&models.User{}, col), col)
	}
	assert.True(t, conn.Migrator().HasTable(&models.UserBonus{}))
	assert.True(t, conn.Migrator().HasIndex(&models.UserBonus{}, "idx_user_bonus_code"))
	assert.True(t, conn.Migrator().HasIndex(&models.AccrualCredit{}, "idx_accrual_user_date"))
}
