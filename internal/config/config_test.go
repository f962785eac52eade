package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"DB_STATEMENT_TIMEOUT", "DB_MIGRATIONS_PATH",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
		"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
		"RABBITMQ_URL", "RABBITMQ_ENABLED",
		"BOOKING_EXPIRY_WINDOW", "BOOKING_SWEEP_INTERVAL",
		"SEAT_HOLD_TTL", "AVAILABILITY_CACHE_TTL",
	}
	for _, env := range envVars {
		os.Unsetenv(env)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "show_booking", cfg.Database.DBName)
	assert.Equal(t, 30*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)

	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, 10, cfg.Redis.PoolSize)

	assert.False(t, cfg.Queue.Enabled)

	assert.Equal(t, 2*time.Minute, cfg.Booking.ExpiryWindow)
	assert.Equal(t, 1*time.Minute, cfg.Booking.SweepInterval)
	assert.Equal(t, 5*time.Minute, cfg.Booking.HoldTTL)
	assert.Equal(t, 30*time.Second, cfg.Booking.AvailabilityCacheTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_NAME", "booking_test")
	t.Setenv("BOOKING_EXPIRY_WINDOW", "15m")
	t.Setenv("RABBITMQ_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "booking_test", cfg.Database.DBName)
	assert.Equal(t, 15*time.Minute, cfg.Booking.ExpiryWindow)
	assert.True(t, cfg.Queue.Enabled)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOOKING_EXPIRY_WINDOW", "not-a-duration")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.Equal(t, 2*time.Minute, cfg.Booking.ExpiryWindow)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: "5433", User: "app", Password: "secret",
		DBName: "bookings", SSLMode: "require", StatementTimeout: 30 * time.Second,
	}

	dsn := cfg.DSN()

	assert.Contains(t, dsn, "host=db")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "dbname=bookings")
	assert.Contains(t, dsn, "sslmode=require")
	assert.Contains(t, dsn, "statement_timeout=30000")
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: "6380"}
	assert.Equal(t, "cache:6380", cfg.Addr())
}
