package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_ENV", "test")
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("DATABASE_USER", "postgres")
	t.Setenv("DATABASE_PASSWORD", "password")
	t.Setenv("DATABASE_NAME", "ticketbooth")

	cfg := Load()

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, DRIVER_POSTGRES, cfg.DatabaseDriver)
	assert.Equal(t, "host=db user=postgres password=password dbname=ticketbooth port=5432 sslmode=disable TimeZone=UTC", cfg.DatabaseDSN)
	assert.Equal(t, GATEWAY_SIMULATED, cfg.PaymentGateway)
	assert.Equal(t, 0.9, cfg.PaymentSuccessRate)
	assert.Equal(t, BROKER_NONE, cfg.EventsBroker)
	assert.Equal(t, 15*time.Minute, cfg.ReservationHoldTTL)
	assert.Equal(t, "usd", cfg.Currency)
	assert.False(t, cfg.IsLocal())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_ENV", "production")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_NAME", "local.db")
	t.Setenv("AUTH_TRUST_HEADERS", "true")
	t.Setenv("RATE_LIMIT", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")
	t.Setenv("RESERVATION_HOLD_TTL", "600")
	t.Setenv("EXPIRY_INTERVAL", "not-a-duration")
	t.Setenv("CURRENCY", "EUR")

	cfg := Load()

	assert.Equal(t, DRIVER_SQLITE, cfg.DatabaseDriver)
	assert.Equal(t, "local.db", cfg.DatabaseDSN)
	assert.True(t, cfg.AuthTrustHeaders)
	assert.Equal(t, int64(5), cfg.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 10*time.Minute, cfg.ReservationHoldTTL)
	assert.Equal(t, time.Minute, cfg.ExpiryInterval)
	assert.Equal(t, "eur", cfg.Currency)
}

func TestDatabaseURLWins(t *testing.T) {
	t.Setenv("API_ENV", "test")
	t.Setenv("DATABASE_URL", "postgres://u:p@host:5432/db")

	assert.Equal(t, "postgres://u:p@host:5432/db", Load().DatabaseDSN)
}
