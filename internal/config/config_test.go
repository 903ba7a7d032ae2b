package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "NODE_ENV", "LOG_LEVEL", "LOG_FORMAT", "PORT", "CLIENT_ORIGIN",
		"REQUEST_TIMEOUT", "DB_DRIVER", "DATABASE_URL", "SEED_FILE", "IMAGES_DIR",
		"COUNTRIES_FILE", "JWT_SECRET", "JWT_EXPIRES_DAYS", "COOKIE_NAME",
		"REDIS_ADDR", "REDIS_DB", "SESSION_TTL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", c.Env)
	assert.Equal(t, ":5175", c.HTTP.Addr)
	assert.Equal(t, "sqlite3", c.DB.Driver)
	assert.Equal(t, 10*time.Second, c.HTTP.RequestTimeout)
	assert.Equal(t, 72*time.Hour, c.Session.TTL)
	assert.Equal(t, "fft_token", c.Auth.CookieName)
	assert.Empty(t, c.Redis.Addr)
	assert.False(t, c.Production())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://fft@localhost/fft?sslmode=disable")
	t.Setenv("SESSION_TTL", "96h")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("JWT_EXPIRES_DAYS", "not-a-number")
	t.Setenv("LOG_FORMAT", "console")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.HTTP.Addr)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, 96*time.Hour, c.Session.TTL)
	assert.Equal(t, 2, c.Redis.DB)
	assert.Equal(t, 14, c.Auth.ExpiryDays)
	assert.Equal(t, "console", c.Log.Format)
}

func TestProductionNeedsSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("NODE_ENV", "production")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-secret")
	c, err := Load()
	require.NoError(t, err)
	assert.True(t, c.Production())
}

func TestValidateRejects(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "oracle")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("LOG_FORMAT", "xml")
	_, err = Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("SESSION_TTL", "24h")
	_, err = Load()
	assert.ErrorContains(t, err, "SESSION_TTL")

	clearEnv(t)
	t.Setenv("SESSION_TTL", "48h")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MinSessionTTL, cfg.Session.TTL)
}
