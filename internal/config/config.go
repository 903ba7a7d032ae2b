// Package config reads runtime settings from the environment. main loads
// .env first (godotenv), then calls Load once and passes the result down.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "dev_secret_change_me"

// Config describes all runtime settings for the server.
type Config struct {
	Env string // development|production

	Log struct {
		Level  string
		Format string // json|console
	}

	HTTP struct {
		Addr            string
		ClientOrigin    string
		RequestTimeout  time.Duration
		ShutdownTimeout time.Duration
	}

	DB struct {
		Driver string // sqlite3|postgres
		URL    string
	}

	Content struct {
		SeedFile      string // JSON or YAML dish schedule imported at startup
		ImagesDir     string
		CountriesFile string
		TileMaxWidth  int
	}

	Auth struct {
		Secret     string
		ExpiryDays int
		CookieName string
	}

	Redis struct {
		Addr string
		DB   int
	}

	Session struct {
		TTL time.Duration
	}
}

// MinSessionTTL keeps yesterday's streak keys alive until today's game
// completes; streaks share the session store and its TTL.
const MinSessionTTL = 48 * time.Hour

// Production reports whether cookies must be Secure and the JWT secret real.
func (c Config) Production() bool { return c.Env == "production" }

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var c Config

	c.Env = envString("APP_ENV", envString("NODE_ENV", "development"))

	c.Log.Level = envString("LOG_LEVEL", "info")
	c.Log.Format = envString("LOG_FORMAT", "json")

	c.HTTP.Addr = ":" + envString("PORT", "5175")
	c.HTTP.ClientOrigin = envString("CLIENT_ORIGIN", "http://localhost:5173")
	c.HTTP.RequestTimeout = envDuration("REQUEST_TIMEOUT", 10*time.Second)
	c.HTTP.ShutdownTimeout = envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)

	c.DB.Driver = envString("DB_DRIVER", "sqlite3")
	c.DB.URL = envString("DATABASE_URL", "./data/fft.db")

	c.Content.SeedFile = envString("SEED_FILE", "")
	c.Content.ImagesDir = envString("IMAGES_DIR", "./public/images/dishes")
	c.Content.CountriesFile = envString("COUNTRIES_FILE", "")
	c.Content.TileMaxWidth = envInt("TILE_MAX_WIDTH", 1800)

	c.Auth.Secret = envString("JWT_SECRET", DefaultJWTSecret)
	c.Auth.ExpiryDays = envInt("JWT_EXPIRES_DAYS", 14)
	c.Auth.CookieName = envString("COOKIE_NAME", "fft_token")

	c.Redis.Addr = envString("REDIS_ADDR", "")
	c.Redis.DB = envInt("REDIS_DB", 0)

	c.Session.TTL = envDuration("SESSION_TTL", 72*time.Hour)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER=%q (want sqlite3|postgres)", c.DB.Driver)
	}
	if c.DB.URL == "" {
		return errors.New("DATABASE_URL is empty")
	}
	if c.Auth.Secret == "" {
		return errors.New("JWT_SECRET is empty")
	}
	if c.Production() && c.Auth.Secret == DefaultJWTSecret {
		return fmt.Errorf("refuse to run with default JWT_SECRET in %s", c.Env)
	}
	if c.Auth.ExpiryDays <= 0 {
		return fmt.Errorf("JWT_EXPIRES_DAYS must be positive, got %d", c.Auth.ExpiryDays)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("unsupported LOG_FORMAT=%q (want json|console)", c.Log.Format)
	}
	if c.HTTP.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.Session.TTL < MinSessionTTL {
		return fmt.Errorf("SESSION_TTL=%s is shorter than %s and would expire daily streaks", c.Session.TTL, MinSessionTTL)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
