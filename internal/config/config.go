package config

import (
	"os"
	"strconv"
	"time"

	"matinee/internal/cache"
	"matinee/internal/database"
	"matinee/internal/messaging"
)

// Config holds the full application configuration, loaded from
// environment variables with sensible defaults for local development.
type Config struct {
	Env       string
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	Database    database.Config
	NATS        messaging.Config
	Valkey      cache.Config
	Reservation ReservationConfig
}

// ReservationConfig tunes the reservation engine itself.
type ReservationConfig struct {
	// HoldTTL is how long a placed hold counts toward occupancy.
	HoldTTL time.Duration
	// LockTimeout bounds the wait for the per-session row lock inside
	// a reservation transaction.
	LockTimeout time.Duration
	// TxRetries is how many times a transaction is retried after a
	// lock timeout or serialization failure before surfacing a
	// transient error.
	TxRetries int
	// SweepInterval is how often the sweeper flips overdue holds to
	// EXPIRED and purges old terminal rows.
	SweepInterval time.Duration
	// Retention is how long terminal hold rows are kept before purge.
	Retention time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Env:       getEnv("APP_ENV", "dev"),
		Port:      getEnv("PORT", "8081"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "matinee"),
			Password:           getEnv("DB_PASSWORD", "matinee123"),
			DBName:             getEnv("DB_NAME", "matinee"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "matinee"),
			ClientID:  getEnv("NATS_CLIENT_ID", "matinee-api"),
		},

		Valkey: cache.Config{
			Addr:         getEnv("VALKEY_ADDR", "localhost:6379"),
			Password:     getEnv("VALKEY_PASSWORD", ""),
			UsersHashKey: getEnv("VALKEY_USERS_HASH_KEY", "users:auth"),
			SessionsTTL:  time.Duration(getEnvInt("VALKEY_SESSIONS_TTL_SEC", 30)) * time.Second,
		},

		Reservation: ReservationConfig{
			HoldTTL:       time.Duration(getEnvInt("HOLD_TTL_MIN", 15)) * time.Minute,
			LockTimeout:   time.Duration(getEnvInt("RESERVATION_LOCK_TIMEOUT_MS", 3000)) * time.Millisecond,
			TxRetries:     getEnvInt("RESERVATION_TX_RETRIES", 2),
			SweepInterval: time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 60)) * time.Second,
			Retention:     time.Duration(getEnvInt("HOLD_RETENTION_HOURS", 72)) * time.Hour,
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
