package config

import (
	"fmt"
	"os"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DBDriver selects the database/sql driver: "mysql" (default) or the pure-Go
// "sqlite" driver for single-binary runs.
func DBDriver() string {
	return getenv("DB_DRIVER", "mysql")
}

// DBDSN returns the connection string. DB_DSN wins when set; otherwise a
// MySQL DSN is assembled from the usual parts. parseTime is required so
// created_date scans into time.Time; clientFoundRows is required so status
// updates report matched rows, not changed rows — a no-op update to the
// current status must not look like a missing order. A user-supplied DB_DSN
// needs both parameters too.
func DBDSN() string {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&clientFoundRows=true",
		getenv("DB_USER", "root"),
		os.Getenv("DB_PASS"),
		getenv("DB_HOST", "localhost"),
		getenv("DB_PORT", "3306"),
		getenv("DB_NAME", "orders"),
	)
}

// RedisAddr is empty when no redis is configured; the idempotency guard is
// skipped in that case.
func RedisAddr() string {
	return os.Getenv("REDIS_ADDR")
}

func Port() string {
	return getenv("PORT", "8082")
}
