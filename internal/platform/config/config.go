package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything main needs to wire the service. Values come
// from the environment with development defaults; empty backing-store values
// mean "use in-memory".
type Config struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN selects the PostgreSQL stores when non-empty.
	PostgresDSN string

	// RedisURL enables the shared API-key revocation set when non-empty.
	RedisURL string

	// DocumentsDir is where verification documents land.
	DocumentsDir string

	// KafkaBrokers enables the transparency fan-out publisher when non-empty.
	KafkaBrokers []string
	KafkaTopic   string

	// OracleURL points at an external policy oracle; empty selects the
	// built-in rule oracle.
	OracleURL     string
	OracleTimeout time.Duration

	// PollInterval is the recommended client poll cadence, surfaced to
	// clients; correctness does not depend on it.
	PollInterval time.Duration

	SessionTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("TRUSTGRID_ADDR", ":8080"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		RedisURL:      os.Getenv("REDIS_URL"),
		DocumentsDir:  getenv("DOCUMENTS_DIR", "data/documents"),
		KafkaTopic:    getenv("KAFKA_TRANSPARENCY_TOPIC", "trustgrid.transparency"),
		OracleURL:     os.Getenv("ORACLE_URL"),
		OracleTimeout: getduration("ORACLE_TIMEOUT", 5*time.Second),
		PollInterval:  getduration("POLL_INTERVAL", 3*time.Second),
		SessionTTL:    getduration("SESSION_TTL", 24*time.Hour),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
