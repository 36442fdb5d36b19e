package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. Values come from the
// environment so main stays lean and deploys stay twelve-factor.
type Config struct {
	Addr          string
	PostgresDSN   string
	JWTSigningKey string

	// SweepSecret authenticates the scheduled (cron) sweep trigger.
	SweepSecret   string
	SweepInterval time.Duration

	Redis RedisConfig
	Kafka KafkaConfig
}

// RedisConfig captures connection settings for the sweep advisory lock.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig captures the audit event stream settings. Empty brokers means
// audit events stay in the local store only.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Config from environment variables with development
// defaults. Production deployments must override the signing key and the
// sweep secret.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("RAISEGATE_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("RAISEGATE_POSTGRES_DSN"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SweepSecret:   envOr("SWEEP_SHARED_SECRET", "dev-sweep-secret"),
		SweepInterval: envDurationOr("SWEEP_INTERVAL", 24*time.Hour),
		Redis: RedisConfig{
			URL:          os.Getenv("RAISEGATE_REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			AuditTopic: envOr("AUDIT_TOPIC", "raisegate.audit.events"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
