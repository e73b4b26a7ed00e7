package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every knob the storefront binary reads from the
// environment. An optional .env file is loaded first so local runs do
// not need exported variables.
type Config struct {
	ServiceName string
	HTTPAddr    string
	LogLevel    string
	LogPretty   bool

	// Backend chain, highest priority first. Valid entries:
	// postgres, sheets, redis. The sqlite cache is always present.
	BackendChain []string

	Postgres PostgresConfig

	RedisAddr string

	SheetsEndpoint string
	SheetsTimeout  time.Duration

	SQLitePath string

	JaegerEndpoint string

	KafkaBrokers []string

	AdminUsername     string
	AdminPasswordHash string

	SMTP SMTPConfig
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Password string
	Operator string
}

// Load reads configuration from the environment with sane defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServiceName: getEnv("SERVICE_NAME", "storefront"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnv("LOG_PRETTY", "") == "true",

		BackendChain: splitCSV(getEnv("BACKEND_CHAIN", "postgres,sheets")),

		Postgres: PostgresConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		SheetsEndpoint: getEnv("SHEETS_ENDPOINT", ""),
		SheetsTimeout:  getDuration("SHEETS_TIMEOUT", 10*time.Second),

		SQLitePath: getEnv("SQLITE_PATH", "./storefront.db"),

		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),

		KafkaBrokers: splitCSV(getEnv("KAFKA_BROKERS", "")),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			From:     getEnv("SMTP_FROM", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			Operator: getEnv("SMTP_OPERATOR", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
