package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/propvantage/receivables-service/pkg/auth"
	"github.com/propvantage/receivables-service/pkg/kafka"
	"github.com/propvantage/receivables-service/pkg/observability"
	"github.com/propvantage/receivables-service/pkg/postgres"
)

// Config holds all configuration for the receivables service.
type Config struct {
	// gRPC server port
	GRPCPort int
	// HTTP metrics/health port
	HTTPPort int
	// Service name for observability
	ServiceName string

	Log      observability.LogConfig
	Database postgres.Config
	Kafka    kafka.Config
	JWT      auth.JWTConfig

	// MigrationsDir is the path to the SQL migration files.
	MigrationsDir string
	// ResweepInterval is how often the flagged-plan backlog is drained.
	ResweepInterval time.Duration
}

// Validate checks required configuration values.
func (c Config) Validate() {
	if c.Database.Password == "" {
		panic("DB_PASSWORD environment variable is required")
	}
	if c.JWT.Secret == "" {
		panic("JWT_SECRET environment variable is required")
	}
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	serviceName := getEnv("SERVICE_NAME", "receivables-service")
	return Config{
		GRPCPort:    getEnvInt("GRPC_PORT", 8086),
		HTTPPort:    getEnvInt("HTTP_PORT", 9086),
		ServiceName: serviceName,
		Log: observability.LogConfig{
			Service: serviceName,
			Level:   getEnv("LOG_LEVEL", "info"),
			Format:  getEnv("LOG_FORMAT", "json"),
		},
		Database: postgres.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "propvantage"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "propvantage_receivables"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		Kafka: kafka.Config{
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		},
		JWT: auth.JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Issuer:     getEnv("JWT_ISSUER", "propvantage"),
			Expiration: getEnvDuration("JWT_EXPIRATION", 24*time.Hour),
		},
		MigrationsDir:   getEnv("MIGRATIONS_DIR", "migrations"),
		ResweepInterval: getEnvDuration("RESWEEP_INTERVAL", 15*time.Minute),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
