package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// DatasetSource is a CSV path, an s3://bucket/key URI, or "postgres".
	DatasetSource  string
	BoundariesPath string

	HTTPAddr           string
	CORSAllowedOrigins []string
	LogLevel           string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	S3Region   string
	S3Endpoint string

	ChromeBin           string
	SnapshotDir         string
	SnapshotConcurrency int
	RateLimitMs         int
	MaxRetries          int

	// Values the search form is pre-filled with.
	DefaultMinPrice  int
	DefaultMaxPrice  int
	DefaultMinNights int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		DatasetSource:  getEnv("DATASET_SOURCE", "./data/airbnb.csv"),
		BoundariesPath: getEnv("BOUNDARIES_PATH", "./data/boston.geojson"),

		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:           getEnv("LOG_LEVEL", "info"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "dashboard"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "dashboard123"),
		PostgresDB:       getEnv("POSTGRES_DB", "airbnb_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		S3Region:   getEnv("S3_REGION", "us-east-1"),
		S3Endpoint: getEnv("S3_ENDPOINT", ""),

		ChromeBin:           getEnv("CHROME_BIN", ""),
		SnapshotDir:         getEnv("SNAPSHOT_DIR", "./output/snapshots"),
		SnapshotConcurrency: getEnvInt("SNAPSHOT_CONCURRENCY", 2),
		RateLimitMs:         getEnvInt("RATE_LIMIT_MS", 500),
		MaxRetries:          getEnvInt("MAX_RETRIES", 3),

		DefaultMinPrice:  getEnvInt("DEFAULT_MIN_PRICE", 20),
		DefaultMaxPrice:  getEnvInt("DEFAULT_MAX_PRICE", 100),
		DefaultMinNights: getEnvInt("DEFAULT_MIN_NIGHTS", 1),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
		log.Printf("[config] %s=%q is not an integer, using %d", key, val, fallback)
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
