package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendGitHub   = "github"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

type Config struct {
	Port     string
	LogLevel string

	StoreBackend  string
	PublicBaseURL string
	StoreTimeout  time.Duration

	// GitHub contents API
	GitHubAPIURL         string
	GitHubToken          string
	GitHubRepository     string
	GitHubBranch         string
	GitHubCommitterName  string
	GitHubCommitterEmail string

	// PostgreSQL
	DatabaseURL    string
	DBQueryTimeout time.Duration

	// S3
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string

	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration

	AssetMaxCount     int
	RetentionOrder    string
	PhotoMaxDimension int

	LayoutConfigPath string
}

func Load() Config {
	port := getEnv("PORT", "8080")
	return Config{
		Port:                 port,
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		StoreBackend:         getEnv("STORE_BACKEND", BackendMemory),
		PublicBaseURL:        getEnv("PUBLIC_BASE_URL", "http://localhost:"+port),
		StoreTimeout:         getEnvDuration("STORE_TIMEOUT", 15*time.Second),
		GitHubAPIURL:         getEnv("GITHUB_API_URL", "https://api.github.com"),
		GitHubToken:          getEnv("GITHUB_TOKEN", ""),
		GitHubRepository:     getEnv("GITHUB_REPOSITORY", ""),
		GitHubBranch:         getEnv("GITHUB_BRANCH", "main"),
		GitHubCommitterName:  getEnv("GITHUB_COMMITTER_NAME", ""),
		GitHubCommitterEmail: getEnv("GITHUB_COMMITTER_EMAIL", ""),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DBQueryTimeout:       getEnvDuration("DB_QUERY_TIMEOUT", 5*time.Second),
		S3Endpoint:           getEnv("S3_ENDPOINT", ""),
		S3Region:             getEnv("S3_REGION", "us-east-1"),
		S3Bucket:             getEnv("S3_BUCKET", ""),
		S3AccessKey:          getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:          getEnv("S3_SECRET_KEY", ""),
		S3PublicBaseURL:      getEnv("S3_PUBLIC_BASE_URL", ""),
		BreakerMaxFailures:   getEnvInt("BREAKER_MAX_FAILURES", 5),
		BreakerResetTimeout:  getEnvDuration("BREAKER_RESET_TIMEOUT", 30*time.Second),
		AssetMaxCount:        getEnvInt("ASSET_MAX_COUNT", 20),
		RetentionOrder:       getEnv("RETENTION_ORDER", "lexical"),
		PhotoMaxDimension:    getEnvInt("PHOTO_MAX_DIMENSION", 0),
		LayoutConfigPath:     getEnv("LAYOUT_CONFIG_PATH", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return n
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "error", err)
			return fallback
		}
		return d
	}
	return fallback
}
