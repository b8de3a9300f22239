package config

import (
	"testing"
	"time"
)

var configEnv = []string{
	"PORT", "LOG_LEVEL", "STORE_BACKEND", "PUBLIC_BASE_URL", "STORE_TIMEOUT",
	"GITHUB_API_URL", "GITHUB_TOKEN", "GITHUB_REPOSITORY", "GITHUB_BRANCH",
	"DATABASE_URL", "DB_QUERY_TIMEOUT", "S3_REGION", "S3_BUCKET",
	"BREAKER_MAX_FAILURES", "BREAKER_RESET_TIMEOUT",
	"ASSET_MAX_COUNT", "RETENTION_ORDER", "PHOTO_MAX_DIMENSION", "LAYOUT_CONFIG_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnv {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port: got %q, want %q", cfg.Port, "8080")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.StoreBackend != BackendMemory {
		t.Errorf("StoreBackend: got %q, want %q", cfg.StoreBackend, BackendMemory)
	}
	if cfg.PublicBaseURL != "http://localhost:8080" {
		t.Errorf("PublicBaseURL: got %q", cfg.PublicBaseURL)
	}
	if cfg.GitHubAPIURL != "https://api.github.com" {
		t.Errorf("GitHubAPIURL: got %q", cfg.GitHubAPIURL)
	}
	if cfg.GitHubBranch != "main" {
		t.Errorf("GitHubBranch: got %q, want main", cfg.GitHubBranch)
	}
	if cfg.DBQueryTimeout != 5*time.Second {
		t.Errorf("DBQueryTimeout: got %v, want %v", cfg.DBQueryTimeout, 5*time.Second)
	}
	if cfg.StoreTimeout != 15*time.Second {
		t.Errorf("StoreTimeout: got %v, want %v", cfg.StoreTimeout, 15*time.Second)
	}
	if cfg.BreakerMaxFailures != 5 {
		t.Errorf("BreakerMaxFailures: got %d, want 5", cfg.BreakerMaxFailures)
	}
	if cfg.AssetMaxCount != 20 {
		t.Errorf("AssetMaxCount: got %d, want 20", cfg.AssetMaxCount)
	}
	if cfg.RetentionOrder != "lexical" {
		t.Errorf("RetentionOrder: got %q, want lexical", cfg.RetentionOrder)
	}
	if cfg.PhotoMaxDimension != 0 {
		t.Errorf("PhotoMaxDimension: got %d, want 0", cfg.PhotoMaxDimension)
	}
	if cfg.LayoutConfigPath != "" {
		t.Errorf("LayoutConfigPath: got %q, want empty", cfg.LayoutConfigPath)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORE_BACKEND", "github")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_REPOSITORY", "octo/garden")
	t.Setenv("STORE_TIMEOUT", "3s")
	t.Setenv("ASSET_MAX_COUNT", "5")
	t.Setenv("RETENTION_ORDER", "modified")
	t.Setenv("PHOTO_MAX_DIMENSION", "1600")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port: got %q, want %q", cfg.Port, "9090")
	}
	if cfg.PublicBaseURL != "http://localhost:9090" {
		t.Errorf("PublicBaseURL: got %q", cfg.PublicBaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q, want debug", cfg.LogLevel)
	}
	if cfg.StoreBackend != BackendGitHub {
		t.Errorf("StoreBackend: got %q, want github", cfg.StoreBackend)
	}
	if cfg.GitHubToken != "ghp_test" || cfg.GitHubRepository != "octo/garden" {
		t.Errorf("GitHub: got token %q repo %q", cfg.GitHubToken, cfg.GitHubRepository)
	}
	if cfg.StoreTimeout != 3*time.Second {
		t.Errorf("StoreTimeout: got %v, want 3s", cfg.StoreTimeout)
	}
	if cfg.AssetMaxCount != 5 {
		t.Errorf("AssetMaxCount: got %d, want 5", cfg.AssetMaxCount)
	}
	if cfg.RetentionOrder != "modified" {
		t.Errorf("RetentionOrder: got %q, want modified", cfg.RetentionOrder)
	}
	if cfg.PhotoMaxDimension != 1600 {
		t.Errorf("PhotoMaxDimension: got %d, want 1600", cfg.PhotoMaxDimension)
	}
}

func TestLoad_InvalidValuesUseDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSET_MAX_COUNT", "lots")
	t.Setenv("BREAKER_RESET_TIMEOUT", "soon")

	cfg := Load()

	if cfg.AssetMaxCount != 20 {
		t.Errorf("AssetMaxCount: got %d, want 20", cfg.AssetMaxCount)
	}
	if cfg.BreakerResetTimeout != 30*time.Second {
		t.Errorf("BreakerResetTimeout: got %v, want 30s", cfg.BreakerResetTimeout)
	}
}
