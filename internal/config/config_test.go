package config

import (
	"testing"
	"time"
)

// TestLoad_MissingDatabaseURL は必須環境変数が無い場合にエラーになることを検証する。
func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL, got nil")
	}
}

// TestLoad_Defaults はオプション項目のデフォルト値を検証する。
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/cinelog?sslmode=disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.SessionMaxAge != 86400 {
		t.Errorf("expected SessionMaxAge 86400, got %d", cfg.SessionMaxAge)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("expected RateLimitGeneral 120, got %d", cfg.RateLimitGeneral)
	}
	if cfg.RateLimitLogin != 10 {
		t.Errorf("expected RateLimitLogin 10, got %d", cfg.RateLimitLogin)
	}
	if cfg.SessionCleanupInterval != time.Hour {
		t.Errorf("expected SessionCleanupInterval 1h, got %v", cfg.SessionCleanupInterval)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("expected ServerPort 8080, got %q", cfg.ServerPort)
	}
	if cfg.CookieSecure {
		t.Error("expected CookieSecure false for http BaseURL")
	}
}

// TestLoad_Overrides は環境変数による上書きを検証する。
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/cinelog?sslmode=disable")
	t.Setenv("SESSION_MAX_AGE", "3600")
	t.Setenv("SESSION_CLEANUP_INTERVAL", "30m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.SessionMaxAge != 3600 {
		t.Errorf("expected SessionMaxAge 3600, got %d", cfg.SessionMaxAge)
	}
	if cfg.SessionCleanupInterval != 30*time.Minute {
		t.Errorf("expected SessionCleanupInterval 30m, got %v", cfg.SessionCleanupInterval)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel debug, got %q", cfg.LogLevel)
	}
}

// TestLoad_CookieSecureFromBaseURL はBASE_URLのスキームからCookieSecureが
// 導出されることを検証する。
func TestLoad_CookieSecureFromBaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/cinelog?sslmode=disable")
	t.Setenv("BASE_URL", "https://cinelog.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cfg.CookieSecure {
		t.Error("expected CookieSecure true for https BaseURL")
	}
}

// TestLoad_InvalidIntFallsBack は不正な数値が無視されデフォルトへ戻ることを検証する。
func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/cinelog?sslmode=disable")
	t.Setenv("SESSION_MAX_AGE", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.SessionMaxAge != 86400 {
		t.Errorf("expected default SessionMaxAge 86400, got %d", cfg.SessionMaxAge)
	}
}
