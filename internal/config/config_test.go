package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwtSecret: 0123456789abcdef0123\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Env != EnvDevelopment {
		t.Fatalf("expected development env, got %q", cfg.App.Env)
	}
	if cfg.Quiz.QuestionCount != 15 || cfg.Quiz.TimeLimit != 1800 {
		t.Fatalf("unexpected quiz defaults: %+v", cfg.Quiz)
	}
	if cfg.Trivia.BaseURL != "https://opentdb.com" {
		t.Fatalf("unexpected trivia url %q", cfg.Trivia.BaseURL)
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwtSecret: short\n")

	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "JWTSecret") {
		t.Fatalf("expected JWTSecret in error, got %v", err)
	}
}

func TestLoadEnvOverridesSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "an-environment-provided-secret")
	t.Setenv("APP_ENV", "production")
	path := writeConfig(t, "auth:\n  jwtSecret: short\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.JWTSecret != "an-environment-provided-secret" {
		t.Fatalf("secret not overridden: %q", cfg.Auth.JWTSecret)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("garbage", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on parse error, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
