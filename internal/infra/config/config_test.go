package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_ISSUER", "my-svc")
	t.Setenv("JWT_AUDIENCE", "my-aud")
	t.Setenv("ACCESS_TOKEN_TTL", "2m")
	t.Setenv("REFRESH_TOKEN_TTL", "48h")
	t.Setenv("PASSWORD_PEPPER", "pepper")
}

func TestLoad_Success(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", `["https://app.example.com"]`)
	t.Setenv("ALLOW_CREDENTIALS", "true")
	t.Setenv("REVOCATION_FAIL_OPEN", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AccessTokenTTL != 2*time.Minute {
		t.Fatalf("AccessTokenTTL want 2m, got %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 48*time.Hour {
		t.Fatalf("RefreshTokenTTL want 48h, got %v", cfg.RefreshTokenTTL)
	}
	if cfg.HTTPAddress != ":8080" {
		t.Fatalf("HTTPAddress default missing, got %q", cfg.HTTPAddress)
	}
	if !cfg.RevocationFailOpen {
		t.Fatal("RevocationFailOpen not picked up")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error due to missing JWT_SECRET, got nil")
	}
}

func TestLoad_AccessTTLNotShorter(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_TTL", "72h")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for access TTL >= refresh TTL, got nil")
	}
}
