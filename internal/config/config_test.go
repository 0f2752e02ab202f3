package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	_, err := Load()
	if err == nil {
		t.Error("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/billing")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.ClaimPrefix != "CLM" {
		t.Errorf("expected default claim prefix CLM, got %s", cfg.ClaimPrefix)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected 20 max conns, got %d", cfg.DBMaxConns)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
}

func TestValidate_ProductionRequiresIssuer(t *testing.T) {
	cfg := &Config{Env: "production", ClaimPrefix: "CLM", ScrubTimeoutMS: 5000}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing AUTH_ISSUER in production")
	}
	cfg.AuthIssuer = "https://auth.example.com/realms/billing"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing AUTH_JWKS_URL in production")
	}
	cfg.AuthJWKSURL = "https://auth.example.com/realms/billing/certs"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_Development(t *testing.T) {
	cfg := &Config{Env: "development", ClaimPrefix: "CLM", ScrubTimeoutMS: 5000}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_BadScrubTimeout(t *testing.T) {
	cfg := &Config{Env: "development", ClaimPrefix: "CLM"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive scrub timeout")
	}
}
