package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SMARTCLAIM_CONTEXT_BUDGET", "")
	t.Setenv("SMARTCLAIM_CLASSIFIER_WINDOW", "")
	cfg := Load()
	if cfg.ContextBudget != 50000 {
		t.Fatalf("expected context budget 50000, got %d", cfg.ContextBudget)
	}
	if cfg.ClassifierWindow != 5000 {
		t.Fatalf("expected classifier window 5000, got %d", cfg.ClassifierWindow)
	}
	if cfg.PersistDebounce() != time.Second {
		t.Fatalf("expected 1s debounce, got %s", cfg.PersistDebounce())
	}
}

func TestLoadOverridesAndBadInts(t *testing.T) {
	t.Setenv("SMARTCLAIM_CONTEXT_BUDGET", "1200")
	t.Setenv("SMARTCLAIM_CLASSIFIER_WINDOW", "not-a-number")
	cfg := Load()
	if cfg.ContextBudget != 1200 {
		t.Fatalf("expected override 1200, got %d", cfg.ContextBudget)
	}
	if cfg.ClassifierWindow != 5000 {
		t.Fatalf("expected fallback on bad int, got %d", cfg.ClassifierWindow)
	}
}

func TestTokenSecretFallsBackOnlyWhenLocal(t *testing.T) {
	t.Setenv("SMARTCLAIM_TOKEN_SECRET", "")
	t.Setenv("SMARTCLAIM_ENV", "local")
	cfg := Load()
	if cfg.TokenSecret != DevTokenSecret {
		t.Fatalf("expected dev secret in local env, got %q", cfg.TokenSecret)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("local config should validate: %v", err)
	}

	t.Setenv("SMARTCLAIM_ENV", "production")
	cfg = Load()
	if cfg.TokenSecret != "" {
		t.Fatalf("expected no secret outside local env, got %q", cfg.TokenSecret)
	}
	if err := cfg.Validate(); !errors.Is(err, ErrMissingTokenSecret) {
		t.Fatalf("expected ErrMissingTokenSecret, got %v", err)
	}

	t.Setenv("SMARTCLAIM_TOKEN_SECRET", "s3cret")
	cfg = Load()
	if cfg.TokenSecret != "s3cret" || cfg.Validate() != nil {
		t.Fatalf("expected configured secret to validate, got %q", cfg.TokenSecret)
	}
}
