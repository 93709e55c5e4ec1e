package config

import (
	"errors"
	"testing"
	"time"

	"tabib_ai/internal/domain/pricing"

	"github.com/shopspring/decimal"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "PRICE_PER_GRAM", "TRANSACTION_FEE_MODEL", "ROUNDING_MODE", "TRANSACTION_FEE_FLAT", "TRANSACTION_FEE_PERCENT", "SYSTEM_FEE",
		"COMPLETION_DELAY_MIN_MS", "COMPLETION_DELAY_MAX_MS", "RECIPE_FALLBACK", "NOTIFY_DRIVER",
		"DEVICE_RECIPE_TOPIC", "DEVICE_STATUS_TOPIC", "DEVICE_SIGNAL_TOPIC", "CORS_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port %q", cfg.Port)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.CompletionDelayMin != 5*time.Second || cfg.CompletionDelayMax != 8*time.Second {
		t.Fatalf("unexpected delays %v..%v", cfg.CompletionDelayMin, cfg.CompletionDelayMax)
	}
	if cfg.RecipeFallback != RecipeFallbackEmpty {
		t.Fatalf("unexpected fallback %q", cfg.RecipeFallback)
	}
	if !cfg.Pricing.SystemFee.Equal(decimal.NewFromInt(5000)) || cfg.Pricing.FeeModel != pricing.FeeModelFlatPlusPercent {
		t.Fatalf("unexpected policy %+v", cfg.Pricing)
	}
	if cfg.Notify.RecipeTopic != "tabib/resep" || cfg.Notify.SignalTopic != "tabib/selesai" {
		t.Fatalf("unexpected topics %+v", cfg.Notify)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYSTEM_FEE", "4000")
	t.Setenv("TRANSACTION_FEE_MODEL", "flat_only")
	t.Setenv("TRANSACTION_FEE_FLAT", "1000")
	t.Setenv("ROUNDING_MODE", "ceilToThousand")
	t.Setenv("COMPLETION_DELAY_MIN_MS", "6000")
	t.Setenv("COMPLETION_DELAY_MAX_MS", "9000")
	t.Setenv("RECIPE_FALLBACK", "Reject")
	t.Setenv("NOTIFY_DRIVER", " MQTT ")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, ,https://tabib.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := cfg.Pricing
	if !p.SystemFee.Equal(decimal.NewFromInt(4000)) || p.FeeModel != pricing.FeeModelFlatOnly || !p.FeeFlat.Equal(decimal.NewFromInt(1000)) || p.Rounding != pricing.RoundingCeilToThousand {
		t.Fatalf("unexpected policy %+v", p)
	}
	if cfg.CompletionDelayMin != 6*time.Second || cfg.CompletionDelayMax != 9*time.Second {
		t.Fatalf("unexpected delays %v..%v", cfg.CompletionDelayMin, cfg.CompletionDelayMax)
	}
	if cfg.RecipeFallback != RecipeFallbackReject || cfg.Notify.Driver != "mqtt" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://tabib.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad number":     {"SYSTEM_FEE": "lima ribu"},
		"negative fee":   {"SYSTEM_FEE": "-1"},
		"bad fee model":  {"TRANSACTION_FEE_MODEL": "percent"},
		"bad rounding":   {"ROUNDING_MODE": "floor"},
		"inverted range": {"COMPLETION_DELAY_MIN_MS": "9000", "COMPLETION_DELAY_MAX_MS": "1000"},
		"bad delay":      {"COMPLETION_DELAY_MIN_MS": "soon"},
		"bad fallback":   {"RECIPE_FALLBACK": "guess"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoad_InvalidPolicyWraps(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROUNDING_MODE", "floor")
	if _, err := Load(); !errors.Is(err, pricing.ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
}
