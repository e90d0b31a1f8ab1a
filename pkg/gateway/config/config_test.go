package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":8787" {
		t.Errorf("Addr = %q, want :8787", cfg.Addr)
	}
	if cfg.RealtimeModel != "gpt-realtime" {
		t.Errorf("RealtimeModel = %q", cfg.RealtimeModel)
	}
	if cfg.TokenRateLimitMax != 10 {
		t.Errorf("TokenRateLimitMax = %d", cfg.TokenRateLimitMax)
	}
	if cfg.TokenRateLimitWindow != time.Minute {
		t.Errorf("TokenRateLimitWindow = %v", cfg.TokenRateLimitWindow)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_RATE_LIMIT_MAX", "2")
	t.Setenv("TOKEN_RATE_LIMIT_WINDOW_MS", "5000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PUBLIC_WS_URL", "https://api.example.com")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.TokenRateLimitMax != 2 {
		t.Errorf("TokenRateLimitMax = %d", cfg.TokenRateLimitMax)
	}
	if cfg.TokenRateLimitWindow != 5*time.Second {
		t.Errorf("TokenRateLimitWindow = %v", cfg.TokenRateLimitWindow)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnv_RejectsBadLimits(t *testing.T) {
	t.Setenv("TOKEN_RATE_LIMIT_MAX", "-1")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("expected error for negative rate limit max")
	}
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"empty list allows all", nil, "https://evil.example", true},
		{"no origin always allowed", []string{"https://a.example"}, "", true},
		{"wildcard allows all", []string{"*"}, "https://anything.example", true},
		{"listed origin allowed", []string{"https://a.example"}, "https://a.example", true},
		{"unlisted origin denied", []string{"https://a.example"}, "https://b.example", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{AllowedOrigins: tc.allowed}
			if got := cfg.OriginAllowed(tc.origin); got != tc.want {
				t.Errorf("OriginAllowed(%q) = %v, want %v", tc.origin, got, tc.want)
			}
		})
	}
}
