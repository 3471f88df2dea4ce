package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AuthServiceURL != "http://localhost:5000" {
		t.Errorf("AuthServiceURL = %q", cfg.AuthServiceURL)
	}
	if cfg.AuthTimeout != 15*time.Second {
		t.Errorf("AuthTimeout = %v", cfg.AuthTimeout)
	}
	if cfg.MetricsHistorySize != 60 {
		t.Errorf("MetricsHistorySize = %d", cfg.MetricsHistorySize)
	}
	if !cfg.SignalQueueEnabled {
		t.Error("SignalQueueEnabled = false")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AUTH_SERVICE_URL", "https://auth.example.com")
	t.Setenv("AUTH_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AuthServiceURL != "https://auth.example.com" {
		t.Errorf("AuthServiceURL = %q", cfg.AuthServiceURL)
	}
	if cfg.AuthTimeout != 3*time.Second {
		t.Errorf("AuthTimeout = %v", cfg.AuthTimeout)
	}
	origins := cfg.AllowedOrigins()
	if len(origins) != 2 || origins[1] != "https://b.example.com" {
		t.Errorf("AllowedOrigins = %v", origins)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		AuthServiceURL:     "http://localhost:5000",
		AuthTimeout:        time.Second,
		AttemptTTL:         time.Minute,
		ConsoleSessionTTL:  time.Hour,
		MetricsHistorySize: 60,
		MaxRequestsPerMin:  100,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative auth url", func(c *Config) { c.AuthServiceURL = "localhost:5000" }},
		{"zero timeout", func(c *Config) { c.AuthTimeout = 0 }},
		{"zero attempt ttl", func(c *Config) { c.AttemptTTL = 0 }},
		{"zero history", func(c *Config) { c.MetricsHistorySize = 0 }},
		{"short production secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Validate accepted an invalid config")
			}
		})
	}
}
