package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("IMGUR_CLIENT_ID", " abc123 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ImgurClientID != "abc123" {
		t.Fatalf("client id = %q", cfg.ImgurClientID)
	}
	if cfg.PollInterval != 15*time.Minute {
		t.Fatalf("poll interval = %s", cfg.PollInterval)
	}
	if cfg.ImgurBaseURL != "https://api.imgur.com/3" {
		t.Fatalf("base url = %q", cfg.ImgurBaseURL)
	}

	hc := cfg.HTTPConfig()
	if hc.Timeout != 15*time.Second || hc.MaxBodyBytes <= 0 {
		t.Fatalf("unexpected http config %+v", hc)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "60")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("STORAGE_TYPE", "none")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != time.Minute || cfg.HTTPTimeout != 3*time.Second || cfg.StorageType != "none" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsNonPositiveDurations(t *testing.T) {
	for _, key := range []string{"POLL_INTERVAL", "HTTP_TIMEOUT_SECONDS", "STORAGE_TTL_SECONDS", "HTTP_MAX_BODY_BYTES"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "0")
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=0", key)
			}
		})
	}
}

func TestRedactedMasksClientID(t *testing.T) {
	cfg := Config{ImgurClientID: "abc123", AppName: "x"}
	red := cfg.Redacted()
	if red.ImgurClientID != "ab****" {
		t.Fatalf("redacted client id = %q", red.ImgurClientID)
	}
	if cfg.ImgurClientID != "abc123" {
		t.Fatalf("Redacted must not modify the receiver")
	}
	if (Config{}).Redacted().ImgurClientID != "" {
		t.Fatalf("empty client id should stay empty")
	}
}

func TestLoadRequiresRedisURLForRedisStorage(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "redis")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without redis_url")
	}

	t.Setenv("REDIS_URL", "redis://:secret@localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redacted().RedisURL != "<redacted>" {
		t.Fatalf("redis url leaked through Redacted: %q", cfg.Redacted().RedisURL)
	}
}

func TestLoadClientSkipsHarvesterSettings(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "redis")
	t.Setenv("POLL_INTERVAL", "0")
	t.Setenv("IMGUR_CLIENT_ID", "abc123")

	if _, err := Load(); err == nil {
		t.Fatalf("Load should reject harvester settings")
	}
	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.ImgurClientID != "abc123" || cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("unexpected client config %+v", cfg)
	}

	t.Setenv("HTTP_TIMEOUT_SECONDS", "0")
	if _, err := LoadClient(); err == nil {
		t.Fatalf("LoadClient should still reject a non-positive http timeout")
	}
}
