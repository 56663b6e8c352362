package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "CHECKPOINT_ENABLED", "CHECKPOINT_DB_URL", "SESSION_TTL", "REAPER_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("Port = %q, want 3001", cfg.Port)
	}
	if cfg.CheckpointEnabled {
		t.Error("CheckpointEnabled should default to false")
	}
	if cfg.CheckpointDBURL != "mongodb://localhost:27017" {
		t.Errorf("CheckpointDBURL = %q", cfg.CheckpointDBURL)
	}
	if cfg.SessionTTL != 0 {
		t.Errorf("SessionTTL = %v, want 0 (reaper off)", cfg.SessionTTL)
	}
	if cfg.ReaperInterval != 5*time.Minute {
		t.Errorf("ReaperInterval = %v", cfg.ReaperInterval)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("CHECKPOINT_ENABLED", "true")
	t.Setenv("CHECKPOINT_DB_URL", "mysql://root:pw@localhost:3306/vault?parseTime=true")
	t.Setenv("SESSION_TTL", "30m")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if !cfg.CheckpointEnabled {
		t.Error("CheckpointEnabled should be true")
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CHECKPOINT_ENABLED", "not-a-bool")
	t.Setenv("SESSION_TTL", "soon")

	cfg := Load()

	if cfg.CheckpointEnabled {
		t.Error("malformed bool should fall back to default false")
	}
	if cfg.SessionTTL != 0 {
		t.Errorf("malformed duration should fall back to 0, got %v", cfg.SessionTTL)
	}
}

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"mongodb://localhost:27017/streamvault?authSource=admin", "streamvault"},
		{"mongodb://localhost:27017/", "fallback"},
		{"mongodb://localhost:27017", "fallback"},
		{"mysql://root:pw@localhost:3306/vault?parseTime=true", "vault"},
	}

	for _, tt := range tests {
		if got := DatabaseName(tt.url, "fallback"); got != tt.want {
			t.Errorf("DatabaseName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
