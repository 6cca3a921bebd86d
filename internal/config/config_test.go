package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"MP_DB", "HOST", "PORT", "MP_SCHEDULER_INTERVAL", "MP_PUBLISH_TIMEOUT", "MP_PLATFORMS_FILE", "MP_LOG_SQL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "data.db" {
		t.Errorf("DBPath = %q, want data.db", cfg.DBPath)
	}
	if cfg.Addr() != "0.0.0.0:5000" {
		t.Errorf("Addr = %q, want 0.0.0.0:5000", cfg.Addr())
	}
	if cfg.SchedulerInterval != 30*time.Second {
		t.Errorf("SchedulerInterval = %s, want 30s", cfg.SchedulerInterval)
	}
	if cfg.PublishTimeout != 30*time.Second {
		t.Errorf("PublishTimeout = %s, want 30s", cfg.PublishTimeout)
	}
	if cfg.LogSQL {
		t.Error("LogSQL should default to false")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MP_DB", "/tmp/posts.db")
	t.Setenv("PORT", "8080")
	t.Setenv("MP_SCHEDULER_INTERVAL", "5s")
	t.Setenv("MP_PUBLISH_TIMEOUT", "0")
	t.Setenv("MP_LOG_SQL", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/posts.db" || cfg.Port != "8080" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SchedulerInterval != 5*time.Second {
		t.Errorf("SchedulerInterval = %s, want 5s", cfg.SchedulerInterval)
	}
	if cfg.PublishTimeout != 0 {
		t.Errorf("PublishTimeout = %s, want 0", cfg.PublishTimeout)
	}
	if !cfg.LogSQL {
		t.Error("LogSQL should be true")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "bad interval", key: "MP_SCHEDULER_INTERVAL", val: "soon"},
		{name: "zero interval", key: "MP_SCHEDULER_INTERVAL", val: "0s"},
		{name: "bad timeout", key: "MP_PUBLISH_TIMEOUT", val: "ten"},
		{name: "bad bool", key: "MP_LOG_SQL", val: "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.val)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Fatalf("error should name %s, got %v", tt.key, err)
			}
		})
	}
}
