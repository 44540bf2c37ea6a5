package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lukejenkins/cwd/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	if cfg.Serial.Port != "/dev/ttyUSB0" {
		t.Errorf("port = %q", cfg.Serial.Port)
	}
	if cfg.Serial.BaudRate != 115200 {
		t.Errorf("baud rate = %d", cfg.Serial.BaudRate)
	}
	if cfg.Intervals.Fast != 5*time.Second || cfg.Intervals.Slow != 300*time.Second {
		t.Errorf("intervals = %+v", cfg.Intervals)
	}
	if cfg.Identity.Policy != config.IdentityWarn {
		t.Errorf("identity policy = %q", cfg.Identity.Policy)
	}
	if len(cfg.Groups.FastLoop) == 0 || len(cfg.Groups.Setup) == 0 {
		t.Error("default command groups must not be empty")
	}
	if cfg.Database.Enabled {
		t.Error("database must be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate, got: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("File overlays defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cwd.yaml")
		doc := []byte("serial:\n  port: /dev/ttyUSB2\nintervals:\n  fast: 10s\n")
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Serial.Port != "/dev/ttyUSB2" {
			t.Errorf("port = %q, want override", cfg.Serial.Port)
		}
		if cfg.Intervals.Fast != 10*time.Second {
			t.Errorf("fast interval = %v, want 10s", cfg.Intervals.Fast)
		}
		// Untouched settings keep their defaults.
		if cfg.Serial.BaudRate != 115200 {
			t.Errorf("baud rate = %d, want default", cfg.Serial.BaudRate)
		}
	})

	t.Run("Missing file is an error", func(t *testing.T) {
		if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		t.Setenv("CWD_PORT", "/dev/ttyACM3")
		t.Setenv("CWD_FAST_INTERVAL", "2s")

		cfg, err := config.Load("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Serial.Port != "/dev/ttyACM3" {
			t.Errorf("port = %q, want env override", cfg.Serial.Port)
		}
		if cfg.Intervals.Fast != 2*time.Second {
			t.Errorf("fast interval = %v, want 2s", cfg.Intervals.Fast)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"Empty port", func(c *config.Config) { c.Serial.Port = "" }},
		{"Zero baud rate", func(c *config.Config) { c.Serial.BaudRate = 0 }},
		{"Negative retries", func(c *config.Config) { c.Execution.Retries = -1 }},
		{"Zero interval", func(c *config.Config) { c.Intervals.Medium = 0 }},
		{"Bad identity policy", func(c *config.Config) { c.Identity.Policy = "maybe" }},
		{"Unsupported database", func(c *config.Config) {
			c.Database.Enabled = true
			c.Database.Type = "postgres"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
