package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Environment != "development" {
		t.Errorf("Expected development environment, got %q", config.Environment)
	}
	if config.Retrieval.DistanceThreshold != 1.2 {
		t.Errorf("Expected distance threshold 1.2, got %f", config.Retrieval.DistanceThreshold)
	}
	if config.Suppression.MaxCardsPerWindow != 3 {
		t.Errorf("Expected 3 cards per window, got %d", config.Suppression.MaxCardsPerWindow)
	}
	if config.CRM.MaxRetries != 5 || config.CRM.BaseDelay != 2*time.Second {
		t.Errorf("Unexpected CRM retry budget: %d retries, %s base delay", config.CRM.MaxRetries, config.CRM.BaseDelay)
	}
	if config.CRM.Idempotency != "memory" {
		t.Errorf("Expected memory idempotency default, got %q", config.CRM.Idempotency)
	}
	if config.IsProduction() {
		t.Error("Default config must not be production")
	}
}

func TestLoadFromFiles(t *testing.T) {
	t.Run("Later files override earlier ones", func(t *testing.T) {
		dir := t.TempDir()

		base := filepath.Join(dir, "base.toml")
		os.WriteFile(base, []byte("[logging]\nlevel = \"debug\"\n\n[retrieval]\ntop_k = 5\n"), 0644)

		override := filepath.Join(dir, "override.toml")
		os.WriteFile(override, []byte("[retrieval]\ntop_k = 7\n"), 0644)

		config, err := LoadFromFiles(base, override)
		if err != nil {
			t.Fatalf("LoadFromFiles failed: %v", err)
		}
		if config.Logging.Level != "debug" {
			t.Errorf("Expected debug level from base file, got %q", config.Logging.Level)
		}
		if config.Retrieval.TopK != 7 {
			t.Errorf("Expected top_k 7 from override, got %d", config.Retrieval.TopK)
		}
		// Untouched sections keep their defaults.
		if config.Retrieval.DistanceThreshold != 1.2 {
			t.Errorf("Expected default threshold preserved, got %f", config.Retrieval.DistanceThreshold)
		}
	})

	t.Run("Missing file is an error", func(t *testing.T) {
		if _, err := LoadFromFiles("/nonexistent/livewire.toml"); err == nil {
			t.Error("Expected error for missing config file")
		}
	})

	t.Run("No files yields defaults plus env", func(t *testing.T) {
		config, err := LoadFromFiles()
		if err != nil {
			t.Fatalf("LoadFromFiles failed: %v", err)
		}
		if config.Storage.Badger.Path == "" {
			t.Error("Expected default storage path")
		}
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LIVEWIRE_ENV", "production")
	t.Setenv("LIVEWIRE_LOG_LEVEL", "warn")
	t.Setenv("LIVEWIRE_DATA_DIR", "/var/lib/livewire")
	t.Setenv("GHL_API_KEY", "ghl-secret")

	config, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if !config.IsProduction() {
		t.Error("Expected production from LIVEWIRE_ENV")
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Expected warn level, got %q", config.Logging.Level)
	}
	if config.Storage.Badger.Path != "/var/lib/livewire" {
		t.Errorf("Expected env data dir, got %q", config.Storage.Badger.Path)
	}
	if config.CRM.APIKey != "ghl-secret" {
		t.Errorf("Expected CRM key from env, got %q", config.CRM.APIKey)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	config := DefaultConfig()

	ApplyFlagOverrides(config, "/tmp/flag-data", "error")
	if config.Storage.Badger.Path != "/tmp/flag-data" {
		t.Errorf("Expected flag data dir, got %q", config.Storage.Badger.Path)
	}
	if config.Logging.Level != "error" {
		t.Errorf("Expected flag log level, got %q", config.Logging.Level)
	}

	// Empty flags leave existing values alone.
	ApplyFlagOverrides(config, "", "")
	if config.Storage.Badger.Path != "/tmp/flag-data" || config.Logging.Level != "error" {
		t.Error("Empty flags must not reset configuration")
	}
}
