package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Ledger.Path != "data/ledger" {
		t.Errorf("unexpected ledger path: %s", cfg.Storage.Ledger.Path)
	}
	if cfg.Market.SeedPrices["AAPL"] != 150.0 {
		t.Errorf("unexpected AAPL seed: %f", cfg.Market.SeedPrices["AAPL"])
	}
	if cfg.Events.Topic != "tally.notifications" {
		t.Errorf("unexpected topic: %s", cfg.Events.Topic)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tally.toml")
	content := `
environment = "production"

[server]
port = 9090

[storage.ledger]
path = "/var/lib/tally"

[events]
brokers = ["kafka-1:9092", "kafka-2:9092"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected production, got %s", cfg.Environment)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Ledger.Path != "/var/lib/tally" {
		t.Errorf("unexpected path: %s", cfg.Storage.Ledger.Path)
	}
	if len(cfg.Events.Brokers) != 2 {
		t.Errorf("expected 2 brokers, got %v", cfg.Events.Brokers)
	}
	// Unset sections keep their defaults.
	if cfg.Market.DefaultPrice != 100.0 {
		t.Errorf("default price lost on merge: %f", cfg.Market.DefaultPrice)
	}
}

func TestLoadConfigSkipsMissingFiles(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/tally.toml")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected defaults for missing file, got port %d", cfg.Server.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TALLY_ENV", "staging")
	t.Setenv("TALLY_PORT", "7070")
	t.Setenv("TALLY_DATA_PATH", "/tmp/ledger")
	t.Setenv("TALLY_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("env override lost: %s", cfg.Environment)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port override lost: %d", cfg.Server.Port)
	}
	if cfg.Storage.Ledger.Path != "/tmp/ledger" {
		t.Errorf("path override lost: %s", cfg.Storage.Ledger.Path)
	}
	if len(cfg.Events.Brokers) != 2 || cfg.Events.Brokers[0] != "a:9092" {
		t.Errorf("broker override lost: %v", cfg.Events.Brokers)
	}
}
