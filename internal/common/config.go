// Package common provides shared utilities for Tally
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Tally
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Market      MarketConfig  `toml:"market"`
	Events      EventsConfig  `toml:"events"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the ledger database location.
type StorageConfig struct {
	Ledger AreaConfig `toml:"ledger"` // Accounts, holdings, records, outbox (BadgerHold)
}

// AreaConfig holds path configuration for a storage area.
type AreaConfig struct {
	Path string `toml:"path"`
}

// MarketConfig holds simulated price source configuration.
type MarketConfig struct {
	// SeedPrices assigns starting prices per symbol; symbols not listed
	// start at DefaultPrice.
	SeedPrices   map[string]float64 `toml:"seed_prices"`
	DefaultPrice float64            `toml:"default_price"`
	// DriftPct is the maximum per-quote price movement in percent (± range).
	DriftPct float64 `toml:"drift_pct"`
}

// EventsConfig holds notification event sink configuration.
type EventsConfig struct {
	// Brokers lists Kafka bootstrap addresses. Empty means events are
	// logged instead of published.
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
	// DispatchRate caps outbox publishes per second.
	DispatchRate float64 `toml:"dispatch_rate"`
	// PollInterval is how often the outbox worker scans for pending
	// events, as a duration string.
	PollInterval string `toml:"poll_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Ledger: AreaConfig{Path: "data/ledger"},
		},
		Market: MarketConfig{
			SeedPrices: map[string]float64{
				"AAPL":  150.00,
				"GOOGL": 2800.00,
				"AMZN":  3400.00,
				"MSFT":  300.00,
				"TSLA":  700.00,
			},
			DefaultPrice: 100.00,
			DriftPct:     1.0,
		},
		Events: EventsConfig{
			Topic:        "tally.notifications",
			DispatchRate: 20,
			PollInterval: "2s",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Outputs: []string{"console"},
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TALLY_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("TALLY_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("TALLY_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("TALLY_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("TALLY_DATA_PATH"); path != "" {
		config.Storage.Ledger.Path = path
	}

	if brokers := os.Getenv("TALLY_KAFKA_BROKERS"); brokers != "" {
		config.Events.Brokers = strings.Split(brokers, ",")
	}
}
