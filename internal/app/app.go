// Package app wires configuration, storage, clients, and services into one
// initialized application core shared by cmd/tally-server and tests.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmaitland/tally/internal/clients/marketsim"
	"github.com/dmaitland/tally/internal/common"
	"github.com/dmaitland/tally/internal/events/kafka"
	"github.com/dmaitland/tally/internal/events/logsink"
	"github.com/dmaitland/tally/internal/interfaces"
	"github.com/dmaitland/tally/internal/ledger"
	"github.com/dmaitland/tally/internal/services/accounts"
	"github.com/dmaitland/tally/internal/services/banking"
	"github.com/dmaitland/tally/internal/services/outbox"
	"github.com/dmaitland/tally/internal/services/portfolio"
	"github.com/dmaitland/tally/internal/services/trading"
	"github.com/dmaitland/tally/internal/storage"
)

// App holds all initialized services and their shared infrastructure.
type App struct {
	Config  *common.Config
	Logger  *common.Logger
	Storage interfaces.StorageManager

	PriceSource interfaces.PriceSource
	Publisher   interfaces.EventPublisher

	AccountService   interfaces.AccountService
	BankingService   interfaces.BankingService
	TradingService   interfaces.TradingService
	PortfolioService interfaces.PortfolioService

	OutboxWorker *outbox.Worker
	StartupTime  time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services. configPath may be
// empty, in which case TALLY_CONFIG and then the binary directory are
// checked.
func NewApp(configPath string) (*App, error) {
	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("TALLY_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "tally.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/tally.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative paths to the binary directory so the service is
	// self-contained wherever it is deployed.
	if config.Storage.Ledger.Path != "" && !filepath.IsAbs(config.Storage.Ledger.Path) {
		config.Storage.Ledger.Path = filepath.Join(binDir, config.Storage.Ledger.Path)
	}
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	prices := marketsim.NewClient(logger, config.Market)

	// Notifications go to Kafka when brokers are configured, otherwise to
	// the log sink. Either way the ledger never waits on delivery.
	var publisher interfaces.EventPublisher
	if len(config.Events.Brokers) > 0 {
		publisher = kafka.NewPublisher(logger, config.Events.Brokers, config.Events.Topic)
		logger.Info().Strs("brokers", config.Events.Brokers).Str("topic", config.Events.Topic).Msg("Kafka notification publisher configured")
	} else {
		publisher = logsink.NewPublisher(logger)
		logger.Info().Msg("No Kafka brokers configured, notifications will be logged")
	}

	ldgr := ledger.New()
	ledgerStore := storageManager.LedgerStore()

	pollInterval, err := time.ParseDuration(config.Events.PollInterval)
	if err != nil {
		pollInterval = 2 * time.Second
	}

	a := &App{
		Config:  config,
		Logger:  logger,
		Storage: storageManager,

		PriceSource: prices,
		Publisher:   publisher,

		AccountService:   accounts.NewService(storageManager, logger),
		BankingService:   banking.NewService(storageManager, ldgr, logger),
		TradingService:   trading.NewService(storageManager, prices, ldgr, logger),
		PortfolioService: portfolio.NewService(storageManager, prices, logger),

		OutboxWorker: outbox.NewWorker(ledgerStore, publisher, config.Events.DispatchRate, pollInterval, logger),
		StartupTime:  time.Now(),
	}

	a.OutboxWorker.Start()

	logger.Info().
		Str("environment", config.Environment).
		Str("ledger", config.Storage.Ledger.Path).
		Msg("Application initialized")

	return a, nil
}

// Close stops background work and releases storage.
func (a *App) Close() error {
	a.OutboxWorker.Stop()
	if err := a.Publisher.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close notification publisher")
	}
	return a.Storage.Close()
}
