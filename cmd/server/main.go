package main

import (
	"fmt"

	"github.com/contactmerge/backend/config"
	httpDelivery "github.com/contactmerge/backend/internal/delivery/http"
	"github.com/contactmerge/backend/internal/domain"
	"github.com/contactmerge/backend/internal/infrastructure/contactsapi"
	"github.com/contactmerge/backend/internal/infrastructure/store"
	"github.com/contactmerge/backend/internal/logger"
	"github.com/contactmerge/backend/internal/logger/console"
	"github.com/contactmerge/backend/internal/usecase"
)

func main() {
	logger.Init(console.New(console.Params{Level: "info"}))

	// Load configuration (.env, config.yaml, CONTACTMERGE_* env vars)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", "err", err)
	}

	logger.Init(console.New(console.Params{Level: cfg.Log.Level}))

	logger.Info("Starting ContactMerge Backend v1.0.0",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"store", cfg.Store.Type)

	repo, closeRepo, err := newRepository(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize contact store", "err", err)
	}
	defer closeRepo()

	dedupeService, err := usecase.NewDedupeService(repo, usecase.DedupeServiceConfig{
		Threshold: cfg.Matching.Threshold,
		Weights: usecase.Weights{
			Email:   cfg.Matching.Weights.Email,
			Phone:   cfg.Matching.Weights.Phone,
			Name:    cfg.Matching.Weights.Name,
			Company: cfg.Matching.Weights.Company,
		},
		Workers:            cfg.Matching.Workers,
		EnableDebugLogging: cfg.Matching.Debug,
	})
	if err != nil {
		logger.Fatal("Failed to initialize dedupe service", "err", err)
	}

	logger.Info("Matching configured",
		"threshold", cfg.Matching.Threshold,
		"workers", cfg.Matching.Workers,
		"weights", fmt.Sprintf("%+v", cfg.Matching.Weights),
		"debug", cfg.Matching.Debug)

	handler := httpDelivery.NewHandler(dedupeService)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server listening", "addr", addr)

	if err := router.Run(addr); err != nil {
		logger.Fatal("Failed to start server", "err", err)
	}
}

// newRepository builds the configured contact store and its cleanup func
func newRepository(cfg *config.Config) (domain.ContactRepository, func(), error) {
	switch cfg.Store.Type {
	case config.StoreSQLite:
		sqliteStore, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using SQLite contact store", "path", cfg.Store.SQLitePath)
		return sqliteStore, func() { sqliteStore.Close() }, nil

	case config.StoreRemote:
		client := contactsapi.NewClient(contactsapi.ClientConfig{
			BaseURL:           cfg.Backend.BaseURL,
			APIToken:          cfg.Backend.APIToken,
			Timeout:           cfg.Backend.Timeout,
			RequestsPerSecond: cfg.Backend.RequestsPerSecond,
		})
		if cfg.Server.Environment == "development" {
			client.SetDebug(true)
		}
		if cfg.Backend.APIToken == "" {
			logger.Warn("Contacts backend configured without API token", "baseURL", cfg.Backend.BaseURL)
		} else {
			logger.Info("Using contacts backend", "baseURL", cfg.Backend.BaseURL)
		}
		return client, func() {}, nil

	default:
		logger.Info("Using in-memory contact store")
		return store.NewMemoryStore(), func() {}, nil
	}
}
