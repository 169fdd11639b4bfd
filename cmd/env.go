package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/subtrack-labs/pricewatch/internal/pricing"
	"github.com/subtrack-labs/pricewatch/internal/refresh"
	"github.com/subtrack-labs/pricewatch/internal/store"
	"github.com/subtrack-labs/pricewatch/pkg/llm"
	"github.com/subtrack-labs/pricewatch/pkg/websearch"
)

// initStore opens the configured database backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "pricewatch.db"
		}
		return store.NewSQLite(dsn)
	default:
		return nil, eris.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline builds the discovery pipeline from configured backends.
func initPipeline() (*pricing.Pipeline, error) {
	registry := pricing.DefaultRegistry()
	if cfg.Pricing.RegistryPath != "" {
		r, err := pricing.LoadRegistry(cfg.Pricing.RegistryPath)
		if err != nil {
			return nil, eris.Wrap(err, "load domain registry")
		}
		registry = r
	}

	searchClient := websearch.NewClient(cfg.Search.Key, cfg.Search.EngineID)
	llmClient := llm.NewClient(cfg.LLM.Key)

	return pricing.New(cfg, searchClient, llmClient, registry), nil
}

// initRefresher wires the batch refresher on top of the store and pipeline.
func initRefresher(st store.Store) (*refresh.Refresher, error) {
	pipeline, err := initPipeline()
	if err != nil {
		return nil, err
	}
	return refresh.New(st, pipeline, cfg.Refresh), nil
}
