package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/netdecker/netdecker-backend/api/controllers"
	"github.com/netdecker/netdecker-backend/api/routes"
	"github.com/netdecker/netdecker-backend/internal/allocation"
	"github.com/netdecker/netdecker-backend/internal/decks"
	"github.com/netdecker/netdecker-backend/internal/inventory"
	"github.com/netdecker/netdecker-backend/internal/orders"
	"github.com/netdecker/netdecker-backend/pkg/config"
	"github.com/netdecker/netdecker-backend/pkg/db"
	"github.com/netdecker/netdecker-backend/pkg/decksource"
	"github.com/netdecker/netdecker-backend/pkg/logger"
	"github.com/netdecker/netdecker-backend/pkg/metrics"
	"github.com/netdecker/netdecker-backend/pkg/migrate"
	"github.com/netdecker/netdecker-backend/pkg/redis"
	"github.com/netdecker/netdecker-backend/pkg/scryfall"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// the token cache is optional: without redis every lookup hits Scryfall
	var cacheClient *redis.Client
	var cachePinger controllers.Pinger
	var tokenCache scryfall.Cache
	if cfg.Redis.URL != "" {
		cacheClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := cacheClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		cachePinger = cacheClient
		tokenCache = cacheClient
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	allocationMetrics := metrics.NewAllocationMetrics(registry)

	store := inventory.NewStore(inventory.NewRepository(dbClient.DB()))
	deckRepo := decks.NewRepository(dbClient.DB())

	inventoryService, err := inventory.NewService(store, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}
	deckService, err := decks.NewService(deckRepo, store, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create deck service", err)
		os.Exit(1)
	}

	fetcher := decksource.NewClient(cfg.DeckSource, logg)
	allocationService, err := allocation.NewService(deckRepo, store, dbClient, fetcher, logg, allocationMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create allocation service", err)
		os.Exit(1)
	}

	var tokens orders.TokenLookup = scryfall.NewClient(cfg.Scryfall, tokenCache, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"driver": cfg.DB.Driver,
		"addr":   addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			DB:         dbClient,
			Cache:      cachePinger,
			Registry:   registry,
			Inventory:  inventoryService,
			Decks:      deckService,
			Allocation: allocationService,
			Tokens:     tokens,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
