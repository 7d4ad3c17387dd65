package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"CatalogDash/internal/catalog"
	"CatalogDash/internal/config"
	"CatalogDash/internal/database"
	"CatalogDash/pkg/kit"
)

func main() {
	service := "catalog"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Env)
	defer func() { _ = log.Sync() }()

	var (
		store   catalog.Store = catalog.NewMemStore()
		cleanup               = func() {}
	)
	if cfg.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := database.Open(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal("open database failed", zap.Error(err))
		}
		if err := database.Migrate(db, log); err != nil {
			log.Fatal("migrate failed", zap.Error(err))
		}

		pg := catalog.NewPostgresStore(db)
		seeded, err := pg.SeedIfEmpty(ctx, catalog.SeedCategories, catalog.SeedProducts)
		if err != nil {
			log.Fatal("seed catalog failed", zap.Error(err))
		}
		if seeded {
			log.Info("seeded catalog", zap.Int("products", len(catalog.SeedProducts)))
		}

		store = pg
		cleanup = func() { _ = db.Close() }
	}

	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(cfg.Addr("8082"), h, log, cleanup); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
