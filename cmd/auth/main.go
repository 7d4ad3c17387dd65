package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"CatalogDash/internal/auth"
	"CatalogDash/internal/config"
	"CatalogDash/internal/database"
	"CatalogDash/pkg/kit"
)

const devSecret = "dev-secret-dev-secret-dev-secret"

func main() {
	service := "auth"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Env)
	defer func() { _ = log.Sync() }()

	secret := cfg.Store.JWTSecret
	if secret == "" && cfg.Env == "development" {
		secret = devSecret
	}
	if len(secret) < 32 {
		log.Fatal("JWT_SECRET is required and must be at least 32 chars")
	}

	var (
		store   auth.UserStore = auth.NewMemStore()
		cleanup                = func() {}
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
		store = auth.NewPostgresStore(db)
		cleanup = func() { _ = db.Close() }
	}

	s := &auth.Server{
		Log:   log,
		Store: store,
		JWT:   auth.NewTokenMaker(secret),
	}

	h := auth.NewHandler(s, auth.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   cfg.Metrics.Token,
	})

	if err := kit.RunHTTPServer(cfg.Addr("8081"), h, log, cleanup); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
