package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"CatalogDash/internal/catalogapi"
	"CatalogDash/internal/config"
	"CatalogDash/internal/dashboard"
	"CatalogDash/internal/database"
	"CatalogDash/internal/listing"
	"CatalogDash/internal/selection"
	"CatalogDash/internal/session"
	"CatalogDash/pkg/kit"
)

const janitorInterval = time.Minute

func main() {
	service := "dashboard"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Env)
	defer func() { _ = log.Sync() }()

	storage, closeStorage, err := openStorage(cfg, log)
	if err != nil {
		log.Fatal("open selection storage failed", zap.Error(err), zap.String("backend", cfg.Selection.Backend))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	upstream := catalogapi.DefaultConfig(cfg.Upstream.BaseURL)
	upstream.Timeout = cfg.Upstream.Timeout
	upstream.MaxRetries = cfg.Upstream.MaxRetries
	client := catalogapi.New(upstream, log.Named("catalogapi"), reg)

	listings := listing.NewManager(client, listing.Options{
		PageSize:    cfg.Listing.PageSize,
		Debounce:    cfg.Listing.Debounce,
		SearchDelay: listing.UXDelay{Min: cfg.Listing.SearchDelayMin, Max: cfg.Listing.SearchDelayMax},
		Log:         log.Named("listing"),
		Metrics:     listing.NewMetrics(reg),
	}, cfg.Listing.IdleTTL)
	listings.StartJanitor(janitorInterval)

	sessions := session.NewManager(log.Named("session"), listing.UXDelay{
		Min: cfg.Session.LogoutDelayMin,
		Max: cfg.Session.LogoutDelayMax,
	}, cfg.Session.IdleTTL)
	sessions.OnExpire(func(id string) { listings.CloseOwner(id) })
	sessions.StartJanitor(janitorInterval)

	s := &dashboard.Server{
		Log:        log,
		Catalog:    client,
		Selections: selection.NewStore(storage, log.Named("selection")),
		Sessions:   sessions,
		Listings:   listings,
		PageSize:   cfg.Listing.PageSize,
	}

	h := dashboard.NewHandler(s, dashboard.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: true,
		MetricsToken:   cfg.Metrics.Token,
	})

	log.Info("starting",
		zap.String("catalog_api", cfg.Upstream.BaseURL),
		zap.String("selection_backend", cfg.Selection.Backend),
	)

	if err := kit.RunHTTPServer(cfg.Addr("8090"), h, log, sessions.Stop, listings.Stop, closeStorage); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// openStorage picks the selection backend. The returned func releases it.
func openStorage(cfg config.Config, log *zap.Logger) (selection.Storage, func(), error) {
	switch cfg.Selection.Backend {
	case "file":
		fs, err := selection.NewFileStorage(cfg.Selection.File)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Selection.RedisAddr,
			Password: cfg.Selection.RedisPassword,
			DB:       cfg.Selection.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return selection.NewRedisStorage(rdb), func() { _ = rdb.Close() }, nil

	case "postgres":
		db, err := openDatabase(cfg.Database.URL, log)
		if err != nil {
			return nil, nil, err
		}
		return selection.NewPostgresStorage(db), func() { _ = db.Close() }, nil

	default:
		return selection.NewMemStorage(), func() {}, nil
	}
}

func openDatabase(dsn string, log *zap.Logger) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
