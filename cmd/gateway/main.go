package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"CatalogDash/internal/config"
	"CatalogDash/internal/gateway"
	"CatalogDash/pkg/kit"
)

func main() {
	service := "gateway"

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Env)
	defer func() { _ = log.Sync() }()

	deps := gateway.Deps{
		AuthURL:    cfg.Store.AuthURL,
		CatalogURL: cfg.Store.CatalogURL,
	}

	h, err := gateway.NewHandler(deps, gateway.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   cfg.Metrics.Token,
	})
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(cfg.Addr("8080"), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
