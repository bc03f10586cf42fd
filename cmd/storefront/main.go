package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Is-Prog22/fastandtrust/internal/admin"
	"github.com/Is-Prog22/fastandtrust/internal/catalog"
	"github.com/Is-Prog22/fastandtrust/internal/config"
	"github.com/Is-Prog22/fastandtrust/internal/uploads"
	"github.com/Is-Prog22/fastandtrust/internal/web"
	"github.com/Is-Prog22/fastandtrust/pkg/kit"
)

func main() {
	service := "storefront"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal("open document store", zap.Error(err))
	}

	up, err := uploads.New(cfg.Uploads.Dir)
	if err != nil {
		log.Fatal("init uploads dir", zap.Error(err))
	}

	tokens := admin.NewTokenMaker(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	cat := &catalog.Server{Store: store, Uploads: up, Log: log}
	adm := &admin.Server{
		Log:    log,
		Tokens: tokens,
		Identity: admin.Identity{
			Email:        cfg.Admin.Email,
			Name:         cfg.Admin.Name,
			PasswordHash: cfg.Admin.PasswordHash,
		},
		Store: store,
	}

	h := web.NewHandler(cat, adm, up, web.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,

		LoginLimit:      cfg.Server.LoginRateLimit,
		LoginWindowSecs: cfg.Server.LoginRateWindow,
	})

	if err := kit.RunHTTPServer(cfg.Server.Address(), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openStore(cfg *config.Config) (catalog.Store, error) {
	if cfg.Store.DatabaseURL != "" {
		return catalog.OpenPostgresStore(context.Background(), cfg.Store.DatabaseURL)
	}
	return catalog.OpenFileStore(cfg.Store.File)
}
