package main

import (
	"context"

	"github.com/tournevent/fedexbridge/internal/catalog"
	"github.com/tournevent/fedexbridge/internal/config"
	"github.com/tournevent/fedexbridge/internal/store"
	"github.com/tournevent/fedexbridge/internal/telemetry"
	"github.com/tournevent/fedexbridge/pkg/shipper/fedex"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// app holds the wired provider and the resources it owns.
type app struct {
	provider *fedex.Client
	store    store.Store
}

func (a *app) Close() error {
	return a.store.Close()
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel,
		zap.String("service", cfg.ServiceName),
		zap.String("version", cfg.Version),
	)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}

	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
}

func initApp(ctx context.Context, cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) (*app, error) {
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	provider := fedex.New(cfg.FedEx(), fedex.Deps{
		Store:     st,
		Locations: cat,
		Options:   cat,
		Channels:  cat,
	}, logger, tracer)

	return &app{provider: provider, store: st}, nil
}

// initCLIApp wires the provider for one-shot commands.
func initCLIApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, err
	}

	return initApp(ctx, cfg, logger, nil)
}
