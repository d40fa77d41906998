package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iedc-snmimt/iedc-site/internal/catalog"
	"github.com/iedc-snmimt/iedc-site/internal/config"
	"github.com/iedc-snmimt/iedc-site/internal/contact"
	"github.com/iedc-snmimt/iedc-site/internal/database"
	"github.com/iedc-snmimt/iedc-site/internal/export"
	"github.com/iedc-snmimt/iedc-site/internal/flash"
	"github.com/iedc-snmimt/iedc-site/internal/metrics"
	"github.com/iedc-snmimt/iedc-site/internal/notifier"
	"github.com/iedc-snmimt/iedc-site/internal/registration"
	"github.com/iedc-snmimt/iedc-site/internal/store"
)

// app holds the services shared by every command.
type app struct {
	store    store.Store
	catalog  *catalog.Catalog
	inbox    *contact.Inbox
	engine   *registration.Engine
	exporter *export.Exporter
	flash    *flash.Flasher
	notifier notifier.Notifier

	metrics        *metrics.Metrics
	metricsHandler http.Handler
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	s, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	seed := catalog.DefaultEvents()
	if cfg.EventsSeedFile != "" {
		seed, err = catalog.LoadSeedFile(cfg.EventsSeedFile)
		if err != nil {
			s.Close()
			return nil, err
		}
	}

	a := &app{
		store:   s,
		catalog: catalog.New(s, seed),
		inbox:   contact.NewInbox(s),
		flash:   flash.New(cfg.SessionSecret),
	}
	if err := a.catalog.Initialize(ctx); err != nil {
		s.Close()
		return nil, err
	}
	if err := a.inbox.Initialize(ctx); err != nil {
		s.Close()
		return nil, err
	}
	a.engine = registration.NewEngine(s, a.catalog)
	if err := a.engine.Initialize(ctx); err != nil {
		s.Close()
		return nil, err
	}
	a.exporter = export.NewExporter(a.engine, cfg.ExportPrefix)

	// Keep the interface nil when Discord is not configured.
	if dn, err := notifier.NewDiscordNotifier(cfg.DiscordBotToken, cfg.DiscordNotificationsChannelID); err != nil {
		log.Printf("Discord notifier not initialized: %v", err)
	} else {
		a.notifier = dn
	}

	if cfg.EnableMetrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.metrics = metrics.New(reg)
		a.metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("Failed to close store: %v", err)
	}
}
