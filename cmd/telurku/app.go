package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/config"
	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
	"github.com/mamadbah2/telurku/internal/repository/memory"
	"github.com/mamadbah2/telurku/internal/repository/mongodb"
	"github.com/mamadbah2/telurku/internal/repository/sheets"
	supabaserepo "github.com/mamadbah2/telurku/internal/repository/supabase"
	"github.com/mamadbah2/telurku/internal/service/alerts"
	"github.com/mamadbah2/telurku/internal/service/auth"
	"github.com/mamadbah2/telurku/internal/service/barns"
	"github.com/mamadbah2/telurku/internal/service/feed"
	"github.com/mamadbah2/telurku/internal/service/reporting"
	"github.com/mamadbah2/telurku/pkg/clients/rabbitmq"
	"github.com/mamadbah2/telurku/pkg/clients/supabase"
	"github.com/mamadbah2/telurku/pkg/clients/whatsapp"
)

// app holds the wired services. close releases every opened connection.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	location *time.Location

	idp      auth.IdentityProvider
	profiles repository.ProfileRepository

	barns     *barns.Service
	feed      *feed.Service
	reporting *reporting.Service
	alerts    *alerts.Service

	closers []func(context.Context) error
}

type backend struct {
	barns    repository.BarnRepository
	feed     repository.FeedRepository
	profiles repository.ProfileRepository
	audit    repository.AuditRepository
	idp      auth.IdentityProvider
}

func buildApp(ctx context.Context, cfg *config.Config, baseLogger *zap.Logger) (*app, error) {
	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Reporting.Timezone, err)
	}

	a := &app{cfg: cfg, logger: baseLogger, location: loc}

	be, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	a.idp = be.idp
	a.profiles = be.profiles

	a.barns = barns.NewService(be.barns, be.audit, be.profiles, baseLogger.Named("svc.barns"))
	a.feed = feed.NewService(be.feed, be.barns, be.profiles, baseLogger.Named("svc.feed"))

	opts := []reporting.Option{reporting.WithLocation(loc)}
	if cfg.Sheets.Enabled() {
		sink, err := sheets.NewExportSink(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init sheets export: %w", err)
		}
		opts = append(opts, reporting.WithExportSink(sink))
	}
	if cfg.MongoDB.Enabled() {
		archive, err := mongodb.NewSnapshotRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init snapshot archive: %w", err)
		}
		a.closers = append(a.closers, archive.Close)
		opts = append(opts, reporting.WithArchive(archive))
	}
	a.reporting = reporting.NewService(a.barns, a.feed, baseLogger.Named("svc.reporting"), opts...)

	notifiers, err := a.openNotifiers()
	if err != nil {
		a.close()
		return nil, err
	}
	a.alerts = alerts.NewService(a.barns, baseLogger.Named("svc.alerts"), notifiers...)

	return a, nil
}

func (a *app) openBackend(ctx context.Context) (backend, error) {
	switch a.cfg.Backend.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		if a.cfg.Backend.DemoEmail != "" {
			store.AddUser(models.Profile{Name: "Demo Admin", Email: a.cfg.Backend.DemoEmail, Role: models.RoleAdmin}, a.cfg.Backend.DemoPassword)
		}
		a.logger.Warn("using in-memory backend, data is lost on restart")
		return backend{
			barns:    memory.NewBarnRepository(store),
			feed:     memory.NewFeedRepository(store),
			profiles: memory.NewProfileRepository(store),
			audit:    memory.NewAuditRepository(store),
			idp:      memory.NewIdentityProvider(store, a.cfg.Session.TTL),
		}, nil
	default:
		client, err := supabase.Connect(ctx, supabase.Config{
			URL:     a.cfg.Backend.URL,
			AnonKey: a.cfg.Backend.AnonKey,
			Timeout: a.cfg.Backend.Timeout,
		}, a.cfg.Backend.RetryDelay, a.logger.Named("client.supabase"))
		if err != nil {
			return backend{}, err
		}
		return backend{
			barns:    supabaserepo.NewBarnRepository(client, a.logger.Named("repo.barns")),
			feed:     supabaserepo.NewFeedRepository(client, a.logger.Named("repo.feed")),
			profiles: supabaserepo.NewProfileRepository(client, a.logger.Named("repo.profiles")),
			audit:    supabaserepo.NewAuditRepository(client, a.logger.Named("repo.audit")),
			idp:      supabaserepo.NewAuthGateway(client),
		}, nil
	}
}

func (a *app) openNotifiers() ([]alerts.Notifier, error) {
	var notifiers []alerts.Notifier
	if a.cfg.WhatsApp.Enabled() {
		notifiers = append(notifiers, alerts.NewWhatsAppNotifier(whatsapp.NewClient(a.cfg.WhatsApp), a.cfg.WhatsApp.AlertTo))
		a.logger.Info("whatsapp alert notifications enabled", zap.Int("recipients", len(a.cfg.WhatsApp.AlertTo)))
	}
	if a.cfg.RabbitMQ.Enabled() {
		publisher, err := rabbitmq.NewPublisher(a.cfg.RabbitMQ.URL, a.cfg.RabbitMQ.AlertQueue, a.logger.Named("client.rabbitmq"))
		if err != nil {
			return nil, fmt.Errorf("init alert queue: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return publisher.Close() })
		notifiers = append(notifiers, alerts.NewQueueNotifier(publisher))
		a.logger.Info("alert queue enabled", zap.String("queue", a.cfg.RabbitMQ.AlertQueue))
	}
	return notifiers, nil
}

// backgroundContext carries the service key, when configured, so scheduled
// jobs and CLI commands are not limited to anonymous row access.
func (a *app) backgroundContext(ctx context.Context) context.Context {
	if a.cfg.Backend.ServiceKey == "" {
		return ctx
	}
	return supabase.WithAccessToken(ctx, a.cfg.Backend.ServiceKey)
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Error("failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
