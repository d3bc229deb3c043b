package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/config"
	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/scheduler"
	"github.com/mamadbah2/telurku/internal/server/handlers"
	"github.com/mamadbah2/telurku/internal/server/router"
	"github.com/mamadbah2/telurku/internal/service/auth"
	"github.com/mamadbah2/telurku/internal/service/live"
	"github.com/mamadbah2/telurku/internal/session"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP API and the background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, baseLogger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = baseLogger.Sync() }()
		if servePort != "" {
			cfg.Server.Port = servePort
		}
		return serve(cmd.Context(), cfg, baseLogger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (overrides APP_PORT)")
}

func serve(parent context.Context, cfg *config.Config, baseLogger *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Error("failed to initialize application", zap.Error(err))
		return err
	}
	defer a.close()

	sessions, sweeper, err := openSessionStore(ctx, cfg, baseLogger)
	if err != nil {
		return err
	}
	if closer, ok := sessions.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				baseLogger.Error("failed to close session store", zap.Error(err))
			}
		}()
	}

	authSvc := auth.NewService(a.idp, a.profiles, sessions, cfg.Backend.JWTSecret, baseLogger.Named("svc.auth"))
	hub := live.NewHub(16, baseLogger.Named("live"))

	schedOpts := []scheduler.Option{scheduler.WithServiceToken(cfg.Backend.ServiceKey)}
	if cfg.MongoDB.Enabled() {
		schedOpts = append(schedOpts, scheduler.WithSnapshots(cfg.Reporting.CronSchedule))
	}
	if sweeper != nil {
		schedOpts = append(schedOpts, scheduler.WithSessionSweeper(sweeper))
	}
	sched := scheduler.NewScheduler(cfg.Monitor, a.location, a.reporting, a.alerts, hub, baseLogger.Named("scheduler"), schedOpts...)

	refresh := live.NewDebouncer(cfg.Monitor.Debounce, sched.RefreshSoon)
	defer refresh.Stop()
	a.barns.OnChange(func(_ context.Context, _ string, _ models.Operation) {
		refresh.Trigger()
	})

	guard := session.NewGuard()
	engine := router.New(router.Handlers{
		Auth:      handlers.NewAuthHandler(authSvc, baseLogger.Named("handlers.auth")),
		Barns:     handlers.NewBarnHandler(a.barns, sessions, guard, a.location, baseLogger.Named("handlers.barns")),
		Feed:      handlers.NewFeedHandler(a.feed, sessions, guard, a.location, baseLogger.Named("handlers.feed")),
		Dashboard: handlers.NewDashboardHandler(a.reporting, a.barns, a.alerts, hub, sessions, a.location, baseLogger.Named("handlers.dashboard")),
		Profiles:  handlers.NewProfileHandler(a.profiles, baseLogger.Named("handlers.profiles")),
	}, authSvc, handlers.CookieOptions{
		Name:   cfg.Server.SessionCookie,
		Secure: cfg.Server.SecureCookie,
		MaxAge: int(cfg.Session.TTL.Seconds()),
	}, baseLogger.Named("router"))

	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	// No write timeout: the live stream holds its response open.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.RegisterOnShutdown(hub.Close)

	errCh := make(chan error, 1)
	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("backend", cfg.Backend.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		baseLogger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			baseLogger.Error("http server crashed", zap.Error(err))
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	return nil
}

func openSessionStore(ctx context.Context, cfg *config.Config, baseLogger *zap.Logger) (session.Store, scheduler.Sweeper, error) {
	if cfg.Session.Store == config.SessionRedis {
		store, err := session.NewRedisStore(ctx, session.RedisOptions{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
			Prefix:   cfg.Session.RedisPrefix,
			TTL:      cfg.Session.TTL,
		})
		if err != nil {
			baseLogger.Error("failed to connect session store", zap.Error(err))
			return nil, nil, err
		}
		baseLogger.Info("redis session store enabled", zap.String("addr", cfg.Session.RedisAddr))
		return store, nil, nil
	}
	store := session.NewMemoryStore(cfg.Session.TTL)
	return store, store, nil
}
