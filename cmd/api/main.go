// @title MedEase API
// @version 1.0
// @description Medicinas, usuarios y recordatorios.
// @BasePath /
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medease/internal/adapters/auth/jwtauth"
	"medease/internal/adapters/notify/email"
	"medease/internal/adapters/notify/whatsapp"
	pg "medease/internal/adapters/storage/postgres"
	"medease/internal/config"
	"medease/internal/domain/medicines"
	"medease/internal/domain/users"
	"medease/internal/metrics"
	"medease/internal/platform/logger"
	"medease/internal/ports/auth"
	"medease/internal/reminder"
	"medease/internal/router"
	"medease/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "medease: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config (default $MEDEASE_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.App.Name,
	})
	if s, ok := log.(interface{ Sync() error }); ok {
		defer func() { _ = s.Sync() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres si hay DSN, si no in-memory.
	var db *sql.DB
	if cfg.DB.DSN != "" {
		db, err = pg.Open(ctx, cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := pg.Migrate(ctx, db); err != nil {
			return err
		}
		log.Info("using postgres storage", nil)
	} else {
		log.Warn("db.dsn not set; using in-memory storage", nil)
	}
	stores := router.NewStores(db)

	// Auth: sin secreto => modo dev (X-Debug-User-ID).
	var (
		verifier auth.AuthVerifier
		issuer   users.TokenIssuer
	)
	mgr, err := jwtauth.New(jwtauth.Config{Secret: cfg.Auth.JWTSecret, TTL: cfg.Auth.TokenTTL, Issuer: cfg.App.Name})
	switch {
	case err == nil:
		verifier, issuer = mgr, mgr
	case errors.Is(err, jwtauth.ErrNotConfigured):
		log.Warn("auth.jwt_secret not set; running in dev auth mode (X-Debug-User-ID)", nil)
	default:
		return err
	}

	reg := metrics.NewRegistry()

	// Scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		loc, err := cfg.Scheduler.Location()
		if err != nil {
			return fmt.Errorf("scheduler timezone: %w", err)
		}
		channels := []reminder.Channel{
			email.New(ctx, email.Config{From: cfg.Email.From, Region: cfg.Email.Region}, log),
			whatsapp.New(whatsapp.Config{
				AccountSID:    cfg.WhatsApp.AccountSID,
				AuthToken:     cfg.WhatsApp.AuthToken,
				From:          cfg.WhatsApp.From,
				RatePerSecond: cfg.WhatsApp.RatePerSecond,
			}, log),
		}

		sched, err = scheduler.New(scheduler.Options{
			Medicines:        medicines.NewService(stores.Medicines),
			Users:            users.NewService(stores.Users),
			Channels:         channels,
			Logger:           log,
			Metrics:          reg.Reminders,
			Location:         loc,
			MaxConcurrency:   cfg.Scheduler.MaxConcurrency,
			DispatchTimeout:  cfg.Scheduler.DispatchTimeout,
			RespectDateRange: cfg.Reminders.RespectDateRange,
		})
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
	} else {
		log.Info("reminder scheduler disabled", nil)
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: router.NewRouter(router.Options{
			AuthVerifier: verifier,
			TokenIssuer:  issuer,
			Stores:       stores,
			Logger:       log,
			Metrics:      reg,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": cfg.Server.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown requested", nil)
	case serveErr = <-errCh:
		if serveErr != nil {
			log.Error("server error", map[string]any{"err": serveErr})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Warn("scheduler stop", map[string]any{"err": err})
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return serveErr
}
