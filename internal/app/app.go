// Package app wires webhookd: config, logging, storage, the webhook HTTP
// server, the reconciler and optional operator notifications.
package app

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	humanrail "github.com/prime001/humanrail-sdk"
	"github.com/prime001/humanrail-sdk/internal/config"
	"github.com/prime001/humanrail-sdk/internal/eventstore"
	"github.com/prime001/humanrail-sdk/internal/notify"
	"github.com/prime001/humanrail-sdk/internal/platform/logger"
	"github.com/prime001/humanrail-sdk/internal/reconciler"
)

// App wires application components.
type App struct {
	cfg config.Config
	log *slog.Logger
}

// New creates a new App instance and loads configuration.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "webhookd",
	})
	return &App{cfg: cfg, log: log}, nil
}

// Run starts the application and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	a.log.Info("starting", "addr", a.cfg.Webhook.Addr, "store", a.cfg.Store.Driver)
	defer func() { _ = logger.Close(a.log) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := eventstore.Open(ctx, a.cfg.Store.Driver, a.cfg.Store.Path, a.cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	clientOpts := []humanrail.ClientOption{
		humanrail.WithTimeout(a.cfg.API.Timeout),
		humanrail.WithMaxRetries(a.cfg.API.MaxRetries),
		humanrail.WithLogger(a.log),
	}
	if a.cfg.API.BaseURL != "" {
		clientOpts = append(clientOpts, humanrail.WithBaseURL(a.cfg.API.BaseURL))
	}
	client := humanrail.NewClient(a.cfg.API.Key, clientOpts...)

	var notifier notify.Notifier
	if a.cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(a.cfg.Telegram.Token, a.cfg.Telegram.ChatID, a.log)
		if err != nil {
			return err
		}
		notifier = tg
	}

	rec := reconciler.New(client, store, a.cfg.Reconcile.BatchSize, a.log)
	if err := rec.Start(ctx, a.cfg.Reconcile.Cron); err != nil {
		return err
	}
	defer rec.Stop()

	if a.cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	NewWebhookHandler(a.cfg.Webhook.Secret, a.cfg.Webhook.Tolerance, store, notifier, a.log).Routes(r)

	srv := &http.Server{Addr: a.cfg.Webhook.Addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("server", slog.Any("err", err))
		}
	}()

	<-ctx.Done()
	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
