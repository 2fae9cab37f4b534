package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sopdash/internal/api"
	"sopdash/internal/config"
	"sopdash/internal/core"
	"sopdash/internal/events"
	apphttp "sopdash/internal/http"
	"sopdash/internal/log"
	"sopdash/internal/session"
	"sopdash/internal/snapshot"
	"sopdash/internal/store"
)

func main() {
	// Load .env for local development (ignore errors in production/docker).
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.APIBaseURL)
	sess := session.New(cfg.TokenFile)
	client.UseTokens(sess)

	stores := store.NewStores(client)
	seedFromSnapshot(logger, cfg.SnapshotDBPath, stores)

	var publisher apphttp.MutationPublisher
	if cfg.EventsEnabled() {
		ev, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Publishing is best effort; the dashboard runs without a broker.
			logger.Warn("Mutation events disabled", log.FieldError, err)
		} else {
			defer ev.Close()
			publisher = ev
			logger.Info("Mutation events enabled", "exchange", cfg.AMQPExchange)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Stores:  stores,
		Session: sess,
		Auth:    client,
		Reports: client,
		Events:  publisher,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received",
			log.FieldOperation, log.OpShutdown,
			"signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting sopdash server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"api_base_url", cfg.APIBaseURL,
		"session_state", string(sess.State()))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// seedFromSnapshot warm-boots the stores from the local mirror so the first
// paint is not blank while live fetches are in flight. The mirror is stale
// by definition; the first successful fetch replaces it wholesale.
func seedFromSnapshot(logger *log.Logger, dbPath string, stores *store.Stores) {
	mirror, err := snapshot.Open(dbPath)
	if err != nil {
		logger.Warn("Snapshot mirror unavailable, starting cold",
			"path", dbPath,
			log.FieldError, err)
		return
	}
	defer mirror.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if items, err := snapshot.LoadList[core.Expense](ctx, mirror, snapshot.EntityExpenses); err == nil && items != nil {
		stores.Expenses.Seed(items)
	}
	if items, err := snapshot.LoadList[core.Commitment](ctx, mirror, snapshot.EntityCommitments); err == nil && items != nil {
		stores.Commitments.Seed(items)
	}
	if items, err := snapshot.LoadList[core.Payment](ctx, mirror, snapshot.EntityPayments); err == nil && items != nil {
		stores.Payments.Seed(items)
	}
	logger.Info("Stores seeded from snapshot mirror", "path", dbPath)
}
