// Command snapshot-worker keeps the local sqlite mirror of the remote SOP
// collections fresh. It refetches every collection on a fixed interval and,
// when a broker is configured, also reacts to mutation events so the mirror
// converges faster than the polling cadence.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sopdash/internal/api"
	"sopdash/internal/config"
	"sopdash/internal/core"
	"sopdash/internal/events"
	"sopdash/internal/log"
	"sopdash/internal/session"
	"sopdash/internal/snapshot"
)

type refresher struct {
	logger      *log.Logger
	mirror      *snapshot.Mirror
	expenses    api.Resource[core.Expense]
	commitments api.Resource[core.Commitment]
	payments    api.Resource[core.Payment]
}

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	client := api.NewClient(cfg.APIBaseURL)
	sess := session.New(cfg.TokenFile)
	client.UseTokens(sess)
	if sess.State() != session.Authenticated {
		logger.Error("No persisted token; run sopdash-login first", "path", cfg.TokenFile)
		os.Exit(1)
	}

	mirror, err := snapshot.Open(cfg.SnapshotDBPath)
	if err != nil {
		logger.Error("Failed to open snapshot mirror", log.FieldError, err, "path", cfg.SnapshotDBPath)
		os.Exit(1)
	}
	defer mirror.Close()

	ref := &refresher{
		logger:      logger,
		mirror:      mirror,
		expenses:    api.Expenses(client),
		commitments: api.Commitments(client),
		payments:    api.Payments(client),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Starting snapshot worker",
		log.FieldOperation, log.OpStartup,
		"interval", cfg.RefreshInterval.String(),
		"db_path", cfg.SnapshotDBPath)

	ref.refreshAll(ctx)

	if cfg.EventsEnabled() {
		go func() {
			err := events.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, func(m *events.Mutation) error {
				return ref.refreshEntity(ctx, m.Entity)
			})
			if err != nil && err != context.Canceled {
				logger.Error("Mutation consumption stopped", log.FieldError, err)
			}
		}()
		logger.Info("Consuming mutation events", "queue", cfg.AMQPQueue)
	}

	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			ref.refreshAll(ctx)
		case sig := <-sigChan:
			logger.Info("Shutdown signal received",
				log.FieldOperation, log.OpShutdown,
				"signal", sig.String())
			return
		case <-ctx.Done():
			return
		}
	}
}

// refreshAll refetches the three collections; each one fails independently
// so a single rejected call never blocks the others from mirroring.
func (r *refresher) refreshAll(ctx context.Context) {
	for _, entity := range []string{snapshot.EntityExpenses, snapshot.EntityCommitments, snapshot.EntityPayments} {
		if err := r.refreshEntity(ctx, entity); err != nil {
			r.logger.Warn("Snapshot refresh failed",
				log.FieldEntity, entity,
				log.FieldOperation, log.OpRefresh,
				log.FieldError, err)
		}
	}
}

func (r *refresher) refreshEntity(ctx context.Context, entity string) error {
	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch entity {
	case snapshot.EntityExpenses:
		items, err := r.expenses.List(cctx)
		if err != nil {
			return err
		}
		return snapshot.SaveList(cctx, r.mirror, snapshot.EntityExpenses, items)
	case snapshot.EntityCommitments:
		items, err := r.commitments.List(cctx)
		if err != nil {
			return err
		}
		return snapshot.SaveList(cctx, r.mirror, snapshot.EntityCommitments, items)
	case snapshot.EntityPayments:
		items, err := r.payments.List(cctx)
		if err != nil {
			return err
		}
		return snapshot.SaveList(cctx, r.mirror, snapshot.EntityPayments, items)
	default:
		r.logger.Debug("Ignoring mutation for unknown entity", log.FieldEntity, entity)
		return nil
	}
}
