package outboxpublisher

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	publisher "policyflow/internal/app/outboxpublisher"
	"policyflow/internal/shared/config"
	"policyflow/internal/shared/logger"
	pg "policyflow/internal/shared/postgres"
	"policyflow/internal/shared/rabbitmq"
)

// Run wires the outbox publisher and drains on a fixed interval until ctx is
// cancelled. Drain failures are logged and retried next tick; they are never
// surfaced to any caller since publication is decoupled from issuance.
func Run(ctx context.Context, interval time.Duration, batchSize int) error {
	logger := logger.NewLogger("outbox-publisher")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err)
		return err
	}

	pool, err := pg.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err)
		return err
	}
	defer pool.Close()

	rmq, err := rabbitmq.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err)
		return err
	}
	defer rmq.Close()

	drainer := publisher.New(pg.NewUnitOfWork(pool), pg.NewOutboxRepo(), rmq, logger, batchSize)

	logger.Info(ctx, "service_started", "Outbox publisher started", map[string]any{
		"interval_ms": interval.Milliseconds(),
		"batch_size":  batchSize,
	})

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				if _, err := drainer.Drain(gCtx); err != nil {
					// transient store failure; the outbox rows stay PENDING
					logger.Error(gCtx, "outbox_drain_failed", "Drain cycle failed, will retry", err)
				}
			}
		}
	})

	err = g.Wait()
	logger.Info(ctx, "graceful_shutdown", "Outbox publisher shut down", nil)
	return err
}
