package notificationconsumer

import (
	"context"

	"golang.org/x/sync/errgroup"

	consumer "policyflow/internal/app/notificationconsumer"
	"policyflow/internal/shared/config"
	"policyflow/internal/shared/logger"
	"policyflow/internal/shared/metrics"
	pg "policyflow/internal/shared/postgres"
	"policyflow/internal/shared/rabbitmq"
)

// Run wires the notification consumer and blocks until ctx is cancelled.
func Run(ctx context.Context, prefetch int) error {
	logger := logger.NewLogger("notification-consumer")
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

	counters := metrics.NewCounters()
	processor := consumer.NewProcessor(pg.NewUnitOfWork(pool), pg.NewNotificationsRepo(), counters, logger, nil)

	logger.Info(ctx, "service_started", "Notification consumer started", map[string]any{
		"queue":    rabbitmq.QueueNotifications,
		"prefetch": prefetch,
	})

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		consumer.ConsumeForever(gCtx, rmq, processor, logger, prefetch)
		return nil
	})

	err = g.Wait()
	logger.Info(ctx, "graceful_shutdown", "Notification consumer shut down", map[string]any{
		"counters": counters.Snapshot(),
	})
	return err
}
