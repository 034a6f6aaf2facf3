package quotesweeper

import (
	"context"
	"time"

	service "policyflow/internal/app/quoteservice"
	"policyflow/internal/shared/config"
	"policyflow/internal/shared/logger"
	"policyflow/internal/shared/metrics"
	pg "policyflow/internal/shared/postgres"
)

// Run sweeps stale PENDING quotes to EXPIRED on a fixed interval until ctx
// is cancelled. The sweep is a no-op for quotes already terminal.
func Run(ctx context.Context, interval, maxAge time.Duration) error {
	logger := logger.NewLogger("quote-sweeper")
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

	uow := pg.NewUnitOfWork(pool)
	counters := metrics.NewCounters()
	svc := service.New(
		uow,
		pg.NewQuotesRepo(),
		pg.NewPoliciesRepo(),
		pg.NewOutboxRepo(),
		pg.NewCustomersRepo(),
		counters,
		logger,
	)

	logger.Info(ctx, "service_started", "Quote sweeper started", map[string]any{
		"interval_ms": interval.Milliseconds(),
		"max_age_ms":  maxAge.Milliseconds(),
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "graceful_shutdown", "Quote sweeper shut down", map[string]any{
				"counters": counters.Snapshot(),
			})
			return nil
		case <-ticker.C:
			if _, err := svc.ExpireStaleQuotes(ctx, maxAge); err != nil {
				// transient; next tick retries
				logger.Error(ctx, "sweep_failed", "Expiry sweep failed, will retry", err)
			}
		}
	}
}
