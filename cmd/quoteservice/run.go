package quoteservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	service "policyflow/internal/app/quoteservice"
	"policyflow/internal/shared/config"
	"policyflow/internal/shared/logger"
	"policyflow/internal/shared/metrics"
	pg "policyflow/internal/shared/postgres"
)

// Run wires the quote service and blocks until ctx is cancelled.
func Run(ctx context.Context, port int, maxConcurrent int) error {
	logger := logger.NewLogger("quote-service")
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

	// repositories, unit of work, counters, and the application service
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

	h := service.NewQuoteHTTPHandler(svc, logger)

	mux := http.NewServeMux()
	h.Register(mux)

	// global concurrency limiter; blocks when capacity is full for natural backpressure
	handler := withConcurrencyLimit(maxConcurrent, mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Quote service started on port %d", port),
		map[string]any{"port": port, "max_concurrent": maxConcurrent},
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		// graceful HTTP shutdown (drain keep-alives / in-flight requests)
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	case err := <-errCh:
		if err != nil {
			logger.Error(ctx, "server_failed", "HTTP server terminated", err)
			return err
		}
	}

	logger.Info(ctx, "graceful_shutdown", "Quote service shut down", map[string]any{
		"counters": counters.Snapshot(),
	})
	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sem <- struct{}{}        // acquire
		defer func() { <-sem }() // release
		next.ServeHTTP(w, r)
	})
}
