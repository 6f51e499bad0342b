package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeafMist/tripboard/backend/internal/config"
	"github.com/DeafMist/tripboard/backend/internal/elasticsearch"
	"github.com/DeafMist/tripboard/backend/internal/logger"
)

const (
	publicField  = "isPublic"
	updatedField = "updatedAt"
)

type draftPruner interface {
	DeleteStaleDrafts(ctx context.Context, collection, publicField, updatedField string, maxAge time.Duration, batchSize int) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	log := logger.New("retention")
	cfg, err := config.LoadRetention()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.Collection, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	if err := waitForStore(ctx, log, esClient, 10, 2*time.Second, 30*time.Second); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("shutdown signal received during startup")
			os.Exit(0)
		}
		log.Error("failed to connect to elasticsearch after retries", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("connected to elasticsearch")

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("retention job running",
		slog.String("collection", cfg.Collection),
		slog.Duration("interval", cfg.Interval),
		slog.Duration("max_age", cfg.MaxAge),
	)

	runOnce(ctx, log, esClient, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runOnce(ctx, log, esClient, cfg)
		}
	}
}

// waitForStore pings until the store answers, doubling the delay up to maxDelay.
func waitForStore(ctx context.Context, log *slog.Logger, p pinger, attempts int, delay, maxDelay time.Duration) error {
	var lastErr error
	for i := range attempts {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		lastErr = p.Ping(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		log.Warn("elasticsearch ping failed, retrying",
			slog.Any("err", lastErr),
			slog.Int("attempt", i+1),
			slog.Int("max_retries", attempts),
			slog.Duration("retry_in", delay),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = min(delay*2, maxDelay)
	}
	return lastErr
}

func runOnce(ctx context.Context, log *slog.Logger, store draftPruner, cfg *config.Retention) {
	subCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	deleted, err := store.DeleteStaleDrafts(subCtx, cfg.Collection, publicField, updatedField, cfg.MaxAge, cfg.BatchSize)
	if err != nil {
		log.Warn("retention run failed (will retry on next interval)", slog.Any("err", err))
		return
	}

	if deleted > 0 {
		log.Info("stale drafts removed", slog.Int64("deleted", deleted))
	} else {
		log.Debug("retention run completed, no stale drafts found")
	}
}
