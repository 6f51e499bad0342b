package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DeafMist/tripboard/backend/internal/config"
	"github.com/DeafMist/tripboard/backend/internal/elasticsearch"
	"github.com/DeafMist/tripboard/backend/internal/logger"
	"github.com/DeafMist/tripboard/backend/internal/places"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.Collection, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	if cfg.APIKey == "" {
		log.Warn("PLACES_API_KEY not set, photo lookups will fail and feeds will show sample data")
	}
	placesClient := places.New(cfg.BaseURL, cfg.APIKey, cfg.PhotoURLTemplate, cfg.Timeout)

	srv := &server{
		log:    log,
		cfg:    cfg,
		store:  esClient,
		health: esClient,
		photos: placesClient,
		dining: placesClient,
		media:  placesClient,
	}

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}
