package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/DeafMist/tripboard/backend/internal/config"
	"github.com/DeafMist/tripboard/backend/internal/logger"
	"github.com/DeafMist/tripboard/backend/internal/rules"
)

func main() {
	log := logger.New("deployrules")
	cfg, err := config.LoadDeploy()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	code := run(ctx, log, cfg, rules.ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr})
	stop()
	os.Exit(code)
}

func run(ctx context.Context, log *slog.Logger, cfg *config.Deploy, runner rules.Runner) int {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	err := rules.Deploy(ctx, log, rules.Config{
		Source:  cfg.Source,
		Target:  cfg.Target,
		Command: cfg.Command,
	}, runner)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, rules.ErrRulesNotFound):
		log.Error("rules file missing", slog.String("path", cfg.Source))
		return 1
	default:
		log.Error("deploy rules", slog.Any("err", err))
		return 1
	}
}
