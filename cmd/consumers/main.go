package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matinee/cmd/consumers/jobs"
	"matinee/internal/config"
	"matinee/internal/consumers"
	"matinee/internal/logger"
)

func main() {
	cfg := config.Load()
	cfg.NATS.ClientID = "matinee-consumers"
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting consumers service...")

	consumerService, err := consumers.NewConsumerService(cfg)
	if err != nil {
		logger.Fatal("Failed to create consumer service", "error", err)
	}

	if err := consumerService.Start(); err != nil {
		logger.Fatal("Failed to start consumers", "error", err)
	}

	sweeper := jobs.NewHoldSweeper(
		consumerService.Repos().Holds,
		consumerService.NATS(),
		cfg.Reservation.SweepInterval,
		cfg.Reservation.Retention,
	)
	sweeper.Start(context.Background())

	slog.Info("Consumers service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down consumers service...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := consumerService.Shutdown(ctx); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}

	slog.Info("Consumers service stopped")
}
