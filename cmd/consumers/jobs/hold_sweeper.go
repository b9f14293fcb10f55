package jobs

import (
	"context"
	"log/slog"
	"time"

	"matinee/internal/messaging"
	"matinee/internal/models"
	"matinee/internal/repository"
)

// HoldSweeper periodically flips overdue ACTIVE holds to EXPIRED and
// purges terminal rows past the retention window. Occupancy counting
// is lazy and never waits for the sweeper; this job exists purely for
// storage hygiene and the audit trail.
type HoldSweeper struct {
	holdRepo   *repository.HoldRepository
	natsClient *messaging.NATSClient
	interval   time.Duration
	retention  time.Duration
	ticker     *time.Ticker
	done       chan bool
}

func NewHoldSweeper(holdRepo *repository.HoldRepository, natsClient *messaging.NATSClient, interval, retention time.Duration) *HoldSweeper {
	return &HoldSweeper{
		holdRepo:   holdRepo,
		natsClient: natsClient,
		interval:   interval,
		retention:  retention,
		done:       make(chan bool),
	}
}

func (j *HoldSweeper) Start(ctx context.Context) {
	slog.Info("Starting hold sweeper", "interval", j.interval, "retention", j.retention)

	j.ticker = time.NewTicker(j.interval)

	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweep(ctx)
			case <-j.done:
				slog.Info("Hold sweeper stopped")
				return
			}
		}
	}()
}

func (j *HoldSweeper) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *HoldSweeper) sweep(ctx context.Context) {
	expired, err := j.holdRepo.MarkExpired(ctx)
	if err != nil {
		slog.Error("Failed to expire overdue holds", "error", err)
		return
	}

	if expired > 0 {
		slog.Info("Expired overdue holds", "count", expired)
		if j.natsClient != nil {
			event := models.HoldsExpiredEvent{Count: expired, Timestamp: time.Now()}
			if err := j.natsClient.Publish(models.EventHoldsExpired, event); err != nil {
				slog.Error("Failed to publish holds expired event", "error", err)
			}
		}
	}

	purged, err := j.holdRepo.PurgeTerminal(ctx, time.Now().Add(-j.retention))
	if err != nil {
		slog.Error("Failed to purge terminal holds", "error", err)
		return
	}
	if purged > 0 {
		slog.Info("Purged terminal holds", "count", purged)
	}
}
