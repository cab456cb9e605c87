package worker

import (
	"context"
	"os"
	"time"

	"github.com/jwalitptl/medrec-api/internal/repository"
	"github.com/jwalitptl/medrec-api/pkg/logger"
	"github.com/jwalitptl/medrec-api/pkg/messaging"
	"github.com/jwalitptl/medrec-api/pkg/metrics"
)

type JunkFileWorkerConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// JunkFileWorker drains the junk-file queue: it removes each queued
// path from disk and then drops the queue row. A path that is already
// gone counts as cleaned.
type JunkFileWorker struct {
	repo    repository.JunkFileRepository
	broker  messaging.Broker
	config  JunkFileWorkerConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewJunkFileWorker(
	repo repository.JunkFileRepository,
	broker messaging.Broker,
	config JunkFileWorkerConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *JunkFileWorker {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}

	return &JunkFileWorker{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (w *JunkFileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.logger.Info("starting junk-file worker")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down junk-file worker")
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error(err, "failed to process junk-file batch")
			}
		}
	}
}

func (w *JunkFileWorker) processBatch(ctx context.Context) error {
	start := time.Now()
	files, err := w.repo.ListPending(ctx, w.config.BatchSize)
	if err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.JunkQueueBacklog.Set(float64(len(files)))
	}
	if len(files) == 0 {
		return nil
	}

	for _, file := range files {
		if err := w.clean(ctx, file.FullPath); err != nil {
			if w.metrics != nil {
				w.metrics.JunkFilesFailed.Inc()
			}
			w.logger.Error(err, "failed to clean junk file", "path", file.FullPath)
			continue
		}
		if err := w.repo.Remove(ctx, file.ID); err != nil {
			w.logger.Error(err, "failed to dequeue junk file", "path", file.FullPath)
			continue
		}
		if w.metrics != nil {
			w.metrics.JunkFilesCleaned.Inc()
		}
		w.publish(ctx, file.FullPath)
	}

	if w.metrics != nil {
		w.metrics.CleanupDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

func (w *JunkFileWorker) clean(ctx context.Context, path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (w *JunkFileWorker) publish(ctx context.Context, path string) {
	if w.broker == nil {
		return
	}
	msg := messaging.Message{Type: "junkfile.cleaned", Payload: path}
	if err := w.broker.Publish(ctx, "junkfiles", msg); err != nil {
		w.logger.Error(err, "failed to publish cleanup event", "path", path)
	}
}
