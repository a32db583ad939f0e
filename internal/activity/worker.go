package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskdeck/taskdeck/internal/metrics"
	"github.com/taskdeck/taskdeck/internal/model"
)

const (
	// ConsumerGroup is the Redis consumer group name.
	ConsumerGroup = "activity_workers"

	// DefaultBatchSize is the max events per batch.
	DefaultBatchSize = 200

	// DefaultBlockTimeout is how long to block waiting for messages.
	DefaultBlockTimeout = 5 * time.Second

	// DefaultMaxRetries is the max retries for batch persistence.
	DefaultMaxRetries = 3
)

// Repository defines the interface for activity event persistence.
type Repository interface {
	BulkInsertActivity(ctx context.Context, events []*model.ActivityEvent) error
}

// Worker consumes activity events from the Redis stream and batch-inserts
// them into Postgres.
type Worker struct {
	redis        *redis.Client
	repo         Repository
	logger       *slog.Logger
	metrics      metrics.Recorder
	consumerID   string
	batchSize    int
	blockTimeout time.Duration
	maxRetries   int

	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// NewWorker creates a new activity worker.
func NewWorker(client *redis.Client, repo Repository, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		redis:        client,
		repo:         repo,
		logger:       logger.With("component", "activity.worker", "consumer_id", consumerID),
		metrics:      recorder,
		consumerID:   consumerID,
		batchSize:    DefaultBatchSize,
		blockTimeout: DefaultBlockTimeout,
		maxRetries:   DefaultMaxRetries,
	}
}

// Run starts the worker loop. Blocks until the context is cancelled
// or Shutdown is called.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	defer close(w.done)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	w.logger.Info("activity worker started")

	for {
		w.mu.Lock()
		draining := w.draining
		w.mu.Unlock()

		if draining {
			w.logger.Info("activity worker draining, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			w.logger.Info("activity worker stopping")
			return ctx.Err()
		default:
			if err := w.processOnce(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				w.logger.Error("process error", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Shutdown gracefully stops the worker, completing any in-flight batch.
// It implements server.ShutdownFunc for integration with graceful shutdown.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.draining = true
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		// Drain window elapsed, force stop
		if cancel != nil {
			cancel()
		}
		<-done
		return ctx.Err()
	}
}

// ensureConsumerGroup creates the consumer group if it does not exist.
func (w *Worker) ensureConsumerGroup(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// processOnce reads one batch from the stream and persists it.
func (w *Worker) processOnce(ctx context.Context) error {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.batchSize),
		Block:    w.blockTimeout,
	}).Result()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			// No new messages within the block window
			return nil
		}
		return fmt.Errorf("xreadgroup: %w", err)
	}

	for _, stream := range streams {
		if len(stream.Messages) == 0 {
			continue
		}
		if err := w.processBatch(ctx, stream.Messages); err != nil {
			return err
		}
	}

	return nil
}

// processBatch decodes, persists and acknowledges a batch of messages.
// Undecodable messages are acked and counted as failed so they do not
// poison the stream.
func (w *Worker) processBatch(ctx context.Context, messages []redis.XMessage) error {
	start := time.Now()

	events := make([]*model.ActivityEvent, 0, len(messages))
	ids := make([]string, 0, len(messages))

	for _, msg := range messages {
		ids = append(ids, msg.ID)

		raw, ok := msg.Values["payload"].(string)
		if !ok {
			w.metrics.IncActivityEventProcessed("failed")
			continue
		}

		event, err := decodePayload(raw)
		if err != nil {
			w.logger.Warn("skipping undecodable activity event", "stream_id", msg.ID, "error", err)
			w.metrics.IncActivityEventProcessed("failed")
			continue
		}

		events = append(events, event)
	}

	if len(events) > 0 {
		if err := w.insertWithRetry(ctx, events); err != nil {
			return err
		}
	}

	if err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}

	for range events {
		w.metrics.IncActivityEventProcessed("success")
	}
	w.metrics.ObserveActivityBatchSize(len(events))
	w.metrics.ObserveActivityBatchDuration(time.Since(start))

	w.logger.Debug("activity batch persisted",
		"batch_size", len(events),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// insertWithRetry retries transient database failures with a short backoff.
// The batch is left unacked if all retries fail so another consumer can claim it.
func (w *Worker) insertWithRetry(ctx context.Context, events []*model.ActivityEvent) error {
	var lastErr error

	for attempt := 0; attempt < w.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		if err := w.repo.BulkInsertActivity(ctx, events); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("insert activity batch after %d attempts: %w", w.maxRetries, lastErr)
}
