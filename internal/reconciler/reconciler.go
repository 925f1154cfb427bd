// Package reconciler periodically re-reads tasks the store still considers
// in flight. Webhook delivery is at-least-once but not guaranteed: a missed
// terminal event would otherwise leave a task open in the store forever.
package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	humanrail "github.com/prime001/humanrail-sdk"
	"github.com/prime001/humanrail-sdk/internal/eventstore"
)

// TaskFetcher reads the authoritative task state from the API.
type TaskFetcher interface {
	GetTask(ctx context.Context, taskID string) (*humanrail.Task, error)
}

// Reconciler sweeps non-terminal tasks on a cron schedule.
type Reconciler struct {
	fetcher   TaskFetcher
	store     eventstore.Store
	log       *slog.Logger
	batchSize int

	cron    *cron.Cron
	running sync.Mutex
}

// New creates a Reconciler. The logger must not be nil.
func New(fetcher TaskFetcher, store eventstore.Store, batchSize int, log *slog.Logger) *Reconciler {
	return &Reconciler{
		fetcher:   fetcher,
		store:     store,
		log:       log,
		batchSize: batchSize,
	}
}

// cronLogger adapts cron's logger interface to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, pairAttrs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	attrs := append([]slog.Attr{slog.Any("error", err)}, pairAttrs(keysAndValues)...)
	l.logger.LogAttrs(context.Background(), slog.LevelError, msg, attrs...)
}

func pairAttrs(keysAndValues []interface{}) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, keysAndValues[i+1]))
	}
	return attrs
}

// Start schedules sweeps with the given cron spec (standard 5-field format).
func (r *Reconciler) Start(ctx context.Context, spec string) error {
	r.cron = cron.New(cron.WithLogger(cronLogger{logger: r.log}))
	_, err := r.cron.AddFunc(spec, func() {
		// Overlapping sweeps would double-fetch the same batch.
		if !r.running.TryLock() {
			r.log.Debug("sweep already running, skipping")
			return
		}
		defer r.running.Unlock()

		sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if err := r.Sweep(sweepCtx); err != nil {
			r.log.Error("sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (r *Reconciler) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	r.running.Lock()
	r.running.Unlock()
}

// Sweep re-reads one batch of non-terminal tasks and stores the result.
// Tasks the API no longer knows are dropped from the store.
func (r *Reconciler) Sweep(ctx context.Context) error {
	ids, err := r.store.ListNonTerminal(ctx, r.batchSize)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	r.log.Debug("sweeping tasks", "count", len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		task, err := r.fetcher.GetTask(ctx, id)
		if err != nil {
			if humanrail.IsTaskNotFound(err) {
				r.log.Warn("task gone from api, dropping", "task_id", id)
				if err := r.store.DeleteTask(ctx, id); err != nil {
					return err
				}
				continue
			}
			// Transient API failures leave the task for the next sweep.
			r.log.Warn("task fetch failed", "task_id", id, "error", err)
			continue
		}

		if err := r.store.UpsertTask(ctx, task); err != nil {
			return err
		}
		if task.Status.IsTerminal() {
			r.log.Info("task reached terminal state", "task_id", id, "status", string(task.Status))
		}
	}
	return nil
}
