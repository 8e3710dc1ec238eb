// Package bulk runs a per-recipient action over a list with a fixed batch
// size and concurrency ceiling. One item's failure never affects another.
package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/amesa-systems/amesa-notify/common/logging"
	"github.com/amesa-systems/amesa-notify/notify/internal/metrics"
)

type Options struct {
	MaxItems       int           `mapstructure:"max_items"`
	BatchSize      int           `mapstructure:"batch_size"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	ItemTimeout    time.Duration `mapstructure:"item_timeout"`
}

func DefaultOptions() Options {
	return Options{
		MaxItems:       10000,
		BatchSize:      100,
		MaxConcurrency: 10,
		ItemTimeout:    10 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxItems <= 0 {
		o.MaxItems = d.MaxItems
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.MaxConcurrency <= 0 {
		o.MaxConcurrency = d.MaxConcurrency
	}
	if o.ItemTimeout <= 0 {
		o.ItemTimeout = d.ItemTimeout
	}
	return o
}

// Report summarizes one dispatch.
type Report struct {
	Name      string `json:"name"`
	Total     int    `json:"total"`
	Dropped   int    `json:"dropped"`
	Attempted int    `json:"attempted"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Canceled  bool   `json:"canceled"`
}

type Dispatcher struct {
	opts   Options
	logger *logging.Logger
}

func New(opts Options, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{opts: opts.withDefaults(), logger: logger}
}

// Options returns the effective options.
func (d *Dispatcher) Options() Options { return d.opts }

// Dispatch runs action for each item. Batches run one after another; inside
// a batch at most MaxConcurrency actions run at once, each under its own
// ItemTimeout. Errors and panics are logged with the item and counted.
// The returned error is non-nil only when ctx ends before every item was
// scheduled.
func Dispatch[T any](ctx context.Context, d *Dispatcher, name string, items []T, action func(ctx context.Context, item T) error) (Report, error) {
	start := time.Now()
	report := Report{Name: name, Total: len(items)}

	if len(items) > d.opts.MaxItems {
		report.Dropped = len(items) - d.opts.MaxItems
		d.logger.WarnContext(ctx, "bulk dispatch exceeds max items, dropping excess",
			slog.String("dispatch", name), logging.Count(len(items)),
			slog.Int("max_items", d.opts.MaxItems), slog.Int("dropped", report.Dropped))
		metrics.BulkItems.WithLabelValues("dropped").Add(float64(report.Dropped))
		items = items[:d.opts.MaxItems]
	}

	var (
		sem       = semaphore.NewWeighted(int64(d.opts.MaxConcurrency))
		succeeded atomic.Int64
		failed    atomic.Int64
		dispErr   error
	)

batches:
	for offset := 0; offset < len(items); offset += d.opts.BatchSize {
		end := offset + d.opts.BatchSize
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for _, item := range items[offset:end] {
			if err := ctx.Err(); err != nil {
				wg.Wait()
				dispErr = err
				break batches
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				dispErr = err
				break batches
			}
			report.Attempted++

			wg.Add(1)
			go func(item T) {
				defer wg.Done()
				defer sem.Release(1)

				if err := runItem(ctx, d, name, item, action); err != nil {
					failed.Add(1)
					return
				}
				succeeded.Add(1)
			}(item)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil && end < len(items) {
			dispErr = err
			break
		}
	}

	report.Succeeded = int(succeeded.Load())
	report.Failed = int(failed.Load())
	metrics.BulkItems.WithLabelValues(metrics.ResultSuccess).Add(float64(report.Succeeded))
	metrics.BulkItems.WithLabelValues(metrics.ResultFailure).Add(float64(report.Failed))
	metrics.BulkDuration.Observe(time.Since(start).Seconds())

	if dispErr != nil {
		report.Canceled = true
		d.logger.WarnContext(ctx, "bulk dispatch canceled before completion",
			slog.String("dispatch", name), slog.Int("attempted", report.Attempted),
			logging.Count(len(items)), logging.Error(dispErr))
		return report, fmt.Errorf("bulk dispatch %s canceled after %d of %d items: %w",
			name, report.Attempted, len(items), dispErr)
	}

	d.logger.InfoContext(ctx, "bulk dispatch completed",
		slog.String("dispatch", name), logging.Count(len(items)),
		slog.Int("succeeded", report.Succeeded), slog.Int("failed", report.Failed),
		logging.Duration(time.Since(start)))

	return report, nil
}

func runItem[T any](ctx context.Context, d *Dispatcher, name string, item T, action func(ctx context.Context, item T) error) (err error) {
	itemCtx, cancel := context.WithTimeout(ctx, d.opts.ItemTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			d.logger.ErrorContext(ctx, "bulk item panicked",
				slog.String("dispatch", name), slog.Any("item", item), slog.Any("panic", p))
		}
	}()

	if err = action(itemCtx, item); err != nil {
		d.logger.ErrorContext(ctx, "bulk item failed",
			slog.String("dispatch", name), slog.Any("item", item), logging.Error(err))
	}
	return err
}
