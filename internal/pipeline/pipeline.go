package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
	"github.com/couchcryptid/runway-config-etl/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw advisory into a serialized runway configuration.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error)
}

// BatchLoader writes multiple output events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Pipeline orchestrates the extract-transform-load loop.
//
// Transforming an advisory updates split broadcast state, so a transformed
// batch is never re-derived: a failed load is retried with the same events
// until it succeeds or the pipeline stops.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once a batch has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	b := &backoff{}
	for ctx.Err() == nil {
		if !p.processBatch(ctx, b) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// processBatch runs one extract-transform-load cycle. Returns false if the
// pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, b *backoff) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return b.wait(ctx)
	}
	b.reset()

	if len(rawBatch) == 0 {
		return true
	}
	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))

	outBatch, transformed := p.transform(ctx, rawBatch)
	if len(outBatch) == 0 {
		return true
	}

	if !p.load(ctx, outBatch, b) {
		return false
	}
	for _, raw := range transformed {
		p.commitOffset(ctx, raw)
	}

	p.metrics.MessagesProduced.Add(float64(len(outBatch)))
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Debug("batch loaded",
		"batch_size", len(outBatch),
		"skipped", len(rawBatch)-len(outBatch),
		"duration", time.Since(start),
	)
	return true
}

// transform converts each message, committing and skipping the ones that
// fail. It returns the output events and the raw events they came from.
func (p *Pipeline) transform(ctx context.Context, rawBatch []domain.RawEvent) ([]domain.OutputEvent, []domain.RawEvent) {
	out := make([]domain.OutputEvent, 0, len(rawBatch))
	ok := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		event, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			level := slog.LevelError
			if errors.Is(err, domain.ErrInvalidInput) {
				level = slog.LevelWarn
			}
			p.logger.Log(ctx, level, "transform failed, skipping message",
				"error", err,
				"key", string(raw.Key),
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		out = append(out, event)
		ok = append(ok, raw)
	}
	return out, ok
}

// load writes the batch, retrying with backoff. Returns false if the
// pipeline stopped before the batch was written.
func (p *Pipeline) load(ctx context.Context, events []domain.OutputEvent, b *backoff) bool {
	for attempt := 1; ; attempt++ {
		err := p.loader.LoadBatch(ctx, events)
		if err == nil {
			b.reset()
			return true
		}
		if ctx.Err() != nil {
			p.logger.Warn("pipeline stopped with unloaded batch", "batch_size", len(events))
			return false
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(events), "attempt", attempt)
		if !b.wait(ctx) {
			return false
		}
	}
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// backoff is an exponential delay doubling from initialBackoff up to
// maxBackoff. The zero value is ready to use.
type backoff struct {
	current time.Duration
}

func (b *backoff) reset() { b.current = 0 }

// wait sleeps for the current delay and advances it. Returns false if the
// context ends first.
func (b *backoff) wait(ctx context.Context) bool {
	if b.current == 0 {
		b.current = initialBackoff
	}
	d := b.current
	b.current = retry.NextBackoff(b.current, maxBackoff)
	return retry.SleepWithContext(ctx, d)
}
