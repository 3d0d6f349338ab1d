package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
	"github.com/couchcryptid/runway-config-etl/internal/observability"
	"github.com/couchcryptid/runway-config-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	mu     sync.Mutex
	events []domain.RawEvent
	err    error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, n int) ([]domain.RawEvent, error) {
	m.mu.Lock()
	if m.err != nil {
		err := m.err
		m.err = nil
		m.mu.Unlock()
		return nil, err
	}
	if len(m.events) > 0 {
		if n > len(m.events) {
			n = len(m.events)
		}
		batch := m.events[:n]
		m.events = m.events[n:]
		m.mu.Unlock()
		return batch, nil
	}
	m.mu.Unlock()

	// Block until cancelled to simulate an idle topic.
	<-ctx.Done()
	return nil, ctx.Err()
}

type mockTransformer struct {
	failKey string
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if string(raw.Key) == m.failKey {
		return domain.OutputEvent{}, errors.New("bad advisory")
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type countingTransformer struct {
	calls int
}

func (c *countingTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	c.calls++
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.OutputEvent
	failures int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawAdvisory(t *testing.T, key string, adv domain.RawAdvisory) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(adv)
	require.NoError(t, err)
	return domain.RawEvent{Key: []byte(key), Value: data, Topic: "raw-atis-advisories"}
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := rawAdvisory(t, "KSEA", domain.RawAdvisory{Airport: "KSEA", DATIS: "LANDING RWY 16L"})

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	runFor(t, p, 300*time.Millisecond)

	require.Equal(t, 1, ldr.count())
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, ldr.count())
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_TransformErrorIsSkippedAndCommitted(t *testing.T) {
	var committed []string
	var mu sync.Mutex
	commit := func(key string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			committed = append(committed, key)
			return nil
		}
	}

	bad := domain.RawEvent{Key: []byte("bad"), Value: []byte("not-json{{{"), Commit: commit("bad")}
	good := rawAdvisory(t, "good", domain.RawAdvisory{Airport: "KSEA"})
	good.Commit = commit("good")

	ext := &mockExtractor{events: []domain.RawEvent{bad, good}}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{failKey: "bad"}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	runFor(t, p, 300*time.Millisecond)

	assert.Equal(t, 1, ldr.count())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"bad", "good"}, committed)
}

func TestPipeline_Run_AllTransformsFailNotReady(t *testing.T) {
	bad := domain.RawEvent{Key: []byte("bad")}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{bad}}, &mockTransformer{failKey: "bad"},
		&mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), 10)

	runFor(t, p, 300*time.Millisecond)

	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_RetriesLoadWithSameBatch(t *testing.T) {
	commits := 0
	raw := rawAdvisory(t, "KDEN", domain.RawAdvisory{Airport: "KDEN"})
	raw.Commit = func(context.Context) error { commits++; return nil }

	ext := &mockExtractor{events: []domain.RawEvent{raw}}
	tr := &countingTransformer{}
	ldr := &mockLoader{failures: 2}
	p := pipeline.New(ext, tr, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	// Two failures wait 200ms then 400ms before the third attempt.
	runFor(t, p, time.Second)

	require.Equal(t, 1, ldr.count())
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.Equal(t, 1, tr.calls, "a failed load must not re-run the transform")
	assert.Equal(t, 1, commits)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_StopsWithUnloadedBatch(t *testing.T) {
	commits := 0
	raw := rawAdvisory(t, "KDEN", domain.RawAdvisory{Airport: "KDEN"})
	raw.Commit = func(context.Context) error { commits++; return nil }

	ldr := &mockLoader{failures: 100}
	p := pipeline.New(&mockExtractor{events: []domain.RawEvent{raw}}, &mockTransformer{}, ldr,
		discardLogger(), observability.NewMetricsForTesting(), 10)

	runFor(t, p, 300*time.Millisecond)

	assert.Zero(t, ldr.count())
	assert.Zero(t, commits, "an unloaded batch must stay uncommitted")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_RecoversFromExtractError(t *testing.T) {
	raw := rawAdvisory(t, "KBOS", domain.RawAdvisory{Airport: "KBOS"})
	ext := &mockExtractor{events: []domain.RawEvent{raw}, err: errors.New("rebalance in progress")}
	ldr := &mockLoader{}
	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	runFor(t, p, 600*time.Millisecond)

	assert.Equal(t, 1, ldr.count())
}

func TestPipeline_Run_RespectsBatchSize(t *testing.T) {
	events := make([]domain.RawEvent, 0, 5)
	for _, ap := range []string{"KSEA", "KSFO", "KLAX", "KDEN", "KBOS"} {
		events = append(events, rawAdvisory(t, ap, domain.RawAdvisory{Airport: ap}))
	}
	ldr := &batchRecorder{}
	p := pipeline.New(&mockExtractor{events: events}, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 2)

	runFor(t, p, 300*time.Millisecond)

	assert.Equal(t, []int{2, 2, 1}, ldr.sizes)
}

type batchRecorder struct {
	sizes []int
}

func (b *batchRecorder) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	b.sizes = append(b.sizes, len(events))
	return nil
}
