//go:build integration

package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/runway-config-etl/internal/adapter/postgres"
	"github.com/couchcryptid/runway-config-etl/internal/domain"
	"github.com/couchcryptid/runway-config-etl/internal/observability"
	"github.com/couchcryptid/runway-config-etl/internal/reconcile"
	"github.com/couchcryptid/runway-config-etl/internal/runway"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var t0 = time.Date(2026, 3, 14, 19, 53, 0, 0, time.UTC)

func startStore(ctx context.Context, t *testing.T, history int) *postgres.PairStore {
	t.Helper()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("runways"),
		tcpostgres.WithUsername("etl"),
		tcpostgres.WithPassword("etl"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := postgres.Open(ctx, dsn, history)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.CreateSchema(ctx))
	require.NoError(t, store.CheckReadiness(ctx))
	return store
}

func TestPairStore_SaveAndRecent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := startStore(ctx, t, 2)

	for i := range 3 {
		e := reconcile.Entry{
			Result: domain.ParseResult{
				Airport:    "KDEN",
				Marker:     domain.MarkerArrival,
				ObservedAt: t0.Add(time.Duration(i) * time.Minute),
				Arrivals:   []string{"17C", "18R"},
				Departures: []string{},
				Flow:       domain.FlowSouth,
				Confidence: 0.7,
			},
			Components: domain.ComponentConfidence{Arrivals: 1},
		}
		require.NoError(t, store.Save(ctx, "KDEN", domain.MarkerArrival, e))
	}

	got, err := store.Recent(ctx, "KDEN", domain.MarkerArrival)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Result.ObservedAt.Equal(t0.Add(2*time.Minute)))
	assert.True(t, got[1].Result.ObservedAt.Equal(t0.Add(time.Minute)))
	if diff := cmp.Diff([]string{"17C", "18R"}, got[0].Result.Arrivals); diff != "" {
		t.Errorf("arrivals mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 1.0, got[0].Components.Arrivals, 1e-9)

	none, err := store.Recent(ctx, "KDEN", domain.MarkerDeparture)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPairStore_BacksReconciler(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := startStore(ctx, t, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	parser := runway.NewParser()

	// Two reconcilers sharing one store behave like two service replicas.
	first := reconcile.New(store, reconcile.DefaultWindow, logger, observability.NewMetricsForTesting())
	second := reconcile.New(store, reconcile.DefaultWindow, logger, observability.NewMetricsForTesting())

	arr := parser.Parse(domain.AdvisoryRecord{Airport: "KDEN", Text: "DEN ARR INFO L 1953Z. LNDG RWY 17C, 18R", ObservedAt: t0})
	dep := parser.Parse(domain.AdvisoryRecord{Airport: "KDEN", Text: "DEN DEP INFO M 1959Z. DEPG RWY 17R", ObservedAt: t0.Add(6 * time.Minute)})

	partial := first.Reconcile(ctx, arr)
	require.True(t, partial.IsIncompletePair)

	cfg := second.Reconcile(ctx, dep)
	assert.True(t, cfg.MergedFromPair)
	assert.Equal(t, []string{"17C", "18R"}, cfg.Arrivals)
	assert.Equal(t, []string{"17R"}, cfg.Departures)
	assert.InDelta(t, 1.0, cfg.Confidence, 1e-9)
}
