// Package reconcile pairs split arrival-only and departure-only broadcasts
// for the same airport into one runway configuration.
package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
	"github.com/couchcryptid/runway-config-etl/internal/observability"
	"github.com/couchcryptid/runway-config-etl/internal/runway"
)

// DefaultWindow is the largest gap between two split broadcasts that still
// pair.
const DefaultWindow = 15 * time.Minute

// Pairing outcomes, used as metric labels.
const (
	OutcomeMerged     = "merged"
	OutcomeIncomplete = "incomplete"
	OutcomeUnsplit    = "unsplit"
)

// Reconciler turns parse results into runway configurations, merging split
// broadcasts with a recent partner of the opposite marker.
type Reconciler struct {
	store   PairStore
	window  time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
	locks   keyedMutex
}

// New creates a Reconciler. A non-positive window uses DefaultWindow.
func New(store PairStore, window time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Reconciler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Reconciler{
		store:   store,
		window:  window,
		logger:  logger,
		metrics: metrics,
	}
}

// Reconcile emits the configuration for one parse result. It never blocks
// waiting for a partner and never fails: store errors are logged and the
// result is emitted unmerged.
func (r *Reconciler) Reconcile(ctx context.Context, res domain.ParseResult) domain.RunwayConfiguration {
	if !isSplit(res) {
		r.metrics.PairOutcomes.WithLabelValues(OutcomeUnsplit).Inc()
		return domain.NewConfiguration(res)
	}

	// Lookup and update must be atomic per airport so two broadcasts cannot
	// both pair with the same partner.
	unlock := r.locks.lock(res.Airport)
	defer unlock()

	own := runway.ComponentScore(res)
	partner, ok := r.findPartner(ctx, res)
	if !ok {
		cfg := domain.NewConfiguration(res)
		cfg.IsIncompletePair = true
		cfg.ComponentConfidence = own
		r.save(ctx, res.Marker, Entry{Result: res, Components: own})
		r.metrics.PairOutcomes.WithLabelValues(OutcomeIncomplete).Inc()
		return cfg
	}

	merged, components := merge(res, own, partner)
	cfg := domain.NewConfiguration(merged)
	cfg.MergedFromPair = true
	cfg.ComponentConfidence = components

	stored := Entry{Result: merged, Components: components}
	r.save(ctx, domain.MarkerArrival, stored)
	r.save(ctx, domain.MarkerDeparture, stored)
	r.metrics.PairOutcomes.WithLabelValues(OutcomeMerged).Inc()

	r.logger.Debug("split broadcasts merged",
		"airport", res.Airport,
		"info_letter", res.InfoLetter,
		"partner_observed_at", partner.Result.ObservedAt,
		"gap", absDuration(res.ObservedAt.Sub(partner.Result.ObservedAt)),
	)
	return cfg
}

// isSplit reports whether res is a marked broadcast that populated only the
// direction its marker names.
func isSplit(res domain.ParseResult) bool {
	switch res.Marker {
	case domain.MarkerArrival:
		return len(res.Arrivals) > 0 && len(res.Departures) == 0
	case domain.MarkerDeparture:
		return len(res.Departures) > 0 && len(res.Arrivals) == 0
	default:
		return false
	}
}

// findPartner returns the stored opposite-marker entry closest in time to
// res that lies within the window and supplies the missing direction.
func (r *Reconciler) findPartner(ctx context.Context, res domain.ParseResult) (Entry, bool) {
	candidates, err := r.store.Recent(ctx, res.Airport, res.Marker.Opposite())
	if err != nil {
		r.metrics.PairStoreErrors.Inc()
		r.logger.Warn("pair store lookup failed", "airport", res.Airport, "error", err)
		return Entry{}, false
	}

	var best Entry
	bestGap := time.Duration(-1)
	for _, c := range candidates {
		if !supplies(c.Result, res.Marker.Opposite()) {
			continue
		}
		gap := absDuration(res.ObservedAt.Sub(c.Result.ObservedAt))
		if gap > r.window {
			continue
		}
		if bestGap < 0 || gap < bestGap {
			best, bestGap = c, gap
		}
	}
	return best, bestGap >= 0
}

// supplies reports whether stored carries runways for the direction marker
// names.
func supplies(stored domain.ParseResult, marker domain.Marker) bool {
	if marker == domain.MarkerArrival {
		return len(stored.Arrivals) > 0
	}
	return len(stored.Departures) > 0
}

func (r *Reconciler) save(ctx context.Context, marker domain.Marker, e Entry) {
	if err := r.store.Save(ctx, e.Result.Airport, marker, e); err != nil {
		r.metrics.PairStoreErrors.Inc()
		r.logger.Warn("pair store save failed", "airport", e.Result.Airport, "marker", marker, "error", err)
	}
}

// merge takes each direction from the broadcast that supplied it and
// recomputes everything derived from the union.
func merge(res domain.ParseResult, own domain.ComponentConfidence, partner Entry) (domain.ParseResult, domain.ComponentConfidence) {
	merged := res
	components := own
	var borrowed []domain.RuleHit

	if res.Marker == domain.MarkerArrival {
		merged.Departures = partner.Result.Departures
		merged.DepartureVerbatim = partner.Result.DepartureVerbatim
		components.Departures = partner.Components.Departures
		for _, h := range partner.Result.MatchedRules {
			if h.Category.FeedsDepartures() {
				borrowed = append(borrowed, h)
			}
		}
	} else {
		merged.Arrivals = partner.Result.Arrivals
		merged.ArrivalVerbatim = partner.Result.ArrivalVerbatim
		components.Arrivals = partner.Components.Arrivals
		for _, h := range partner.Result.MatchedRules {
			if h.Category.FeedsArrivals() {
				borrowed = append(borrowed, h)
			}
		}
	}
	merged.MatchedRules = append(append([]domain.RuleHit(nil), res.MatchedRules...), borrowed...)

	merged.Validation = runway.Validate(merged.Arrivals, merged.Departures)
	merged.Flow = runway.DetermineFlow(merged.Arrivals, merged.Departures)
	merged.ConfigurationName = runway.ConfigurationName(merged.Airport, merged.Arrivals, merged.Departures)
	merged.Confidence = runway.PairScore(components, merged.Validation)
	if !merged.Validation.Consistent() {
		components.Arrivals = min(components.Arrivals, runway.InconsistentLimit)
		components.Departures = min(components.Departures, runway.InconsistentLimit)
	}
	return merged, components
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// keyedMutex serializes work per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
