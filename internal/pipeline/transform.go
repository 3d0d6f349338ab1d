package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
	"github.com/couchcryptid/runway-config-etl/internal/observability"
	"github.com/couchcryptid/runway-config-etl/internal/reconcile"
	"github.com/couchcryptid/runway-config-etl/internal/runway"
)

// Parse outcomes, used as metric labels.
const (
	outcomeMatched   = "matched"
	outcomeUnmatched = "unmatched"
	outcomeInvalid   = "invalid"
)

// AdvisoryTransformer implements Transformer: it decodes an advisory, infers
// the runway configuration and reconciles split broadcasts.
type AdvisoryTransformer struct {
	parser     *runway.Parser
	reconciler *reconcile.Reconciler
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewTransformer creates an AdvisoryTransformer.
func NewTransformer(parser *runway.Parser, reconciler *reconcile.Reconciler, logger *slog.Logger, metrics *observability.Metrics) *AdvisoryTransformer {
	return &AdvisoryTransformer{
		parser:     parser,
		reconciler: reconciler,
		logger:     logger,
		metrics:    metrics,
	}
}

func (t *AdvisoryTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	rec, err := domain.ParseRawEvent(raw)
	if err != nil {
		t.metrics.AdvisoriesParsed.WithLabelValues(outcomeInvalid).Inc()
		return domain.OutputEvent{}, err
	}
	return domain.SerializeConfiguration(t.Process(ctx, rec))
}

// Process runs one validated advisory through parsing, reconciliation and
// review routing.
func (t *AdvisoryTransformer) Process(ctx context.Context, rec domain.AdvisoryRecord) domain.RunwayConfiguration {
	result := t.parser.Parse(rec)

	outcome := outcomeUnmatched
	if len(result.MatchedRules) > 0 {
		outcome = outcomeMatched
	}
	t.metrics.AdvisoriesParsed.WithLabelValues(outcome).Inc()
	for _, hit := range result.MatchedRules {
		t.metrics.RuleMatches.WithLabelValues(hit.RuleID).Inc()
	}

	cfg := t.reconciler.Reconcile(ctx, result)
	validation := runway.Validate(cfg.Arrivals, cfg.Departures)
	cfg = domain.Finalize(cfg, len(validation.Malformed) > 0)

	t.metrics.ParseConfidence.Observe(cfg.Confidence)
	if cfg.HasReciprocalConflict {
		t.metrics.ReciprocalConflicts.Inc()
	}

	if cfg.NeedsReview {
		t.logger.Info("configuration needs review",
			"airport", cfg.Airport,
			"info_letter", cfg.InfoLetter,
			"review_reason", cfg.ReviewReason,
			"confidence", cfg.Confidence,
			"malformed", validation.Malformed,
		)
	} else {
		t.logger.Debug("configuration inferred",
			"airport", cfg.Airport,
			"info_letter", cfg.InfoLetter,
			"flow", cfg.Flow,
			"confidence", cfg.Confidence,
			"merged_from_pair", cfg.MergedFromPair,
		)
	}
	return cfg
}
