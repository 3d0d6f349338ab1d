package runway

import (
	"math"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
)

// Score constants.
const (
	PartialBase       = 0.6
	VerbatimBonus     = 0.1
	AmbiguousCeiling  = 0.95
	InconsistentLimit = 0.3

	// SplitComponentBase is the component confidence of a split broadcast
	// whose marker agrees with the direction it populated.
	SplitComponentBase = 0.9
)

// Specificity is the base score for a fully populated extraction, by the
// kind of rule that produced it.
var Specificity = map[RuleKind]float64{
	KindNamedProcedure:   0.9,
	KindExplicitCombined: 0.85,
	KindApproachType:     0.8,
	KindGenericCombined:  0.75,
	KindTrailingKeyword:  0.7,
	KindDirectionKeyword: 0.7,
}

type scoreState struct {
	ex         Extraction
	validation domain.ValidationOutcome
	kinds      []RuleKind
	score      float64
}

// PolicyRow is one step of the scoring policy. Rows run in order; a row
// returning true ends evaluation.
type PolicyRow struct {
	Name  string
	apply func(*scoreState) bool
}

// ScorePolicy is the ordered confidence policy.
var ScorePolicy = []PolicyRow{
	{Name: "no_rule_matched", apply: func(s *scoreState) bool {
		if len(s.ex.Hits) == 0 {
			s.score = 0
			return true
		}
		return false
	}},
	{Name: "partial_broadcast", apply: func(s *scoreState) bool {
		if (len(s.ex.Arrivals) == 0) != (len(s.ex.Departures) == 0) {
			s.score = PartialBase
		}
		return false
	}},
	{Name: "rule_specificity", apply: func(s *scoreState) bool {
		if len(s.ex.Arrivals) > 0 && len(s.ex.Departures) > 0 {
			for _, k := range s.kinds {
				s.score = math.Max(s.score, Specificity[k])
			}
		}
		return false
	}},
	{Name: "verbatim_keyword", apply: func(s *scoreState) bool {
		for _, h := range s.ex.Hits {
			if h.Verbatim {
				s.score += VerbatimBonus
				break
			}
		}
		return false
	}},
	{Name: "ambiguous_category", apply: func(s *scoreState) bool {
		if s.score >= 1.0 && hasKind(s.kinds, KindGenericCombined) {
			s.score = AmbiguousCeiling
		}
		return false
	}},
	{Name: "clamp", apply: func(s *scoreState) bool {
		s.score = round2(math.Min(math.Max(s.score, 0), 1))
		return false
	}},
	{Name: "inconsistent_extraction", apply: func(s *scoreState) bool {
		if !s.validation.Consistent() {
			s.score = math.Min(s.score, InconsistentLimit)
		}
		return true
	}},
}

// Score applies ScorePolicy using the default rule table.
func Score(ex Extraction, v domain.ValidationOutcome) float64 {
	return defaultRuleSet.Score(ex, v)
}

// Score applies ScorePolicy, resolving rule kinds from this rule set.
func (rs *RuleSet) Score(ex Extraction, v domain.ValidationOutcome) float64 {
	s := &scoreState{ex: ex, validation: v}
	for _, h := range ex.Hits {
		if r, ok := rs.byID[h.RuleID]; ok {
			s.kinds = append(s.kinds, r.Kind)
		}
	}
	for _, row := range ScorePolicy {
		if row.apply(s) {
			break
		}
	}
	return s.score
}

// ComponentScore is the confidence each direction of a split broadcast
// contributes to a merged pair. Unsplit broadcasts contribute their overall
// confidence to every populated direction.
func ComponentScore(r domain.ParseResult) domain.ComponentConfidence {
	var c domain.ComponentConfidence
	switch r.Marker {
	case domain.MarkerArrival:
		if len(r.Arrivals) > 0 {
			c.Arrivals = splitComponent(r.ArrivalVerbatim)
		}
	case domain.MarkerDeparture:
		if len(r.Departures) > 0 {
			c.Departures = splitComponent(r.DepartureVerbatim)
		}
	default:
		if len(r.Arrivals) > 0 {
			c.Arrivals = r.Confidence
		}
		if len(r.Departures) > 0 {
			c.Departures = r.Confidence
		}
	}
	if !r.Validation.Consistent() {
		c.Arrivals = math.Min(c.Arrivals, InconsistentLimit)
		c.Departures = math.Min(c.Departures, InconsistentLimit)
	}
	return c
}

// PairScore is the confidence of a configuration merged from two split
// broadcasts: 1.0 only when both components are 1.0, otherwise the weaker
// component, capped when the merged union is inconsistent.
func PairScore(c domain.ComponentConfidence, v domain.ValidationOutcome) float64 {
	score := math.Min(c.Arrivals, c.Departures)
	if c.Arrivals == 1 && c.Departures == 1 {
		score = 1
	}
	if !v.Consistent() {
		score = math.Min(score, InconsistentLimit)
	}
	return round2(score)
}

func splitComponent(verbatim bool) float64 {
	if verbatim {
		return round2(SplitComponentBase + VerbatimBonus)
	}
	return SplitComponentBase
}

func hasKind(kinds []RuleKind, k RuleKind) bool {
	for _, have := range kinds {
		if have == k {
			return true
		}
	}
	return false
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
