package runway

import (
	"github.com/couchcryptid/runway-config-etl/internal/domain"
)

// Parser turns advisories into parse results. It holds no mutable state and
// is safe for concurrent use.
type Parser struct {
	rules     *RuleSet
	byAirport map[string]*RuleSet
	fallback  *RuleSet
}

// NewParser creates a Parser over the default rule table. Named procedures
// only match at the airport that publishes them.
func NewParser() *Parser {
	return &Parser{rules: defaultRuleSet, byAirport: airportRuleSets, fallback: noProcedureRuleSet}
}

// NewParserWithRules creates a Parser that applies one custom rule table to
// every airport.
func NewParserWithRules(rules *RuleSet) *Parser {
	return &Parser{rules: rules}
}

func (p *Parser) rulesFor(airport string) *RuleSet {
	if rs, ok := p.byAirport[airport]; ok {
		return rs
	}
	if p.fallback != nil {
		return p.fallback
	}
	return p.rules
}

// Rules exposes the rule table for diagnostics and correction attribution.
func (p *Parser) Rules() *RuleSet { return p.rules }

// Parse runs normalize, extract, validate and score. It never fails: text
// with no recognizable runway statement yields empty sets and zero
// confidence.
func (p *Parser) Parse(rec domain.AdvisoryRecord) domain.ParseResult {
	normalized := Normalize(rec.Text)
	rules := p.rulesFor(rec.Airport)
	ex := rules.Extract(normalized)
	validation := Validate(ex.Arrivals, ex.Departures)

	marker := rec.Marker
	if marker == domain.MarkerNone {
		marker = DetectMarker(normalized)
	}
	letter := rec.InfoLetter
	if letter == "" {
		letter = ExtractInfoLetter(normalized)
	}

	return domain.ParseResult{
		Airport:           rec.Airport,
		InfoLetter:        letter,
		Marker:            marker,
		ObservedAt:        rec.ObservedAt,
		Arrivals:          ex.Arrivals,
		Departures:        ex.Departures,
		Flow:              DetermineFlow(ex.Arrivals, ex.Departures),
		ConfigurationName: ConfigurationName(rec.Airport, ex.Arrivals, ex.Departures),
		Confidence:        rules.Score(ex, validation),
		MatchedRules:      ex.Hits,
		Validation:        validation,
		ArrivalVerbatim:   ex.ArrivalVerbatim,
		DepartureVerbatim: ex.DepartureVerbatim,
	}
}
