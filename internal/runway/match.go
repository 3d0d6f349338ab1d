package runway

import (
	"regexp"
	"sort"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
)

var (
	runwayTokenRe = regexp.MustCompile(`\b\d{1,2}[LCR]?\b`)

	// measurementRe rejects list tokens that are really distances, speeds or
	// times ("27 10 SM", "29.92").
	measurementRe = regexp.MustCompile(`^(?:\s*` + alternation(UnitWords) + `\b|[.:]\d)`)
)

// Extraction is the raw output of the rule table.
type Extraction struct {
	Arrivals          []string
	Departures        []string
	Hits              []domain.RuleHit
	ArrivalVerbatim   bool
	DepartureVerbatim bool
}

// Matched reports whether any rule fired.
func (e Extraction) Matched() bool { return len(e.Hits) > 0 }

// Extract runs the default rule table over normalized text.
func Extract(normalized string) Extraction {
	return defaultRuleSet.Extract(normalized)
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

// Extract evaluates every rule in priority order over normalized text and
// merges the hits into arrival and departure sets in mention order.
func (rs *RuleSet) Extract(normalized string) Extraction {
	var consumed []span
	var hits []domain.RuleHit

	for _, r := range rs.rules {
		for _, loc := range r.re.FindAllStringSubmatchIndex(normalized, -1) {
			whole := span{loc[0], loc[1]}
			if overlapsAny(whole, consumed) {
				continue
			}
			region := whole
			if r.rwyGroup > 0 && loc[2*r.rwyGroup] >= 0 {
				region = span{loc[2*r.rwyGroup], loc[2*r.rwyGroup+1]}
			}
			runways := runwayTokens(normalized, region)
			if len(runways) == 0 {
				continue
			}
			consumed = append(consumed, whole)
			hits = append(hits, domain.RuleHit{
				RuleID:   r.ID,
				Category: r.Category,
				Runways:  runways,
				Verbatim: r.Verbatim,
				Offset:   whole.start,
			})
		}
	}

	return assemble(hits)
}

func overlapsAny(s span, spans []span) bool {
	for _, o := range spans {
		if s.overlaps(o) {
			return true
		}
	}
	return false
}

// runwayTokens reads designators from text[region], skipping tokens that are
// followed by a unit of measure.
func runwayTokens(text string, region span) []string {
	var out []string
	for _, loc := range runwayTokenRe.FindAllStringIndex(text[region.start:region.end], -1) {
		start, end := region.start+loc[0], region.start+loc[1]
		if measurementRe.MatchString(text[end:]) {
			continue
		}
		out = append(out, text[start:end])
	}
	return dedupe(out)
}

// assemble merges hits into direction sets. Combined hits fill only the
// directions no direction-specific rule populated, so a combined-only
// advisory seeds both directions with the same list.
func assemble(hits []domain.RuleHit) Extraction {
	ordered := append([]domain.RuleHit(nil), hits...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Offset < ordered[j].Offset })

	var ex Extraction
	var combined []string
	var combinedVerbatim bool
	for _, h := range ordered {
		switch h.Category {
		case domain.CategoryArrival, domain.CategoryNamedProcedure:
			ex.Arrivals = append(ex.Arrivals, h.Runways...)
			ex.ArrivalVerbatim = ex.ArrivalVerbatim || h.Verbatim
		case domain.CategoryDeparture:
			ex.Departures = append(ex.Departures, h.Runways...)
			ex.DepartureVerbatim = ex.DepartureVerbatim || h.Verbatim
		case domain.CategoryCombined:
			combined = append(combined, h.Runways...)
			combinedVerbatim = combinedVerbatim || h.Verbatim
		}
	}

	if len(ex.Arrivals) == 0 && len(combined) > 0 {
		ex.Arrivals = append([]string(nil), combined...)
		ex.ArrivalVerbatim = combinedVerbatim
	}
	if len(ex.Departures) == 0 && len(combined) > 0 {
		ex.Departures = append([]string(nil), combined...)
		ex.DepartureVerbatim = combinedVerbatim
	}

	ex.Arrivals = dedupe(ex.Arrivals)
	ex.Departures = dedupe(ex.Departures)
	ex.Hits = ordered
	return ex
}

func dedupe(runways []string) []string {
	if len(runways) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(runways))
	out := make([]string, 0, len(runways))
	for _, r := range runways {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
