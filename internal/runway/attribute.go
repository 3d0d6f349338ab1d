package runway

import "github.com/couchcryptid/runway-config-etl/internal/domain"

// Attribution links a human correction to the rules that produced the
// wrong output.
type Attribution struct {
	Airport            string           `json:"airport"`
	SpuriousArrivals   []string         `json:"spurious_arrivals,omitempty"`
	SpuriousDepartures []string         `json:"spurious_departures,omitempty"`
	MissedArrivals     []string         `json:"missed_arrivals,omitempty"`
	MissedDepartures   []string         `json:"missed_departures,omitempty"`
	Misfired           []domain.RuleHit `json:"misfired,omitempty"`
}

// Attribute compares a correction with the parse result it corrects. A rule
// misfired when it produced a runway the correction removed from a direction
// that rule feeds.
func Attribute(c domain.Correction, r domain.ParseResult) Attribution {
	a := Attribution{
		Airport:            c.Airport,
		SpuriousArrivals:   difference(c.OriginalArrivals, c.CorrectArrivals),
		SpuriousDepartures: difference(c.OriginalDepartures, c.CorrectDepartures),
		MissedArrivals:     difference(c.CorrectArrivals, c.OriginalArrivals),
		MissedDepartures:   difference(c.CorrectDepartures, c.OriginalDepartures),
	}

	for _, hit := range r.MatchedRules {
		if hit.Category.FeedsArrivals() && intersects(hit.Runways, a.SpuriousArrivals) ||
			hit.Category.FeedsDepartures() && intersects(hit.Runways, a.SpuriousDepartures) {
			a.Misfired = append(a.Misfired, hit)
		}
	}
	return a
}

func difference(a, b []string) []string {
	var out []string
	for _, x := range a {
		if !contains(b, Canonical(x)) {
			out = append(out, x)
		}
	}
	return out
}

func contains(set []string, canon string) bool {
	for _, s := range set {
		if Canonical(s) == canon {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if contains(b, Canonical(x)) {
			return true
		}
	}
	return false
}
