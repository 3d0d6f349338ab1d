package runway

import (
	"regexp"
	"strconv"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
)

var designatorRe = regexp.MustCompile(`^(\d+)([A-Z]*)$`)

// Designator is a parsed runway identifier.
type Designator struct {
	Number int
	Suffix string
}

// ParseDesignator splits a runway identifier into number and suffix. ok is
// false when the identifier is malformed.
func ParseDesignator(id string) (d Designator, ok bool) {
	m := designatorRe.FindStringSubmatch(id)
	if m == nil {
		return Designator{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Designator{}, false
	}
	d = Designator{Number: n, Suffix: m[2]}
	if n < 1 || n > 36 {
		return d, false
	}
	switch d.Suffix {
	case "", "L", "C", "R":
		return d, true
	default:
		return d, false
	}
}

// Reciprocal reports whether two designators are opposite ends of one runway.
func Reciprocal(a, b Designator) bool {
	diff := a.Number - b.Number
	if diff < 0 {
		diff = -diff
	}
	return diff == 18
}

// Validate checks identifiers and flags reciprocal ends in simultaneous use
// across arrivals and departures. Opposite-direction phrasing in the text
// does not suppress the flag.
func Validate(arrivals, departures []string) domain.ValidationOutcome {
	var out domain.ValidationOutcome

	all := dedupe(append(append([]string(nil), arrivals...), departures...))
	parsed := make([]Designator, 0, len(all))
	ids := make([]string, 0, len(all))
	for _, id := range all {
		d, ok := ParseDesignator(id)
		if !ok {
			out.Malformed = append(out.Malformed, id)
			continue
		}
		parsed = append(parsed, d)
		ids = append(ids, id)
	}

	for i := range parsed {
		for j := i + 1; j < len(parsed); j++ {
			if Reciprocal(parsed[i], parsed[j]) {
				out.HasReciprocalConflict = true
				out.ReciprocalPairs = append(out.ReciprocalPairs, [2]string{ids[i], ids[j]})
			}
		}
	}
	return out
}
