package runway

import (
	"regexp"
	"sort"
	"strings"
)

// Vocabulary used by the normalizer and the rule table. New synonyms are
// added here; the patterns are generated from these sets.
var (
	// RunwayKeywords are the canonical runway keywords after normalization.
	RunwayKeywords = []string{"RWYS", "RWY", "RY"}

	// OrientationWords maps spelled or abbreviated orientations to suffixes.
	OrientationWords = map[string]string{
		"LEFT":   "L",
		"RIGHT":  "R",
		"CENTER": "C",
		"CENTRE": "C",
		"L":      "L",
		"R":      "R",
		"C":      "C",
	}

	// EquipmentTerms name lighting systems and approach aids that appear in
	// equipment-status notices.
	EquipmentTerms = []string{
		"REIL", "REILS", "PAPI", "VASI", "VASIS",
		"ILS", "LOC", "LOCALIZER", "GS", "GP", "GLIDESLOPE", "GLIDE SLOPE", "GLIDEPATH", "GLIDE PATH",
		"ALS", "ALSF", "ALSF-1", "ALSF-2", "MALS", "MALSF", "MALSR", "SSALR", "SSALF", "ODALS", "RAIL",
		"RVR", "TDZ RVR", "DME", "IM", "OM", "MM",
		"INNER MARKER", "OUTER MARKER", "MIDDLE MARKER",
		"CENTERLINE LIGHTS", "CENTERLINE LGTS", "CL LGTS", "TDZL", "TDZ LGTS",
		"HIRL", "MIRL", "EDGE LIGHTS", "EDGE LGTS", "LGTS", "LIGHTS", "APCH LGTS", "APPROACH LIGHTS",
	}

	// StatusTerms mark equipment as unavailable.
	StatusTerms = []string{
		"OTS", "INOP", "U/S", "U-S", "UNUSABLE", "UNSERVICEABLE", "OUT OF SERVICE",
		"NOT AVBL", "NOT AVAILABLE", "UNAVBL", "DECOMMISSIONED",
	}

	// ClosureTerms mark a runway closure notice.
	ClosureTerms = []string{"CLOSED", "CLSD"}

	// ArrivalKeywords denote the arrival role.
	ArrivalKeywords = []string{
		"APCH", "APCHS", "APPROACH", "APPROACHES", "APP", "APPS",
		"LANDING", "LNDG", "LDG", "LAND", "ARRIVALS", "ARRIVAL", "ARRIVING", "ARR",
	}

	// DepartureKeywords denote the departure role.
	DepartureKeywords = []string{
		"DEPARTURES", "DEPARTURE", "DEPARTING", "DEPTG", "DEPG", "DEPS", "DEP",
		"TAKEOFF", "TAKE OFF", "TKOF",
	}

	// ApproachTypes are instrument or visual approach names that imply the
	// arrival role without an explicit arrival keyword.
	ApproachTypes = []string{"ILS", "RNAV", "RNP", "GPS", "GLS", "VISUAL", "VOR", "LOC", "LDA", "SDF", "NDB"}

	// InUsePhrases mark a runway list as active without naming a direction.
	InUsePhrases = []string{"IN USE", "ACTIVE", "IN OPERATION", "IN EFFECT"}

	// UnitWords follow numbers that look like runways but are measurements.
	UnitWords = []string{"SM", "KT", "KTS", "FT", "NM", "MILE", "MILES", "MIN", "MINS", "DEG", "DEGREES", "Z"}
)

// alternation builds a non-capturing regex group matching any of terms as a
// whole phrase. Longer terms are tried first so "ALSF-2" wins over "ALS".
func alternation(terms []string) string {
	sorted := append([]string(nil), terms...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, len(sorted))
	for i, term := range sorted {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(term), " ", `\s+`)
	}
	return "(?:" + strings.Join(quoted, "|") + ")"
}

func orientationAlternation(spelledOnly bool) string {
	terms := make([]string, 0, len(OrientationWords))
	for word := range OrientationWords {
		if spelledOnly && len(word) == 1 {
			continue
		}
		terms = append(terms, word)
	}
	sort.Strings(terms)
	return alternation(terms)
}
