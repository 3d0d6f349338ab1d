package runway

import (
	"regexp"
	"strings"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
)

var (
	arrivalMarkerRe   = regexp.MustCompile(`\bARR(?:IVAL)?\s+(?:INFO|INFORMATION|ATIS)\b`)
	departureMarkerRe = regexp.MustCompile(`\bDEP(?:ARTURE)?\s+(?:INFO|INFORMATION|ATIS)\b`)
	combinedMarkerRe  = regexp.MustCompile(`\bARR(?:IVAL)?\s*(?:/|AND|&)\s*DEP(?:ARTURE)?\s+(?:INFO|INFORMATION|ATIS)\b`)

	// Info letter patterns, most specific first.
	infoLetterRes = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:ARR|DEP|ATIS)\s+(?:INFO|INFORMATION)\s+([A-Z])\b`),
		regexp.MustCompile(`\bINFORMATION\s+([A-Z])\s`),
		regexp.MustCompile(`\bATIS\s+([A-Z])\s+\d{4}`),
		regexp.MustCompile(`^[A-Z]{3,4}\s+ATIS\s+([A-Z])\s`),
	}
)

// DetectMarker reports whether text announces itself as an arrival-only or
// departure-only broadcast. Text naming both, or neither, is unmarked.
func DetectMarker(text string) domain.Marker {
	upper := strings.ToUpper(text)
	if combinedMarkerRe.MatchString(upper) {
		return domain.MarkerNone
	}
	arr := arrivalMarkerRe.MatchString(upper)
	dep := departureMarkerRe.MatchString(upper)
	switch {
	case arr && !dep:
		return domain.MarkerArrival
	case dep && !arr:
		return domain.MarkerDeparture
	default:
		return domain.MarkerNone
	}
}

// ExtractInfoLetter finds the information letter in the broadcast header.
func ExtractInfoLetter(text string) string {
	upper := strings.ToUpper(strings.TrimSpace(text))
	for _, re := range infoLetterRes {
		if m := re.FindStringSubmatch(upper); m != nil {
			return m[1]
		}
	}
	return ""
}
