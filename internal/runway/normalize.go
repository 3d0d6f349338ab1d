package runway

import (
	"regexp"
	"strconv"
	"strings"
)

// maxNormalizePasses bounds the fixed-point loop in Normalize.
const maxNormalizePasses = 8

var (
	kwGroup = "(" + alternation(RunwayKeywords) + ")"

	// rwyToken is a single runway or a slashed pair ("4L/22R") as found in notices.
	rwyToken = `\d{1,2}[LCR]?(?:/\d{1,2}[LCR]?)?`

	whitespaceRe = regexp.MustCompile(`\s+`)
	runwaysRe    = regexp.MustCompile(`\bRUNWAYS\b`)
	runwayRe     = regexp.MustCompile(`\bRUNWAY\b`)
	gluedRe      = regexp.MustCompile(`\b` + kwGroup + `(\d)`)

	// "RWY 3 4 LEFT" -> "RWY 34L"
	digitByDigitRe = regexp.MustCompile(`\b` + kwGroup + ` ([0-3]) (\d)(?: (` + orientationAlternation(false) + `))?\b`)
	// "17 RIGHT" -> "17R"
	spelledOrientationRe = regexp.MustCompile(`\b(\d{1,2}) (` + orientationAlternation(true) + `)\b`)
	// "RWY 16 L" -> "RWY 16L"
	detachedSuffixRe = regexp.MustCompile(`\b` + kwGroup + ` (\d{1,2}) ([LCR])\b`)

	equipmentNoticeRe = regexp.MustCompile(`\b` + alternation(RunwayKeywords) + ` ?` + rwyToken +
		`(?: ` + alternation(EquipmentTerms) + `)+ ` + alternation(StatusTerms) + `(?:\b|$)`)
	leadingEquipmentNoticeRe = regexp.MustCompile(`\b` + alternation(EquipmentTerms) + ` (?:` + alternation(RunwayKeywords) + ` ?)?` + rwyToken +
		`(?: ` + alternation(EquipmentTerms) + `)* ` + alternation(StatusTerms) + `(?:\b|$)`)
	closureNoticeRe = regexp.MustCompile(`\b` + alternation(RunwayKeywords) + ` ?` + rwyToken +
		`(?:(?:,| AND| OR) ` + rwyToken + `)* (?:IS )?` + alternation(ClosureTerms) + `\b[^.]*`)

	// "RWY 35L AND RIGHT" -> "RWY 35L AND RWY 35R"
	andOrientationRe = regexp.MustCompile(`\b(?:` + kwGroup + ` )?(\d{1,2})([LCR]) AND (` + orientationAlternation(true) + `)\b`)
)

// Normalize rewrites raw advisory text into the canonical form the rule
// table expects. It is total and idempotent.
func Normalize(raw string) string {
	text := raw
	for range maxNormalizePasses {
		next := normalizePass(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func normalizePass(text string) string {
	text = strings.ToUpper(text)
	text = collapseWhitespace(text)
	text = runwaysRe.ReplaceAllString(text, "RWYS")
	text = runwayRe.ReplaceAllString(text, "RWY")
	text = gluedRe.ReplaceAllString(text, "$1 $2")

	// Consolidation runs before notice removal: notices use the same
	// digit-by-digit phrasing.
	text = consolidateDigits(text)
	text = spelledOrientationRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := spelledOrientationRe.FindStringSubmatch(m)
		return sub[1] + OrientationWords[sub[2]]
	})
	text = detachedSuffixRe.ReplaceAllString(text, "$1 $2$3")

	text = suppressNotices(text)
	text = expandAndOrientation(text)
	return collapseWhitespace(text)
}

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

func consolidateDigits(text string) string {
	return digitByDigitRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := digitByDigitRe.FindStringSubmatch(m)
		number := sub[2] + sub[3]
		if n, _ := strconv.Atoi(number); n < 1 || n > 36 {
			return m
		}
		return sub[1] + " " + number + OrientationWords[sub[4]]
	})
}

// suppressNotices deletes equipment-status and closure notices so that no
// later step can pick up the runway they mention.
func suppressNotices(text string) string {
	text = equipmentNoticeRe.ReplaceAllString(text, "")
	text = leadingEquipmentNoticeRe.ReplaceAllString(text, "")
	return closureNoticeRe.ReplaceAllString(text, "")
}

func expandAndOrientation(text string) string {
	return andOrientationRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := andOrientationRe.FindStringSubmatch(m)
		kw, number, first, second := sub[1], sub[2], sub[3], OrientationWords[sub[4]]
		prefix := ""
		if kw != "" {
			prefix = kw + " "
		}
		return prefix + number + first + " AND " + prefix + number + second
	})
}
