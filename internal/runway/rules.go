package runway

import (
	"fmt"
	"regexp"

	"github.com/couchcryptid/runway-config-etl/internal/domain"
)

// RuleKind groups rules by how specific their phrasing is. The scorer
// assigns one specificity per kind.
type RuleKind string

const (
	KindNamedProcedure   RuleKind = "named_procedure"
	KindExplicitCombined RuleKind = "explicit_combined"
	KindApproachType     RuleKind = "approach_type"
	KindTrailingKeyword  RuleKind = "trailing_keyword"
	KindDirectionKeyword RuleKind = "direction_keyword"
	KindGenericCombined  RuleKind = "generic_combined"
)

// Rule is one tagged extraction rule. When the pattern has a named group
// "rwys", runways are read from it; otherwise from the whole match.
type Rule struct {
	ID       string
	Category domain.RuleCategory
	Kind     RuleKind
	Pattern  string
	// Verbatim is set when the rule requires a direction keyword to be
	// present in the text rather than inferring the direction.
	Verbatim bool
}

// DefaultRules is the rule table in priority order. A match from an earlier
// rule consumes its span; later matches overlapping it are discarded.
var DefaultRules = []Rule{
	{
		ID:       "named_procedure_in_use",
		Category: domain.CategoryNamedProcedure,
		Kind:     KindNamedProcedure,
		Pattern: `{SIMUL}(?:CHARTED\s+)?(?:VISUAL\s+)?{PROCRWY}(?:(?:\s*,\s*|\s+AND\s+){PROCRWY})*` +
			`\s+{ARRKW}\s+(?:IN\s+USE|IN\s+PROGRESS|BEING\s+CONDUCTED)`,
		Verbatim: true,
	},
	{
		ID:       "combined_landing_and_departing",
		Category: domain.CategoryCombined,
		Kind:     KindExplicitCombined,
		Pattern:  `\b{ARRKW}\s+(?:AND|&)\s+{DEPKW}{PREP}\s+(?:{KW}\s*)?(?P<rwys>{RWYLIST})`,
		Verbatim: true,
	},
	{
		ID:       "combined_departing_and_landing",
		Category: domain.CategoryCombined,
		Kind:     KindExplicitCombined,
		Pattern:  `\b{DEPKW}\s+(?:AND|&)\s+{ARRKW}{PREP}\s+(?:{KW}\s*)?(?P<rwys>{RWYLIST})`,
		Verbatim: true,
	},
	{
		ID:       "approach_type",
		Category: domain.CategoryArrival,
		Kind:     KindApproachType,
		Pattern: `\b{SIMUL}{APTYPE}(?:\s*(?:/|\s+OR\s+|\s+AND\s+)\s*{APTYPE})*(?:\s+[XYZ])?` +
			`(?:\s+{ARRKW})?{PREP}\s+(?:{KW}\s*)?(?P<rwys>{RWYLIST})`,
	},
	{
		ID:       "trailing_arrival",
		Category: domain.CategoryArrival,
		Kind:     KindTrailingKeyword,
		Pattern:  `\b{KW}\s*(?P<rwys>{RWYLIST})\s+(?:FOR|IS)\s+{ARRKW}\b`,
		Verbatim: true,
	},
	{
		ID:       "trailing_departure",
		Category: domain.CategoryDeparture,
		Kind:     KindTrailingKeyword,
		Pattern:  `\b{KW}\s*(?P<rwys>{RWYLIST})\s+(?:FOR|IS)\s+{DEPKW}\b`,
		Verbatim: true,
	},
	{
		ID:       "arrival_keyword",
		Category: domain.CategoryArrival,
		Kind:     KindDirectionKeyword,
		Pattern:  `\b{SIMUL}(?:EXPECT\s+)?{ARRKW}{PREP}\s+(?:{KW}\s*)?(?P<rwys>{RWYLIST})`,
		Verbatim: true,
	},
	{
		ID:       "departure_keyword",
		Category: domain.CategoryDeparture,
		Kind:     KindDirectionKeyword,
		Pattern:  `\b(?:EXPECT\s+)?{DEPKW}{PREP}\s+(?:{KW}\s*)?(?P<rwys>{RWYLIST})`,
		Verbatim: true,
	},
	{
		ID:       "combined_in_use",
		Category: domain.CategoryCombined,
		Kind:     KindGenericCombined,
		Pattern:  `\b{KW}\s*(?P<rwys>{RWYLIST})\s+{INUSE}\b`,
	},
	{
		ID:       "combined_using",
		Category: domain.CategoryCombined,
		Kind:     KindGenericCombined,
		Pattern:  `\b(?:{INUSE}|USING)\s+{KW}\s*(?P<rwys>{RWYLIST})`,
	},
}

// ruleLocalPatterns are components only the rule table needs.
var ruleLocalPatterns = map[string]string{
	"PROCRWY": `{PROC}(?:\s+VISUAL)?(?:\s+{ARRKW})?(?:\s+TO)?\s+{KW}\s*{RWY}`,
}

// compiledRule pairs a rule with its compiled pattern.
type compiledRule struct {
	Rule
	re       *regexp.Regexp
	rwyGroup int
}

// RuleSet is a compiled, ordered rule table.
type RuleSet struct {
	rules []compiledRule
	byID  map[string]Rule
}

// NewRuleSet compiles rules in the given priority order. {PROC} matches the
// named procedures of every airport.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	return newRuleSet(rules, nil)
}

// noProcedure is a character class that matches nothing.
const noProcedure = `[^\x00-\x{10FFFF}]`

// NewAirportRuleSet compiles rules with {PROC} limited to procs. With no
// procedures, rules that need one never match.
func NewAirportRuleSet(rules []Rule, procs []string) (*RuleSet, error) {
	proc := noProcedure
	if len(procs) > 0 {
		proc = alternation(procs)
	}
	return newRuleSet(rules, map[string]string{"PROC": proc})
}

func newRuleSet(rules []Rule, overrides map[string]string) (*RuleSet, error) {
	local := make(map[string]string, len(ruleLocalPatterns)+len(overrides))
	for k, v := range ruleLocalPatterns {
		local[k] = v
	}
	for k, v := range overrides {
		local[k] = v
	}

	c := NewCompiler(local)
	rs := &RuleSet{
		rules: make([]compiledRule, 0, len(rules)),
		byID:  make(map[string]Rule, len(rules)),
	}
	for _, r := range rules {
		if _, dup := rs.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", r.ID)
		}
		re, err := c.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile rule %s: %w", r.ID, err)
		}
		rs.rules = append(rs.rules, compiledRule{Rule: r, re: re, rwyGroup: re.SubexpIndex("rwys")})
		rs.byID[r.ID] = r
	}
	return rs, nil
}

// Rule looks up a rule by identifier.
func (rs *RuleSet) Rule(id string) (Rule, bool) {
	r, ok := rs.byID[id]
	return r, ok
}

var (
	defaultRuleSet = must(NewRuleSet(DefaultRules))

	// airportRuleSets scope {PROC} to each airport's own procedures;
	// noProcedureRuleSet serves airports without any.
	airportRuleSets    = compileAirportRuleSets(DefaultRules)
	noProcedureRuleSet = must(NewAirportRuleSet(DefaultRules, nil))
)

func compileAirportRuleSets(rules []Rule) map[string]*RuleSet {
	out := make(map[string]*RuleSet, len(NamedProcedures))
	for airport, procs := range NamedProcedures {
		out[airport] = must(NewAirportRuleSet(rules, procs))
	}
	return out
}

func must(rs *RuleSet, err error) *RuleSet {
	if err != nil {
		panic(err)
	}
	return rs
}
