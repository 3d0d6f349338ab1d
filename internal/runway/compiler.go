package runway

import (
	"fmt"
	"regexp"
	"strings"
)

// BasePatterns defines reusable regex components for rule composition.
// Rules reference them with {NAME}; components may reference each other.
var BasePatterns = map[string]string{
	"KW":      alternation(RunwayKeywords),
	"RWY":     `\d{1,2}[LCR]?\b`,
	"SEP":     `(?:\s*,\s*|\s+AND\s+|\s+OR\s+|\s*/\s*|\s+)`,
	"RWYLIST": `{RWY}(?:{SEP}(?:{KW}\s*)?{RWY})*`,
	"ARRKW":   alternation(ArrivalKeywords),
	"DEPKW":   alternation(DepartureKeywords),
	"APTYPE":  alternation(ApproachTypes),
	"INUSE":   alternation(InUsePhrases),
	"PREP":    `(?:\s+(?:ON|FROM|TO|USE|USING|IN\s+USE))?`,
	"SIMUL":   `(?:SIMUL(?:TANEOUS)?\s+)?`,
	"PROC":    alternation(procedureNames()),
}

// maxExpandDepth bounds nested placeholder expansion.
const maxExpandDepth = 8

var placeholderRe = regexp.MustCompile(`\{([A-Z]+)\}`)

// Compiler expands {PLACEHOLDER} references and compiles rule patterns.
type Compiler struct {
	basePatterns map[string]string
}

// NewCompiler merges localPatterns over the global BasePatterns.
func NewCompiler(localPatterns map[string]string) *Compiler {
	c := &Compiler{basePatterns: make(map[string]string, len(BasePatterns)+len(localPatterns))}
	for k, v := range BasePatterns {
		c.basePatterns[k] = v
	}
	for k, v := range localPatterns {
		c.basePatterns[k] = v
	}
	return c
}

// Compile expands a pattern and compiles it.
func (c *Compiler) Compile(pattern string) (*regexp.Regexp, error) {
	expanded, err := c.expand(pattern)
	if err != nil {
		return nil, err
	}
	return regexp.Compile(expanded)
}

func (c *Compiler) expand(pattern string) (string, error) {
	result := pattern
	for range maxExpandDepth {
		if !placeholderRe.MatchString(result) {
			return result, nil
		}
		for name, regex := range c.basePatterns {
			result = strings.ReplaceAll(result, "{"+name+"}", regex)
		}
	}
	if m := placeholderRe.FindString(result); m != "" {
		return "", fmt.Errorf("unresolved placeholder %s", m)
	}
	return result, nil
}
