package keywords

import (
	"fmt"
	"regexp"
	"time"
)

// compiledPattern is a single named regex with an optional validator.
type compiledPattern struct {
	name      string
	re        *regexp.Regexp
	validator func(string) bool
}

// patternMatcher holds compiled patterns for a pattern-based group.
type patternMatcher struct {
	patterns []compiledPattern
}

// compilePatterns builds a patternMatcher from manifest pattern specs.
func compilePatterns(specs []PatternSpec) (*patternMatcher, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no patterns defined")
	}

	pm := &patternMatcher{patterns: make([]compiledPattern, 0, len(specs))}
	for _, spec := range specs {
		re, err := regexp.Compile(spec.Regex)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", spec.Name, err)
		}
		cp := compiledPattern{name: spec.Name, re: re}
		switch spec.Validator {
		case "":
		case "mdy_date":
			cp.validator = validateMDYDate
		default:
			return nil, fmt.Errorf("pattern %q: unknown validator %q", spec.Name, spec.Validator)
		}
		pm.patterns = append(pm.patterns, cp)
	}
	return pm, nil
}

// find scans text with every pattern and returns the validated matches in
// pattern order, each tagged with the name of the pattern that found it.
func (pm *patternMatcher) find(text string) ([]string, map[string]map[string]string) {
	var found []string
	var meta map[string]map[string]string
	for _, p := range pm.patterns {
		for _, m := range p.re.FindAllString(text, -1) {
			if p.validator != nil && !p.validator(m) {
				continue
			}
			if _, seen := meta[m]; seen {
				continue
			}
			if meta == nil {
				meta = make(map[string]map[string]string)
			}
			meta[m] = map[string]string{"pattern": p.name}
			found = append(found, m)
		}
	}
	return found, meta
}

var mdyLayouts = []string{"1/2/2006", "1/2/06"}

// validateMDYDate accepts month/day/year strings naming a real calendar day,
// so 2/30/21 is rejected even though it matches the date regex.
func validateMDYDate(s string) bool {
	for _, layout := range mdyLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
