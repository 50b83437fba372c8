package textnorm

import "regexp"

// reDate accepts m/d/yy through mm/dd/yyyy with months 1-12 and days 1-31.
var reDate = regexp.MustCompile(`^(?:1[0-2]|0?[1-9])/(?:3[01]|[12][0-9]|0?[1-9])/(?:[0-9]{2})?[0-9]{2}$`)

// ExtractDates returns s as a single-element slice when the whole string is
// a slash-separated date, and nil otherwise.
func ExtractDates(s string) []string {
	if !reDate.MatchString(s) {
		return nil
	}
	return []string{s}
}
