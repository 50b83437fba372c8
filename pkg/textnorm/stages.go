package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Stage is one named string rewrite of the cardiac pathology pipeline.
type Stage struct {
	Name  string
	Apply func(string) string
}

// dropNonASCII discards (does not transliterate) every code point above 0x7F.
// Invalid UTF-8 bytes decode to RuneError and are discarded as well.
var dropNonASCII = runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII }))

// whitespace is ASCII control spacing plus every Unicode separator, so
// extracts carrying NBSP or ideographic spaces collapse too.
const whitespace = `[\t\n\v\f\r\x1c-\x1f\x85\p{Z}]`

var (
	reDoubleDash     = regexp.MustCompile(`-{2,}`)
	reDotQuestion    = regexp.MustCompile(`\.\?`)
	reQuestionWord   = regexp.MustCompile(`\?(\w)`)
	reQuestionNL     = regexp.MustCompile(`\?\n|\n\?`)
	reClinical       = regexp.MustCompile(`([A-Za-z]+)(Clinical|CLINICAL)`)
	reAmyloidJoined  = regexp.MustCompile(`(AMYLOIDOSIS|amyloidosis|AMYLOID|amyloid)([A-Za-z]\.)`)
	reNewlineRun     = regexp.MustCompile(`\n{2,}`)
	reWhitespaceRun  = regexp.MustCompile(whitespace + `{2,}`)
	rePeriodInitial  = regexp.MustCompile(`(\.)([A-Z]\.` + whitespace + `)`)
	rePeriodCapitals = regexp.MustCompile(`(\.)([A-Z]{2,}|[A-Z][a-z]{2,})`)
	rePeriodRun      = regexp.MustCompile(`\.{2,}`)
	reColonArtifact  = regexp.MustCompile(`:[.\-]`)
)

// ReplaceUnicodeNewlines turns vertical tabs into newlines and drops all
// remaining non-ASCII code points.
func ReplaceUnicodeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\x0b", "\n")
	out, _, err := transform.String(dropNonASCII, s)
	if err != nil {
		// runes.Remove never reports an error on complete input.
		return s
	}
	return out
}

// FixDoubleDashes treats runs of two or more hyphens as section separators.
func FixDoubleDashes(s string) string {
	return reDoubleDash.ReplaceAllString(s, "\n")
}

// FixQuestionMarks rewrites the "?" artifacts left by transcription:
// ".?" ends a sentence, a "?" glued to a word starts a new section, and a
// "?" touching a newline collapses into that newline.
func FixQuestionMarks(s string) string {
	s = reDotQuestion.ReplaceAllString(s, ". ")
	s = reQuestionWord.ReplaceAllString(s, "\n${1}")
	return reQuestionNL.ReplaceAllString(s, "\n")
}

// FixClinical separates a run-on "Clinical"/"CLINICAL" heading from the
// letters immediately before it.
func FixClinical(s string) string {
	return reClinical.ReplaceAllString(s, "${1}. ${2}")
}

// FixAmyloid splits amyloid tokens fused with a following abbreviation and
// repairs the "amyoidosis" misspelling.
func FixAmyloid(s string) string {
	s = reAmyloidJoined.ReplaceAllString(s, "${1} . ${2}")
	s = strings.ReplaceAll(s, "AMYOIDOSIS", "AMYLOIDOSIS")
	return strings.ReplaceAll(s, "amyoidosis", "amyloidosis")
}

// RemoveExtraSpaces collapses newline runs to one newline, then any
// whitespace run to one space. The newline pass must run first: it keeps a
// newline (a later sentence boundary) where the general pass would leave a
// plain space.
func RemoveExtraSpaces(s string) string {
	s = reNewlineRun.ReplaceAllString(s, "\n")
	return reWhitespaceRun.ReplaceAllString(s, " ")
}

// NewlinesToPeriods turns every newline into a sentence boundary.
func NewlinesToPeriods(s string) string {
	return strings.ReplaceAll(s, "\n", ". ")
}

// FixPeriods inserts the missing space after a period glued to an initial or
// a capitalized word and collapses runs of periods.
func FixPeriods(s string) string {
	s = rePeriodInitial.ReplaceAllString(s, "${1} ${2}")
	s = rePeriodCapitals.ReplaceAllString(s, "${1} ${2}")
	return rePeriodRun.ReplaceAllString(s, ".")
}

// FixColons replaces ":." and ":-" with ": ".
func FixColons(s string) string {
	return reColonArtifact.ReplaceAllString(s, ": ")
}

// rewriteStages are stages 1-10 of the cardiac pathology path. Sentence
// segmentation and trimming are appended by the Normalizer since they
// depend on its tokenizer.
var rewriteStages = []Stage{
	{"unicode_newlines", ReplaceUnicodeNewlines},
	{"double_dashes", FixDoubleDashes},
	{"question_marks", FixQuestionMarks},
	{"clinical_heading", FixClinical},
	{"amyloid_tokens", FixAmyloid},
	{"collapse_whitespace", RemoveExtraSpaces},
	{"newlines_to_periods", NewlinesToPeriods},
	{"periods", FixPeriods},
	{"colons", FixColons},
	{"collapse_whitespace", RemoveExtraSpaces},
}
