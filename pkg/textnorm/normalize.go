// Package textnorm cleans clinical note and report text before keyword
// search and annotation matching.
//
// Two paths exist and callers choose by document source. Cardiac pathology
// reports go through CleanCardiacPath, a fixed sequence of rewrites ending in
// sentence segmentation. PYP scan reports only get CleanPYP, which collapses
// whitespace. Stage order is part of the contract: the stages do not commute.
package textnorm

import (
	"fmt"
	"strings"
)

// Mode names a cleaner. Datasets and API requests select cleaners by mode.
type Mode string

const (
	ModeCardiacPath Mode = "cardiac_path"
	ModePYP         Mode = "pyp"
	ModeNone        Mode = "none"
)

// Func transforms one document's text.
type Func func(string) string

// Normalizer runs the cardiac pathology pipeline. It holds no mutable state
// and is safe for concurrent use.
type Normalizer struct {
	tokenizer SentenceTokenizer
	stages    []Stage
}

// New builds a Normalizer around the given sentence tokenizer.
func New(tok SentenceTokenizer) (*Normalizer, error) {
	if tok == nil {
		return nil, ErrTokenizerUnavailable
	}
	n := &Normalizer{tokenizer: tok}
	n.stages = make([]Stage, 0, len(rewriteStages)+2)
	n.stages = append(n.stages, rewriteStages...)
	n.stages = append(n.stages,
		Stage{"sentences", n.segment},
		Stage{"trim", strings.TrimSpace},
	)
	return n, nil
}

// NewEnglish builds a Normalizer using the English Punkt tokenizer.
func NewEnglish() (*Normalizer, error) {
	tok, err := NewPunktTokenizer()
	if err != nil {
		return nil, err
	}
	return New(tok)
}

// Stages returns the cardiac pathology stages in application order.
func (n *Normalizer) Stages() []Stage {
	out := make([]Stage, len(n.stages))
	copy(out, n.stages)
	return out
}

// CleanCardiacPath applies every stage, in order, to one report.
func (n *Normalizer) CleanCardiacPath(s string) string {
	for _, st := range n.stages {
		s = st.Apply(s)
	}
	return s
}

// StageOutput is the text after one stage ran.
type StageOutput struct {
	Stage  string `json:"stage"`
	Output string `json:"output"`
}

// Trace is CleanCardiacPath with every intermediate result recorded.
func (n *Normalizer) Trace(s string) []StageOutput {
	out := make([]StageOutput, 0, len(n.stages))
	for _, st := range n.stages {
		s = st.Apply(s)
		out = append(out, StageOutput{Stage: st.Name, Output: s})
	}
	return out
}

// CleanNullable cleans a value read from a nullable column with the given
// mode. A nil value is an InvalidInputError; callers decide whether to skip
// the row or substitute a default.
func (n *Normalizer) CleanNullable(s *string, mode Mode) (string, error) {
	if s == nil {
		return "", &InvalidInputError{Reason: "missing document text"}
	}
	fn, err := n.Func(mode)
	if err != nil {
		return "", err
	}
	return fn(*s), nil
}

// Func returns the cleaner for mode. An empty mode means cardiac_path.
func (n *Normalizer) Func(mode Mode) (Func, error) {
	switch mode {
	case ModeCardiacPath, "":
		return n.CleanCardiacPath, nil
	case ModePYP:
		return CleanPYP, nil
	case ModeNone:
		return func(s string) string { return s }, nil
	default:
		return nil, &InvalidInputError{Reason: fmt.Sprintf("unknown mode %q", mode)}
	}
}

// segment splits s into sentences and rejoins them with single spaces.
func (n *Normalizer) segment(s string) string {
	parts := n.tokenizer.Sentences(s)
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// CleanPYP is the PYP report path: whitespace collapsing only, no sentence
// segmentation.
func CleanPYP(s string) string {
	return RemoveExtraSpaces(s)
}
