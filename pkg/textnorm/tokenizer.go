package textnorm

import (
	"fmt"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// SentenceTokenizer splits text into an ordered sequence of sentences
// covering the input.
type SentenceTokenizer interface {
	Sentences(text string) []string
}

// TokenizerFunc adapts a plain function to SentenceTokenizer.
type TokenizerFunc func(string) []string

func (f TokenizerFunc) Sentences(text string) []string { return f(text) }

// PunktTokenizer is a SentenceTokenizer backed by the Punkt model trained on
// English text.
type PunktTokenizer struct {
	tok *sentences.DefaultSentenceTokenizer
}

// NewPunktTokenizer loads the English Punkt model.
func NewPunktTokenizer() (*PunktTokenizer, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: load english punkt model: %v", ErrTokenizerUnavailable, err)
	}
	return &PunktTokenizer{tok: tok}, nil
}

// Sentences returns the text of each sentence found by the Punkt model.
func (p *PunktTokenizer) Sentences(text string) []string {
	found := p.tok.Tokenize(text)
	out := make([]string, 0, len(found))
	for _, s := range found {
		out = append(out, s.Text)
	}
	return out
}
