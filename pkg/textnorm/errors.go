package textnorm

import "errors"

var (
	// ErrInvalidInput is matched by every InvalidInputError.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTokenizerUnavailable means the sentence tokenizer is missing or its
	// model failed to load. The cardiac pathology path cannot run without it.
	ErrTokenizerUnavailable = errors.New("sentence tokenizer unavailable")
)

// InvalidInputError reports a value that is not a usable string, typically a
// missing cell propagated from a data column.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// Is lets errors.Is(err, ErrInvalidInput) match.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
