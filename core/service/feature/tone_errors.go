package feature

import "errors"

var (
	// ErrInputValidation is returned when the text cannot be analyzed at all.
	ErrInputValidation = errors.New("input validation")
	// ErrExtraction wraps any unexpected failure inside the extraction pipeline.
	ErrExtraction = errors.New("feature extraction")
)
