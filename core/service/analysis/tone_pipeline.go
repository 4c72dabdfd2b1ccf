// Package analysis orchestrates cleaning, extraction, classification,
// persistence and aggregation for the tone service.
package analysis

import (
	"errors"

	"tone_server/core/domain"
	"tone_server/core/port/in"
	"tone_server/core/service/feature"
	"tone_server/core/service/preprocess"
	"tone_server/core/service/style"
	"tone_server/core/service/tone"
	"tone_server/pkg/apperr"
)

var _ in.EmailAnalyzer = (*Pipeline)(nil)

// Pipeline analyzes one email at a time. It holds no mutable state and is
// shared by every worker of the batch pool.
type Pipeline struct {
	extractor  style.FeatureExtractor
	classifier style.ToneClassifier
}

func NewPipeline(extractor style.FeatureExtractor, classifier style.ToneClassifier) *Pipeline {
	return &Pipeline{extractor: extractor, classifier: classifier}
}

// AnalyzeEmail cleans the body, extracts features and classifies them.
// Failures are reported on the outcome, never returned.
func (p *Pipeline) AnalyzeEmail(email domain.EmailInput) domain.AnalysisOutcome {
	outcome := domain.AnalysisOutcome{EmailID: email.ID}

	result, err := p.AnalyzeText(email.Body)
	if err != nil {
		appErr := toAppError(err)
		outcome.Error = appErr.Error()
		outcome.Code = appErr.Code
		return outcome
	}

	outcome.Features = result.Features
	outcome.Axes = &result.Axes
	return outcome
}

// AnalyzeText runs the pipeline on raw text and returns the cleaned text with its analysis.
func (p *Pipeline) AnalyzeText(raw string) (*domain.TextAnalysis, error) {
	cleaned := preprocess.Clean(raw)

	fs, err := p.extractor.Extract(cleaned)
	if err != nil {
		return nil, err
	}

	axes, err := p.classifier.Classify(fs)
	if err != nil {
		return nil, err
	}

	return &domain.TextAnalysis{CleanedText: cleaned, Features: fs, Axes: axes}, nil
}

// toAppError maps the core error taxonomy onto application errors.
func toAppError(err error) *apperr.AppError {
	if apperr.IsAppError(err) {
		return apperr.AsAppError(err)
	}
	switch {
	case errors.Is(err, feature.ErrInputValidation):
		return apperr.InputValidation(err)
	case errors.Is(err, feature.ErrExtraction):
		return apperr.ExtractionFailed(err)
	case errors.Is(err, tone.ErrClassification):
		return apperr.ClassificationFailed(err)
	case errors.Is(err, style.ErrLLMUnavailable):
		return apperr.LLMUnavailable(err)
	}
	return apperr.InternalWithError(err)
}
