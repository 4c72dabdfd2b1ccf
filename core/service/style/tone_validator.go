// Package style checks generated text against a user's profile and rewrites
// drafts to match it.
package style

import (
	"fmt"
	"math"
	"strings"

	"tone_server/core/domain"
)

// FeatureExtractor computes the features of a text.
type FeatureExtractor interface {
	Extract(text string) (*domain.FeatureSet, error)
}

// ToneClassifier maps features onto tone axes.
type ToneClassifier interface {
	Classify(fs *domain.FeatureSet) (domain.ToneAxes, error)
}

// Validator scores how closely a text matches a profile's main style.
type Validator struct {
	extractor  FeatureExtractor
	classifier ToneClassifier
	th         domain.Thresholds
}

func NewValidator(extractor FeatureExtractor, classifier ToneClassifier, th domain.Thresholds) *Validator {
	return &Validator{extractor: extractor, classifier: classifier, th: th}
}

// Validate analyzes generated and compares every axis with the main profile.
// Axes unknown on either side are not counted. An analysis failure yields a
// report with Error set and a zero match.
func (v *Validator) Validate(profile domain.UserProfile, generated string) domain.ValidationReport {
	fs, err := v.extractor.Extract(generated)
	if err != nil {
		return failedReport(err)
	}
	axes, err := v.classifier.Classify(fs)
	if err != nil {
		return failedReport(err)
	}

	main := profile.MainProfile
	report := domain.ValidationReport{
		MatchedAxes:       []string{},
		MismatchedAxes:    []domain.AxisMismatch{},
		Suggestions:       []string{},
		GeneratedToneAxes: &axes,
	}

	for _, axis := range domain.CategoricalAxes {
		expected, actual := main.Value(axis), axes.Value(axis)
		if expected == "" || actual == "" {
			continue
		}
		if expected == actual {
			report.MatchedAxes = append(report.MatchedAxes, string(axis))
			continue
		}
		report.MismatchedAxes = append(report.MismatchedAxes, domain.AxisMismatch{
			Axis:     string(axis),
			Expected: expected,
			Actual:   actual,
		})
		if s := suggestion(axis, expected, actual); s != "" {
			report.Suggestions = append(report.Suggestions, s)
		}
	}

	if main.Readability != nil && axes.Readability != nil {
		expected, actual := *main.Readability, *axes.Readability
		diff := math.Abs(expected - actual)
		if diff <= v.th.ReadabilityTolerance {
			report.MatchedAxes = append(report.MatchedAxes, string(domain.AxisReadability))
		} else {
			report.MismatchedAxes = append(report.MismatchedAxes, domain.AxisMismatch{
				Axis:       string(domain.AxisReadability),
				Expected:   expected,
				Actual:     actual,
				Difference: &diff,
			})
			if expected > actual {
				report.Suggestions = append(report.Suggestions, "Use more complex sentence structures and vocabulary")
			} else {
				report.Suggestions = append(report.Suggestions, "Simplify sentence structures and vocabulary")
			}
		}
	}

	total := len(report.MatchedAxes) + len(report.MismatchedAxes)
	if total > 0 {
		report.OverallMatch = math.Round(float64(len(report.MatchedAxes))/float64(total)*100) / 100
	}
	return report
}

// RevisionInstructions returns prompt text addressing every mismatch, or
// false when the text already matches well enough.
func (v *Validator) RevisionInstructions(profile domain.UserProfile, generated string) (string, bool) {
	return v.instructionsFor(v.Validate(profile, generated))
}

func (v *Validator) instructionsFor(report domain.ValidationReport) (string, bool) {
	if report.Error != "" {
		return "Please try again with more attention to the user's writing style.", true
	}
	if report.OverallMatch >= v.th.StyleMatchThreshold {
		return "", false
	}

	var b strings.Builder
	b.WriteString("Please revise the email with specific attention to these style aspects:")
	for _, s := range report.Suggestions {
		b.WriteString("\n- ")
		b.WriteString(s)
	}
	return b.String(), true
}

func failedReport(err error) domain.ValidationReport {
	return domain.ValidationReport{
		Error:          fmt.Sprintf("Error analyzing generated email: %v", err),
		MatchedAxes:    []string{},
		MismatchedAxes: []domain.AxisMismatch{},
		Suggestions:    []string{},
	}
}

func suggestion(axis domain.Axis, expected, actual string) string {
	switch axis {
	case domain.AxisFormality:
		if expected == domain.Formal {
			return "Use more formal language with fewer contractions and more complex sentence structures"
		}
		return "Use more conversational language with contractions and simpler sentences"
	case domain.AxisPoliteness:
		if expected == domain.Polite {
			return "Add polite markers like 'please' and 'thank you'"
		}
		return "Be more direct and reduce excessive politeness markers"
	case domain.AxisCertainty:
		if expected == domain.Hedged {
			return "Use more hedging language (e.g., 'perhaps', 'might', 'I think')"
		}
		return "Be more definitive and reduce hedging language"
	case domain.AxisGreeting, domain.AxisClosing:
		if expected == domain.Present && actual == domain.Absent {
			return fmt.Sprintf("Add a %s", axis)
		}
		return fmt.Sprintf("Remove the %s", axis)
	case domain.AxisEmojiUsage:
		if expected == domain.EmojiHigh || expected == domain.EmojiSome {
			return "Include some emojis where appropriate"
		}
		return "Remove emojis"
	case domain.AxisEmotion:
		return fmt.Sprintf("Adjust the emotional tone to be more %s", expected)
	case domain.AxisDirectness:
		if expected == domain.Direct {
			return "Be more direct and straightforward"
		}
		return "Use more indirect language and soften requests"
	case domain.AxisPassiveVoice:
		if expected == domain.Present {
			return "Use some passive constructions where natural"
		}
		return "Prefer active voice"
	case domain.AxisSubjectivityLevel:
		if expected == domain.Personal {
			return "Write in a more personal voice and share your view"
		}
		return "Keep the wording objective and fact-based"
	}
	return ""
}
