package domain

import "time"

// EmailInput is one email handed to the analyzer by the mailbox collaborator.
type EmailInput struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject,omitempty"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at,omitempty"`
}

// EmailAnalysis is the persisted result of analyzing one email.
type EmailAnalysis struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	EmailID    string      `json:"email_id"`
	Features   *FeatureSet `json:"features"`
	Axes       ToneAxes    `json:"tone_axes"`
	AnalyzedAt time.Time   `json:"analyzed_at"`
}

// AnalysisOutcome is the per-email result of a batch. Error is set when the
// email could not be analyzed; the rest of the batch is unaffected.
type AnalysisOutcome struct {
	EmailID  string      `json:"email_id"`
	Features *FeatureSet `json:"features,omitempty"`
	Axes     *ToneAxes   `json:"tone_axes,omitempty"`
	Error    string      `json:"error,omitempty"`
	Code     string      `json:"code,omitempty"`
}

// Failed reports whether the email could not be analyzed.
func (o AnalysisOutcome) Failed() bool {
	return o.Error != ""
}

// BatchResult summarizes one AnalyzeBatch call.
type BatchResult struct {
	UserID   string            `json:"user_id"`
	Received int               `json:"received"`
	Analyzed int               `json:"analyzed"`
	Failed   int               `json:"failed"`
	Skipped  int               `json:"skipped"`
	Items    []AnalysisOutcome `json:"items"`
	Profile  *UserProfile      `json:"profile,omitempty"`
}

// TextAnalysis is the stateless single-text result.
type TextAnalysis struct {
	CleanedText string      `json:"cleaned_text"`
	Features    *FeatureSet `json:"features"`
	Axes        ToneAxes    `json:"tone_axes"`
}

// StoredProfile is a UserProfile with its persistence metadata.
type StoredProfile struct {
	UserID    string      `json:"user_id"`
	Profile   UserProfile `json:"profile"`
	UpdatedAt time.Time   `json:"updated_at"`
}
