package domain

// AxisMismatch records one axis where generated text diverges from the profile.
// Expected and Actual are strings for categorical axes and numbers for readability.
type AxisMismatch struct {
	Axis       string   `json:"axis"`
	Expected   any      `json:"expected"`
	Actual     any      `json:"actual"`
	Difference *float64 `json:"difference,omitempty"`
}

// ValidationReport compares generated text against a user's main profile.
type ValidationReport struct {
	OverallMatch      float64        `json:"overall_match"`
	MatchedAxes       []string       `json:"matched_axes"`
	MismatchedAxes    []AxisMismatch `json:"mismatched_axes"`
	Suggestions       []string       `json:"suggestions"`
	GeneratedToneAxes *ToneAxes      `json:"generated_tone_axes,omitempty"`
	Error             string         `json:"error,omitempty"`
}

// DraftRequest is a user draft to rewrite in the user's own style.
type DraftRequest struct {
	Subject string   `json:"subject"`
	Content string   `json:"content"`
	To      []string `json:"to,omitempty"`
	CC      []string `json:"cc,omitempty"`
}

// ImprovedDraft is the rewritten draft with its style validation.
type ImprovedDraft struct {
	Subject      string           `json:"subject"`
	Email        string           `json:"email"`
	Cluster      string           `json:"cluster"`
	ParsingError string           `json:"parsing_error,omitempty"`
	Attempts     int              `json:"attempts"`
	Validation   ValidationReport `json:"validation"`
}
