package domain

import "github.com/goccy/go-json"

// Pronoun keys used in FeatureSet.PronounCounts and PronounRatios.
const (
	PronounI    = "I"
	PronounWe   = "we"
	PronounYou  = "you"
	PronounThey = "they"
)

// Pronouns lists the tracked pronoun keys in output order.
var Pronouns = []string{PronounI, PronounWe, PronounYou, PronounThey}

// Emotional tones derived by the feature extractor.
const (
	EmotionalToneFrustrated = "frustrated"
	EmotionalTonePositive   = "positive"
	EmotionalToneNegative   = "negative"
	EmotionalToneNeutral    = "neutral"
)

// WordCount is one entry of the most common words list.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// FeatureSet is the flat bag of linguistic measurements extracted from one email body.
type FeatureSet struct {
	// Structure
	WordCount         int            `json:"word_count"`
	SentenceCount     int            `json:"sentence_count"`
	ParagraphCount    int            `json:"paragraph_count"`
	AvgSentenceLength float64        `json:"avg_sentence_length"`
	CommonWords       []WordCount    `json:"common_words,omitempty"`
	POSCounts         map[string]int `json:"pos_counts,omitempty"`

	// Sentiment
	Sentiment    float64 `json:"sentiment"`    // -1..1
	Subjectivity float64 `json:"subjectivity"` // 0..1

	// Punctuation
	ExclamationCount int `json:"exclamation_count"`
	QuestionCount    int `json:"question_count"`

	// Politeness
	PolitenessCounts map[string]int `json:"politeness_counts"`
	TotalPoliteness  int            `json:"total_politeness"`

	ContractionCount int `json:"contraction_count"`

	// Pronouns
	PronounCounts map[string]int     `json:"pronoun_counts"`
	PronounRatios map[string]float64 `json:"pronoun_ratios"`
	TotalPronouns int                `json:"total_pronouns"`

	// Hedging / modality
	HedgeCount     int `json:"hedge_count"`
	CertaintyCount int `json:"certainty_count"`
	ModalCount     int `json:"modal_count"`
	PassiveCount   int `json:"passive_count"`

	GreetingFound bool `json:"greeting_found"`
	ClosingFound  bool `json:"closing_found"`

	// Readability, nil when the scorer failed
	FleschReadingEase  *float64 `json:"flesch_reading_ease"`
	FleschKincaidGrade *float64 `json:"flesch_kincaid_grade"`

	EmoticonCount int `json:"emoticon_count"`
	EmojiCount    int `json:"emoji_count"`

	// Layout
	BulletPoints int `json:"bullet_points"`
	LineBreaks   int `json:"line_breaks"`

	// Emotion lexicon
	PositiveWordCount    int     `json:"positive_word_count"`
	NegativeWordCount    int     `json:"negative_word_count"`
	FrustrationWordCount int     `json:"frustration_word_count"`
	FrustrationScore     float64 `json:"frustration_score"`
	EmotionalTone        string  `json:"emotional_tone"`
}

// PronounRatio returns the ratio for a pronoun key, 0 when absent.
func (f *FeatureSet) PronounRatio(key string) float64 {
	if f == nil || f.PronounRatios == nil {
		return 0
	}
	return f.PronounRatios[key]
}

// PolitenessTotal sums the per-marker politeness counts.
// Falls back to TotalPoliteness when no per-marker counts were recorded.
func (f *FeatureSet) PolitenessTotal() int {
	if len(f.PolitenessCounts) == 0 {
		return f.TotalPoliteness
	}
	total := 0
	for _, c := range f.PolitenessCounts {
		total += c
	}
	return total
}

// UnmarshalJSON applies the documented defaults for keys missing from stored feature sets.
func (f *FeatureSet) UnmarshalJSON(data []byte) error {
	type featureSetAlias FeatureSet
	aux := featureSetAlias{Subjectivity: DefaultThresholds().DefaultSubjectivity}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*f = FeatureSet(aux)
	return nil
}
