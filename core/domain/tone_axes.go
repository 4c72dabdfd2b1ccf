package domain

// Axis names a categorical tone axis.
type Axis string

const (
	AxisFormality         Axis = "formality"
	AxisPoliteness        Axis = "politeness"
	AxisCertainty         Axis = "certainty"
	AxisGreeting          Axis = "greeting"
	AxisClosing           Axis = "closing"
	AxisEmojiUsage        Axis = "emoji_usage"
	AxisPassiveVoice      Axis = "passive_voice"
	AxisEmotion           Axis = "emotion"
	AxisDirectness        Axis = "directness"
	AxisSubjectivityLevel Axis = "subjectivity_level"

	// AxisReadability is the single numeric axis.
	AxisReadability Axis = "readability"
)

// CategoricalAxes lists the categorical axes in their canonical order.
var CategoricalAxes = []Axis{
	AxisFormality,
	AxisPoliteness,
	AxisCertainty,
	AxisGreeting,
	AxisClosing,
	AxisEmojiUsage,
	AxisPassiveVoice,
	AxisEmotion,
	AxisDirectness,
	AxisSubjectivityLevel,
}

// Axis values.
const (
	Formal   = "formal"
	Informal = "informal"

	Polite = "polite"
	Blunt  = "blunt"

	Certain = "certain"
	Hedged  = "hedged"

	Present = "present"
	Absent  = "absent"

	EmojiHigh = "high"
	EmojiSome = "some"
	EmojiNone = "none"

	EmotionPositive   = "positive"
	EmotionNeutral    = "neutral"
	EmotionNegative   = "negative"
	EmotionFrustrated = "frustrated"

	Direct   = "direct"
	Indirect = "indirect"

	Personal  = "personal"
	Objective = "objective"
)

// AxisValues is the fixed enumeration of each categorical axis.
var AxisValues = map[Axis][]string{
	AxisFormality:         {Formal, Informal},
	AxisPoliteness:        {Polite, Blunt},
	AxisCertainty:         {Certain, Hedged},
	AxisGreeting:          {Present, Absent},
	AxisClosing:           {Present, Absent},
	AxisEmojiUsage:        {EmojiHigh, EmojiSome, EmojiNone},
	AxisPassiveVoice:      {Present, Absent},
	AxisEmotion:           {EmotionPositive, EmotionNeutral, EmotionNegative, EmotionFrustrated},
	AxisDirectness:        {Direct, Indirect},
	AxisSubjectivityLevel: {Personal, Objective},
}

// IsValidAxisValue reports whether value belongs to the axis enumeration.
func IsValidAxisValue(axis Axis, value string) bool {
	for _, v := range AxisValues[axis] {
		if v == value {
			return true
		}
	}
	return false
}

// ToneAxes is the per-email tone classification. An empty string means the axis is unknown.
type ToneAxes struct {
	Formality         string   `json:"formality,omitempty"`
	Politeness        string   `json:"politeness,omitempty"`
	Certainty         string   `json:"certainty,omitempty"`
	Greeting          string   `json:"greeting,omitempty"`
	Closing           string   `json:"closing,omitempty"`
	Readability       *float64 `json:"readability"`
	EmojiUsage        string   `json:"emoji_usage,omitempty"`
	PassiveVoice      string   `json:"passive_voice,omitempty"`
	Emotion           string   `json:"emotion,omitempty"`
	Directness        string   `json:"directness,omitempty"`
	SubjectivityLevel string   `json:"subjectivity_level,omitempty"`
}

// Value returns the value of a categorical axis.
func (t ToneAxes) Value(axis Axis) string {
	switch axis {
	case AxisFormality:
		return t.Formality
	case AxisPoliteness:
		return t.Politeness
	case AxisCertainty:
		return t.Certainty
	case AxisGreeting:
		return t.Greeting
	case AxisClosing:
		return t.Closing
	case AxisEmojiUsage:
		return t.EmojiUsage
	case AxisPassiveVoice:
		return t.PassiveVoice
	case AxisEmotion:
		return t.Emotion
	case AxisDirectness:
		return t.Directness
	case AxisSubjectivityLevel:
		return t.SubjectivityLevel
	}
	return ""
}

// SetValue sets a categorical axis. Unknown axes are ignored.
func (t *ToneAxes) SetValue(axis Axis, value string) {
	switch axis {
	case AxisFormality:
		t.Formality = value
	case AxisPoliteness:
		t.Politeness = value
	case AxisCertainty:
		t.Certainty = value
	case AxisGreeting:
		t.Greeting = value
	case AxisClosing:
		t.Closing = value
	case AxisEmojiUsage:
		t.EmojiUsage = value
	case AxisPassiveVoice:
		t.PassiveVoice = value
	case AxisEmotion:
		t.Emotion = value
	case AxisDirectness:
		t.Directness = value
	case AxisSubjectivityLevel:
		t.SubjectivityLevel = value
	}
}
