// Package tone maps extracted features onto the categorical tone axes.
package tone

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"tone_server/core/domain"
)

// ErrClassification is returned when the features cannot be classified.
var ErrClassification = errors.New("tone classification")

// Classifier applies fixed threshold rules to a FeatureSet. It is stateless
// apart from its thresholds and safe for concurrent use.
type Classifier struct {
	th domain.Thresholds
}

func NewClassifier(th domain.Thresholds) *Classifier {
	return &Classifier{th: th}
}

// Classify derives ToneAxes from features. Identical input always yields identical output.
func (c *Classifier) Classify(fs *domain.FeatureSet) (domain.ToneAxes, error) {
	if fs == nil {
		return domain.ToneAxes{}, fmt.Errorf("%w: features are nil", ErrClassification)
	}

	axes := domain.ToneAxes{
		Formality:         c.formality(fs),
		Politeness:        presence(fs.PolitenessTotal() > 0, domain.Polite, domain.Blunt),
		Certainty:         presence(fs.CertaintyCount > fs.HedgeCount, domain.Certain, domain.Hedged),
		Greeting:          presence(fs.GreetingFound, domain.Present, domain.Absent),
		Closing:           presence(fs.ClosingFound, domain.Present, domain.Absent),
		EmojiUsage:        c.emojiUsage(fs),
		PassiveVoice:      presence(fs.PassiveCount > 0, domain.Present, domain.Absent),
		Emotion:           c.emotion(fs),
		Directness:        c.directness(fs),
		SubjectivityLevel: presence(fs.Subjectivity > c.th.PersonalSubjectivity, domain.Personal, domain.Objective),
	}
	if fs.FleschKincaidGrade != nil {
		grade := *fs.FleschKincaidGrade
		axes.Readability = &grade
	}
	return axes, nil
}

// ClassifyJSON decodes a stored feature document and classifies it.
// Missing keys take their documented defaults.
func (c *Classifier) ClassifyJSON(data []byte) (domain.ToneAxes, error) {
	var fs domain.FeatureSet
	if err := json.Unmarshal(data, &fs); err != nil {
		return domain.ToneAxes{}, fmt.Errorf("%w: %w", ErrClassification, err)
	}
	return c.Classify(&fs)
}

// FormalityScore sums the signed formality votes. Positive means formal.
func (c *Classifier) FormalityScore(fs *domain.FeatureSet) int {
	score := 0
	score += vote(fs.ContractionCount < c.th.ContractionLimit)
	score += vote(fs.AvgSentenceLength > c.th.LongSentence)
	if fs.FleschKincaidGrade != nil {
		score += vote(*fs.FleschKincaidGrade > c.th.FormalGrade)
	}
	score += vote(fs.PassiveCount > 0)
	score += vote(fs.GreetingFound && fs.ClosingFound)
	if fs.EmojiCount > 0 || fs.EmoticonCount > 0 {
		score--
	}
	return score
}

func (c *Classifier) formality(fs *domain.FeatureSet) string {
	return presence(c.FormalityScore(fs) > 0, domain.Formal, domain.Informal)
}

func (c *Classifier) emojiUsage(fs *domain.FeatureSet) string {
	switch {
	case fs.EmojiCount > c.th.EmojiHigh:
		return domain.EmojiHigh
	case fs.EmojiCount > 0 || fs.EmoticonCount > 0:
		return domain.EmojiSome
	default:
		return domain.EmojiNone
	}
}

func (c *Classifier) emotion(fs *domain.FeatureSet) string {
	if fs.ExclamationCount > c.th.FrustrationExclamations && fs.Sentiment < c.th.FrustrationSentiment {
		return domain.EmotionFrustrated
	}
	switch {
	case fs.Sentiment > c.th.SentimentPositive:
		return domain.EmotionPositive
	case fs.Sentiment < c.th.SentimentNegative:
		return domain.EmotionNegative
	default:
		return domain.EmotionNeutral
	}
}

// DirectnessScore is +1 for frequent "you", -1 for heavy modal use and -1 for repeated hedging.
func (c *Classifier) DirectnessScore(fs *domain.FeatureSet) int {
	score := 0
	if fs.PronounRatio(domain.PronounYou) > c.th.DirectYouRatio {
		score++
	}
	if fs.ModalCount > c.th.IndirectModalLimit {
		score--
	}
	if fs.HedgeCount > c.th.IndirectHedgeLimit {
		score--
	}
	return score
}

func (c *Classifier) directness(fs *domain.FeatureSet) string {
	return presence(c.DirectnessScore(fs) > 0, domain.Direct, domain.Indirect)
}

func vote(formal bool) int {
	if formal {
		return 1
	}
	return -1
}

func presence(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
