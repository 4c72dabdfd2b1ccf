// Package feature extracts linguistic and stylistic features from email text.
package feature

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/forPelevin/gomoji"

	"tone_server/core/domain"
	"tone_server/pkg/logger"
)

var (
	contractionRe = regexp.MustCompile(`(?i)\b(?:[a-z]+n['’]t|[a-z]+['’](?:m|re|ve|ll|d|s))\b`)
	emoticonRe    = regexp.MustCompile(`[:;=8][\-o\*']?[\)\]\(\[dDpP/\\:}{@|]`)
	bulletRe      = regexp.MustCompile(`(?m)^\s*[-*•]\s+`)
)

const commonWordLimit = 10

// Extractor turns a cleaned email body into a FeatureSet.
// It holds only read-only state and is safe for concurrent use.
type Extractor struct {
	lex         *Lexicon
	nlp         NLP
	sentiment   SentimentScorer
	readability ReadabilityScorer
	th          domain.Thresholds
	log         *logger.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

func WithSentimentScorer(s SentimentScorer) Option {
	return func(e *Extractor) { e.sentiment = s }
}

func WithReadabilityScorer(r ReadabilityScorer) Option {
	return func(e *Extractor) { e.readability = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Extractor) { e.log = l }
}

func NewExtractor(lex *Lexicon, nlp NLP, th domain.Thresholds, opts ...Option) *Extractor {
	e := &Extractor{
		lex:         lex,
		nlp:         nlp,
		sentiment:   NewVaderSentiment(lex),
		readability: ProseReadability{},
		th:          th,
		log:         logger.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract computes the FeatureSet of text.
// Empty or whitespace-only text fails with ErrInputValidation; any other
// failure is reported as ErrExtraction wrapping the cause.
func (e *Extractor) Extract(text string) (fs *domain.FeatureSet, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInputValidation)
	}

	defer func() {
		if r := recover(); r != nil {
			fs = nil
			err = fmt.Errorf("%w: %v", ErrExtraction, r)
		}
	}()

	ann, err := e.nlp.Annotate(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	lowered := strings.ToLower(text)
	fs = &domain.FeatureSet{}

	// Structure
	fs.WordCount = len(ann.Tokens)
	fs.SentenceCount = len(ann.Sentences)
	if fs.SentenceCount > 0 {
		fs.AvgSentenceLength = float64(fs.WordCount) / float64(fs.SentenceCount)
	}
	fs.CommonWords = commonWords(ann.Tokens, commonWordLimit)
	fs.POSCounts = posCounts(ann.Tokens)

	// Sentiment
	fs.Sentiment, fs.Subjectivity = e.sentiment.Score(text, ann.Tokens)

	// Punctuation
	fs.ExclamationCount = strings.Count(text, "!")
	fs.QuestionCount = strings.Count(text, "?")
	fs.ParagraphCount = strings.Count(text, "\n\n")

	// Politeness
	fs.PolitenessCounts = make(map[string]int, len(e.lex.PolitenessMarkers))
	for _, marker := range e.lex.PolitenessMarkers {
		n := strings.Count(lowered, marker)
		fs.PolitenessCounts[marker] = n
		fs.TotalPoliteness += n
	}

	fs.ContractionCount = len(contractionRe.FindAllStringIndex(text, -1))

	// Pronouns
	fs.PronounCounts = pronounCounts(ann.Tokens)
	fs.PronounRatios = make(map[string]float64, len(domain.Pronouns))
	for _, p := range domain.Pronouns {
		fs.TotalPronouns += fs.PronounCounts[p]
		if fs.WordCount > 0 {
			fs.PronounRatios[p] = float64(fs.PronounCounts[p]) / float64(fs.WordCount)
		} else {
			fs.PronounRatios[p] = 0
		}
	}

	// Certainty
	fs.HedgeCount = countPhrases(lowered, e.lex.Hedges)
	fs.CertaintyCount = countPhrases(lowered, e.lex.Certainty)

	// Grammar
	for _, t := range ann.Tokens {
		if isVerbTag(t.Tag) && e.lex.IsModal(modalLemma(t.Text)) {
			fs.ModalCount++
		}
	}
	fs.PassiveCount = countPassives(ann.Tokens)

	// Greeting and closing
	for _, g := range e.lex.Greetings {
		if strings.HasPrefix(lowered, g) {
			fs.GreetingFound = true
			break
		}
	}
	tail := lastRunes(lowered, e.th.ClosingWindow)
	for _, c := range e.lex.Closings {
		if strings.Contains(tail, c) {
			fs.ClosingFound = true
			break
		}
	}

	// Readability
	ease, grade, rerr := scoreReadability(e.readability, text)
	if rerr != nil {
		e.log.Debug("[Extractor.Extract] readability unavailable: %v", rerr)
	}
	fs.FleschReadingEase = ease
	fs.FleschKincaidGrade = grade

	// Emoticons and emoji
	fs.EmoticonCount = len(emoticonRe.FindAllStringIndex(text, -1))
	fs.EmojiCount = len(gomoji.CollectAll(text))

	// Layout
	fs.BulletPoints = len(bulletRe.FindAllStringIndex(text, -1))
	fs.LineBreaks = strings.Count(text, "\n")

	// Emotion
	fs.PositiveWordCount = countPhrases(lowered, e.lex.PositiveWords)
	fs.NegativeWordCount = countPhrases(lowered, e.lex.NegativeWords)
	fs.FrustrationWordCount = countPhrases(lowered, e.lex.FrustrationWords)
	fs.FrustrationScore = e.frustrationScore(fs)
	fs.EmotionalTone = e.emotionalTone(fs)

	return fs, nil
}

func (e *Extractor) frustrationScore(fs *domain.FeatureSet) float64 {
	score := e.th.FrustrationWordScore*float64(fs.FrustrationWordCount) +
		e.th.ExclamationScore*float64(fs.ExclamationCount)
	if fs.Sentiment < 0 {
		score += e.th.NegativeSentimentMul * -fs.Sentiment
	}
	return score
}

// emotionalTone applies fixed precedence: frustration first, then positive, then negative.
func (e *Extractor) emotionalTone(fs *domain.FeatureSet) string {
	switch {
	case fs.FrustrationScore > e.th.FrustrationTone:
		return domain.EmotionalToneFrustrated
	case fs.Sentiment > e.th.ToneSentimentCutoff && fs.PositiveWordCount > 0:
		return domain.EmotionalTonePositive
	case fs.Sentiment < -e.th.ToneSentimentCutoff && fs.NegativeWordCount > 0:
		return domain.EmotionalToneNegative
	default:
		return domain.EmotionalToneNeutral
	}
}

// pronounCounts case-folds every token; "i" and "I" both count under the "I" key.
func pronounCounts(tokens []Token) map[string]int {
	counts := make(map[string]int, len(domain.Pronouns))
	for _, p := range domain.Pronouns {
		counts[p] = 0
	}
	for _, t := range tokens {
		switch strings.ToLower(t.Text) {
		case "i":
			counts[domain.PronounI]++
		case domain.PronounWe:
			counts[domain.PronounWe]++
		case domain.PronounYou:
			counts[domain.PronounYou]++
		case domain.PronounThey:
			counts[domain.PronounThey]++
		}
	}
	return counts
}

func commonWords(tokens []Token, limit int) []domain.WordCount {
	counts := make(map[string]int)
	var order []string
	for _, t := range tokens {
		if !isAlphaWord(t.Text) {
			continue
		}
		w := strings.ToLower(t.Text)
		if _, seen := counts[w]; !seen {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}

	out := make([]domain.WordCount, 0, len(order))
	for _, w := range order {
		out = append(out, domain.WordCount{Word: w, Count: counts[w]})
	}
	return out
}

func posCounts(tokens []Token) map[string]int {
	counts := make(map[string]int)
	for _, t := range tokens {
		if t.Tag != "" {
			counts[t.Tag]++
		}
	}
	return counts
}

func isAlphaWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
