package feature

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tone_server/core/domain"
	"tone_server/pkg/logger"
)

var (
	pipelineOnce sync.Once
	pipeline     *ProsePipeline
	pipelineErr  error
)

func newTestExtractor(t *testing.T, opts ...Option) *Extractor {
	t.Helper()
	pipelineOnce.Do(func() {
		pipeline, pipelineErr = NewProsePipeline()
	})
	require.NoError(t, pipelineErr)

	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	return NewExtractor(MustDefaultLexicon(), pipeline, domain.DefaultThresholds(), opts...)
}

type stubNLP struct {
	ann   *Annotation
	err   error
	panic bool
}

func (s stubNLP) Annotate(string) (*Annotation, error) {
	if s.panic {
		panic("tagger exploded")
	}
	return s.ann, s.err
}

type failingReadability struct{}

func (failingReadability) Readability(string) (float64, float64, error) {
	return 0, 0, errors.New("no syllables")
}

func TestExtract_InputValidation(t *testing.T) {
	e := newTestExtractor(t)

	for _, text := range []string{"", "   ", "\n\t\n"} {
		fs, err := e.Extract(text)
		assert.Nil(t, fs)
		assert.ErrorIs(t, err, ErrInputValidation, "text %q", text)
		assert.NotErrorIs(t, err, ErrExtraction)
	}
}

func TestExtract_GreetingHedgesAndClosing(t *testing.T) {
	e := newTestExtractor(t)

	fs, err := e.Extract("Dear Sam, I think we should possibly delay the launch. Thanks, Alex")
	require.NoError(t, err)

	assert.True(t, fs.GreetingFound)
	assert.True(t, fs.ClosingFound)
	assert.GreaterOrEqual(t, fs.HedgeCount, 1)
	assert.Equal(t, 0, fs.CertaintyCount)
	assert.Equal(t, 1, fs.PolitenessCounts["thanks"])
	assert.Equal(t, 1, fs.TotalPoliteness)
	assert.Equal(t, 1, fs.PronounCounts[domain.PronounI])
	assert.Equal(t, 1, fs.PronounCounts[domain.PronounWe])
	assert.Equal(t, 0, fs.PronounCounts[domain.PronounThey])
	assert.GreaterOrEqual(t, fs.ModalCount, 1)
	assert.Greater(t, fs.WordCount, 0)
	assert.Greater(t, fs.SentenceCount, 0)
	assert.InDelta(t, float64(fs.WordCount)/float64(fs.SentenceCount), fs.AvgSentenceLength, 1e-9)
}

func TestExtract_EmotionalTonePrecedence(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "frustration dominates positive words",
			text: "This is ridiculous! I am so disappointed and frustrated! Great job, totally unacceptable!",
			want: domain.EmotionalToneFrustrated,
		},
		{
			name: "positive",
			text: "Thanks so much, this is great news and I am very happy.",
			want: domain.EmotionalTonePositive,
		},
		{
			name: "negative",
			text: "The quarterly numbers look bad.",
			want: domain.EmotionalToneNegative,
		},
		{
			name: "neutral",
			text: "The meeting moved to room four at noon.",
			want: domain.EmotionalToneNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := e.Extract(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fs.EmotionalTone)
		})
	}
}

func TestExtract_FrustrationScore(t *testing.T) {
	e := newTestExtractor(t)

	fs, err := e.Extract("This delay is terrible! Why is it still broken? Fix it now!!")
	require.NoError(t, err)

	assert.Equal(t, 3, fs.ExclamationCount)
	assert.Equal(t, 1, fs.QuestionCount)
	assert.Less(t, fs.Sentiment, -0.1)
	assert.GreaterOrEqual(t, fs.FrustrationWordCount, 1)

	want := 2*float64(fs.FrustrationWordCount) + 0.5*3 + 2*-fs.Sentiment
	assert.InDelta(t, want, fs.FrustrationScore, 1e-9)
	assert.Greater(t, fs.FrustrationScore, 3.0)
	assert.Equal(t, domain.EmotionalToneFrustrated, fs.EmotionalTone)
}

func TestExtract_LayoutEmojiAndContractions(t *testing.T) {
	e := newTestExtractor(t)

	text := "Quick update:\n- one\n- two\n* three\n\nI can't make it, we're late and it's fine :) 😀😀"
	fs, err := e.Extract(text)
	require.NoError(t, err)

	assert.Equal(t, 3, fs.BulletPoints)
	assert.Equal(t, 5, fs.LineBreaks)
	assert.Equal(t, 1, fs.ParagraphCount)
	assert.Equal(t, 1, fs.EmoticonCount)
	assert.Equal(t, 2, fs.EmojiCount)
	assert.Equal(t, 3, fs.ContractionCount)
}

func TestExtract_CountsAndRatiosBounded(t *testing.T) {
	e := newTestExtractor(t)

	fs, err := e.Extract("You said you would send it. They never did, and we waited. I am still waiting for you.")
	require.NoError(t, err)

	for _, p := range domain.Pronouns {
		r := fs.PronounRatio(p)
		assert.GreaterOrEqual(t, r, 0.0, p)
		assert.LessOrEqual(t, r, 1.0, p)
	}
	assert.Equal(t, 3, fs.PronounCounts[domain.PronounYou])
	assert.Equal(t, 6, fs.TotalPronouns)
	assert.GreaterOrEqual(t, fs.Subjectivity, 0.0)
	assert.LessOrEqual(t, fs.Subjectivity, 1.0)
	assert.GreaterOrEqual(t, fs.Sentiment, -1.0)
	assert.LessOrEqual(t, fs.Sentiment, 1.0)
	assert.NotEmpty(t, fs.CommonWords)
	assert.Equal(t, "you", fs.CommonWords[0].Word)
}

func TestExtract_ZeroWordsGivesZeroRatios(t *testing.T) {
	e := NewExtractor(MustDefaultLexicon(), stubNLP{ann: &Annotation{}}, domain.DefaultThresholds(),
		WithLogger(logger.Nop()), WithReadabilityScorer(failingReadability{}))

	fs, err := e.Extract("...")
	require.NoError(t, err)

	assert.Equal(t, 0, fs.WordCount)
	assert.Equal(t, 0.0, fs.AvgSentenceLength)
	for _, p := range domain.Pronouns {
		assert.Equal(t, 0.0, fs.PronounRatios[p])
	}
}

func TestExtract_ReadabilityFailureYieldsNil(t *testing.T) {
	e := newTestExtractor(t, WithReadabilityScorer(failingReadability{}))

	fs, err := e.Extract("Please review the attached document before Friday.")
	require.NoError(t, err)
	assert.Nil(t, fs.FleschKincaidGrade)
	assert.Nil(t, fs.FleschReadingEase)
}

func TestExtract_ReadabilityComputed(t *testing.T) {
	e := newTestExtractor(t)

	fs, err := e.Extract("Please review the attached document before Friday. Let me know if anything is unclear.")
	require.NoError(t, err)
	require.NotNil(t, fs.FleschKincaidGrade)
	require.NotNil(t, fs.FleschReadingEase)
}

func TestExtract_ExtractionErrors(t *testing.T) {
	tests := []struct {
		name string
		nlp  NLP
	}{
		{name: "pipeline error", nlp: stubNLP{err: errors.New("model missing")}},
		{name: "pipeline panic", nlp: stubNLP{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(MustDefaultLexicon(), tt.nlp, domain.DefaultThresholds(), WithLogger(logger.Nop()))
			fs, err := e.Extract("Hello there")
			assert.Nil(t, fs)
			assert.ErrorIs(t, err, ErrExtraction)
			assert.NotErrorIs(t, err, ErrInputValidation)
		})
	}
}

func TestCountPassives(t *testing.T) {
	tests := []struct {
		name   string
		tokens []Token
		want   int
	}{
		{
			name:   "simple passive",
			tokens: []Token{{"The", "DT"}, {"report", "NN"}, {"was", "VBD"}, {"reviewed", "VBN"}},
			want:   1,
		},
		{
			name:   "negated with adverb",
			tokens: []Token{{"It", "PRP"}, {"was", "VBD"}, {"not", "RB"}, {"quickly", "RB"}, {"approved", "VBN"}},
			want:   1,
		},
		{
			name:   "active voice",
			tokens: []Token{{"We", "PRP"}, {"reviewed", "VBD"}, {"the", "DT"}, {"report", "NN"}},
			want:   0,
		},
		{
			name:   "be followed by noun",
			tokens: []Token{{"It", "PRP"}, {"is", "VBZ"}, {"a", "DT"}, {"plan", "NN"}},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countPassives(tt.tokens))
		})
	}
}

func TestLexiconSentiment(t *testing.T) {
	s := NewLexiconSentiment(MustDefaultLexicon())

	tests := []struct {
		name     string
		tokens   []string
		polarity float64
	}{
		{name: "plain", tokens: []string{"good"}, polarity: 0.7},
		{name: "negated", tokens: []string{"not", "good"}, polarity: -0.35},
		{name: "intensified", tokens: []string{"very", "bad"}, polarity: -0.91},
		{name: "negation reset by punctuation", tokens: []string{"not", "now", ",", "good"}, polarity: 0.7},
		{name: "no hits", tokens: []string{"the", "meeting"}, polarity: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := make([]Token, len(tt.tokens))
			for i, w := range tt.tokens {
				toks[i] = Token{Text: w}
			}
			p, subj := s.Score("", toks)
			assert.InDelta(t, tt.polarity, p, 1e-9)
			assert.GreaterOrEqual(t, subj, 0.0)
			assert.LessOrEqual(t, subj, 1.0)
		})
	}
}

func TestVaderSentiment_OffLexiconWords(t *testing.T) {
	e := newTestExtractor(t)

	neg, err := e.Extract("The results were dreadful and the service was miserable. What a disaster.")
	require.NoError(t, err)
	assert.Less(t, neg.Sentiment, -0.3)
	assert.Greater(t, neg.Subjectivity, 0.0)

	pos, err := e.Extract("Your presentation was brilliant, superb and delightful.")
	require.NoError(t, err)
	assert.Greater(t, pos.Sentiment, 0.3)
	assert.Greater(t, pos.Subjectivity, 0.0)
	assert.LessOrEqual(t, pos.Subjectivity, 1.0)
}

func TestVaderSentiment_Score(t *testing.T) {
	s := NewVaderSentiment(MustDefaultLexicon())

	p, subj := s.Score("The meeting is at noon.", []Token{{Text: "The"}, {Text: "meeting"}, {Text: "is"}, {Text: "at"}, {Text: "noon"}, {Text: "."}})
	assert.InDelta(t, 0.0, p, 1e-9)
	assert.InDelta(t, 0.0, subj, 1e-9)

	p, _ = s.Score("This is not good.", []Token{{Text: "This"}, {Text: "is"}, {Text: "not"}, {Text: "good"}, {Text: "."}})
	assert.Less(t, p, 0.0)
}

func TestExtract_LowercasePronounI(t *testing.T) {
	e := newTestExtractor(t)

	fs, err := e.Extract("i think you are right and i will call them tomorrow.")
	require.NoError(t, err)

	assert.Equal(t, 2, fs.PronounCounts[domain.PronounI])
	assert.Equal(t, 1, fs.PronounCounts[domain.PronounYou])
	assert.Equal(t, 0, fs.PronounCounts[domain.PronounThey])
	assert.Equal(t, 3, fs.TotalPronouns)
}

func TestExtract_GreetingRequiresLeadingPosition(t *testing.T) {
	e := newTestExtractor(t)

	fs, err := e.Extract("  hi there, the report is attached")
	require.NoError(t, err)
	assert.False(t, fs.GreetingFound)

	fs, err = e.Extract("hi there, the report is attached")
	require.NoError(t, err)
	assert.True(t, fs.GreetingFound)

	fs, err = e.Extract("The report is attached. Thanks\n\n")
	require.NoError(t, err)
	assert.True(t, fs.ClosingFound)
}
