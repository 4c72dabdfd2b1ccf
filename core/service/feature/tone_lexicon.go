package feature

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tone_lexicon.yaml
var defaultLexiconYAML []byte

// SentimentEntry is the polarity/subjectivity pair for one lexicon word.
type SentimentEntry struct {
	Polarity     float64 `yaml:"polarity"`
	Subjectivity float64 `yaml:"subjectivity"`
}

// Lexicon holds every pattern list the extractor matches against.
// It is loaded once at startup and treated as read-only afterwards.
type Lexicon struct {
	PolitenessMarkers []string                  `yaml:"politeness_markers"`
	Hedges            []string                  `yaml:"hedges"`
	Certainty         []string                  `yaml:"certainty"`
	ModalVerbs        []string                  `yaml:"modal_verbs"`
	Greetings         []string                  `yaml:"greetings"`
	Closings          []string                  `yaml:"closings"`
	PositiveWords     []string                  `yaml:"positive_words"`
	NegativeWords     []string                  `yaml:"negative_words"`
	FrustrationWords  []string                  `yaml:"frustration_words"`
	Sentiment         map[string]SentimentEntry `yaml:"sentiment"`
	Intensifiers      map[string]float64        `yaml:"intensifiers"`
	Negations         []string                  `yaml:"negations"`

	modalSet    map[string]struct{}
	negationSet map[string]struct{}
}

// DefaultLexicon returns the embedded English lexicon.
func DefaultLexicon() (*Lexicon, error) {
	return ParseLexicon(defaultLexiconYAML)
}

// MustDefaultLexicon is DefaultLexicon for package initialization and tests.
func MustDefaultLexicon() *Lexicon {
	lex, err := DefaultLexicon()
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return lex
}

// LoadLexicon reads a lexicon from path. An empty path yields the embedded default.
// Lists missing from the file fall back to the default lists.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}

	override, err := ParseLexicon(data)
	if err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}

	base, err := DefaultLexicon()
	if err != nil {
		return nil, err
	}
	return base.merge(override), nil
}

// ParseLexicon decodes a YAML lexicon document.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, err
	}
	lex.normalize()
	return &lex, nil
}

func (l *Lexicon) normalize() {
	lists := []*[]string{
		&l.PolitenessMarkers, &l.Hedges, &l.Certainty, &l.ModalVerbs,
		&l.Greetings, &l.Closings, &l.PositiveWords, &l.NegativeWords,
		&l.FrustrationWords, &l.Negations,
	}
	for _, list := range lists {
		for i, s := range *list {
			(*list)[i] = strings.ToLower(strings.TrimSpace(s))
		}
	}

	if l.Sentiment != nil {
		lowered := make(map[string]SentimentEntry, len(l.Sentiment))
		for w, e := range l.Sentiment {
			lowered[strings.ToLower(w)] = e
		}
		l.Sentiment = lowered
	}

	l.modalSet = toSet(l.ModalVerbs)
	l.negationSet = toSet(l.Negations)
}

func (l *Lexicon) merge(o *Lexicon) *Lexicon {
	out := *l
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	pick(&out.PolitenessMarkers, o.PolitenessMarkers)
	pick(&out.Hedges, o.Hedges)
	pick(&out.Certainty, o.Certainty)
	pick(&out.ModalVerbs, o.ModalVerbs)
	pick(&out.Greetings, o.Greetings)
	pick(&out.Closings, o.Closings)
	pick(&out.PositiveWords, o.PositiveWords)
	pick(&out.NegativeWords, o.NegativeWords)
	pick(&out.FrustrationWords, o.FrustrationWords)
	pick(&out.Negations, o.Negations)
	if len(o.Sentiment) > 0 {
		out.Sentiment = o.Sentiment
	}
	if len(o.Intensifiers) > 0 {
		out.Intensifiers = o.Intensifiers
	}
	out.normalize()
	return &out
}

// IsModal reports whether the lower-cased lemma is a modal verb.
func (l *Lexicon) IsModal(lemma string) bool {
	_, ok := l.modalSet[lemma]
	return ok
}

// IsNegation reports whether the lower-cased token negates what follows.
func (l *Lexicon) IsNegation(token string) bool {
	_, ok := l.negationSet[token]
	return ok
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// countPhrases sums non-overlapping substring occurrences of each phrase in lowered text.
func countPhrases(lowered string, phrases []string) int {
	total := 0
	for _, p := range phrases {
		if p == "" {
			continue
		}
		total += strings.Count(lowered, p)
	}
	return total
}
