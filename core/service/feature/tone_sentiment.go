package feature

import (
	"strings"
	"unicode"

	"github.com/jonreiter/govader"
)

// SentimentScorer returns polarity in -1..1 and subjectivity in 0..1.
type SentimentScorer interface {
	Score(text string, tokens []Token) (polarity, subjectivity float64)
}

// VaderSentiment takes polarity from the VADER compound score and
// subjectivity from the lexicon. VADER has no subjectivity measure; when no
// lexicon word matches, the non-neutral share of the VADER scores stands in.
type VaderSentiment struct {
	analyzer *govader.SentimentIntensityAnalyzer
	lexicon  *LexiconSentiment
}

func NewVaderSentiment(lex *Lexicon) *VaderSentiment {
	return &VaderSentiment{
		analyzer: govader.NewSentimentIntensityAnalyzer(),
		lexicon:  NewLexiconSentiment(lex),
	}
}

func (s *VaderSentiment) Score(text string, tokens []Token) (float64, float64) {
	scores := s.analyzer.PolarityScores(text)
	polarity := clamp(scores.Compound, -1, 1)

	_, subj, hits := s.lexicon.score(tokens)
	if hits == 0 {
		subj = 1 - scores.Neutral
	}
	return polarity, clamp(subj, 0, 1)
}

// LexiconSentiment averages word-level lexicon scores, scaling a word by a
// preceding intensifier and flipping it when a negation occurs within the
// previous three words of the same clause.
type LexiconSentiment struct {
	lex *Lexicon
}

func NewLexiconSentiment(lex *Lexicon) *LexiconSentiment {
	return &LexiconSentiment{lex: lex}
}

const negationWindow = 3

func (s *LexiconSentiment) Score(_ string, tokens []Token) (float64, float64) {
	p, subj, _ := s.score(tokens)
	return p, subj
}

func (s *LexiconSentiment) score(tokens []Token) (polarity, subjectivity float64, hits int) {
	var (
		polSum, subjSum float64
		sinceNegation   = -1
		intensity       = 1.0
	)

	for _, tok := range tokens {
		w := strings.ToLower(tok.Text)

		if isClauseBreak(w) {
			sinceNegation = -1
			intensity = 1.0
			continue
		}
		if s.lex.IsNegation(w) {
			sinceNegation = 0
			continue
		}

		entry, scored := s.lex.Sentiment[w]
		mul, intensifies := s.lex.Intensifiers[w]

		if scored {
			p := entry.Polarity * intensity
			subj := entry.Subjectivity * intensity
			if sinceNegation >= 0 && sinceNegation < negationWindow {
				p *= -0.5
			}
			polSum += clamp(p, -1, 1)
			subjSum += clamp(subj, 0, 1)
			hits++
			intensity = 1.0
		} else if intensifies {
			intensity = mul
		} else {
			intensity = 1.0
		}

		if sinceNegation >= 0 {
			sinceNegation++
		}
	}

	if hits == 0 {
		return 0, 0, 0
	}
	return clamp(polSum/float64(hits), -1, 1), clamp(subjSum/float64(hits), 0, 1), hits
}

func isClauseBreak(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsPunct(r) || r == '\'' {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
