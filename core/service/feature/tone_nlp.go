package feature

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Token is a tagged word as produced by the NLP pipeline.
type Token struct {
	Text string
	Tag  string // Penn Treebank tag
}

// Annotation is the tokenized, tagged and sentence-split form of a text.
type Annotation struct {
	Tokens    []Token
	Sentences []string
}

// NLP tokenizes, tags and segments text.
type NLP interface {
	Annotate(text string) (*Annotation, error)
}

// ProsePipeline is the NLP implementation backed by prose. The tagging model is
// loaded once in NewProsePipeline and shared by every Annotate call.
type ProsePipeline struct {
	model *prose.Model
}

// NewProsePipeline loads the tagger model. Call it once at startup.
func NewProsePipeline() (*ProsePipeline, error) {
	seed, err := prose.NewDocument("Model warm up.", prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("load prose model: %w", err)
	}
	return &ProsePipeline{model: seed.Model}, nil
}

func (p *ProsePipeline) Annotate(text string) (*Annotation, error) {
	doc, err := prose.NewDocument(text,
		prose.UsingModel(p.model),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}

	toks := doc.Tokens()
	ann := &Annotation{Tokens: make([]Token, 0, len(toks))}
	for _, t := range toks {
		ann.Tokens = append(ann.Tokens, Token{Text: t.Text, Tag: t.Tag})
	}
	for _, s := range doc.Sentences() {
		if strings.TrimSpace(s.Text) != "" {
			ann.Sentences = append(ann.Sentences, s.Text)
		}
	}
	return ann, nil
}

// modalLemmas maps clitic and contracted modal forms to their lemma.
var modalLemmas = map[string]string{
	"ca":  "can",
	"wo":  "will",
	"'ll": "will",
	"'d":  "would",
	"sha": "shall",
}

func modalLemma(word string) string {
	w := strings.ToLower(word)
	if l, ok := modalLemmas[w]; ok {
		return l
	}
	return w
}

func isVerbTag(tag string) bool {
	return tag == "MD" || strings.HasPrefix(tag, "VB")
}

func isAdverbTag(tag string) bool {
	return strings.HasPrefix(tag, "RB")
}

var beForms = map[string]struct{}{
	"am": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {},
	"'m": {}, "'re": {}, "'s": {},
}

// countPassives counts be-auxiliary + past-participle constructions,
// allowing up to two adverbs or a negation between them ("was not quickly reviewed").
func countPassives(tokens []Token) int {
	count := 0
	for i := 0; i < len(tokens); i++ {
		if _, ok := beForms[strings.ToLower(tokens[i].Text)]; !ok {
			continue
		}
		for j, skipped := i+1, 0; j < len(tokens) && skipped <= 2; j++ {
			t := tokens[j]
			if t.Tag == "VBN" {
				count++
				i = j
				break
			}
			lw := strings.ToLower(t.Text)
			if !isAdverbTag(t.Tag) && lw != "not" && lw != "n't" {
				break
			}
			skipped++
		}
	}
	return count
}
