package feature

import (
	"fmt"
	"math"

	"github.com/jdkato/prose/summarize"
)

// ReadabilityScorer computes the Flesch reading ease and Flesch-Kincaid grade.
type ReadabilityScorer interface {
	Readability(text string) (ease, grade float64, err error)
}

// ProseReadability scores text with prose's summarize package.
type ProseReadability struct{}

func (ProseReadability) Readability(text string) (ease, grade float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("readability panic: %v", r)
		}
	}()

	doc := summarize.NewDocument(text)
	if doc.NumWords == 0 || doc.NumSentences == 0 {
		return 0, 0, fmt.Errorf("readability: no words or sentences")
	}
	return doc.FleschReadingEase(), doc.FleschKincaid(), nil
}

// scoreReadability never fails: any error or non-finite score yields nil for both values.
func scoreReadability(r ReadabilityScorer, text string) (ease, grade *float64, err error) {
	e, g, err := r.Readability(text)
	if err != nil {
		return nil, nil, err
	}
	if !isFinite(e) || !isFinite(g) {
		return nil, nil, fmt.Errorf("readability: non-finite score")
	}
	e = roundTo(e, 2)
	g = roundTo(g, 1)
	return &e, &g, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
