package scoring

import (
	"context"
	"math"
	"regexp"
	"strings"
)

// Runs of two or more word characters, the usual default token pattern.
var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// TfIdfScorer fits a TF-IDF space on exactly the student and reference answers
// and reports the cosine similarity of the two document vectors. The question
// text is ignored.
type TfIdfScorer struct{}

func NewTfIdfScorer() *TfIdfScorer { return &TfIdfScorer{} }

func (s *TfIdfScorer) Name() string { return StrategyTfIdf }

func (s *TfIdfScorer) Attempt(_ context.Context, texts Texts) (int, error) {
	similarity, err := TfIdfCosine(texts.Student, texts.Reference)
	if err != nil {
		return 0, err
	}
	return toPercent(similarity), nil
}

// TfIdfCosine returns the cosine similarity in [0,1] of the TF-IDF vectors of
// a and b, using raw term counts, smoothed idf and L2 normalization. It
// returns ErrEmptyVocabulary when neither text contains a term.
func TfIdfCosine(a, b string) (float64, error) {
	docs := []map[string]int{termCounts(a), termCounts(b)}

	df := make(map[string]int)
	for _, doc := range docs {
		for term := range doc {
			df[term]++
		}
	}
	if len(df) == 0 {
		return 0, ErrEmptyVocabulary
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	vecA := weigh(docs[0], idf)
	vecB := weigh(docs[1], idf)
	normA, normB := norm(vecA), norm(vecB)
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	var dot float64
	for term, wa := range vecA {
		dot += wa * vecB[term]
	}
	similarity := dot / (normA * normB)
	// Guard against 1.0000000002 and friends.
	return math.Max(0, math.Min(1, similarity)), nil
}

func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, term := range termPattern.FindAllString(strings.ToLower(text), -1) {
		counts[term]++
	}
	return counts
}

func weigh(counts map[string]int, idf map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(counts))
	for term, c := range counts {
		vec[term] = float64(c) * idf[term]
	}
	return vec
}

func norm(vec map[string]float64) float64 {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	return math.Sqrt(sum)
}
