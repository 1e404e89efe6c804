package similarity

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/spigell/talent-matcher/internal/domain"
)

const minTokenLen = 2

// vectorSpace is a tf-idf model fitted on a small corpus of short documents.
type vectorSpace struct {
	vocabulary map[string]int
	idf        []float64
}

// fit builds the vocabulary and smoothed idf weights. It fails with ErrDegenerateComputation when the
// corpus has fewer than two distinct terms.
func fit(docs [][]string) (*vectorSpace, error) {
	vocabulary := make(map[string]int)
	df := make([]int, 0, 16)

	for _, tokens := range docs {
		seen := make(map[int]struct{}, len(tokens))
		for _, token := range tokens {
			idx, ok := vocabulary[token]
			if !ok {
				idx = len(vocabulary)
				vocabulary[token] = idx
				df = append(df, 0)
			}
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			df[idx]++
		}
	}

	if len(vocabulary) < 2 {
		return nil, fmt.Errorf("%w: corpus has %d distinct terms", domain.ErrDegenerateComputation, len(vocabulary))
	}

	n := float64(len(docs))
	idf := make([]float64, len(df))
	for i, count := range df {
		idf[i] = math.Log((1+n)/(1+float64(count))) + 1
	}

	return &vectorSpace{vocabulary: vocabulary, idf: idf}, nil
}

// transform returns the L2-normalised tf-idf vector of the tokens. Unknown or absent tokens give a zero vector.
func (vs *vectorSpace) transform(tokens []string) []float64 {
	vec := make([]float64, len(vs.idf))
	for _, token := range tokens {
		if idx, ok := vs.vocabulary[token]; ok {
			vec[idx]++
		}
	}

	var norm float64
	for i := range vec {
		vec[i] *= vs.idf[i]
		norm += vec[i] * vec[i]
	}
	if norm == 0 {
		return vec
	}

	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// cosine assumes both vectors are L2-normalised or zero.
func cosine(a, b []float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	if math.IsNaN(dot) {
		return 0
	}
	return math.Min(1, math.Max(0, dot))
}

func tokenize(s string) []string {
	if s == "" {
		return nil
	}

	out := make([]string, 0, 4)
	var b strings.Builder
	flush := func() {
		if b.Len() == 0 {
			return
		}
		if token := b.String(); len([]rune(token)) >= minTokenLen {
			out = append(out, token)
		}
		b.Reset()
	}

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()

	return out
}
