package similarity

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/spigell/talent-matcher/internal/domain"
)

func TestRankWithoutInterestsIsNoop(t *testing.T) {
	t.Parallel()

	skills := []string{"Go", "SQL", "Kubernetes", "Go"}
	ranking := Rank(skills, nil)

	if !reflect.DeepEqual(ranking.Skills, skills) {
		t.Fatalf("expected skills unchanged, got %v", ranking.Skills)
	}
	for _, s := range skills {
		if ranking.Weight(s) != 1.0 {
			t.Fatalf("expected weight 1.0 for %q, got %v", s, ranking.Weight(s))
		}
	}

	ranking.Skills[0] = "mutated"
	if skills[0] != "Go" {
		t.Fatalf("ranking must not alias the input slice")
	}
}

func TestRankOrdersBySimilarity(t *testing.T) {
	t.Parallel()

	skills := []string{"Excel reporting", "Python data analysis", "Machine learning with Python"}
	interests := []string{"python machine learning", "deep learning"}

	ranking := Rank(skills, interests)

	expected := []string{"Machine learning with Python", "Python data analysis", "Excel reporting"}
	if !reflect.DeepEqual(ranking.Skills, expected) {
		t.Fatalf("unexpected order: %v", ranking.Skills)
	}

	if ranking.Weight("Excel reporting") != 0 {
		t.Fatalf("expected zero weight for unrelated skill, got %v", ranking.Weight("Excel reporting"))
	}

	for _, s := range ranking.Skills {
		w := ranking.Weight(s)
		if w < 0 || w > 1 || math.IsNaN(w) {
			t.Fatalf("weight out of bounds for %q: %v", s, w)
		}
	}
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	t.Parallel()

	skills := []string{"Painting", "Welding", "Plumbing"}
	interests := []string{"astronomy", "chess"}

	ranking := Rank(skills, interests)
	if !reflect.DeepEqual(ranking.Skills, skills) {
		t.Fatalf("expected stable order for tied skills, got %v", ranking.Skills)
	}
	for _, s := range skills {
		if ranking.Weight(s) != 0 {
			t.Fatalf("expected zero weight for %q, got %v", s, ranking.Weight(s))
		}
	}
}

func TestRankDegenerateCorpusFallsBack(t *testing.T) {
	t.Parallel()

	skills := []string{"Go", "go"}
	interests := []string{"GO"}

	ranking := Rank(skills, interests)
	if !reflect.DeepEqual(ranking.Skills, skills) {
		t.Fatalf("expected input order, got %v", ranking.Skills)
	}
	for _, s := range skills {
		if ranking.Weight(s) != 1.0 {
			t.Fatalf("expected weight 1.0 for %q, got %v", s, ranking.Weight(s))
		}
	}
}

func TestFitReportsDegenerateComputation(t *testing.T) {
	t.Parallel()

	_, err := fit([][]string{{"go"}, {"go", "go"}})
	if !errors.Is(err, domain.ErrDegenerateComputation) {
		t.Fatalf("expected degenerate computation error, got %v", err)
	}
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect []string
	}{
		{input: "", expect: nil},
		{input: "C", expect: []string{}},
		{input: "Node.js / TypeScript", expect: []string{"node", "js", "typescript"}},
		{input: "Gestión de PROYECTOS", expect: []string{"gestión", "de", "proyectos"}},
	}

	for _, tt := range tests {
		got := tokenize(tt.input)
		if len(got) == 0 && len(tt.expect) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.expect) {
			t.Fatalf("tokenize(%q): expected %v, got %v", tt.input, tt.expect, got)
		}
	}
}

func TestTransformIsNormalised(t *testing.T) {
	t.Parallel()

	space, err := fit([][]string{{"python", "data"}, {"python"}, {"java"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vec := space.transform([]string{"python", "data", "data"})
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if math.Abs(norm-1) > 1e-9 {
		t.Fatalf("expected unit vector, got squared norm %v", norm)
	}

	zero := space.transform([]string{"unknown"})
	if cosine(zero, vec) != 0 {
		t.Fatalf("expected zero similarity for unknown tokens")
	}
}
