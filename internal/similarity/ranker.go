// Package similarity orders candidate skills by how close they are to the candidate's stated interests.
package similarity

import (
	"sort"
)

// Ranking is the result of prioritising skills against interests.
type Ranking struct {
	Skills  []string
	Weights map[string]float64
}

// Weight returns the weight of the skill, 0 when the skill is not part of the ranking.
func (r Ranking) Weight(skill string) float64 {
	return r.Weights[skill]
}

// Rank orders skills by their average cosine similarity to the interests in a tf-idf space fitted on
// skills and interests together. Without interests, or when the corpus is too small to vectorise,
// skills are returned in input order with weight 1.
func Rank(skills, interests []string) Ranking {
	if len(interests) == 0 || len(skills) == 0 {
		return unranked(skills)
	}

	docs := make([][]string, 0, len(skills)+len(interests))
	for _, s := range skills {
		docs = append(docs, tokenize(s))
	}
	for _, s := range interests {
		docs = append(docs, tokenize(s))
	}

	space, err := fit(docs)
	if err != nil {
		return unranked(skills)
	}

	interestVecs := make([][]float64, 0, len(interests))
	for _, tokens := range docs[len(skills):] {
		interestVecs = append(interestVecs, space.transform(tokens))
	}

	type scored struct {
		skill string
		score float64
	}

	items := make([]scored, 0, len(skills))
	for i, skill := range skills {
		vec := space.transform(docs[i])
		var sum float64
		for _, iv := range interestVecs {
			sum += cosine(vec, iv)
		}
		items = append(items, scored{skill: skill, score: sum / float64(len(interestVecs))})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	ranking := Ranking{
		Skills:  make([]string, 0, len(items)),
		Weights: make(map[string]float64, len(items)),
	}
	for _, item := range items {
		ranking.Skills = append(ranking.Skills, item.skill)
		if _, ok := ranking.Weights[item.skill]; !ok {
			ranking.Weights[item.skill] = item.score
		}
	}

	return ranking
}

func unranked(skills []string) Ranking {
	ranking := Ranking{
		Skills:  make([]string, len(skills)),
		Weights: make(map[string]float64, len(skills)),
	}
	copy(ranking.Skills, skills)
	for _, s := range skills {
		ranking.Weights[s] = 1.0
	}
	return ranking
}
