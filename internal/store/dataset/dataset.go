// Package dataset serves candidates, vacancies and business units from a yaml file.
package dataset

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/talent-matcher/internal/classifier"
	"github.com/spigell/talent-matcher/internal/domain"
)

type file struct {
	Candidates    []domain.Candidate      `yaml:"candidates"`
	Vacancies     []domain.Vacancy        `yaml:"vacancies"`
	BusinessUnits []classifier.UnitConfig `yaml:"business_units"`
}

// Store is read-only after Load and safe for concurrent use.
type Store struct {
	candidates map[string]domain.Candidate
	vacancies  []domain.Vacancy
	units      []classifier.UnitConfig
}

func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a dataset document. Duplicate ids are rejected.
func Parse(raw []byte) (*Store, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode dataset", err)
	}

	s := &Store{
		candidates: make(map[string]domain.Candidate, len(f.Candidates)),
		vacancies:  f.Vacancies,
		units:      f.BusinessUnits,
	}

	for _, c := range f.Candidates {
		if _, ok := s.candidates[c.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate candidate id %q", domain.ErrInvalidInput, c.ID)
		}
		s.candidates[c.ID] = c
	}

	seen := make(map[string]struct{}, len(f.Vacancies))
	for _, v := range f.Vacancies {
		if _, ok := seen[v.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate vacancy id %q", domain.ErrInvalidInput, v.ID)
		}
		seen[v.ID] = struct{}{}
	}

	return s, nil
}

// FindActiveVacancies returns active vacancies matching filter, newest first.
func (s *Store) FindActiveVacancies(ctx context.Context, filter domain.VacancyFilter) ([]domain.Vacancy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	categories := make(map[string]struct{}, len(filter.Categories))
	for _, c := range filter.Categories {
		categories[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}

	out := make([]domain.Vacancy, 0, len(s.vacancies))
	for _, v := range s.vacancies {
		if !v.Active {
			continue
		}
		if len(categories) > 0 {
			if _, ok := categories[strings.ToLower(strings.TrimSpace(v.Category))]; !ok {
				continue
			}
		}
		if !filter.CreatedAfter.IsZero() && !v.CreatedAt.After(filter.CreatedAfter) {
			continue
		}
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) FindBusinessUnits(ctx context.Context) ([]classifier.UnitConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]classifier.UnitConfig(nil), s.units...), nil
}

func (s *Store) FindCandidate(ctx context.Context, id string) (*domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := s.candidates[id]
	if !ok {
		return nil, fmt.Errorf("candidate %q: %w", id, domain.ErrNotFound)
	}
	return &c, nil
}

// FindVacancy returns a vacancy by id regardless of its active flag.
func (s *Store) FindVacancy(ctx context.Context, id string) (*domain.Vacancy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, v := range s.vacancies {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("vacancy %q: %w", id, domain.ErrNotFound)
}
