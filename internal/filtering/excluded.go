package filtering

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spigell/talent-matcher/internal/domain"
)

// ExcludedVacancies is the content of an exclude file.
type ExcludedVacancies struct {
	Items []*ExcludedVacancy
}

type ExcludedVacancy struct {
	ID         string
	Title      string
	Category   string
	ExcludedAt time.Time
}

// NewExcluded builds exclude entries for the given vacancies.
func NewExcluded(vacancies []domain.Vacancy, now time.Time) *ExcludedVacancies {
	excluded := &ExcludedVacancies{}
	for _, vacancy := range vacancies {
		excluded.Items = append(excluded.Items, &ExcludedVacancy{
			ID:         vacancy.ID,
			Title:      vacancy.Title,
			Category:   vacancy.Category,
			ExcludedAt: now.UTC(),
		})
	}
	return excluded
}

// LoadExcluded reads an exclude file. A missing or empty file yields an empty list.
func LoadExcluded(path string) (*ExcludedVacancies, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ExcludedVacancies{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedVacancies{}, nil
	}

	var excluded ExcludedVacancies
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &excluded, nil
}

func (e *ExcludedVacancies) Append(s *ExcludedVacancies) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedVacancies) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, vacancy := range e.Items {
		ids = append(ids, vacancy.ID)
	}
	return ids
}

func (e *ExcludedVacancies) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
