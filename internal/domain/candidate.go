package domain

import (
	"fmt"

	"github.com/spigell/talent-matcher/internal/geo"
)

// Location is a place with optional coordinates.
type Location struct {
	Label       string     `json:"label,omitempty" yaml:"label"`
	Coordinates *geo.Point `json:"coordinates,omitempty" yaml:"coordinates"`
}

// Point returns the coordinates of the location or nil when they are unknown.
func (l *Location) Point() *geo.Point {
	if l == nil {
		return nil
	}
	return l.Coordinates
}

type Candidate struct {
	ID              string    `json:"id" yaml:"id"`
	Skills          []string  `json:"skills,omitempty" yaml:"skills"`
	Interests       []string  `json:"interests,omitempty" yaml:"interests"`
	ExperienceYears *int      `json:"experience_years,omitempty" yaml:"experience_years"`
	ExpectedSalary  *float64  `json:"expected_salary,omitempty" yaml:"expected_salary"`
	Location        *Location `json:"location,omitempty" yaml:"location"`
}

// Validate checks structural constraints. Absent optional data is never an error.
func (c *Candidate) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: candidate is required", ErrInvalidInput)
	}
	if c.ExpectedSalary != nil && *c.ExpectedSalary < 0 {
		return fmt.Errorf("%w: candidate %s has negative expected salary", ErrInvalidInput, c.ID)
	}
	if p := c.Location.Point(); p != nil {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: candidate %s: %w", ErrInvalidInput, c.ID, err)
		}
	}
	return nil
}
