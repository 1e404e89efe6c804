package domain

import (
	"fmt"
	"strings"
	"time"
)

type SkillCategory string

const (
	SkillTechnical SkillCategory = "technical"
	SkillSoft      SkillCategory = "soft"
	SkillLanguage  SkillCategory = "language"
	SkillTool      SkillCategory = "tool"
)

type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

const (
	CategoryTechnical  = "technical"
	CategoryManagement = "management"
)

// Skill is a required vacancy skill. An empty Category means unknown.
type Skill struct {
	Name     string        `json:"name" yaml:"name"`
	Category SkillCategory `json:"category,omitempty" yaml:"category"`
}

type SalaryRange struct {
	Min      float64 `json:"min,omitempty" yaml:"min"`
	Max      float64 `json:"max,omitempty" yaml:"max"`
	Currency string  `json:"currency,omitempty" yaml:"currency"`
}

// Ceiling returns the upper bound used for salary comparisons. Max wins, Min is used when Max is unset.
// A zero ceiling means the range carries no constraint.
func (s *SalaryRange) Ceiling() float64 {
	if s == nil {
		return 0
	}
	if s.Max > 0 {
		return s.Max
	}
	if s.Min > 0 {
		return s.Min
	}
	return 0
}

type Vacancy struct {
	ID                 string       `json:"id" yaml:"id"`
	Title              string       `json:"title" yaml:"title"`
	Description        string       `json:"description,omitempty" yaml:"description"`
	RequiredSkills     []Skill      `json:"required_skills,omitempty" yaml:"required_skills"`
	RequiredExperience *int         `json:"required_experience,omitempty" yaml:"required_experience"`
	Salary             *SalaryRange `json:"salary,omitempty" yaml:"salary"`
	Location           *Location    `json:"location,omitempty" yaml:"location"`
	Category           string       `json:"category,omitempty" yaml:"category"`
	Urgency            Urgency      `json:"urgency,omitempty" yaml:"urgency"`
	Active             bool         `json:"active" yaml:"active"`
	CreatedAt          time.Time    `json:"created_at" yaml:"created_at"`
}

// EffectiveUrgency maps unknown or empty urgency to medium.
func (v *Vacancy) EffectiveUrgency() Urgency {
	switch Urgency(strings.ToLower(strings.TrimSpace(string(v.Urgency)))) {
	case UrgencyHigh:
		return UrgencyHigh
	case UrgencyLow:
		return UrgencyLow
	default:
		return UrgencyMedium
	}
}

// Validate rejects structurally broken vacancies. Missing optional requirements are fine.
func (v *Vacancy) Validate() error {
	if v == nil {
		return fmt.Errorf("%w: vacancy is required", ErrInvalidInput)
	}
	if s := v.Salary; s != nil {
		if s.Min < 0 || s.Max < 0 {
			return fmt.Errorf("%w: vacancy %s has negative salary range", ErrInvalidInput, v.ID)
		}
		if s.Max > 0 && s.Min > s.Max {
			return fmt.Errorf("%w: vacancy %s salary min %.2f exceeds max %.2f", ErrInvalidInput, v.ID, s.Min, s.Max)
		}
	}
	if v.RequiredExperience != nil && *v.RequiredExperience < 0 {
		return fmt.Errorf("%w: vacancy %s has negative experience requirement", ErrInvalidInput, v.ID)
	}
	if p := v.Location.Point(); p != nil {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: vacancy %s: %w", ErrInvalidInput, v.ID, err)
		}
	}
	return nil
}

// ScoreBreakdown holds the factor scores of one candidate/vacancy pair and the combined score.
type ScoreBreakdown struct {
	Skills     float64 `json:"skills"`
	Experience float64 `json:"experience"`
	Salary     float64 `json:"salary"`
	Location   float64 `json:"location"`
	Final      float64 `json:"final"`
}
