// Package matching scores how well a candidate fits a vacancy.
package matching

import (
	"fmt"
	"strings"

	"github.com/spigell/talent-matcher/internal/domain"
)

// WeightProfile holds raw factor weights. They are normalised by their sum before use.
type WeightProfile struct {
	Skills     float64 `mapstructure:"skills" json:"skills"`
	Experience float64 `mapstructure:"experience" json:"experience"`
	Salary     float64 `mapstructure:"salary" json:"salary"`
	Location   float64 `mapstructure:"location" json:"location"`
}

func (w WeightProfile) Sum() float64 {
	return w.Skills + w.Experience + w.Salary + w.Location
}

func (w WeightProfile) Validate() error {
	if w.Skills < 0 || w.Experience < 0 || w.Salary < 0 || w.Location < 0 {
		return fmt.Errorf("%w: weights must not be negative: %+v", domain.ErrInvalidInput, w)
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("%w: weights must sum to a positive total", domain.ErrInvalidInput)
	}
	return nil
}

// Normalized scales the profile so the weights sum to 1.
func (w WeightProfile) Normalized() WeightProfile {
	sum := w.Sum()
	return WeightProfile{
		Skills:     w.Skills / sum,
		Experience: w.Experience / sum,
		Salary:     w.Salary / sum,
		Location:   w.Location / sum,
	}
}

// Config holds the weight profiles. A nil Default or Categories selects the built-in one; a profile that
// is present must be valid, so an explicitly zeroed default is rejected.
type Config struct {
	Default    *WeightProfile           `mapstructure:"default"`
	Categories map[string]WeightProfile `mapstructure:"categories"`
	Urgency    map[string]float64       `mapstructure:"urgency"`
}

func DefaultConfig() Config {
	return Config{
		Default: &WeightProfile{Skills: 0.4, Experience: 0.3, Salary: 0.2, Location: 0.1},
		Categories: map[string]WeightProfile{
			domain.CategoryTechnical:  {Skills: 0.5, Experience: 0.3, Salary: 0.15, Location: 0.05},
			domain.CategoryManagement: {Skills: 0.3, Experience: 0.4, Salary: 0.2, Location: 0.1},
		},
		Urgency: map[string]float64{
			string(domain.UrgencyHigh):   1.2,
			string(domain.UrgencyMedium): 1.0,
			string(domain.UrgencyLow):    0.8,
		},
	}
}

// Calculator combines the factor scores into one ranking score. It is immutable and safe for concurrent use.
type Calculator struct {
	base       WeightProfile
	categories map[string]WeightProfile
	urgency    map[domain.Urgency]float64
}

// NewCalculator validates and normalises the profiles. Absent sections fall back to the defaults.
// Urgency keys must be one of high, medium or low.
func NewCalculator(cfg Config) (*Calculator, error) {
	defaults := DefaultConfig()

	base := *defaults.Default
	if cfg.Default != nil {
		base = *cfg.Default
	}
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("default profile: %w", err)
	}

	categories := cfg.Categories
	if categories == nil {
		categories = defaults.Categories
	}

	calc := &Calculator{
		base:       base.Normalized(),
		categories: make(map[string]WeightProfile, len(categories)),
		urgency:    make(map[domain.Urgency]float64, 3),
	}

	for name, profile := range categories {
		if err := profile.Validate(); err != nil {
			return nil, fmt.Errorf("category %q profile: %w", name, err)
		}
		calc.categories[normalizeCategory(name)] = profile.Normalized()
	}

	for urgency, multiplier := range defaults.Urgency {
		calc.urgency[domain.Urgency(urgency)] = multiplier
	}
	for urgency, multiplier := range cfg.Urgency {
		key := domain.Urgency(strings.ToLower(strings.TrimSpace(urgency)))
		switch key {
		case domain.UrgencyHigh, domain.UrgencyMedium, domain.UrgencyLow:
		default:
			return nil, fmt.Errorf("%w: unknown urgency %q, expected high, medium or low", domain.ErrInvalidInput, urgency)
		}
		if multiplier < 0 {
			return nil, fmt.Errorf("%w: urgency %q multiplier must not be negative", domain.ErrInvalidInput, urgency)
		}
		calc.urgency[key] = multiplier
	}

	return calc, nil
}

// Profile returns the normalised weight profile used for the vacancy category.
func (c *Calculator) Profile(category string) WeightProfile {
	if profile, ok := c.categories[normalizeCategory(category)]; ok {
		return profile
	}
	return c.base
}

// Breakdown computes the four factor scores and the combined score.
func (c *Calculator) Breakdown(candidate *domain.Candidate, vacancy *domain.Vacancy) domain.ScoreBreakdown {
	b := domain.ScoreBreakdown{
		Skills:     SkillScore(candidate, vacancy),
		Experience: ExperienceScore(candidate, vacancy),
		Salary:     SalaryScore(candidate, vacancy),
		Location:   LocationScore(candidate, vacancy),
	}

	w := c.Profile(vacancy.Category)
	weighted := b.Skills*w.Skills + b.Experience*w.Experience + b.Salary*w.Salary + b.Location*w.Location

	b.Final = clamp01(weighted * c.urgencyMultiplier(vacancy))
	return b
}

// Score returns the combined score in [0,1].
func (c *Calculator) Score(candidate *domain.Candidate, vacancy *domain.Vacancy) float64 {
	return c.Breakdown(candidate, vacancy).Final
}

func (c *Calculator) urgencyMultiplier(v *domain.Vacancy) float64 {
	if m, ok := c.urgency[v.EffectiveUrgency()]; ok {
		return m
	}
	return 1.0
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
