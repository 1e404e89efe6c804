package matching

import (
	"math"
	"strings"

	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/geo"
)

var categoryImportance = map[domain.SkillCategory]float64{
	domain.SkillTechnical: 1.5,
	domain.SkillSoft:      1.2,
	domain.SkillLanguage:  1.0,
	domain.SkillTool:      0.8,
}

const (
	maxImportance      = 1.5
	salaryFlexibility  = 1.10
	salaryFalloffRatio = 0.5
	experienceTierStep = 0.25
	unknownLocation    = 0.5
)

// SkillScore rewards candidates owning the required skills, weighting each match by its category importance.
func SkillScore(c *domain.Candidate, v *domain.Vacancy) float64 {
	required := uniqueSkills(v.RequiredSkills)
	if len(required) == 0 {
		return 1.0
	}

	owned := make(map[string]struct{}, len(c.Skills))
	for _, s := range c.Skills {
		owned[normalizeSkill(s)] = struct{}{}
	}

	var matched float64
	for _, skill := range required {
		if _, ok := owned[normalizeSkill(skill.Name)]; ok {
			matched += importance(skill.Category)
		}
	}

	return clamp01(matched / (float64(len(required)) * maxImportance))
}

// ExperienceScore compares experience tiers rather than raw years.
func ExperienceScore(c *domain.Candidate, v *domain.Vacancy) float64 {
	if v.RequiredExperience == nil {
		return 1.0
	}
	if c.ExperienceYears == nil {
		return 0.0
	}

	diff := math.Abs(float64(ExperienceTier(*c.ExperienceYears) - ExperienceTier(*v.RequiredExperience)))
	return clamp01(1 - experienceTierStep*diff)
}

// ExperienceTier buckets years into [0,1], [2,4], [5,8] and 9+.
func ExperienceTier(years int) int {
	switch {
	case years <= 1:
		return 0
	case years <= 4:
		return 1
	case years <= 8:
		return 2
	default:
		return 3
	}
}

// SalaryScore is 1 up to 10% over the vacancy ceiling and falls linearly to 0 at 50% over that.
func SalaryScore(c *domain.Candidate, v *domain.Vacancy) float64 {
	ceiling := v.Salary.Ceiling()
	if ceiling <= 0 {
		return 1.0
	}
	if c.ExpectedSalary == nil {
		return 0.0
	}

	acceptable := ceiling * salaryFlexibility
	expected := *c.ExpectedSalary
	if expected <= acceptable {
		return 1.0
	}

	return clamp01(1 - (expected-acceptable)/(acceptable*salaryFalloffRatio))
}

// LocationScore is neutral when either side lacks coordinates.
func LocationScore(c *domain.Candidate, v *domain.Vacancy) float64 {
	if v.Location == nil {
		return 1.0
	}

	vp := v.Location.Point()
	cp := c.Location.Point()
	if vp == nil || cp == nil {
		return unknownLocation
	}

	return geo.ProximityScore(*cp, *vp)
}

func importance(category domain.SkillCategory) float64 {
	key := domain.SkillCategory(strings.ToLower(strings.TrimSpace(string(category))))
	if w, ok := categoryImportance[key]; ok {
		return w
	}
	return categoryImportance[domain.SkillTechnical]
}

func uniqueSkills(skills []domain.Skill) []domain.Skill {
	seen := make(map[string]struct{}, len(skills))
	out := make([]domain.Skill, 0, len(skills))
	for _, s := range skills {
		key := normalizeSkill(s.Name)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
