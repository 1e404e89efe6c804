// Package classifier routes job postings to a business unit with a weighted multi-signal rule set.
package classifier

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/domain"
)

const scoreEpsilon = 1e-9

// Posting is the raw job posting to classify.
type Posting struct {
	Title              string
	Description        string
	Location           string
	Salary             *domain.SalaryRange
	RequiredExperience *int
}

// Result is the outcome of a classification. Every field is always populated.
type Result struct {
	Unit             string             `json:"unit"`
	Scores           map[string]float64 `json:"scores"`
	Seniority        int                `json:"seniority"`
	IndustryScores   map[string]int     `json:"industry_scores"`
	DominantIndustry string             `json:"dominant_industry,omitempty"`
	// Fallback reports a low-confidence result: no unit scored above zero or the winner was not configured.
	Fallback bool `json:"fallback"`
}

type unit struct {
	name     string
	keywords map[string]float64
	profile  Profile
}

type signal struct {
	name  string
	terms []string
	unit  string
	bonus float64
}

// Classifier is immutable after New and safe for concurrent use.
type Classifier struct {
	units              map[string]unit
	defaultUnit        string
	priority           []string
	defaultProfile     Profile
	titleHitFactor     float64
	seniorityKeywords  map[string]int
	experienceFloors   []ExperienceFloor
	adjustments        []SeniorityAdjustment
	seniorityBonuses   []SeniorityBonus
	industries         map[string][]string
	industryNames      []string
	industryBonuses    map[string]map[string]float64
	industryUnits      map[string]string
	descriptionSignals []signal
	locationSignals    []signal
	salarySignals      []SalarySignal
	sanitizer          *sanitizer
	logger             *zap.Logger
}

// New compiles the rule set. Keywords are normalised once so classification only does substring lookups.
func New(cfg Config, logger *zap.Logger) (*Classifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(cfg.Units) == 0 {
		return nil, fmt.Errorf("%w: at least one business unit must be configured", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(cfg.DefaultUnit) == "" {
		return nil, fmt.Errorf("%w: default unit is required", domain.ErrInvalidInput)
	}

	defaultProfile := cfg.DefaultProfile
	if defaultProfile == (Profile{}) {
		defaultProfile = DefaultConfig().DefaultProfile
	}
	if err := defaultProfile.Validate(); err != nil {
		return nil, fmt.Errorf("default profile: %w", err)
	}

	titleHitFactor := cfg.TitleHitFactor
	if titleHitFactor <= 0 {
		titleHitFactor = 1
	}

	c := &Classifier{
		units:             make(map[string]unit, len(cfg.Units)),
		defaultUnit:       strings.TrimSpace(cfg.DefaultUnit),
		priority:          trimAll(cfg.Priority),
		defaultProfile:    defaultProfile,
		titleHitFactor:    titleHitFactor,
		seniorityKeywords: make(map[string]int, len(cfg.SeniorityKeywords)),
		industries:        make(map[string][]string, len(cfg.Industries)),
		industryBonuses:   cfg.IndustryBonuses,
		industryUnits:     cfg.IndustryUnits,
		salarySignals:     cfg.SalarySignals,
		sanitizer:         newSanitizer(),
		logger:            logger,
	}

	for _, u := range cfg.Units {
		name := strings.TrimSpace(u.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: business unit name is required", domain.ErrInvalidInput)
		}
		profile := u.Profile
		if profile == (Profile{}) {
			profile = defaultProfile
		}
		if err := profile.Validate(); err != nil {
			return nil, fmt.Errorf("unit %s profile: %w", name, err)
		}
		keywords := make(map[string]float64, len(u.Keywords))
		for kw, w := range u.Keywords {
			keywords[normalizeTerm(kw)] = w
		}
		c.units[name] = unit{name: name, keywords: keywords, profile: profile}
	}

	for kw, score := range cfg.SeniorityKeywords {
		c.seniorityKeywords[normalizeTerm(kw)] = score
	}

	for name, keywords := range cfg.Industries {
		c.industries[name] = normalizeTerms(keywords)
		c.industryNames = append(c.industryNames, name)
	}
	sort.Strings(c.industryNames)

	c.experienceFloors = append(c.experienceFloors, cfg.ExperienceFloors...)
	sort.SliceStable(c.experienceFloors, func(i, j int) bool {
		return c.experienceFloors[i].Years > c.experienceFloors[j].Years
	})

	c.adjustments = append(c.adjustments, cfg.Adjustments...)
	sort.SliceStable(c.adjustments, func(i, j int) bool {
		return c.adjustments[i].MinSeniority > c.adjustments[j].MinSeniority
	})

	c.seniorityBonuses = append(c.seniorityBonuses, cfg.SeniorityBonuses...)
	c.descriptionSignals = compileSignals(cfg.DescriptionSignals)
	c.locationSignals = compileSignals(cfg.LocationSignals)

	return c, nil
}

// WithUnits returns a classifier whose unit table is extended with units supplied at runtime, for example
// by a repository. A supplied unit without keywords or profile keeps the configured ones of the same name.
func (c *Classifier) WithUnits(units []UnitConfig) (*Classifier, []string, error) {
	clone := *c
	clone.units = make(map[string]unit, len(c.units)+len(units))
	for name, u := range c.units {
		clone.units[name] = u
	}

	names := make([]string, 0, len(units))
	for _, cfg := range units {
		name := strings.TrimSpace(cfg.Name)
		if name == "" {
			return nil, nil, fmt.Errorf("%w: business unit name is required", domain.ErrInvalidInput)
		}

		existing, known := c.units[name]
		u := unit{name: name, profile: cfg.Profile}
		if u.profile == (Profile{}) {
			u.profile = c.defaultProfile
			if known {
				u.profile = existing.profile
			}
		}
		if err := u.profile.Validate(); err != nil {
			return nil, nil, fmt.Errorf("unit %s profile: %w", name, err)
		}

		switch {
		case len(cfg.Keywords) > 0:
			u.keywords = make(map[string]float64, len(cfg.Keywords))
			for kw, w := range cfg.Keywords {
				u.keywords[normalizeTerm(kw)] = w
			}
		case known:
			u.keywords = existing.keywords
		}

		clone.units[name] = u
		names = append(names, name)
	}

	return &clone, names, nil
}

// Units returns the names of the configured units in priority order, followed by the rest sorted by name.
func (c *Classifier) Units() []string {
	out := make([]string, 0, len(c.units))
	seen := make(map[string]struct{}, len(c.units))
	for _, name := range c.priority {
		if _, ok := c.units[name]; ok {
			out = append(out, name)
			seen[name] = struct{}{}
		}
	}
	rest := make([]string, 0, len(c.units))
	for name := range c.units {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Classify scores the posting against every available unit and picks one winner. overrides replace the
// configured profile of the named units.
func (c *Classifier) Classify(p Posting, available []string, overrides map[string]Profile) (Result, error) {
	units := dedupe(available)
	if len(units) == 0 {
		return Result{}, fmt.Errorf("%w: no business units available for classification", domain.ErrInvalidInput)
	}
	for name, profile := range overrides {
		if err := profile.Validate(); err != nil {
			return Result{}, fmt.Errorf("override for unit %s: %w", name, err)
		}
	}
	if p.Salary != nil && (p.Salary.Min < 0 || p.Salary.Max < 0) {
		return Result{}, fmt.Errorf("%w: negative salary range", domain.ErrInvalidInput)
	}

	title := normalize(p.Title)
	description := normalize(c.sanitizer.plain(p.Description))
	location := normalize(p.Location)
	combined := text(string(title) + string(description))

	seniority := c.seniority(title, p.RequiredExperience)
	industryScores := c.industryScores(combined)
	dominant := dominantIndustry(industryScores, c.industryNames)

	result := Result{
		Scores:           make(map[string]float64, len(units)),
		Seniority:        seniority,
		IndustryScores:   industryScores,
		DominantIndustry: dominant,
	}

	for _, name := range units {
		profile := c.effectiveProfile(name, overrides, seniority)
		score := c.keywordScore(name, title, description, profile)
		score += (profile.SoftSkills + profile.Personality) * c.seniorityBonus(name, seniority)
		if dominant != "" {
			score += profile.HardSkills * c.industryBonuses[dominant][name] * float64(industryScores[dominant])
		}
		score += profile.ContractType * signalBonus(c.descriptionSignals, name, combined)
		score += profile.Location * signalBonus(c.locationSignals, name, location)
		score += profile.ContractType * c.salaryBonus(name, p.Salary)

		result.Scores[name] = score
	}

	winner, ok := c.pickWinner(units, result.Scores, dominant)
	if !ok {
		result.Unit = c.fallbackUnit(units)
		result.Fallback = true
		c.logger.Debug("classification fell back to default unit",
			zap.String("unit", result.Unit),
			zap.String("title", p.Title),
		)
		return result, nil
	}

	result.Unit = winner
	return result, nil
}

func (c *Classifier) seniority(title text, requiredExperience *int) int {
	score := 0
	for kw, value := range c.seniorityKeywords {
		if value > score && title.contains(kw) {
			score = value
		}
	}

	if requiredExperience != nil {
		for _, floor := range c.experienceFloors {
			if *requiredExperience >= floor.Years {
				if floor.Seniority > score {
					score = floor.Seniority
				}
				break
			}
		}
	}

	return score
}

// industryScores counts the distinct keywords of each industry present in the text.
func (c *Classifier) industryScores(t text) map[string]int {
	scores := make(map[string]int, len(c.industries))
	for name, keywords := range c.industries {
		hits := 0
		for _, kw := range keywords {
			if t.contains(kw) {
				hits++
			}
		}
		scores[name] = hits
	}
	return scores
}

// dominantIndustry returns the industry with strictly the most hits, or "" on a tie or no hits.
func dominantIndustry(scores map[string]int, names []string) string {
	best := ""
	bestHits := 0
	tied := false
	for _, name := range names {
		hits := scores[name]
		switch {
		case hits > bestHits:
			best, bestHits, tied = name, hits, false
		case hits == bestHits && hits > 0:
			tied = true
		}
	}
	if tied || bestHits == 0 {
		return ""
	}
	return best
}

func (c *Classifier) effectiveProfile(name string, overrides map[string]Profile, seniority int) Profile {
	profile := c.defaultProfile
	if u, ok := c.units[name]; ok {
		profile = u.profile
	}
	if override, ok := overrides[name]; ok {
		profile = override
	}

	profile = profile.normalized()
	for _, adj := range c.adjustments {
		if seniority >= adj.MinSeniority {
			return profile.scaled(adj.Multipliers).normalized()
		}
	}
	return profile
}

func (c *Classifier) keywordScore(name string, title, description text, profile Profile) float64 {
	u, ok := c.units[name]
	if !ok {
		return 0
	}

	var hits float64
	for kw, weight := range u.keywords {
		if title.contains(kw) {
			hits += weight * c.titleHitFactor
		}
		if !description.empty() && description.contains(kw) {
			hits += weight
		}
	}
	return hits * profile.HardSkills
}

func (c *Classifier) seniorityBonus(name string, seniority int) float64 {
	for _, tier := range c.seniorityBonuses {
		if seniority >= tier.MinSeniority && seniority <= tier.MaxSeniority {
			return tier.Bonuses[name]
		}
	}
	return 0
}

func (c *Classifier) salaryBonus(name string, salary *domain.SalaryRange) float64 {
	ceiling := salary.Ceiling()
	if ceiling <= 0 {
		return 0
	}
	var bonus float64
	for _, s := range c.salarySignals {
		if s.Unit == name && s.Min > 0 && ceiling >= s.Min {
			bonus += s.Bonus
		}
	}
	return bonus
}

func signalBonus(signals []signal, name string, t text) float64 {
	var bonus float64
	for _, s := range signals {
		if s.unit == name && t.containsAny(s.terms) {
			bonus += s.bonus
		}
	}
	return bonus
}

// pickWinner returns false when no unit scored above zero or the winner is not a configured unit.
func (c *Classifier) pickWinner(units []string, scores map[string]float64, dominant string) (string, bool) {
	best := math.Inf(-1)
	var tied []string
	for _, name := range units {
		score := scores[name]
		switch {
		case score > best+scoreEpsilon:
			best = score
			tied = []string{name}
		case math.Abs(score-best) <= scoreEpsilon:
			tied = append(tied, name)
		}
	}

	if best <= scoreEpsilon {
		return "", false
	}

	winner := tied[0]
	if len(tied) > 1 {
		winner = c.breakTie(tied, dominant)
	}

	if _, ok := c.units[winner]; !ok {
		return "", false
	}
	return winner, true
}

// breakTie prefers the unit of the dominant industry, then the configured priority order, then input order.
func (c *Classifier) breakTie(tied []string, dominant string) string {
	if dominant != "" {
		if preferred, ok := c.industryUnits[dominant]; ok && contains(tied, preferred) {
			return preferred
		}
	}
	for _, name := range c.priority {
		if contains(tied, name) {
			return name
		}
	}
	return tied[0]
}

func (c *Classifier) fallbackUnit(units []string) string {
	if contains(units, c.defaultUnit) {
		return c.defaultUnit
	}
	for _, name := range c.priority {
		if contains(units, name) {
			return name
		}
	}
	return units[0]
}

func compileSignals(signals []Signal) []signal {
	out := make([]signal, 0, len(signals))
	for _, s := range signals {
		out = append(out, signal{
			name:  s.Name,
			terms: normalizeTerms(s.Terms),
			unit:  strings.TrimSpace(s.Unit),
			bonus: s.Bonus,
		})
	}
	return out
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if n := normalizeTerm(term); strings.TrimSpace(n) != "" {
			out = append(out, n)
		}
	}
	return out
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range trimAll(names) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func trimAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func contains(names []string, target string) bool {
	for _, name := range names {
		if name == target {
			return true
		}
	}
	return false
}
