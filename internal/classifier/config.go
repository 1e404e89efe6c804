package classifier

// UnitConfig describes one business unit the classifier can route postings to.
type UnitConfig struct {
	Name     string             `mapstructure:"name" json:"name" yaml:"name"`
	Keywords map[string]float64 `mapstructure:"keywords" json:"keywords" yaml:"keywords"`
	Profile  Profile            `mapstructure:"profile" json:"profile" yaml:"profile"`
}

// SeniorityAdjustment rescales unit profiles for postings at or above MinSeniority.
type SeniorityAdjustment struct {
	MinSeniority int     `mapstructure:"min-seniority"`
	Multipliers  Profile `mapstructure:"multipliers"`
}

// SeniorityBonus grants per-unit bonuses to postings whose seniority lies in [MinSeniority, MaxSeniority].
type SeniorityBonus struct {
	MinSeniority int                `mapstructure:"min-seniority"`
	MaxSeniority int                `mapstructure:"max-seniority"`
	Bonuses      map[string]float64 `mapstructure:"bonuses"`
}

// Signal grants Bonus to Unit when any of Terms appears in the inspected text.
type Signal struct {
	Name  string   `mapstructure:"name"`
	Terms []string `mapstructure:"terms"`
	Unit  string   `mapstructure:"unit"`
	Bonus float64  `mapstructure:"bonus"`
}

// SalarySignal grants Bonus to Unit when the posting salary ceiling reaches Min.
type SalarySignal struct {
	Min   float64 `mapstructure:"min"`
	Unit  string  `mapstructure:"unit"`
	Bonus float64 `mapstructure:"bonus"`
}

// ExperienceFloor raises the seniority score to at least Seniority when the posting requires Years or more.
type ExperienceFloor struct {
	Years     int `mapstructure:"years"`
	Seniority int `mapstructure:"seniority"`
}

// Config is the full rule set. It is read-only once a Classifier is built from it.
type Config struct {
	Units              []UnitConfig                  `mapstructure:"units"`
	DefaultUnit        string                        `mapstructure:"default-unit"`
	Priority           []string                      `mapstructure:"priority"`
	DefaultProfile     Profile                       `mapstructure:"default-profile"`
	TitleHitFactor     float64                       `mapstructure:"title-hit-factor"`
	SeniorityKeywords  map[string]int                `mapstructure:"seniority-keywords"`
	ExperienceFloors   []ExperienceFloor             `mapstructure:"experience-floors"`
	Adjustments        []SeniorityAdjustment         `mapstructure:"adjustments"`
	SeniorityBonuses   []SeniorityBonus              `mapstructure:"seniority-bonuses"`
	Industries         map[string][]string           `mapstructure:"industries"`
	IndustryBonuses    map[string]map[string]float64 `mapstructure:"industry-bonuses"`
	IndustryUnits      map[string]string             `mapstructure:"industry-units"`
	DescriptionSignals []Signal                      `mapstructure:"description-signals"`
	LocationSignals    []Signal                      `mapstructure:"location-signals"`
	SalarySignals      []SalarySignal                `mapstructure:"salary-signals"`
}

const (
	UnitHuntRED   = "huntRED"
	UnitExecutive = "huntRED_Executive"
	UnitHuntU     = "huntu"
	UnitAmigro    = "amigro"

	IndustryTech       = "tech"
	IndustryManagement = "management"
	IndustryOperations = "operations"
	IndustryStrategy   = "strategy"
)

// DefaultConfig returns the built-in rule set. The keyword lists and bonus constants are data; deployments
// are expected to tune them through configuration.
func DefaultConfig() Config {
	return Config{
		Units: []UnitConfig{
			{
				Name: UnitHuntRED,
				Keywords: map[string]float64{
					"manager": 2, "senior": 2, "lead": 2, "head": 2, "gerente": 2,
					"director": 1.5, "supervisor": 1.5,
					"specialist": 1, "consultant": 1, "engineering": 1, "coordinator": 1,
				},
				Profile: Profile{Location: 15, HardSkills: 35, SoftSkills: 20, ContractType: 15, Personality: 15},
			},
			{
				Name: UnitExecutive,
				Keywords: map[string]float64{
					"ceo": 3, "cto": 3, "cfo": 3, "coo": 3, "chief": 3, "vp": 3, "vice president": 3,
					"executive": 3, "c level": 3,
					"president": 2.5, "board": 2.5,
					"global": 1.5, "strategic": 1.5,
				},
				Profile: Profile{Location: 10, HardSkills: 20, SoftSkills: 30, ContractType: 10, Personality: 30},
			},
			{
				Name: UnitHuntU,
				Keywords: map[string]float64{
					"intern": 3, "internship": 3, "trainee": 3, "becario": 3, "practicante": 3,
					"graduate": 2.5, "entry level": 2.5,
					"junior": 2, "student": 2,
					"developer": 1.5, "analyst": 1.5,
				},
				Profile: Profile{Location: 15, HardSkills: 40, SoftSkills: 20, ContractType: 10, Personality: 15},
			},
			{
				Name: UnitAmigro,
				Keywords: map[string]float64{
					"laborer": 3, "visa": 3, "migrant": 3, "migration": 3, "operario": 3,
					"construction": 2.5, "warehouse": 2.5, "agriculture": 2.5, "agricultural": 2.5, "factory": 2.5,
					"worker": 2, "temporary": 2, "cleaning": 2, "driver": 2, "seasonal": 2,
				},
				Profile: Profile{Location: 30, HardSkills: 25, SoftSkills: 10, ContractType: 25, Personality: 10},
			},
		},
		DefaultUnit:    UnitHuntRED,
		Priority:       []string{UnitExecutive, UnitHuntRED, UnitHuntU, UnitAmigro},
		DefaultProfile: Profile{Location: 20, HardSkills: 30, SoftSkills: 20, ContractType: 15, Personality: 15},
		TitleHitFactor: 2,
		SeniorityKeywords: map[string]int{
			"junior": 1, "jr": 1, "trainee": 1, "intern": 1, "internship": 1, "entry level": 1,
			"graduate": 1, "becario": 1, "practicante": 1, "assistant": 1,
			"associate": 2, "analyst": 2, "specialist": 2, "mid": 2, "coordinator": 2,
			"senior": 3, "sr": 3, "lead": 3, "supervisor": 3,
			"manager": 4, "head": 4, "principal": 4, "gerente": 4,
			"director": 5, "chief": 5, "vp": 5, "vice president": 5, "executive": 5,
			"ceo": 5, "cto": 5, "cfo": 5, "coo": 5, "president": 5, "c level": 5,
		},
		ExperienceFloors: []ExperienceFloor{
			{Years: 10, Seniority: 4},
			{Years: 5, Seniority: 3},
			{Years: 2, Seniority: 2},
		},
		Adjustments: []SeniorityAdjustment{
			{MinSeniority: 5, Multipliers: Profile{Location: 0.5, HardSkills: 0.8, SoftSkills: 1.3, ContractType: 1, Personality: 1.4}},
			{MinSeniority: 3, Multipliers: Profile{Location: 0.8, HardSkills: 0.9, SoftSkills: 1.15, ContractType: 1, Personality: 1.2}},
		},
		SeniorityBonuses: []SeniorityBonus{
			{MinSeniority: 5, MaxSeniority: 5, Bonuses: map[string]float64{UnitExecutive: 6, UnitHuntRED: 2}},
			{MinSeniority: 3, MaxSeniority: 4, Bonuses: map[string]float64{UnitHuntRED: 4, UnitExecutive: 1}},
			{MinSeniority: 1, MaxSeniority: 2, Bonuses: map[string]float64{UnitHuntU: 4, UnitHuntRED: 0.5}},
		},
		Industries: map[string][]string{
			IndustryTech: {
				"software", "developer", "engineer", "engineering", "programming", "python", "java", "golang",
				"data", "cloud", "devops", "it", "technology", "tech", "frontend", "backend", "fullstack",
			},
			IndustryManagement: {
				"management", "manager", "leadership", "team", "director", "administration", "supervisor", "gerente",
			},
			IndustryOperations: {
				"operations", "logistics", "construction", "laborer", "warehouse", "manufacturing", "production",
				"factory", "driver", "agriculture", "cleaning", "maintenance", "temporary", "seasonal", "operario",
			},
			IndustryStrategy: {
				"strategy", "strategic", "global", "transformation", "vision", "board", "growth", "expansion",
				"consulting", "international",
			},
		},
		IndustryBonuses: map[string]map[string]float64{
			IndustryTech:       {UnitHuntU: 1, UnitHuntRED: 1},
			IndustryManagement: {UnitHuntRED: 1.5, UnitExecutive: 0.5},
			IndustryOperations: {UnitAmigro: 1.5},
			IndustryStrategy:   {UnitExecutive: 1.5, UnitHuntRED: 0.5},
		},
		IndustryUnits: map[string]string{
			IndustryTech:       UnitHuntU,
			IndustryManagement: UnitHuntRED,
			IndustryOperations: UnitAmigro,
			IndustryStrategy:   UnitExecutive,
		},
		DescriptionSignals: []Signal{
			{Name: "migration", Unit: UnitAmigro, Bonus: 3, Terms: []string{
				"visa", "migration", "migrant", "work permit", "sponsorship", "relocation", "permiso de trabajo",
			}},
			{Name: "strategic", Unit: UnitExecutive, Bonus: 2, Terms: []string{
				"strategic", "global", "transformation", "board", "international", "expansion",
			}},
			{Name: "development", Unit: UnitHuntU, Bonus: 2, Terms: []string{
				"development", "developer", "software", "programming", "internship", "training", "graduate", "learning",
			}},
			{Name: "operations_leadership", Unit: UnitHuntRED, Bonus: 2, Terms: []string{
				"operations", "leadership", "management", "team lead", "supervision",
			}},
		},
		LocationSignals: []Signal{
			{Name: "cross_border", Unit: UnitAmigro, Bonus: 3, Terms: []string{
				"border", "frontera", "region", "cross border", "abroad", "international",
			}},
			{Name: "global_hub", Unit: UnitExecutive, Bonus: 2, Terms: []string{
				"new york", "london", "singapore", "dubai", "hong kong", "tokyo", "zurich", "san francisco", "paris",
			}},
		},
		SalarySignals: []SalarySignal{
			{Min: 100000, Unit: UnitExecutive, Bonus: 2},
		},
	}
}
