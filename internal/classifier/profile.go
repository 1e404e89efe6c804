package classifier

import (
	"fmt"

	"github.com/spigell/talent-matcher/internal/domain"
)

// Profile weighs the classification inputs of a unit. Weights are relative; only their ratios matter.
type Profile struct {
	Location     float64 `mapstructure:"location" json:"location" yaml:"location"`
	HardSkills   float64 `mapstructure:"hard-skills" json:"hard_skills" yaml:"hard_skills"`
	SoftSkills   float64 `mapstructure:"soft-skills" json:"soft_skills" yaml:"soft_skills"`
	ContractType float64 `mapstructure:"contract-type" json:"contract_type" yaml:"contract_type"`
	Personality  float64 `mapstructure:"personality" json:"personality" yaml:"personality"`
}

func (p Profile) Sum() float64 {
	return p.Location + p.HardSkills + p.SoftSkills + p.ContractType + p.Personality
}

func (p Profile) Validate() error {
	if p.Location < 0 || p.HardSkills < 0 || p.SoftSkills < 0 || p.ContractType < 0 || p.Personality < 0 {
		return fmt.Errorf("%w: profile weights must not be negative: %+v", domain.ErrInvalidInput, p)
	}
	if p.Sum() <= 0 {
		return fmt.Errorf("%w: profile weights must sum to a positive total", domain.ErrInvalidInput)
	}
	return nil
}

func (p Profile) normalized() Profile {
	sum := p.Sum()
	if sum <= 0 {
		return p
	}
	return Profile{
		Location:     p.Location / sum,
		HardSkills:   p.HardSkills / sum,
		SoftSkills:   p.SoftSkills / sum,
		ContractType: p.ContractType / sum,
		Personality:  p.Personality / sum,
	}
}

// scaled multiplies each weight by the matching multiplier of m.
func (p Profile) scaled(m Profile) Profile {
	return Profile{
		Location:     p.Location * m.Location,
		HardSkills:   p.HardSkills * m.HardSkills,
		SoftSkills:   p.SoftSkills * m.SoftSkills,
		ContractType: p.ContractType * m.ContractType,
		Personality:  p.Personality * m.Personality,
	}
}
