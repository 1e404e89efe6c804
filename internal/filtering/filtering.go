// Package filtering narrows the vacancies fetched for a candidate before they are scored.
package filtering

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/domain"
)

// Filter represents a single filtering step applied to vacancies. Steps keep no per-run state: the
// config is passed to every call, so one pipeline can serve concurrent runs. Disable is meant for set-up.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, cfg *Config, deps Deps, v []domain.Vacancy) ([]domain.Vacancy, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
	Now    func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	ExcludeFile       string        `mapstructure:"exclude-file"`
	ExcludeCategories []string      `mapstructure:"exclude-categories"`
	MaxAge            time.Duration `mapstructure:"max-age"`
	// Disabled names steps to switch off, see DisableByName.
	Disabled []string `mapstructure:"disabled"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status(cfg *Config) Status
}

// Default returns the standard pipeline in execution order.
func Default() []Filter {
	return []Filter{
		NewInactive(),
		NewExcludeFile(),
		NewCategories(),
		NewMaxAge(),
	}
}

// New returns the default pipeline with the steps named in cfg.Disabled switched off.
func New(cfg *Config) []Filter {
	steps := Default()
	if cfg == nil {
		return steps
	}
	for _, name := range cfg.Disabled {
		DisableByName(steps, strings.TrimSpace(name), "disabled by configuration")
	}
	return steps
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns the vacancies left.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, v []domain.Vacancy) ([]domain.Vacancy, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, cfg, deps, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		v = next
	}

	return v, nil
}

// Describe returns status entries for the provided filters as they would run with cfg.
func Describe(steps []Filter, cfg *Config) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status(cfg))
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// exclude keeps the vacancies for which drop is false and returns the ids of the removed ones.
func exclude(v []domain.Vacancy, drop func(domain.Vacancy) bool) ([]domain.Vacancy, []string) {
	kept := make([]domain.Vacancy, 0, len(v))
	var removed []string
	for _, vacancy := range v {
		if drop(vacancy) {
			removed = append(removed, vacancy.ID)
			continue
		}
		kept = append(kept, vacancy)
	}
	return kept, removed
}
