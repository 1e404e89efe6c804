package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/domain"
)

type inactiveFilter struct {
	disabled bool
	reason   string
}

// NewInactive creates a filter that removes vacancies no longer open.
func NewInactive() Filter {
	return &inactiveFilter{}
}

func (f *inactiveFilter) Name() string { return "inactive" }

func (f *inactiveFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *inactiveFilter) IsEnabled() bool { return !f.disabled }

func (f *inactiveFilter) Validate(*Config) error { return nil }

func (f *inactiveFilter) Apply(_ context.Context, _ *Config, deps Deps, v []domain.Vacancy) ([]domain.Vacancy, Step, error) {
	initial := len(v)
	kept, removed := exclude(v, func(vacancy domain.Vacancy) bool { return !vacancy.Active })
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding inactive vacancies",
			zap.Strings("excluded_vacancies", removed),
			zap.Int("vacancies_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: len(kept)}, nil
}

func (f *inactiveFilter) Status(*Config) Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type excludeFileFilter struct {
	disabled bool
	reason   string
}

// NewExcludeFile creates a filter that removes vacancies listed in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludeFileFilter) IsEnabled() bool { return !f.disabled }

func (f *excludeFileFilter) Validate(*Config) error { return nil }

func excludeFilePath(cfg *Config) string {
	if cfg == nil {
		return ""
	}
	return strings.TrimSpace(cfg.ExcludeFile)
}

func (f *excludeFileFilter) Apply(_ context.Context, cfg *Config, deps Deps, v []domain.Vacancy) ([]domain.Vacancy, Step, error) {
	initial := len(v)
	path := excludeFilePath(cfg)
	if path == "" {
		return v, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	excluded, err := LoadExcluded(path)
	if err != nil {
		return v, Step{}, fmt.Errorf("getting excluded vacancies from file: %w", err)
	}

	ids := make(map[string]struct{}, len(excluded.Items))
	for _, id := range excluded.IDs() {
		ids[id] = struct{}{}
	}

	kept, removed := exclude(v, func(vacancy domain.Vacancy) bool {
		_, ok := ids[vacancy.ID]
		return ok
	})
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding vacancies based on exclude file",
			zap.String("path", path),
			zap.Strings("excluded_vacancies", removed),
			zap.Int("vacancies_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: len(kept)}, nil
}

func (f *excludeFileFilter) Status(cfg *Config) Status {
	details := map[string]string{}
	if path := excludeFilePath(cfg); path != "" {
		details["path"] = path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type categoriesFilter struct {
	disabled bool
	reason   string
}

// NewCategories creates a filter that removes vacancies of excluded categories.
func NewCategories() Filter {
	return &categoriesFilter{}
}

func (f *categoriesFilter) Name() string { return "categories" }

func (f *categoriesFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *categoriesFilter) IsEnabled() bool { return !f.disabled }

func (f *categoriesFilter) Validate(*Config) error { return nil }

// excludedCategories returns the configured categories lowercased, blanks dropped.
func excludedCategories(cfg *Config) []string {
	if cfg == nil {
		return nil
	}
	var out []string
	for _, category := range cfg.ExcludeCategories {
		if category = strings.ToLower(strings.TrimSpace(category)); category != "" {
			out = append(out, category)
		}
	}
	return out
}

func (f *categoriesFilter) Apply(_ context.Context, cfg *Config, deps Deps, v []domain.Vacancy) ([]domain.Vacancy, Step, error) {
	initial := len(v)
	categories := excludedCategories(cfg)
	if len(categories) == 0 {
		return v, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	kept, removed := exclude(v, func(vacancy domain.Vacancy) bool {
		category := strings.ToLower(strings.TrimSpace(vacancy.Category))
		for _, excluded := range categories {
			if category == excluded {
				return true
			}
		}
		return false
	})
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding vacancies by category",
			zap.Strings("excluded_categories", categories),
			zap.Strings("excluded_vacancies", removed),
			zap.Int("vacancies_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: len(kept)}, nil
}

func (f *categoriesFilter) Status(cfg *Config) Status {
	details := map[string]string{}
	if categories := excludedCategories(cfg); len(categories) > 0 {
		details["categories"] = strings.Join(categories, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type maxAgeFilter struct {
	disabled bool
	reason   string
}

// NewMaxAge creates a filter that removes vacancies older than the configured maximum age.
func NewMaxAge() Filter {
	return &maxAgeFilter{}
}

func (f *maxAgeFilter) Name() string { return "max_age" }

func (f *maxAgeFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *maxAgeFilter) IsEnabled() bool { return !f.disabled }

func (f *maxAgeFilter) Validate(cfg *Config) error {
	if cfg != nil && cfg.MaxAge < 0 {
		return fmt.Errorf("max age must not be negative, got %s", cfg.MaxAge)
	}
	return nil
}

func (f *maxAgeFilter) Apply(_ context.Context, cfg *Config, deps Deps, v []domain.Vacancy) ([]domain.Vacancy, Step, error) {
	initial := len(v)
	if cfg == nil || cfg.MaxAge <= 0 {
		return v, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	cutoff := deps.now().Add(-cfg.MaxAge)
	kept, removed := exclude(v, func(vacancy domain.Vacancy) bool {
		return !vacancy.CreatedAt.IsZero() && vacancy.CreatedAt.Before(cutoff)
	})
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding stale vacancies",
			zap.Duration("max_age", cfg.MaxAge),
			zap.Strings("excluded_vacancies", removed),
			zap.Int("vacancies_left", len(kept)),
		)
	}

	return kept, Step{Initial: initial, Dropped: len(removed), Left: len(kept)}, nil
}

func (f *maxAgeFilter) Status(cfg *Config) Status {
	details := map[string]string{}
	if cfg != nil && cfg.MaxAge > 0 {
		details["max_age"] = cfg.MaxAge.String()
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
