package domain

import "time"

// VacancyFilter narrows the active vacancies a repository returns. Zero values mean no restriction.
type VacancyFilter struct {
	Categories   []string  `mapstructure:"categories"`
	CreatedAfter time.Time `mapstructure:"-"`
	Limit        int       `mapstructure:"limit"`
}
