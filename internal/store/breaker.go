package store

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/classifier"
	"github.com/spigell/talent-matcher/internal/domain"
)

type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MinRequests      uint32        `mapstructure:"min-requests"`
	FailureRatio     float64       `mapstructure:"failure-ratio"`
	OpenTimeout      time.Duration `mapstructure:"open-timeout"`
	HalfOpenMaxCalls uint32        `mapstructure:"half-open-max-calls"`
}

func (c BreakerConfig) normalize() BreakerConfig {
	if c.MinRequests == 0 {
		c.MinRequests = 5
	}
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = 0.5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HalfOpenMaxCalls == 0 {
		c.HalfOpenMaxCalls = 1
	}
	return c
}

// Breaker guards a Repository with one circuit breaker. While open, calls fail fast with
// gobreaker.ErrOpenState.
type Breaker struct {
	next Repository
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreaker(next Repository, cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.normalize()

	settings := gobreaker.Settings{
		Name:        "store",
		MaxRequests: cfg.HalfOpenMaxCalls,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[any](settings),
	}
}

// isSuccessful keeps caller-side outcomes from tripping the breaker.
func isSuccessful(err error) bool {
	return err == nil ||
		domain.IsKind(err, domain.ErrNotFound) ||
		errors.Is(err, context.Canceled)
}

// IsCircuitOpen reports whether err was produced by a tripped breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(func() (any, error) {
		v, err := fn()
		return v, err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (b *Breaker) FindActiveVacancies(ctx context.Context, filter domain.VacancyFilter) ([]domain.Vacancy, error) {
	return execute(b, func() ([]domain.Vacancy, error) {
		return b.next.FindActiveVacancies(ctx, filter)
	})
}

func (b *Breaker) FindVacancy(ctx context.Context, id string) (*domain.Vacancy, error) {
	return execute(b, func() (*domain.Vacancy, error) {
		return b.next.FindVacancy(ctx, id)
	})
}

func (b *Breaker) FindBusinessUnits(ctx context.Context) ([]classifier.UnitConfig, error) {
	return execute(b, func() ([]classifier.UnitConfig, error) {
		return b.next.FindBusinessUnits(ctx)
	})
}

func (b *Breaker) FindCandidate(ctx context.Context, id string) (*domain.Candidate, error) {
	return execute(b, func() (*domain.Candidate, error) {
		return b.next.FindCandidate(ctx, id)
	})
}
