// Package store provides the persistence collaborators behind the recommendation service.
package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/classifier"
	"github.com/spigell/talent-matcher/internal/domain"
	"github.com/spigell/talent-matcher/internal/secrets"
	"github.com/spigell/talent-matcher/internal/store/dataset"
	"github.com/spigell/talent-matcher/internal/store/postgres"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Repository is everything the commands read from persistence.
type Repository interface {
	FindActiveVacancies(ctx context.Context, filter domain.VacancyFilter) ([]domain.Vacancy, error)
	FindVacancy(ctx context.Context, id string) (*domain.Vacancy, error)
	FindBusinessUnits(ctx context.Context) ([]classifier.UnitConfig, error)
	FindCandidate(ctx context.Context, id string) (*domain.Candidate, error)
}

type Config struct {
	Driver   string         `mapstructure:"driver"`
	Dataset  string         `mapstructure:"dataset"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
}

type PostgresConfig struct {
	DSN          string           `mapstructure:"dsn" json:"-"`
	DSNFile      string           `mapstructure:"dsn-file"`
	EnsureSchema bool             `mapstructure:"ensure-schema"`
	Pool         postgres.Options `mapstructure:"pool"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured repository wrapped in a circuit breaker when enabled. The returned closer
// releases database connections.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Repository, io.Closer, error) {
	var (
		repo   Repository
		closer io.Closer = nopCloser{}
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverFile:
		if strings.TrimSpace(cfg.Dataset) == "" {
			return nil, nil, fmt.Errorf("store.dataset is required for the %s driver", DriverFile)
		}
		ds, err := dataset.Load(cfg.Dataset)
		if err != nil {
			return nil, nil, err
		}
		repo = ds
	case DriverPostgres:
		dsn, err := secrets.Load(secrets.Source{
			Name:  "postgres dsn",
			Value: cfg.Postgres.DSN,
			File:  cfg.Postgres.DSNFile,
		})
		if err != nil {
			return nil, nil, err
		}
		db, err := postgres.OpenDB(ctx, dsn, cfg.Postgres.Pool)
		if err != nil {
			return nil, nil, err
		}
		pg := postgres.New(db)
		if cfg.Postgres.EnsureSchema {
			if err := pg.EnsureSchema(ctx); err != nil {
				_ = pg.Close()
				return nil, nil, err
			}
		}
		repo = pg
		closer = pg
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	if cfg.Breaker.Enabled {
		repo = NewBreaker(repo, cfg.Breaker, logger)
	}
	return repo, closer, nil
}
