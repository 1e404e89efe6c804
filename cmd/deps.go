package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/cache"
	"github.com/spigell/talent-matcher/internal/classifier"
	"github.com/spigell/talent-matcher/internal/filtering"
	"github.com/spigell/talent-matcher/internal/matching"
	"github.com/spigell/talent-matcher/internal/metrics"
	"github.com/spigell/talent-matcher/internal/recommend"
	"github.com/spigell/talent-matcher/internal/secrets"
	"github.com/spigell/talent-matcher/internal/store"
)

const (
	cacheDriverMemory = "memory"
	cacheDriverRedis  = "redis"
	defaultCacheTTL   = time.Hour
)

// session is everything a command needs after the config is loaded.
type session struct {
	config  *Config
	repo    store.Repository
	service *recommend.Service
	metrics *metrics.Metrics
	logger  *zap.Logger

	closers      []io.Closer
	metricsFile  string
	filterConfig *filtering.Config
}

func newSession(ctx context.Context, config *Config, logger *zap.Logger) (*session, error) {
	repo, closer, err := store.Open(ctx, config.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	sess := &session{
		config:       config,
		repo:         repo,
		metrics:      metrics.New(),
		logger:       logger,
		closers:      []io.Closer{closer},
		metricsFile:  strings.TrimSpace(config.Metrics.Textfile),
		filterConfig: &config.Filters,
	}

	scoreCache, cacheCloser, err := newCache(config.Cache, logger)
	if err != nil {
		sess.Close()
		return nil, err
	}
	if cacheCloser != nil {
		sess.closers = append(sess.closers, cacheCloser)
	}

	calculator, err := newCalculator(config.Matching)
	if err != nil {
		sess.Close()
		return nil, err
	}

	cls, overrides, err := newClassifier(config.Classifier, logger)
	if err != nil {
		sess.Close()
		return nil, err
	}

	filters := filtering.New(sess.filterConfig)
	for _, status := range filtering.Describe(filters, sess.filterConfig) {
		logger.Debug("filter configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	sess.service, err = recommend.New(recommend.Deps{
		Vacancies:  repo,
		Units:      repo,
		Calculator: calculator,
		Classifier: cls,
		Cache:      scoreCache,
		Metrics:    sess.metrics,
		Logger:     logger,
		Filters:    filters,
	}, recommend.Options{
		Workers:   config.Matching.Workers,
		TopN:      config.Matching.TopN,
		Filters:   sess.filterConfig,
		Overrides: overrides,
	})
	if err != nil {
		sess.Close()
		return nil, err
	}

	return sess, nil
}

// Close flushes metrics to the textfile when configured and releases connections.
func (s *session) Close() {
	if s.metricsFile != "" {
		if err := s.metrics.WriteTextfile(s.metricsFile); err != nil {
			s.logger.Warn("writing metrics textfile", zap.String("path", s.metricsFile), zap.Error(err))
		}
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warn("closing resource", zap.Error(err))
		}
	}
}

func newCache(cfg CacheConfig, logger *zap.Logger) (cache.Store, io.Closer, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", cacheDriverMemory:
		logger.Debug("using in-memory score cache", zap.Duration("ttl", ttl))
		return cache.NewMemory(ttl), nil, nil
	case cacheDriverRedis:
		if cfg.Redis == nil || strings.TrimSpace(cfg.Redis.Addr) == "" {
			return nil, nil, errors.New("cache.redis.addr is required for the redis cache")
		}
		password, err := secrets.LoadOptional(secrets.Source{
			Name: "redis password",
			File: cfg.Redis.PasswordFile,
			Env:  "TALENT_MATCHER_REDIS_PASSWORD",
		})
		if err != nil {
			return nil, nil, err
		}
		client := cache.NewRedisClient(cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: password,
		})
		logger.Debug("using redis score cache",
			zap.String("addr", cfg.Redis.Addr),
			zap.Int("db", cfg.Redis.DB),
			zap.Duration("ttl", ttl),
		)
		return cache.NewRedis(client, cfg.Redis.Prefix, ttl), client, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}

func newCalculator(cfg MatchingConfig) (*matching.Calculator, error) {
	weights := matching.DefaultConfig()
	if cfg.Weights != nil {
		weights = *cfg.Weights
	}
	calculator, err := matching.NewCalculator(weights)
	if err != nil {
		return nil, fmt.Errorf("matching weights: %w", err)
	}
	return calculator, nil
}

// newClassifier applies the classifier section on top of the built-in rules. Override keys arrive
// lowercased from viper and are resolved against the known unit names.
func newClassifier(cfg ClassifierConfig, logger *zap.Logger) (*classifier.Classifier, map[string]classifier.Profile, error) {
	rules := classifier.DefaultConfig()
	if unit := strings.TrimSpace(cfg.DefaultUnit); unit != "" {
		rules.DefaultUnit = unit
	}
	if len(cfg.Priority) > 0 {
		rules.Priority = cfg.Priority
	}

	cls, err := classifier.New(rules, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("classifier rules: %w", err)
	}
	if len(cfg.Units) > 0 {
		cls, _, err = cls.WithUnits(cfg.Units)
		if err != nil {
			return nil, nil, fmt.Errorf("classifier units: %w", err)
		}
	}

	decoded, err := classifier.DecodeOverrides(cfg.Overrides)
	if err != nil {
		return nil, nil, err
	}

	return cls, canonicalUnitNames(decoded, cls.Units()), nil
}

func canonicalUnitNames(overrides map[string]classifier.Profile, names []string) map[string]classifier.Profile {
	if len(overrides) == 0 {
		return nil
	}
	out := make(map[string]classifier.Profile, len(overrides))
	for key, profile := range overrides {
		name := key
		for _, known := range names {
			if strings.EqualFold(known, key) {
				name = known
				break
			}
		}
		out[name] = profile
	}
	return out
}
