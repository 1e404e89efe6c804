package cmd

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/talent-matcher/internal/cache"
	"github.com/spigell/talent-matcher/internal/classifier"
	"github.com/spigell/talent-matcher/internal/matching"
)

func TestNewCache(t *testing.T) {
	t.Setenv("TALENT_MATCHER_REDIS_PASSWORD", "")

	t.Run("disabled", func(t *testing.T) {
		store, closer, err := newCache(CacheConfig{Driver: cacheDriverRedis}, zap.NewNop())
		if err != nil || store != nil || closer != nil {
			t.Fatalf("expected no cache, got %v %v %v", store, closer, err)
		}
	})

	t.Run("memory by default", func(t *testing.T) {
		store, closer, err := newCache(CacheConfig{Enabled: true}, zap.NewNop())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := store.(*cache.Memory); !ok || closer != nil {
			t.Fatalf("expected memory cache without closer, got %T %v", store, closer)
		}
	})

	t.Run("redis requires addr", func(t *testing.T) {
		if _, _, err := newCache(CacheConfig{Enabled: true, Driver: cacheDriverRedis}, zap.NewNop()); err == nil {
			t.Fatalf("expected error for missing redis addr")
		}
	})

	t.Run("redis", func(t *testing.T) {
		store, closer, err := newCache(CacheConfig{
			Enabled: true,
			Driver:  "Redis",
			TTL:     time.Minute,
			Redis:   &RedisConfig{Addr: "127.0.0.1:6379", Prefix: "test"},
		}, zap.NewNop())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closer.Close()
		if _, ok := store.(*cache.Redis); !ok {
			t.Fatalf("expected redis cache, got %T", store)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, _, err := newCache(CacheConfig{Enabled: true, Driver: "memcached"}, zap.NewNop()); err == nil {
			t.Fatalf("expected error for unknown driver")
		}
	})
}

func TestNewCalculator(t *testing.T) {
	if _, err := newCalculator(MatchingConfig{}); err != nil {
		t.Fatalf("default weights: %v", err)
	}

	weights := matching.DefaultConfig()
	weights.Default = &matching.WeightProfile{}
	if _, err := newCalculator(MatchingConfig{Weights: &weights}); err == nil {
		t.Fatalf("expected error for zero default profile")
	}

	weights = matching.Config{Urgency: map[string]float64{"critical": 2}}
	if _, err := newCalculator(MatchingConfig{Weights: &weights}); err == nil {
		t.Fatalf("expected error for unknown urgency key")
	}
}

func TestNewClassifier(t *testing.T) {
	cls, overrides, err := newClassifier(ClassifierConfig{
		DefaultUnit: classifier.UnitHuntU,
		Units: []classifier.UnitConfig{
			{Name: "logistics", Keywords: map[string]float64{"forklift": 3}},
		},
		Overrides: map[string]any{
			"huntred":   map[string]any{"hard-skills": "2", "soft-skills": 1},
			"logistics": map[string]any{"hard-skills": 1, "location": 1},
		},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := overrides[classifier.UnitHuntRED]; !ok {
		t.Fatalf("expected override keyed by canonical unit name, got %v", overrides)
	}
	if overrides[classifier.UnitHuntRED].HardSkills != 2 {
		t.Fatalf("unexpected override %+v", overrides[classifier.UnitHuntRED])
	}
	if _, ok := overrides["logistics"]; !ok {
		t.Fatalf("expected override for runtime unit, got %v", overrides)
	}

	result, err := cls.Classify(classifier.Posting{Title: "Forklift operator"}, cls.Units(), overrides)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if result.Unit != "logistics" {
		t.Fatalf("expected logistics, got %s (%v)", result.Unit, result.Scores)
	}

	result, err = cls.Classify(classifier.Posting{Title: "xyz"}, cls.Units(), overrides)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !result.Fallback || result.Unit != classifier.UnitHuntU {
		t.Fatalf("expected fallback to configured default unit, got %+v", result)
	}
}

func TestNewClassifierRejectsBadOverride(t *testing.T) {
	_, _, err := newClassifier(ClassifierConfig{
		Overrides: map[string]any{"huntred": map[string]any{"weight": 1}},
	}, zap.NewNop())
	if err == nil {
		t.Fatalf("expected error for unknown override field")
	}
}
